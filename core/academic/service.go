package academic

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/principal"
)

var (
	// ErrNoSettings is returned when no general-settings record exists yet.
	ErrNoSettings = errors.New("school settings not found")

	// bound applied to the fire-and-forget profile write
	savePeriodTimeout = 5 * time.Second
)

type (
	// Settings is the institution's general-settings record; empty strings
	// stand for NULL columns.
	Settings struct {
		Semester  string
		StartDate string // `YYYY-MM-DD HH:MM:SS`
		EndDate   string // `YYYY-MM-DD HH:MM:SS`
	}

	SettingsRepository interface {
		GetSettings(ctx context.Context) (Settings, error)
	}

	// EnrollmentRepository exposes the read view needed for the period
	// selector; rows with NULL school_year or semester are filtered out.
	EnrollmentRepository interface {
		QueryEnrollmentPeriods(ctx context.Context) ([]Period, error)
	}

	ServiceInterface interface {
		CurrentDefault(ctx context.Context) (Period, error)
		Current(ctx context.Context, prin principal.Principal, cached Period) Period
		SavePeriod(ctx context.Context, principalID string, p Period) error
		SavePeriodAsync(principalID string, p Period)
		DistinctPeriods(ctx context.Context) ([]SchoolYearPeriods, error)
	}

	Service struct {
		settings   SettingsRepository
		enrolls    EnrollmentRepository
		principals principal.ServiceInterface
		logger     core.Logger
		conf       *core.Config
	}
)

var _ ServiceInterface = (*Service)(nil)

func NewService(
	settings SettingsRepository,
	enrolls EnrollmentRepository,
	principals principal.ServiceInterface,
	logger core.Logger,
	conf *core.Config,
) *Service {
	return &Service{
		settings:   settings,
		enrolls:    enrolls,
		principals: principals,
		logger:     logger,
		conf:       conf,
	}
}

// CurrentDefault computes the institution's currently configured period
// from the general-settings record: the record's semester as-is ("1" when
// NULL) and "{startYear} - {endYear}" from its start/end dates ("" when
// either is unparsable or missing).
func (svc *Service) CurrentDefault(ctx context.Context) (Period, error) {
	settings, err := svc.settings.GetSettings(ctx)
	if err != nil {
		return Period{}, errors.Wrap(err, "getting school settings")
	}

	semester := settings.Semester
	if semester == "" {
		semester = "1"
	}
	return Period{
		Semester:   semester,
		SchoolYear: FormatSchoolYear(settings.StartDate, settings.EndDate),
	}, nil
}

// Current resolves the period for a session bootstrap:
// profile preference -> institutional default -> caller's cached pair ->
// static fallback. It never fails; degraded tiers are logged only.
func (svc *Service) Current(ctx context.Context, prin principal.Principal, cached Period) Period {
	if p, ok := ProfilePeriod(prin); ok {
		return p
	}

	if p, err := svc.CurrentDefault(ctx); err == nil {
		return p
	} else if errors.Cause(err) != ErrNoSettings {
		svc.logger.Warn(fmt.Sprintf("academic: institutional default unavailable: %v", err))
	}

	if cached.IsComplete() {
		return cached
	}
	return svc.fallbackPeriod()
}

func (svc *Service) fallbackPeriod() Period {
	return Period{
		Semester:   svc.conf.Academic.DefaultSemester,
		SchoolYear: svc.conf.Academic.DefaultSchoolYear,
	}
}

// SavePeriod persists a principal's explicit period override to their profile.
func (svc *Service) SavePeriod(ctx context.Context, principalID string, p Period) error {
	if _, err := svc.principals.PatchProfile(ctx, principalID, p.ProfileFields()); err != nil {
		return errors.Wrap(err, "saving period preference")
	}
	return nil
}

// SavePeriodAsync is the fire-and-forget variant used by the save path:
// the caller's local cache stays authoritative for the session regardless
// of the remote-write outcome, so failures are logged, never surfaced.
func (svc *Service) SavePeriodAsync(principalID string, p Period) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), savePeriodTimeout)
		defer cancel()
		if err := svc.SavePeriod(ctx, principalID, p); err != nil {
			svc.logger.Error(fmt.Sprintf("academic: async period save for %s: %v", principalID, err), err)
		}
	}()
}

// DistinctPeriods enumerates the selector options: every non-null
// (school_year, semester) pair seen on enrollments, semesters grouped and
// deduped under each school year (ascending), years descending.
func (svc *Service) DistinctPeriods(ctx context.Context) ([]SchoolYearPeriods, error) {
	pairs, err := svc.enrolls.QueryEnrollmentPeriods(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "querying enrollment periods")
	}

	byYear := make(map[string]map[string]struct{})
	for _, p := range pairs {
		if !p.IsComplete() {
			continue
		}
		if byYear[p.SchoolYear] == nil {
			byYear[p.SchoolYear] = make(map[string]struct{})
		}
		byYear[p.SchoolYear][p.Semester] = struct{}{}
	}

	years := make([]string, 0, len(byYear))
	for year := range byYear {
		years = append(years, year)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(years)))

	out := make([]SchoolYearPeriods, 0, len(years))
	for _, year := range years {
		semesters := make([]string, 0, len(byYear[year]))
		for sem := range byYear[year] {
			semesters = append(semesters, sem)
		}
		sort.Slice(semesters, func(i, j int) bool { return lessSemester(semesters[i], semesters[j]) })
		out = append(out, SchoolYearPeriods{SchoolYear: year, Semesters: semesters})
	}
	return out, nil
}

// lessSemester orders numeric semester values numerically ("2" < "10"),
// falling back to lexical order for anything else.
func lessSemester(a, b string) bool {
	ai, aerr := strconv.Atoi(a)
	bi, berr := strconv.Atoi(b)
	if aerr == nil && berr == nil {
		return ai < bi
	}
	return a < b
}
