package academic_test

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"

	"github.com/trezcool/shule/core/academic"
	"github.com/trezcool/shule/core/principal"
	dummydb "github.com/trezcool/shule/storage/database/dummy"
	testutil "github.com/trezcool/shule/tests"
)

func setup(t *testing.T) (*academic.Service, *dummydb.DB, principal.Repository) {
	conf := testutil.NewTestConfig(t)
	conf.Academic.DefaultSemester = "1"
	conf.Academic.DefaultSchoolYear = "2025"

	db, err := dummydb.Open()
	if err != nil {
		t.Fatalf("dummydb.Open() failed: %v", err)
	}
	repo := dummydb.NewPrincipalRepository(db)
	principalSvc := principal.NewService(repo, testutil.NewTestLogger(), nil)
	academicRepo := dummydb.NewAcademicRepository(db)
	svc := academic.NewService(academicRepo, academicRepo, principalSvc, testutil.NewTestLogger(), conf)
	return svc, db, repo
}

func TestService_CurrentDefault(t *testing.T) {
	svc, db, _ := setup(t)
	ctx := context.Background()

	_, err := svc.CurrentDefault(ctx)
	assert.Equal(t, academic.ErrNoSettings, errors.Cause(err))

	db.SetSettings(academic.Settings{
		Semester:  "2",
		StartDate: "2025-09-01 08:00:00",
		EndDate:   "2026-06-30 18:00:00",
	})
	p, err := svc.CurrentDefault(ctx)
	assert.NoError(t, err)
	assert.Equal(t, academic.Period{Semester: "2", SchoolYear: "2025 - 2026"}, p)

	// NULL semester defaults to "1"
	db.SetSettings(academic.Settings{StartDate: "2025-09-01", EndDate: "2026-06-30"})
	p, _ = svc.CurrentDefault(ctx)
	assert.Equal(t, "1", p.Semester)

	// missing dates void the school year, not the whole record
	db.SetSettings(academic.Settings{Semester: "2", StartDate: "2025-09-01"})
	p, err = svc.CurrentDefault(ctx)
	assert.NoError(t, err)
	assert.Equal(t, academic.Period{Semester: "2", SchoolYear: ""}, p)
}

func TestService_Current_fallbackOrder(t *testing.T) {
	svc, db, repo := setup(t)
	ctx := context.Background()

	db.SetSettings(academic.Settings{
		Semester:  "1",
		StartDate: "2025-09-01",
		EndDate:   "2026-06-30",
	})
	institutional := academic.Period{Semester: "1", SchoolYear: "2025 - 2026"}
	cached := academic.Period{Semester: "2", SchoolYear: "2023 - 2024"}

	withPref := testutil.CreatePrincipal(t, repo, "pref@test.cd", "", principal.Profile{
		principal.KeySemester:   "2",
		principal.KeySchoolYear: "2024 - 2025",
	}, true)
	plain := testutil.CreatePrincipal(t, repo, "plain@test.cd", "", nil, true)

	// tier 1: the profile preference wins over everything
	p := svc.Current(ctx, withPref, cached)
	assert.Equal(t, academic.Period{Semester: "2", SchoolYear: "2024 - 2025"}, p)

	// tier 2: institutional default; the cached pair is ignored
	p = svc.Current(ctx, plain, cached)
	assert.Equal(t, institutional, p)

	// tier 2 is used as-is even when its school year came up empty
	db.SetSettings(academic.Settings{Semester: "2"})
	p = svc.Current(ctx, plain, cached)
	assert.Equal(t, academic.Period{Semester: "2", SchoolYear: ""}, p)

	// tier 3: no settings record, fall back to the caller's cached pair
	db.ClearSettings()
	p = svc.Current(ctx, plain, cached)
	assert.Equal(t, cached, p)

	// tier 4: static configured fallback
	p = svc.Current(ctx, plain, academic.Period{Semester: "2"} /* incomplete */)
	assert.Equal(t, academic.Period{Semester: "1", SchoolYear: "2025"}, p)
}

type failingSettingsRepo struct{}

func (failingSettingsRepo) GetSettings(ctx context.Context) (academic.Settings, error) {
	return academic.Settings{}, errors.New("connection refused")
}

func TestService_Current_settingsFailureDegrades(t *testing.T) {
	_, db, repo := setup(t)
	conf := testutil.NewTestConfig(t)
	conf.Academic.DefaultSemester = "1"
	conf.Academic.DefaultSchoolYear = "2025"

	principalSvc := principal.NewService(repo, testutil.NewTestLogger(), nil)
	svc := academic.NewService(
		failingSettingsRepo{}, dummydb.NewAcademicRepository(db), principalSvc, testutil.NewTestLogger(), conf)

	plain := testutil.CreatePrincipal(t, repo, "plain@test.cd", "", nil, true)
	cached := academic.Period{Semester: "2", SchoolYear: "2023 - 2024"}

	assert.Equal(t, cached, svc.Current(context.Background(), plain, cached))
	assert.Equal(t,
		academic.Period{Semester: "1", SchoolYear: "2025"},
		svc.Current(context.Background(), plain, academic.Period{}))
}

func TestService_SavePeriod(t *testing.T) {
	svc, _, repo := setup(t)
	ctx := context.Background()

	prin := testutil.CreatePrincipal(t, repo, "awe@test.cd", "", principal.Profile{
		principal.KeyRole: principal.RoleStudent,
	}, true)

	err := svc.SavePeriod(ctx, prin.ID, academic.Period{Semester: "2", SchoolYear: "2025 - 2026"})
	assert.NoError(t, err)

	stored, _ := repo.GetPrincipalByID(ctx, prin.ID)
	p, ok := academic.ProfilePeriod(stored)
	assert.True(t, ok)
	assert.Equal(t, academic.Period{Semester: "2", SchoolYear: "2025 - 2026"}, p)
	assert.True(t, stored.IsStudent(), "unrelated profile keys survive")

	assert.Error(t, svc.SavePeriod(ctx, "ghost", academic.Period{Semester: "1", SchoolYear: "2025"}))
}

func TestService_DistinctPeriods(t *testing.T) {
	svc, db, _ := setup(t)
	ctx := context.Background()

	got, err := svc.DistinctPeriods(ctx)
	assert.NoError(t, err)
	assert.Empty(t, got)

	db.AddEnrollmentPeriods(
		academic.Period{SchoolYear: "2024 - 2025", Semester: "1"},
		academic.Period{SchoolYear: "2024 - 2025", Semester: "2"},
		academic.Period{SchoolYear: "2025 - 2026", Semester: "1"},
		academic.Period{SchoolYear: "2024 - 2025", Semester: "1"}, // duplicate
		academic.Period{SchoolYear: "", Semester: "1"},            // NULL year
	)

	got, err = svc.DistinctPeriods(ctx)
	assert.NoError(t, err)
	assert.Equal(t, []academic.SchoolYearPeriods{
		{SchoolYear: "2025 - 2026", Semesters: []string{"1"}},
		{SchoolYear: "2024 - 2025", Semesters: []string{"1", "2"}},
	}, got)
}

func TestService_DistinctPeriods_numericSemesterOrder(t *testing.T) {
	svc, db, _ := setup(t)

	db.AddEnrollmentPeriods(
		academic.Period{SchoolYear: "2025 - 2026", Semester: "10"},
		academic.Period{SchoolYear: "2025 - 2026", Semester: "2"},
		academic.Period{SchoolYear: "2025 - 2026", Semester: "1"},
	)
	got, err := svc.DistinctPeriods(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, []string{"1", "2", "10"}, got[0].Semesters)
}
