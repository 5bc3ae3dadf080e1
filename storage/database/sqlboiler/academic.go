package boiledrepos

import (
	"context"
	"database/sql"
	"strconv"

	"github.com/friendsofgo/errors"
	"github.com/volatiletech/null/v8"
	"github.com/volatiletech/sqlboiler/v4/queries"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/academic"
)

// AcademicRepository serves the read views behind the academic period
// resolver: the general-settings record and the enrollment period scan.
type AcademicRepository struct {
	exec core.DBExecutor
}

var (
	_ academic.SettingsRepository   = (*AcademicRepository)(nil) // interface compliance check
	_ academic.EnrollmentRepository = (*AcademicRepository)(nil)
)

func NewAcademicRepository(exec core.DBExecutor) *AcademicRepository {
	return &AcademicRepository{exec: exec}
}

type settingsRow struct {
	Semester     null.String `boil:"semester"`
	StartingDate null.String `boil:"school_starting_date"`
	EndingDate   null.String `boil:"school_ending_date"`
}

func (repo *AcademicRepository) GetSettings(ctx context.Context) (academic.Settings, error) {
	var row settingsRow
	err := queries.Raw(
		`SELECT semester, school_starting_date, school_ending_date
		 FROM school_settings ORDER BY id LIMIT 1`,
	).Bind(ctx, repo.exec, &row)
	if err != nil {
		if err == sql.ErrNoRows {
			return academic.Settings{}, academic.ErrNoSettings
		}
		return academic.Settings{}, errors.Wrap(err, "selecting school settings")
	}
	return academic.Settings{
		Semester:  row.Semester.String,
		StartDate: row.StartingDate.String,
		EndDate:   row.EndingDate.String,
	}, nil
}

type enrollmentPeriodRow struct {
	SchoolYear null.String `boil:"school_year"`
	Semester   null.Int    `boil:"semester"`
}

func (repo *AcademicRepository) QueryEnrollmentPeriods(ctx context.Context) ([]academic.Period, error) {
	var rows []enrollmentPeriodRow
	err := queries.Raw(
		`SELECT DISTINCT school_year, semester
		 FROM enrollment
		 WHERE school_year IS NOT NULL AND semester IS NOT NULL`,
	).Bind(ctx, repo.exec, &rows)
	if err != nil {
		return nil, errors.Wrap(err, "selecting enrollment periods")
	}

	periods := make([]academic.Period, 0, len(rows))
	for _, row := range rows {
		if !row.SchoolYear.Valid || !row.Semester.Valid {
			continue
		}
		periods = append(periods, academic.Period{
			Semester:   strconv.Itoa(row.Semester.Int),
			SchoolYear: row.SchoolYear.String,
		})
	}
	return periods, nil
}
