package dummydb

import (
	"context"

	"github.com/trezcool/shule/core/academic"
)

type academicRepository struct {
	settings   *settingsTable
	enrollment *enrollmentTable
}

var (
	_ academic.SettingsRepository   = (*academicRepository)(nil) // interface compliance check
	_ academic.EnrollmentRepository = (*academicRepository)(nil)
)

func NewAcademicRepository(db *DB) *academicRepository {
	return &academicRepository{settings: db.settings, enrollment: db.enrollment}
}

func (repo *academicRepository) GetSettings(ctx context.Context) (academic.Settings, error) {
	repo.settings.RLock()
	defer repo.settings.RUnlock()

	if repo.settings.record == nil {
		return academic.Settings{}, academic.ErrNoSettings
	}
	return *repo.settings.record, nil
}

func (repo *academicRepository) QueryEnrollmentPeriods(ctx context.Context) ([]academic.Period, error) {
	repo.enrollment.RLock()
	defer repo.enrollment.RUnlock()

	periods := make([]academic.Period, 0, len(repo.enrollment.rows))
	for _, p := range repo.enrollment.rows {
		if p.IsComplete() { // NULL columns are filtered out by the real query
			periods = append(periods, p)
		}
	}
	return periods, nil
}
