package dummydb

import (
	"sync"

	"github.com/trezcool/shule/core/academic"
	"github.com/trezcool/shule/core/principal"
)

type (
	DB struct {
		principal  *principalTable
		settings   *settingsTable
		enrollment *enrollmentTable
	}

	principalTable struct {
		sync.RWMutex
		table map[string]*principal.Principal
	}

	settingsTable struct {
		sync.RWMutex
		record *academic.Settings
	}

	enrollmentTable struct {
		sync.RWMutex
		rows []academic.Period
	}
)

func Open() (*DB, error) {
	db := &DB{
		principal:  &principalTable{table: make(map[string]*principal.Principal)},
		settings:   &settingsTable{},
		enrollment: &enrollmentTable{},
	}
	return db, nil
}

// SetSettings seeds the general-settings record.
func (db *DB) SetSettings(s academic.Settings) {
	db.settings.Lock()
	defer db.settings.Unlock()
	db.settings.record = &s
}

// ClearSettings removes the general-settings record.
func (db *DB) ClearSettings() {
	db.settings.Lock()
	defer db.settings.Unlock()
	db.settings.record = nil
}

// AddEnrollmentPeriods seeds enrollment (school_year, semester) rows;
// incomplete pairs stand for NULL columns.
func (db *DB) AddEnrollmentPeriods(periods ...academic.Period) {
	db.enrollment.Lock()
	defer db.enrollment.Unlock()
	db.enrollment.rows = append(db.enrollment.rows, periods...)
}
