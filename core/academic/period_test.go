package academic_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/trezcool/shule/core/academic"
	"github.com/trezcool/shule/core/principal"
)

func TestExtractYear(t *testing.T) {
	tests := []struct {
		name     string
		datetime string
		want     string
	}{
		{"full datetime", "2025-09-01 08:00:00", "2025"},
		{"date only", "2025-09-01", "2025"},
		{"bare year", "2025", "2025"},
		{"padded", "  2025-09-01 ", "2025"},
		{"empty", "", ""},
		{"two-digit year", "25-09-01", ""},
		{"garbage", "lol-09-01", ""},
		{"non-numeric year", "abcd-09-01", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, academic.ExtractYear(tt.datetime))
		})
	}
}

func TestFormatSchoolYear(t *testing.T) {
	assert.Equal(t, "2025 - 2026", academic.FormatSchoolYear("2025-09-01 08:00:00", "2026-06-30 18:00:00"))
	assert.Empty(t, academic.FormatSchoolYear("", "2026-06-30 18:00:00"))
	assert.Empty(t, academic.FormatSchoolYear("2025-09-01 08:00:00", ""))
	assert.Empty(t, academic.FormatSchoolYear("lol", "2026-06-30"))
}

func TestProfilePeriod(t *testing.T) {
	prin := principal.Principal{Profile: principal.Profile{
		principal.KeySemester:   "2",
		principal.KeySchoolYear: "2025 - 2026",
	}}
	p, ok := academic.ProfilePeriod(prin)
	assert.True(t, ok)
	assert.Equal(t, academic.Period{Semester: "2", SchoolYear: "2025 - 2026"}, p)

	_, ok = academic.ProfilePeriod(principal.Principal{Profile: principal.Profile{principal.KeySemester: "2"}})
	assert.False(t, ok, "half a pair is no pair")

	_, ok = academic.ProfilePeriod(principal.Principal{})
	assert.False(t, ok)
}

func TestPeriod_Validate(t *testing.T) {
	p := academic.Period{Semester: " 2 ", SchoolYear: " 2025 - 2026 "}
	assert.NoError(t, p.Validate())
	assert.Equal(t, "2", p.Semester, "values are cleaned in place")
	assert.Equal(t, "2025 - 2026", p.SchoolYear)

	assert.Error(t, (&academic.Period{Semester: "", SchoolYear: "2025"}).Validate())
	assert.Error(t, (&academic.Period{Semester: "lol", SchoolYear: "2025"}).Validate())
	assert.Error(t, (&academic.Period{Semester: "1", SchoolYear: "25"}).Validate())
	assert.NoError(t, (&academic.Period{Semester: "1", SchoolYear: "2025"}).Validate(), "bare year allowed")
}
