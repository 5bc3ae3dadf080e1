package academic

import (
	"strconv"
	"strings"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/principal"
)

// Period is a (semester, school year) pair scoping which enrollment and
// grade data is relevant, eg. {"2", "2025 - 2026"}.
type Period struct {
	Semester   string `json:"semester" validate:"required,semester"`
	SchoolYear string `json:"school_year" validate:"required,schoolyear"`
}

func (p Period) IsComplete() bool {
	return p.Semester != "" && p.SchoolYear != ""
}

func (p *Period) Validate() error {
	p.Semester = core.CleanString(p.Semester)
	p.SchoolYear = core.CleanString(p.SchoolYear)
	return core.Validate.Struct(p)
}

// ProfileFields maps the period onto principal profile keys.
func (p Period) ProfileFields() map[string]string {
	return map[string]string{
		principal.KeySemester:   p.Semester,
		principal.KeySchoolYear: p.SchoolYear,
	}
}

// ProfilePeriod reads the period cached on a principal's profile;
// incomplete pairs are discarded.
func ProfilePeriod(prin principal.Principal) (Period, bool) {
	p := Period{
		Semester:   prin.Profile[principal.KeySemester],
		SchoolYear: prin.Profile[principal.KeySchoolYear],
	}
	return p, p.IsComplete()
}

// ExtractYear returns the leading "YYYY" token of a `YYYY-MM-DD HH:MM:SS`
// date-time string, or "" when missing or unparsable.
func ExtractYear(datetime string) string {
	datetime = strings.TrimSpace(datetime)
	if datetime == "" {
		return ""
	}
	year := strings.SplitN(datetime, "-", 2)[0]
	if len(year) != 4 {
		return ""
	}
	if _, err := strconv.Atoi(year); err != nil {
		return ""
	}
	return year
}

// FormatSchoolYear builds "{startYear} - {endYear}" from the school start
// and end date-time strings; either side missing voids the whole result.
func FormatSchoolYear(startDate, endDate string) string {
	start := ExtractYear(startDate)
	end := ExtractYear(endDate)
	if start == "" || end == "" {
		return ""
	}
	return start + " - " + end
}

// SchoolYearPeriods is one school year with its known semesters, ascending.
type SchoolYearPeriods struct {
	SchoolYear string   `json:"school_year"`
	Semesters  []string `json:"semesters"`
}
