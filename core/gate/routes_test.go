package gate_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/trezcool/shule/core/gate"
)

func TestTable_Classify(t *testing.T) {
	table := gate.NewTable().
		Public(gate.SignInPath, "/about").
		Onboarding(gate.OnboardingPath).
		StudentOnly(gate.StudentHomePath).
		FacultyOnly(gate.FacultyHomePath).
		Shared("/grades")

	tests := []struct {
		path string
		want gate.Class
	}{
		{gate.SignInPath, gate.ClassPublic},
		{"/about", gate.ClassPublic},
		{"/about/team", gate.ClassPublic},
		{"/aboutus", gate.ClassSharedProtected}, // prefix match is segment-wise
		{gate.OnboardingPath, gate.ClassOnboarding},
		{gate.OnboardingPath + "/step-2", gate.ClassOnboarding},
		{gate.StudentHomePath, gate.ClassStudentOnly},
		{gate.StudentHomePath + "/courses", gate.ClassStudentOnly},
		{gate.FacultyHomePath, gate.ClassFacultyOnly},
		{"/grades", gate.ClassSharedProtected},
		{"/grades/2025", gate.ClassSharedProtected},
		{"/anything-else", gate.ClassSharedProtected}, // default
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, table.Classify(tt.path))
		})
	}
}
