package principal_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/trezcool/shule/core/principal"
)

func TestProfile_Merge(t *testing.T) {
	orig := principal.Profile{
		principal.KeyRole:     principal.RoleStudent,
		principal.KeySemester: "1",
	}
	merged := orig.Merge(map[string]string{
		principal.KeySemester:   "2",
		principal.KeySchoolYear: "2025",
	})

	assert.Equal(t, principal.RoleStudent, merged.Role(), "unrelated keys survive")
	assert.Equal(t, "2", merged[principal.KeySemester])
	assert.Equal(t, "2025", merged[principal.KeySchoolYear])
	assert.Equal(t, "1", orig[principal.KeySemester], "original is untouched")

	var nilProfile principal.Profile
	assert.NotNil(t, nilProfile.Merge(nil))
}

func TestProfile_RoleID(t *testing.T) {
	student := principal.Profile{principal.KeyRole: principal.RoleStudent, principal.KeyStudentID: "S-1"}
	faculty := principal.Profile{principal.KeyRole: principal.RoleFaculty, principal.KeyFacultyID: "F-1"}
	norole := principal.Profile{principal.KeyStudentID: "S-1"}

	assert.Equal(t, "S-1", student.RoleID())
	assert.Equal(t, "F-1", faculty.RoleID())
	assert.Empty(t, norole.RoleID())
}

func TestPrincipal_ProfileComplete(t *testing.T) {
	tests := []struct {
		name    string
		profile principal.Profile
		want    bool
	}{
		{"no role", principal.Profile{}, false},
		{
			"complete student",
			principal.Profile{
				principal.KeyRole:      principal.RoleStudent,
				principal.KeyStudentID: "S-1",
				principal.KeyBirthDate: "2004-01-01",
				principal.KeyPhone:     "+243 970 000 000",
			},
			true,
		},
		{
			"student missing birth date",
			principal.Profile{
				principal.KeyRole:      principal.RoleStudent,
				principal.KeyStudentID: "S-1",
				principal.KeyPhone:     "+243 970 000 000",
			},
			false,
		},
		{
			"student missing id",
			principal.Profile{
				principal.KeyRole:      principal.RoleStudent,
				principal.KeyBirthDate: "2004-01-01",
				principal.KeyPhone:     "+243 970 000 000",
			},
			false,
		},
		{
			"complete faculty",
			principal.Profile{
				principal.KeyRole:      principal.RoleFaculty,
				principal.KeyFacultyID: "F-1",
				principal.KeyPhone:     "+243 970 000 000",
			},
			true,
		},
		{
			"faculty needs no birth date",
			principal.Profile{
				principal.KeyRole:      principal.RoleFaculty,
				principal.KeyFacultyID: "F-1",
				principal.KeyPhone:     "+243 970 000 000",
			},
			true,
		},
		{
			"faculty missing phone",
			principal.Profile{
				principal.KeyRole:      principal.RoleFaculty,
				principal.KeyFacultyID: "F-1",
			},
			false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prin := principal.Principal{Profile: tt.profile}
			assert.Equal(t, tt.want, prin.ProfileComplete())
		})
	}
}

func TestPrincipal_password(t *testing.T) {
	var prin principal.Principal
	assert.Error(t, prin.CheckPassword("nope"), "no hash set")

	assert.NoError(t, prin.SetPassword("s3cret"))
	assert.NoError(t, prin.CheckPassword("s3cret"))
	assert.Error(t, prin.CheckPassword("S3cret"))
}
