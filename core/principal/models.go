package principal

import (
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/trezcool/shule/core"
)

// Roles
const (
	RoleStudent = "student" // -> STUDENT PORTAL
	RoleFaculty = "faculty" // -> FACULTY PORTAL
	// an empty role means the principal has not been matched against
	// the roster yet (or never will be)
)

// Profile keys. The profile is a free-form string map owned by the
// access gate and the period-preference save path; unrelated keys must
// survive any partial update.
const (
	KeyRole       = "role"
	KeyStudentID  = "student_id"
	KeyFacultyID  = "faculty_id"
	KeyName       = "name"
	KeyBirthDate  = "birth_date"
	KeyPhone      = "phone"
	KeySemester   = "semester"
	KeySchoolYear = "school_year"
)

type Profile map[string]string

func (p Profile) get(key string) string {
	if p == nil {
		return ""
	}
	return p[key]
}

func (p Profile) Role() string      { return p.get(KeyRole) }
func (p Profile) BirthDate() string { return p.get(KeyBirthDate) }
func (p Profile) Phone() string     { return p.get(KeyPhone) }

// RoleID returns the roster identifier for the profile's role.
func (p Profile) RoleID() string {
	switch p.Role() {
	case RoleStudent:
		return p.get(KeyStudentID)
	case RoleFaculty:
		return p.get(KeyFacultyID)
	}
	return ""
}

// Merge copies fields into a new Profile, keeping unrelated existing keys.
func (p Profile) Merge(fields map[string]string) Profile {
	merged := make(Profile, len(p)+len(fields))
	for k, v := range p {
		merged[k] = v
	}
	for k, v := range fields {
		merged[k] = v
	}
	return merged
}

// Principal is an authenticated caller, created on signup by the auth
// collaborator and enriched by the access gate.
type Principal struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	Profile      Profile   `json:"profile"`
	IsActive     *bool     `json:"is_active"`
	PasswordHash []byte    `json:"-"`
	CreatedAt    time.Time `json:"created_at"` // UTC
	UpdatedAt    time.Time `json:"updated_at"` // UTC
	LastLogin    time.Time `json:"last_login"` // UTC
}

func (p *Principal) SetPassword(pwd string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(pwd), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	p.PasswordHash = hash
	return nil
}

func (p *Principal) CheckPassword(pwd string) error {
	return bcrypt.CompareHashAndPassword(p.PasswordHash, []byte(pwd))
}

func (p Principal) Role() string    { return p.Profile.Role() }
func (p Principal) IsStudent() bool { return p.Role() == RoleStudent }
func (p Principal) IsFaculty() bool { return p.Role() == RoleFaculty }

// ProfileComplete reports whether the profile holds every field the
// principal's role requires before dashboard routes may be reached.
// A principal with no role is never complete.
func (p Principal) ProfileComplete() bool {
	switch p.Role() {
	case RoleStudent:
		return p.Profile.get(KeyStudentID) != "" && p.Profile.BirthDate() != "" && p.Profile.Phone() != ""
	case RoleFaculty:
		return p.Profile.get(KeyFacultyID) != "" && p.Profile.Phone() != ""
	}
	return false
}

// NewPrincipal contains information needed to register a new Principal.
type NewPrincipal struct {
	Email           string `json:"email" validate:"required,email"`
	Password        string `json:"password" validate:"required"`
	PasswordConfirm string `json:"password_confirm" validate:"required,eqfield=Password"`
}

func (np *NewPrincipal) Validate(svc ServiceInterface) error {
	np.Email = core.CleanString(np.Email, true /* lower */)
	if err := core.Validate.Struct(np); err != nil {
		return err
	}
	return svc.CheckEmailUniqueness(np.Email)
}

// Onboarding defines the contact fields a principal fills in when their
// roster record did not carry them.
type Onboarding struct {
	BirthDate string `json:"birth_date" validate:"omitempty,datetime=2006-01-02"`
	Phone     string `json:"phone" validate:"omitempty,phone_"`
}

func (ob *Onboarding) Validate() error {
	ob.BirthDate = core.CleanString(ob.BirthDate)
	ob.Phone = core.CleanString(ob.Phone)
	return core.Validate.Struct(ob)
}

func (ob Onboarding) fields() map[string]string {
	fields := make(map[string]string, 2)
	if ob.BirthDate != "" {
		fields[KeyBirthDate] = ob.BirthDate
	}
	if ob.Phone != "" {
		fields[KeyPhone] = ob.Phone
	}
	return fields
}
