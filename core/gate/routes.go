package gate

import "strings"

// Class partitions URL paths; every request matches exactly one class at
// evaluation time.
type Class int

const (
	ClassPublic Class = iota
	ClassOnboarding
	ClassStudentOnly
	ClassFacultyOnly
	ClassSharedProtected
)

func (c Class) String() string {
	switch c {
	case ClassPublic:
		return "public"
	case ClassOnboarding:
		return "onboarding"
	case ClassStudentOnly:
		return "student-only"
	case ClassFacultyOnly:
		return "faculty-only"
	}
	return "shared-protected"
}

// Redirect targets; part of the observable contract.
const (
	SignInPath      = "/sign-in"
	OnboardingPath  = "/onboarding"
	StudentHomePath = "/dashboard/student"
	FacultyHomePath = "/dashboard/faculty"
)

type rule struct {
	prefix string
	class  Class
}

// Table is an immutable route-classification table, computed once at
// process start. Rules apply first-match-wins in the order
// public -> onboarding -> role-specific -> shared-protected; anything
// unmatched defaults to shared-protected.
type Table struct {
	rules []rule
}

func NewTable() *Table {
	return &Table{}
}

func (t *Table) add(class Class, prefixes ...string) *Table {
	for _, p := range prefixes {
		t.rules = append(t.rules, rule{prefix: p, class: class})
	}
	return t
}

func (t *Table) Public(prefixes ...string) *Table      { return t.add(ClassPublic, prefixes...) }
func (t *Table) Onboarding(prefixes ...string) *Table  { return t.add(ClassOnboarding, prefixes...) }
func (t *Table) StudentOnly(prefixes ...string) *Table { return t.add(ClassStudentOnly, prefixes...) }
func (t *Table) FacultyOnly(prefixes ...string) *Table { return t.add(ClassFacultyOnly, prefixes...) }
func (t *Table) Shared(prefixes ...string) *Table      { return t.add(ClassSharedProtected, prefixes...) }

func (t *Table) Classify(path string) Class {
	for _, r := range t.rules {
		if matches(path, r.prefix) {
			return r.class
		}
	}
	return ClassSharedProtected
}

// matches reports whether path equals prefix or sits below it.
func matches(path, prefix string) bool {
	if path == prefix {
		return true
	}
	prefix = strings.TrimRight(prefix, "/")
	return strings.HasPrefix(path, prefix+"/")
}
