package tests

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	. "github.com/trezcool/shule/apps/api/echo"
	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/academic"
	"github.com/trezcool/shule/core/principal"
	"github.com/trezcool/shule/core/roster"
	emailsvc "github.com/trezcool/shule/services/email"
	dummydb "github.com/trezcool/shule/storage/database/dummy"
	testutil "github.com/trezcool/shule/tests"
)

var (
	conf *core.Config
	db   *dummydb.DB
	repo principal.Repository

	errNotAuthenticated = httpErr{Error: "authentication required"}
)

type fakeResolver struct {
	identities map[string]roster.Identity
	calls      int
}

func (r *fakeResolver) Resolve(ctx context.Context, email string) roster.Identity {
	r.calls++
	return r.identities[email]
}

func setup(t *testing.T, identities map[string]roster.Identity) Server {
	conf = testutil.NewTestConfig(t)
	conf.Debug = false
	conf.Academic.DefaultSemester = "1"
	conf.Academic.DefaultSchoolYear = "2025"

	// set up DB & repos
	var err error
	if db, err = dummydb.Open(); err != nil {
		t.Fatalf("dummydb.Open() failed: %v", err)
	}
	repo = dummydb.NewPrincipalRepository(db)

	// set up services
	emailsvc.ClearSentMessages()
	mailSvc := emailsvc.NewConsoleServiceMock(conf)
	principalSvc := principal.NewService(repo, testutil.NewTestLogger(), mailSvc)
	academicRepo := dummydb.NewAcademicRepository(db)
	academicSvc := academic.NewService(academicRepo, academicRepo, principalSvc, testutil.NewTestLogger(), conf)

	// set up server
	return NewServer(
		ServerDeps{
			Conf:           conf,
			Logger:         testutil.NewTestLogger(),
			PrincipalSvc:   principalSvc,
			AcademicSvc:    academicSvc,
			Resolver:       &fakeResolver{identities: identities},
			DisableReqLogs: true,
		},
	)
}

type httpErr struct {
	Error string `json:"error"`
}

type redirectErr struct {
	Redirect string `json:"redirect"`
	Reason   string `json:"reason"`
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     []byte
	token    string
	wantCode int
	wantData []byte
	extra    interface{}
}

func newAuthRequest(method, path, token string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	return req, rec
}

func newRequest(method, path string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	return newAuthRequest(method, path, "", data...)
}

func getToken(t *testing.T, prin principal.Principal) string {
	claims := GetPrincipalClaims(conf, prin)
	token, err := GenerateToken(conf, claims)
	if err != nil {
		t.Fatalf("getToken(): %v", err)
	}
	return token
}

func marchallObj(t *testing.T, obj interface{}) []byte {
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marchallObj(): %v", err)
	}
	return data
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	if rec.Code != tt.wantCode {
		t.Errorf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
	}
	if diff := testutil.JSONDiff(t, rec.Body.Bytes(), tt.wantData); diff != "" {
		t.Errorf("failed! data mismatch:\n%s", diff)
	}
}

func jsonDecode(rec *httptest.ResponseRecorder, dest interface{}) error {
	return json.Unmarshal(rec.Body.Bytes(), dest)
}

func responseCookie(rec *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func studentProfile() principal.Profile {
	return principal.Profile{
		principal.KeyRole:      principal.RoleStudent,
		principal.KeyStudentID: "S-001",
		principal.KeyBirthDate: "2004-02-29",
		principal.KeyPhone:     "+243 970 000 001",
	}
}

func facultyProfile() principal.Profile {
	return principal.Profile{
		principal.KeyRole:      principal.RoleFaculty,
		principal.KeyFacultyID: "F-001",
		principal.KeyPhone:     "+243 970 000 002",
	}
}
