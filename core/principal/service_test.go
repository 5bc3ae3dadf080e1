package principal_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/trezcool/shule/core/principal"
	emailsvc "github.com/trezcool/shule/services/email"
	dummydb "github.com/trezcool/shule/storage/database/dummy"
	testutil "github.com/trezcool/shule/tests"
)

func setup(t *testing.T) (*principal.Service, principal.Repository) {
	conf := testutil.NewTestConfig(t)

	db, err := dummydb.Open()
	if err != nil {
		t.Fatalf("dummydb.Open() failed: %v", err)
	}
	repo := dummydb.NewPrincipalRepository(db)

	emailsvc.ClearSentMessages()
	mailSvc := emailsvc.NewConsoleServiceMock(conf)
	return principal.NewService(repo, testutil.NewTestLogger(), mailSvc), repo
}

func TestService_Register(t *testing.T) {
	svc, _ := setup(t)
	ctx := context.Background()

	prin, err := svc.Register(ctx, principal.NewPrincipal{
		Email:           "awe@test.cd",
		Password:        "s3cret",
		PasswordConfirm: "s3cret",
	})
	assert.NoError(t, err)
	assert.NotEmpty(t, prin.ID)
	assert.NotNil(t, prin.IsActive)
	assert.True(t, *prin.IsActive)
	assert.Empty(t, prin.Role(), "accounts start with no role")
	assert.NoError(t, prin.CheckPassword("s3cret"))
}

func TestService_CompleteOnboarding(t *testing.T) {
	svc, repo := setup(t)
	ctx := context.Background()

	profile := principal.Profile{principal.KeyRole: principal.RoleStudent, principal.KeyStudentID: "S-1"}
	prin := testutil.CreatePrincipal(t, repo, "awe@test.cd", "", profile, true)

	got, err := svc.CompleteOnboarding(ctx, prin.ID, principal.Onboarding{
		BirthDate: "2004-05-17",
		Phone:     "+243 970 000 000",
	})
	assert.NoError(t, err)
	assert.Equal(t, "2004-05-17", got.Profile.BirthDate())
	assert.Equal(t, "+243 970 000 000", got.Profile.Phone())
	assert.True(t, got.IsStudent(), "existing keys survive")
	assert.True(t, got.ProfileComplete())

	// empty payloads patch nothing
	before, _ := repo.GetPrincipalByID(ctx, prin.ID)
	got, err = svc.CompleteOnboarding(ctx, prin.ID, principal.Onboarding{})
	assert.NoError(t, err)
	assert.Equal(t, before.Profile, got.Profile)
}

func TestService_BootstrapRole(t *testing.T) {
	svc, repo := setup(t)
	ctx := context.Background()

	prin := testutil.CreatePrincipal(t, repo, "awe@test.cd", "", nil, true)

	got, err := svc.BootstrapRole(ctx, prin, map[string]string{
		principal.KeyRole:      principal.RoleFaculty,
		principal.KeyFacultyID: "F-9",
		principal.KeyName:      "Prof Awe",
	})
	assert.NoError(t, err)
	assert.True(t, got.IsFaculty())
	assert.Equal(t, "F-9", got.Profile.RoleID())

	assert.Len(t, emailsvc.SentMessages, 1, "welcome email sent")
	msg := emailsvc.SentMessages[0]
	assert.Equal(t, prin.Email, msg.To[0].Address)

	// unknown accounts fail without mailing
	emailsvc.ClearSentMessages()
	_, err = svc.BootstrapRole(ctx, principal.Principal{ID: "ghost"}, map[string]string{principal.KeyRole: principal.RoleStudent})
	assert.Error(t, err)
	assert.Empty(t, emailsvc.SentMessages)
}

func TestService_ResetPassword(t *testing.T) {
	svc, repo := setup(t)
	ctx := context.Background()

	prin := testutil.CreatePrincipal(t, repo, "awe@test.cd", "old", nil, true)

	assert.NoError(t, svc.ResetPassword(ctx, "AWE@test.cd", "new"))
	got, _ := repo.GetPrincipalByID(ctx, prin.ID)
	assert.NoError(t, got.CheckPassword("new"))
	assert.Error(t, got.CheckPassword("old"))

	assert.Equal(t, principal.ErrNotFound, svc.ResetPassword(ctx, "ghost@test.cd", "x"))
}
