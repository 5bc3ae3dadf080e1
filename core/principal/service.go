package principal

import (
	"context"
	"fmt"
	"net/mail"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/trezcool/shule/core"
)

var (
	// errors
	ErrNotFound    = errors.New("principal not found")
	ErrEmailExists = errors.New("a principal with this email already exists")

	welcomeSubject = "Welcome to your portal"
	welcomeTmpl    = `Hi{{if .Name}} {{.Name}}{{end}},

Your {{.Role}} account has been linked to the school records.
Sign in to your dashboard to view your enrollment, grades and schedule.
`
)

func init() {
	if err := core.RegisterMailTemplate("welcome", welcomeTmpl); err != nil {
		panic(err)
	}
}

type (
	Repository interface {
		CheckEmailUniqueness(ctx context.Context, email string) error
		CreatePrincipal(ctx context.Context, prin Principal) (Principal, error)
		GetPrincipalByID(ctx context.Context, id string) (Principal, error)
		GetPrincipalByEmail(ctx context.Context, email string) (Principal, error)
		// PatchProfile merge-updates the profile map: provided fields are
		// written, unrelated existing keys are preserved. Last write wins.
		PatchProfile(ctx context.Context, id string, fields map[string]string) (Principal, error)
		SetLastLogin(ctx context.Context, prin Principal) (Principal, error)
		UpdatePassword(ctx context.Context, id string, hash []byte) error
	}

	ServiceInterface interface {
		CheckEmailUniqueness(email string) error
		Register(ctx context.Context, np NewPrincipal) (Principal, error)
		GetByID(ctx context.Context, id string) (Principal, error)
		GetByEmail(ctx context.Context, email string) (Principal, error)
		SetLastLogin(ctx context.Context, prin Principal) (Principal, error)
		PatchProfile(ctx context.Context, id string, fields map[string]string) (Principal, error)
		CompleteOnboarding(ctx context.Context, id string, ob Onboarding) (Principal, error)
		BootstrapRole(ctx context.Context, prin Principal, fields map[string]string) (Principal, error)
		ResetPassword(ctx context.Context, email, pwd string) error
	}

	Service struct {
		repo    Repository
		logger  core.Logger
		mailSvc core.EmailService
	}
)

var _ ServiceInterface = (*Service)(nil)

func NewService(repo Repository, logger core.Logger, mailSvc core.EmailService) *Service {
	return &Service{
		repo:    repo,
		logger:  logger,
		mailSvc: mailSvc,
	}
}

func (svc *Service) CheckEmailUniqueness(email string) error {
	if err := svc.repo.CheckEmailUniqueness(context.Background(), email); err != nil {
		if errors.Cause(err) == ErrEmailExists {
			return core.NewValidationError(err, core.FieldError{Field: "email", Error: err.Error()})
		}
		return err
	}
	return nil
}

func (svc *Service) Register(ctx context.Context, np NewPrincipal) (Principal, error) {
	now := time.Now().UTC()
	active := true
	prin := Principal{
		ID:        uuid.New().String(),
		Email:     np.Email,
		Profile:   Profile{},
		IsActive:  &active,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := prin.SetPassword(np.Password); err != nil {
		return Principal{}, errors.Wrap(err, "setting password")
	}
	return svc.repo.CreatePrincipal(ctx, prin)
}

func (svc *Service) GetByID(ctx context.Context, id string) (Principal, error) {
	return svc.repo.GetPrincipalByID(ctx, id)
}

func (svc *Service) GetByEmail(ctx context.Context, email string) (Principal, error) {
	return svc.repo.GetPrincipalByEmail(ctx, core.CleanString(email, true /* lower */))
}

func (svc *Service) SetLastLogin(ctx context.Context, prin Principal) (Principal, error) {
	return svc.repo.SetLastLogin(ctx, prin)
}

func (svc *Service) PatchProfile(ctx context.Context, id string, fields map[string]string) (Principal, error) {
	return svc.repo.PatchProfile(ctx, id, fields)
}

func (svc *Service) ResetPassword(ctx context.Context, email, pwd string) error {
	prin, err := svc.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	if err = prin.SetPassword(pwd); err != nil {
		return errors.Wrap(err, "setting password")
	}
	return svc.repo.UpdatePassword(ctx, prin.ID, prin.PasswordHash)
}

func (svc *Service) CompleteOnboarding(ctx context.Context, id string, ob Onboarding) (Principal, error) {
	fields := ob.fields()
	if len(fields) == 0 {
		return svc.repo.GetPrincipalByID(ctx, id)
	}
	return svc.repo.PatchProfile(ctx, id, fields)
}

// BootstrapRole persists a roster-derived profile fragment on first contact
// and welcomes the principal. The role, once set here, is never changed by
// this system.
func (svc *Service) BootstrapRole(ctx context.Context, prin Principal, fields map[string]string) (Principal, error) {
	patched, err := svc.repo.PatchProfile(ctx, prin.ID, fields)
	if err != nil {
		return Principal{}, errors.Wrap(err, "persisting role fragment")
	}
	svc.sendWelcomeEmail(patched)
	return patched, nil
}

func (svc *Service) sendWelcomeEmail(prin Principal) {
	if svc.mailSvc == nil {
		return
	}
	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:           []mail.Address{{Name: prin.Profile.get(KeyName), Address: prin.Email}},
		Subject:      welcomeSubject,
		TemplateName: "welcome",
		TemplateData: struct{ Name, Role string }{prin.Profile.get(KeyName), prin.Role()},
	})
	svc.logger.Debug(fmt.Sprintf("welcome email queued for %s", prin.Email))
}
