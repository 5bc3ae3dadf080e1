// Package gate makes the single authorization decision executed before
// any handler runs: allow the request, redirect the caller (sign-in,
// onboarding or their role home), or reject it outright.
//
// One gate serves both the page and the API entry points, parameterized
// by their route-classification tables; the decision logic itself never
// forks per entry point.
package gate

import (
	"context"
	"fmt"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/principal"
	"github.com/trezcool/shule/core/roster"
)

// Action is what the caller must do with the request.
type Action int

const (
	Allow Action = iota
	Redirect
	Reject // unauthenticated; 401 for API paths, sign-in redirect for pages
)

// Reason classifies a non-Allow decision for logging and error mapping.
type Reason int

const (
	ReasonNone Reason = iota
	ReasonAuthenticationMissing
	ReasonNoIdentityMatch
	ReasonRoleBootstrapped
	ReasonProfileIncomplete
	ReasonRoleMismatch
)

func (r Reason) String() string {
	switch r {
	case ReasonAuthenticationMissing:
		return "authentication missing"
	case ReasonNoIdentityMatch:
		return "no identity match"
	case ReasonRoleBootstrapped:
		return "role bootstrapped"
	case ReasonProfileIncomplete:
		return "profile incomplete"
	case ReasonRoleMismatch:
		return "role mismatch"
	}
	return "ok"
}

// Request is the gate's view of an inbound request.
type Request struct {
	Path          string
	Authenticated bool
	PrincipalID   string
	Email         string
}

// Decision is the gate's verdict; Target is set for Redirect (and for
// Reject, where it names the sign-in page for page entry points).
type Decision struct {
	Action Action
	Target string
	Reason Reason
}

func allow() Decision {
	return Decision{Action: Allow}
}

func redirect(target string, reason Reason) Decision {
	return Decision{Action: Redirect, Target: target, Reason: reason}
}

// Gate intercepts every inbound request. It holds no per-request state;
// Evaluate is safe for concurrent use.
type Gate struct {
	table      *Table
	principals principal.ServiceInterface
	resolver   roster.Resolver
	logger     core.Logger
}

func New(table *Table, principals principal.ServiceInterface, resolver roster.Resolver, logger core.Logger) *Gate {
	return &Gate{
		table:      table,
		principals: principals,
		resolver:   resolver,
		logger:     logger,
	}
}

// Evaluate runs the decision procedure:
//
//  1. public paths are allowed unconditionally, no auth check;
//  2. everything else requires authentication;
//  3. onboarding paths are allowed once authenticated, skipping all
//     further checks (prevents redirect loops during profile completion);
//  4. protected paths load the profile, bootstrapping the role from the
//     roster on first contact, then enforce completeness and the
//     role partition.
func (g *Gate) Evaluate(ctx context.Context, req Request) Decision {
	class := g.table.Classify(req.Path)
	if class == ClassPublic {
		return allow()
	}

	if !req.Authenticated {
		return Decision{Action: Reject, Target: SignInPath, Reason: ReasonAuthenticationMissing}
	}

	if class == ClassOnboarding {
		return allow()
	}

	prin, err := g.principals.GetByID(ctx, req.PrincipalID)
	if err != nil {
		// fail safe toward onboarding, never open toward unrestricted access
		g.logger.Error(fmt.Sprintf("gate: loading profile for %s: %v", req.PrincipalID, err), err)
		prin = principal.Principal{ID: req.PrincipalID, Email: req.Email}
	}

	if prin.Role() == "" {
		return g.bootstrapRole(ctx, prin, req)
	}

	if !prin.ProfileComplete() {
		return redirect(OnboardingPath, ReasonProfileIncomplete)
	}

	switch class {
	case ClassStudentOnly:
		if !prin.IsStudent() {
			return redirect(FacultyHomePath, ReasonRoleMismatch)
		}
	case ClassFacultyOnly:
		if !prin.IsFaculty() {
			return redirect(StudentHomePath, ReasonRoleMismatch)
		}
	}
	return allow()
}

// bootstrapRole resolves a first-contact principal against the roster.
// A match is persisted and answered with a redirect to the role home
// rather than an in-place allow, so the client re-requests and observes
// the updated role state. Roster failures are indistinguishable from a
// genuine non-match and land on onboarding.
//
// Concurrent first requests may race here; the profile store's merge
// write is last-write-wins and both requests persist the same fragment,
// so the window is accepted rather than locked.
func (g *Gate) bootstrapRole(ctx context.Context, prin principal.Principal, req Request) Decision {
	ident := g.resolver.Resolve(ctx, req.Email)
	if !ident.IsMatch() {
		return redirect(OnboardingPath, ReasonNoIdentityMatch)
	}

	if _, err := g.principals.BootstrapRole(ctx, prin, ident.ProfileFields()); err != nil {
		// the redirect is still issued; the next request re-attempts resolution
		g.logger.Error(fmt.Sprintf("gate: persisting role for %s: %v", prin.ID, err), err)
	}

	switch ident.Kind {
	case roster.KindFaculty:
		return redirect(FacultyHomePath, ReasonRoleBootstrapped)
	default:
		return redirect(StudentHomePath, ReasonRoleBootstrapped)
	}
}
