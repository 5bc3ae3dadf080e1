package main

import (
	"context"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/principal"
)

// addPrincipal creates an account, or resets its password when the email is
// already taken. An optional role is written to the profile; the gate then
// skips roster resolution for this account.
func (cli *commandLine) addPrincipal(email, pwd, role string) error {
	ctx := context.Background()
	email = core.CleanString(email, true /* lower */)

	prin, err := cli.svc.GetByEmail(ctx, email)
	if err != nil {
		if err != principal.ErrNotFound {
			return err
		}
		prin, err = cli.svc.Register(ctx, principal.NewPrincipal{
			Email:           email,
			Password:        pwd,
			PasswordConfirm: pwd,
		})
		if err != nil {
			return err
		}
	} else if err = cli.svc.ResetPassword(ctx, email, pwd); err != nil {
		return err
	}

	if role != "" && prin.Role() != role {
		if _, err = cli.svc.PatchProfile(ctx, prin.ID, map[string]string{principal.KeyRole: role}); err != nil {
			return err
		}
	}
	return nil
}
