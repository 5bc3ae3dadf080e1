package main

import (
	"context"

	"github.com/trezcool/shule/core"
)

func (cli *commandLine) resetPassword(email, pwd string) error {
	return cli.svc.ResetPassword(context.Background(), core.CleanString(email, true /* lower */), pwd)
}
