package main

import (
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"syscall"

	"golang.org/x/term"

	"github.com/trezcool/shule/core/principal"
)

var (
	readPasswordFunc = term.ReadPassword // mockable

	errHelp = errors.New("help provided")
)

type commandLine struct {
	db  *sql.DB
	svc principal.ServiceInterface
}

func (cli *commandLine) printUsage() {
	fmt.Println("Usage:")
	fmt.Println("  migrate COMMAND [ARGS] - run a database migration command (up, down, status, ...)")
	fmt.Println("  addprincipal -email EMAIL [-role student|faculty] - add or update an account; the password is prompted next")
	fmt.Println("  resetpassword -email EMAIL - reset an account's password; the password is prompted next")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	addPrincipalCmd := flag.NewFlagSet("addprincipal", flag.ExitOnError)
	addPrincipalEmail := addPrincipalCmd.String("email", "", "The account's email. The password will be prompted next.")
	addPrincipalRole := addPrincipalCmd.String("role", "", "Optional role to set: student or faculty.")

	resetPasswordCmd := flag.NewFlagSet("resetpassword", flag.ExitOnError)
	resetPasswordEmail := resetPasswordCmd.String("email", "", "The account's email. The password will be prompted next.")

	switch args[1] {
	case "migrate":
		if len(args) < 3 {
			cli.printUsage()
			return errHelp
		}
		return cli.migrate(args[2:])
	case "addprincipal":
		if err := addPrincipalCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *addPrincipalEmail == "" {
			addPrincipalCmd.Usage()
			return errHelp
		}
		switch *addPrincipalRole {
		case "", principal.RoleStudent, principal.RoleFaculty: // pass
		default:
			addPrincipalCmd.Usage()
			return errHelp
		}
		pwd, err := promptPassword()
		if err != nil {
			return err
		}
		if pwd == "" {
			addPrincipalCmd.Usage()
			return errHelp
		}
		return cli.addPrincipal(*addPrincipalEmail, pwd, *addPrincipalRole)
	case "resetpassword":
		if err := resetPasswordCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *resetPasswordEmail == "" {
			resetPasswordCmd.Usage()
			return errHelp
		}
		pwd, err := promptPassword()
		if err != nil {
			return err
		}
		if pwd == "" {
			resetPasswordCmd.Usage()
			return errHelp
		}
		return cli.resetPassword(*resetPasswordEmail, pwd)
	default:
		cli.printUsage()
		return errHelp
	}
}

func promptPassword() (string, error) {
	fmt.Print("Enter password:")
	pwd, err := readPasswordFunc(syscall.Stdin)
	fmt.Println()
	if err != nil {
		return "", err
	}
	return string(pwd), nil
}
