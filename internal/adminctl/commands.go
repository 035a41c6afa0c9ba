package adminctl

import (
	"context"
	"fmt"
	"text/tabwriter"
)

func (a *App) create(ctx context.Context, args []string) error {
	var email string
	isAdmin := false

	for _, arg := range args {
		if arg == "--admin" {
			isAdmin = true
			continue
		}
		if email != "" {
			return fmt.Errorf("unexpected argument: %s", arg)
		}
		email = arg
	}
	if email == "" {
		return fmt.Errorf("usage: create <email> [--admin]")
	}

	if a.accounts.LocalUserExists(ctx, email) {
		return fmt.Errorf("account %s already exists", email)
	}

	displayName, err := getSimpleText(a.reader, "Display name", a.out)
	if err != nil {
		return err
	}
	if displayName == "" {
		displayName = email
	}

	password, err := getConfirmedPassword(a.out)
	if err != nil {
		return err
	}

	if !a.accounts.CreateLocalUser(ctx, email, displayName, password, isAdmin) {
		return fmt.Errorf("could not create account %s", email)
	}

	fmt.Fprintf(a.out, "Created account %s\n", email)
	return nil
}

func (a *App) list(ctx context.Context) error {
	users := a.accounts.ListLocalUsers(ctx)

	w := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "EMAIL\tNAME\tACTIVE\tADMIN\tFAILED\tLAST LOGIN")
	for _, u := range users {
		lastLogin := "-"
		if u.LastLogin != nil {
			lastLogin = u.LastLogin.Format("2006-01-02 15:04")
		}
		fmt.Fprintf(w, "%s\t%s\t%t\t%t\t%d\t%s\n",
			u.UserEmail, u.DisplayName, u.IsActive, u.IsAdmin, u.FailedLoginAttempts, lastLogin)
	}
	return w.Flush()
}

func (a *App) setStatus(ctx context.Context, args []string, active bool) error {
	verb := "deactivate"
	if active {
		verb = "activate"
	}
	if len(args) != 1 {
		return fmt.Errorf("usage: %s <email>", verb)
	}
	email := args[0]

	if !a.accounts.SetLocalUserStatus(ctx, email, active) {
		return fmt.Errorf("could not %s account %s", verb, email)
	}

	fmt.Fprintf(a.out, "Account %s %sd\n", email, verb)
	return nil
}

func (a *App) passwd(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: passwd <email>")
	}
	email := args[0]

	if !a.accounts.LocalUserExists(ctx, email) {
		return fmt.Errorf("no such account: %s", email)
	}

	password, err := getConfirmedPassword(a.out)
	if err != nil {
		return err
	}

	if !a.accounts.UpdateLocalUserPassword(ctx, email, password) {
		return fmt.Errorf("could not update password for %s", email)
	}

	fmt.Fprintf(a.out, "Password updated for %s\n", email)
	return nil
}

func (a *App) delete(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: delete <email>")
	}
	email := args[0]

	answer, err := getSimpleText(a.reader,
		fmt.Sprintf("Delete account %s and all its sessions? Type 'yes' to confirm", email), a.out)
	if err != nil {
		return err
	}
	if answer != "yes" {
		fmt.Fprintln(a.out, "Aborted")
		return nil
	}

	if !a.accounts.DeleteLocalUser(ctx, email) {
		return fmt.Errorf("could not delete account %s", email)
	}

	fmt.Fprintf(a.out, "Deleted account %s\n", email)
	return nil
}
