// Package adminctl implements the operator command line for managing local
// login accounts. It talks to the same database as the server, so commands
// take effect immediately without a restart.
package adminctl

import (
	"bufio"
	"context"
	"fmt"
	"io"

	"github.com/dmitrijs2005/atlassist/internal/server/models"
)

// AccountAdmin is the slice of the account service the commands use.
type AccountAdmin interface {
	CreateLocalUser(ctx context.Context, userEmail, displayName, password string, isAdmin bool) bool
	ListLocalUsers(ctx context.Context) []*models.LocalUser
	SetLocalUserStatus(ctx context.Context, userEmail string, active bool) bool
	UpdateLocalUserPassword(ctx context.Context, userEmail, newPassword string) bool
	DeleteLocalUser(ctx context.Context, userEmail string) bool
	LocalUserExists(ctx context.Context, userEmail string) bool
}

type App struct {
	accounts AccountAdmin
	reader   *bufio.Reader
	out      io.Writer
}

func NewApp(accounts AccountAdmin, in io.Reader, out io.Writer) *App {
	return &App{
		accounts: accounts,
		reader:   bufio.NewReader(in),
		out:      out,
	}
}

const usage = `Usage: adminctl <command> [arguments]

Commands:
  create <email> [--admin]   provision a new account (prompts for name and password)
  list                       show all accounts
  activate <email>           re-enable a deactivated or locked-out account
  deactivate <email>         disable an account and kill its sessions
  passwd <email>             set a new password (prompts twice)
  delete <email>             remove an account and its sessions
`

func (a *App) Run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		fmt.Fprint(a.out, usage)
		return fmt.Errorf("no command given")
	}

	cmd := args[0]
	args = args[1:]

	switch cmd {
	case "create":
		return a.create(ctx, args)
	case "list":
		return a.list(ctx)
	case "activate":
		return a.setStatus(ctx, args, true)
	case "deactivate":
		return a.setStatus(ctx, args, false)
	case "passwd":
		return a.passwd(ctx, args)
	case "delete":
		return a.delete(ctx, args)
	case "help":
		fmt.Fprint(a.out, usage)
		return nil
	default:
		fmt.Fprint(a.out, usage)
		return fmt.Errorf("unknown command: %s", cmd)
	}
}
