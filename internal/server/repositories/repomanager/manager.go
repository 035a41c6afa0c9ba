// Package repomanager builds repositories over a shared database handle so
// services can run several repositories inside one transaction.
package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/atlassist/internal/dbx"
	"github.com/dmitrijs2005/atlassist/internal/server/repositories/credentials"
	"github.com/dmitrijs2005/atlassist/internal/server/repositories/sessions"
	"github.com/dmitrijs2005/atlassist/internal/server/repositories/users"
)

type RepositoryManager interface {
	RunMigrations(ctx context.Context, db *sql.DB) error
	Credentials(db dbx.DBTX) credentials.Repository
	Users(db dbx.DBTX) users.Repository
	Sessions(db dbx.DBTX) sessions.Repository
}
