// Package repomanager hands out repositories bound to a DBTX, so a request
// handler can scope every repository to one transaction.
package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/syncapi/internal/dbx"
	"github.com/dmitrijs2005/syncapi/internal/server/repositories/applications"
	"github.com/dmitrijs2005/syncapi/internal/server/repositories/collections"
	"github.com/dmitrijs2005/syncapi/internal/server/repositories/devices"
	"github.com/dmitrijs2005/syncapi/internal/server/repositories/paircodes"
	"github.com/dmitrijs2005/syncapi/internal/server/repositories/records"
	"github.com/dmitrijs2005/syncapi/internal/server/repositories/users"
	"github.com/dmitrijs2005/syncapi/internal/server/repositories/versions"
)

type RepositoryManager interface {
	RunMigrations(ctx context.Context, db *sql.DB) error
	Applications(db dbx.DBTX) applications.Repository
	Users(db dbx.DBTX) users.Repository
	Devices(db dbx.DBTX) devices.Repository
	Collections(db dbx.DBTX) collections.Repository
	Records(db dbx.DBTX) records.Repository
	Versions(db dbx.DBTX) versions.Repository
	PairingCodes(db dbx.DBTX) paircodes.Repository
}
