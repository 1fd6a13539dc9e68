package db

import (
	"github.com/pkg/errors"

	"github.com/hrygo/gigvoice/internal/profile"
	"github.com/hrygo/gigvoice/store"
	"github.com/hrygo/gigvoice/store/db/postgres"
	"github.com/hrygo/gigvoice/store/db/sqlite"
)

// NewDBDriver creates new db driver based on profile.
// SQLite suits a single rider or a dev box; PostgreSQL is for fleets.
func NewDBDriver(profile *profile.Profile) (store.Driver, error) {
	var driver store.Driver
	var err error

	switch profile.Driver {
	case "sqlite":
		driver, err = sqlite.NewDB(profile)
	case "postgres":
		driver, err = postgres.NewDB(profile)
	default:
		return nil, errors.Errorf("unknown db driver %q: only 'postgres' and 'sqlite' are supported", profile.Driver)
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to create db driver")
	}
	return driver, nil
}
