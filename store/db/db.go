package db

import (
	"github.com/pkg/errors"

	"github.com/hearthbot/remindd/internal/profile"
	"github.com/hearthbot/remindd/store"
	"github.com/hearthbot/remindd/store/db/postgres"
	"github.com/hearthbot/remindd/store/db/sqlite"
)

// NewDBDriver creates new db driver based on profile.
func NewDBDriver(profile *profile.Profile) (store.Driver, error) {
	var driver store.Driver
	var err error

	switch profile.Driver {
	case "sqlite":
		driver, err = sqlite.NewDB(profile)
	case "postgres":
		driver, err = postgres.NewDB(profile)
	case "memory":
		driver = store.NewMemoryDriver()
	default:
		return nil, errors.Errorf("unknown db driver %q: only 'sqlite', 'postgres' and 'memory' are supported", profile.Driver)
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to create db driver")
	}
	return driver, nil
}
