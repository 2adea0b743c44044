// Package db provides the database driver factory.
package db

import (
	"github.com/pkg/errors"

	"github.com/floralog/floralog/internal/profile"
	"github.com/floralog/floralog/store"
	"github.com/floralog/floralog/store/db/postgres"
	"github.com/floralog/floralog/store/db/sqlite"
)

// NewDBDriver creates a new database driver based on the profile.
func NewDBDriver(profile *profile.Profile) (store.Driver, error) {
	switch profile.Driver {
	case "sqlite":
		return sqlite.NewDB(profile)
	case "postgres":
		return postgres.NewDB(profile)
	default:
		return nil, errors.Errorf("unknown db driver %q", profile.Driver)
	}
}
