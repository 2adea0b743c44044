package postgres

import (
	"context"
	"database/sql"

	"github.com/pkg/errors"

	// Import the PostgreSQL driver.
	_ "github.com/lib/pq"

	"github.com/floralog/floralog/internal/profile"
	"github.com/floralog/floralog/store"
)

type DB struct {
	db      *sql.DB
	profile *profile.Profile
}

// NewDB opens a PostgreSQL connection using the profile DSN.
func NewDB(profile *profile.Profile) (store.Driver, error) {
	if profile.DSN == "" {
		return nil, errors.New("dsn required")
	}

	pgDB, err := sql.Open("postgres", profile.DSN)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open database")
	}

	return &DB{db: pgDB, profile: profile}, nil
}

func (d *DB) Close() error {
	return d.db.Close()
}

// Migrate creates the schema if it does not exist yet.
func (d *DB) Migrate(ctx context.Context) error {
	for _, stmt := range []string{
		`CREATE TABLE IF NOT EXISTS users (
			id BIGSERIAL PRIMARY KEY,
			telegram_id BIGINT NOT NULL UNIQUE,
			username TEXT NOT NULL DEFAULT '',
			first_name TEXT NOT NULL DEFAULT '',
			city TEXT NOT NULL DEFAULT '',
			city_display_name TEXT NOT NULL DEFAULT '',
			city_lat DOUBLE PRECISION,
			city_lon DOUBLE PRECISION,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS plants (
			id BIGSERIAL PRIMARY KEY,
			user_id BIGINT NOT NULL REFERENCES users (id),
			name TEXT NOT NULL,
			type TEXT NOT NULL DEFAULT 'DEFAULT',
			placement TEXT NOT NULL DEFAULT 'INDOOR',
			pot_volume_liters DOUBLE PRECISION NOT NULL DEFAULT 0,
			outdoor_area_m2 DOUBLE PRECISION,
			soil_type TEXT,
			sun_exposure TEXT,
			mulched BOOLEAN NOT NULL DEFAULT FALSE,
			perennial BOOLEAN NOT NULL DEFAULT FALSE,
			winter_dormancy BOOLEAN NOT NULL DEFAULT FALSE,
			base_interval_days INTEGER NOT NULL,
			last_watered_date DATE NOT NULL,
			last_reminder_date DATE,
			lookup_source TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS watering_log (
			id BIGSERIAL PRIMARY KEY,
			plant_id BIGINT NOT NULL REFERENCES plants (id) ON DELETE CASCADE,
			watered_at DATE NOT NULL,
			recommended_interval_days DOUBLE PRECISION,
			recommended_water_liters DOUBLE PRECISION,
			temperature_c DOUBLE PRECISION,
			humidity_percent DOUBLE PRECISION,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_watering_log_plant_date ON watering_log (plant_id, watered_at DESC)`,
		`CREATE TABLE IF NOT EXISTS plant_lookup_cache (
			id BIGSERIAL PRIMARY KEY,
			query_key TEXT NOT NULL UNIQUE,
			hit BOOLEAN NOT NULL DEFAULT FALSE,
			display_name TEXT,
			base_interval_days INTEGER,
			source TEXT,
			suggested_type TEXT,
			expires_at TIMESTAMPTZ NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
	} {
		if _, err := d.db.ExecContext(ctx, stmt); err != nil {
			return errors.Wrap(err, "failed to migrate schema")
		}
	}
	return nil
}
