package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/pkg/errors"

	// Import the SQLite driver.
	_ "modernc.org/sqlite"

	"github.com/floralog/floralog/internal/profile"
	"github.com/floralog/floralog/store"
)

// dateLayout is how day-precision values are persisted.
const dateLayout = "2006-01-02"

type DB struct {
	db      *sql.DB
	profile *profile.Profile
}

// NewDB opens the SQLite database named by the profile DSN.
func NewDB(profile *profile.Profile) (store.Driver, error) {
	if profile.DSN == "" {
		return nil, errors.New("dsn required")
	}

	// WAL journal mode avoids writer starvation under the concurrent
	// recommendation sweeps; busy_timeout covers the remaining contention.
	sqliteDB, err := sql.Open("sqlite", profile.DSN+"?_pragma=foreign_keys(0)&_pragma=busy_timeout(10000)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open db with dsn: %s", profile.DSN)
	}

	return &DB{db: sqliteDB, profile: profile}, nil
}

func (d *DB) Close() error {
	return d.db.Close()
}

// Migrate creates the schema if it does not exist yet. Statements are
// idempotent; there is no versioned migration history.
func (d *DB) Migrate(ctx context.Context) error {
	for _, stmt := range []string{
		`CREATE TABLE IF NOT EXISTS users (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			telegram_id INTEGER NOT NULL UNIQUE,
			username TEXT NOT NULL DEFAULT '',
			first_name TEXT NOT NULL DEFAULT '',
			city TEXT NOT NULL DEFAULT '',
			city_display_name TEXT NOT NULL DEFAULT '',
			city_lat REAL,
			city_lon REAL,
			created_ts INTEGER NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS plants (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id INTEGER NOT NULL,
			name TEXT NOT NULL,
			type TEXT NOT NULL DEFAULT 'DEFAULT',
			placement TEXT NOT NULL DEFAULT 'INDOOR',
			pot_volume_liters REAL NOT NULL DEFAULT 0,
			outdoor_area_m2 REAL,
			soil_type TEXT,
			sun_exposure TEXT,
			mulched INTEGER NOT NULL DEFAULT 0,
			perennial INTEGER NOT NULL DEFAULT 0,
			winter_dormancy INTEGER NOT NULL DEFAULT 0,
			base_interval_days INTEGER NOT NULL,
			last_watered_date TEXT NOT NULL,
			last_reminder_date TEXT,
			lookup_source TEXT NOT NULL DEFAULT '',
			created_ts INTEGER NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS watering_log (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			plant_id INTEGER NOT NULL,
			watered_at TEXT NOT NULL,
			recommended_interval_days REAL,
			recommended_water_liters REAL,
			temperature_c REAL,
			humidity_percent REAL,
			created_ts INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_watering_log_plant_date ON watering_log (plant_id, watered_at DESC)`,
		`CREATE TABLE IF NOT EXISTS plant_lookup_cache (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			query_key TEXT NOT NULL UNIQUE,
			hit INTEGER NOT NULL DEFAULT 0,
			display_name TEXT,
			base_interval_days INTEGER,
			source TEXT,
			suggested_type TEXT,
			expires_ts INTEGER NOT NULL,
			updated_ts INTEGER NOT NULL
		)`,
	} {
		if _, err := d.db.ExecContext(ctx, stmt); err != nil {
			return errors.Wrap(err, "failed to migrate schema")
		}
	}
	return nil
}

func formatDate(t time.Time) string {
	return t.Format(dateLayout)
}

func parseDate(s string) time.Time {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
