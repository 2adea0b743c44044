package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/pkg/errors"

	"github.com/floralog/floralog/store"
)

func (d *DB) GetPlantLookupCacheEntry(ctx context.Context, queryKey string) (*store.PlantLookupCacheEntry, error) {
	stmt := `
		SELECT id, query_key, hit, display_name, base_interval_days, source, suggested_type, expires_ts, updated_ts
		FROM plant_lookup_cache
		WHERE query_key = ?
	`
	var entry store.PlantLookupCacheEntry
	var hit int
	var displayName, source, suggestedType sql.NullString
	var intervalDays sql.NullInt64
	var expiresTs, updatedTs int64
	err := d.db.QueryRowContext(ctx, stmt, queryKey).Scan(
		&entry.ID,
		&entry.QueryKey,
		&hit,
		&displayName,
		&intervalDays,
		&source,
		&suggestedType,
		&expiresTs,
		&updatedTs,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to get lookup cache entry")
	}
	entry.Hit = hit != 0
	if displayName.Valid {
		entry.DisplayName = &displayName.String
	}
	if intervalDays.Valid {
		v := int(intervalDays.Int64)
		entry.BaseIntervalDays = &v
	}
	if source.Valid {
		entry.Source = &source.String
	}
	if suggestedType.Valid {
		t := store.ParsePlantType(suggestedType.String)
		entry.SuggestedType = &t
	}
	entry.ExpiresAt = time.Unix(expiresTs, 0)
	entry.UpdatedAt = time.Unix(updatedTs, 0)
	return &entry, nil
}

func (d *DB) UpsertPlantLookupCacheEntry(ctx context.Context, entry *store.PlantLookupCacheEntry) error {
	stmt := `
		INSERT INTO plant_lookup_cache (query_key, hit, display_name, base_interval_days, source, suggested_type, expires_ts, updated_ts)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (query_key) DO UPDATE SET
			hit = excluded.hit,
			display_name = excluded.display_name,
			base_interval_days = excluded.base_interval_days,
			source = excluded.source,
			suggested_type = excluded.suggested_type,
			expires_ts = excluded.expires_ts,
			updated_ts = excluded.updated_ts
	`
	var suggestedType any
	if entry.SuggestedType != nil {
		suggestedType = string(*entry.SuggestedType)
	}
	_, err := d.db.ExecContext(ctx, stmt,
		entry.QueryKey,
		boolToInt(entry.Hit),
		entry.DisplayName,
		entry.BaseIntervalDays,
		entry.Source,
		suggestedType,
		entry.ExpiresAt.Unix(),
		time.Now().Unix(),
	)
	if err != nil {
		return errors.Wrap(err, "failed to upsert lookup cache entry")
	}
	return nil
}

func (d *DB) DeletePlantLookupCacheEntry(ctx context.Context, queryKey string) error {
	if _, err := d.db.ExecContext(ctx, "DELETE FROM plant_lookup_cache WHERE query_key = ?", queryKey); err != nil {
		return errors.Wrap(err, "failed to delete lookup cache entry")
	}
	return nil
}

func (d *DB) PurgePlantLookupCache(ctx context.Context) (int64, error) {
	result, err := d.db.ExecContext(ctx, "DELETE FROM plant_lookup_cache")
	if err != nil {
		return 0, errors.Wrap(err, "failed to purge lookup cache")
	}
	return result.RowsAffected()
}
