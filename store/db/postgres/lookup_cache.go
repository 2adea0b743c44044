package postgres

import (
	"context"
	"database/sql"

	"github.com/pkg/errors"

	"github.com/floralog/floralog/store"
)

func (d *DB) GetPlantLookupCacheEntry(ctx context.Context, queryKey string) (*store.PlantLookupCacheEntry, error) {
	stmt := `
		SELECT id, query_key, hit, display_name, base_interval_days, source, suggested_type, expires_at, updated_at
		FROM plant_lookup_cache
		WHERE query_key = $1
	`
	var entry store.PlantLookupCacheEntry
	var displayName, source, suggestedType sql.NullString
	var intervalDays sql.NullInt64
	err := d.db.QueryRowContext(ctx, stmt, queryKey).Scan(
		&entry.ID,
		&entry.QueryKey,
		&entry.Hit,
		&displayName,
		&intervalDays,
		&source,
		&suggestedType,
		&entry.ExpiresAt,
		&entry.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to get lookup cache entry")
	}
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
	return &entry, nil
}

func (d *DB) UpsertPlantLookupCacheEntry(ctx context.Context, entry *store.PlantLookupCacheEntry) error {
	stmt := `
		INSERT INTO plant_lookup_cache (query_key, hit, display_name, base_interval_days, source, suggested_type, expires_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())
		ON CONFLICT (query_key) DO UPDATE SET
			hit = EXCLUDED.hit,
			display_name = EXCLUDED.display_name,
			base_interval_days = EXCLUDED.base_interval_days,
			source = EXCLUDED.source,
			suggested_type = EXCLUDED.suggested_type,
			expires_at = EXCLUDED.expires_at,
			updated_at = NOW()
	`
	var suggestedType any
	if entry.SuggestedType != nil {
		suggestedType = string(*entry.SuggestedType)
	}
	_, err := d.db.ExecContext(ctx, stmt,
		entry.QueryKey,
		entry.Hit,
		entry.DisplayName,
		entry.BaseIntervalDays,
		entry.Source,
		suggestedType,
		entry.ExpiresAt,
	)
	if err != nil {
		return errors.Wrap(err, "failed to upsert lookup cache entry")
	}
	return nil
}

func (d *DB) DeletePlantLookupCacheEntry(ctx context.Context, queryKey string) error {
	if _, err := d.db.ExecContext(ctx, "DELETE FROM plant_lookup_cache WHERE query_key = $1", queryKey); err != nil {
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
