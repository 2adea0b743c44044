package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/pkg/errors"

	"github.com/floralog/floralog/store"
)

const plantFields = `id, user_id, name, type, placement, pot_volume_liters, outdoor_area_m2,
	soil_type, sun_exposure, mulched, perennial, winter_dormancy,
	base_interval_days, last_watered_date, last_reminder_date, lookup_source, created_at`

func (d *DB) CreatePlant(ctx context.Context, create *store.Plant) (*store.Plant, error) {
	stmt := `
		INSERT INTO plants (user_id, name, type, placement, pot_volume_liters, outdoor_area_m2,
			soil_type, sun_exposure, mulched, perennial, winter_dormancy,
			base_interval_days, last_watered_date, lookup_source)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING id, created_at
	`
	var soil, sun any
	if create.SoilType != nil {
		soil = string(*create.SoilType)
	}
	if create.SunExposure != nil {
		sun = string(*create.SunExposure)
	}
	err := d.db.QueryRowContext(ctx, stmt,
		create.UserID,
		create.Name,
		string(create.Type),
		string(create.Placement),
		create.PotVolumeLiters,
		create.OutdoorAreaM2,
		soil,
		sun,
		create.Mulched,
		create.Perennial,
		create.WinterDormancy,
		create.BaseIntervalDays,
		create.LastWateredDate,
		create.LookupSource,
	).Scan(&create.ID, &create.CreatedAt)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create plant")
	}
	return create, nil
}

func (d *DB) GetPlant(ctx context.Context, id int64) (*store.Plant, error) {
	stmt := "SELECT " + plantFields + " FROM plants WHERE id = $1"
	plant, err := scanPlant(d.db.QueryRowContext(ctx, stmt, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return plant, err
}

func (d *DB) ListPlants(ctx context.Context, find *store.FindPlant) ([]*store.Plant, error) {
	where, args := []string{"TRUE"}, []any{}
	if find != nil && find.ID != nil {
		where, args = append(where, fmt.Sprintf("id = $%d", len(args)+1)), append(args, *find.ID)
	}
	if find != nil && find.UserID != nil {
		where, args = append(where, fmt.Sprintf("user_id = $%d", len(args)+1)), append(args, *find.UserID)
	}

	stmt := "SELECT " + plantFields + " FROM plants WHERE " + strings.Join(where, " AND ") + " ORDER BY id"
	rows, err := d.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list plants")
	}
	defer rows.Close()

	var plants []*store.Plant
	for rows.Next() {
		plant, err := scanPlant(rows)
		if err != nil {
			return nil, err
		}
		plants = append(plants, plant)
	}
	return plants, rows.Err()
}

func (d *DB) UpdatePlant(ctx context.Context, update *store.UpdatePlant) (*store.Plant, error) {
	set, args := []string{}, []any{}
	if update.Name != nil {
		set, args = append(set, fmt.Sprintf("name = $%d", len(args)+1)), append(args, *update.Name)
	}
	if update.Type != nil {
		set, args = append(set, fmt.Sprintf("type = $%d", len(args)+1)), append(args, string(*update.Type))
	}
	if update.SoilType != nil {
		set, args = append(set, fmt.Sprintf("soil_type = $%d", len(args)+1)), append(args, string(*update.SoilType))
	}
	if update.SunExposure != nil {
		set, args = append(set, fmt.Sprintf("sun_exposure = $%d", len(args)+1)), append(args, string(*update.SunExposure))
	}
	if update.Mulched != nil {
		set, args = append(set, fmt.Sprintf("mulched = $%d", len(args)+1)), append(args, *update.Mulched)
	}
	if update.BaseIntervalDays != nil {
		set, args = append(set, fmt.Sprintf("base_interval_days = $%d", len(args)+1)), append(args, *update.BaseIntervalDays)
	}
	if update.LastWateredDate != nil {
		set, args = append(set, fmt.Sprintf("last_watered_date = $%d", len(args)+1)), append(args, *update.LastWateredDate)
	}
	if update.ClearLastReminderDate {
		set = append(set, "last_reminder_date = NULL")
	} else if update.LastReminderDate != nil {
		set, args = append(set, fmt.Sprintf("last_reminder_date = $%d", len(args)+1)), append(args, *update.LastReminderDate)
	}
	if update.LookupSource != nil {
		set, args = append(set, fmt.Sprintf("lookup_source = $%d", len(args)+1)), append(args, *update.LookupSource)
	}
	if len(set) == 0 {
		return d.GetPlant(ctx, update.ID)
	}
	args = append(args, update.ID)

	stmt := fmt.Sprintf("UPDATE plants SET %s WHERE id = $%d", strings.Join(set, ", "), len(args))
	if _, err := d.db.ExecContext(ctx, stmt, args...); err != nil {
		return nil, errors.Wrap(err, "failed to update plant")
	}
	return d.GetPlant(ctx, update.ID)
}

func (d *DB) DeletePlant(ctx context.Context, id int64) error {
	if _, err := d.db.ExecContext(ctx, "DELETE FROM plants WHERE id = $1", id); err != nil {
		return errors.Wrap(err, "failed to delete plant")
	}
	return nil
}

func scanPlant(row rowScanner) (*store.Plant, error) {
	var plant store.Plant
	var plantType, placement string
	var area sql.NullFloat64
	var soil, sun sql.NullString
	var reminderDate sql.NullTime
	if err := row.Scan(
		&plant.ID,
		&plant.UserID,
		&plant.Name,
		&plantType,
		&placement,
		&plant.PotVolumeLiters,
		&area,
		&soil,
		&sun,
		&plant.Mulched,
		&plant.Perennial,
		&plant.WinterDormancy,
		&plant.BaseIntervalDays,
		&plant.LastWateredDate,
		&reminderDate,
		&plant.LookupSource,
		&plant.CreatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, errors.Wrap(err, "failed to scan plant")
	}
	plant.Type = store.ParsePlantType(plantType)
	plant.Placement = store.Placement(placement)
	if area.Valid {
		plant.OutdoorAreaM2 = &area.Float64
	}
	if soil.Valid {
		s := store.SoilType(soil.String)
		plant.SoilType = &s
	}
	if sun.Valid {
		s := store.SunExposure(sun.String)
		plant.SunExposure = &s
	}
	if reminderDate.Valid {
		t := reminderDate.Time
		plant.LastReminderDate = &t
	}
	return &plant, nil
}
