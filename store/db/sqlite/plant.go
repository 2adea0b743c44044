package sqlite

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/floralog/floralog/store"
)

const plantFields = `id, user_id, name, type, placement, pot_volume_liters, outdoor_area_m2,
	soil_type, sun_exposure, mulched, perennial, winter_dormancy,
	base_interval_days, last_watered_date, last_reminder_date, lookup_source, created_ts`

func (d *DB) CreatePlant(ctx context.Context, create *store.Plant) (*store.Plant, error) {
	stmt := `
		INSERT INTO plants (user_id, name, type, placement, pot_volume_liters, outdoor_area_m2,
			soil_type, sun_exposure, mulched, perennial, winter_dormancy,
			base_interval_days, last_watered_date, lookup_source, created_ts)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id, created_ts
	`
	var soil, sun any
	if create.SoilType != nil {
		soil = string(*create.SoilType)
	}
	if create.SunExposure != nil {
		sun = string(*create.SunExposure)
	}
	var createdTs int64
	err := d.db.QueryRowContext(ctx, stmt,
		create.UserID,
		create.Name,
		string(create.Type),
		string(create.Placement),
		create.PotVolumeLiters,
		create.OutdoorAreaM2,
		soil,
		sun,
		boolToInt(create.Mulched),
		boolToInt(create.Perennial),
		boolToInt(create.WinterDormancy),
		create.BaseIntervalDays,
		formatDate(create.LastWateredDate),
		create.LookupSource,
		time.Now().Unix(),
	).Scan(&create.ID, &createdTs)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create plant")
	}
	create.CreatedAt = time.Unix(createdTs, 0)
	return create, nil
}

func (d *DB) GetPlant(ctx context.Context, id int64) (*store.Plant, error) {
	stmt := "SELECT " + plantFields + " FROM plants WHERE id = ?"
	plant, err := scanPlant(d.db.QueryRowContext(ctx, stmt, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return plant, err
}

func (d *DB) ListPlants(ctx context.Context, find *store.FindPlant) ([]*store.Plant, error) {
	where, args := []string{"1 = 1"}, []any{}
	if find != nil && find.ID != nil {
		where, args = append(where, "id = ?"), append(args, *find.ID)
	}
	if find != nil && find.UserID != nil {
		where, args = append(where, "user_id = ?"), append(args, *find.UserID)
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
		set, args = append(set, "name = ?"), append(args, *update.Name)
	}
	if update.Type != nil {
		set, args = append(set, "type = ?"), append(args, string(*update.Type))
	}
	if update.SoilType != nil {
		set, args = append(set, "soil_type = ?"), append(args, string(*update.SoilType))
	}
	if update.SunExposure != nil {
		set, args = append(set, "sun_exposure = ?"), append(args, string(*update.SunExposure))
	}
	if update.Mulched != nil {
		set, args = append(set, "mulched = ?"), append(args, boolToInt(*update.Mulched))
	}
	if update.BaseIntervalDays != nil {
		set, args = append(set, "base_interval_days = ?"), append(args, *update.BaseIntervalDays)
	}
	if update.LastWateredDate != nil {
		set, args = append(set, "last_watered_date = ?"), append(args, formatDate(*update.LastWateredDate))
	}
	if update.ClearLastReminderDate {
		set = append(set, "last_reminder_date = NULL")
	} else if update.LastReminderDate != nil {
		set, args = append(set, "last_reminder_date = ?"), append(args, formatDate(*update.LastReminderDate))
	}
	if update.LookupSource != nil {
		set, args = append(set, "lookup_source = ?"), append(args, *update.LookupSource)
	}
	if len(set) == 0 {
		return d.GetPlant(ctx, update.ID)
	}
	args = append(args, update.ID)

	stmt := "UPDATE plants SET " + strings.Join(set, ", ") + " WHERE id = ?"
	if _, err := d.db.ExecContext(ctx, stmt, args...); err != nil {
		return nil, errors.Wrap(err, "failed to update plant")
	}
	return d.GetPlant(ctx, update.ID)
}

func (d *DB) DeletePlant(ctx context.Context, id int64) error {
	if _, err := d.db.ExecContext(ctx, "DELETE FROM watering_log WHERE plant_id = ?", id); err != nil {
		return errors.Wrap(err, "failed to delete watering log")
	}
	if _, err := d.db.ExecContext(ctx, "DELETE FROM plants WHERE id = ?", id); err != nil {
		return errors.Wrap(err, "failed to delete plant")
	}
	return nil
}

func scanPlant(row rowScanner) (*store.Plant, error) {
	var plant store.Plant
	var plantType, placement string
	var area sql.NullFloat64
	var soil, sun, reminderDate sql.NullString
	var mulched, perennial, dormancy int
	var wateredDate string
	var createdTs int64
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
		&mulched,
		&perennial,
		&dormancy,
		&plant.BaseIntervalDays,
		&wateredDate,
		&reminderDate,
		&plant.LookupSource,
		&createdTs,
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
	plant.Mulched = mulched != 0
	plant.Perennial = perennial != 0
	plant.WinterDormancy = dormancy != 0
	plant.LastWateredDate = parseDate(wateredDate)
	if reminderDate.Valid {
		t := parseDate(reminderDate.String)
		plant.LastReminderDate = &t
	}
	plant.CreatedAt = time.Unix(createdTs, 0)
	return &plant, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
