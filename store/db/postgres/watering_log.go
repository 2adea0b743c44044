package postgres

import (
	"context"
	"database/sql"

	"github.com/pkg/errors"

	"github.com/floralog/floralog/store"
)

func (d *DB) CreateWateringLog(ctx context.Context, create *store.WateringLog) (*store.WateringLog, error) {
	stmt := `
		INSERT INTO watering_log (plant_id, watered_at, recommended_interval_days,
			recommended_water_liters, temperature_c, humidity_percent)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at
	`
	err := d.db.QueryRowContext(ctx, stmt,
		create.PlantID,
		create.WateredAt,
		create.RecommendedIntervalDays,
		create.RecommendedWaterLiters,
		create.TemperatureC,
		create.HumidityPercent,
	).Scan(&create.ID, &create.CreatedAt)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create watering log")
	}
	return create, nil
}

func (d *DB) ListRecentWateringLogs(ctx context.Context, plantID int64, limit int) ([]*store.WateringLog, error) {
	stmt := `
		SELECT id, plant_id, watered_at, recommended_interval_days,
			recommended_water_liters, temperature_c, humidity_percent, created_at
		FROM watering_log
		WHERE plant_id = $1
		ORDER BY watered_at DESC, id DESC
		LIMIT $2
	`
	rows, err := d.db.QueryContext(ctx, stmt, plantID, limit)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list watering logs")
	}
	defer rows.Close()

	var logs []*store.WateringLog
	for rows.Next() {
		var log store.WateringLog
		var interval, liters, temp, humidity sql.NullFloat64
		if err := rows.Scan(
			&log.ID,
			&log.PlantID,
			&log.WateredAt,
			&interval,
			&liters,
			&temp,
			&humidity,
			&log.CreatedAt,
		); err != nil {
			return nil, errors.Wrap(err, "failed to scan watering log")
		}
		if interval.Valid {
			log.RecommendedIntervalDays = &interval.Float64
		}
		if liters.Valid {
			log.RecommendedWaterLiters = &liters.Float64
		}
		if temp.Valid {
			log.TemperatureC = &temp.Float64
		}
		if humidity.Valid {
			log.HumidityPercent = &humidity.Float64
		}
		logs = append(logs, &log)
	}
	return logs, rows.Err()
}

func (d *DB) CountWateringLogs(ctx context.Context, plantID int64) (int64, error) {
	var count int64
	err := d.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM watering_log WHERE plant_id = $1", plantID).Scan(&count)
	if err != nil {
		return 0, errors.Wrap(err, "failed to count watering logs")
	}
	return count, nil
}
