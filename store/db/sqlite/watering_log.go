package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/pkg/errors"

	"github.com/floralog/floralog/store"
)

func (d *DB) CreateWateringLog(ctx context.Context, create *store.WateringLog) (*store.WateringLog, error) {
	stmt := `
		INSERT INTO watering_log (plant_id, watered_at, recommended_interval_days,
			recommended_water_liters, temperature_c, humidity_percent, created_ts)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		RETURNING id, created_ts
	`
	var createdTs int64
	err := d.db.QueryRowContext(ctx, stmt,
		create.PlantID,
		formatDate(create.WateredAt),
		create.RecommendedIntervalDays,
		create.RecommendedWaterLiters,
		create.TemperatureC,
		create.HumidityPercent,
		time.Now().Unix(),
	).Scan(&create.ID, &createdTs)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create watering log")
	}
	create.CreatedAt = time.Unix(createdTs, 0)
	return create, nil
}

func (d *DB) ListRecentWateringLogs(ctx context.Context, plantID int64, limit int) ([]*store.WateringLog, error) {
	stmt := `
		SELECT id, plant_id, watered_at, recommended_interval_days,
			recommended_water_liters, temperature_c, humidity_percent, created_ts
		FROM watering_log
		WHERE plant_id = ?
		ORDER BY watered_at DESC, id DESC
		LIMIT ?
	`
	rows, err := d.db.QueryContext(ctx, stmt, plantID, limit)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list watering logs")
	}
	defer rows.Close()

	var logs []*store.WateringLog
	for rows.Next() {
		var log store.WateringLog
		var wateredAt string
		var interval, liters, temp, humidity sql.NullFloat64
		var createdTs int64
		if err := rows.Scan(
			&log.ID,
			&log.PlantID,
			&wateredAt,
			&interval,
			&liters,
			&temp,
			&humidity,
			&createdTs,
		); err != nil {
			return nil, errors.Wrap(err, "failed to scan watering log")
		}
		log.WateredAt = parseDate(wateredAt)
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
		log.CreatedAt = time.Unix(createdTs, 0)
		logs = append(logs, &log)
	}
	return logs, rows.Err()
}

func (d *DB) CountWateringLogs(ctx context.Context, plantID int64) (int64, error) {
	var count int64
	err := d.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM watering_log WHERE plant_id = ?", plantID).Scan(&count)
	if err != nil {
		return 0, errors.Wrap(err, "failed to count watering logs")
	}
	return count, nil
}
