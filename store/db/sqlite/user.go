package sqlite

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/floralog/floralog/store"
)

func (d *DB) CreateUser(ctx context.Context, create *store.User) (*store.User, error) {
	stmt := `
		INSERT INTO users (telegram_id, username, first_name, city, city_display_name, city_lat, city_lon, created_ts)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id, created_ts
	`
	var createdTs int64
	err := d.db.QueryRowContext(ctx, stmt,
		create.TelegramID,
		create.Username,
		create.FirstName,
		create.City,
		create.CityDisplayName,
		create.CityLat,
		create.CityLon,
		time.Now().Unix(),
	).Scan(&create.ID, &createdTs)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create user")
	}
	create.CreatedAt = time.Unix(createdTs, 0)
	return create, nil
}

func (d *DB) GetUser(ctx context.Context, id int64) (*store.User, error) {
	return d.getUser(ctx, "id = ?", id)
}

func (d *DB) GetUserByTelegramID(ctx context.Context, telegramID int64) (*store.User, error) {
	return d.getUser(ctx, "telegram_id = ?", telegramID)
}

func (d *DB) getUser(ctx context.Context, where string, arg any) (*store.User, error) {
	stmt := `
		SELECT id, telegram_id, username, first_name, city, city_display_name, city_lat, city_lon, created_ts
		FROM users
		WHERE ` + where
	user, err := scanUser(d.db.QueryRowContext(ctx, stmt, arg))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return user, err
}

func (d *DB) UpdateUser(ctx context.Context, update *store.UpdateUser) (*store.User, error) {
	set, args := []string{}, []any{}
	if update.Username != nil {
		set, args = append(set, "username = ?"), append(args, *update.Username)
	}
	if update.FirstName != nil {
		set, args = append(set, "first_name = ?"), append(args, *update.FirstName)
	}
	if update.City != nil {
		set, args = append(set, "city = ?"), append(args, *update.City)
	}
	if update.CityDisplayName != nil {
		set, args = append(set, "city_display_name = ?"), append(args, *update.CityDisplayName)
	}
	if update.CityLat != nil {
		set, args = append(set, "city_lat = ?"), append(args, *update.CityLat)
	}
	if update.CityLon != nil {
		set, args = append(set, "city_lon = ?"), append(args, *update.CityLon)
	}
	if len(set) == 0 {
		return d.GetUser(ctx, update.ID)
	}
	args = append(args, update.ID)

	stmt := "UPDATE users SET " + strings.Join(set, ", ") + " WHERE id = ?"
	if _, err := d.db.ExecContext(ctx, stmt, args...); err != nil {
		return nil, errors.Wrap(err, "failed to update user")
	}
	return d.GetUser(ctx, update.ID)
}

func (d *DB) ListUsers(ctx context.Context) ([]*store.User, error) {
	stmt := `
		SELECT id, telegram_id, username, first_name, city, city_display_name, city_lat, city_lon, created_ts
		FROM users
		ORDER BY id
	`
	rows, err := d.db.QueryContext(ctx, stmt)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list users")
	}
	defer rows.Close()

	var users []*store.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*store.User, error) {
	var user store.User
	var lat, lon sql.NullFloat64
	var createdTs int64
	if err := row.Scan(
		&user.ID,
		&user.TelegramID,
		&user.Username,
		&user.FirstName,
		&user.City,
		&user.CityDisplayName,
		&lat,
		&lon,
		&createdTs,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, errors.Wrap(err, "failed to scan user")
	}
	if lat.Valid {
		user.CityLat = &lat.Float64
	}
	if lon.Valid {
		user.CityLon = &lon.Float64
	}
	user.CreatedAt = time.Unix(createdTs, 0)
	return &user, nil
}
