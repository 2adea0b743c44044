package store

import "context"

// Driver is an interface for database access.
type Driver interface {
	Migrate(ctx context.Context) error
	Close() error

	// User model
	CreateUser(ctx context.Context, create *User) (*User, error)
	GetUser(ctx context.Context, id int64) (*User, error)
	GetUserByTelegramID(ctx context.Context, telegramID int64) (*User, error)
	UpdateUser(ctx context.Context, update *UpdateUser) (*User, error)
	ListUsers(ctx context.Context) ([]*User, error)

	// Plant model
	CreatePlant(ctx context.Context, create *Plant) (*Plant, error)
	GetPlant(ctx context.Context, id int64) (*Plant, error)
	ListPlants(ctx context.Context, find *FindPlant) ([]*Plant, error)
	UpdatePlant(ctx context.Context, update *UpdatePlant) (*Plant, error)
	DeletePlant(ctx context.Context, id int64) error

	// Watering log
	CreateWateringLog(ctx context.Context, create *WateringLog) (*WateringLog, error)
	ListRecentWateringLogs(ctx context.Context, plantID int64, limit int) ([]*WateringLog, error)
	CountWateringLogs(ctx context.Context, plantID int64) (int64, error)

	// Plant lookup cache
	GetPlantLookupCacheEntry(ctx context.Context, queryKey string) (*PlantLookupCacheEntry, error)
	UpsertPlantLookupCacheEntry(ctx context.Context, entry *PlantLookupCacheEntry) error
	DeletePlantLookupCacheEntry(ctx context.Context, queryKey string) error
	PurgePlantLookupCache(ctx context.Context) (int64, error)
}
