package store

import (
	"context"
	"time"
)

// LookupResult is the outcome of a plant-name lookup: a display name, a seed
// watering interval, the provider that produced it, and a type hint.
type LookupResult struct {
	DisplayName      string
	BaseIntervalDays int
	Source           string
	SuggestedType    PlantType
}

// PlantLookupCacheEntry persists one lookup outcome keyed by the normalized
// query. A miss is stored too (Hit=false) so a known-bad query does not hit
// the providers again until the entry expires.
type PlantLookupCacheEntry struct {
	ID               int64
	QueryKey         string
	Hit              bool
	DisplayName      *string
	BaseIntervalDays *int
	Source           *string
	SuggestedType    *PlantType
	ExpiresAt        time.Time
	UpdatedAt        time.Time
}

// Result converts the entry to a LookupResult. Returns nil for a cached miss
// or an incomplete row.
func (e *PlantLookupCacheEntry) Result() *LookupResult {
	if !e.Hit || e.DisplayName == nil || e.BaseIntervalDays == nil {
		return nil
	}
	source := "Perenual"
	if e.Source != nil {
		source = *e.Source
	}
	suggested := PlantTypeDefault
	if e.SuggestedType != nil {
		suggested = *e.SuggestedType
	}
	return &LookupResult{
		DisplayName:      *e.DisplayName,
		BaseIntervalDays: *e.BaseIntervalDays,
		Source:           source,
		SuggestedType:    suggested,
	}
}

func (s *Store) GetPlantLookupCacheEntry(ctx context.Context, queryKey string) (*PlantLookupCacheEntry, error) {
	return s.driver.GetPlantLookupCacheEntry(ctx, queryKey)
}

func (s *Store) UpsertPlantLookupCacheEntry(ctx context.Context, entry *PlantLookupCacheEntry) error {
	return s.driver.UpsertPlantLookupCacheEntry(ctx, entry)
}

func (s *Store) DeletePlantLookupCacheEntry(ctx context.Context, queryKey string) error {
	return s.driver.DeletePlantLookupCacheEntry(ctx, queryKey)
}

// PurgePlantLookupCache removes all persisted lookup rows and returns the
// number removed.
func (s *Store) PurgePlantLookupCache(ctx context.Context) (int64, error) {
	return s.driver.PurgePlantLookupCache(ctx)
}
