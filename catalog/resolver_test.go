package catalog

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/floralog/floralog/backoff"
	"github.com/floralog/floralog/internal/profile"
	"github.com/floralog/floralog/store"
)

type fakeLookupStore struct {
	entries map[string]*store.PlantLookupCacheEntry
}

func newFakeLookupStore() *fakeLookupStore {
	return &fakeLookupStore{entries: make(map[string]*store.PlantLookupCacheEntry)}
}

func (f *fakeLookupStore) GetPlantLookupCacheEntry(_ context.Context, queryKey string) (*store.PlantLookupCacheEntry, error) {
	return f.entries[queryKey], nil
}

func (f *fakeLookupStore) UpsertPlantLookupCacheEntry(_ context.Context, entry *store.PlantLookupCacheEntry) error {
	f.entries[entry.QueryKey] = entry
	return nil
}

func (f *fakeLookupStore) DeletePlantLookupCacheEntry(_ context.Context, queryKey string) error {
	delete(f.entries, queryKey)
	return nil
}

type fakeAdvisor struct {
	result *store.LookupResult
}

func (f *fakeAdvisor) SuggestIntervalDays(context.Context, string) *store.LookupResult {
	return f.result
}

func catalogProfile(baseURL string) *profile.Profile {
	return &profile.Profile{
		PerenualAPIKey:         "test-key",
		PerenualBaseURL:        baseURL,
		TranslateBaseURL:       baseURL + "/translate",
		INaturalistBaseURL:     baseURL,
		GBIFBaseURL:            baseURL,
		LookupCacheTTLMinutes:  60,
		ProviderBackoffMinutes: 60,
		HTTPTimeoutSeconds:     5,
	}
}

// providersServer serves all catalog providers from one listener. Paths not
// overridden answer with an empty result.
func providersServer(overrides map[string]http.HandlerFunc) *httptest.Server {
	defaults := map[string]string{
		"/species-list":      `{"data":[]}`,
		"/species/suggest":   `[]`,
		"/taxa/autocomplete": `{"results":[]}`,
		"/translate":         `{"responseData":{"translatedText":""}}`,
	}
	mux := http.NewServeMux()
	for path, body := range defaults {
		if _, ok := overrides[path]; ok {
			continue
		}
		payload := body
		mux.HandleFunc(path, func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, payload)
		})
	}
	for path, handler := range overrides {
		mux.HandleFunc(path, handler)
	}
	return httptest.NewServer(mux)
}

func TestSuggestIntervalDaysViaPerenual(t *testing.T) {
	var listCalls atomic.Int64
	server := providersServer(map[string]http.HandlerFunc{
		"/species-list": func(w http.ResponseWriter, r *http.Request) {
			listCalls.Add(1)
			fmt.Fprint(w, `{"data":[{"id":42,"common_name":"Monstera Deliciosa","watering":"Average"}]}`)
		},
		"/species/details/42": func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{"watering_general_benchmark":{"value":"5-7"}}`)
		},
	})
	defer server.Close()

	cache := newFakeLookupStore()
	resolver := NewResolver(catalogProfile(server.URL), cache, nil, nil, nil)

	result, err := resolver.SuggestIntervalDays(context.Background(), "monstera")
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, "Monstera Deliciosa", result.DisplayName)
	assert.Equal(t, 6, result.BaseIntervalDays)
	assert.Equal(t, "Perenual", result.Source)
	assert.Equal(t, store.PlantTypeTropical, result.SuggestedType)

	// The second identical query must be served from the persisted cache.
	again, err := resolver.SuggestIntervalDays(context.Background(), "Monstera")
	require.NoError(t, err)
	require.NotNil(t, again)
	assert.Equal(t, *result, *again)
	assert.Equal(t, int64(1), listCalls.Load())
}

func TestSuggestIntervalDaysBenchmarkFallsBackToWateringLabel(t *testing.T) {
	server := providersServer(map[string]http.HandlerFunc{
		"/species-list": func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{"data":[{"id":7,"common_name":"Haworthia","watering":"Minimum"}]}`)
		},
		"/species/details/7": func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{}`)
		},
	})
	defer server.Close()

	resolver := NewResolver(catalogProfile(server.URL), newFakeLookupStore(), nil, nil, nil)
	result, err := resolver.SuggestIntervalDays(context.Background(), "haworthia")
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, 14, result.BaseIntervalDays)
	assert.Equal(t, store.PlantTypeSucculent, result.SuggestedType)
}

func TestSuggestIntervalDaysAdvisorWinsOverProviders(t *testing.T) {
	server := providersServer(nil)
	defer server.Close()

	advisor := &fakeAdvisor{result: &store.LookupResult{
		DisplayName:      "Ficus lyrata",
		BaseIntervalDays: 5,
		Source:           "OpenRouter:test",
		SuggestedType:    store.PlantTypeTropical,
	}}
	cache := newFakeLookupStore()
	resolver := NewResolver(catalogProfile(server.URL), cache, advisor, nil, nil)

	result, err := resolver.SuggestIntervalDays(context.Background(), "фикус лировидный")
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, "OpenRouter:test", result.Source)

	entry := cache.entries["фикус лировидный"]
	require.NotNil(t, entry)
	assert.True(t, entry.Hit)
}

func TestSuggestIntervalDaysRateLimitActivatesBackoff(t *testing.T) {
	var listCalls atomic.Int64
	server := providersServer(map[string]http.HandlerFunc{
		"/species-list": func(w http.ResponseWriter, r *http.Request) {
			listCalls.Add(1)
			w.WriteHeader(http.StatusTooManyRequests)
		},
		"/species/suggest": func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `[{"canonicalName":"Aloe vera","scientificName":"Aloe vera (L.) Burm.f."}]`)
		},
	})
	defer server.Close()

	registry := backoff.NewRegistry()
	resolver := NewResolver(catalogProfile(server.URL), newFakeLookupStore(), nil, registry, nil)

	result, err := resolver.SuggestIntervalDays(context.Background(), "aloe")
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, "GBIF", result.Source)
	assert.Equal(t, store.PlantTypeSucculent, result.SuggestedType)
	assert.Equal(t, 14, result.BaseIntervalDays)
	assert.False(t, registry.Available(PerenualProvider))

	// While in backoff, a new query must not reach Perenual at all.
	_, err = resolver.SuggestIntervalDays(context.Background(), "cactus")
	require.NoError(t, err)
	assert.Equal(t, int64(1), listCalls.Load())
}

func TestSuggestIntervalDaysHeuristicTerminal(t *testing.T) {
	server := providersServer(nil)
	defer server.Close()

	cache := newFakeLookupStore()
	resolver := NewResolver(catalogProfile(server.URL), cache, nil, nil, nil)

	result, err := resolver.SuggestIntervalDays(context.Background(), "Неведома зверушка")
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, "Heuristic", result.Source)
	assert.Equal(t, store.PlantTypeDefault, result.SuggestedType)
	assert.Equal(t, 7, result.BaseIntervalDays)

	entry := cache.entries["неведома зверушка"]
	require.NotNil(t, entry)
	assert.True(t, entry.Hit)
}

func TestSuggestIntervalDaysExpiredEntryEvicted(t *testing.T) {
	server := providersServer(map[string]http.HandlerFunc{
		"/species-list": func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{"data":[{"id":1,"common_name":"Fern","watering":"Frequent"}]}`)
		},
		"/species/details/1": func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{}`)
		},
	})
	defer server.Close()

	cache := newFakeLookupStore()
	stale := "Old Fern"
	staleDays := 30
	cache.entries["fern"] = &store.PlantLookupCacheEntry{
		QueryKey:         "fern",
		Hit:              true,
		DisplayName:      &stale,
		BaseIntervalDays: &staleDays,
		ExpiresAt:        time.Now().Add(-time.Hour),
	}

	resolver := NewResolver(catalogProfile(server.URL), cache, nil, nil, nil)
	result, err := resolver.SuggestIntervalDays(context.Background(), "fern")
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, "Fern", result.DisplayName)
	assert.Equal(t, 3, result.BaseIntervalDays)
	assert.Equal(t, store.PlantTypeFern, result.SuggestedType)
}

func TestSuggestIntervalDaysSkippedWithoutKey(t *testing.T) {
	p := catalogProfile("http://invalid")
	p.PerenualAPIKey = ""
	resolver := NewResolver(p, newFakeLookupStore(), nil, nil, nil)

	result, err := resolver.SuggestIntervalDays(context.Background(), "monstera")
	require.NoError(t, err)
	assert.Nil(t, result)
}

func TestParseDaysFromText(t *testing.T) {
	tests := []struct {
		text string
		days int
		ok   bool
	}{
		{"5-7", 6, true},
		{"Every 7-10 days in summer", 8, true},
		{"once per 10 days", 10, true},
		{"\"3\"", 3, true},
		{"", 0, false},
		{"whenever the soil dries out", 0, false},
	}
	for _, tt := range tests {
		days, ok := parseDaysFromText(tt.text)
		assert.Equal(t, tt.ok, ok, tt.text)
		assert.Equal(t, tt.days, days, tt.text)
	}
}

func TestMapWateringToDays(t *testing.T) {
	assert.Equal(t, 3, mapWateringToDays("Frequent"))
	assert.Equal(t, 7, mapWateringToDays("average"))
	assert.Equal(t, 14, mapWateringToDays(" Minimum "))
	assert.Equal(t, 21, mapWateringToDays("none"))
	assert.Equal(t, 7, mapWateringToDays("unknown"))
}

func TestInferPlantType(t *testing.T) {
	assert.Equal(t, store.PlantTypeFern, InferPlantType("Boston Fern", "", ""))
	assert.Equal(t, store.PlantTypeSucculent, InferPlantType("Aloe vera", "", ""))
	assert.Equal(t, store.PlantTypeSucculent, InferPlantType("Mystery plant", "minimum", ""))
	assert.Equal(t, store.PlantTypeTropical, InferPlantType("Monstera deliciosa", "", ""))
	assert.Equal(t, store.PlantTypeConifer, InferPlantType("Juniperus juniper bonsai", "", ""))
	assert.Equal(t, store.PlantTypeDefault, InferPlantType("Tomato", "", ""))
}
