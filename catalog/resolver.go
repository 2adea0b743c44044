// Package catalog resolves free-form plant names, Russian or English, into
// a display name, a seed watering interval, and a plant type hint. Results
// come from a waterfall of providers and every outcome, including a miss,
// is persisted so repeat queries stay cheap.
package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/floralog/floralog/backoff"
	"github.com/floralog/floralog/internal/profile"
	"github.com/floralog/floralog/metrics"
	"github.com/floralog/floralog/store"
)

// PerenualProvider is the backoff registry key for the Perenual API.
const PerenualProvider = "perenual"

var (
	rangePattern  = regexp.MustCompile(`(\d+)\s*[-–]\s*(\d+)`)
	singlePattern = regexp.MustCompile(`\d+`)
)

// IntervalAdvisor is the optional AI layer consulted before the catalog
// providers. A nil return means no suggestion.
type IntervalAdvisor interface {
	SuggestIntervalDays(ctx context.Context, plantName string) *store.LookupResult
}

// LookupStore is the persistent cache the resolver reads and writes.
// Satisfied by *store.Store.
type LookupStore interface {
	GetPlantLookupCacheEntry(ctx context.Context, queryKey string) (*store.PlantLookupCacheEntry, error)
	UpsertPlantLookupCacheEntry(ctx context.Context, entry *store.PlantLookupCacheEntry) error
	DeletePlantLookupCacheEntry(ctx context.Context, queryKey string) error
}

// Resolver runs the plant lookup waterfall.
type Resolver struct {
	profile *profile.Profile
	cache   LookupStore
	advisor IntervalAdvisor
	backoff *backoff.Registry
	metrics *metrics.Exporter
	client  *http.Client
	now     func() time.Time
}

// NewResolver creates a resolver. The advisor and exporter may be nil.
func NewResolver(p *profile.Profile, cache LookupStore, advisor IntervalAdvisor, registry *backoff.Registry, exporter *metrics.Exporter) *Resolver {
	if registry == nil {
		registry = backoff.NewRegistry()
	}
	return &Resolver{
		profile: p,
		cache:   cache,
		advisor: advisor,
		backoff: registry,
		metrics: exporter,
		client:  &http.Client{Timeout: time.Duration(p.HTTPTimeoutSeconds) * time.Second},
		now:     time.Now,
	}
}

// SuggestIntervalDays resolves a plant name. A nil result with a nil error
// means the lookup produced nothing usable and the miss was cached.
func (r *Resolver) SuggestIntervalDays(ctx context.Context, plantName string) (*store.LookupResult, error) {
	if strings.TrimSpace(plantName) == "" || r.profile.PerenualAPIKey == "" {
		slog.Warn("plant lookup skipped", "reason", "empty query or missing perenual api key")
		return nil, nil
	}

	normalized := normalizeQuery(plantName)
	if result, found, err := r.getCached(ctx, normalized); err != nil {
		return nil, err
	} else if found {
		r.metrics.CacheHit("plant_lookup")
		slog.Info("plant lookup resolved from cache", "query", normalized, "found", result != nil)
		return result, nil
	}
	r.metrics.CacheMiss("plant_lookup")

	queries := r.buildQueryCandidates(ctx, normalized)
	slog.Info("plant lookup started", "input", plantName, "candidates", queries)

	if r.advisor != nil {
		if suggestion := r.advisor.SuggestIntervalDays(ctx, plantName); suggestion != nil {
			if err := r.putCached(ctx, normalized, suggestion); err != nil {
				return nil, err
			}
			slog.Info("plant lookup resolved", "query", normalized, "source", suggestion.Source,
				"interval", suggestion.BaseIntervalDays, "type", suggestion.SuggestedType)
			return suggestion, nil
		}
	}

	if !r.backoff.Available(PerenualProvider) {
		r.metrics.ProviderCall(PerenualProvider, "backoff")
		fallback := r.fallbackLookup(ctx, queries, plantName)
		if err := r.putCached(ctx, normalized, fallback); err != nil {
			return nil, err
		}
		return fallback, nil
	}

	for _, query := range queries {
		species := r.searchFirstSpecies(ctx, query)
		if species == nil {
			continue
		}

		commonName := strings.TrimSpace(species.CommonName)
		if commonName == "" {
			commonName = plantName
		}
		suggestedType := InferPlantType(commonName, species.Watering, query)

		days, ok := r.fetchBenchmarkDays(ctx, species.ID)
		if !ok {
			days = mapWateringToDays(species.Watering)
		}
		result := &store.LookupResult{
			DisplayName:      commonName,
			BaseIntervalDays: clampInt(days, 1, 30),
			Source:           "Perenual",
			SuggestedType:    suggestedType,
		}
		if err := r.putCached(ctx, normalized, result); err != nil {
			return nil, err
		}
		slog.Info("plant lookup resolved", "query", query, "species_id", species.ID,
			"source", result.Source, "interval", result.BaseIntervalDays, "type", result.SuggestedType)
		return result, nil
	}

	fallback := r.fallbackLookup(ctx, queries, plantName)
	if err := r.putCached(ctx, normalized, fallback); err != nil {
		return nil, err
	}
	if fallback != nil {
		slog.Info("plant lookup resolved", "query", normalized, "source", fallback.Source,
			"interval", fallback.BaseIntervalDays, "type", fallback.SuggestedType)
	} else {
		slog.Warn("plant lookup failed", "input", plantName)
	}
	return fallback, nil
}

type perenualSpecies struct {
	ID         int    `json:"id"`
	CommonName string `json:"common_name"`
	Watering   string `json:"watering"`
}

func (r *Resolver) searchFirstSpecies(ctx context.Context, query string) *perenualSpecies {
	reqURL := fmt.Sprintf("%s/species-list?key=%s&q=%s",
		r.profile.PerenualBaseURL, url.QueryEscape(r.profile.PerenualAPIKey), url.QueryEscape(query))

	var response struct {
		Data []perenualSpecies `json:"data"`
	}
	status, err := r.getJSON(ctx, reqURL, &response)
	if err != nil {
		if status == http.StatusTooManyRequests || status >= 500 {
			r.backoff.MarkFailure(PerenualProvider, time.Duration(r.profile.ProviderBackoffMinutes)*time.Minute)
		}
		r.metrics.ProviderCall(PerenualProvider, "error")
		slog.Warn("plant lookup request failed", "query", query, "status", status, "err", err)
		return nil
	}
	if len(response.Data) == 0 {
		r.metrics.ProviderCall(PerenualProvider, "miss")
		slog.Info("plant lookup miss", "query", query)
		return nil
	}
	r.metrics.ProviderCall(PerenualProvider, "ok")
	return &response.Data[0]
}

func (r *Resolver) fetchBenchmarkDays(ctx context.Context, speciesID int) (int, bool) {
	if speciesID <= 0 {
		return 0, false
	}
	reqURL := fmt.Sprintf("%s/species/details/%d?key=%s",
		r.profile.PerenualBaseURL, speciesID, url.QueryEscape(r.profile.PerenualAPIKey))

	var details struct {
		WateringGeneralBenchmark struct {
			Value json.RawMessage `json:"value"`
		} `json:"watering_general_benchmark"`
		CareGuides struct {
			Watering string `json:"watering"`
		} `json:"care-guides"`
	}
	if _, err := r.getJSON(ctx, reqURL, &details); err != nil {
		slog.Warn("failed to read perenual details", "species_id", speciesID, "err", err)
		return 0, false
	}

	if days, ok := parseDaysFromText(string(details.WateringGeneralBenchmark.Value)); ok {
		return days, true
	}
	return parseDaysFromText(details.CareGuides.Watering)
}

func (r *Resolver) fallbackLookup(ctx context.Context, queries []string, originalInput string) *store.LookupResult {
	for _, query := range queries {
		if result := r.gbifLookup(ctx, query, originalInput); result != nil {
			return result
		}
	}
	plantType := InferPlantType(originalInput, "", originalInput)
	interval := intervalFromType(plantType)
	slog.Info("fallback heuristic used", "input", originalInput, "type", plantType, "interval", interval)
	return &store.LookupResult{
		DisplayName:      originalInput,
		BaseIntervalDays: interval,
		Source:           "Heuristic",
		SuggestedType:    plantType,
	}
}

func (r *Resolver) gbifLookup(ctx context.Context, query, originalInput string) *store.LookupResult {
	reqURL := fmt.Sprintf("%s/species/suggest?q=%s&limit=3", r.profile.GBIFBaseURL, url.QueryEscape(query))

	var nodes []struct {
		CanonicalName  string `json:"canonicalName"`
		ScientificName string `json:"scientificName"`
	}
	if _, err := r.getJSON(ctx, reqURL, &nodes); err != nil {
		r.metrics.ProviderCall("gbif", "error")
		slog.Warn("gbif fallback failed", "query", query, "err", err)
		return nil
	}
	if len(nodes) == 0 {
		r.metrics.ProviderCall("gbif", "miss")
		return nil
	}
	r.metrics.ProviderCall("gbif", "ok")

	canonical := strings.TrimSpace(nodes[0].CanonicalName)
	scientific := strings.TrimSpace(nodes[0].ScientificName)
	display := originalInput
	if canonical != "" {
		display = canonical
	} else if scientific != "" {
		display = scientific
	}
	signal := strings.TrimSpace(canonical + " " + scientific + " " + query)
	plantType := InferPlantType(signal, "", signal)
	return &store.LookupResult{
		DisplayName:      display,
		BaseIntervalDays: intervalFromType(plantType),
		Source:           "GBIF",
		SuggestedType:    plantType,
	}
}

// buildQueryCandidates expands a normalized query into provider spellings.
// Cyrillic input additionally goes through the local dictionary, a machine
// translation, transliteration, and iNaturalist aliases.
func (r *Resolver) buildQueryCandidates(ctx context.Context, original string) []string {
	candidates := newCandidateSet()
	normalized := normalizeQuery(original)
	candidates.add(normalized)
	if containsCyrillic(normalized) {
		if translated, ok := dictionaryTranslate(normalized); ok {
			candidates.add(translated)
		}
		if translated, ok := r.translateToEnglish(ctx, normalized); ok {
			candidates.add(translated)
		}
		candidates.add(transliterateRuToEn(normalized))
		for _, alias := range r.iNaturalistAliases(ctx, normalized) {
			candidates.add(alias)
		}
	}
	return candidates.values
}

func (r *Resolver) translateToEnglish(ctx context.Context, text string) (string, bool) {
	reqURL := fmt.Sprintf("%s?q=%s&langpair=ru|en", r.profile.TranslateBaseURL, url.QueryEscape(text))

	var response struct {
		ResponseData struct {
			TranslatedText string `json:"translatedText"`
		} `json:"responseData"`
	}
	if _, err := r.getJSON(ctx, reqURL, &response); err != nil {
		r.metrics.ProviderCall("translate", "error")
		slog.Warn("translation failed", "text", text, "err", err)
		return "", false
	}
	translated := strings.TrimSpace(response.ResponseData.TranslatedText)
	if translated == "" {
		r.metrics.ProviderCall("translate", "miss")
		return "", false
	}
	r.metrics.ProviderCall("translate", "ok")
	// Some translations come back percent-encoded.
	if strings.Contains(translated, "%") {
		if decoded, err := url.QueryUnescape(translated); err == nil {
			translated = decoded
		}
	}
	slog.Info("plant query translated", "from", text, "to", translated)
	return translated, true
}

func (r *Resolver) iNaturalistAliases(ctx context.Context, text string) []string {
	reqURL := fmt.Sprintf("%s/taxa/autocomplete?q=%s&locale=ru&all_names=true&per_page=3",
		r.profile.INaturalistBaseURL, url.QueryEscape(text))

	var response struct {
		Results []struct {
			Name                string `json:"name"`
			PreferredCommonName string `json:"preferred_common_name"`
		} `json:"results"`
	}
	if _, err := r.getJSON(ctx, reqURL, &response); err != nil {
		r.metrics.ProviderCall("inaturalist", "error")
		slog.Warn("inaturalist request failed", "text", text, "err", err)
		return nil
	}
	if len(response.Results) == 0 {
		r.metrics.ProviderCall("inaturalist", "miss")
		return nil
	}
	r.metrics.ProviderCall("inaturalist", "ok")

	var aliases []string
	for _, item := range response.Results {
		if common := strings.TrimSpace(item.PreferredCommonName); common != "" {
			aliases = append(aliases, common)
		}
		if scientific := strings.TrimSpace(item.Name); scientific != "" {
			aliases = append(aliases, scientific)
		}
	}
	return aliases
}

// getCached returns the persisted outcome for the key. found=false means no
// usable row exists (expired rows are deleted on the way). A found result
// may still be nil: that is a cached miss.
func (r *Resolver) getCached(ctx context.Context, key string) (*store.LookupResult, bool, error) {
	entry, err := r.cache.GetPlantLookupCacheEntry(ctx, key)
	if err != nil {
		return nil, false, errors.Wrap(err, "failed to read lookup cache")
	}
	if entry == nil {
		return nil, false, nil
	}
	if entry.ExpiresAt.Before(r.now()) {
		if err := r.cache.DeletePlantLookupCacheEntry(ctx, key); err != nil {
			return nil, false, errors.Wrap(err, "failed to evict expired lookup entry")
		}
		return nil, false, nil
	}
	return entry.Result(), true, nil
}

func (r *Resolver) putCached(ctx context.Context, key string, result *store.LookupResult) error {
	ttlMinutes := r.profile.LookupCacheTTLMinutes
	if ttlMinutes < 1 {
		ttlMinutes = 1
	}
	now := r.now()
	entry := &store.PlantLookupCacheEntry{
		QueryKey:  key,
		Hit:       result != nil,
		ExpiresAt: now.Add(time.Duration(ttlMinutes) * time.Minute),
		UpdatedAt: now,
	}
	if result != nil {
		entry.DisplayName = &result.DisplayName
		entry.BaseIntervalDays = &result.BaseIntervalDays
		entry.Source = &result.Source
		entry.SuggestedType = &result.SuggestedType
	}
	return errors.Wrap(r.cache.UpsertPlantLookupCacheEntry(ctx, entry), "failed to persist lookup outcome")
}

func (r *Resolver) getJSON(ctx context.Context, reqURL string, out any) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return 0, errors.Wrap(err, "failed to build request")
	}
	resp, err := r.client.Do(req)
	if err != nil {
		return 0, errors.Wrap(err, "request failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return resp.StatusCode, errors.Errorf("unexpected status %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return resp.StatusCode, errors.Wrap(err, "failed to decode response")
	}
	return resp.StatusCode, nil
}

// parseDaysFromText extracts a day count from provider text: the average of
// the first "N-M" range, otherwise the first bare number.
func parseDaysFromText(text string) (int, bool) {
	if strings.TrimSpace(text) == "" {
		return 0, false
	}
	if m := rangePattern.FindStringSubmatch(text); m != nil {
		left, _ := strconv.Atoi(m[1])
		right, _ := strconv.Atoi(m[2])
		return (left + right) / 2, true
	}
	if m := singlePattern.FindString(text); m != "" {
		value, _ := strconv.Atoi(m)
		return value, true
	}
	return 0, false
}

func mapWateringToDays(watering string) int {
	switch strings.ToLower(strings.TrimSpace(watering)) {
	case "frequent":
		return 3
	case "average":
		return 7
	case "minimum":
		return 14
	case "none":
		return 21
	default:
		return 7
	}
}

func clampInt(value, min, max int) int {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}
