// Package advisor asks an OpenRouter-hosted model for plant-care
// suggestions: a seed watering interval for an unknown plant name, a care
// advice card, and correction factors for the recommendation engine. The
// layer is optional: without an API key every call answers nil.
package advisor

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/pkg/errors"
	openai "github.com/sashabaranov/go-openai"

	"github.com/floralog/floralog/backoff"
	"github.com/floralog/floralog/cache"
	"github.com/floralog/floralog/internal/profile"
	"github.com/floralog/floralog/metrics"
	"github.com/floralog/floralog/store"
)

// OpenRouterProvider is the backoff registry key for the OpenRouter API.
const OpenRouterProvider = "openrouter"

// CareAdvice is a care card for the next watering.
type CareAdvice struct {
	WateringCycleDays int
	Additives         []string
	SoilType          string
	SoilComposition   []string
	Note              string
	Source            string
}

// WateringProfile carries multiplicative corrections the engine applies on
// top of its own factors. Both are clamped to [0.5, 1.5].
type WateringProfile struct {
	IntervalFactor float64
	WaterFactor    float64
}

type chatClient interface {
	CreateChatCompletion(ctx context.Context, request openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// Service is the OpenRouter advisory client.
type Service struct {
	profile *profile.Profile
	client  chatClient
	backoff *backoff.Registry
	metrics *metrics.Exporter

	adviceCache  *cache.TTL[string, *CareAdvice]
	profileCache *cache.TTL[string, *WateringProfile]
}

// NewService creates the advisory service. Returns nil when OpenRouter is
// not configured; callers treat a nil service as "no advisor".
func NewService(p *profile.Profile, registry *backoff.Registry, exporter *metrics.Exporter) *Service {
	if !p.IsAdvisorEnabled() {
		return nil
	}
	if registry == nil {
		registry = backoff.NewRegistry()
	}

	config := openai.DefaultConfig(p.OpenRouterAPIKey)
	config.BaseURL = p.OpenRouterBaseURL

	ttl := time.Duration(p.AdviceCacheTTLMinutes) * time.Minute
	return &Service{
		profile:      p,
		client:       openai.NewClientWithConfig(config),
		backoff:      registry,
		metrics:      exporter,
		adviceCache:  cache.NewTTL[string, *CareAdvice](ttl),
		profileCache: cache.NewTTL[string, *WateringProfile](ttl),
	}
}

// CacheClearStats reports what a cache reset removed.
type CacheClearStats struct {
	CareAdviceEntries      int
	WateringProfileEntries int
}

// ClearCaches drops both advisory caches. Safe on a nil service.
func (s *Service) ClearCaches() CacheClearStats {
	if s == nil {
		return CacheClearStats{}
	}
	return CacheClearStats{
		CareAdviceEntries:      s.adviceCache.Purge(),
		WateringProfileEntries: s.profileCache.Purge(),
	}
}

// SuggestIntervalDays asks the model for a seed watering interval. A nil
// return means no usable suggestion; the catalog then tries its own
// providers.
func (s *Service) SuggestIntervalDays(ctx context.Context, plantName string) *store.LookupResult {
	if s == nil || strings.TrimSpace(plantName) == "" {
		return nil
	}
	content, err := s.complete(ctx, intervalSystemPrompt, "Plant name: "+plantName)
	if err != nil {
		slog.Warn("openrouter suggestion failed", "plant", plantName, "err", err)
		return nil
	}

	var suggestion struct {
		NormalizedName string  `json:"normalized_name"`
		IntervalDays   int     `json:"interval_days"`
		TypeHint       string  `json:"type_hint"`
		Confidence     float64 `json:"confidence"`
	}
	payload := sanitizeJSONPayload(content)
	if payload == "" {
		slog.Warn("openrouter returned empty payload", "plant", plantName, "raw", preview(content))
		return nil
	}
	if err := json.Unmarshal([]byte(payload), &suggestion); err != nil {
		slog.Warn("openrouter payload is not json", "plant", plantName, "raw", preview(content), "err", err)
		return nil
	}
	if suggestion.IntervalDays <= 0 {
		return nil
	}

	name := strings.TrimSpace(suggestion.NormalizedName)
	if name == "" {
		name = plantName
	}
	result := &store.LookupResult{
		DisplayName:      name,
		BaseIntervalDays: clampInt(suggestion.IntervalDays, 1, 30),
		Source:           "OpenRouter:" + s.profile.OpenRouterModel,
		SuggestedType:    store.ParsePlantType(suggestion.TypeHint),
	}
	slog.Info("openrouter interval success", "plant", plantName, "normalized", result.DisplayName,
		"interval", result.BaseIntervalDays, "type", result.SuggestedType)
	return result
}

// SuggestCareAdvice asks the model for a care card. Outcomes, including
// failures, are cached so one plant does not hammer the model.
func (s *Service) SuggestCareAdvice(ctx context.Context, plant *store.Plant, recommendedIntervalDays float64) *CareAdvice {
	if s == nil || plant == nil || strings.TrimSpace(plant.Name) == "" {
		return nil
	}

	key := careCacheKey(plant, recommendedIntervalDays)
	if advice, ok := s.adviceCache.Get(key); ok {
		s.metrics.CacheHit("care_advice")
		return advice
	}
	s.metrics.CacheMiss("care_advice")

	content, err := s.complete(ctx, careAdviceSystemPrompt, careAdviceUserPrompt(plant, recommendedIntervalDays))
	if err != nil {
		s.adviceCache.SetWithDefaultTTL(key, nil)
		slog.Warn("openrouter care advice failed", "plant", plant.Name, "err", err)
		return nil
	}

	var raw struct {
		WateringCycleDays *int     `json:"watering_cycle_days"`
		Additives         []string `json:"additives"`
		SoilType          string   `json:"soil_type"`
		SoilComposition   []string `json:"soil_composition"`
		Note              string   `json:"note"`
	}
	if err := json.Unmarshal([]byte(sanitizeJSONPayload(content)), &raw); err != nil {
		s.adviceCache.SetWithDefaultTTL(key, nil)
		slog.Warn("openrouter care advice is not json", "plant", plant.Name, "raw", preview(content), "err", err)
		return nil
	}

	cycle := int(math.Round(recommendedIntervalDays))
	if raw.WateringCycleDays != nil {
		cycle = *raw.WateringCycleDays
	}
	advice := &CareAdvice{
		WateringCycleDays: clampInt(cycle, 1, 30),
		Additives:         trimmedList(raw.Additives, 3, func(v string) string { return strings.TrimSpace(v) }),
		SoilType:          normalizeAdviceNote(raw.SoilType),
		SoilComposition:   trimmedList(raw.SoilComposition, 5, normalizeAdviceNote),
		Note:              normalizeAdviceNote(raw.Note),
		Source:            "OpenRouter:" + s.profile.OpenRouterModel,
	}
	s.adviceCache.SetWithDefaultTTL(key, advice)
	slog.Info("openrouter care advice success", "plant", plant.Name, "cycle", advice.WateringCycleDays,
		"additives", advice.Additives, "soil_type", advice.SoilType)
	return advice
}

// SuggestWateringProfile asks the model for correction factors given the
// plant and the current conditions. A nil return leaves the engine's own
// estimate untouched.
func (s *Service) SuggestWateringProfile(ctx context.Context, plant *store.Plant, temperatureC, humidityPercent *float64) *WateringProfile {
	if s == nil || plant == nil || strings.TrimSpace(plant.Name) == "" {
		return nil
	}

	key := profileCacheKey(plant, temperatureC, humidityPercent)
	if wp, ok := s.profileCache.Get(key); ok {
		s.metrics.CacheHit("watering_profile")
		return wp
	}
	s.metrics.CacheMiss("watering_profile")

	content, err := s.complete(ctx, wateringProfileSystemPrompt, wateringProfileUserPrompt(plant, temperatureC, humidityPercent))
	if err != nil {
		s.profileCache.SetWithDefaultTTL(key, nil)
		slog.Warn("openrouter watering profile failed", "plant", plant.Name, "err", err)
		return nil
	}

	var raw struct {
		IntervalFactor *float64 `json:"interval_factor"`
		WaterFactor    *float64 `json:"water_factor"`
	}
	if err := json.Unmarshal([]byte(sanitizeJSONPayload(content)), &raw); err != nil || raw.IntervalFactor == nil || raw.WaterFactor == nil {
		s.profileCache.SetWithDefaultTTL(key, nil)
		slog.Warn("openrouter watering profile is not usable", "plant", plant.Name, "raw", preview(content))
		return nil
	}

	wp := &WateringProfile{
		IntervalFactor: clampFloat(*raw.IntervalFactor, 0.5, 1.5),
		WaterFactor:    clampFloat(*raw.WaterFactor, 0.5, 1.5),
	}
	s.profileCache.SetWithDefaultTTL(key, wp)
	return wp
}

// complete runs one chat completion and returns the raw message content.
// Rate limits and server errors put the whole provider into backoff.
func (s *Service) complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	if !s.backoff.Available(OpenRouterProvider) {
		s.metrics.ProviderCall(OpenRouterProvider, "backoff")
		return "", errors.New("openrouter is in backoff")
	}

	response, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       s.profile.OpenRouterModel,
		Temperature: 0,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: userPrompt},
		},
	})
	if err != nil {
		var apiErr *openai.APIError
		if errors.As(err, &apiErr) {
			code := apiErr.HTTPStatusCode
			if code == 404 || code == 429 || code >= 500 {
				s.backoff.MarkFailure(OpenRouterProvider, time.Duration(s.profile.ProviderBackoffMinutes)*time.Minute)
			}
		}
		s.metrics.ProviderCall(OpenRouterProvider, "error")
		return "", errors.Wrap(err, "chat completion failed")
	}
	if len(response.Choices) == 0 {
		s.metrics.ProviderCall(OpenRouterProvider, "miss")
		return "", errors.New("chat completion returned no choices")
	}
	s.metrics.ProviderCall(OpenRouterProvider, "ok")
	return strings.TrimSpace(response.Choices[0].Message.Content), nil
}

func careCacheKey(plant *store.Plant, recommendedIntervalDays float64) string {
	return fmt.Sprintf("%s|%s|%g|%g",
		strings.ToLower(strings.TrimSpace(plant.Name)), plant.Type,
		plant.PotVolumeLiters, math.Round(recommendedIntervalDays*10)/10)
}

func profileCacheKey(plant *store.Plant, temperatureC, humidityPercent *float64) string {
	temp, humidity := "na", "na"
	// Bucketed so small weather jitter reuses the cached answer.
	if temperatureC != nil {
		temp = fmt.Sprintf("%.0f", *temperatureC)
	}
	if humidityPercent != nil {
		humidity = fmt.Sprintf("%.0f", math.Round(*humidityPercent/10)*10)
	}
	return fmt.Sprintf("%s|%s|%s|%s",
		strings.ToLower(strings.TrimSpace(plant.Name)), plant.Type, temp, humidity)
}

func trimmedList(values []string, max int, clean func(string) string) []string {
	var out []string
	for _, value := range values {
		if len(out) >= max {
			break
		}
		if cleaned := clean(value); cleaned != "" {
			out = append(out, cleaned)
		}
	}
	return out
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

func clampFloat(value, min, max float64) float64 {
	return math.Max(min, math.Min(max, value))
}
