package advisor

import (
	"context"
	"testing"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/floralog/floralog/backoff"
	"github.com/floralog/floralog/cache"
	"github.com/floralog/floralog/internal/profile"
	"github.com/floralog/floralog/store"
)

type fakeChat struct {
	reply string
	err   error
	calls int
}

func (f *fakeChat) CreateChatCompletion(context.Context, openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	f.calls++
	if f.err != nil {
		return openai.ChatCompletionResponse{}, f.err
	}
	return openai.ChatCompletionResponse{
		Choices: []openai.ChatCompletionChoice{
			{Message: openai.ChatCompletionMessage{Content: f.reply}},
		},
	}, nil
}

func testService(client chatClient) *Service {
	return &Service{
		profile: &profile.Profile{
			OpenRouterAPIKey:       "key",
			OpenRouterModel:        "test-model",
			ProviderBackoffMinutes: 60,
			AdviceCacheTTLMinutes:  60,
		},
		client:       client,
		backoff:      backoff.NewRegistry(),
		adviceCache:  cache.NewTTL[string, *CareAdvice](time.Hour),
		profileCache: cache.NewTTL[string, *WateringProfile](time.Hour),
	}
}

func testPlant() *store.Plant {
	return &store.Plant{
		Name:            "Monstera",
		Type:            store.PlantTypeTropical,
		Placement:       store.PlacementIndoor,
		PotVolumeLiters: 3,
	}
}

func TestSuggestIntervalDays(t *testing.T) {
	svc := testService(&fakeChat{reply: `{"normalized_name":"Monstera deliciosa","interval_days":6,"type_hint":"tropical","confidence":0.9}`})

	result := svc.SuggestIntervalDays(context.Background(), "монстера")
	require.NotNil(t, result)
	assert.Equal(t, "Monstera deliciosa", result.DisplayName)
	assert.Equal(t, 6, result.BaseIntervalDays)
	assert.Equal(t, "OpenRouter:test-model", result.Source)
	assert.Equal(t, store.PlantTypeTropical, result.SuggestedType)
}

func TestSuggestIntervalDaysFencedReply(t *testing.T) {
	svc := testService(&fakeChat{reply: "```json\n{\"normalized_name\":\"Aloe\",\"interval_days\":45,\"type_hint\":\"SUCCULENT\"}\n```"})

	result := svc.SuggestIntervalDays(context.Background(), "aloe")
	require.NotNil(t, result)
	assert.Equal(t, 30, result.BaseIntervalDays, "interval must be clamped to 30")
	assert.Equal(t, store.PlantTypeSucculent, result.SuggestedType)
}

func TestSuggestIntervalDaysRejectsNonPositive(t *testing.T) {
	svc := testService(&fakeChat{reply: `{"normalized_name":"x","interval_days":0}`})
	assert.Nil(t, svc.SuggestIntervalDays(context.Background(), "x"))
}

func TestSuggestIntervalDaysNilService(t *testing.T) {
	var svc *Service
	assert.Nil(t, svc.SuggestIntervalDays(context.Background(), "monstera"))
}

func TestSuggestCareAdvice(t *testing.T) {
	chat := &fakeChat{reply: `{
		"watering_cycle_days": 5,
		"additives": ["гумат калия", "", "экстракт водорослей", "кальций", "магний"],
		"soil_type": "рыхлый универсальный",
		"soil_composition": ["торф", "перлит", "кора"],
		"note": "Поливайте утром"
	}`}
	svc := testService(chat)

	advice := svc.SuggestCareAdvice(context.Background(), testPlant(), 6.4)
	require.NotNil(t, advice)
	assert.Equal(t, 5, advice.WateringCycleDays)
	assert.Equal(t, []string{"гумат калия", "экстракт водорослей", "кальций"}, advice.Additives)
	assert.Equal(t, "рыхлый универсальный", advice.SoilType)
	assert.Equal(t, []string{"торф", "перлит", "кора"}, advice.SoilComposition)
	assert.Equal(t, "Поливайте утром", advice.Note)

	// Cached on repeat.
	again := svc.SuggestCareAdvice(context.Background(), testPlant(), 6.4)
	require.NotNil(t, again)
	assert.Equal(t, 1, chat.calls)
}

func TestSuggestCareAdviceDefaultsCycleFromRecommendation(t *testing.T) {
	svc := testService(&fakeChat{reply: `{"additives":[]}`})

	advice := svc.SuggestCareAdvice(context.Background(), testPlant(), 6.6)
	require.NotNil(t, advice)
	assert.Equal(t, 7, advice.WateringCycleDays)
}

func TestSuggestCareAdviceLatinNoteDropped(t *testing.T) {
	svc := testService(&fakeChat{reply: `{"watering_cycle_days":7,"note":"Water in the morning"}`})

	advice := svc.SuggestCareAdvice(context.Background(), testPlant(), 7)
	require.NotNil(t, advice)
	assert.Empty(t, advice.Note)
}

func TestSuggestCareAdviceFailureCachedNegative(t *testing.T) {
	chat := &fakeChat{err: &openai.APIError{HTTPStatusCode: 400}}
	svc := testService(chat)

	assert.Nil(t, svc.SuggestCareAdvice(context.Background(), testPlant(), 7))
	assert.Nil(t, svc.SuggestCareAdvice(context.Background(), testPlant(), 7))
	assert.Equal(t, 1, chat.calls, "the failed outcome must be cached")
}

func TestSuggestWateringProfileClamps(t *testing.T) {
	svc := testService(&fakeChat{reply: `{"interval_factor":3.0,"water_factor":0.1}`})

	wp := svc.SuggestWateringProfile(context.Background(), testPlant(), nil, nil)
	require.NotNil(t, wp)
	assert.InDelta(t, 1.5, wp.IntervalFactor, 1e-9)
	assert.InDelta(t, 0.5, wp.WaterFactor, 1e-9)
}

func TestSuggestWateringProfileRequiresBothFactors(t *testing.T) {
	svc := testService(&fakeChat{reply: `{"interval_factor":1.1}`})
	assert.Nil(t, svc.SuggestWateringProfile(context.Background(), testPlant(), nil, nil))
}

func TestRateLimitActivatesBackoff(t *testing.T) {
	chat := &fakeChat{err: &openai.APIError{HTTPStatusCode: 429}}
	svc := testService(chat)

	assert.Nil(t, svc.SuggestIntervalDays(context.Background(), "aloe"))
	assert.False(t, svc.backoff.Available(OpenRouterProvider))

	// While in backoff no further request goes out.
	assert.Nil(t, svc.SuggestIntervalDays(context.Background(), "cactus"))
	assert.Equal(t, 1, chat.calls)
}

func TestSanitizeJSONPayload(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"{\"a\":1}", "{\"a\":1}"},
		{"```json\n{\"a\":1}\n```", "{\"a\":1}"},
		{"```\n{\"a\":1}\n```", "{\"a\":1}"},
		{"Here you go: {\"a\":1} hope it helps", "{\"a\":1}"},
		{"no json at all", "no json at all"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, sanitizeJSONPayload(tt.in), tt.in)
	}
}

func TestNormalizeAdviceNote(t *testing.T) {
	assert.Equal(t, "Поливайте утром", normalizeAdviceNote(" Поливайте утром "))
	assert.Equal(t, "Monstera любит влажность", normalizeAdviceNote("Monstera любит влажность"))
	assert.Empty(t, normalizeAdviceNote("Latin only note"))
	assert.Empty(t, normalizeAdviceNote("  "))
}
