package profile

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnvDefaults(t *testing.T) {
	p := &Profile{}
	p.FromEnv()

	assert.Equal(t, "", p.TelegramBotToken)
	assert.Equal(t, 4, p.BotUpdateWorkers)
	assert.Equal(t, "https://api.openweathermap.org/data/2.5/weather", p.OpenWeatherBaseURL)
	assert.Equal(t, "metric", p.OpenWeatherUnits)
	assert.Equal(t, 15, p.WeatherCacheTTLMinutes)
	assert.Equal(t, 10080, p.LookupCacheTTLMinutes)
	assert.Equal(t, 60, p.ProviderBackoffMinutes)
	assert.Equal(t, "https://openrouter.ai/api/v1", p.OpenRouterBaseURL)
	assert.Equal(t, 5, p.LearningLastN)
	assert.Equal(t, 0.5, p.LearningAlpha)
	assert.Equal(t, 8.0, p.RainHeavy24)
	assert.Equal(t, 16.0, p.RainHeavy72)
	assert.Equal(t, 60, p.SchedulerIntervalMinutes)
	assert.Equal(t, "", p.MetricsAddr)
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("FLORALOG_TELEGRAM_BOT_TOKEN", "123:abc")
	t.Setenv("FLORALOG_LEARNING_LAST_N", "9")
	t.Setenv("FLORALOG_LEARNING_ALPHA", "0.3")
	t.Setenv("FLORALOG_RAIN_HEAVY_24_MM", "12.5")
	t.Setenv("FLORALOG_SCHEDULER_INTERVAL_MINUTES", "30")

	p := &Profile{}
	p.FromEnv()

	assert.Equal(t, "123:abc", p.TelegramBotToken)
	assert.Equal(t, 9, p.LearningLastN)
	assert.Equal(t, 0.3, p.LearningAlpha)
	assert.Equal(t, 12.5, p.RainHeavy24)
	assert.Equal(t, 30, p.SchedulerIntervalMinutes)
}

func TestFromEnvIgnoresUnparsableNumbers(t *testing.T) {
	t.Setenv("FLORALOG_LEARNING_LAST_N", "many")
	t.Setenv("FLORALOG_LEARNING_ALPHA", "half")

	p := &Profile{}
	p.FromEnv()

	assert.Equal(t, 5, p.LearningLastN)
	assert.Equal(t, 0.5, p.LearningAlpha)
}

func TestValidateRejectsUnknownDriver(t *testing.T) {
	p := &Profile{Mode: "dev", Driver: "mysql", TelegramBotToken: "123:abc"}
	err := p.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported driver")
}

func TestValidateRequiresToken(t *testing.T) {
	p := &Profile{Mode: "dev", Driver: "postgres", DSN: "postgres://localhost/floralog"}
	err := p.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "FLORALOG_TELEGRAM_BOT_TOKEN")
}

func TestValidateRequiresPostgresDSN(t *testing.T) {
	p := &Profile{Mode: "dev", Driver: "postgres", TelegramBotToken: "123:abc"}
	require.Error(t, p.Validate())
}

func TestValidateDefaultsSQLiteDSN(t *testing.T) {
	dir := t.TempDir()
	p := &Profile{Mode: "dev", Driver: "sqlite", Data: dir, TelegramBotToken: "123:abc"}

	require.NoError(t, p.Validate())
	assert.Equal(t, filepath.Join(dir, "floralog_dev.db"), p.DSN)
}

func TestValidateClampsTuning(t *testing.T) {
	dir := t.TempDir()
	p := &Profile{
		Mode:             "dev",
		Driver:           "sqlite",
		Data:             dir,
		TelegramBotToken: "123:abc",
		BotUpdateWorkers: 1,
		LearningLastN:    0,
		LearningAlpha:    1.5,
	}

	require.NoError(t, p.Validate())
	assert.Equal(t, 2, p.BotUpdateWorkers)
	assert.Equal(t, 5, p.LearningLastN)
	assert.Equal(t, 0.5, p.LearningAlpha)
}

func TestValidateUnknownModeFallsBackToDemo(t *testing.T) {
	dir := t.TempDir()
	p := &Profile{Mode: "staging", Driver: "sqlite", Data: dir, TelegramBotToken: "123:abc"}

	require.NoError(t, p.Validate())
	assert.Equal(t, "demo", p.Mode)
}
