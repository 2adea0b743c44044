package profile

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Profile is configuration to start the bot.
type Profile struct {
	// Telegram
	TelegramBotToken string
	BotUpdateWorkers int

	// OpenWeather
	OpenWeatherAPIKey        string
	OpenWeatherBaseURL       string
	OpenWeatherGeoBaseURL    string
	OpenWeatherGeoReverseURL string
	OpenWeatherUnits         string
	WeatherCacheTTLMinutes   int

	// Perenual plant catalog plus helper providers
	PerenualAPIKey         string
	PerenualBaseURL        string
	TranslateBaseURL       string
	INaturalistBaseURL     string
	GBIFBaseURL            string
	LookupCacheTTLMinutes  int
	ProviderBackoffMinutes int

	// OpenRouter advisory
	OpenRouterAPIKey      string
	OpenRouterModel       string
	OpenRouterBaseURL     string
	AdviceCacheTTLMinutes int

	// Learning
	LearningLastN int
	LearningAlpha float64

	// Rain suppression thresholds, mm
	RainHeavy24 float64
	RainHeavy72 float64
	RainLight24 float64
	RainLight72 float64

	// Misc
	HTTPTimeoutSeconds       int
	SchedulerIntervalMinutes int
	MetricsAddr              string

	Mode    string
	Data    string
	Driver  string
	DSN     string
	Version string
}

func (p *Profile) IsDev() bool {
	return p.Mode != "prod"
}

// IsAdvisorEnabled returns true if the OpenRouter advisory layer is configured.
func (p *Profile) IsAdvisorEnabled() bool {
	return p.OpenRouterAPIKey != "" && p.OpenRouterModel != ""
}

// getEnvOrDefault returns environment variable value or default value.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvOrDefaultInt returns environment variable value as int or default value.
func getEnvOrDefaultInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvOrDefaultFloat returns environment variable value as float64 or default value.
func getEnvOrDefaultFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

// FromEnv loads configuration from environment variables.
func (p *Profile) FromEnv() {
	p.TelegramBotToken = getEnvOrDefault("FLORALOG_TELEGRAM_BOT_TOKEN", "")
	p.BotUpdateWorkers = getEnvOrDefaultInt("FLORALOG_BOT_UPDATE_WORKERS", 4)

	p.OpenWeatherAPIKey = getEnvOrDefault("FLORALOG_OPENWEATHER_API_KEY", "")
	p.OpenWeatherBaseURL = getEnvOrDefault("FLORALOG_OPENWEATHER_BASE_URL", "https://api.openweathermap.org/data/2.5/weather")
	p.OpenWeatherGeoBaseURL = getEnvOrDefault("FLORALOG_OPENWEATHER_GEO_BASE_URL", "https://api.openweathermap.org/geo/1.0/direct")
	p.OpenWeatherGeoReverseURL = getEnvOrDefault("FLORALOG_OPENWEATHER_GEO_REVERSE_BASE_URL", "https://api.openweathermap.org/geo/1.0/reverse")
	p.OpenWeatherUnits = getEnvOrDefault("FLORALOG_OPENWEATHER_UNITS", "metric")
	p.WeatherCacheTTLMinutes = getEnvOrDefaultInt("FLORALOG_WEATHER_CACHE_TTL_MINUTES", 15)

	p.PerenualAPIKey = getEnvOrDefault("FLORALOG_PERENUAL_API_KEY", "")
	p.PerenualBaseURL = getEnvOrDefault("FLORALOG_PERENUAL_BASE_URL", "https://perenual.com/api")
	p.TranslateBaseURL = getEnvOrDefault("FLORALOG_TRANSLATE_BASE_URL", "https://api.mymemory.translated.net/get")
	p.INaturalistBaseURL = getEnvOrDefault("FLORALOG_INATURALIST_BASE_URL", "https://api.inaturalist.org/v1")
	p.GBIFBaseURL = getEnvOrDefault("FLORALOG_GBIF_BASE_URL", "https://api.gbif.org/v1")
	p.LookupCacheTTLMinutes = getEnvOrDefaultInt("FLORALOG_LOOKUP_CACHE_TTL_MINUTES", 10080)
	p.ProviderBackoffMinutes = getEnvOrDefaultInt("FLORALOG_PROVIDER_BACKOFF_MINUTES", 60)

	p.OpenRouterAPIKey = getEnvOrDefault("FLORALOG_OPENROUTER_API_KEY", "")
	p.OpenRouterModel = getEnvOrDefault("FLORALOG_OPENROUTER_MODEL", "")
	p.OpenRouterBaseURL = getEnvOrDefault("FLORALOG_OPENROUTER_BASE_URL", "https://openrouter.ai/api/v1")
	p.AdviceCacheTTLMinutes = getEnvOrDefaultInt("FLORALOG_ADVICE_CACHE_TTL_MINUTES", 10080)

	p.LearningLastN = getEnvOrDefaultInt("FLORALOG_LEARNING_LAST_N", 5)
	p.LearningAlpha = getEnvOrDefaultFloat("FLORALOG_LEARNING_ALPHA", 0.5)

	p.RainHeavy24 = getEnvOrDefaultFloat("FLORALOG_RAIN_HEAVY_24_MM", 8.0)
	p.RainHeavy72 = getEnvOrDefaultFloat("FLORALOG_RAIN_HEAVY_72_MM", 16.0)
	p.RainLight24 = getEnvOrDefaultFloat("FLORALOG_RAIN_LIGHT_24_MM", 4.0)
	p.RainLight72 = getEnvOrDefaultFloat("FLORALOG_RAIN_LIGHT_72_MM", 10.0)

	p.HTTPTimeoutSeconds = getEnvOrDefaultInt("FLORALOG_HTTP_TIMEOUT_SECONDS", 10)
	p.SchedulerIntervalMinutes = getEnvOrDefaultInt("FLORALOG_SCHEDULER_INTERVAL_MINUTES", 60)
	p.MetricsAddr = getEnvOrDefault("FLORALOG_METRICS_ADDR", "")
}

func checkDataDir(dataDir string) (string, error) {
	// Convert to absolute path if relative path is supplied.
	if !filepath.IsAbs(dataDir) {
		relativeDir := filepath.Join(filepath.Dir(os.Args[0]), dataDir)
		absDir, err := filepath.Abs(relativeDir)
		if err != nil {
			return "", err
		}
		dataDir = absDir
	}

	// Trim trailing \ or / in case user supplies
	dataDir = strings.TrimRight(dataDir, "\\/")
	if _, err := os.Stat(dataDir); err != nil {
		return "", errors.Wrapf(err, "unable to access data folder %s", dataDir)
	}
	return dataDir, nil
}

func (p *Profile) Validate() error {
	if p.Mode != "demo" && p.Mode != "dev" && p.Mode != "prod" {
		p.Mode = "demo"
	}

	if p.Driver != "sqlite" && p.Driver != "postgres" {
		return errors.Errorf("unsupported driver %q, expected sqlite or postgres", p.Driver)
	}

	if p.TelegramBotToken == "" {
		return errors.New("FLORALOG_TELEGRAM_BOT_TOKEN is required")
	}

	if p.BotUpdateWorkers < 2 {
		p.BotUpdateWorkers = 2
	}
	if p.LearningLastN < 1 {
		p.LearningLastN = 5
	}
	if p.LearningAlpha <= 0 || p.LearningAlpha > 1 {
		p.LearningAlpha = 0.5
	}

	if p.Driver == "sqlite" {
		dataDir, err := checkDataDir(p.Data)
		if err != nil {
			return err
		}
		p.Data = dataDir
		if p.DSN == "" {
			p.DSN = filepath.Join(dataDir, fmt.Sprintf("floralog_%s.db", p.Mode))
		}
	} else if p.DSN == "" {
		return errors.New("dsn is required for the postgres driver")
	}

	return nil
}
