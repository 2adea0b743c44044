// Package weather talks to OpenWeather for current conditions and
// geocoding, caches responses, and keeps a short rain history used to
// suppress outdoor watering after heavy precipitation.
package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/floralog/floralog/cache"
	"github.com/floralog/floralog/internal/profile"
	"github.com/floralog/floralog/metrics"
)

const rainHistoryWindow = 72 * time.Hour

// Data is a current-conditions snapshot. PrecipitationMm1h combines rain
// and snow in millimeters over the last hour.
type Data struct {
	TemperatureC      float64
	HumidityPercent   float64
	PrecipitationMm1h float64
}

// CityOption is one geocoding candidate offered to the user.
type CityOption struct {
	DisplayName string
	Lat         float64
	Lon         float64
	Country     string
}

type rainSample struct {
	at        time.Time
	mmPerHour float64
}

// Service fetches and caches weather snapshots per location.
type Service struct {
	profile *profile.Profile
	client  *http.Client
	cache   *cache.TTL[string, Data]
	metrics *metrics.Exporter

	mu          sync.Mutex
	rainHistory map[string][]rainSample

	now func() time.Time
}

// NewService creates a weather service. The exporter may be nil.
func NewService(p *profile.Profile, exporter *metrics.Exporter) *Service {
	ttl := time.Duration(p.WeatherCacheTTLMinutes) * time.Minute
	if ttl < time.Minute {
		ttl = time.Minute
	}
	return &Service{
		profile:     p,
		client:      &http.Client{Timeout: time.Duration(p.HTTPTimeoutSeconds) * time.Second},
		cache:       cache.NewTTL[string, Data](ttl),
		metrics:     exporter,
		rainHistory: make(map[string][]rainSample),
		now:         time.Now,
	}
}

// Current returns the current conditions for a location, served from the
// cache when fresh. Coordinates win over the city name when both are set.
// Returns nil when no provider path yields data; recommendations then fall
// back to neutral weather.
func (s *Service) Current(ctx context.Context, city string, lat, lon *float64) *Data {
	if s.profile.OpenWeatherAPIKey == "" {
		return nil
	}

	key := s.cacheKey(city, lat, lon)
	if data, ok := s.cache.Get(key); ok {
		s.metrics.CacheHit("weather")
		return &data
	}
	s.metrics.CacheMiss("weather")

	if data := s.requestByCoords(ctx, lat, lon); data != nil {
		return s.storeWeather(key, *data)
	}
	if data := s.requestByCityCandidates(ctx, city); data != nil {
		return s.storeWeather(key, *data)
	}

	slog.Warn("weather request failed", "city", city, "lat", lat, "lon", lon)
	return nil
}

// AccumulatedRainMm sums the per-hour precipitation samples recorded for a
// location over the trailing window of the given hours, capped at 72.
func (s *Service) AccumulatedRainMm(city string, lat, lon *float64, hours int) float64 {
	if hours <= 0 {
		return 0
	}
	key := s.cacheKey(city, lat, lon)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.pruneRainHistoryLocked(key)

	cutoff := s.now().Add(-time.Duration(hours) * time.Hour)
	var total float64
	for _, sample := range s.rainHistory[key] {
		if sample.at.After(cutoff) && sample.mmPerHour > 0 {
			total += sample.mmPerHour
		}
	}
	return total
}

// CacheClearStats reports what a cache reset removed.
type CacheClearStats struct {
	WeatherEntries int
	RainKeys       int
	RainSamples    int
}

// ClearCaches drops the weather cache and the accumulated rain history.
func (s *Service) ClearCaches() CacheClearStats {
	stats := CacheClearStats{WeatherEntries: s.cache.Purge()}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, samples := range s.rainHistory {
		stats.RainSamples += len(samples)
	}
	stats.RainKeys = len(s.rainHistory)
	s.rainHistory = make(map[string][]rainSample)
	return stats
}

// ResolveCityOptions geocodes a free-form query into up to limit distinct
// city candidates, trying Russian aliases and transliteration alongside
// the raw query.
func (s *Service) ResolveCityOptions(ctx context.Context, query string, limit int) []CityOption {
	if strings.TrimSpace(query) == "" || s.profile.OpenWeatherAPIKey == "" {
		return nil
	}
	max := limit
	if max < 1 {
		max = 1
	}
	if max > 8 {
		max = 8
	}

	var found []CityOption
	for _, candidate := range cityCandidates(query) {
		if len(found) >= max {
			break
		}
		found = append(found, s.fetchGeoCandidates(ctx, candidate, max-len(found))...)
	}

	// Deduplicate by rounded coordinates so alias and transliteration
	// passes do not repeat the same city.
	seen := make(map[string]struct{})
	unique := make([]CityOption, 0, len(found))
	for _, option := range found {
		id := fmt.Sprintf("%.4f:%.4f", option.Lat, option.Lon)
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		unique = append(unique, option)
		if len(unique) >= max {
			break
		}
	}
	return unique
}

// ResolveCityByCoordinates reverse-geocodes a point into a display name.
func (s *Service) ResolveCityByCoordinates(ctx context.Context, lat, lon float64) (*CityOption, error) {
	if s.profile.OpenWeatherAPIKey == "" {
		return nil, errors.New("openweather api key is not configured")
	}

	reqURL := fmt.Sprintf("%s?lat=%.6f&lon=%.6f&limit=1&appid=%s",
		s.profile.OpenWeatherGeoReverseURL, lat, lon, url.QueryEscape(s.profile.OpenWeatherAPIKey))

	var nodes []geoNode
	if err := s.getJSON(ctx, reqURL, &nodes); err != nil {
		s.metrics.ProviderCall("openweather_geo", "error")
		return nil, errors.Wrap(err, "reverse geocoding failed")
	}
	s.metrics.ProviderCall("openweather_geo", "ok")
	if len(nodes) == 0 || strings.TrimSpace(nodes[0].Name) == "" {
		return nil, nil
	}
	option := nodes[0].toOption()
	option.Lat = lat
	option.Lon = lon
	return &option, nil
}

func (s *Service) storeWeather(key string, data Data) *Data {
	s.mu.Lock()
	s.rainHistory[key] = append(s.rainHistory[key], rainSample{at: s.now(), mmPerHour: data.PrecipitationMm1h})
	s.pruneRainHistoryLocked(key)
	s.mu.Unlock()

	s.cache.SetWithDefaultTTL(key, data)
	return &data
}

func (s *Service) requestByCoords(ctx context.Context, lat, lon *float64) *Data {
	if lat == nil || lon == nil {
		return nil
	}
	reqURL := fmt.Sprintf("%s?lat=%.6f&lon=%.6f&appid=%s&units=%s",
		s.profile.OpenWeatherBaseURL, *lat, *lon,
		url.QueryEscape(s.profile.OpenWeatherAPIKey), url.QueryEscape(s.profile.OpenWeatherUnits))
	return s.executeWeatherRequest(ctx, reqURL, "lat/lon")
}

func (s *Service) requestByCityCandidates(ctx context.Context, city string) *Data {
	if strings.TrimSpace(city) == "" {
		return nil
	}
	for _, candidate := range cityCandidates(city) {
		reqURL := fmt.Sprintf("%s?q=%s&appid=%s&units=%s",
			s.profile.OpenWeatherBaseURL, url.QueryEscape(candidate),
			url.QueryEscape(s.profile.OpenWeatherAPIKey), url.QueryEscape(s.profile.OpenWeatherUnits))
		if data := s.executeWeatherRequest(ctx, reqURL, candidate); data != nil {
			return data
		}
	}
	return nil
}

type weatherResponse struct {
	Main *struct {
		Temp     float64 `json:"temp"`
		Humidity float64 `json:"humidity"`
	} `json:"main"`
	Rain struct {
		OneHour float64 `json:"1h"`
	} `json:"rain"`
	Snow struct {
		OneHour float64 `json:"1h"`
	} `json:"snow"`
}

func (s *Service) executeWeatherRequest(ctx context.Context, reqURL, debugName string) *Data {
	var response weatherResponse
	if err := s.getJSON(ctx, reqURL, &response); err != nil {
		s.metrics.ProviderCall("openweather", "error")
		slog.Warn("weather request error", "query", debugName, "err", err)
		return nil
	}
	if response.Main == nil {
		s.metrics.ProviderCall("openweather", "miss")
		return nil
	}
	s.metrics.ProviderCall("openweather", "ok")
	return &Data{
		TemperatureC:      response.Main.Temp,
		HumidityPercent:   response.Main.Humidity,
		PrecipitationMm1h: response.Rain.OneHour + response.Snow.OneHour,
	}
}

type geoNode struct {
	Name    string  `json:"name"`
	State   string  `json:"state"`
	Country string  `json:"country"`
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
}

func (n geoNode) toOption() CityOption {
	display := strings.TrimSpace(n.Name)
	if state := strings.TrimSpace(n.State); state != "" {
		display += ", " + state
	}
	if country := strings.TrimSpace(n.Country); country != "" {
		display += ", " + country
	}
	return CityOption{DisplayName: display, Lat: n.Lat, Lon: n.Lon, Country: strings.TrimSpace(n.Country)}
}

func (s *Service) fetchGeoCandidates(ctx context.Context, query string, limit int) []CityOption {
	reqURL := fmt.Sprintf("%s?q=%s&limit=%d&appid=%s",
		s.profile.OpenWeatherGeoBaseURL, url.QueryEscape(query), limit,
		url.QueryEscape(s.profile.OpenWeatherAPIKey))

	var nodes []geoNode
	if err := s.getJSON(ctx, reqURL, &nodes); err != nil {
		s.metrics.ProviderCall("openweather_geo", "error")
		slog.Warn("city geocoding failed", "query", query, "err", err)
		return nil
	}
	s.metrics.ProviderCall("openweather_geo", "ok")

	options := make([]CityOption, 0, len(nodes))
	for _, node := range nodes {
		if strings.TrimSpace(node.Name) == "" {
			continue
		}
		options = append(options, node.toOption())
	}
	return options
}

func (s *Service) getJSON(ctx context.Context, reqURL string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return errors.Wrap(err, "failed to build request")
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return errors.Wrap(err, "request failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return errors.Errorf("unexpected status %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.Wrap(err, "failed to decode response")
	}
	return nil
}

func (s *Service) cacheKey(city string, lat, lon *float64) string {
	if lat != nil && lon != nil {
		return fmt.Sprintf("geo:%.5f:%.5f", *lat, *lon)
	}
	return "city:" + normalizeCity(city)
}

func (s *Service) pruneRainHistoryLocked(key string) {
	samples := s.rainHistory[key]
	if len(samples) == 0 {
		return
	}
	cutoff := s.now().Add(-rainHistoryWindow)
	kept := samples[:0]
	for _, sample := range samples {
		if !sample.at.Before(cutoff) {
			kept = append(kept, sample)
		}
	}
	s.rainHistory[key] = kept
}
