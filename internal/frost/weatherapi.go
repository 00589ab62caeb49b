package frost

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/time/rate"
)

const (
	DefaultBaseURL      = "http://api.weatherapi.com/v1"
	DefaultForecastDays = 10
	// DefaultMinTempF leaves a buffer above freezing
	DefaultMinTempF = 36.0
)

// WeatherAPIConfig configures the forecast-based frost source
type WeatherAPIConfig struct {
	BaseURL           string
	APIKey            string
	ForecastDays      int
	MinTempF          float64
	Timeout           time.Duration
	RequestsPerMinute int
}

// WeatherAPI finds the first forecast day whose minimum temperature stays
// above MinTempF
type WeatherAPI struct {
	cfg     WeatherAPIConfig
	client  *http.Client
	limiter *rate.Limiter
}

type forecastResponse struct {
	Forecast struct {
		ForecastDay []struct {
			Date string `json:"date"`
			Day  struct {
				MinTempF float64 `json:"mintemp_f"`
			} `json:"day"`
		} `json:"forecastday"`
	} `json:"forecast"`
}

// NewWeatherAPI creates a forecast source. Zero config fields take defaults.
func NewWeatherAPI(cfg WeatherAPIConfig) *WeatherAPI {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.ForecastDays <= 0 {
		cfg.ForecastDays = DefaultForecastDays
	}
	if cfg.MinTempF == 0 {
		cfg.MinTempF = DefaultMinTempF
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}

	limit := rate.Inf
	burst := 1
	if cfg.RequestsPerMinute > 0 {
		limit = rate.Every(time.Minute / time.Duration(cfg.RequestsPerMinute))
		burst = cfg.RequestsPerMinute
	}

	return &WeatherAPI{
		cfg:     cfg,
		client:  &http.Client{Timeout: cfg.Timeout},
		limiter: rate.NewLimiter(limit, burst),
	}
}

// LastFrost implements Source
func (w *WeatherAPI) LastFrost(ctx context.Context, zip string) (time.Time, error) {
	if w.cfg.APIKey == "" {
		return time.Time{}, ErrNoAPIKey
	}
	if err := w.limiter.Wait(ctx); err != nil {
		return time.Time{}, fmt.Errorf("rate limit: %w", err)
	}

	q := url.Values{}
	q.Set("key", w.cfg.APIKey)
	q.Set("q", zip)
	q.Set("days", strconv.Itoa(w.cfg.ForecastDays))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, w.cfg.BaseURL+"/forecast.json?"+q.Encode(), nil)
	if err != nil {
		return time.Time{}, fmt.Errorf("build request: %w", err)
	}

	resp, err := w.client.Do(req)
	if err != nil {
		return time.Time{}, fmt.Errorf("forecast request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return time.Time{}, fmt.Errorf("forecast request: unexpected status %d", resp.StatusCode)
	}

	var data forecastResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return time.Time{}, fmt.Errorf("decode forecast: %w", err)
	}

	for _, day := range data.Forecast.ForecastDay {
		date, err := time.Parse("2006-01-02", day.Date)
		if err != nil {
			return time.Time{}, fmt.Errorf("forecast date %q: %w", day.Date, err)
		}
		if day.Day.MinTempF > w.cfg.MinTempF {
			return date, nil
		}
	}
	return time.Time{}, ErrNoQualifyingDay
}
