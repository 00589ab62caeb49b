package app

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"

	"github.com/klabast/wb-services/garden-planner/internal/frost"
	"github.com/klabast/wb-services/garden-planner/internal/garden"
)

// EnvPrefix prefixes environment overrides, e.g. GARDEN_WEATHER_API_KEY
const EnvPrefix = "GARDEN"

// Config is the complete planner configuration
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Log     LogConfig     `mapstructure:"log"`
	Layout  LayoutConfig  `mapstructure:"layout"`
	Session SessionConfig `mapstructure:"session"`
	Weather WeatherConfig `mapstructure:"weather"`
	Garden  GardenConfig  `mapstructure:"garden"`
}

// ServerConfig controls the HTTP listener
type ServerConfig struct {
	Port int `mapstructure:"port"`
	// AuthFile holds "username:argon2id-hash". Empty means next to the binary.
	AuthFile string `mapstructure:"auth_file"`
}

// LogConfig controls logging
type LogConfig struct {
	// Level is a zerolog level name: trace, debug, info, warn, error
	Level string `mapstructure:"level"`
	// Console switches from JSON lines to human readable output
	Console bool `mapstructure:"console"`
}

// LayoutConfig sets the raised bed grid size
type LayoutConfig struct {
	Rows int `mapstructure:"rows"`
	Cols int `mapstructure:"cols"`
}

// SessionConfig controls per-browser planner sessions
type SessionConfig struct {
	CookieName string `mapstructure:"cookie_name"`
	// TTL is how long an idle session keeps its bed layout
	TTL time.Duration `mapstructure:"ttl"`
}

// WeatherConfig configures the optional forecast lookup for frost dates.
// Without an API key the fixed default frost date is used.
type WeatherConfig struct {
	APIKey            string        `mapstructure:"api_key"`
	BaseURL           string        `mapstructure:"base_url"`
	Timeout           time.Duration `mapstructure:"timeout"`
	RequestsPerMinute int           `mapstructure:"requests_per_minute"`
	ForecastDays      int           `mapstructure:"forecast_days"`
	MinTempF          float64       `mapstructure:"min_temp_f"`
}

// GardenConfig holds page content settings
type GardenConfig struct {
	Title      string `mapstructure:"title"`
	DefaultZIP string `mapstructure:"default_zip"`
	// CalendarURL is encoded in the layout PDF's QR code. Empty means the
	// planner's own task calendar download URL.
	CalendarURL string `mapstructure:"calendar_url"`
	// CatalogFile replaces the built-in variety guide
	CatalogFile string `mapstructure:"catalog_file"`
}

// SetDefaults registers every key with its default value
func SetDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.auth_file", "")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.console", true)

	v.SetDefault("layout.rows", garden.DefaultRows)
	v.SetDefault("layout.cols", garden.DefaultCols)

	v.SetDefault("session.cookie_name", "garden_session")
	v.SetDefault("session.ttl", "12h")

	v.SetDefault("weather.api_key", "")
	v.SetDefault("weather.base_url", frost.DefaultBaseURL)
	v.SetDefault("weather.timeout", "5s")
	v.SetDefault("weather.requests_per_minute", 30)
	v.SetDefault("weather.forecast_days", frost.DefaultForecastDays)
	v.SetDefault("weather.min_temp_f", frost.DefaultMinTempF)

	v.SetDefault("garden.title", "Backyard Garden")
	v.SetDefault("garden.default_zip", "77001")
	v.SetDefault("garden.calendar_url", "")
	v.SetDefault("garden.catalog_file", "")
}

// NewViper returns a viper instance with defaults and environment binding.
// configFile may be empty; a missing default config file is not an error.
func NewViper(configFile string) (*viper.Viper, error) {
	v := viper.New()
	SetDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", configFile, err)
		}
		return v, nil
	}

	v.SetConfigName("garden-planner")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.config/garden-planner")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}
	return v, nil
}

// LoadConfig decodes and validates the configuration held by v
func LoadConfig(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports the first invalid setting
func (c Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port: %d out of range", c.Server.Port)
	}
	if _, err := zerolog.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	if c.Layout.Rows < 1 || c.Layout.Rows > 20 {
		return fmt.Errorf("layout.rows: %d out of range 1-20", c.Layout.Rows)
	}
	if c.Layout.Cols < 1 || c.Layout.Cols > 20 {
		return fmt.Errorf("layout.cols: %d out of range 1-20", c.Layout.Cols)
	}
	if strings.TrimSpace(c.Session.CookieName) == "" {
		return errors.New("session.cookie_name: must not be empty")
	}
	if c.Session.TTL <= 0 {
		return fmt.Errorf("session.ttl: %s must be positive", c.Session.TTL)
	}
	if c.Weather.ForecastDays < 1 || c.Weather.ForecastDays > 14 {
		return fmt.Errorf("weather.forecast_days: %d out of range 1-14", c.Weather.ForecastDays)
	}
	if c.Weather.RequestsPerMinute < 0 {
		return fmt.Errorf("weather.requests_per_minute: %d must not be negative", c.Weather.RequestsPerMinute)
	}
	if _, err := url.Parse(c.Weather.BaseURL); err != nil || c.Weather.BaseURL == "" {
		return fmt.Errorf("weather.base_url: invalid URL %q", c.Weather.BaseURL)
	}
	if c.Garden.CalendarURL != "" {
		if u, err := url.Parse(c.Garden.CalendarURL); err != nil || !u.IsAbs() {
			return fmt.Errorf("garden.calendar_url: invalid absolute URL %q", c.Garden.CalendarURL)
		}
	}
	return nil
}

// WeatherAPIConfig converts the weather settings for the frost package
func (c WeatherConfig) WeatherAPIConfig() frost.WeatherAPIConfig {
	return frost.WeatherAPIConfig{
		BaseURL:           c.BaseURL,
		APIKey:            c.APIKey,
		ForecastDays:      c.ForecastDays,
		MinTempF:          c.MinTempF,
		Timeout:           c.Timeout,
		RequestsPerMinute: c.RequestsPerMinute,
	}
}
