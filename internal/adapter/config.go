package adapter

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	TMDB     TMDBConfig     `mapstructure:"tmdb"`
	Server   ServerConfig   `mapstructure:"server"`
	AdBlock  AdBlockConfig  `mapstructure:"adblock"`
	Detector DetectorConfig `mapstructure:"detector"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Browser  BrowserConfig  `mapstructure:"browser"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// TMDBConfig holds movie API configuration
type TMDBConfig struct {
	APIKey            string        `mapstructure:"api_key"`
	BaseURL           string        `mapstructure:"base_url"`
	ImageBaseURL      string        `mapstructure:"image_base_url"`
	RatingStrategy    string        `mapstructure:"rating_strategy"` // "content" or "vote"
	Enrich            bool          `mapstructure:"enrich"`          // fetch reviews + trailer per movie
	ReviewLimit       int           `mapstructure:"review_limit"`
	RequestsPerSecond float64       `mapstructure:"requests_per_second"`
	Timeout           time.Duration `mapstructure:"timeout"`
}

// ServerConfig holds the background messaging endpoint
type ServerConfig struct {
	Listen         string   `mapstructure:"listen"`          // address `serve` binds
	URL            string   `mapstructure:"url"`             // address `scan`/`popup` dial
	AllowedOrigins []string `mapstructure:"allowed_origins"` // CORS origins (extension ids)
}

// AdBlockConfig holds the static network block list
type AdBlockConfig struct {
	Domains       []string `mapstructure:"domains"`
	ResourceTypes []string `mapstructure:"resource_types"`
}

// DetectorConfig holds ad detection heuristics
type DetectorConfig struct {
	Selectors   []string `mapstructure:"selectors"`
	MinWidth    float64  `mapstructure:"min_width"`
	MinHeight   float64  `mapstructure:"min_height"`
	Category    string   `mapstructure:"category"` // empty = router default
	Concurrency int      `mapstructure:"concurrency"`

	// Widget selects what replaces an ad: "movie", "quote", "reminder" or "custom"
	Widget        string `mapstructure:"widget"`
	CustomMessage string `mapstructure:"custom_message"`
}

// StorageConfig holds the watchlist database location
type StorageConfig struct {
	Dir string `mapstructure:"dir"` // empty = memory only
}

// BrowserConfig holds the command used to open trailer/TMDB links
type BrowserConfig struct {
	Command string   `mapstructure:"command"`
	Args    []string `mapstructure:"args"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	File       string `mapstructure:"file"`
	Level      string `mapstructure:"level"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
}

// DefaultSelectors are the ad-like element patterns scanned for by default.
var DefaultSelectors = []string{
	`[id*="ad-"]`,
	`[class*="ad-"]`,
	`[id*="banner"]`,
	`[class*="banner"]`,
	`[id*="advert"]`,
	`[class*="advert"]`,
	`ins.adsbygoogle`,
	`[id*="google_ads"]`,
	`[id*="dfp-"]`,
	`iframe[src*="doubleclick.net"]`,
	`.ad-container`,
	`[aria-label="Advertisement"]`,
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		TMDB: TMDBConfig{
			BaseURL:           "https://api.themoviedb.org/3",
			ImageBaseURL:      "https://image.tmdb.org/t/p/w500",
			RatingStrategy:    "content",
			Enrich:            false,
			ReviewLimit:       3,
			RequestsPerSecond: 20,
			Timeout:           30 * time.Second,
		},
		Server: ServerConfig{
			Listen: "127.0.0.1:7878",
			URL:    "http://127.0.0.1:7878",
			AllowedOrigins: []string{
				"chrome-extension://*",
				"moz-extension://*",
				"http://localhost:*",
			},
		},
		AdBlock: AdBlockConfig{
			Domains:       []string{"doubleclick.net", "google-analytics.com", "adnxs.com"},
			ResourceTypes: []string{"image", "sub_frame", "script"},
		},
		Detector: DetectorConfig{
			Selectors:   append([]string(nil), DefaultSelectors...),
			MinWidth:    100,
			MinHeight:   100,
			Concurrency: 4,
			Widget:      "movie",
		},
		Storage: StorageConfig{
			Dir: defaultDataPath(),
		},
		Logging: LoggingConfig{
			File:       defaultLogPath(),
			Level:      "INFO",
			MaxSizeMB:  10,
			MaxBackups: 3,
		},
	}
}

// defaultLogPath returns the default log file path for the current OS
func defaultLogPath() string {
	return filepath.Join(defaultDataPath(), "moviemate.log")
}

// defaultDataPath returns the default data directory for the current OS
func defaultDataPath() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("LOCALAPPDATA"), "moviemate")
	default:
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".local", "share", "moviemate")
	}
}

// defaultConfigPath returns the default config directory for the current OS
func defaultConfigPath() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("APPDATA"), "moviemate")
	default:
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".config", "moviemate")
	}
}

// LoadConfig loads configuration from the default locations and environment
func LoadConfig() (*Config, error) {
	return LoadConfigFrom("")
}

// LoadConfigFrom loads configuration from an explicit file, or from the
// default search path when file is empty.
func LoadConfigFrom(file string) (*Config, error) {
	cfg := DefaultConfig()
	v := viper.New()

	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(defaultConfigPath())
		v.AddConfigPath(".")
	}

	// Environment variable overrides: MOVIEMATE_TMDB_API_KEY etc.
	v.SetEnvPrefix("MOVIEMATE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// The extension build read these names; keep honoring them
	_ = v.BindEnv("tmdb.api_key", "MOVIEMATE_TMDB_API_KEY", "TMDB_API_KEY")
	_ = v.BindEnv("tmdb.base_url", "MOVIEMATE_TMDB_BASE_URL", "TMDB_BASE_URL")

	// Register defaults so AutomaticEnv can see every key during Unmarshal
	registerDefaults(v, cfg)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found is OK, use defaults
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("error parsing config: %w", err)
	}

	return cfg, nil
}

func registerDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("tmdb.api_key", cfg.TMDB.APIKey)
	v.SetDefault("tmdb.base_url", cfg.TMDB.BaseURL)
	v.SetDefault("tmdb.image_base_url", cfg.TMDB.ImageBaseURL)
	v.SetDefault("tmdb.rating_strategy", cfg.TMDB.RatingStrategy)
	v.SetDefault("tmdb.enrich", cfg.TMDB.Enrich)
	v.SetDefault("tmdb.review_limit", cfg.TMDB.ReviewLimit)
	v.SetDefault("tmdb.requests_per_second", cfg.TMDB.RequestsPerSecond)
	v.SetDefault("tmdb.timeout", cfg.TMDB.Timeout)

	v.SetDefault("server.listen", cfg.Server.Listen)
	v.SetDefault("server.url", cfg.Server.URL)
	v.SetDefault("server.allowed_origins", cfg.Server.AllowedOrigins)

	v.SetDefault("adblock.domains", cfg.AdBlock.Domains)
	v.SetDefault("adblock.resource_types", cfg.AdBlock.ResourceTypes)

	v.SetDefault("detector.selectors", cfg.Detector.Selectors)
	v.SetDefault("detector.min_width", cfg.Detector.MinWidth)
	v.SetDefault("detector.min_height", cfg.Detector.MinHeight)
	v.SetDefault("detector.category", cfg.Detector.Category)
	v.SetDefault("detector.concurrency", cfg.Detector.Concurrency)
	v.SetDefault("detector.widget", cfg.Detector.Widget)
	v.SetDefault("detector.custom_message", cfg.Detector.CustomMessage)

	v.SetDefault("storage.dir", cfg.Storage.Dir)

	v.SetDefault("browser.command", cfg.Browser.Command)
	v.SetDefault("browser.args", cfg.Browser.Args)

	v.SetDefault("logging.file", cfg.Logging.File)
	v.SetDefault("logging.level", cfg.Logging.Level)
	v.SetDefault("logging.max_size_mb", cfg.Logging.MaxSizeMB)
	v.SetDefault("logging.max_backups", cfg.Logging.MaxBackups)
}

// IsConfigured returns true if a movie API key is set
func (c *Config) IsConfigured() bool {
	return c.TMDB.APIKey != ""
}

// SaveAPIKey writes the TMDB API key into the user config file,
// preserving any other settings already present there.
func SaveAPIKey(apiKey string) error {
	configPath := defaultConfigPath()
	if err := os.MkdirAll(configPath, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	configFile := filepath.Join(configPath, "config.yaml")
	v := viper.New()
	v.SetConfigFile(configFile)
	if err := v.ReadInConfig(); err != nil && !os.IsNotExist(err) {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("error reading config file: %w", err)
		}
	}

	v.Set("tmdb.api_key", apiKey)
	if err := v.WriteConfigAs(configFile); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}
