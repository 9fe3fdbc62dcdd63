package config

import (
	"log"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	configPathEnv   = "PLANTSCOUT_CONFIG"
	databaseDSNEnv  = "DATABASE_DSN"
	openAIAPIKeyEnv = "OPENAI_API_KEY"
	openAIModelEnv  = "OPENAI_MODEL"
	flickrAPIKeyEnv = "FLICKR_API_KEY"
	serverAddrEnv   = "PLANTSCOUT_ADDR"
	logLevelEnv     = "LOG_LEVEL"
)

// Limiter scopes.
const (
	LimiterScopeGlobal  = "global"
	LimiterScopeSession = "session"
)

// Config holds high-level settings required across the application.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	OpenAI    OpenAIConfig    `yaml:"openai"`
	Flickr    FlickrConfig    `yaml:"flickr"`
	Citations CitationsConfig `yaml:"citations"`
	Hydration HydrationConfig `yaml:"hydration"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// ServerConfig describes the HTTP listener.
type ServerConfig struct {
	Addr         string        `yaml:"addr"`
	KeepAlive    time.Duration `yaml:"keepAlive"`
	ReadTimeout  time.Duration `yaml:"readTimeout"`
	ShutdownWait time.Duration `yaml:"shutdownWait"`
}

// DatabaseConfig selects the plant cache backend. Driver is "postgres" or "sqlite".
type DatabaseConfig struct {
	Driver string `yaml:"driver"`
	DSN    string `yaml:"dsn"`
}

// OpenAIConfig defines how to contact the chat completions API.
type OpenAIConfig struct {
	Endpoint string        `yaml:"endpoint"`
	Model    string        `yaml:"model"`
	APIKey   string        `yaml:"apiKey"`
	Timeout  time.Duration `yaml:"timeout"`
}

// FlickrConfig defines the photo search API and its request budget.
type FlickrConfig struct {
	Endpoint          string  `yaml:"endpoint"`
	APIKey            string  `yaml:"apiKey"`
	RequestsPerSecond float64 `yaml:"requestsPerSecond"`
	Burst             int     `yaml:"burst"`
}

// CitationsConfig points at the reference sources.
type CitationsConfig struct {
	USDABaseURL      string `yaml:"usdaBaseUrl"`
	USDASymbolsPath  string `yaml:"usdaSymbolsPath"`
	WikipediaBaseURL string `yaml:"wikipediaBaseUrl"`
}

// HydrationConfig tunes the enrichment pipeline.
type HydrationConfig struct {
	Limit              int    `yaml:"limit"`
	LimiterScope       string `yaml:"limiterScope"`
	CancelOnDisconnect bool   `yaml:"cancelOnDisconnect"`
	FilterConditions   bool   `yaml:"filterConditions"`
	CachedQueryLimit   int    `yaml:"cachedQueryLimit"`
}

// LoggingConfig controls slog output. Format is "text" or "json".
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Load reads YAML configuration (if present) and applies environment overrides.
func Load() Config {
	return LoadFile(os.Getenv(configPathEnv))
}

// LoadFile is Load with an explicit YAML path. An empty path uses defaults.
func LoadFile(path string) Config {
	cfg := defaultConfig()

	if path != "" {
		if raw, err := os.ReadFile(path); err != nil {
			log.Printf("config: cannot read %s: %v (falling back to defaults)", path, err)
		} else {
			var fileCfg Config
			if err := yaml.Unmarshal(raw, &fileCfg); err != nil {
				log.Printf("config: cannot parse %s: %v (falling back to defaults)", path, err)
			} else {
				cfg = mergeConfig(cfg, fileCfg)
			}
		}
	}

	cfg.applyEnvOverrides()
	cfg.normalize()

	return cfg
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(databaseDSNEnv); v != "" {
		c.Database.DSN = v
	}

	if v := os.Getenv(openAIAPIKeyEnv); v != "" {
		c.OpenAI.APIKey = v
	}

	if v := os.Getenv(openAIModelEnv); v != "" {
		c.OpenAI.Model = v
	}

	if v := os.Getenv(flickrAPIKeyEnv); v != "" {
		c.Flickr.APIKey = v
	}

	if v := os.Getenv(serverAddrEnv); v != "" {
		c.Server.Addr = v
	}

	if v := os.Getenv(logLevelEnv); v != "" {
		c.Logging.Level = v
	}
}

func (c *Config) normalize() {
	switch c.Hydration.LimiterScope {
	case LimiterScopeGlobal, LimiterScopeSession:
	default:
		log.Printf("config: unknown limiter scope %q, reverting to %s", c.Hydration.LimiterScope, LimiterScopeGlobal)
		c.Hydration.LimiterScope = LimiterScopeGlobal
	}

	if c.Hydration.Limit <= 0 {
		c.Hydration.Limit = defaultConfig().Hydration.Limit
	}

	switch c.Database.Driver {
	case "postgres", "sqlite":
	default:
		log.Printf("config: unknown database driver %q, reverting to sqlite", c.Database.Driver)
		c.Database.Driver = "sqlite"
	}
}

func mergeConfig(base, override Config) Config {
	if override.Server.Addr != "" {
		base.Server.Addr = override.Server.Addr
	}
	if override.Server.KeepAlive != 0 {
		base.Server.KeepAlive = override.Server.KeepAlive
	}
	if override.Server.ReadTimeout != 0 {
		base.Server.ReadTimeout = override.Server.ReadTimeout
	}
	if override.Server.ShutdownWait != 0 {
		base.Server.ShutdownWait = override.Server.ShutdownWait
	}

	if override.Database.DSN != "" {
		base.Database = override.Database
	}

	if override.OpenAI.Endpoint != "" {
		base.OpenAI.Endpoint = override.OpenAI.Endpoint
	}
	if override.OpenAI.Model != "" {
		base.OpenAI.Model = override.OpenAI.Model
	}
	if override.OpenAI.APIKey != "" {
		base.OpenAI.APIKey = override.OpenAI.APIKey
	}
	if override.OpenAI.Timeout != 0 {
		base.OpenAI.Timeout = override.OpenAI.Timeout
	}

	if override.Flickr.Endpoint != "" {
		base.Flickr.Endpoint = override.Flickr.Endpoint
	}
	if override.Flickr.APIKey != "" {
		base.Flickr.APIKey = override.Flickr.APIKey
	}
	if override.Flickr.RequestsPerSecond != 0 {
		base.Flickr.RequestsPerSecond = override.Flickr.RequestsPerSecond
	}
	if override.Flickr.Burst != 0 {
		base.Flickr.Burst = override.Flickr.Burst
	}

	if override.Citations.USDABaseURL != "" {
		base.Citations.USDABaseURL = override.Citations.USDABaseURL
	}
	if override.Citations.USDASymbolsPath != "" {
		base.Citations.USDASymbolsPath = override.Citations.USDASymbolsPath
	}
	if override.Citations.WikipediaBaseURL != "" {
		base.Citations.WikipediaBaseURL = override.Citations.WikipediaBaseURL
	}

	if override.Hydration.Limit != 0 {
		base.Hydration.Limit = override.Hydration.Limit
	}
	if override.Hydration.LimiterScope != "" {
		base.Hydration.LimiterScope = override.Hydration.LimiterScope
	}
	if override.Hydration.CancelOnDisconnect {
		base.Hydration.CancelOnDisconnect = true
	}
	if override.Hydration.FilterConditions {
		base.Hydration.FilterConditions = true
	}
	if override.Hydration.CachedQueryLimit != 0 {
		base.Hydration.CachedQueryLimit = override.Hydration.CachedQueryLimit
	}

	if override.Logging.Level != "" {
		base.Logging.Level = override.Logging.Level
	}
	if override.Logging.Format != "" {
		base.Logging.Format = override.Logging.Format
	}

	return base
}

func defaultConfig() Config {
	return Config{
		Server: ServerConfig{
			Addr:         ":8080",
			KeepAlive:    time.Second,
			ReadTimeout:  10 * time.Second,
			ShutdownWait: 15 * time.Second,
		},
		Database: DatabaseConfig{Driver: "sqlite", DSN: "file:plantscout.db?_pragma=foreign_keys(1)"},
		OpenAI: OpenAIConfig{
			Endpoint: "https://api.openai.com/v1/chat/completions",
			Model:    "gpt-3.5-turbo",
			Timeout:  60 * time.Second,
		},
		Flickr: FlickrConfig{
			Endpoint:          "https://api.flickr.com/services/rest/",
			RequestsPerSecond: 2,
			Burst:             4,
		},
		Citations: CitationsConfig{
			USDABaseURL:      "https://plants.usda.gov/home/plantProfile?symbol=",
			WikipediaBaseURL: "https://en.wikipedia.org/wiki/",
		},
		Hydration: HydrationConfig{
			Limit:            6,
			LimiterScope:     LimiterScopeGlobal,
			CachedQueryLimit: 3,
		},
		Logging: LoggingConfig{Level: "info", Format: "text"},
	}
}
