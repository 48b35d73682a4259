package config

import (
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	configPathEnv    = "HNBRIEFS_CONFIG"
	dataDirEnv       = "HNBRIEFS_DATA_DIR"
	briefDirEnv      = "HNBRIEFS_BRIEF_DIR"
	anthropicKeyEnv  = "ANTHROPIC_AUTH_TOKEN"
	anthropicURLEnv  = "ANTHROPIC_BASE_URL"
	anthropicModeEnv = "ANTHROPIC_MODEL"
	dotenvFile       = ".env.local"
)

// Config holds high-level settings required across the application.
type Config struct {
	Logging   LoggingConfig   `yaml:"logging"`
	Source    SourceConfig    `yaml:"source"`
	Anthropic AnthropicConfig `yaml:"anthropic"`
	Analyzer  AnalyzerConfig  `yaml:"analyzer"`
	Storage   StorageConfig   `yaml:"storage"`
	Watch     WatchConfig     `yaml:"watch"`
	Trends    TrendsConfig    `yaml:"trends"`
}

// LoggingConfig controls slog verbosity.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// SourceConfig describes the HackerNews endpoint and candidate selection.
type SourceConfig struct {
	BaseURL  string `yaml:"baseUrl"`
	Feed     string `yaml:"feed"`
	MaxItems int    `yaml:"maxItems"`
}

// AnthropicConfig defines how to contact the model service. All values are
// opaque to the pipeline beyond being passed through to the client.
type AnthropicConfig struct {
	AuthToken string `yaml:"authToken"`
	BaseURL   string `yaml:"baseUrl"`
	Model     string `yaml:"model"`
}

// AnalyzerConfig tunes batching against the model service.
type AnalyzerConfig struct {
	BatchSize         int           `yaml:"batchSize"`
	DelayBetweenBatch time.Duration `yaml:"delayBetweenBatches"`
	FetchPageContent  bool          `yaml:"fetchPageContent"`
}

// StorageConfig roots all persisted state.
type StorageConfig struct {
	DataDir    string `yaml:"dataDir"`
	BriefDir   string `yaml:"briefDir"`
	TrackerDir string `yaml:"trackerDir"`
	IndexPath  string `yaml:"indexPath"`
}

// WatchConfig drives the interval watcher.
type WatchConfig struct {
	Interval     time.Duration `yaml:"interval"`
	MaxIdle      time.Duration `yaml:"maxIdle"`
	RecordMaxAge time.Duration `yaml:"recordMaxAge"`
}

// TrendsConfig controls tag aggregation for trend reporting.
type TrendsConfig struct {
	MaxTrends       int      `yaml:"maxTrends"`
	MinOccurrence   int      `yaml:"minOccurrence"`
	EnableBlacklist bool     `yaml:"enableBlacklist"`
	TagBlacklist    []string `yaml:"tagBlacklist"`
}

// Load reads .env.local, then YAML configuration (if present), and applies
// environment overrides.
func Load() Config {
	if err := godotenv.Load(dotenvFile); err != nil && !os.IsNotExist(err) {
		log.Printf("config: cannot read %s: %v (continuing with process env)", dotenvFile, err)
	}

	cfg := defaultConfig()

	if path := os.Getenv(configPathEnv); path != "" {
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
	return cfg
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(anthropicKeyEnv); v != "" {
		c.Anthropic.AuthToken = v
	}
	if v := os.Getenv(anthropicURLEnv); v != "" {
		c.Anthropic.BaseURL = v
	}
	if v := os.Getenv(anthropicModeEnv); v != "" {
		c.Anthropic.Model = v
	}
	if v := os.Getenv(dataDirEnv); v != "" {
		c.Storage.DataDir = v
	}
	if v := os.Getenv(briefDirEnv); v != "" {
		c.Storage.BriefDir = v
	}
}

func mergeConfig(base, override Config) Config {
	if override.Logging.Level != "" {
		base.Logging = override.Logging
	}

	if override.Source.BaseURL != "" {
		base.Source.BaseURL = override.Source.BaseURL
	}
	if override.Source.Feed != "" {
		base.Source.Feed = override.Source.Feed
	}
	if override.Source.MaxItems > 0 {
		base.Source.MaxItems = override.Source.MaxItems
	}

	if override.Anthropic.AuthToken != "" {
		base.Anthropic.AuthToken = override.Anthropic.AuthToken
	}
	if override.Anthropic.BaseURL != "" {
		base.Anthropic.BaseURL = override.Anthropic.BaseURL
	}
	if override.Anthropic.Model != "" {
		base.Anthropic.Model = override.Anthropic.Model
	}

	if override.Analyzer.BatchSize > 0 {
		base.Analyzer.BatchSize = override.Analyzer.BatchSize
	}
	if override.Analyzer.DelayBetweenBatch > 0 {
		base.Analyzer.DelayBetweenBatch = override.Analyzer.DelayBetweenBatch
	}
	if override.Analyzer.FetchPageContent {
		base.Analyzer.FetchPageContent = true
	}

	if override.Storage.DataDir != "" {
		base.Storage.DataDir = override.Storage.DataDir
	}
	if override.Storage.BriefDir != "" {
		base.Storage.BriefDir = override.Storage.BriefDir
	}
	if override.Storage.TrackerDir != "" {
		base.Storage.TrackerDir = override.Storage.TrackerDir
	}
	if override.Storage.IndexPath != "" {
		base.Storage.IndexPath = override.Storage.IndexPath
	}

	if override.Watch.Interval > 0 {
		base.Watch.Interval = override.Watch.Interval
	}
	if override.Watch.MaxIdle > 0 {
		base.Watch.MaxIdle = override.Watch.MaxIdle
	}
	if override.Watch.RecordMaxAge > 0 {
		base.Watch.RecordMaxAge = override.Watch.RecordMaxAge
	}

	if override.Trends.MaxTrends > 0 {
		base.Trends.MaxTrends = override.Trends.MaxTrends
	}
	if override.Trends.MinOccurrence > 0 {
		base.Trends.MinOccurrence = override.Trends.MinOccurrence
	}
	if len(override.Trends.TagBlacklist) > 0 {
		base.Trends.TagBlacklist = override.Trends.TagBlacklist
	}

	return base
}

func defaultConfig() Config {
	return Config{
		Logging: LoggingConfig{Level: "info"},
		Source: SourceConfig{
			BaseURL:  "https://hacker-news.firebaseio.com/v0",
			Feed:     "newstories",
			MaxItems: 50,
		},
		Anthropic: AnthropicConfig{
			Model: "claude-3-5-sonnet-20241022",
		},
		Analyzer: AnalyzerConfig{
			BatchSize:         5,
			DelayBetweenBatch: time.Second,
			FetchPageContent:  true,
		},
		Storage: StorageConfig{
			DataDir:    "data",
			BriefDir:   "posts",
			TrackerDir: "data/tracker",
			IndexPath:  "data/briefs.db",
		},
		Watch: WatchConfig{
			Interval:     15 * time.Minute,
			MaxIdle:      2 * time.Hour,
			RecordMaxAge: 30 * 24 * time.Hour,
		},
		Trends: TrendsConfig{
			MaxTrends:       10,
			MinOccurrence:   2,
			EnableBlacklist: true,
			TagBlacklist: []string{
				"technology", "tech", "innovation", "software",
				"development", "trend", "trends", "industry",
				"platform", "tools",
			},
		},
	}
}
