package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// UTCLoc is the pipeline's working location; every timestamp in the system
// is UTC.
var UTCLoc = time.UTC

// Config holds all tweakable application parameters for the cycle scheduler,
// ingestion, classification, enrichment, signal generation, and feedback
// stages. Values are loaded from environment variables (flat, for secrets and
// scalar knobs) with sensible defaults.
type Config struct {
	LogLevel      string // LOG_LEVEL
	MaxLogSizeMB  int64  // MAX_LOG_SIZE_MB
	MaxLogBackups int    // MAX_LOG_BACKUPS

	CycleIntervalSec      int // CYCLE_INTERVAL_SEC
	PositionMonitorSec    int // POSITION_MONITOR_INTERVAL_SEC
	MaxArticleAgeMinutes  int // MAX_ARTICLE_AGE_MINUTES
	MaxFilingAgeMinutes   int // MAX_SEC_FILING_AGE_MINUTES
	FilterOTCStocks       bool    // FILTER_OTC_STOCKS
	MinRVOL               float64 // MIN_RVOL

	FeatureMultiTickerScoring   bool    // FEATURE_MULTI_TICKER_SCORING
	MultiTickerMinRelevance     float64 // MULTI_TICKER_MIN_RELEVANCE_SCORE

	FeatureFeedbackSignal  bool    // FEATURE_FEEDBACK_SIGNAL_INTEGRATION
	FeedbackMultiplierMin  float64 // FEEDBACK_MULTIPLIER_MIN
	FeedbackMultiplierMax  float64 // FEEDBACK_MULTIPLIER_MAX
	FeedbackCacheTTLMin    int     // FEEDBACK_CACHE_TTL_MINUTES
	FeedbackMinSampleSize  int     // FEEDBACK_MIN_SAMPLE_SIZE
	FeedbackSmoothing      float64 // FEEDBACK_SMOOTHING

	MinConfidence float64 // MIN_CONFIDENCE, downgrade-to-SKIP threshold

	SimulationMode   bool    // SIMULATION_MODE
	SimulationSpeed  float64 // SIMULATION_SPEED
	SimulationPreset string  // SIMULATION_PRESET

	AlertConsecutiveEmptyCycles int // ALERT_CONSECUTIVE_EMPTY_CYCLES

	FiscalBudgetLimit float64 // FISCAL_BUDGET_LIMIT
	GeminiAPIKey      string  // GEMINI_API_KEY

	DataDir string // DATA_DIR, where jsonl/db files live
}

// Load initializes the configuration. It reads .env, checks required
// secrets, fills a typed Config from os.LookupEnv with typed fallbacks,
// then layers in the structured keyword/source table surface via Viper
// bound to the same environment plus an optional config.yaml.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: No .env file found, using system environment variables")
	}

	requiredSecretVars := map[string]bool{
		"APCA_API_KEY_ID":     true,
		"APCA_API_SECRET_KEY": true,
		"APCA_API_BASE_URL":   true,
		"TELEGRAM_BOT_TOKEN":  true,
		"TELEGRAM_CHAT_ID":    true,
	}

	var missing []string
	for key := range requiredSecretVars {
		if os.Getenv(key) == "" {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		log.Fatalf("CRITICAL: Missing required environment variables: %v", missing)
	}

	cfg := &Config{
		LogLevel:      getEnv("LOG_LEVEL", "INFO"),
		MaxLogSizeMB:  getEnvAsInt64("MAX_LOG_SIZE_MB", 5),
		MaxLogBackups: getEnvAsInt("MAX_LOG_BACKUPS", 3),

		CycleIntervalSec:     getEnvAsInt("CYCLE_INTERVAL_SEC", 300),
		PositionMonitorSec:   getEnvAsInt("POSITION_MONITOR_INTERVAL_SEC", 30),
		MaxArticleAgeMinutes: getEnvAsInt("MAX_ARTICLE_AGE_MINUTES", 60),
		MaxFilingAgeMinutes:  getEnvAsInt("MAX_SEC_FILING_AGE_MINUTES", 240),
		FilterOTCStocks:      getEnvAsBool("FILTER_OTC_STOCKS", true),
		MinRVOL:              getEnvAsFloat64("MIN_RVOL", 1.5),

		FeatureMultiTickerScoring: getEnvAsBool("FEATURE_MULTI_TICKER_SCORING", true),
		MultiTickerMinRelevance:   getEnvAsFloat64("MULTI_TICKER_MIN_RELEVANCE_SCORE", 40.0),

		FeatureFeedbackSignal: getEnvAsBool("FEATURE_FEEDBACK_SIGNAL_INTEGRATION", true),
		FeedbackMultiplierMin: getEnvAsFloat64("FEEDBACK_MULTIPLIER_MIN", 0.7),
		FeedbackMultiplierMax: getEnvAsFloat64("FEEDBACK_MULTIPLIER_MAX", 1.3),
		FeedbackCacheTTLMin:   getEnvAsInt("FEEDBACK_CACHE_TTL_MINUTES", 60),
		FeedbackMinSampleSize: getEnvAsInt("FEEDBACK_MIN_SAMPLE_SIZE", 10),
		FeedbackSmoothing:     getEnvAsFloat64("FEEDBACK_SMOOTHING", 0.3),

		MinConfidence: getEnvAsFloat64("MIN_CONFIDENCE", 0.55),

		SimulationMode:   getEnvAsBool("SIMULATION_MODE", false),
		SimulationSpeed:  getEnvAsFloat64("SIMULATION_SPEED", 1.0),
		SimulationPreset: getEnv("SIMULATION_PRESET", ""),

		AlertConsecutiveEmptyCycles: getEnvAsInt("ALERT_CONSECUTIVE_EMPTY_CYCLES", 3),

		FiscalBudgetLimit: getEnvAsFloat64("FISCAL_BUDGET_LIMIT", 300.0),
		GeminiAPIKey:      os.Getenv("GEMINI_API_KEY"),

		DataDir: getEnv("DATA_DIR", "./data"),
	}

	log.Printf("Configuration Loaded: LogLevel=%s, CycleInterval=%ds, MinConfidence=%.2f, SimulationMode=%v",
		cfg.LogLevel, cfg.CycleIntervalSec, cfg.MinConfidence, cfg.SimulationMode)

	return cfg
}

// Tables is the structured keyword/source/sector configuration surface that
// doesn't fit flat env vars. It is loaded separately from Config via
// LoadTables, bound through Viper so the same environment variables can
// still override individual table entries (AutomaticEnv), with an optional
// on-disk config.yaml for the bulk of the table data.
type Tables struct {
	Keywords map[string]KeywordConfig `mapstructure:"keywords" yaml:"keywords"`
	Sources  []SourceConfig           `mapstructure:"sources" yaml:"sources"`
	Sectors  map[string]string        `mapstructure:"sectors" yaml:"sectors"` // ticker -> sector ETF
}

// KeywordConfig is one static catalyst-keyword table entry.
type KeywordConfig struct {
	BaseConfidence  float64 `mapstructure:"base_confidence" yaml:"base_confidence"`
	DefaultStopPct  float64 `mapstructure:"default_stop_pct" yaml:"default_stop_pct"`
	DefaultTargetPct float64 `mapstructure:"default_target_pct" yaml:"default_target_pct"`
	SizeMultiplier  float64 `mapstructure:"size_multiplier" yaml:"size_multiplier"`
}

// SourceConfig describes one configured feed source.
type SourceConfig struct {
	Name    string `mapstructure:"name" yaml:"name"`
	Kind    string `mapstructure:"kind" yaml:"kind"` // rss, prwire, edgar
	URL     string `mapstructure:"url" yaml:"url"`
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
}

// LoadTables reads the structured table surface from an optional
// config.yaml (searched in the working directory and configDir, if
// non-empty) layered with environment overrides; env vars win, file values
// otherwise, defaults last.
func LoadTables(configDir string) (*Tables, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if configDir != "" {
		v.AddConfigPath(configDir)
	}
	v.AutomaticEnv()

	v.SetDefault("keywords", defaultKeywordTable())

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
		log.Println("Warning: no config.yaml found, using default keyword table")
	}

	var t Tables
	if err := v.Unmarshal(&t); err != nil {
		return nil, err
	}
	if len(t.Keywords) == 0 {
		t.Keywords = defaultKeywordTable()
	}
	return &t, nil
}

// WriteDefaultTables writes a starter config.yaml holding the default
// keyword table plus example source and sector entries, for the init-config
// subcommand. Refuses to clobber an existing file.
func WriteDefaultTables(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config: %s already exists, refusing to overwrite", path)
	}
	t := Tables{
		Keywords: defaultKeywordTable(),
		Sources: []SourceConfig{
			{Name: "globenewswire", Kind: "rss", URL: "https://www.globenewswire.com/RssFeed/subjectcode/27-Mergers%20And%20Acquisitions/feedTitle/GlobeNewswire%20-%20Mergers%20and%20Acquisitions", Enabled: true},
			{Name: "edgar-8k", Kind: "edgar", URL: "https://www.sec.gov/cgi-bin/browse-edgar?action=getcompany&type=8-K&output=atom", Enabled: true},
		},
		Sectors: map[string]string{
			"AAPL": "XLK",
			"XOM":  "XLE",
		},
	}
	b, err := yaml.Marshal(&t)
	if err != nil {
		return fmt.Errorf("config: marshal starter tables: %w", err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("config: write %s: %w", path, err)
	}
	return nil
}

// defaultKeywordTable gives the pipeline a sane starting point even with
// no config.yaml on disk.
func defaultKeywordTable() map[string]KeywordConfig {
	return map[string]KeywordConfig{
		"fda":         {BaseConfidence: 0.92, DefaultStopPct: 5.0, DefaultTargetPct: 12.0, SizeMultiplier: 1.6},
		"merger":      {BaseConfidence: 0.95, DefaultStopPct: 4.0, DefaultTargetPct: 15.0, SizeMultiplier: 2.0},
		"acquisition": {BaseConfidence: 0.90, DefaultStopPct: 4.5, DefaultTargetPct: 14.0, SizeMultiplier: 1.7},
		"partnership": {BaseConfidence: 0.85, DefaultStopPct: 5.0, DefaultTargetPct: 10.0, SizeMultiplier: 1.4},
		"clinical":    {BaseConfidence: 0.85, DefaultStopPct: 5.5, DefaultTargetPct: 12.0, SizeMultiplier: 1.5},
	}
}

// Helper to get string env with default
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

// Helper to get int env with default
func getEnvAsInt(key string, fallback int) int {
	valueStr, exists := os.LookupEnv(key)
	if !exists {
		return fallback
	}
	return parseInt(valueStr, fallback)
}

func getEnvAsInt64(key string, fallback int64) int64 {
	valueStr, exists := os.LookupEnv(key)
	if !exists {
		return fallback
	}
	return parseInt64(valueStr, fallback)
}

func parseInt(s string, fallback int) int {
	val, err := strconv.Atoi(s)
	if err != nil {
		log.Printf("Warning: Invalid int for config %q, using default %d", s, fallback)
		return fallback
	}
	return val
}

func parseInt64(s string, fallback int64) int64 {
	val, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		log.Printf("Warning: Invalid int64 for config %q, using default %d", s, fallback)
		return fallback
	}
	return val
}

func getEnvAsBool(key string, fallback bool) bool {
	valStr := os.Getenv(key)
	if valStr == "" {
		return fallback
	}
	val, err := strconv.ParseBool(valStr)
	if err != nil {
		log.Printf("Warning: Invalid bool for config %s, using default %v", key, fallback)
		return fallback
	}
	return val
}
