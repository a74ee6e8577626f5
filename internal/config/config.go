package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	defaultTimezone    = "Asia/Ho_Chi_Minh"
	fallbackTimezone   = "UTC"
	configPathEnv      = "FORECASTER_CONFIG"
	dataDirEnv         = "FORECASTER_DATA_DIR"
	symbolEnv          = "FORECASTER_SYMBOL"
	logLevelEnv        = "LOG_LEVEL"
	databaseDSNEnv     = "DATABASE_DSN"
	databaseDriverEnv  = "DATABASE_DRIVER"
	embeddingURLEnv    = "EMBEDDING_URL"
	modelURLEnv        = "MODEL_URL"
	mlAPIKeyEnv        = "ML_API_KEY"
	priceAPIURLEnv     = "PRICE_API_URL"
	priceAPIKeyEnv     = "PRICE_API_KEY"
	telegramTokenEnv   = "TELEGRAM_BOT_TOKEN"
	telegramChatIDEnv  = "TELEGRAM_CHAT_ID"
	cacheBackendEnv    = "FORECASTER_CACHE_BACKEND"
	sequenceLengthEnv  = "FORECASTER_SEQUENCE_LENGTH"
	DriverPostgres     = "pgx"
	DriverSQLite       = "sqlite"
	CacheBackendFile   = "file"
	CacheBackendBadger = "badger"
)

// Config holds high-level settings required across the application.
type Config struct {
	Logging       LoggingConfig      `yaml:"logging"`
	Storage       StorageConfig      `yaml:"storage"`
	Database      DatabaseConfig     `yaml:"database"`
	Scheduler     SchedulerConfig    `yaml:"scheduler"`
	Site          SiteConfig         `yaml:"site"`
	Fetch         FetchConfig        `yaml:"fetch"`
	Market        MarketConfig       `yaml:"market"`
	ML            MLConfig           `yaml:"ml"`
	Notifications NotificationConfig `yaml:"notifications"`
}

// LoggingConfig selects the slog level.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// StorageConfig points at the stage artifact directory and the fetch cache backend.
type StorageConfig struct {
	DataDir      string `yaml:"dataDir"`
	CacheBackend string `yaml:"cacheBackend"`
}

// DatabaseConfig describes the optional relational sink.
type DatabaseConfig struct {
	Driver       string `yaml:"driver"`
	DSN          string `yaml:"dsn"`
	PriceTable   string `yaml:"priceTable"`
	PredictTable string `yaml:"predictTable"`
}

// Enabled reports whether enough is configured to reach the database.
func (d DatabaseConfig) Enabled() bool {
	return d.DSN != "" && d.Driver != ""
}

// SchedulerConfig defines when the daily job should run.
type SchedulerConfig struct {
	CronExpression string         `yaml:"cronExpression"`
	Timezone       string         `yaml:"timezone"`
	DailyKeys      []int          `yaml:"dailyKeys"`
	location       *time.Location `yaml:"-"`
}

// Location resolves the scheduler timezone string to a time.Location.
func (s SchedulerConfig) Location() *time.Location {
	if s.location != nil {
		return s.location
	}
	loc, _ := time.LoadLocation(fallbackTimezone)
	return loc
}

// SiteConfig describes the news site and the selectors of its scanner strategy.
type SiteConfig struct {
	Name            string   `yaml:"name"`
	Scanner         string   `yaml:"scanner"`
	BaseURL         string   `yaml:"baseUrl"`
	TimelineURL     string   `yaml:"timelineUrl"`
	LinkSelector    string   `yaml:"linkSelector"`
	TitleSelector   string   `yaml:"titleSelector"`
	DateSelector    string   `yaml:"dateSelector"`
	ContentSelector string   `yaml:"contentSelector"`
	Keywords        []string `yaml:"keywords"`
}

// FetchConfig controls politeness and batching of outbound requests.
type FetchConfig struct {
	TimelineDelay time.Duration `yaml:"timelineDelay"`
	ArticleDelay  time.Duration `yaml:"articleDelay"`
	PriceDelay    time.Duration `yaml:"priceDelay"`
	BatchSize     int           `yaml:"batchSize"`
	UserAgent     string        `yaml:"userAgent"`
	Timeout       time.Duration `yaml:"timeout"`
}

// MarketConfig names the instrument and the market-data endpoint.
type MarketConfig struct {
	Symbol      string `yaml:"symbol"`
	PriceAPIURL string `yaml:"priceApiUrl"`
	APIKey      string `yaml:"apiKey"`
}

// MLConfig describes the embedding and forecasting services.
type MLConfig struct {
	EmbeddingURL   string `yaml:"embeddingUrl"`
	ModelURL       string `yaml:"modelUrl"`
	APIKey         string `yaml:"apiKey"`
	EmbeddingDim   int    `yaml:"embeddingDim"`
	SequenceLength int    `yaml:"sequenceLength"`
}

// NotificationConfig encapsulates outbound channels (Telegram, etc.).
type NotificationConfig struct {
	Telegram TelegramConfig `yaml:"telegram"`
}

// TelegramConfig wires all data required to send messages.
type TelegramConfig struct {
	BotToken string `yaml:"botToken"`
	ChatID   string `yaml:"chatId"`
}

// Load reads YAML configuration (if present), a .env file (if present) and
// applies environment overrides.
func Load() Config {
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

	_ = godotenv.Load()
	cfg.applyEnvOverrides()
	cfg.bindTimezone()

	return cfg
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(logLevelEnv); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv(dataDirEnv); v != "" {
		c.Storage.DataDir = v
	}
	if v := os.Getenv(cacheBackendEnv); v != "" {
		c.Storage.CacheBackend = v
	}

	if v := os.Getenv(databaseDSNEnv); v != "" {
		c.Database.DSN = v
	}
	if v := os.Getenv(databaseDriverEnv); v != "" {
		c.Database.Driver = v
	}

	if v := os.Getenv(symbolEnv); v != "" {
		c.Market.Symbol = v
	}
	if v := os.Getenv(priceAPIURLEnv); v != "" {
		c.Market.PriceAPIURL = v
	}
	if v := os.Getenv(priceAPIKeyEnv); v != "" {
		c.Market.APIKey = v
	}

	if v := os.Getenv(embeddingURLEnv); v != "" {
		c.ML.EmbeddingURL = v
	}
	if v := os.Getenv(modelURLEnv); v != "" {
		c.ML.ModelURL = v
	}
	if v := os.Getenv(mlAPIKeyEnv); v != "" {
		c.ML.APIKey = v
	}
	if v := os.Getenv(sequenceLengthEnv); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.ML.SequenceLength = n
		}
	}

	if v := os.Getenv(telegramTokenEnv); v != "" {
		c.Notifications.Telegram.BotToken = v
	}
	if v := os.Getenv(telegramChatIDEnv); v != "" {
		c.Notifications.Telegram.ChatID = v
	}
}

func (c *Config) bindTimezone() {
	tz := c.Scheduler.Timezone
	if tz == "" {
		tz = defaultTimezone
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		log.Printf("config: unknown timezone %s, reverting to %s", tz, fallbackTimezone)
		loc, _ = time.LoadLocation(fallbackTimezone)
	}
	c.Scheduler.location = loc
}

func mergeConfig(base, override Config) Config {
	if override.Logging.Level != "" {
		base.Logging.Level = override.Logging.Level
	}

	if override.Storage.DataDir != "" {
		base.Storage.DataDir = override.Storage.DataDir
	}
	if override.Storage.CacheBackend != "" {
		base.Storage.CacheBackend = override.Storage.CacheBackend
	}

	if override.Database.DSN != "" {
		base.Database.DSN = override.Database.DSN
	}
	if override.Database.Driver != "" {
		base.Database.Driver = override.Database.Driver
	}
	if override.Database.PriceTable != "" {
		base.Database.PriceTable = override.Database.PriceTable
	}
	if override.Database.PredictTable != "" {
		base.Database.PredictTable = override.Database.PredictTable
	}

	if override.Scheduler.CronExpression != "" {
		base.Scheduler.CronExpression = override.Scheduler.CronExpression
	}
	if override.Scheduler.Timezone != "" {
		base.Scheduler.Timezone = override.Scheduler.Timezone
	}
	if len(override.Scheduler.DailyKeys) > 0 {
		base.Scheduler.DailyKeys = override.Scheduler.DailyKeys
	}

	if override.Site.Name != "" {
		base.Site = mergeSite(base.Site, override.Site)
	}

	if override.Fetch.TimelineDelay > 0 {
		base.Fetch.TimelineDelay = override.Fetch.TimelineDelay
	}
	if override.Fetch.ArticleDelay > 0 {
		base.Fetch.ArticleDelay = override.Fetch.ArticleDelay
	}
	if override.Fetch.PriceDelay > 0 {
		base.Fetch.PriceDelay = override.Fetch.PriceDelay
	}
	if override.Fetch.BatchSize > 0 {
		base.Fetch.BatchSize = override.Fetch.BatchSize
	}
	if override.Fetch.UserAgent != "" {
		base.Fetch.UserAgent = override.Fetch.UserAgent
	}
	if override.Fetch.Timeout > 0 {
		base.Fetch.Timeout = override.Fetch.Timeout
	}

	if override.Market.Symbol != "" {
		base.Market.Symbol = override.Market.Symbol
	}
	if override.Market.PriceAPIURL != "" {
		base.Market.PriceAPIURL = override.Market.PriceAPIURL
	}
	if override.Market.APIKey != "" {
		base.Market.APIKey = override.Market.APIKey
	}

	if override.ML.EmbeddingURL != "" {
		base.ML.EmbeddingURL = override.ML.EmbeddingURL
	}
	if override.ML.ModelURL != "" {
		base.ML.ModelURL = override.ML.ModelURL
	}
	if override.ML.APIKey != "" {
		base.ML.APIKey = override.ML.APIKey
	}
	if override.ML.EmbeddingDim > 0 {
		base.ML.EmbeddingDim = override.ML.EmbeddingDim
	}
	if override.ML.SequenceLength > 0 {
		base.ML.SequenceLength = override.ML.SequenceLength
	}

	if override.Notifications.Telegram.BotToken != "" {
		base.Notifications.Telegram.BotToken = override.Notifications.Telegram.BotToken
	}
	if override.Notifications.Telegram.ChatID != "" {
		base.Notifications.Telegram.ChatID = override.Notifications.Telegram.ChatID
	}

	return base
}

// mergeSite keeps default selectors for fields the override leaves empty.
func mergeSite(base, override SiteConfig) SiteConfig {
	if override.Name != base.Name {
		return override
	}
	if override.Scanner != "" {
		base.Scanner = override.Scanner
	}
	if override.BaseURL != "" {
		base.BaseURL = override.BaseURL
	}
	if override.TimelineURL != "" {
		base.TimelineURL = override.TimelineURL
	}
	if override.LinkSelector != "" {
		base.LinkSelector = override.LinkSelector
	}
	if override.TitleSelector != "" {
		base.TitleSelector = override.TitleSelector
	}
	if override.DateSelector != "" {
		base.DateSelector = override.DateSelector
	}
	if override.ContentSelector != "" {
		base.ContentSelector = override.ContentSelector
	}
	if override.Keywords != nil {
		base.Keywords = override.Keywords
	}
	return base
}

func defaultConfig() Config {
	return Config{
		Logging: LoggingConfig{Level: "info"},
		Storage: StorageConfig{DataDir: "data", CacheBackend: CacheBackendFile},
		Database: DatabaseConfig{
			Driver:       DriverPostgres,
			PriceTable:   "fact_price_stock",
			PredictTable: "fact_price_predict",
		},
		Scheduler: SchedulerConfig{
			CronExpression: "30 15 * * 1-5",
			Timezone:       defaultTimezone,
			DailyKeys:      []int{1, 2, 3},
		},
		Site: SiteConfig{
			Name:            "cafef",
			Scanner:         "cafef",
			BaseURL:         "https://cafef.vn",
			TimelineURL:     "https://cafef.vn/timelinelist/18836/%d.chn",
			LinkSelector:    "h3 a",
			TitleSelector:   "h1.title",
			DateSelector:    "span.pdate",
			ContentSelector: "div.detail-content",
			Keywords:        []string{"ACB", "Á Châu", "ngân hàng"},
		},
		Fetch: FetchConfig{
			TimelineDelay: 3 * time.Second,
			ArticleDelay:  1500 * time.Millisecond,
			PriceDelay:    time.Second,
			BatchSize:     1000,
			UserAgent:     "MarketNewsForecaster/1.0",
			Timeout:       20 * time.Second,
		},
		Market: MarketConfig{Symbol: "ACB", PriceAPIURL: "https://prices.example.org/api"},
		ML: MLConfig{
			EmbeddingURL:   "http://localhost:8500",
			ModelURL:       "http://localhost:8501",
			EmbeddingDim:   768,
			SequenceLength: 20,
		},
	}
}
