// Package config loads pipeline configuration from config.yaml and the
// environment via viper.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the full service configuration.
type Config struct {
	Log       LogConfig       `mapstructure:"log"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Server    ServerConfig    `mapstructure:"server"`
	Generator GeneratorConfig `mapstructure:"generator"`
	Sources   SourcesConfig   `mapstructure:"sources"`
	Pipeline  PipelineConfig  `mapstructure:"pipeline"`
	Validator ValidatorConfig `mapstructure:"validator"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level       string `mapstructure:"level"`
	Development bool   `mapstructure:"development"`
}

// DatabaseConfig configures the postgres connection.
type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
	SSLMode  string `mapstructure:"sslmode"`
}

// DSN builds the lib/pq connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode)
}

// ServerConfig configures the ops HTTP server.
type ServerConfig struct {
	Addr string `mapstructure:"addr"`
}

// GeneratorConfig configures the text-generation service adapter.
type GeneratorConfig struct {
	Endpoint      string        `mapstructure:"endpoint"`
	APIKey        string        `mapstructure:"api_key"`
	Model         string        `mapstructure:"model"`
	Timeout       time.Duration `mapstructure:"timeout"`
	MinConfidence float64       `mapstructure:"min_confidence"`
	// MinFundingAmount is the floor below which a funding event is not a story.
	MinFundingAmount int64 `mapstructure:"min_funding_amount"`
}

// SourcesConfig configures the collectors.
type SourcesConfig struct {
	WindowDays       int           `mapstructure:"window_days"`
	ProductHuntToken string        `mapstructure:"product_hunt_token"`
	GitHubToken      string        `mapstructure:"github_token"`
	StartupFeeds     []string      `mapstructure:"startup_feeds"`
	FundingFeeds     []string      `mapstructure:"funding_feeds"`
	FundingFeedURL   string        `mapstructure:"funding_feed_url"`
	ValuationFeedURL string        `mapstructure:"valuation_feed_url"`
	RequestTimeout   time.Duration `mapstructure:"request_timeout"`
	ScrapeBatchSize  int           `mapstructure:"scrape_batch_size"`
	ScrapeItemDelay  time.Duration `mapstructure:"scrape_item_delay"`
}

// PipelineConfig configures orchestration cadences and retention.
type PipelineConfig struct {
	Schedules          map[string]string `mapstructure:"schedules"`
	EvidenceRetention  time.Duration     `mapstructure:"evidence_retention"`
	JobRunRetention    time.Duration     `mapstructure:"job_run_retention"`
	MinEvidenceRecords int               `mapstructure:"min_evidence_records"`
	GenerationLimit    int               `mapstructure:"generation_limit"`
	LookbackDays       int               `mapstructure:"lookback_days"`
	// FeaturedFundingFloor marks funding stories featured regardless of confidence.
	FeaturedFundingFloor int64   `mapstructure:"featured_funding_floor"`
	FeaturedConfidence   float64 `mapstructure:"featured_confidence"`
	MaxStartupAgeYears   int     `mapstructure:"max_startup_age_years"`
}

// ValidatorConfig carries the hand-tuned deduction weights and plausibility
// bands. Defaults match the reference values; all are overridable.
type ValidatorConfig struct {
	Weights     ValidatorWeights    `mapstructure:"weights"`
	StageBands  map[string][2]int64 `mapstructure:"stage_bands"`
	RejectBelow float64             `mapstructure:"reject_below"`
	ReviewBelow float64             `mapstructure:"review_below"`
	MaxIssues   int                 `mapstructure:"max_issues"`
}

// ValidatorWeights are the additive deductions applied from a starting
// confidence of 1.0.
type ValidatorWeights struct {
	MissingName         float64 `mapstructure:"missing_name"`
	MissingDescription  float64 `mapstructure:"missing_description"`
	NoOnlinePresence    float64 `mapstructure:"no_online_presence"`
	UnreachableWebsite  float64 `mapstructure:"unreachable_website"`
	NoCrossReference    float64 `mapstructure:"no_cross_reference"`
	ImplausibleFunding  float64 `mapstructure:"implausible_funding"`
	UncorroboratedLarge float64 `mapstructure:"uncorroborated_large"`
	MetricOutOfBounds   float64 `mapstructure:"metric_out_of_bounds"`
	BadFoundedDate      float64 `mapstructure:"bad_founded_date"`
	Duplicate           float64 `mapstructure:"duplicate"`
}

// RateLimitConfig maps resource names to per-window limits.
type RateLimitConfig struct {
	// Buckets maps resource name to requests-per-minute.
	Buckets map[string]int `mapstructure:"buckets"`
	// MaxWaitAttempts bounds WaitForAvailability retries.
	MaxWaitAttempts int `mapstructure:"max_wait_attempts"`
}

// Load reads configuration from the optional config file and environment.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("/etc/foundersignal")
	v.SetEnvPrefix("PIPELINE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("log.development", false)

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "pipeline")
	v.SetDefault("database.password", "")
	v.SetDefault("database.name", "foundersignal")
	v.SetDefault("database.sslmode", "disable")

	v.SetDefault("server.addr", ":8080")

	v.SetDefault("generator.endpoint", "https://api.openai.com/v1/chat/completions")
	v.SetDefault("generator.model", "gpt-4o-mini")
	v.SetDefault("generator.timeout", 30*time.Second)
	v.SetDefault("generator.min_confidence", 0.6)
	v.SetDefault("generator.min_funding_amount", int64(500_000))

	v.SetDefault("sources.window_days", 7)
	v.SetDefault("sources.request_timeout", 10*time.Second)
	v.SetDefault("sources.scrape_batch_size", 10)
	v.SetDefault("sources.scrape_item_delay", 2*time.Second)
	v.SetDefault("sources.startup_feeds", []string{
		"https://techcrunch.com/category/startups/feed/",
		"https://venturebeat.com/category/entrepreneur/feed/",
	})
	v.SetDefault("sources.funding_feeds", []string{
		"https://techcrunch.com/category/venture/feed/",
	})

	v.SetDefault("pipeline.schedules", map[string]string{
		"collect:product_hunt": "0 */6 * * *",
		"collect:hacker_news":  "0 */6 * * *",
		"collect:rss":          "0 8 * * *",
		"collect:github":       "0 12 * * *",
		"collect:funding":      "0 */16 * * *",
		"scrape":               "0 2 * * *",
		"generate":             "0 4 * * *",
		"funding_stories":      "30 4 * * *",
		"valuations":           "0 6 * * 1",
		"revalidate":           "0 5 * * 0",
		"maintenance":          "0 0 * * 0",
	})
	v.SetDefault("pipeline.evidence_retention", 30*24*time.Hour)
	v.SetDefault("pipeline.job_run_retention", 90*24*time.Hour)
	v.SetDefault("pipeline.min_evidence_records", 2)
	v.SetDefault("pipeline.generation_limit", 5)
	v.SetDefault("pipeline.lookback_days", 30)
	v.SetDefault("pipeline.featured_funding_floor", int64(10_000_000))
	v.SetDefault("pipeline.featured_confidence", 0.8)
	v.SetDefault("pipeline.max_startup_age_years", 5)

	v.SetDefault("validator.reject_below", 0.3)
	v.SetDefault("validator.review_below", 0.7)
	v.SetDefault("validator.max_issues", 2)
	v.SetDefault("validator.weights.missing_name", 0.3)
	v.SetDefault("validator.weights.missing_description", 0.2)
	v.SetDefault("validator.weights.no_online_presence", 0.4)
	v.SetDefault("validator.weights.unreachable_website", 0.2)
	v.SetDefault("validator.weights.no_cross_reference", 0.3)
	v.SetDefault("validator.weights.implausible_funding", 0.2)
	v.SetDefault("validator.weights.uncorroborated_large", 0.3)
	v.SetDefault("validator.weights.metric_out_of_bounds", 0.1)
	v.SetDefault("validator.weights.bad_founded_date", 0.2)
	v.SetDefault("validator.weights.duplicate", 0.5)
	for stage, band := range DefaultStageBands() {
		v.SetDefault("validator.stage_bands."+stage, []int64{band[0], band[1]})
	}

	v.SetDefault("rate_limit.buckets", map[string]int{
		"api":             100,
		"data_collection": 20,
		"web_scraping":    10,
		"ai":              50,
		"product_hunt":    2,
		"github":          80,
		"openai":          3000,
	})
	v.SetDefault("rate_limit.max_wait_attempts", 5)
}

// DefaultStageBands returns the stage → [min,max] funding plausibility table.
func DefaultStageBands() map[string][2]int64 {
	return map[string][2]int64{
		"pre_seed": {10_000, 500_000},
		"seed":     {100_000, 3_000_000},
		"series_a": {1_000_000, 15_000_000},
		"series_b": {5_000_000, 50_000_000},
		"series_c": {20_000_000, 200_000_000},
	}
}
