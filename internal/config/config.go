package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store       StoreConfig       `yaml:"store" mapstructure:"store"`
	Verify      VerifyConfig      `yaml:"verify" mapstructure:"verify"`
	Credibility CredibilityConfig `yaml:"credibility" mapstructure:"credibility"`
	Drift       DriftConfig       `yaml:"drift" mapstructure:"drift"`
	Resolver    ResolverConfig    `yaml:"resolver" mapstructure:"resolver"`
	Batch       BatchConfig       `yaml:"batch" mapstructure:"batch"`
	Server      ServerConfig      `yaml:"server" mapstructure:"server"`
	Log         LogConfig         `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the persistence backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"` // "sqlite" or "postgres"
	Path        string `yaml:"path" mapstructure:"path"`     // sqlite DSN
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// VerifyConfig holds the consensus-resolution and confidence-scoring
// tunables. Field weights are fractions summing to 1.0.
type VerifyConfig struct {
	NameWeight    float64 `yaml:"name_weight" mapstructure:"name_weight"`
	AddressWeight float64 `yaml:"address_weight" mapstructure:"address_weight"`
	PhoneWeight   float64 `yaml:"phone_weight" mapstructure:"phone_weight"`
	WebsiteWeight float64 `yaml:"website_weight" mapstructure:"website_weight"`

	// DecayPerDay controls recency weighting: 1/(1 + ageDays*DecayPerDay).
	DecayPerDay float64 `yaml:"decay_per_day" mapstructure:"decay_per_day"`
	// ConsensusBoost is the maximum confidence boost for a dominant vote.
	ConsensusBoost float64 `yaml:"consensus_boost" mapstructure:"consensus_boost"`
	// NeutralScore is used when the listed input omits a comparable field.
	NeutralScore float64 `yaml:"neutral_score" mapstructure:"neutral_score"`
	// ReviewThreshold flags results below this percentage for manual review.
	ReviewThreshold float64 `yaml:"review_threshold" mapstructure:"review_threshold"`
	// DefaultCandidateAgeDays backdates candidates with no retrieved_at.
	DefaultCandidateAgeDays int `yaml:"default_candidate_age_days" mapstructure:"default_candidate_age_days"`
}

// CredibilityConfig configures the source credibility store.
type CredibilityConfig struct {
	LearningRate  float64            `yaml:"learning_rate" mapstructure:"learning_rate"`
	MinWeight     float64            `yaml:"min_weight" mapstructure:"min_weight"`
	MaxWeight     float64            `yaml:"max_weight" mapstructure:"max_weight"`
	DefaultWeight float64            `yaml:"default_weight" mapstructure:"default_weight"`
	Seeds         map[string]float64 `yaml:"seeds" mapstructure:"seeds"`
}

// DriftConfig holds drift-comparison weights and change thresholds.
type DriftConfig struct {
	NameWeight    float64 `yaml:"name_weight" mapstructure:"name_weight"`
	AddressWeight float64 `yaml:"address_weight" mapstructure:"address_weight"`
	PhoneWeight   float64 `yaml:"phone_weight" mapstructure:"phone_weight"`
	TextThreshold float64 `yaml:"text_threshold" mapstructure:"text_threshold"`
	MaxSlugLength int     `yaml:"max_slug_length" mapstructure:"max_slug_length"`
}

// ResolverConfig configures the learned entity resolver.
type ResolverConfig struct {
	ModelPath string `yaml:"model_path" mapstructure:"model_path"`
	UseML     bool   `yaml:"use_ml" mapstructure:"use_ml"`

	NameWeight    float64 `yaml:"name_weight" mapstructure:"name_weight"`
	AddressWeight float64 `yaml:"address_weight" mapstructure:"address_weight"`
	PhoneWeight   float64 `yaml:"phone_weight" mapstructure:"phone_weight"`
	SourceWeight  float64 `yaml:"source_weight" mapstructure:"source_weight"`
}

// BatchConfig configures batch verification.
type BatchConfig struct {
	MaxConcurrent int `yaml:"max_concurrent" mapstructure:"max_concurrent"`
}

// ServerConfig configures the verification server.
type ServerConfig struct {
	Port          int     `yaml:"port" mapstructure:"port"`
	RatePerSecond float64 `yaml:"rate_per_second" mapstructure:"rate_per_second"`
	RateBurst     int     `yaml:"rate_burst" mapstructure:"rate_burst"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("PROVIDER_VERIFY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.path", "provider-verify.db")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.rate_per_second", 10)
	v.SetDefault("server.rate_burst", 20)
	v.SetDefault("batch.max_concurrent", 5)

	v.SetDefault("verify.name_weight", 0.45)
	v.SetDefault("verify.address_weight", 0.30)
	v.SetDefault("verify.phone_weight", 0.20)
	v.SetDefault("verify.website_weight", 0.05)
	v.SetDefault("verify.decay_per_day", 0.05)
	v.SetDefault("verify.consensus_boost", 0.10)
	v.SetDefault("verify.neutral_score", 0.5)
	v.SetDefault("verify.review_threshold", 70)
	v.SetDefault("verify.default_candidate_age_days", 7)

	v.SetDefault("credibility.learning_rate", 0.05)
	v.SetDefault("credibility.min_weight", 0.05)
	v.SetDefault("credibility.max_weight", 0.99)
	v.SetDefault("credibility.default_weight", 0.5)

	v.SetDefault("drift.name_weight", 0.40)
	v.SetDefault("drift.address_weight", 0.35)
	v.SetDefault("drift.phone_weight", 0.25)
	v.SetDefault("drift.text_threshold", 0.1)
	v.SetDefault("drift.max_slug_length", 200)

	v.SetDefault("resolver.model_path", "entity-model.json")
	v.SetDefault("resolver.use_ml", false)
	v.SetDefault("resolver.name_weight", 0.4)
	v.SetDefault("resolver.address_weight", 0.35)
	v.SetDefault("resolver.phone_weight", 0.2)
	v.SetDefault("resolver.source_weight", 0.05)

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
