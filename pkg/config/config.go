package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Environment string `yaml:"environment" validate:"required"`

	Logging struct {
		Level  string `yaml:"level" default:"info"`
		Format string `yaml:"format" default:"json"`
		Output string `yaml:"output" default:"stdout"`
	} `yaml:"logging"`

	Metrics struct {
		Enabled bool   `yaml:"enabled" default:"true"`
		Addr    string `yaml:"addr" default:":9090"`
		Path    string `yaml:"path" default:"/metrics"`
	} `yaml:"metrics"`

	Provider struct {
		BaseURL    string        `yaml:"base_url" validate:"required"`
		APIKey     string        `yaml:"api_key"`
		Timeout    time.Duration `yaml:"timeout" default:"10s"`
		RateLimit  float64       `yaml:"rate_limit" default:"5"`
		RateBurst  int           `yaml:"rate_burst" default:"10"`
		FormWindow int           `yaml:"form_window" default:"10"`
		Leagues    []string      `yaml:"leagues" validate:"min=1"`
	} `yaml:"provider"`

	Engine struct {
		MaxGoals           int       `yaml:"max_goals" default:"10" validate:"gte=8"`
		DrawCorrelation    float64   `yaml:"draw_correlation" default:"-0.08"`
		FirstHalfShare     float64   `yaml:"first_half_share" default:"0.45" validate:"gt=0,lt=1"`
		OverUnderLines     []float64 `yaml:"over_under_lines"`
		CorrectScoreTop    int       `yaml:"correct_score_top" default:"5"`
		PriorMatches       float64   `yaml:"prior_matches" default:"8"`
		LambdaFloor        float64   `yaml:"lambda_floor" default:"0.05"`
		LambdaCap          float64   `yaml:"lambda_cap" default:"8"`
		PartitionTolerance float64   `yaml:"partition_tolerance" default:"0.000001"`
	} `yaml:"engine"`

	Value struct {
		MinEdge        float64 `yaml:"min_edge" default:"0.03"`
		MinProbability float64 `yaml:"min_probability" default:"0.05"`
		MinOdds        float64 `yaml:"min_odds" default:"1.1"`
		MaxOdds        float64 `yaml:"max_odds" default:"15"`
	} `yaml:"value"`

	Coupon struct {
		MaxSelections int     `yaml:"max_selections" default:"4" validate:"gte=1"`
		DefaultStake  float64 `yaml:"default_stake" default:"100"`
	} `yaml:"coupon"`

	Optimizer struct {
		MinSamples    int           `yaml:"min_samples" default:"30" validate:"gte=1"`
		LookbackDays  int           `yaml:"lookback_days" default:"180"`
		RefitInterval time.Duration `yaml:"refit_interval" default:"24h"`
		LockTTL       time.Duration `yaml:"lock_ttl" default:"10m"`
	} `yaml:"optimizer"`

	Batch struct {
		Concurrency   int           `yaml:"concurrency" default:"8" validate:"gte=1"`
		Interval      time.Duration `yaml:"interval" default:"1h"`
		PredictionTTL time.Duration `yaml:"prediction_ttl" default:"2h"`
	} `yaml:"batch"`

	Kafka struct {
		Enabled         bool     `yaml:"enabled"`
		Brokers         []string `yaml:"brokers"`
		PredictionTopic string   `yaml:"prediction_topic" default:"predictions"`
		ValueBetTopic   string   `yaml:"value_bet_topic" default:"value-bets"`
		CouponTopic     string   `yaml:"coupon_topic" default:"coupons"`
		RequiredAcks    int      `yaml:"required_acks" default:"1"`
		Compression     string   `yaml:"compression" default:"snappy"`
		Producer        struct {
			MaxAttempts  int           `yaml:"max_attempts" default:"3"`
			Linger       time.Duration `yaml:"linger" default:"100ms"`
			BatchBytes   int           `yaml:"batch_bytes" default:"1048576"`
			BatchSize    int           `yaml:"batch_size" default:"100"`
			WriteTimeout time.Duration `yaml:"write_timeout" default:"10s"`
			ReadTimeout  time.Duration `yaml:"read_timeout" default:"10s"`
			Async        bool          `yaml:"async"`
		} `yaml:"producer"`
	} `yaml:"kafka"`

	ClickHouse struct {
		Host             string        `yaml:"host" default:"localhost"`
		Port             int           `yaml:"port" default:"9000"`
		Database         string        `yaml:"database" default:"bilyoner"`
		User             string        `yaml:"user" default:"default"`
		Password         string        `yaml:"password"`
		AsyncInsert      bool          `yaml:"async_insert" default:"true"`
		WaitForAsync     bool          `yaml:"wait_for_async_insert"`
		DialTimeout      time.Duration `yaml:"dial_timeout" default:"5s"`
		ReadTimeout      time.Duration `yaml:"read_timeout" default:"30s"`
		WriteTimeout     time.Duration `yaml:"write_timeout" default:"30s"`
		MaxExecutionTime time.Duration `yaml:"max_execution_time" default:"60s"`
	} `yaml:"clickhouse"`

	Redis struct {
		Enabled  bool   `yaml:"enabled" default:"true"`
		Addr     string `yaml:"addr" default:"localhost:6379"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`
}

// Load reads and parses a YAML configuration file.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var c Config
	if err := defaults.Set(&c); err != nil {
		return nil, fmt.Errorf("apply defaults: %w", err)
	}
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	// Validate required fields
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &c, nil
}

// LoadWithEnv loads config from YAML and overrides with environment variables.
func LoadWithEnv(path string) (*Config, error) {
	c, err := Load(path)
	if err != nil {
		return nil, err
	}

	// Override with environment variables
	if v := os.Getenv("PROVIDER_API_KEY"); v != "" {
		c.Provider.APIKey = v
	}
	if v := os.Getenv("PROVIDER_BASE_URL"); v != "" {
		c.Provider.BaseURL = v
	}
	if v := os.Getenv("LEAGUES"); v != "" {
		c.Provider.Leagues = strings.Split(v, ",")
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = strings.Split(v, ",")
		c.Kafka.Enabled = true
	}
	if v := os.Getenv("CLICKHOUSE_HOST"); v != "" {
		c.ClickHouse.Host = v
	}
	if v := os.Getenv("CLICKHOUSE_PASSWORD"); v != "" {
		c.ClickHouse.Password = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Redis.Addr = v
	}

	return c, nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return err
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka.brokers cannot be empty when kafka is enabled")
	}
	if len(c.Engine.OverUnderLines) == 0 {
		c.Engine.OverUnderLines = []float64{0.5, 1.5, 2.5, 3.5, 4.5}
	}
	return nil
}
