package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Sector merge policies for multi-sector targets.
const (
	SectorPolicyFirst  = "first"
	SectorPolicyStitch = "stitch"
)

type Config struct {
	Environment string `yaml:"environment" default:"development"`
	Server      struct {
		Port            int           `yaml:"port" default:"8000"`
		ReadTimeout     time.Duration `yaml:"read_timeout" default:"30s"`
		WriteTimeout    time.Duration `yaml:"write_timeout" default:"120s"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout" default:"15s"`
		RequestTimeout  time.Duration `yaml:"request_timeout" default:"110s"`
		AllowOrigins    []string      `yaml:"allow_origins"`
	} `yaml:"server"`
	Logging struct {
		Level  string `yaml:"level" default:"info"`
		Format string `yaml:"format" default:"json"`
		Output string `yaml:"output" default:"stdout"`
		// Collector batches error-level logs onto a Kafka topic.
		Collector struct {
			Enabled       bool          `yaml:"enabled"`
			Topic         string        `yaml:"topic" default:"exodetect.logs"`
			FlushInterval time.Duration `yaml:"flush_interval" default:"5s"`
			MaxBatch      int           `yaml:"max_batch" default:"100"`
		} `yaml:"collector"`
	} `yaml:"logging"`
	Metrics struct {
		Enabled bool   `yaml:"enabled" default:"true"`
		Path    string `yaml:"path" default:"/metrics"`
	} `yaml:"metrics"`
	Pipeline struct {
		SNRPhaseWidth      float64 `yaml:"snr_phase_width" default:"0.04"`
		TransitWindow      float64 `yaml:"transit_window" default:"0.05"`
		MinInTransit       int     `yaml:"min_in_transit" default:"10"`
		SecondaryHalfWidth float64 `yaml:"secondary_half_width" default:"0.05"`
		OutlierSigma       float64 `yaml:"outlier_sigma" default:"5"`
		FlattenWindow      int     `yaml:"flatten_window" default:"401"`
		SectorPolicy       string  `yaml:"sector_policy" default:"first"`
	} `yaml:"pipeline"`
	Archive struct {
		BaseURL string        `yaml:"base_url"`
		Mission string        `yaml:"mission" default:"TESS"`
		Timeout time.Duration `yaml:"timeout" default:"60s"`
	} `yaml:"archive"`
	Search struct {
		BaseURL   string        `yaml:"base_url"`
		Timeout   time.Duration `yaml:"timeout" default:"45s"`
		Periods   Grid          `yaml:"periods"`
		Durations Grid          `yaml:"durations"`
	} `yaml:"search"`
	Kafka struct {
		Enabled      bool     `yaml:"enabled"`
		Brokers      []string `yaml:"brokers"`
		Topic        string   `yaml:"topic" default:"exodetect.vetting.completed"`
		RequiredAcks int      `yaml:"required_acks" default:"1"`
		Compression  string   `yaml:"compression" default:"snappy"`
		Producer     struct {
			MaxAttempts  int           `yaml:"max_attempts" default:"3"`
			Linger       time.Duration `yaml:"linger" default:"10ms"`
			BatchBytes   int           `yaml:"batch_bytes" default:"1048576"`
			BatchSize    int           `yaml:"batch_size" default:"100"`
			WriteTimeout time.Duration `yaml:"write_timeout" default:"10s"`
			ReadTimeout  time.Duration `yaml:"read_timeout" default:"10s"`
			Async        bool          `yaml:"async"`
		} `yaml:"producer"`
		Consumer struct {
			Enabled  bool   `yaml:"enabled"`
			Topic    string `yaml:"topic" default:"exodetect.analyze.requests"`
			GroupID  string `yaml:"group_id" default:"exodetect-analyzer"`
			Workers  int    `yaml:"workers" default:"2"`
			MinBytes int    `yaml:"min_bytes" default:"1"`
			MaxBytes int    `yaml:"max_bytes" default:"10485760"`
		} `yaml:"consumer"`
	} `yaml:"kafka"`
	ClickHouse struct {
		Enabled          bool          `yaml:"enabled"`
		Host             string        `yaml:"host" default:"localhost"`
		Port             int           `yaml:"port" default:"9000"`
		Database         string        `yaml:"database" default:"exodetect"`
		User             string        `yaml:"user" default:"default"`
		Password         string        `yaml:"password"`
		UseHTTP          bool          `yaml:"use_http"`
		AsyncInsert      bool          `yaml:"async_insert"`
		WaitForAsync     bool          `yaml:"wait_for_async_insert"`
		DialTimeout      time.Duration `yaml:"dial_timeout" default:"5s"`
		ReadTimeout      time.Duration `yaml:"read_timeout" default:"30s"`
		WriteTimeout     time.Duration `yaml:"write_timeout" default:"30s"`
		MaxExecutionTime time.Duration `yaml:"max_execution_time" default:"60s"`
	} `yaml:"clickhouse"`
	Redis struct {
		Enabled   bool          `yaml:"enabled"`
		Addr      string        `yaml:"addr" default:"localhost:6379"`
		Password  string        `yaml:"password"`
		DB        int           `yaml:"db"`
		Prefix    string        `yaml:"prefix" default:"exodetect"`
		TTL       time.Duration `yaml:"ttl" default:"168h"`
		LocalSize int           `yaml:"local_size" default:"4096"`
		LocalTTL  time.Duration `yaml:"local_ttl" default:"1m"`
		PoolSize  int           `yaml:"pool_size" default:"10"`
		MinIdle   int           `yaml:"min_idle_conns" default:"2"`
		PoolWait  time.Duration `yaml:"pool_timeout" default:"4s"`
	} `yaml:"redis"`
	RateLimit struct {
		Enabled bool          `yaml:"enabled" default:"true"`
		Rate    float64       `yaml:"rate" default:"1"`
		Burst   int           `yaml:"burst" default:"3"`
		TTL     time.Duration `yaml:"ttl" default:"10m"`
	} `yaml:"ratelimit"`
}

// Grid is an evenly spaced search grid.
type Grid struct {
	Min   float64 `yaml:"min"`
	Max   float64 `yaml:"max"`
	Count int     `yaml:"count"`
}

// Default returns a config with every default applied.
func Default() *Config {
	var c Config
	_ = c.applyDefaults()
	return &c
}

func (c *Config) applyDefaults() error {
	if err := defaults.Set(c); err != nil {
		return err
	}
	c.Search.Periods = Grid{Min: 0.5, Max: 20, Count: 10000}
	c.Search.Durations = Grid{Min: 0.01, Max: 0.3, Count: 10}
	return nil
}

// Load reads and parses a YAML configuration file. Defaults are applied first so
// explicit zero values in the file (enabled: false) win.
func Load(path string) (*Config, error) {
	c, err := load(path)
	if err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

func load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var c Config
	if err := c.applyDefaults(); err != nil {
		return nil, fmt.Errorf("apply defaults: %w", err)
	}
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return &c, nil
}

// LoadWithEnv loads .env when present, then the YAML file, then applies environment overrides.
func LoadWithEnv(path string) (*Config, error) {
	_ = godotenv.Load()

	c, err := load(path)
	if err != nil {
		return nil, err
	}

	if v := os.Getenv("ARCHIVE_URL"); v != "" {
		c.Archive.BaseURL = v
	}
	if v := os.Getenv("SEARCH_URL"); v != "" {
		c.Search.BaseURL = v
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = strings.Split(v, ",")
		c.Kafka.Enabled = true
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Redis.Addr = v
		c.Redis.Enabled = true
	}
	if v := os.Getenv("CLICKHOUSE_HOST"); v != "" {
		c.ClickHouse.Host = v
		c.ClickHouse.Enabled = true
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("SERVER_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("SERVER_PORT: %w", err)
		}
		c.Server.Port = port
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Environment == "" {
		return fmt.Errorf("environment is required")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port out of range: %d", c.Server.Port)
	}
	if c.Archive.BaseURL == "" {
		return fmt.Errorf("archive.base_url is required")
	}
	if c.Search.BaseURL == "" {
		return fmt.Errorf("search.base_url is required")
	}
	if err := c.Search.Periods.validate("search.periods"); err != nil {
		return err
	}
	if err := c.Search.Durations.validate("search.durations"); err != nil {
		return err
	}

	p := c.Pipeline
	if p.SNRPhaseWidth <= 0 || p.SNRPhaseWidth >= 0.5 {
		return fmt.Errorf("pipeline.snr_phase_width must be in (0, 0.5), got %v", p.SNRPhaseWidth)
	}
	if p.TransitWindow <= 0 || p.TransitWindow >= 0.5 {
		return fmt.Errorf("pipeline.transit_window must be in (0, 0.5), got %v", p.TransitWindow)
	}
	if p.MinInTransit < 1 {
		return fmt.Errorf("pipeline.min_in_transit must be positive")
	}
	if p.OutlierSigma <= 0 {
		return fmt.Errorf("pipeline.outlier_sigma must be positive")
	}
	if p.FlattenWindow < 3 || p.FlattenWindow%2 == 0 {
		return fmt.Errorf("pipeline.flatten_window must be odd and >= 3, got %d", p.FlattenWindow)
	}
	if p.SectorPolicy != SectorPolicyFirst && p.SectorPolicy != SectorPolicyStitch {
		return fmt.Errorf("pipeline.sector_policy must be '%s' or '%s', got '%s'", SectorPolicyFirst, SectorPolicyStitch, p.SectorPolicy)
	}

	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka.brokers cannot be empty when kafka is enabled")
	}
	if c.Kafka.Consumer.Enabled && !c.Kafka.Enabled {
		return fmt.Errorf("kafka.consumer requires kafka.enabled")
	}
	if c.RateLimit.Enabled && (c.RateLimit.Rate <= 0 || c.RateLimit.Burst < 1) {
		return fmt.Errorf("ratelimit.rate and ratelimit.burst must be positive")
	}
	return nil
}

func (g Grid) validate(name string) error {
	if g.Min <= 0 || g.Max <= g.Min {
		return fmt.Errorf("%s: need 0 < min < max, got [%v, %v]", name, g.Min, g.Max)
	}
	if g.Count < 1 {
		return fmt.Errorf("%s.count must be positive", name)
	}
	return nil
}
