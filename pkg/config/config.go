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
	Environment string `yaml:"environment" default:"dev" validate:"required"`
	Server      struct {
		Port            int           `yaml:"port" default:"8080" validate:"gt=0,lte=65535"`
		ReadTimeout     time.Duration `yaml:"read_timeout" default:"10s"`
		WriteTimeout    time.Duration `yaml:"write_timeout" default:"10s"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout" default:"10s"`
	} `yaml:"server"`
	Log struct {
		Level  string `yaml:"level" default:"info"`
		Format string `yaml:"format" default:"console" validate:"oneof=console json"`
		Output string `yaml:"output" default:"stdout"`
	} `yaml:"log"`
	Monitor struct {
		IndexName     string        `yaml:"index_name" default:"btc_usd" validate:"required"`
		Currency      string        `yaml:"currency" default:"BTC" validate:"required"`
		Instruments   []string      `yaml:"instruments" validate:"required,min=1,dive,required"`
		PollInterval  time.Duration `yaml:"poll_interval" default:"5s" validate:"gt=0"`
		RollingWindow time.Duration `yaml:"rolling_window" default:"30m" validate:"gt=0"`
		StopHour      int           `yaml:"stop_hour" default:"4" validate:"gte=0,lte=23"`
		StopMinute    int           `yaml:"stop_minute" default:"5" validate:"gte=0,lte=59"`
		Timezone      string        `yaml:"timezone" default:"US/Eastern" validate:"required"`
	} `yaml:"monitor"`
	Deribit struct {
		BaseURL      string        `yaml:"base_url" default:"https://www.deribit.com/api/v2" validate:"required,url"`
		WebSocketURL string        `yaml:"websocket_url" default:"wss://www.deribit.com/ws/api/v2"`
		UseStream    bool          `yaml:"use_stream"`
		Timeout      time.Duration `yaml:"timeout" default:"4s" validate:"gt=0"`
		RateLimit    float64       `yaml:"rate_limit" default:"10"` // requests per second, 0 disables
	} `yaml:"deribit"`
	Sink struct {
		Type    string `yaml:"type" default:"csv" validate:"oneof=csv kafka clickhouse"`
		CSVPath string `yaml:"csv_path" default:"optwatch.csv"`
	} `yaml:"sink"`
	Kafka struct {
		Brokers      []string `yaml:"brokers"`
		Topic        string   `yaml:"topic" default:"optwatch.records"`
		RequiredAcks int      `yaml:"required_acks" default:"-1"`
		Compression  string   `yaml:"compression" default:"gzip"`
		Producer     struct {
			MaxAttempts  int           `yaml:"max_attempts" default:"3"`
			WriteTimeout time.Duration `yaml:"write_timeout" default:"10s"`
			ReadTimeout  time.Duration `yaml:"read_timeout" default:"10s"`
		} `yaml:"producer"`
		Bridge struct {
			Enabled    bool          `yaml:"enabled"`
			GroupID    string        `yaml:"group_id" default:"optwatch-bridge"`
			RetryMax   int           `yaml:"retry_max" default:"3"`
			BackoffMin time.Duration `yaml:"backoff_min" default:"50ms"`
			BackoffMax time.Duration `yaml:"backoff_max" default:"2s"`
		} `yaml:"bridge"`
	} `yaml:"kafka"`
	ClickHouse struct {
		Host         string        `yaml:"host" default:"localhost"`
		Port         int           `yaml:"port" default:"9000"`
		Database     string        `yaml:"database" default:"optwatch"`
		User         string        `yaml:"user" default:"default"`
		Password     string        `yaml:"password"`
		DialTimeout  time.Duration `yaml:"dial_timeout" default:"5s"`
		ReadTimeout  time.Duration `yaml:"read_timeout" default:"10s"`
		WriteTimeout time.Duration `yaml:"write_timeout" default:"10s"`
	} `yaml:"clickhouse"`
	Cache struct {
		Redis struct {
			Enabled  bool   `yaml:"enabled"`
			Host     string `yaml:"host" default:"localhost"`
			Port     int    `yaml:"port" default:"6379"`
			Password string `yaml:"password"`
			DB       int    `yaml:"db"`
		} `yaml:"redis"`
	} `yaml:"cache"`
	Metrics struct {
		Enabled bool   `yaml:"enabled" default:"true"`
		Path    string `yaml:"path" default:"/metrics"`
	} `yaml:"metrics"`
}

var validate = validator.New()

// Load reads and parses a YAML configuration file, fills defaults and
// validates the result.
func Load(path string) (*Config, error) {
	var c Config

	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(b, &c); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := defaults.Set(&c); err != nil {
		return nil, fmt.Errorf("apply defaults: %w", err)
	}

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

	if v := os.Getenv("OPTWATCH_INSTRUMENTS"); v != "" {
		c.Monitor.Instruments = strings.Split(v, ",")
	}
	if v := os.Getenv("OPTWATCH_SINK"); v != "" {
		c.Sink.Type = v
	}
	if v := os.Getenv("OPTWATCH_CSV_PATH"); v != "" {
		c.Sink.CSVPath = v
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("KAFKA_TOPIC"); v != "" {
		c.Kafka.Topic = v
	}
	if v := os.Getenv("CLICKHOUSE_PASSWORD"); v != "" {
		c.ClickHouse.Password = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		c.Cache.Redis.Password = v
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

// Validate checks struct tags plus the cross-field rules tags cannot
// express.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return err
	}
	if _, err := time.LoadLocation(c.Monitor.Timezone); err != nil {
		return fmt.Errorf("monitor.timezone: %w", err)
	}
	if c.Monitor.PollInterval > c.Monitor.RollingWindow {
		return fmt.Errorf("monitor.poll_interval must not exceed monitor.rolling_window")
	}
	if c.Sink.Type == "kafka" || c.Kafka.Bridge.Enabled {
		if len(c.Kafka.Brokers) == 0 {
			return fmt.Errorf("kafka.brokers required for sink.type=kafka or bridge")
		}
	}
	if c.Sink.Type == "csv" && c.Sink.CSVPath == "" {
		return fmt.Errorf("sink.csv_path required for sink.type=csv")
	}
	return nil
}

// Location resolves the configured reference timezone. Validate has
// already checked it parses.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Monitor.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
