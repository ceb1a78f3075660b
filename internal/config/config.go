package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	SourceHTTP     = "http"
	SourcePostgres = "postgres"
	SourceFile     = "file"
)

type Config struct {
	HTTP     HTTPConfig     `mapstructure:"http"`
	Log      LogConfig      `mapstructure:"log"`
	Source   SourceConfig   `mapstructure:"source"`
	Database DatabaseConfig `mapstructure:"database"`
	MQTT     MQTTConfig     `mapstructure:"mqtt"`
	View     ViewConfig     `mapstructure:"view"`
}

type HTTPConfig struct {
	Addr string `mapstructure:"addr"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type SourceConfig struct {
	// Kind selects the floor data collaborator: http, postgres or file.
	Kind        string        `mapstructure:"kind"`
	BaseURL     string        `mapstructure:"base_url"`
	APIKey      string        `mapstructure:"api_key"`
	Timeout     time.Duration `mapstructure:"timeout"`
	RetryCount  int           `mapstructure:"retry_count"`
	FixturePath string        `mapstructure:"fixture_path"`
}

type DatabaseConfig struct {
	URL string `mapstructure:"url"`
}

// MQTTConfig enables the building-updated trigger when Broker is set.
type MQTTConfig struct {
	Broker   string `mapstructure:"broker"`
	ClientID string `mapstructure:"client_id"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	Topic    string `mapstructure:"topic"`
	QoS      int    `mapstructure:"qos"`
}

type ViewConfig struct {
	InitialFloor    int           `mapstructure:"initial_floor"`
	FetchTimeout    time.Duration `mapstructure:"fetch_timeout"`
	BlinkHalfPeriod time.Duration `mapstructure:"blink_half_period"`
	BlinkFrame      time.Duration `mapstructure:"blink_frame"`
	MarkerSpread    float64       `mapstructure:"marker_spread"`
	IconSize        float64       `mapstructure:"icon_size"`
	TooltipWidth    float64       `mapstructure:"tooltip_width"`
	TooltipHeight   float64       `mapstructure:"tooltip_height"`
	// MinPollInterval is the shortest poll interval a view may request.
	MinPollInterval time.Duration `mapstructure:"min_poll_interval"`
	MaxViews        int           `mapstructure:"max_views"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("http.addr", ":8081")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", LogFormatJSON)

	v.SetDefault("source.kind", SourceHTTP)
	v.SetDefault("source.base_url", "https://iistem.com")
	v.SetDefault("source.api_key", "")
	v.SetDefault("source.timeout", 10*time.Second)
	v.SetDefault("source.retry_count", 2)
	v.SetDefault("source.fixture_path", "")

	v.SetDefault("database.url", "")

	v.SetDefault("mqtt.broker", "")
	v.SetDefault("mqtt.client_id", "floorwatch")
	v.SetDefault("mqtt.username", "")
	v.SetDefault("mqtt.password", "")
	v.SetDefault("mqtt.topic", "floorwatch/buildings/+/updated")
	v.SetDefault("mqtt.qos", 1)

	v.SetDefault("view.initial_floor", 1)
	v.SetDefault("view.fetch_timeout", 15*time.Second)
	v.SetDefault("view.blink_half_period", 500*time.Millisecond)
	v.SetDefault("view.blink_frame", 50*time.Millisecond)
	v.SetDefault("view.marker_spread", 15)
	v.SetDefault("view.icon_size", 30)
	v.SetDefault("view.tooltip_width", 160)
	v.SetDefault("view.tooltip_height", 110)
	v.SetDefault("view.min_poll_interval", 2*time.Second)
	v.SetDefault("view.max_views", 256)
}

// Load reads path (YAML, JSON or TOML by extension) when given, then applies
// FLOORWATCH_* environment overrides, e.g. FLOORWATCH_SOURCE_KIND=file.
func Load(path string) (Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("FLOORWATCH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	var errs []error
	if _, err := c.Log.ParsedLevel(); err != nil {
		errs = append(errs, err)
	}
	switch f := strings.ToLower(c.Log.Format); f {
	case "", LogFormatJSON, LogFormatConsole:
	default:
		errs = append(errs, fmt.Errorf("log.format must be json or console, got %q", c.Log.Format))
	}
	switch c.Source.Kind {
	case SourceHTTP:
		if strings.TrimSpace(c.Source.BaseURL) == "" {
			errs = append(errs, errors.New("source.base_url is required for the http source"))
		}
	case SourcePostgres:
		if strings.TrimSpace(c.Database.URL) == "" {
			errs = append(errs, errors.New("database.url is required for the postgres source"))
		}
	case SourceFile:
		if strings.TrimSpace(c.Source.FixturePath) == "" {
			errs = append(errs, errors.New("source.fixture_path is required for the file source"))
		}
	default:
		errs = append(errs, fmt.Errorf("source.kind must be http, postgres or file, got %q", c.Source.Kind))
	}
	if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
		errs = append(errs, fmt.Errorf("mqtt.qos must be 0, 1 or 2, got %d", c.MQTT.QoS))
	}
	if c.View.MaxViews <= 0 {
		errs = append(errs, errors.New("view.max_views must be positive"))
	}
	return errors.Join(errs...)
}
