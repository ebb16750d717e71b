package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/ivlev/affectmark/internal/geometry"
)

const (
	EnvPrefix     = "AFFECTMARK"
	EnvConfigFile = "AFFECTMARK_CONFIG"
	DefaultRater  = "007"
)

type Config struct {
	RaterID    string        `mapstructure:"rater_id"`
	Video      string        `mapstructure:"video"`
	OutputDir  string        `mapstructure:"output_dir"`
	TickPeriod time.Duration `mapstructure:"tick_period"`
	Quiescence time.Duration `mapstructure:"quiescence"`
	Geometry   Geometry      `mapstructure:"geometry"`
	MPV        MPV           `mapstructure:"mpv"`
	ShowStats  bool          `mapstructure:"show_stats"`
	ReportPath string        `mapstructure:"report_path"`
}

type Geometry struct {
	Policy         string  `mapstructure:"policy"`
	WidthFraction  float64 `mapstructure:"width_fraction"`
	HeightFraction float64 `mapstructure:"height_fraction"`
	ScreenWidth    int     `mapstructure:"screen_width"`
	ScreenHeight   int     `mapstructure:"screen_height"`
}

type MPV struct {
	Path         string        `mapstructure:"path"`
	Socket       string        `mapstructure:"socket"`
	WindowID     uint64        `mapstructure:"window_id"`
	StartTimeout time.Duration `mapstructure:"start_timeout"`
}

func setDefaults(v *viper.Viper) {
	g := geometry.DefaultConfig()

	v.SetDefault("rater_id", DefaultRater)
	v.SetDefault("video", "")
	v.SetDefault("output_dir", "")
	v.SetDefault("tick_period", time.Second)
	v.SetDefault("quiescence", 2*time.Second)
	v.SetDefault("geometry.policy", string(g.Policy))
	v.SetDefault("geometry.width_fraction", g.WidthFraction)
	v.SetDefault("geometry.height_fraction", g.HeightFraction)
	v.SetDefault("geometry.screen_width", g.ScreenWidth)
	v.SetDefault("geometry.screen_height", g.ScreenHeight)
	v.SetDefault("mpv.path", "mpv")
	v.SetDefault("mpv.socket", "")
	v.SetDefault("mpv.window_id", 0)
	v.SetDefault("mpv.start_timeout", 5*time.Second)
	v.SetDefault("show_stats", false)
	v.SetDefault("report_path", "affectmark_report.yaml")
}

// Load reads defaults, then affectmark.yaml from the working directory (or
// the file named by AFFECTMARK_CONFIG), then AFFECTMARK_* variables such as
// AFFECTMARK_MPV_PATH.
func Load(v *viper.Viper) (*Config, error) {
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path := os.Getenv(EnvConfigFile); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	} else {
		v.SetConfigName("affectmark")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if strings.TrimSpace(c.RaterID) == "" {
		return errors.New("rater id must not be empty")
	}
	if c.TickPeriod <= 0 {
		return fmt.Errorf("tick_period must be positive, got %v", c.TickPeriod)
	}
	if c.Quiescence <= 0 {
		return fmt.Errorf("quiescence must be positive, got %v", c.Quiescence)
	}
	if err := geometry.Policy(c.Geometry.Policy).Validate(); err != nil {
		return err
	}
	if c.Geometry.WidthFraction <= 0 || c.Geometry.HeightFraction <= 0 {
		return fmt.Errorf("geometry fractions must be positive, got %g and %g",
			c.Geometry.WidthFraction, c.Geometry.HeightFraction)
	}
	if c.MPV.Path == "" {
		return errors.New("mpv.path must not be empty")
	}
	return nil
}

func (c *Config) GeometryConfig() geometry.Config {
	return geometry.Config{
		Policy:         geometry.Policy(c.Geometry.Policy),
		WidthFraction:  c.Geometry.WidthFraction,
		HeightFraction: c.Geometry.HeightFraction,
		ScreenWidth:    c.Geometry.ScreenWidth,
		ScreenHeight:   c.Geometry.ScreenHeight,
	}
}
