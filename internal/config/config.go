// Package config loads the service configuration from an optional YAML file,
// a .env file and PENSION_* environment variables, in increasing priority.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvPrefix         = "PENSION"
	DefaultConfigFile = "config.yaml"
	DefaultEnvFile    = ".env"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Rates    RatesConfig    `mapstructure:"rates"`
	Wages    WagesConfig    `mapstructure:"wages"`
	Engine   EngineConfig   `mapstructure:"engine"`
	Tables   TablesConfig   `mapstructure:"tables"`
	UsageLog UsageLogConfig `mapstructure:"usage_log"`
}

type ServerConfig struct {
	Address     string        `mapstructure:"address"`
	ReadTimeout time.Duration `mapstructure:"read_timeout"`
}

// LoggingConfig selects the zap encoder and level.
type LoggingConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	OutputFile string `mapstructure:"output_file"`
}

type RatesConfig struct {
	CPIDefault        float64 `mapstructure:"cpi_default"`
	WageGrowthDefault float64 `mapstructure:"wage_growth_default"`
}

type WagesConfig struct {
	AutoBackcast bool `mapstructure:"auto_backcast"`
}

type EngineConfig struct {
	LifeMonths           int   `mapstructure:"life_months"`
	DefaultRetirementAge int   `mapstructure:"default_retirement_age"`
	GoalSeekMaxYears     int   `mapstructure:"goal_seek_max_years"`
	DefaultDelays        []int `mapstructure:"default_delays"`
}

// TablesConfig names the table sources: local paths or http(s) URLs.
// ReloadSchedule is a cron expression; empty disables scheduled reloads.
type TablesConfig struct {
	Assumptions        string        `mapstructure:"assumptions"`
	MentorParams       string        `mapstructure:"mentor_params"`
	AverageBenefit     string        `mapstructure:"average_benefit"`
	SeedAverageBenefit bool          `mapstructure:"seed_average_benefit"`
	SeedBase           float64       `mapstructure:"seed_base"`
	ReloadSchedule     string        `mapstructure:"reload_schedule"`
	FetchTimeout       time.Duration `mapstructure:"fetch_timeout"`
}

type UsageLogConfig struct {
	Path    string `mapstructure:"path"`
	Enabled bool   `mapstructure:"enabled"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.address", ":8080")
	v.SetDefault("server.read_timeout", 10*time.Second)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.output_file", "")

	v.SetDefault("rates.cpi_default", 0.03)
	v.SetDefault("rates.wage_growth_default", 0.03)

	v.SetDefault("wages.auto_backcast", true)

	v.SetDefault("engine.life_months", 240)
	v.SetDefault("engine.default_retirement_age", 60)
	v.SetDefault("engine.goal_seek_max_years", 10)
	v.SetDefault("engine.default_delays", []int{0, 1, 2, 5})

	v.SetDefault("tables.assumptions", "")
	v.SetDefault("tables.mentor_params", "")
	v.SetDefault("tables.average_benefit", "")
	v.SetDefault("tables.seed_average_benefit", true)
	v.SetDefault("tables.seed_base", 3500.0)
	v.SetDefault("tables.reload_schedule", "")
	v.SetDefault("tables.fetch_timeout", 5*time.Second)

	v.SetDefault("usage_log.path", "usage_log.csv")
	v.SetDefault("usage_log.enabled", false)
}

// Default returns the configuration used when no file or env override exists.
func Default() *Config {
	v := viper.New()
	setDefaults(v)
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		panic(fmt.Sprintf("config defaults do not decode: %v", err))
	}
	return &cfg
}

// Load reads envFile (when present) into the process environment, then the
// YAML file at path. An empty path looks for config.yaml in the working
// directory and tolerates its absence; an explicit path must exist.
func Load(path, envFile string) (*Config, error) {
	if envFile == "" {
		envFile = DefaultEnvFile
	}
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load env file %s: %w", envFile, err)
	}

	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	explicit := path != ""
	if !explicit {
		path = DefaultConfigFile
	}
	if _, err := os.Stat(path); err == nil {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	} else if explicit {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects settings the engine cannot run with.
func (c *Config) Validate() error {
	var problems []string
	if c.Engine.LifeMonths < 1 {
		problems = append(problems, "engine.life_months must be at least 1")
	}
	if c.Engine.GoalSeekMaxYears < 0 {
		problems = append(problems, "engine.goal_seek_max_years must not be negative")
	}
	for _, d := range c.Engine.DefaultDelays {
		if d < 0 {
			problems = append(problems, "engine.default_delays must not be negative")
			break
		}
	}
	if c.Rates.CPIDefault <= -1 || c.Rates.WageGrowthDefault <= -1 {
		problems = append(problems, "rates must be greater than -1")
	}
	if c.Tables.SeedBase < 0 {
		problems = append(problems, "tables.seed_base must not be negative")
	}
	switch c.Logging.Format {
	case "", "json", "console":
	default:
		problems = append(problems, fmt.Sprintf("logging.format %q must be json or console", c.Logging.Format))
	}
	if len(problems) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(problems, "; "))
	}
	return nil
}
