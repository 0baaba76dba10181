// Package config loads controller settings from configs/config.yml, CHAMBER_*
// environment variables and bound command-line flags, in increasing priority.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"chamber_control/internal/actuator"
	"chamber_control/internal/logger"
	"chamber_control/internal/schedule"
	"chamber_control/internal/sensor"

	"github.com/spf13/viper"
)

const (
	EnvPrefix = "CHAMBER"

	TargetBackendFile   = "file"
	TargetBackendSQLite = "sqlite"

	defaultConfigDir  = "configs"
	defaultConfigName = "config"
)

var (
	ErrNoDirectory   = errors.New("config: log directory not set (use --directory)")
	ErrNotADirectory = errors.New("config: log directory is not a directory")
)

type SensorConfig struct {
	Prefix      string `mapstructure:"prefix"`
	Ext         string `mapstructure:"ext"`
	TempColumns []int  `mapstructure:"temp_columns"`
	MinColumns  int    `mapstructure:"min_columns"`
}

type ActuatorsConfig struct {
	Driver      string        `mapstructure:"driver"` // kasa | log
	KasaPath    string        `mapstructure:"kasa_path"`
	KasaTimeout time.Duration `mapstructure:"kasa_timeout"`
	LightHost   string        `mapstructure:"light_host"`
	HeaterHost  string        `mapstructure:"heater_host"`
}

type TargetConfig struct {
	Backend string `mapstructure:"backend"` // file | sqlite
	Path    string `mapstructure:"path"`
}

type DBConfig struct {
	Path string `mapstructure:"path"`
}

type HTTPConfig struct {
	// empty disables the status API
	Port string `mapstructure:"port"`
}

// Config is the full controller configuration.
type Config struct {
	LogLevel     string           `mapstructure:"log_level"`
	Directory    string           `mapstructure:"directory"`
	PollInterval time.Duration    `mapstructure:"poll_interval"`
	IncrementC   float64          `mapstructure:"increment_c"`
	WarmUp       time.Duration    `mapstructure:"warmup"`
	Sensor       SensorConfig     `mapstructure:"sensor"`
	Actuators    ActuatorsConfig  `mapstructure:"actuators"`
	Target       TargetConfig     `mapstructure:"target"`
	DB           DBConfig         `mapstructure:"db"`
	HTTP         HTTPConfig       `mapstructure:"http"`
	Schedule     []schedule.Entry `mapstructure:"schedule"`
}

// SetDefaults registers every key so env overrides work for all of them.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("log_level", logger.InfoLevel)
	v.SetDefault("directory", "")
	v.SetDefault("poll_interval", 20*time.Second)
	v.SetDefault("increment_c", 2.0)
	v.SetDefault("warmup", time.Duration(0))

	v.SetDefault("sensor.prefix", sensor.DefaultPrefix)
	v.SetDefault("sensor.ext", sensor.DefaultExt)
	v.SetDefault("sensor.temp_columns", []int{sensor.DefaultColumns[0], sensor.DefaultColumns[1]})
	v.SetDefault("sensor.min_columns", sensor.DefaultMinColumns)

	v.SetDefault("actuators.driver", actuator.DriverKasa)
	v.SetDefault("actuators.kasa_path", "kasa")
	v.SetDefault("actuators.kasa_timeout", actuator.DefaultKasaTimeout)
	v.SetDefault("actuators.light_host", "")
	v.SetDefault("actuators.heater_host", "")

	v.SetDefault("target.backend", TargetBackendFile)
	v.SetDefault("target.path", "target_temperature.txt")

	v.SetDefault("db.path", "chamber.db")
	v.SetDefault("http.port", "8080")
}

// New returns a viper instance with defaults and env binding in place.
func New() *viper.Viper {
	v := viper.New()
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads the config file into v and decodes the result. An explicit file
// must exist; the default configs/config.yml is optional.
func Load(v *viper.Viper, file string) (*Config, error) {
	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.AddConfigPath(defaultConfigDir)
		v.SetConfigName(defaultConfigName)
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if file != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("config: read: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: decode: %w", err)
	}
	return &cfg, nil
}

// SensorOptions converts the sensor section for sensor.NewReader.
func (c *Config) SensorOptions() sensor.Options {
	opts := sensor.Options{
		Prefix:     c.Sensor.Prefix,
		Ext:        c.Sensor.Ext,
		MinColumns: c.Sensor.MinColumns,
	}
	if len(c.Sensor.TempColumns) == 2 {
		opts.Columns = [2]int{c.Sensor.TempColumns[0], c.Sensor.TempColumns[1]}
	}
	return opts
}

// ParseSchedule validates the schedule section.
func (c *Config) ParseSchedule() (schedule.Schedule, error) {
	return schedule.Parse(c.Schedule)
}

// ValidateDirectory checks that the log directory exists.
func (c *Config) ValidateDirectory() error {
	if c.Directory == "" {
		return ErrNoDirectory
	}
	fi, err := os.Stat(c.Directory)
	if err != nil {
		return fmt.Errorf("config: log directory: %w", err)
	}
	if !fi.IsDir() {
		return fmt.Errorf("%w: %s", ErrNotADirectory, c.Directory)
	}
	return nil
}

// Validate performs the startup checks of the run command. All problems are
// reported together.
func (c *Config) Validate() error {
	var errs []error
	if err := c.ValidateDirectory(); err != nil {
		errs = append(errs, err)
	}
	if _, err := c.ParseSchedule(); err != nil {
		errs = append(errs, err)
	}
	if err := c.ValidateActuators(); err != nil {
		errs = append(errs, err)
	}
	if !logger.ValidLevel(c.LogLevel) {
		errs = append(errs, fmt.Errorf("config: unknown log_level %q", c.LogLevel))
	}
	if c.PollInterval <= 0 {
		errs = append(errs, fmt.Errorf("config: poll_interval must be positive, got %s", c.PollInterval))
	}
	if c.IncrementC <= 0 {
		errs = append(errs, fmt.Errorf("config: increment_c must be positive, got %v", c.IncrementC))
	}
	if c.WarmUp < 0 {
		errs = append(errs, fmt.Errorf("config: warmup must not be negative, got %s", c.WarmUp))
	}
	if err := c.validateSensor(); err != nil {
		errs = append(errs, err)
	}
	switch c.Target.Backend {
	case TargetBackendFile, TargetBackendSQLite:
	default:
		errs = append(errs, fmt.Errorf("config: unknown target.backend %q", c.Target.Backend))
	}
	return errors.Join(errs...)
}

// ValidateActuators checks the driver section; the off command needs only
// this part of the configuration.
func (c *Config) ValidateActuators() error {
	switch c.Actuators.Driver {
	case actuator.DriverLog:
		return nil
	case actuator.DriverKasa:
		if c.Actuators.LightHost == "" || c.Actuators.HeaterHost == "" {
			return errors.New("config: kasa driver needs actuators.light_host and actuators.heater_host")
		}
		return nil
	default:
		return fmt.Errorf("config: unknown actuators.driver %q", c.Actuators.Driver)
	}
}

func (c *Config) validateSensor() error {
	cols := c.Sensor.TempColumns
	if len(cols) != 2 {
		return fmt.Errorf("config: sensor.temp_columns needs exactly 2 entries, got %d", len(cols))
	}
	if cols[0] < 0 || cols[1] < 0 {
		return fmt.Errorf("config: sensor.temp_columns must not be negative: %v", cols)
	}
	if m := max(cols[0], cols[1]); c.Sensor.MinColumns <= m {
		return fmt.Errorf("config: sensor.min_columns (%d) must exceed the highest temperature column (%d)", c.Sensor.MinColumns, m)
	}
	return nil
}
