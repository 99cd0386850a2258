package config

import (
	"errors"
	"log"
	"strings"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// StudioConfig holds business settings for the studio. It lives in a
// yml file so the studio can tune it without a redeploy.
type StudioConfig struct {
	// TimeZone is the studio's local time zone. Month boundaries are
	// computed in this zone, never in UTC.
	TimeZone string `mapstructure:"timeZone"`

	// MinDayThreshold is the earliest day of the month on which the
	// automatic monthly statement run is allowed to fire, leaving a
	// settling buffer after month-end.
	MinDayThreshold int `mapstructure:"minDayThreshold"`

	// DefaultCommissionPercent applies when an artist has no explicit
	// commission configuration.
	DefaultCommissionPercent int `mapstructure:"defaultCommissionPercent"`
}

func DefaultStudioConfig() StudioConfig {
	return StudioConfig{
		TimeZone:                 "America/Sao_Paulo",
		MinDayThreshold:          2,
		DefaultCommissionPercent: 30,
	}
}

// withDefaults fills unset fields, so a studio.yml that sets only some
// keys still yields a complete config.
func (c StudioConfig) withDefaults() StudioConfig {
	defaults := DefaultStudioConfig()
	if strings.TrimSpace(c.TimeZone) == "" {
		c.TimeZone = defaults.TimeZone
	}
	if c.MinDayThreshold <= 0 {
		c.MinDayThreshold = defaults.MinDayThreshold
	}
	if c.DefaultCommissionPercent <= 0 {
		c.DefaultCommissionPercent = defaults.DefaultCommissionPercent
	}
	return c
}

// Location resolves the configured time zone, falling back to UTC when
// the zone name is unknown.
func (c StudioConfig) Location() *time.Location {
	loc, err := time.LoadLocation(c.TimeZone)
	if err != nil {
		return time.UTC
	}
	return loc
}

type StudioConfigHolder struct {
	current atomic.Value // holds StudioConfig
}

func NewStudioConfigHolder() (*StudioConfigHolder, error) {
	v := viper.New()

	v.SetConfigName("studio")
	v.SetConfigType("yml")
	v.AddConfigPath("/var/lib/atelier/config")
	v.AddConfigPath("/etc/atelier")
	v.AddConfigPath(".")

	v.SetEnvPrefix("ATELIER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	defaults := DefaultStudioConfig()
	v.SetDefault("studio.timeZone", defaults.TimeZone)
	v.SetDefault("studio.minDayThreshold", defaults.MinDayThreshold)
	v.SetDefault("studio.defaultCommissionPercent", defaults.DefaultCommissionPercent)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	cfg, err := loadStudioConfig(v)
	if err != nil {
		return nil, err
	}

	holder := &StudioConfigHolder{}
	holder.current.Store(cfg)

	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		updated, err := loadStudioConfig(v)
		if err != nil {
			log.Printf("[studio-config] invalid config ignored: %v", err)
			return
		}
		holder.current.Store(updated)
		log.Printf("[studio-config] reloaded from %s", e.Name)
	})

	return holder, nil
}

func loadStudioConfig(v *viper.Viper) (StudioConfig, error) {
	var cfg StudioConfig
	if err := v.UnmarshalKey("studio", &cfg); err != nil {
		return StudioConfig{}, err
	}
	cfg = cfg.withDefaults()
	if err := validateStudioConfig(cfg); err != nil {
		return StudioConfig{}, err
	}
	return cfg, nil
}

// NewStaticStudioConfigHolder wraps a fixed config, used by tests.
func NewStaticStudioConfigHolder(cfg StudioConfig) *StudioConfigHolder {
	holder := &StudioConfigHolder{}
	holder.current.Store(cfg)
	return holder
}

func (h *StudioConfigHolder) Get() StudioConfig {
	return h.current.Load().(StudioConfig)
}

func validateStudioConfig(cfg StudioConfig) error {
	if strings.TrimSpace(cfg.TimeZone) == "" {
		return errors.New("studio.timeZone cannot be empty")
	}
	if _, err := time.LoadLocation(cfg.TimeZone); err != nil {
		return errors.New("studio.timeZone is not a valid IANA zone")
	}
	if cfg.MinDayThreshold < 1 || cfg.MinDayThreshold > 28 {
		return errors.New("studio.minDayThreshold must be between 1 and 28")
	}
	return nil
}
