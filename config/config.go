// Package config loads warren's settings from YAML, the environment and
// built-in defaults.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/nstehr/warren/goals"
	"github.com/nstehr/warren/scheduler"
	"github.com/nstehr/warren/spawn"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// EnvPrefix is prepended to environment overrides, e.g. WARREN_LOG_LEVEL.
const EnvPrefix = "WARREN"

type Config struct {
	Socket       string            `mapstructure:"socket" yaml:"socket"`
	LogLevel     string            `mapstructure:"log_level" yaml:"log_level"`
	MetricsAddr  string            `mapstructure:"metrics_addr" yaml:"metrics_addr"`
	ObserverAddr string            `mapstructure:"observer_addr" yaml:"observer_addr"`
	JournalDir   string            `mapstructure:"journal_dir" yaml:"journal_dir"`
	Scheduler    scheduler.Options `mapstructure:"scheduler" yaml:"scheduler"`
	Spawn        spawn.Options     `mapstructure:"spawn" yaml:"spawn"`
	Goals        []goals.Template  `mapstructure:"goals" yaml:"goals"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Socket:       "/tmp/warren.sock",
		LogLevel:     "info",
		MetricsAddr:  ":9464",
		ObserverAddr: ":8085",
		JournalDir:   "journal",
		Scheduler:    scheduler.DefaultOptions(),
		Spawn:        spawn.DefaultOptions(),
		Goals:        goals.DefaultTemplates(),
	}
}

// Validate clamps out-of-range values back to something workable.
// An empty address disables the matching server.
func (c *Config) Validate() {
	d := Default()
	if c.Socket == "" {
		c.Socket = d.Socket
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		c.LogLevel = d.LogLevel
	}
	c.Scheduler.RepairLimit = clampInt(c.Scheduler.RepairLimit, 0, 64)
	c.Scheduler.AttackSlots = clampInt(c.Scheduler.AttackSlots, 1, 16)
	c.Scheduler.DowngradeThreshold = max(0, c.Scheduler.DowngradeThreshold)
	c.Scheduler.ClaimAnchorX = clampInt(c.Scheduler.ClaimAnchorX, 1, 48)
	c.Scheduler.ClaimAnchorY = clampInt(c.Scheduler.ClaimAnchorY, 1, 48)
	if c.Scheduler.TickBudget <= 0 {
		c.Scheduler.TickBudget = d.Scheduler.TickBudget
	}
	if c.Spawn.WorkerArchetype == "" {
		c.Spawn.WorkerArchetype = d.Spawn.WorkerArchetype
	}
	c.Spawn.WorkerFloor = clampInt(c.Spawn.WorkerFloor, 0, 32)
	for i := range c.Goals {
		c.Goals[i].Validate()
	}
}

// ParseLevel maps a log_level string to a slog level.
func ParseLevel(s string) (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("log level %q: %w", s, err)
	}
	return l, nil
}

// Marshal renders the config as YAML.
func Marshal(c Config) ([]byte, error) {
	out, err := yaml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("marshal config: %w", err)
	}
	return out, nil
}

// Loader reads the config through viper and can watch the file for edits.
type Loader struct {
	v    *viper.Viper
	path string
}

// NewLoader prepares a loader. path may be empty, in which case only
// defaults and environment variables apply.
func NewLoader(path string) *Loader {
	v := viper.New()
	v.SetConfigType("yaml")
	if path != "" {
		v.SetConfigFile(path)
	}
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v, Default())
	return &Loader{v: v, path: path}
}

func setDefaults(v *viper.Viper, d Config) {
	v.SetDefault("socket", d.Socket)
	v.SetDefault("log_level", d.LogLevel)
	v.SetDefault("metrics_addr", d.MetricsAddr)
	v.SetDefault("observer_addr", d.ObserverAddr)
	v.SetDefault("journal_dir", d.JournalDir)
	v.SetDefault("scheduler.repair_limit", d.Scheduler.RepairLimit)
	v.SetDefault("scheduler.downgrade_threshold", d.Scheduler.DowngradeThreshold)
	v.SetDefault("scheduler.attack_slots", d.Scheduler.AttackSlots)
	v.SetDefault("scheduler.exempt", d.Scheduler.Exempt)
	v.SetDefault("scheduler.claim_anchor_x", d.Scheduler.ClaimAnchorX)
	v.SetDefault("scheduler.claim_anchor_y", d.Scheduler.ClaimAnchorY)
	v.SetDefault("scheduler.tick_budget", d.Scheduler.TickBudget)
	v.SetDefault("spawn.worker_archetype", d.Spawn.WorkerArchetype)
	v.SetDefault("spawn.worker_floor", d.Spawn.WorkerFloor)
}

// Load reads the file (if any), applies environment overrides and validates.
func (l *Loader) Load() (Config, error) {
	if l.path != "" {
		if err := l.v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", l.path, err)
		}
	}
	cfg := Default()
	cfg.Goals = nil
	if err := l.v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	if len(cfg.Goals) == 0 {
		cfg.Goals = goals.DefaultTemplates()
	}
	cfg.Validate()
	return cfg, nil
}

// Load is NewLoader(path).Load().
func Load(path string) (Config, error) {
	return NewLoader(path).Load()
}

// ErrNoFile is returned by Watch when the loader has no file to watch.
var ErrNoFile = errors.New("no config file to watch")

// Watch re-reads the config whenever the file changes and hands the result
// to onChange. Bad edits are logged and skipped.
func (l *Loader) Watch(onChange func(Config)) error {
	if l.path == "" {
		return ErrNoFile
	}
	var last time.Time
	l.v.OnConfigChange(func(e fsnotify.Event) {
		if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
			return
		}
		// Editors often emit several events per save.
		if time.Since(last) < 100*time.Millisecond {
			return
		}
		last = time.Now()
		cfg, err := l.Load()
		if err != nil {
			slog.Error("config reload failed", "file", e.Name, "error", err)
			return
		}
		slog.Info("config reloaded", "file", e.Name, "goals", len(cfg.Goals))
		onChange(cfg)
	})
	l.v.WatchConfig()
	return nil
}

// clampInt restricts v to [lo, hi].
func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
