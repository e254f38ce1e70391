package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/ikstudios/step-counter/internal/gate"
	"github.com/ikstudios/step-counter/internal/report"
	"github.com/ikstudios/step-counter/internal/telemetry"
)

// Config holds application configuration.
type Config struct {
	Database     DatabaseConfig     `mapstructure:"database"`
	Fit          FitConfig          `mapstructure:"fit"`
	Device       DeviceConfig       `mapstructure:"device"`
	Permission   PermissionConfig   `mapstructure:"permission"`
	Auth         AuthConfig         `mapstructure:"auth"`
	Continuation ContinuationConfig `mapstructure:"continuation"`
	Report       ReportConfig       `mapstructure:"report"`
	Log          LogConfig          `mapstructure:"log"`
	Telemetry    TelemetryConfig    `mapstructure:"telemetry"`
}

// DatabaseConfig holds sqlite settings.
type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

// FitConfig points at the data channel server. Empty means the local
// store answers channel calls in process.
type FitConfig struct {
	Addr string `mapstructure:"addr"`
}

// DeviceConfig holds device settings. Timezone is an IANA name; empty
// uses the host's local zone.
type DeviceConfig struct {
	Timezone string `mapstructure:"timezone"`
}

// PermissionConfig names the runtime permission and whether the
// platform gates it at all.
type PermissionConfig struct {
	Name     string `mapstructure:"name"`
	Required bool   `mapstructure:"required"`
}

// AuthConfig lists the scopes the identity must hold.
type AuthConfig struct {
	Scopes []string `mapstructure:"scopes"`
}

// ContinuationConfig bounds how long a suspended action blocks a retrigger.
type ContinuationConfig struct {
	TTL time.Duration `mapstructure:"ttl"`
}

// ReportConfig holds report assembly settings.
type ReportConfig struct {
	Mode    string        `mapstructure:"mode"`
	Timeout time.Duration `mapstructure:"timeout"`
	Locale  string        `mapstructure:"locale"`
}

// LogConfig holds diagnostics settings.
type LogConfig struct {
	Level     string `mapstructure:"level"`
	EchoLines int    `mapstructure:"echo_lines"`
}

// TelemetryConfig controls OTLP export.
type TelemetryConfig struct {
	Enabled      bool    `mapstructure:"enabled"`
	OTLPEndpoint string  `mapstructure:"otlp_endpoint"`
	Insecure     bool    `mapstructure:"insecure"`
	SampleRate   float64 `mapstructure:"sample_rate"`
}

// Load reads configuration from file and env. Env var overrides use prefix STEPCOUNTER_.
func Load() (Config, error) {
	v := viper.New()

	// default values
	defaults := gate.DefaultGateConfig()
	v.SetDefault("database.path", filepath.Join(os.Getenv("HOME"), ".local", "share", "step-counter", "step-counter.db"))
	v.SetDefault("fit.addr", "")
	v.SetDefault("device.timezone", "")
	v.SetDefault("permission.name", defaults.Permission)
	v.SetDefault("permission.required", true)
	v.SetDefault("auth.scopes", scopeStrings(defaults.Scopes))
	v.SetDefault("continuation.ttl", defaults.ContinuationTTL)
	v.SetDefault("report.mode", string(report.ModeAwait))
	v.SetDefault("report.timeout", 10*time.Second)
	v.SetDefault("report.locale", "en-US")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.echo_lines", 200)
	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("telemetry.otlp_endpoint", "localhost:4317")
	v.SetDefault("telemetry.insecure", true)
	v.SetDefault("telemetry.sample_rate", 1.0)

	v.SetConfigType("toml")

	cfgPath := os.Getenv("STEPCOUNTER_CONFIG")
	if cfgPath != "" {
		v.SetConfigFile(cfgPath)
	} else {
		v.AddConfigPath(filepath.Join(os.Getenv("HOME"), ".config", "step-counter"))
		v.SetConfigName("config")
	}

	v.SetEnvPrefix("STEPCOUNTER")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// read config file if present
	_ = v.ReadInConfig()

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	return c, nil
}

// Save writes the provided config to disk, creating the config directory if needed.
func Save(cfg Config) error {
	path := os.Getenv("STEPCOUNTER_CONFIG")
	if path == "" {
		path = filepath.Join(os.Getenv("HOME"), ".config", "step-counter", "config.toml")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("mkdir config dir: %w", err)
	}

	v := viper.New()
	v.SetConfigType("toml")
	v.Set("database.path", cfg.Database.Path)
	v.Set("fit.addr", cfg.Fit.Addr)
	v.Set("device.timezone", cfg.Device.Timezone)
	v.Set("permission.name", cfg.Permission.Name)
	v.Set("permission.required", cfg.Permission.Required)
	v.Set("auth.scopes", cfg.Auth.Scopes)
	v.Set("continuation.ttl", cfg.Continuation.TTL.String())
	v.Set("report.mode", cfg.Report.Mode)
	v.Set("report.timeout", cfg.Report.Timeout.String())
	v.Set("report.locale", cfg.Report.Locale)
	v.Set("log.level", cfg.Log.Level)
	v.Set("log.echo_lines", cfg.Log.EchoLines)
	v.Set("telemetry.enabled", cfg.Telemetry.Enabled)
	v.Set("telemetry.otlp_endpoint", cfg.Telemetry.OTLPEndpoint)
	v.Set("telemetry.insecure", cfg.Telemetry.Insecure)
	v.Set("telemetry.sample_rate", cfg.Telemetry.SampleRate)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// #region conversions
// Location resolves the device timezone.
func (c Config) Location() (*time.Location, error) {
	if c.Device.Timezone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Device.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", c.Device.Timezone, err)
	}
	return loc, nil
}

// GateConfig builds the gate settings, keeping the default prompt texts.
func (c Config) GateConfig() gate.GateConfig {
	g := gate.DefaultGateConfig()
	if c.Permission.Name != "" {
		g.Permission = c.Permission.Name
	}
	if len(c.Auth.Scopes) > 0 {
		g.Scopes = make([]gate.Scope, len(c.Auth.Scopes))
		for i, s := range c.Auth.Scopes {
			g.Scopes[i] = gate.Scope(s)
		}
	}
	g.ContinuationTTL = c.Continuation.TTL
	return g
}

// ReportConfig builds the aggregator settings.
func (c Config) ReportConfig() (report.Config, error) {
	loc, err := c.Location()
	if err != nil {
		return report.Config{}, err
	}
	mode, err := report.ParseMode(c.Report.Mode)
	if err != nil {
		return report.Config{}, err
	}
	return report.Config{
		Mode:     mode,
		Timeout:  c.Report.Timeout,
		Location: loc,
		Locale:   c.Report.Locale,
	}, nil
}

// TelemetryConfig builds the exporter settings.
func (c Config) TelemetryConfig() telemetry.Config {
	t := telemetry.DefaultConfig()
	t.Enabled = c.Telemetry.Enabled
	if c.Telemetry.OTLPEndpoint != "" {
		t.OTLPEndpoint = c.Telemetry.OTLPEndpoint
	}
	t.Insecure = c.Telemetry.Insecure
	t.SampleRate = c.Telemetry.SampleRate
	return t
}

func scopeStrings(scopes []gate.Scope) []string {
	out := make([]string, len(scopes))
	for i, s := range scopes {
		out[i] = string(s)
	}
	return out
}
// #endregion conversions
