package config

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/ikstudios/step-counter/internal/report"
)

func isolate(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("STEPCOUNTER_CONFIG", "")
	return home
}

func TestLoad_Defaults(t *testing.T) {
	home := isolate(t)

	c, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if want := filepath.Join(home, ".local", "share", "step-counter", "step-counter.db"); c.Database.Path != want {
		t.Errorf("expected db path %s, got %s", want, c.Database.Path)
	}
	if c.Report.Mode != "await" || c.Report.Timeout != 10*time.Second {
		t.Errorf("unexpected report defaults: %+v", c.Report)
	}
	if c.Continuation.TTL != 10*time.Minute {
		t.Errorf("expected 10m ttl, got %s", c.Continuation.TTL)
	}
	if len(c.Auth.Scopes) != 2 || !c.Permission.Required {
		t.Errorf("unexpected gate defaults: %+v %+v", c.Auth, c.Permission)
	}
	if c.Telemetry.Enabled || c.Telemetry.SampleRate != 1.0 {
		t.Errorf("unexpected telemetry defaults: %+v", c.Telemetry)
	}
	if c.Log.EchoLines != 200 {
		t.Errorf("expected 200 echo lines, got %d", c.Log.EchoLines)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	isolate(t)
	t.Setenv("STEPCOUNTER_REPORT_MODE", "snapshot")
	t.Setenv("STEPCOUNTER_REPORT_TIMEOUT", "3s")
	t.Setenv("STEPCOUNTER_FIT_ADDR", "localhost:7443")

	c, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.Report.Mode != "snapshot" || c.Report.Timeout != 3*time.Second {
		t.Errorf("env overrides not applied: %+v", c.Report)
	}
	if c.Fit.Addr != "localhost:7443" {
		t.Errorf("expected fit addr override, got %q", c.Fit.Addr)
	}
}

func TestSaveThenLoad(t *testing.T) {
	home := isolate(t)
	path := filepath.Join(home, "custom", "step-counter.toml")
	t.Setenv("STEPCOUNTER_CONFIG", path)

	c, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	c.Device.Timezone = "America/Chicago"
	c.Report.Locale = "de-DE"
	c.Continuation.TTL = 90 * time.Second
	c.Auth.Scopes = []string{"fitness.activity.read"}
	if err := Save(c); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := Load()
	if err != nil {
		t.Fatalf("Load after save: %v", err)
	}
	if got.Device.Timezone != "America/Chicago" || got.Report.Locale != "de-DE" {
		t.Errorf("saved values not reloaded: %+v %+v", got.Device, got.Report)
	}
	if got.Continuation.TTL != 90*time.Second {
		t.Errorf("expected 90s ttl, got %s", got.Continuation.TTL)
	}
	if len(got.Auth.Scopes) != 1 {
		t.Errorf("expected 1 scope, got %v", got.Auth.Scopes)
	}
}

func TestConversions(t *testing.T) {
	c := Config{
		Permission:   PermissionConfig{Name: "perm.X", Required: true},
		Auth:         AuthConfig{Scopes: []string{"a", "b", "c"}},
		Continuation: ContinuationConfig{TTL: time.Minute},
		Report:       ReportConfig{Mode: "snapshot", Timeout: time.Second, Locale: "en-US"},
		Device:       DeviceConfig{Timezone: "UTC"},
	}

	g := c.GateConfig()
	if g.Permission != "perm.X" || len(g.Scopes) != 3 || g.ContinuationTTL != time.Minute {
		t.Errorf("unexpected gate config: %+v", g)
	}
	if g.RationaleText == "" {
		t.Error("expected default rationale text to survive")
	}

	r, err := c.ReportConfig()
	if err != nil {
		t.Fatalf("ReportConfig: %v", err)
	}
	if r.Mode != report.ModeSnapshot || r.Location != time.UTC {
		t.Errorf("unexpected report config: %+v", r)
	}

	c.Device.Timezone = "Not/AZone"
	if _, err := c.ReportConfig(); err == nil {
		t.Error("expected error for bad timezone")
	}
}

func TestReportConfig_RejectsUnknownMode(t *testing.T) {
	c := Config{Report: ReportConfig{Mode: "snapshop", Timeout: time.Second, Locale: "en-US"}}

	if _, err := c.ReportConfig(); !errors.Is(err, report.ErrUnknownMode) {
		t.Fatalf("expected ErrUnknownMode, got %v", err)
	}
}
