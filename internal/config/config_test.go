package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/loykin/daprwatch/internal/lister"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "daprwatch.toml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadFull(t *testing.T) {
	path := writeConfig(t, `
process_name = "daprd-edge"
process_path = "/opt/dapr/daprd-edge"
interval = "5s"

[log]
level = "debug"
file = "/tmp/daprwatch.log"

[server]
listen = ":8081"
base_path = "/api"

[metrics]
enabled = true
listen = ":9091"
`)
	fc, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if fc.ProcessName != "daprd-edge" || fc.ProcessPath != "/opt/dapr/daprd-edge" {
		t.Fatalf("process filter fields wrong: %+v", fc)
	}
	if fc.Interval != 5*time.Second {
		t.Fatalf("interval = %v, want 5s", fc.Interval)
	}
	if fc.Log == nil || fc.Log.Level != "debug" {
		t.Fatalf("log config not decoded: %+v", fc.Log)
	}
	if fc.Server == nil || fc.Server.Listen != ":8081" || fc.Server.BasePath != "/api" {
		t.Fatalf("server config not decoded: %+v", fc.Server)
	}
	if fc.Metrics == nil || !fc.Metrics.Enabled || fc.Metrics.Listen != ":9091" {
		t.Fatalf("metrics config not decoded: %+v", fc.Metrics)
	}

	want := lister.Filter{Name: "daprd-edge", Path: "/opt/dapr/daprd-edge"}
	if fc.Filter() != want {
		t.Fatalf("filter = %+v, want %+v", fc.Filter(), want)
	}
}

func TestLoadDefaults(t *testing.T) {
	path := writeConfig(t, "")
	fc, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if fc.ProcessName != "daprd" {
		t.Fatalf("default process name = %q", fc.ProcessName)
	}
	if fc.Interval != 2*time.Second {
		t.Fatalf("default interval = %v", fc.Interval)
	}
	if fc.ProcessPath != "" {
		t.Fatalf("path override should default to absent, got %q", fc.ProcessPath)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.toml")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}
