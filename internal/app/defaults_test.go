package app

import (
	"path/filepath"
	"testing"
)

func TestGetDefaults(t *testing.T) {
	t.Run("environment overrides", func(t *testing.T) {
		t.Setenv("SCHEDSYNC_CONFIG_PATH", "/etc/schedsync/config.toml")
		t.Setenv("SCHEDSYNC_HOME", "/srv/schedsync")

		defaults, err := GetDefaults()
		if err != nil {
			t.Fatalf("GetDefaults() error = %v", err)
		}
		if defaults["config_path"] != "/etc/schedsync/config.toml" {
			t.Errorf("config_path = %q, want the override", defaults["config_path"])
		}
		if defaults["base_dir"] != "/srv/schedsync" {
			t.Errorf("base_dir = %q, want the override", defaults["base_dir"])
		}
		if defaults["log_dir"] != filepath.Join("/srv/schedsync", "log") {
			t.Errorf("log_dir = %q, want it under the base dir", defaults["log_dir"])
		}
	})

	t.Run("home fallbacks", func(t *testing.T) {
		t.Setenv("SCHEDSYNC_CONFIG_PATH", "")
		t.Setenv("SCHEDSYNC_HOME", "")
		t.Setenv("HOME", "/home/alice")

		defaults, err := GetDefaults()
		if err != nil {
			t.Fatalf("GetDefaults() error = %v", err)
		}
		if defaults["config_path"] != "/home/alice/.config/schedsync.toml" {
			t.Errorf("config_path = %q, want the home default", defaults["config_path"])
		}
		if defaults["base_dir"] != "/home/alice/.local/share/schedsync" {
			t.Errorf("base_dir = %q, want the home default", defaults["base_dir"])
		}
	})
}

func TestOperation(t *testing.T) {
	op := NewOperation("Answer", "event=e-1")

	if op.Persisted() {
		t.Error("fresh operation should not read as persisted")
	}
	if op.Status != "success" {
		t.Errorf("status = %q, want the optimistic default %q", op.Status, "success")
	}

	op.ID = 7
	if !op.Persisted() {
		t.Error("operation with an id should read as persisted")
	}
}
