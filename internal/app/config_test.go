package app

import (
	"os"
	"path/filepath"
	"testing"

	"braid/internal/domain"
)

func TestLoadFile_FillsBlanksOnly(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	body := []byte(
		"relay_url: http://relay.example:8080\n" +
			"pq_parameter_set: ml_kem_768\n" +
			"one_time_prekey_count: 25\n" +
			"skipped_key_cap: 80\n" +
			"trace: true\n")
	if err := os.WriteFile(path, body, 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	// Flags already set win over the file.
	cfg := Config{Home: dir, RelayURL: "http://flag-wins:9"}
	if err := cfg.LoadFile(path); err != nil {
		t.Fatalf("LoadFile: %v", err)
	}

	if cfg.RelayURL != "http://flag-wins:9" {
		t.Fatalf("flag overridden by file: %q", cfg.RelayURL)
	}
	if cfg.Param != domain.MLKem768 {
		t.Fatalf("param %q, want ml_kem_768", cfg.Param)
	}
	if cfg.OneTimeCount != 25 || cfg.SkippedKeyCap != 80 || !cfg.Trace {
		t.Fatalf("file values not applied: %+v", cfg)
	}
}

func TestLoadFile_MissingIsFine(t *testing.T) {
	cfg := Config{}
	if err := cfg.LoadFile(filepath.Join(t.TempDir(), "absent.yaml")); err != nil {
		t.Fatalf("missing file errored: %v", err)
	}
}

func TestDefaults(t *testing.T) {
	cfg := Config{}.withDefaults()
	if cfg.Param != domain.MLKem512 {
		t.Fatalf("default param %q, want ml_kem_512", cfg.Param)
	}
	if cfg.SkippedKeyCap != domain.DefaultSkippedKeyCap {
		t.Fatalf("default cap %d, want %d", cfg.SkippedKeyCap, domain.DefaultSkippedKeyCap)
	}
	if cfg.HTTP == nil {
		t.Fatalf("no default http client")
	}
}

func TestNewWire_WithoutRelay(t *testing.T) {
	w, err := NewWire(Config{Home: t.TempDir()})
	if err != nil {
		t.Fatalf("NewWire: %v", err)
	}
	if w.Identity == nil || w.PreKeys == nil {
		t.Fatalf("offline services missing")
	}
	if w.Messages != nil || w.Sessions != nil || w.Groups != nil {
		t.Fatalf("relay-backed services built without a relay")
	}
}

func TestNewWire_WithRelay(t *testing.T) {
	w, err := NewWire(Config{Home: t.TempDir(), RelayURL: "http://127.0.0.1:1"})
	if err != nil {
		t.Fatalf("NewWire: %v", err)
	}
	if w.Messages == nil || w.Sessions == nil || w.Groups == nil || w.Relay == nil {
		t.Fatalf("relay-backed services missing")
	}
}
