package trancebox_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/trancebox/trancebox"
)

func TestParseConfig(t *testing.T) {
	data := []byte(`
samplerate: 48000
lookahead: 50ms
feedbuckets: 16
params:
  filter.cutoff: 800
  bass.active: false
patterns:
  kick:
    division: 8n
    gate: 16n
    steps: [x, "-", x, x@0.5]
`)
	cfg, err := trancebox.ParseConfig(data)
	if err != nil {
		t.Fatalf("ParseConfig failed: %v", err)
	}
	if cfg.SampleRate != 48000 || cfg.Lookahead != 50*time.Millisecond || cfg.FeedBuckets != 16 {
		t.Errorf("unexpected config %+v", cfg)
	}
	if cfg.BlockSize != trancebox.DefaultConfig().BlockSize {
		t.Errorf("blocksize should keep its default, got %v", cfg.BlockSize)
	}
	if cfg.Params["filter.cutoff"] != "800" || cfg.Params["bass.active"] != "false" {
		t.Errorf("unexpected params %v", cfg.Params)
	}
	kick, ok := cfg.Patterns["kick"]
	if !ok || kick.Division != trancebox.Eighth || kick.Gate != trancebox.Sixteenth || len(kick.Steps) != 4 {
		t.Errorf("unexpected kick pattern %+v", kick)
	}
}

func TestParseConfigErrors(t *testing.T) {
	for name, data := range map[string]string{
		"negative rate":   "samplerate: -1",
		"unknown field":   "tempo: 140",
		"bad division":    "patterns: {kick: {division: 3n, gate: 8n, steps: [x]}}",
		"bad duration":    "lookahead: soon",
		"zero fastrelase": "fastrelease: 0s",
	} {
		if _, err := trancebox.ParseConfig([]byte(data)); err == nil {
			t.Errorf("%s: ParseConfig(%q) should have failed", name, data)
		}
	}
}

func TestEmptyConfigIsDefault(t *testing.T) {
	cfg, err := trancebox.ParseConfig(nil)
	if err != nil {
		t.Fatalf("ParseConfig(nil) failed: %v", err)
	}
	if cfg.SampleRate != 44100 || cfg.FeedInterval != 100*time.Millisecond {
		t.Errorf("unexpected defaults %+v", cfg)
	}
}

func TestReadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trancebox.yml")
	if err := os.WriteFile(path, []byte("padvoices: 4\n"), 0644); err != nil {
		t.Fatal(err)
	}
	cfg, err := trancebox.ReadConfigFile(path)
	if err != nil {
		t.Fatalf("ReadConfigFile failed: %v", err)
	}
	if cfg.PadVoices != 4 {
		t.Errorf("padvoices = %v, want 4", cfg.PadVoices)
	}
	if _, err := trancebox.ReadConfigFile(filepath.Join(t.TempDir(), "missing.yml")); err == nil {
		t.Errorf("reading a missing file should fail")
	}
}
