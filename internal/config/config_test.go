package config

import (
	"path/filepath"
	"testing"
)

func TestDefaultIsValid(t *testing.T) {
	if err := Validate(Default()); err != nil {
		t.Fatalf("Default() should validate cleanly: %v", err)
	}
}

func TestLoadPreservesExplicitValues(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := Save(&Config{DefaultNTrials: 500, MaxNTrials: 1000, MaxParallelism: 8, MaxConcurrentSimulations: 1, MaxTreeDepth: 10, DefaultTrialParallelism: 2}, path); err != nil {
		t.Fatalf("Save: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.DefaultNTrials != 500 {
		t.Errorf("DefaultNTrials = %d, want 500 (explicit value preserved)", cfg.DefaultNTrials)
	}
}

func TestLoadMissingFileReturnsError(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestValidateRejectsDefaultNTrialsAboveMax(t *testing.T) {
	cfg := Default()
	cfg.DefaultNTrials = cfg.MaxNTrials + 1
	if err := Validate(cfg); err == nil {
		t.Fatal("expected error when defaultNTrials exceeds maxNTrials")
	}
}

func TestValidateRejectsZeroMaxConcurrentSimulations(t *testing.T) {
	cfg := Default()
	cfg.MaxConcurrentSimulations = 0
	if err := Validate(cfg); err == nil {
		t.Fatal("expected error for maxConcurrentSimulations == 0")
	}
}

func TestSaveThenLoadRoundTrips(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	original := Default()
	original.DefaultSeed3 = 42
	if err := Save(original, path); err != nil {
		t.Fatalf("Save: %v", err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.DefaultSeed3 != 42 {
		t.Errorf("DefaultSeed3 = %d, want 42", loaded.DefaultSeed3)
	}
}
