package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeEnvFile(t *testing.T, home, content string) {
	t.Helper()
	if err := os.MkdirAll(home, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(home, EnvFileName), []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestLoadMissingEnvFile(t *testing.T) {
	home := t.TempDir()

	cfg, warnings, err := Load(home)
	if err != nil {
		t.Fatalf("Load() unexpected error: %v", err)
	}

	if cfg.CPUs != 0 || cfg.MemoryGB != 0 {
		t.Errorf("expected zero overrides, got cpus=%d memory=%d", cfg.CPUs, cfg.MemoryGB)
	}

	if len(warnings) != 1 {
		t.Fatalf("expected 1 warning for missing env file, got %d: %v", len(warnings), warnings)
	}
	if !strings.Contains(warnings[0], EnvFileName) {
		t.Errorf("warning should mention %s: %q", EnvFileName, warnings[0])
	}
}

func TestLoadEnvFile(t *testing.T) {
	home := t.TempDir()
	external := t.TempDir()

	writeEnvFile(t, home,
		"# powerdev overrides\n"+
			"POWERDEV_CPUS=12\n"+
			"POWERDEV_MEMORY_GB=64\n"+
			"EXTERNAL_DIR="+external+"\n"+
			"POWERDEV_GPU=true\n")

	cfg, warnings, err := Load(home)
	if err != nil {
		t.Fatalf("Load() unexpected error: %v", err)
	}

	if len(warnings) != 0 {
		t.Errorf("unexpected warnings: %v", warnings)
	}
	if cfg.CPUs != 12 {
		t.Errorf("CPUs = %d, want 12", cfg.CPUs)
	}
	if cfg.MemoryGB != 64 {
		t.Errorf("MemoryGB = %d, want 64", cfg.MemoryGB)
	}
	if cfg.ExternalDir != external {
		t.Errorf("ExternalDir = %q, want %q", cfg.ExternalDir, external)
	}
	if !cfg.GPU {
		t.Error("GPU = false, want true")
	}
}

func TestLoadProcessEnvOverridesFile(t *testing.T) {
	home := t.TempDir()
	writeEnvFile(t, home, "POWERDEV_CPUS=12\n")

	t.Setenv("POWERDEV_CPUS", "4")

	cfg, _, err := Load(home)
	if err != nil {
		t.Fatalf("Load() unexpected error: %v", err)
	}

	if cfg.CPUs != 4 {
		t.Errorf("CPUs = %d, want process env value 4", cfg.CPUs)
	}
}

func TestLoadMissingExternalDir(t *testing.T) {
	home := t.TempDir()
	writeEnvFile(t, home, "EXTERNAL_DIR=/nonexistent/project\n")

	cfg, warnings, err := Load(home)
	if err != nil {
		t.Fatalf("Load() unexpected error: %v", err)
	}

	if cfg.ExternalDir != "" {
		t.Errorf("ExternalDir = %q, want cleared", cfg.ExternalDir)
	}
	if cfg.ResolvedExternalDir() != cfg.DefaultExternalDir() {
		t.Errorf("ResolvedExternalDir = %q, want default %q", cfg.ResolvedExternalDir(), cfg.DefaultExternalDir())
	}

	found := false
	for _, w := range warnings {
		if strings.Contains(w, "EXTERNAL_DIR") {
			found = true
		}
	}
	if !found {
		t.Errorf("expected EXTERNAL_DIR warning, got %v", warnings)
	}
}

func TestEnsureTree(t *testing.T) {
	home := t.TempDir()
	cfg := &Config{Home: home}

	if err := cfg.EnsureTree(); err != nil {
		t.Fatalf("EnsureTree() error: %v", err)
	}

	for _, dir := range []string{
		cfg.DataDir(), cfg.WorkspaceDir(), cfg.AnalysisDir(),
		cfg.LogsDir(), cfg.OutputsDir(), cfg.BackupsDir(),
		cfg.DefaultExternalDir(),
	} {
		info, err := os.Stat(dir)
		if err != nil || !info.IsDir() {
			t.Errorf("expected directory %s to exist", dir)
		}
	}

	// Idempotent on an existing tree.
	if err := cfg.EnsureTree(); err != nil {
		t.Errorf("EnsureTree() second run error: %v", err)
	}
}
