package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// EnvFileName is the fixed name of the environment file inside the
// powerdev home directory.
const EnvFileName = "powerdev.env"

// Recognized override keys.
const (
	KeyCPUs        = "POWERDEV_CPUS"
	KeyMemoryGB    = "POWERDEV_MEMORY_GB"
	KeyExternalDir = "EXTERNAL_DIR"
	KeyGPU         = "POWERDEV_GPU"
)

// Config holds the resolved environment configuration for one invocation.
// Zero values for CPUs and MemoryGB mean "no override, use computed
// defaults".
type Config struct {
	Home        string
	CPUs        int
	MemoryGB    int
	ExternalDir string
	GPU         bool
}

// Load reads powerdev.env from the home directory and applies process
// environment overrides. home may be empty, in which case POWERDEV_HOME
// or ~/powerdev is used. Missing configuration is reported through the
// returned warnings, not as an error.
func Load(home string) (*Config, []string, error) {
	var warnings []string

	home, err := resolveHome(home)
	if err != nil {
		return nil, nil, err
	}

	v := viper.New()
	v.SetConfigFile(filepath.Join(home, EnvFileName))
	v.SetConfigType("env")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, nil, fmt.Errorf("failed to read %s: %w", EnvFileName, err)
		}
		warnings = append(warnings, fmt.Sprintf("%s not found in %s, using computed defaults", EnvFileName, home))
	}

	cfg := &Config{
		Home:        home,
		CPUs:        v.GetInt(KeyCPUs),
		MemoryGB:    v.GetInt(KeyMemoryGB),
		ExternalDir: v.GetString(KeyExternalDir),
		GPU:         v.GetBool(KeyGPU),
	}

	if cfg.ExternalDir != "" {
		if info, err := os.Stat(cfg.ExternalDir); err != nil || !info.IsDir() {
			warnings = append(warnings, fmt.Sprintf("%s %q does not exist, falling back to %s", KeyExternalDir, cfg.ExternalDir, cfg.DefaultExternalDir()))
			cfg.ExternalDir = ""
		}
	}

	return cfg, warnings, nil
}

func resolveHome(home string) (string, error) {
	if home == "" {
		home = os.Getenv("POWERDEV_HOME")
	}
	if home == "" {
		userHome, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to resolve home directory: %w", err)
		}
		home = filepath.Join(userHome, "powerdev")
	}
	return home, nil
}

// Host directory layout under Home. These directories back the
// container's bind mounts and the persist backups.

func (c *Config) DataDir() string      { return filepath.Join(c.Home, "data") }
func (c *Config) WorkspaceDir() string { return filepath.Join(c.Home, "workspace") }
func (c *Config) AnalysisDir() string  { return filepath.Join(c.Home, "analysis") }
func (c *Config) LogsDir() string      { return filepath.Join(c.Home, "logs") }
func (c *Config) OutputsDir() string   { return filepath.Join(c.Home, "outputs") }
func (c *Config) BackupsDir() string   { return filepath.Join(c.Home, "backups") }

// DefaultExternalDir is the fallback mount point when EXTERNAL_DIR is
// unset or missing.
func (c *Config) DefaultExternalDir() string { return filepath.Join(c.Home, "external") }

// ResolvedExternalDir returns the external project directory that will
// actually be mounted.
func (c *Config) ResolvedExternalDir() string {
	if c.ExternalDir != "" {
		return c.ExternalDir
	}
	return c.DefaultExternalDir()
}

// EnsureTree creates the host directory tree if any part of it is
// missing. Called before mounting so docker never creates root-owned
// directories on our behalf.
func (c *Config) EnsureTree() error {
	dirs := []string{
		c.DataDir(),
		c.WorkspaceDir(),
		c.AnalysisDir(),
		c.LogsDir(),
		c.OutputsDir(),
		c.BackupsDir(),
		c.DefaultExternalDir(),
	}

	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}

	return nil
}
