package container

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/powerdevhq/powerdev/internal/config"
)

// Mount represents one host-to-container mount.
type Mount struct {
	Type       string // "bind" or "volume"
	Source     string // host path or volume name
	Target     string // container path
	ReadOnly   bool
	CreateHost bool // create the host directory before mounting
}

// DefaultMounts builds the fixed mount table for the powerdev
// container: the host directory tree, the external project directory,
// read-only SSH credentials, and the SSH agent socket when one is
// present.
func DefaultMounts(cfg *config.Config) []Mount {
	mounts := []Mount{
		{Type: "bind", Source: cfg.WorkspaceDir(), Target: "/workspace", CreateHost: true},
		{Type: "bind", Source: cfg.DataDir(), Target: "/data", CreateHost: true},
		{Type: "bind", Source: cfg.AnalysisDir(), Target: "/analysis", CreateHost: true},
		{Type: "bind", Source: cfg.LogsDir(), Target: "/logs", CreateHost: true},
		{Type: "bind", Source: cfg.OutputsDir(), Target: "/outputs", CreateHost: true},
		{Type: "bind", Source: cfg.ResolvedExternalDir(), Target: "/external", CreateHost: true},
	}

	mounts = append(mounts, Mount{
		Type:   "volume",
		Source: HomeVolume,
		Target: "/home/" + User,
	})

	if home, err := os.UserHomeDir(); err == nil {
		sshDir := filepath.Join(home, ".ssh")
		if dirExists(sshDir) {
			mounts = append(mounts, Mount{
				Type:     "bind",
				Source:   sshDir,
				Target:   "/home/" + User + "/.ssh",
				ReadOnly: true,
			})
		}
	}

	if sock := os.Getenv("SSH_AUTH_SOCK"); sock != "" {
		mounts = append(mounts, Mount{
			Type:   "bind",
			Source: sock,
			Target: "/ssh-agent",
		})
	}

	return mounts
}

// PrepareMounts creates host directories for bind mounts flagged with
// CreateHost. Run before container creation so the engine never
// creates root-owned directories for us.
func PrepareMounts(mounts []Mount) error {
	for _, m := range mounts {
		if m.Type == "bind" && m.CreateHost {
			source := expandPath(m.Source)
			if err := os.MkdirAll(source, 0755); err != nil {
				return fmt.Errorf("failed to create bind mount directory %s: %w", source, err)
			}
		}
	}
	return nil
}

// VolumeEnsurer is the slice of the engine client volume preparation
// needs. Kept narrow so tests can fake it.
type VolumeEnsurer interface {
	EnsureVolume(ctx context.Context, volumeName string) error
}

// PrepareVolumes makes sure every named volume in the mount table
// exists before container creation. Companion to PrepareMounts for the
// non-bind entries.
func PrepareVolumes(ctx context.Context, c VolumeEnsurer, mounts []Mount) error {
	for _, m := range mounts {
		if m.Type != "volume" {
			continue
		}
		if err := c.EnsureVolume(ctx, m.Source); err != nil {
			return fmt.Errorf("failed to prepare volume %s: %w", m.Source, err)
		}
	}
	return nil
}

// EnsureVolume ensures a named volume exists, creating it if necessary.
func (c *Client) EnsureVolume(ctx context.Context, volumeName string) error {
	exists, err := c.VolumeExists(ctx, volumeName)
	if err != nil {
		return fmt.Errorf("failed to check volume: %w", err)
	}

	if !exists {
		if err := c.CreateVolume(ctx, volumeName); err != nil {
			return fmt.Errorf("failed to create volume: %w", err)
		}
	}

	return nil
}

// expandPath expands ~ to the home directory in paths.
func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[2:])
	}

	if path == "~" {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return home
	}

	return path
}

func dirExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
