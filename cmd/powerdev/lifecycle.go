package main

import (
	"archive/tar"
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/docker/docker/api/types"
	"github.com/spf13/cobra"

	"github.com/powerdevhq/powerdev/internal/container"
	"github.com/powerdevhq/powerdev/internal/ui"
)

func newBuildCmd() *cobra.Command {
	var noCache bool

	cmd := &cobra.Command{
		Use:   "build [KEY=VALUE ...]",
		Short: "Build the powerdev image",
		Long:  "Builds the powerdev image from the Dockerfile in the powerdev home directory.\nExtra KEY=VALUE arguments are passed through as build args.",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			a, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			buildArgs, err := parseBuildArgs(args)
			if err != nil {
				return err
			}

			if exists, err := a.client.ImageExists(ctx, container.Image); err == nil && exists {
				if age, err := a.client.ImageAge(ctx, container.Image); err == nil {
					ui.Info("Replacing existing image (%d days old)", age)
				}
			}

			dockerfilePath := filepath.Join(a.cfg.Home, "Dockerfile")
			buildContext, err := createTarContext(dockerfilePath)
			if err != nil {
				return fmt.Errorf("failed to create build context: %w", err)
			}

			ui.Info("Building image: %s", container.Image)

			opts := types.ImageBuildOptions{
				Tags:       []string{container.Image + ":latest"},
				Dockerfile: "Dockerfile",
				Remove:     true,
				NoCache:    noCache,
				BuildArgs:  buildArgs,
			}

			if err := a.client.BuildImage(ctx, buildContext, opts, os.Stdout); err != nil {
				return fmt.Errorf("failed to build image: %w", err)
			}

			ui.Success("Image built: %s", container.Image)
			return nil
		},
	}

	cmd.Flags().BoolVar(&noCache, "no-cache", false, "build without layer cache")
	return cmd
}

func parseBuildArgs(args []string) (map[string]*string, error) {
	buildArgs := make(map[string]*string, len(args))
	for _, arg := range args {
		key, value, ok := strings.Cut(arg, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("build arg must be KEY=VALUE, got %q", arg)
		}
		v := value
		buildArgs[key] = &v
	}
	return buildArgs, nil
}

// createTarContext wraps a single Dockerfile in a tar stream for the
// engine's build endpoint.
func createTarContext(dockerfilePath string) (io.Reader, error) {
	content, err := os.ReadFile(dockerfilePath)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	tw := tar.NewWriter(&buf)

	header := &tar.Header{
		Name: "Dockerfile",
		Size: int64(len(content)),
		Mode: 0644,
	}

	if err := tw.WriteHeader(header); err != nil {
		return nil, err
	}
	if _, err := tw.Write(content); err != nil {
		return nil, err
	}
	if err := tw.Close(); err != nil {
		return nil, err
	}

	return &buf, nil
}

func newStartCmd() *cobra.Command {
	var ports []string

	cmd := &cobra.Command{
		Use:   "start",
		Short: "Start the container attached to the terminal",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runContainer(cmd.Context(), false, ports)
		},
	}

	cmd.Flags().StringArrayVarP(&ports, "port", "p", nil, "publish HOST:CONTAINER (or PORT), replacing the defaults")
	return cmd
}

func newDaemonCmd() *cobra.Command {
	var ports []string

	cmd := &cobra.Command{
		Use:   "daemon",
		Short: "Start the container detached",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runContainer(cmd.Context(), true, ports)
		},
	}

	cmd.Flags().StringArrayVarP(&ports, "port", "p", nil, "publish HOST:CONTAINER (or PORT), replacing the defaults")
	return cmd
}

// parsePortFlags turns --port values into mappings. Only consulted on
// the create path; a resumed container keeps its original ports.
func parsePortFlags(values []string) ([]container.PortMapping, error) {
	ports := make([]container.PortMapping, 0, len(values))
	for _, v := range values {
		pm, err := container.ParsePortMapping(v)
		if err != nil {
			return nil, err
		}
		ports = append(ports, pm)
	}
	return ports, nil
}

// runContainer implements start and daemon: absent -> running
// (create+run) or stopped -> running (resume).
func runContainer(ctx context.Context, detach bool, portFlags []string) error {
	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	ui.Header()

	state, err := a.client.State(ctx, container.Name)
	if err != nil {
		return err
	}

	switch state {
	case container.StateRunning:
		if detach {
			ui.Success("Container already running")
			ui.Footer()
			return nil
		}
		ui.Success("Reconnecting to running container")
		ui.Footer()
		return a.client.Attach(ctx, container.Name, true)

	case container.StateStopped, container.StateCreated:
		ui.Info("Resuming stopped container")
		if err := a.client.Start(ctx, container.Name); err != nil {
			return err
		}
		if detach {
			ui.Success("Container resumed")
			ui.Footer()
			return nil
		}
		ui.Footer()
		return a.client.Attach(ctx, container.Name, true)
	}

	// Absent: full create path.
	exists, err := a.client.ImageExists(ctx, container.Image)
	if err != nil {
		return err
	}
	if !exists {
		ui.Fail("Image %s not found", container.Image)
		ui.Info("Run %s first", ui.Bold("powerdev build"))
		ui.Footer()
		return fmt.Errorf("image %s:latest not built", container.Image)
	}

	if err := a.cfg.EnsureTree(); err != nil {
		return err
	}

	profile, err := a.profile(ctx)
	if err != nil {
		return err
	}
	ui.Info("Resources: %s", profile)

	opts := container.BuildRunOptions(profile, a.cfg)
	opts.Detach = detach
	if detach {
		opts.RestartPolicy = "unless-stopped"
	}

	if len(portFlags) > 0 {
		overrides, err := parsePortFlags(portFlags)
		if err != nil {
			return err
		}
		opts.Ports = overrides
	}

	if err := container.PrepareMounts(opts.Mounts); err != nil {
		return err
	}

	if err := container.PrepareVolumes(ctx, a.client, opts.Mounts); err != nil {
		return err
	}

	if created, err := a.client.EnsureNetwork(ctx, opts.Network); err != nil {
		return err
	} else if created {
		ui.Info("Created network %s", opts.Network)
	}

	if err := resolvePorts(&opts, detach); err != nil {
		ui.Footer()
		return err
	}

	ui.Info("Starting container...")
	if _, err := a.client.Run(ctx, opts); err != nil {
		ui.Footer()
		return err
	}

	ui.Success("Container started")
	ui.Footer()

	if detach {
		return nil
	}
	return a.client.Attach(ctx, container.Name, true)
}

// resolvePorts handles host port conflicts before publishing. daemon
// mode remaps silently; start reports and refuses so the operator can
// decide.
func resolvePorts(opts *container.RunOptions, detach bool) error {
	if detach {
		remapped, conflicts, err := container.AutoRemapPorts(opts.Ports)
		if err != nil {
			return err
		}
		for _, c := range conflicts {
			ui.Info("Auto-remapped port %d → %d", c.Port, c.Suggestion)
		}
		opts.Ports = remapped
		return nil
	}

	conflicts := container.DetectPortConflicts(opts.Ports)
	if len(conflicts) == 0 {
		return nil
	}

	ui.BlankLine()
	ui.Warn("Port conflicts detected:")
	for _, c := range conflicts {
		if c.ProcessName != "" {
			ui.DimMsg("  Port %d in use by %s (pid %s)", c.Port, c.ProcessName, c.ProcessPID)
		} else {
			ui.DimMsg("  Port %d is already in use", c.Port)
		}
		if c.Suggestion > 0 {
			ui.DimMsg("  Suggestion: use port %d instead", c.Suggestion)
		}
	}
	ui.BlankLine()
	return fmt.Errorf("free the conflicting ports and retry")
}

func newStopCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stop",
		Short: "Stop the running container",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			a, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			state, err := a.client.State(ctx, container.Name)
			if err != nil {
				return err
			}

			switch state {
			case container.StateAbsent:
				return fmt.Errorf("container %s does not exist", container.Name)
			case container.StateRunning:
				if err := a.client.Stop(ctx, container.Name); err != nil {
					return err
				}
				ui.Success("Container stopped")
				return nil
			default:
				ui.Info("Container is not running")
				return nil
			}
		},
	}
}

func newRmCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rm",
		Short: "Remove the stopped container",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			a, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			state, err := a.client.State(ctx, container.Name)
			if err != nil {
				return err
			}

			switch state {
			case container.StateAbsent:
				ui.Info("Nothing to remove")
				return nil
			case container.StateRunning:
				return fmt.Errorf("container is running, stop it first")
			default:
				if err := a.client.Remove(ctx, container.Name, false); err != nil {
					return err
				}
				ui.Success("Container removed")
				return nil
			}
		},
	}
}

func newRestartCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "restart",
		Short: "Restart the container (safe from running or stopped)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			a, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.client.Restart(ctx, container.Name); err != nil {
				return err
			}
			ui.Success("Container running")
			return nil
		},
	}
}
