package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/powerdevhq/powerdev/internal/container"
	"github.com/powerdevhq/powerdev/internal/ui"
)

func newExecCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "exec CMD [ARGS...]",
		Short: "Run a command in the running container",
		Args:  cobra.MinimumNArgs(1),
		// Flags belong to the command inside the container.
		DisableFlagParsing: true,
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
			if state != container.StateRunning {
				return fmt.Errorf("exec requires a running container (state: %s)", state)
			}

			code, err := a.client.Exec(ctx, container.Name, args)
			if err != nil {
				return err
			}
			if code != 0 {
				a.Close()
				os.Exit(code)
			}
			return nil
		},
	}
}

func newLogsCmd() *cobra.Command {
	var follow bool

	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Print container logs",
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
			if state == container.StateAbsent {
				return fmt.Errorf("container %s does not exist", container.Name)
			}

			return a.client.Logs(ctx, container.Name, follow, os.Stdout)
		},
	}

	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "follow log output")
	return cmd
}

func newHealthCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Print the container's health probe status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			a, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			health, err := a.client.Health(ctx, container.Name)
			if err != nil {
				return err
			}

			fmt.Println(health)
			return nil
		},
	}
}

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show container state and resources",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

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
			ui.Info("State: %s", ui.Bold(string(state)))

			if state == container.StateRunning {
				if uptime, err := a.client.Uptime(ctx, container.Name); err == nil {
					ui.Info("Uptime: %s", uptime.Round(uptimeRounding(uptime)))
				}
				if health, err := a.client.Health(ctx, container.Name); err == nil {
					ui.Info("Health: %s", health)
				}
			}

			if exists, err := a.client.ImageExists(ctx, container.Image); err == nil {
				if exists {
					if age, err := a.client.ImageAge(ctx, container.Image); err == nil {
						ui.Info("Image: %s (built %d days ago)", container.Image, age)
					}
				} else {
					ui.Warn("Image %s not built", container.Image)
				}
			}

			if profile, err := a.profile(ctx); err == nil {
				ui.Info("Limits: %s", profile)
			}

			ui.Footer()
			return nil
		},
	}
}

// uptimeRounding keeps uptime output short: second precision for young
// containers, minute precision after the first hour.
func uptimeRounding(d time.Duration) time.Duration {
	if d > time.Hour {
		return time.Minute
	}
	return time.Second
}
