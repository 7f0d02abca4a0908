package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/powerdevhq/powerdev/internal/config"
	"github.com/powerdevhq/powerdev/internal/container"
	"github.com/powerdevhq/powerdev/internal/resources"
	"github.com/powerdevhq/powerdev/internal/ui"
)

const version = "1.0.0"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := newRootCmd()
	if err := root.ExecuteContext(ctx); err != nil {
		ui.Fail("%v", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "powerdev",
		Short:         "Manage the powerdev development container",
		Long:          "powerdev builds and supervises a single containerized development environment:\nresource-clamped, capability-restricted, with a fixed host directory tree mounted in.",
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	root.AddCommand(newBuildCmd())
	root.AddCommand(newStartCmd())
	root.AddCommand(newDaemonCmd())
	root.AddCommand(newExecCmd())
	root.AddCommand(newLogsCmd())
	root.AddCommand(newHealthCmd())
	root.AddCommand(newStatusCmd())
	root.AddCommand(newStopCmd())
	root.AddCommand(newRmCmd())
	root.AddCommand(newRestartCmd())
	root.AddCommand(newWatchCmd())
	root.AddCommand(newCleanupCmd())
	root.AddCommand(newPersistCmd())
	root.AddCommand(newVersionCmd())

	return root
}

// app bundles the per-invocation state every subcommand needs: loaded
// configuration and a preflighted engine client. No globals; each
// command builds one and closes it.
type app struct {
	cfg    *config.Config
	client *container.Client
}

// newApp loads configuration (missing pieces warn, never fail) and
// connects to the engine. An unreachable daemon is the one fatal
// preflight condition.
func newApp(ctx context.Context) (*app, error) {
	cfg, warnings, err := config.Load("")
	if err != nil {
		return nil, err
	}
	for _, w := range warnings {
		ui.Warn("%s", w)
	}

	client, err := container.NewClient()
	if err != nil {
		return nil, fmt.Errorf("failed to create runtime client: %w", err)
	}

	if err := client.Preflight(ctx); err != nil {
		client.Close()
		return nil, err
	}

	return &app{cfg: cfg, client: client}, nil
}

func (a *app) Close() error {
	return a.client.Close()
}

// profile detects host capacity and applies the configured overrides,
// warning once per clamped dimension.
func (a *app) profile(ctx context.Context) (resources.Profile, error) {
	hostCPUs, hostMem, err := a.client.HostResources(ctx)
	if err != nil {
		return resources.Profile{}, err
	}

	p, warnings := resources.Compute(hostCPUs, hostMem, a.cfg.CPUs, a.cfg.MemoryGB)
	for _, w := range warnings {
		ui.Warn("%s", w)
	}
	return p, nil
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("powerdev %s\n", version)
		},
	}
}
