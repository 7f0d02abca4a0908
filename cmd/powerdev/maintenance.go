package main

import (
	"context"
	"fmt"
	"time"

	"github.com/docker/go-units"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/powerdevhq/powerdev/internal/container"
	"github.com/powerdevhq/powerdev/internal/persist"
	"github.com/powerdevhq/powerdev/internal/supervisor"
	"github.com/powerdevhq/powerdev/internal/ui"
)

func newWatchCmd() *cobra.Command {
	var interval time.Duration

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Poll container health and restart on failure",
		Long:  "Blocks in a polling loop, restarting the container whenever its health probe\nreports anything but healthy. Ends when the container disappears or on SIGINT/SIGTERM.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			a, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			log := logrus.New()
			log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

			s := supervisor.New(a.client, container.Name, log)
			if interval > 0 {
				s.Interval = interval
			}

			if err := s.Run(ctx); err != nil {
				return err
			}

			// Signal-triggered exit: best-effort stop so the container
			// does not outlive its supervisor unattended.
			if ctx.Err() != nil {
				stopCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
				defer cancel()
				if err := a.client.Stop(stopCtx, container.Name); err != nil {
					log.WithError(err).Warn("best-effort stop failed")
				}
			}
			return nil
		},
	}

	cmd.Flags().DurationVar(&interval, "interval", 0, "override the polling interval")
	return cmd
}

func newCleanupCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "cleanup",
		Short: "Prune unused images and volumes system-wide",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			a, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			if !force && !ui.AskYesNo("Prune all unused images and volumes?", false) {
				ui.Info("Cleanup cancelled")
				return nil
			}

			report, err := a.client.Cleanup(ctx)
			if err != nil {
				return err
			}

			ui.Success("Removed %d images and %d volumes, reclaimed %s",
				report.ImagesDeleted, report.VolumesDeleted,
				units.HumanSize(float64(report.SpaceReclaimed)))
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "skip the confirmation prompt")
	return cmd
}

func newPersistCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "persist",
		Short: "Back up container data to a timestamped host directory",
		Long:  "Copies /analysis and /outputs from the running container plus a log snapshot\nand the inspection metadata into backups/<timestamp>. Copies are best-effort.",
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
			if state != container.StateRunning {
				return fmt.Errorf("persist requires a running container (state: %s)", state)
			}

			report, err := persist.Run(ctx, a.client, container.Name, a.cfg.BackupsDir(), time.Now())
			if err != nil {
				return err
			}

			for _, copied := range report.Copied {
				ui.Info("Saved %s", copied)
			}
			for _, skipped := range report.Skipped {
				ui.DimMsg("  %s", skipped)
			}
			ui.Success("Backup written to %s", report.Dir)
			return nil
		},
	}
}
