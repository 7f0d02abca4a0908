package container

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/filters"
	"github.com/docker/docker/api/types/network"
	"github.com/docker/docker/api/types/volume"
	"github.com/docker/docker/client"
)

// Client wraps the Docker client with our operations.
type Client struct {
	cli *client.Client
}

// NewClient creates a new Docker client wrapper.
func NewClient() (*Client, error) {
	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return nil, err
	}
	return &Client{cli: cli}, nil
}

// Close closes the underlying Docker client.
func (c *Client) Close() error {
	return c.cli.Close()
}

// Preflight verifies the engine daemon is reachable. Mutating commands
// call this first so an unreachable daemon fails fast with one message
// instead of a stack of API errors.
func (c *Client) Preflight(ctx context.Context) error {
	if _, err := c.cli.Ping(ctx); err != nil {
		return fmt.Errorf("container runtime unreachable: %w", err)
	}
	return nil
}

// HostResources reports the host CPU count and total memory as seen by
// the engine daemon.
func (c *Client) HostResources(ctx context.Context) (cpus int, memBytes int64, err error) {
	info, err := c.cli.Info(ctx)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to query host resources: %w", err)
	}
	return info.NCPU, info.MemTotal, nil
}

// State returns the coarse lifecycle state of the named container.
func (c *Client) State(ctx context.Context, name string) (State, error) {
	inspect, err := c.cli.ContainerInspect(ctx, name)
	if err != nil {
		if client.IsErrNotFound(err) {
			return StateAbsent, nil
		}
		return StateAbsent, fmt.Errorf("failed to inspect container: %w", err)
	}
	return stateFromStatus(inspect.State.Status), nil
}

// Health returns the engine's health probe result for the named
// container.
func (c *Client) Health(ctx context.Context, name string) (HealthStatus, error) {
	inspect, err := c.cli.ContainerInspect(ctx, name)
	if err != nil {
		if client.IsErrNotFound(err) {
			return HealthNone, nil
		}
		return HealthNone, fmt.Errorf("failed to inspect container: %w", err)
	}

	if inspect.State == nil || inspect.State.Health == nil {
		return HealthNone, nil
	}

	switch status := HealthStatus(inspect.State.Health.Status); status {
	case Healthy, Unhealthy, Starting:
		return status, nil
	default:
		return HealthNone, nil
	}
}

// InspectRaw returns the raw inspection document for the named
// container, used by persist for the metadata dump.
func (c *Client) InspectRaw(ctx context.Context, name string) ([]byte, error) {
	_, raw, err := c.cli.ContainerInspectWithRaw(ctx, name, false)
	if err != nil {
		return nil, fmt.Errorf("failed to inspect container: %w", err)
	}
	return raw, nil
}

// Uptime returns how long the named container has been running.
func (c *Client) Uptime(ctx context.Context, name string) (time.Duration, error) {
	inspect, err := c.cli.ContainerInspect(ctx, name)
	if err != nil {
		return 0, fmt.Errorf("failed to inspect container: %w", err)
	}

	if !inspect.State.Running {
		return 0, fmt.Errorf("container is not running")
	}

	startedAt, err := time.Parse(time.RFC3339Nano, inspect.State.StartedAt)
	if err != nil {
		return 0, fmt.Errorf("failed to parse start time: %w", err)
	}

	return time.Since(startedAt), nil
}

// ImageExists checks if an image exists locally.
func (c *Client) ImageExists(ctx context.Context, imageName string) (bool, error) {
	_, _, err := c.cli.ImageInspectWithRaw(ctx, imageName+":latest")
	if err != nil {
		if client.IsErrNotFound(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// ImageAge returns the age of an image in days.
func (c *Client) ImageAge(ctx context.Context, imageName string) (int, error) {
	inspect, _, err := c.cli.ImageInspectWithRaw(ctx, imageName+":latest")
	if err != nil {
		return 0, err
	}

	created, err := time.Parse(time.RFC3339Nano, inspect.Created)
	if err != nil {
		return 0, err
	}

	return int(time.Since(created).Hours() / 24), nil
}

// BuildImage builds an image from a tar build context, streaming build
// output to w.
func (c *Client) BuildImage(ctx context.Context, buildContext io.Reader, opts types.ImageBuildOptions, w io.Writer) error {
	resp, err := c.cli.ImageBuild(ctx, buildContext, opts)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	_, err = io.Copy(w, resp.Body)
	return err
}

// EnsureNetwork makes sure the named bridge network exists, creating
// it if absent.
func (c *Client) EnsureNetwork(ctx context.Context, name string) (created bool, err error) {
	networks, err := c.cli.NetworkList(ctx, network.ListOptions{
		Filters: filters.NewArgs(filters.Arg("name", name)),
	})
	if err != nil {
		return false, fmt.Errorf("failed to list networks: %w", err)
	}

	for _, nw := range networks {
		if nw.Name == name {
			return false, nil
		}
	}

	_, err = c.cli.NetworkCreate(ctx, name, network.CreateOptions{Driver: "bridge"})
	if err != nil {
		return false, fmt.Errorf("failed to create network %s: %w", name, err)
	}
	return true, nil
}

// PruneReport summarizes what a Cleanup pass removed.
type PruneReport struct {
	ImagesDeleted  int
	VolumesDeleted int
	SpaceReclaimed uint64
}

// Cleanup prunes unused images and volumes system-wide. Orthogonal to
// the managed container's state.
func (c *Client) Cleanup(ctx context.Context) (PruneReport, error) {
	var report PruneReport

	imgReport, err := c.cli.ImagesPrune(ctx, filters.NewArgs())
	if err != nil {
		return report, fmt.Errorf("failed to prune images: %w", err)
	}
	report.ImagesDeleted = len(imgReport.ImagesDeleted)
	report.SpaceReclaimed += imgReport.SpaceReclaimed

	volReport, err := c.cli.VolumesPrune(ctx, filters.NewArgs())
	if err != nil {
		return report, fmt.Errorf("failed to prune volumes: %w", err)
	}
	report.VolumesDeleted = len(volReport.VolumesDeleted)
	report.SpaceReclaimed += volReport.SpaceReclaimed

	return report, nil
}

// CopyFromContainer streams a tar archive of the given in-container
// path.
func (c *Client) CopyFromContainer(ctx context.Context, name, srcPath string) (io.ReadCloser, error) {
	reader, _, err := c.cli.CopyFromContainer(ctx, name, srcPath)
	if err != nil {
		return nil, err
	}
	return reader, nil
}

// VolumeExists checks if a volume exists.
func (c *Client) VolumeExists(ctx context.Context, volumeName string) (bool, error) {
	_, err := c.cli.VolumeInspect(ctx, volumeName)
	if err != nil {
		if client.IsErrNotFound(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// CreateVolume creates a named local volume.
func (c *Client) CreateVolume(ctx context.Context, volumeName string) error {
	_, err := c.cli.VolumeCreate(ctx, volume.CreateOptions{
		Name:   volumeName,
		Driver: "local",
	})
	return err
}

// IsNotFound reports whether err is the engine's "no such object"
// error.
func IsNotFound(err error) bool {
	return client.IsErrNotFound(err)
}
