package container

import (
	"context"
	"fmt"
	"io"
	"os"

	dockercontainer "github.com/docker/docker/api/types/container"
	"github.com/docker/docker/pkg/stdcopy"
)

// stopTimeoutSeconds is how long the engine waits for a graceful stop
// before killing the container.
const stopTimeoutSeconds = 10

// Run creates and starts a new container from the assembled runtime
// options. Returns the container ID.
func (c *Client) Run(ctx context.Context, opts RunOptions) (string, error) {
	resp, err := c.cli.ContainerCreate(
		ctx,
		buildContainerConfig(opts),
		buildHostConfig(opts),
		buildNetworkingConfig(opts),
		nil,
		opts.Name,
	)
	if err != nil {
		return "", fmt.Errorf("failed to create container: %w", err)
	}

	if err := c.cli.ContainerStart(ctx, resp.ID, dockercontainer.StartOptions{}); err != nil {
		return "", fmt.Errorf("failed to start container: %w", err)
	}

	return resp.ID, nil
}

// Start resumes a stopped or created container.
func (c *Client) Start(ctx context.Context, name string) error {
	if err := c.cli.ContainerStart(ctx, name, dockercontainer.StartOptions{}); err != nil {
		return fmt.Errorf("failed to start container: %w", err)
	}
	return nil
}

// Attach attaches to a running container's stdin/stdout/stderr and
// blocks until the stream ends.
func (c *Client) Attach(ctx context.Context, nameOrID string, interactive bool) error {
	attachOptions := dockercontainer.AttachOptions{
		Stream: true,
		Stdin:  interactive,
		Stdout: true,
		Stderr: true,
	}

	hijackedResp, err := c.cli.ContainerAttach(ctx, nameOrID, attachOptions)
	if err != nil {
		return fmt.Errorf("failed to attach to container: %w", err)
	}
	defer hijackedResp.Close()

	if interactive {
		go func() {
			io.Copy(hijackedResp.Conn, os.Stdin)
		}()
	}

	_, err = stdcopy.StdCopy(os.Stdout, os.Stderr, hijackedResp.Reader)
	return err
}

// Stop stops the running container gracefully.
func (c *Client) Stop(ctx context.Context, name string) error {
	timeout := stopTimeoutSeconds
	if err := c.cli.ContainerStop(ctx, name, dockercontainer.StopOptions{Timeout: &timeout}); err != nil {
		return fmt.Errorf("failed to stop container: %w", err)
	}
	return nil
}

// Remove removes a container. A missing container is not an error.
func (c *Client) Remove(ctx context.Context, name string, force bool) error {
	err := c.cli.ContainerRemove(ctx, name, dockercontainer.RemoveOptions{
		Force:         force,
		RemoveVolumes: false,
	})
	if err != nil && !IsNotFound(err) {
		return fmt.Errorf("failed to remove container: %w", err)
	}
	return nil
}

// Restart brings the container to running from either running or
// stopped, so repeated restarts are safe. An absent container is an
// error.
func (c *Client) Restart(ctx context.Context, name string) error {
	state, err := c.State(ctx, name)
	if err != nil {
		return err
	}

	switch state {
	case StateAbsent:
		return fmt.Errorf("container %s does not exist", name)
	case StateRunning:
		timeout := stopTimeoutSeconds
		if err := c.cli.ContainerRestart(ctx, name, dockercontainer.StopOptions{Timeout: &timeout}); err != nil {
			return fmt.Errorf("failed to restart container: %w", err)
		}
		return nil
	default:
		return c.Start(ctx, name)
	}
}

// Exec runs a command inside the running container, streaming output
// to stdout/stderr, and returns the command's exit code.
func (c *Client) Exec(ctx context.Context, name string, cmd []string) (int, error) {
	execResp, err := c.cli.ContainerExecCreate(ctx, name, dockercontainer.ExecOptions{
		Cmd:          cmd,
		AttachStdout: true,
		AttachStderr: true,
	})
	if err != nil {
		return 0, fmt.Errorf("failed to create exec: %w", err)
	}

	attach, err := c.cli.ContainerExecAttach(ctx, execResp.ID, dockercontainer.ExecStartOptions{})
	if err != nil {
		return 0, fmt.Errorf("failed to attach to exec: %w", err)
	}
	defer attach.Close()

	if _, err := stdcopy.StdCopy(os.Stdout, os.Stderr, attach.Reader); err != nil {
		return 0, fmt.Errorf("failed to stream exec output: %w", err)
	}

	inspect, err := c.cli.ContainerExecInspect(ctx, execResp.ID)
	if err != nil {
		return 0, fmt.Errorf("failed to inspect exec: %w", err)
	}

	return inspect.ExitCode, nil
}

// Logs streams the container's logs to w.
func (c *Client) Logs(ctx context.Context, name string, follow bool, w io.Writer) error {
	inspect, err := c.cli.ContainerInspect(ctx, name)
	if err != nil {
		return fmt.Errorf("failed to inspect container: %w", err)
	}

	reader, err := c.cli.ContainerLogs(ctx, name, dockercontainer.LogsOptions{
		ShowStdout: true,
		ShowStderr: true,
		Follow:     follow,
		Tail:       "all",
	})
	if err != nil {
		return fmt.Errorf("failed to read logs: %w", err)
	}
	defer reader.Close()

	// TTY containers produce a raw stream; non-TTY ones are
	// multiplexed.
	if inspect.Config != nil && inspect.Config.Tty {
		_, err = io.Copy(w, reader)
	} else {
		_, err = stdcopy.StdCopy(w, w, reader)
	}
	return err
}
