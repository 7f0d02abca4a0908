package container

import (
	"fmt"
	"strconv"

	dockercontainer "github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/mount"
	"github.com/docker/docker/api/types/network"
	"github.com/docker/go-connections/nat"

	"github.com/powerdevhq/powerdev/internal/config"
	"github.com/powerdevhq/powerdev/internal/resources"
)

// Capability policy: drop everything, then allow the fixed set needed
// for nested containerization and debugging.
var allowedCapabilities = []string{
	"SYS_ADMIN",
	"NET_ADMIN",
	"SYS_PTRACE",
	"SETPCAP",
}

// defaultPorts are published host:container on every run.
var defaultPorts = []PortMapping{
	{Host: 3000, Container: 3000},
	{Host: 8080, Container: 8080},
}

// pidsLimit caps process count inside the container.
const pidsLimit int64 = 2048

// RunOptions is the validated, immutable set of runtime options passed
// verbatim to container creation. Same profile and config always
// produce the same options, excepting paths derived from the process
// environment.
type RunOptions struct {
	Name    string
	Image   string
	User    string
	WorkDir string
	Env     []string
	Mounts  []Mount
	Network string
	Ports   []PortMapping

	CapAdd      []string
	PidsLimit   int64
	NanoCPUs    int64
	MemoryBytes int64
	GPU         bool

	Detach        bool
	RestartPolicy string
}

// BuildRunOptions assembles the runtime options from the clamped
// resource profile and the environment configuration. Pure data
// assembly, no side effects.
func BuildRunOptions(profile resources.Profile, cfg *config.Config) RunOptions {
	env := []string{
		"POWERDEV_CPUS=" + strconv.Itoa(profile.CPUs),
		"POWERDEV_MEMORY_GB=" + strconv.Itoa(profile.MemoryGB),
	}
	for _, m := range DefaultMounts(cfg) {
		if m.Target == "/ssh-agent" {
			env = append(env, "SSH_AUTH_SOCK=/ssh-agent")
			break
		}
	}

	return RunOptions{
		Name:        Name,
		Image:       Image,
		User:        User,
		WorkDir:     "/workspace",
		Env:         env,
		Mounts:      DefaultMounts(cfg),
		Network:     Network,
		Ports:       append([]PortMapping(nil), defaultPorts...),
		CapAdd:      allowedCapabilities,
		PidsLimit:   pidsLimit,
		NanoCPUs:    profile.NanoCPUs(),
		MemoryBytes: profile.MemoryBytes(),
		GPU:         cfg.GPU,
	}
}

// buildContainerConfig creates the engine container config from
// RunOptions.
func buildContainerConfig(opts RunOptions) *dockercontainer.Config {
	cfg := &dockercontainer.Config{
		Image:      opts.Image + ":latest",
		User:       opts.User,
		WorkingDir: opts.WorkDir,
		Env:        opts.Env,
		Tty:        !opts.Detach,
		OpenStdin:  !opts.Detach,
		Labels:     map[string]string{"powerdev.managed": "true"},
	}

	if len(opts.Ports) > 0 {
		exposedPorts := make(nat.PortSet)
		for _, pm := range opts.Ports {
			port := nat.Port(fmt.Sprintf("%d/tcp", pm.Container))
			exposedPorts[port] = struct{}{}
		}
		cfg.ExposedPorts = exposedPorts
	}

	return cfg
}

// buildHostConfig creates the engine host config from RunOptions:
// resource limits, capability policy, mounts, and port bindings.
func buildHostConfig(opts RunOptions) *dockercontainer.HostConfig {
	pids := opts.PidsLimit

	hostConfig := &dockercontainer.HostConfig{
		CapDrop: []string{"ALL"},
		CapAdd:  append([]string(nil), opts.CapAdd...),
		Resources: dockercontainer.Resources{
			NanoCPUs:  opts.NanoCPUs,
			Memory:    opts.MemoryBytes,
			PidsLimit: &pids,
		},
	}

	if opts.Network != "" {
		hostConfig.NetworkMode = dockercontainer.NetworkMode(opts.Network)
	}

	if len(opts.Ports) > 0 {
		portBindings := make(nat.PortMap)
		for _, pm := range opts.Ports {
			containerPort := nat.Port(fmt.Sprintf("%d/tcp", pm.Container))
			portBindings[containerPort] = []nat.PortBinding{
				{
					HostIP:   "0.0.0.0",
					HostPort: strconv.Itoa(pm.Host),
				},
			}
		}
		hostConfig.PortBindings = portBindings
	}

	if len(opts.Mounts) > 0 {
		mounts := make([]mount.Mount, 0, len(opts.Mounts))
		for _, m := range opts.Mounts {
			mountType := mount.TypeVolume
			source := m.Source
			if m.Type == "bind" {
				mountType = mount.TypeBind
				source = expandPath(source)
			}
			mounts = append(mounts, mount.Mount{
				Type:     mountType,
				Source:   source,
				Target:   m.Target,
				ReadOnly: m.ReadOnly,
			})
		}
		hostConfig.Mounts = mounts
	}

	if opts.GPU {
		hostConfig.DeviceRequests = []dockercontainer.DeviceRequest{
			{
				Count:        -1,
				Capabilities: [][]string{{"gpu"}},
			},
		}
	}

	if opts.RestartPolicy != "" {
		hostConfig.RestartPolicy = dockercontainer.RestartPolicy{
			Name: dockercontainer.RestartPolicyMode(opts.RestartPolicy),
		}
	}

	return hostConfig
}

// buildNetworkingConfig attaches the container to the named network.
func buildNetworkingConfig(opts RunOptions) *network.NetworkingConfig {
	if opts.Network == "" {
		return nil
	}
	return &network.NetworkingConfig{
		EndpointsConfig: map[string]*network.EndpointSettings{
			opts.Network: {},
		},
	}
}
