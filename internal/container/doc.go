// Package container wraps the Docker Engine API for the powerdev
// container lifecycle.
//
// This package owns:
//   - The engine client (preflight ping, host capacity detection)
//   - The container state machine (absent, created, running, stopped)
//   - Runtime option assembly (limits, capability policy, mounts,
//     network, ports, GPU passthrough)
//   - Lifecycle operations: build, create/start, attach, exec, logs,
//     stop, remove, restart, prune
//   - Port conflict detection before publishing host ports
//
// The engine is the single source of truth: state is queried fresh on
// every call and never cached locally.
package container
