package container

// Fixed identities for the managed container.
const (
	// Name is the fixed container name. One powerdev container per host.
	Name = "powerdev"

	// Image is the image tag produced by build and consumed by start.
	Image = "powerdev"

	// Network is the named bridge network the container attaches to,
	// created on demand.
	Network = "powerdev-net"

	// User is the non-root identity processes run as inside the
	// container.
	User = "dev"

	// HomeVolume is the named volume backing the container user's home
	// directory, so shell history and tool caches survive container
	// removal.
	HomeVolume = "powerdev-home"
)

// State is the coarse lifecycle state of the managed container,
// inferred per call from the engine.
type State string

const (
	StateAbsent  State = "absent"
	StateCreated State = "created"
	StateRunning State = "running"
	StateStopped State = "stopped"
)

// HealthStatus mirrors the engine's health probe result for the
// container. HealthNone means the image defines no health check or the
// container is not running.
type HealthStatus string

const (
	Healthy    HealthStatus = "healthy"
	Unhealthy  HealthStatus = "unhealthy"
	Starting   HealthStatus = "starting"
	HealthNone HealthStatus = "none"
)

// stateFromStatus maps the engine's container status strings onto the
// coarse lifecycle states. Paused and dead containers dispatch like
// stopped ones.
func stateFromStatus(status string) State {
	switch status {
	case "created":
		return StateCreated
	case "running", "restarting":
		return StateRunning
	default:
		return StateStopped
	}
}
