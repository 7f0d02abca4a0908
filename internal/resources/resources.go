// Package resources computes safe CPU and memory defaults for the
// powerdev container from detected host capacity.
//
// Host capacity comes from the Docker daemon (Info reports NCPU and
// MemTotal); the arithmetic lives here as pure functions so the
// clamping rules are testable without a daemon. Requested values never
// exceed detected capacity: over-asks are clamped with a warning, per
// the tool's contract that resource sizing is never fatal.
package resources

import (
	"fmt"

	"github.com/docker/go-units"
)

const (
	// Ceilings for computed defaults. Hosts larger than this still get
	// capped so a single dev container never monopolizes a big box.
	maxDefaultCPUs     = 24
	maxDefaultMemoryGB = 200

	// Headroom left for the host OS on mid-size machines.
	memoryHeadroomGB = 10

	// Floor for tiny hosts.
	minMemoryGB = 4
)

// Profile describes detected host capacity and the clamped request
// derived from it. Recomputed on every invocation, never persisted.
type Profile struct {
	AvailableCPUs     int
	AvailableMemoryGB int
	CPUs              int
	MemoryGB          int
}

// DefaultCPUs returns the computed CPU request for a host with the
// given core count.
func DefaultCPUs(hostCPUs int) int {
	if hostCPUs > maxDefaultCPUs {
		return maxDefaultCPUs
	}
	return hostCPUs
}

// DefaultMemoryGB returns the computed memory request in GB for a host
// with the given total memory.
func DefaultMemoryGB(hostMemGB int) int {
	switch {
	case hostMemGB > maxDefaultMemoryGB:
		return maxDefaultMemoryGB
	case hostMemGB > memoryHeadroomGB:
		return hostMemGB - memoryHeadroomGB
	default:
		return minMemoryGB
	}
}

// Compute builds a Profile from detected host capacity and optional
// operator overrides (0 means no override). Overrides win over the
// computed defaults but are clamped to host capacity; each clamped
// dimension produces one warning.
func Compute(hostCPUs int, hostMemBytes int64, cpuOverride, memOverrideGB int) (Profile, []string) {
	var warnings []string

	hostMemGB := int(hostMemBytes / units.GiB)

	p := Profile{
		AvailableCPUs:     hostCPUs,
		AvailableMemoryGB: hostMemGB,
		CPUs:              DefaultCPUs(hostCPUs),
		MemoryGB:          DefaultMemoryGB(hostMemGB),
	}

	if cpuOverride > 0 {
		p.CPUs = cpuOverride
	}
	if memOverrideGB > 0 {
		p.MemoryGB = memOverrideGB
	}

	if p.CPUs > hostCPUs {
		warnings = append(warnings, fmt.Sprintf("requested %d CPUs but host has %d, clamping", p.CPUs, hostCPUs))
		p.CPUs = hostCPUs
	}
	if p.MemoryGB > hostMemGB {
		warnings = append(warnings, fmt.Sprintf("requested %dGB memory but host has %dGB, clamping", p.MemoryGB, hostMemGB))
		p.MemoryGB = hostMemGB
	}

	return p, warnings
}

// MemoryBytes returns the requested memory limit in bytes.
func (p Profile) MemoryBytes() int64 {
	return int64(p.MemoryGB) * units.GiB
}

// NanoCPUs returns the requested CPU limit in Docker's NanoCPUs unit.
func (p Profile) NanoCPUs() int64 {
	return int64(p.CPUs) * 1e9
}

// String renders the profile for status output.
func (p Profile) String() string {
	return fmt.Sprintf("%d CPUs, %s memory (host: %d CPUs, %dGB)",
		p.CPUs, units.BytesSize(float64(p.MemoryBytes())), p.AvailableCPUs, p.AvailableMemoryGB)
}
