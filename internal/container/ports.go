package container

import (
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

// PortMapping represents one published host:container port pair.
type PortMapping struct {
	Host      int
	Container int
}

// PortConflict represents a host port that is already in use.
type PortConflict struct {
	Port        int
	ProcessName string
	ProcessPID  string
	Suggestion  int
}

// CheckPortInUse checks if a host port currently has a listener.
func CheckPortInUse(port int) bool {
	// lsof succeeding means something is listening
	cmd := exec.Command("lsof", "-i", fmt.Sprintf(":%d", port), "-sTCP:LISTEN")
	err := cmd.Run()
	return err == nil
}

// FindFreePort finds a free port starting from basePort.
// It tries basePort+1000 first, then basePort+1 to basePort+100.
func FindFreePort(basePort int) (int, bool) {
	candidate := basePort + 1000
	if !CheckPortInUse(candidate) {
		return candidate, true
	}

	for offset := 1; offset <= 100; offset++ {
		candidate = basePort + offset
		if !CheckPortInUse(candidate) {
			return candidate, true
		}
	}

	return 0, false
}

// DetectPortConflicts checks the host side of each mapping and returns
// conflict details including the owning process and a suggested
// alternative.
func DetectPortConflicts(portMappings []PortMapping) []PortConflict {
	var conflicts []PortConflict

	for _, mapping := range portMappings {
		if CheckPortInUse(mapping.Host) {
			conflict := PortConflict{
				Port: mapping.Host,
			}

			if processName, processPID := getPortProcess(mapping.Host); processName != "" {
				conflict.ProcessName = processName
				conflict.ProcessPID = processPID
			}

			if suggestion, found := FindFreePort(mapping.Host); found {
				conflict.Suggestion = suggestion
			}

			conflicts = append(conflicts, conflict)
		}
	}

	return conflicts
}

// getPortProcess gets the process name and PID listening on a port.
func getPortProcess(port int) (string, string) {
	cmd := exec.Command("lsof", "-i", fmt.Sprintf(":%d", port), "-sTCP:LISTEN", "-t")
	output, err := cmd.Output()
	if err != nil {
		return "", ""
	}

	pid := strings.TrimSpace(string(output))
	lines := strings.Split(pid, "\n")
	if len(lines) == 0 || lines[0] == "" {
		return "", ""
	}

	pid = lines[0]

	cmd = exec.Command("ps", "-p", pid, "-o", "comm=")
	output, err = cmd.Output()
	if err != nil {
		return "", pid
	}

	return strings.TrimSpace(string(output)), pid
}

// AutoRemapPorts remaps conflicting host ports to their suggested
// alternatives without prompting. Used by daemon mode where no
// operator is present. Returns an error when any conflict has no free
// alternative.
func AutoRemapPorts(portMappings []PortMapping) ([]PortMapping, []PortConflict, error) {
	conflicts := DetectPortConflicts(portMappings)
	if len(conflicts) == 0 {
		return portMappings, nil, nil
	}

	for _, c := range conflicts {
		if c.Suggestion == 0 {
			return portMappings, conflicts, fmt.Errorf("no free alternative for port %d", c.Port)
		}
	}

	return applyPortRemapping(portMappings, conflicts), conflicts, nil
}

// applyPortRemapping applies the suggested port remappings.
func applyPortRemapping(portMappings []PortMapping, conflicts []PortConflict) []PortMapping {
	result := make([]PortMapping, len(portMappings))
	copy(result, portMappings)

	for i := range result {
		for _, c := range conflicts {
			if result[i].Host == c.Port && c.Suggestion > 0 {
				result[i].Host = c.Suggestion
				break
			}
		}
	}

	return result
}

// ParsePortMapping parses a port mapping string like "3000:3000" or
// "3000".
func ParsePortMapping(s string) (PortMapping, error) {
	s = strings.TrimSpace(s)

	if strings.Contains(s, ":") {
		parts := strings.Split(s, ":")
		if len(parts) != 2 {
			return PortMapping{}, fmt.Errorf("invalid port mapping format: %s", s)
		}

		host, err := strconv.Atoi(strings.TrimSpace(parts[0]))
		if err != nil {
			return PortMapping{}, fmt.Errorf("invalid host port: %s", parts[0])
		}

		container, err := strconv.Atoi(strings.TrimSpace(parts[1]))
		if err != nil {
			return PortMapping{}, fmt.Errorf("invalid container port: %s", parts[1])
		}

		return PortMapping{Host: host, Container: container}, nil
	}

	port, err := strconv.Atoi(s)
	if err != nil {
		return PortMapping{}, fmt.Errorf("invalid port: %s", s)
	}

	return PortMapping{Host: port, Container: port}, nil
}
