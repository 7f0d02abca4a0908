package container

import "testing"

func TestStateFromStatus(t *testing.T) {
	tests := []struct {
		status string
		want   State
	}{
		{"created", StateCreated},
		{"running", StateRunning},
		{"restarting", StateRunning},
		{"exited", StateStopped},
		{"dead", StateStopped},
		{"paused", StateStopped},
	}

	for _, tt := range tests {
		t.Run(tt.status, func(t *testing.T) {
			if got := stateFromStatus(tt.status); got != tt.want {
				t.Errorf("stateFromStatus(%q) = %q, want %q", tt.status, got, tt.want)
			}
		})
	}
}
