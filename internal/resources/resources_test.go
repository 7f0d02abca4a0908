package resources

import (
	"testing"

	"github.com/docker/go-units"
)

func TestDefaultCPUs(t *testing.T) {
	tests := []struct {
		hostCPUs int
		want     int
	}{
		{32, 24},
		{24, 24},
		{8, 8},
		{1, 1},
	}

	for _, tt := range tests {
		if got := DefaultCPUs(tt.hostCPUs); got != tt.want {
			t.Errorf("DefaultCPUs(%d) = %d, want %d", tt.hostCPUs, got, tt.want)
		}
	}
}

func TestDefaultMemoryGB(t *testing.T) {
	tests := []struct {
		hostMemGB int
		want      int
	}{
		{256, 200},
		{201, 200},
		{200, 190},
		{16, 6},
		{11, 1},
		{10, 4},
		{8, 4},
		{2, 4},
	}

	for _, tt := range tests {
		if got := DefaultMemoryGB(tt.hostMemGB); got != tt.want {
			t.Errorf("DefaultMemoryGB(%d) = %d, want %d", tt.hostMemGB, got, tt.want)
		}
	}
}

func TestComputeDefaults(t *testing.T) {
	p, warnings := Compute(32, 256*units.GiB, 0, 0)

	if len(warnings) != 0 {
		t.Errorf("unexpected warnings: %v", warnings)
	}
	if p.CPUs != 24 {
		t.Errorf("CPUs = %d, want 24", p.CPUs)
	}
	if p.MemoryGB != 200 {
		t.Errorf("MemoryGB = %d, want 200", p.MemoryGB)
	}
	if p.AvailableCPUs != 32 || p.AvailableMemoryGB != 256 {
		t.Errorf("available = %d CPUs / %dGB, want 32 / 256", p.AvailableCPUs, p.AvailableMemoryGB)
	}
}

func TestComputeOverridesWin(t *testing.T) {
	p, warnings := Compute(16, 64*units.GiB, 8, 32)

	if len(warnings) != 0 {
		t.Errorf("unexpected warnings: %v", warnings)
	}
	if p.CPUs != 8 {
		t.Errorf("CPUs = %d, want override 8", p.CPUs)
	}
	if p.MemoryGB != 32 {
		t.Errorf("MemoryGB = %d, want override 32", p.MemoryGB)
	}
}

func TestComputeClampsOverAsk(t *testing.T) {
	tests := []struct {
		name          string
		hostCPUs      int
		hostMemGB     int
		cpuOverride   int
		memOverride   int
		wantCPUs      int
		wantMemGB     int
		wantWarnCount int
	}{
		{"cpu over-ask", 8, 32, 64, 0, 8, 22, 1},
		{"memory over-ask", 8, 32, 0, 512, 8, 32, 1},
		{"both over-ask", 4, 16, 128, 128, 4, 16, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, warnings := Compute(tt.hostCPUs, int64(tt.hostMemGB)*units.GiB, tt.cpuOverride, tt.memOverride)

			if p.CPUs != tt.wantCPUs {
				t.Errorf("CPUs = %d, want %d", p.CPUs, tt.wantCPUs)
			}
			if p.MemoryGB != tt.wantMemGB {
				t.Errorf("MemoryGB = %d, want %d", p.MemoryGB, tt.wantMemGB)
			}
			if len(warnings) != tt.wantWarnCount {
				t.Errorf("warnings = %v, want %d of them", warnings, tt.wantWarnCount)
			}

			// The invariant: never exceed detected capacity.
			if p.CPUs > p.AvailableCPUs {
				t.Errorf("clamped CPUs %d exceed host %d", p.CPUs, p.AvailableCPUs)
			}
			if p.MemoryGB > p.AvailableMemoryGB {
				t.Errorf("clamped memory %dGB exceeds host %dGB", p.MemoryGB, p.AvailableMemoryGB)
			}
		})
	}
}

func TestProfileUnits(t *testing.T) {
	p := Profile{CPUs: 4, MemoryGB: 6}

	if p.NanoCPUs() != 4e9 {
		t.Errorf("NanoCPUs = %d, want 4e9", p.NanoCPUs())
	}
	if p.MemoryBytes() != 6*units.GiB {
		t.Errorf("MemoryBytes = %d, want %d", p.MemoryBytes(), 6*units.GiB)
	}
}
