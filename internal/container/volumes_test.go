package container

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/powerdevhq/powerdev/internal/config"
)

func TestDefaultMountsTargets(t *testing.T) {
	cfg := &config.Config{Home: t.TempDir()}
	mounts := DefaultMounts(cfg)

	want := map[string]string{
		"/workspace": cfg.WorkspaceDir(),
		"/data":      cfg.DataDir(),
		"/analysis":  cfg.AnalysisDir(),
		"/logs":      cfg.LogsDir(),
		"/outputs":   cfg.OutputsDir(),
		"/external":  cfg.DefaultExternalDir(),
	}

	got := map[string]string{}
	for _, m := range mounts {
		got[m.Target] = m.Source
	}

	for target, source := range want {
		if got[target] != source {
			t.Errorf("mount %s = %q, want %q", target, got[target], source)
		}
	}
}

func TestDefaultMountsExternalOverride(t *testing.T) {
	external := t.TempDir()
	cfg := &config.Config{Home: t.TempDir(), ExternalDir: external}

	for _, m := range DefaultMounts(cfg) {
		if m.Target == "/external" {
			if m.Source != external {
				t.Errorf("/external source = %q, want %q", m.Source, external)
			}
			return
		}
	}
	t.Error("no /external mount found")
}

func TestDefaultMountsHomeVolume(t *testing.T) {
	cfg := &config.Config{Home: t.TempDir()}

	for _, m := range DefaultMounts(cfg) {
		if m.Target == "/home/"+User {
			if m.Type != "volume" || m.Source != HomeVolume {
				t.Errorf("home mount = %+v, want volume %s", m, HomeVolume)
			}
			return
		}
	}
	t.Error("no home volume mount found")
}

type fakeVolumeEnsurer struct {
	ensured []string
	err     error
}

func (f *fakeVolumeEnsurer) EnsureVolume(_ context.Context, name string) error {
	if f.err != nil {
		return f.err
	}
	f.ensured = append(f.ensured, name)
	return nil
}

func TestPrepareVolumes(t *testing.T) {
	mounts := []Mount{
		{Type: "bind", Source: "/tmp/x", Target: "/x"},
		{Type: "volume", Source: "vol-a", Target: "/a"},
		{Type: "volume", Source: "vol-b", Target: "/b"},
	}

	f := &fakeVolumeEnsurer{}
	if err := PrepareVolumes(context.Background(), f, mounts); err != nil {
		t.Fatalf("PrepareVolumes() error: %v", err)
	}

	want := []string{"vol-a", "vol-b"}
	if len(f.ensured) != len(want) || f.ensured[0] != want[0] || f.ensured[1] != want[1] {
		t.Errorf("ensured volumes = %v, want %v", f.ensured, want)
	}
}

func TestPrepareVolumesPropagatesErrors(t *testing.T) {
	f := &fakeVolumeEnsurer{err: errors.New("engine down")}
	mounts := []Mount{{Type: "volume", Source: "vol-a", Target: "/a"}}

	if err := PrepareVolumes(context.Background(), f, mounts); err == nil {
		t.Error("expected error from failing ensurer")
	}
}

func TestPrepareMounts(t *testing.T) {
	base := t.TempDir()

	mounts := []Mount{
		{Type: "bind", Source: filepath.Join(base, "a"), Target: "/a", CreateHost: true},
		{Type: "bind", Source: filepath.Join(base, "b"), Target: "/b"},
		{Type: "volume", Source: "some-volume", Target: "/v", CreateHost: true},
	}

	if err := PrepareMounts(mounts); err != nil {
		t.Fatalf("PrepareMounts() error: %v", err)
	}

	if info, err := os.Stat(filepath.Join(base, "a")); err != nil || !info.IsDir() {
		t.Error("expected CreateHost bind source to be created")
	}
	if _, err := os.Stat(filepath.Join(base, "b")); !os.IsNotExist(err) {
		t.Error("bind source without CreateHost should not be created")
	}
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}

	tests := []struct {
		input string
		want  string
	}{
		{"~/work", filepath.Join(home, "work")},
		{"~", home},
		{"/absolute/path", "/absolute/path"},
		{"relative", "relative"},
	}

	for _, tt := range tests {
		if got := expandPath(tt.input); got != tt.want {
			t.Errorf("expandPath(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}
