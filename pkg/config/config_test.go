package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadReturnsDefaultsWhenFileMissing(t *testing.T) {
	dir := t.TempDir()
	withWorkingDir(t, dir)

	s := Load()
	if s != defaultSettings {
		t.Fatalf("Load() with no file = %+v, want defaults %+v", s, defaultSettings)
	}
}

func TestSaveThenLoadRoundTrips(t *testing.T) {
	dir := t.TempDir()
	withWorkingDir(t, dir)

	want := Settings{MasterVolume: 42, DefaultLoop: true, BillboardEnabled: true, DefaultSaturation: 0.5, TargetFPS: 30}
	if err := Save(want); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	got := Load()
	if got != want {
		t.Fatalf("Load() after Save(%+v) = %+v", want, got)
	}
}

func TestLoadFallsBackOnMalformedFile(t *testing.T) {
	dir := t.TempDir()
	withWorkingDir(t, dir)

	if err := os.WriteFile(filepath.Join(dir, "settings.json"), []byte("not json"), 0o644); err != nil {
		t.Fatalf("failed to write malformed settings file: %v", err)
	}

	got := Load()
	if got != defaultSettings {
		t.Fatalf("Load() with malformed file = %+v, want defaults %+v", got, defaultSettings)
	}
}

func withWorkingDir(t *testing.T, dir string) {
	t.Helper()
	original, err := os.Getwd()
	if err != nil {
		t.Fatalf("Getwd() error = %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("Chdir(%s) error = %v", dir, err)
	}
	t.Cleanup(func() { os.Chdir(original) })
}
