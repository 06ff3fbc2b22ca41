package store

import (
	"errors"
	"testing"

	"github.com/ayusman/mudra/internal/action"
	"github.com/ayusman/mudra/internal/config"
	"github.com/ayusman/mudra/internal/gesture"
)

func TestSettings_GetSet(t *testing.T) {
	repo := newTestStore(t).Settings()

	if _, err := repo.Get("missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get(missing) error = %v, want ErrNotFound", err)
	}

	if err := repo.Set("theme", "dark"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if err := repo.Set("theme", "light"); err != nil {
		t.Fatalf("Set() overwrite error = %v", err)
	}
	if v, err := repo.Get("theme"); err != nil || v != "light" {
		t.Errorf("Get() = %q, %v; want \"light\", nil", v, err)
	}

	if err := repo.Delete("theme"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if err := repo.Delete("theme"); err != nil {
		t.Errorf("Delete() of missing key error = %v", err)
	}
	if _, err := repo.Get("theme"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get() after Delete error = %v, want ErrNotFound", err)
	}
}

func TestSettings_Bool(t *testing.T) {
	repo := newTestStore(t).Settings()

	if !repo.GetBool(KeyDetectionEnabled, true) {
		t.Error("GetBool() of unset key should return the default")
	}

	if err := repo.SetBool(KeyDetectionEnabled, false); err != nil {
		t.Fatalf("SetBool() error = %v", err)
	}
	if repo.GetBool(KeyDetectionEnabled, true) {
		t.Error("GetBool() = true, want false")
	}

	if err := repo.Set(KeyDetectionEnabled, "maybe"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if !repo.GetBool(KeyDetectionEnabled, true) {
		t.Error("GetBool() of unparsable value should return the default")
	}
}

func TestSettings_Snapshot(t *testing.T) {
	repo := newTestStore(t).Settings()

	if _, err := repo.LoadSnapshot(); !errors.Is(err, ErrNotFound) {
		t.Errorf("LoadSnapshot() on empty store error = %v, want ErrNotFound", err)
	}

	want := config.Default()
	want.MirrorControls = true
	want.Assignments[gesture.RightTwo] = action.Descriptor{
		Action:   action.ButtonID(action.ButtonRight),
		Mode:     action.Repeat,
		RepeatHz: 3,
		TapMs:    20,
	}

	if err := repo.SaveSnapshot(want); err != nil {
		t.Fatalf("SaveSnapshot() error = %v", err)
	}

	got, err := repo.LoadSnapshot()
	if err != nil {
		t.Fatalf("LoadSnapshot() error = %v", err)
	}
	if !config.Equal(want, got) {
		t.Errorf("LoadSnapshot() = %+v, want %+v", got, want)
	}
}
