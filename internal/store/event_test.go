package store

import (
	"errors"
	"testing"
	"time"
)

func TestEvents_CreateAndGet(t *testing.T) {
	repo := newTestStore(t).Events()

	e := &Event{
		SessionID:  "session-1",
		GestureKey: "left_pinch",
		Kind:       "press",
		Action:     "w",
	}
	if err := repo.Create(e); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if e.ID == "" {
		t.Fatal("Create() should assign an ID")
	}
	if e.CreatedAt.IsZero() {
		t.Fatal("Create() should assign a timestamp")
	}

	got, err := repo.GetByID(e.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if got.GestureKey != "left_pinch" || got.Kind != "press" || got.Action != "w" || got.Error != "" {
		t.Errorf("GetByID() = %+v", got)
	}
	if !got.CreatedAt.Equal(e.CreatedAt) {
		t.Errorf("CreatedAt = %v, want %v", got.CreatedAt, e.CreatedAt)
	}

	if _, err := repo.GetByID("nope"); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetByID(nope) error = %v, want ErrNotFound", err)
	}
}

func TestEvents_RejectsUnknownKind(t *testing.T) {
	repo := newTestStore(t).Events()

	err := repo.Create(&Event{SessionID: "s", GestureKey: "left_pinch", Kind: "wiggle", Action: "w"})
	if err == nil {
		t.Error("Create() with an unknown kind should fail")
	}
}

func TestEvents_ListAndPrune(t *testing.T) {
	repo := newTestStore(t).Events()

	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	kinds := []string{"press", "release", "tap", "tap", "press"}
	for i, kind := range kinds {
		err := repo.Create(&Event{
			SessionID:  "s",
			GestureKey: "right_two",
			Kind:       kind,
			Action:     "space",
			CreatedAt:  base.Add(time.Duration(i) * time.Second),
		})
		if err != nil {
			t.Fatalf("Create() %d error = %v", i, err)
		}
	}

	events, err := repo.List(3)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(events) != 3 {
		t.Fatalf("List(3) returned %d events", len(events))
	}
	if !events[0].CreatedAt.Equal(base.Add(4 * time.Second)) {
		t.Errorf("newest event at %v, want %v", events[0].CreatedAt, base.Add(4*time.Second))
	}
	if events[2].Kind != "tap" {
		t.Errorf("third newest kind = %q, want tap", events[2].Kind)
	}

	all, err := repo.List(0)
	if err != nil {
		t.Fatalf("List(0) error = %v", err)
	}
	if len(all) != len(kinds) {
		t.Errorf("List(0) returned %d events, want %d", len(all), len(kinds))
	}

	deleted, err := repo.Prune(2)
	if err != nil {
		t.Fatalf("Prune() error = %v", err)
	}
	if deleted != 3 {
		t.Errorf("Prune() deleted %d, want 3", deleted)
	}

	n, err := repo.Count()
	if err != nil {
		t.Fatalf("Count() error = %v", err)
	}
	if n != 2 {
		t.Errorf("Count() = %d, want 2", n)
	}
}

func TestEvents_ListEmpty(t *testing.T) {
	events, err := newTestStore(t).Events().List(10)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if events == nil || len(events) != 0 {
		t.Errorf("List() on empty log = %v, want empty slice", events)
	}
}
