package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ayusman/mudra/internal/action"
	"github.com/ayusman/mudra/internal/config"
	"github.com/ayusman/mudra/internal/engine"
	"github.com/ayusman/mudra/internal/store"
)

// fakeController implements ConfigController and EngineController.
type fakeController struct {
	holder    *config.Holder
	applyErr  error
	reloadErr error
	changed   bool
	applied   int
	enabled   bool
	status    string
}

func newFakeController() *fakeController {
	return &fakeController{holder: config.NewHolder(nil), enabled: true, status: "No hands"}
}

func (f *fakeController) Config() *config.Snapshot { return f.holder.Load() }

func (f *fakeController) ApplyConfig(s *config.Snapshot) error {
	if f.applyErr != nil {
		return f.applyErr
	}
	f.applied++
	f.holder.Store(s)
	return nil
}

func (f *fakeController) ReloadConfig() (bool, error) { return f.changed, f.reloadErr }
func (f *fakeController) SetEnabled(enabled bool)    { f.enabled = enabled }
func (f *fakeController) IsEnabled() bool            { return f.enabled }
func (f *fakeController) Running() bool              { return true }
func (f *fakeController) Status() string             { return f.status }
func (f *fakeController) Stats() engine.Stats        { return engine.Stats{Frames: 42, Intents: 3} }

// newTestStore creates a new Store with a temporary database for testing.
func newTestStore(t *testing.T) *store.Store {
	t.Helper()

	s, err := store.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() {
		s.Close()
	})

	return s
}

func decodeConfig(t *testing.T, rec *httptest.ResponseRecorder) (*config.Snapshot, []string) {
	t.Helper()

	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("expected Content-Type application/json, got %s", ct)
	}

	var resp configResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	snap, err := config.Parse(resp.Config, config.FormatJSON)
	if err != nil {
		t.Fatalf("response config does not parse: %v", err)
	}
	return snap, resp.Warnings
}

func TestConfigHandler_Get(t *testing.T) {
	ctrl := newFakeController()
	h := NewConfigHandler(ctrl, nil)

	t.Run("json", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/config", nil)
		rec := httptest.NewRecorder()

		h.Get(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
		}
		snap, _ := decodeConfig(t, rec)
		if !config.Equal(snap, config.Default()) {
			t.Error("expected the default configuration")
		}
	})

	t.Run("yaml", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/config?format=yaml", nil)
		rec := httptest.NewRecorder()

		h.Get(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
		}
		if ct := rec.Header().Get("Content-Type"); ct != "application/yaml" {
			t.Errorf("expected Content-Type application/yaml, got %s", ct)
		}
		snap, err := config.Parse(rec.Body.Bytes(), config.FormatYAML)
		if err != nil {
			t.Fatalf("body does not parse as yaml: %v", err)
		}
		if !config.Equal(snap, config.Default()) {
			t.Error("expected the default configuration")
		}
	})
}

func TestConfigHandler_Put(t *testing.T) {
	t.Run("applies document", func(t *testing.T) {
		ctrl := newFakeController()
		h := NewConfigHandler(ctrl, nil)

		body := `{
			"mirror_view": true,
			"thresholds": {"pinch_dist": 0.04},
			"assignments": {
				"left_pinch": "space",
				"right_two": {"action": "mouse_left", "mode": "repeat", "repeat_hz": 10},
				"left_palm": "x"
			}
		}`
		req := httptest.NewRequest(http.MethodPut, "/api/config", strings.NewReader(body))
		rec := httptest.NewRecorder()

		h.Put(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected status %d, got %d: %s", http.StatusOK, rec.Code, rec.Body.String())
		}
		snap, warnings := decodeConfig(t, rec)
		if len(warnings) == 0 {
			t.Error("expected a warning for the unknown gesture key")
		}
		if ctrl.applied != 1 {
			t.Fatalf("ApplyConfig called %d times, want 1", ctrl.applied)
		}

		active := ctrl.Config()
		if !config.Equal(snap, active) {
			t.Error("response does not match the applied configuration")
		}
		if !active.MirrorView || active.Thresholds.PinchDist != 0.04 {
			t.Errorf("unexpected configuration: %+v", active)
		}
		if got := active.Assignments[0].Action; got != action.KeyID("space") {
			t.Errorf("left_pinch = %v, want space", got)
		}
	})

	t.Run("malformed body keeps configuration", func(t *testing.T) {
		ctrl := newFakeController()
		h := NewConfigHandler(ctrl, nil)

		req := httptest.NewRequest(http.MethodPut, "/api/config", strings.NewReader(`{"mirror_view": tru`))
		rec := httptest.NewRecorder()

		h.Put(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected status %d, got %d", http.StatusBadRequest, rec.Code)
		}
		if ctrl.applied != 0 {
			t.Error("malformed body should not be applied")
		}
	})

	t.Run("too large", func(t *testing.T) {
		h := NewConfigHandler(newFakeController(), nil)

		req := httptest.NewRequest(http.MethodPut, "/api/config", bytes.NewReader(make([]byte, maxBodyBytes+1)))
		rec := httptest.NewRecorder()

		h.Put(rec, req)

		if rec.Code != http.StatusRequestEntityTooLarge {
			t.Errorf("expected status %d, got %d", http.StatusRequestEntityTooLarge, rec.Code)
		}
	})

	t.Run("apply failure", func(t *testing.T) {
		ctrl := newFakeController()
		ctrl.applyErr = errors.New("disk full")
		h := NewConfigHandler(ctrl, nil)

		req := httptest.NewRequest(http.MethodPut, "/api/config", strings.NewReader(`{}`))
		rec := httptest.NewRecorder()

		h.Put(rec, req)

		if rec.Code != http.StatusInternalServerError {
			t.Errorf("expected status %d, got %d", http.StatusInternalServerError, rec.Code)
		}
	})
}

func TestConfigHandler_Reset(t *testing.T) {
	ctrl := newFakeController()
	custom := config.Default()
	custom.DebugDraw = false
	ctrl.holder.Store(custom)

	h := NewConfigHandler(ctrl, nil)
	req := httptest.NewRequest(http.MethodPost, "/api/config/reset", nil)
	rec := httptest.NewRecorder()

	h.Reset(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
	}
	if !config.Equal(ctrl.Config(), config.Default()) {
		t.Error("configuration was not reset to defaults")
	}
}

func TestConfigHandler_Reload(t *testing.T) {
	tests := []struct {
		name       string
		changed    bool
		err        error
		wantStatus int
	}{
		{name: "changed", changed: true, wantStatus: http.StatusOK},
		{name: "unchanged", wantStatus: http.StatusOK},
		{name: "failure", err: errors.New("no settings file configured"), wantStatus: http.StatusConflict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := newFakeController()
			ctrl.changed = tt.changed
			ctrl.reloadErr = tt.err
			h := NewConfigHandler(ctrl, nil)

			req := httptest.NewRequest(http.MethodPost, "/api/config/reload", nil)
			rec := httptest.NewRecorder()

			h.Reload(rec, req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("expected status %d, got %d", tt.wantStatus, rec.Code)
			}
			if tt.err != nil {
				return
			}
			var resp reloadResponse
			if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
				t.Fatalf("failed to decode response: %v", err)
			}
			if resp.Changed != tt.changed {
				t.Errorf("changed = %v, want %v", resp.Changed, tt.changed)
			}
		})
	}
}

func TestEngineHandler(t *testing.T) {
	ctrl := newFakeController()
	h := NewEngineHandler(ctrl)

	call := func(fn http.HandlerFunc, method, path string) statusResponse {
		t.Helper()
		req := httptest.NewRequest(method, path, nil)
		rec := httptest.NewRecorder()
		fn(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("%s %s: expected status %d, got %d", method, path, http.StatusOK, rec.Code)
		}
		var resp statusResponse
		if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		return resp
	}

	resp := call(h.Status, http.MethodGet, "/api/status")
	if !resp.Enabled || !resp.Running || resp.Status != "No hands" || resp.Stats.Frames != 42 {
		t.Errorf("unexpected status response: %+v", resp)
	}

	if resp := call(h.Stop, http.MethodPost, "/api/engine/stop"); resp.Enabled {
		t.Error("stop should disable detection")
	}
	if ctrl.enabled {
		t.Error("controller still enabled after stop")
	}

	if resp := call(h.Start, http.MethodPost, "/api/engine/start"); !resp.Enabled {
		t.Error("start should enable detection")
	}
}

func TestEventHandler_List(t *testing.T) {
	s := newTestStore(t)
	h := NewEventHandler(s)

	base := time.Now().Add(-time.Minute)
	for i, kind := range []string{"press", "release", "tap"} {
		err := s.Events().Create(&store.Event{
			SessionID:  "session-1",
			GestureKey: "left_pinch",
			Kind:       kind,
			Action:     "w",
			CreatedAt:  base.Add(time.Duration(i) * time.Second),
		})
		if err != nil {
			t.Fatalf("failed to create event: %v", err)
		}
	}

	t.Run("default limit", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/events", nil)
		rec := httptest.NewRecorder()

		h.List(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
		}
		var resp eventListResponse
		if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if resp.Total != 3 || len(resp.Events) != 3 {
			t.Fatalf("got %d events of %d, want 3 of 3", len(resp.Events), resp.Total)
		}
		if resp.Events[0].Kind != "tap" {
			t.Errorf("newest event kind = %s, want tap", resp.Events[0].Kind)
		}
	})

	t.Run("explicit limit", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/events?limit=1", nil)
		rec := httptest.NewRecorder()

		h.List(rec, req)

		var resp eventListResponse
		if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if len(resp.Events) != 1 || resp.Total != 3 {
			t.Errorf("got %d events of %d, want 1 of 3", len(resp.Events), resp.Total)
		}
	})

	for _, bad := range []string{"0", "-3", "ten"} {
		t.Run("invalid limit "+bad, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/events?limit="+bad, nil)
			rec := httptest.NewRecorder()

			h.List(rec, req)

			if rec.Code != http.StatusBadRequest {
				t.Errorf("expected status %d, got %d", http.StatusBadRequest, rec.Code)
			}
		})
	}
}

func TestSuggestions(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/actions/suggestions", nil)
	rec := httptest.NewRecorder()

	Suggestions(rec, req)

	var resp suggestionsResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(resp.Suggestions) != 14 || resp.Suggestions[0] != "mouse_left" {
		t.Errorf("suggestions = %v", resp.Suggestions)
	}
	if len(resp.Keys) != 6 || resp.Keys[0] != "left_pinch" {
		t.Errorf("keys = %v", resp.Keys)
	}
	if len(resp.Modes) != 2 {
		t.Errorf("modes = %v", resp.Modes)
	}
}
