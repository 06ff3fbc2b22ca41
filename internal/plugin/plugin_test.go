package plugin

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/ayusman/mudra/internal/action"
)

// writeScript creates an executable shell plugin in a new directory.
func writeScript(t *testing.T, name, body string, actions ...string) *Plugin {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("skipping test on Windows")
	}

	dir := filepath.Join(t.TempDir(), name)
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatalf("failed to create plugin dir: %v", err)
	}

	script := filepath.Join(dir, "run.sh")
	if err := os.WriteFile(script, []byte("#!/bin/sh\n"+body), 0755); err != nil {
		t.Fatalf("failed to write script: %v", err)
	}

	return &Plugin{
		Manifest:   Manifest{Name: name, Executable: "run.sh", Actions: actions},
		Path:       dir,
		Executable: script,
	}
}

func writeManifest(t *testing.T, dir string, m Manifest) {
	t.Helper()
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatalf("failed to create plugin dir: %v", err)
	}
	data, err := json.Marshal(m)
	if err != nil {
		t.Fatalf("failed to marshal manifest: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, ManifestFile), data, 0644); err != nil {
		t.Fatalf("failed to write manifest: %v", err)
	}
}

func TestExecutor_Execute(t *testing.T) {
	tests := []struct {
		name        string
		body        string
		timeout     time.Duration
		wantErr     string
		wantSuccess bool
		wantMessage string
	}{
		{
			name:        "success",
			body:        `echo '{"success":true}'`,
			wantSuccess: true,
		},
		{
			name:        "reads request from stdin",
			body:        `if grep -q '"key":"space"'; then echo '{"success":true}'; else echo '{"success":false,"error":"no key"}'; fi`,
			wantSuccess: true,
		},
		{
			name:        "error response",
			body:        `echo '{"success":false,"error":"display unavailable"}'`,
			wantMessage: "display unavailable",
		},
		{
			name:    "invalid json",
			body:    `echo 'not json'`,
			wantErr: "failed to parse plugin response",
		},
		{
			name:    "non-zero exit",
			body:    `echo 'boom' >&2; exit 3`,
			wantErr: "stderr: boom",
		},
		{
			name:    "timeout",
			body:    `sleep 2; echo '{"success":true}'`,
			timeout: 100 * time.Millisecond,
			wantErr: "timed out",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := writeScript(t, "test-plugin", tt.body+"\n")
			exec := NewExecutor(tt.timeout)

			resp, err := exec.Execute(context.Background(), p, &Request{Action: ActionKeyDown, Key: "space"})
			if tt.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
					t.Fatalf("Execute() error = %v, want containing %q", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Execute() failed: %v", err)
			}
			if resp.Success != tt.wantSuccess {
				t.Errorf("Success = %v, want %v", resp.Success, tt.wantSuccess)
			}
			if resp.Error != tt.wantMessage {
				t.Errorf("Error = %q, want %q", resp.Error, tt.wantMessage)
			}
		})
	}
}

func TestNewExecutor_DefaultTimeout(t *testing.T) {
	if got := NewExecutor(0).Timeout(); got != DefaultTimeout {
		t.Errorf("Timeout() = %v, want %v", got, DefaultTimeout)
	}
	if got := NewExecutor(time.Second).Timeout(); got != time.Second {
		t.Errorf("Timeout() = %v, want 1s", got)
	}
}

func TestManager_Discover(t *testing.T) {
	root := t.TempDir()

	writeManifest(t, filepath.Join(root, "xdotool"), Manifest{
		Name:       "xdotool",
		Version:    "1.0.0",
		Executable: "xdotool-backend",
		Actions:    RequiredActions,
	})
	writeManifest(t, filepath.Join(root, "alpha"), Manifest{Name: "alpha", Executable: "alpha"})

	// Invalid manifest, directory without manifest, and a stray file.
	os.MkdirAll(filepath.Join(root, "broken"), 0755)
	os.WriteFile(filepath.Join(root, "broken", ManifestFile), []byte("{invalid"), 0644)
	os.MkdirAll(filepath.Join(root, "empty"), 0755)
	os.WriteFile(filepath.Join(root, "README"), []byte("plugins"), 0644)

	m := NewManager(root, nil)
	if err := m.Discover(); err != nil {
		t.Fatalf("Discover() failed: %v", err)
	}

	plugins := m.List()
	if len(plugins) != 2 {
		t.Fatalf("expected 2 plugins, got %d", len(plugins))
	}
	if plugins[0].Manifest.Name != "alpha" || plugins[1].Manifest.Name != "xdotool" {
		t.Errorf("plugins not sorted: %s, %s", plugins[0].Manifest.Name, plugins[1].Manifest.Name)
	}

	p, err := m.Get("xdotool")
	if err != nil {
		t.Fatalf("Get() failed: %v", err)
	}
	if want := filepath.Join(root, "xdotool", "xdotool-backend"); p.Executable != want {
		t.Errorf("Executable = %q, want %q", p.Executable, want)
	}
	if p.Path != filepath.Join(root, "xdotool") {
		t.Errorf("Path = %q", p.Path)
	}

	if _, err := m.Get("broken"); !errors.Is(err, ErrPluginNotFound) {
		t.Errorf("Get(broken) error = %v, want ErrPluginNotFound", err)
	}
	if m.PluginDir() != root {
		t.Errorf("PluginDir() = %q, want %q", m.PluginDir(), root)
	}
}

func TestManager_Discover_NonExistentDir(t *testing.T) {
	m := NewManager(filepath.Join(t.TempDir(), "missing"), nil)
	if err := m.Discover(); err != nil {
		t.Fatalf("Discover() failed: %v", err)
	}
	if len(m.List()) != 0 {
		t.Error("expected no plugins")
	}
}

func TestManager_Discover_Rescan(t *testing.T) {
	root := t.TempDir()
	writeManifest(t, filepath.Join(root, "one"), Manifest{Name: "one"})

	m := NewManager(root, nil)
	m.Discover()

	os.RemoveAll(filepath.Join(root, "one"))
	if err := m.Discover(); err != nil {
		t.Fatalf("Discover() failed: %v", err)
	}
	if _, err := m.Get("one"); !errors.Is(err, ErrPluginNotFound) {
		t.Error("removed plugin still listed after rescan")
	}
}

func TestNewBackend_RequiresInputActions(t *testing.T) {
	p := &Plugin{Manifest: Manifest{Name: "volume", Actions: []string{ActionKeyDown, "volume-up"}}}

	_, err := NewBackend(p, nil)
	if !errors.Is(err, ErrNotInputBackend) {
		t.Fatalf("NewBackend() error = %v, want ErrNotInputBackend", err)
	}
	if !strings.Contains(err.Error(), ActionButtonUp) {
		t.Errorf("error %q does not name the missing actions", err)
	}
}

func TestBackend_SendsEvents(t *testing.T) {
	log := filepath.Join(t.TempDir(), "requests.log")
	p := writeScript(t, "recorder", `cat >> "`+log+`"; echo >> "`+log+`"; echo '{"success":true}'`+"\n", RequiredActions...)

	b, err := NewBackend(p, NewExecutor(5*time.Second))
	if err != nil {
		t.Fatalf("NewBackend() error = %v", err)
	}
	if b.Name() != "recorder" {
		t.Errorf("Name() = %q", b.Name())
	}

	em := action.NewEmitter(b, nil)
	if err := em.Apply(action.KeyID("w"), true); err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	if err := em.Apply(action.KeyID("w"), false); err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	if err := em.Apply(action.ButtonID(action.ButtonRight), true); err != nil {
		t.Fatalf("Apply() error = %v", err)
	}

	data, err := os.ReadFile(log)
	if err != nil {
		t.Fatalf("failed to read request log: %v", err)
	}

	var got []Request
	for _, line := range strings.Split(strings.TrimSpace(string(data)), "\n") {
		var req Request
		if err := json.Unmarshal([]byte(line), &req); err != nil {
			t.Fatalf("bad request line %q: %v", line, err)
		}
		got = append(got, req)
	}

	want := []Request{
		{Action: ActionKeyDown, Key: "w"},
		{Action: ActionKeyUp, Key: "w"},
		{Action: ActionButtonDown, Button: "right"},
	}
	if len(got) != len(want) {
		t.Fatalf("requests = %+v, want %+v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("request %d = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestBackend_FailureResponse(t *testing.T) {
	p := writeScript(t, "failing", `echo '{"success":false,"error":"no display"}'`+"\n", RequiredActions...)

	b, err := NewBackend(p, nil)
	if err != nil {
		t.Fatalf("NewBackend() error = %v", err)
	}

	err = b.KeyDown("w")
	if err == nil || !strings.Contains(err.Error(), "no display") {
		t.Errorf("KeyDown() error = %v, want the plugin's error", err)
	}
}
