// Package plugin runs external input backends. A plugin is an executable
// described by a plugin.json manifest; it receives one JSON request on stdin
// per input event and answers with one JSON response on stdout.
package plugin

// Actions a plugin must support to serve as an input backend.
const (
	ActionKeyDown    = "key_down"
	ActionKeyUp      = "key_up"
	ActionButtonDown = "button_down"
	ActionButtonUp   = "button_up"
)

// RequiredActions lists the actions an input backend plugin must declare.
var RequiredActions = []string{ActionKeyDown, ActionKeyUp, ActionButtonDown, ActionButtonUp}

// Manifest describes a plugin's metadata and capabilities.
type Manifest struct {
	Name        string   `json:"name"`
	Version     string   `json:"version"`
	Description string   `json:"description"`
	Executable  string   `json:"executable"`
	Actions     []string `json:"actions"`
}

// Supports reports whether the manifest declares action.
func (m Manifest) Supports(action string) bool {
	for _, a := range m.Actions {
		if a == action {
			return true
		}
	}
	return false
}

// Request is one input event sent to a plugin. Key is set for key actions,
// Button ("left", "right" or "middle") for button actions.
type Request struct {
	Action string `json:"action"`
	Key    string `json:"key,omitempty"`
	Button string `json:"button,omitempty"`
}

// Response is a plugin's answer to a Request.
type Response struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// Plugin represents a discovered plugin with its manifest and location.
type Plugin struct {
	Manifest   Manifest
	Path       string
	Executable string
}
