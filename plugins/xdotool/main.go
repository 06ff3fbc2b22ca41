// Package main provides an input backend plugin for X11 desktops.
// It presses and releases keys and mouse buttons through xdotool.
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
)

// Request represents the input from the plugin executor.
type Request struct {
	Action string `json:"action"`
	Key    string `json:"key,omitempty"`
	Button string `json:"button,omitempty"`
}

// Response represents the output to the plugin executor.
type Response struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// keysyms maps mudra key names to X keysyms. Single characters pass through.
var keysyms = map[string]string{
	"space":     "space",
	"enter":     "Return",
	"esc":       "Escape",
	"tab":       "Tab",
	"shift":     "Shift_L",
	"ctrl":      "Control_L",
	"alt":       "Alt_L",
	"cmd":       "Super_L",
	"up":        "Up",
	"down":      "Down",
	"left":      "Left",
	"right":     "Right",
	"backspace": "BackSpace",
	"delete":    "Delete",
	"home":      "Home",
	"end":       "End",
	"pageup":    "Prior",
	"pagedown":  "Next",
}

// buttons maps button names to X button numbers.
var buttons = map[string]string{
	"left":   "1",
	"middle": "2",
	"right":  "3",
}

func main() {
	var req Request
	if err := json.NewDecoder(os.Stdin).Decode(&req); err != nil {
		writeResponse(fmt.Errorf("failed to decode request: %w", err))
		return
	}

	args, err := command(req)
	if err != nil {
		writeResponse(err)
		return
	}
	writeResponse(runXdotool(args))
}

// command builds the xdotool arguments for req.
func command(req Request) ([]string, error) {
	switch req.Action {
	case "key_down", "key_up":
		if req.Key == "" {
			return nil, fmt.Errorf("key is required")
		}
		verb := "keydown"
		if req.Action == "key_up" {
			verb = "keyup"
		}
		return []string{verb, keysym(req.Key)}, nil

	case "button_down", "button_up":
		n, ok := buttons[req.Button]
		if !ok {
			return nil, fmt.Errorf("unknown button %q", req.Button)
		}
		verb := "mousedown"
		if req.Action == "button_up" {
			verb = "mouseup"
		}
		return []string{verb, n}, nil
	}
	return nil, fmt.Errorf("unknown action: %s", req.Action)
}

func keysym(key string) string {
	if s, ok := keysyms[key]; ok {
		return s
	}
	if len(key) >= 2 && (key[0] == 'f' || key[0] == 'F') {
		return "F" + key[1:]
	}
	return key
}

func runXdotool(args []string) error {
	out, err := exec.Command("xdotool", args...).CombinedOutput()
	if err != nil {
		return fmt.Errorf("%w: %s", err, string(out))
	}
	return nil
}

// writeResponse writes the response for err to stdout.
func writeResponse(err error) {
	resp := Response{Success: err == nil}
	if err != nil {
		resp.Error = err.Error()
	}
	json.NewEncoder(os.Stdout).Encode(resp)
}
