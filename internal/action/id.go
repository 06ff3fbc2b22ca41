// Package action resolves action strings into input targets and emits key and
// pointer-button events for them.
package action

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

// ErrUnknownKey is returned by Parse for multi-character names that are not
// a known symbolic key.
var ErrUnknownKey = errors.New("unknown key")

// Kind tags the variant held by an ID.
type Kind int

const (
	KindNone Kind = iota
	KindKey
	KindButton
)

// Button is a pointer button.
type Button int

const (
	ButtonLeft Button = iota
	ButtonRight
	ButtonMiddle
)

const mousePrefix = "mouse_"

var buttonNames = map[string]Button{
	"left":   ButtonLeft,
	"right":  ButtonRight,
	"middle": ButtonMiddle,
}

func (b Button) String() string {
	switch b {
	case ButtonRight:
		return "right"
	case ButtonMiddle:
		return "middle"
	default:
		return "left"
	}
}

// symbolicKeys maps accepted key names (and aliases) to canonical names.
var symbolicKeys = map[string]string{
	"space":     "space",
	"enter":     "enter",
	"return":    "enter",
	"esc":       "esc",
	"escape":    "esc",
	"tab":       "tab",
	"shift":     "shift",
	"ctrl":      "ctrl",
	"control":   "ctrl",
	"alt":       "alt",
	"cmd":       "cmd",
	"up":        "up",
	"down":      "down",
	"left":      "left",
	"right":     "right",
	"backspace": "backspace",
	"delete":    "delete",
	"home":      "home",
	"end":       "end",
	"pageup":    "pageup",
	"page_up":   "pageup",
	"pagedown":  "pagedown",
	"page_down": "pagedown",
}

func init() {
	for i := 1; i <= 12; i++ {
		name := fmt.Sprintf("f%d", i)
		symbolicKeys[name] = name
	}
}

// Suggestions lists the action strings offered by settings editors.
var Suggestions = []string{
	"mouse_left", "mouse_right", "mouse_middle",
	"space", "enter", "esc", "tab",
	"shift", "ctrl", "alt",
	"up", "down", "left", "right",
}

// ID is a resolved action target.
type ID struct {
	Kind   Kind
	Key    string
	Button Button
}

// None is the action that emits nothing.
var None = ID{}

// KeyID returns the ID for a key name.
func KeyID(name string) ID { return ID{Kind: KindKey, Key: name} }

// ButtonID returns the ID for a pointer button.
func ButtonID(b Button) ID { return ID{Kind: KindButton, Button: b} }

// IsNone reports whether the ID emits nothing.
func (id ID) IsNone() bool { return id.Kind == KindNone }

// String returns the persisted form of the ID.
func (id ID) String() string {
	switch id.Kind {
	case KindKey:
		return id.Key
	case KindButton:
		return mousePrefix + id.Button.String()
	default:
		return "none"
	}
}

// Parse resolves an action string.
//
// "none" and the empty string resolve to None. Strings with the "mouse_"
// prefix resolve to a pointer button, with unknown suffixes falling back to
// the left button. The legacy "Key." prefix is stripped. Known symbolic names
// resolve to keys, any other single character is sent literally, and
// anything else is an ErrUnknownKey.
func Parse(s string) (ID, error) {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "none") {
		return None, nil
	}

	if strings.HasPrefix(s, mousePrefix) {
		b, ok := buttonNames[strings.TrimPrefix(s, mousePrefix)]
		if !ok {
			b = ButtonLeft
		}
		return ButtonID(b), nil
	}

	s = strings.TrimPrefix(s, "Key.")
	if name, ok := symbolicKeys[strings.ToLower(s)]; ok {
		return KeyID(name), nil
	}
	if utf8.RuneCountInString(s) == 1 {
		return KeyID(s), nil
	}

	return None, fmt.Errorf("%w: %q", ErrUnknownKey, s)
}
