// Package robot emits input events through robotgo.
package robot

import (
	"github.com/go-vgo/robotgo"

	"github.com/ayusman/mudra/internal/action"
)

// Backend implements action.Backend with robotgo toggles.
type Backend struct{}

// New returns a robotgo-backed action.Backend.
func New() *Backend {
	return &Backend{}
}

func (b *Backend) KeyDown(key string) error {
	return robotgo.KeyToggle(key, "down")
}

func (b *Backend) KeyUp(key string) error {
	return robotgo.KeyToggle(key, "up")
}

func (b *Backend) ButtonDown(btn action.Button) error {
	return robotgo.Toggle(buttonName(btn))
}

func (b *Backend) ButtonUp(btn action.Button) error {
	return robotgo.Toggle(buttonName(btn), "up")
}

// buttonName maps a pointer button to robotgo's naming; robotgo calls the middle button "center".
func buttonName(btn action.Button) string {
	switch btn {
	case action.ButtonRight:
		return "right"
	case action.ButtonMiddle:
		return "center"
	default:
		return "left"
	}
}
