package plugin

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ayusman/mudra/internal/action"
)

// ErrNotInputBackend is returned for plugins that do not declare every
// action in RequiredActions.
var ErrNotInputBackend = errors.New("plugin is not an input backend")

// Backend is an action.Backend that forwards every input event to a plugin.
type Backend struct {
	plugin *Plugin
	exec   *Executor
}

var _ action.Backend = (*Backend)(nil)

// NewBackend creates a Backend for p.
func NewBackend(p *Plugin, exec *Executor) (*Backend, error) {
	var missing []string
	for _, a := range RequiredActions {
		if !p.Manifest.Supports(a) {
			missing = append(missing, a)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s lacks %s", ErrNotInputBackend, p.Manifest.Name, strings.Join(missing, ", "))
	}
	if exec == nil {
		exec = NewExecutor(0)
	}
	return &Backend{plugin: p, exec: exec}, nil
}

// Name returns the plugin name.
func (b *Backend) Name() string {
	return b.plugin.Manifest.Name
}

func (b *Backend) KeyDown(key string) error {
	return b.send(&Request{Action: ActionKeyDown, Key: key})
}

func (b *Backend) KeyUp(key string) error {
	return b.send(&Request{Action: ActionKeyUp, Key: key})
}

func (b *Backend) ButtonDown(btn action.Button) error {
	return b.send(&Request{Action: ActionButtonDown, Button: btn.String()})
}

func (b *Backend) ButtonUp(btn action.Button) error {
	return b.send(&Request{Action: ActionButtonUp, Button: btn.String()})
}

func (b *Backend) send(req *Request) error {
	resp, err := b.exec.Execute(context.Background(), b.plugin, req)
	if err != nil {
		return err
	}
	if !resp.Success {
		return fmt.Errorf("plugin %s: %s: %s", b.plugin.Manifest.Name, req.Action, resp.Error)
	}
	return nil
}
