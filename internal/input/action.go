package input

import (
	"context"
	"time"

	"github.com/kaelthys/atreia/internal/config"
)

type MouseButton int

const (
	LeftButton MouseButton = iota
	RightButton
)

// Action is one primitive input step. The combat resolver emits ordered
// action lists; a Dispatcher executes them against the game window. An
// individual action is treated as non-interruptible — cancellation is
// observed between actions, never inside one.
type Action interface {
	isAction()
}

// Click moves the pointer to window-relative (X, Y) and clicks Count times.
type Click struct {
	X, Y   int
	Button MouseButton
	Count  int
}

// PressKey taps a skill keybind, holding modifiers as needed. Hold extends
// the key-down phase beyond the humanized default when non-zero.
type PressKey struct {
	Key  config.Keybind
	Hold time.Duration
}

// Wait pauses between the surrounding actions, e.g. the inter-skill delay
// inside a combo rotation.
type Wait struct {
	Duration time.Duration
}

func (Click) isAction()    {}
func (PressKey) isAction() {}
func (Wait) isAction()     {}

// Dispatcher executes primitive actions in order, stopping at the first
// failure. Implementations check ctx between actions only; retries, if any,
// are the implementation's business.
type Dispatcher interface {
	Dispatch(ctx context.Context, actions ...Action) error
}
