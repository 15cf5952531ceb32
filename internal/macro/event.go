// Package macro holds the recorded event model and its on-disk JSON store.
package macro

import (
	"strings"

	json "github.com/json-iterator/go"

	"github.com/xkilldash9x/rere/internal/input"
)

// Kind identifies what a recorded event does.
type Kind string

const (
	KeyDown     Kind = "key_down"
	KeyUp       Kind = "key_up"
	MouseMove   Kind = "mouse_move"
	MouseDown   Kind = "mouse_down"
	MouseUp     Kind = "mouse_up"
	MouseScroll Kind = "mouse_scroll"
)

// Button is a mouse button name.
type Button string

const (
	ButtonLeft   Button = "left"
	ButtonRight  Button = "right"
	ButtonMiddle Button = "middle"
)

const buttonPrefix = "Button."

// MarshalJSON writes buttons in the "Button.left" form used by saved macros.
func (b Button) MarshalJSON() ([]byte, error) {
	if b == "" {
		return json.Marshal("")
	}
	return json.Marshal(buttonPrefix + string(b))
}

// UnmarshalJSON accepts both "Button.left" and bare "left".
// Unrecognized names are kept so playback can skip them.
func (b *Button) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*b = ParseButton(s)
	return nil
}

// ParseButton normalizes a button name, dropping the "Button." prefix.
func ParseButton(s string) Button {
	return Button(strings.ToLower(strings.TrimPrefix(strings.TrimSpace(s), buttonPrefix)))
}

// Flags returns the sink flags for pressing and releasing b.
func (b Button) Flags() (down, up input.ButtonFlag, ok bool) {
	switch b {
	case ButtonLeft:
		return input.LeftDown, input.LeftUp, true
	case ButtonRight:
		return input.RightDown, input.RightUp, true
	case ButtonMiddle:
		return input.MiddleDown, input.MiddleUp, true
	}
	return 0, 0, false
}

// Event is one recorded input transition. T is seconds since recording start.
// Mouse moves carry relative deltas; scroll events carry notches in DY.
type Event struct {
	Kind   Kind    `json:"type"`
	T      float64 `json:"t"`
	Key    string  `json:"key,omitempty"`
	DX     int     `json:"dx,omitempty"`
	DY     int     `json:"dy,omitempty"`
	Button Button  `json:"button,omitempty"`
}

// Duration returns max(T) - min(T), or 0 for an empty list.
func Duration(events []Event) float64 {
	if len(events) == 0 {
		return 0
	}
	lo, hi := events[0].T, events[0].T
	for _, e := range events[1:] {
		lo = min(lo, e.T)
		hi = max(hi, e.T)
	}
	return hi - lo
}

// Clone returns a copy of events backed by a new array.
func Clone(events []Event) []Event {
	if events == nil {
		return nil
	}
	out := make([]Event, len(events))
	copy(out, events)
	return out
}
