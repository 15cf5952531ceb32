package controller

// State is the playback controller's mode.
type State int

const (
	Idle State = iota
	Recording
	Playing
	Paused
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Recording:
		return "recording"
	case Playing:
		return "playing"
	case Paused:
		return "paused"
	}
	return "unknown"
}

// Result reports what a control request did.
type Result int

const (
	// Applied means the request performed its transition.
	Applied Result = iota
	// Ignored means the request did not apply in the current state.
	Ignored
	// Failed means the transition was attempted and rolled back.
	Failed
)

func (r Result) String() string {
	switch r {
	case Applied:
		return "applied"
	case Ignored:
		return "ignored"
	case Failed:
		return "failed"
	}
	return "unknown"
}
