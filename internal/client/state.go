package client

// State is the lifecycle position of a generation run.
type State int

const (
	StateIdle State = iota
	StateSubmitting
	StatePolling
	StateReady
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateSubmitting:
		return "submitting"
	case StatePolling:
		return "polling"
	case StateReady:
		return "ready"
	case StateFailed:
		return "failed"
	}
	return "unknown"
}

// Update is a progress report from a background run started with Submit.
// Attempt counts completed polls and is only set while polling. Result and
// Err are set on the terminal update only.
type Update struct {
	State   State
	Attempt int
	Result  *Result
	Err     error
}
