package session

import "github.com/jingkaihe/hushprint/pkg/hooks"

// State is the data lifecycle of a session.
type State int

const (
	StateEmpty State = iota
	StateLoading
	StateReady
)

func (s State) String() string {
	switch s {
	case StateEmpty:
		return "empty"
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	default:
		return "unknown"
	}
}

// Activity is a remote operation in flight on top of StateReady. While it
// is not ActivityIdle, mutations are rejected with ErrBusy.
type Activity int

const (
	ActivityIdle Activity = iota
	ActivitySaving
	ActivityResetting
)

func (a Activity) String() string {
	switch a {
	case ActivityIdle:
		return "idle"
	case ActivitySaving:
		return "saving"
	case ActivityResetting:
		return "resetting"
	default:
		return "unknown"
	}
}

// Op names the operation a Result describes.
type Op string

const (
	OpLoad   Op = "load"
	OpAdd    Op = "add"
	OpToggle Op = "toggle"
	OpRemove Op = "remove"
	OpCommit Op = "commit"
	OpReset  Op = "reset"
)

// Result is the outcome of the most recent operation.
type Result struct {
	Op Op
	// Entry is the entry added, toggled or removed.
	Entry *hooks.Entry
	// Index is the position passed to toggle or remove.
	Index int
	// Submitted, Requested and Applied are set by commit. Requested counts
	// the enabled entries among those submitted.
	Submitted int
	Requested int
	Applied   int
	// Cancelled is set when a reset was not confirmed.
	Cancelled bool
	Err       error
}

// Snapshot is an immutable view of a session for rendering.
type Snapshot struct {
	ID       string
	State    State
	Activity Activity
	Entries  hooks.List
	Dirty    bool
	Last     *Result
}

// Busy reports whether mutation controls should be disabled.
func (s Snapshot) Busy() bool {
	return s.State != StateReady || s.Activity != ActivityIdle
}
