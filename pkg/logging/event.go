package logging

import (
	"encoding/json"
	"time"
)

// Event is one audit record for a change to the hook registry.
// Timestamp, SessionID, Source, EventType and Summary are always set.
type Event struct {
	Timestamp time.Time       `json:"ts"`
	SessionID string          `json:"session_id"`
	Source    string          `json:"source"`
	EventType string          `json:"event_type"`
	Summary   string          `json:"summary"`
	Tags      []string        `json:"tags,omitempty"`
	Data      json.RawMessage `json:"data,omitempty"`
}

// Client side (edit session).
const (
	EventHooksLoaded    = "hooks_loaded"
	EventHooksCommitted = "hooks_committed"
	EventCommitFailed   = "commit_failed"
	EventHooksReset     = "hooks_reset"
	EventResetFailed    = "reset_failed"
)

// Server side (store + instrumenter).
const (
	EventHooksReplaced = "hooks_replaced"
	EventHooksRestored = "hooks_restored"
)

// LoadData is the payload for hooks_loaded.
type LoadData struct {
	Count            int  `json:"count"`
	DiscardedChanges bool `json:"discarded_changes,omitempty"`
}

// CommitData is the payload for hooks_committed and hooks_replaced.
// Applied may be lower than Submitted when the host could not install
// some targets.
type CommitData struct {
	Submitted int      `json:"submitted"`
	Applied   int      `json:"applied"`
	Persisted int      `json:"persisted,omitempty"`
	Targets   []string `json:"targets,omitempty"`
}

// ResetData is the payload for hooks_reset and hooks_restored.
type ResetData struct {
	Count   int `json:"count"`
	Applied int `json:"applied,omitempty"`
}

// FailureData is the payload for commit_failed and reset_failed.
type FailureData struct {
	StatusCode int    `json:"status_code,omitempty"`
	Error      string `json:"error"`
}
