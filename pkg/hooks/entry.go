// Package hooks defines hook targets: (node, method) pairs naming a callable
// inside the host whose console output is suppressed.
//
// In the Go API the pair is called Owner and Member. On the wire the host's
// keys, "node" and "method", are used.
package hooks

import (
	"encoding/json"
	"strings"

	"github.com/jingkaihe/hushprint/internal/errx"
)

// Key is the identity of an Entry. Two entries with the same Key are
// duplicates regardless of Enabled.
type Key struct {
	Owner  string
	Member string
}

func (k Key) String() string {
	return k.Owner + "." + k.Member
}

// Entry is a single hook target.
type Entry struct {
	Owner   string
	Member  string
	Enabled bool
}

// NewEntry trims owner and member and returns an enabled entry.
func NewEntry(owner, member string) (Entry, error) {
	owner = strings.TrimSpace(owner)
	member = strings.TrimSpace(member)
	if owner == "" || member == "" {
		return Entry{}, errx.With(ErrValidation, ": got node=%q method=%q", owner, member)
	}
	return Entry{Owner: owner, Member: member, Enabled: true}, nil
}

func (e Entry) Key() Key {
	return Key{Owner: e.Owner, Member: e.Member}
}

func (e Entry) String() string {
	return e.Key().String()
}

type wireEntry struct {
	Node    string `json:"node"`
	Method  string `json:"method"`
	Enabled *bool  `json:"enabled,omitempty"`

	// Accepted on decode only.
	Owner  string `json:"owner,omitempty"`
	Member string `json:"member,omitempty"`
}

func (e Entry) MarshalJSON() ([]byte, error) {
	enabled := e.Enabled
	return json.Marshal(wireEntry{
		Node:    e.Owner,
		Method:  e.Member,
		Enabled: &enabled,
	})
}

// UnmarshalJSON treats a missing "enabled" as true; only an explicit false
// disables the entry.
func (e *Entry) UnmarshalJSON(data []byte) error {
	var w wireEntry
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	owner := w.Node
	if owner == "" {
		owner = w.Owner
	}
	member := w.Method
	if member == "" {
		member = w.Member
	}
	*e = Entry{
		Owner:   owner,
		Member:  member,
		Enabled: w.Enabled == nil || *w.Enabled,
	}
	return nil
}
