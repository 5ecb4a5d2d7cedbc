// Package session owns the editable working copy of the hook list for one
// edit dialog and reconciles it with the remote registry.
package session

import (
	"context"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/jingkaihe/hushprint/pkg/hooks"
	"github.com/jingkaihe/hushprint/pkg/logging"
	"github.com/jingkaihe/hushprint/pkg/registry"
)

// Registry is the remote store as seen by a session.
type Registry interface {
	FetchHooks(ctx context.Context) hooks.List
	ReplaceHooks(ctx context.Context, list hooks.List) (int, error)
	ResetToDefault(ctx context.Context) error
}

// ConfirmFunc asks the operator to approve a destructive action.
type ConfirmFunc func(ctx context.Context) bool

type Options struct {
	// ID identifies the session in logs and audit events. Empty means a
	// random UUID.
	ID      string
	Logger  *slog.Logger
	Emitter *logging.Emitter
	// OnChange is called with a fresh snapshot after every state change,
	// outside the session lock.
	OnChange func(Snapshot)
}

// Session is the exclusively owned working copy of the hook list. All
// mutations go through its methods. The lock is never held across a
// registry call.
type Session struct {
	id       string
	registry Registry
	logger   *slog.Logger
	emitter  *logging.Emitter
	onChange func(Snapshot)

	mu       sync.Mutex
	state    State
	activity Activity
	working  hooks.List
	dirty    bool
	last     *Result
}

func New(reg Registry, opts Options) *Session {
	id := opts.ID
	if id == "" {
		id = uuid.NewString()
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Session{
		id:       id,
		registry: reg,
		logger:   logger.With("component", "session", "session_id", id),
		emitter:  opts.Emitter.WithSession(id),
		onChange: opts.OnChange,
		working:  hooks.List{},
	}
}

func (s *Session) ID() string {
	return s.id
}

// Snapshot returns a copy of the current state safe to keep and render.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Session) snapshotLocked() Snapshot {
	snap := Snapshot{
		ID:       s.id,
		State:    s.state,
		Activity: s.activity,
		Entries:  s.working.Clone(),
		Dirty:    s.dirty,
	}
	if s.last != nil {
		last := *s.last
		if last.Entry != nil {
			e := *last.Entry
			last.Entry = &e
		}
		snap.Last = &last
	}
	return snap
}

// unlockAndNotify releases the lock and publishes the state it guarded.
func (s *Session) unlockAndNotify() {
	snap := s.snapshotLocked()
	s.mu.Unlock()
	if s.onChange != nil {
		s.onChange(snap)
	}
}

// Load fetches the stored list and replaces the working copy with it,
// discarding unsaved edits. A failed fetch loads an empty list. Load is
// rejected with ErrBusy while a commit or reset is in flight.
func (s *Session) Load(ctx context.Context) error {
	s.mu.Lock()
	if s.activity != ActivityIdle {
		s.mu.Unlock()
		return ErrBusy
	}
	s.mu.Unlock()

	s.load(ctx, OpLoad)
	return nil
}

// load performs the fetch for Load, Commit and DiscardToDefault. It keeps
// the current activity; callers clear it afterwards. Blank and repeated
// entries in the fetched list are dropped.
func (s *Session) load(ctx context.Context, op Op) int {
	s.mu.Lock()
	s.state = StateLoading
	s.unlockAndNotify()

	fetched := s.registry.FetchHooks(ctx)

	s.mu.Lock()
	discarded := s.dirty
	s.working = hooks.Normalize(fetched)
	s.dirty = false
	s.state = StateReady
	if op == OpLoad {
		s.last = &Result{Op: OpLoad}
	}
	count := len(s.working)
	s.unlockAndNotify()

	s.logger.Debug("hooks loaded", "count", count, "discarded_changes", discarded)
	_ = s.emitter.HooksLoaded(count, discarded)
	return count
}

// checkMutableLocked reports whether the working copy may change now.
func (s *Session) checkMutableLocked() error {
	if s.state != StateReady {
		return ErrNotReady
	}
	if s.activity != ActivityIdle {
		return ErrBusy
	}
	return nil
}

// Add appends an enabled entry for (owner, member) after trimming both.
// It fails with ErrValidation on an empty field and ErrDuplicate when the
// pair is already present, regardless of its enabled flag.
func (s *Session) Add(owner, member string) error {
	s.mu.Lock()
	if err := s.checkMutableLocked(); err != nil {
		s.mu.Unlock()
		return err
	}
	e, err := s.working.Add(owner, member)
	s.recordLocked(OpAdd, -1, e, err)
	s.unlockAndNotify()
	return err
}

// Toggle flips the enabled flag of the entry at index.
func (s *Session) Toggle(index int) error {
	s.mu.Lock()
	if err := s.checkMutableLocked(); err != nil {
		s.mu.Unlock()
		return err
	}
	e, err := s.working.Toggle(index)
	s.recordLocked(OpToggle, index, e, err)
	s.unlockAndNotify()
	return err
}

// Remove deletes the entry at index. Later entries shift down by one.
func (s *Session) Remove(index int) error {
	s.mu.Lock()
	if err := s.checkMutableLocked(); err != nil {
		s.mu.Unlock()
		return err
	}
	e, err := s.working.Remove(index)
	s.recordLocked(OpRemove, index, e, err)
	s.unlockAndNotify()
	return err
}

func (s *Session) recordLocked(op Op, index int, e hooks.Entry, err error) {
	r := &Result{Op: op, Index: index, Err: err}
	if err == nil {
		r.Entry = &e
		s.dirty = true
	}
	s.last = r
}

// Commit sends the whole working copy to the registry. On success the
// working copy is reloaded from the store and the number of entries the
// host activated is returned; it may be lower than the number submitted.
// On failure the working copy and dirty flag are left as they were.
func (s *Session) Commit(ctx context.Context) (int, error) {
	s.mu.Lock()
	if err := s.checkMutableLocked(); err != nil {
		s.mu.Unlock()
		return 0, err
	}
	submitted := s.working.Clone()
	s.activity = ActivitySaving
	s.unlockAndNotify()

	applied, err := s.registry.ReplaceHooks(ctx, submitted)
	if err != nil {
		s.mu.Lock()
		s.activity = ActivityIdle
		s.last = &Result{Op: OpCommit, Submitted: len(submitted), Err: err}
		s.unlockAndNotify()

		s.logger.Warn("commit failed", "submitted", len(submitted), "error", err)
		_ = s.emitter.CommitFailed(len(submitted), registry.StatusCode(err), err)
		return 0, err
	}

	s.load(ctx, OpCommit)

	s.mu.Lock()
	s.activity = ActivityIdle
	s.last = &Result{
		Op:        OpCommit,
		Submitted: len(submitted),
		Requested: len(submitted.Enabled()),
		Applied:   applied,
	}
	s.unlockAndNotify()

	s.logger.Info("hooks committed", "submitted", len(submitted), "applied", applied)
	_ = s.emitter.HooksCommitted(submitted, applied)
	return applied, nil
}

// DiscardToDefault asks confirm first and, only if approved, resets the
// store to its defaults and reloads. A declined or missing confirmation
// returns (false, nil) without contacting the registry. On failure the
// working copy is left as it was.
func (s *Session) DiscardToDefault(ctx context.Context, confirm ConfirmFunc) (bool, error) {
	s.mu.Lock()
	if err := s.checkMutableLocked(); err != nil {
		s.mu.Unlock()
		return false, err
	}
	s.mu.Unlock()

	if confirm == nil || !confirm(ctx) {
		s.mu.Lock()
		s.last = &Result{Op: OpReset, Cancelled: true}
		s.unlockAndNotify()
		return false, nil
	}

	s.mu.Lock()
	// The confirmation ran unlocked; another caller may have started work.
	if err := s.checkMutableLocked(); err != nil {
		s.mu.Unlock()
		return false, err
	}
	s.activity = ActivityResetting
	s.unlockAndNotify()

	if err := s.registry.ResetToDefault(ctx); err != nil {
		s.mu.Lock()
		s.activity = ActivityIdle
		s.last = &Result{Op: OpReset, Err: err}
		s.unlockAndNotify()

		s.logger.Warn("reset failed", "error", err)
		_ = s.emitter.ResetFailed(registry.StatusCode(err), err)
		return false, err
	}

	count := s.load(ctx, OpReset)

	s.mu.Lock()
	s.activity = ActivityIdle
	s.last = &Result{Op: OpReset}
	s.unlockAndNotify()

	s.logger.Info("hooks reset to default", "count", count)
	_ = s.emitter.HooksReset(count)
	return true, nil
}
