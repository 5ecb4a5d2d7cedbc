package session

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jingkaihe/hushprint/pkg/hooks"
	"github.com/jingkaihe/hushprint/pkg/logging"
	"github.com/jingkaihe/hushprint/pkg/registry"
)

// stubStore is an in-memory registry server. accept filters what replace
// reports as hooked; nil accepts every enabled entry.
type stubStore struct {
	mu       sync.Mutex
	stored   hooks.List
	defaults hooks.List
	accept   func(hooks.Entry) bool

	// dropOnReplace makes replace store and hook nothing, as a host
	// that rejected every entry would.
	dropOnReplace bool

	fetchStatus   int
	replaceStatus int
	resetStatus   int
	resets        int
}

func (s *stubStore) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if r.URL.Path != "/hooks" {
		http.NotFound(w, r)
		return
	}
	switch r.Method {
	case http.MethodGet:
		if s.fetchStatus != 0 {
			w.WriteHeader(s.fetchStatus)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"hooks": s.stored})
	case http.MethodPost:
		if s.replaceStatus != 0 {
			w.WriteHeader(s.replaceStatus)
			_, _ = io.WriteString(w, `{"error":"store unavailable"}`)
			return
		}
		var payload struct {
			Hooks hooks.List `json:"hooks"`
		}
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		hooked := hooks.List{}
		if s.dropOnReplace {
			s.stored = hooks.List{}
			_ = json.NewEncoder(w).Encode(map[string]any{"hooked": hooked})
			return
		}
		s.stored = payload.Hooks
		for _, e := range payload.Hooks {
			if e.Enabled && (s.accept == nil || s.accept(e)) {
				hooked = append(hooked, e)
			}
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"hooked": hooked})
	case http.MethodDelete:
		s.resets++
		if s.resetStatus != 0 {
			w.WriteHeader(s.resetStatus)
			return
		}
		s.stored = s.defaults.Clone()
		_ = json.NewEncoder(w).Encode(map[string]any{"status": "ok", "hooks": s.stored, "hooked": s.stored})
	}
}

func (s *stubStore) resetCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.resets
}

func newStubSession(t *testing.T, store *stubStore, opts Options) *Session {
	t.Helper()
	srv := httptest.NewServer(store)
	t.Cleanup(srv.Close)

	cfg := registry.DefaultConfig()
	cfg.Address = srv.URL
	cfg.MaxRetries = 0
	cfg.Timeout = 5 * time.Second
	client, err := registry.NewClient(cfg)
	require.NoError(t, err)
	return New(client, opts)
}

func loaded(t *testing.T, store *stubStore) *Session {
	t.Helper()
	s := newStubSession(t, store, Options{})
	require.NoError(t, s.Load(context.Background()))
	return s
}

func confirmYes(context.Context) bool { return true }
func confirmNo(context.Context) bool  { return false }

func TestNewSessionIsEmpty(t *testing.T) {
	s := New(&fakeRegistry{}, Options{ID: "s-1"})
	snap := s.Snapshot()
	assert.Equal(t, "s-1", snap.ID)
	assert.Equal(t, StateEmpty, snap.State)
	assert.True(t, snap.Busy())
	assert.NotNil(t, snap.Entries)
	assert.Empty(t, snap.Entries)

	assert.NotEmpty(t, New(&fakeRegistry{}, Options{}).ID())
}

func TestLoadSeedsWorkingCopy(t *testing.T) {
	store := &stubStore{stored: hooks.List{{Owner: "A", Member: "f", Enabled: true}}}
	s := loaded(t, store)

	snap := s.Snapshot()
	assert.Equal(t, StateReady, snap.State)
	assert.False(t, snap.Dirty)
	assert.False(t, snap.Busy())
	assert.Equal(t, hooks.List{{Owner: "A", Member: "f", Enabled: true}}, snap.Entries)
}

func TestLoadDiscardsUnsavedEdits(t *testing.T) {
	s := loaded(t, &stubStore{})
	require.NoError(t, s.Add("A", "f"))
	assert.True(t, s.Snapshot().Dirty)

	require.NoError(t, s.Load(context.Background()))
	snap := s.Snapshot()
	assert.False(t, snap.Dirty)
	assert.Empty(t, snap.Entries)
}

func TestLoadFetchFailureYieldsEmptyList(t *testing.T) {
	s := loaded(t, &stubStore{fetchStatus: http.StatusInternalServerError})

	snap := s.Snapshot()
	assert.Equal(t, StateReady, snap.State)
	assert.NotNil(t, snap.Entries)
	assert.Empty(t, snap.Entries)
}

func TestAddCommitLoadRoundTrip(t *testing.T) {
	store := &stubStore{}
	s := loaded(t, store)

	require.NoError(t, s.Add(" CheckpointLoaderSimple ", "load_checkpoint"))
	applied, err := s.Commit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, applied)

	require.NoError(t, s.Load(context.Background()))
	assert.Equal(t, hooks.List{{Owner: "CheckpointLoaderSimple", Member: "load_checkpoint", Enabled: true}}, s.Snapshot().Entries)
}

func TestAddDuplicate(t *testing.T) {
	s := loaded(t, &stubStore{stored: hooks.List{{Owner: "A", Member: "f", Enabled: false}}})

	err := s.Add("A", "f")
	assert.ErrorIs(t, err, ErrDuplicate)
	snap := s.Snapshot()
	assert.Len(t, snap.Entries, 1)
	assert.False(t, snap.Dirty)
	require.NotNil(t, snap.Last)
	assert.Equal(t, OpAdd, snap.Last.Op)
	assert.ErrorIs(t, snap.Last.Err, ErrDuplicate)

	// Identity is case-sensitive.
	assert.NoError(t, s.Add("a", "f"))
}

func TestAddValidation(t *testing.T) {
	s := loaded(t, &stubStore{stored: hooks.List{{Owner: "A", Member: "f", Enabled: true}}})

	for _, in := range [][2]string{{"", "f"}, {"A", ""}, {"  ", "g"}} {
		assert.ErrorIs(t, s.Add(in[0], in[1]), ErrValidation, "add(%q, %q)", in[0], in[1])
	}
	assert.Len(t, s.Snapshot().Entries, 1)
}

func TestRemoveThenToggleShiftedEntry(t *testing.T) {
	s := loaded(t, &stubStore{stored: hooks.List{
		{Owner: "A", Member: "f", Enabled: true},
		{Owner: "B", Member: "g", Enabled: true},
	}})

	require.NoError(t, s.Remove(0))
	require.NoError(t, s.Toggle(0))
	assert.Equal(t, hooks.List{{Owner: "B", Member: "g", Enabled: false}}, s.Snapshot().Entries)

	assert.ErrorIs(t, s.Toggle(1), ErrIndex)
	assert.ErrorIs(t, s.Remove(-1), ErrIndex)
	assert.ErrorIs(t, s.Remove(1), ErrIndex)
}

func TestSnapshotIsNotAliased(t *testing.T) {
	s := loaded(t, &stubStore{stored: hooks.List{{Owner: "A", Member: "f", Enabled: true}}})

	snap := s.Snapshot()
	snap.Entries[0].Enabled = false
	assert.True(t, s.Snapshot().Entries[0].Enabled)
}

func TestCommitReportsAppliedCount(t *testing.T) {
	store := &stubStore{accept: func(e hooks.Entry) bool { return e.Owner != "Missing" }}
	s := loaded(t, store)
	require.NoError(t, s.Add("A", "f"))
	require.NoError(t, s.Add("Missing", "f"))
	require.NoError(t, s.Add("B", "g"))
	require.NoError(t, s.Toggle(2))

	applied, err := s.Commit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, applied)

	snap := s.Snapshot()
	assert.Len(t, snap.Entries, 3, "the store keeps what the host skipped")
	assert.False(t, snap.Dirty)
	assert.Equal(t, ActivityIdle, snap.Activity)
	require.NotNil(t, snap.Last)
	assert.Equal(t, OpCommit, snap.Last.Op)
	assert.Equal(t, 3, snap.Last.Submitted)
	assert.Equal(t, 1, snap.Last.Applied)
}

func TestCommitEmptyList(t *testing.T) {
	s := loaded(t, &stubStore{stored: hooks.List{{Owner: "A", Member: "f", Enabled: true}}})
	require.NoError(t, s.Remove(0))

	applied, err := s.Commit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, applied)
	assert.Empty(t, s.Snapshot().Entries)
}

func TestCommitReloadsServerState(t *testing.T) {
	s := loaded(t, &stubStore{dropOnReplace: true})
	require.NoError(t, s.Add("A", "f"))

	applied, err := s.Commit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, applied)

	snap := s.Snapshot()
	assert.Empty(t, snap.Entries)
	assert.False(t, snap.Dirty)
	assert.Equal(t, 1, snap.Last.Submitted)
	assert.Equal(t, 0, snap.Last.Applied)
}

func TestLoadDropsInvalidEntries(t *testing.T) {
	s := New(&fakeRegistry{list: hooks.List{
		{Owner: "A", Member: "f", Enabled: true},
		{Owner: "A", Member: "f", Enabled: false},
		{Owner: "", Member: ""},
	}}, Options{})
	require.NoError(t, s.Load(context.Background()))

	assert.Equal(t, hooks.List{{Owner: "A", Member: "f", Enabled: true}}, s.Snapshot().Entries)
	require.NoError(t, s.Add("B", "g"))
	assert.ErrorIs(t, s.Add("A", "f"), ErrDuplicate)
}

func TestCommitFailureLeavesWorkingCopy(t *testing.T) {
	store := &stubStore{replaceStatus: http.StatusInternalServerError}
	s := loaded(t, store)
	require.NoError(t, s.Add("A", "f"))

	_, err := s.Commit(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSaveFailed)
	assert.Equal(t, http.StatusInternalServerError, registry.StatusCode(err))

	snap := s.Snapshot()
	assert.Equal(t, hooks.List{{Owner: "A", Member: "f", Enabled: true}}, snap.Entries)
	assert.True(t, snap.Dirty)
	assert.Equal(t, ActivityIdle, snap.Activity)
	require.NotNil(t, snap.Last)
	assert.ErrorIs(t, snap.Last.Err, ErrSaveFailed)
}

func TestDiscardToDefault(t *testing.T) {
	defaults := hooks.List{{Owner: "D", Member: "d", Enabled: true}}
	store := &stubStore{stored: hooks.List{{Owner: "A", Member: "f", Enabled: true}}, defaults: defaults}
	s := loaded(t, store)
	require.NoError(t, s.Add("B", "g"))

	ok, err := s.DiscardToDefault(context.Background(), confirmYes)
	require.NoError(t, err)
	assert.True(t, ok)

	snap := s.Snapshot()
	assert.Equal(t, defaults, snap.Entries)
	assert.False(t, snap.Dirty)
	require.NotNil(t, snap.Last)
	assert.Equal(t, OpReset, snap.Last.Op)
	assert.False(t, snap.Last.Cancelled)
}

func TestDiscardToDefaultDeclined(t *testing.T) {
	store := &stubStore{stored: hooks.List{{Owner: "A", Member: "f", Enabled: true}}}
	s := loaded(t, store)
	require.NoError(t, s.Add("B", "g"))

	for _, confirm := range []ConfirmFunc{confirmNo, nil} {
		ok, err := s.DiscardToDefault(context.Background(), confirm)
		require.NoError(t, err)
		assert.False(t, ok)
	}

	assert.Equal(t, 0, store.resetCount())
	snap := s.Snapshot()
	assert.Len(t, snap.Entries, 2)
	assert.True(t, snap.Dirty)
	require.NotNil(t, snap.Last)
	assert.True(t, snap.Last.Cancelled)
}

func TestDiscardToDefaultFailure(t *testing.T) {
	store := &stubStore{resetStatus: http.StatusServiceUnavailable}
	s := loaded(t, store)
	require.NoError(t, s.Add("A", "f"))

	ok, err := s.DiscardToDefault(context.Background(), confirmYes)
	assert.False(t, ok)
	assert.ErrorIs(t, err, ErrResetFailed)
	assert.Equal(t, http.StatusServiceUnavailable, registry.StatusCode(err))
	assert.Len(t, s.Snapshot().Entries, 1)
	assert.Equal(t, 1, store.resetCount())
}

// fakeRegistry blocks ReplaceHooks until release is closed.
type fakeRegistry struct {
	list    hooks.List
	started chan struct{}
	release chan struct{}
}

func (f *fakeRegistry) FetchHooks(context.Context) hooks.List {
	return f.list.Clone()
}

func (f *fakeRegistry) ReplaceHooks(_ context.Context, list hooks.List) (int, error) {
	if f.started != nil {
		close(f.started)
		<-f.release
	}
	f.list = list.Clone()
	return len(list.Enabled()), nil
}

func (f *fakeRegistry) ResetToDefault(context.Context) error {
	f.list = hooks.List{}
	return nil
}

func TestMutationsBeforeLoad(t *testing.T) {
	s := New(&fakeRegistry{}, Options{})

	assert.ErrorIs(t, s.Add("A", "f"), ErrNotReady)
	assert.ErrorIs(t, s.Toggle(0), ErrNotReady)
	assert.ErrorIs(t, s.Remove(0), ErrNotReady)
	_, err := s.Commit(context.Background())
	assert.ErrorIs(t, err, ErrNotReady)
	_, err = s.DiscardToDefault(context.Background(), confirmYes)
	assert.ErrorIs(t, err, ErrNotReady)
}

func TestMutationsWhileSaving(t *testing.T) {
	reg := &fakeRegistry{started: make(chan struct{}), release: make(chan struct{})}
	var (
		mu         sync.Mutex
		activities []Activity
	)
	s := New(reg, Options{OnChange: func(snap Snapshot) {
		mu.Lock()
		activities = append(activities, snap.Activity)
		mu.Unlock()
	}})
	ctx := context.Background()
	require.NoError(t, s.Load(ctx))
	require.NoError(t, s.Add("A", "f"))

	done := make(chan error, 1)
	go func() {
		_, err := s.Commit(ctx)
		done <- err
	}()
	<-reg.started

	snap := s.Snapshot()
	assert.Equal(t, ActivitySaving, snap.Activity)
	assert.True(t, snap.Busy())
	assert.ErrorIs(t, s.Add("B", "g"), ErrBusy)
	assert.ErrorIs(t, s.Toggle(0), ErrBusy)
	assert.ErrorIs(t, s.Load(ctx), ErrBusy)
	_, err := s.DiscardToDefault(ctx, confirmYes)
	assert.ErrorIs(t, err, ErrBusy)

	close(reg.release)
	require.NoError(t, <-done)
	assert.Equal(t, ActivityIdle, s.Snapshot().Activity)

	mu.Lock()
	defer mu.Unlock()
	assert.Contains(t, activities, ActivitySaving)
	assert.Equal(t, ActivityIdle, activities[len(activities)-1])
}

type memorySink struct {
	mu     sync.Mutex
	events []*logging.Event
}

func (m *memorySink) Write(e *logging.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, e)
	return nil
}

func (m *memorySink) Close() error { return nil }

func (m *memorySink) types() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.events))
	for _, e := range m.events {
		out = append(out, e.EventType)
	}
	return out
}

func TestAuditEvents(t *testing.T) {
	sink := &memorySink{}
	emitter := logging.NewEmitter(logging.EmitterConfig{Source: "client"}, sink)
	store := &stubStore{replaceStatus: http.StatusBadGateway}
	s := newStubSession(t, store, Options{ID: "edit-1", Emitter: emitter})
	ctx := context.Background()

	require.NoError(t, s.Load(ctx))
	require.NoError(t, s.Add("A", "f"))
	_, err := s.Commit(ctx)
	require.Error(t, err)

	store.mu.Lock()
	store.replaceStatus = 0
	store.mu.Unlock()
	_, err = s.Commit(ctx)
	require.NoError(t, err)

	_, err = s.DiscardToDefault(ctx, confirmYes)
	require.NoError(t, err)

	assert.Equal(t, []string{
		logging.EventHooksLoaded,
		logging.EventCommitFailed,
		logging.EventHooksLoaded,
		logging.EventHooksCommitted,
		logging.EventHooksLoaded,
		logging.EventHooksReset,
	}, sink.types())

	for _, e := range sink.events {
		assert.Equal(t, "edit-1", e.SessionID)
		assert.Equal(t, "client", e.Source)
	}

	var failure logging.FailureData
	require.NoError(t, json.Unmarshal(sink.events[1].Data, &failure))
	assert.Equal(t, http.StatusBadGateway, failure.StatusCode)
}
