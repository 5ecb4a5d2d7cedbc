package logging

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jingkaihe/hushprint/pkg/hooks"
)

func TestHooksCommittedTagsPartialApply(t *testing.T) {
	sink := &captureSink{}
	emitter := NewEmitter(EmitterConfig{SessionID: "s", Source: "client"}, sink)
	submitted := hooks.List{
		{Owner: "A", Member: "f", Enabled: true},
		{Owner: "B", Member: "g", Enabled: true},
		{Owner: "C", Member: "h", Enabled: false},
	}

	require.NoError(t, emitter.HooksCommitted(submitted, 2))
	require.NoError(t, emitter.HooksCommitted(submitted, 1))

	require.Len(t, sink.events, 2)
	assert.Nil(t, sink.events[0].Tags, "disabled entries are not counted as missing")
	assert.Equal(t, []string{TagPartial}, sink.events[1].Tags)

	var data CommitData
	require.NoError(t, json.Unmarshal(sink.events[1].Data, &data))
	assert.Equal(t, CommitData{Submitted: 3, Applied: 1, Targets: []string{"A.f", "B.g", "C.h"}}, data)
	assert.Equal(t, "committed 3 hooks, 1 applied", sink.events[1].Summary)
}

func TestFailureEventsCarryStatus(t *testing.T) {
	sink := &captureSink{}
	emitter := NewEmitter(EmitterConfig{Source: "client"}, sink)

	require.NoError(t, emitter.CommitFailed(2, 502, errors.New("save failed: 502")))
	require.NoError(t, emitter.ResetFailed(0, errors.New("connection refused")))

	require.Len(t, sink.events, 2)
	assert.Equal(t, EventCommitFailed, sink.events[0].EventType)
	assert.Equal(t, EventResetFailed, sink.events[1].EventType)
	for _, event := range sink.events {
		assert.Equal(t, []string{TagError}, event.Tags)
	}

	var failure FailureData
	require.NoError(t, json.Unmarshal(sink.events[0].Data, &failure))
	assert.Equal(t, FailureData{StatusCode: 502, Error: "save failed: 502"}, failure)

	var noStatus map[string]any
	require.NoError(t, json.Unmarshal(sink.events[1].Data, &noStatus))
	assert.NotContains(t, noStatus, "status_code")
}

func TestServerEventsTargetHookedEntries(t *testing.T) {
	sink := &captureSink{}
	emitter := NewEmitter(EmitterConfig{Source: "server"}, sink)
	stored := hooks.List{
		{Owner: "A", Member: "f", Enabled: true},
		{Owner: "Missing", Member: "x", Enabled: true},
	}
	hooked := stored[:1]

	require.NoError(t, emitter.HooksReplaced(3, stored, hooked))
	require.NoError(t, emitter.HooksRestored(stored, stored))

	require.Len(t, sink.events, 2)
	var replaced CommitData
	require.NoError(t, json.Unmarshal(sink.events[0].Data, &replaced))
	assert.Equal(t, CommitData{Submitted: 3, Applied: 1, Persisted: 2, Targets: []string{"A.f"}}, replaced)
	assert.Equal(t, []string{TagPartial}, sink.events[0].Tags)

	var restored ResetData
	require.NoError(t, json.Unmarshal(sink.events[1].Data, &restored))
	assert.Equal(t, ResetData{Count: 2, Applied: 2}, restored)
	assert.Nil(t, sink.events[1].Tags)
}

func TestNilEmitterHelpers(t *testing.T) {
	var emitter *Emitter
	assert.NoError(t, emitter.HooksLoaded(1, false))
	assert.NoError(t, emitter.CommitFailed(1, 500, errors.New("x")))
}
