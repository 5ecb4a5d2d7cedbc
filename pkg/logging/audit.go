package logging

import (
	"fmt"

	"github.com/jingkaihe/hushprint/pkg/hooks"
)

const (
	// TagPartial marks a commit, replace or restore where the host
	// installed fewer hooks than were enabled.
	TagPartial = "partial"
	TagError   = "error"
)

func (e *Emitter) HooksLoaded(count int, discarded bool) error {
	return e.Emit(EventHooksLoaded,
		fmt.Sprintf("loaded %d hooks", count),
		nil,
		LoadData{Count: count, DiscardedChanges: discarded},
	)
}

func (e *Emitter) HooksCommitted(submitted hooks.List, applied int) error {
	return e.Emit(EventHooksCommitted,
		fmt.Sprintf("committed %d hooks, %d applied", len(submitted), applied),
		partialTags(submitted, applied),
		CommitData{Submitted: len(submitted), Applied: applied, Targets: targetNames(submitted)},
	)
}

func (e *Emitter) CommitFailed(submitted, statusCode int, err error) error {
	return e.Emit(EventCommitFailed,
		fmt.Sprintf("commit of %d hooks failed", submitted),
		[]string{TagError},
		FailureData{StatusCode: statusCode, Error: err.Error()},
	)
}

func (e *Emitter) HooksReset(count int) error {
	return e.Emit(EventHooksReset,
		fmt.Sprintf("reset to %d default hooks", count),
		nil,
		ResetData{Count: count},
	)
}

func (e *Emitter) ResetFailed(statusCode int, err error) error {
	return e.Emit(EventResetFailed,
		"reset to default failed",
		[]string{TagError},
		FailureData{StatusCode: statusCode, Error: err.Error()},
	)
}

// HooksReplaced records a server-side replace. Targets lists what the host
// installed, not what was submitted.
func (e *Emitter) HooksReplaced(submitted int, stored, hooked hooks.List) error {
	return e.Emit(EventHooksReplaced,
		fmt.Sprintf("stored %d hooks, %d hooked", len(stored), len(hooked)),
		partialTags(stored, len(hooked)),
		CommitData{
			Submitted: submitted,
			Applied:   len(hooked),
			Persisted: len(stored),
			Targets:   targetNames(hooked),
		},
	)
}

func (e *Emitter) HooksRestored(restored, hooked hooks.List) error {
	return e.Emit(EventHooksRestored,
		fmt.Sprintf("restored %d default hooks", len(restored)),
		partialTags(restored, len(hooked)),
		ResetData{Count: len(restored), Applied: len(hooked)},
	)
}

func partialTags(list hooks.List, applied int) []string {
	if applied < len(list.Enabled()) {
		return []string{TagPartial}
	}
	return nil
}

func targetNames(list hooks.List) []string {
	out := make([]string, 0, len(list))
	for _, e := range list {
		out = append(out, e.Key().String())
	}
	return out
}
