// Package shell is the text presentation of an edit session: a pure
// renderer over session snapshots and a line-oriented command loop.
package shell

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jingkaihe/hushprint/pkg/session"
)

// Translator resolves message keys. *i18n.Resolver implements it.
type Translator interface {
	Resolve(key string, params map[string]any) string
}

// Render draws snap as the edit dialog. It depends on nothing but its
// arguments.
func Render(snap session.Snapshot, tr Translator) string {
	var b strings.Builder

	b.WriteString(tr.Resolve("modal.title", nil))
	b.WriteByte('\n')
	b.WriteString(tr.Resolve("modal.notice", nil))
	b.WriteString("\n\n")

	if len(snap.Entries) == 0 {
		fmt.Fprintf(&b, "  %s\n", tr.Resolve("modal.empty", nil))
	}
	for i, e := range snap.Entries {
		mark := " "
		if e.Enabled {
			mark = "x"
		}
		fmt.Fprintf(&b, "%3d. [%s] %s\n", i+1, mark, e.Key())
	}

	switch snap.Activity {
	case session.ActivitySaving:
		fmt.Fprintf(&b, "\n%s\n", tr.Resolve("modal.saving", nil))
	case session.ActivityResetting:
		fmt.Fprintf(&b, "\n%s\n", tr.Resolve("modal.resetting", nil))
	}
	if snap.Dirty {
		fmt.Fprintf(&b, "\n* %s\n", tr.Resolve("modal.unsaved", nil))
	}
	if status := Status(snap.Last, tr); status != "" {
		fmt.Fprintf(&b, "\n%s\n", status)
	}
	return b.String()
}

// Status returns the one-line message for the last operation, or "" when
// there is nothing to report.
func Status(last *session.Result, tr Translator) string {
	if last == nil {
		return ""
	}
	if last.Err != nil {
		return errorStatus(last, tr)
	}

	switch last.Op {
	case session.OpCommit:
		if last.Applied < last.Requested {
			return tr.Resolve("modal.savePartial", map[string]any{
				"count":     last.Applied,
				"submitted": last.Requested,
			})
		}
		return tr.Resolve("modal.saveSuccess", map[string]any{"count": last.Applied})
	case session.OpReset:
		if last.Cancelled {
			return tr.Resolve("modal.resetCancelled", nil)
		}
		return tr.Resolve("modal.resetSuccess", nil)
	}
	return ""
}

func errorStatus(last *session.Result, tr Translator) string {
	err := last.Err
	switch {
	case errors.Is(err, session.ErrValidation):
		return tr.Resolve("modal.errorEmpty", nil)
	case errors.Is(err, session.ErrDuplicate):
		return tr.Resolve("modal.errorDuplicate", nil)
	case errors.Is(err, session.ErrIndex):
		return tr.Resolve("modal.errorIndex", map[string]any{"index": last.Index + 1})
	case errors.Is(err, session.ErrBusy), errors.Is(err, session.ErrNotReady):
		return tr.Resolve("modal.errorBusy", nil)
	case last.Op == session.OpReset:
		return tr.Resolve("modal.resetError", map[string]any{"message": err.Error()})
	default:
		return tr.Resolve("modal.saveError", map[string]any{"message": err.Error()})
	}
}
