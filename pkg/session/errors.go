package session

import (
	"errors"

	"github.com/jingkaihe/hushprint/pkg/hooks"
	"github.com/jingkaihe/hushprint/pkg/registry"
)

// Local input errors. They are returned synchronously and never retried.
var (
	ErrValidation = hooks.ErrValidation
	ErrDuplicate  = hooks.ErrDuplicate
	ErrIndex      = hooks.ErrIndex
)

// Remote errors. The working copy is untouched when these are returned.
var (
	ErrSaveFailed  = registry.ErrSaveFailed
	ErrResetFailed = registry.ErrResetFailed
)

var (
	ErrNotReady = errors.New("session is not ready")
	ErrBusy     = errors.New("session is saving or resetting")
)
