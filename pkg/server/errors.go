package server

import "errors"

var (
	ErrConfig         = errors.New("invalid server config")
	ErrInvalidRequest = errors.New("invalid request")
	ErrSaveHooks      = errors.New("save hooks")
	ErrResetHooks     = errors.New("reset hooks")
	ErrApplyHooks     = errors.New("apply hooks")
)
