package hooks

import "errors"

var (
	ErrValidation = errors.New("hook target requires a node and a method")
	ErrDuplicate  = errors.New("hook target already registered")
	ErrIndex      = errors.New("hook index out of range")
)
