package logging

import "errors"

var (
	ErrOpenAuditLog  = errors.New("open audit log")
	ErrAppendEvent   = errors.New("append audit event")
	ErrEncodePayload = errors.New("encode audit payload")
	ErrCloseAuditLog = errors.New("close audit log")
)
