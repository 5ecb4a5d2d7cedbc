package main

import "errors"

// Config errors
var (
	ErrReadConfig   = errors.New("read config file")
	ErrInvalidLevel = errors.New("invalid log level")
	ErrInvalidFlag  = errors.New("invalid flag")
)

// Client errors
var (
	ErrCreateClient    = errors.New("create registry client")
	ErrOpenAuditLog    = errors.New("open audit log")
	ErrInvalidPosition = errors.New("invalid position")
	ErrConfirmRequired = errors.New("confirmation required: pass --yes when stdin is not a terminal")
)

// Serve errors
var (
	ErrLoadCatalog = errors.New("load catalog")
	ErrOpenStore   = errors.New("open hook store")
	ErrStartServer = errors.New("start server")
)
