package store

import "errors"

var (
	ErrOpen          = errors.New("open hook store")
	ErrStoreRead     = errors.New("read from hook store")
	ErrStoreSave     = errors.New("save to hook store")
	ErrDefaultsRead  = errors.New("read default hooks")
	ErrDefaultsParse = errors.New("parse default hooks")
)
