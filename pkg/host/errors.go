package host

import "errors"

var (
	ErrCatalogRead  = errors.New("read catalog")
	ErrCatalogParse = errors.New("parse catalog")
)
