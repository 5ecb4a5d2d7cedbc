// Package hclfile decodes HCL native-syntax configuration files.
package hclfile

import (
	"errors"
	"path/filepath"
	"strings"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"

	"github.com/jingkaihe/hushprint/internal/errx"
)

var (
	ErrParse  = errors.New("parse hcl")
	ErrDecode = errors.New("decode hcl")
)

// IsHCL reports whether filename names an HCL file. Anything else is
// treated as JSON by callers.
func IsHCL(filename string) bool {
	return strings.EqualFold(filepath.Ext(filename), ".hcl")
}

// Decode parses src as HCL and decodes its body into v, which must be a
// pointer to a struct with hcl tags.
func Decode(filename string, src []byte, v any) error {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(src, filename)
	if diags.HasErrors() {
		return errx.With(ErrParse, " %s: %w", filename, diags)
	}
	if diags := gohcl.DecodeBody(file.Body, nil, v); diags.HasErrors() {
		return errx.With(ErrDecode, " %s: %w", filename, diags)
	}
	return nil
}
