package store

import (
	"encoding/json"
	"log/slog"
	"os"

	"github.com/jingkaihe/hushprint/internal/errx"
	"github.com/jingkaihe/hushprint/internal/hclfile"
	"github.com/jingkaihe/hushprint/pkg/hooks"
)

type jsonDefaults struct {
	Hooks hooks.List `json:"hooks"`
}

type hclDefaults struct {
	Hooks []hclHook `hcl:"hook,block"`
}

type hclHook struct {
	Node    string `hcl:"node,label"`
	Method  string `hcl:"method,label"`
	Enabled *bool  `hcl:"enabled,optional"`
}

// ParseDefaults decodes a defaults file. Files ending in .hcl use
//
//	hook "DPRandomGenerator" "get_prompt" {
//	  enabled = true
//	}
//
// and anything else is JSON of the form {"hooks": [{"node": ..., "method": ...}]}.
// A missing enabled means true.
func ParseDefaults(filename string, data []byte) (hooks.List, error) {
	if hclfile.IsHCL(filename) {
		var f hclDefaults
		if err := hclfile.Decode(filename, data, &f); err != nil {
			return nil, errx.Wrap(ErrDefaultsParse, err)
		}
		list := make(hooks.List, 0, len(f.Hooks))
		for _, h := range f.Hooks {
			list = append(list, hooks.Entry{
				Owner:   h.Node,
				Member:  h.Method,
				Enabled: h.Enabled == nil || *h.Enabled,
			})
		}
		return hooks.Normalize(list), nil
	}

	var f jsonDefaults
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, errx.With(ErrDefaultsParse, " %s: %w", filename, err)
	}
	return hooks.Normalize(f.Hooks), nil
}

// LoadDefaults reads the defaults file at path. A blank path, a missing
// file or a malformed file is logged and yields an empty list.
func LoadDefaults(path string, logger *slog.Logger) hooks.List {
	if logger == nil {
		logger = slog.Default()
	}
	if path == "" {
		return hooks.List{}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		logger.Warn("failed to load default hooks", "path", path, "error", errx.Wrap(ErrDefaultsRead, err))
		return hooks.List{}
	}
	list, err := ParseDefaults(path, data)
	if err != nil {
		logger.Warn("failed to load default hooks", "path", path, "error", err)
		return hooks.List{}
	}
	return list
}
