package i18n

import (
	"embed"
	"encoding/json"
	"io/fs"
	"path"
	"sort"
	"strings"

	"github.com/jingkaihe/hushprint/internal/errx"
)

//go:embed locales/*.json
var builtinFS embed.FS

// Builtin returns the dictionary shipped with the binary for locale.
func Builtin(locale string) (Dictionary, error) {
	data, err := fs.ReadFile(builtinFS, path.Join("locales", locale+".json"))
	if err != nil {
		return nil, errx.With(ErrUnknownLocale, ": %s", locale)
	}
	var dict Dictionary
	if err := json.Unmarshal(data, &dict); err != nil {
		return nil, errx.Wrap(ErrParseDictionary, err)
	}
	return dict, nil
}

// BuiltinLocales lists the locales shipped with the binary.
func BuiltinLocales() []string {
	entries, err := fs.ReadDir(builtinFS, "locales")
	if err != nil {
		return nil
	}
	var out []string
	for _, e := range entries {
		if name, ok := strings.CutSuffix(e.Name(), ".json"); ok {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}

// SeedBuiltin stores the shipped dictionaries for every name in r's chain,
// so text resolves before (or without) a remote refresh.
func SeedBuiltin(r *Resolver) {
	for _, name := range r.Chain() {
		if dict, err := Builtin(name); err == nil {
			r.Set(name, dict)
		}
	}
}
