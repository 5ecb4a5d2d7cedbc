// Package i18n resolves dotted message keys to localized text.
//
// The active locale is passed in explicitly. Lookups fall back from the
// active locale to its base language, then to the default locale, then to
// the key itself, so resolution never fails.
package i18n

import (
	"fmt"
	"regexp"
	"strings"
	"sync"

	"golang.org/x/text/language"
)

// DefaultLocale is the fallback used when none is configured.
const DefaultLocale = "en"

// Dictionary maps message keys to templates.
type Dictionary map[string]string

var placeholder = regexp.MustCompile(`\{([A-Za-z0-9_.-]+)\}`)

// Resolver holds dictionaries by locale name. It is safe for concurrent use;
// dictionaries are swapped wholesale by Set.
type Resolver struct {
	locale   string
	fallback string

	mu    sync.RWMutex
	dicts map[string]Dictionary
}

func NewResolver(locale, fallback string) *Resolver {
	if strings.TrimSpace(fallback) == "" {
		fallback = DefaultLocale
	}
	if strings.TrimSpace(locale) == "" {
		locale = fallback
	}
	return &Resolver{
		locale:   strings.TrimSpace(locale),
		fallback: strings.TrimSpace(fallback),
		dicts:    make(map[string]Dictionary),
	}
}

func (r *Resolver) Locale() string   { return r.locale }
func (r *Resolver) Fallback() string { return r.fallback }

// Chain returns the locale names consulted by Resolve, most specific first.
func (r *Resolver) Chain() []string {
	seen := make(map[string]bool)
	var chain []string
	for _, name := range append(Candidates(r.locale), Candidates(r.fallback)...) {
		if !seen[name] {
			seen[name] = true
			chain = append(chain, name)
		}
	}
	return chain
}

// Set replaces the dictionary stored for locale. A nil dict is ignored.
func (r *Resolver) Set(locale string, dict Dictionary) {
	if dict == nil {
		return
	}
	cp := make(Dictionary, len(dict))
	for k, v := range dict {
		cp[k] = v
	}
	r.mu.Lock()
	r.dicts[locale] = cp
	r.mu.Unlock()
}

// Has reports whether a dictionary is stored for locale.
func (r *Resolver) Has(locale string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.dicts[locale]
	return ok
}

// Resolve returns the template for key with every {name} replaced by
// params[name]. Placeholders without a matching param are kept verbatim.
// An unknown key resolves to itself.
func (r *Resolver) Resolve(key string, params map[string]any) string {
	text, ok := r.lookup(key)
	if !ok {
		return key
	}
	return Format(text, params)
}

func (r *Resolver) lookup(key string) (string, bool) {
	chain := r.Chain()
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, name := range chain {
		if text, ok := r.dicts[name][key]; ok {
			return text, true
		}
	}
	return "", false
}

// Format substitutes {name} placeholders in text.
func Format(text string, params map[string]any) string {
	if len(params) == 0 || !strings.Contains(text, "{") {
		return text
	}
	return placeholder.ReplaceAllStringFunc(text, func(m string) string {
		v, ok := params[m[1:len(m)-1]]
		if !ok {
			return m
		}
		return fmt.Sprint(v)
	})
}

// Candidates returns the dictionary names to try for locale: the canonical
// BCP 47 tag, then its base language when that differs. Unparseable input
// is returned as is.
func Candidates(locale string) []string {
	locale = strings.TrimSpace(locale)
	if locale == "" {
		return nil
	}
	tag, err := language.Parse(locale)
	if err != nil {
		return []string{locale}
	}
	out := []string{tag.String()}
	if base, conf := tag.Base(); conf != language.No && base.String() != tag.String() {
		out = append(out, base.String())
	}
	return out
}
