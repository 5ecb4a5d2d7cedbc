package i18n

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/jingkaihe/hushprint/internal/errx"
)

// Fetcher downloads the dictionary for one locale.
type Fetcher interface {
	FetchLocale(ctx context.Context, locale string) (map[string]string, error)
}

// Loader refreshes a Resolver from a Fetcher.
type Loader struct {
	fetcher  Fetcher
	resolver *Resolver
	logger   *slog.Logger

	mu sync.Mutex
}

func NewLoader(fetcher Fetcher, resolver *Resolver, logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{
		fetcher:  fetcher,
		resolver: resolver,
		logger:   logger.With("component", "i18n"),
	}
}

// Refresh fetches every locale in the resolver chain. A locale that fails
// to load keeps whatever dictionary it had before. Failures are logged and
// returned joined; callers presenting text to the user should ignore them.
// Concurrent calls are serialized.
func (l *Loader) Refresh(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	var errs []error
	loaded := 0
	for _, name := range l.resolver.Chain() {
		dict, err := l.fetcher.FetchLocale(ctx, name)
		if err != nil {
			err = errx.With(ErrTranslationLoad, " %s: %w", name, err)
			l.logger.Debug("locale not loaded", "locale", name, "error", err)
			errs = append(errs, err)
			continue
		}
		l.resolver.Set(name, dict)
		loaded++
	}

	if loaded == 0 && len(errs) > 0 {
		l.logger.Warn("no translations loaded, keeping previous dictionaries",
			"locale", l.resolver.Locale(), "fallback", l.resolver.Fallback())
	}
	return errors.Join(errs...)
}
