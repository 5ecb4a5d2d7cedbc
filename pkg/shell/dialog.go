package shell

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/jingkaihe/hushprint/pkg/discovery"
	"github.com/jingkaihe/hushprint/pkg/session"
)

// Refresher reloads translations. *i18n.Loader implements it.
type Refresher interface {
	Refresh(ctx context.Context) error
}

// OpenDialog prepares a fresh dialog: it loads the session, fetches owner
// candidates and refreshes translations concurrently. Only a session load
// error is returned; discovery and translation failures degrade silently.
// translations may be nil.
func OpenDialog(ctx context.Context, sess *session.Session, cache *discovery.Cache, translations Refresher, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return sess.Load(gctx)
	})
	g.Go(func() error {
		cache.Open(gctx)
		return nil
	})
	if translations != nil {
		g.Go(func() error {
			if err := translations.Refresh(gctx); err != nil {
				logger.Debug("translations refreshed with errors", "component", "shell", "error", err)
			}
			return nil
		})
	}
	return g.Wait()
}
