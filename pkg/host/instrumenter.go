package host

import (
	"context"
	"log/slog"
	"sync"

	"github.com/jingkaihe/hushprint/pkg/hooks"
)

// Instrumenter installs suppression hooks in the host. Apply replaces the
// installed set with the enabled entries of list it can resolve and
// returns those entries.
type Instrumenter interface {
	Apply(ctx context.Context, list hooks.List) (hooks.List, error)
}

// CatalogInstrumenter resolves targets against a Catalog. An entry is
// activated only when it is enabled and the catalog has both its node and
// its method; anything else is skipped without failing the call.
type CatalogInstrumenter struct {
	catalog Catalog
	logger  *slog.Logger

	mu     sync.Mutex
	active hooks.List
}

func NewCatalogInstrumenter(catalog Catalog, logger *slog.Logger) *CatalogInstrumenter {
	if logger == nil {
		logger = slog.Default()
	}
	return &CatalogInstrumenter{
		catalog: catalog,
		logger:  logger.With("component", "instrumenter"),
		active:  hooks.List{},
	}
}

func (i *CatalogInstrumenter) Apply(ctx context.Context, list hooks.List) (hooks.List, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	hooked := hooks.List{}
	for _, e := range list {
		if !e.Enabled {
			continue
		}
		if _, ok := i.catalog.Methods(e.Owner); !ok {
			i.logger.Debug("node not found, skipping", "node", e.Owner)
			continue
		}
		if !Has(i.catalog, e.Key()) {
			i.logger.Debug("method not found, skipping", "node", e.Owner, "method", e.Member)
			continue
		}
		hooked = append(hooked, e)
	}

	i.mu.Lock()
	removed := len(i.active)
	i.active = hooked.Clone()
	i.mu.Unlock()

	i.logger.Info("hooks applied", "requested", len(list), "hooked", len(hooked), "replaced", removed)
	return hooked.Clone(), nil
}

// Active returns the currently installed hooks.
func (i *CatalogInstrumenter) Active() hooks.List {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.active.Clone()
}
