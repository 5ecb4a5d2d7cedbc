// Package discovery caches candidate nodes and methods for autocomplete.
//
// Candidates are advisory: nothing in the edit session requires a target to
// appear here. A cache lives as long as one edit dialog.
package discovery

import (
	"context"
	"log/slog"
	"sort"
	"strings"
	"sync"
)

// Source enumerates candidates. Implementations degrade to empty results
// instead of failing.
type Source interface {
	DiscoverOwners(ctx context.Context) []string
	DiscoverMembers(ctx context.Context, owner string) []string
}

// Cache holds the owner candidates and the member candidates of the most
// recently committed owner. It is safe for concurrent use.
type Cache struct {
	src    Source
	logger *slog.Logger

	mu      sync.Mutex
	owners  []string
	owner   string
	members []string
	// queried is true once a member query for owner has been issued.
	queried bool
}

func New(src Source, logger *slog.Logger) *Cache {
	if logger == nil {
		logger = slog.Default()
	}
	return &Cache{
		src:    src,
		logger: logger.With("component", "discovery"),
	}
}

// Open fetches owner candidates once per call and stores them. An empty
// result keeps the candidates from an earlier Open, since sources report
// failures as empty.
func (c *Cache) Open(ctx context.Context) {
	owners := c.src.DiscoverOwners(ctx)
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(owners) == 0 && len(c.owners) > 0 {
		c.logger.Debug("no owners discovered, keeping previous candidates", "count", len(c.owners))
		return
	}
	c.owners = append([]string(nil), owners...)
	c.logger.Debug("owners discovered", "count", len(owners))
}

// CommitOwner records owner as the committed value of the owner field and
// refreshes member candidates when it changed. The same owner committed
// twice in a row is not queried again. A blank owner clears the members.
//
// A response is kept only if owner is still the committed value when it
// arrives; a slower response for an older selection is dropped.
func (c *Cache) CommitOwner(ctx context.Context, owner string) {
	owner = strings.TrimSpace(owner)

	c.mu.Lock()
	if c.queried && owner == c.owner {
		c.mu.Unlock()
		return
	}
	c.owner = owner
	c.members = nil
	c.queried = owner != ""
	c.mu.Unlock()

	if owner == "" {
		return
	}

	members := c.src.DiscoverMembers(ctx, owner)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.owner != owner {
		c.logger.Debug("discarding stale members", "node", owner, "current", c.owner)
		return
	}
	c.members = append([]string(nil), members...)
}

// Owners returns a copy of the owner candidates.
func (c *Cache) Owners() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.owners...)
}

// Members returns the committed owner and a copy of its member candidates.
func (c *Cache) Members() (string, []string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.owner, append([]string(nil), c.members...)
}

// SuggestOwners returns owner candidates starting with prefix, ignoring case.
func (c *Cache) SuggestOwners(prefix string) []string {
	return filterPrefix(c.Owners(), prefix)
}

// SuggestMembers returns member candidates of the committed owner starting
// with prefix, ignoring case.
func (c *Cache) SuggestMembers(prefix string) []string {
	_, members := c.Members()
	return filterPrefix(members, prefix)
}

func filterPrefix(items []string, prefix string) []string {
	prefix = strings.ToLower(strings.TrimSpace(prefix))
	out := make([]string, 0, len(items))
	for _, item := range items {
		if strings.HasPrefix(strings.ToLower(item), prefix) {
			out = append(out, item)
		}
	}
	sort.Strings(out)
	return out
}
