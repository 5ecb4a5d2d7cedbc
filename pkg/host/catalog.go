// Package host models the process whose callables get instrumented: a
// catalog of known nodes and their methods, and an instrumenter that
// installs suppression hooks against it.
package host

import (
	"encoding/json"
	"os"
	"sort"
	"strings"

	"github.com/jingkaihe/hushprint/internal/errx"
	"github.com/jingkaihe/hushprint/internal/hclfile"
	"github.com/jingkaihe/hushprint/pkg/hooks"
)

// Catalog enumerates the node types loaded in the host and their methods.
type Catalog interface {
	Nodes() []string
	Methods(node string) ([]string, bool)
}

// StaticCatalog is an immutable Catalog built from a map or a file.
type StaticCatalog struct {
	nodes map[string][]string
}

// NewStaticCatalog copies nodes. Names are trimmed; blank names and
// repeated methods are dropped.
func NewStaticCatalog(nodes map[string][]string) *StaticCatalog {
	c := &StaticCatalog{nodes: make(map[string][]string, len(nodes))}
	for node, methods := range nodes {
		node = strings.TrimSpace(node)
		if node == "" {
			continue
		}
		seen := make(map[string]struct{}, len(methods))
		clean := make([]string, 0, len(methods))
		for _, m := range append(c.nodes[node], methods...) {
			m = strings.TrimSpace(m)
			if _, dup := seen[m]; m == "" || dup {
				continue
			}
			seen[m] = struct{}{}
			clean = append(clean, m)
		}
		sort.Strings(clean)
		c.nodes[node] = clean
	}
	return c
}

// Nodes returns the node names in sorted order.
func (c *StaticCatalog) Nodes() []string {
	out := make([]string, 0, len(c.nodes))
	for node := range c.nodes {
		out = append(out, node)
	}
	sort.Strings(out)
	return out
}

// Methods returns the sorted methods of node and whether node exists.
func (c *StaticCatalog) Methods(node string) ([]string, bool) {
	methods, ok := c.nodes[node]
	if !ok {
		return nil, false
	}
	return append([]string(nil), methods...), true
}

// Has reports whether the catalog knows both the node and the method of k.
func Has(c Catalog, k hooks.Key) bool {
	methods, ok := c.Methods(k.Owner)
	if !ok {
		return false
	}
	for _, m := range methods {
		if m == k.Member {
			return true
		}
	}
	return false
}

type jsonCatalog struct {
	Nodes map[string][]string `json:"nodes"`
}

type hclCatalog struct {
	Nodes []hclNode `hcl:"node,block"`
}

type hclNode struct {
	Name    string   `hcl:"name,label"`
	Methods []string `hcl:"methods,optional"`
}

// LoadCatalog reads a catalog file. Files ending in .hcl use
//
//	node "KSampler" {
//	  methods = ["sample"]
//	}
//
// and anything else is JSON of the form {"nodes": {"KSampler": ["sample"]}}.
func LoadCatalog(path string) (*StaticCatalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errx.Wrap(ErrCatalogRead, err)
	}
	return ParseCatalog(path, data)
}

// ParseCatalog decodes catalog file contents; filename selects the format.
func ParseCatalog(filename string, data []byte) (*StaticCatalog, error) {
	if hclfile.IsHCL(filename) {
		var f hclCatalog
		if err := hclfile.Decode(filename, data, &f); err != nil {
			return nil, errx.Wrap(ErrCatalogParse, err)
		}
		nodes := make(map[string][]string, len(f.Nodes))
		for _, n := range f.Nodes {
			nodes[n.Name] = append(nodes[n.Name], n.Methods...)
		}
		return NewStaticCatalog(nodes), nil
	}

	var f jsonCatalog
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, errx.With(ErrCatalogParse, " %s: %w", filename, err)
	}
	return NewStaticCatalog(f.Nodes), nil
}
