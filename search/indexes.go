// Package search maps logical index roles to physical Elasticsearch index
// names and pushes documents to them when live indexing is enabled.
package search

import (
	"errors"
	"fmt"
	"maps"
	"slices"

	"github.com/kitsune-sumo/settings/config"
)

// ErrUnknownIndex is returned for a role missing from es.indexes or es.write_indexes.
var ErrUnknownIndex = errors.New("search: unknown index role")

// Indexes resolves index roles (default, other, ...) to physical names.
type Indexes struct {
	prefix string
	read   map[string]string
	write  map[string]string
}

// NewIndexes builds the role tables from cfg. The maps are copied.
func NewIndexes(cfg config.SearchConfig) *Indexes {
	return &Indexes{
		prefix: cfg.IndexPrefix,
		read:   maps.Clone(cfg.Indexes),
		write:  maps.Clone(cfg.WriteIndexes),
	}
}

// ReadIndex returns the physical index queried for role.
func (ix *Indexes) ReadIndex(role string) (string, error) {
	return ix.resolve(ix.read, config.KeySearchIndexes, role)
}

// WriteIndex returns the physical index documents for role are written to.
func (ix *Indexes) WriteIndex(role string) (string, error) {
	return ix.resolve(ix.write, config.KeySearchWriteIndexes, role)
}

// Roles returns the read roles in sorted order.
func (ix *Indexes) Roles() []string {
	return slices.Sorted(maps.Keys(ix.read))
}

// All returns every distinct physical read and write index name, sorted.
func (ix *Indexes) All() []string {
	seen := make(map[string]struct{}, len(ix.read)+len(ix.write))
	for _, tbl := range []map[string]string{ix.read, ix.write} {
		for _, name := range tbl {
			seen[ix.physical(name)] = struct{}{}
		}
	}
	return slices.Sorted(maps.Keys(seen))
}

func (ix *Indexes) resolve(tbl map[string]string, key, role string) (string, error) {
	name, ok := tbl[role]
	if !ok || name == "" {
		return "", fmt.Errorf("%w: %s.%s", ErrUnknownIndex, key, role)
	}
	return ix.physical(name), nil
}

func (ix *Indexes) physical(name string) string {
	if ix.prefix == "" {
		return name
	}
	return ix.prefix + "_" + name
}
