// Package cache is a short-TTL store for introspected database metadata.
// Entries are keyed by the full (kind, alias, schema, table) scope so a hit
// can never leak across connections, schemas, or tables.
package cache

import (
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

const maxEntries = 4096

type Cache struct {
	lru *expirable.LRU[string, any]
}

// New creates a cache whose entries expire after ttl.
func New(ttl time.Duration) *Cache {
	return &Cache{lru: expirable.NewLRU[string, any](maxEntries, nil, ttl)}
}

var keyEscaper = strings.NewReplacer(`\`, `\\`, ":", `\:`)

// Key builds a scope key from its ordered parts, e.g.
// Key("columns", alias, schema, table). Separator characters inside a part
// are escaped so two different part lists can never produce the same key;
// target databases may legally contain object names with colons.
func Key(parts ...string) string {
	escaped := make([]string, len(parts))
	for i, p := range parts {
		escaped[i] = keyEscaper.Replace(p)
	}
	return strings.Join(escaped, ":")
}

func (c *Cache) Get(key string) (any, bool) {
	return c.lru.Get(key)
}

func (c *Cache) Set(key string, value any) {
	c.lru.Add(key, value)
}

func (c *Cache) Delete(key string) {
	c.lru.Remove(key)
}
