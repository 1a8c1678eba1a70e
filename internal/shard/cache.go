package shard

import (
	"errors"

	"github.com/robert-malhotra/go-gadgethdf/internal/container"
)

type handle struct {
	file  container.File
	root  container.Group
	shard container.Group
}

// cache holds open shard handles by index. Invalidation is all-or-nothing.
type cache struct {
	entries map[int]*handle
}

func newCache() *cache {
	return &cache{entries: make(map[int]*handle)}
}

func (c *cache) get(i int) (*handle, bool) {
	h, ok := c.entries[i]
	return h, ok
}

func (c *cache) put(i int, h *handle) {
	c.entries[i] = h
}

func (c *cache) len() int {
	return len(c.entries)
}

func (c *cache) invalidateAll() error {
	var errs []error
	for i, h := range c.entries {
		if err := h.file.Close(); err != nil {
			errs = append(errs, err)
		}
		delete(c.entries, i)
	}
	return errors.Join(errs...)
}
