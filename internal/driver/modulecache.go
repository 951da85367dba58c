package driver

import (
	"strconv"
	"sync"

	"scratchc/internal/ir"
	"scratchc/internal/project"
	"scratchc/internal/version"
)

// Cache keeps lowered programs in memory and, when a DiskCache is attached,
// on disk. Both layers are keyed by project.CacheKey of the document.
type Cache struct {
	mu    sync.RWMutex
	byKey map[project.Digest]*ir.Program
	disk  *DiskCache
}

// NewCache creates a Cache. disk may be nil for a process-local cache.
func NewCache(disk *DiskCache) *Cache {
	return &Cache{byKey: make(map[project.Digest]*ir.Program), disk: disk}
}

// Key derives the cache key of a project document.
func Key(doc project.Digest) project.Digest {
	return project.CacheKey(doc, version.Version, "ir", strconv.Itoa(int(diskCacheSchemaVersion)))
}

// Get returns the program cached under key. A disk hit is promoted to the
// memory layer.
func (c *Cache) Get(key project.Digest) (*ir.Program, bool, error) {
	if c == nil {
		return nil, false, nil
	}
	c.mu.RLock()
	prog, ok := c.byKey[key]
	c.mu.RUnlock()
	if ok {
		return prog, true, nil
	}

	var payload DiskPayload
	ok, err := c.disk.Get(key, &payload)
	if err != nil || !ok || payload.Version != version.Version {
		return nil, false, err
	}
	c.mu.Lock()
	c.byKey[key] = payload.Program
	c.mu.Unlock()
	return payload.Program, true, nil
}

// Put stores prog in every layer.
func (c *Cache) Put(key project.Digest, path string, prog *ir.Program) error {
	if c == nil || prog == nil {
		return nil
	}
	c.mu.Lock()
	c.byKey[key] = prog
	c.mu.Unlock()
	return c.disk.Put(key, &DiskPayload{Version: version.Version, Path: path, Program: prog})
}
