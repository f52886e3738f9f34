// Package searchcache caches marshalled shortest-path results keyed by
// (source,target), so repeated queries for the same pair of pages skip
// the BFS entirely. Adapted from the teacher's SearchCache in cache.go:
// same ring-buffer-over-a-slice, oldest-inserted-first eviction policy,
// retargeted from a (source,target,languageCode) key to a plain
// (source,target) PageId pair, since this tool indexes one language per
// store.
package searchcache

import (
	"errors"
	"sync"

	"github.com/wikihop/wikihop/internal/model"
)

// Key identifies one cached query by its resolved endpoints.
type Key struct {
	Source model.PageID
	Target model.PageID
}

// Cache is a byte-budgeted cache of marshalled path results. Insertion
// order doubles as eviction order: the oldest entry is purged first once
// the byte budget is exceeded, same as the teacher's cache.go.
type Cache struct {
	mutex         sync.Mutex
	curByteSize   int
	maxByteSize   int
	keyStartIndex int
	keyEndIndex   int
	keySlice      []Key
	resultData    map[Key][]byte
}

// New creates a cache with a total byte budget across all stored values.
func New(maxBytes int) (*Cache, error) {
	if maxBytes < 0 {
		return nil, errors.New("invalid search cache size")
	}
	return &Cache{
		maxByteSize: maxBytes,
		keySlice:    []Key{},
		resultData:  map[Key][]byte{},
	}, nil
}

// Fetch returns the cached bytes for a key, or nil if absent.
func (c *Cache) Fetch(k Key) []byte {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return c.resultData[k]
}

// Store inserts a result into the cache, evicting the oldest entries
// until the total size is back within budget. A result larger than the
// whole budget is silently not cached.
func (c *Cache) Store(k Key, res []byte) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	purgeOldest := func() {
		c.curByteSize -= len(c.resultData[c.keySlice[c.keyStartIndex]])
		delete(c.resultData, c.keySlice[c.keyStartIndex])
		c.keyStartIndex++
		if c.keyStartIndex == len(c.keySlice) {
			c.keyStartIndex = 0
		}
	}

	if _, alreadyStored := c.resultData[k]; !alreadyStored {
		c.resultData[k] = res
		c.curByteSize += len(res)
		if c.keyEndIndex < len(c.keySlice) {
			c.keySlice[c.keyEndIndex] = k
		} else {
			c.keySlice = append(c.keySlice, k)
		}
		c.keyEndIndex++
		if c.keyEndIndex == c.keyStartIndex {
			purgeOldest()
		}

		if c.curByteSize > c.maxByteSize {
			for c.curByteSize > c.maxByteSize {
				purgeOldest()
			}
			if c.keyEndIndex == len(c.keySlice) && c.keyStartIndex*2 > c.keyEndIndex {
				c.keyEndIndex = 0
			}
		}
	}
}
