package nodestore

import (
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// Cache fronts a backend with an expiring LRU of recently touched nodes.
type Cache struct {
	lru     *expirable.LRU[Hash256, *Node]
	maxSize int
}

// NewCache creates a cache holding at most maxSize nodes, each expiring
// after ttl.
func NewCache(maxSize int, ttl time.Duration) *Cache {
	return &Cache{
		lru:     expirable.NewLRU[Hash256, *Node](maxSize, nil, ttl),
		maxSize: maxSize,
	}
}

// Get retrieves a node from the cache.
func (c *Cache) Get(hash Hash256) (*Node, bool) {
	return c.lru.Get(hash)
}

// Put stores a node in the cache.
func (c *Cache) Put(node *Node) {
	if node == nil {
		return
	}
	c.lru.Add(node.Hash, node)
}

// Remove removes a node from the cache.
func (c *Cache) Remove(hash Hash256) {
	c.lru.Remove(hash)
}

// Clear removes all entries from the cache.
func (c *Cache) Clear() {
	c.lru.Purge()
}

// Size returns the current number of items in the cache.
func (c *Cache) Size() int {
	return c.lru.Len()
}

// MaxSize returns the configured capacity.
func (c *Cache) MaxSize() int {
	return c.maxSize
}
