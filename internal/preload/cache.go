package preload

import "container/list"

// cacheEntry is one rendered segment on disk.
type cacheEntry struct {
	key  string
	path string
	size int64
}

// lruCache indexes rendered segment files by cache key and tracks recency and
// total size. It is not safe for concurrent use; the Preloader serializes
// access behind its cache lock.
type lruCache struct {
	order   *list.List // front = least recently used
	index   map[string]*list.Element
	total   int64
	maxSize int64
}

func newLRUCache(maxSize int64) *lruCache {
	return &lruCache{
		order:   list.New(),
		index:   make(map[string]*list.Element),
		maxSize: maxSize,
	}
}

// get returns the entry for key and marks it most recently used.
func (c *lruCache) get(key string) (cacheEntry, bool) {
	element, ok := c.index[key]
	if !ok {
		return cacheEntry{}, false
	}
	c.order.MoveToBack(element)
	return element.Value.(cacheEntry), true
}

// contains reports membership without touching recency.
func (c *lruCache) contains(key string) bool {
	_, ok := c.index[key]
	return ok
}

// put records a rendered file as most recently used.
func (c *lruCache) put(key, path string, size int64) {
	if element, ok := c.index[key]; ok {
		old := element.Value.(cacheEntry)
		c.total += size - old.size
		element.Value = cacheEntry{key: key, path: path, size: size}
		c.order.MoveToBack(element)
		return
	}
	c.index[key] = c.order.PushBack(cacheEntry{key: key, path: path, size: size})
	c.total += size
}

// overCap reports whether the running total exceeds the configured cap.
func (c *lruCache) overCap() bool {
	return c.maxSize > 0 && c.total > c.maxSize
}

// oldest returns the least recently used entry without removing it.
func (c *lruCache) oldest() (cacheEntry, bool) {
	front := c.order.Front()
	if front == nil {
		return cacheEntry{}, false
	}
	return front.Value.(cacheEntry), true
}

// remove drops an entry from the index and recency order. The size total is
// adjusted only when confirmed is true, so a failed file deletion does not
// hide bytes still on disk.
func (c *lruCache) remove(key string, confirmed bool) {
	element, ok := c.index[key]
	if !ok {
		return
	}
	entry := element.Value.(cacheEntry)
	c.order.Remove(element)
	delete(c.index, key)
	if confirmed {
		c.total -= entry.size
	}
}

func (c *lruCache) reset() {
	c.order.Init()
	c.index = make(map[string]*list.Element)
	c.total = 0
}

func (c *lruCache) len() int { return len(c.index) }

func (c *lruCache) bytes() int64 { return c.total }
