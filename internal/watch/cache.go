package watch

import "container/list"

// contentCache holds the previously observed text content for each
// watched path, bounded by insertion order: once capacity is reached,
// the oldest-inserted entry is evicted regardless of how recently it
// was read, per the fixed cache budget for diffing.
type contentCache struct {
	capacity int
	order    *list.List
	entries  map[string]*list.Element
}

type cacheEntry struct {
	path    string
	content string
}

func newContentCache(capacity int) *contentCache {
	return &contentCache{
		capacity: capacity,
		order:    list.New(),
		entries:  make(map[string]*list.Element),
	}
}

func (c *contentCache) get(path string) (string, bool) {
	el, ok := c.entries[path]
	if !ok {
		return "", false
	}
	return el.Value.(*cacheEntry).content, true
}

func (c *contentCache) set(path, content string) {
	if el, ok := c.entries[path]; ok {
		el.Value.(*cacheEntry).content = content
		return
	}
	el := c.order.PushBack(&cacheEntry{path: path, content: content})
	c.entries[path] = el
	if c.order.Len() > c.capacity {
		oldest := c.order.Front()
		c.order.Remove(oldest)
		delete(c.entries, oldest.Value.(*cacheEntry).path)
	}
}

func (c *contentCache) delete(path string) {
	if el, ok := c.entries[path]; ok {
		c.order.Remove(el)
		delete(c.entries, path)
	}
}
