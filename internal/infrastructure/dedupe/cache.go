package dedupe

import (
	"container/list"
	"sync"
	"time"
)

type indexed struct {
	id      string
	version string
	at      time.Time
}

// Cache remembers the version of each recently indexed content document.
// the content stream is at-least-once: a redelivered message carries a
// version already indexed and is skipped, while a refetch with new engagement
// counters carries a new version and is indexed again.
// the least recently marked document is evicted once capacity is reached.
type Cache struct {
	mu       sync.Mutex
	docs     map[string]*list.Element
	recent   *list.List // front is the most recently marked
	capacity int
	ttl      time.Duration
	now      func() time.Time
}

// NewCache creates a cache holding up to capacity documents for ttl.
func NewCache(capacity int, ttl time.Duration) *Cache {
	if capacity <= 0 {
		capacity = 1
	}
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &Cache{
		docs:     make(map[string]*list.Element, capacity),
		recent:   list.New(),
		capacity: capacity,
		ttl:      ttl,
		now:      time.Now,
	}
}

// Indexed reports whether this version of the document was marked within the ttl.
func (c *Cache) Indexed(id, version string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.docs[id]
	if !ok {
		return false
	}
	doc := el.Value.(*indexed)
	if c.now().Sub(doc.at) > c.ttl {
		c.remove(el)
		return false
	}
	return doc.version == version
}

// MarkIndexed records the version just written for a document.
func (c *Cache) MarkIndexed(id, version string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	if el, ok := c.docs[id]; ok {
		doc := el.Value.(*indexed)
		doc.version = version
		doc.at = now
		c.recent.MoveToFront(el)
	} else {
		c.docs[id] = c.recent.PushFront(&indexed{id: id, version: version, at: now})
	}
	c.evict(now)
}

// Len returns the number of tracked documents.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.docs)
}

// evict drops expired documents and the oldest ones beyond capacity.
// both sit at the back, marks only ever move entries to the front.
func (c *Cache) evict(now time.Time) {
	for el := c.recent.Back(); el != nil; el = c.recent.Back() {
		doc := el.Value.(*indexed)
		if len(c.docs) <= c.capacity && now.Sub(doc.at) <= c.ttl {
			return
		}
		c.remove(el)
	}
}

func (c *Cache) remove(el *list.Element) {
	c.recent.Remove(el)
	delete(c.docs, el.Value.(*indexed).id)
}
