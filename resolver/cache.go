// ABOUTME: Session scoped identifier caches for the GUID to object id bridge
// ABOUTME: Full-flush eviction once a map grows past its limit at write time
package resolver

import (
	"sync"

	"github.com/harperreed/formsync/models"
)

// DefaultCacheLimit is the entry count beyond which a cache map is flushed.
const DefaultCacheLimit = 1000

// Cache holds resolved objects by numeric id and numeric ids by GUID for
// the lifetime of one loaded scene. Entries are never invalidated
// individually; scene objects are immutable while the scene is loaded.
type Cache struct {
	mu      sync.Mutex
	limit   int
	objects map[uint32]models.FormObject
	ids     map[string]uint32
	flushes int
}

// NewCache creates an empty cache. A non-positive limit uses DefaultCacheLimit.
func NewCache(limit int) *Cache {
	if limit <= 0 {
		limit = DefaultCacheLimit
	}
	return &Cache{
		limit:   limit,
		objects: make(map[uint32]models.FormObject),
		ids:     make(map[string]uint32),
	}
}

// Limit returns the flush threshold.
func (c *Cache) Limit() int {
	return c.limit
}

// Reset drops every entry, used when the scene changes.
func (c *Cache) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.objects = make(map[uint32]models.FormObject)
	c.ids = make(map[string]uint32)
}

// ObjectsLen returns the number of cached id to object entries.
func (c *Cache) ObjectsLen() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.objects)
}

// IDsLen returns the number of cached GUID to id entries.
func (c *Cache) IDsLen() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.ids)
}

// Flushes returns how many times a map was cleared for growing too large.
func (c *Cache) Flushes() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.flushes
}

// Object returns a cached object by numeric id.
func (c *Cache) Object(id uint32) (models.FormObject, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	obj, ok := c.objects[id]
	return obj, ok
}

// ID returns a cached numeric id by GUID.
func (c *Cache) ID(guid string) (uint32, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	id, ok := c.ids[guid]
	return id, ok
}

func (c *Cache) splitObjects(ids []uint32) (known []models.FormObject, unknown []uint32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, id := range ids {
		if obj, ok := c.objects[id]; ok {
			known = append(known, obj)
		} else {
			unknown = append(unknown, id)
		}
	}
	return known, unknown
}

func (c *Cache) splitGUIDs(guids []string) (known map[string]uint32, unknown []string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	known = make(map[string]uint32)
	for _, guid := range guids {
		if id, ok := c.ids[guid]; ok {
			known[guid] = id
		} else {
			unknown = append(unknown, guid)
		}
	}
	return known, unknown
}

func (c *Cache) storeObjects(objects []models.FormObject) {
	if len(objects) == 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.objects) > c.limit {
		c.objects = make(map[uint32]models.FormObject)
		c.flushes++
	}
	for _, obj := range objects {
		c.objects[obj.ID] = obj
	}
}

func (c *Cache) storeIDs(ids map[string]uint32) {
	if len(ids) == 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.ids) > c.limit {
		c.ids = make(map[string]uint32)
		c.flushes++
	}
	for guid, id := range ids {
		c.ids[guid] = id
	}
}
