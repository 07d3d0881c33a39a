// ABOUTME: Tag based memoisation of GET responses
// ABOUTME: Mutations invalidate the entity tag and the list tags containing it
package api

import (
	"fmt"
	"sync"
)

// IDListTag marks every cached list of template ids.
const IDListTag = "ID_LIST"

func TemplateTag(projectID, id string) string {
	return fmt.Sprintf("Template:%s-%s", projectID, id)
}

func FormTag(projectID, id string) string {
	return fmt.Sprintf("Form:%s-%s", projectID, id)
}

func ListTag(projectID string) string {
	return "LIST-" + projectID
}

// TagCache stores raw response bodies by request key. Each entry carries the
// tags that invalidate it.
type TagCache struct {
	mu      sync.Mutex
	entries map[string][]byte
	byTag   map[string]map[string]struct{}
}

func NewTagCache() *TagCache {
	return &TagCache{
		entries: make(map[string][]byte),
		byTag:   make(map[string]map[string]struct{}),
	}
}

func (c *TagCache) Get(key string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	b, ok := c.entries[key]
	return b, ok
}

func (c *TagCache) Put(key string, body []byte, tags ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = body
	for _, tag := range tags {
		keys, ok := c.byTag[tag]
		if !ok {
			keys = make(map[string]struct{})
			c.byTag[tag] = keys
		}
		keys[key] = struct{}{}
	}
}

// Invalidate drops every entry carrying one of tags.
func (c *TagCache) Invalidate(tags ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, tag := range tags {
		for key := range c.byTag[tag] {
			delete(c.entries, key)
		}
		delete(c.byTag, tag)
	}
}

func (c *TagCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
