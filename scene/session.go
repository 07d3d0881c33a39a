// ABOUTME: Scene session context owning the identifier caches and the asset catalog
// ABOUTME: Switching scenes resets every session scoped cache explicitly
package scene

import (
	"sync"

	"github.com/charmbracelet/log"

	"github.com/harperreed/formsync/assets"
	"github.com/harperreed/formsync/resolver"
)

// Session is everything that lives as long as one loaded scene.
type Session struct {
	mu      sync.RWMutex
	sceneID string

	Engine   Engine
	Cache    *resolver.Cache
	Catalog  *assets.Catalog
	Resolver *resolver.Resolver
}

// NewSession wires a session for sceneID.
func NewSession(sceneID string, engine Engine, querier resolver.ObjectQuerier, fetcher assets.IndexFetcher, cacheLimit int, opts ...resolver.Option) *Session {
	cache := resolver.NewCache(cacheLimit)
	return &Session{
		sceneID:  sceneID,
		Engine:   engine,
		Cache:    cache,
		Catalog:  assets.NewCatalog(fetcher),
		Resolver: resolver.New(querier, cache, opts...),
	}
}

// SceneID returns the id of the loaded scene.
func (s *Session) SceneID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sceneID
}

// Switch moves the session to another scene. Object ids are only meaningful
// within one scene, so the identifier caches are dropped. The asset catalog
// does not depend on the scene and is kept.
func (s *Session) Switch(sceneID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sceneID == s.sceneID {
		return
	}
	log.WithPrefix("scene").Debug("switching scene", "from", s.sceneID, "to", sceneID)
	s.sceneID = sceneID
	s.Cache.Reset()
}
