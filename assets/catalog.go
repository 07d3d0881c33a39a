// ABOUTME: Catalog of placeable 3D marker assets for location forms
// ABOUTME: Fetched once per session; allocates collision-free object id ranges per asset
package assets

import (
	"context"
	"errors"
	"path"
	"strings"
	"sync"
	"unicode"

	"github.com/charmbracelet/log"
)

// Object id layout for marker instances. Each asset owns a block of
// AssetIDStride ids starting at BaseObjectIDStart; the upper half of a
// block is used for the selected rendition of the same form.
const (
	BaseObjectIDStart      uint32 = 0xF0000000
	AssetIDStride          uint32 = 100000
	SelectedObjectIDOffset uint32 = 50000
)

var ErrUnknownAsset = errors.New("unknown marker asset")

// Asset is one placeable marker mesh.
type Asset struct {
	Name         string `json:"name"`
	Title        string `json:"title"`
	BaseObjectID uint32 `json:"baseObjectId"`
}

// ObjectID returns the render object id of the formIndex-th marker.
func (a Asset) ObjectID(formIndex int, selected bool) uint32 {
	id := a.BaseObjectID + uint32(formIndex)
	if selected {
		id += SelectedObjectIDOffset
	}
	return id
}

// IndexFetcher loads the JSON index of marker mesh names from the blob store.
type IndexFetcher interface {
	FetchAssetIndex(ctx context.Context) ([]string, error)
}

// Catalog caches the asset list for the session.
type Catalog struct {
	fetcher IndexFetcher

	mu     sync.Mutex
	loaded bool
	assets []Asset
}

func NewCatalog(fetcher IndexFetcher) *Catalog {
	return &Catalog{fetcher: fetcher}
}

// Load returns the catalog, fetching it on first use. Concurrent callers
// wait for the same fetch. A failed fetch is retried on the next call.
func (c *Catalog) Load(ctx context.Context) ([]Asset, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.loaded {
		return c.assets, nil
	}

	names, err := c.fetcher.FetchAssetIndex(ctx)
	if err != nil {
		if ctx.Err() == nil {
			log.WithPrefix("assets").Error("failed to fetch asset index", "err", err)
		}
		return nil, err
	}

	c.assets = Build(names)
	c.loaded = true
	return c.assets, nil
}

// Reset forgets the loaded catalog.
func (c *Catalog) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.loaded = false
	c.assets = nil
}

// Assets returns the loaded assets, or nil before Load.
func (c *Catalog) Assets() []Asset {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.assets
}

// Lookup finds an asset by mesh name.
func (c *Catalog) Lookup(name string) (Asset, int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, a := range c.assets {
		if a.Name == name {
			return a, i, nil
		}
	}
	return Asset{}, -1, ErrUnknownAsset
}

// Decode maps a marker object id back to its asset index, form index and
// whether it is the selected rendition.
func (c *Catalog) Decode(objectID uint32) (assetIndex, formIndex int, selected, ok bool) {
	c.mu.Lock()
	n := len(c.assets)
	c.mu.Unlock()

	assetIndex, formIndex, selected, ok = DecodeObjectID(objectID)
	if !ok || assetIndex >= n {
		return 0, 0, false, false
	}
	return assetIndex, formIndex, selected, true
}

// Build allocates base object ids for an ordered list of mesh names.
func Build(names []string) []Asset {
	out := make([]Asset, len(names))
	for i, name := range names {
		out[i] = Asset{
			Name:         name,
			Title:        TitleFromName(name),
			BaseObjectID: BaseObjectIDStart + AssetIDStride*uint32(i),
		}
	}
	return out
}

// DecodeObjectID is the inverse of Asset.ObjectID without a catalog bound check.
func DecodeObjectID(objectID uint32) (assetIndex, formIndex int, selected, ok bool) {
	if objectID < BaseObjectIDStart {
		return 0, 0, false, false
	}
	offset := objectID - BaseObjectIDStart
	assetIndex = int(offset / AssetIDStride)
	rem := offset % AssetIDStride
	if rem >= SelectedObjectIDOffset {
		selected = true
		rem -= SelectedObjectIDOffset
	}
	return assetIndex, int(rem), selected, true
}

// TitleFromName turns "traffic_cone.glb" into "Traffic Cone".
func TitleFromName(name string) string {
	base := strings.TrimSuffix(path.Base(name), path.Ext(name))
	words := strings.FieldsFunc(base, func(r rune) bool {
		return r == '_' || r == '-' || unicode.IsSpace(r)
	})
	for i, w := range words {
		runes := []rune(w)
		runes[0] = unicode.ToUpper(runes[0])
		words[i] = string(runes)
	}
	return strings.Join(words, " ")
}
