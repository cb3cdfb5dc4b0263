package texture

import (
	"errors"
	"fmt"
	"image"
	"sync"

	"parkan-material/internal/material"
)

// ErrMissing is returned by Resolve when no source has the texture.
var ErrMissing = errors.New("texture not found")

// Cache is a concurrency-safe texture cache that hands out handles for the
// material decoder. The same (stem, mode) always maps to the same handle.
type Cache struct {
	mu      sync.RWMutex
	items   map[cacheKey]material.TextureHandle
	entries []cacheEntry // handle-1 → entry
	source  Source
}

type cacheKey struct {
	stem string
	mode material.TextureMode
}

type cacheEntry struct {
	name string
	mode material.TextureMode
	img  *image.NRGBA
}

var _ material.TextureResolver = (*Cache)(nil)

// NewCache creates a texture cache backed by the given source.
func NewCache(source Source) *Cache {
	return &Cache{
		items:  make(map[cacheKey]material.TextureHandle),
		source: source,
	}
}

// Resolve loads and caches a texture by name and returns its handle.
func (c *Cache) Resolve(name string, mode material.TextureMode) (material.TextureHandle, error) {
	key := cacheKey{Stem(name), mode}

	// Fast path: read lock
	c.mu.RLock()
	if h, ok := c.items[key]; ok {
		c.mu.RUnlock()
		return h, nil
	}
	c.mu.RUnlock()

	data, ext, ok := c.source.Lookup(name)
	if !ok {
		return 0, fmt.Errorf("texture: %q: %w", name, ErrMissing)
	}
	img, err := Decode(data, ext)
	if err != nil {
		return 0, fmt.Errorf("texture: %q: %w", name, err)
	}

	// Write lock with double-check
	c.mu.Lock()
	defer c.mu.Unlock()
	if h, ok := c.items[key]; ok {
		return h, nil
	}
	c.entries = append(c.entries, cacheEntry{name: name, mode: mode, img: img})
	h := material.TextureHandle(len(c.entries))
	c.items[key] = h
	material.Logger().Debug("texture loaded", "name", name, "mode", fmt.Sprintf("%#x", uint32(mode)),
		"handle", h, "size", img.Rect.Size())
	return h, nil
}

func (c *Cache) entry(h material.TextureHandle) (cacheEntry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if h == 0 || int(h) > len(c.entries) {
		return cacheEntry{}, false
	}
	return c.entries[h-1], true
}

// Image returns the decoded image for a handle, or nil.
func (c *Cache) Image(h material.TextureHandle) *image.NRGBA {
	e, _ := c.entry(h)
	return e.img
}

// Mode returns the texture mode a handle was resolved with.
func (c *Cache) Mode(h material.TextureHandle) (material.TextureMode, bool) {
	e, ok := c.entry(h)
	return e.mode, ok
}

// Len returns the number of cached textures.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
