// Package assets loads and caches the source images referenced by character
// documents.
package assets

import (
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"
	"sync"

	// Registered image decoders.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/Faultbox/scmlkit/pkg/encoding"
)

// ErrNotFound is returned when no search root holds the requested image.
var ErrNotFound = errors.New("image not found")

// Manager resolves image names against a list of search roots.
// Roots are searched in reverse order (last added = highest priority).
type Manager struct {
	roots []string
	cache *Cache
	mu    sync.RWMutex
}

// NewManager creates a new asset manager.
func NewManager(roots ...string) *Manager {
	m := &Manager{cache: NewCache()}
	for _, r := range roots {
		m.AddRoot(r)
	}
	return m
}

// AddRoot adds a directory to search.
func (m *Manager) AddRoot(dir string) {
	m.mu.Lock()
	m.roots = append(m.roots, filepath.Clean(dir))
	m.mu.Unlock()
}

// LoadImage decodes the image called name. Names use either slash style.
func (m *Manager) LoadImage(name string) (image.Image, error) {
	key := encoding.NormalizePath(name)

	if img, ok := m.cache.Get(key); ok {
		return img, nil
	}

	path, err := m.Resolve(key)
	if err != nil {
		return nil, err
	}

	img, err := decodeFile(path)
	if err != nil {
		return nil, err
	}

	m.cache.Set(key, img)
	return img, nil
}

// Resolve returns the path of the first root holding name.
func (m *Manager) Resolve(name string) (string, error) {
	rel := filepath.FromSlash(encoding.NormalizePath(name))

	if filepath.IsAbs(rel) {
		if info, err := os.Stat(rel); err == nil && !info.IsDir() {
			return rel, nil
		}
		return "", fmt.Errorf("%w: %s", ErrNotFound, name)
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	for i := len(m.roots) - 1; i >= 0; i-- {
		path := filepath.Join(m.roots[i], rel)
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path, nil
		}
	}

	return "", fmt.Errorf("%w: %s", ErrNotFound, name)
}

// Cache returns the decoded image cache.
func (m *Manager) Cache() *Cache {
	return m.cache
}

// Invalidate drops name from the cache so the next load reads it again.
// It reports whether name was cached.
func (m *Manager) Invalidate(name string) bool {
	return m.cache.Delete(encoding.NormalizePath(name))
}

// InvalidatePath drops every cached image that may have been read from the
// file at path, whether it was referenced by absolute path or relative to
// one of the roots. It returns the number of entries dropped.
func (m *Manager) InvalidatePath(path string) int {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}

	n := 0
	if m.Invalidate(filepath.ToSlash(abs)) {
		n++
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, root := range m.roots {
		absRoot, err := filepath.Abs(root)
		if err != nil {
			continue
		}
		rel, err := filepath.Rel(absRoot, abs)
		if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			continue
		}
		if m.Invalidate(filepath.ToSlash(rel)) {
			n++
		}
	}
	return n
}

func decodeFile(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening image: %w", err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decoding image %s: %w", path, err)
	}
	return img, nil
}

// IsImageFile reports whether path has an extension with a registered decoder.
func IsImageFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png", ".jpg", ".jpeg", ".gif", ".bmp", ".tif", ".tiff", ".webp":
		return true
	}
	return false
}

// Cache is a simple in-memory cache for decoded images.
type Cache struct {
	data map[string]image.Image
	mu   sync.Mutex

	// Stats
	hits   int
	misses int
}

// NewCache creates a new cache.
func NewCache() *Cache {
	return &Cache{
		data: make(map[string]image.Image),
	}
}

// Get retrieves an item from cache.
func (c *Cache) Get(key string) (image.Image, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	img, ok := c.data[key]
	if ok {
		c.hits++
	} else {
		c.misses++
	}
	return img, ok
}

// Set stores an item in cache.
func (c *Cache) Set(key string, img image.Image) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = img
}

// Delete removes an item from cache and reports whether it was present.
func (c *Cache) Delete(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.data[key]
	delete(c.data, key)
	return ok
}

// Len returns the number of cached images.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.data)
}

// Stats returns cache statistics.
func (c *Cache) Stats() (hits, misses int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hits, c.misses
}
