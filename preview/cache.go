// Package preview powers the interactive watermark preview: a bounded
// proxy-image cache, a latest-wins debouncer, and a single-flight,
// cancellable render orchestrator.
package preview

import (
	"image"
	"sync"

	"github.com/NightCatCoding/NightCatWatermark/internal/imgio"
)

// DefaultCacheLimit bounds the number of proxies kept in memory.
const DefaultCacheLimit = 10

type proxyKey struct {
	path   string
	maxDim int
}

type proxyEntry struct {
	img      *image.RGBA
	origSize image.Point
}

// ProxyCache stores bounded-size downsampled copies of source images so
// repeated preview renders skip the decode+resize cost. Eviction is
// FIFO by insertion order; lookups do not refresh an entry's position.
// All methods are safe for concurrent use.
type ProxyCache struct {
	mu      sync.Mutex
	entries map[proxyKey]proxyEntry
	order   []proxyKey
	limit   int
}

// NewProxyCache returns a cache holding at most limit entries
// (DefaultCacheLimit when limit <= 0).
func NewProxyCache(limit int) *ProxyCache {
	if limit <= 0 {
		limit = DefaultCacheLimit
	}
	return &ProxyCache{
		entries: make(map[proxyKey]proxyEntry),
		limit:   limit,
	}
}

// GetProxy returns a downsampled copy of the image at path whose larger
// dimension is at most maxDim, plus the original pixel dimensions.
// Returned buffers are always copies; the cache never hands out a
// mutable alias of its stored proxy. The lock is never held across the
// decode or resize.
func (c *ProxyCache) GetProxy(path string, maxDim int) (*image.RGBA, image.Point, error) {
	key := proxyKey{path: path, maxDim: maxDim}

	c.mu.Lock()
	if e, ok := c.entries[key]; ok {
		c.mu.Unlock()
		return imgio.Clone(e.img), e.origSize, nil
	}
	c.mu.Unlock()

	src, err := imgio.Load(path)
	if err != nil {
		return nil, image.Point{}, err
	}
	origSize := src.Bounds().Size()
	proxy := imgio.Downscale(src, maxDim)

	c.mu.Lock()
	if _, ok := c.entries[key]; !ok {
		if len(c.order) >= c.limit {
			oldest := c.order[0]
			c.order = c.order[1:]
			delete(c.entries, oldest)
		}
		c.entries[key] = proxyEntry{img: imgio.Clone(proxy), origSize: origSize}
		c.order = append(c.order, key)
	}
	c.mu.Unlock()

	return proxy, origSize, nil
}

// InvalidateAll clears every entry. Call whenever the set of selectable
// source images changes, so a removed or replaced file can never serve
// a stale proxy.
func (c *ProxyCache) InvalidateAll() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[proxyKey]proxyEntry)
	c.order = nil
}

// Len reports the number of cached proxies.
func (c *ProxyCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
