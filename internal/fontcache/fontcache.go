// Package fontcache provides a size-keyed cache of rasterizable font
// faces. Faces are expensive to derive, especially for CJK fonts, so a
// single Cache instance is shared between the full-resolution and
// preview render paths.
package fontcache

import (
	"fmt"
	"image"
	"os"
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/font/sfnt"
	"golang.org/x/image/math/fixed"
)

// DefaultLimit bounds the number of derived faces kept alive.
const DefaultLimit = 50

// Cache derives and memoizes font.Face instances per pixel size.
// All methods are safe for concurrent use; the internal lock is never
// held across face derivation.
type Cache struct {
	parsed *sfnt.Font

	mu    sync.Mutex
	faces map[int]font.Face
	order []int
	limit int
}

// New returns a Cache backed by the bundled Go Regular font.
func New() *Cache {
	f, err := opentype.Parse(goregular.TTF)
	if err != nil {
		// goregular.TTF is a known-good embedded asset.
		panic(fmt.Sprintf("fontcache: parse bundled font: %v", err))
	}
	return newCache(f)
}

// NewFromFile returns a Cache backed by the TrueType/OpenType font at path.
func NewFromFile(path string) (*Cache, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("fontcache: read %s: %w", path, err)
	}
	f, err := opentype.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("fontcache: parse %s: %w", path, err)
	}
	return newCache(f), nil
}

func newCache(f *sfnt.Font) *Cache {
	return &Cache{
		parsed: f,
		faces:  make(map[int]font.Face),
		limit:  DefaultLimit,
	}
}

// Face returns a face rendering at the given pixel size. Returned
// faces are safe for concurrent use.
func (c *Cache) Face(size int) (font.Face, error) {
	if size <= 0 {
		return nil, fmt.Errorf("fontcache: invalid size %d", size)
	}
	c.mu.Lock()
	if face, ok := c.faces[size]; ok {
		c.mu.Unlock()
		return face, nil
	}
	c.mu.Unlock()

	derived, err := opentype.NewFace(c.parsed, &opentype.FaceOptions{
		Size:    float64(size),
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, fmt.Errorf("fontcache: derive face size %d: %w", size, err)
	}
	face := &lockedFace{face: derived}

	c.mu.Lock()
	defer c.mu.Unlock()
	if cached, ok := c.faces[size]; ok {
		return cached, nil
	}
	if len(c.order) >= c.limit {
		oldest := c.order[0]
		c.order = c.order[1:]
		delete(c.faces, oldest)
	}
	c.faces[size] = face
	c.order = append(c.order, size)
	return face, nil
}

// lockedFace serializes access to an opentype face. An opentype.Face
// mutates an internal sfnt.Buffer on every glyph lookup and is not safe
// for concurrent use, but a cached face is shared between the preview
// and full-resolution render paths.
type lockedFace struct {
	mu   sync.Mutex
	face font.Face
}

func (f *lockedFace) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.face.Close()
}

func (f *lockedFace) Glyph(dot fixed.Point26_6, r rune) (image.Rectangle, image.Image, image.Point, fixed.Int26_6, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.face.Glyph(dot, r)
}

func (f *lockedFace) GlyphBounds(r rune) (fixed.Rectangle26_6, fixed.Int26_6, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.face.GlyphBounds(r)
}

func (f *lockedFace) GlyphAdvance(r rune) (fixed.Int26_6, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.face.GlyphAdvance(r)
}

func (f *lockedFace) Kern(r0, r1 rune) fixed.Int26_6 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.face.Kern(r0, r1)
}

func (f *lockedFace) Metrics() font.Metrics {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.face.Metrics()
}

// Clear drops every cached face. The parsed font itself is retained.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.faces = make(map[int]font.Face)
	c.order = nil
}
