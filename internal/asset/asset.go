// Package asset loads and caches the images referenced by image items.
package asset

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"math"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/spf13/afero"
	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
)

// retryInterval bounds how often a failing path is read again.
const retryInterval = time.Second

type entry struct {
	img    image.Image
	err    error
	failed time.Time
}

// Cache maps paths to decoded images. A failed load is retried on a later
// call, so an asset that appears while the overlay runs is picked up.
type Cache struct {
	fs  afero.Fs
	now func() time.Time

	mu      sync.Mutex
	entries map[string]*entry
}

func NewCache(fs afero.Fs) *Cache {
	return &Cache{
		fs:      fs,
		now:     time.Now,
		entries: make(map[string]*entry),
	}
}

// Get returns the image at path, or false if it cannot be loaded right now.
func (c *Cache) Get(path string) (image.Image, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[path]
	if ok && e.img != nil {
		return e.img, true
	}
	if ok && c.now().Sub(e.failed) < retryInterval {
		return nil, false
	}

	img, err := c.load(path)
	if err != nil {
		c.entries[path] = &entry{err: err, failed: c.now()}
		return nil, false
	}
	c.entries[path] = &entry{img: img}
	return img, true
}

// Err reports the last load error for path, if any.
func (c *Cache) Err(path string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.entries[path]; ok {
		return e.err
	}
	return nil
}

func (c *Cache) load(path string) (image.Image, error) {
	data, err := afero.ReadFile(c.fs, path)
	if err != nil {
		return nil, err
	}
	if strings.EqualFold(filepath.Ext(path), ".svg") {
		return decodeSVG(data)
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return img, nil
}

// decodeSVG rasterizes at the document's viewBox size.
func decodeSVG(data []byte) (image.Image, error) {
	icon, err := oksvg.ReadIconStream(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("parse svg: %w", err)
	}
	w := int(math.Ceil(icon.ViewBox.W))
	h := int(math.Ceil(icon.ViewBox.H))
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("svg has empty viewBox %vx%v", icon.ViewBox.W, icon.ViewBox.H)
	}

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	icon.SetTarget(0, 0, float64(w), float64(h))
	scanner := rasterx.NewScannerGV(w, h, img, img.Bounds())
	raster := rasterx.NewDasher(w, h, scanner)
	icon.Draw(raster, 1.0)
	return img, nil
}
