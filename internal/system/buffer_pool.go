package system

import (
	"image"
	"sync"
	"sync/atomic"
)

// ImagePool hands out *image.RGBA frame buffers, one free list per frame
// size. Layer and recording buffers of a movie keep their size from frame to
// frame, so after the first frames every Get is served from the free list.
type ImagePool struct {
	mu    sync.RWMutex
	sizes map[image.Rectangle]*sync.Pool

	allocated atomic.Int64
	reused    atomic.Int64
}

// PoolStats counts the buffers a pool created and the Gets it served from
// returned buffers.
type PoolStats struct {
	Allocated int64
	Reused    int64
}

var frames = NewImagePool()

func NewImagePool() *ImagePool {
	return &ImagePool{sizes: make(map[image.Rectangle]*sync.Pool)}
}

// GetImage returns a buffer with bounds r from the shared pool. Its
// contents are undefined.
func GetImage(r image.Rectangle) *image.RGBA {
	return frames.Get(r)
}

// PutImage returns a buffer to the shared pool.
func PutImage(img *image.RGBA) {
	frames.Put(img)
}

// FramePoolStats reports the shared pool.
func FramePoolStats() PoolStats {
	return frames.Stats()
}

func (p *ImagePool) Get(r image.Rectangle) *image.RGBA {
	if img, ok := p.free(r).Get().(*image.RGBA); ok {
		p.reused.Add(1)
		return img
	}
	p.allocated.Add(1)
	return image.NewRGBA(r)
}

// Put keeps img for the next Get of the same bounds. Buffers whose pixel
// slice no longer matches their bounds are dropped.
func (p *ImagePool) Put(img *image.RGBA) {
	if img == nil || len(img.Pix) != 4*img.Rect.Dx()*img.Rect.Dy() {
		return
	}
	p.free(img.Rect).Put(img)
}

func (p *ImagePool) Stats() PoolStats {
	return PoolStats{Allocated: p.allocated.Load(), Reused: p.reused.Load()}
}

func (p *ImagePool) free(r image.Rectangle) *sync.Pool {
	p.mu.RLock()
	pool, ok := p.sizes[r]
	p.mu.RUnlock()
	if ok {
		return pool
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if pool, ok = p.sizes[r]; !ok {
		pool = &sync.Pool{}
		p.sizes[r] = pool
	}
	return pool
}
