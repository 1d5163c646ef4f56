package source

import (
	"image"
	"runtime"
	"sync"

	"github.com/gen2brain/go-fitz"
)

// PDF renders the pages of a document. A MuPDF handle renders one page at a
// time, so PDF keeps a pool of handles and concurrent Render calls each
// borrow one.
type PDF struct {
	path   string
	bounds []image.Rectangle

	mu     sync.Mutex
	idle   chan *fitz.Document
	closed bool
}

// OpenPDF opens path, keeping at most handles idle documents
// (GOMAXPROCS when handles <= 0).
func OpenPDF(path string, handles int) (*PDF, error) {
	if handles <= 0 {
		handles = runtime.GOMAXPROCS(0)
	}

	doc, err := fitz.New(path)
	if err != nil {
		return nil, err
	}

	bounds := make([]image.Rectangle, doc.NumPage())
	for i := range bounds {
		if bounds[i], err = doc.Bound(i); err != nil {
			doc.Close()
			return nil, err
		}
	}

	p := &PDF{path: path, bounds: bounds, idle: make(chan *fitz.Document, handles)}
	p.idle <- doc
	return p, nil
}

func (p *PDF) Len() int {
	return len(p.bounds)
}

func (p *PDF) Size(page int) (float64, float64, error) {
	if err := checkPage(page, len(p.bounds)); err != nil {
		return 0, 0, err
	}
	b := p.bounds[page]
	return float64(b.Dx()), float64(b.Dy()), nil
}

func (p *PDF) Render(page, dpi int) (image.Image, error) {
	if err := checkPage(page, len(p.bounds)); err != nil {
		return nil, err
	}
	doc, err := p.acquire()
	if err != nil {
		return nil, err
	}
	defer p.release(doc)
	return doc.ImageDPI(page, float64(dpi))
}

func (p *PDF) acquire() (*fitz.Document, error) {
	select {
	case doc := <-p.idle:
		return doc, nil
	default:
	}
	return fitz.New(p.path)
}

func (p *PDF) release(doc *fitz.Document) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		doc.Close()
		return
	}
	select {
	case p.idle <- doc:
	default:
		doc.Close()
	}
}

// Close releases the idle handles. Renders still running close their
// handle when they finish.
func (p *PDF) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true

	var first error
	for {
		select {
		case doc := <-p.idle:
			if err := doc.Close(); err != nil && first == nil {
				first = err
			}
		default:
			return first
		}
	}
}
