package source

import (
	"context"
	"fmt"
	"image"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// Preload renders every page of src concurrently, at most workers at a time
// (GOMAXPROCS when workers <= 0). Pages come back in order.
func Preload(ctx context.Context, src Source, dpi, workers int) ([]image.Image, error) {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	pages := make([]image.Image, src.Len())
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i := range pages {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			img, err := src.Render(i, dpi)
			if err != nil {
				return fmt.Errorf("page %d: %w", i+1, err)
			}
			pages[i] = img
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return pages, nil
}
