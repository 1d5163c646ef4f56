package director

import (
	"image"
	"math"

	"golang.org/x/image/draw"
)

// Detector finds high-contrast regions (text blocks, figures) on a page
// with a Sobel edge pass, dilation and connected components.
type Detector struct {
	MinArea       int     // minimum region area in page pixels
	EdgeThreshold float64 // gradient magnitude counted as an edge
	DilateRadius  int
	DilatePasses  int
	// MaxSide bounds the working resolution; larger pages are downscaled.
	MaxSide int
}

func NewDetector() *Detector {
	return &Detector{
		MinArea:       500,
		EdgeThreshold: 30.0,
		DilateRadius:  2,
		DilatePasses:  2,
		MaxSide:       640,
	}
}

// Detect returns the bounding rectangles of the regions found in img, in
// img's coordinates.
func (d *Detector) Detect(img image.Image) []image.Rectangle {
	b := img.Bounds()
	if b.Empty() {
		return nil
	}

	scale := 1.0
	if side := max(b.Dx(), b.Dy()); d.MaxSide > 0 && side > d.MaxSide {
		scale = float64(d.MaxSide) / float64(side)
	}
	w := max(1, int(math.Round(float64(b.Dx())*scale)))
	h := max(1, int(math.Round(float64(b.Dy())*scale)))

	gray := image.NewGray(image.Rect(0, 0, w, h))
	if scale == 1 {
		draw.Draw(gray, gray.Rect, img, b.Min, draw.Src)
	} else {
		draw.ApproxBiLinear.Scale(gray, gray.Rect, img, b, draw.Src, nil)
	}

	mask := sobel(gray.Pix, w, h, d.EdgeThreshold)
	for i := 0; i < d.DilatePasses; i++ {
		mask = dilate(mask, w, h, d.DilateRadius)
	}

	var regions []image.Rectangle
	for _, r := range components(mask, w, h) {
		pr := image.Rect(
			int(float64(r.Min.X)/scale), int(float64(r.Min.Y)/scale),
			int(math.Ceil(float64(r.Max.X)/scale)), int(math.Ceil(float64(r.Max.Y)/scale)),
		).Add(b.Min).Intersect(b)
		if pr.Dx()*pr.Dy() >= d.MinArea {
			regions = append(regions, pr)
		}
	}
	return regions
}

var (
	sobelX = [9]float64{-1, 0, 1, -2, 0, 2, -1, 0, 1}
	sobelY = [9]float64{-1, -2, -1, 0, 0, 0, 1, 2, 1}
)

func sobel(pix []uint8, w, h int, threshold float64) []bool {
	edges := make([]bool, w*h)
	for y := 1; y < h-1; y++ {
		for x := 1; x < w-1; x++ {
			var gx, gy float64
			k := 0
			for ky := -1; ky <= 1; ky++ {
				row := (y + ky) * w
				for kx := -1; kx <= 1; kx++ {
					p := float64(pix[row+x+kx])
					gx += p * sobelX[k]
					gy += p * sobelY[k]
					k++
				}
			}
			edges[y*w+x] = math.Hypot(gx, gy) > threshold
		}
	}
	return edges
}

// dilate grows every set cell into a (2r+1)^2 box.
func dilate(mask []bool, w, h, r int) []bool {
	// Separable: horizontal then vertical.
	tmp := make([]bool, len(mask))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if !mask[y*w+x] {
				continue
			}
			for dx := max(0, x-r); dx <= min(w-1, x+r); dx++ {
				tmp[y*w+dx] = true
			}
		}
	}
	out := make([]bool, len(mask))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if !tmp[y*w+x] {
				continue
			}
			for dy := max(0, y-r); dy <= min(h-1, y+r); dy++ {
				out[dy*w+x] = true
			}
		}
	}
	return out
}

// components returns the bounding box of every 4-connected set region.
func components(mask []bool, w, h int) []image.Rectangle {
	visited := make([]bool, len(mask))
	var rects []image.Rectangle
	var stack []int

	for start := range mask {
		if !mask[start] || visited[start] {
			continue
		}
		r := image.Rect(start%w, start/w, start%w+1, start/w+1)
		visited[start] = true
		stack = append(stack[:0], start)

		for len(stack) > 0 {
			i := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			x, y := i%w, i/w
			r = r.Union(image.Rect(x, y, x+1, y+1))

			for _, n := range [4]int{i - 1, i + 1, i - w, i + w} {
				if n < 0 || n >= len(mask) || visited[n] || !mask[n] {
					continue
				}
				// No wrapping across rows.
				if (n == i-1 || n == i+1) && n/w != y {
					continue
				}
				visited[n] = true
				stack = append(stack, n)
			}
		}
		rects = append(rects, r)
	}
	return rects
}
