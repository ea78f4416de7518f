package quality

import (
	"image"
	"image/color"
	"math"
)

// gray is an 8 bit luma plane, row major.
type gray struct {
	w, h int
	pix  []uint8
}

// luma uses the BT.601 weights in 14 bit fixed point so results match the
// usual BGR to gray conversion bit for bit.
func luma(r, g, b uint32) uint8 {
	return uint8((r*4899 + g*9617 + b*1868 + 8192) >> 14)
}

func toGray(img image.Image) *gray {
	b := img.Bounds()
	g := &gray{w: b.Dx(), h: b.Dy(), pix: make([]uint8, b.Dx()*b.Dy())}

	switch src := img.(type) {
	case *image.Gray:
		for y := 0; y < g.h; y++ {
			off := src.PixOffset(b.Min.X, b.Min.Y+y)
			copy(g.pix[y*g.w:(y+1)*g.w], src.Pix[off:off+g.w])
		}
	case *image.RGBA:
		// Pix is alpha premultiplied, only opaque frames can be read directly
		if !src.Opaque() {
			g.fromModel(img)
			break
		}
		for y := 0; y < g.h; y++ {
			off := src.PixOffset(b.Min.X, b.Min.Y+y)
			row := src.Pix[off : off+4*g.w]
			for x := 0; x < g.w; x++ {
				p := row[4*x : 4*x+3]
				g.pix[y*g.w+x] = luma(uint32(p[0]), uint32(p[1]), uint32(p[2]))
			}
		}
	case *image.YCbCr:
		for y := 0; y < g.h; y++ {
			for x := 0; x < g.w; x++ {
				yi := src.YOffset(b.Min.X+x, b.Min.Y+y)
				ci := src.COffset(b.Min.X+x, b.Min.Y+y)
				r, gg, bb := color.YCbCrToRGB(src.Y[yi], src.Cb[ci], src.Cr[ci])
				g.pix[y*g.w+x] = luma(uint32(r), uint32(gg), uint32(bb))
			}
		}
	default:
		g.fromModel(img)
	}
	return g
}

// fromModel converts any image through the non-premultiplied color model.
func (g *gray) fromModel(img image.Image) {
	b := img.Bounds()
	for y := 0; y < g.h; y++ {
		for x := 0; x < g.w; x++ {
			c := color.NRGBAModel.Convert(img.At(b.Min.X+x, b.Min.Y+y)).(color.NRGBA)
			g.pix[y*g.w+x] = luma(uint32(c.R), uint32(c.G), uint32(c.B))
		}
	}
}

func (g *gray) at(x, y int) int {
	return int(g.pix[y*g.w+x])
}

// std is the population standard deviation of the plane.
func (g *gray) std() float64 {
	var sum, sq uint64
	for _, p := range g.pix {
		v := uint64(p)
		sum += v
		sq += v * v
	}
	n := float64(len(g.pix))
	mean := float64(sum) / n
	variance := float64(sq)/n - mean*mean
	if variance < 0 {
		variance = 0
	}
	return math.Sqrt(variance)
}

func (g *gray) histogram() [256]int {
	var h [256]int
	for _, p := range g.pix {
		h[p]++
	}
	return h
}

// halfMeans returns the mean intensity of columns [0, w/2) and [w/2, w).
func (g *gray) halfMeans() (left, right float64) {
	mid := g.w / 2
	var ls, rs uint64
	for y := 0; y < g.h; y++ {
		row := g.pix[y*g.w : (y+1)*g.w]
		for x, p := range row {
			if x < mid {
				ls += uint64(p)
			} else {
				rs += uint64(p)
			}
		}
	}
	if mid > 0 {
		left = float64(ls) / float64(mid*g.h)
	}
	right = float64(rs) / float64((g.w-mid)*g.h)
	return left, right
}

// laplacianVar is the variance of the 4 neighbour Laplacian
// [0 1 0; 1 -4 1; 0 1 0] with reflect-101 borders.
func (g *gray) laplacianVar() float64 {
	var sum, sq float64
	for y := 0; y < g.h; y++ {
		up, down := reflect101(y-1, g.h), reflect101(y+1, g.h)
		for x := 0; x < g.w; x++ {
			left, right := reflect101(x-1, g.w), reflect101(x+1, g.w)
			v := float64(g.at(left, y) + g.at(right, y) + g.at(x, up) + g.at(x, down) - 4*g.at(x, y))
			sum += v
			sq += v * v
		}
	}
	n := float64(len(g.pix))
	mean := sum / n
	variance := sq/n - mean*mean
	if variance < 0 {
		return 0
	}
	return variance
}

// reflect101 mirrors an out of range index without repeating the edge: -1 -> 1, n -> n-2.
func reflect101(i, n int) int {
	if n == 1 {
		return 0
	}
	if i < 0 {
		return -i
	}
	if i >= n {
		return 2*n - i - 2
	}
	return i
}
