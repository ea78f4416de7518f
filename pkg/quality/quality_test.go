package quality

import (
	"errors"
	"image"
	"image/color"
	"testing"

	"github.com/1F47E/go-timereel/pkg/frame"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func grayImage(w, h int, fn func(x, y int) uint8) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetGray(x, y, color.Gray{Y: fn(x, y)})
		}
	}
	return img
}

func gradient(x, y int) uint8 { return uint8(40 + (x+y)%150) }

func checker(x, y int) uint8 {
	if (x+y)%2 == 0 {
		return 0
	}
	return 255
}

func TestClassify(t *testing.T) {
	testCases := []struct {
		name   string
		frame  frame.Frame
		reason Reason
		detail string
	}{
		{
			name:   "unreadable",
			frame:  frame.Unreadable(errors.New("truncated jpeg")),
			reason: ReasonUnreadable,
			detail: "unreadable",
		},
		{
			name:   "too small",
			frame:  frame.Decoded(grayImage(80, 120, gradient)),
			reason: ReasonTooSmall,
			detail: "too_small(80x120)",
		},
		{
			name:   "flat gray",
			frame:  frame.Decoded(grayImage(160, 120, func(x, y int) uint8 { return 128 })),
			reason: ReasonLowStd,
			detail: "low_std(0.00)",
		},
		{
			name: "mostly black",
			frame: frame.Decoded(grayImage(200, 200, func(x, y int) uint8 {
				if y < 140 {
					return 0
				}
				return checker(x, y)
			})),
			reason: ReasonMostlyBlack,
			detail: "mostly_black(0.85)",
		},
		{
			name: "mostly white with speckle",
			frame: frame.Decoded(grayImage(200, 200, func(x, y int) uint8 {
				if y%10 < 7 {
					return 255
				}
				return 60
			})),
			reason: ReasonMostlyWhite,
			detail: "mostly_white(0.70)",
		},
		{
			name: "dominant bin",
			frame: frame.Decoded(grayImage(200, 200, func(x, y int) uint8 {
				if y < 120 {
					return 128
				}
				return uint8(30 + x%190)
			})),
			reason: ReasonDominantBin,
		},
		{
			name: "left half blank",
			frame: frame.Decoded(grayImage(200, 200, func(x, y int) uint8 {
				if x < 100 {
					return 5
				}
				return uint8(100 + (x+y)%100)
			})),
			reason: ReasonHalfBlank,
		},
		{
			name: "left half white",
			frame: frame.Decoded(grayImage(200, 200, func(x, y int) uint8 {
				if x < 100 {
					return 250
				}
				return uint8(40 + (x+y)%100)
			})),
			reason: ReasonHalfWhite,
		},
		{
			name:   "pixel noise",
			frame:  frame.Decoded(grayImage(200, 200, checker)),
			reason: ReasonExcessiveLap,
			detail: "excessive_lap(1040400)",
		},
		{
			name:   "good frame",
			frame:  frame.Decoded(grayImage(160, 120, gradient)),
			reason: ReasonOK,
			detail: "ok",
		},
	}

	c := NewClassifier(DefaultThresholds())
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			v := c.Classify(tc.frame)
			assert.Equal(t, tc.reason, v.Reason)
			assert.Equal(t, tc.reason == ReasonOK, v.Accepted)
			if tc.detail != "" {
				assert.Equal(t, tc.detail, v.Detail)
			}
		})
	}
}

func TestClassify_BlackBeforeLaplacian(t *testing.T) {
	img := grayImage(200, 200, func(x, y int) uint8 {
		if y < 140 {
			return 0
		}
		return checker(x, y)
	})
	th := DefaultThresholds()
	th.MaxLaplacianVar = 1e5

	g := toGray(img)
	require.Greater(t, g.laplacianVar(), th.MaxLaplacianVar, "fixture must also trip the laplacian check")

	v := NewClassifier(th).Classify(frame.Decoded(img))
	assert.Equal(t, ReasonMostlyBlack, v.Reason)
}

func TestClassify_Deterministic(t *testing.T) {
	c := NewClassifier(DefaultThresholds())
	imgs := []image.Image{
		grayImage(160, 120, gradient),
		grayImage(200, 200, checker),
		grayImage(160, 120, func(x, y int) uint8 { return 7 }),
	}
	for _, img := range imgs {
		first := c.Classify(frame.Decoded(img))
		for i := 0; i < 3; i++ {
			assert.Equal(t, first, c.Classify(frame.Decoded(img)))
		}
	}
}

func TestClassify_ColorModelsAgree(t *testing.T) {
	src := grayImage(160, 120, gradient)
	b := src.Bounds()

	rgba := image.NewRGBA(b)
	nrgba := image.NewNRGBA(b)
	ycc := image.NewYCbCr(b, image.YCbCrSubsampleRatio444)
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			v := src.GrayAt(x, y).Y
			rgba.SetRGBA(x, y, color.RGBA{v, v, v, 255})
			nrgba.SetNRGBA(x, y, color.NRGBA{v, v, v, 255})
			ycc.Y[ycc.YOffset(x, y)] = v
			ycc.Cb[ycc.COffset(x, y)] = 128
			ycc.Cr[ycc.COffset(x, y)] = 128
		}
	}

	want := toGray(src).pix
	assert.Equal(t, want, toGray(rgba).pix, "rgba")
	assert.Equal(t, want, toGray(nrgba).pix, "nrgba")
	assert.Equal(t, want, toGray(ycc).pix, "ycbcr")
}

func TestToGray_TranslucentRGBA(t *testing.T) {
	src := grayImage(160, 120, gradient)
	b := src.Bounds()

	rgba := image.NewRGBA(b)
	nrgba := image.NewNRGBA(b)
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			c := color.NRGBA{R: src.GrayAt(x, y).Y, G: src.GrayAt(x, y).Y, B: src.GrayAt(x, y).Y, A: 128}
			rgba.Set(x, y, c)
			nrgba.SetNRGBA(x, y, c)
		}
	}
	require.False(t, rgba.Opaque())

	got, want := toGray(rgba).pix, toGray(nrgba).pix
	for i := range want {
		assert.InDelta(t, int(want[i]), int(got[i]), 2, "pixel %d", i)
	}
}

func TestGrayStats(t *testing.T) {
	g := toGray(grayImage(4, 2, func(x, y int) uint8 {
		if x < 2 {
			return 10
		}
		return 30
	}))
	assert.InDelta(t, 10.0, g.std(), 1e-9)

	left, right := g.halfMeans()
	assert.InDelta(t, 10.0, left, 1e-9)
	assert.InDelta(t, 30.0, right, 1e-9)

	h := g.histogram()
	assert.Equal(t, 4, h[10])
	assert.Equal(t, 4, h[30])
}

func TestReflect101(t *testing.T) {
	assert.Equal(t, 1, reflect101(-1, 5))
	assert.Equal(t, 3, reflect101(5, 5))
	assert.Equal(t, 2, reflect101(2, 5))
	assert.Equal(t, 0, reflect101(-1, 1))
}

func TestThresholdsValidate(t *testing.T) {
	require.NoError(t, DefaultThresholds().Validate())

	th := DefaultThresholds()
	th.BlackLevel = 250
	assert.Error(t, th.Validate())

	th = DefaultThresholds()
	th.WhiteRatio = 1.5
	assert.Error(t, th.Validate())

	th = DefaultThresholds()
	th.MinDim = 0
	assert.Error(t, th.Validate())
}
