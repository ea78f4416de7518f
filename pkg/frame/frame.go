// Decoding and resizing of captured stills
package frame

import (
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"

	"golang.org/x/image/draw"

	// registered for the extensions the gatherer accepts
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

var ErrEmptyImage = errors.New("image has no pixels")

// Frame is either a decoded image or the reason it could not be decoded.
// Decode failure is a value, the classifier consumes both variants.
type Frame struct {
	img image.Image
	err error
}

func Decoded(img image.Image) Frame {
	if img == nil {
		return Unreadable(ErrEmptyImage)
	}
	return Frame{img: img}
}

func Unreadable(err error) Frame {
	if err == nil {
		err = ErrEmptyImage
	}
	return Frame{err: err}
}

func (f Frame) OK() bool { return f.img != nil }

func (f Frame) Image() image.Image { return f.img }

func (f Frame) Err() error { return f.err }

func (f Frame) Size() (int, int) {
	if f.img == nil {
		return 0, 0
	}
	b := f.img.Bounds()
	return b.Dx(), b.Dy()
}

// Loader resolves an opaque record reference to a frame.
type Loader interface {
	Load(ref string) Frame
}

// FileLoader treats references as filesystem paths.
type FileLoader struct{}

func (FileLoader) Load(ref string) Frame {
	f, err := os.Open(ref)
	if err != nil {
		return Unreadable(err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return Unreadable(fmt.Errorf("decode %s: %w", ref, err))
	}
	b := img.Bounds()
	if b.Dx() <= 0 || b.Dy() <= 0 {
		return Unreadable(ErrEmptyImage)
	}
	return Decoded(img)
}

// MemLoader serves frames from memory, references missing from the map
// are unreadable.
type MemLoader map[string]image.Image

func (m MemLoader) Load(ref string) Frame {
	img, ok := m[ref]
	if !ok {
		return Unreadable(fmt.Errorf("%s: %w", ref, os.ErrNotExist))
	}
	return Decoded(img)
}

// Stretch scales img to exactly w x h without preserving the aspect ratio.
// An image already at that size is returned as is.
func Stretch(img image.Image, w, h int) image.Image {
	b := img.Bounds()
	if b.Dx() == w && b.Dy() == h {
		return img
	}
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.BiLinear.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	return dst
}
