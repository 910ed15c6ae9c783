// Package imaging decodes image sources and prepares them for model input.
package imaging

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/draw"
	"os"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
)

var (
	// ErrDecode indicates the payload is not a valid image encoding
	// (or a malformed base64 string).
	ErrDecode = errors.New("image decode failed")

	// ErrNotFound indicates a file path input that does not exist.
	ErrNotFound = errors.New("image file not found")
)

// Source is one of the accepted image input variants. Each variant knows
// how to produce a decoded image; the variant is resolved once at the
// boundary instead of by runtime type inspection.
type Source interface {
	load() (image.Image, error)
}

type bytesSource struct {
	data []byte
}

type base64Source struct {
	encoded string
}

type fileSource struct {
	path string
}

type decodedSource struct {
	img image.Image
}

// Bytes wraps raw encoded image bytes as a Source.
func Bytes(data []byte) Source {
	return bytesSource{data: data}
}

// Base64 wraps a base64-encoded image payload as a Source.
func Base64(encoded string) Source {
	return base64Source{encoded: encoded}
}

// File wraps a filesystem path as a Source.
func File(path string) Source {
	return fileSource{path: path}
}

// Decoded wraps an already-decoded image as a Source.
func Decoded(img image.Image) Source {
	return decodedSource{img: img}
}

func (s bytesSource) load() (image.Image, error) {
	img, _, err := image.Decode(bytes.NewReader(s.data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	return img, nil
}

func (s base64Source) load() (image.Image, error) {
	data, err := base64.StdEncoding.DecodeString(s.encoded)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid base64 payload: %v", ErrDecode, err)
	}
	return bytesSource{data: data}.load()
}

func (s fileSource) load() (image.Image, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, s.path)
		}
		return nil, fmt.Errorf("failed to read %s: %w", s.path, err)
	}
	return bytesSource{data: data}.load()
}

func (s decodedSource) load() (image.Image, error) {
	if s.img == nil {
		return nil, fmt.Errorf("%w: nil image", ErrDecode)
	}
	return s.img, nil
}

// Load decodes the source and normalizes the result to 3-channel RGB.
// Grayscale, palette and alpha inputs are all flattened onto an opaque
// RGBA bitmap so downstream code sees a single color mode.
func Load(src Source) (image.Image, error) {
	img, err := src.load()
	if err != nil {
		return nil, err
	}
	return toRGB(img), nil
}

func toRGB(img image.Image) *image.RGBA {
	if rgba, ok := img.(*image.RGBA); ok {
		return rgba
	}
	bounds := img.Bounds()
	rgba := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(rgba, rgba.Bounds(), img, bounds.Min, draw.Src)
	return rgba
}
