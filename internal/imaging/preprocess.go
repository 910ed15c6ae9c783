package imaging

import (
	"fmt"
	"image"

	"github.com/nfnt/resize"
)

// Tensor is a single-item batch of pixel data in NHWC layout with
// float32 values scaled into [0, 1].
type Tensor struct {
	Data     []float32
	Height   int
	Width    int
	Channels int
}

// Shape returns the tensor dimensions as (batch, height, width, channels).
func (t Tensor) Shape() [4]int64 {
	return [4]int64{1, int64(t.Height), int64(t.Width), int64(t.Channels)}
}

// Preprocess resizes the image to exactly size x size (stretching, not
// aspect-preserving), scales each 8-bit channel by 1/255 and packs the
// result as a single-item batch. The same image and size always produce
// an identical tensor.
func Preprocess(img image.Image, size int) Tensor {
	resized := resize.Resize(uint(size), uint(size), img, resize.Lanczos3)

	data := make([]float32, size*size*3)
	i := 0
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			r, g, b, _ := resized.At(x, y).RGBA()
			data[i] = float32(r>>8) / 255.0
			data[i+1] = float32(g>>8) / 255.0
			data[i+2] = float32(b>>8) / 255.0
			i += 3
		}
	}

	return Tensor{
		Data:     data,
		Height:   size,
		Width:    size,
		Channels: 3,
	}
}

// Validate checks that the image meets the minimum dimensions required
// for a meaningful prediction. It reports rather than fails; the caller
// decides whether to proceed.
func Validate(img image.Image, minSize int) (bool, string) {
	bounds := img.Bounds()
	if bounds.Dx() < minSize || bounds.Dy() < minSize {
		return false, fmt.Sprintf("image too small: minimum size is %dx%d", minSize, minSize)
	}
	return true, "image valid"
}
