package imaging

import (
	"bytes"
	"encoding/base64"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
)

func pngBytes(t *testing.T, width, height int) []byte {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x % 256), G: uint8(y % 256), B: 128, A: 255})
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("failed to encode test image: %v", err)
	}
	return buf.Bytes()
}

func TestLoadFromBytes(t *testing.T) {
	img, err := Load(Bytes(pngBytes(t, 100, 80)))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	bounds := img.Bounds()
	if bounds.Dx() != 100 || bounds.Dy() != 80 {
		t.Errorf("Expected 100x80, got %dx%d", bounds.Dx(), bounds.Dy())
	}
}

func TestLoadFromCorruptBytes(t *testing.T) {
	_, err := Load(Bytes([]byte("this is not an image")))
	if err == nil {
		t.Fatal("Expected error for corrupt bytes, got nil")
	}
	if !errors.Is(err, ErrDecode) {
		t.Errorf("Expected ErrDecode, got: %v", err)
	}
}

func TestLoadFromBase64(t *testing.T) {
	encoded := base64.StdEncoding.EncodeToString(pngBytes(t, 64, 64))

	img, err := Load(Base64(encoded))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if img.Bounds().Dx() != 64 {
		t.Errorf("Expected width 64, got %d", img.Bounds().Dx())
	}
}

func TestLoadFromMalformedBase64(t *testing.T) {
	_, err := Load(Base64("!!!not base64!!!"))
	if err == nil {
		t.Fatal("Expected error for malformed base64, got nil")
	}
	if !errors.Is(err, ErrDecode) {
		t.Errorf("Expected ErrDecode, got: %v", err)
	}
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.png")
	if err := os.WriteFile(path, pngBytes(t, 60, 60), 0644); err != nil {
		t.Fatalf("failed to write test file: %v", err)
	}

	img, err := Load(File(path))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if img.Bounds().Dx() != 60 {
		t.Errorf("Expected width 60, got %d", img.Bounds().Dx())
	}
}

func TestLoadFromMissingFile(t *testing.T) {
	_, err := Load(File(filepath.Join(t.TempDir(), "missing.png")))
	if err == nil {
		t.Fatal("Expected error for missing file, got nil")
	}
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got: %v", err)
	}
}

func TestLoadFromDecoded(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 30, 40))

	img, err := Load(Decoded(src))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if img.Bounds().Dx() != 30 || img.Bounds().Dy() != 40 {
		t.Errorf("Expected 30x40, got %dx%d", img.Bounds().Dx(), img.Bounds().Dy())
	}
}

func TestLoadFromNilDecoded(t *testing.T) {
	_, err := Load(Decoded(nil))
	if err == nil {
		t.Fatal("Expected error for nil image, got nil")
	}
	if !errors.Is(err, ErrDecode) {
		t.Errorf("Expected ErrDecode, got: %v", err)
	}
}

func TestLoadNormalizesToRGB(t *testing.T) {
	gray := image.NewGray(image.Rect(0, 0, 10, 10))
	for y := 0; y < 10; y++ {
		for x := 0; x < 10; x++ {
			gray.SetGray(x, y, color.Gray{Y: 77})
		}
	}

	img, err := Load(Decoded(gray))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	rgba, ok := img.(*image.RGBA)
	if !ok {
		t.Fatalf("Expected *image.RGBA, got %T", img)
	}

	r, g, b, _ := rgba.At(5, 5).RGBA()
	if r != g || g != b {
		t.Errorf("Expected equal channels for grayscale input, got r=%d g=%d b=%d", r, g, b)
	}
	if uint8(r>>8) != 77 {
		t.Errorf("Expected channel value 77, got %d", r>>8)
	}
}
