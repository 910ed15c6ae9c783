package imaging

import (
	"image"
	"image/color"
	"reflect"
	"testing"
)

func TestPreprocessShape(t *testing.T) {
	img, err := Load(Bytes(pngBytes(t, 100, 80)))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	tensor := Preprocess(img, 224)

	expected := [4]int64{1, 224, 224, 3}
	if tensor.Shape() != expected {
		t.Errorf("Expected shape %v, got %v", expected, tensor.Shape())
	}
	if len(tensor.Data) != 224*224*3 {
		t.Errorf("Expected %d values, got %d", 224*224*3, len(tensor.Data))
	}
}

func TestPreprocessValuesInUnitRange(t *testing.T) {
	img, err := Load(Bytes(pngBytes(t, 128, 128)))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	tensor := Preprocess(img, 224)

	for i, v := range tensor.Data {
		if v < 0.0 || v > 1.0 {
			t.Fatalf("Value %f at index %d outside [0, 1]", v, i)
		}
	}
}

func TestPreprocessExtremes(t *testing.T) {
	white := image.NewRGBA(image.Rect(0, 0, 64, 64))
	black := image.NewRGBA(image.Rect(0, 0, 64, 64))
	for y := 0; y < 64; y++ {
		for x := 0; x < 64; x++ {
			white.Set(x, y, color.RGBA{255, 255, 255, 255})
			black.Set(x, y, color.RGBA{0, 0, 0, 255})
		}
	}

	for _, v := range Preprocess(white, 32).Data {
		if v != 1.0 {
			t.Fatalf("Expected 1.0 for white image, got %f", v)
		}
	}
	for _, v := range Preprocess(black, 32).Data {
		if v != 0.0 {
			t.Fatalf("Expected 0.0 for black image, got %f", v)
		}
	}
}

func TestPreprocessDeterministic(t *testing.T) {
	img, err := Load(Bytes(pngBytes(t, 300, 200)))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	first := Preprocess(img, 224)
	second := Preprocess(img, 224)

	if !reflect.DeepEqual(first, second) {
		t.Error("Expected identical tensors for repeated preprocessing of the same image")
	}
}

func TestPreprocessStretchesToExactTarget(t *testing.T) {
	// Target size is fixed, not aspect-preserving.
	img, err := Load(Bytes(pngBytes(t, 400, 100)))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	tensor := Preprocess(img, 224)
	if tensor.Height != 224 || tensor.Width != 224 {
		t.Errorf("Expected 224x224, got %dx%d", tensor.Height, tensor.Width)
	}
}

func TestValidateBoundary(t *testing.T) {
	tests := []struct {
		name   string
		width  int
		height int
		min    int
		valid  bool
	}{
		{"below minimum", 49, 49, 50, false},
		{"at minimum", 50, 50, 50, true},
		{"wide but short", 100, 49, 50, false},
		{"narrow but tall", 49, 100, 50, false},
		{"well above minimum", 224, 224, 50, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			img := image.NewRGBA(image.Rect(0, 0, tt.width, tt.height))
			ok, msg := Validate(img, tt.min)
			if ok != tt.valid {
				t.Errorf("Validate(%dx%d, min=%d) = %v (%s), expected %v",
					tt.width, tt.height, tt.min, ok, msg, tt.valid)
			}
			if !tt.valid && msg == "" {
				t.Error("Expected a descriptive message for invalid image")
			}
		})
	}
}
