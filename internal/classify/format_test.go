package classify

import (
	"math"
	"testing"
)

func floatEq(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestFormatPneumonia(t *testing.T) {
	pred := Format(0.82, 0.5, "x.jpg")

	if pred.Filename != "x.jpg" {
		t.Errorf("Expected filename x.jpg, got %s", pred.Filename)
	}
	if !floatEq(pred.PneumoniaProbability, 0.82) {
		t.Errorf("Expected pneumonia_probability 0.82, got %v", pred.PneumoniaProbability)
	}
	if !floatEq(pred.NormalProbability, 0.18) {
		t.Errorf("Expected normal_probability 0.18, got %v", pred.NormalProbability)
	}
	if pred.PredictedClass != ClassPneumonia {
		t.Errorf("Expected PNEUMONIA, got %s", pred.PredictedClass)
	}
	if !floatEq(pred.Confidence, 82.0) {
		t.Errorf("Expected confidence 82.0, got %v", pred.Confidence)
	}
	if !floatEq(pred.ThresholdUsed, 0.5) {
		t.Errorf("Expected threshold_used 0.5, got %v", pred.ThresholdUsed)
	}
}

func TestFormatNormal(t *testing.T) {
	pred := Format(0.3, 0.5, "y.jpg")

	if !floatEq(pred.PneumoniaProbability, 0.3) {
		t.Errorf("Expected pneumonia_probability 0.3, got %v", pred.PneumoniaProbability)
	}
	if !floatEq(pred.NormalProbability, 0.7) {
		t.Errorf("Expected normal_probability 0.7, got %v", pred.NormalProbability)
	}
	if pred.PredictedClass != ClassNormal {
		t.Errorf("Expected NORMAL, got %s", pred.PredictedClass)
	}
	if !floatEq(pred.Confidence, 70.0) {
		t.Errorf("Expected confidence 70.0, got %v", pred.Confidence)
	}
}

func TestFormatTieClassifiesAsNormal(t *testing.T) {
	// Strict greater-than: equality to the threshold is NORMAL.
	pred := Format(0.5, 0.5, "tie.jpg")
	if pred.PredictedClass != ClassNormal {
		t.Errorf("Expected NORMAL for probability == threshold, got %s", pred.PredictedClass)
	}

	pred = Format(0.500001, 0.5, "above.jpg")
	if pred.PredictedClass != ClassPneumonia {
		t.Errorf("Expected PNEUMONIA for probability just above threshold, got %s", pred.PredictedClass)
	}
}

func TestFormatThresholdDecision(t *testing.T) {
	tests := []struct {
		probability float64
		threshold   float64
		expected    string
	}{
		{0.0, 0.5, ClassNormal},
		{0.49, 0.5, ClassNormal},
		{0.5, 0.5, ClassNormal},
		{0.51, 0.5, ClassPneumonia},
		{1.0, 0.5, ClassPneumonia},
		{0.3, 0.2, ClassPneumonia},
		{0.3, 0.3, ClassNormal},
		{0.9, 0.95, ClassNormal},
	}

	for _, tt := range tests {
		pred := Format(tt.probability, tt.threshold, "x.png")
		if pred.PredictedClass != tt.expected {
			t.Errorf("Format(%v, %v): expected %s, got %s",
				tt.probability, tt.threshold, tt.expected, pred.PredictedClass)
		}
	}
}

func TestFormatProbabilitiesSumToOne(t *testing.T) {
	for _, p := range []float64{0.0, 0.1234, 0.33333, 0.5, 0.66667, 0.98765, 1.0} {
		pred := Format(p, 0.5, "x.png")
		sum := pred.PneumoniaProbability + pred.NormalProbability
		if math.Abs(sum-1.0) > 1e-4 {
			t.Errorf("Format(%v): probabilities sum to %v, expected 1.0 within 1e-4", p, sum)
		}
	}
}

func TestFormatRounding(t *testing.T) {
	pred := Format(0.123456, 0.5, "x.png")
	if !floatEq(pred.PneumoniaProbability, 0.1235) {
		t.Errorf("Expected 0.1235 after rounding, got %v", pred.PneumoniaProbability)
	}
	if !floatEq(pred.NormalProbability, 0.8765) {
		t.Errorf("Expected 0.8765 after rounding, got %v", pred.NormalProbability)
	}
	if !floatEq(pred.Confidence, 87.65) {
		t.Errorf("Expected confidence 87.65, got %v", pred.Confidence)
	}
}
