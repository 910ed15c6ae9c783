package classify

import "math"

// Format converts a raw model probability and the threshold in effect
// into a Prediction. Classification uses strict greater-than: a
// probability exactly equal to the threshold is reported as NORMAL.
func Format(probability, threshold float64, filename string) Prediction {
	class := ClassNormal
	if probability > threshold {
		class = ClassPneumonia
	}

	return Prediction{
		Filename:             filename,
		PneumoniaProbability: round(probability, 4),
		NormalProbability:    round(1-probability, 4),
		PredictedClass:       class,
		Confidence:           round(math.Max(probability, 1-probability)*100, 2),
		ThresholdUsed:        threshold,
	}
}

func round(v float64, places int) float64 {
	scale := math.Pow(10, float64(places))
	return math.Round(v*scale) / scale
}
