package explain

import "math"

// GetTopFeatures selects the top features of signed weights by absolute
// value and splits them into positive (descending) and negative
// (ascending) lists. Zero weights are never shown.
func GetTopFeatures(names []string, coef []float64, top int) *FeatureWeights {
	abs := make([]float64, len(coef))
	for i, v := range coef {
		abs[i] = math.Abs(v)
	}
	order := argsortLargestPositive(abs, top)

	fw := &FeatureWeights{Pos: []FeatureWeight{}, Neg: []FeatureWeight{}}
	for _, idx := range order {
		w := FeatureWeight{Feature: names[idx], Weight: coef[idx]}
		if coef[idx] > 0 {
			fw.Pos = append(fw.Pos, w)
		} else {
			fw.Neg = append(fw.Neg, w)
		}
	}

	var pos, neg int
	for _, v := range coef {
		switch {
		case v > 0:
			pos++
		case v < 0:
			neg++
		}
	}
	fw.PosRemaining = pos - len(fw.Pos)
	fw.NegRemaining = neg - len(fw.Neg)
	return fw
}
