package metrics

import (
	"gonum.org/v1/gonum/mat"
)

// AccuracyScore は正解率（一致したラベルの割合）を計算する
func AccuracyScore(yTrue, yPred mat.Vector) (float64, error) {
	n, err := checkPair("AccuracyScore", yTrue, yPred)
	if err != nil {
		return 0, err
	}

	correct := 0
	for i := 0; i < n; i++ {
		if yTrue.AtVec(i) == yPred.AtVec(i) {
			correct++
		}
	}
	return float64(correct) / float64(n), nil
}
