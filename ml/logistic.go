package ml

import (
	"errors"
	"fmt"
	"math"
)

const KindLogisticRegression = "logistic_regression"

// LogisticRegression is a binary logistic model. It is read-only after
// load and safe for concurrent use.
type LogisticRegression struct {
	Intercept    float64   `json:"intercept"`
	Coefficients []float64 `json:"coefficients"`
	ClassLabels  []int     `json:"classes"`
}

func (lr *LogisticRegression) Kind() string { return KindLogisticRegression }

func (lr *LogisticRegression) Classes() []int {
	return append([]int(nil), lr.ClassLabels...)
}

func (lr *LogisticRegression) validate() error {
	if len(lr.Coefficients) == 0 {
		return errors.New("logistic regression has no coefficients")
	}
	if len(lr.ClassLabels) == 0 {
		lr.ClassLabels = []int{0, 1}
	}
	if len(lr.ClassLabels) != 2 {
		return fmt.Errorf("logistic regression needs 2 classes, got %d", len(lr.ClassLabels))
	}
	for i, c := range lr.Coefficients {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return fmt.Errorf("coefficient %d is not finite", i)
		}
	}
	return nil
}

func (lr *LogisticRegression) decision(features []float64) (float64, error) {
	if len(features) != len(lr.Coefficients) {
		return 0, fmt.Errorf("expected %d features, got %d", len(lr.Coefficients), len(features))
	}
	z := lr.Intercept
	for i, x := range features {
		z += lr.Coefficients[i] * x
	}
	return z, nil
}

// Predict returns ClassLabels[1] when the decision value is positive.
func (lr *LogisticRegression) Predict(features []float64) (int, error) {
	z, err := lr.decision(features)
	if err != nil {
		return 0, err
	}
	if z > 0 {
		return lr.ClassLabels[1], nil
	}
	return lr.ClassLabels[0], nil
}

// PredictProba returns probabilities indexed like ClassLabels.
func (lr *LogisticRegression) PredictProba(features []float64) ([]float64, error) {
	z, err := lr.decision(features)
	if err != nil {
		return nil, err
	}
	p := sigmoid(z)
	return []float64{1 - p, p}, nil
}

func sigmoid(z float64) float64 {
	if z >= 0 {
		return 1 / (1 + math.Exp(-z))
	}
	e := math.Exp(z)
	return e / (1 + e)
}

// NumFeatures is the vector length the model was trained on.
func (lr *LogisticRegression) NumFeatures() int { return len(lr.Coefficients) }
