// Package inference turns validated student features into a pass/fail
// prediction using the loaded model.
package inference

import (
	"fmt"
	"math"
	"slices"

	"go.uber.org/zap"

	"studentperf/ml"
	"studentperf/student"
)

const (
	LabelFail = 0
	LabelPass = 1

	PredictionPass = "Pass"
	PredictionFail = "Fail"
)

// decimals is the precision of every probability in a Result.
const decimals = 4

// Result is the response for one prediction.
type Result struct {
	Prediction      string  `json:"prediction"`
	Label           int     `json:"prediction_label"`
	Confidence      float64 `json:"confidence_score"`
	ProbabilityPass float64 `json:"probability_pass"`
	ProbabilityFail float64 `json:"probability_fail"`
}

// Service is what the request boundary depends on.
type Service interface {
	Predict(features student.Features) (Result, error)
	Ready() bool
}

// Predictor calls the model held by an ml.Handle. It holds no mutable
// state; concurrent calls are safe as long as the model is.
type Predictor struct {
	handle *ml.Handle
	logger *zap.Logger
}

func NewPredictor(handle *ml.Handle, logger *zap.Logger) *Predictor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Predictor{handle: handle, logger: logger}
}

func (p *Predictor) Ready() bool {
	return p.handle.Ready()
}

// Predict never calls the model while the handle is Unavailable.
func (p *Predictor) Predict(features student.Features) (Result, error) {
	if !p.handle.Ready() {
		return Result{}, &Error{Kind: KindUnavailable, Err: p.handle.Err()}
	}

	model := p.handle.Model()
	clf, ok := model.(ml.Classifier)
	if !ok {
		err := newError(KindUnsupportedModel, "model %q does not provide Predict and PredictProba", model.Kind())
		p.logger.Error("Model method error", zap.Error(err))
		return Result{}, err
	}
	if co, ok := model.(ml.ClassOrderer); ok {
		if classes := co.Classes(); !slices.Equal(classes, []int{LabelFail, LabelPass}) {
			err := newError(KindUnsupportedModel, "model class order %v, want [0 1]", classes)
			p.logger.Error("Model class order mismatch", zap.Error(err))
			return Result{}, err
		}
	}

	result, err := p.invoke(clf, features.Vector())
	if err != nil {
		p.logger.Error("Prediction error", zap.Error(err))
		return Result{}, err
	}
	p.logger.Info("Prediction successful", zap.String("prediction", result.Prediction))
	return result, nil
}

func (p *Predictor) invoke(clf ml.Classifier, vector []float64) (result Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = newError(KindInternal, "model panicked: %v", r)
		}
	}()

	label, err := clf.Predict(vector)
	if err != nil {
		return Result{}, &Error{Kind: KindInternal, Err: fmt.Errorf("predict: %w", err)}
	}
	proba, err := clf.PredictProba(vector)
	if err != nil {
		return Result{}, &Error{Kind: KindInternal, Err: fmt.Errorf("predict_proba: %w", err)}
	}
	return buildResult(label, proba)
}

// buildResult expects proba ordered [p_fail, p_pass].
func buildResult(label int, proba []float64) (Result, error) {
	if label != LabelFail && label != LabelPass {
		return Result{}, newError(KindInternal, "label %d outside {0,1}", label)
	}
	if len(proba) != 2 {
		return Result{}, newError(KindInternal, "expected 2 probabilities, got %d", len(proba))
	}
	for _, v := range proba {
		if math.IsNaN(v) || v < 0 || v > 1 {
			return Result{}, newError(KindInternal, "probability %v outside [0,1]", v)
		}
	}
	if sum := proba[0] + proba[1]; math.Abs(sum-1) > 1e-6 {
		return Result{}, newError(KindInternal, "probabilities sum to %v", sum)
	}

	fail := Round(proba[0])
	pass := Round(proba[1])
	prediction := PredictionFail
	if label == LabelPass {
		prediction = PredictionPass
	}
	return Result{
		Prediction:      prediction,
		Label:           label,
		Confidence:      math.Max(pass, fail),
		ProbabilityPass: pass,
		ProbabilityFail: fail,
	}, nil
}

// Round rounds to four decimal places, ties to even.
func Round(v float64) float64 {
	scale := math.Pow10(decimals)
	return math.RoundToEven(v*scale) / scale
}
