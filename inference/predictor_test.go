package inference

import (
	"errors"
	"math"
	"math/rand"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"studentperf/ml"
	"studentperf/student"
)

type stubClassifier struct {
	label   int
	proba   []float64
	err     error
	calls   atomic.Int32
	lastVec []float64
	mu      sync.Mutex
}

func (s *stubClassifier) Kind() string { return "stub" }

func (s *stubClassifier) Predict(features []float64) (int, error) {
	s.calls.Add(1)
	s.mu.Lock()
	s.lastVec = append([]float64(nil), features...)
	s.mu.Unlock()
	return s.label, s.err
}

func (s *stubClassifier) PredictProba(features []float64) ([]float64, error) {
	s.calls.Add(1)
	return s.proba, s.err
}

type labelOnly struct{}

func (labelOnly) Kind() string { return "label_only" }

func (labelOnly) Predict(features []float64) (int, error) { return 1, nil }

type reversedClasses struct{ stubClassifier }

func (*reversedClasses) Classes() []int { return []int{1, 0} }

type panicking struct{}

func (panicking) Kind() string { return "panicking" }

func (panicking) Predict(features []float64) (int, error) { panic("boom") }

func (panicking) PredictProba(features []float64) ([]float64, error) { return nil, nil }

func exampleFeatures(t *testing.T) student.Features {
	t.Helper()
	raw := make(map[string]any)
	for k, v := range student.Example() {
		raw[k] = v
	}
	features, err := student.NewValidator(student.ReportAll).Validate(raw)
	require.NoError(t, err)
	return features
}

func TestPredictRoundTrip(t *testing.T) {
	clf := &stubClassifier{label: 1, proba: []float64{0.2, 0.8}}
	p := NewPredictor(ml.NewHandle(clf), nil)

	got, err := p.Predict(exampleFeatures(t))
	require.NoError(t, err)

	want := Result{
		Prediction:      "Pass",
		Label:           1,
		Confidence:      0.8,
		ProbabilityPass: 0.8,
		ProbabilityFail: 0.2,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("result mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, []float64{0, 17, 3, 3, 4, 3, 2, 1, 2, 4, 4}, clf.lastVec)
}

func TestPredictLabels(t *testing.T) {
	features := exampleFeatures(t)

	pass, err := NewPredictor(ml.NewHandle(&stubClassifier{label: 1, proba: []float64{0.4, 0.6}}), nil).Predict(features)
	require.NoError(t, err)
	assert.Equal(t, PredictionPass, pass.Prediction)
	assert.Equal(t, LabelPass, pass.Label)

	fail, err := NewPredictor(ml.NewHandle(&stubClassifier{label: 0, proba: []float64{0.7, 0.3}}), nil).Predict(features)
	require.NoError(t, err)
	assert.Equal(t, PredictionFail, fail.Prediction)
	assert.Equal(t, LabelFail, fail.Label)
	assert.Equal(t, 0.7, fail.Confidence)
}

func TestPredictUnavailableNeverCallsModel(t *testing.T) {
	p := NewPredictor(ml.Unavailable("model.json", errors.New("file not found")), nil)
	features := exampleFeatures(t)
	for i := 0; i < 3; i++ {
		_, err := p.Predict(features)
		require.True(t, IsKind(err, KindUnavailable), "got %v", err)
	}
	assert.False(t, p.Ready())
}

func TestPredictUnsupportedModel(t *testing.T) {
	_, err := NewPredictor(ml.NewHandle(labelOnly{}), nil).Predict(exampleFeatures(t))
	assert.True(t, IsKind(err, KindUnsupportedModel), "got %v", err)

	rev := &reversedClasses{stubClassifier{label: 1, proba: []float64{0.2, 0.8}}}
	_, err = NewPredictor(ml.NewHandle(rev), nil).Predict(exampleFeatures(t))
	assert.True(t, IsKind(err, KindUnsupportedModel), "got %v", err)
	assert.Zero(t, rev.calls.Load())
}

func TestPredictInternalErrors(t *testing.T) {
	cases := map[string]ml.Model{
		"model error":       &stubClassifier{err: errors.New("bad input"), proba: []float64{0.5, 0.5}},
		"label 2":           &stubClassifier{label: 2, proba: []float64{0.5, 0.5}},
		"one probability":   &stubClassifier{label: 1, proba: []float64{1}},
		"negative":          &stubClassifier{label: 1, proba: []float64{-0.1, 1.1}},
		"nan":               &stubClassifier{label: 1, proba: []float64{math.NaN(), 0.5}},
		"does not sum to 1": &stubClassifier{label: 1, proba: []float64{0.3, 0.3}},
		"panic":             panicking{},
	}
	features := exampleFeatures(t)
	for name, model := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := NewPredictor(ml.NewHandle(model), nil).Predict(features)
			require.Error(t, err)
			assert.True(t, IsKind(err, KindInternal), "got %v", err)
		})
	}
}

func TestPredictWrapsModelError(t *testing.T) {
	cause := errors.New("bad input")
	_, err := NewPredictor(ml.NewHandle(&stubClassifier{err: cause}), nil).Predict(exampleFeatures(t))
	assert.ErrorIs(t, err, cause)
}

func TestProbabilityProperties(t *testing.T) {
	rnd := rand.New(rand.NewSource(7))
	for i := 0; i < 1000; i++ {
		p := rnd.Float64()
		result, err := buildResult(1, []float64{1 - p, p})
		require.NoError(t, err)
		assert.InDelta(t, 1.0, result.ProbabilityPass+result.ProbabilityFail, 0.0001+1e-9)
		assert.Equal(t, math.Max(result.ProbabilityPass, result.ProbabilityFail), result.Confidence)
	}
}

func TestRound(t *testing.T) {
	assert.Equal(t, 0.1235, Round(0.12346))
	assert.Equal(t, 0.8, Round(0.8))
	assert.Equal(t, 0.0, Round(0.00001))
	assert.Equal(t, 1.0, Round(0.99999))
}

func TestPredictConcurrent(t *testing.T) {
	defer goleak.VerifyNone(t)

	clf := &stubClassifier{label: 1, proba: []float64{0.25, 0.75}}
	p := NewPredictor(ml.NewHandle(clf), nil)
	features := exampleFeatures(t)

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			result, err := p.Predict(features)
			assert.NoError(t, err)
			assert.Equal(t, 0.75, result.Confidence)
		}()
	}
	wg.Wait()
	assert.EqualValues(t, 64, clf.calls.Load())
}
