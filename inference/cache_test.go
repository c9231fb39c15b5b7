package inference

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"studentperf/ml"
	"studentperf/student"
)

func TestCachedPredictorHits(t *testing.T) {
	clf := &stubClassifier{label: 1, proba: []float64{0.2, 0.8}}
	cached, err := NewCachedPredictor(NewPredictor(ml.NewHandle(clf), nil), 8)
	require.NoError(t, err)

	features := exampleFeatures(t)
	first, err := cached.Predict(features)
	require.NoError(t, err)
	second, err := cached.Predict(features)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.EqualValues(t, 2, clf.calls.Load(), "second call should be served from cache")
	assert.Equal(t, 1, cached.Len())
}

func TestCachedPredictorSkipsErrors(t *testing.T) {
	clf := &stubClassifier{err: errors.New("bad"), proba: []float64{0.5, 0.5}}
	cached, err := NewCachedPredictor(NewPredictor(ml.NewHandle(clf), nil), 8)
	require.NoError(t, err)

	_, err = cached.Predict(exampleFeatures(t))
	assert.True(t, IsKind(err, KindInternal))
	assert.Equal(t, 0, cached.Len())
}

func TestCachedPredictorUnavailable(t *testing.T) {
	cached, err := NewCachedPredictor(NewPredictor(ml.Unavailable("", errors.New("missing")), nil), 8)
	require.NoError(t, err)
	assert.False(t, cached.Ready())

	_, err = cached.Predict(exampleFeatures(t))
	assert.True(t, IsKind(err, KindUnavailable))
}

func TestCachedPredictorInvalidSize(t *testing.T) {
	_, err := NewCachedPredictor(NewPredictor(ml.NewHandle(&stubClassifier{}), nil), 0)
	assert.Error(t, err)
}

type fakeRecorder struct {
	records []Result
	err     error
}

func (f *fakeRecorder) Record(features student.Features, result Result) error {
	f.records = append(f.records, result)
	return f.err
}

func TestRecordingPredictor(t *testing.T) {
	clf := &stubClassifier{label: 0, proba: []float64{0.9, 0.1}}
	rec := &fakeRecorder{err: errors.New("disk full")}
	p := NewRecordingPredictor(NewPredictor(ml.NewHandle(clf), nil), rec, nil)

	result, err := p.Predict(exampleFeatures(t))
	require.NoError(t, err, "recorder failures must not reach the caller")
	assert.Equal(t, PredictionFail, result.Prediction)
	require.Len(t, rec.records, 1)

	unavailable := NewRecordingPredictor(NewPredictor(ml.Unavailable("", errors.New("missing")), nil), rec, nil)
	_, err = unavailable.Predict(exampleFeatures(t))
	assert.Error(t, err)
	assert.Len(t, rec.records, 1)
}
