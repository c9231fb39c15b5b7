package inference

import (
	"go.uber.org/zap"

	"studentperf/student"
)

// Recorder persists successful predictions.
type Recorder interface {
	Record(features student.Features, result Result) error
}

// RecordingPredictor hands every successful result to a Recorder.
// Recorder failures are logged and never change the response.
type RecordingPredictor struct {
	next     Service
	recorder Recorder
	logger   *zap.Logger
}

func NewRecordingPredictor(next Service, recorder Recorder, logger *zap.Logger) *RecordingPredictor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RecordingPredictor{next: next, recorder: recorder, logger: logger}
}

func (r *RecordingPredictor) Ready() bool { return r.next.Ready() }

func (r *RecordingPredictor) Predict(features student.Features) (Result, error) {
	result, err := r.next.Predict(features)
	if err != nil {
		return Result{}, err
	}
	if rerr := r.recorder.Record(features, result); rerr != nil {
		r.logger.Warn("Failed to record prediction", zap.Error(rerr))
	}
	return result, nil
}
