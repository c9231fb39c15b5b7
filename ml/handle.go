package ml

import (
	"fmt"
	"time"

	"go.uber.org/zap"
)

// FeatureCounter is implemented by models with a fixed input width.
type FeatureCounter interface {
	NumFeatures() int
}

// Handle is the process-wide model state, fixed at startup. A handle is
// either Ready (holds a model) or Unavailable (holds the load error). It
// never changes state after construction.
type Handle struct {
	model    Model
	path     string
	err      error
	loadedAt time.Time
}

// NewHandle wraps an already constructed model. A nil model yields an
// Unavailable handle.
func NewHandle(model Model) *Handle {
	if model == nil {
		return &Handle{err: fmt.Errorf("no model provided")}
	}
	return &Handle{model: model, loadedAt: time.Now()}
}

// Unavailable returns a handle recording why no model could be loaded.
func Unavailable(path string, err error) *Handle {
	return &Handle{path: path, err: err}
}

// Open loads the artifact at path. Failures are logged and produce an
// Unavailable handle instead of an error, so a missing or corrupt
// artifact never stops the process. numFeatures, when positive, is
// checked against models that report their input width.
func Open(path string, numFeatures int, logger *zap.Logger) *Handle {
	if logger == nil {
		logger = zap.NewNop()
	}
	model, err := LoadModel(path)
	if err == nil && numFeatures > 0 {
		if fc, ok := model.(FeatureCounter); ok && fc.NumFeatures() != numFeatures {
			err = fmt.Errorf("model expects %d features, service provides %d", fc.NumFeatures(), numFeatures)
		}
	}
	if err != nil {
		logger.Error("Failed to load model", zap.String("path", path), zap.Error(err))
		return Unavailable(path, err)
	}
	logger.Info("Model loaded successfully", zap.String("path", path), zap.String("type", model.Kind()))
	return &Handle{model: model, path: path, loadedAt: time.Now()}
}

// Ready reports whether a model is present.
func (h *Handle) Ready() bool {
	return h != nil && h.model != nil
}

// Model returns the loaded model, or nil when Unavailable.
func (h *Handle) Model() Model {
	if h == nil {
		return nil
	}
	return h.model
}

// Err returns the load failure of an Unavailable handle.
func (h *Handle) Err() error {
	if h == nil {
		return fmt.Errorf("no model handle")
	}
	return h.err
}

func (h *Handle) Path() string {
	if h == nil {
		return ""
	}
	return h.path
}

func (h *Handle) LoadedAt() time.Time {
	if h == nil {
		return time.Time{}
	}
	return h.loadedAt
}
