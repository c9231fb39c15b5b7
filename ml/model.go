package ml

// Model is anything the loader can produce from an artifact.
type Model interface {
	Kind() string
}

// Labeler returns a discrete class label for a feature vector.
type Labeler interface {
	Predict(features []float64) (int, error)
}

// Classifier is the capability the inference adapter needs: a label and
// a two-class distribution ordered [p_fail, p_pass].
type Classifier interface {
	Labeler
	PredictProba(features []float64) ([]float64, error)
}

// ClassOrderer is implemented by models that know the class label stored
// at each probability index.
type ClassOrderer interface {
	Classes() []int
}
