package ml

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
)

var ErrUnsupportedType = errors.New("unsupported model type")

type artifactHeader struct {
	Type string `json:"type"`
}

// LoadModel reads a JSON model artifact. The "type" field selects the
// model implementation.
func LoadModel(path string) (Model, error) {
	payload, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return DecodeModel(payload)
}

// DecodeModel parses an artifact already in memory.
func DecodeModel(payload []byte) (Model, error) {
	var header artifactHeader
	if err := json.Unmarshal(payload, &header); err != nil {
		return nil, fmt.Errorf("decode artifact: %w", err)
	}
	switch header.Type {
	case KindLogisticRegression:
		model := &LogisticRegression{}
		if err := json.Unmarshal(payload, model); err != nil {
			return nil, fmt.Errorf("decode %s: %w", header.Type, err)
		}
		if err := model.validate(); err != nil {
			return nil, err
		}
		return model, nil
	case KindDecisionTree:
		model := &DecisionTree{}
		if err := json.Unmarshal(payload, model); err != nil {
			return nil, fmt.Errorf("decode %s: %w", header.Type, err)
		}
		if err := model.validate(); err != nil {
			return nil, err
		}
		return model, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedType, header.Type)
	}
}
