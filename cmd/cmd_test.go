package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"studentperf/config"
	"studentperf/db"
	"studentperf/inference"
	"studentperf/ml"
	"studentperf/student"
)

const example = `{"sex":0,"age":17,"Medu":3,"Fedu":3,"famrel":4,"freetime":3,"goout":2,"Dalc":1,"Walc":2,"health":4,"absences":4}`

// All-zero coefficients give p_pass = sigmoid(intercept).
const artifact = `{"type":"logistic_regression","classes":[0,1],"intercept":1.3862943611198906,
"coefficients":[0,0,0,0,0,0,0,0,0,0,0]}`

func writeModel(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "logistic_model.json")
	require.NoError(t, os.WriteFile(path, []byte(artifact), 0o600))
	return path
}

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out bytes.Buffer
	root.SetIn(strings.NewReader(stdin))
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestPredictCommand(t *testing.T) {
	out, err := run(t, example, "predict", "--model", writeModel(t))
	require.NoError(t, err)

	var result inference.Result
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.Equal(t, "Pass", result.Prediction)
	assert.Equal(t, 0.8, result.ProbabilityPass)
	assert.Equal(t, 0.2, result.ProbabilityFail)
	assert.Equal(t, 0.8, result.Confidence)
}

func TestPredictCommandErrors(t *testing.T) {
	_, err := run(t, strings.Replace(example, `"age":17`, `"age":23`, 1), "predict", "--model", writeModel(t))
	var verr *student.ValidationError
	require.ErrorAs(t, err, &verr)

	_, err = run(t, example, "predict", "--model", filepath.Join(t.TempDir(), "absent.json"))
	assert.True(t, inference.IsKind(err, inference.KindUnavailable), "got %v", err)
}

func TestFieldsCommand(t *testing.T) {
	out, err := run(t, "", "fields")
	require.NoError(t, err)
	assert.Contains(t, out, "FIELD")
	assert.Contains(t, out, "0.. (no upper limit)")
	assert.Equal(t, student.NumFeatures+1, strings.Count(out, "\n"))
}

func TestBuildServiceLayers(t *testing.T) {
	cfg := config.Default()
	cfg.Cache.Size = 16
	cfg.Audit.Enabled = true
	cfg.Audit.Path = filepath.Join(t.TempDir(), "predictions.db")

	handle := ml.Open(writeModel(t), student.NumFeatures, nil)
	service, closeService, err := buildService(cfg, handle, zap.NewNop())
	require.NoError(t, err)

	raw := make(map[string]any)
	for k, v := range student.Example() {
		raw[k] = v
	}
	features, err := student.NewValidator(student.ReportAll).Validate(raw)
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		_, err := service.Predict(features)
		require.NoError(t, err)
	}
	closeService()

	audit, err := db.Open(cfg.Audit.Path)
	require.NoError(t, err)
	defer audit.Close()
	n, err := audit.Count()
	require.NoError(t, err)
	assert.Equal(t, 3, n, "cache hits must still be audited")
}
