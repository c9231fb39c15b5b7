package http

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"studentperf/student"
)

// RegisterHandlers 注册所有路由
func (a *API) RegisterHandlers(mux *http.ServeMux) {
	mux.HandleFunc("GET /{$}", a.handleRoot)
	mux.HandleFunc("GET /health", a.handleHealth)
	mux.HandleFunc("POST /predict", a.handlePredict)
	mux.HandleFunc("GET /schema", a.handleSchema)
	mux.HandleFunc("GET /metrics", a.handleMetrics)
	mux.HandleFunc("GET /ws/predict", a.handlePredictStream)
}

func (a *API) handleRoot(w http.ResponseWriter, r *http.Request) {
	status := "active"
	if !a.service.Ready() {
		status = "model not loaded"
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Student Performance Prediction API",
		"status":  status,
		"endpoints": map[string]string{
			"predict": "/predict",
			"health":  "/health",
			"schema":  "/schema",
			"metrics": "/metrics",
			"ws":      "/ws/predict",
		},
	})
}

func (a *API) handleHealth(w http.ResponseWriter, r *http.Request) {
	if !a.service.Ready() {
		respondJSON(w, http.StatusServiceUnavailable, errorResponse{Detail: "Model not loaded"})
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":       "healthy",
		"model_loaded": true,
	})
}

func (a *API) handlePredict(w http.ResponseWriter, r *http.Request) {
	raw, aerr := a.decodeRequest(w, r)
	if aerr != nil {
		a.fail(aerr)
		respondJSON(w, aerr.status, aerr.body)
		return
	}
	result, aerr := a.evaluate(raw)
	if aerr != nil {
		respondJSON(w, aerr.status, aerr.body)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

// fieldSchema 字段说明
type fieldSchema struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Min         int    `json:"min"`
	Max         *int   `json:"max"`
	Bound       string `json:"bound"`
}

func (a *API) handleSchema(w http.ResponseWriter, r *http.Request) {
	fields := make([]fieldSchema, 0, student.NumFeatures)
	for _, f := range student.Fields {
		fs := fieldSchema{Name: f.Name, Description: f.Description, Min: f.Min, Bound: f.Bound()}
		if f.HasMax() {
			upper := f.Max
			fs.Max = &upper
		}
		fields = append(fields, fs)
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"fields":  fields,
		"example": student.Example(),
	})
}

func (a *API) handleMetrics(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; version=0.0.4")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte(a.metrics.ExportPrometheus())); err != nil {
		a.logger.Debug("Failed to write metrics", zap.Error(err))
	}
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
