// Package http 提供学生成绩预测的HTTP接口
package http

import (
	"errors"
	"net/http"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"studentperf/inference"
	"studentperf/monitoring"
	"studentperf/student"
)

const (
	detailUnavailable = "Model is not available. Please contact administrator."
	detailUnsupported = "Model does not support required prediction methods"
	detailInternal    = "An error occurred during prediction"
	detailValidation  = "validation failed"
	detailBadJSON     = "invalid JSON body"
)

// 指标名称
const (
	metricPredictions = "predictions_total"
	metricErrors      = "prediction_errors_total"
	metricRequests    = "http_requests_total"
	metricModelReady  = "model_ready"
)

// API 请求边界：校验输入、调用推理、映射错误
type API struct {
	service      inference.Service
	validator    *student.Validator
	logger       *zap.Logger
	metrics      *monitoring.MetricsCollector
	maxBodyBytes int64
	upgrader     websocket.Upgrader
}

// APIConfig API配置
type APIConfig struct {
	Service        inference.Service
	Validator      *student.Validator
	Logger         *zap.Logger
	Metrics        *monitoring.MetricsCollector
	MaxBodyBytes   int64
	AllowedOrigins []string
}

// NewAPI 创建API
func NewAPI(config APIConfig) *API {
	api := &API{
		service:      config.Service,
		validator:    config.Validator,
		logger:       config.Logger,
		metrics:      config.Metrics,
		maxBodyBytes: config.MaxBodyBytes,
		upgrader:     newUpgrader(config.AllowedOrigins),
	}
	if api.validator == nil {
		api.validator = student.NewValidator(student.ReportAll)
	}
	if api.logger == nil {
		api.logger = zap.NewNop()
	}
	if api.metrics == nil {
		api.metrics = monitoring.NewMetricsCollector()
	}
	if api.maxBodyBytes <= 0 {
		api.maxBodyBytes = 64 << 10
	}
	api.metrics.Describe(metricPredictions, "Successful predictions by outcome")
	api.metrics.Describe(metricErrors, "Rejected or failed predictions by kind")
	api.metrics.Describe(metricRequests, "HTTP requests by method and status")
	api.metrics.Describe(metricModelReady, "1 when a model is loaded")
	ready := 0.0
	if api.service.Ready() {
		ready = 1
	}
	api.metrics.SetGauge(metricModelReady, ready, nil)
	return api
}

// errorResponse 错误响应体
type errorResponse struct {
	Detail string               `json:"detail"`
	Errors []student.FieldError `json:"errors,omitempty"`
}

// apiError 带状态码的错误
type apiError struct {
	status int
	kind   string
	body   errorResponse
}

// evaluate 校验并预测，HTTP和WebSocket共用
func (a *API) evaluate(raw map[string]any) (inference.Result, *apiError) {
	features, err := a.validator.Validate(raw)
	if err != nil {
		var verr *student.ValidationError
		if errors.As(err, &verr) {
			return inference.Result{}, a.fail(&apiError{
				status: http.StatusUnprocessableEntity,
				kind:   "validation",
				body:   errorResponse{Detail: detailValidation, Errors: verr.Fields},
			})
		}
		return inference.Result{}, a.fail(internalError())
	}

	result, err := a.service.Predict(features)
	if err != nil {
		return inference.Result{}, a.fail(mapInferenceError(err))
	}

	outcome := "fail"
	if result.Label == inference.LabelPass {
		outcome = "pass"
	}
	a.metrics.IncrCounter(metricPredictions, 1, map[string]string{"outcome": outcome})
	return result, nil
}

func (a *API) fail(e *apiError) *apiError {
	a.metrics.IncrCounter(metricErrors, 1, map[string]string{"kind": e.kind})
	return e
}

// mapInferenceError 推理错误到HTTP状态码的映射
func mapInferenceError(err error) *apiError {
	var ierr *inference.Error
	if !errors.As(err, &ierr) {
		return internalError()
	}
	switch ierr.Kind {
	case inference.KindUnavailable:
		return &apiError{
			status: http.StatusServiceUnavailable,
			kind:   string(ierr.Kind),
			body:   errorResponse{Detail: detailUnavailable},
		}
	case inference.KindUnsupportedModel:
		return &apiError{
			status: http.StatusInternalServerError,
			kind:   string(ierr.Kind),
			body:   errorResponse{Detail: detailUnsupported},
		}
	default:
		return internalError()
	}
}

func internalError() *apiError {
	return &apiError{
		status: http.StatusInternalServerError,
		kind:   string(inference.KindInternal),
		body:   errorResponse{Detail: detailInternal},
	}
}

func badRequest(detail string, status int) *apiError {
	return &apiError{status: status, kind: "bad_request", body: errorResponse{Detail: detail}}
}
