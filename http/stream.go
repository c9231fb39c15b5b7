package http

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"studentperf/inference"
	"studentperf/student"
)

const (
	streamWriteWait = 10 * time.Second
	streamPongWait  = 60 * time.Second
)

// StreamMessage WebSocket响应帧
type StreamMessage struct {
	Type   string               `json:"type"`
	ID     string               `json:"id"`
	Result *inference.Result    `json:"result,omitempty"`
	Status int                  `json:"status,omitempty"`
	Detail string               `json:"detail,omitempty"`
	Errors []student.FieldError `json:"errors,omitempty"`
}

// newUpgrader 根据允许来源校验Origin
func newUpgrader(origins []string) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origin == "" {
				return true
			}
			for _, allowed := range origins {
				if allowed == "*" || allowed == origin {
					return true
				}
			}
			return false
		},
	}
}

// handlePredictStream 每个文本帧是一组特征，逐帧返回预测结果
func (a *API) handlePredictStream(w http.ResponseWriter, r *http.Request) {
	conn, err := a.upgrader.Upgrade(w, r, nil)
	if err != nil {
		a.logger.Warn("WebSocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	clientID := uuid.NewString()
	a.logger.Info("Stream client connected", zap.String("client", clientID))
	defer a.logger.Info("Stream client disconnected", zap.String("client", clientID))

	conn.SetReadLimit(a.maxBodyBytes)
	conn.SetReadDeadline(time.Now().Add(streamPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(streamPongWait))
	})

	for {
		msgType, message, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				a.logger.Warn("WebSocket read error", zap.String("client", clientID), zap.Error(err))
			}
			return
		}
		conn.SetReadDeadline(time.Now().Add(streamPongWait))
		if msgType != websocket.TextMessage {
			continue
		}

		reply := a.streamReply(message)
		conn.SetWriteDeadline(time.Now().Add(streamWriteWait))
		if err := conn.WriteJSON(reply); err != nil {
			a.logger.Warn("WebSocket write error", zap.String("client", clientID), zap.Error(err))
			return
		}
	}
}

func (a *API) streamReply(message []byte) StreamMessage {
	id := uuid.NewString()
	raw, aerr := decodeMessage(message)
	if aerr != nil {
		a.fail(aerr)
		return errorFrame(id, aerr)
	}
	result, aerr := a.evaluate(raw)
	if aerr != nil {
		return errorFrame(id, aerr)
	}
	return StreamMessage{Type: "prediction", ID: id, Result: &result}
}

func errorFrame(id string, aerr *apiError) StreamMessage {
	return StreamMessage{
		Type:   "error",
		ID:     id,
		Status: aerr.status,
		Detail: aerr.body.Detail,
		Errors: aerr.body.Errors,
	}
}
