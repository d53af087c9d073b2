package server

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/qduc/easyocr-go/internal/trace"
)

// WebSocket upgrader with reasonable defaults. Origin checking is left open
// here; deployments behind a reverse proxy should restrict this at that
// layer or wrap the handler with their own CheckOrigin policy.
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// ocrResultMessage is the final envelope sent once an /ocr/stream call
// completes, after the trace_step messages trace.WebSocketWriter already
// sent.
type ocrResultMessage struct {
	Type         string          `json:"type"`
	Status       string          `json:"status"` // "completed" or "error"
	Error        string          `json:"error,omitempty"`
	Results      []OCRResultItem `json:"results,omitempty"`
	ProcessingMs int64           `json:"processing_ms,omitempty"`
}

// ocrStreamHandler upgrades to a WebSocket connection; each binary message
// received is treated as one image to OCR, with trace steps streamed live
// as the call progresses (spec.md §6) followed by one ocrResultMessage per
// image.
func (s *Server) ocrStreamHandler(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("server: websocket upgrade failed", "error", err)
		return
	}
	defer func() { _ = conn.Close() }()

	websocketConnections.Inc()
	defer websocketConnections.Dec()

	s.handleStreamConnection(conn)
}

func (s *Server) handleStreamConnection(conn *websocket.Conn) {
	_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	conn.SetPongHandler(func(string) error {
		_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	done := make(chan struct{})
	defer close(done)
	go func() {
		ticker := time.NewTicker(30 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				if err := conn.WriteControl(websocket.PingMessage, []byte{}, time.Now().Add(10*time.Second)); err != nil {
					return
				}
			}
		}
	}()

	for {
		messageType, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				slog.Error("server: websocket read error", "error", err)
			}
			return
		}
		websocketMessagesTotal.WithLabelValues("received").Inc()

		if messageType != websocket.BinaryMessage {
			s.sendStreamError(conn, "expected a binary message containing image bytes")
			continue
		}

		s.processStreamImage(conn, data)
	}
}

func (s *Server) processStreamImage(conn *websocket.Conn, data []byte) {
	if s.pipeline == nil {
		s.sendStreamError(conn, "OCR pipeline not initialized")
		return
	}

	img, err := s.decoder.Decode(bytes.NewReader(data))
	if err != nil {
		s.sendStreamError(conn, "failed to decode image: "+err.Error())
		return
	}

	writer := trace.NewWebSocketWriter(conn)
	ctx := context.Background()
	var cancel context.CancelFunc
	if s.timeoutSec > 0 {
		ctx, cancel = context.WithTimeout(ctx, time.Duration(s.timeoutSec)*time.Second)
		defer cancel()
	}

	start := time.Now()
	results, err := s.pipeline.RunSplitTraced(ctx, img, img, writer)
	duration := time.Since(start)

	if err != nil {
		ocrRequestsTotal.WithLabelValues("stream", "error").Inc()
		s.sendStreamError(conn, "OCR processing failed: "+err.Error())
		return
	}

	ocrRequestsTotal.WithLabelValues("stream", "success").Inc()
	ocrProcessingDuration.WithLabelValues("stream").Observe(duration.Seconds())
	ocrRegionsDetected.WithLabelValues("stream").Observe(float64(len(results)))

	items := make([]OCRResultItem, len(results))
	for i, res := range results {
		items[i] = OCRResultItem{Box: boxFromPolygon(res.Box), Text: res.Text, Confidence: res.Confidence}
	}

	s.sendStreamMessage(conn, ocrResultMessage{
		Type:         "ocr_result",
		Status:       "completed",
		Results:      items,
		ProcessingMs: duration.Milliseconds(),
	})
}

func (s *Server) sendStreamError(conn *websocket.Conn, message string) {
	s.sendStreamMessage(conn, ocrResultMessage{Type: "ocr_result", Status: "error", Error: message})
}

func (s *Server) sendStreamMessage(conn *websocket.Conn, msg ocrResultMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		slog.Error("server: marshal websocket message", "error", err)
		return
	}
	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		slog.Error("server: send websocket message", "error", err)
		return
	}
	websocketMessagesTotal.WithLabelValues("sent").Inc()
}
