package trace

import (
	"encoding/json"
	"log/slog"

	"github.com/gorilla/websocket"

	"github.com/qduc/easyocr-go/internal/geom"
	"github.com/qduc/easyocr-go/internal/imageproc"
)

// ConnWriter is the minimal surface WebSocketWriter needs from a connection,
// mirroring the teacher's WebSocketConnWriter so *websocket.Conn satisfies it
// without adaptation.
type ConnWriter interface {
	WriteMessage(messageType int, data []byte) error
}

// stepMessage is the JSON envelope streamed to a connected client for each
// trace step, analogous to the teacher's WebSocketOCRResponse envelope but
// carrying a trace step instead of an OCR result.
type stepMessage struct {
	Type  string         `json:"type"`
	Index int            `json:"index"`
	Name  string         `json:"name"`
	Kind  Kind           `json:"kind"`
	Meta  map[string]any `json:"meta,omitempty"`
}

// WebSocketWriter streams trace steps live to a connected client as the
// pipeline runs, supplementing the file-based trace (spec.md §6 describes
// only an offline TraceWriter; the server's /ocr/stream endpoint uses it to
// let a client observe a call in progress). It never persists to disk itself — wrap it alongside a
// FileWriter via a small fan-out Writer if both are wanted.
type WebSocketWriter struct {
	conn    ConnWriter
	nextIdx int
}

// NewWebSocketWriter binds a WebSocketWriter to an already-upgraded
// connection.
func NewWebSocketWriter(conn ConnWriter) *WebSocketWriter {
	return &WebSocketWriter{conn: conn}
}

func (w *WebSocketWriter) send(name string, kind Kind, meta map[string]any) error {
	idx := w.nextIdx
	w.nextIdx++
	data, err := json.Marshal(stepMessage{Type: "trace_step", Index: idx, Name: name, Kind: kind, Meta: meta})
	if err != nil {
		slog.Error("trace: marshal step message", "error", err)
		return err
	}
	if err := w.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		slog.Error("trace: send step message", "error", err, "step", name)
		return err
	}
	return nil
}

func (w *WebSocketWriter) AddImage(name string, _ imageproc.RasterImage, meta map[string]any) error {
	return w.send(name, KindImage, meta)
}

func (w *WebSocketWriter) AddTensor(name string, _ []float32, shape []int64, _, _ string, meta map[string]any) error {
	return w.send(name, KindTensor, mergeMeta(map[string]any{"shape": shape}, meta))
}

func (w *WebSocketWriter) AddBoxes(name string, boxes []geom.Polygon, meta map[string]any) error {
	return w.send(name, KindBoxes, mergeMeta(map[string]any{"count": len(boxes)}, meta))
}

func (w *WebSocketWriter) AddParams(name string, _ any, meta map[string]any) error {
	return w.send(name, KindParams, meta)
}

// Close is a no-op: the caller owns the underlying connection's lifecycle.
func (w *WebSocketWriter) Close() error { return nil }
