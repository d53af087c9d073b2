package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
)

func dialStream(t *testing.T, s *Server) (*websocket.Conn, func()) {
	t.Helper()
	ts := httptest.NewServer(http.HandlerFunc(s.ocrStreamHandler))
	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http")

	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	return conn, func() {
		_ = conn.Close()
		ts.Close()
	}
}

func TestOCRStreamHandlerSendsResult(t *testing.T) {
	mp := &mockPipeline{results: sampleResults()}
	s := newTestServer(t, mp)

	conn, closeFn := dialStream(t, s)
	defer closeFn()

	require.NoError(t, conn.WriteMessage(websocket.BinaryMessage, pngBytes(t)))

	var gotResult bool
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		_, data, err := conn.ReadMessage()
		require.NoError(t, err)

		var msg map[string]interface{}
		require.NoError(t, json.Unmarshal(data, &msg))
		if msg["type"] == "ocr_result" {
			require.Equal(t, "completed", msg["status"])
			gotResult = true
			break
		}
	}
	require.True(t, gotResult, "expected an ocr_result message")
	require.Equal(t, 1, mp.calls)
}

func TestOCRStreamHandlerReportsDecodeError(t *testing.T) {
	s := newTestServer(t, &mockPipeline{})
	conn, closeFn := dialStream(t, s)
	defer closeFn()

	require.NoError(t, conn.WriteMessage(websocket.BinaryMessage, []byte("not an image")))

	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	var msg map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &msg))
	require.Equal(t, "error", msg["status"])
}

func TestOCRStreamHandlerRejectsTextMessage(t *testing.T) {
	s := newTestServer(t, &mockPipeline{})
	conn, closeFn := dialStream(t, s)
	defer closeFn()

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("hello")))

	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	var msg map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &msg))
	require.Equal(t, "error", msg["status"])
}
