package trace

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

type fakeConn struct {
	messages [][]byte
}

func (f *fakeConn) WriteMessage(_ int, data []byte) error {
	f.messages = append(f.messages, data)
	return nil
}

func TestWebSocketWriterStreamsStepsInOrder(t *testing.T) {
	conn := &fakeConn{}
	w := NewWebSocketWriter(conn)

	require.NoError(t, w.AddParams("ocr_options", map[string]any{"canvasSize": 2560}, nil))
	require.NoError(t, w.AddTensor("heatmap_text", []float32{1, 2}, []int64{1, 2}, "HW", "", nil))

	require.Len(t, conn.messages, 2)

	var first, second stepMessage
	require.NoError(t, json.Unmarshal(conn.messages[0], &first))
	require.NoError(t, json.Unmarshal(conn.messages[1], &second))

	require.Equal(t, 0, first.Index)
	require.Equal(t, "ocr_options", first.Name)
	require.Equal(t, KindParams, first.Kind)

	require.Equal(t, 1, second.Index)
	require.Equal(t, "heatmap_text", second.Name)
	require.Equal(t, KindTensor, second.Kind)
}
