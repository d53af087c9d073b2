package trace

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSanitizeStepName(t *testing.T) {
	cases := map[string]string{
		"Load Image":        "load_image",
		"  detector output ": "detector_output",
		"a--b":               "a_b",
		"***":                "step",
		"":                   "step",
		"already_ok":         "already_ok",
	}
	for input, want := range cases {
		require.Equal(t, want, sanitizeStepName(input), "input=%q", input)
	}
}

func TestStatsEmpty(t *testing.T) {
	s := stats(nil)
	require.Equal(t, 0.0, s["min"])
	require.Equal(t, 0.0, s["max"])
	require.Equal(t, 0.0, s["mean"])
	require.Equal(t, 0.0, s["std"])
}

func TestStatsComputesMinMaxMeanStd(t *testing.T) {
	s := stats([]float32{1, 2, 3, 4})
	require.InDelta(t, 1.0, s["min"], 1e-6)
	require.InDelta(t, 4.0, s["max"], 1e-6)
	require.InDelta(t, 2.5, s["mean"], 1e-6)
	require.InDelta(t, 1.1180339887, s["std"], 1e-6)
}

func TestNullWriterIsNoOp(t *testing.T) {
	var w Writer = NullWriter{}
	require.NoError(t, w.AddParams("ocr_options", map[string]any{"a": 1}, nil))
	require.NoError(t, w.Close())
}
