package recognizer

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func charsetOf(t *testing.T, tokens ...string) *Charset {
	t.Helper()
	indexToToken, tokenToIndex := buildCharsetMaps(tokens)
	return &Charset{Tokens: tokens, IndexToToken: indexToToken, TokenToIndex: tokenToIndex}
}

// logitsFor builds a [steps,classes] tensor where step t has a sharp peak at
// peaks[t] (logit 10) and everything else at 0, so argmax is unambiguous.
func logitsFor(steps, classes int, peaks []int) []float32 {
	out := make([]float32, steps*classes)
	for t := 0; t < steps; t++ {
		for c := 0; c < classes; c++ {
			if c == peaks[t] {
				out[t*classes+c] = 10
			}
		}
	}
	return out
}

func TestDecodeGreedyCollapsesRepeatsAndBlanks(t *testing.T) {
	// charset "abc" -> classes are [blank=0, a=1, b=2, c=3]
	cs := charsetOf(t, "a", "b", "c")
	// blank, a, a, blank, b, b, b, blank -> "ab"
	peaks := []int{0, 1, 1, 0, 2, 2, 2, 0}
	logits := logitsFor(len(peaks), 4, peaks)

	out, err := DecodeGreedy(logits, []int64{int64(len(peaks)), 4}, cs, 0, nil, false)
	require.NoError(t, err)
	require.Len(t, out, 1)
	require.Equal(t, "ab", out[0].Text)
	require.Greater(t, out[0].Confidence, 0.0)
}

func TestDecodeGreedyMasksIgnoreSet(t *testing.T) {
	cs := charsetOf(t, "a", "b", "c")
	// step 0 picks class 2 ("b") normally, but it's ignored so the decoder
	// must fall through to the next-best non-ignored class.
	logits := []float32{0, 0, 10, 1} // blank=0, a=1, b=2(peak), c=3
	ignore := map[int]bool{2: true}

	out, err := DecodeGreedy(logits, []int64{1, 4}, cs, 0, ignore, false)
	require.NoError(t, err)
	require.Len(t, out, 1)
	require.Equal(t, "c", out[0].Text)
}

func TestDecodeGreedyAllBlankYieldsEmptyZeroConfidence(t *testing.T) {
	cs := charsetOf(t, "a", "b", "c")
	peaks := []int{0, 0, 0}
	logits := logitsFor(len(peaks), 4, peaks)

	out, err := DecodeGreedy(logits, []int64{int64(len(peaks)), 4}, cs, 0, nil, false)
	require.NoError(t, err)
	require.Equal(t, "", out[0].Text)
	require.Equal(t, 0.0, out[0].Confidence)
}

func TestDecodeGreedyNonZeroBlankOffset(t *testing.T) {
	// classes: [a=0, blank=1, b=2]; charset "ab"
	cs := charsetOf(t, "a", "b")
	peaks := []int{0, 2}
	logits := logitsFor(len(peaks), 3, peaks)

	out, err := DecodeGreedy(logits, []int64{int64(len(peaks)), 3}, cs, 1, nil, false)
	require.NoError(t, err)
	require.Equal(t, "ab", out[0].Text)
}

func TestGeometricMeanConfidenceMatchesFormula(t *testing.T) {
	probs := []float64{0.9, 0.8, 0.95}
	got := geometricMeanConfidence(probs)

	var sumLog float64
	for _, p := range probs {
		sumLog += math.Log(p)
	}
	want := math.Exp(sumLog * 2 / math.Sqrt(float64(len(probs))))
	require.InDelta(t, want, got, 1e-9)
}

func TestGeometricMeanConfidenceZeroOnEmptyOrNonPositive(t *testing.T) {
	require.Equal(t, 0.0, geometricMeanConfidence(nil))
	require.Equal(t, 0.0, geometricMeanConfidence([]float64{0.5, 0, 0.9}))
}

func TestDecodeGreedyRejectsOutOfRangeBlank(t *testing.T) {
	cs := charsetOf(t, "a", "b")
	_, err := DecodeGreedy([]float32{0, 0, 0}, []int64{1, 3}, cs, 5, nil, false)
	require.Error(t, err)
}

func TestDecodeGreedyClassesFirstLayout(t *testing.T) {
	cs := charsetOf(t, "a", "b", "c")
	// [classes, steps] layout: 4 classes, 2 steps, class 1 ("a") peaks at
	// both steps but CTC collapse keeps only one "a".
	classes, steps := 4, 2
	logits := make([]float32, classes*steps)
	logits[1*steps+0] = 10
	logits[1*steps+1] = 10

	out, err := DecodeGreedy(logits, []int64{int64(classes), int64(steps)}, cs, 0, nil, true)
	require.NoError(t, err)
	require.Equal(t, "a", out[0].Text)
}

func TestTokenClassIndexRoundTripsThroughClassToToken(t *testing.T) {
	cs := charsetOf(t, "a", "b", "c", "d")
	for _, blank := range []int{0, 2} {
		for tokenIdx := 0; tokenIdx < cs.Size(); tokenIdx++ {
			class := TokenClassIndex(tokenIdx, blank)
			tok, ok := classToToken(cs, class, blank)
			require.True(t, ok)
			require.Equal(t, cs.LookupToken(tokenIdx), tok)
		}
	}
}

func TestDecodeGreedyBatchedRank3(t *testing.T) {
	cs := charsetOf(t, "a", "b")
	// batch=2, steps=2, classes=3: row 0 decodes "a", row 1 decodes "b".
	logits := []float32{
		0, 10, 0, // step0: a
		0, 10, 0, // step1: a (collapsed)
		0, 0, 10, // step0: b
		0, 0, 10, // step1: b (collapsed)
	}
	out, err := DecodeGreedy(logits, []int64{2, 2, 3}, cs, 0, nil, false)
	require.NoError(t, err)
	require.Len(t, out, 2)
	require.Equal(t, "a", out[0].Text)
	require.Equal(t, "b", out[1].Text)
}
