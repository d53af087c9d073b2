package recognizer

import (
	"fmt"
	"math"
	"strings"
)

// DecodedText is one recognizer output: the greedy-decoded string and its
// geometric-mean confidence (spec §4.G).
type DecodedText struct {
	Text       string
	Confidence float64
}

// DecodeGreedy implements spec §4.G: for each time step, mask ignored
// classes, take the argmax, record its restricted-softmax probability when
// it is a non-blank non-ignored class, and emit a character on every
// non-repeat non-blank non-ignored step. logits may be rank 2 ([steps,
// classes], one sequence) or rank 3 ([batch, steps, classes] or [batch,
// classes, steps] depending on classesFirst).
func DecodeGreedy(logits []float32, shape []int64, charset *Charset, blank int, ignoreSet map[int]bool, classesFirst bool) ([]DecodedText, error) {
	batch, steps, classes, stepAt, err := stepExtractor(logits, shape, classesFirst)
	if err != nil {
		return nil, err
	}
	if blank < 0 || blank >= classes {
		return nil, fmt.Errorf("recognizer: blank index %d out of range [0,%d)", blank, classes)
	}

	out := make([]DecodedText, batch)
	for n := range batch {
		var textBuilder strings.Builder
		var keptProbs []float64
		prevIndex := -1

		for t := range steps {
			step := stepAt(n, t)
			bestIndex, bestVal := argmaxMasked(step, ignoreSet)
			p := restrictedSoftmaxProb(step, bestVal, ignoreSet)

			ignored := ignoreSet != nil && ignoreSet[bestIndex]
			if bestIndex != blank && !ignored {
				keptProbs = append(keptProbs, p)
			}
			if bestIndex != blank && bestIndex != prevIndex && !ignored {
				if tok, ok := classToToken(charset, bestIndex, blank); ok {
					textBuilder.WriteString(tok)
				}
			}
			prevIndex = bestIndex
		}

		out[n] = DecodedText{Text: textBuilder.String(), Confidence: geometricMeanConfidence(keptProbs)}
	}
	return out, nil
}

// argmaxMasked returns the index and value of the largest element of step,
// ignoring any index present in ignoreSet. If every index is ignored, falls
// back to the unrestricted argmax so a step never goes unindexed.
func argmaxMasked(step []float32, ignoreSet map[int]bool) (int, float32) {
	bestIndex := -1
	var bestVal float32
	for i, v := range step {
		if ignoreSet != nil && ignoreSet[i] {
			continue
		}
		if bestIndex == -1 || v > bestVal {
			bestIndex, bestVal = i, v
		}
	}
	if bestIndex == -1 {
		return argmax(step)
	}
	return bestIndex, bestVal
}

func argmax(v []float32) (int, float32) {
	bestIndex := 0
	bestVal := v[0]
	for i := 1; i < len(v); i++ {
		if v[i] > bestVal {
			bestIndex, bestVal = i, v[i]
		}
	}
	return bestIndex, bestVal
}

// restrictedSoftmaxProb computes the numerically stable softmax probability
// of the class holding bestVal, normalizing only over classes not in
// ignoreSet (spec §4.G step 2).
func restrictedSoftmaxProb(step []float32, bestVal float32, ignoreSet map[int]bool) float64 {
	var sum float64
	for i, v := range step {
		if ignoreSet != nil && ignoreSet[i] {
			continue
		}
		sum += math.Exp(float64(v - bestVal))
	}
	if sum <= 0 {
		return 0
	}
	return 1 / sum
}

// classToToken implements spec §4.G's blank-offset charset indexing: when
// blank is 0, class i maps to charset[i-1]; otherwise class i maps to
// charset[i] for i<blank and charset[i-1] for i>blank. class==blank has no
// token.
func classToToken(charset *Charset, class, blank int) (string, bool) {
	if class == blank {
		return "", false
	}
	var idx int
	switch {
	case blank == 0:
		idx = class - 1
	case class < blank:
		idx = class
	default:
		idx = class - 1
	}
	if idx < 0 || idx >= charset.Size() {
		return "", false
	}
	return charset.LookupToken(idx), true
}

// TokenClassIndex is the inverse of classToToken: it returns the decoder
// class index that charset token tokenIdx maps to under blank. Exported for
// ignore-set synthesis (spec §4.H step 2), which must translate charset-
// relative allow/block/lang filters into decoder class indices.
func TokenClassIndex(tokenIdx, blank int) int {
	if blank == 0 {
		return tokenIdx + 1
	}
	if tokenIdx < blank {
		return tokenIdx
	}
	return tokenIdx + 1
}

// geometricMeanConfidence implements spec §4.G's confidence formula:
// exp(sum(ln(p_i)) * 2/sqrt(n)). Any non-positive probability, or an empty
// list, yields confidence 0.
func geometricMeanConfidence(probs []float64) float64 {
	n := len(probs)
	if n == 0 {
		return 0
	}
	var sumLog float64
	for _, p := range probs {
		if p <= 0 {
			return 0
		}
		sumLog += math.Log(p)
	}
	return math.Exp(sumLog * 2 / math.Sqrt(float64(n)))
}

// stepExtractor normalizes rank-2 and rank-3 logit layouts into a uniform
// (batch, steps, classes, stepAt) view so DecodeGreedy doesn't branch on
// shape internally.
func stepExtractor(logits []float32, shape []int64, classesFirst bool) (batch, steps, classes int, stepAt func(n, t int) []float32, err error) {
	switch len(shape) {
	case 2:
		batch = 1
		if classesFirst {
			classes, steps = int(shape[0]), int(shape[1])
		} else {
			steps, classes = int(shape[0]), int(shape[1])
		}
		stepAt = func(_, t int) []float32 {
			if classesFirst {
				out := make([]float32, classes)
				for c := range classes {
					out[c] = logits[c*steps+t]
				}
				return out
			}
			return logits[t*classes : (t+1)*classes]
		}
		return batch, steps, classes, stepAt, nil
	case 3:
		batch = int(shape[0])
		if classesFirst {
			classes, steps = int(shape[1]), int(shape[2])
		} else {
			steps, classes = int(shape[1]), int(shape[2])
		}
		perBatch := steps * classes
		stepAt = func(n, t int) []float32 {
			base := n * perBatch
			if classesFirst {
				out := make([]float32, classes)
				for c := range classes {
					out[c] = logits[base+c*steps+t]
				}
				return out
			}
			off := base + t*classes
			return logits[off : off+classes]
		}
		return batch, steps, classes, stepAt, nil
	default:
		return 0, 0, 0, nil, fmt.Errorf("recognizer: unsupported logits rank %d (shape %v)", len(shape), shape)
	}
}
