// Package tracecompare diffs two on-disk trace trees written by
// internal/trace.FileWriter, reporting the first step where they diverge.
// It is a Go port of original_source/python_reference/validation/
// diff_traces.py, letting this pipeline's trace output be checked step for
// step against a trace produced by another implementation.
package tracecompare

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
)

type traceIndex struct {
	FormatVersion int            `json:"formatVersion"`
	RunMeta       map[string]any `json:"runMeta"`
	Steps         []traceStep    `json:"steps"`
}

type traceStep struct {
	Index int    `json:"index"`
	Name  string `json:"name"`
	Kind  string `json:"kind"`
	Dir   string `json:"dir"`
}

// loadTrace reads traceDir/trace.json.
func loadTrace(traceDir string) (*traceIndex, error) {
	data, err := os.ReadFile(filepath.Join(traceDir, "trace.json"))
	if err != nil {
		return nil, fmt.Errorf("tracecompare: read trace.json: %w", err)
	}
	var idx traceIndex
	if err := json.Unmarshal(data, &idx); err != nil {
		return nil, fmt.Errorf("tracecompare: parse trace.json: %w", err)
	}
	if idx.FormatVersion != 1 {
		return nil, fmt.Errorf("tracecompare: unsupported trace formatVersion %d", idx.FormatVersion)
	}
	return &idx, nil
}

// StepReport is the outcome of comparing one shared step.
type StepReport struct {
	Index      int
	Name       string
	Kind       string
	Matched    bool
	ShaMatched bool
	Detail     string
}

// Options controls comparison behavior.
type Options struct {
	// Continue, when true, keeps comparing steps past the first drift
	// instead of stopping (mirrors diff_traces.py's --continue flag).
	Continue bool
}

// Result is the full comparison outcome across both trace trees.
type Result struct {
	NameMismatch bool
	ANames       []string
	BNames       []string
	Steps        []StepReport
	Drift        bool
}

// Compare diffs the traces rooted at aDir and bDir.
func Compare(aDir, bDir string, opts Options) (*Result, error) {
	aTrace, err := loadTrace(aDir)
	if err != nil {
		return nil, err
	}
	bTrace, err := loadTrace(bDir)
	if err != nil {
		return nil, err
	}

	aNames := stepNames(aTrace.Steps)
	bNames := stepNames(bTrace.Steps)
	res := &Result{
		NameMismatch: !equalStrings(aNames, bNames),
		ANames:       aNames,
		BNames:       bNames,
	}

	n := len(aTrace.Steps)
	if len(bTrace.Steps) < n {
		n = len(bTrace.Steps)
	}

	for i := 0; i < n; i++ {
		a, b := aTrace.Steps[i], bTrace.Steps[i]
		report := StepReport{Index: i, Name: a.Name, Kind: a.Kind}

		if a.Name != b.Name || a.Kind != b.Kind {
			report.Detail = fmt.Sprintf("step identity mismatch: A=(%s,%s) B=(%s,%s)", a.Name, a.Kind, b.Name, b.Kind)
			report.Matched = false
			res.Steps = append(res.Steps, report)
			res.Drift = true
			if !opts.Continue {
				return res, nil
			}
			continue
		}

		matched, detail, err := compareStep(filepath.Join(aDir, a.Dir), filepath.Join(bDir, b.Dir), a.Kind)
		if err != nil {
			return nil, fmt.Errorf("tracecompare: step %d (%s): %w", i, a.Name, err)
		}
		report.Matched = matched
		report.ShaMatched = matched
		report.Detail = detail
		res.Steps = append(res.Steps, report)
		if !matched {
			res.Drift = true
			if !opts.Continue {
				return res, nil
			}
		}
	}

	return res, nil
}

func compareStep(aDir, bDir, kind string) (matched bool, detail string, err error) {
	aMeta, err := readMetaJSON(filepath.Join(aDir, "meta.json"))
	if err != nil {
		return false, "", err
	}
	bMeta, err := readMetaJSON(filepath.Join(bDir, "meta.json"))
	if err != nil {
		return false, "", err
	}

	aSha, _ := aMeta["sha256_raw"].(string)
	bSha, _ := bMeta["sha256_raw"].(string)
	if aSha != "" && bSha != "" && aSha == bSha {
		return true, "sha256_raw match", nil
	}

	switch kind {
	case "image":
		return compareImage(aDir, bDir)
	case "tensor":
		return compareTensor(aDir, bDir)
	case "boxes":
		return compareBoxes(aDir, bDir)
	case "params":
		return false, "params differ (see params.json)", nil
	default:
		return false, fmt.Sprintf("unknown kind %q", kind), nil
	}
}

func readMetaJSON(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return m, nil
}

func compareImage(aDir, bDir string) (bool, string, error) {
	aRaw, aMeta, err := loadRaw(aDir, "raw.bin", "raw.meta.json")
	if err != nil {
		return false, "", err
	}
	bRaw, bMeta, err := loadRaw(bDir, "raw.bin", "raw.meta.json")
	if err != nil {
		return false, "", err
	}
	if !shapesEqual(aMeta, bMeta) {
		return false, fmt.Sprintf("shape/dtype mismatch: A=%v B=%v", aMeta["shape"], bMeta["shape"]), nil
	}
	d := summarizeDiffBytes(aRaw, bRaw)
	detail := fmt.Sprintf("diff: mae=%.6f max_abs=%.6f", d.mae, d.maxAbs)
	return d.maxAbs == 0, detail, nil
}

func compareTensor(aDir, bDir string) (bool, string, error) {
	aRaw, aMeta, err := loadRaw(aDir, "tensor.bin", "tensor.meta.json")
	if err != nil {
		return false, "", err
	}
	bRaw, bMeta, err := loadRaw(bDir, "tensor.bin", "tensor.meta.json")
	if err != nil {
		return false, "", err
	}
	if !shapesEqual(aMeta, bMeta) {
		return false, fmt.Sprintf("shape/dtype mismatch: A=%v B=%v", aMeta["shape"], bMeta["shape"]), nil
	}
	aFloats := bytesToFloat32s(aRaw)
	bFloats := bytesToFloat32s(bRaw)
	d := summarizeDiffFloats(aFloats, bFloats)
	detail := fmt.Sprintf("diff: mae=%.6f max_abs=%.6f layout=%v", d.mae, d.maxAbs, aMeta["layout"])
	return d.maxAbs == 0, detail, nil
}

func compareBoxes(aDir, bDir string) (bool, string, error) {
	aRaw, err := os.ReadFile(filepath.Join(aDir, "boxes.bin"))
	if err != nil {
		return false, "", fmt.Errorf("read boxes.bin: %w", err)
	}
	bRaw, err := os.ReadFile(filepath.Join(bDir, "boxes.bin"))
	if err != nil {
		return false, "", fmt.Errorf("read boxes.bin: %w", err)
	}
	aBoxes := sortBoxes(bytesToFloat32s(aRaw))
	bBoxes := sortBoxes(bytesToFloat32s(bRaw))
	if len(aBoxes) != len(bBoxes) {
		return false, fmt.Sprintf("box count mismatch: A=%d B=%d", len(aBoxes)/8, len(bBoxes)/8), nil
	}
	if len(aBoxes) == 0 {
		return true, "no boxes to compare", nil
	}
	d := summarizeDiffFloats(aBoxes, bBoxes)
	return d.maxAbs == 0, fmt.Sprintf("coord diff (sorted): mae=%.6f max_abs=%.6f", d.mae, d.maxAbs), nil
}

func loadRaw(dir, binName, metaName string) ([]byte, map[string]any, error) {
	raw, err := os.ReadFile(filepath.Join(dir, binName))
	if err != nil {
		return nil, nil, fmt.Errorf("read %s: %w", binName, err)
	}
	meta, err := readMetaJSON(filepath.Join(dir, metaName))
	if err != nil {
		return nil, nil, err
	}
	return raw, meta, nil
}

func shapesEqual(a, b map[string]any) bool {
	aShape, _ := json.Marshal(a["shape"])
	bShape, _ := json.Marshal(b["shape"])
	return string(aShape) == string(bShape) && a["dtype"] == b["dtype"]
}

type diffSummary struct {
	mae    float64
	maxAbs float64
}

func summarizeDiffBytes(a, b []byte) diffSummary {
	if len(a) != len(b) {
		return diffSummary{mae: math.Inf(1), maxAbs: math.Inf(1)}
	}
	var sum, maxAbs float64
	for i := range a {
		d := math.Abs(float64(a[i]) - float64(b[i]))
		sum += d
		if d > maxAbs {
			maxAbs = d
		}
	}
	if len(a) == 0 {
		return diffSummary{}
	}
	return diffSummary{mae: sum / float64(len(a)), maxAbs: maxAbs}
}

func summarizeDiffFloats(a, b []float32) diffSummary {
	if len(a) != len(b) {
		return diffSummary{mae: math.Inf(1), maxAbs: math.Inf(1)}
	}
	var sum, maxAbs float64
	for i := range a {
		d := math.Abs(float64(a[i]) - float64(b[i]))
		sum += d
		if d > maxAbs {
			maxAbs = d
		}
	}
	if len(a) == 0 {
		return diffSummary{}
	}
	return diffSummary{mae: sum / float64(len(a)), maxAbs: maxAbs}
}

func bytesToFloat32s(raw []byte) []float32 {
	out := make([]float32, len(raw)/4)
	for i := range out {
		o := i * 4
		bits := uint32(raw[o]) | uint32(raw[o+1])<<8 | uint32(raw[o+2])<<16 | uint32(raw[o+3])<<24
		out[i] = math.Float32frombits(bits)
	}
	return out
}

// sortBoxes sorts flattened [N,4,2] box coordinates by (minY,minX,maxY,maxX)
// so two box lists in different emission order can still compare equal,
// mirroring diff_traces.py's _sort_boxes.
func sortBoxes(flat []float32) []float32 {
	n := len(flat) / 8
	type keyed struct {
		key [4]float64
		pts [8]float32
	}
	boxes := make([]keyed, n)
	for i := 0; i < n; i++ {
		var pts [8]float32
		copy(pts[:], flat[i*8:i*8+8])
		minX, minY := float64(pts[0]), float64(pts[1])
		maxX, maxY := minX, minY
		for j := 1; j < 4; j++ {
			x, y := float64(pts[j*2]), float64(pts[j*2+1])
			if x < minX {
				minX = x
			}
			if x > maxX {
				maxX = x
			}
			if y < minY {
				minY = y
			}
			if y > maxY {
				maxY = y
			}
		}
		boxes[i] = keyed{key: [4]float64{minY, minX, maxY, maxX}, pts: pts}
	}
	sort.Slice(boxes, func(i, j int) bool { return lessKey(boxes[i].key, boxes[j].key) })
	out := make([]float32, 0, len(flat))
	for _, b := range boxes {
		out = append(out, b.pts[:]...)
	}
	return out
}

func lessKey(a, b [4]float64) bool {
	for i := range a {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return false
}

func stepNames(steps []traceStep) []string {
	out := make([]string, len(steps))
	for i, s := range steps {
		out[i] = s.Name
	}
	return out
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
