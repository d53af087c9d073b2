package trace

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/qduc/easyocr-go/internal/geom"
	"github.com/qduc/easyocr-go/internal/imageproc"
)

// indexStep is one entry of trace.json's step list.
type indexStep struct {
	Index int    `json:"index"`
	Name  string `json:"name"`
	Kind  Kind   `json:"kind"`
	Dir   string `json:"dir"`
}

type traceIndex struct {
	FormatVersion int            `json:"formatVersion"`
	CreatedAt     string         `json:"createdAt"`
	RunMeta       map[string]any `json:"runMeta"`
	Steps         []indexStep    `json:"steps"`
}

// FileWriter dumps each trace step to disk: a PNG preview plus raw bytes and
// stats-bearing metadata, mirroring original_source/python_reference/
// trace_writer.py's on-disk layout so the two trace trees can be diffed
// step-for-step by test/tracecompare.
type FileWriter struct {
	dir      string
	stepsDir string
	nextIdx  int
	index    traceIndex
}

// NewFileWriter creates traceDir/steps and writes an initial trace.json.
// runMeta is recorded verbatim (e.g. options, model names) under the
// "runMeta" key, matching the Python writer's constructor argument.
func NewFileWriter(traceDir string, runMeta map[string]any) (*FileWriter, error) {
	stepsDir := filepath.Join(traceDir, "steps")
	if err := os.MkdirAll(stepsDir, 0o750); err != nil {
		return nil, fmt.Errorf("trace: create steps dir: %w", err)
	}
	if runMeta == nil {
		runMeta = map[string]any{}
	}
	fw := &FileWriter{
		dir:      traceDir,
		stepsDir: stepsDir,
		index: traceIndex{
			FormatVersion: 1,
			CreatedAt:     time.Now().UTC().Format(time.RFC3339Nano),
			RunMeta:       runMeta,
		},
	}
	if err := fw.flushIndex(); err != nil {
		return nil, err
	}
	return fw, nil
}

func (fw *FileWriter) flushIndex() error {
	data, err := json.MarshalIndent(fw.index, "", "  ")
	if err != nil {
		return fmt.Errorf("trace: marshal index: %w", err)
	}
	path := filepath.Join(fw.dir, "trace.json")
	if err := os.WriteFile(path, append(data, '\n'), 0o600); err != nil {
		return fmt.Errorf("trace: write index: %w", err)
	}
	return nil
}

func (fw *FileWriter) newStepDir(name string) (idx int, dir, rel string) {
	idx = fw.nextIdx
	dirName := fmt.Sprintf("%03d_%s", idx, sanitizeStepName(name))
	dir = filepath.Join(fw.stepsDir, dirName)
	rel = filepath.ToSlash(filepath.Join("steps", dirName))
	fw.nextIdx++
	return idx, dir, rel
}

func writeJSONFile(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("trace: marshal %s: %w", path, err)
	}
	return os.WriteFile(path, append(data, '\n'), 0o600)
}

func sha256Hex(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// AddImage writes raw.bin (HWC RGB uint8), raw.meta.json, image.png, and
// meta.json, matching trace_writer.py's add_image.
func (fw *FileWriter) AddImage(name string, img imageproc.RasterImage, meta map[string]any) error {
	idx, dir, rel := fw.newStepDir(name)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("trace: create step dir: %w", err)
	}

	raw := make([]byte, img.Width*img.Height*3)
	for y := 0; y < img.Height; y++ {
		for x := 0; x < img.Width; x++ {
			r, g, b := img.RGB888(x, y)
			o := (y*img.Width + x) * 3
			raw[o], raw[o+1], raw[o+2] = r, g, b
		}
	}
	sha := sha256Hex(raw)

	if err := os.WriteFile(filepath.Join(dir, "raw.bin"), raw, 0o600); err != nil {
		return fmt.Errorf("trace: write raw.bin: %w", err)
	}
	if err := writeJSONFile(filepath.Join(dir, "raw.meta.json"), map[string]any{
		"dtype":      "uint8",
		"layout":     "HWC",
		"colorSpace": "RGB",
		"shape":      []int{img.Height, img.Width, 3},
		"sha256_raw": sha,
	}); err != nil {
		return err
	}

	canvas := image.NewRGBA(image.Rect(0, 0, img.Width, img.Height))
	for y := 0; y < img.Height; y++ {
		for x := 0; x < img.Width; x++ {
			r, g, b := img.RGB888(x, y)
			canvas.Set(x, y, color.RGBA{R: r, G: g, B: b, A: 255})
		}
	}
	pf, err := os.Create(filepath.Join(dir, "image.png")) //nolint:gosec // G304: path built from step index within trace dir
	if err != nil {
		return fmt.Errorf("trace: create image.png: %w", err)
	}
	defer func() { _ = pf.Close() }()
	if err := png.Encode(pf, canvas); err != nil {
		return fmt.Errorf("trace: encode image.png: %w", err)
	}

	stepMeta := mergeMeta(map[string]any{
		"name":       name,
		"kind":       string(KindImage),
		"dtype":      "uint8",
		"layout":     "HWC",
		"colorSpace": "RGB",
		"shape":      []int{img.Height, img.Width, 3},
		"sha256_raw": sha,
	}, meta)
	if err := writeJSONFile(filepath.Join(dir, "meta.json"), stepMeta); err != nil {
		return err
	}

	fw.index.Steps = append(fw.index.Steps, indexStep{Index: idx, Name: name, Kind: KindImage, Dir: rel})
	return fw.flushIndex()
}

// AddTensor writes tensor.bin (raw little-endian float32), tensor.meta.json,
// and meta.json with min/max/mean/std stats, matching add_tensor.
func (fw *FileWriter) AddTensor(name string, data []float32, shape []int64, layout, colorSpace string, meta map[string]any) error {
	idx, dir, rel := fw.newStepDir(name)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("trace: create step dir: %w", err)
	}

	raw := float32sToBytes(data)
	sha := sha256Hex(raw)

	if err := os.WriteFile(filepath.Join(dir, "tensor.bin"), raw, 0o600); err != nil {
		return fmt.Errorf("trace: write tensor.bin: %w", err)
	}
	if err := writeJSONFile(filepath.Join(dir, "tensor.meta.json"), map[string]any{
		"dtype":      "float32",
		"shape":      shape,
		"layout":     layout,
		"colorSpace": colorSpace,
		"sha256_raw": sha,
	}); err != nil {
		return err
	}

	stepMeta := mergeMeta(map[string]any{
		"name":       name,
		"kind":       string(KindTensor),
		"dtype":      "float32",
		"shape":      shape,
		"layout":     layout,
		"colorSpace": colorSpace,
		"sha256_raw": sha,
		"stats":      stats(data),
	}, meta)
	if err := writeJSONFile(filepath.Join(dir, "meta.json"), stepMeta); err != nil {
		return err
	}

	fw.index.Steps = append(fw.index.Steps, indexStep{Index: idx, Name: name, Kind: KindTensor, Dir: rel})
	return fw.flushIndex()
}

// AddBoxes writes boxes.bin (raw float32, Nx4x2), boxes.json (human
// readable), and meta.json, matching add_boxes.
func (fw *FileWriter) AddBoxes(name string, boxes []geom.Polygon, meta map[string]any) error {
	idx, dir, rel := fw.newStepDir(name)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("trace: create step dir: %w", err)
	}

	flat := make([]float32, 0, len(boxes)*8)
	jsonBoxes := make([][][2]float64, len(boxes))
	for i, poly := range boxes {
		jsonBoxes[i] = make([][2]float64, len(poly))
		for j, p := range poly {
			flat = append(flat, float32(p.X), float32(p.Y))
			jsonBoxes[i][j] = [2]float64{p.X, p.Y}
		}
	}
	raw := float32sToBytes(flat)
	sha := sha256Hex(raw)

	if err := os.WriteFile(filepath.Join(dir, "boxes.bin"), raw, 0o600); err != nil {
		return fmt.Errorf("trace: write boxes.bin: %w", err)
	}
	if err := writeJSONFile(filepath.Join(dir, "boxes.meta.json"), map[string]any{
		"dtype":      "float32",
		"shape":      []int{len(boxes), 4, 2},
		"sha256_raw": sha,
	}); err != nil {
		return err
	}
	if err := writeJSONFile(filepath.Join(dir, "boxes.json"), jsonBoxes); err != nil {
		return err
	}

	stepMeta := mergeMeta(map[string]any{
		"name":       name,
		"kind":       string(KindBoxes),
		"count":      len(boxes),
		"sha256_raw": sha,
	}, meta)
	if err := writeJSONFile(filepath.Join(dir, "meta.json"), stepMeta); err != nil {
		return err
	}

	fw.index.Steps = append(fw.index.Steps, indexStep{Index: idx, Name: name, Kind: KindBoxes, Dir: rel})
	return fw.flushIndex()
}

// AddParams writes params.json and meta.json, matching add_params.
func (fw *FileWriter) AddParams(name string, params any, meta map[string]any) error {
	idx, dir, rel := fw.newStepDir(name)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("trace: create step dir: %w", err)
	}

	raw, err := json.Marshal(params)
	if err != nil {
		return fmt.Errorf("trace: marshal params: %w", err)
	}
	sha := sha256Hex(raw)

	if err := writeJSONFile(filepath.Join(dir, "params.json"), params); err != nil {
		return err
	}

	stepMeta := mergeMeta(map[string]any{
		"name":       name,
		"kind":       string(KindParams),
		"sha256_raw": sha,
	}, meta)
	if err := writeJSONFile(filepath.Join(dir, "meta.json"), stepMeta); err != nil {
		return err
	}

	fw.index.Steps = append(fw.index.Steps, indexStep{Index: idx, Name: name, Kind: KindParams, Dir: rel})
	return fw.flushIndex()
}

// Close is a no-op: every step is flushed to disk as it is written.
func (fw *FileWriter) Close() error { return nil }

func mergeMeta(base, extra map[string]any) map[string]any {
	if extra == nil {
		return base
	}
	for k, v := range extra {
		base[k] = v
	}
	return base
}

func float32sToBytes(data []float32) []byte {
	out := make([]byte, 0, len(data)*4)
	for _, v := range data {
		bits := math.Float32bits(v)
		out = append(out, byte(bits), byte(bits>>8), byte(bits>>16), byte(bits>>24))
	}
	return out
}
