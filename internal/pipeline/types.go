package pipeline

import (
	"time"

	"github.com/qduc/easyocr-go/internal/ocr"
)

// ImageResult pairs a source file with the OCR results produced for it, or
// the error that stopped processing for that file.
type ImageResult struct {
	Path    string       `json:"path"`
	Results []ocr.Result `json:"results,omitempty"`
	Err     error        `json:"-"`
	ErrMsg  string       `json:"error,omitempty"`
}

// Config controls batch CLI processing: file discovery and worker pool
// sizing layered on top of a single shared *ocr.Pipeline.
type Config struct {
	Recursive       bool
	IncludePatterns []string
	ExcludePatterns []string

	Workers          int // 0 = runtime.NumCPU()
	MaxGoroutines    int // 0 = unbounded beyond Workers
	ShowProgress     bool
	Quiet            bool
	ProgressInterval time.Duration

	Format     string // "text", "json", "csv"
	OutputFile string
}

// DefaultConfig returns sensible batch-processing defaults.
func DefaultConfig() Config {
	return Config{
		Format:           "text",
		ProgressInterval: 100 * time.Millisecond,
	}
}

// Result holds the outcome of a ProcessBatch call.
type Result struct {
	Images      []ImageResult
	Duration    time.Duration
	WorkerCount int
}

// Stats summarizes a Result for reporting.
type Stats struct {
	TotalImages      int           `json:"total_images"`
	ProcessedImages  int           `json:"processed_images"`
	FailedImages     int           `json:"failed_images"`
	WorkerCount      int           `json:"worker_count"`
	TotalDuration    time.Duration `json:"total_duration_ns"`
	AveragePerImage  time.Duration `json:"average_per_image_ns"`
	ThroughputPerSec float64       `json:"throughput_per_sec"`
}

// CalculateStats computes aggregate throughput statistics for a Result, the
// same shape the teacher's batch CLI reports after a run.
func CalculateStats(r *Result) Stats {
	processed, failed := 0, 0
	for _, img := range r.Images {
		if img.Err != nil {
			failed++
		} else {
			processed++
		}
	}

	var avg time.Duration
	var throughput float64
	if processed > 0 && r.Duration > 0 {
		avg = r.Duration / time.Duration(processed)
		throughput = float64(processed) / r.Duration.Seconds()
	}

	return Stats{
		TotalImages:      len(r.Images),
		ProcessedImages:  processed,
		FailedImages:     failed,
		WorkerCount:      r.WorkerCount,
		TotalDuration:    r.Duration,
		AveragePerImage:  avg,
		ThroughputPerSec: throughput,
	}
}
