package server

import (
	"context"
	"net/http"
	"time"

	"github.com/qduc/easyocr-go/internal/geom"
	"github.com/qduc/easyocr-go/internal/imageproc"
	"github.com/qduc/easyocr-go/internal/ocr"
	"github.com/qduc/easyocr-go/internal/trace"
)

// ocrPipeline defines the subset of *ocr.Pipeline the server depends on, so
// tests can substitute a mock rather than load real ONNX models.
type ocrPipeline interface {
	RunSplit(ctx context.Context, detectionImage, recognitionImage imageproc.RasterImage) ([]ocr.Result, error)
	RunSplitTraced(ctx context.Context, detectionImage, recognitionImage imageproc.RasterImage, w trace.Writer) ([]ocr.Result, error)
	Close() error
}

var _ ocrPipeline = (*ocr.Pipeline)(nil)

// RateLimitConfig configures the optional per-client rate limiter. A zero
// value disables rate limiting entirely (all fields <= 0).
type RateLimitConfig struct {
	RequestsPerMinute int
	RequestsPerHour   int
	MaxRequestsPerDay int
	MaxDataPerDayMB   int64
}

// Config holds HTTP server configuration. Unlike the teacher's Config,
// this one does not carry pipeline construction parameters: the caller
// (cmd/ocr's serve command) builds the *ocr.Pipeline from internal/config
// and passes it to NewServer already loaded, so the server never owns
// model-loading concerns.
type Config struct {
	Host            string
	Port            int
	CORSOrigin      string
	MaxUploadMB     int64
	TimeoutSec      int
	ShutdownTimeout time.Duration
	RateLimit       RateLimitConfig
}

// DefaultConfig returns sane development defaults.
func DefaultConfig() Config {
	return Config{
		Host:            "localhost",
		Port:            8080,
		CORSOrigin:      "*",
		MaxUploadMB:     10,
		TimeoutSec:      30,
		ShutdownTimeout: 5 * time.Second,
	}
}

// Server holds the HTTP server state and dependencies.
type Server struct {
	pipeline    ocrPipeline
	decoder     imageproc.Decoder
	corsOrigin  string
	maxUploadMB int64
	timeoutSec  int
	rateLimiter *RateLimiter
}

// NewServer binds a Server to an already-constructed OCR pipeline. The
// pipeline's lifetime becomes the server's: Close closes it.
func NewServer(config Config, pipeline ocrPipeline) (*Server, error) {
	s := &Server{
		pipeline:    pipeline,
		decoder:     imageproc.StdDecoder{},
		corsOrigin:  config.CORSOrigin,
		maxUploadMB: config.MaxUploadMB,
		timeoutSec:  config.TimeoutSec,
	}

	rl := config.RateLimit
	if rl.RequestsPerMinute > 0 || rl.RequestsPerHour > 0 || rl.MaxRequestsPerDay > 0 || rl.MaxDataPerDayMB > 0 {
		s.rateLimiter = NewRateLimiter(rl.RequestsPerMinute, rl.RequestsPerHour, rl.MaxRequestsPerDay, rl.MaxDataPerDayMB*1024*1024)
	}

	return s, nil
}

// Close releases server resources, including the underlying pipeline.
func (s *Server) Close() error {
	if s.pipeline != nil {
		return s.pipeline.Close()
	}
	return nil
}

// SetupRoutes configures the HTTP routes: health check, OCR over HTTP,
// OCR with a live trace stream over websocket, and Prometheus metrics.
func (s *Server) SetupRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/health", s.corsMiddleware(s.rateLimitMiddleware(s.healthHandler)))
	mux.HandleFunc("/models", s.corsMiddleware(s.rateLimitMiddleware(s.modelsHandler)))
	mux.HandleFunc("/ocr", s.corsMiddleware(s.rateLimitMiddleware(s.ocrHandler)))
	mux.HandleFunc("/ocr/stream", s.ocrStreamHandler)
	mux.Handle("/metrics", metricsHandler())
}

// Response types for API endpoints.

type HealthResponse struct {
	Status string `json:"status"`
	Time   string `json:"time"`
}

type ModelInfo struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	Description string `json:"description"`
	Path        string `json:"path"`
	Available   bool   `json:"available"`
}

type ModelsResponse struct {
	Models []ModelInfo `json:"models"`
	Count  int         `json:"count"`
}

// Box is the JSON-friendly quadrilateral for one detected region, matching
// geom.Polygon's four corner points.
type Box struct {
	X []float64 `json:"x"`
	Y []float64 `json:"y"`
}

type OCRResultItem struct {
	Box        Box     `json:"box"`
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"`
}

type OCRResponse struct {
	Success       bool            `json:"success"`
	Results       []OCRResultItem `json:"results,omitempty"`
	Error         string          `json:"error,omitempty"`
	Width         int             `json:"width,omitempty"`
	Height        int             `json:"height,omitempty"`
	ProcessingMs  int64           `json:"processing_ms,omitempty"`
	RegionCount   int             `json:"region_count,omitempty"`
	TotalTextRune int             `json:"total_text_length,omitempty"`
}

func boxFromPolygon(poly geom.Polygon) Box {
	b := Box{X: make([]float64, len(poly)), Y: make([]float64, len(poly))}
	for i, p := range poly {
		b.X[i] = p.X
		b.Y[i] = p.Y
	}
	return b
}
