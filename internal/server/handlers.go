package server

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/qduc/easyocr-go/internal/models"
	"github.com/qduc/easyocr-go/internal/ocr"
)

const maxMultipartMemory = 32 << 20 // 32MB held in memory before spilling to disk

// healthHandler reports basic liveness.
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status: "ok",
		Time:   time.Now().UTC().Format(time.RFC3339),
	})
}

// modelsHandler lists the artifacts this server's pipeline depends on.
func (s *Server) modelsHandler(w http.ResponseWriter, r *http.Request) {
	avail := models.ListAvailableModels()
	out := make([]ModelInfo, len(avail))
	for i, m := range avail {
		path := models.ResolveModelPath("", m.Type, m.Filename)
		out[i] = ModelInfo{
			Name:        m.Name,
			Type:        m.Type,
			Description: m.Description,
			Path:        path,
			Available:   models.ValidateModelExists(path) == nil,
		}
	}
	writeJSON(w, http.StatusOK, ModelsResponse{Models: out, Count: len(out)})
}

// ocrHandler runs OCR over a single multipart-uploaded image and responds
// with JSON, CSV, or plain text depending on the "format" query parameter.
func (s *Server) ocrHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeErrorResponse(w, "method not allowed, use POST", http.StatusMethodNotAllowed)
		return
	}

	if s.pipeline == nil {
		s.writeErrorResponse(w, "OCR pipeline not initialized", http.StatusServiceUnavailable)
		return
	}

	if s.maxUploadMB > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadMB*1024*1024)
	}

	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		s.writeErrorResponse(w, fmt.Sprintf("failed to parse multipart form: %v", err), http.StatusBadRequest)
		return
	}

	file, _, err := r.FormFile("image")
	if err != nil {
		s.writeErrorResponse(w, "missing \"image\" form field", http.StatusBadRequest)
		return
	}
	defer func() { _ = file.Close() }()

	data, err := io.ReadAll(file)
	if err != nil {
		s.writeErrorResponse(w, fmt.Sprintf("failed to read uploaded image: %v", err), http.StatusBadRequest)
		return
	}
	uploadSizeBytes.Observe(float64(len(data)))

	decoded, err := s.decoder.Decode(bytes.NewReader(data))
	if err != nil {
		s.writeErrorResponse(w, fmt.Sprintf("failed to decode image: %v", err), http.StatusBadRequest)
		return
	}

	ctx := r.Context()
	var cancel context.CancelFunc
	if s.timeoutSec > 0 {
		ctx, cancel = context.WithTimeout(ctx, time.Duration(s.timeoutSec)*time.Second)
		defer cancel()
	}

	start := time.Now()
	results, err := s.pipeline.RunSplit(ctx, decoded, decoded)
	duration := time.Since(start)

	if err != nil {
		ocrRequestsTotal.WithLabelValues("image", "error").Inc()
		s.writeErrorResponse(w, fmt.Sprintf("OCR processing failed: %v", err), http.StatusInternalServerError)
		return
	}

	ocrRequestsTotal.WithLabelValues("image", "success").Inc()
	ocrProcessingDuration.WithLabelValues("image").Observe(duration.Seconds())
	ocrRegionsDetected.WithLabelValues("image").Observe(float64(len(results)))

	switch r.URL.Query().Get("format") {
	case "text":
		writeTextResults(w, results)
	case "csv":
		writeCSVResults(w, results)
	default:
		writeOCRJSON(w, decoded.Width, decoded.Height, duration, results)
	}
}

func writeOCRJSON(w http.ResponseWriter, width, height int, duration time.Duration, results []ocr.Result) {
	items := make([]OCRResultItem, len(results))
	var totalRunes int
	for i, res := range results {
		items[i] = OCRResultItem{Box: boxFromPolygon(res.Box), Text: res.Text, Confidence: res.Confidence}
		totalRunes += len([]rune(res.Text))
	}
	ocrTextLength.WithLabelValues("image").Observe(float64(totalRunes))
	writeJSON(w, http.StatusOK, OCRResponse{
		Success:       true,
		Results:       items,
		Width:         width,
		Height:        height,
		ProcessingMs:  duration.Milliseconds(),
		RegionCount:   len(results),
		TotalTextRune: totalRunes,
	})
}

func writeTextResults(w http.ResponseWriter, results []ocr.Result) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	for _, res := range results {
		_, _ = fmt.Fprintln(w, res.Text)
	}
}

func writeCSVResults(w http.ResponseWriter, results []ocr.Result) {
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	cw := csv.NewWriter(w)
	_ = cw.Write([]string{"text", "confidence"})
	for _, res := range results {
		_ = cw.Write([]string{res.Text, fmt.Sprintf("%.4f", res.Confidence)})
	}
	cw.Flush()
}

// writeErrorResponse writes a JSON error envelope.
func (s *Server) writeErrorResponse(w http.ResponseWriter, message string, status int) {
	writeJSON(w, status, OCRResponse{Success: false, Error: message})
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Error("server: encode response", "error", err)
	}
}
