package cmd

import (
	"fmt"
	"strings"

	"github.com/qduc/easyocr-go/internal/config"
	"github.com/qduc/easyocr-go/internal/detector"
	"github.com/qduc/easyocr-go/internal/models"
	"github.com/qduc/easyocr-go/internal/ocr"
	"github.com/qduc/easyocr-go/internal/onnxrt"
	"github.com/qduc/easyocr-go/internal/recognizer"
)

// splitCommaList splits a comma-separated flag value, trimming whitespace
// and dropping empty entries.
func splitCommaList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// buildPipeline loads the detector and recognizer models named by cfg and
// binds them into an *ocr.Pipeline. dictLangs, when non-empty, resolves to
// one charset file per language (falling back to the default charset) and
// merges them with recognizer.LoadCharsets; ocr.New itself only accepts a
// single dictionary path, so a multi-language request bypasses it and wires
// the detector and recognizer up manually via NewWithComponents.
func buildPipeline(cfg *config.Config, dictLangs []string) (*ocr.Pipeline, error) {
	modelsDir := models.GetModelsDir(cfg.ModelsDir)
	detPath := models.GetDetectorModelPath(modelsDir)
	recPath := models.GetRecognizerModelPath(modelsDir)

	if err := models.ValidateModelExists(detPath); err != nil {
		return nil, fmt.Errorf("detector model: %w", err)
	}
	if err := models.ValidateModelExists(recPath); err != nil {
		return nil, fmt.Errorf("recognizer model: %w", err)
	}

	gpu, err := cfg.ToGPUConfig()
	if err != nil {
		return nil, fmt.Errorf("gpu config: %w", err)
	}
	opts := cfg.ToOptions()

	dictPaths := models.GetDictionaryPathsForLanguages(modelsDir, dictLangs)
	if len(dictPaths) <= 1 {
		dictPath := models.GetDictionaryPath(modelsDir, models.DefaultDictionary)
		if len(dictPaths) == 1 {
			dictPath = dictPaths[0]
		}
		return ocr.New(detPath, recPath, dictPath, opts, gpu, 0)
	}

	return buildPipelineWithMergedCharset(detPath, recPath, dictPaths, opts, gpu)
}

// buildPipelineWithMergedCharset wires the detector and recognizer up by
// hand so a recognizer can be bound to a charset merged from multiple
// dictionary files, a shape recognizer.NewRecognizer itself doesn't expose.
func buildPipelineWithMergedCharset(detPath, recPath string, dictPaths []string, opts ocr.Options, gpu onnxrt.GPUConfig) (*ocr.Pipeline, error) {
	det, err := detector.NewDetector(detPath, detectorOptionsFromOCR(opts), gpu, 0)
	if err != nil {
		return nil, fmt.Errorf("load detector: %w", err)
	}

	charset, err := recognizer.LoadCharsets(dictPaths)
	if err != nil {
		_ = det.Close()
		return nil, fmt.Errorf("load merged charset: %w", err)
	}

	runner, err := onnxrt.NewORTRunner(recPath, gpu, 0)
	if err != nil {
		_ = det.Close()
		return nil, fmt.Errorf("load recognizer model: %w", err)
	}

	rec := recognizer.NewRecognizerWithRunner(runner, charset, recognizerOptionsFromOCR(opts))
	return ocr.NewWithComponents(det, rec, opts), nil
}

func detectorOptionsFromOCR(opts ocr.Options) detector.Options {
	return detector.Options{
		CanvasSize:    opts.CanvasSize,
		MagRatio:      opts.MagRatio,
		Align:         opts.Align,
		Mean:          opts.Mean,
		Std:           opts.Std,
		TextThreshold: opts.TextThreshold,
		LowText:       opts.LowText,
		LinkThreshold: opts.LinkThreshold,
	}
}

func recognizerOptionsFromOCR(opts ocr.Options) recognizer.Options {
	return recognizer.Options{
		InputHeight: opts.Recognizer.InputHeight,
		Blank:       0,
		Clean:       recognizer.DefaultCleanOptions(),
	}
}
