package models

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// Default filenames for the two ONNX models this pipeline loads, matching
// the names original_source/models/export_onnx.py writes.
const (
	DetectionModel    = "craft_mlt_25k.onnx"
	RecognitionModel  = "recognizer.onnx"
	DefaultDictionary = "charset_en.txt"
	ManifestFilename  = "manifest.json"
)

// Model type categories for the organized directory structure.
const (
	TypeDetector     = "detector"
	TypeRecognizer   = "recognizer"
	TypeDictionaries = "dictionaries"
)

// Default models directory.
const DefaultModelsDir = "models"

// Environment variable for models directory override.
const EnvModelsDir = "EASYOCR_MODELS_DIR"

// findProjectRoot finds the project root by looking for go.mod.
func findProjectRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return "", errors.New("could not find project root (go.mod not found)")
}

// ModelInfo describes one resolvable artifact under the models directory.
type ModelInfo struct {
	Name        string
	Type        string
	Description string
	Filename    string
}

// GetModelsDir returns the models directory path. Priority: explicit
// modelsDir parameter, then EnvModelsDir, then project root + default.
func GetModelsDir(modelsDir string) string {
	if modelsDir != "" {
		return modelsDir
	}

	if envDir := os.Getenv(EnvModelsDir); envDir != "" {
		return envDir
	}

	if projectRoot, err := findProjectRoot(); err == nil {
		return filepath.Join(projectRoot, DefaultModelsDir)
	}

	return DefaultModelsDir
}

// ResolveModelPath resolves a filename under the models directory's
// per-kind subdirectory, falling back to the flat directory layout when the
// organized path does not exist on disk.
func ResolveModelPath(modelsDir, modelType, filename string) string {
	baseDir := GetModelsDir(modelsDir)

	if modelType != "" {
		organizedPath := filepath.Join(baseDir, modelType, filename)
		if _, err := os.Stat(organizedPath); err == nil {
			return organizedPath
		}
	}

	return filepath.Join(baseDir, filename)
}

// GetDetectorModelPath returns the resolved path of the CRAFT detector ONNX file.
func GetDetectorModelPath(modelsDir string) string {
	return ResolveModelPath(modelsDir, TypeDetector, DetectionModel)
}

// GetRecognizerModelPath returns the resolved path of the CRNN recognizer ONNX file.
func GetRecognizerModelPath(modelsDir string) string {
	return ResolveModelPath(modelsDir, TypeRecognizer, RecognitionModel)
}

// GetDictionaryPath returns the resolved path of a charset file.
func GetDictionaryPath(modelsDir, filename string) string {
	return ResolveModelPath(modelsDir, TypeDictionaries, filename)
}

// GetManifestPath returns the resolved path of a model kind's manifest.json.
func GetManifestPath(modelsDir, modelType string) string {
	return ResolveModelPath(modelsDir, modelType, ManifestFilename)
}

// ValidateModelExists checks if a model file exists at the given path.
func ValidateModelExists(modelPath string) error {
	if _, err := os.Stat(modelPath); os.IsNotExist(err) {
		return fmt.Errorf("model file not found: %s", modelPath)
	}
	return nil
}

// ListAvailableModels returns metadata about the artifacts this pipeline
// resolves by default.
func ListAvailableModels() []ModelInfo {
	return []ModelInfo{
		{
			Name:        "craft-detector",
			Type:        TypeDetector,
			Description: "CRAFT text detection model",
			Filename:    DetectionModel,
		},
		{
			Name:        "crnn-recognizer",
			Type:        TypeRecognizer,
			Description: "CRNN+CTC text recognition model",
			Filename:    RecognitionModel,
		},
		{
			Name:        "default-charset",
			Type:        TypeDictionaries,
			Description: "Default English charset",
			Filename:    DefaultDictionary,
		},
	}
}

// GetDictionaryPathsForLanguages tries to resolve charset files for the
// given language codes under modelsDir/dictionaries, then appends the
// default charset whenever it exists, whether or not a language-specific
// file was found. Only existing files are returned; the list is
// de-duplicated and ordered by the input languages, default last.
func GetDictionaryPathsForLanguages(modelsDir string, languages []string) []string {
	base := GetModelsDir(modelsDir)
	out := make([]string, 0, len(languages)+1)
	seen := make(map[string]struct{}, len(languages)+1)
	tryAdd := func(p string) {
		if p == "" {
			return
		}
		if _, err := os.Stat(p); err == nil {
			if _, ok := seen[p]; !ok {
				seen[p] = struct{}{}
				out = append(out, p)
			}
		}
	}
	for _, lang := range languages {
		if lang == "" {
			continue
		}
		tryAdd(filepath.Join(base, TypeDictionaries, "charset_"+lang+".txt"))
		tryAdd(filepath.Join(base, TypeDictionaries, lang+".txt"))
	}
	def := GetDictionaryPath(base, DefaultDictionary)
	if _, err := os.Stat(def); err == nil {
		if _, ok := seen[def]; !ok {
			out = append(out, def)
		}
	}
	return out
}
