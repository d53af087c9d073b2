package models

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func expectedDetectorDefault() string {
	base := DefaultModelsDir
	if projectRoot, err := findProjectRoot(); err == nil {
		base = filepath.Join(projectRoot, DefaultModelsDir)
	}
	if organized := filepath.Join(base, TypeDetector, DetectionModel); fileExists(organized) {
		return organized
	}
	return filepath.Join(base, DetectionModel)
}

func expectedRecognizerDefault() string {
	base := DefaultModelsDir
	if projectRoot, err := findProjectRoot(); err == nil {
		base = filepath.Join(projectRoot, DefaultModelsDir)
	}
	if organized := filepath.Join(base, TypeRecognizer, RecognitionModel); fileExists(organized) {
		return organized
	}
	return filepath.Join(base, RecognitionModel)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func TestGetModelsDir(t *testing.T) {
	tests := []struct {
		name           string
		explicitDir    string
		envVar         string
		expectedResult string
	}{
		{
			name:           "explicit directory takes precedence",
			explicitDir:    "/explicit/path",
			envVar:         "/env/path",
			expectedResult: "/explicit/path",
		},
		{
			name:           "environment variable used when no explicit dir",
			explicitDir:    "",
			envVar:         "/env/path",
			expectedResult: "/env/path",
		},
		{
			name:           "default used when neither provided",
			explicitDir:    "",
			envVar:         "",
			expectedResult: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.envVar != "" {
				require.NoError(t, os.Setenv(EnvModelsDir, tt.envVar))
			} else {
				require.NoError(t, os.Unsetenv(EnvModelsDir))
			}
			defer func() {
				require.NoError(t, os.Unsetenv(EnvModelsDir))
			}()
			result := GetModelsDir(tt.explicitDir)

			expectedResult := tt.expectedResult
			if expectedResult == "" {
				base := DefaultModelsDir
				if projectRoot, err := findProjectRoot(); err == nil {
					base = filepath.Join(projectRoot, DefaultModelsDir)
				}
				expectedResult = base
			}

			assert.Equal(t, expectedResult, result)
		})
	}
}

func TestGetDetectorModelPath(t *testing.T) {
	result := GetDetectorModelPath("/custom")
	assert.Equal(t, filepath.Join("/custom", DetectionModel), result)

	result = GetDetectorModelPath("")
	assert.Equal(t, expectedDetectorDefault(), result)
}

func TestGetRecognizerModelPath(t *testing.T) {
	result := GetRecognizerModelPath("/custom")
	assert.Equal(t, filepath.Join("/custom", RecognitionModel), result)

	result = GetRecognizerModelPath("")
	assert.Equal(t, expectedRecognizerDefault(), result)
}

func TestGetDictionaryPath(t *testing.T) {
	result := GetDictionaryPath("", DefaultDictionary)
	modelsDir := DefaultModelsDir
	if projectRoot, err := findProjectRoot(); err == nil {
		modelsDir = filepath.Join(projectRoot, DefaultModelsDir)
	}
	expected := filepath.Join(modelsDir, DefaultDictionary)
	if organized := filepath.Join(modelsDir, TypeDictionaries, DefaultDictionary); fileExists(organized) {
		expected = organized
	}
	assert.Equal(t, expected, result)

	result = GetDictionaryPath("/custom", DefaultDictionary)
	expected = filepath.Join("/custom", DefaultDictionary)
	assert.Equal(t, expected, result)
}

func TestGetManifestPath(t *testing.T) {
	result := GetManifestPath("/custom", TypeDetector)
	assert.Equal(t, filepath.Join("/custom", ManifestFilename), result)
}

func TestListAvailableModels(t *testing.T) {
	list := ListAvailableModels()
	assert.NotEmpty(t, list)

	var hasDetector, hasRecognizer, hasDictionary bool
	for _, model := range list {
		switch model.Type {
		case TypeDetector:
			hasDetector = true
		case TypeRecognizer:
			hasRecognizer = true
		case TypeDictionaries:
			hasDictionary = true
		}
		assert.NotEmpty(t, model.Name)
		assert.NotEmpty(t, model.Filename)
		assert.NotEmpty(t, model.Description)
	}

	assert.True(t, hasDetector, "should have a detector model")
	assert.True(t, hasRecognizer, "should have a recognizer model")
	assert.True(t, hasDictionary, "should have a dictionary entry")
}

func TestResolveModelPath_BackwardCompatibility(t *testing.T) {
	result := ResolveModelPath("/nonexistent", TypeDetector, DetectionModel)
	expected := filepath.Join("/nonexistent", DetectionModel)
	assert.Equal(t, expected, result)
}

func TestResolveModelPath_EmptyModelType(t *testing.T) {
	result := ResolveModelPath("/test", "", "some_model.onnx")
	expected := filepath.Join("/test", "some_model.onnx")
	assert.Equal(t, expected, result)
}

func TestValidateModelExists(t *testing.T) {
	tmpFile, err := os.CreateTemp("", "model_test_*.onnx")
	require.NoError(t, err)
	tmpPath := tmpFile.Name()
	_ = tmpFile.Close()
	defer func() { _ = os.Remove(tmpPath) }()

	tests := []struct {
		name      string
		modelPath string
		wantErr   bool
	}{
		{name: "existing model file", modelPath: tmpPath, wantErr: false},
		{name: "non-existent model file", modelPath: "/nonexistent/path/to/model.onnx", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateModelExists(tt.modelPath)
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), "model file not found")
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestGetDictionaryPathsForLanguages(t *testing.T) {
	tmpDir, err := os.MkdirTemp("", "dict_test_*")
	require.NoError(t, err)
	defer func() { _ = os.RemoveAll(tmpDir) }()

	dictDir := filepath.Join(tmpDir, TypeDictionaries)
	require.NoError(t, os.MkdirAll(dictDir, 0o755))

	enDict := filepath.Join(dictDir, "charset_en.txt")
	require.NoError(t, os.WriteFile(enDict, []byte("test"), 0o644))

	frDict := filepath.Join(dictDir, "fr.txt")
	require.NoError(t, os.WriteFile(frDict, []byte("test"), 0o644))

	defaultDict := filepath.Join(dictDir, DefaultDictionary)
	require.NoError(t, os.WriteFile(defaultDict, []byte("test"), 0o644))

	tests := []struct {
		name          string
		languages     []string
		expectedCount int
		shouldContain []string
	}{
		{
			name:          "single language with existing charset",
			languages:     []string{"en"},
			expectedCount: 1,
			shouldContain: []string{enDict, defaultDict},
		},
		{
			name:          "multiple languages, one alternative-pattern match",
			languages:     []string{"en", "fr"},
			expectedCount: 2,
			shouldContain: []string{enDict, frDict, defaultDict},
		},
		{
			name:          "non-existent language falls back to default",
			languages:     []string{"zz"},
			expectedCount: 1,
			shouldContain: []string{defaultDict},
		},
		{
			name:          "empty languages returns default",
			languages:     []string{},
			expectedCount: 1,
			shouldContain: []string{defaultDict},
		},
		{
			name:          "duplicate languages deduplicated",
			languages:     []string{"en", "en"},
			expectedCount: 1,
			shouldContain: []string{enDict, defaultDict},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := GetDictionaryPathsForLanguages(tmpDir, tt.languages)
			assert.Len(t, result, tt.expectedCount)
			for _, expectedPath := range tt.shouldContain {
				assert.Contains(t, result, expectedPath)
			}

			seen := make(map[string]bool)
			for _, path := range result {
				assert.False(t, seen[path], "found duplicate path: %s", path)
				seen[path] = true
			}
		})
	}
}

func TestGetDictionaryPathsForLanguages_NoDefaultFallback(t *testing.T) {
	tmpDir, err := os.MkdirTemp("", "dict_empty_test_*")
	require.NoError(t, err)
	defer func() { _ = os.RemoveAll(tmpDir) }()

	result := GetDictionaryPathsForLanguages(tmpDir, []string{"en", "fr"})
	assert.Empty(t, result)
}

func TestFindProjectRoot(t *testing.T) {
	root, err := findProjectRoot()
	if err == nil {
		goModPath := filepath.Join(root, "go.mod")
		_, statErr := os.Stat(goModPath)
		assert.NoError(t, statErr, "go.mod should exist at project root")
	}
}

func TestModelConstants(t *testing.T) {
	assert.NotEmpty(t, DetectionModel)
	assert.NotEmpty(t, RecognitionModel)
	assert.NotEmpty(t, DefaultDictionary)
	assert.NotEmpty(t, ManifestFilename)

	assert.NotEmpty(t, TypeDetector)
	assert.NotEmpty(t, TypeRecognizer)
	assert.NotEmpty(t, TypeDictionaries)

	assert.NotEmpty(t, EnvModelsDir)
	assert.NotEmpty(t, DefaultModelsDir)
}
