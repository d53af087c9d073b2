package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// clearEasyOCREnvVars clears all EASYOCR_ environment variables set by a test.
func clearEasyOCREnvVars() {
	for _, env := range os.Environ() {
		if strings.HasPrefix(env, "EASYOCR_") {
			parts := strings.SplitN(env, "=", 2)
			if len(parts) > 0 {
				_ = os.Unsetenv(parts[0])
			}
		}
	}
}

func chdirTemp(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	originalWd, err := os.Getwd()
	require.NoError(t, err)
	t.Cleanup(func() { _ = os.Chdir(originalWd) })
	require.NoError(t, os.Chdir(dir))
	return dir
}

func TestNewLoader(t *testing.T) {
	loader := NewLoader()
	require.NotNil(t, loader)
	require.NotNil(t, loader.v)
}

func TestLoadWithNoConfigFile(t *testing.T) {
	clearEasyOCREnvVars()
	chdirTemp(t)

	loader := NewLoader()
	cfg, err := loader.Load()
	require.NoError(t, err)
	require.NotNil(t, cfg)

	require.Equal(t, "info", cfg.LogLevel)
	require.Equal(t, 8080, cfg.Server.Port)
}

func TestLoadWithValidYAMLFile(t *testing.T) {
	tmpDir := t.TempDir()
	configFile := filepath.Join(tmpDir, "easyocr.yaml")

	yamlContent := `
log_level: debug
verbose: true
models_dir: /custom/models
server:
  host: 0.0.0.0
  port: 9090
pipeline:
  detector:
    text_threshold: 0.55
  merge:
    enabled: true
`
	require.NoError(t, os.WriteFile(configFile, []byte(yamlContent), 0o644))

	loader := NewLoader()
	cfg, err := loader.LoadWithFile(configFile)
	require.NoError(t, err)

	require.Equal(t, "debug", cfg.LogLevel)
	require.True(t, cfg.Verbose)
	require.Equal(t, "/custom/models", cfg.ModelsDir)
	require.Equal(t, "0.0.0.0", cfg.Server.Host)
	require.Equal(t, 9090, cfg.Server.Port)
	require.Equal(t, 0.55, cfg.Pipeline.Detector.TextThreshold)
	require.True(t, cfg.Pipeline.Merge.Enabled)
}

func TestLoadWithInvalidYAMLFile(t *testing.T) {
	tmpDir := t.TempDir()
	configFile := filepath.Join(tmpDir, "easyocr.yaml")

	invalidYAML := "log_level: debug\n  invalid indentation\n    more bad indentation\n"
	require.NoError(t, os.WriteFile(configFile, []byte(invalidYAML), 0o644))

	loader := NewLoader()
	_, err := loader.LoadWithFile(configFile)
	require.Error(t, err)
}

func TestLoadWithNonExistentFile(t *testing.T) {
	loader := NewLoader()
	_, err := loader.LoadWithFile("/nonexistent/path/to/config.yaml")
	require.Error(t, err)
}

func TestLoadWithValidationFailure(t *testing.T) {
	clearEasyOCREnvVars()

	tmpDir := t.TempDir()
	configFile := filepath.Join(tmpDir, "easyocr.yaml")

	yamlContent := "log_level: invalid_level\nserver:\n  port: 0\n"
	require.NoError(t, os.WriteFile(configFile, []byte(yamlContent), 0o644))

	loader := NewLoader()
	_, err := loader.LoadWithFile(configFile)
	require.Error(t, err)
}

func TestLoadWithoutValidation(t *testing.T) {
	clearEasyOCREnvVars()
	t.Cleanup(clearEasyOCREnvVars)

	tmpDir := t.TempDir()
	configFile := filepath.Join(tmpDir, "easyocr.yaml")

	yamlContent := "log_level: invalid_level\nserver:\n  port: -1\npipeline:\n  detector:\n    text_threshold: 5.0\n"
	require.NoError(t, os.WriteFile(configFile, []byte(yamlContent), 0o644))

	loader := NewLoader()
	cfg, err := loader.LoadWithFileWithoutValidation(configFile)
	require.NoError(t, err)
	require.NotNil(t, cfg)

	require.Equal(t, "invalid_level", cfg.LogLevel)
	require.Equal(t, -1, cfg.Server.Port)
}

func TestEnvironmentVariableOverride(t *testing.T) {
	clearEasyOCREnvVars()
	t.Cleanup(clearEasyOCREnvVars)

	envVars := map[string]string{
		"EASYOCR_LOG_LEVEL":   "debug",
		"EASYOCR_SERVER_PORT": "9999",
		"EASYOCR_VERBOSE":     "true",
	}
	for key, value := range envVars {
		require.NoError(t, os.Setenv(key, value))
	}

	chdirTemp(t)

	loader := NewLoader()
	cfg, err := loader.Load()
	require.NoError(t, err)
	require.NotNil(t, cfg)

	require.Equal(t, "debug", cfg.LogLevel)
	require.Equal(t, 9999, cfg.Server.Port)
	require.True(t, cfg.Verbose)
}

func TestEnvironmentVariableWithUnderscores(t *testing.T) {
	clearEasyOCREnvVars()
	t.Cleanup(clearEasyOCREnvVars)

	envVars := map[string]string{
		"EASYOCR_PIPELINE_DETECTOR_TEXT_THRESHOLD": "0.45",
		"EASYOCR_PIPELINE_MERGE_ENABLED":           "true",
		"EASYOCR_PIPELINE_MERGE_MAX_ANGLE_DEG":     "15",
	}
	for key, value := range envVars {
		require.NoError(t, os.Setenv(key, value))
	}

	chdirTemp(t)

	loader := NewLoader()
	cfg, err := loader.Load()
	require.NoError(t, err)
	require.NotNil(t, cfg)

	require.Equal(t, 0.45, cfg.Pipeline.Detector.TextThreshold)
	require.True(t, cfg.Pipeline.Merge.Enabled)
	require.Equal(t, 15.0, cfg.Pipeline.Merge.MaxAngleDeg)
}

func TestGetSetConfigValues(t *testing.T) {
	loader := NewLoader()

	loader.Set("test_key", "test_value")
	require.Equal(t, "test_value", loader.GetString("test_key"))
	require.Equal(t, "test_value", loader.Get("test_key"))
}

func TestGetConfigFileUsed(t *testing.T) {
	tmpDir := t.TempDir()
	configFile := filepath.Join(tmpDir, "easyocr.yaml")
	require.NoError(t, os.WriteFile(configFile, []byte("log_level: debug"), 0o644))

	loader := NewLoader()
	_, err := loader.LoadWithFile(configFile)
	require.NoError(t, err)
	require.Equal(t, configFile, loader.GetConfigFileUsed())
}

func TestGetViper(t *testing.T) {
	loader := NewLoader()
	require.NotNil(t, loader.GetViper())
	require.Same(t, loader.v, loader.GetViper())
}

func TestGetResolvedConfig(t *testing.T) {
	loader := NewLoader()
	loader.Set("test_key", "test_value")

	resolved := loader.GetResolvedConfig()
	require.NotNil(t, resolved)
	require.Equal(t, "test_value", resolved["test_key"])
}

func TestWriteConfigToFile(t *testing.T) {
	tmpDir := t.TempDir()
	outputFile := filepath.Join(tmpDir, "output.yaml")

	loader := NewLoader()
	loader.Set("log_level", "debug")
	loader.Set("verbose", true)

	require.NoError(t, loader.WriteConfigToFile(outputFile))
	require.FileExists(t, outputFile)
}

func TestGenerateDefaultConfigFile(t *testing.T) {
	tmpDir := t.TempDir()
	outputFile := filepath.Join(tmpDir, "default.yaml")

	require.NoError(t, GenerateDefaultConfigFile(outputFile))
	require.FileExists(t, outputFile)

	loader := NewLoader()
	cfg, err := loader.LoadWithFile(outputFile)
	require.NoError(t, err)
	require.NotNil(t, cfg)
}

func TestGenerateDefaultConfigFileWithEmptyFilename(t *testing.T) {
	tmpDir := chdirTemp(t)

	require.NoError(t, GenerateDefaultConfigFile(""))
	require.FileExists(t, filepath.Join(tmpDir, "easyocr.yaml"))
}

func TestGetConfigSearchPaths(t *testing.T) {
	paths := GetConfigSearchPaths()
	require.NotEmpty(t, paths)
	require.Contains(t, paths, ".")
}

func TestPrintConfigInfo(t *testing.T) {
	loader := NewLoader()
	loader.PrintConfigInfo()
}

func TestLoadWithEmptyConfigFile(t *testing.T) {
	clearEasyOCREnvVars()

	tmpDir := t.TempDir()
	configFile := filepath.Join(tmpDir, "easyocr.yaml")
	require.NoError(t, os.WriteFile(configFile, []byte(""), 0o644))

	loader := NewLoader()
	cfg, err := loader.LoadWithFile(configFile)
	require.NoError(t, err)
	require.Equal(t, "info", cfg.LogLevel)
}

func TestMultipleConfigSourcesPrecedence(t *testing.T) {
	clearEasyOCREnvVars()
	t.Cleanup(clearEasyOCREnvVars)

	tmpDir := t.TempDir()
	configFile := filepath.Join(tmpDir, "easyocr.yaml")
	require.NoError(t, os.WriteFile(configFile, []byte("log_level: warn"), 0o644))

	require.NoError(t, os.Setenv("EASYOCR_LOG_LEVEL", "debug"))

	loader := NewLoader()
	cfg, err := loader.LoadWithFile(configFile)
	require.NoError(t, err)
	require.Equal(t, "debug", cfg.LogLevel)
}

func TestLoadWithEmptyFilenameUsesDefaultLoad(t *testing.T) {
	clearEasyOCREnvVars()
	chdirTemp(t)

	loader := NewLoader()
	cfg, err := loader.LoadWithFile("")
	require.NoError(t, err)
	require.NotNil(t, cfg)
	require.Equal(t, "info", cfg.LogLevel)
}

func TestLoadWithoutValidationUsesDefaults(t *testing.T) {
	clearEasyOCREnvVars()
	chdirTemp(t)

	loader := NewLoader()
	cfg, err := loader.LoadWithoutValidation()
	require.NoError(t, err)
	require.NotNil(t, cfg)
	require.Equal(t, "info", cfg.LogLevel)
}

func TestLoadWithFileWithoutValidationEmptyString(t *testing.T) {
	chdirTemp(t)

	loader := NewLoader()
	cfg, err := loader.LoadWithFileWithoutValidation("")
	require.NoError(t, err)
	require.NotNil(t, cfg)
}
