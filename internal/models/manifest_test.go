package models

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeManifest(t *testing.T, dir string, m Manifest) string {
	t.Helper()
	raw, err := json.Marshal(m)
	require.NoError(t, err)
	path := filepath.Join(dir, "manifest.json")
	require.NoError(t, os.WriteFile(path, raw, 0o644))
	return path
}

func writeModelFile(t *testing.T, dir, name string, content []byte) (path, sum string, size int64) {
	t.Helper()
	path = filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, content, 0o644))
	h := sha256.Sum256(content)
	return path, hex.EncodeToString(h[:]), int64(len(content))
}

func TestLoadManifest_Valid(t *testing.T) {
	dir := t.TempDir()
	manifestPath := writeManifest(t, dir, Manifest{
		SchemaVersion: 1,
		ModelName:     "crnn-recognizer",
		Kind:          KindRecognizer,
		Languages:     []string{"en"},
		ONNXFile:      "recognizer.onnx",
		CharsetFile:   "charset_en.txt",
		SHA256:        "deadbeef",
		Size:          4,
	})

	m, err := LoadManifest(manifestPath)
	require.NoError(t, err)
	require.Equal(t, "crnn-recognizer", m.ModelName)
	require.Equal(t, KindRecognizer, m.Kind)
}

func TestLoadManifest_RejectsUnsupportedSchemaVersion(t *testing.T) {
	dir := t.TempDir()
	manifestPath := writeManifest(t, dir, Manifest{
		SchemaVersion: 2,
		ModelName:     "x",
		Kind:          KindDetector,
		ONNXFile:      "x.onnx",
	})

	_, err := LoadManifest(manifestPath)
	require.Error(t, err)
}

func TestLoadManifest_RejectsMissingFields(t *testing.T) {
	dir := t.TempDir()
	manifestPath := writeManifest(t, dir, Manifest{SchemaVersion: 1, Kind: KindDetector})

	_, err := LoadManifest(manifestPath)
	require.Error(t, err)
}

func TestLoadManifest_RejectsUnknownKind(t *testing.T) {
	dir := t.TempDir()
	manifestPath := writeManifest(t, dir, Manifest{
		SchemaVersion: 1,
		ModelName:     "x",
		Kind:          "classifier",
		ONNXFile:      "x.onnx",
	})

	_, err := LoadManifest(manifestPath)
	require.Error(t, err)
}

func TestLoadManifest_MissingFile(t *testing.T) {
	_, err := LoadManifest(filepath.Join(t.TempDir(), "nope.json"))
	require.Error(t, err)
}

func TestManifestVerify_Succeeds(t *testing.T) {
	dir := t.TempDir()
	_, sum, size := writeModelFile(t, dir, "recognizer.onnx", []byte("fake-onnx-bytes"))

	m := &Manifest{
		SchemaVersion: 1,
		ModelName:     "crnn-recognizer",
		Kind:          KindRecognizer,
		ONNXFile:      "recognizer.onnx",
		SHA256:        sum,
		Size:          size,
	}

	require.NoError(t, m.Verify(dir))
}

func TestManifestVerify_RejectsChecksumMismatch(t *testing.T) {
	dir := t.TempDir()
	_, _, size := writeModelFile(t, dir, "recognizer.onnx", []byte("fake-onnx-bytes"))

	m := &Manifest{
		SchemaVersion: 1,
		ModelName:     "crnn-recognizer",
		Kind:          KindRecognizer,
		ONNXFile:      "recognizer.onnx",
		SHA256:        "0000000000000000000000000000000000000000000000000000000000000",
		Size:          size,
	}

	err := m.Verify(dir)
	require.Error(t, err)
}

func TestManifestVerify_RejectsSizeMismatch(t *testing.T) {
	dir := t.TempDir()
	_, sum, _ := writeModelFile(t, dir, "recognizer.onnx", []byte("fake-onnx-bytes"))

	m := &Manifest{
		SchemaVersion: 1,
		ModelName:     "crnn-recognizer",
		Kind:          KindRecognizer,
		ONNXFile:      "recognizer.onnx",
		SHA256:        sum,
		Size:          999999,
	}

	err := m.Verify(dir)
	require.Error(t, err)
}

func TestManifestVerify_RejectsMissingFile(t *testing.T) {
	dir := t.TempDir()
	m := &Manifest{
		SchemaVersion: 1,
		ModelName:     "crnn-recognizer",
		Kind:          KindRecognizer,
		ONNXFile:      "missing.onnx",
		SHA256:        "anything",
	}

	err := m.Verify(dir)
	require.Error(t, err)
}

func TestLoadAndVerify_EndToEnd(t *testing.T) {
	dir := t.TempDir()
	_, sum, size := writeModelFile(t, dir, "craft_mlt_25k.onnx", []byte("detector-bytes"))
	manifestPath := writeManifest(t, dir, Manifest{
		SchemaVersion: 1,
		ModelName:     "craft-detector",
		Kind:          KindDetector,
		ONNXFile:      "craft_mlt_25k.onnx",
		SHA256:        sum,
		Size:          size,
	})

	m, resolvedDir, err := LoadAndVerify(manifestPath)
	require.NoError(t, err)
	require.Equal(t, dir, resolvedDir)
	require.Equal(t, "craft-detector", m.ModelName)
}

func TestManifestONNXPathAndCharsetPath(t *testing.T) {
	m := &Manifest{ONNXFile: "recognizer.onnx", CharsetFile: "charset_en.txt"}
	require.Equal(t, filepath.Join("/models", "recognizer.onnx"), m.ONNXPath("/models"))
	require.Equal(t, filepath.Join("/models", "charset_en.txt"), m.CharsetPath("/models"))

	detectorManifest := &Manifest{ONNXFile: "craft_mlt_25k.onnx"}
	require.Equal(t, "", detectorManifest.CharsetPath("/models"))
}
