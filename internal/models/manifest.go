// Package models resolves on-disk model artifacts (ONNX weights, charset
// files) and validates them against a JSON manifest before they are handed
// to the detector or recognizer.
package models

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/qduc/easyocr-go/internal/ocrerr"
)

// ManifestSchemaVersion is the only schema version this loader accepts.
const ManifestSchemaVersion = 1

// Model kinds named by a manifest entry.
const (
	KindDetector   = "detector"
	KindRecognizer = "recognizer"
)

// Manifest describes one exported model and the checksum it must match on
// disk. SHA256 and Size are computed at export time (see
// original_source/models/export_onnx.py) and verified here at load time.
type Manifest struct {
	SchemaVersion int      `json:"schema_version"`
	ModelName     string   `json:"model_name"`
	Kind          string   `json:"kind"`
	Languages     []string `json:"languages"`
	ONNXFile      string   `json:"onnx_file"`
	CharsetFile   string   `json:"charset_file,omitempty"`
	SHA256        string   `json:"sha256"`
	Size          int64    `json:"size"`
}

// LoadManifest parses the manifest JSON at path and validates its schema
// version and required fields. It does not touch the referenced artifacts;
// call Verify for that.
func LoadManifest(path string) (*Manifest, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, ocrerr.WrapErr(ocrerr.ErrModelLoad, err, "read manifest %s", path)
	}

	var m Manifest
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, ocrerr.WrapErr(ocrerr.ErrModelLoad, err, "parse manifest %s", path)
	}

	if m.SchemaVersion != ManifestSchemaVersion {
		return nil, ocrerr.Wrap(ocrerr.ErrModelLoad, "manifest %s: unsupported schema version %d", path, m.SchemaVersion)
	}
	if m.ModelName == "" || m.ONNXFile == "" {
		return nil, ocrerr.Wrap(ocrerr.ErrModelLoad, "manifest %s: missing model_name or onnx_file", path)
	}
	if m.Kind != KindDetector && m.Kind != KindRecognizer {
		return nil, ocrerr.Wrap(ocrerr.ErrModelLoad, "manifest %s: unknown kind %q", path, m.Kind)
	}

	return &m, nil
}

// ONNXPath resolves the manifest's ONNXFile relative to dir.
func (m *Manifest) ONNXPath(dir string) string {
	return filepath.Join(dir, m.ONNXFile)
}

// CharsetPath resolves the manifest's CharsetFile relative to dir, or
// returns "" if the manifest names no charset (detector manifests).
func (m *Manifest) CharsetPath(dir string) string {
	if m.CharsetFile == "" {
		return ""
	}
	return filepath.Join(dir, m.CharsetFile)
}

// Verify checksums the ONNX file named by the manifest against SHA256 and
// Size, resolving it relative to dir. It returns ErrModelLoad wrapping the
// path on any mismatch, missing file, or read failure.
func (m *Manifest) Verify(dir string) error {
	path := m.ONNXPath(dir)

	info, err := os.Stat(path)
	if err != nil {
		return ocrerr.WrapErr(ocrerr.ErrModelLoad, err, "stat model file %s", path)
	}
	if m.Size != 0 && info.Size() != m.Size {
		return ocrerr.Wrap(ocrerr.ErrModelLoad, "model file %s: size %d does not match manifest size %d", path, info.Size(), m.Size)
	}

	sum, err := sha256File(path)
	if err != nil {
		return ocrerr.WrapErr(ocrerr.ErrModelLoad, err, "checksum model file %s", path)
	}
	if m.SHA256 != "" && sum != m.SHA256 {
		return ocrerr.Wrap(ocrerr.ErrModelLoad, "model file %s: sha256 %s does not match manifest sha256 %s", path, sum, m.SHA256)
	}

	return nil
}

func sha256File(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer func() { _ = f.Close() }()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// LoadAndVerify loads the manifest at manifestPath and verifies its ONNX
// artifact checksum, resolving relative files against the manifest's own
// directory. It is the entry point detector/recognizer construction should
// use when a manifest is supplied instead of a bare model path.
func LoadAndVerify(manifestPath string) (*Manifest, string, error) {
	m, err := LoadManifest(manifestPath)
	if err != nil {
		return nil, "", err
	}

	dir := filepath.Dir(manifestPath)
	if err := m.Verify(dir); err != nil {
		return nil, "", err
	}

	return m, dir, nil
}

// String renders a compact human-readable summary of the manifest.
func (m *Manifest) String() string {
	return fmt.Sprintf("%s (%s, languages=%v, sha256=%s…)", m.ModelName, m.Kind, m.Languages, shortSHA(m.SHA256))
}

func shortSHA(sum string) string {
	if len(sum) <= 8 {
		return sum
	}
	return sum[:8]
}
