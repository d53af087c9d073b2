package config

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/qduc/easyocr-go/internal/models"
	"github.com/qduc/easyocr-go/internal/ocr"
	"github.com/qduc/easyocr-go/internal/onnxrt"
)

// Config represents the complete configuration for the ocr application. It
// includes settings for the image and serve commands (including the image
// command's batch processing of many files) and supports
// loading from a config file, environment variables, and command-line flags.
type Config struct {
	// Global settings
	ModelsDir string `mapstructure:"models_dir" yaml:"models_dir" json:"models_dir"`
	LogLevel  string `mapstructure:"log_level"  yaml:"log_level"  json:"log_level"`
	Verbose   bool   `mapstructure:"verbose"    yaml:"verbose"    json:"verbose"`

	// Pipeline configuration
	Pipeline PipelineConfig `mapstructure:"pipeline" yaml:"pipeline" json:"pipeline"`

	// Output configuration
	Output OutputConfig `mapstructure:"output" yaml:"output" json:"output"`

	// Server configuration (for serve command)
	Server ServerConfig `mapstructure:"server" yaml:"server" json:"server"`

	// Batch processing configuration
	Batch BatchConfig `mapstructure:"batch" yaml:"batch" json:"batch"`

	// Trace/debug dump configuration
	Trace TraceConfig `mapstructure:"trace" yaml:"trace" json:"trace"`

	// GPU configuration
	GPU GPUConfig `mapstructure:"gpu" yaml:"gpu" json:"gpu"`
}

// PipelineConfig mirrors internal/ocr.Options field-for-field so that a
// config file/env var/flag can override any stage of the pipeline.
type PipelineConfig struct {
	Detector   DetectorConfig   `mapstructure:"detector"   yaml:"detector"   json:"detector"`
	Recognizer RecognizerConfig `mapstructure:"recognizer" yaml:"recognizer" json:"recognizer"`
	Grouping   GroupingConfig   `mapstructure:"grouping"   yaml:"grouping"   json:"grouping"`
	Merge      MergeConfig      `mapstructure:"merge"      yaml:"merge"      json:"merge"`

	LangList  []string `mapstructure:"lang_list" yaml:"lang_list" json:"lang_list"`
	Allowlist string   `mapstructure:"allowlist" yaml:"allowlist" json:"allowlist"`
	Blocklist string   `mapstructure:"blocklist" yaml:"blocklist" json:"blocklist"`
}

// DetectorConfig contains text detection settings.
type DetectorConfig struct {
	CanvasSize    int     `mapstructure:"canvas_size"    yaml:"canvas_size"    json:"canvas_size"`
	MagRatio      float64 `mapstructure:"mag_ratio"      yaml:"mag_ratio"      json:"mag_ratio"`
	Align         int     `mapstructure:"align"          yaml:"align"          json:"align"`
	TextThreshold float64 `mapstructure:"text_threshold" yaml:"text_threshold" json:"text_threshold"`
	LowText       float64 `mapstructure:"low_text"       yaml:"low_text"       json:"low_text"`
	LinkThreshold float64 `mapstructure:"link_threshold" yaml:"link_threshold" json:"link_threshold"`
}

// RecognizerConfig contains text recognition geometry settings.
type RecognizerConfig struct {
	InputHeight   int `mapstructure:"input_height"   yaml:"input_height"   json:"input_height"`
	InputWidth    int `mapstructure:"input_width"    yaml:"input_width"    json:"input_width"`
	InputChannels int `mapstructure:"input_channels" yaml:"input_channels" json:"input_channels"`
}

// GroupingConfig contains the detected-box grouping settings used to join
// character boxes into reading-order lines before recognition.
type GroupingConfig struct {
	SlopeThreshold   float64 `mapstructure:"slope_threshold"    yaml:"slope_threshold"    json:"slope_threshold"`
	YCenterThreshold float64 `mapstructure:"y_center_threshold" yaml:"y_center_threshold" json:"y_center_threshold"`
	HeightThreshold  float64 `mapstructure:"height_threshold"   yaml:"height_threshold"   json:"height_threshold"`
	WidthThreshold   float64 `mapstructure:"width_threshold"    yaml:"width_threshold"    json:"width_threshold"`
	AddMargin        float64 `mapstructure:"add_margin"         yaml:"add_margin"         json:"add_margin"`
	MinSize          float64 `mapstructure:"min_size"           yaml:"min_size"           json:"min_size"`
}

// MergeConfig contains the post-recognition line-merge settings.
type MergeConfig struct {
	Enabled     bool    `mapstructure:"enabled"       yaml:"enabled"       json:"enabled"`
	XThreshold  float64 `mapstructure:"x_threshold"   yaml:"x_threshold"   json:"x_threshold"`
	YThreshold  float64 `mapstructure:"y_threshold"   yaml:"y_threshold"   json:"y_threshold"`
	MaxAngleDeg float64 `mapstructure:"max_angle_deg" yaml:"max_angle_deg" json:"max_angle_deg"`
}

// OutputConfig contains output formatting settings.
type OutputConfig struct {
	Format              string `mapstructure:"format"               yaml:"format"               json:"format"`
	File                string `mapstructure:"file"                 yaml:"file"                 json:"file"`
	ConfidencePrecision int    `mapstructure:"confidence_precision" yaml:"confidence_precision" json:"confidence_precision"`
}

// ServerConfig contains HTTP/websocket server settings.
type ServerConfig struct {
	Host            string `mapstructure:"host"             yaml:"host"             json:"host"`
	Port            int    `mapstructure:"port"             yaml:"port"             json:"port"`
	CORSOrigin      string `mapstructure:"cors_origin"      yaml:"cors_origin"      json:"cors_origin"`
	MaxUploadMB     int    `mapstructure:"max_upload_mb"    yaml:"max_upload_mb"    json:"max_upload_mb"`
	TimeoutSec      int    `mapstructure:"timeout_sec"      yaml:"timeout_sec"      json:"timeout_sec"`
	ShutdownTimeout int    `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout" json:"shutdown_timeout"`
}

// BatchConfig contains multi-file CLI processing settings.
type BatchConfig struct {
	Workers         int    `mapstructure:"workers"           yaml:"workers"           json:"workers"`
	OutputDir       string `mapstructure:"output_dir"        yaml:"output_dir"        json:"output_dir"`
	ContinueOnError bool   `mapstructure:"continue_on_error" yaml:"continue_on_error" json:"continue_on_error"`
}

// TraceConfig contains debug-dump (internal/trace) settings.
type TraceConfig struct {
	Enabled   bool   `mapstructure:"enabled"    yaml:"enabled"    json:"enabled"`
	Dir       string `mapstructure:"dir"        yaml:"dir"        json:"dir"`
	WebSocket bool   `mapstructure:"web_socket" yaml:"web_socket" json:"web_socket"`
}

// GPUConfig contains GPU acceleration settings.
type GPUConfig struct {
	Enabled     bool   `mapstructure:"enabled"      yaml:"enabled"      json:"enabled"`
	Device      int    `mapstructure:"device"       yaml:"device"       json:"device"`
	MemoryLimit string `mapstructure:"memory_limit" yaml:"memory_limit" json:"memory_limit"`
}

// DefaultConfig returns a configuration with sensible defaults, seeded from
// internal/ocr's own reference option values so the two never drift apart.
func DefaultConfig() Config {
	opts := ocr.DefaultOptions()
	return Config{
		ModelsDir: models.DefaultModelsDir,
		LogLevel:  "info",
		Verbose:   false,
		Pipeline: PipelineConfig{
			Detector: DetectorConfig{
				CanvasSize:    opts.CanvasSize,
				MagRatio:      opts.MagRatio,
				Align:         opts.Align,
				TextThreshold: opts.TextThreshold,
				LowText:       opts.LowText,
				LinkThreshold: opts.LinkThreshold,
			},
			Recognizer: RecognizerConfig{
				InputHeight:   opts.Recognizer.InputHeight,
				InputWidth:    opts.Recognizer.InputWidth,
				InputChannels: opts.Recognizer.InputChannels,
			},
			Grouping: GroupingConfig{
				SlopeThreshold:   opts.SlopeThreshold,
				YCenterThreshold: opts.YCenterThreshold,
				HeightThreshold:  opts.HeightThreshold,
				WidthThreshold:   opts.WidthThreshold,
				AddMargin:        opts.AddMargin,
				MinSize:          opts.MinSize,
			},
			Merge: MergeConfig{
				Enabled:     opts.MergeLines,
				XThreshold:  opts.XThreshold,
				YThreshold:  opts.YThreshold,
				MaxAngleDeg: opts.MaxAngleDeg,
			},
		},
		Output: OutputConfig{
			Format:              "text",
			ConfidencePrecision: 2,
		},
		Server: ServerConfig{
			Host:            "localhost",
			Port:            8080,
			CORSOrigin:      "*",
			MaxUploadMB:     50,
			TimeoutSec:      30,
			ShutdownTimeout: 10,
		},
		Batch: BatchConfig{
			Workers:         4,
			ContinueOnError: false,
		},
		Trace: TraceConfig{
			Enabled: false,
		},
		GPU: GPUConfig{
			Enabled:     false,
			Device:      0,
			MemoryLimit: "auto",
		},
	}
}

// Validate validates the configuration and returns the first error found.
func (c *Config) Validate() error {
	validLogLevels := []string{"debug", "info", "warn", "error"}
	if !contains(validLogLevels, c.LogLevel) {
		return fmt.Errorf("invalid log level: %s (must be one of: %s)", c.LogLevel, strings.Join(validLogLevels, ", "))
	}

	validFormats := []string{"text", "json", "csv"}
	if c.Output.Format != "" && !contains(validFormats, c.Output.Format) {
		return fmt.Errorf("invalid output format: %s (must be one of: %s)", c.Output.Format, strings.Join(validFormats, ", "))
	}

	if err := validateThreshold(c.Pipeline.Detector.TextThreshold, "detector.text_threshold"); err != nil {
		return err
	}
	if err := validateThreshold(c.Pipeline.Detector.LowText, "detector.low_text"); err != nil {
		return err
	}
	if err := validateThreshold(c.Pipeline.Detector.LinkThreshold, "detector.link_threshold"); err != nil {
		return err
	}

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d (must be between 1 and 65535)", c.Server.Port)
	}
	if c.Server.MaxUploadMB <= 0 {
		return fmt.Errorf("invalid max upload size: %d (must be positive)", c.Server.MaxUploadMB)
	}
	if c.Server.TimeoutSec <= 0 {
		return fmt.Errorf("invalid timeout: %d (must be positive)", c.Server.TimeoutSec)
	}
	if c.Batch.Workers <= 0 {
		return fmt.Errorf("invalid batch workers: %d (must be positive)", c.Batch.Workers)
	}

	if c.GPU.MemoryLimit != "auto" && c.GPU.MemoryLimit != "" {
		if err := validateMemoryLimit(c.GPU.MemoryLimit); err != nil {
			return fmt.Errorf("invalid GPU memory limit: %w", err)
		}
	}

	return nil
}

// ToOptions converts the loaded configuration into internal/ocr.Options,
// merging field-by-field onto the package's own defaults so that fields a
// config file omits keep their reference value rather than zeroing out.
func (c *Config) ToOptions() ocr.Options {
	opts := ocr.DefaultOptions()

	opts.CanvasSize = c.Pipeline.Detector.CanvasSize
	opts.MagRatio = c.Pipeline.Detector.MagRatio
	opts.Align = c.Pipeline.Detector.Align
	opts.TextThreshold = c.Pipeline.Detector.TextThreshold
	opts.LowText = c.Pipeline.Detector.LowText
	opts.LinkThreshold = c.Pipeline.Detector.LinkThreshold

	opts.Recognizer.InputHeight = c.Pipeline.Recognizer.InputHeight
	opts.Recognizer.InputWidth = c.Pipeline.Recognizer.InputWidth
	opts.Recognizer.InputChannels = c.Pipeline.Recognizer.InputChannels

	opts.SlopeThreshold = c.Pipeline.Grouping.SlopeThreshold
	opts.YCenterThreshold = c.Pipeline.Grouping.YCenterThreshold
	opts.HeightThreshold = c.Pipeline.Grouping.HeightThreshold
	opts.WidthThreshold = c.Pipeline.Grouping.WidthThreshold
	opts.AddMargin = c.Pipeline.Grouping.AddMargin
	opts.MinSize = c.Pipeline.Grouping.MinSize

	opts.MergeLines = c.Pipeline.Merge.Enabled
	opts.XThreshold = c.Pipeline.Merge.XThreshold
	opts.YThreshold = c.Pipeline.Merge.YThreshold
	opts.MaxAngleDeg = c.Pipeline.Merge.MaxAngleDeg

	opts.LangList = c.Pipeline.LangList
	opts.Allowlist = c.Pipeline.Allowlist
	opts.Blocklist = c.Pipeline.Blocklist

	return opts
}

// ToGPUConfig converts the loaded configuration into onnxrt.GPUConfig,
// merging onto onnxrt's own CPU-only default.
func (c *Config) ToGPUConfig() (onnxrt.GPUConfig, error) {
	gpu := onnxrt.DefaultGPUConfig()
	gpu.UseGPU = c.GPU.Enabled
	gpu.DeviceID = c.GPU.Device
	if c.GPU.MemoryLimit != "" && c.GPU.MemoryLimit != "auto" {
		limit, err := parseMemoryLimit(c.GPU.MemoryLimit)
		if err != nil {
			return onnxrt.GPUConfig{}, err
		}
		gpu.GPUMemLimit = limit
	}
	return gpu, nil
}

// Helper functions

// contains checks if a slice contains a string.
func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}

// validateThreshold validates that a value is between 0.0 and 1.0.
func validateThreshold(value float64, name string) error {
	if value < 0.0 || value > 1.0 {
		return fmt.Errorf("invalid %s: %.2f (must be between 0.0 and 1.0)", name, value)
	}
	return nil
}

var memoryLimitUnits = map[string]uint64{
	"B":  1,
	"KB": 1 << 10,
	"MB": 1 << 20,
	"GB": 1 << 30,
}

// validateMemoryLimit validates GPU memory limit format (e.g., "1GB", "512MB").
func validateMemoryLimit(limit string) error {
	_, err := parseMemoryLimit(limit)
	return err
}

// parseMemoryLimit parses a string like "512MB" or "1GB" into bytes.
func parseMemoryLimit(limit string) (uint64, error) {
	upper := strings.ToUpper(limit)
	for _, unit := range []string{"GB", "MB", "KB", "B"} {
		if !strings.HasSuffix(upper, unit) {
			continue
		}
		numStr := strings.TrimSuffix(upper, unit)
		n, err := strconv.ParseFloat(numStr, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid number in memory limit: %s", limit)
		}
		return uint64(n * float64(memoryLimitUnits[unit])), nil
	}
	return 0, fmt.Errorf("memory limit must end with one of: B, KB, MB, GB")
}
