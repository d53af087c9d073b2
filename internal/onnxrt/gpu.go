package onnxrt

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"

	"github.com/yalue/onnxruntime_go"
)

const (
	osLinux    = "linux"
	osDarwin   = "darwin"
	osWindows  = "windows"
	libLinux   = "libonnxruntime.so"
	libDarwin  = "libonnxruntime.dylib"
	libWindows = "onnxruntime.dll"
)

// GPUConfig holds configuration for GPU acceleration using CUDA.
type GPUConfig struct {
	UseGPU                bool
	DeviceID              int
	GPUMemLimit           uint64
	ArenaExtendStrategy   string
	CUDNNConvAlgoSearch   string
	DoCopyInDefaultStream bool
}

// DefaultGPUConfig returns the CPU-only default.
func DefaultGPUConfig() GPUConfig {
	return GPUConfig{
		UseGPU:                false,
		DeviceID:              0,
		GPUMemLimit:           0,
		ArenaExtendStrategy:   "kNextPowerOfTwo",
		CUDNNConvAlgoSearch:   "DEFAULT",
		DoCopyInDefaultStream: true,
	}
}

// ConfigureSessionForGPU appends a CUDA execution provider to sessionOptions
// when gpuConfig.UseGPU is set; otherwise it is a no-op (CPU-only).
func ConfigureSessionForGPU(sessionOptions *onnxruntime_go.SessionOptions, gpuConfig GPUConfig) error {
	if !gpuConfig.UseGPU {
		return nil
	}

	cudaOpts, err := onnxruntime_go.NewCUDAProviderOptions()
	if err != nil {
		return fmt.Errorf("onnxrt: create CUDA provider options (GPU may be unavailable): %w", err)
	}
	defer func() {
		_ = cudaOpts.Destroy()
	}()

	settings := map[string]string{
		"device_id": strconv.Itoa(gpuConfig.DeviceID),
	}
	if gpuConfig.GPUMemLimit > 0 {
		settings["gpu_mem_limit"] = strconv.FormatUint(gpuConfig.GPUMemLimit, 10)
	}
	if gpuConfig.ArenaExtendStrategy != "" {
		settings["arena_extend_strategy"] = gpuConfig.ArenaExtendStrategy
	}
	if gpuConfig.CUDNNConvAlgoSearch != "" {
		settings["cudnn_conv_algo_search"] = gpuConfig.CUDNNConvAlgoSearch
	}
	if gpuConfig.DoCopyInDefaultStream {
		settings["do_copy_in_default_stream"] = "1"
	} else {
		settings["do_copy_in_default_stream"] = "0"
	}

	if err := cudaOpts.Update(settings); err != nil {
		return fmt.Errorf("onnxrt: update CUDA provider options: %w", err)
	}
	if err := sessionOptions.AppendExecutionProviderCUDA(cudaOpts); err != nil {
		return fmt.Errorf("onnxrt: append CUDA execution provider: %w", err)
	}
	return nil
}

// ValidateGPUConfig checks a GPUConfig for internally inconsistent values.
func ValidateGPUConfig(config GPUConfig) error {
	if !config.UseGPU {
		return nil
	}
	if config.DeviceID < 0 {
		return fmt.Errorf("onnxrt: device ID must be non-negative, got %d", config.DeviceID)
	}
	validStrategies := map[string]bool{"kNextPowerOfTwo": true, "kSameAsRequested": true}
	if config.ArenaExtendStrategy != "" && !validStrategies[config.ArenaExtendStrategy] {
		return fmt.Errorf("onnxrt: invalid arena extend strategy %q", config.ArenaExtendStrategy)
	}
	validAlgo := map[string]bool{"EXHAUSTIVE": true, "HEURISTIC": true, "DEFAULT": true}
	if config.CUDNNConvAlgoSearch != "" && !validAlgo[config.CUDNNConvAlgoSearch] {
		return fmt.Errorf("onnxrt: invalid cuDNN conv algo search %q", config.CUDNNConvAlgoSearch)
	}
	return nil
}

func getSystemLibraryPaths(useGPU bool) []string {
	if useGPU {
		return []string{
			"/opt/onnxruntime/gpu/lib/libonnxruntime.so",
			"/usr/local/lib/libonnxruntime.so",
			"/usr/lib/libonnxruntime.so",
			"/opt/onnxruntime/cpu/lib/libonnxruntime.so",
		}
	}
	return []string{
		"/usr/local/lib/libonnxruntime.so",
		"/usr/lib/libonnxruntime.so",
		"/opt/onnxruntime/cpu/lib/libonnxruntime.so",
	}
}

func findProjectRoot() (string, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("onnxrt: get working directory: %w", err)
	}
	root := cwd
	for {
		if _, err := os.Stat(filepath.Join(root, "go.mod")); err == nil {
			return root, nil
		}
		parent := filepath.Dir(root)
		if parent == root {
			return "", errors.New("onnxrt: could not find project root (no go.mod)")
		}
		root = parent
	}
}

func getLibraryName() (string, error) {
	switch runtime.GOOS {
	case osLinux:
		return libLinux, nil
	case osDarwin:
		return libDarwin, nil
	case osWindows:
		return libWindows, nil
	default:
		return "", fmt.Errorf("onnxrt: unsupported operating system %s", runtime.GOOS)
	}
}

func trySetLibraryPath(path string) bool {
	if _, err := os.Stat(path); err == nil {
		onnxruntime_go.SetSharedLibraryPath(path)
		return true
	}
	return false
}

// SetLibraryPath locates and registers the ONNX Runtime shared library,
// preferring GPU builds when useGPU is set, falling back to project-relative
// onnxruntime/{gpu,}/lib paths when no system install is found.
func SetLibraryPath(useGPU bool) error {
	for _, path := range getSystemLibraryPaths(useGPU) {
		if trySetLibraryPath(path) {
			return nil
		}
	}

	root, err := findProjectRoot()
	if err != nil {
		return err
	}
	libName, err := getLibraryName()
	if err != nil {
		return err
	}

	if useGPU {
		if trySetLibraryPath(filepath.Join(root, "onnxruntime", "gpu", "lib", libName)) {
			return nil
		}
	}
	libPath := filepath.Join(root, "onnxruntime", "lib", libName)
	if !trySetLibraryPath(libPath) {
		return fmt.Errorf("onnxrt: ONNX Runtime library not found at %s", libPath)
	}
	return nil
}
