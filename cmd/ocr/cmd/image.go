package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/qduc/easyocr-go/internal/pipeline"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	outputFormatText = "text"
	outputFormatJSON = "json"
	outputFormatCSV  = "csv"
)

// imageCmd processes one or more image files (or directories of images) and
// prints the recognized text.
var imageCmd = &cobra.Command{
	Use:   "image [files or directories...]",
	Short: "Run OCR over one or more images",
	Long: `Run text detection and recognition over image files.

A bare file path is processed directly; a directory is scanned for image
files (non-recursively unless --recursive is given). Multiple paths may be
mixed.

Examples:
  easyocr image photo.jpg
  easyocr image images/ --recursive --format json
  easyocr image *.png --workers 4 --output results.csv --format csv`,
	Args:         cobra.MinimumNArgs(1),
	SilenceUsage: true,
	RunE:         runImageCommand,
}

func init() {
	rootCmd.AddCommand(imageCmd)
	addImageFlags(imageCmd)
	bindImageFlags(imageCmd)
}

func addImageFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("format", "f", "", "output format: text, json, csv (overrides config)")
	cmd.Flags().StringP("output", "o", "", "output file (default: stdout)")
	cmd.Flags().String("dict-langs", "", "comma-separated language codes to resolve dictionary charsets for")

	cmd.Flags().BoolP("recursive", "r", false, "recursively scan directories for images")
	cmd.Flags().StringSlice("include", nil, "glob patterns an image file must match to be processed")
	cmd.Flags().StringSlice("exclude", nil, "glob patterns that exclude an otherwise-matching image file")

	cmd.Flags().IntP("workers", "w", 0, "number of parallel workers (default: number of CPUs)")
	cmd.Flags().Int("max-goroutines", 0, "cap on concurrent in-flight decode+OCR jobs (0 = unbounded beyond --workers)")
	cmd.Flags().Bool("progress", false, "show progress to stderr")
	cmd.Flags().Bool("quiet", false, "suppress progress and summary output")
	cmd.Flags().Bool("stats", false, "print processing statistics after completion")
}

func bindImageFlags(cmd *cobra.Command) {
	_ = viper.BindPFlag("output.format", cmd.Flags().Lookup("format"))
	_ = viper.BindPFlag("output.file", cmd.Flags().Lookup("output"))
}

func runImageCommand(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()

	format := cfg.Output.Format
	if cmd.Flags().Changed("format") {
		format, _ = cmd.Flags().GetString("format")
	}
	if format != outputFormatText && format != outputFormatJSON && format != outputFormatCSV {
		return fmt.Errorf("invalid format %q: must be one of text, json, csv", format)
	}

	outputFile := cfg.Output.File
	if cmd.Flags().Changed("output") {
		outputFile, _ = cmd.Flags().GetString("output")
	}

	var dictLangs []string
	if raw, _ := cmd.Flags().GetString("dict-langs"); raw != "" {
		dictLangs = splitCommaList(raw)
	}

	pl, err := buildPipeline(cfg, dictLangs)
	if err != nil {
		return fmt.Errorf("load OCR pipeline: %w", err)
	}
	defer func() { _ = pl.Close() }()

	recursive, _ := cmd.Flags().GetBool("recursive")
	include, _ := cmd.Flags().GetStringSlice("include")
	exclude, _ := cmd.Flags().GetStringSlice("exclude")
	workers, _ := cmd.Flags().GetInt("workers")
	if !cmd.Flags().Changed("workers") {
		workers = cfg.Batch.Workers
	}
	maxGoroutines, _ := cmd.Flags().GetInt("max-goroutines")
	showProgress, _ := cmd.Flags().GetBool("progress")
	quiet, _ := cmd.Flags().GetBool("quiet")
	showStats, _ := cmd.Flags().GetBool("stats")

	batchCfg := pipeline.DefaultConfig()
	batchCfg.Recursive = recursive
	batchCfg.IncludePatterns = include
	batchCfg.ExcludePatterns = exclude
	batchCfg.Workers = workers
	batchCfg.MaxGoroutines = maxGoroutines
	batchCfg.ShowProgress = showProgress
	batchCfg.Quiet = quiet
	batchCfg.Format = format
	batchCfg.OutputFile = outputFile

	if !quiet {
		_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Processing %d path(s)...\n", len(args))
	}

	result, err := pipeline.ProcessBatch(context.Background(), pl, nil, args, batchCfg)
	if err != nil {
		return fmt.Errorf("process images: %w", err)
	}

	out, err := result.FormatResults(format)
	if err != nil {
		return fmt.Errorf("format results: %w", err)
	}

	if outputFile != "" {
		if err := os.WriteFile(outputFile, []byte(out), 0o600); err != nil {
			return fmt.Errorf("write output file: %w", err)
		}
	} else {
		_, _ = fmt.Fprint(cmd.OutOrStdout(), out)
	}

	if showStats && !quiet {
		stats := pipeline.CalculateStats(result)
		_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "\nprocessed=%d failed=%d workers=%d duration=%s throughput=%.2f/s\n",
			stats.ProcessedImages, stats.FailedImages, stats.WorkerCount, stats.TotalDuration, stats.ThroughputPerSec)
	}

	return nil
}
