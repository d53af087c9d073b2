package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/qduc/easyocr-go/internal/server"
	"github.com/spf13/cobra"
)

// serveCmd starts an HTTP server exposing the OCR pipeline.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start an HTTP server for OCR requests",
	Long: `Start an HTTP server exposing /health, /models, /ocr, /ocr/stream, and
/metrics endpoints over a single shared OCR pipeline.

Examples:
  easyocr serve
  easyocr serve --port 9000 --cors-origin https://example.com`,
	SilenceUsage: true,
	RunE:         runServeCommand,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("host", "", "host to bind (overrides config)")
	serveCmd.Flags().Int("port", 0, "port to bind (overrides config)")
	serveCmd.Flags().String("cors-origin", "", "Access-Control-Allow-Origin value (overrides config)")
	serveCmd.Flags().Int("max-upload-size", 0, "maximum upload size in MB (overrides config)")
	serveCmd.Flags().Int("timeout", 0, "per-request timeout in seconds (overrides config)")
	serveCmd.Flags().Int("shutdown-timeout", 0, "graceful shutdown timeout in seconds (overrides config)")

	serveCmd.Flags().Int("rate-limit-per-minute", 0, "requests per minute per client (0 disables)")
	serveCmd.Flags().Int("rate-limit-per-hour", 0, "requests per hour per client (0 disables)")
	serveCmd.Flags().Int("rate-limit-per-day", 0, "requests per day per client (0 disables)")
	serveCmd.Flags().Int("rate-limit-data-mb-per-day", 0, "MB of request data per day per client (0 disables)")

	serveCmd.Flags().String("dict-langs", "", "comma-separated language codes to resolve dictionary charsets for")
}

func runServeCommand(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()

	serverCfg := server.Config{
		Host:            cfg.Server.Host,
		Port:            cfg.Server.Port,
		CORSOrigin:      cfg.Server.CORSOrigin,
		MaxUploadMB:     int64(cfg.Server.MaxUploadMB),
		TimeoutSec:      cfg.Server.TimeoutSec,
		ShutdownTimeout: time.Duration(cfg.Server.ShutdownTimeout) * time.Second,
	}

	if cmd.Flags().Changed("host") {
		serverCfg.Host, _ = cmd.Flags().GetString("host")
	}
	if cmd.Flags().Changed("port") {
		serverCfg.Port, _ = cmd.Flags().GetInt("port")
	}
	if cmd.Flags().Changed("cors-origin") {
		serverCfg.CORSOrigin, _ = cmd.Flags().GetString("cors-origin")
	}
	if cmd.Flags().Changed("max-upload-size") {
		v, _ := cmd.Flags().GetInt("max-upload-size")
		serverCfg.MaxUploadMB = int64(v)
	}
	if cmd.Flags().Changed("timeout") {
		serverCfg.TimeoutSec, _ = cmd.Flags().GetInt("timeout")
	}
	if cmd.Flags().Changed("shutdown-timeout") {
		v, _ := cmd.Flags().GetInt("shutdown-timeout")
		serverCfg.ShutdownTimeout = time.Duration(v) * time.Second
	}

	serverCfg.RateLimit.RequestsPerMinute, _ = cmd.Flags().GetInt("rate-limit-per-minute")
	serverCfg.RateLimit.RequestsPerHour, _ = cmd.Flags().GetInt("rate-limit-per-hour")
	serverCfg.RateLimit.MaxRequestsPerDay, _ = cmd.Flags().GetInt("rate-limit-per-day")
	dataMB, _ := cmd.Flags().GetInt("rate-limit-data-mb-per-day")
	serverCfg.RateLimit.MaxDataPerDayMB = int64(dataMB)

	var dictLangs []string
	if raw, _ := cmd.Flags().GetString("dict-langs"); raw != "" {
		dictLangs = splitCommaList(raw)
	}

	pl, err := buildPipeline(cfg, dictLangs)
	if err != nil {
		return fmt.Errorf("load OCR pipeline: %w", err)
	}

	srv, err := server.NewServer(serverCfg, pl)
	if err != nil {
		_ = pl.Close()
		return fmt.Errorf("create server: %w", err)
	}
	defer func() { _ = srv.Close() }()

	mux := http.NewServeMux()
	srv.SetupRoutes(mux)

	httpServer := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", serverCfg.Host, serverCfg.Port),
		Handler:      mux,
		ReadTimeout:  time.Duration(serverCfg.TimeoutSec) * time.Second,
		WriteTimeout: time.Duration(serverCfg.TimeoutSec) * time.Second,
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	serveErr := make(chan error, 1)
	go func() {
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "listening on %s\n", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	case <-sigChan:
		_, _ = fmt.Fprintln(cmd.OutOrStdout(), "shutting down...")
		ctx, cancel := context.WithTimeout(context.Background(), serverCfg.ShutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown: %w", err)
		}
	}

	return nil
}
