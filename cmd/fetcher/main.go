package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/aluiziolira/go-fetch-episodes/auth"
	"github.com/aluiziolira/go-fetch-episodes/config"
	"github.com/aluiziolira/go-fetch-episodes/downloader"
	"github.com/aluiziolira/go-fetch-episodes/fetcher"
	"github.com/aluiziolira/go-fetch-episodes/models"
	"github.com/aluiziolira/go-fetch-episodes/scraper"
	"github.com/aluiziolira/go-fetch-episodes/session"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	defaultCfg := config.DefaultConfig()
	parallelDefault := defaultCfg.Concurrency
	if value, ok, err := config.EnvInt("FETCHER_PARALLEL"); err != nil {
		fmt.Fprintf(os.Stderr, "invalid FETCHER_PARALLEL: %v\n", err)
		os.Exit(1)
	} else if ok {
		parallelDefault = value
	}
	outputDefault := defaultCfg.OutputDir
	if value, ok := config.EnvString("FETCHER_OUTPUT_DIR"); ok {
		outputDefault = value
	}
	metricsDefault := defaultCfg.MetricsAddr
	if value, ok := config.EnvString("FETCHER_METRICS_ADDR"); ok {
		metricsDefault = value
	}
	usernameDefault, _ := config.EnvString("FETCHER_USERNAME")
	passwordDefault, _ := config.EnvString("FETCHER_PASSWORD")

	baseURL := flag.String("base-url", defaultCfg.BaseURL, "Base URL of the storefront")
	username := flag.String("username", usernameDefault, "Account username (or FETCHER_USERNAME)")
	password := flag.String("password", passwordDefault, "Account password (or FETCHER_PASSWORD)")
	outputDir := flag.String("output-dir", outputDefault, "Directory for downloaded episodes")
	parallelism := flag.Int("parallel", parallelDefault, "Number of concurrent downloads")
	timeoutSec := flag.Int("timeout", int(defaultCfg.Timeout.Seconds()), "Page request timeout (seconds)")
	chunkSize := flag.Int("chunk-size", defaultCfg.ChunkSize, "Download chunk size (bytes)")
	manifestFile := flag.String("manifest", "", "Optional manifest file for the batch report")
	manifestFormat := flag.String("manifest-format", defaultCfg.ManifestFormat, "Manifest format: csv, json, or dual")
	metricsAddr := flag.String("metrics-addr", metricsDefault, "Prometheus metrics listen address (e.g. :9090)")
	verbose := flag.Bool("v", false, "Enable verbose logging")

	flag.Parse()

	logger, level := newLogger(*verbose)
	slog.SetDefault(logger)
	slog.SetLogLoggerLevel(level.Level())

	cfg := defaultCfg
	cfg.BaseURL = *baseURL
	cfg.Username = *username
	cfg.Password = *password
	cfg.OutputDir = *outputDir
	cfg.Concurrency = *parallelism
	cfg.Timeout = time.Duration(*timeoutSec) * time.Second
	cfg.ChunkSize = *chunkSize
	cfg.ManifestFile = *manifestFile
	cfg.ManifestFormat = strings.ToLower(*manifestFormat)
	cfg.MetricsAddr = *metricsAddr
	cfg.Verbose = *verbose

	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", slog.Any("error", err))
		os.Exit(1)
	}

	if err := os.MkdirAll(cfg.OutputDir, 0o755); err != nil {
		slog.Error("create output directory", slog.Any("error", err))
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		slog.Info("shutdown signal received, abandoning queued downloads")
	}()

	sess, err := session.New(cfg)
	if err != nil {
		slog.Error("initialising session", slog.Any("error", err))
		os.Exit(1)
	}

	ok, err := auth.New(cfg, sess).Login(ctx)
	if err != nil {
		slog.Error("login request failed", slog.Any("error", err))
		os.Exit(1)
	}
	if !ok {
		slog.Error("login failed, check credentials")
		os.Exit(1)
	}

	episodes, err := scraper.New(cfg, sess).Episodes(ctx)
	if err != nil {
		if errors.Is(err, scraper.ErrNotAuthenticated) {
			slog.Error("session rejected by account page, login may have expired")
		} else {
			slog.Error("scraping downloads page", slog.Any("error", err))
		}
		os.Exit(1)
	}
	if len(episodes) == 0 {
		slog.Info("no purchased episodes found, nothing to do")
		return
	}

	slog.Info("starting batch",
		slog.Int("episodes", len(episodes)),
		slog.Int("workers", cfg.Concurrency),
		slog.String("output_dir", cfg.OutputDir),
	)

	batch := fetcher.NewBatch(ctx, downloader.New(cfg, sess), cfg)

	var metricsServer *http.Server
	if cfg.MetricsAddr != "" {
		metricsServer = &http.Server{
			Addr:    cfg.MetricsAddr,
			Handler: promhttp.HandlerFor(batch.Metrics.Registry, promhttp.HandlerOpts{}),
		}
		go func() {
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				slog.Error("metrics server failed", slog.Any("error", err))
			}
		}()
		slog.Info("metrics server enabled", slog.String("addr", cfg.MetricsAddr))
	}

	batch.Start(cfg.Concurrency)
	for _, episode := range episodes {
		if err := batch.Submit(episode); err != nil {
			slog.Warn("batch closed early, remaining items dropped")
			break
		}
	}
	report := batch.Close()

	if metricsServer != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			slog.Error("metrics server shutdown failed", slog.Any("error", err))
		}
		cancel()
	}

	if cfg.ManifestFile != "" {
		if err := writeManifest(cfg.ManifestFormat, cfg.ManifestFile, report); err != nil {
			slog.Error("writing manifest", slog.Any("error", err))
		}
	}

	printSummary(report, cfg.OutputDir)
}

func writeManifest(format, filename string, report *models.BatchReport) error {
	writer, err := createWriter(format, filename)
	if err != nil {
		return err
	}
	if err := writer.Write(report.Results); err != nil {
		writer.Close()
		return err
	}
	if err := writer.Close(); err != nil {
		return err
	}
	return writer.Validate()
}

func createWriter(format, filename string) (fetcher.ReportWriter, error) {
	switch format {
	case "json":
		return fetcher.NewJSONWriter(filename)
	case "csv":
		return fetcher.NewCSVWriter(filename)
	case "dual":
		jsonFilename := strings.TrimSuffix(filename, ".csv") + ".json"
		return fetcher.NewDualWriter(filename, jsonFilename)
	default:
		return nil, fmt.Errorf("unsupported format: %s", format)
	}
}

func printSummary(report *models.BatchReport, outputDir string) {
	separator := "--------------------------------------------------"
	fmt.Println("\n" + separator)
	fmt.Println("Batch complete")

	duration := report.Duration()
	throughput := 0.0
	if duration.Seconds() > 0 {
		throughput = float64(report.TotalBytes()) / (1024 * 1024 * duration.Seconds())
	}

	fmt.Printf("  Total items:   %d\n", len(report.Results))
	fmt.Printf("  Completed:     %d\n", report.Completed())
	fmt.Printf("  Skipped:       %d\n", report.Skipped())
	fmt.Printf("  Failed:        %d\n", report.Failed())
	if reasons := report.FailureReasons(); len(reasons) > 0 {
		fmt.Printf("  Failure types: %v\n", reasons)
	}
	fmt.Printf("  Bytes:         %d\n", report.TotalBytes())
	fmt.Printf("  Duration:      %v\n", duration)
	fmt.Printf("  Throughput:    %.2f MB/s\n", throughput)
	fmt.Printf("  Output dir:    %s\n", outputDir)
	fmt.Println(separator)
}

func newLogger(verbose bool) (*slog.Logger, *slog.LevelVar) {
	level := &slog.LevelVar{}
	if verbose {
		level.Set(slog.LevelDebug)
	} else {
		level.Set(slog.LevelInfo)
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if isTerminal(os.Stdout) {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	return slog.New(handler), level
}

func isTerminal(f *os.File) bool {
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return (info.Mode() & os.ModeCharDevice) != 0
}
