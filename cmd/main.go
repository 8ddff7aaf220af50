package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	floodprobe "github.com/floodprobe/floodprobe"
)

func main() {
	configPath := flag.String("config", "floodprobe.yaml", "Path to the YAML config file")
	outDir := flag.String("out", "results", "Directory for JSON results and the HTML report")
	dbPath := flag.String("db", "", "Optional SQLite path for persisting run results")
	metricsAddr := flag.String("metrics", "", "Optional Prometheus listen address, e.g. :9105")
	flag.Parse()

	cfg, err := floodprobe.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	logger := floodprobe.NewDefaultLogger(os.Stderr, cfg.LogLevel)

	var store floodprobe.RunStore
	if *dbPath != "" {
		sqlite, err := floodprobe.NewSQLiteRunStore(*dbPath)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		defer sqlite.Close()
		store = sqlite
	}

	notifications := floodprobe.NewNotificationRegistry(logger)
	notifications.Register(&floodprobe.LogNotificationSender{Logger: logger})
	if cfg.Notify.WebhookURL != "" {
		notifications.Register(&floodprobe.WebhookNotificationSender{URL: cfg.Notify.WebhookURL})
	}
	if cfg.Notify.SlackWebhookURL != "" {
		notifications.Register(&floodprobe.SlackNotificationSender{WebhookURL: cfg.Notify.SlackWebhookURL})
	}

	var flooder floodprobe.FloodEngine
	switch cfg.Flood.Engine {
	case "vegeta":
		flooder = floodprobe.NewVegetaEngine(logger)
	case "k6":
		flooder = floodprobe.NewK6Engine(logger)
	default:
		flooder = floodprobe.NewFlooder(logger)
	}

	engine, err := floodprobe.NewHybridEngine(cfg, logger, flooder, store, notifications)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	if *metricsAddr != "" {
		go func() {
			if err := http.ListenAndServe(*metricsAddr, promhttp.Handler()); err != nil {
				logger.Error("metrics listener failed", map[string]any{"error": err.Error()})
			}
		}()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := os.MkdirAll(*outDir, 0755); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	critical := false
	var results []*floodprobe.RunResult
	for _, endpoint := range cfg.Target.Endpoints {
		result, err := engine.Run(ctx, endpoint)
		if err != nil {
			if errors.Is(err, floodprobe.ErrDependencyUnavailable) {
				logger.Warn("flood engine unavailable, skipping remaining runs", map[string]any{
					"engine": cfg.Flood.Engine,
					"error":  err.Error(),
				})
				break
			}
			logger.Error("run failed", map[string]any{"endpoint": endpoint, "error": err.Error()})
			continue
		}
		results = append(results, result)
		if result.Verdict != nil && result.Verdict.Risk == floodprobe.RiskCritical {
			critical = true
		}
		writeRunJSON(*outDir, result, logger)
	}

	if len(results) > 0 {
		reportPath := filepath.Join(*outDir, fmt.Sprintf("hybrid_report_%s.html", time.Now().Format("20060102_150405")))
		if err := writeHTMLReport(reportPath, results); err != nil {
			logger.Error("failed to write report", map[string]any{"error": err.Error()})
		} else {
			logger.Info("report written", map[string]any{"path": reportPath})
		}
	}

	if critical {
		os.Exit(2)
	}
}

func writeRunJSON(dir string, result *floodprobe.RunResult, logger floodprobe.Logger) {
	path := filepath.Join(dir, result.ID+".json")
	f, err := os.Create(path)
	if err != nil {
		logger.Error("failed to write run result", map[string]any{"path": path, "error": err.Error()})
		return
	}
	defer f.Close()
	if err := floodprobe.WriteJSON(f, result); err != nil {
		logger.Error("failed to encode run result", map[string]any{"path": path, "error": err.Error()})
	}
}

func writeHTMLReport(path string, results []*floodprobe.RunResult) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return floodprobe.RenderHTML(f, results)
}
