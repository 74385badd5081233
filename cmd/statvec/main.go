// Command statvec vectorizes feature-statistics datasets, posts the result
// to an SMPC node, and notifies the computations orchestrator.
//
// One-shot mode:
//
//	statvec -url dataset.json -job-id j1 -smpc-url http://smpc:9000
//
// Server mode:
//
//	statvec -serve -listen :5001 -config config.yaml
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/aethm/statvec/logging"
	"github.com/aethm/statvec/service"
)

func main() {
	var (
		serve      = flag.Bool("serve", false, "run the HTTP service instead of a one-shot vectorization")
		configPath = flag.String("config", "", "path to a YAML config file")
		listen     = flag.String("listen", "", "listen address for server mode (overrides config)")

		urlFlag  = flag.String("url", "", "URL or local file path of the dataset to vectorize")
		query    = flag.String("query", "", "only vectorize the feature with this exact name")
		jobID    = flag.String("job-id", "", "job id for SMPC and orchestrator calls")
		clients  = flag.String("clients", "", "comma-separated client ids participating in the job")
		smpcURL  = flag.String("smpc-url", "", "base URL of the SMPC node (overrides config)")
		orchURL  = flag.String("orchestrator-url", "", "base URL of the orchestrator (overrides config)")
		outDir   = flag.String("output-dir", "", "directory for output artifacts (overrides config)")
		logLevel = flag.String("log-level", "", "log level: DEBUG, INFO, WARN, ERROR")
	)
	flag.Parse()

	cfg, err := service.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "statvec: %v\n", err)
		os.Exit(1)
	}
	if *listen != "" {
		cfg.ListenAddr = *listen
	}
	if *smpcURL != "" {
		cfg.SMPCURL = *smpcURL
	}
	if *orchURL != "" {
		cfg.OrchestratorURL = *orchURL
	}
	if *outDir != "" {
		cfg.OutputDir = *outDir
	}
	if *logLevel != "" {
		cfg.LogLevel = *logLevel
	}

	log, err := newLogger(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "statvec: %v\n", err)
		os.Exit(1)
	}
	defer log.Close()

	if *serve {
		runServer(cfg, log)
		return
	}

	if *urlFlag == "" {
		fmt.Fprintln(os.Stderr, "statvec: -url is required in one-shot mode (or pass -serve)")
		flag.Usage()
		os.Exit(2)
	}

	req := service.Request{
		URL:   *urlFlag,
		Query: *query,
		JobID: *jobID,
	}
	if *clients != "" {
		req.ClientsList = strings.Split(*clients, ",")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	pipeline := service.NewPipeline(cfg, log)
	result, err := pipeline.Run(ctx, req)
	if err != nil {
		log.Errorf("[Main] vectorization failed: %v", err)
		os.Exit(1)
	}
	log.Infof("[Main] %s %d encoders, %d schema entries",
		result.Message, result.EncodersCount, result.SchemaCount)
}

func newLogger(cfg *service.Config) (*logging.Logger, error) {
	level := logging.ParseLevel(cfg.LogLevel)
	if cfg.LogFile == "" {
		return logging.New(level), nil
	}
	return logging.NewFile(level, cfg.LogFile, 10)
}

func runServer(cfg *service.Config, log *logging.Logger) {
	srv := service.NewServer(cfg, log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	select {
	case <-ctx.Done():
		log.Infof("[Main] shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Errorf("[Main] shutdown: %v", err)
		}
	case err := <-errCh:
		log.Errorf("[Main] server failed: %v", err)
		os.Exit(1)
	}
}
