// Command ocspmonitor periodically checks a set of certificates'
// revocation status against their OCSP responders, logging structured
// events and exposing Prometheus metrics for request latency and
// failure class. It is a consumer of the ocsp package's public API; it
// performs no ASN.1 decoding or signature verification of its own.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"
)

var clpConfigPath = flag.String("config", "", "path to YAML config file")

const metricsShutdownTimeout = 2 * time.Second

func main() {
	exitCode := 0
	defer func() { os.Exit(exitCode) }()

	flag.Parse()
	if *clpConfigPath == "" {
		fmt.Fprintln(os.Stderr, "ocspmonitor: -config is required")
		exitCode = 1
		return
	}

	cfg, err := loadConfig(*clpConfigPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		exitCode = 1
		return
	}

	log, closeLog, err := newLogger(cfg.Log)
	if err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		exitCode = 1
		return
	}
	defer closeLog()

	targets := make([]*target, 0, len(cfg.Targets))
	for _, tc := range cfg.Targets {
		t, err := buildTarget(tc)
		if err != nil {
			log.Error().Err(err).Msg("failed to configure target")
			exitCode = 1
			return
		}
		targets = append(targets, t)
	}

	m := newMetrics()
	var stopMetrics func(time.Duration)
	if cfg.Metrics.Enabled {
		stopMetrics, _ = startMetricsServer(cfg.Metrics.Address, m.registry)
		log.Info().Str("address", cfg.Metrics.Address).Msg("metrics server listening")
		defer stopMetrics(metricsShutdownTimeout)
	}

	client := &http.Client{
		Transport: &http.Transport{},
		Timeout:   cfg.HTTP.TimeoutValue,
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var wg sync.WaitGroup
	for _, t := range targets {
		t := t
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := runMonitor(ctx, t, cfg.HTTP, client, log, m, cfg.Log.Verbose); err != nil {
				log.Error().Err(err).Str("target", t.cfg.Name).Msg("monitor exited with error")
			}
		}()
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	log.Info().Int("targets", len(targets)).Msg("ocspmonitor started")
	<-sigCh
	log.Info().Msg("shutdown signal received")
	cancel()
	wg.Wait()
	log.Info().Msg("ocspmonitor stopped")
}
