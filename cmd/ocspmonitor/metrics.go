package main

import (
	"context"
	"crypto/tls"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// responseErrorClass partitions request failures the way the result
// is surfaced to an operator: a network failure is actionable
// differently than a malformed response or a content mismatch.
type responseErrorClass string

const (
	errClassNetwork responseErrorClass = "net"
	errClassHTTP    responseErrorClass = "http"
	errClassDecode  responseErrorClass = "decode"
	errClassContent responseErrorClass = "contents"
)

// metrics holds the Prometheus collectors this monitor registers.
type metrics struct {
	registry *prometheus.Registry

	requestLatency *prometheus.HistogramVec
	responseErrors *prometheus.CounterVec
	certStatus     *prometheus.GaugeVec
}

// newMetrics creates and registers the monitor's collectors against a
// fresh registry, so this process never shares state with
// prometheus.DefaultRegisterer.
func newMetrics() *metrics {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	m := &metrics{registry: registry}

	m.requestLatency = factory.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "ocspmonitor",
		Name:      "request_duration_seconds",
		Help:      "Time spent sending an OCSP request and receiving the response, by target.",
	}, []string{"target"})

	m.responseErrors = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ocspmonitor",
		Name:      "response_errors_total",
		Help:      "Count of failed OCSP checks, by target and error class (net|http|decode|contents).",
	}, []string{"target", "class"})

	m.certStatus = factory.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "ocspmonitor",
		Name:      "certificate_status",
		Help:      "Last observed certificate status per target: 0=good, 1=revoked, 2=unknown.",
	}, []string{"target"})

	return m
}

func (m *metrics) observeLatency(target string, d time.Duration) {
	m.requestLatency.WithLabelValues(target).Observe(d.Seconds())
}

func (m *metrics) countError(target string, class responseErrorClass) {
	m.responseErrors.WithLabelValues(target, string(class)).Inc()
}

func (m *metrics) setCertStatus(target string, statusCode float64) {
	m.certStatus.WithLabelValues(target).Set(statusCode)
}

// startMetricsServer serves the registry's families on /metrics until
// the returned stop function is called.
func startMetricsServer(addr string, registry *prometheus.Registry) (stop func(time.Duration), failed <-chan error) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	srv := &http.Server{
		Addr:         addr,
		Handler:      mux,
		TLSNextProto: make(map[string]func(*http.Server, *tls.Conn, http.Handler)),
	}

	resultChannel := make(chan error, 1)
	started := make(chan struct{})
	go func() {
		close(started)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			resultChannel <- err
		}
		close(resultChannel)
	}()
	<-started

	stop = func(timeout time.Duration) {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}
	return stop, resultChannel
}
