package main

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// defaults for fields a config file is allowed to omit.
const (
	defaultPollInterval  = 5 * time.Minute
	defaultTimeout       = 10 * time.Second
	defaultRetryInterval = 15 * time.Second
	defaultMaxRespBytes  int64 = 64 * 1024
	defaultNonceSize           = 16
)

// targetConfig describes one certificate whose revocation status is
// polled on an interval.
type targetConfig struct {
	// Name labels this target in logs and metrics; defaults to the
	// subject certificate path if empty.
	Name string `yaml:"name"`

	// SubjectCertFile is the certificate being checked.
	SubjectCertFile string `yaml:"subjectCertFile"`

	// IssuerCertFile signs SubjectCertFile and is required to build
	// the CertID (issuer name hash, issuer key hash).
	IssuerCertFile string `yaml:"issuerCertFile"`

	// ResponderURL overrides the subject certificate's AIA OCSP URL.
	// If empty, the monitor reads it from the certificate itself.
	ResponderURL string `yaml:"responderURL"`

	// UseNonce adds a random nonce extension to each request.
	UseNonce bool `yaml:"useNonce"`

	// PollInterval is the wait between checks.
	PollInterval      string        `yaml:"pollInterval"`
	PollIntervalValue time.Duration `yaml:"-"`
}

func (t *targetConfig) setDefaults() {
	if t.PollInterval == "" {
		t.PollIntervalValue = defaultPollInterval
	}
	if t.Name == "" {
		t.Name = t.SubjectCertFile
	}
}

func (t *targetConfig) validate() error {
	if t.SubjectCertFile == "" {
		return errors.New("target config: subjectCertFile is required")
	}
	if t.IssuerCertFile == "" {
		return errors.New("target config: issuerCertFile is required")
	}
	if t.PollInterval != "" {
		d, err := time.ParseDuration(t.PollInterval)
		if err != nil {
			return fmt.Errorf("target config: invalid pollInterval: %w", err)
		}
		t.PollIntervalValue = d
	}
	return nil
}

// httpConfig configures the OCSP HTTP client, mirroring the
// timeout/retry shape the rest of this corpus's monitors use.
type httpConfig struct {
	Timeout      string        `yaml:"timeout"`
	TimeoutValue time.Duration `yaml:"-"`

	RetryCount int `yaml:"retryCount"`

	RetryInterval      string        `yaml:"retryInterval"`
	RetryIntervalValue time.Duration `yaml:"-"`

	MaxResponseSize *int64 `yaml:"maxResponseSize"`
}

func (h *httpConfig) setDefaults() {
	if h.Timeout == "" {
		h.TimeoutValue = defaultTimeout
	}
	if h.RetryInterval == "" {
		h.RetryIntervalValue = defaultRetryInterval
	}
	if h.MaxResponseSize == nil {
		v := defaultMaxRespBytes
		h.MaxResponseSize = &v
	}
}

func (h *httpConfig) validate() error {
	if h.Timeout != "" {
		d, err := time.ParseDuration(h.Timeout)
		if err != nil {
			return fmt.Errorf("http config: invalid timeout: %w", err)
		}
		h.TimeoutValue = d
	}
	if h.RetryCount < 0 {
		return errors.New("http config: retryCount must be >= 0")
	}
	if h.RetryInterval != "" {
		d, err := time.ParseDuration(h.RetryInterval)
		if err != nil {
			return fmt.Errorf("http config: invalid retryInterval: %w", err)
		}
		h.RetryIntervalValue = d
	}
	if *h.MaxResponseSize < 0 {
		return errors.New("http config: maxResponseSize must be >= 0")
	}
	return nil
}

// logConfig configures zerolog output.
type logConfig struct {
	Console bool   `yaml:"console"`
	File    string `yaml:"file"`
	Verbose bool   `yaml:"verbose"`
}

// metricsConfig configures the Prometheus HTTP endpoint.
type metricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Address string `yaml:"address"`
}

func (m *metricsConfig) validate() error {
	if !m.Enabled {
		return nil
	}
	if m.Address == "" {
		return errors.New("metrics config: address is required when enabled")
	}
	return nil
}

// appConfig is the top-level YAML document.
type appConfig struct {
	Log     logConfig       `yaml:"log"`
	Metrics metricsConfig   `yaml:"metrics"`
	HTTP    httpConfig      `yaml:"http"`
	Targets []*targetConfig `yaml:"targets"`
}

// loadConfig reads and validates a YAML config file at path.
func loadConfig(path string) (*appConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %q: %w", path, err)
	}

	var cfg appConfig
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %q: %w", path, err)
	}

	cfg.HTTP.setDefaults()
	if err := cfg.HTTP.validate(); err != nil {
		return nil, err
	}
	if err := cfg.Metrics.validate(); err != nil {
		return nil, err
	}
	if len(cfg.Targets) == 0 {
		return nil, errors.New("config: at least one target is required")
	}
	for _, t := range cfg.Targets {
		t.setDefaults()
		if err := t.validate(); err != nil {
			return nil, err
		}
	}

	return &cfg, nil
}
