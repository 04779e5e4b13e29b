package main

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/hoels/ocsp-go"
	"github.com/hoels/ocsp-go/certutil"
)

// target bundles one configured certificate pair with the CertID
// built from it, so the polling loop doesn't recompute it every round.
type target struct {
	cfg          *targetConfig
	certID       ocsp.CertID
	responderURL string
}

// buildTarget loads the subject/issuer certificates, builds the
// CertID and resolves the responder URL (config override, falling
// back to the subject certificate's AIA OCSP entry).
func buildTarget(cfg *targetConfig) (*target, error) {
	subject, err := certutil.FromFile(cfg.SubjectCertFile)
	if err != nil {
		return nil, fmt.Errorf("target %s: %w", cfg.Name, err)
	}
	issuer, err := certutil.FromFile(cfg.IssuerCertFile)
	if err != nil {
		return nil, fmt.Errorf("target %s: %w", cfg.Name, err)
	}

	certID, err := ocsp.GenerateCertID(subject, issuer)
	if err != nil {
		return nil, fmt.Errorf("target %s: failed to build CertID: %w", cfg.Name, err)
	}

	responderURL := cfg.ResponderURL
	if responderURL == "" {
		responderURL, err = subject.OCSPResponderURL()
		if err != nil {
			return nil, fmt.Errorf("target %s: failed to read OCSP responder URL: %w", cfg.Name, err)
		}
		if responderURL == "" {
			return nil, fmt.Errorf("target %s: no responderURL configured and none found in the certificate's AIA extension", cfg.Name)
		}
	}

	return &target{cfg: cfg, certID: certID, responderURL: responderURL}, nil
}

// runMonitor polls one target on its configured interval until ctx is
// canceled, then returns nil. A failed check does not stop the loop:
// checkOnce logs it (and counts it when the exchange itself failed).
func runMonitor(ctx context.Context, t *target, httpCfg httpConfig, client *http.Client, log zerolog.Logger, m *metrics, verbose bool) error {
	tlog := log.With().Str("target", t.cfg.Name).Str("responderURL", t.responderURL).Logger()
	tlog.Info().Msg("starting monitor")

	for {
		if ctx.Err() != nil {
			return nil
		}

		checkOnce(ctx, t, client, httpCfg, tlog, m, verbose)

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(t.cfg.PollIntervalValue):
		}
	}
}

// checkOnce builds, sends, and validates a single OCSP request/response
// round for t, logging and counting the outcome. A POST that fails at
// the transport level is retried up to httpCfg.RetryCount times,
// httpCfg.RetryIntervalValue apart.
func checkOnce(ctx context.Context, t *target, client *http.Client, httpCfg httpConfig, log zerolog.Logger, m *metrics, verbose bool) {
	req := ocsp.NewRequest()
	req.AddCertificateID(t.certID)

	var nonce []byte
	if t.cfg.UseNonce {
		nonce = make([]byte, defaultNonceSize)
		if _, err := rand.Read(nonce); err != nil {
			log.Error().Err(fmt.Errorf("failed to generate nonce: %w", err)).Msg("check failed")
			return
		}
		if err := req.AddNonceExtension(nonce); err != nil {
			log.Error().Err(fmt.Errorf("failed to attach nonce extension: %w", err)).Msg("check failed")
			return
		}
	}

	body, err := req.Encode()
	if err != nil {
		log.Error().Err(fmt.Errorf("failed to encode OCSP request: %w", err)).Msg("check failed")
		return
	}

	result, err := postOCSPRequest(ctx, client, t.responderURL, *httpCfg.MaxResponseSize, body)
	for attempt := 0; err != nil && attempt < httpCfg.RetryCount && ctx.Err() == nil; attempt++ {
		select {
		case <-ctx.Done():
		case <-time.After(httpCfg.RetryIntervalValue):
			result, err = postOCSPRequest(ctx, client, t.responderURL, *httpCfg.MaxResponseSize, body)
		}
	}
	m.observeLatency(t.cfg.Name, result.SendReceiveTime)

	if verbose {
		log.Debug().
			Str("request", base64.StdEncoding.EncodeToString(body)).
			Str("response", base64.StdEncoding.EncodeToString(result.Body)).
			Dur("duration", result.SendReceiveTime).
			Int("statusCode", result.StatusCode).
			Msg("round trip")
	}

	if err != nil {
		m.countError(t.cfg.Name, errClassNetwork)
		log.Error().Err(fmt.Errorf("OCSP request failed: %w", err)).Msg("check failed")
		return
	}
	if result.StatusCode < http.StatusOK || result.StatusCode >= http.StatusMultipleChoices {
		m.countError(t.cfg.Name, errClassHTTP)
		log.Error().Int("statusCode", result.StatusCode).Msg("check failed: unexpected HTTP status")
		return
	}

	resp, err := ocsp.ParseResponse(result.Body)
	if err != nil {
		m.countError(t.cfg.Name, errClassDecode)
		log.Error().Err(fmt.Errorf("failed to decode OCSP response: %w", err)).Msg("check failed")
		return
	}

	if status := resp.GetStatus(); status != "successful" {
		m.countError(t.cfg.Name, errClassContent)
		log.Error().Str("responseStatus", status).Msg("check failed: non-successful OCSP response")
		return
	}

	if err := resp.ValidateCertificateID(t.certID); err != nil {
		m.countError(t.cfg.Name, errClassContent)
		log.Error().Err(err).Msg("check failed")
		return
	}

	if err := resp.ValidateSignature(); err != nil {
		m.countError(t.cfg.Name, errClassContent)
		log.Error().Err(err).Msg("check failed: signature verification")
		return
	}

	if nonce != nil {
		basic, err := resp.GetBasicResponse()
		if err != nil {
			m.countError(t.cfg.Name, errClassContent)
			log.Error().Err(err).Msg("check failed")
			return
		}
		got, ok := basic.GetNonceExtension()
		if !ok {
			m.countError(t.cfg.Name, errClassContent)
			log.Error().Msg("check failed: OCSP response carries no nonce extension")
			return
		}
		if !bytes.Equal(got, nonce) {
			m.countError(t.cfg.Name, errClassContent)
			log.Error().Msg("check failed: OCSP response nonce does not match the request")
			return
		}
	}

	revoked, known, err := resp.IsRevoked()
	if err != nil {
		m.countError(t.cfg.Name, errClassContent)
		log.Error().Err(err).Msg("check failed")
		return
	}

	switch {
	case !known:
		m.setCertStatus(t.cfg.Name, 2)
		log.Warn().Msg("certificate status unknown to responder")
	case revoked:
		m.setCertStatus(t.cfg.Name, 1)
		log.Warn().Str("reason", resp.GetRevokeReason()).Msg("certificate is revoked")
	default:
		m.setCertStatus(t.cfg.Name, 0)
		log.Info().Msg("certificate is good")
	}
}
