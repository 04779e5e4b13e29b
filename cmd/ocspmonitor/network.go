package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// networkResult carries the outcome of one OCSP POST, regardless of
// whether it ultimately succeeded.
type networkResult struct {
	StatusCode      int
	SendReceiveTime time.Duration
	ContentType     string
	Body            []byte
}

// postOCSPRequest POSTs an encoded OCSP request with the
// application/ocsp-request content type and reads up to maxSize bytes
// of the response body, failing if the body is longer. A maxSize of 0
// reads the whole body.
func postOCSPRequest(ctx context.Context, client *http.Client, url string, maxSize int64, body []byte) (networkResult, error) {
	var result networkResult

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return result, fmt.Errorf("failed to create OCSP HTTP request: %w", err)
	}
	req.Header.Set("Content-Type", "application/ocsp-request")

	start := time.Now()
	resp, err := client.Do(req)
	result.SendReceiveTime = time.Since(start)
	if err != nil {
		return result, fmt.Errorf("failed to send OCSP request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	result.StatusCode = resp.StatusCode
	result.ContentType = resp.Header.Get("Content-Type")

	if maxSize > 0 {
		limited := &io.LimitedReader{R: resp.Body, N: maxSize + 1}
		result.Body, err = io.ReadAll(limited)
		if err == nil && int64(len(result.Body)) > maxSize {
			result.Body = result.Body[:maxSize]
			err = fmt.Errorf("OCSP response exceeded maximum size of %d bytes", maxSize)
		}
	} else {
		result.Body, err = io.ReadAll(resp.Body)
	}

	return result, err
}
