// Package detection talks to the hosted object-detection model that finds
// skin conditions in a photo.
package detection

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	apperrors "fursaver-site/internal/errors"
)

// FailureMessage is the inline message shown when an analysis fails.
const FailureMessage = "Failed to analyze the image. Please try again."

// maxErrorBody caps how much of an error response is kept for logging
const maxErrorBody = 512

// Detector analyses a base64-encoded photo.
type Detector interface {
	Analyze(ctx context.Context, payload, apiKey string) (*AnalysisResult, error)
}

// Client calls the detection endpoint once per Analyze call. There is no
// retry: a failed analysis is retried by the visitor.
type Client struct {
	endpoint string
	client   *http.Client
}

// NewClient creates a detection client for endpoint with the given overall
// request timeout.
func NewClient(endpoint string, timeout time.Duration) *Client {
	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		MaxIdleConns:          10,
		MaxIdleConnsPerHost:   4,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: timeout,
		ExpectContinueTimeout: 1 * time.Second,
	}

	return &Client{
		endpoint: endpoint,
		client: &http.Client{
			Transport: transport,
			Timeout:   timeout,
		},
	}
}

// Analyze posts payload to the endpoint and parses the predictions. Any
// transport failure, non-2xx status or malformed body is a detection error.
func (c *Client) Analyze(ctx context.Context, payload, apiKey string) (*AnalysisResult, error) {
	if strings.TrimSpace(payload) == "" {
		return nil, apperrors.NewValidationError("no image to analyze", nil)
	}

	target, err := url.Parse(c.endpoint)
	if err != nil {
		return nil, apperrors.NewDetectionError(FailureMessage, fmt.Errorf("invalid endpoint: %w", err))
	}
	query := target.Query()
	query.Set("api_key", apiKey)
	target.RawQuery = query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target.String(), strings.NewReader(payload))
	if err != nil {
		return nil, apperrors.NewDetectionError(FailureMessage, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "FurSaver-Site/1.0")

	resp, err := c.client.Do(req)
	if err != nil {
		// drop the query so the API key never reaches the logs
		return nil, apperrors.NewDetectionError(FailureMessage, redactURLError(err))
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, apperrors.NewDetectionError(FailureMessage,
			fmt.Errorf("detection endpoint returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body))))
	}

	var decoded response
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, apperrors.NewDetectionError(FailureMessage, fmt.Errorf("decode detection response: %w", err))
	}

	return decoded.toResult(), nil
}

func redactURLError(err error) error {
	var urlErr *url.Error
	if !errors.As(err, &urlErr) {
		return err
	}
	redacted := urlErr.URL
	if parsed, perr := url.Parse(urlErr.URL); perr == nil {
		parsed.RawQuery = ""
		redacted = parsed.String()
	}
	return &url.Error{Op: urlErr.Op, URL: redacted, Err: urlErr.Err}
}
