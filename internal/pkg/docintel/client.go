// Package docintel talks to the hosted document extraction service over
// its REST surface: submit an image to a model, then poll the returned
// operation until it settles.
package docintel

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"
)

const (
	apiVersion = "2024-02-29-preview"

	// DefaultModelID is the custom receipt model used when none is
	// configured.
	DefaultModelID = "TrainingHard1"

	defaultPollInterval = 2 * time.Second

	operationNotStarted = "notStarted"
	operationRunning    = "running"
	operationSucceeded  = "succeeded"
	operationFailed     = "failed"
)

// Config carries the connection settings for the extraction service.
type Config struct {
	Endpoint string `validate:"required,url"`
	Key      string `validate:"required"`
	ModelID  string `validate:"required"`
}

// Client submits analysis requests against one custom model.
type Client struct {
	endpoint     string
	key          string
	modelID      string
	httpClient   *http.Client
	pollInterval time.Duration
}

// NewClient builds a client from cfg. The underlying HTTP client carries
// no timeout: a slow analysis keeps polling until the service settles or
// the caller's context is canceled.
func NewClient(cfg Config) *Client {
	return &Client{
		endpoint:     strings.TrimRight(cfg.Endpoint, "/"),
		key:          cfg.Key,
		modelID:      cfg.ModelID,
		httpClient:   &http.Client{},
		pollInterval: defaultPollInterval,
	}
}

// ServiceError is the error body the service attaches to failed
// operations.
type ServiceError struct {
	Code    string `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
}

func (e *ServiceError) Error() string {
	if e == nil {
		return "unknown analysis error"
	}
	if e.Code != "" {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	return e.Message
}

type operationStatus struct {
	Status        string         `json:"status"`
	Error         *ServiceError  `json:"error,omitempty"`
	AnalyzeResult *AnalyzeResult `json:"analyzeResult,omitempty"`
}

// Analyze submits imageData to the configured model and blocks until the
// analysis operation settles. The service paces the polling through its
// Retry-After header.
func (c *Client) Analyze(ctx context.Context, imageData []byte) (*AnalyzeResult, error) {
	analyzeURL := fmt.Sprintf("%s/documentintelligence/documentModels/%s:analyze?api-version=%s",
		c.endpoint, c.modelID, apiVersion)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, analyzeURL, bytes.NewReader(imageData))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/octet-stream")
	req.Header.Set("Ocp-Apim-Subscription-Key", c.key)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("submit analysis: %w", err)
	}
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	resp.Body.Close()

	if resp.StatusCode != http.StatusAccepted {
		return nil, fmt.Errorf("analysis submit failed: status=%d body=%s", resp.StatusCode, string(body))
	}
	operationURL := resp.Header.Get("Operation-Location")
	if operationURL == "" {
		return nil, errors.New("analysis response missing Operation-Location header")
	}

	return c.pollOperation(ctx, operationURL, retryAfter(resp.Header, c.pollInterval))
}

func (c *Client) pollOperation(ctx context.Context, operationURL string, wait time.Duration) (*AnalyzeResult, error) {
	timer := time.NewTimer(wait)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-timer.C:
		}

		op, nextWait, err := c.fetchOperation(ctx, operationURL)
		if err != nil {
			return nil, err
		}

		switch op.Status {
		case operationSucceeded:
			if op.AnalyzeResult == nil {
				return nil, errors.New("analysis succeeded without a result payload")
			}
			return op.AnalyzeResult, nil
		case operationFailed:
			if op.Error != nil {
				return nil, fmt.Errorf("analysis failed: %w", op.Error)
			}
			return nil, errors.New("analysis failed without error details")
		case operationNotStarted, operationRunning:
			timer.Reset(nextWait)
		default:
			return nil, fmt.Errorf("analysis returned unexpected status %q", op.Status)
		}
	}
}

func (c *Client) fetchOperation(ctx context.Context, operationURL string) (*operationStatus, time.Duration, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, operationURL, nil)
	if err != nil {
		return nil, 0, err
	}
	req.Header.Set("Ocp-Apim-Subscription-Key", c.key)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("poll analysis: %w", err)
	}
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, 0, fmt.Errorf("poll analysis failed: status=%d body=%s", resp.StatusCode, string(body))
	}

	var op operationStatus
	if err := json.Unmarshal(body, &op); err != nil {
		return nil, 0, fmt.Errorf("decode analysis operation: %w", err)
	}
	return &op, retryAfter(resp.Header, c.pollInterval), nil
}

// retryAfter reads the service's pacing hint, falling back to def.
func retryAfter(h http.Header, def time.Duration) time.Duration {
	if v := h.Get("Retry-After"); v != "" {
		if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
			return time.Duration(secs) * time.Second
		}
	}
	return def
}
