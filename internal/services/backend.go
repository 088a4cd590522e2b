package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"

	"sitepanel/internal/config"
	"sitepanel/internal/metrics"
	"sitepanel/internal/models"
)

// SiteAPI is the REST backend the panel manages sites through.
type SiteAPI interface {
	List(ctx context.Context) ([]models.Site, error)
	Create(ctx context.Context, siteName string) (string, error)
	Rename(ctx context.Context, safeName, newName string) (string, error)
	Delete(ctx context.Context, safeName string) error
}

// BackendError is a non-2xx answer. Message is the backend's own "message"
// field and may be empty when the body carried none.
type BackendError struct {
	StatusCode int
	Message    string
}

func (e *BackendError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("backend returned %d", e.StatusCode)
	}
	return fmt.Sprintf("backend returned %d: %s", e.StatusCode, e.Message)
}

// ErrBadPayload marks a response body that could not be decoded.
var ErrBadPayload = errors.New("unexpected response payload")

type messageBody struct {
	Message string `json:"message"`
}

// BackendClient is the net/http implementation of SiteAPI.
type BackendClient struct {
	base    string
	client  *http.Client
	logger  *zap.Logger
	metrics *metrics.Metrics
}

// NewBackendClient builds a client for cfg.APIBase. A nil httpClient gets a
// default one using the configured timeout.
func NewBackendClient(cfg *config.Config, httpClient *http.Client, logger *zap.Logger, m *metrics.Metrics) *BackendClient {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.HTTPTimeout()}
	}
	return &BackendClient{
		base:    cfg.APIBase,
		client:  httpClient,
		logger:  logger.With(zap.String("component", "backend"), zap.String("base", cfg.APIBase)),
		metrics: m,
	}
}

func (b *BackendClient) List(ctx context.Context) ([]models.Site, error) {
	status, body, err := b.do(ctx, "list", http.MethodGet, "/sites", nil)
	if err != nil {
		return nil, err
	}
	if !isOK(status) {
		b.metrics.ObserveBackend("list", "error")
		return nil, backendError(status, body)
	}

	var sites []models.Site
	if err := json.Unmarshal(body, &sites); err != nil {
		b.metrics.ObserveBackend("list", "error")
		return nil, fmt.Errorf("decode sites: %w: %v", ErrBadPayload, err)
	}
	if sites == nil {
		sites = []models.Site{}
	}
	b.metrics.ObserveBackend("list", "ok")
	return sites, nil
}

func (b *BackendClient) Create(ctx context.Context, siteName string) (string, error) {
	status, body, err := b.do(ctx, "create", http.MethodPost, "/create-site", map[string]string{"siteName": siteName})
	if err != nil {
		return "", err
	}

	// The create route always answers JSON, an undecodable body is a transport-level failure.
	var msg messageBody
	if err := json.Unmarshal(body, &msg); err != nil {
		b.metrics.ObserveBackend("create", "error")
		return "", fmt.Errorf("decode create response: %w: %v", ErrBadPayload, err)
	}
	if !isOK(status) {
		b.metrics.ObserveBackend("create", "error")
		return "", &BackendError{StatusCode: status, Message: msg.Message}
	}
	b.metrics.ObserveBackend("create", "ok")
	return msg.Message, nil
}

func (b *BackendClient) Rename(ctx context.Context, safeName, newName string) (string, error) {
	status, body, err := b.do(ctx, "rename", http.MethodPatch, "/sites/"+url.PathEscape(safeName), map[string]string{"newName": newName})
	if err != nil {
		return "", err
	}
	if !isOK(status) {
		b.metrics.ObserveBackend("rename", "error")
		return "", backendError(status, body)
	}

	var msg messageBody
	_ = json.Unmarshal(body, &msg)
	b.metrics.ObserveBackend("rename", "ok")
	return msg.Message, nil
}

func (b *BackendClient) Delete(ctx context.Context, safeName string) error {
	status, body, err := b.do(ctx, "delete", http.MethodDelete, "/sites/"+url.PathEscape(safeName), nil)
	if err != nil {
		return err
	}
	if !isOK(status) {
		b.metrics.ObserveBackend("delete", "error")
		return backendError(status, body)
	}
	b.metrics.ObserveBackend("delete", "ok")
	return nil
}

// do sends one request and reads the whole body. Transport failures are
// counted here, status handling is left to the caller.
func (b *BackendClient) do(ctx context.Context, op, method, path string, payload any) (int, []byte, error) {
	var reader io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return 0, nil, fmt.Errorf("encode %s payload: %w", op, err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, b.base+path, reader)
	if err != nil {
		return 0, nil, fmt.Errorf("create %s request: %w", op, err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := b.client.Do(req)
	if err != nil {
		b.metrics.ObserveBackend(op, "error")
		b.logger.Warn("backend request failed",
			zap.String("op", op), zap.String("method", method), zap.String("path", path), zap.Error(err))
		return 0, nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		b.metrics.ObserveBackend(op, "error")
		return 0, nil, fmt.Errorf("read %s response: %w", op, err)
	}

	b.logger.Debug("backend request",
		zap.String("op", op),
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("took", time.Since(start)))
	return resp.StatusCode, body, nil
}

func isOK(status int) bool {
	return status >= 200 && status < 300
}

func backendError(status int, body []byte) error {
	var msg messageBody
	_ = json.Unmarshal(body, &msg)
	return &BackendError{StatusCode: status, Message: msg.Message}
}

// BackendMessage returns the backend-provided message carried by err, if any.
func BackendMessage(err error) string {
	var be *BackendError
	if errors.As(err, &be) {
		return be.Message
	}
	return ""
}
