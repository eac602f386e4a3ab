package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/Evently-Event-Management/ms-event-seating-projection-sub000/internal/dto"
	"github.com/Evently-Event-Management/ms-event-seating-projection-sub000/pkg/config"
	"github.com/Evently-Event-Management/ms-event-seating-projection-sub000/pkg/logger"
	"github.com/Evently-Event-Management/ms-event-seating-projection-sub000/pkg/retry"
	"go.uber.org/zap"
)

// ErrSourceNotFound means the source service has no such entity. The
// caller treats this as authoritative: the entity is gone.
var ErrSourceNotFound = errors.New("entity not found on source service")

// ProjectionFetcher fetches authoritative projection payloads from the
// source event service
type ProjectionFetcher interface {
	// FetchEvent fetches the full event projection payload
	FetchEvent(ctx context.Context, eventID string) (*dto.EventProjectionDTO, error)
	// FetchSession fetches a single session projection payload
	FetchSession(ctx context.Context, sessionID string) (*dto.SessionProjectionDTO, error)
}

// HTTPProjectionClient fetches projection data over HTTP with
// exponential backoff on transient failures.
type HTTPProjectionClient struct {
	baseURL    string
	httpClient *http.Client
	retryCfg   *retry.Config
	log        *logger.Logger
}

// NewHTTPProjectionClient creates a new HTTPProjectionClient
func NewHTTPProjectionClient(cfg *config.SourceConfig, log *logger.Logger) *HTTPProjectionClient {
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	retryCfg := retry.DefaultConfig()
	if cfg.MaxRetries > 0 {
		retryCfg.MaxRetries = cfg.MaxRetries
	}
	if cfg.RetryInterval > 0 {
		retryCfg.InitialInterval = cfg.RetryInterval
	}
	retryCfg.MaxElapsedTime = cfg.MaxRetryWindow

	return &HTTPProjectionClient{
		baseURL:    cfg.BaseURL,
		httpClient: &http.Client{Timeout: timeout},
		retryCfg:   retryCfg,
		log:        log,
	}
}

// FetchEvent fetches the full event projection payload
func (c *HTTPProjectionClient) FetchEvent(ctx context.Context, eventID string) (*dto.EventProjectionDTO, error) {
	url := fmt.Sprintf("%s/internal/events/%s/projection-data", c.baseURL, eventID)

	payload := &dto.EventProjectionDTO{}
	if err := c.fetchJSON(ctx, url, payload); err != nil {
		return nil, err
	}
	return payload, nil
}

// FetchSession fetches a single session projection payload
func (c *HTTPProjectionClient) FetchSession(ctx context.Context, sessionID string) (*dto.SessionProjectionDTO, error) {
	url := fmt.Sprintf("%s/internal/sessions/%s/projection-data", c.baseURL, sessionID)

	payload := &dto.SessionProjectionDTO{}
	if err := c.fetchJSON(ctx, url, payload); err != nil {
		return nil, err
	}
	return payload, nil
}

// fetchJSON performs a GET with retries. Network failures and 5xx
// responses are retried; 404 maps to ErrSourceNotFound and other 4xx
// responses fail permanently.
func (c *HTTPProjectionClient) fetchJSON(ctx context.Context, url string, out interface{}) error {
	result := retry.DoWithCallback(ctx, c.retryCfg, func(ctx context.Context) error {
		return c.doRequest(ctx, url, out)
	}, func(attempt int, err error, nextInterval time.Duration) {
		c.log.Warn("projection fetch failed, retrying",
			zap.String("url", url),
			zap.Int("attempt", attempt),
			zap.Duration("next_interval", nextInterval),
			zap.Error(err),
		)
	})

	if result.Err != nil {
		if errors.Is(result.LastError, ErrSourceNotFound) {
			return ErrSourceNotFound
		}
		if result.LastError != nil {
			return fmt.Errorf("projection fetch failed after %d attempts: %w", result.Attempts, result.LastError)
		}
		return result.Err
	}
	return nil
}

func (c *HTTPProjectionClient) doRequest(ctx context.Context, url string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return retry.Permanent(fmt.Errorf("failed to create request: %w", err))
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return retry.Retryable(fmt.Errorf("request failed: %w", err))
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
		// fall through to decode
	case resp.StatusCode == http.StatusNotFound:
		return retry.Permanent(ErrSourceNotFound)
	case resp.StatusCode >= 500:
		io.Copy(io.Discard, resp.Body)
		return retry.Retryable(fmt.Errorf("source returned status %d", resp.StatusCode))
	default:
		io.Copy(io.Discard, resp.Body)
		return retry.Permanent(fmt.Errorf("source returned status %d", resp.StatusCode))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return retry.Permanent(fmt.Errorf("failed to decode response: %w", err))
	}
	return nil
}
