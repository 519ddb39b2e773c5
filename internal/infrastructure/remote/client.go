package remote

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/sangkips/posync/internal/config"
	"github.com/sangkips/posync/internal/metrics"
	"github.com/sangkips/posync/pkg/apperror"
	"github.com/sangkips/posync/pkg/logger"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"
)

// IdempotencyKeyHeader carries the payload digest of a push
const IdempotencyKeyHeader = "Idempotency-Key"

const maxErrorBody = 4 << 10

// Client talks to the sync server. Every call carries the session's bearer
// credential and is paced by a token bucket.
type Client struct {
	baseURL string
	tokens  oauth2.TokenSource
	http    *http.Client
	limiter *rate.Limiter
	metrics *metrics.Sync
	log     *zap.Logger
}

// NewClient creates a sync client for cfg. tokens supplies the bearer credential.
func NewClient(cfg *config.RemoteConfig, tokens oauth2.TokenSource, m *metrics.Sync, log *zap.Logger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}

	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		tokens:  tokens,
		http: &http.Client{
			Timeout: timeout,
			Transport: &oauth2.Transport{
				Source: tokens,
				Base:   http.DefaultTransport,
			},
		},
		limiter: rate.NewLimiter(limit, burst),
		metrics: m,
		log:     logger.OrNop(log).Named("remote"),
	}
}

// Configured reports whether a sync endpoint is set
func (c *Client) Configured() bool {
	return c != nil && c.baseURL != ""
}

// Ready checks, without any network traffic, that a request could be made
func (c *Client) Ready() error {
	if !c.Configured() {
		return apperror.ErrRemoteNotConfigured
	}
	_, err := c.tokens.Token()
	return err
}

// Pull requests changes for the given tables
func (c *Client) Pull(ctx context.Context, req PullRequest) (*PullResponse, error) {
	var resp PullResponse
	if err := c.do(ctx, "pull", http.MethodPost, "/sync/pull", req, &resp, nil); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Push submits a change set. The Idempotency-Key header is the SHA-256 of
// the encoded payload so a retried identical push is recognised server-side.
func (c *Client) Push(ctx context.Context, changes ChangeSet) (*PushResponse, error) {
	body, err := json.Marshal(PushRequest{Changes: changes})
	if err != nil {
		return nil, fmt.Errorf("failed to encode push: %w", err)
	}
	sum := sha256.Sum256(body)
	headers := map[string]string{IdempotencyKeyHeader: hex.EncodeToString(sum[:])}

	var resp PushResponse
	if err := c.do(ctx, "push", http.MethodPost, "/sync/push", json.RawMessage(body), &resp, headers); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Delete removes ids from table on the server
func (c *Client) Delete(ctx context.Context, table string, ids []string) error {
	var resp DeleteResponse
	return c.do(ctx, "delete", http.MethodPost, "/sync/delete", DeleteRequest{Table: table, IDs: ids}, &resp, nil)
}

// FetchProfile returns the profile of userID, or nil when the server has none
func (c *Client) FetchProfile(ctx context.Context, userID string) (*Profile, error) {
	var profile Profile
	err := c.do(ctx, "profile", http.MethodGet, "/profiles/"+url.PathEscape(userID), nil, &profile, nil)
	if err != nil {
		var appErr *apperror.AppError
		if errors.As(err, &appErr) && appErr.Code == http.StatusNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &profile, nil
}

func (c *Client) do(ctx context.Context, op, method, path string, in, out interface{}, headers map[string]string) (err error) {
	// fail fast without touching the network
	if err := c.Ready(); err != nil {
		return err
	}

	done := c.metrics.TrackRemote(op)
	defer func() { done(err) }()

	if err := c.limiter.Wait(ctx); err != nil {
		return apperror.WrapRemote(op, err)
	}

	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to encode %s request: %w", op, err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to build %s request: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return apperror.WrapRemote(op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		c.log.Debug("remote rejected request",
			zap.String("operation", op),
			zap.Int("status", resp.StatusCode),
		)
		return apperror.NewRemoteError(resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil && !errors.Is(err, io.EOF) {
		return apperror.WrapRemote(op+": decode response", err)
	}
	return nil
}
