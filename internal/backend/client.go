package backend

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/FadyMorkos3/VIGIL-sub001/internal/domain/camera"
	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

const (
	LiveStatusPath  = "/api/live-status"
	OfflineModePath = "/api/offline-mode"
)

// Client talks to the surveillance backend's REST API.
//
// Endpoints:
//   - GET  /api/live-status  → {cameras: [...]} or bare [...]
//   - GET  /api/offline-mode → {offline_mode: bool}
//   - POST /api/offline-mode → {offline_mode: bool} (echoes new state)
//
// Every call is bounded by the per-request timeout and by ctx.
type Client struct {
	log  *zap.Logger
	http *resty.Client
	base string
}

// Options configures a Client.
type Options struct {
	BaseURL        string        // e.g. http://127.0.0.1:5000; trailing slash is ignored
	RequestTimeout time.Duration // per request; 0 => 5s
}

// NewClient builds a backend client on top of a resty HTTP client.
func NewClient(log *zap.Logger, opts Options) *Client {
	log = log.Named("backend")
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 5 * time.Second
	}
	base := strings.TrimRight(opts.BaseURL, "/")

	r := resty.New()
	r.SetBaseURL(base)
	r.SetTimeout(opts.RequestTimeout)
	r.SetHeader("Accept", "application/json")
	r.SetLogger(log.Sugar())

	return &Client{log: log, http: r, base: base}
}

// BaseURL returns the normalized base URL the client targets.
func (c *Client) BaseURL() string { return c.base }

// LiveStatus fetches the current camera records.
func (c *Client) LiveStatus(ctx context.Context) ([]camera.CameraStatus, error) {
	body, err := c.do(ctx, http.MethodGet, LiveStatusPath, nil)
	if err != nil {
		return nil, err
	}
	return decodeLiveStatus(body)
}

// OfflineMode fetches the operator-controlled global offline flag.
func (c *Client) OfflineMode(ctx context.Context) (bool, error) {
	body, err := c.do(ctx, http.MethodGet, OfflineModePath, nil)
	if err != nil {
		return false, err
	}
	return decodeOfflineMode(body)
}

// SetOfflineMode writes the flag and returns the state echoed by the backend.
func (c *Client) SetOfflineMode(ctx context.Context, offline bool) (bool, error) {
	body, err := c.do(ctx, http.MethodPost, OfflineModePath, offlineModeBody{OfflineMode: &offline})
	if err != nil {
		return false, err
	}
	return decodeOfflineMode(body)
}

// do issues a request and returns the raw body of a 2xx response.
// Transport failures and non-2xx statuses both map to ErrNetwork.
func (c *Client) do(ctx context.Context, method, path string, payload any) ([]byte, error) {
	req := c.http.R().SetContext(ctx)
	if payload != nil {
		req.SetHeader("Content-Type", "application/json").SetBody(payload)
	}

	resp, err := req.Execute(method, path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s %s: %v", ErrNetwork, method, path, err)
	}
	if !resp.IsSuccess() {
		return nil, &StatusError{
			Method: method,
			Path:   path,
			Code:   resp.StatusCode(),
			Body:   truncate(strings.TrimSpace(resp.String()), 256),
		}
	}
	return resp.Body(), nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	// back off to a rune boundary so the result stays valid UTF-8
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n] + "…"
}
