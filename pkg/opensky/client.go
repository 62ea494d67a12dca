// Package opensky provides a client for the OpenSky Network REST API.
//
// Only the anonymous `states/all` endpoint is used: it returns the current state
// vector of every aircraft inside a latitude/longitude box.
//
// API Documentation: https://openskynetwork.github.io/opensky-api/rest.html
package opensky

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/unklstewy/plane-tracker/pkg/coordinates"
)

const (
	// DefaultBaseURL is the OpenSky REST API base URL
	DefaultBaseURL = "https://opensky-network.org/api"

	// DefaultTimeout for API requests
	DefaultTimeout = 10 * time.Second

	// maxErrorBody caps how much of a non-2xx body is kept on a FetchError
	maxErrorBody = 512
)

// Client is an OpenSky Network API client.
type Client struct {
	// baseURL is the API base URL (default: https://opensky-network.org/api)
	baseURL string

	// httpClient is the HTTP client used for API requests
	httpClient *http.Client

	logger *slog.Logger
}

// Config contains configuration for the OpenSky client.
type Config struct {
	BaseURL string
	Timeout time.Duration
	Logger  *slog.Logger
}

// NewClient creates a new OpenSky client. Zero values in cfg fall back to
// DefaultBaseURL, DefaultTimeout and slog.Default().
func NewClient(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	return &Client{
		baseURL: cfg.BaseURL,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		logger: cfg.Logger,
	}
}

// StatesResponse is the body returned by /states/all.
//
// Each element of States is left undecoded: a state vector is a positional,
// heterogeneous JSON array and is decoded record by record by the caller so a
// single bad entry does not fail the whole batch.
type StatesResponse struct {
	// Time is the provider timestamp (Unix seconds) the vectors are associated with.
	// Not always an integer.
	Time float64 `json:"time"`

	// States holds one raw state vector per aircraft; nil when the provider sent
	// null or omitted the key
	States []json.RawMessage `json:"states"`
}

// StatesURL returns the request URL for the given bounding box.
func (c *Client) StatesURL(box coordinates.BoundingBox) string {
	q := url.Values{}
	q.Set("lamin", formatDegrees(box.MinLatitude))
	q.Set("lomin", formatDegrees(box.MinLongitude))
	q.Set("lamax", formatDegrees(box.MaxLatitude))
	q.Set("lomax", formatDegrees(box.MaxLongitude))
	return fmt.Sprintf("%s/states/all?%s", c.baseURL, q.Encode())
}

// GetStates fetches all state vectors inside box.
//
// Errors are typed: *FetchError when the request could not be completed or
// the provider answered with a non-2xx status, *ParseError when a 2xx body is
// not the expected JSON object.
func (c *Client) GetStates(ctx context.Context, box coordinates.BoundingBox) (*StatesResponse, error) {
	reqURL := c.StatesURL(box)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, &FetchError{URL: reqURL, Err: fmt.Errorf("create request: %w", err)}
	}
	req.Header.Set("Accept", "application/json")

	c.logger.Debug("requesting state vectors", slog.String("url", reqURL))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &FetchError{URL: reqURL, Err: fmt.Errorf("http request: %w", err)}
	}
	defer resp.Body.Close()

	c.logger.Info("provider responded", slog.Int("status", resp.StatusCode))

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &FetchError{URL: reqURL, StatusCode: resp.StatusCode, Err: fmt.Errorf("read response: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		if len(body) > maxErrorBody {
			body = body[:maxErrorBody]
		}
		return nil, &FetchError{
			URL:        reqURL,
			StatusCode: resp.StatusCode,
			Body:       string(body),
			RateLimit:  extractRateLimitHeaders(resp.Header),
		}
	}

	var states StatesResponse
	if err := json.Unmarshal(body, &states); err != nil {
		return nil, &ParseError{Body: body, Err: err}
	}

	return &states, nil
}

// Close cleanly shuts down the client.
// OpenSky is plain request/response, so this only drops idle connections.
func (c *Client) Close() error {
	c.httpClient.CloseIdleConnections()
	return nil
}

func formatDegrees(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
