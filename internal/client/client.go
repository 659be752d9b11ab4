// Package client talks to the check-in server's HTTP API on behalf of the
// scanner CLI.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ignite/attendance-checkin/internal/domain"
	"github.com/ignite/attendance-checkin/internal/pkg/httpretry"
)

// APIError is a non-2xx response whose body did not carry a result.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("server returned %d: %s", e.Status, e.Message)
}

// History is one local day of recorded scans.
type History struct {
	Date   string             `json:"date"`
	Count  int                `json:"count"`
	Events []domain.ScanEvent `json:"events"`
}

type clearResult struct {
	Success bool   `json:"success"`
	Deleted int    `json:"deleted"`
	Error   string `json:"error"`
}

type personalResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Error   string `json:"error"`
}

type errorBody struct {
	Error string `json:"error"`
}

// Client is a check-in server API client.
type Client struct {
	baseURL    string
	httpClient httpretry.HTTPDoer
}

// New creates a client for the server at baseURL.
func New(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpretry.NewRetryClient(&http.Client{Timeout: timeout}, 3),
	}
}

// NewWithDoer creates a client using doer for transport.
func NewWithDoer(baseURL string, doer httpretry.HTTPDoer) *Client {
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), httpClient: doer}
}

// doRequest sends body as JSON and returns the status and raw response.
func (c *Client) doRequest(ctx context.Context, method, path string, params url.Values, body interface{}) (int, []byte, error) {
	fullURL := c.baseURL + path
	if len(params) > 0 {
		fullURL += "?" + params.Encode()
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return 0, nil, fmt.Errorf("encoding request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, fullURL, reader)
	if err != nil {
		return 0, nil, fmt.Errorf("creating request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("reading response: %w", err)
	}
	return resp.StatusCode, data, nil
}

func apiError(status int, data []byte) *APIError {
	var body errorBody
	if err := json.Unmarshal(data, &body); err == nil && body.Error != "" {
		return &APIError{Status: status, Message: body.Error}
	}
	return &APIError{Status: status, Message: strings.TrimSpace(string(data))}
}

// Scan submits one code. Every handled outcome, including rejections and
// pipeline failures the server reported in a ScanResult, comes back as a
// result with a nil error.
func (c *Client) Scan(ctx context.Context, code string) (domain.ScanResult, error) {
	status, data, err := c.doRequest(ctx, http.MethodPost, "/api/scans", nil, map[string]string{"code": code})
	if err != nil {
		return domain.ScanResult{}, err
	}

	var result domain.ScanResult
	if err := json.Unmarshal(data, &result); err != nil {
		return domain.ScanResult{}, apiError(status, data)
	}
	if status != http.StatusOK && result.Error == "" {
		return domain.ScanResult{}, apiError(status, data)
	}
	return result, nil
}

// History lists the scans of day (YYYY-MM-DD). An empty day means today in
// the server's time zone.
func (c *Client) History(ctx context.Context, day string) (*History, error) {
	params := url.Values{}
	if day != "" {
		params.Set("date", day)
	}
	status, data, err := c.doRequest(ctx, http.MethodGet, "/api/scans", params, nil)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, apiError(status, data)
	}

	var h History
	if err := json.Unmarshal(data, &h); err != nil {
		return nil, fmt.Errorf("decoding history: %w", err)
	}
	return &h, nil
}

// Clear deletes every recorded scan and returns how many were removed.
func (c *Client) Clear(ctx context.Context) (int, error) {
	status, data, err := c.doRequest(ctx, http.MethodDelete, "/api/scans", nil, nil)
	if err != nil {
		return 0, err
	}

	var res clearResult
	if err := json.Unmarshal(data, &res); err != nil || !res.Success {
		if res.Error != "" {
			return 0, &APIError{Status: status, Message: res.Error}
		}
		return 0, apiError(status, data)
	}
	return res.Deleted, nil
}

// SavePersonal writes target into its sheet and returns the server's
// confirmation message.
func (c *Client) SavePersonal(ctx context.Context, target domain.PersonalSheetTarget) (string, error) {
	status, data, err := c.doRequest(ctx, http.MethodPost, "/api/personal", nil, target)
	if err != nil {
		return "", err
	}

	var res personalResult
	if err := json.Unmarshal(data, &res); err != nil || !res.Success {
		if res.Error != "" {
			return "", &APIError{Status: status, Message: res.Error}
		}
		return "", apiError(status, data)
	}
	return res.Message, nil
}
