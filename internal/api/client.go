package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"xferbench/internal/model"
	"xferbench/internal/results"
)

// Client is a thin HTTP client for the results server.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient creates a client for the given base URL (e.g. http://host:port).
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: NormalizeBaseURL(baseURL),
		http: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// Results fetches the latest transfer results.
func (c *Client) Results(ctx context.Context) ([]model.TransferResult, error) {
	var resp []model.TransferResult
	if err := c.getJSON(ctx, "/api/results", &resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// Summary fetches summary statistics of the latest results.
func (c *Client) Summary(ctx context.Context) (results.Summary, error) {
	var resp results.Summary
	err := c.getJSON(ctx, "/api/summary", &resp)
	return resp, err
}

// Runs fetches up to limit recent runs; limit <= 0 fetches all.
func (c *Client) Runs(ctx context.Context, limit int) ([]model.Run, error) {
	endpoint := "/api/runs"
	if limit > 0 {
		endpoint += "?limit=" + strconv.Itoa(limit)
	}
	var resp []model.Run
	if err := c.getJSON(ctx, endpoint, &resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// NormalizeBaseURL adds a scheme to bare host:port addresses.
func NormalizeBaseURL(addr string) string {
	addr = strings.TrimRight(addr, "/")
	if strings.HasPrefix(addr, "http://") || strings.HasPrefix(addr, "https://") {
		return addr
	}
	return "http://" + addr
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}

	res, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		body, _ := io.ReadAll(res.Body)
		msg := strings.TrimSpace(string(body))
		if msg != "" {
			return fmt.Errorf("request failed: %s: %s", res.Status, msg)
		}
		return fmt.Errorf("request failed: %s", res.Status)
	}

	decoder := json.NewDecoder(res.Body)
	return decoder.Decode(out)
}
