package itc

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gemini-hlsw/odb-sequencer/pkg/model"
)

// HTTPClient is a thin JSON-over-HTTP Client implementation for the
// external ITC service. No dedicated HTTP client library is attested
// anywhere in the corpus (the teacher itself reaches for stdlib net/http
// for its own metrics endpoint), so this stays on net/http rather than
// importing one.
type HTTPClient struct {
	BaseURL string
	HTTP    *http.Client
}

// NewHTTPClient builds an HTTPClient with a bounded request timeout.
func NewHTTPClient(baseURL string, timeout time.Duration) *HTTPClient {
	return &HTTPClient{BaseURL: baseURL, HTTP: &http.Client{Timeout: timeout}}
}

func (c *HTTPClient) post(ctx context.Context, path string, in, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("itc: marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("itc: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("itc: request %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("itc: %s returned %d: %s", path, resp.StatusCode, string(data))
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("itc: decode response from %s: %w", path, err)
	}
	return nil
}

func (c *HTTPClient) Spectroscopy(ctx context.Context, input Input) (Result, error) {
	var out Result
	if err := c.post(ctx, "/spectroscopy", input, &out); err != nil {
		return Result{}, err
	}
	return out, nil
}

func (c *HTTPClient) Imaging(ctx context.Context, input Input) (Result, error) {
	var out Result
	if err := c.post(ctx, "/imaging", input, &out); err != nil {
		return Result{}, err
	}
	return out, nil
}

func (c *HTTPClient) SpectroscopyGraphs(ctx context.Context, input Input) (GraphsResult, error) {
	var out GraphsResult
	if err := c.post(ctx, "/spectroscopy/graphs", input, &out); err != nil {
		return GraphsResult{}, err
	}
	return out, nil
}

func (c *HTTPClient) Versions(ctx context.Context) (model.ItcVersions, error) {
	var out model.ItcVersions
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/versions", nil)
	if err != nil {
		return model.ItcVersions{}, err
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return model.ItcVersions{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return model.ItcVersions{}, fmt.Errorf("itc: /versions returned %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return model.ItcVersions{}, err
	}
	return out, nil
}
