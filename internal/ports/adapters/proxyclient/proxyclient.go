package proxyclient

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
)

const requestTimeout = 90 * time.Second

// Client talks to the generation proxy boundary. Each method issues exactly
// one HTTP call and surfaces the proxy's success or failure verbatim.
type Client struct {
	baseURL string
	client  *http.Client
}

func New(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		client:  &http.Client{Timeout: 5 * time.Minute},
	}
}

// Health probes the proxy root and reports reachability.
func (c *Client) Health(ctx context.Context) error {
	_, err := c.get(ctx, "/health", nil)
	return err
}

func (c *Client) GenerateImage(ctx context.Context, prompt, style, aspect string) ([]byte, error) {
	return c.post(ctx, "/images", map[string]any{
		"prompt": prompt,
		"style":  style,
		"aspect": aspect,
	})
}

func (c *Client) SynthesizeOpenAI(ctx context.Context, text, voice string) ([]byte, error) {
	return c.post(ctx, "/voice/openai", map[string]any{
		"text":  text,
		"voice": voice,
	})
}

func (c *Client) SynthesizeEleven(ctx context.Context, text, voiceID string) ([]byte, error) {
	return c.post(ctx, "/voice/11labs", map[string]any{
		"text":     text,
		"voice_id": voiceID,
	})
}

func (c *Client) AutoPick(ctx context.Context, sceneText string, maxDurationSec float64) ([]byte, error) {
	return c.post(ctx, "/sfx/auto", map[string]any{
		"text":         sceneText,
		"max_duration": maxDurationSec,
	})
}

func (c *Client) post(ctx context.Context, path string, payload map[string]any) ([]byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal %s payload: %w", path, err)
	}

	reqCtx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, path)
}

func (c *Client) get(ctx context.Context, path string, qs url.Values) ([]byte, error) {
	reqCtx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	u := c.baseURL + path
	if len(qs) > 0 {
		u += "?" + qs.Encode()
	}
	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	return c.do(req, path)
}

func (c *Client) do(req *http.Request, path string) ([]byte, error) {
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("proxy %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		rb, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("proxy %s status %d: %s", path, resp.StatusCode, truncate(string(rb), 200))
	}
	return io.ReadAll(resp.Body)
}

func truncate(s string, n int) string {
	r := []rune(strings.TrimSpace(s))
	if len(r) <= n {
		return string(r)
	}
	return string(r[:n])
}
