package proxy

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

const upstreamTimeout = 90 * time.Second

// upstream wraps the third-party APIs the proxy fronts. Base URLs come from
// Config so tests can point every call at an httptest server.
type upstream struct {
	cfg    Config
	client *http.Client
}

func newUpstream(cfg Config) *upstream {
	return &upstream{cfg: cfg, client: &http.Client{Timeout: upstreamTimeout}}
}

func aspectSize(aspect string) string {
	switch aspect {
	case "16:9":
		return "1536x1024"
	case "9:16":
		return "1024x1536"
	default:
		return "1024x1024"
	}
}

// generateImage asks OpenAI for n renders and returns the first as decoded
// image bytes.
func (u *upstream) generateImage(ctx context.Context, prompt, style, aspect string, n int) ([]byte, error) {
	if style != "" {
		prompt = fmt.Sprintf("%s. Art style: %s", prompt, style)
	}
	payload := map[string]any{
		"model":  "gpt-image-1",
		"prompt": prompt,
		"n":      n,
		"size":   aspectSize(aspect),
	}

	raw, err := u.postJSON(ctx, u.cfg.OpenAIBaseURL+"/v1/images/generations", payload, map[string]string{
		"Authorization": "Bearer " + u.cfg.OpenAIKey,
	})
	if err != nil {
		return nil, err
	}

	var out struct {
		Data []struct {
			B64JSON string `json:"b64_json"`
		} `json:"data"`
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("decode image response: %w", err)
	}
	if len(out.Data) == 0 || out.Data[0].B64JSON == "" {
		return nil, errors.New("image response has no data")
	}
	img, err := base64.StdEncoding.DecodeString(out.Data[0].B64JSON)
	if err != nil {
		return nil, fmt.Errorf("decode image payload: %w", err)
	}
	return img, nil
}

func (u *upstream) speakOpenAI(ctx context.Context, text, voice string) ([]byte, error) {
	payload := map[string]any{
		"model":  "gpt-4o-mini-tts",
		"input":  text,
		"voice":  voice,
		"format": "mp3",
	}
	return u.postJSON(ctx, u.cfg.OpenAIBaseURL+"/v1/audio/speech", payload, map[string]string{
		"Authorization": "Bearer " + u.cfg.OpenAIKey,
	})
}

func (u *upstream) speakEleven(ctx context.Context, text, voiceID, modelID string, settings map[string]any) ([]byte, error) {
	if modelID == "" {
		modelID = "eleven_multilingual_v2"
	}
	if settings == nil {
		settings = map[string]any{
			"stability":        0.5,
			"similarity_boost": 0.75,
		}
	}
	payload := map[string]any{
		"text":           text,
		"model_id":       modelID,
		"voice_settings": settings,
	}
	return u.postJSON(ctx, u.cfg.ElevenBaseURL+"/v1/text-to-speech/"+url.PathEscape(voiceID), payload, map[string]string{
		"xi-api-key": u.cfg.ElevenKey,
		"Accept":     "audio/mpeg",
	})
}

type freesoundSound struct {
	ID       int               `json:"id"`
	Name     string            `json:"name"`
	Duration float64           `json:"duration"`
	Username string            `json:"username"`
	License  string            `json:"license"`
	Previews map[string]string `json:"previews"`
}

type freesoundPage struct {
	Count   int              `json:"count"`
	Results []freesoundSound `json:"results"`
}

func (u *upstream) searchSounds(ctx context.Context, query string, durGTE, durLTE float64, pageSize int) (*freesoundPage, error) {
	qs := url.Values{}
	qs.Set("query", query)
	qs.Set("page_size", strconv.Itoa(pageSize))
	qs.Set("fields", "id,name,previews,license,filesize,duration,username")
	qs.Set("filter", fmt.Sprintf("duration:[%g TO %g]", durGTE, durLTE))

	raw, err := u.getJSON(ctx, u.cfg.FreesoundBaseURL+"/apiv2/search/text/?"+qs.Encode())
	if err != nil {
		return nil, err
	}
	var page freesoundPage
	if err := json.Unmarshal(raw, &page); err != nil {
		return nil, fmt.Errorf("decode freesound page: %w", err)
	}
	return &page, nil
}

func (u *upstream) soundPreviews(ctx context.Context, id string) (map[string]string, error) {
	raw, err := u.getJSON(ctx, u.cfg.FreesoundBaseURL+"/apiv2/sounds/"+url.PathEscape(id)+"/?fields=previews")
	if err != nil {
		return nil, err
	}
	var meta struct {
		Previews map[string]string `json:"previews"`
	}
	if err := json.Unmarshal(raw, &meta); err != nil {
		return nil, fmt.Errorf("decode freesound sound: %w", err)
	}
	return meta.Previews, nil
}

// fetchPreview streams an MP3 preview URL. Relative preview URLs are
// resolved against the Freesound base so test servers work too.
func (u *upstream) fetchPreview(ctx context.Context, previewURL string) ([]byte, error) {
	pu, err := url.Parse(previewURL)
	if err != nil {
		return nil, fmt.Errorf("parse preview url: %w", err)
	}
	if !pu.IsAbs() {
		previewURL = u.cfg.FreesoundBaseURL + previewURL
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, previewURL, nil)
	if err != nil {
		return nil, err
	}
	return u.do(req)
}

// pickPreview prefers the high quality MP3 and falls back to low quality.
func pickPreview(previews map[string]string) string {
	if p := previews["preview-hq-mp3"]; p != "" {
		return p
	}
	return previews["preview-lq-mp3"]
}

func (u *upstream) postJSON(ctx context.Context, rawURL string, payload map[string]any, headers map[string]string) ([]byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal upstream payload: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, rawURL, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	return u.do(req)
}

func (u *upstream) getJSON(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Token "+u.cfg.FreesoundKey)
	return u.do(req)
}

func (u *upstream) do(req *http.Request) ([]byte, error) {
	resp, err := u.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("upstream %s: %w", req.URL.Host, err)
	}
	defer resp.Body.Close()

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read upstream response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("upstream %s status %d: %s", req.URL.Host, resp.StatusCode, truncate(string(b), 200))
	}
	return b, nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return string(r)
	}
	return string(r[:n])
}
