package proxy

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
)

func setupTestServer(t *testing.T, cfg Config) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	cfg.Logf = func(string, ...any) {}
	return NewServer(cfg).Engine()
}

func TestHealthHandler(t *testing.T) {
	engine := setupTestServer(t, Config{})

	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if ok, exists := body["ok"].(bool); !exists || !ok {
		t.Fatalf("expected ok=true, body=%v", body)
	}
}

func TestMissingCredentialGatesRoute(t *testing.T) {
	engine := setupTestServer(t, Config{})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/images", strings.NewReader(`{"prompt":"a castle"}`))
	req.Header.Set("Content-Type", "application/json")
	engine.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "OPENAI_API_KEY") {
		t.Fatalf("expected credential name in error, got %s", rec.Body.String())
	}
}

func TestImagesReturnsDecodedBytes(t *testing.T) {
	imageBytes := []byte("fake-png-bytes")
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/images/generations" {
			t.Errorf("unexpected upstream path %s", r.URL.Path)
		}
		var payload map[string]any
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Errorf("decode upstream payload: %v", err)
		}
		if payload["size"] != "1536x1024" {
			t.Errorf("size = %v, want 1536x1024", payload["size"])
		}
		json.NewEncoder(w).Encode(map[string]any{
			"data": []map[string]string{{"b64_json": base64.StdEncoding.EncodeToString(imageBytes)}},
		})
	}))
	defer upstream.Close()

	engine := setupTestServer(t, Config{OpenAIKey: "sk-test", OpenAIBaseURL: upstream.URL})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/images",
		strings.NewReader(`{"prompt":"a castle","style":"watercolor","aspect":"16:9"}`))
	req.Header.Set("Content-Type", "application/json")
	engine.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if rec.Body.String() != string(imageBytes) {
		t.Fatalf("expected decoded image bytes, got %q", rec.Body.String())
	}
}

func TestVoiceOpenAIDefaultsVoice(t *testing.T) {
	var gotVoice string
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var payload map[string]any
		json.NewDecoder(r.Body).Decode(&payload)
		gotVoice, _ = payload["voice"].(string)
		w.Write([]byte("mp3"))
	}))
	defer upstream.Close()

	engine := setupTestServer(t, Config{OpenAIKey: "sk-test", OpenAIBaseURL: upstream.URL})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/voice/openai", strings.NewReader(`{"text":"hello","voice":"Ember"}`))
	req.Header.Set("Content-Type", "application/json")
	engine.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if gotVoice != "ember" {
		t.Errorf("voice = %q, want lowercased %q", gotVoice, "ember")
	}

	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/voice/openai", strings.NewReader(`{"text":"hello"}`))
	req.Header.Set("Content-Type", "application/json")
	engine.ServeHTTP(rec, req)

	if gotVoice != "alloy" {
		t.Errorf("voice = %q, want default %q", gotVoice, "alloy")
	}
}

func TestVoiceElevenRequiresVoiceID(t *testing.T) {
	engine := setupTestServer(t, Config{ElevenKey: "xi-test"})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/voice/11labs", strings.NewReader(`{"text":"hello"}`))
	req.Header.Set("Content-Type", "application/json")
	engine.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without voice_id, got %d", rec.Code)
	}
}

func TestSFXAutoPicksFromTable(t *testing.T) {
	mp3 := []byte("sfx-mp3")
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/apiv2/search/text/":
			if q := r.URL.Query().Get("query"); q != "thunder" {
				t.Errorf("search query = %q, want %q", q, "thunder")
			}
			if ps := r.URL.Query().Get("page_size"); ps != "1" {
				t.Errorf("page_size = %q, want 1", ps)
			}
			json.NewEncoder(w).Encode(map[string]any{
				"count": 1,
				"results": []map[string]any{{
					"id":       123,
					"name":     "thunder roll",
					"previews": map[string]string{"preview-hq-mp3": "/previews/123.mp3"},
				}},
			})
		case strings.HasPrefix(r.URL.Path, "/previews/"):
			w.Write(mp3)
		default:
			t.Errorf("unexpected upstream path %s", r.URL.Path)
		}
	}))
	defer upstream.Close()

	engine := setupTestServer(t, Config{FreesoundKey: "fs-test", FreesoundBaseURL: upstream.URL})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/sfx/auto",
		strings.NewReader(`{"text":"Thunder rolled over the hills."}`))
	req.Header.Set("Content-Type", "application/json")
	engine.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if rec.Body.String() != string(mp3) {
		t.Fatalf("expected preview bytes, got %q", rec.Body.String())
	}
}

func TestSFXAutoNoMatchIsClientError(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"count": 0, "results": []any{}})
	}))
	defer upstream.Close()

	engine := setupTestServer(t, Config{FreesoundKey: "fs-test", FreesoundBaseURL: upstream.URL})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/sfx/auto", strings.NewReader(`{"text":"plain text"}`))
	req.Header.Set("Content-Type", "application/json")
	engine.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "cinematic whoosh") {
		t.Fatalf("expected fallback query in error, got %s", rec.Body.String())
	}
}

func TestSFXSearchClampsPageSize(t *testing.T) {
	var gotPageSize string
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPageSize = r.URL.Query().Get("page_size")
		json.NewEncoder(w).Encode(map[string]any{"count": 0, "results": []any{}})
	}))
	defer upstream.Close()

	engine := setupTestServer(t, Config{FreesoundKey: "fs-test", FreesoundBaseURL: upstream.URL})

	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/sfx/search?query=rain&page_size=50", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if gotPageSize != "20" {
		t.Errorf("page_size = %s, want clamped to 20", gotPageSize)
	}
}

func TestSFXGetPrefersHighQualityPreview(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasPrefix(r.URL.Path, "/apiv2/sounds/"):
			json.NewEncoder(w).Encode(map[string]any{
				"previews": map[string]string{
					"preview-hq-mp3": "/previews/hq.mp3",
					"preview-lq-mp3": "/previews/lq.mp3",
				},
			})
		case r.URL.Path == "/previews/hq.mp3":
			fmt.Fprint(w, "hq")
		case r.URL.Path == "/previews/lq.mp3":
			fmt.Fprint(w, "lq")
		}
	}))
	defer upstream.Close()

	engine := setupTestServer(t, Config{FreesoundKey: "fs-test", FreesoundBaseURL: upstream.URL})

	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/sfx/get?id=42", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if rec.Body.String() != "hq" {
		t.Fatalf("expected hq preview, got %q", rec.Body.String())
	}
}
