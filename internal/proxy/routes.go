package proxy

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
)

type API struct {
	cfg      Config
	upstream *upstream
}

func newAPI(cfg Config) *API {
	return &API{cfg: cfg, upstream: newUpstream(cfg)}
}

func registerRoutes(r *gin.Engine, api *API) {
	r.GET("/health", api.handleHealth)

	r.POST("/images", api.requireKey(api.cfg.OpenAIKey, "OPENAI_API_KEY"), api.handleImages)
	r.POST("/voice/openai", api.requireKey(api.cfg.OpenAIKey, "OPENAI_API_KEY"), api.handleVoiceOpenAI)
	r.POST("/voice/11labs", api.requireKey(api.cfg.ElevenKey, "ELEVEN_API_KEY"), api.handleVoiceEleven)

	r.GET("/sfx/search", api.requireKey(api.cfg.FreesoundKey, "FREESOUND_API_KEY"), api.handleSFXSearch)
	r.GET("/sfx/get", api.requireKey(api.cfg.FreesoundKey, "FREESOUND_API_KEY"), api.handleSFXGet)
	r.POST("/sfx/auto", api.requireKey(api.cfg.FreesoundKey, "FREESOUND_API_KEY"), api.handleSFXAuto)
}

// requireKey gates a route on the credential its upstream needs, so a
// misconfigured deployment fails before any upstream call is made.
func (a *API) requireKey(key, name string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if key == "" {
			respondMessage(c, http.StatusBadRequest, "missing credential: "+name)
			c.Abort()
			return
		}
		c.Next()
	}
}

func (a *API) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"ok": true, "service": "bookreel proxy"})
}

func (a *API) handleImages(c *gin.Context) {
	var payload struct {
		Prompt string `json:"prompt" binding:"required"`
		Style  string `json:"style"`
		Aspect string `json:"aspect"`
		N      int    `json:"n"`
	}
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondError(c, http.StatusBadRequest, err)
		return
	}
	n := payload.N
	if n < 1 {
		n = 1
	}
	if n > 4 {
		n = 4
	}

	img, err := a.upstream.generateImage(c.Request.Context(), payload.Prompt, payload.Style, payload.Aspect, n)
	if err != nil {
		respondError(c, http.StatusBadGateway, err)
		return
	}
	c.Data(http.StatusOK, "image/png", img)
}

func (a *API) handleVoiceOpenAI(c *gin.Context) {
	var payload struct {
		Text  string `json:"text" binding:"required"`
		Voice string `json:"voice"`
	}
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondError(c, http.StatusBadRequest, err)
		return
	}

	voice := strings.ToLower(strings.TrimSpace(payload.Voice))
	if voice == "" {
		voice = "alloy"
	}

	audio, err := a.upstream.speakOpenAI(c.Request.Context(), payload.Text, voice)
	if err != nil {
		respondError(c, http.StatusBadGateway, err)
		return
	}
	c.Data(http.StatusOK, "audio/mpeg", audio)
}

func (a *API) handleVoiceEleven(c *gin.Context) {
	var payload struct {
		Text          string         `json:"text" binding:"required"`
		VoiceID       string         `json:"voice_id" binding:"required"`
		ModelID       string         `json:"model_id"`
		VoiceSettings map[string]any `json:"voice_settings"`
	}
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondError(c, http.StatusBadRequest, err)
		return
	}

	audio, err := a.upstream.speakEleven(c.Request.Context(), payload.Text, payload.VoiceID, payload.ModelID, payload.VoiceSettings)
	if err != nil {
		respondError(c, http.StatusBadGateway, err)
		return
	}
	c.Data(http.StatusOK, "audio/mpeg", audio)
}

func (a *API) handleSFXSearch(c *gin.Context) {
	query := strings.TrimSpace(c.Query("query"))
	if query == "" {
		respondMessage(c, http.StatusBadRequest, "missing ?query")
		return
	}

	durGTE := parseFloat(c.Query("duration_gte"), 0)
	durLTE := parseFloat(c.Query("duration_lte"), 15)
	pageSize := parseInt(c.Query("page_size"), 6)
	if pageSize > 20 {
		pageSize = 20
	}

	page, err := a.upstream.searchSounds(c.Request.Context(), query, durGTE, durLTE, pageSize)
	if err != nil {
		respondError(c, http.StatusBadGateway, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

func (a *API) handleSFXGet(c *gin.Context) {
	id := c.Query("id")
	if id == "" {
		respondMessage(c, http.StatusBadRequest, "missing ?id")
		return
	}

	previews, err := a.upstream.soundPreviews(c.Request.Context(), id)
	if err != nil {
		respondError(c, http.StatusBadGateway, err)
		return
	}
	mp3 := pickPreview(previews)
	if mp3 == "" {
		respondMessage(c, http.StatusBadRequest, "no mp3 preview available")
		return
	}

	audio, err := a.upstream.fetchPreview(c.Request.Context(), mp3)
	if err != nil {
		respondError(c, http.StatusBadGateway, err)
		return
	}
	c.Data(http.StatusOK, "audio/mpeg", audio)
}

func (a *API) handleSFXAuto(c *gin.Context) {
	var payload struct {
		Text        string  `json:"text" binding:"required"`
		MaxDuration float64 `json:"max_duration"`
	}
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondError(c, http.StatusBadRequest, err)
		return
	}
	maxDur := payload.MaxDuration
	if maxDur <= 0 {
		maxDur = 10
	}

	query := a.cfg.SFXTable.PickQuery(payload.Text)
	page, err := a.upstream.searchSounds(c.Request.Context(), query, 0, maxDur, 1)
	if err != nil {
		respondError(c, http.StatusBadGateway, err)
		return
	}
	if len(page.Results) == 0 {
		respondMessage(c, http.StatusBadRequest, "no sfx match for: "+query)
		return
	}

	mp3 := pickPreview(page.Results[0].Previews)
	if mp3 == "" {
		respondMessage(c, http.StatusBadRequest, "no mp3 preview available")
		return
	}
	audio, err := a.upstream.fetchPreview(c.Request.Context(), mp3)
	if err != nil {
		respondError(c, http.StatusBadGateway, err)
		return
	}
	c.Data(http.StatusOK, "audio/mpeg", audio)
}

func parseFloat(s string, fallback float64) float64 {
	if s == "" {
		return fallback
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fallback
	}
	return v
}

func parseInt(s string, fallback int) int {
	if s == "" {
		return fallback
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return fallback
	}
	return v
}

func respondError(c *gin.Context, status int, err error) {
	respondMessage(c, status, err.Error())
}

func respondMessage(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"error": message})
}
