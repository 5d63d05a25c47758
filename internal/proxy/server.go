package proxy

import (
	"fmt"
	"log"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/dstrelnikov/bookreel/internal/domain/sfx"
)

// Config holds everything the proxy needs: upstream credentials, override
// base URLs for tests, and the keyword table used by /sfx/auto.
type Config struct {
	Port string

	OpenAIKey    string
	ElevenKey    string
	FreesoundKey string

	// Upstream roots. Empty values fall back to the public endpoints.
	OpenAIBaseURL    string
	ElevenBaseURL    string
	FreesoundBaseURL string

	SFXTable sfx.QueryTable

	Logf func(format string, args ...any)
}

func (c *Config) applyDefaults() {
	if c.Port == "" {
		c.Port = "8787"
	}
	if c.OpenAIBaseURL == "" {
		c.OpenAIBaseURL = "https://api.openai.com"
	}
	if c.ElevenBaseURL == "" {
		c.ElevenBaseURL = "https://api.elevenlabs.io"
	}
	if c.FreesoundBaseURL == "" {
		c.FreesoundBaseURL = "https://freesound.org"
	}
	if c.SFXTable.Len() == 0 {
		c.SFXTable = sfx.DefaultTable()
	}
	if c.Logf == nil {
		c.Logf = log.Printf
	}
	c.OpenAIBaseURL = strings.TrimRight(c.OpenAIBaseURL, "/")
	c.ElevenBaseURL = strings.TrimRight(c.ElevenBaseURL, "/")
	c.FreesoundBaseURL = strings.TrimRight(c.FreesoundBaseURL, "/")
}

type Server struct {
	engine *gin.Engine
	cfg    Config
}

func NewServer(cfg Config) *Server {
	gin.SetMode(gin.ReleaseMode)
	cfg.applyDefaults()

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(RequestLogger(cfg.Logf))
	engine.Use(CORS())

	api := newAPI(cfg)
	registerRoutes(engine, api)

	return &Server{engine: engine, cfg: cfg}
}

func (s *Server) Run() error {
	return s.engine.Run(fmt.Sprintf(":%s", s.cfg.Port))
}

// Engine exposes the router for httptest servers.
func (s *Server) Engine() *gin.Engine {
	return s.engine
}
