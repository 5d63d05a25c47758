package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Proxy      ProxyConfig      `yaml:"proxy"`
	Generation GenerationConfig `yaml:"generation"`
	Export     ExportConfig     `yaml:"export"`
	Output     OutputConfig     `yaml:"output"`
	Watch      WatchConfig      `yaml:"watch"`
	Roster     RosterConfig     `yaml:"roster"`
}

type ProxyConfig struct {
	BaseURL string `yaml:"base_url"`
	Port    string `yaml:"port"`
}

type GenerationConfig struct {
	Mode           string  `yaml:"mode"`
	ArtStyle       string  `yaml:"art_style"`
	Aspect         string  `yaml:"aspect"`
	Motion         string  `yaml:"motion"`
	ScenePauseMS   int     `yaml:"scene_pause_ms"`
	SFXMaxDuration float64 `yaml:"sfx_max_duration"`
}

type ExportConfig struct {
	Width        int     `yaml:"width"`
	Height       int     `yaml:"height"`
	FPS          int     `yaml:"fps"`
	SceneSeconds float64 `yaml:"scene_seconds"`
	FFmpegPath   string  `yaml:"ffmpeg_path"`
}

type OutputConfig struct {
	Dir string `yaml:"dir"`
}

type WatchConfig struct {
	Dir string `yaml:"dir"`
}

type RosterConfig struct {
	Path string `yaml:"path"`
}

func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	switch c.Generation.Mode {
	case "", "online", "offline":
	default:
		return fmt.Errorf("generation.mode must be online or offline, got %q", c.Generation.Mode)
	}
	switch c.Generation.Aspect {
	case "", "16:9", "9:16", "1:1":
	default:
		return fmt.Errorf("generation.aspect must be 16:9, 9:16 or 1:1, got %q", c.Generation.Aspect)
	}
	if c.Export.Width < 0 || c.Export.Height < 0 || c.Export.FPS < 0 {
		return fmt.Errorf("export dimensions and fps must not be negative")
	}

	if c.Generation.Mode == "" {
		c.Generation.Mode = "offline"
	}
	if c.Generation.Aspect == "" {
		c.Generation.Aspect = "16:9"
	}
	if c.Generation.ScenePauseMS == 0 {
		c.Generation.ScenePauseMS = 30
	}
	if c.Generation.SFXMaxDuration == 0 {
		c.Generation.SFXMaxDuration = 10
	}
	if c.Export.Width == 0 {
		c.Export.Width = 1280
	}
	if c.Export.Height == 0 {
		c.Export.Height = 720
	}
	if c.Export.FPS == 0 {
		c.Export.FPS = 30
	}
	if c.Export.SceneSeconds == 0 {
		c.Export.SceneSeconds = 4
	}
	if c.Export.FFmpegPath == "" {
		c.Export.FFmpegPath = "ffmpeg"
	}
	if c.Output.Dir == "" {
		c.Output.Dir = "out"
	}
	if c.Proxy.Port == "" {
		c.Proxy.Port = "8787"
	}

	return nil
}
