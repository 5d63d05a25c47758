package pipeline

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode"

	"github.com/dstrelnikov/bookreel/internal/domain/scenes"
	"github.com/dstrelnikov/bookreel/internal/export"
	"github.com/dstrelnikov/bookreel/internal/ports"
	"github.com/dstrelnikov/bookreel/internal/ports/adapters/ffmpegrec"
	"github.com/dstrelnikov/bookreel/internal/ports/adapters/placeholder"
	"github.com/dstrelnikov/bookreel/internal/ports/adapters/proxyclient"
	"github.com/dstrelnikov/bookreel/internal/project"
	"github.com/dstrelnikov/bookreel/internal/roster"
	"github.com/dstrelnikov/bookreel/internal/storyboard"
	"github.com/dstrelnikov/bookreel/internal/types"
	"github.com/dstrelnikov/bookreel/internal/usecase"
)

type Config struct {
	InputText string
	OutDir    string

	Mode     types.Mode
	ArtStyle string
	Aspect   string
	Motion   string

	ScenePause        time.Duration
	SFXMaxDurationSec float64

	ProxyBaseURL string
	RosterPath   string

	// Optional artifacts beyond the raw asset directory.
	ExportVideo bool
	Archive     bool
	Storyboard  bool

	Width        int
	Height       int
	FPS          int
	SceneSeconds float64
	FFmpegPath   string

	Logf func(format string, args ...any)
}

func (c Config) Validate() error {
	if c.InputText == "" {
		return errors.New("input is empty")
	}
	if _, err := os.Stat(c.InputText); err != nil {
		return fmt.Errorf("stat input: %w", err)
	}
	switch c.Mode {
	case types.ModeOnline, types.ModeOffline:
	default:
		return fmt.Errorf("mode must be %q or %q", types.ModeOnline, types.ModeOffline)
	}
	if c.Mode == types.ModeOnline && c.ProxyBaseURL == "" {
		return errors.New("online mode needs a proxy base url")
	}
	if c.ExportVideo {
		if c.Width <= 0 || c.Height <= 0 || c.FPS <= 0 {
			return fmt.Errorf("export needs positive dimensions and fps")
		}
		if c.SceneSeconds <= 0 {
			return fmt.Errorf("export needs a positive scene duration")
		}
	}
	return nil
}

func Run(ctx context.Context, cfg Config) error {
	logf := cfg.Logf
	if logf == nil {
		logf = func(string, ...any) {}
	}

	raw, err := os.ReadFile(cfg.InputText)
	if err != nil {
		return fmt.Errorf("read input: %w", err)
	}
	units := scenes.Split(string(raw))
	if len(units) == 0 {
		return fmt.Errorf("no scenes in %s", cfg.InputText)
	}
	logf("segmented %d scenes", len(units))

	characters, err := roster.LoadFile(cfg.RosterPath)
	if err != nil {
		return fmt.Errorf("load roster: %w", err)
	}

	// adapters
	client := proxyclient.New(cfg.ProxyBaseURL)
	deps := usecase.Deps{
		Images:      client,
		Speech:      client,
		SFX:         client,
		Placeholder: placeholder.New(),
	}

	uc := usecase.New(deps)

	outDir := cfg.OutDir
	if outDir == "" {
		outDir = "out"
	}
	runOutDir := buildRunOutDir(outDir, cfg.InputText, time.Now().UTC())
	if err := os.MkdirAll(runOutDir, 0o755); err != nil {
		return err
	}
	logf("output run dir: %s", runOutDir)

	res, err := uc.Run(ctx, usecase.Input{
		Scenes:            units,
		Characters:        characters,
		Mode:              cfg.Mode,
		ArtStyle:          cfg.ArtStyle,
		Aspect:            cfg.Aspect,
		Motion:            cfg.Motion,
		ScenePause:        cfg.ScenePause,
		SFXMaxDurationSec: cfg.SFXMaxDurationSec,
		OnProgress:        func(percent int) { logf("progress: %d%%", percent) },
		OnWarning:         func(msg string) { logf("warning: %s", msg) },
	})
	if err != nil {
		return err
	}
	run := res.Run

	cast := manifestCast(characters)
	manifest := project.ManifestFor(&run, cfg.ArtStyle, cfg.Aspect, cast, time.Now())
	if err := writeAssets(runOutDir, &run, manifest); err != nil {
		return err
	}
	logf("assets written (%d scenes): %s", len(manifest.Scenes), runOutDir)

	if cfg.Archive {
		zipPath := filepath.Join(runOutDir, "project.zip")
		if err := writeArchive(zipPath, &run, cast, cfg); err != nil {
			return err
		}
		logf("archive written: %s", zipPath)
	}

	if cfg.Storyboard {
		boardPath := filepath.Join(runOutDir, "storyboard.pdf")
		if err := storyboard.New().Generate(&run, boardPath); err != nil {
			return fmt.Errorf("storyboard: %w", err)
		}
		logf("storyboard written: %s", boardPath)
	}

	if cfg.ExportVideo {
		videoPath := filepath.Join(runOutDir, "slideshow.mp4")
		perScene := time.Duration(cfg.SceneSeconds * float64(time.Second))
		exp := export.New(ffmpegrec.New(cfg.FFmpegPath), export.Options{
			Width:  cfg.Width,
			Height: cfg.Height,
			FPS:    cfg.FPS,
			Logf:   logf,
		})
		if err := exp.Export(ctx, export.BuildTimeline(run, perScene), videoPath); err != nil {
			return fmt.Errorf("export video: %w", err)
		}
		logf("video written: %s", videoPath)
	}

	return nil
}

// manifestCast strips the roster down to the fields the manifest records.
func manifestCast(chars []roster.Character) []types.ManifestCharacter {
	out := make([]types.ManifestCharacter, len(chars))
	for i, c := range chars {
		out[i] = types.ManifestCharacter{
			Name:        c.Name,
			Voice:       c.NarrationVoice(),
			ElevenVoice: c.ElevenVoice,
		}
	}
	return out
}

// writeAssets lays the run out on disk exactly as the manifest names it.
func writeAssets(dir string, run *types.PipelineRun, manifest types.Manifest) error {
	for i, entry := range manifest.Scenes {
		slot := run.Slots[i]
		if err := os.WriteFile(filepath.Join(dir, entry.Image), slot.Image, 0o644); err != nil {
			return err
		}
		if entry.Narration != "" {
			if err := os.WriteFile(filepath.Join(dir, entry.Narration), slot.Narration, 0o644); err != nil {
				return err
			}
		}
		if entry.SFX != "" {
			if err := os.WriteFile(filepath.Join(dir, entry.SFX), slot.SFX, 0o644); err != nil {
				return err
			}
		}
	}

	b, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal manifest: %w", err)
	}
	return os.WriteFile(filepath.Join(dir, "manifest.json"), b, 0o644)
}

func writeArchive(path string, run *types.PipelineRun, cast []types.ManifestCharacter, cfg Config) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create archive: %w", err)
	}

	a := &project.Archive{ArtStyle: cfg.ArtStyle, Aspect: cfg.Aspect, Characters: cast}
	if err := a.Write(f, run); err != nil {
		f.Close()
		return fmt.Errorf("write archive: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close archive: %w", err)
	}
	return nil
}

func buildRunOutDir(outRoot, inputPath string, now time.Time) string {
	name := strings.TrimSuffix(filepath.Base(inputPath), filepath.Ext(inputPath))
	name = normalizePathSegment(name)
	if name == "" {
		name = "input"
	}
	ts := now.UTC().Format("20060102-150405Z")
	runSeed := fmt.Sprintf("%s|%d", inputPath, now.UTC().UnixNano())
	suffix := hash(runSeed)[:6]
	return filepath.Join(outRoot, fmt.Sprintf("%s-%s-%s", name, ts, suffix))
}

func normalizePathSegment(s string) string {
	var b strings.Builder
	prevDash := false
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r):
			b.WriteRune(r)
			prevDash = false
		default:
			if !prevDash {
				b.WriteByte('-')
				prevDash = true
			}
		}
	}
	return strings.Trim(b.String(), "-")
}

func hash(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])[:12]
}

// ensure adapters implement ports
var _ ports.ImageGenerator = (*proxyclient.Client)(nil)
var _ ports.SpeechSynthesizer = (*proxyclient.Client)(nil)
var _ ports.SFXPicker = (*proxyclient.Client)(nil)
var _ ports.PlaceholderRenderer = (*placeholder.Renderer)(nil)
var _ ports.Recorder = (*ffmpegrec.Adapter)(nil)
