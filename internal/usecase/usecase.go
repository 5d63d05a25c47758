package usecase

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/dstrelnikov/bookreel/internal/ports"
	"github.com/dstrelnikov/bookreel/internal/roster"
	"github.com/dstrelnikov/bookreel/internal/types"
)

// defaultScenePause keeps the generation services out of their rate limits.
const defaultScenePause = 30 * time.Millisecond

type Deps struct {
	Images      ports.ImageGenerator
	Speech      ports.SpeechSynthesizer
	SFX         ports.SFXPicker
	Placeholder ports.PlaceholderRenderer
}

type Usecase struct{ d Deps }

func New(d Deps) Usecase { return Usecase{d: d} }

type Input struct {
	Scenes     []types.SceneUnit
	Characters []roster.Character
	Mode       types.Mode

	ArtStyle string
	Aspect   string
	Motion   string

	// ScenePause is the inter-scene delay; zero means defaultScenePause.
	ScenePause time.Duration
	// SFXMaxDurationSec caps sound-effect length; zero means 10 seconds.
	SFXMaxDurationSec float64

	// OnProgress observes the monotone percentage after each scene.
	OnProgress func(percent int)
	// OnWarning receives non-fatal per-asset failures.
	OnWarning func(msg string)
}

type Result struct {
	Run types.PipelineRun
}

// Run drives the scenes through the asset providers strictly in index
// order. Asset kinds are isolated per scene: an image failure substitutes
// the placeholder, a narration failure leaves the slot nil, a sound-effect
// failure is silent. The run always completes with one slot per scene and
// progress at exactly 100 unless the context is cancelled.
//
// Scenes are never processed in parallel: progress must be publishable after
// each scene and the remote services are rate sensitive.
func (u Usecase) Run(ctx context.Context, in Input) (Result, error) {
	total := len(in.Scenes)
	if total == 0 {
		return Result{}, errors.New("no scenes to process")
	}

	pause := in.ScenePause
	if pause == 0 {
		pause = defaultScenePause
	}
	maxSFX := in.SFXMaxDurationSec
	if maxSFX == 0 {
		maxSFX = 10
	}

	online := in.Mode == types.ModeOnline
	narrator := roster.Narrator(in.Characters)

	run := types.PipelineRun{
		ID:     uuid.NewString(),
		Mode:   in.Mode,
		Scenes: in.Scenes,
		Slots:  make([]types.AssetSlot, 0, total),
	}

	for i, sc := range in.Scenes {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}

		var slot types.AssetSlot

		// image: the one asset kind that must never stay empty
		img, err := u.sceneImage(ctx, in, sc, online)
		if err != nil {
			return Result{}, err
		}
		slot.Image = img

		// narration: online only, vendor voice takes priority
		if online {
			clip, err := u.narrate(ctx, narrator, sc.Text)
			if err != nil {
				warnf(in, "narration failed (scene %d): %v", i+1, err)
			} else {
				slot.Narration = clip
			}
		}

		// sfx: optional decoration, failures stay silent
		if online {
			if fx, err := u.d.SFX.AutoPick(ctx, sc.Text, maxSFX); err == nil {
				slot.SFX = fx
			}
		}

		run.Slots = append(run.Slots, slot)
		run.Progress = int(math.Round(float64(i+1) / float64(total) * 100))
		if in.OnProgress != nil {
			in.OnProgress(run.Progress)
		}

		if i < total-1 {
			select {
			case <-ctx.Done():
				return Result{}, ctx.Err()
			case <-time.After(pause):
			}
		}
	}

	return Result{Run: run}, nil
}

func (u Usecase) sceneImage(ctx context.Context, in Input, sc types.SceneUnit, online bool) ([]byte, error) {
	title := fmt.Sprintf("Scene %d", sc.Index+1)

	if online {
		prompt := fmt.Sprintf("Illustration, %s. Scene: %s", in.ArtStyle, sc.Text)
		img, err := u.d.Images.GenerateImage(ctx, prompt, in.ArtStyle, in.Aspect)
		if err == nil {
			return img, nil
		}
		warnf(in, "image generation failed (scene %d): %v", sc.Index+1, err)
		return u.placeholder(title, "Image failed")
	}

	subtitle := in.ArtStyle
	if in.Motion != "" {
		subtitle += " • " + in.Motion
	}
	return u.placeholder(title, subtitle)
}

// placeholder failure is the only fatal per-scene condition: it would break
// the image-per-slot invariant and means the local environment is broken,
// not a remote service.
func (u Usecase) placeholder(title, subtitle string) ([]byte, error) {
	b, err := u.d.Placeholder.Render(title, subtitle)
	if err != nil {
		return nil, fmt.Errorf("render placeholder: %w", err)
	}
	return b, nil
}

func (u Usecase) narrate(ctx context.Context, narrator roster.Character, text string) ([]byte, error) {
	if narrator.ElevenVoice != "" {
		return u.d.Speech.SynthesizeEleven(ctx, text, narrator.ElevenVoice)
	}
	return u.d.Speech.SynthesizeOpenAI(ctx, text, narrator.NarrationVoice())
}

func warnf(in Input, format string, args ...any) {
	if in.OnWarning != nil {
		in.OnWarning(fmt.Sprintf(format, args...))
	}
}
