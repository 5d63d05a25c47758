package ports

import (
	"context"
	"image"
)

// ImageGenerator produces scene art from a text prompt. One network call per
// invocation; failures surface verbatim, retry policy belongs to nobody.
type ImageGenerator interface {
	GenerateImage(ctx context.Context, prompt, style, aspect string) ([]byte, error)
}

// SpeechSynthesizer turns narration text into an encoded audio clip.
// SynthesizeEleven is the alternate-vendor path and takes priority when a
// character has a vendor voice id configured.
type SpeechSynthesizer interface {
	SynthesizeOpenAI(ctx context.Context, text, voice string) ([]byte, error)
	SynthesizeEleven(ctx context.Context, text, voiceID string) ([]byte, error)
}

// SFXPicker finds a short sound effect matching the scene text, or fails
// when nothing in the catalog matches.
type SFXPicker interface {
	AutoPick(ctx context.Context, sceneText string, maxDurationSec float64) ([]byte, error)
}

// PlaceholderRenderer synthesizes a deterministic local stand-in image.
type PlaceholderRenderer interface {
	Render(title, subtitle string) ([]byte, error)
}

// Recorder captures composed frames in real time and muxes the cued audio
// tracks into the final artifact. Begin must be called once before any
// frame; End exactly once after the last.
type Recorder interface {
	Begin(ctx context.Context, width, height, fps int, outPath string) error
	PushFrame(frame *image.RGBA) error
	Cue(track []byte, offsetSec, maxDurationSec float64) error
	End(ctx context.Context) error
}
