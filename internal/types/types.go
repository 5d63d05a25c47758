package types

import "time"

// Mode selects how scene assets are produced.
type Mode string

const (
	// ModeOnline calls the generation proxy for every asset kind.
	ModeOnline Mode = "online"
	// ModeOffline synthesizes placeholder images and skips audio entirely.
	ModeOffline Mode = "offline"
)

// SceneUnit is one segmented unit of the input text. Immutable once created.
type SceneUnit struct {
	Index int    `json:"index"`
	Text  string `json:"text"`
}

// AssetSlot holds the produced assets for one scene. Any field may be nil
// after a completed run except Image, which is always filled (a placeholder
// substitutes for failed online generation).
type AssetSlot struct {
	Image     []byte
	Narration []byte
	SFX       []byte
}

// PipelineRun is the transient aggregate of one generation request.
// Slots is dense: exactly one entry per scene, indexed from 0.
type PipelineRun struct {
	ID       string
	Mode     Mode
	Scenes   []SceneUnit
	Slots    []AssetSlot
	Progress int // percent, 0..100
}

// TimelineEntry is one scene of the export timeline. Audio is the single
// track mixed under the scene's frames: narration when present, else the
// sound effect, else nil for silent coverage.
type TimelineEntry struct {
	Image    []byte
	Audio    []byte
	Duration time.Duration
}

// ExportTimeline is the read-only input to the slideshow exporter.
type ExportTimeline []TimelineEntry

// Manifest describes a packaged project archive.
type Manifest struct {
	RunID      string              `json:"run_id"`
	Mode       Mode                `json:"mode"`
	ArtStyle   string              `json:"art_style,omitempty"`
	Aspect     string              `json:"aspect,omitempty"`
	CreatedAt  time.Time           `json:"created_at"`
	Characters []ManifestCharacter `json:"characters,omitempty"`
	Scenes     []ManifestScene     `json:"scenes"`
}

// ManifestCharacter records the voice cast a run was generated with.
type ManifestCharacter struct {
	Name        string `json:"name"`
	Voice       string `json:"voice"`
	ElevenVoice string `json:"eleven,omitempty"`
}

// ManifestScene maps one scene to its archived files. Audio entries are
// empty when the run produced no clip for that slot.
type ManifestScene struct {
	Index     int    `json:"index"`
	Text      string `json:"text"`
	Image     string `json:"image"`
	Narration string `json:"narration,omitempty"`
	SFX       string `json:"sfx,omitempty"`
}
