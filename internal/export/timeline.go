package export

import (
	"time"

	"github.com/dstrelnikov/bookreel/internal/types"
)

// DefaultSceneDuration is the uniform hold time per scene. Narration length
// is not measured, so every scene holds for the same fixed time.
const DefaultSceneDuration = 4 * time.Second

// BuildTimeline derives the export timeline from a completed run: one entry
// per scene, narration as the audio track when present, the sound effect as
// the fallback, nil for silent coverage.
func BuildTimeline(run types.PipelineRun, perScene time.Duration) types.ExportTimeline {
	if perScene <= 0 {
		perScene = DefaultSceneDuration
	}
	tl := make(types.ExportTimeline, 0, len(run.Slots))
	for _, slot := range run.Slots {
		audio := slot.Narration
		if audio == nil {
			audio = slot.SFX
		}
		tl = append(tl, types.TimelineEntry{
			Image:    slot.Image,
			Audio:    audio,
			Duration: perScene,
		})
	}
	return tl
}
