package project

import (
	"archive/zip"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/dstrelnikov/bookreel/internal/types"
)

// Archive packages a completed run into a zip: one image per scene, the
// audio clips that were produced, and a manifest tying them together.
type Archive struct {
	ArtStyle   string
	Aspect     string
	Characters []types.ManifestCharacter

	// Now stamps the manifest; overridable so archives diff cleanly in tests.
	Now func() time.Time
}

func (a *Archive) now() time.Time {
	if a.Now != nil {
		return a.Now()
	}
	return time.Now()
}

// Write streams the archive for run into w. The run must have one asset
// slot per scene.
func (a *Archive) Write(w io.Writer, run *types.PipelineRun) error {
	if run == nil || len(run.Scenes) == 0 {
		return errors.New("nothing to archive")
	}
	if len(run.Slots) != len(run.Scenes) {
		return fmt.Errorf("run has %d slots for %d scenes", len(run.Slots), len(run.Scenes))
	}

	zw := zip.NewWriter(w)
	manifest := ManifestFor(run, a.ArtStyle, a.Aspect, a.Characters, a.now())

	for i, entry := range manifest.Scenes {
		slot := run.Slots[i]
		if err := addFile(zw, entry.Image, slot.Image); err != nil {
			return err
		}
		if entry.Narration != "" {
			if err := addFile(zw, entry.Narration, slot.Narration); err != nil {
				return err
			}
		}
		if entry.SFX != "" {
			if err := addFile(zw, entry.SFX, slot.SFX); err != nil {
				return err
			}
		}
	}

	mb, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal manifest: %w", err)
	}
	if err := addFile(zw, "manifest.json", mb); err != nil {
		return err
	}

	if err := zw.Close(); err != nil {
		return fmt.Errorf("finalize archive: %w", err)
	}
	return nil
}

// ManifestFor builds the manifest describing run's assets under the
// canonical per-scene file names. Audio references are set only for slots
// that actually hold a clip.
func ManifestFor(run *types.PipelineRun, artStyle, aspect string, chars []types.ManifestCharacter, now time.Time) types.Manifest {
	m := types.Manifest{
		RunID:      run.ID,
		Mode:       run.Mode,
		ArtStyle:   artStyle,
		Aspect:     aspect,
		Characters: chars,
		CreatedAt:  now.UTC(),
	}
	for i, scene := range run.Scenes {
		slot := run.Slots[i]
		entry := types.ManifestScene{
			Index: scene.Index,
			Text:  scene.Text,
			Image: fmt.Sprintf("scene-%03d.png", scene.Index+1),
		}
		if len(slot.Narration) > 0 {
			entry.Narration = fmt.Sprintf("scene-%03d.mp3", scene.Index+1)
		}
		if len(slot.SFX) > 0 {
			entry.SFX = fmt.Sprintf("scene-%03d-sfx.mp3", scene.Index+1)
		}
		m.Scenes = append(m.Scenes, entry)
	}
	return m
}

func addFile(zw *zip.Writer, name string, data []byte) error {
	f, err := zw.Create(name)
	if err != nil {
		return fmt.Errorf("archive entry %s: %w", name, err)
	}
	if _, err := f.Write(data); err != nil {
		return fmt.Errorf("archive entry %s: %w", name, err)
	}
	return nil
}
