package project

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/dstrelnikov/bookreel/internal/types"
)

func testRun() *types.PipelineRun {
	return &types.PipelineRun{
		ID:   "run-1",
		Mode: types.ModeOnline,
		Scenes: []types.SceneUnit{
			{Index: 0, Text: "Thunder rolled."},
			{Index: 1, Text: "Silence fell."},
		},
		Slots: []types.AssetSlot{
			{Image: []byte("png-0"), Narration: []byte("mp3-0"), SFX: []byte("sfx-0")},
			{Image: []byte("png-1")},
		},
	}
}

func readArchive(t *testing.T, buf *bytes.Buffer) map[string][]byte {
	t.Helper()
	zr, err := zip.NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	if err != nil {
		t.Fatalf("open archive: %v", err)
	}
	files := map[string][]byte{}
	for _, f := range zr.File {
		rc, err := f.Open()
		if err != nil {
			t.Fatalf("open %s: %v", f.Name, err)
		}
		var b bytes.Buffer
		if _, err := b.ReadFrom(rc); err != nil {
			t.Fatalf("read %s: %v", f.Name, err)
		}
		rc.Close()
		files[f.Name] = b.Bytes()
	}
	return files
}

func TestArchiveLayout(t *testing.T) {
	a := &Archive{ArtStyle: "watercolor", Aspect: "16:9", Now: func() time.Time {
		return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	}}

	var buf bytes.Buffer
	if err := a.Write(&buf, testRun()); err != nil {
		t.Fatalf("write archive: %v", err)
	}
	files := readArchive(t, &buf)

	want := []string{"scene-001.png", "scene-001.mp3", "scene-001-sfx.mp3", "scene-002.png", "manifest.json"}
	for _, name := range want {
		if _, ok := files[name]; !ok {
			t.Errorf("archive missing %s", name)
		}
	}
	if _, ok := files["scene-002.mp3"]; ok {
		t.Error("scene without narration must not produce an mp3 entry")
	}
	if got := string(files["scene-001.png"]); got != "png-0" {
		t.Errorf("scene-001.png = %q, want %q", got, "png-0")
	}
}

func TestArchiveManifest(t *testing.T) {
	a := &Archive{
		Characters: []types.ManifestCharacter{{Name: "Narrator", Voice: "ember"}},
		Now:        func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) },
	}

	var buf bytes.Buffer
	if err := a.Write(&buf, testRun()); err != nil {
		t.Fatalf("write archive: %v", err)
	}
	files := readArchive(t, &buf)

	var m types.Manifest
	if err := json.Unmarshal(files["manifest.json"], &m); err != nil {
		t.Fatalf("decode manifest: %v", err)
	}
	if m.RunID != "run-1" || len(m.Scenes) != 2 {
		t.Fatalf("manifest = %+v", m)
	}
	if m.Scenes[0].Narration != "scene-001.mp3" || m.Scenes[0].SFX != "scene-001-sfx.mp3" {
		t.Errorf("scene 0 audio refs = %q %q", m.Scenes[0].Narration, m.Scenes[0].SFX)
	}
	if m.Scenes[1].Narration != "" || m.Scenes[1].SFX != "" {
		t.Errorf("scene 1 should have no audio refs, got %+v", m.Scenes[1])
	}
	if len(m.Characters) != 1 || m.Characters[0].Name != "Narrator" || m.Characters[0].Voice != "ember" {
		t.Errorf("manifest characters = %+v", m.Characters)
	}
}

func TestArchiveRejectsBadRuns(t *testing.T) {
	a := &Archive{}
	var buf bytes.Buffer

	if err := a.Write(&buf, nil); err == nil {
		t.Error("nil run: expected error")
	}
	run := testRun()
	run.Slots = run.Slots[:1]
	if err := a.Write(&buf, run); err == nil {
		t.Error("slot count mismatch: expected error")
	}
}
