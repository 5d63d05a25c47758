package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/dstrelnikov/bookreel/internal/roster"
	"github.com/dstrelnikov/bookreel/internal/types"
)

type fakeImages struct {
	failAt map[int]bool // scene index -> force failure
	calls  int
}

func (f *fakeImages) GenerateImage(_ context.Context, prompt, _, _ string) ([]byte, error) {
	idx := f.calls
	f.calls++
	if f.failAt[idx] {
		return nil, errors.New("upstream 502")
	}
	return []byte("img:" + prompt), nil
}

type fakeSpeech struct {
	failAll    bool
	openaiReqs []string // voice per call
	elevenReqs []string // voice id per call
}

func (f *fakeSpeech) SynthesizeOpenAI(_ context.Context, _, voice string) ([]byte, error) {
	f.openaiReqs = append(f.openaiReqs, voice)
	if f.failAll {
		return nil, errors.New("tts down")
	}
	return []byte("voice:" + voice), nil
}

func (f *fakeSpeech) SynthesizeEleven(_ context.Context, _, voiceID string) ([]byte, error) {
	f.elevenReqs = append(f.elevenReqs, voiceID)
	if f.failAll {
		return nil, errors.New("tts down")
	}
	return []byte("eleven:" + voiceID), nil
}

type fakeSFX struct{ fail bool }

func (f fakeSFX) AutoPick(_ context.Context, _ string, _ float64) ([]byte, error) {
	if f.fail {
		return nil, errors.New("no SFX match")
	}
	return []byte("sfx"), nil
}

type fakePlaceholder struct{}

func (fakePlaceholder) Render(title, subtitle string) ([]byte, error) {
	return []byte("ph:" + title + ":" + subtitle), nil
}

func sceneList(n int) []types.SceneUnit {
	out := make([]types.SceneUnit, n)
	for i := range out {
		out[i] = types.SceneUnit{Index: i, Text: fmt.Sprintf("scene text %d", i)}
	}
	return out
}

func newUsecase(img *fakeImages, sp *fakeSpeech, fx fakeSFX) Usecase {
	return New(Deps{Images: img, Speech: sp, SFX: fx, Placeholder: fakePlaceholder{}})
}

func TestRun_EverySlotHasImageDespiteFailures(t *testing.T) {
	t.Parallel()

	img := &fakeImages{failAt: map[int]bool{1: true, 3: true}}
	var warnings []string
	res, err := newUsecase(img, &fakeSpeech{}, fakeSFX{}).Run(context.Background(), Input{
		Scenes:     sceneList(5),
		Mode:       types.ModeOnline,
		ArtStyle:   "Comic",
		ScenePause: time.Millisecond,
		OnWarning:  func(m string) { warnings = append(warnings, m) },
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	if len(res.Run.Slots) != 5 {
		t.Fatalf("expected 5 slots, got %d", len(res.Run.Slots))
	}
	for i, s := range res.Run.Slots {
		if len(s.Image) == 0 {
			t.Fatalf("slot %d has no image", i)
		}
	}
	if !strings.HasPrefix(string(res.Run.Slots[1].Image), "ph:") {
		t.Fatalf("expected placeholder substitute for failed scene, got %q", res.Run.Slots[1].Image)
	}
	if len(warnings) != 2 {
		t.Fatalf("expected 2 image warnings, got %d: %v", len(warnings), warnings)
	}
	if res.Run.ID == "" {
		t.Fatalf("expected a run id")
	}
}

func TestRun_ProgressMonotoneEndsAtHundred(t *testing.T) {
	t.Parallel()

	var seen []int
	res, err := newUsecase(&fakeImages{}, &fakeSpeech{}, fakeSFX{}).Run(context.Background(), Input{
		Scenes:     sceneList(7),
		Mode:       types.ModeOnline,
		ScenePause: time.Millisecond,
		OnProgress: func(p int) { seen = append(seen, p) },
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	if len(seen) != 7 {
		t.Fatalf("expected 7 progress updates, got %d", len(seen))
	}
	for i := 1; i < len(seen); i++ {
		if seen[i] < seen[i-1] {
			t.Fatalf("progress went backwards: %v", seen)
		}
	}
	if seen[len(seen)-1] != 100 || res.Run.Progress != 100 {
		t.Fatalf("expected final progress 100, got %v", seen)
	}
}

func TestRun_NarrationVoiceSelection(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name       string
		characters []roster.Character
		wantEleven string
		wantOpenAI string
	}{
		{
			name:       "eleven voice takes priority",
			characters: []roster.Character{{Name: "Narrator", Voice: "maple", ElevenVoice: "el-77"}},
			wantEleven: "el-77",
		},
		{
			name:       "default provider with configured voice",
			characters: []roster.Character{{Name: "Narrator", Voice: "maple"}},
			wantOpenAI: "maple",
		},
		{
			name:       "no characters falls back to hard-coded voice",
			wantOpenAI: roster.DefaultVoice,
		},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			sp := &fakeSpeech{}
			_, err := newUsecase(&fakeImages{}, sp, fakeSFX{}).Run(context.Background(), Input{
				Scenes:     sceneList(1),
				Characters: tc.characters,
				Mode:       types.ModeOnline,
				ScenePause: time.Millisecond,
			})
			if err != nil {
				t.Fatalf("run: %v", err)
			}

			if tc.wantEleven != "" {
				if len(sp.elevenReqs) != 1 || sp.elevenReqs[0] != tc.wantEleven {
					t.Fatalf("expected eleven voice %q, got %v", tc.wantEleven, sp.elevenReqs)
				}
				if len(sp.openaiReqs) != 0 {
					t.Fatalf("unexpected default-provider calls: %v", sp.openaiReqs)
				}
				return
			}
			if len(sp.openaiReqs) != 1 || sp.openaiReqs[0] != tc.wantOpenAI {
				t.Fatalf("expected default voice %q, got %v", tc.wantOpenAI, sp.openaiReqs)
			}
		})
	}
}

func TestRun_OfflineSkipsAudioEntirely(t *testing.T) {
	t.Parallel()

	img := &fakeImages{}
	sp := &fakeSpeech{}
	res, err := newUsecase(img, sp, fakeSFX{}).Run(context.Background(), Input{
		Scenes:     sceneList(3),
		Mode:       types.ModeOffline,
		ArtStyle:   "Comic",
		Motion:     "Ken Burns",
		ScenePause: time.Millisecond,
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	if img.calls != 0 {
		t.Fatalf("offline mode must not call the image generator, got %d calls", img.calls)
	}
	if len(sp.openaiReqs)+len(sp.elevenReqs) != 0 {
		t.Fatalf("offline mode must not attempt narration")
	}
	for i, s := range res.Run.Slots {
		if s.Narration != nil || s.SFX != nil {
			t.Fatalf("slot %d has audio in offline mode", i)
		}
		if !strings.Contains(string(s.Image), "Comic • Ken Burns") {
			t.Fatalf("slot %d placeholder missing style subtitle: %q", i, s.Image)
		}
	}
}

func TestRun_SFXFailureIsSilent(t *testing.T) {
	t.Parallel()

	var warnings []string
	res, err := newUsecase(&fakeImages{}, &fakeSpeech{}, fakeSFX{fail: true}).Run(context.Background(), Input{
		Scenes:     sceneList(2),
		Mode:       types.ModeOnline,
		ScenePause: time.Millisecond,
		OnWarning:  func(m string) { warnings = append(warnings, m) },
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	if len(warnings) != 0 {
		t.Fatalf("sfx failures must not warn, got %v", warnings)
	}
	for i, s := range res.Run.Slots {
		if s.SFX != nil {
			t.Fatalf("slot %d unexpectedly has sfx", i)
		}
	}
}

func TestRun_NarrationFailureWarnsAndLeavesNil(t *testing.T) {
	t.Parallel()

	var warnings []string
	res, err := newUsecase(&fakeImages{}, &fakeSpeech{failAll: true}, fakeSFX{}).Run(context.Background(), Input{
		Scenes:     sceneList(2),
		Mode:       types.ModeOnline,
		ScenePause: time.Millisecond,
		OnWarning:  func(m string) { warnings = append(warnings, m) },
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	if len(warnings) != 2 {
		t.Fatalf("expected a warning per scene, got %v", warnings)
	}
	for i, s := range res.Run.Slots {
		if s.Narration != nil {
			t.Fatalf("slot %d unexpectedly has narration", i)
		}
		if len(s.Image) == 0 {
			t.Fatalf("slot %d lost its image", i)
		}
	}
}

func TestRun_CancelledContextStopsBetweenScenes(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	uc := New(Deps{
		Images: imageFunc(func() ([]byte, error) {
			calls++
			if calls == 2 {
				cancel()
			}
			return []byte("img"), nil
		}),
		Speech:      &fakeSpeech{},
		SFX:         fakeSFX{},
		Placeholder: fakePlaceholder{},
	})

	_, err := uc.Run(ctx, Input{
		Scenes:     sceneList(10),
		Mode:       types.ModeOnline,
		ScenePause: time.Millisecond,
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if calls >= 10 {
		t.Fatalf("cancellation did not stop the run early (%d calls)", calls)
	}
}

func TestRun_NoScenes(t *testing.T) {
	t.Parallel()

	if _, err := newUsecase(&fakeImages{}, &fakeSpeech{}, fakeSFX{}).Run(context.Background(), Input{}); err == nil {
		t.Fatalf("expected error for empty scene list")
	}
}

type imageFunc func() ([]byte, error)

func (f imageFunc) GenerateImage(context.Context, string, string, string) ([]byte, error) {
	return f()
}
