package export

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"time"

	_ "image/jpeg"
	_ "image/png"

	"github.com/dstrelnikov/bookreel/internal/ports"
	"github.com/dstrelnikov/bookreel/internal/types"
)

// State of the exporter. Transitions are Idle -> Recording -> Finalizing ->
// Idle; resources are held only while recording or finalizing.
type State int

const (
	StateIdle State = iota
	StateRecording
	StateFinalizing
)

type Options struct {
	Width  int // default 1280
	Height int // default 720
	FPS    int // default 30

	// Logf receives progress lines; nil disables logging.
	Logf func(format string, args ...any)
}

// Exporter replays a completed run's assets as a timed slideshow, feeding a
// real-time recorder one frame per tick and cueing each scene's audio track
// at its wall-clock offset.
type Exporter struct {
	rec   ports.Recorder
	opt   Options
	pacer framePacer
	state State
}

func New(rec ports.Recorder, opt Options) *Exporter {
	if opt.Width <= 0 {
		opt.Width = 1280
	}
	if opt.Height <= 0 {
		opt.Height = 720
	}
	if opt.FPS <= 0 {
		opt.FPS = 30
	}
	return &Exporter{rec: rec, opt: opt, pacer: tickerPacer{}}
}

func (e *Exporter) State() State { return e.state }

// Export records the timeline into a single media artifact at outPath.
//
// A per-scene image decode failure leaves the frame black and an audio cue
// failure mutes that scene; neither aborts the run. Only a failure to start
// the recording pipeline, a dead recorder mid-write, or cancellation aborts.
func (e *Exporter) Export(ctx context.Context, tl types.ExportTimeline, outPath string) error {
	if len(tl) == 0 {
		return errors.New("empty export timeline")
	}
	if e.state != StateIdle {
		return fmt.Errorf("export already in progress")
	}

	e.state = StateRecording
	defer func() { e.state = StateIdle }()

	if err := e.rec.Begin(ctx, e.opt.Width, e.opt.Height, e.opt.FPS, outPath); err != nil {
		return fmt.Errorf("start recording pipeline: %w", err)
	}

	canvas := image.NewRGBA(image.Rect(0, 0, e.opt.Width, e.opt.Height))
	offset := 0.0

	for i, entry := range tl {
		img, _, err := image.Decode(bytes.NewReader(entry.Image))
		if err != nil {
			e.logf("scene %d: image decode failed, frame stays black: %v", i+1, err)
			fillBlack(canvas)
		} else {
			drawCover(canvas, img)
		}

		dur := entry.Duration
		if dur <= 0 {
			dur = DefaultSceneDuration
		}

		if entry.Audio != nil {
			if err := e.rec.Cue(entry.Audio, offset, dur.Seconds()); err != nil {
				e.logf("scene %d: audio cue failed, scene stays silent: %v", i+1, err)
			}
		}

		err = e.pacer.Hold(ctx, dur, e.opt.FPS, func() error {
			return e.rec.PushFrame(canvas)
		})
		if err != nil {
			return fmt.Errorf("record scene %d: %w", i+1, err)
		}

		offset += dur.Seconds()
	}

	e.state = StateFinalizing
	if err := e.rec.End(ctx); err != nil {
		return fmt.Errorf("finalize recording: %w", err)
	}
	e.logf("export finished: %s (%d scenes, %.1fs)", outPath, len(tl), offset)
	return nil
}

func (e *Exporter) logf(format string, args ...any) {
	if e.opt.Logf != nil {
		e.opt.Logf(format, args...)
	}
}

// framePacer holds one scene on screen, emitting a frame per tick for the
// given wall-clock duration.
type framePacer interface {
	Hold(ctx context.Context, d time.Duration, fps int, frame func() error) error
}

// tickerPacer tracks the actual frame cadence instead of sleeping once, so
// recorded timing follows wall clock frame by frame.
type tickerPacer struct{}

func (tickerPacer) Hold(ctx context.Context, d time.Duration, fps int, frame func() error) error {
	interval := time.Second / time.Duration(fps)
	deadline := time.Now().Add(d)

	tick := time.NewTicker(interval)
	defer tick.Stop()

	for time.Now().Before(deadline) {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-tick.C:
			if err := frame(); err != nil {
				return err
			}
		}
	}
	return nil
}
