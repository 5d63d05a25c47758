package ffmpegrec

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/dstrelnikov/bookreel/internal/ports"
)

var _ ports.Recorder = (*Adapter)(nil)

// Adapter records raw frames through an ffmpeg process fed on stdin and, on
// End, mixes the cued audio tracks under the captured video in a second
// ffmpeg pass.
type Adapter struct {
	ffmpeg string

	cmd    *exec.Cmd
	stdin  io.WriteCloser
	stderr bytes.Buffer

	width, height, fps int
	outPath            string
	videoPath          string
	tmpDir             string

	cues []cue
}

type cue struct {
	data      []byte
	offsetSec float64
	maxDurSec float64
}

func New(ffmpegPath string) *Adapter {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	return &Adapter{ffmpeg: ffmpegPath}
}

// Begin starts the capture process. Raw RGBA frames pushed afterwards are
// encoded in real time; nothing is written to outPath until End.
func (a *Adapter) Begin(ctx context.Context, width, height, fps int, outPath string) error {
	if a.cmd != nil {
		return errors.New("recorder already started")
	}

	tmpDir, err := os.MkdirTemp("", "bookreel-rec-")
	if err != nil {
		return fmt.Errorf("recorder temp dir: %w", err)
	}

	a.width, a.height, a.fps = width, height, fps
	a.outPath = outPath
	a.tmpDir = tmpDir
	a.videoPath = filepath.Join(tmpDir, "video.mp4")
	a.cues = nil
	a.stderr.Reset()

	cmd := exec.CommandContext(ctx, a.ffmpeg,
		"-y",
		"-f", "rawvideo",
		"-pix_fmt", "rgba",
		"-s", fmt.Sprintf("%dx%d", width, height),
		"-r", strconv.Itoa(fps),
		"-i", "-",
		"-c:v", "libx264",
		"-preset", "veryfast",
		"-crf", "18",
		"-pix_fmt", "yuv420p",
		a.videoPath,
	)
	cmd.Stderr = &a.stderr

	stdin, err := cmd.StdinPipe()
	if err != nil {
		os.RemoveAll(tmpDir)
		return fmt.Errorf("recorder stdin: %w", err)
	}
	if err := cmd.Start(); err != nil {
		os.RemoveAll(tmpDir)
		return fmt.Errorf("start ffmpeg capture: %w", err)
	}

	a.cmd = cmd
	a.stdin = stdin
	return nil
}

// PushFrame writes one RGBA frame. The frame must match the dimensions
// given to Begin.
func (a *Adapter) PushFrame(frame *image.RGBA) error {
	if a.cmd == nil {
		return errors.New("recorder not started")
	}
	b := frame.Bounds()
	if b.Dx() != a.width || b.Dy() != a.height {
		return fmt.Errorf("frame is %dx%d, recorder expects %dx%d", b.Dx(), b.Dy(), a.width, a.height)
	}

	rowBytes := a.width * 4
	if frame.Stride == rowBytes {
		_, err := a.stdin.Write(frame.Pix)
		return wrapWrite(err)
	}
	for y := 0; y < a.height; y++ {
		row := frame.Pix[y*frame.Stride : y*frame.Stride+rowBytes]
		if _, err := a.stdin.Write(row); err != nil {
			return wrapWrite(err)
		}
	}
	return nil
}

// Cue registers an audio track to be mixed in at the given offset, trimmed
// to maxDurationSec so a long clip never bleeds into the next scene.
func (a *Adapter) Cue(track []byte, offsetSec, maxDurationSec float64) error {
	if a.cmd == nil {
		return errors.New("recorder not started")
	}
	a.cues = append(a.cues, cue{data: track, offsetSec: offsetSec, maxDurSec: maxDurationSec})
	return nil
}

// End closes the capture stream, waits for the encoder, then muxes the cued
// audio tracks into the final artifact.
func (a *Adapter) End(ctx context.Context) error {
	if a.cmd == nil {
		return errors.New("recorder not started")
	}
	defer func() {
		os.RemoveAll(a.tmpDir)
		a.cmd = nil
		a.stdin = nil
	}()

	if err := a.stdin.Close(); err != nil {
		return fmt.Errorf("close capture stream: %w", err)
	}
	if err := a.cmd.Wait(); err != nil {
		return fmt.Errorf("ffmpeg capture: %w\n%s", err, a.stderr.String())
	}

	if len(a.cues) == 0 {
		return a.runMux(ctx, []string{
			"-y",
			"-i", a.videoPath,
			"-c", "copy",
			a.outPath,
		})
	}

	args := []string{"-y", "-i", a.videoPath}
	for i, c := range a.cues {
		trackPath := filepath.Join(a.tmpDir, fmt.Sprintf("track_%d.mp3", i))
		if err := os.WriteFile(trackPath, c.data, 0o644); err != nil {
			return fmt.Errorf("write audio track %d: %w", i, err)
		}
		args = append(args, "-i", trackPath)
	}

	var filters, mixIn []string
	for i, c := range a.cues {
		delayMs := int(c.offsetSec * 1000)
		label := fmt.Sprintf("t%d", i)
		filters = append(filters, fmt.Sprintf(
			"[%d:a]atrim=duration=%.3f,aresample=44100,adelay=%d|%d[%s]",
			i+1, c.maxDurSec, delayMs, delayMs, label))
		mixIn = append(mixIn, "["+label+"]")
	}
	filter := strings.Join(filters, ";") + ";" +
		strings.Join(mixIn, "") +
		fmt.Sprintf("amix=inputs=%d:duration=longest:normalize=0[mix]", len(mixIn))

	args = append(args,
		"-filter_complex", filter,
		"-map", "0:v",
		"-map", "[mix]",
		"-c:v", "copy",
		"-c:a", "aac",
		"-b:a", "192k",
		a.outPath,
	)
	return a.runMux(ctx, args)
}

func (a *Adapter) runMux(ctx context.Context, args []string) error {
	cmd := exec.CommandContext(ctx, a.ffmpeg, args...)
	b, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("ffmpeg mux: %w\n%s", err, string(b))
	}
	return nil
}

func wrapWrite(err error) error {
	if err != nil {
		return fmt.Errorf("write frame: %w", err)
	}
	return nil
}
