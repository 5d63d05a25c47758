package cli

import (
	"context"
	"fmt"
	"log"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/dstrelnikov/bookreel/internal/config"
	"github.com/dstrelnikov/bookreel/internal/pipeline"
	"github.com/dstrelnikov/bookreel/internal/types"
)

func newGenerateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate <input.txt>",
		Short: "Generate scene assets from a text file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerate(cmd, args[0])
		},
	}

	cmd.Flags().String("out", "", "Output directory")
	cmd.Flags().String("mode", "", "Asset mode: online or offline")
	cmd.Flags().String("style", "", "Art style for illustrations")
	cmd.Flags().String("aspect", "", "Aspect ratio: 16:9, 9:16 or 1:1")
	cmd.Flags().String("motion", "", "Motion hint recorded with offline placeholders")
	cmd.Flags().String("roster", "", "Path to a character roster JSON file")
	cmd.Flags().String("proxy", "", "Generation proxy base URL")
	cmd.Flags().Bool("video", false, "Render the slideshow video")
	cmd.Flags().Bool("zip", false, "Package the run as a project archive")
	cmd.Flags().Bool("storyboard", false, "Render a storyboard PDF")

	// Hidden tuning flags (internal)
	cmd.Flags().Int("pause-ms", 0, "Inter-scene pause in milliseconds")
	cmd.Flags().Float64("sfx-max", 0, "Max sound effect duration in seconds")
	_ = cmd.Flags().MarkHidden("pause-ms")
	_ = cmd.Flags().MarkHidden("sfx-max")

	return cmd
}

func runGenerate(cmd *cobra.Command, input string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	absIn, err := filepath.Abs(input)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Hour)
	defer cancel()

	pcfg, err := pipelineConfig(cmd, cfg, absIn)
	if err != nil {
		return err
	}
	if err := pcfg.Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return pipeline.Run(ctx, pcfg)
}

// pipelineConfig merges the YAML config with explicit flag overrides.
func pipelineConfig(cmd *cobra.Command, cfg *config.Config, input string) (pipeline.Config, error) {
	flags := cmd.Flags()
	stringOverride := func(name string, base string) string {
		if flags.Changed(name) {
			v, _ := flags.GetString(name)
			return v
		}
		return base
	}

	mode := stringOverride("mode", cfg.Generation.Mode)
	outDir := stringOverride("out", cfg.Output.Dir)
	pauseMS, _ := flags.GetInt("pause-ms")
	if pauseMS == 0 {
		pauseMS = cfg.Generation.ScenePauseMS
	}
	sfxMax, _ := flags.GetFloat64("sfx-max")
	if sfxMax == 0 {
		sfxMax = cfg.Generation.SFXMaxDuration
	}

	video, _ := flags.GetBool("video")
	archive, _ := flags.GetBool("zip")
	board, _ := flags.GetBool("storyboard")

	return pipeline.Config{
		InputText: input,
		OutDir:    outDir,

		Mode:     types.Mode(mode),
		ArtStyle: stringOverride("style", cfg.Generation.ArtStyle),
		Aspect:   stringOverride("aspect", cfg.Generation.Aspect),
		Motion:   stringOverride("motion", cfg.Generation.Motion),

		ScenePause:        time.Duration(pauseMS) * time.Millisecond,
		SFXMaxDurationSec: sfxMax,

		ProxyBaseURL: stringOverride("proxy", getenvDefault("BOOKREEL_PROXY_URL", cfg.Proxy.BaseURL)),
		RosterPath:   stringOverride("roster", cfg.Roster.Path),

		ExportVideo: video,
		Archive:     archive,
		Storyboard:  board,

		Width:        cfg.Export.Width,
		Height:       cfg.Export.Height,
		FPS:          cfg.Export.FPS,
		SceneSeconds: cfg.Export.SceneSeconds,
		FFmpegPath:   cfg.Export.FFmpegPath,

		Logf: log.Printf,
	}, nil
}
