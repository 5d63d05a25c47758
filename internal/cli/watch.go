package cli

import (
	"context"
	"fmt"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/dstrelnikov/bookreel/internal/pipeline"
	"github.com/dstrelnikov/bookreel/internal/types"
	"github.com/dstrelnikov/bookreel/internal/watcher"
)

func newWatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch <dir>",
		Short: "Watch a directory and process dropped manuscripts",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(cmd, args[0])
		},
	}
	cmd.Flags().String("out", "", "Output directory")
	cmd.Flags().String("mode", "", "Asset mode: online or offline")
	cmd.Flags().String("proxy", "", "Generation proxy base URL")
	return cmd
}

func runWatch(cmd *cobra.Command, dir string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	flagOr := func(name, base string) string {
		if cmd.Flags().Changed(name) {
			v, _ := cmd.Flags().GetString(name)
			return v
		}
		return base
	}
	outDir := flagOr("out", cfg.Output.Dir)
	mode := flagOr("mode", cfg.Generation.Mode)
	proxyURL := flagOr("proxy", getenvDefault("BOOKREEL_PROXY_URL", cfg.Proxy.BaseURL))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	w, err := watcher.New(dir, func(ctx context.Context, path string) error {
		pcfg := pipeline.Config{
			InputText: path,
			OutDir:    outDir,

			Mode:     types.Mode(mode),
			ArtStyle: cfg.Generation.ArtStyle,
			Aspect:   cfg.Generation.Aspect,
			Motion:   cfg.Generation.Motion,

			ScenePause:        time.Duration(cfg.Generation.ScenePauseMS) * time.Millisecond,
			SFXMaxDurationSec: cfg.Generation.SFXMaxDuration,

			ProxyBaseURL: proxyURL,
			RosterPath:   cfg.Roster.Path,

			Width:        cfg.Export.Width,
			Height:       cfg.Export.Height,
			FPS:          cfg.Export.FPS,
			SceneSeconds: cfg.Export.SceneSeconds,
			FFmpegPath:   cfg.Export.FFmpegPath,

			Logf: log.Printf,
		}
		if err := pcfg.Validate(); err != nil {
			return fmt.Errorf("config: %w", err)
		}
		return pipeline.Run(ctx, pcfg)
	}, log.Printf)
	if err != nil {
		return err
	}
	defer w.Stop()

	if err := w.Start(ctx); err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}
