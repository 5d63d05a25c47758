package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dstrelnikov/bookreel/internal/proxy"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the generation proxy server",
		Args:  cobra.NoArgs,
		RunE:  runServe,
	}
	cmd.Flags().String("port", "", "Listen port")
	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	port, _ := cmd.Flags().GetString("port")
	if port == "" {
		port = cfg.Proxy.Port
	}

	srv := proxy.NewServer(proxy.Config{
		Port:         port,
		OpenAIKey:    os.Getenv("OPENAI_API_KEY"),
		ElevenKey:    os.Getenv("ELEVEN_API_KEY"),
		FreesoundKey: os.Getenv("FREESOUND_API_KEY"),
	})
	return srv.Run()
}
