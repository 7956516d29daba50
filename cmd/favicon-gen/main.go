package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/favitude/favitude/internal/logging"
)

func main() {
	if err := newRootCmd(os.Stdout, os.Stderr).Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	var verbose bool

	root := &cobra.Command{
		Use:   "favicon-gen",
		Short: "Generate favicon bundles from images or text",
		Long: `Generate favicon archives offline.

Each archive holds favicon.ico (16, 32, 48, 64, 128 and 256 px frames)
plus PNG renditions at 16, 32, 96 and 256 px.

Examples:
  favicon-gen image logo.svg -o favicons.zip
  favicon-gen text "FG" --shape circle --font Arial -o favicons_text.zip
  favicon-gen inspect favicons.zip`,
		SilenceUsage: true,
	}
	root.SetOut(stdout)
	root.SetErr(stderr)
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	// The logger is resolved lazily so --verbose is honored.
	logger := func() zerolog.Logger {
		cfg := logging.DefaultConfig()
		cfg.Output = stderr
		if verbose {
			cfg.Level = zerolog.DebugLevel
		}
		return logging.New(cfg)
	}

	root.AddCommand(
		newImageCmd(logger),
		newTextCmd(logger),
		newInspectCmd(stdout),
	)
	return root
}

func writeArchive(log zerolog.Logger, path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	log.Info().Str("path", path).Int("bytes", len(data)).Msg("archive written")
	return nil
}
