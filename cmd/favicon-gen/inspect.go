package main

import (
	"bytes"
	"fmt"
	"image/png"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/favitude/favitude/internal/archive"
	"github.com/favitude/favitude/internal/ico"
)

func newInspectCmd(stdout io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <archive.zip>",
		Short: "List the contents of a favicon archive",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read archive: %w", err)
			}
			return inspect(stdout, data)
		},
	}
}

func inspect(w io.Writer, data []byte) error {
	entries, err := archive.Read(data)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ENTRY\tBYTES\tDETAIL")
	for _, e := range entries {
		detail, err := describe(e)
		if err != nil {
			return fmt.Errorf("%s: %w", e.Name, err)
		}
		fmt.Fprintf(tw, "%s\t%d\t%s\n", e.Name, len(e.Data), detail)
	}
	return tw.Flush()
}

func describe(e archive.Entry) (string, error) {
	switch {
	case strings.HasSuffix(e.Name, ".ico"):
		dir, err := ico.DecodeDirectory(e.Data)
		if err != nil {
			return "", err
		}
		frames := make([]string, len(dir))
		for i, d := range dir {
			frames[i] = fmt.Sprintf("%dx%d", d.Width, d.Height)
		}
		return "frames " + strings.Join(frames, " "), nil
	case strings.HasSuffix(e.Name, ".png"):
		cfg, err := png.DecodeConfig(bytes.NewReader(e.Data))
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%dx%d", cfg.Width, cfg.Height), nil
	}
	return "", nil
}
