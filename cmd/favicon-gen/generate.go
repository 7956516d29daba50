package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/favitude/favitude/internal/colors"
	"github.com/favitude/favitude/internal/constants"
	"github.com/favitude/favitude/internal/favicon"
	"github.com/favitude/favitude/internal/fonts"
	"github.com/favitude/favitude/internal/textrender"
)

func newImageCmd(logger func() zerolog.Logger) *cobra.Command {
	var (
		output    string
		pngPrefix string
		maxPixels int64
	)

	cmd := &cobra.Command{
		Use:   "image <file>",
		Short: "Build a favicon archive from an image file",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			log := logger()
			raw, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read input: %w", err)
			}
			log.Debug().Str("input", args[0]).Int("bytes", len(raw)).Msg("generating favicons from image")

			gen := favicon.New(
				favicon.WithImagePNGPrefix(pngPrefix),
				favicon.WithMaxPixels(maxPixels),
			)
			data, err := gen.FromImage(raw)
			if err != nil {
				return err
			}
			return writeArchive(log, output, data)
		},
	}
	flags := cmd.Flags()
	flags.StringVarP(&output, "output", "o", constants.ImageArchiveName, "archive path")
	flags.StringVar(&pngPrefix, "png-prefix", constants.PNGPrefix, "file name prefix for the PNG entries")
	flags.Int64Var(&maxPixels, "max-pixels", constants.MaxSourcePixels, "largest image accepted, in pixels")
	return cmd
}

type textFlags struct {
	shape      string
	font       string
	size       int
	color      string
	background string
	output     string
	pngPrefix  string
	fontsDir   string
}

func newTextCmd(logger func() zerolog.Logger) *cobra.Command {
	var f textFlags

	cmd := &cobra.Command{
		Use:   "text <text>",
		Short: "Build a favicon archive from a line of text",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			log := logger()
			req, err := f.request(args[0])
			if err != nil {
				return err
			}

			reg := fonts.NewRegistry()
			if f.fontsDir != "" {
				n, err := reg.LoadDir(f.fontsDir)
				if err != nil {
					return err
				}
				log.Debug().Str("dir", f.fontsDir).Int("count", n).Msg("fonts registered")
			}
			gen := favicon.New(
				favicon.WithRenderer(textrender.NewRenderer(reg)),
				favicon.WithTextPNGPrefix(f.pngPrefix),
			)
			data, layout, err := gen.FromTextLayout(req)
			if err != nil {
				return err
			}
			log.Debug().
				Str("font", layout.Asset).
				Bool("scalable", layout.Scalable).
				Int("font_size", layout.FontSize).
				Int("fit_iterations", layout.Iterations).
				Msg("text rendered")
			return writeArchive(log, f.output, data)
		},
	}
	flags := cmd.Flags()
	flags.StringVar(&f.shape, "shape", "square", "background shape: square, rounded_square, circle or triangular")
	flags.StringVar(&f.font, "font", constants.DefaultFontFamily, "font family")
	flags.IntVar(&f.size, "size", 0, "font size in pixels, 0 fits the text automatically")
	flags.StringVar(&f.color, "color", constants.DefaultTextColor, "text color")
	flags.StringVar(&f.background, "background", constants.DefaultBackgroundColor, "background color")
	flags.StringVarP(&f.output, "output", "o", constants.TextArchiveName, "archive path")
	flags.StringVar(&f.pngPrefix, "png-prefix", constants.PNGPrefix, "file name prefix for the PNG entries")
	flags.StringVar(&f.fontsDir, "fonts-dir", "", "directory of extra .ttf/.otf files, named after their family")
	return cmd
}

func (f textFlags) request(text string) (textrender.Request, error) {
	fg, err := colors.ParseOr(f.color, constants.DefaultTextColor)
	if err != nil {
		return textrender.Request{}, fmt.Errorf("--color: %w", err)
	}
	bg, err := colors.ParseOr(f.background, constants.DefaultBackgroundColor)
	if err != nil {
		return textrender.Request{}, fmt.Errorf("--background: %w", err)
	}
	return textrender.Request{
		Text:            text,
		FontSize:        max(f.size, 0),
		Shape:           textrender.ParseShape(f.shape),
		FontFamily:      f.font,
		TextColor:       fg,
		BackgroundColor: bg,
	}, nil
}
