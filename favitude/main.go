package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"golang.org/x/sync/semaphore"

	"github.com/favitude/favitude/internal/config"
	"github.com/favitude/favitude/internal/favicon"
	"github.com/favitude/favitude/internal/fonts"
	"github.com/favitude/favitude/internal/logging"
	"github.com/favitude/favitude/internal/textrender"
)

// Server serves the favicon generation endpoints.
type Server struct {
	cfg *config.Config
	gen *favicon.Generator
	sem *semaphore.Weighted
	log zerolog.Logger
}

func NewServer(cfg *config.Config, gen *favicon.Generator, logger zerolog.Logger) *Server {
	if gen == nil {
		gen = favicon.New(generatorOptions(cfg)...)
	}
	return &Server{
		cfg: cfg,
		gen: gen,
		sem: semaphore.NewWeighted(cfg.Generate.MaxConcurrent),
		log: logger,
	}
}

func (s *Server) Router() *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(requestLogger(s.log))
	r.Use(middleware.Recoverer)

	r.Get("/", s.handleRoot)
	r.Get("/fonts", s.handleFonts)

	r.Route("/generate", func(r chi.Router) {
		r.With(middleware.RequestSize(s.cfg.Upload.MaxBytes)).Post("/image", s.handleGenerateImage)
		r.Post("/text", s.handleGenerateText)
		r.Get("/text", s.handleGenerateTextCached)
	})

	return r
}

// generatorOptions maps the naming and upload limits in cfg to generator
// options.
func generatorOptions(cfg *config.Config) []favicon.Option {
	return []favicon.Option{
		favicon.WithTextPNGPrefix(cfg.Generate.TextPNGPrefix),
		favicon.WithImagePNGPrefix(cfg.Generate.ImagePNGPrefix),
		favicon.WithMaxPixels(cfg.Upload.MaxPixels),
	}
}

// newGenerator builds the generator, adding the fonts from cfg.Fonts.Dir to
// the bundled ones. The directory watch, if enabled, stops with ctx.
func newGenerator(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*favicon.Generator, error) {
	reg := fonts.NewRegistry()
	for family, candidates := range cfg.Fonts.Families {
		reg.SetFamily(family, candidates...)
	}
	if cfg.Fonts.Dir != "" {
		n, err := reg.LoadDir(cfg.Fonts.Dir)
		if err != nil {
			return nil, err
		}
		logger.Info().Str("dir", cfg.Fonts.Dir).Int("count", n).Msg("fonts registered")

		if cfg.Fonts.Watch {
			err := reg.Watch(ctx, cfg.Fonts.Dir, func(asset string, err error) {
				if err != nil {
					logger.Warn().Err(err).Msg("font reload failed")
					return
				}
				logger.Info().Str("asset", asset).Msg("font registered")
			})
			if err != nil {
				return nil, err
			}
		}
	}
	opts := append(generatorOptions(cfg), favicon.WithRenderer(textrender.NewRenderer(reg)))
	return favicon.New(opts...), nil
}

func loadConfig() (*config.Config, error) {
	if path := os.Getenv("FAVITUDE_CONFIG"); path != "" {
		return config.LoadFile(path)
	}
	return config.Load()
}

func main() {
	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	logCfg := logging.DefaultConfig()
	logCfg.Level = logging.ParseLevel(cfg.Log.Level)
	logCfg.Format = cfg.Log.Format
	logger := logging.New(logCfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	gen, err := newGenerator(ctx, cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load fonts")
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           NewServer(cfg, gen, logger).Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("shutdown")
		}
	}()

	logger.Info().
		Str("port", cfg.Port).
		Str("base_url", cfg.BaseURL).
		Int64("max_concurrent", cfg.Generate.MaxConcurrent).
		Msg("Favitude service starting")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal().Err(err).Msg("server failed")
	}
}
