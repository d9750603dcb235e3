package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/lost-pika/backend-ai-subtitler/internal/acquire"
	"github.com/lost-pika/backend-ai-subtitler/internal/api"
	"github.com/lost-pika/backend-ai-subtitler/internal/config"
	"github.com/lost-pika/backend-ai-subtitler/internal/pipeline"
	"github.com/lost-pika/backend-ai-subtitler/internal/store"
	"github.com/lost-pika/backend-ai-subtitler/internal/transcribe"
	"github.com/lost-pika/backend-ai-subtitler/internal/translate"
)

var version = "dev"

func main() {
	startTime := time.Now()

	var overrides config.Overrides
	flag.StringVar(&overrides.EnvFile, "env-file", "", "path to .env file")
	flag.StringVar(&overrides.HTTPAddr, "addr", "", "http listen address")
	flag.StringVar(&overrides.LogLevel, "log-level", "", "log level (trace..panic)")
	flag.StringVar(&overrides.SubtitleDir, "subtitle-dir", "", "directory for rendered subtitle files")
	flag.Parse()

	// Config
	cfg, err := config.Load(overrides)
	if err != nil {
		early := zerolog.New(os.Stderr).With().Timestamp().Logger()
		early.Fatal().Err(err).Msg("failed to load config")
	}

	// Logger
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	log := zerolog.New(os.Stdout).With().Timestamp().Logger().Level(level)
	log.Info().Str("version", version).Msg("subtitler starting")

	// Context for graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Object store
	s3, err := store.NewS3Store(store.S3Config{
		Region:        cfg.S3Region,
		Bucket:        cfg.S3Bucket,
		Prefix:        cfg.S3Prefix,
		Endpoint:      cfg.S3Endpoint,
		AccessKey:     cfg.S3AccessKey,
		SecretKey:     cfg.S3SecretKey,
		PresignExpiry: cfg.S3PresignExpiry,
	}, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build object store")
	}
	checkCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	if err := s3.HealthCheck(checkCtx); err != nil {
		cancel()
		log.Fatal().Err(err).Str("bucket", cfg.S3Bucket).Msg("object store unreachable")
	}
	cancel()

	// Media acquisition
	extractor := acquire.NewExtractor(cfg.ExtractorBinary, cfg.TempDir, log)
	if !extractor.Available() {
		log.Warn().Str("binary", cfg.ExtractorBinary).Msg("extractor binary not found; hosted-video extraction disabled")
	}
	acquirer := acquire.New(s3, extractor, acquire.Options{
		MaxDownloadBytes: cfg.MaxDownloadBytes,
		DownloadTimeout:  cfg.DownloadTimeout,
		StreamRetries:    cfg.StreamRetries,
		TempDir:          cfg.TempDir,
	}, log)

	// Transcription provider
	provider := transcribe.NewAssemblyClient(cfg.TranscribeAPIKey, cfg.TranscribeTimeout)

	// Translation engine: Google web endpoint first, Lingva mirrors after
	mirrorURLs := cfg.MirrorURLs()
	if len(mirrorURLs) == 0 {
		mirrorURLs = translate.DefaultLingvaInstances
	}
	mirrors := make([]translate.Translator, 0, len(mirrorURLs))
	for _, u := range mirrorURLs {
		mirrors = append(mirrors, translate.NewLingvaClient(u, cfg.TranslateTimeout))
	}
	engine := translate.NewEngine(translate.NewGoogleWebClient(cfg.TranslateTimeout), mirrors, cfg.TranslateDelay, log)

	// Pipeline
	svc := pipeline.NewService(acquirer, provider, engine, pipeline.Options{
		SubtitleDir:  cfg.SubtitleDir,
		PollInterval: cfg.TranscribePollInterval,
		Deadline:     cfg.TranscribeDeadline,
		Cleaner:      s3,
	}, log)

	// HTTP server
	httpLog := log.With().Str("component", "http").Logger()
	subtitles := api.NewSubtitleHandler(svc, cfg.TempDir, httpLog)
	health := api.NewHealthHandler(s3, extractor, version, startTime)
	srv := api.NewServer(cfg, subtitles, health, httpLog)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	select {
	case <-ctx.Done():
		log.Info().Msg("shutdown signal received")
	case err := <-errCh:
		if err != nil {
			log.Error().Err(err).Msg("http server error")
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http server shutdown error")
	}

	log.Info().Msg("subtitler stopped")
}
