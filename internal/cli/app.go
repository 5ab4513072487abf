package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"

	"videothingy/reel-pipeline/config"
	"videothingy/reel-pipeline/internal/clipper"
	"videothingy/reel-pipeline/internal/ffmpeg"
	"videothingy/reel-pipeline/internal/highlights"
	"videothingy/reel-pipeline/internal/lock"
	"videothingy/reel-pipeline/internal/pipeline"
	"videothingy/reel-pipeline/internal/runlog"
	"videothingy/reel-pipeline/internal/source"
	"videothingy/reel-pipeline/internal/storage"
	"videothingy/reel-pipeline/internal/transcribe"
)

// app is the fully wired service.
type app struct {
	cfg      *config.Config
	log      *logrus.Logger
	store    *storage.Client
	pipeline *pipeline.Pipeline
	closers  []func() error
}

func newApp() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	log := config.NewLogger(cfg.LogLevel)

	sc, err := config.NewSupabaseClient(cfg.Supabase)
	if err != nil {
		return nil, err
	}
	store := storage.NewClient(sc, cfg.Supabase.Bucket)

	if cfg.Gemini.APIKey == "" {
		log.Warn("GEMINI_API_KEY is not set, highlight selection will fail")
	}

	encoder := ffmpeg.NewRunner(cfg.FFmpegPath)
	a := &app{cfg: cfg, log: log, store: store}

	deps := pipeline.Deps{
		Store:  store,
		Source: source.NewFetcher(cfg.Source.YtDlpPath, cfg.Source.ChannelURL),
		Transcriber: transcribe.New(transcribe.Options{
			Bin:      cfg.Whisper.Bin,
			Size:     cfg.Whisper.Model,
			ModelDir: cfg.Whisper.ModelDir,
			Threads:  cfg.Whisper.Threads,
		}, encoder),
		Selector: highlights.New(highlights.NewOpenAICompleter(cfg.Gemini.APIKey, cfg.Gemini.BaseURL, cfg.Gemini.Model)),
		Cutter:   clipper.New(encoder, log),
		Logger:   log,
	}

	if cfg.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := rdb.Ping(ctx).Err(); err != nil {
			rdb.Close()
			return nil, fmt.Errorf("connecting to redis at %s: %w", cfg.Redis.Addr, err)
		}
		log.WithField("addr", cfg.Redis.Addr).Info("Using redis for video locks")
		deps.Locker = lock.NewRedis(rdb, cfg.Redis.LockTTL, log)
		a.closers = append(a.closers, rdb.Close)
	}

	if cfg.RunsTable != "" {
		deps.Recorder = runlog.NewSupabase(sc, cfg.RunsTable, log)
	}

	a.pipeline = pipeline.New(deps, pipeline.Options{
		FetchLimit: cfg.Source.FetchLimit,
		ScratchDir: cfg.ScratchDir,
	})
	return a, nil
}

func (a *app) Close() {
	for _, c := range a.closers {
		if err := c(); err != nil {
			a.log.WithError(err).Warn("Error during shutdown")
		}
	}
}
