// Command pov-pipeline runs the POV short-video production pipeline: idea
// generation through scene imagery, narration, composition, and publishing.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"pov-pipeline/composer"
	"pov-pipeline/config"
	"pov-pipeline/imagegen"
	"pov-pipeline/ledger"
	"pov-pipeline/llm"
	"pov-pipeline/media"
	"pov-pipeline/pipeline"
	"pov-pipeline/publisher"
	"pov-pipeline/stages"
	"pov-pipeline/storage"
	"pov-pipeline/store"
	"pov-pipeline/tts"
)

func main() {
	var (
		configPath    string
		runAll        bool
		step          string
		startStage    string
		endStage      string
		retryCount    int
		keepArtifacts bool
	)

	root := &cobra.Command{
		Use:   "pov-pipeline",
		Short: "Automated POV short-video production pipeline",
		Long: `pov-pipeline turns ledger rows into published short videos:
idea generation, scene sequencing, image prompts, scene images, clips,
narration, composition, and publishing. Run the full pipeline, a single
stage, or any contiguous window.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}
			if step != "" {
				startStage, endStage = step, step
			}
			if runAll {
				startStage, endStage = "", ""
			}
			if retryCount > 0 {
				cfg.Pipeline.RetryCount = retryCount
			}
			return run(cmd.Context(), cfg, pipeline.Options{
				StartStage:    startStage,
				EndStage:      endStage,
				RetryCount:    cfg.Pipeline.RetryCount,
				RetryDelay:    time.Duration(cfg.Pipeline.RetryDelaySec) * time.Second,
				StopOnError:   cfg.Pipeline.StopOnError,
				KeepArtifacts: keepArtifacts,
			})
		},
	}

	root.Flags().StringVar(&configPath, "config", "config.yaml", "path to the YAML configuration")
	root.Flags().BoolVar(&runAll, "all", false, "run every stage from the beginning")
	root.Flags().StringVar(&step, "step", "", "run a single stage")
	root.Flags().StringVar(&startStage, "start", "", "first stage of the run window")
	root.Flags().StringVar(&endStage, "end", "", "last stage of the run window")
	root.Flags().IntVar(&retryCount, "retry", 0, "attempts per stage (overrides config)")
	root.Flags().BoolVar(&keepArtifacts, "keep-artifacts", false, "keep existing artifacts on a full run")

	if err := root.Execute(); err != nil {
		log.Printf("error: %v", err)
		os.Exit(1)
	}
}

func loadConfig(path string) (*config.Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		log.Printf("config %s not found, using defaults", path)
		return config.Default(), nil
	}
	return config.Load(path)
}

func run(ctx context.Context, cfg *config.Config, opts pipeline.Options) error {
	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	artifacts, err := store.New(cfg.Pipeline.WorkDir)
	if err != nil {
		return err
	}

	table, err := ledger.NewSheetsTable(ctx, cfg.Secrets.GoogleCredentials,
		cfg.Secrets.SpreadsheetID, cfg.Sheets.SheetName, cfg.Sheets.DataRange)
	if err != nil {
		return fmt.Errorf("ledger: %w", err)
	}

	text, err := llm.New(cfg.Secrets.AnthropicAPIKey, cfg.LLM.MaxTokens, cfg.LLM.Temperature)
	if err != nil {
		return err
	}

	blobs, err := storage.New(ctx, cfg.Secrets.GoogleCredentials)
	if err != nil {
		return err
	}

	deps := &stages.Deps{
		Cfg:    cfg,
		Store:  artifacts,
		Ledger: ledger.New(table),
		Text:   text,
		Images: imagegen.New(cfg.Image.BaseURL, cfg.Image.Width, cfg.Image.Height,
			cfg.Image.Model, cfg.Image.Seed, cfg.Image.NoLogo),
		Speech: tts.New(cfg.Audio.BaseURL, cfg.Secrets.ElevenLabsAPIKey, cfg.Audio.VoiceID),
		Composer: composer.New(cfg.Compose.BaseURL, cfg.Secrets.CreatomateAPIKey,
			cfg.Compose.TemplateID, cfg.Compose.OutputFormat,
			time.Duration(cfg.Compose.PollIntervalSec)*time.Second, cfg.Compose.PollAttempts),
		Blobs: blobs,
		Publisher: publisher.New(publisher.Credentials{
			ClientID:     cfg.Secrets.YouTubeClientID,
			ClientSecret: cfg.Secrets.YouTubeClientSecret,
			RefreshToken: cfg.Secrets.YouTubeRefreshToken,
		}, cfg.Upload.DefaultLanguage, cfg.Upload.NotifySubscribers, cfg.Upload.MadeForKids),
		Media: media.New(media.Options{
			Width:       cfg.Video.Width,
			Height:      cfg.Video.Height,
			FPS:         cfg.Video.FPS,
			Codec:       cfg.Video.Codec,
			PixelFormat: cfg.Video.PixelFormat,
			ClipSeconds: cfg.Video.ClipDurationSec,
		}),
	}

	runner := pipeline.New(artifacts, stages.All(deps))
	summary, err := runner.Run(ctx, opts)
	if err != nil {
		return err
	}
	if !summary.AllSucceeded() {
		return fmt.Errorf("%d of %d stages failed", summary.StepsTotal-summary.StepsSuccess, summary.StepsTotal)
	}
	return nil
}
