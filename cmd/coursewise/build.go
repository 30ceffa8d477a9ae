package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/coursewise/coursewise/internal/artifact"
	"github.com/coursewise/coursewise/internal/build"
	"github.com/coursewise/coursewise/internal/cfai"
	"github.com/coursewise/coursewise/internal/config"
	"github.com/coursewise/coursewise/internal/embedding"
	"github.com/coursewise/coursewise/internal/rows"
	"github.com/spf13/cobra"
)

var (
	buildCSV       string
	buildOut       string
	buildIndex     string
	buildEnvFile   string
	buildModel     string
	buildBatchSize int
	buildSleep     time.Duration
	buildInsert    bool
	buildUpload    bool
)

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Build the NDJSON vector artifact from a course CSV",
	Long:  "Load course rows from a CSV, embed their descriptions in batches, and write one strict-JSON vector record per line, ready for Vectorize bulk insert.",
	RunE:  runBuild,
}

func init() {
	buildCmd.Flags().StringVar(&buildCSV, "csv", "", "Path to input CSV (required)")
	buildCmd.Flags().StringVar(&buildOut, "out", "", "Path to output NDJSON (required)")
	buildCmd.Flags().StringVar(&buildIndex, "index", "", "Vectorize index name (default from config)")
	buildCmd.Flags().StringVar(&buildEnvFile, "env", "", "Path to .env/.dev.vars with Cloudflare credentials")
	buildCmd.Flags().StringVar(&buildModel, "model", "", "Embedding model to use (default from config)")
	buildCmd.Flags().IntVar(&buildBatchSize, "batch-size", 0, fmt.Sprintf("Texts per embedding request, capped at %d (default from config)", embedding.MaxBatchSize))
	buildCmd.Flags().DurationVar(&buildSleep, "sleep", 0, "Pause between embedding batches")
	buildCmd.Flags().BoolVar(&buildInsert, "insert", false, "Submit the artifact to the Vectorize bulk-insert endpoint after building")
	buildCmd.Flags().BoolVar(&buildUpload, "upload", false, "Upload the artifact to configured S3-compatible storage after building")
	_ = buildCmd.MarkFlagRequired("csv")
	_ = buildCmd.MarkFlagRequired("out")
}

func runBuild(cmd *cobra.Command, args []string) error {
	if err := config.LoadEnvFile(buildEnvFile); err != nil {
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	initLogger(cfg.Log)

	if buildModel != "" {
		cfg.Embedding.Model = buildModel
	}
	if buildBatchSize > 0 {
		cfg.Embedding.BatchSize = buildBatchSize
	}
	if buildSleep > 0 {
		cfg.Embedding.BatchDelay = config.Duration(buildSleep)
	}
	index := cfg.Vectorize.Index
	if buildIndex != "" {
		index = buildIndex
	}

	// Fail on a missing source before any network call.
	if _, err := os.Stat(buildCSV); err != nil {
		return fmt.Errorf("csv not found: %s", buildCSV)
	}

	client := cfai.NewClient(cfg.Cloudflare.AccountID, cfg.Cloudflare.APIToken,
		cfai.WithBaseURL(cfg.Cloudflare.BaseURL))
	embedder, err := newEmbedder(cfg, client)
	if err != nil {
		return err
	}

	pipeline := build.New(rows.NewCSVSource(buildCSV), embedder, build.NewWriter(buildOut))
	result, err := pipeline.Run(cmd.Context())
	if err != nil {
		return err
	}
	slog.Info("build complete", "records", result.Written, "dimension", result.Dimension, "out", buildOut)

	if buildInsert {
		mutation, err := insertArtifact(cmd.Context(), cfg, index, buildOut)
		if err != nil {
			return err
		}
		if mutation == "" {
			slog.Warn("insert response had no mutationId; inspect server response")
		} else {
			slog.Info("insert accepted", "mutation_id", mutation, "index", index)
		}
	}

	if buildUpload {
		uploader, err := artifact.NewUploader(cfg.Artifact)
		if err != nil {
			return err
		}
		if err := uploader.Upload(cmd.Context(), index, buildOut); err != nil {
			if errors.Is(err, artifact.ErrNotConfigured) {
				return errors.New("--upload requires artifact storage configuration")
			}
			return err
		}
		slog.Info("artifact uploaded", "index", index, "bucket", cfg.Artifact.Bucket)
	}

	return nil
}
