package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/coursewise/coursewise/internal/config"
	"github.com/coursewise/coursewise/internal/vectorize"
	"github.com/spf13/cobra"
)

var (
	insertFile    string
	insertIndex   string
	insertEnvFile string
)

var insertCmd = &cobra.Command{
	Use:   "insert",
	Short: "Submit an existing NDJSON artifact to Vectorize bulk insert",
	RunE:  runInsert,
}

func init() {
	insertCmd.Flags().StringVar(&insertFile, "file", "", "Path to NDJSON artifact (required)")
	insertCmd.Flags().StringVar(&insertIndex, "index", "", "Vectorize index name (default from config)")
	insertCmd.Flags().StringVar(&insertEnvFile, "env", "", "Path to .env/.dev.vars with Cloudflare credentials")
	_ = insertCmd.MarkFlagRequired("file")
}

func runInsert(cmd *cobra.Command, args []string) error {
	if err := config.LoadEnvFile(insertEnvFile); err != nil {
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	initLogger(cfg.Log)

	index := cfg.Vectorize.Index
	if insertIndex != "" {
		index = insertIndex
	}

	mutation, err := insertArtifact(cmd.Context(), cfg, index, insertFile)
	if err != nil {
		return err
	}
	if mutation == "" {
		slog.Warn("insert response had no mutationId; inspect server response")
	} else {
		slog.Info("insert accepted", "mutation_id", mutation, "index", index)
	}
	return nil
}

// insertArtifact streams the NDJSON file to the bulk-insert endpoint and
// returns the mutation ID for tracking.
func insertArtifact(ctx context.Context, cfg *config.Config, index, path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("opening artifact %s: %w", path, err)
	}
	defer f.Close()

	client := vectorize.NewClient(cfg.Cloudflare.AccountID, cfg.Cloudflare.APIToken,
		index, vectorize.WithBaseURL(cfg.Cloudflare.BaseURL))
	return client.Insert(ctx, f)
}
