// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"encoding/json"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/poiesic/docindex"
	"github.com/poiesic/docindex/config"
	"github.com/poiesic/docindex/mcpserver"
	"github.com/urfave/cli/v2"
)

const statusPollInterval = 250 * time.Millisecond

func main() {
	if err := newApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "docindex",
		Usage: "Keep a vector index in step with a set of document files",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to a TOML configuration file",
			},
			&cli.StringSliceFlag{
				Name:    "pattern",
				Aliases: []string{"p"},
				Usage:   "Source glob pattern or directory (repeatable, replaces configured patterns)",
			},
			&cli.StringFlag{
				Name:  "db",
				Usage: "Path to BadgerDB database directory",
			},
			&cli.StringFlag{
				Name:  "embedding-host",
				Usage: "Embedding service host URL",
			},
			&cli.StringFlag{
				Name:  "embedding-model",
				Usage: "Embedding model name",
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:   "index",
				Usage:  "Index new and changed documents once",
				Action: indexCommand,
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "batch-size",
						Usage: "Number of chunks committed per batch",
					},
					&cli.DurationFlag{
						Name:  "pacing",
						Usage: "Minimum interval between batch commits",
					},
					&cli.BoolFlag{
						Name:  "quiet",
						Usage: "Do not print progress",
					},
				},
			},
			{
				Name:   "watch",
				Usage:  "Index, then reindex whenever source files change",
				Action: watchCommand,
				Flags: []cli.Flag{
					&cli.DurationFlag{
						Name:  "debounce",
						Usage: "Quiet period after the last change before indexing",
					},
				},
			},
			{
				Name:   "status",
				Usage:  "Show stored fingerprint and chunk counts",
				Action: statusCommand,
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Print as JSON",
					},
				},
			},
			{
				Name:   "reembed",
				Usage:  "Reembed all stored chunks with the configured embedding model",
				Action: reembedCommand,
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "batch-size",
						Usage: "Number of chunks to process in each batch",
						Value: 100,
					},
					&cli.IntFlag{
						Name:  "report-interval",
						Usage: "Report progress every N chunks",
						Value: 100,
					},
				},
			},
			{
				Name:   "mcp",
				Usage:  "Serve reindex and status tools over MCP on stdio",
				Action: mcpCommand,
			},
		},
	}
}

// loadConfig reads --config and applies the flag overrides.
func loadConfig(c *cli.Context) (*config.Config, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return nil, err
	}

	if patterns := c.StringSlice("pattern"); len(patterns) > 0 {
		cfg.Source.Patterns = patterns
	}
	if c.IsSet("db") {
		cfg.Storage.BadgerDir = c.String("db")
	}
	if c.IsSet("embedding-host") {
		cfg.Embedding.Host = c.String("embedding-host")
	}
	if c.IsSet("embedding-model") {
		cfg.Embedding.Model = c.String("embedding-model")
	}
	if c.IsSet("batch-size") && c.Command.Name == "index" {
		cfg.Commit.BatchSize = c.Int("batch-size")
	}
	if c.IsSet("pacing") {
		cfg.Commit.Pacing = config.Duration(c.Duration("pacing"))
	}
	if c.IsSet("debounce") {
		cfg.Watch.Debounce = config.Duration(c.Duration("debounce"))
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func openIndexer(c *cli.Context) (*docindex.Indexer, error) {
	cfg, err := loadConfig(c)
	if err != nil {
		return nil, err
	}
	return docindex.NewIndexer(cfg, docindex.WithLogger(slog.Default()))
}

func indexCommand(c *cli.Context) error {
	idx, err := openIndexer(c)
	if err != nil {
		return err
	}
	defer idx.Close()

	job, err := idx.Start()
	if err != nil {
		return err
	}

	out := c.App.ErrWriter
	ticker := time.NewTicker(statusPollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-job.Done():
			processed, err := job.Wait(c.Context)
			status := idx.Status()
			if !c.Bool("quiet") {
				fmt.Fprintf(out, "\rIndexed %d chunks from %d changed of %d documents (%d failed batches)\n",
					processed, status.ChangedCount, status.TotalCount, status.FailedBatches)
			}
			return err
		case <-ticker.C:
			if !c.Bool("quiet") {
				status := idx.Status()
				fmt.Fprintf(out, "\rProgress: %d chunks committed, %d/%d documents changed",
					status.ProcessedCount, status.ChangedCount, status.TotalCount)
			}
		}
	}
}

func watchCommand(c *cli.Context) error {
	idx, err := openIndexer(c)
	if err != nil {
		return err
	}
	defer idx.Close()

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if _, err := idx.Start(); err != nil {
		return err
	}
	slog.Info("watching for changes", "patterns", idx.Config().Source.Patterns)
	if err := idx.Watch(ctx); err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}

func statusCommand(c *cli.Context) error {
	idx, err := openIndexer(c)
	if err != nil {
		return err
	}
	defer idx.Close()

	counts, err := idx.Counts(c.Context)
	if err != nil {
		return fmt.Errorf("failed to read store counts: %w", err)
	}

	out := c.App.Writer
	if c.Bool("json") {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(counts)
	}
	cfg := idx.Config()
	fmt.Fprintf(out, "Index:        %s\n", cfg.Storage.BadgerDir)
	fmt.Fprintf(out, "Fingerprints: %d (%s)\n", counts.Fingerprints, cfg.Fingerprints.Backend)
	fmt.Fprintf(out, "Chunks:       %d\n", counts.Chunks)
	return nil
}

func reembedCommand(c *cli.Context) error {
	idx, err := openIndexer(c)
	if err != nil {
		return err
	}
	defer idx.Close()

	slog.Info("starting reembedding",
		"db", idx.Config().Storage.BadgerDir,
		"model", idx.Config().Embedding.Model,
		"batchSize", c.Int("batch-size"))

	r, err := idx.NewReembedder(c.Int("batch-size"), c.Int("report-interval"), c.App.ErrWriter)
	if err != nil {
		return err
	}
	if _, err := r.Run(c.Context); err != nil {
		return fmt.Errorf("reembedding failed: %w", err)
	}
	return nil
}

func mcpCommand(c *cli.Context) error {
	idx, err := openIndexer(c)
	if err != nil {
		return err
	}
	defer idx.Close()

	return mcpserver.NewServer(idx, slog.Default()).Serve()
}

func setupLogger(c *cli.Context) error {
	levelStr := strings.ToLower(c.String("log-level"))

	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}
