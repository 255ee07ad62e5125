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
	"context"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/poiesic/recall"
	"github.com/poiesic/recall/ai"
	"github.com/poiesic/recall/core"
	"github.com/urfave/cli/v2"
)

func main() {
	app := &cli.App{
		Name:  "recall",
		Usage: "Hybrid search over a personal knowledge base",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
			&cli.StringFlag{
				Name:     "db",
				Aliases:  []string{"d"},
				Usage:    "Path to BadgerDB database directory",
				Required: true,
			},
			&cli.StringFlag{
				Name:    "owner",
				Aliases: []string{"o"},
				Usage:   "Owner whose corpus to operate on",
				Value:   "default",
			},
			&cli.StringFlag{
				Name:  "host",
				Usage: "OpenAI-compatible service host URL",
				Value: "http://localhost:11434/v1",
			},
			&cli.StringFlag{
				Name:  "embedding-model",
				Usage: "Embedding model name",
				Value: "embeddinggemma",
			},
			&cli.StringFlag{
				Name:  "generation-model",
				Usage: "Generation model name",
				Value: "qwen2.5:3b",
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:      "ingest",
				Usage:     "Ingest text files into the knowledge base",
				ArgsUsage: "FILE [FILE...] (use - for stdin)",
				Action:    ingestCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "category",
						Usage: "Category assigned to the ingested documents",
					},
					&cli.StringSliceFlag{
						Name:  "tag",
						Usage: "Tag assigned to the ingested documents (repeatable)",
					},
					&cli.StringFlag{
						Name:  "title",
						Usage: "Document title (single file only; defaults to the file name)",
					},
				},
			},
			{
				Name:      "search",
				Usage:     "Search the knowledge base and synthesize an answer",
				ArgsUsage: "QUERY",
				Action:    searchCommand,
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "max-results",
						Usage: "Maximum number of results to return",
						Value: 10,
					},
					&cli.StringFlag{
						Name:  "response-type",
						Usage: "Answer style (comprehensive, concise, detailed)",
						Value: "comprehensive",
					},
					&cli.BoolFlag{
						Name:  "references",
						Usage: "Append a source list to the answer",
					},
					&cli.BoolFlag{
						Name:  "no-cache",
						Usage: "Bypass the result cache",
					},
				},
			},
			{
				Name:      "suggest",
				Usage:     "Complete a partial query from indexed terms",
				ArgsUsage: "PARTIAL",
				Action:    suggestCommand,
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum number of suggestions",
						Value: 8,
					},
				},
			},
			{
				Name:      "export-index",
				Usage:     "Write the owner's lexical index snapshot to a file",
				ArgsUsage: "OUTFILE",
				Action:    exportIndexCommand,
			},
			{
				Name:      "import-index",
				Usage:     "Replace the owner's lexical index from a snapshot file",
				ArgsUsage: "INFILE",
				Action:    importIndexCommand,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

// openAssistant builds an Assistant from the global flags. The caller owns
// the returned handle and must Close it.
func openAssistant(c *cli.Context) (*recall.Assistant, error) {
	aiConfig := ai.NewConfig(
		ai.WithHost(c.String("host")),
		ai.WithEmbeddingModel(c.String("embedding-model")),
		ai.WithGenerationModel(c.String("generation-model")),
	)
	a, err := recall.New(c.String("db"), recall.WithAIConfig(aiConfig))
	if err != nil {
		return nil, fmt.Errorf("failed to open knowledge base: %w", err)
	}
	return a, nil
}

func ingestCommand(c *cli.Context) error {
	if c.NArg() == 0 {
		return fmt.Errorf("at least one file argument is required")
	}
	if c.String("title") != "" && c.NArg() > 1 {
		return fmt.Errorf("--title only applies to a single file")
	}

	a, err := openAssistant(c)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx := context.Background()
	owner := c.String("owner")

	for _, arg := range c.Args().Slice() {
		src, name, err := sourceDocument(c, owner, arg)
		if err != nil {
			return err
		}

		doc, err := a.Ingest(ctx, src)
		if err != nil {
			return fmt.Errorf("failed to ingest %s: %w", name, err)
		}
		fmt.Fprintf(os.Stderr, "Ingested %s as %d\n", name, doc.Id)
	}

	// Embeddings run in the background; drain before closing so the
	// corpus is fully searchable on exit.
	a.Wait()
	return nil
}

func searchCommand(c *cli.Context) error {
	query := strings.TrimSpace(strings.Join(c.Args().Slice(), " "))
	if query == "" {
		return fmt.Errorf("a query argument is required")
	}

	a, err := openAssistant(c)
	if err != nil {
		return err
	}
	defer a.Close()

	resp, err := a.Search(context.Background(), query, c.String("owner"), recall.SearchOptions{
		ResponseType:      c.String("response-type"),
		IncludeReferences: c.Bool("references"),
		MaxResults:        c.Int("max-results"),
		DisableCache:      c.Bool("no-cache"),
	})
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	fmt.Println(resp.Answer)

	if len(resp.Results) > 0 {
		fmt.Println()
		for i, result := range resp.Results {
			fmt.Printf("%2d. %s (%.0f%%)\n", i+1, result.Title, result.Score*100)
		}
	}

	meta := resp.Metadata
	fmt.Fprintf(os.Stderr, "\n%d results in %dms (%s search, intent %s",
		meta.TotalResults, meta.ResponseTimeMs, meta.SearchType, meta.Intent)
	if meta.Degraded {
		fmt.Fprint(os.Stderr, ", degraded")
	}
	if meta.Cached {
		fmt.Fprint(os.Stderr, ", cached")
	}
	fmt.Fprintln(os.Stderr, ")")
	return nil
}

func suggestCommand(c *cli.Context) error {
	partial := strings.TrimSpace(strings.Join(c.Args().Slice(), " "))
	if partial == "" {
		return fmt.Errorf("a partial query argument is required")
	}

	a, err := openAssistant(c)
	if err != nil {
		return err
	}
	defer a.Close()

	for _, suggestion := range a.Suggest(context.Background(), c.String("owner"), partial, c.Int("limit")) {
		fmt.Println(suggestion)
	}
	return nil
}

func exportIndexCommand(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("exactly one output file argument is required")
	}

	a, err := openAssistant(c)
	if err != nil {
		return err
	}
	defer a.Close()

	snapshot, err := a.ExportIndex(context.Background(), c.String("owner"))
	if err != nil {
		return fmt.Errorf("failed to export index: %w", err)
	}
	if err := os.WriteFile(c.Args().First(), snapshot, 0644); err != nil {
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	fmt.Fprintf(os.Stderr, "Wrote %d bytes to %s\n", len(snapshot), c.Args().First())
	return nil
}

func importIndexCommand(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("exactly one input file argument is required")
	}

	snapshot, err := os.ReadFile(c.Args().First())
	if err != nil {
		return fmt.Errorf("failed to read snapshot: %w", err)
	}

	a, err := openAssistant(c)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.ImportIndex(c.String("owner"), snapshot); err != nil {
		return fmt.Errorf("failed to import index: %w", err)
	}
	fmt.Fprintf(os.Stderr, "Restored index for owner %s\n", c.String("owner"))
	return nil
}

// sourceDocument reads one ingest argument and assembles the document for it.
// Stdin input carries no filename.
func sourceDocument(c *cli.Context, owner, arg string) (*core.Document, string, error) {
	content, name, err := readSource(arg)
	if err != nil {
		return nil, "", err
	}
	title := c.String("title")
	if title == "" {
		title = name
	}
	filename := name
	if arg == "-" {
		filename = ""
	}
	return &core.Document{
		OwnerId:    owner,
		Title:      title,
		Filename:   filename,
		RawContent: content,
		Category:   c.String("category"),
		Tags:       c.StringSlice("tag"),
	}, name, nil
}

// readSource reads a file argument, treating "-" as stdin.
func readSource(arg string) (content, name string, err error) {
	if arg == "-" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", "", fmt.Errorf("failed to read stdin: %w", err)
		}
		return string(data), "stdin", nil
	}
	data, err := os.ReadFile(arg)
	if err != nil {
		return "", "", fmt.Errorf("failed to read %s: %w", arg, err)
	}
	return string(data), filepath.Base(arg), nil
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
