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
	"bufio"
	"context"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"

	"github.com/poiesic/docqa"
	"github.com/poiesic/docqa/ai"
	"github.com/poiesic/docqa/chunk"
	"github.com/poiesic/docqa/config"
	"github.com/poiesic/docqa/core"
	"github.com/poiesic/docqa/ingest"
	"github.com/poiesic/docqa/loader"
	"github.com/poiesic/docqa/reindex"
	"github.com/poiesic/docqa/search"
	"github.com/poiesic/docqa/web"
)

func main() {
	app := &cli.App{
		Name:  "docqa",
		Usage: "Document question answering over local files and web pages",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to YAML config file (defaults to ./docqa.yaml, then ~/.config/docqa/config.yaml)",
			},
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
		},
		Before: setupApp,
		Commands: []*cli.Command{
			{
				Name:      "ingest",
				Usage:     "Load, chunk, embed, and store documents",
				ArgsUsage: "<dir-or-file-or-url> [...]",
				Action:    ingestCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "strategy",
						Usage: "Chunking strategy (recursive, semantic, fixed, headers); overrides config",
					},
					&cli.IntFlag{
						Name:  "workers",
						Usage: "Number of concurrent embedding workers",
					},
					&cli.IntFlag{
						Name:  "chunk-size",
						Usage: "Target chunk size in characters; overrides config",
					},
					&cli.IntFlag{
						Name:  "overlap",
						Usage: "Chunk overlap in characters; overrides config",
					},
				},
			},
			{
				Name:      "query",
				Usage:     "Run a single search query against stored documents",
				ArgsUsage: "<question>",
				Action:    queryCommand,
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:    "top",
						Aliases: []string{"k"},
						Usage:   "Maximum number of results to show (0 uses config)",
					},
					&cli.Float64Flag{
						Name:  "min-score",
						Usage: "Minimum cosine score for a hit (negative uses config)",
						Value: -1,
					},
					&cli.BoolFlag{
						Name:    "verbose",
						Aliases: []string{"v"},
						Usage:   "Print search stages to stderr",
					},
				},
			},
			{
				Name:   "chat",
				Usage:  "Interactive query loop reading questions from stdin",
				Action: chatCommand,
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:    "top",
						Aliases: []string{"k"},
						Usage:   "Maximum number of results per question (0 uses config)",
					},
				},
			},
			{
				Name:   "serve",
				Usage:  "Start the HTTP query and upload server",
				Action: serveCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "addr",
						Usage: "Listen address (overrides config)",
					},
				},
			},
			{
				Name:   "inspect",
				Usage:  "Show stored sources and chunk counts",
				Action: inspectCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "source",
						Usage: "Print the stored chunk contents of one source",
					},
				},
			},
			{
				Name:   "reindex",
				Usage:  "Recompute embeddings for all stored chunks",
				Action: reindexCommand,
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
					&cli.IntFlag{
						Name:  "max-retries",
						Usage: "Maximum retry attempts for failed operations",
						Value: 3,
					},
					&cli.DurationFlag{
						Name:  "retry-delay",
						Usage: "Base delay for exponential backoff",
						Value: 1 * time.Second,
					},
				},
			},
			{
				Name:   "health",
				Usage:  "Check that the embedding service is reachable",
				Action: healthCommand,
				Flags: []cli.Flag{
					&cli.DurationFlag{
						Name:  "timeout",
						Usage: "Maximum time to wait for the probe",
						Value: 10 * time.Second,
					},
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func ingestCommand(c *cli.Context) error {
	ctx := context.Background()

	if c.NArg() == 0 {
		return fmt.Errorf("at least one directory, file, or URL is required")
	}

	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	if size := c.Int("chunk-size"); size > 0 {
		cfg.Chunking.ChunkSize = size
	}
	if overlap := c.Int("overlap"); overlap > 0 {
		cfg.Chunking.Overlap = overlap
	}

	lib, err := openLibraryWith(cfg)
	if err != nil {
		return err
	}
	defer lib.Close()

	opts, err := pipelineOptions(c)
	if err != nil {
		return err
	}
	pipeline, err := lib.NewPipeline(opts...)
	if err != nil {
		return fmt.Errorf("failed to create pipeline: %w", err)
	}
	defer pipeline.Release()

	total := &ingestTotals{}
	var urls []string
	for _, arg := range c.Args().Slice() {
		if strings.HasPrefix(arg, "http://") || strings.HasPrefix(arg, "https://") {
			urls = append(urls, arg)
			continue
		}
		if err := ingestPath(ctx, pipeline, arg, total); err != nil {
			return err
		}
	}
	if len(urls) > 0 {
		report, err := pipeline.IngestURLs(ctx, urls)
		if err != nil {
			return fmt.Errorf("failed to ingest URLs: %w", err)
		}
		total.add(report)
	}

	fmt.Fprintf(os.Stderr, "Ingested %d documents: %d chunks, %d stored, %d failed\n",
		total.documents, total.chunks, total.stored, total.failed)
	return nil
}

func queryCommand(c *cli.Context) error {
	ctx := context.Background()

	if c.NArg() == 0 {
		return fmt.Errorf("a question is required")
	}
	question := strings.Join(c.Args().Slice(), " ")

	lib, err := openLibrary(c)
	if err != nil {
		return err
	}
	defer lib.Close()

	searcher, err := lib.NewSearcher(searcherOptions(c)...)
	if err != nil {
		return fmt.Errorf("failed to create searcher: %w", err)
	}

	topK := c.Int("top")
	if topK <= 0 {
		topK = lib.Config().Search.TopK
	}

	var results []*core.SearchResult
	if c.Bool("verbose") {
		results, err = searcher.SearchWithMonitor(ctx, question, topK, &stderrMonitor{})
	} else {
		results, err = searcher.Search(ctx, question, topK)
	}
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	printResults(os.Stdout, results)
	return nil
}

// stderrMonitor prints each search stage, for the query --verbose flag.
type stderrMonitor struct{}

var _ search.SearchMonitor = (*stderrMonitor)(nil)

func (m *stderrMonitor) Start(query string) {
	fmt.Fprintf(os.Stderr, "searching: %q\n", query)
}

func (m *stderrMonitor) AfterQueryEmbedding(dimensions int) {
	fmt.Fprintf(os.Stderr, "query embedded (%d dimensions)\n", dimensions)
}

func (m *stderrMonitor) AfterSimilaritySearch(ids []uint64) {
	fmt.Fprintf(os.Stderr, "similarity search returned %d candidates\n", len(ids))
}

func (m *stderrMonitor) VerbatimBoost(chunk *core.Chunk) {
	fmt.Fprintf(os.Stderr, "verbatim boost: %s chunk %d\n", chunk.Source, chunk.Index)
}

func (m *stderrMonitor) Finish(results []*core.SearchResult) {
	fmt.Fprintf(os.Stderr, "%d results above threshold\n", len(results))
}

func chatCommand(c *cli.Context) error {
	ctx := context.Background()

	lib, err := openLibrary(c)
	if err != nil {
		return err
	}
	defer lib.Close()

	searcher, err := lib.NewSearcher()
	if err != nil {
		return fmt.Errorf("failed to create searcher: %w", err)
	}

	topK := c.Int("top")
	if topK <= 0 {
		topK = lib.Config().Search.TopK
	}

	fmt.Fprintln(os.Stderr, "Type a question and press enter. Ctrl-D or \"exit\" quits.")
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Fprint(os.Stderr, "> ")
		if !scanner.Scan() {
			break
		}
		question := strings.TrimSpace(scanner.Text())
		if question == "" {
			continue
		}
		if question == "exit" || question == "quit" {
			break
		}

		results, err := searcher.Search(ctx, question, topK)
		if err != nil {
			fmt.Fprintf(os.Stderr, "search failed: %v\n", err)
			continue
		}
		printResults(os.Stdout, results)
	}

	return scanner.Err()
}

func serveCommand(c *cli.Context) error {
	lib, err := openLibrary(c)
	if err != nil {
		return err
	}
	defer lib.Close()

	pipeline, err := lib.NewPipeline()
	if err != nil {
		return fmt.Errorf("failed to create pipeline: %w", err)
	}
	defer pipeline.Release()

	searcher, err := lib.NewSearcher()
	if err != nil {
		return fmt.Errorf("failed to create searcher: %w", err)
	}

	server, err := web.NewServer(searcher, pipeline, lib.Repository(), nil,
		web.WithTopK(lib.Config().Search.TopK))
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	addr := c.String("addr")
	if addr == "" {
		addr = lib.Config().Web.Addr
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe(addr)
	}()

	fmt.Fprintf(os.Stderr, "Listening on %s\n", addr)

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case <-stop:
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown failed: %w", err)
	}
	return <-errCh
}

func inspectCommand(c *cli.Context) error {
	ctx := context.Background()

	lib, err := openLibrary(c)
	if err != nil {
		return err
	}
	defer lib.Close()

	repo := lib.Repository()

	if source := c.String("source"); source != "" {
		chunks, err := repo.GetChunksBySource(ctx, source)
		if err != nil {
			return fmt.Errorf("failed to read source %q: %w", source, err)
		}
		if len(chunks) == 0 {
			return fmt.Errorf("no chunks stored for %q", source)
		}
		for _, chunk := range chunks {
			header := ""
			if chunk.Header != "" {
				header = " [" + chunk.Header + "]"
			}
			fmt.Printf("--- chunk %d (%s, %d chars, %d dims)%s\n%s\n",
				chunk.Index, chunk.Strategy, len(chunk.Content), len(chunk.Vector),
				header, chunk.Content)
		}
		return nil
	}

	count, err := repo.Count(ctx)
	if err != nil {
		return fmt.Errorf("failed to count chunks: %w", err)
	}
	sources, err := repo.Sources(ctx)
	if err != nil {
		return fmt.Errorf("failed to list sources: %w", err)
	}

	fmt.Printf("%d chunks across %d sources\n", count, len(sources))
	for _, source := range sources {
		chunks, err := repo.GetChunksBySource(ctx, source)
		if err != nil {
			return fmt.Errorf("failed to read source %q: %w", source, err)
		}
		fmt.Printf("  %s (%d chunks)\n", source, len(chunks))
	}
	return nil
}

func reindexCommand(c *cli.Context) error {
	ctx := context.Background()

	lib, err := openLibrary(c)
	if err != nil {
		return err
	}
	defer lib.Close()

	reindexConfig := &reindex.Config{
		BatchSize:      c.Int("batch-size"),
		ReportInterval: c.Int("report-interval"),
		MaxRetries:     c.Int("max-retries"),
		RetryDelay:     c.Duration("retry-delay"),
	}

	if reindexConfig.BatchSize <= 0 {
		return fmt.Errorf("batch-size must be greater than 0")
	}
	if reindexConfig.ReportInterval <= 0 {
		return fmt.Errorf("report-interval must be greater than 0")
	}
	if reindexConfig.MaxRetries <= 0 {
		return fmt.Errorf("max-retries must be greater than 0")
	}

	reindexer := reindex.NewReindexer(lib.Repository(), lib.Provider().Embedder(),
		reindexConfig, os.Stderr)

	fmt.Fprintf(os.Stderr, "Embedding host: %s\n", lib.Config().Embedding.Host)
	fmt.Fprintf(os.Stderr, "Embedding model: %s\n", lib.Config().Embedding.Model)
	fmt.Fprintln(os.Stderr)

	if err := reindexer.Run(ctx); err != nil {
		return fmt.Errorf("reindexing failed: %w", err)
	}
	return nil
}

func healthCommand(c *cli.Context) error {
	lib, err := openLibrary(c)
	if err != nil {
		return err
	}
	defer lib.Close()

	ctx, cancel := context.WithTimeout(context.Background(), c.Duration("timeout"))
	defer cancel()

	count, err := lib.Repository().Count(ctx)
	if err != nil {
		return fmt.Errorf("storage check failed: %w", err)
	}
	fmt.Printf("storage: ok (%d chunks)\n", count)

	pinger, ok := lib.Provider().Embedder().(ai.Pinger)
	if !ok {
		fmt.Println("embedding: ok (no remote service)")
		return nil
	}
	if err := pinger.Ping(ctx); err != nil {
		return fmt.Errorf("embedding service unreachable: %w", err)
	}
	fmt.Println("embedding: ok")
	return nil
}

// loadConfig reads the config named by the --config flag, falling back to
// the default search path.
func loadConfig(c *cli.Context) (*config.AppConfig, error) {
	var cfg *config.AppConfig
	var err error
	if path := c.String("config"); path != "" {
		cfg, err = config.Load(path)
	} else {
		cfg, _, err = config.LoadDefault()
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}

func openLibrary(c *cli.Context) (*docqa.Library, error) {
	cfg, err := loadConfig(c)
	if err != nil {
		return nil, err
	}
	return openLibraryWith(cfg)
}

func openLibraryWith(cfg *config.AppConfig) (*docqa.Library, error) {
	lib, err := docqa.Open(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to open library: %w", err)
	}
	return lib, nil
}

type ingestTotals struct {
	documents int
	chunks    int
	stored    int
	failed    int
}

func (t *ingestTotals) add(r *ingest.Report) {
	t.documents += r.Documents
	t.chunks += r.Chunks
	t.stored += r.Stored
	t.failed += r.Failed
}

func ingestPath(ctx context.Context, pipeline *ingest.Pipeline, path string, total *ingestTotals) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("cannot read %q: %w", path, err)
	}

	if info.IsDir() {
		report, err := pipeline.IngestDirectory(ctx, path)
		if err != nil {
			return fmt.Errorf("failed to ingest directory %q: %w", path, err)
		}
		total.add(report)
		return nil
	}

	ld := loader.NewLoader()
	doc, err := ld.LoadFile(path)
	if err != nil {
		return fmt.Errorf("failed to load %q: %w", path, err)
	}
	report, err := pipeline.IngestDocuments(ctx, []core.Document{*doc})
	if err != nil {
		return fmt.Errorf("failed to ingest %q: %w", path, err)
	}
	total.add(report)
	return nil
}

func pipelineOptions(c *cli.Context) ([]ingest.Option, error) {
	var opts []ingest.Option
	if s := c.String("strategy"); s != "" {
		strategy, err := chunk.ParseStrategy(s)
		if err != nil {
			return nil, err
		}
		opts = append(opts, ingest.WithStrategy(strategy))
	}
	if n := c.Int("workers"); n > 0 {
		opts = append(opts, ingest.WithPoolSize(n))
	}
	return opts, nil
}

func searcherOptions(c *cli.Context) []search.Option {
	var opts []search.Option
	if score := c.Float64("min-score"); score >= 0 {
		opts = append(opts, search.WithMinScore(float32(score)))
	}
	return opts
}

func printResults(w io.Writer, results []*core.SearchResult) {
	if len(results) == 0 {
		fmt.Fprintln(w, "No matching passages found.")
		return
	}
	for i, result := range results {
		fmt.Fprintf(w, "%d. [%.3f] %s (chunk %d)\n", i+1, result.Score,
			result.Chunk.Source, result.Chunk.Index)
		fmt.Fprintln(w, indent(result.Chunk.Content, "   "))
	}
}

func indent(text, prefix string) string {
	lines := strings.Split(strings.TrimSpace(text), "\n")
	for i, line := range lines {
		lines[i] = prefix + line
	}
	return strings.Join(lines, "\n")
}

func setupApp(c *cli.Context) error {
	// Load .env before the config layer reads API tokens from the
	// environment. A missing file is not an error.
	_ = godotenv.Load()

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
