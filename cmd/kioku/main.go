// Package main is the Kioku CLI entry point.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/kioku/internal/cli"
	"github.com/hyperjump/kioku/internal/config"
	"github.com/hyperjump/kioku/internal/indexer"
	"github.com/hyperjump/kioku/internal/models"
	"github.com/hyperjump/kioku/internal/server"
	"github.com/hyperjump/kioku/internal/watcher"
)

var version = "dev"

const defaultConfigPath = "/usr/local/etc/kioku/config.yaml"

// loadConfig loads config from path. When path is the default, config.yaml in the
// current directory wins if it exists; when neither exists, built-in defaults are used.
// Returns the config and the path that was actually loaded ("" for defaults).
func loadConfig(path string) (*config.Config, string, error) {
	if path == defaultConfigPath {
		if cwd, err := os.Getwd(); err == nil {
			fallback := filepath.Join(cwd, "config.yaml")
			if _, err := os.Stat(fallback); err == nil {
				cfg, err := config.Load(fallback)
				if err != nil {
					return nil, "", err
				}
				return cfg, fallback, nil
			}
		}
		if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
			cfg := &config.Config{}
			config.ApplyEnv(cfg)
			config.ApplyDefaults(cfg)
			return cfg, "", nil
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	command := os.Args[1]
	switch command {
	case "server":
		runServer()
	case "index":
		runIndex()
	case "search":
		runSearch()
	case "prompt":
		runPrompt()
	case "watch":
		runWatch()
	case "status":
		runStatus()
	case "version", "--version", "-v":
		fmt.Printf("kioku version %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func fatalf(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}

// setup loads config, applies adjust (if any), and builds the logger and components.
func setup(configPath string, debug, withStore bool, adjust func(*config.Config)) (*config.Config, *zap.Logger, *Components) {
	cfg, resolved, err := loadConfig(configPath)
	if err != nil {
		fatalf("Failed to load config: %v", err)
	}
	if adjust != nil {
		adjust(cfg)
	}
	debugMode := cfg.Debug || debug
	logger, err := newLogger(cfg, debugMode)
	if err != nil {
		fatalf("Failed to create logger: %v", err)
	}
	logger.Debug("config loaded", zap.String("config_path", resolved), zap.Bool("debug", debugMode))

	components, err := initializeComponents(cfg, logger, withStore)
	if err != nil {
		logger.Fatal("Failed to initialize components", zap.Error(err))
	}
	return cfg, logger, components
}

// reindexOnChange is the watcher callback: a change arriving while a run is active is dropped.
func reindexOnChange(idx *indexer.Indexer, root string, logger *zap.Logger) func(ctx context.Context) {
	return func(ctx context.Context) {
		_, err := idx.Reindex(ctx, root)
		switch {
		case err == nil:
		case errors.Is(err, indexer.ErrIndexingInProgress):
			logger.Info("reindex already running, change dropped")
		default:
			logger.Warn("reindex after change failed", zap.Error(err))
		}
	}
}

func startWatcher(ctx context.Context, cfg *config.Config, idx *indexer.Indexer, logger *zap.Logger) (*watcher.Watcher, error) {
	w := watcher.NewWatcher(cfg.Notes.Root, cfg.Notes.Extensions,
		reindexOnChange(idx, cfg.Notes.Root, logger),
		watcher.WithLogger(logger.Named("watcher")),
		watcher.WithDebounce(time.Duration(cfg.Watch.DebounceMS)*time.Millisecond))
	if err := w.Start(ctx); err != nil {
		return nil, err
	}
	return w, nil
}

func runServer() {
	fs := flag.NewFlagSet("server", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging")
	_ = fs.Parse(os.Args[2:])

	cfg, logger, components := setup(*configPath, *debug, true, nil)
	defer logger.Sync()
	defer components.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if _, err := components.Indexer.Reindex(ctx, cfg.Notes.Root); err != nil {
		logger.Error("initial reindex failed; serving without an index", zap.Error(err))
	}
	if cfg.Watch.Enabled {
		w, err := startWatcher(ctx, cfg, components.Indexer, logger)
		if err != nil {
			logger.Fatal("Failed to start watcher", zap.Error(err))
		}
		defer w.Stop()
	}

	srv := server.NewServer(server.Deps{
		Indexer:   components.Indexer,
		Embedder:  components.Embedder,
		Index:     components.Index,
		Retriever: components.Retriever,
		Pipeline:  components.Pipeline,
		Store:     components.Store,
		Assembler: components.Assembler,
	}, cfg, logger.Named("server"))
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Stop(shutdownCtx)
}

func runIndex() {
	fs := flag.NewFlagSet("index", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	output := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(os.Args[2:])
	format, err := cli.ParseFormat(*output)
	if err != nil {
		fatalf("%v", err)
	}

	cfg, logger, components := setup(*configPath, false, false, nil)
	defer logger.Sync()
	defer components.Close()

	root := cfg.Notes.Root
	if fs.NArg() > 0 {
		root = fs.Arg(0)
	}
	report, err := components.Indexer.Reindex(context.Background(), root)
	if err != nil {
		fatalf("Indexing failed: %v", err)
	}
	if err := cli.WriteReport(os.Stdout, report, format); err != nil {
		fatalf("Output failed: %v", err)
	}
}

// printSearchUsage prints search subcommand usage.
func printSearchUsage(fs *flag.FlagSet) {
	fmt.Fprintf(fs.Output(), "Usage: kioku search [flags] <query>\n\n")
	fmt.Fprintf(fs.Output(), "Query is all remaining arguments joined by spaces. Multi-word queries work with or without quotes.\n\n")
	fs.PrintDefaults()
}

// buildSearchQuery joins all positional args with spaces so multi-word queries
// work the same with or without shell quoting.
func buildSearchQuery(args []string) string {
	return strings.TrimSpace(strings.Join(args, " "))
}

// searchArgsReorder moves any flags (and their values) that appear after the query
// to the front of the slice so that flag.Parse() sees them. Go's flag package
// stops at the first non-flag argument.
func searchArgsReorder(args []string) []string {
	for i, a := range args {
		if len(a) > 0 && a[0] == '-' {
			if i == 0 {
				return args
			}
			reordered := make([]string, 0, len(args))
			reordered = append(reordered, args[i:]...)
			reordered = append(reordered, args[:i]...)
			return reordered
		}
	}
	return args
}

func runSearch() {
	fs := flag.NewFlagSet("search", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	serverURL := fs.String("server", "", "server URL (empty = reindex and search locally)")
	limit := fs.Int("limit", 0, "number of results (default from config top_k)")
	threshold := fs.Float64("threshold", -1, "minimum similarity (default from config; local mode only)")
	output := fs.String("output", "text", "output format: text or json")
	fs.Usage = func() { printSearchUsage(fs) }
	_ = fs.Parse(searchArgsReorder(os.Args[2:]))

	query := &models.SearchQuery{Query: buildSearchQuery(fs.Args()), Limit: *limit}
	if query.Query == "" {
		printSearchUsage(fs)
		os.Exit(1)
	}
	format, err := cli.ParseFormat(*output)
	if err != nil {
		fatalf("%v", err)
	}

	if *serverURL != "" {
		response, err := cli.NewClient(*serverURL).Search(context.Background(), query)
		if err != nil {
			fatalf("Search failed: %v", err)
		}
		if err := cli.WriteSearchResults(os.Stdout, response, format); err != nil {
			fatalf("Output failed: %v", err)
		}
		return
	}

	cfg, logger, components := setup(*configPath, false, false, func(cfg *config.Config) {
		if *threshold >= 0 {
			cfg.Retrieval.SimilarityThreshold = threshold
		}
	})
	defer logger.Sync()
	defer components.Close()
	if err := query.Validate(cfg.Retrieval.TopK, cfg.Retrieval.MaxTopK); err != nil {
		fatalf("%v", err)
	}

	ctx := context.Background()
	if _, err := components.Indexer.Reindex(ctx, cfg.Notes.Root); err != nil {
		fatalf("Indexing failed: %v", err)
	}
	start := time.Now()
	results, err := components.Retriever.Search(ctx, query.Query, query.Limit)
	if err != nil {
		fatalf("Search failed: %v", err)
	}
	response := &models.SearchResponse{
		Query:     query.Query,
		Results:   results,
		Context:   components.Assembler.Assemble(results),
		Total:     len(results),
		QueryTime: time.Since(start).Milliseconds(),
	}
	if err := cli.WriteSearchResults(os.Stdout, response, format); err != nil {
		fatalf("Output failed: %v", err)
	}
}

func runPrompt() {
	fs := flag.NewFlagSet("prompt", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	sessionID := fs.String("session", "", "conversation session whose history is included")
	record := fs.Bool("record", false, "append the input to the session as a user message")
	output := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(searchArgsReorder(os.Args[2:]))

	input := buildSearchQuery(fs.Args())
	if input == "" {
		fmt.Println("Usage: kioku prompt [flags] <input>")
		os.Exit(1)
	}
	format, err := cli.ParseFormat(*output)
	if err != nil {
		fatalf("%v", err)
	}

	cfg, logger, components := setup(*configPath, false, true, nil)
	defer logger.Sync()
	defer components.Close()

	ctx := context.Background()
	if _, err := components.Indexer.Reindex(ctx, cfg.Notes.Root); err != nil {
		logger.Warn("reindex failed; building prompt without fresh context", zap.Error(err))
	}
	turn, err := components.Pipeline.BuildPrompt(ctx, *sessionID, input)
	if err != nil {
		fatalf("Prompt failed: %v", err)
	}
	if *record && *sessionID != "" {
		msg := &models.Message{SessionID: *sessionID, Role: models.RoleUser, Content: input}
		if err := components.Store.AppendMessage(ctx, msg); err != nil {
			logger.Warn("failed to record input", zap.Error(err))
		}
	}
	if err := cli.WriteTurn(os.Stdout, turn, format); err != nil {
		fatalf("Output failed: %v", err)
	}
}

func runWatch() {
	fs := flag.NewFlagSet("watch", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging")
	_ = fs.Parse(os.Args[2:])

	cfg, logger, components := setup(*configPath, *debug, false, nil)
	defer logger.Sync()
	defer components.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if report, err := components.Indexer.Reindex(ctx, cfg.Notes.Root); err != nil {
		logger.Error("initial reindex failed", zap.Error(err))
	} else {
		_ = cli.WriteReport(os.Stdout, report, cli.OutputText)
	}
	w, err := startWatcher(ctx, cfg, components.Indexer, logger)
	if err != nil {
		logger.Fatal("Failed to start watcher", zap.Error(err))
	}
	defer w.Stop()
	<-ctx.Done()
}

func runStatus() {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	serverURL := fs.String("server", "http://localhost:8088", "server URL")
	output := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(os.Args[2:])
	format, err := cli.ParseFormat(*output)
	if err != nil {
		fatalf("%v", err)
	}

	status, err := cli.NewClient(*serverURL).Status(context.Background())
	if err != nil {
		fatalf("Status failed: %v", err)
	}
	if err := cli.WriteStatus(os.Stdout, status, format); err != nil {
		fatalf("Output failed: %v", err)
	}
}

func printUsage() {
	fmt.Println(`kioku - Retrieval-augmented prompts over your personal notes

Usage:
  kioku server [flags]            Index notes and start the HTTP server
  kioku index [flags] [root]      Rebuild the index once and print the report
  kioku search [flags] <query>    Search notes
  kioku prompt [flags] <input>    Build a budgeted prompt for an input
  kioku watch [flags]             Reindex whenever notes change
  kioku status [flags]            Show server index status
  kioku version                   Show version
  kioku help                      Show this help

Common Flags:
  --config string    Config file path (default: /usr/local/etc/kioku/config.yaml, or ./config.yaml)
  --debug            Enable debug logging (server, watch)
  --output string    Output format: text or json (index, search, prompt, status)

Search Flags:
  --server string     Server URL; empty reindexes and searches locally
  --limit int         Number of results (default from config top_k)
  --threshold float   Minimum similarity (local mode)

Prompt Flags:
  --session string   Session whose history is included
  --record           Append the input to the session

Examples:
  kioku server
  kioku index ~/notes
  kioku search what are my goals this quarter
  kioku search --output json --limit 5 "release plan"
  kioku prompt --session 1b9d6bcd-bbfd-4b2d-9b5d-ab8dfbbd4bed "what should I do next?"
  kioku status --output json`)
}
