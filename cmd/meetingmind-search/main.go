// Package main is the meetingmind-search CLI entry point.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/gugamistri/meetingmind-search/internal/backend"
	"github.com/gugamistri/meetingmind-search/internal/cli"
	"github.com/gugamistri/meetingmind-search/internal/config"
	"github.com/gugamistri/meetingmind-search/internal/gateway"
	"github.com/gugamistri/meetingmind-search/internal/models"
	"github.com/gugamistri/meetingmind-search/internal/server"
	"github.com/gugamistri/meetingmind-search/internal/store"
	"github.com/gugamistri/meetingmind-search/pkg/utils"
)

var version = "dev"

const defaultConfigPath = "/usr/local/etc/meetingmind/config.yaml"

// loadConfig loads config from path. When path is the default, it first looks for
// config.yaml in the current directory (for development); if that exists it is used.
// Returns the config and the path that was actually loaded.
func loadConfig(path string) (*config.Config, string, error) {
	if path == defaultConfigPath {
		if cwd, cwdErr := os.Getwd(); cwdErr == nil {
			fallback := filepath.Join(cwd, "config.yaml")
			if _, statErr := os.Stat(fallback); statErr == nil {
				cfg, loadErr := config.Load(fallback)
				if loadErr != nil {
					return nil, "", loadErr
				}
				return cfg, fallback, nil
			}
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
	case "search":
		runSearch()
	case "saved":
		runSaved()
	case "history":
		runHistory()
	case "export":
		runExport()
	case "load":
		runLoad()
	case "version", "--version", "-v":
		fmt.Printf("meetingmind-search version %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

// components holds the initialized store and its backing service.
type components struct {
	Backend *backend.Service
	Store   *store.Store
}

func (c *components) Close() {
	if c.Store != nil {
		c.Store.Close()
	}
	if c.Backend != nil {
		_ = c.Backend.Close()
	}
}

// initializeComponents builds the coordination store over either the remote
// backend named in the config or the embedded SQLite service.
func initializeComponents(cfg *config.Config, logger *zap.Logger) (*components, error) {
	storeCfg := store.Config{
		ItemsPerPage:       cfg.Search.ItemsPerPage,
		SuggestionLimit:    cfg.Search.SuggestionLimit,
		SuggestionDebounce: cfg.Search.SuggestionDebounce(),
		IncludeHighlights:  cfg.Search.IncludeHighlightsOrDefault(),
	}
	if cfg.Backend.BaseURL != "" {
		gw := gateway.NewHTTPGateway(cfg.Backend.BaseURL, cfg.Backend.Timeout(), logger)
		return &components{Store: store.New(gw, storeCfg, logger)}, nil
	}
	svc, err := backend.New(cfg.Storage.DatabasePath, cfg.Storage.ExportDir, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize backend: %w", err)
	}
	return &components{Backend: svc, Store: store.New(svc, storeCfg, logger)}, nil
}

func runServer() {
	fs := flag.NewFlagSet("server", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging")
	_ = fs.Parse(os.Args[2:])

	cfg, resolvedConfigPath, err := loadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	debugMode := cfg.Debug || *debug
	logger, err := utils.NewLogger(debugMode)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("config loaded",
		zap.String("config_path", resolvedConfigPath),
		zap.Bool("debug", debugMode),
	)

	comps, err := initializeComponents(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize components", zap.Error(err))
	}
	defer comps.Close()

	watchCtx, watchCancel := context.WithCancel(context.Background())
	defer watchCancel()
	cfgWatch := config.NewWatcher(resolvedConfigPath, func(next *config.Config) {
		logger.Info("config changed on disk; restart to apply",
			zap.Int("server_port", next.Server.Port),
			zap.String("backend_base_url", next.Backend.BaseURL),
		)
	}, logger)
	if err := cfgWatch.Start(watchCtx); err != nil {
		logger.Warn("config watch unavailable", zap.Error(err))
	}
	defer cfgWatch.Stop()

	srv := server.NewServer(comps.Store, &cfg.Server, logger)
	go func() {
		if err := srv.Start(); err != nil {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Stop(ctx)
}

// buildSearchQuery joins all positional args with spaces so multi-word queries
// work the same with or without shell quoting.
func buildSearchQuery(args []string) string {
	return strings.TrimSpace(strings.Join(args, " "))
}

// searchArgsReorder moves any flags (and their values) that appear after the
// query to the front of the slice so that flag.Parse() sees them. Go's flag
// package stops at the first non-flag argument.
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

func printSearchUsage(fs *flag.FlagSet) {
	fmt.Fprintf(fs.Output(), "Usage: meetingmind-search search [flags] <query>\n\n")
	fmt.Fprintf(fs.Output(), "Query is all remaining arguments joined by spaces. Multi-word queries work with or without quotes.\n\n")
	fs.PrintDefaults()
	fmt.Fprintf(fs.Output(), `
Examples:
  meetingmind-search search quarterly budget
  meetingmind-search search "quarterly budget"        # same as above
  meetingmind-search search --participant Ana standup
  meetingmind-search search --tag finance --output json budget
`)
}

func runSearch() {
	searchArgs := searchArgsReorder(os.Args[2:])

	fs := flag.NewFlagSet("search", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	serverURL := fs.String("server", "", "running server URL (empty = direct backend access)")
	page := fs.Int("page", 1, "result page")
	limit := fs.Int("limit", 0, "results per page (0 = config default)")
	participant := fs.String("participant", "", "filter by participant name")
	tag := fs.String("tag", "", "filter by tag")
	meetingType := fs.String("type", "", "filter by meeting type")
	outputFormat := fs.String("output", "text", "output format: text, compact, or json")
	fs.Usage = func() { printSearchUsage(fs) }
	_ = fs.Parse(searchArgs)

	if fs.NArg() < 1 {
		printSearchUsage(fs)
		os.Exit(1)
	}
	queryStr := buildSearchQuery(fs.Args())
	if queryStr == "" {
		printSearchUsage(fs)
		os.Exit(1)
	}

	format, err := cli.ParseOutputFormat(*outputFormat)
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}

	filters := models.NewSearchFilters()
	if *participant != "" {
		filters.Participants = []string{*participant}
	}
	if *tag != "" {
		filters.Tags = []string{*tag}
	}
	if *meetingType != "" {
		filters.MeetingTypes = []string{*meetingType}
	}

	if *serverURL != "" {
		snap, err := searchViaHTTP(*serverURL, queryStr, filters, *page, *limit)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Search failed: %v\n", err)
			os.Exit(1)
		}
		if snap.Error != "" {
			fmt.Fprintf(os.Stderr, "Search failed: %s\n", snap.Error)
			os.Exit(1)
		}
		if err := cli.WriteSearchResults(os.Stdout, snap.Query, snap.Results, snap.TotalMatches, format); err != nil {
			fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
			os.Exit(1)
		}
		return
	}

	comps, logger := mustInitialize(*configPath)
	defer logger.Sync()
	defer comps.Close()

	comps.Store.SetQuery(queryStr)
	comps.Store.SetFilters(filters)
	if err := comps.Store.PerformSearch(context.Background(), store.SearchOptions{Page: *page, Limit: *limit}); err != nil {
		fmt.Fprintf(os.Stderr, "Search failed: %v\n", err)
		os.Exit(1)
	}
	snap := comps.Store.Snapshot()
	if snap.Error != "" {
		fmt.Fprintf(os.Stderr, "Search failed: %s\n", snap.Error)
		os.Exit(1)
	}
	if err := cli.WriteSearchResults(os.Stdout, snap.Query, snap.Results, snap.TotalMatches, format); err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		os.Exit(1)
	}
}

// mustInitialize loads config, builds a logger, and initializes components,
// exiting on any failure. Shared by the one-shot subcommands.
func mustInitialize(configPath string) (*components, *zap.Logger) {
	cfg, _, err := loadConfig(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger, err := utils.NewLogger(cfg.Debug)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	comps, err := initializeComponents(cfg, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize: %v\n", err)
		os.Exit(1)
	}
	return comps, logger
}

func searchViaHTTP(serverURL, query string, filters models.SearchFilters, page, limit int) (*store.Snapshot, error) {
	body, err := json.Marshal(map[string]interface{}{
		"query":   query,
		"filters": filters,
		"page":    page,
		"limit":   limit,
	})
	if err != nil {
		return nil, err
	}
	resp, err := http.Post(serverURL+"/api/v1/search", "application/json", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusUnprocessableEntity {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("server returned %d: %s", resp.StatusCode, string(b))
	}
	var snap store.Snapshot
	if err := json.NewDecoder(resp.Body).Decode(&snap); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &snap, nil
}

func runSaved() {
	if len(os.Args) < 3 {
		fmt.Println("Usage: meetingmind-search saved <list|save|use|delete> [args]")
		fmt.Println("  meetingmind-search saved list                      List saved searches")
		fmt.Println("  meetingmind-search saved save <name> <query>       Save a query under a name")
		fmt.Println("  meetingmind-search saved use <id>                  Run a saved search")
		fmt.Println("  meetingmind-search saved delete <id>               Delete a saved search")
		os.Exit(1)
	}
	sub := os.Args[2]
	fs := flag.NewFlagSet("saved", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(os.Args[3:])

	format, err := cli.ParseOutputFormat(*outputFormat)
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}

	comps, logger := mustInitialize(*configPath)
	defer logger.Sync()
	defer comps.Close()
	ctx := context.Background()

	switch sub {
	case "list":
		if err := comps.Store.LoadSavedSearches(ctx); err != nil {
			fmt.Fprintf(os.Stderr, "List failed: %v\n", err)
			os.Exit(1)
		}
		if err := cli.WriteSavedSearches(os.Stdout, comps.Store.Snapshot().SavedSearches, format); err != nil {
			fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
			os.Exit(1)
		}
	case "save":
		if fs.NArg() < 2 {
			fmt.Println("Usage: meetingmind-search saved save <name> <query>")
			os.Exit(1)
		}
		comps.Store.SetQuery(buildSearchQuery(fs.Args()[1:]))
		entry, err := comps.Store.SaveCurrentSearch(ctx, fs.Arg(0), "")
		if err != nil {
			fmt.Fprintf(os.Stderr, "Save failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Saved: %s (%s)\n", entry.Name, entry.ID)
	case "use":
		if fs.NArg() < 1 {
			fmt.Println("Usage: meetingmind-search saved use <id>")
			os.Exit(1)
		}
		if err := comps.Store.LoadSavedSearches(ctx); err != nil {
			fmt.Fprintf(os.Stderr, "Load failed: %v\n", err)
			os.Exit(1)
		}
		id := fs.Arg(0)
		var entry *models.SavedSearchEntry
		for _, e := range comps.Store.Snapshot().SavedSearches {
			if e.ID == id {
				entry = &e
				break
			}
		}
		if entry == nil {
			fmt.Fprintf(os.Stderr, "Saved search not found: %s\n", id)
			os.Exit(1)
		}
		if err := comps.Store.UseSavedSearch(ctx, *entry); err != nil {
			fmt.Fprintf(os.Stderr, "Search failed: %v\n", err)
			os.Exit(1)
		}
		snap := comps.Store.Snapshot()
		if err := cli.WriteSearchResults(os.Stdout, snap.Query, snap.Results, snap.TotalMatches, format); err != nil {
			fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
			os.Exit(1)
		}
	case "delete":
		if fs.NArg() < 1 {
			fmt.Println("Usage: meetingmind-search saved delete <id>")
			os.Exit(1)
		}
		if err := comps.Store.DeleteSavedSearch(ctx, fs.Arg(0)); err != nil {
			fmt.Fprintf(os.Stderr, "Delete failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Deleted: %s\n", fs.Arg(0))
	default:
		fmt.Printf("Unknown saved subcommand: %s\n", sub)
		os.Exit(1)
	}
}

func runHistory() {
	fs := flag.NewFlagSet("history", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	limit := fs.Int("limit", 0, "max entries (0 = config default)")
	clear := fs.Bool("clear", false, "clear the history instead of listing it")
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(os.Args[2:])

	format, err := cli.ParseOutputFormat(*outputFormat)
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}

	comps, logger := mustInitialize(*configPath)
	defer logger.Sync()
	defer comps.Close()
	ctx := context.Background()

	if *clear {
		if err := comps.Store.ClearSearchHistory(ctx); err != nil {
			fmt.Fprintf(os.Stderr, "Clear failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("History cleared")
		return
	}
	if err := comps.Store.LoadSearchHistory(ctx, *limit); err != nil {
		fmt.Fprintf(os.Stderr, "History failed: %v\n", err)
		os.Exit(1)
	}
	if err := cli.WriteHistory(os.Stdout, comps.Store.Snapshot().SearchHistory, format); err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		os.Exit(1)
	}
}

func runExport() {
	exportArgs := searchArgsReorder(os.Args[2:])

	fs := flag.NewFlagSet("export", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	formatFlag := fs.String("format", "json", "export format: json, csv, markdown, html, or xlsx")
	_ = fs.Parse(exportArgs)

	if fs.NArg() < 1 {
		fmt.Println("Usage: meetingmind-search export [flags] <query>")
		os.Exit(1)
	}
	queryStr := buildSearchQuery(fs.Args())

	comps, logger := mustInitialize(*configPath)
	defer logger.Sync()
	defer comps.Close()

	comps.Store.SetQuery(queryStr)
	path, err := comps.Store.ExportResults(context.Background(), models.ExportFormat(*formatFlag))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Export failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Exported to %s\n", path)
}

func runLoad() {
	fs := flag.NewFlagSet("load", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	_ = fs.Parse(os.Args[2:])

	if fs.NArg() < 1 {
		fmt.Println("Usage: meetingmind-search load [flags] <meetings.json>")
		os.Exit(1)
	}
	path := fs.Arg(0)

	data, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to read %s: %v\n", path, err)
		os.Exit(1)
	}
	var meetings []backend.Meeting
	if err := json.Unmarshal(data, &meetings); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to parse %s: %v\n", path, err)
		os.Exit(1)
	}

	cfg, _, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	if cfg.Backend.BaseURL != "" {
		fmt.Fprintln(os.Stderr, "load requires the embedded backend; unset backend.base_url")
		os.Exit(1)
	}
	logger, err := utils.NewLogger(cfg.Debug)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()
	svc, err := backend.New(cfg.Storage.DatabasePath, cfg.Storage.ExportDir, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize backend: %v\n", err)
		os.Exit(1)
	}
	defer svc.Close()

	ctx := context.Background()
	for i := range meetings {
		if _, err := svc.AddMeeting(ctx, &meetings[i]); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to load meeting %q: %v\n", meetings[i].Title, err)
			os.Exit(1)
		}
	}
	fmt.Printf("Loaded %d meeting(s) from %s\n", len(meetings), path)
}

func printUsage() {
	fmt.Println(`meetingmind-search - Meeting transcript search

Usage:
  meetingmind-search server [flags]             Start the HTTP server
  meetingmind-search search [flags] <query>     Search meetings
  meetingmind-search saved <list|save|use|delete>  Manage saved searches
  meetingmind-search history [flags]            Show or clear search history
  meetingmind-search export [flags] <query>     Export search results to a file
  meetingmind-search load [flags] <file>        Load meetings from a JSON file
  meetingmind-search version                    Show version
  meetingmind-search help                       Show this help

Server Flags:
  --config string    Config file path (default: /usr/local/etc/meetingmind/config.yaml)
  --debug            Enable debug logging

Search Flags:
  --config string       Config file path
  --server string       Running server URL (default: empty = direct backend access)
  --page int            Result page (default: 1)
  --limit int           Results per page (default from config)
  --participant string  Filter by participant name
  --tag string          Filter by tag
  --type string         Filter by meeting type
  --output string       Output format: text, compact, or json (default: text)

History Flags:
  --limit int        Max entries (default from config)
  --clear            Clear the history instead of listing it
  --output string    Output format: text or json

Export Flags:
  --format string    Export format: json, csv, markdown, html, or xlsx (default: json)

Examples:
  meetingmind-search server
  meetingmind-search search "quarterly budget"
  meetingmind-search search --participant Ana standup
  meetingmind-search search --output json budget   # structured JSON for other apps
  meetingmind-search saved save budgets "quarterly budget"
  meetingmind-search history --limit 20
  meetingmind-search export --format csv budget
  meetingmind-search load meetings.json`)
}
