// Package main is the refproxy CLI entry point.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/hyperjump/refproxy/internal/cache"
	"github.com/hyperjump/refproxy/internal/config"
	"github.com/hyperjump/refproxy/internal/models"
	"github.com/hyperjump/refproxy/internal/normalize"
	"github.com/hyperjump/refproxy/internal/pdftext"
	"github.com/hyperjump/refproxy/internal/search"
	"github.com/hyperjump/refproxy/internal/server"
	"github.com/hyperjump/refproxy/internal/zotero"
	"github.com/hyperjump/refproxy/pkg/utils"
	"go.uber.org/zap"
)

var version = "dev"

const defaultConfigPath = "/usr/local/etc/refproxy/config.yaml"

// loadConfig loads config from path. When path is the default, it first looks
// for config.yaml in the current directory (for development); if that exists
// it is used. When neither exists, built-in defaults apply. Returns the config
// and the path that was actually loaded ("" for defaults).
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
		if _, statErr := os.Stat(path); statErr != nil {
			return config.Default(), "", nil
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
	case "resolve":
		runResolve()
	case "clean":
		runClean()
	case "version", "--version", "-v":
		fmt.Printf("refproxy version %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func runServer() {
	fs := flag.NewFlagSet("server", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging (upstream requests, cache hits, etc.)")
	port := fs.Int("port", 0, "listen port (overrides config)")
	_ = fs.Parse(os.Args[2:])

	_ = godotenv.Load()
	creds, err := config.CredentialsFromEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Missing upstream credentials: %v\n", err)
		os.Exit(1)
	}

	cfg, resolvedConfigPath, err := loadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	if *port != 0 {
		cfg.Server.Port = *port
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

	srv := initializeServer(cfg, creds, logger)
	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
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

// initializeServer wires the upstream client, caches, engine, and PDF text
// service into a server.
func initializeServer(cfg *config.Config, creds config.Credentials, logger *zap.Logger) *server.Server {
	client := zotero.NewClient(
		creds.UserID,
		creds.APIKey,
		time.Duration(cfg.Upstream.TimeoutSeconds)*time.Second,
		logger,
	)
	if cfg.Upstream.BaseURL != "" {
		client.BaseURL = cfg.Upstream.BaseURL
	}
	ttl := time.Duration(cfg.Cache.TTLSeconds) * time.Second
	results := cache.New(cfg.Cache.MaxEntries, ttl)
	texts := cache.New(cfg.Cache.MaxEntries, ttl)
	engine := search.NewEngine(client, results, &cfg.Scan, logger)
	pdf := pdftext.NewService(client, texts, cfg.PDF.MaxChars, logger)
	return server.NewServer(client, engine, pdf, cfg, logger, version)
}

// buildSearchQuery joins all positional args with spaces so multi-word
// queries work the same with or without shell quoting.
func buildSearchQuery(args []string) string {
	return strings.TrimSpace(strings.Join(args, " "))
}

func runSearch() {
	fs := flag.NewFlagSet("search", flag.ExitOnError)
	serverURL := fs.String("server", "http://localhost:8080", "server URL")
	title := fs.String("title", "", "title filter")
	creator := fs.String("creator", "", "creator filter")
	tag := fs.String("tag", "", "tag filter")
	year := fs.String("year", "", "publication year filter")
	hasPDF := fs.Bool("has-pdf", false, "only items with a PDF attachment")
	limit := fs.Int("limit", 10, "number of results")
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(os.Args[2:])

	queryStr := buildSearchQuery(fs.Args())
	if queryStr == "" && *title == "" && *creator == "" && *tag == "" && *year == "" {
		fmt.Println("Usage: refproxy search [flags] <query>")
		fs.PrintDefaults()
		os.Exit(1)
	}

	params := url.Values{}
	if queryStr != "" {
		params.Set("q", queryStr)
	}
	if *title != "" {
		params.Set("title", *title)
	}
	if *creator != "" {
		params.Set("creator", *creator)
	}
	if *tag != "" {
		params.Set("tag", *tag)
	}
	if *year != "" {
		params.Set("year", *year)
	}
	if *hasPDF {
		params.Set("has_pdf", "1")
	}
	params.Set("limit", strconv.Itoa(*limit))

	response, err := searchViaHTTP(*serverURL, params)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Search failed: %v\n", err)
		os.Exit(1)
	}

	switch *outputFormat {
	case "json":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(response); err != nil {
			fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
			os.Exit(1)
		}
	case "text":
		printRecords(response.Results, response.ScannedTopLevelItems)
	default:
		fmt.Fprintf(os.Stderr, "Unknown output format %q; use text or json\n", *outputFormat)
		os.Exit(1)
	}
}

func runResolve() {
	fs := flag.NewFlagSet("resolve", flag.ExitOnError)
	serverURL := fs.String("server", "http://localhost:8080", "server URL")
	title := fs.String("title", "", "title to resolve")
	creator := fs.String("creator", "", "creator last name")
	year := fs.String("year", "", "publication year (4 digits)")
	requirePDF := fs.Bool("require-pdf", false, "only matches with a PDF attachment")
	limit := fs.Int("limit", 10, "number of results")
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(os.Args[2:])

	if *title == "" && *creator == "" && *year == "" {
		fmt.Println("Usage: refproxy resolve -title <title> [-creator <name>] [-year <yyyy>]")
		fs.PrintDefaults()
		os.Exit(1)
	}

	params := url.Values{}
	if *title != "" {
		params.Set("title", *title)
	}
	if *creator != "" {
		params.Set("creator", *creator)
	}
	if *year != "" {
		params.Set("year", *year)
	}
	if *requirePDF {
		params.Set("require_pdf", "1")
	}
	params.Set("limit", strconv.Itoa(*limit))

	resp, err := http.Get(*serverURL + "/resolve-biblio?" + params.Encode())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Resolve failed: %v\n", err)
		os.Exit(1)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		fmt.Fprintf(os.Stderr, "Server returned %d: %s\n", resp.StatusCode, string(b))
		os.Exit(1)
	}
	var response models.ResolveResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		fmt.Fprintf(os.Stderr, "Decode response failed: %v\n", err)
		os.Exit(1)
	}

	switch *outputFormat {
	case "json":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(response); err != nil {
			fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
			os.Exit(1)
		}
	case "text":
		printRecords(response.Results, response.ServerFetched)
		if response.PDFChecked > 0 {
			fmt.Printf("pdf_checked: %d\n", response.PDFChecked)
		}
	default:
		fmt.Fprintf(os.Stderr, "Unknown output format %q; use text or json\n", *outputFormat)
		os.Exit(1)
	}
}

// runClean pipes argv text through the mojibake repairer, a development aid
// for checking library metadata by hand.
func runClean() {
	text := buildSearchQuery(os.Args[2:])
	if text == "" {
		fmt.Println("Usage: refproxy clean <text>")
		os.Exit(1)
	}
	fmt.Println(normalize.Repair(text))
}

func searchViaHTTP(serverURL string, params url.Values) (*models.SearchResponse, error) {
	resp, err := http.Get(serverURL + "/search?" + params.Encode())
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("server returned %d: %s", resp.StatusCode, string(b))
	}
	var response models.SearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &response, nil
}

func printRecords(records []models.CompactRecord, scanned int) {
	if len(records) == 0 {
		fmt.Printf("No results (scanned %d items)\n", scanned)
		return
	}
	for i, rec := range records {
		title := utils.Truncate(rec.Title, 80)
		fmt.Printf("%2d. [%s] %s\n", i+1, rec.Key, title)
		line := rec.Creators
		if rec.Year != "" {
			line += " (" + rec.Year + ")"
		}
		if line != "" {
			fmt.Printf("    %s\n", line)
		}
		extras := []string{fmt.Sprintf("score=%d reason=%s", rec.Score, rec.Reason)}
		if rec.HasPDF {
			extras = append(extras, "pdf")
		}
		fmt.Printf("    %s\n", strings.Join(extras, " "))
	}
	fmt.Printf("scanned %d items\n", scanned)
}

func printUsage() {
	fmt.Println(`refproxy - HTTP proxy for a Zotero reference library

Usage:
  refproxy server [flags]            Start the HTTP server
  refproxy search [flags] <query>    Search the library via a running server
  refproxy resolve [flags]           Resolve a bibliographic reference
  refproxy clean <text>              Repair mojibake in text
  refproxy version                   Show version
  refproxy help                      Show this help

Server Flags:
  --config string    Config file path (default: /usr/local/etc/refproxy/config.yaml)
  --debug            Enable debug logging (upstream requests, cache hits, etc.)
  --port int         Listen port (overrides config)

Search Flags:
  --server string    Server URL (default: http://localhost:8080)
  --title string     Title filter
  --creator string   Creator filter
  --tag string       Tag filter
  --year string      Publication year filter
  --has-pdf          Only items with a PDF attachment
  --limit int        Number of results (default: 10)
  --output string    Output format: text or json (default: text)

Resolve Flags:
  --server string    Server URL (default: http://localhost:8080)
  --title string     Title to resolve
  --creator string   Creator last name
  --year string      Publication year (4 digits)
  --require-pdf      Only matches with a PDF attachment
  --limit int        Number of results (default: 10)
  --output string    Output format: text or json (default: text)

Environment:
  ZOTERO_USER_ID     Upstream library identifier (required for server)
  ZOTERO_API_KEY     Upstream API key (required for server)
  Both may be placed in a .env file in the working directory.

Examples:
  refproxy server
  refproxy search distributed consensus
  refproxy search --creator lamport --year 1998
  refproxy resolve --title "Paxos Made Simple" --creator Lamport
  refproxy clean "GarcÃ­a"`)
}
