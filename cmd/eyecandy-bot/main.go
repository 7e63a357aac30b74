// ABOUTME: Entry point for the eyecandy chat bot
// ABOUTME: Runs the query dialogue over Telegram and/or Matrix

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/fatih/color"

	"github.com/aljazleben/eyecandyredditbot/internal/dialog"
	"github.com/aljazleben/eyecandyredditbot/internal/frontend/matrix"
	"github.com/aljazleben/eyecandyredditbot/internal/frontend/telegram"
	"github.com/aljazleben/eyecandyredditbot/internal/reddit"
	"github.com/aljazleben/eyecandyredditbot/internal/render"
	"github.com/aljazleben/eyecandyredditbot/internal/store"
)

const banner = `
    ╭───────────────────────────────────╮
    │                                   │
    │   ┏━╸╻ ╻┏━╸┏━╸┏━┓┏┓╻╺┳┓╻ ╻        │
    │   ┣╸ ┗┳┛┣╸ ┃  ┣━┫┃┗┫ ┃┃┗┳┛        │
    │   ┗━╸ ╹ ┗━╸┗━╸╹ ╹╹ ╹╺┻┛ ╹         │
    │                                   │
    │        reddit activity bot        │
    │                                   │
    ╰───────────────────────────────────╯
`

// getConfigPath returns the path to the bot config file.
// Priority: EYECANDY_BOT_CONFIG env var > XDG_CONFIG_HOME/eyecandy/bot.toml > ~/.config/eyecandy/bot.toml
func getConfigPath() string {
	if envPath := os.Getenv("EYECANDY_BOT_CONFIG"); envPath != "" {
		return envPath
	}

	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "bot.toml" // fallback
		}
		configDir = filepath.Join(homeDir, ".config")
	}

	return filepath.Join(configDir, "eyecandy", "bot.toml")
}

// getDataPath returns the path to the eyecandy data directory.
// Priority: XDG_DATA_HOME/eyecandy > ~/.local/share/eyecandy
func getDataPath() string {
	dataDir := os.Getenv("XDG_DATA_HOME")
	if dataDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "data" // fallback
		}
		dataDir = filepath.Join(homeDir, ".local", "share")
	}

	return filepath.Join(dataDir, "eyecandy")
}

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: eyecandy-bot <command>")
		fmt.Println()
		fmt.Println("Commands:")
		fmt.Println("  serve    Start the bot")
		fmt.Println("  init     Write a starter config file")
		os.Exit(1)
	}

	var err error
	switch os.Args[1] {
	case "serve":
		err = runServe()
	case "init":
		err = runInit()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", os.Args[1])
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runServe() error {
	// Print banner
	cyan := color.New(color.FgCyan)
	cyan.Print(banner)

	configPath := getConfigPath()

	// Load config
	cfg, err := Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config from %s: %w", configPath, err)
	}

	// Setup logger
	logger := setupLogger(cfg.Logging.Level)

	// Print startup info
	green := color.New(color.FgGreen)
	green.Print("    ▶ ")
	fmt.Printf("Config:   %s\n", configPath)
	green.Print("    ▶ ")
	fmt.Printf("Database: %s\n", cfg.Database.Path)
	if cfg.Telegram.Enabled {
		green.Print("    ▶ ")
		fmt.Println("Telegram: enabled")
	}
	if cfg.Matrix.Enabled {
		green.Print("    ▶ ")
		fmt.Printf("Matrix:   %s\n", cfg.Matrix.Homeserver)
	}
	fmt.Println()

	s, err := store.NewSQLiteStore(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer s.Close()

	client, err := reddit.NewClient(reddit.ClientConfig{
		ClientID:     cfg.Reddit.ClientID,
		ClientSecret: cfg.Reddit.ClientSecret,
		UserAgent:    cfg.Reddit.UserAgent,
	}, nil)
	if err != nil {
		return fmt.Errorf("creating reddit client: %w", err)
	}
	service := reddit.NewService(client)

	// Setup graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	errCh := make(chan error, 2)
	frontends := 0

	if cfg.Telegram.Enabled {
		engine := dialog.NewEngine(dialog.NewMemoryStore(0), service, dialog.Options{
			Dialect:             render.MarkdownV2{},
			MaxMessageLen:       telegram.MaxMessageLen,
			MaxBlocksPerMessage: telegram.MaxBlocksPerMessage,
			History:             s,
			Logger:              logger,
		})
		api := telegram.NewAPI(nil, "", cfg.Telegram.Token)
		router := telegram.NewRouter(engine, api, logger)
		runtime := telegram.NewRuntime(api, router, logger)

		frontends++
		go func() {
			errCh <- runtime.Run(ctx)
		}()
	}

	if cfg.Matrix.Enabled {
		engine := dialog.NewEngine(dialog.NewMemoryStore(0), service, dialog.Options{
			Dialect: render.HTML{},
			History: s,
			Logger:  logger,
		})
		bridge, err := matrix.NewBridge(matrix.Config{
			Homeserver:      cfg.Matrix.Homeserver,
			UserID:          cfg.Matrix.UserID,
			AccessToken:     cfg.Matrix.AccessToken,
			AllowedRooms:    cfg.Matrix.AllowedRooms,
			TypingIndicator: cfg.Matrix.TypingIndicator,
		}, engine, logger)
		if err != nil {
			return fmt.Errorf("creating matrix bridge: %w", err)
		}

		frontends++
		go func() {
			errCh <- bridge.Run(ctx)
		}()
	}

	logger.Info("bot running", "frontends", frontends)

	// Wait for all frontends to stop; the first real error wins.
	var firstErr error
	for i := 0; i < frontends; i++ {
		err := <-errCh
		if err != nil && !errors.Is(err, context.Canceled) && firstErr == nil {
			firstErr = err
			cancel()
		}
	}
	return firstErr
}

func setupLogger(level string) *slog.Logger {
	var logLevel slog.Level
	switch level {
	case "debug":
		logLevel = slog.LevelDebug
	case "info":
		logLevel = slog.LevelInfo
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{
		Level: logLevel,
	}

	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}

func runInit() error {
	configPath := getConfigPath()
	dbPath := filepath.Join(getDataPath(), "searches.db")

	if _, err := os.Stat(configPath); err == nil {
		return fmt.Errorf("config already exists at %s", configPath)
	}

	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	content := fmt.Sprintf(`# eyecandy-bot configuration
# Generated by eyecandy-bot init

[reddit]
client_id = "${REDDIT_CLIENT_ID}"
client_secret = "${REDDIT_CLIENT_SECRET}"
user_agent = "bot:eyecandy:v1.0 (by /u/yourname)"

[telegram]
enabled = true
token = "${TELEGRAM_BOT_TOKEN}"

[matrix]
enabled = false
homeserver = "https://matrix.example.org"
user_id = "@eyecandy:example.org"
access_token = "${MATRIX_ACCESS_TOKEN}"
allowed_rooms = []
typing_indicator = true

[database]
path = "%s"

[logging]
level = "info"
`, dbPath)

	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	fmt.Printf("Config written to %s\n", configPath)
	fmt.Println("\nTo start the bot:")
	fmt.Println("  eyecandy-bot serve")
	return nil
}
