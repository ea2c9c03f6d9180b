package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/rmail/rmail/internal/api"
	"github.com/rmail/rmail/internal/app"
	"github.com/rmail/rmail/internal/config"
	"github.com/rmail/rmail/internal/db"
	"github.com/rmail/rmail/internal/logger"
	"github.com/rmail/rmail/internal/services"
	"github.com/rmail/rmail/internal/version"
	"github.com/rmail/rmail/pkg/auth"
)

func main() {
	configPathFlag := flag.String("config", "", "Path to JSON configuration file (default: ~/.config/rmail/config.json)")
	entryURLFlag := flag.String("entry-url", "", "Entry URL carrying one-shot login parameters (code, login, error)")
	loginFlag := flag.Bool("login", false, "Print the backend login URL and wait for the pasted callback code")
	logoutFlag := flag.Bool("logout", false, "Log out and clear all local state")
	versionFlag := flag.Bool("version", false, "Show version information and exit")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "%s\n\n", version.GetVersionString())
		fmt.Fprintf(os.Stderr, "Usage:\n")
		fmt.Fprintf(os.Stderr, "  %s [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Examples:\n")
		fmt.Fprintf(os.Stderr, "  %s                        # Run with default configuration\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s --login                # Start the sign-in flow\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s --version              # Show version information\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s --config custom.json   # Use custom configuration\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nEnvironment Variables:\n")
		fmt.Fprintf(os.Stderr, "  RMAIL_CONFIG  Override default config file path\n")
	}

	flag.Parse()

	if *versionFlag {
		fmt.Println(version.GetDetailedVersionString())
		return
	}

	cfg, err := config.LoadConfig(getConfigPath(*configPathFlag))
	if err != nil {
		log.Printf("Warning: could not load configuration: %v", err)
		cfg = config.DefaultConfig()
	}

	zlog, err := logger.New(cfg.LogFile)
	if err != nil {
		log.Printf("Warning: could not open log file: %v", err)
		zlog = logger.NewNop()
	}
	defer func() { _ = zlog.Sync() }()

	creds, err := auth.OpenKeyringStore(cfg.CredentialDir)
	if err != nil {
		log.Fatalf("Could not open credential store: %v", err)
	}

	client := api.NewClient(cfg.APIBaseURL, creds, cfg.GetRequestTimeout(), zlog)
	notifier := services.NewLogNotifier(zlog)
	session := services.NewSessionService(client, creds, notifier, zlog)

	ctx := context.Background()

	// Local cache is best-effort; the engine runs memory-only without it.
	var cache *db.Store
	if cfg.CachePath != "" {
		if st, err := db.Open(ctx, cfg.CachePath); err == nil {
			cache = st
			defer func() { _ = st.Close() }()
		} else {
			log.Printf("Warning: could not open cache store: %v", err)
		}
	}

	engine := app.New(cfg, client, session, cache, notifier, zlog)

	if *loginFlag {
		if err := runLoginFlow(ctx, engine); err != nil {
			fmt.Fprintf(os.Stderr, "Login failed: %v\n", err)
			os.Exit(1)
		}
	}

	if _, err := engine.Initialize(ctx, *entryURLFlag); err != nil {
		fmt.Fprintf(os.Stderr, "Error starting client: %v\n", err)
		os.Exit(1)
	}

	if *logoutFlag {
		engine.Logout(ctx)
		fmt.Println("Logged out.")
		return
	}

	status := engine.Session.Current()
	if !status.Configured {
		fmt.Println("Not signed in. Run with --login to start the sign-in flow.")
		return
	}
	fmt.Printf("Signed in as %s. Listening for updates (Ctrl+C to quit).\n", status.Email)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	engine.StopChannel()
}

// runLoginFlow asks the backend for its login URL, prints it, and exchanges
// the pasted callback code for a session.
func runLoginFlow(ctx context.Context, engine *app.App) error {
	loginURL, err := engine.Session.Login(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("Open this URL in your browser:\n\n  %s\n\n", loginURL)
	fmt.Print("Paste the callback code here: ")

	reader := bufio.NewReader(os.Stdin)
	code, err := reader.ReadString('\n')
	if err != nil {
		return fmt.Errorf("read code: %w", err)
	}
	code = strings.TrimSpace(code)
	if code == "" {
		return fmt.Errorf("no code entered")
	}

	status, err := engine.Session.ExchangeCallback(ctx, code)
	if err != nil {
		return err
	}
	if !status.Configured {
		return fmt.Errorf("session not established")
	}
	return nil
}

// getConfigPath returns the configuration file path using the following priority:
// 1. CLI flag
// 2. Environment variable RMAIL_CONFIG
// 3. Default path ~/.config/rmail/config.json
func getConfigPath(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}

	if envPath := os.Getenv("RMAIL_CONFIG"); envPath != "" {
		return expandPath(envPath)
	}

	return config.DefaultConfigPath()
}

// expandPath expands ~ to the user's home directory
func expandPath(path string) string {
	if !strings.HasPrefix(path, "~") {
		return path
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}

	if path == "~" {
		return home
	}

	return filepath.Join(home, path[2:])
}
