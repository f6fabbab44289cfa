package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/mmcdole/moviemate/internal/adapter"
	"github.com/mmcdole/moviemate/internal/adblock"
	"github.com/mmcdole/moviemate/internal/background"
	"github.com/mmcdole/moviemate/internal/domain"
	"github.com/mmcdole/moviemate/internal/tui/styles"
	"golang.org/x/term"
)

// Version is set at build time via -ldflags
var Version = "dev"

// clearSpinnerLine clears the spinner line from the terminal
const clearSpinnerLine = "\r                                    \r"

const usage = `Usage: moviemate [flags] [command] [args]

Commands:
  popup           browse recommendations and your watchlist (default)
  serve           run the background: ad blocker, recommendation cache,
                  watchlist and the extension messaging endpoint
  scan <page>     replace ad slots in an HTML file or URL
  rules           print the network block rules as declarativeNetRequest JSON
  setup           save a TMDB API key

Flags:
`

func main() {
	var showVersion bool
	var configFile string
	flag.BoolVar(&showVersion, "v", false, "print version")
	flag.BoolVar(&showVersion, "version", false, "print version")
	flag.StringVar(&configFile, "config", "", "config file (default: standard locations)")
	flag.Usage = func() {
		fmt.Fprint(flag.CommandLine.Output(), usage)
		flag.PrintDefaults()
	}
	flag.Parse()

	if showVersion {
		fmt.Printf("moviemate %s\n", Version)
		return
	}

	if err := run(configFile, flag.Args()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(configFile string, args []string) error {
	// Load configuration
	cfg, err := adapter.LoadConfigFrom(configFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Setup logger
	logger, err := adapter.SetupLogger(&cfg.Logging)
	if err != nil {
		// Fall back to null logger if file logging fails
		logger = adapter.NullLogger()
	}
	slog.SetDefault(logger)

	command := "popup"
	if len(args) > 0 {
		command, args = args[0], args[1:]
	}
	logger.Info("starting moviemate", "version", Version, "command", command)

	switch command {
	case "popup":
		return runPopup(cfg, args, logger)
	case "serve":
		if !cfg.IsConfigured() {
			if err := runSetupFlow(cfg, logger); err != nil {
				return err
			}
		}
		return runServe(cfg, logger)
	case "scan":
		return runScan(cfg, args, logger)
	case "rules":
		return printRules(cfg)
	case "setup":
		return runSetupFlow(cfg, logger)
	default:
		flag.Usage()
		return fmt.Errorf("unknown command %q", command)
	}
}

// printRules writes the installed rule set in the browser's rule format
func printRules(cfg *adapter.Config) error {
	rules := adblock.NewRules(cfg.AdBlock.Domains, cfg.AdBlock.ResourceTypes)
	data, err := json.MarshalIndent(rules.Declarative(), "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}

// runSetupFlow prompts for a TMDB API key, verifies it and saves it
func runSetupFlow(cfg *adapter.Config, logger *slog.Logger) error {
	fmt.Println()
	fmt.Println("Welcome to MovieMate!")
	fmt.Println()
	fmt.Println("Recommendations come from The Movie Database. Create a free API key at")
	fmt.Println("https://www.themoviedb.org/settings/api and paste it below.")
	fmt.Println()

	reader := bufio.NewReader(os.Stdin)

	// Loop until we get a key the API accepts
	var apiKey string
	for {
		input, err := readSecret(reader, "TMDB API key: ")
		if err != nil {
			return fmt.Errorf("failed to read input: %w", err)
		}
		apiKey = strings.TrimSpace(input)

		if apiKey == "" {
			fmt.Println("API key cannot be empty. Please try again.")
			continue
		}

		fmt.Println()
		err = verifyKeyWithSpinner(cfg.TMDB, apiKey, logger)
		if errors.Is(err, domain.ErrAuthFailed) {
			fmt.Println("✗ The API rejected this key. Please try again.")
			fmt.Println()
			continue
		}
		if err != nil {
			fmt.Printf("✗ Could not verify the key: %v\n", err)
			fmt.Println("Please check your connection and try again.")
			fmt.Println()
			continue
		}
		break
	}

	if err := adapter.SaveAPIKey(apiKey); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}
	cfg.TMDB.APIKey = apiKey

	fmt.Println()
	fmt.Println("✓ Configuration saved!")
	fmt.Println()
	return nil
}

// readSecret reads a line without echo when stdin is a terminal
func readSecret(reader *bufio.Reader, prompt string) (string, error) {
	fmt.Print(prompt)
	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		b, err := term.ReadPassword(fd)
		fmt.Println()
		return string(b), err
	}
	return reader.ReadString('\n')
}

// verifyKeyWithSpinner fetches one genre with apiKey while showing a spinner
func verifyKeyWithSpinner(tmdbCfg adapter.TMDBConfig, apiKey string, logger *slog.Logger) error {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	tmdbCfg.APIKey = apiKey
	tmdbCfg.Enrich = false
	fetcher, err := background.NewFetcher(tmdbCfg, logger)
	if err != nil {
		return err
	}

	resultCh := make(chan error, 1)
	go func() {
		_, err := fetcher.FetchRecommendations(ctx, domain.DefaultGenre)
		resultCh <- err
	}()

	frame := 0
	fmt.Printf("\r%s Checking API key...", styles.SpinnerFrames[frame])

	ticker := time.NewTicker(80 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case err := <-resultCh:
			fmt.Print(clearSpinnerLine)
			if err != nil {
				return err
			}
			fmt.Println("✓ API key accepted")
			return nil

		case <-ticker.C:
			frame++
			fmt.Printf("\r%s Checking API key...", styles.SpinnerFrames[frame%len(styles.SpinnerFrames)])

		case <-ctx.Done():
			fmt.Print(clearSpinnerLine)
			return fmt.Errorf("verification timed out")
		}
	}
}
