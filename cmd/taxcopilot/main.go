package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"

	_ "github.com/garygangwu/tax-copilot/generation/gemini"
	_ "github.com/garygangwu/tax-copilot/generation/openai"
	"github.com/garygangwu/tax-copilot/interview"
	"github.com/garygangwu/tax-copilot/observability"
)

const usage = `Usage: taxcopilot <command> [flags]

Commands:
  interview   Start a new tax interview
  resume      Continue a paused interview
  sessions    List interview sessions
  profile     Show saved tax profiles
  serve       Run the HTTP API
`

// common holds the flags every command accepts.
type common struct {
	configFile *string
	dataDir    *string
	provider   *string
	model      *string
	events     *string
	verbose    *bool
}

// commonFlags registers the shared flags. events is the default -events
// observer.
func commonFlags(fs *flag.FlagSet, events string) *common {
	return &common{
		configFile: fs.String("config", "", "Path to config file (JSON or YAML)"),
		dataDir:    fs.String("data", "", "Data directory for sessions and profiles (overrides config)"),
		provider:   fs.String("provider", "", "Generation provider: gemini or openai (overrides config)"),
		model:      fs.String("model", "", "Model name (overrides config)"),
		events:     fs.String("events", events, "Event observer: "+strings.Join(observability.Names(), ", ")),
		verbose:    fs.Bool("verbose", false, "Enable verbose logging to stderr"),
	}
}

// config loads the config file, if any, and applies flag overrides.
func (c *common) config() (*interview.Config, error) {
	cfg := interview.DefaultConfig()
	if *c.configFile != "" {
		loaded, err := interview.LoadConfig(*c.configFile)
		if err != nil {
			return nil, err
		}
		cfg = *loaded
	}

	cfg.Merge(&interview.Config{DataDir: *c.dataDir})
	if *c.provider != "" {
		cfg.Generation.Provider = *c.provider
	}
	if *c.model != "" {
		cfg.Generation.Model = *c.model
	}
	return &cfg, nil
}

func (c *common) logger(json bool) *slog.Logger {
	level := slog.LevelInfo
	if *c.verbose {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: level}
	if json {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}

// agent builds an interview.Agent whose events go to the -events observer,
// written through logger, and to any extra observers.
func (c *common) agent(ctx context.Context, logger *slog.Logger, extra ...observability.Observer) *interview.Agent {
	cfg, err := c.config()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	events := *c.events
	if *c.verbose && events == "warnings" {
		events = "slog"
	}
	obs, err := observability.New(events, logger)
	if err != nil {
		log.Fatalf("Failed to create observer: %v", err)
	}

	a, err := interview.New(ctx, cfg, interview.WithObserver(observability.Tee(append(extra, obs)...)))
	if err != nil {
		log.Fatalf("Failed to create interview agent: %v", err)
	}
	return a
}

func main() {
	_ = godotenv.Load()

	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd, args := os.Args[1], os.Args[2:]
	var err error
	switch cmd {
	case "interview":
		err = runInterview(ctx, args)
	case "resume":
		err = runResume(ctx, args)
	case "sessions":
		err = runSessions(ctx, args)
	case "profile":
		err = runProfile(ctx, args)
	case "serve":
		err = runServe(ctx, args)
	case "help", "-h", "-help", "--help":
		fmt.Print(usage)
		return
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n%s", cmd, usage)
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintln(os.Stderr, errorStyle.Render("Error: "+err.Error()))
		os.Exit(1)
	}
}
