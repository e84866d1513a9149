package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/gin-gonic/gin"
	"github.com/mdobak/go-xerrors"
	"go.uber.org/zap"

	"github.com/MaiMahmoud182/DSP-task-1/internal/analyzer"
	"github.com/MaiMahmoud182/DSP-task-1/internal/api"
	"github.com/MaiMahmoud182/DSP-task-1/internal/app"
	"github.com/MaiMahmoud182/DSP-task-1/internal/config"
	"github.com/MaiMahmoud182/DSP-task-1/internal/db"
	"github.com/MaiMahmoud182/DSP-task-1/internal/logging"
	"github.com/MaiMahmoud182/DSP-task-1/internal/mcpserver"
	"github.com/MaiMahmoud182/DSP-task-1/internal/mockbackend"
)

const version = "0.1.0"

const usage = `Usage: dsplab [command] [flags]

Commands:
  tui      interactive terminal client (default)
  mcp      MCP tool server on stdio
  mock     fixture backend for offline use
  health   check the configured backend and exit
`

func main() {
	cmd := "tui"
	args := os.Args[1:]
	if len(args) > 0 && args[0] != "" && args[0][0] != '-' {
		cmd, args = args[0], args[1:]
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	switch cmd {
	case "tui":
		err = runTUI(cfg, args)
	case "mcp":
		err = runMCP(cfg, args)
	case "mock":
		err = runMock(cfg, args)
	case "health":
		err = runHealth(cfg, args)
	case "help":
		fmt.Print(usage)
		return
	default:
		fmt.Fprintf(os.Stderr, "Unknown command %q\n\n%s", cmd, usage)
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// clientFlags registers the flags shared by commands that talk to the
// backend.
func clientFlags(fs *flag.FlagSet, cfg *config.Config) {
	fs.StringVar(&cfg.BaseURL, "url", cfg.BaseURL, "Analysis backend origin")
	fs.StringVar(&cfg.OutputDir, "out", cfg.OutputDir, "Directory for exported charts and audio")
	fs.DurationVar(&cfg.DetectTimeout, "detect-timeout", cfg.DetectTimeout, "Timeout for drone detection")
}

// setup opens the logger, the history store and the client.
func setup(cfg config.Config) (analyzer.Deps, *db.Store, func(), error) {
	if err := cfg.EnsureDirs(); err != nil {
		return analyzer.Deps{}, nil, nil, err
	}
	logger, err := logging.New(logging.Options{File: cfg.LogFile, Level: cfg.LogLevel})
	if err != nil {
		return analyzer.Deps{}, nil, nil, err
	}

	store, err := db.Open(cfg.DBPath)
	if err != nil {
		err := xerrors.New(err)
		logger.Warn("history disabled", zap.String("path", cfg.DBPath), zap.Error(err))
		store = nil
	}

	client := api.New(cfg.BaseURL,
		api.WithLogger(logger),
		api.WithDetectTimeout(cfg.DetectTimeout))

	deps := analyzer.Deps{
		Client:    client,
		Logger:    logger,
		OutputDir: cfg.OutputDir,
	}
	if store != nil {
		deps.History = store
	}

	cleanup := func() {
		if store != nil {
			store.Close()
		}
		_ = logger.Sync()
	}
	logger.Info("dsplab starting", zap.String("version", version), zap.String("backend", cfg.BaseURL))
	return deps, store, cleanup, nil
}

func runTUI(cfg config.Config, args []string) error {
	fs := flag.NewFlagSet("tui", flag.ExitOnError)
	clientFlags(fs, &cfg)
	fs.Parse(args)

	deps, store, cleanup, err := setup(cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	p := tea.NewProgram(app.New(deps, store), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("run tui: %w", err)
	}
	return nil
}

func runMCP(cfg config.Config, args []string) error {
	fs := flag.NewFlagSet("mcp", flag.ExitOnError)
	clientFlags(fs, &cfg)
	fs.Parse(args)

	deps, _, cleanup, err := setup(cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	if err := mcpserver.New(deps, version).ServeStdio(); err != nil {
		return fmt.Errorf("serve mcp: %w", err)
	}
	return nil
}

func runMock(cfg config.Config, args []string) error {
	fs := flag.NewFlagSet("mock", flag.ExitOnError)
	addr := fs.String("addr", cfg.MockAddr, "Listen address")
	delay := fs.Duration("delay", 0, "Artificial latency added to every response")
	fs.Parse(args)

	logger, err := zap.NewDevelopment()
	if err != nil {
		return err
	}
	defer logger.Sync()

	gin.SetMode(gin.ReleaseMode)
	srv := mockbackend.New(logger)
	srv.Delay = *delay

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Printf("Mock backend listening on %s\n", *addr)
	return srv.ListenAndServe(ctx, *addr)
}

func runHealth(cfg config.Config, args []string) error {
	fs := flag.NewFlagSet("health", flag.ExitOnError)
	fs.StringVar(&cfg.BaseURL, "url", cfg.BaseURL, "Analysis backend origin")
	timeout := fs.Duration("timeout", 5*time.Second, "Request timeout")
	fs.Parse(args)

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	client := api.New(cfg.BaseURL)
	h, err := client.Health(ctx)
	if err != nil {
		return fmt.Errorf("%s: %s", cfg.BaseURL, api.UserMessage(err))
	}
	fmt.Printf("%s: %s", cfg.BaseURL, h.Status)
	if h.Version != "" {
		fmt.Printf(" (version %s)", h.Version)
	}
	fmt.Println()
	if h.Message != "" {
		fmt.Println(h.Message)
	}
	for _, name := range api.Modules {
		mh, err := client.ModuleHealth(ctx, name)
		if err != nil {
			fmt.Printf("  %s: %s\n", name, api.UserMessage(err))
			continue
		}
		fmt.Printf("  %s: %s\n", name, mh.Status)
	}
	return nil
}
