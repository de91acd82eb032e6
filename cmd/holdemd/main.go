package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	"github.com/charmbracelet/log"
	"github.com/coder/quartz"

	"github.com/cardtable/holdemd/internal/randutil"
	"github.com/cardtable/holdemd/internal/server"
)

var CLI struct {
	Port       int    `short:"p" long:"port" default:"8080" help:"TCP port to listen on"`
	SmallBlind uint64 `short:"b" long:"small-blind" default:"1" help:"Initial small blind"`
	StartMoney uint64 `short:"m" long:"start-money" default:"1000" help:"Starting stack per player"`
	Config     string `short:"c" long:"config" help:"Path to HCL configuration file"`
	LogLevel   string `short:"l" long:"log-level" help:"Log level (overrides config)"`
	Seed       int64  `long:"seed" help:"Deck shuffle seed (0 means time-based)"`
}

func main() {
	kctx := kong.Parse(&CLI)

	cfg := server.DefaultConfig()
	if CLI.Config != "" {
		var err error
		if cfg, err = server.LoadConfig(CLI.Config, cfg); err != nil {
			fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
			kctx.Exit(1)
		}
	}

	// Command line flags override the config file.
	cfg.Port = CLI.Port
	cfg.SmallBlind = CLI.SmallBlind
	cfg.StartMoney = CLI.StartMoney
	if CLI.LogLevel != "" {
		cfg.LogLevel = CLI.LogLevel
	}

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		kctx.Exit(1)
	}

	logger := log.New(os.Stderr)
	switch cfg.LogLevel {
	case "debug":
		logger.SetLevel(log.DebugLevel)
	case "warn":
		logger.SetLevel(log.WarnLevel)
	case "error":
		logger.SetLevel(log.ErrorLevel)
	default:
		logger.SetLevel(log.InfoLevel)
	}

	seed := CLI.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("starting", "port", cfg.Port, "smallBlind", cfg.SmallBlind, "startMoney", cfg.StartMoney)
	err := server.Serve(ctx, cfg, logger, quartz.NewReal(), randutil.New(seed))
	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("server failed", "error", err)
		kctx.Exit(1)
	}
}
