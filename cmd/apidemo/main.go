package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/alecthomas/kong"
	"github.com/samvad-hq/api-mastery/internal/app"
	"github.com/samvad-hq/api-mastery/internal/config"
	"github.com/samvad-hq/api-mastery/internal/logger"
)

type cli struct {
	LogLevel   string `help:"Override LOG_LEVEL (debug, info, warn, error)." placeholder:"LEVEL"`
	Storage    string `help:"Override STORAGE_TYPE (none, memory, bbolt, redis)." placeholder:"TYPE"`
	Publishers string `help:"Override PUBLISHERS_FILE." placeholder:"PATH"`

	HTTPBin   struct{} `cmd:"" name:"httpbin" help:"Print the Host header httpbin received."`
	PokeAPI   struct{} `cmd:"" name:"pokeapi" help:"List and fetch Pokémon, then provoke a 404."`
	RickMorty struct{} `cmd:"" name:"rickmorty" help:"List Rick and Morty characters and look two up."`
	All       struct{} `cmd:"" default:"1" help:"Run every demo."`
}

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "apidemo failed: %v\n", err)
		os.Exit(1)
	}
}

func parseCLI(args []string) (*cli, string, error) {
	var c cli
	parser, err := kong.New(&c,
		kong.Name("apidemo"),
		kong.Description("Resilient clients for httpbin, PokéAPI and the Rick and Morty API."),
		kong.UsageOnError(),
	)
	if err != nil {
		return nil, "", fmt.Errorf("build cli: %w", err)
	}
	kctx, err := parser.Parse(args)
	if err != nil {
		return nil, "", err
	}
	return &c, kctx.Command(), nil
}

func (c *cli) apply(cfg *config.Config) {
	if v := strings.TrimSpace(c.LogLevel); v != "" {
		cfg.LogLevel = v
	}
	if v := strings.TrimSpace(c.Storage); v != "" {
		cfg.StorageType = v
	}
	if v := strings.TrimSpace(c.Publishers); v != "" {
		cfg.PublishersFile = v
	}
}

func run(args []string) error {
	opts, command, err := parseCLI(args)
	if err != nil {
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	opts.apply(cfg)

	log, err := logger.Init(cfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Close()

	logger.DebugObj("apidemo starting", "config", cfg)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	demo, err := app.NewDemo(ctx, cfg, log, os.Stdout)
	if err != nil {
		logger.ErrorObj("failed to initialize demo", "error", err)
		return err
	}
	defer func() {
		if err := demo.Close(); err != nil {
			log.ErrorObj("demo close failed", "error", err)
		}
	}()

	switch command {
	case "httpbin":
		return demo.RunHTTPBin(ctx)
	case "pokeapi":
		return demo.RunPokeAPI(ctx)
	case "rickmorty":
		return demo.RunRickMorty(ctx)
	case "all":
		return demo.RunAll(ctx)
	default:
		return fmt.Errorf("unknown command %q", command)
	}
}
