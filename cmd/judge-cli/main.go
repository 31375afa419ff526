package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"codeduel/internal/cli/command"
	"codeduel/internal/cli/config"
	httpclient "codeduel/internal/cli/http"
	"codeduel/internal/cli/repl"
)

const defaultConfigPath = "configs/cli.yaml"

func main() {
	configPath := flag.String("config", defaultConfigPath, "Path to config file")
	baseURL := flag.String("base", "", "Override engine base URL")
	timeout := flag.Duration("timeout", 0, "Override HTTP timeout (e.g. 90s)")
	pretty := flag.Bool("pretty", false, "Pretty print JSON response")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config failed: %v\n", err)
		os.Exit(1)
	}
	if *baseURL != "" {
		cfg.BaseURL = *baseURL
	}
	if *timeout > 0 {
		cfg.Timeout = *timeout
	}
	if *pretty {
		cfg.PrettyJSON = true
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client := httpclient.New(cfg.BaseURL, cfg.Timeout)
	session := repl.New(client, command.Registry(), cfg.PrettyJSON, os.Stdin, os.Stdout)

	// One-shot mode: judge-cli judge run language=python code_file=sol.py ...
	if args := flag.Args(); len(args) > 0 {
		if err := session.ExecArgs(ctx, args); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
		return
	}
	session.Run(ctx)
}
