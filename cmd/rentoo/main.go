package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"

	"rentoo/internal/apiclient"
	"rentoo/internal/app"
	"rentoo/internal/config"
	"rentoo/internal/logger"
	"rentoo/internal/metrics"
	"rentoo/internal/session"
	"rentoo/internal/ui"
)

func main() {
	configPath := flag.String("config", "config/client.yaml", "Path to configuration file")
	apiURL := flag.String("api", "", "API base URL (overrides client.api_url)")
	logLevel := flag.String("log-level", "warn", "Log level for diagnostics on stderr")
	flag.Usage = usage
	flag.Parse()

	logger.InitializeWriter(os.Stderr, *logLevel, "text")

	if flag.NArg() == 0 {
		usage()
		os.Exit(2)
	}

	cfg, err := config.LoadClient(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	if *apiURL != "" {
		cfg.Client.APIURL = *apiURL
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, flag.Arg(0), flag.Args()[1:], os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "error:", describe(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, name string, args []string, out io.Writer) error {
	cmd, ok := commands[name]
	if !ok {
		usage()
		return fmt.Errorf("unknown command %q", name)
	}

	tokens, err := session.OpenBoltTokenStore(cfg.Client.StateFile)
	if err != nil {
		return err
	}

	a, err := app.New(cfg.Client.APIURL, tokens, ui.RouteHome,
		apiclient.WithTimeout(cfg.Client.Timeout),
		apiclient.WithMetrics(metrics.NewClient(prometheus.NewRegistry())),
	)
	if err != nil {
		tokens.Close()
		return err
	}
	defer a.Close()

	if err := a.Init(ctx); err != nil {
		return err
	}
	if !cmd.public && !a.Session.IsAuthenticated() {
		// A persisted token the backend no longer accepts sends us to login.
		if a.History.Current() == ui.RouteLogin {
			return errors.New("session expired, log in again with: rentoo login")
		}
		return errors.New("not logged in, use: rentoo login")
	}

	err = cmd.run(ctx, a, args, out)
	if errors.Is(err, apiclient.ErrUnauthorized) && a.History.Current() == ui.RouteLogin {
		return errors.New("not logged in, use: rentoo login")
	}
	return err
}

func describe(err error) string {
	var fe *apiclient.FieldErrors
	var ae *apiclient.APIError
	var ne *apiclient.NetworkError
	if errors.As(err, &fe) || errors.As(err, &ae) || errors.As(err, &ne) {
		return apiclient.UserMessage(err)
	}
	return err.Error()
}

func usage() {
	fmt.Fprintf(os.Stderr, "Usage: rentoo [-config file] [-api url] <command> [args]\n\nCommands:\n")
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(os.Stderr, "  %-18s %s\n", name, commands[name].help)
	}
}
