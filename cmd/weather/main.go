package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	flag "github.com/spf13/pflag"

	"github.com/sean-rowe/weather-now/internal/app"
	"github.com/sean-rowe/weather-now/internal/config"
	"github.com/sean-rowe/weather-now/internal/version"
)

func main() {
	os.Exit(run())
}

func run() int {
	cfg := config.Load()

	flags := flag.NewFlagSet("weather", flag.ContinueOnError)
	flags.StringVar(&cfg.Backend.BaseURL, "api-url", cfg.Backend.BaseURL, "weather backend base URL (WEATHER_API_URL)")
	flags.StringVar(&cfg.Geolocation.Provider, "geo", cfg.Geolocation.Provider, "geolocation provider: ip, static or off (GEO_PROVIDER)")
	flags.StringVar(&cfg.Status.Addr, "status-addr", cfg.Status.Addr, "status API listen address, empty to disable (STATUS_ADDR)")
	flags.StringVar(&cfg.App.Locale, "locale", cfg.App.Locale, "display language (APP_LOCALE)")
	showVersion := flags.Bool("version", false, "print version information and exit")

	if err := flags.Parse(os.Args[1:]); err != nil {
		if err == flag.ErrHelp {
			return 0
		}

		return 2
	}

	if *showVersion {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(version.Get())

		return 0
	}

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		return 2
	}

	application, err := app.New(cfg, os.Stdin, os.Stdout)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	defer application.Stop()

	if err := application.Start(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "failed to start: %v\n", err)
		return 1
	}

	if err := application.Run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return 1
	}

	return 0
}
