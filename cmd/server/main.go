// Command server runs the API. Subcommands:
//
//	server migrate   apply pending schema revisions and exit
//	server serve     wait for dependencies, migrate, then serve (default)
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/goback-io/goback/internal/app/runtime"
	"github.com/goback-io/goback/internal/config"
	"github.com/goback-io/goback/internal/logging"
)

func main() {
	migrations := flag.String("migrations", "file://migrations", "schema migration source URL")
	flag.Parse()

	command := flag.Arg(0)
	if command == "" {
		command = "serve"
	}

	switch command {
	case "migrate":
		if err := runMigrate(*migrations); err != nil {
			fmt.Fprintf(os.Stderr, "migrate: %v\n", err)
			os.Exit(1)
		}
	case "serve":
		if err := runServe(*migrations); err != nil {
			fmt.Fprintf(os.Stderr, "serve: %v\n", err)
			os.Exit(1)
		}
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n", command)
		os.Exit(2)
	}
}

func runMigrate(migrationsURL string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	log := logging.New("goback", cfg.Logging.Level)
	return runtime.RunMigrations(cfg, migrationsURL, log)
}

func runServe(migrationsURL string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := runtime.NewApplication(ctx, runtime.Options{MigrationsURL: migrationsURL})
	if err != nil {
		return err
	}

	runErr := app.Run(ctx)

	if err := app.Shutdown(context.Background()); err != nil {
		return err
	}
	return runErr
}
