// fundctl is a small CLI over the same database and services as the API.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	holdingsvc "fundtrack-backend/internal/application/holdings"
	"fundtrack-backend/internal/config"
	"fundtrack-backend/internal/eastmoney"
	"fundtrack-backend/internal/infrastructure/database"

	"github.com/google/subcommands"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).Level(zerolog.WarnLevel)

	subcommands.Register(subcommands.HelpCommand(), "")
	subcommands.Register(subcommands.FlagsCommand(), "")
	subcommands.Register(&addCmd{}, "holdings")
	subcommands.Register(&listCmd{}, "holdings")
	subcommands.Register(&removeCmd{}, "holdings")
	subcommands.Register(&exportCmd{}, "snapshots")
	subcommands.Register(&importCmd{}, "snapshots")

	flag.Parse()
	os.Exit(int(subcommands.Execute(context.Background())))
}

// newService builds the holdings service from the ambient configuration.
func newService() (*holdingsvc.Service, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	if err := database.AutoMigrate(db); err != nil {
		return nil, err
	}
	gateway := eastmoney.NewClient(eastmoney.Config{RequestInterval: cfg.FetchPause}, log.Logger)
	return &holdingsvc.Service{DB: db, Gateway: gateway, Log: log.Logger}, nil
}

func fail(err error) subcommands.ExitStatus {
	fmt.Fprintln(os.Stderr, "error:", err)
	return subcommands.ExitFailure
}
