// cmd/seed-shipments/main.go
package main

import (
	"context"
	"flag"
	"os"

	"github.com/pkg/errors"
	zlog "github.com/rs/zerolog/log"

	"nexus-shipping/internal/pkg/bootstrap"
	"nexus-shipping/internal/pkg/database"
	"nexus-shipping/internal/pkg/logger"
	"nexus-shipping/internal/service/shipping/infrastructure"
)

func main() {
	file := flag.String("file", "configs/seed/eci_shipments.csv", "CSV file with shipments to load")
	configPath := flag.String("config", "", "config file, defaults to $SHIPPING_CONFIG")
	dsn := flag.String("dsn", "", "MySQL DSN, overrides infra.mysql.dsn")
	flag.Parse()

	cfg, err := bootstrap.LoadConfig(*configPath)
	if err != nil {
		zlog.Fatal().Err(err).Msg("failed to load config")
	}
	logger.Init("seed-shipments", cfg.App.LogLevel)

	if *dsn != "" {
		cfg.Infra.MySQL.DSN = *dsn
	}
	if err := run(cfg, *file); err != nil {
		zlog.Fatal().Err(err).Msg("seed failed")
	}
}

func run(cfg *bootstrap.Config, file string) error {
	if cfg.Infra.MySQL.DSN == "" {
		return errors.New("seeding requires a MySQL DSN (-dsn or MYSQL_DSN)")
	}

	f, err := os.Open(file)
	if err != nil {
		return errors.Wrap(err, "open seed file")
	}
	defer f.Close()

	db, err := database.OpenMySQL(database.Options{DSN: cfg.Infra.MySQL.DSN})
	if err != nil {
		return err
	}
	defer database.Close(db)

	repo := infrastructure.NewGormShipmentRepository(db)
	if err := repo.AutoMigrate(); err != nil {
		return errors.Wrap(err, "migrate shipments table")
	}

	ctx := context.Background()
	if err := repo.Truncate(ctx); err != nil {
		return errors.Wrap(err, "truncate shipments table")
	}
	zlog.Info().Msg("Truncated shipments table.")

	created, skipped, err := Seed(ctx, repo, f)
	if err != nil {
		return err
	}
	zlog.Info().Int("created", created).Int("skipped", skipped).Msg("Seed complete!")
	return nil
}
