package main

import (
	"context"
	"fmt"
	"os"

	"github.com/desertthunder/strippers/internal/shared"
	"github.com/urfave/cli/v3"
)

// Setup writes a config file when none exists, then initializes the database and runs migrations.
func (r *Runner) Setup(ctx context.Context, cmd *cli.Command) error {
	configPath := cmd.String("config")
	if configPath == "" {
		configPath = r.configPath
	}

	config := r.config
	if _, err := os.Stat(configPath); err != nil {
		r.logger.Info("config file not found, creating from template", "path", configPath)
		if err := shared.CreateConfigFile(configPath); err != nil {
			r.logger.Warn("failed to create config file, using defaults", "error", err)
		} else {
			r.logger.Info("config file created", "path", configPath)
		}
	}
	if loaded, err := shared.LoadConfig(configPath); err == nil {
		config = loaded
	} else {
		r.logger.Warn("failed to load config, using defaults", "error", err)
	}
	r.config = config

	r.logger.Info("initializing database", "path", config.Database.Path)

	db, err := shared.NewDatabase(config.Database.Path)
	if err != nil {
		return fmt.Errorf("failed to create database: %w", err)
	}
	defer db.Close()

	shared.ConfigureDatabase(db, config.Database.MaxOpenConns, config.Database.MaxIdleConns)

	r.logger.Info("running database migrations")
	if err := shared.RunMigrations(db); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	if config.Ledger.Backend == "file" && config.Ledger.Path != "" {
		f, err := os.OpenFile(config.Ledger.Path, os.O_CREATE|os.O_RDONLY, 0644)
		if err != nil {
			return fmt.Errorf("%w: create ledger: %w", shared.ErrLedgerIO, err)
		}
		f.Close()
	}

	r.logger.Infof("setup complete for database: %v", config.Database.Path)
	if err := config.Validate(); err != nil {
		r.writePlain("⚠ %v\n", err)
		r.writePlain("Edit %s before running 'strippers serve'\n", configPath)
	}
	return nil
}
