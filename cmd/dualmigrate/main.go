/*
Copyright © 2026 Acronis International GmbH.

Released under MIT license.
*/

// Command dualmigrate applies, seeds, and rolls back dual-backend schema migrations.
//
// Usage:
//
//	dualmigrate -config config.yml -dir ./migrations run
//	dualmigrate -config config.yml -dir ./migrations run -backend primary
//	dualmigrate -config config.yml -dir ./migrations rollback -backend analytics
//	dualmigrate -config config.yml -dir ./migrations seed -backend primary
//
// The command exits 0 on success and 1 with a diagnostic message on failure.
package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/acronis/go-appkit/log"
	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"

	"github.com/acronis/go-dualmigrate"
	_ "github.com/acronis/go-dualmigrate/clickhouse"
	"github.com/acronis/go-dualmigrate/migrate"
	_ "github.com/acronis/go-dualmigrate/mysql"
	_ "github.com/acronis/go-dualmigrate/pgx"
	_ "github.com/acronis/go-dualmigrate/postgres"
	_ "github.com/acronis/go-dualmigrate/sqlite"
)

const envPrefix = "DUALMIGRATE"

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "dualmigrate: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	fs := flag.NewFlagSet("dualmigrate", flag.ContinueOnError)
	configPath := fs.String("config", "dualmigrate.yml", "path to configuration file")
	migrationsDir := fs.String("dir", "migrations", "path to the migrations directory")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		return fmt.Errorf("no command specified, expected one of: run, rollback, seed")
	}
	command := fs.Arg(0)

	cmdFs := flag.NewFlagSet(command, flag.ContinueOnError)
	backendName := cmdFs.String("backend", "", "backend to operate on: primary or analytics")
	if err := cmdFs.Parse(fs.Args()[1:]); err != nil {
		return err
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	logger, loggerClose := log.NewLogger(&log.Config{Output: log.OutputStderr, Level: log.LevelInfo})
	defer loggerClose()

	registry := migrate.NewRegistry()
	if _, err = migrate.RegisterFSMigrations(registry, os.DirFS("."), *migrationsDir); err != nil {
		return fmt.Errorf("load migrations from %s: %w", *migrationsDir, err)
	}

	primaryDB, analyticsDB, err := openBackends(cfg)
	if err != nil {
		return err
	}
	defer closeQuietly(primaryDB, analyticsDB)

	primary, err := migrate.NewHandle(primaryDB, migrate.BackendPrimary, cfg.Primary.Dialect,
		migrate.WithHistoryTableName(cfg.Primary.HistoryTable))
	if err != nil {
		return err
	}
	analytics, err := migrate.NewHandle(analyticsDB, migrate.BackendAnalytics, cfg.Analytics.Dialect,
		migrate.WithHistoryTableName(cfg.Analytics.HistoryTable))
	if err != nil {
		return err
	}

	runner, err := migrate.NewRunner(registry, primary, analytics, logger)
	if err != nil {
		return err
	}

	ctx := context.Background()
	switch command {
	case "run":
		if *backendName == "" {
			return runner.RunBoth(ctx)
		}
		backend, err := parseBackend(*backendName)
		if err != nil {
			return err
		}
		return runner.Run(ctx, backend)
	case "rollback":
		backend, err := parseBackend(*backendName)
		if err != nil {
			return err
		}
		return runner.Rollback(ctx, backend)
	case "seed":
		backend, err := parseBackend(*backendName)
		if err != nil {
			return err
		}
		inserted, err := runner.SeedHistory(ctx, backend)
		if err != nil {
			return err
		}
		logger.Info(fmt.Sprintf("Inserted %d history record(s) without executing migrations", inserted))
		return nil
	default:
		return fmt.Errorf("unknown command %q, expected one of: run, rollback, seed", command)
	}
}

func loadConfig(path string) (*dualmigrate.Config, error) {
	vpr := viper.New()
	vpr.SetConfigFile(path)
	vpr.SetEnvPrefix(envPrefix)
	vpr.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	vpr.AutomaticEnv()
	if err := vpr.ReadInConfig(); err != nil {
		return nil, err
	}

	appCfg := struct {
		Migration *dualmigrate.Config `mapstructure:"migration"`
	}{Migration: dualmigrate.NewDefaultConfig()}
	if err := vpr.Unmarshal(&appCfg, func(c *mapstructure.DecoderConfig) {
		c.DecodeHook = mapstructure.TextUnmarshallerHookFunc()
	}); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return appCfg.Migration, nil
}

func openBackends(cfg *dualmigrate.Config) (primaryDB, analyticsDB *sql.DB, err error) {
	if primaryDB, err = dualmigrate.Open(&cfg.Primary, true); err != nil {
		return nil, nil, fmt.Errorf("open primary backend: %w", err)
	}
	if analyticsDB, err = dualmigrate.Open(&cfg.Analytics, true); err != nil {
		_ = primaryDB.Close()
		return nil, nil, fmt.Errorf("open analytics backend: %w", err)
	}
	return primaryDB, analyticsDB, nil
}

func parseBackend(name string) (migrate.Backend, error) {
	backend := migrate.Backend(name)
	if !backend.IsValid() {
		return "", fmt.Errorf("invalid backend %q, expected %q or %q", name, migrate.BackendPrimary, migrate.BackendAnalytics)
	}
	return backend, nil
}

func closeQuietly(dbs ...*sql.DB) {
	for _, dbConn := range dbs {
		_ = dbConn.Close()
	}
}
