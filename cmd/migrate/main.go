package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/intellipost/backend/internal/infrastructure/config"
	"github.com/intellipost/backend/internal/infrastructure/logger"
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	migrationsPath := flag.String("path", "migrations", "path to migrations directory")
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		printUsage()
		os.Exit(1)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load configuration: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	m, err := migrate.New("file://"+*migrationsPath, cfg.Database.URL())
	if err != nil {
		log.Fatal("open migrator", zap.Error(err))
	}
	defer func() {
		if srcErr, dbErr := m.Close(); srcErr != nil || dbErr != nil {
			log.Warn("close migrator", zap.NamedError("source", srcErr), zap.NamedError("database", dbErr))
		}
	}()

	switch args[0] {
	case "up":
		err = m.Up()
	case "down":
		steps := 1
		if len(args) > 1 {
			if steps, err = strconv.Atoi(args[1]); err != nil {
				log.Fatal("invalid step count", zap.String("arg", args[1]))
			}
		}
		err = m.Steps(-steps)
	case "force":
		if len(args) < 2 {
			log.Fatal("force requires a version")
		}
		var version int
		if version, err = strconv.Atoi(args[1]); err != nil {
			log.Fatal("invalid version", zap.String("arg", args[1]))
		}
		err = m.Force(version)
	case "version":
		version, dirty, verr := m.Version()
		if verr != nil && !errors.Is(verr, migrate.ErrNilVersion) {
			log.Fatal("read version", zap.Error(verr))
		}
		log.Info("schema version", zap.Uint("version", version), zap.Bool("dirty", dirty))
		return
	default:
		printUsage()
		os.Exit(1)
	}

	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		log.Fatal("migration failed", zap.Error(err))
	}
	log.Info("migration complete", zap.String("command", args[0]))
}

func printUsage() {
	fmt.Fprintln(os.Stderr, `Usage: migrate [-config file] [-path dir] <command>

Commands:
  up              apply all pending migrations
  down [n]        roll back n migrations (default 1)
  force <v>       set schema version without running migrations
  version         print current schema version`)
}
