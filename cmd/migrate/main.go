package main

import (
	"database/sql"
	"flag"
	"fmt"
	"os"

	_ "github.com/lib/pq"
	"github.com/sirupsen/logrus"

	"github.com/segyhp/collection-engine/internal/config"
	"github.com/segyhp/collection-engine/internal/migration"
)

func main() {
	var migrationsPath string
	flag.StringVar(&migrationsPath, "path", "", "Path to migrations directory (default: MIGRATIONS_PATH)")
	flag.Parse()

	args := flag.Args()
	if len(args) != 1 {
		printUsage()
		os.Exit(1)
	}
	command := args[0]

	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("Failed to load configuration: %v", err)
	}
	logger := cfg.NewLogger()

	if migrationsPath == "" {
		migrationsPath = cfg.Database.MigrationsPath
	}

	db, err := sql.Open("postgres", cfg.Database.URL)
	if err != nil {
		logger.WithError(err).Fatal("Failed to open database")
	}

	m, err := migration.New(db, migrationsPath, logger)
	if err != nil {
		_ = db.Close()
		logger.WithError(err).Fatal("Failed to create migrator")
	}
	defer m.Close()

	log := logger.WithFields(logrus.Fields{
		"command":         command,
		"migrations_path": migrationsPath,
	})

	switch command {
	case "up":
		err = m.Up()
	case "down":
		err = m.Down()
	case "version":
		var (
			version uint
			dirty   bool
		)
		version, dirty, err = m.Version()
		if err == nil {
			log.WithFields(logrus.Fields{"version": version, "dirty": dirty}).Info("Current migration version")
		}
	default:
		log.Error("Unknown command")
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		log.WithError(err).Fatal("Migration command failed")
	}
}

func printUsage() {
	fmt.Println(`Collection engine migration tool

Usage:
  migrate [-path dir] <up|down|version>`)
}
