package main

import (
	"database/sql"
	"errors"
	"flag"
	"os"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/lib/pq"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/teresa-solution/workspace-service/internal/config"
	"github.com/teresa-solution/workspace-service/internal/store"
)

func main() {
	// Configure logging
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	if err := config.LoadDotEnv(); err != nil {
		log.Fatal().Err(err).Msg("Failed to load .env")
	}

	var (
		db      config.DBConfig
		flags   = flag.NewFlagSet("migrate", flag.ExitOnError)
		command = flags.String("command", "up", "Migration command (up, down, force, version)")
		version = flags.Int("version", 1, "Version for the force command")
	)
	config.BindDB(flags, &db)
	flags.Parse(os.Args[1:])

	conn, err := sql.Open("postgres", db.DSN())
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open database")
	}
	defer conn.Close()

	m, err := store.NewMigrator(conn)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create migrator")
	}

	// Run the migration command
	switch *command {
	case "up":
		log.Info().Msg("Applying migrations...")
		if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			log.Fatal().Err(err).Msg("Failed to apply migrations")
		}
		log.Info().Msg("Migrations applied successfully")
	case "down":
		log.Info().Msg("Reverting migrations...")
		if err := m.Down(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			log.Fatal().Err(err).Msg("Failed to revert migrations")
		}
		log.Info().Msg("Migrations reverted successfully")
	case "force":
		log.Info().Int("version", *version).Msg("Forcing migration version...")
		if err := m.Force(*version); err != nil {
			log.Fatal().Err(err).Msg("Failed to force migration version")
		}
		log.Info().Msg("Migration version forced successfully")
	case "version":
		v, dirty, err := m.Version()
		if errors.Is(err, migrate.ErrNilVersion) {
			log.Info().Msg("No migrations applied")
			return
		}
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to read migration version")
		}
		log.Info().Uint("version", v).Bool("dirty", dirty).Msg("Current migration version")
	default:
		log.Fatal().Msgf("Unknown command: %s", *command)
	}
}
