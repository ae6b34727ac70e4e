package main

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/urfave/cli/v2"

	"rewards/internal/backend"
	appcli "rewards/internal/cli"
	"rewards/internal/config"
	"rewards/internal/core"
	apphttp "rewards/internal/http"
	"rewards/internal/ledger"
	"rewards/internal/log"
	"rewards/internal/services"
	"rewards/internal/storage"
)

func newApp() *cli.App {
	return &cli.App{
		Name:  "rewardsctl",
		Usage: "Loyalty rewards operator CLI",
		Description: `Inspect reward summaries and manage the transaction store.

Store settings come from the same environment variables as the server;
the flags below override them.`,
		Version: fmt.Sprintf("%s (commit: %s)", version, commit),
		Commands: []*cli.Command{
			calculateCommand(),
			importCommand(),
			migrateCommand(),
		},
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "backend",
				Aliases: []string{"b"},
				Usage:   "Transaction store (memory, sqlite, postgres, sheets)",
				EnvVars: []string{"DATA_BACKEND"},
				Value:   "memory",
			},
			&cli.StringFlag{
				Name:    "sqlite-path",
				Usage:   "SQLite database file",
				EnvVars: []string{"SQLITE_DB_PATH"},
				Value:   "./data/rewards.db",
			},
			&cli.StringFlag{
				Name:    "database-url",
				Usage:   "Postgres connection URL",
				EnvVars: []string{"DATABASE_URL"},
			},
			&cli.StringFlag{
				Name:    "seed-file",
				Usage:   "YAML seed for the memory backend",
				EnvVars: []string{"SEED_FILE"},
			},
			&cli.BoolFlag{
				Name:  "verbose",
				Usage: "Debug logging on stderr",
			},
		},
	}
}

func calculateCommand() *cli.Command {
	return &cli.Command{
		Name:  "calculate",
		Usage: "Print a customer's reward summary as JSON",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "customer",
				Aliases:  []string{"c"},
				Usage:    "Customer ID",
				Required: true,
			},
			&cli.StringFlag{
				Name:  "from",
				Usage: "Start date, inclusive (YYYY-MM-DD)",
			},
			&cli.StringFlag{
				Name:  "to",
				Usage: "End date, inclusive (YYYY-MM-DD)",
			},
		},
		Action: func(c *cli.Context) error {
			rng, err := rangeFromFlags(c)
			if err != nil {
				return err
			}

			cfg, logger, err := loadConfig(c)
			if err != nil {
				return err
			}
			policy, err := appcli.PolicyFromConfig(cfg)
			if err != nil {
				return err
			}

			store, err := appcli.InitBackend(c.Context, cfg, logger, nil)
			if err != nil {
				return err
			}
			defer store.Close()

			svc := services.NewRewardService(store.Reader, policy, logger)
			summary, err := svc.CalculateRewards(c.Context, c.String("customer"), rng)
			if err != nil {
				return err
			}

			enc := json.NewEncoder(c.App.Writer)
			enc.SetIndent("", "  ")
			return enc.Encode(apphttp.NewRewardsResponse(summary))
		},
	}
}

func importCommand() *cli.Command {
	return &cli.Command{
		Name:  "import",
		Usage: "Load transactions from a YAML seed file into sqlite or postgres",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "file",
				Aliases:  []string{"f"},
				Usage:    "Seed file path",
				Required: true,
			},
			&cli.BoolFlag{
				Name:  "dry-run",
				Usage: "Validate the file without writing",
			},
		},
		Action: func(c *cli.Context) error {
			txns, err := ledger.ReadSeedFile(c.String("file"))
			if err != nil {
				return err
			}
			if c.Bool("dry-run") {
				fmt.Fprintf(c.App.Writer, "%d transactions valid\n", len(txns))
				return nil
			}

			cfg, logger, err := loadConfig(c)
			if err != nil {
				return err
			}
			backendType := backend.BackendType(cfg.DataBackend)
			if backendType == backend.MemoryBackend || !backendType.Writable() {
				return fmt.Errorf("import needs a persistent backend (sqlite or postgres), got %s", backendType)
			}

			store, err := appcli.InitBackend(c.Context, cfg, logger, nil)
			if err != nil {
				return err
			}
			defer store.Close()

			n, err := store.Writer.Insert(c.Context, txns)
			if err != nil {
				return fmt.Errorf("import %s: %w", c.String("file"), err)
			}
			fmt.Fprintf(c.App.Writer, "Imported %d transactions into %s\n", n, backendType)
			return nil
		},
	}
}

func migrateCommand() *cli.Command {
	return &cli.Command{
		Name:  "migrate",
		Usage: "Apply schema migrations to the configured SQL backend",
		Action: func(c *cli.Context) error {
			cfg, logger, err := loadConfig(c)
			if err != nil {
				return err
			}

			switch backend.BackendType(cfg.DataBackend) {
			case backend.SQLiteBackend:
				err = storage.RunSQLiteMigrations(cfg.SQLiteDBPath)
			case backend.PostgresBackend:
				err = storage.RunPostgresMigrations(cfg.DatabaseURL)
			default:
				return fmt.Errorf("backend %s has no schema to migrate", cfg.DataBackend)
			}
			if err != nil {
				return err
			}
			logger.Info("Migrations applied", log.FieldBackend, cfg.DataBackend, log.FieldOperation, log.OpMigrate)
			fmt.Fprintf(c.App.Writer, "Migrations applied to %s\n", cfg.DataBackend)
			return nil
		},
	}
}

// loadConfig reads the environment, applies global flag overrides and
// builds a stderr logger.
func loadConfig(c *cli.Context) (*config.Config, *log.Logger, error) {
	cfg := config.Load()
	cfg.DataBackend = c.String("backend")
	cfg.SQLiteDBPath = c.String("sqlite-path")
	cfg.DatabaseURL = c.String("database-url")
	cfg.SeedFile = c.String("seed-file")
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}

	level := slog.LevelWarn
	if c.Bool("verbose") {
		level = slog.LevelDebug
	}
	logger := log.New(log.Config{
		Level:     level,
		Format:    "text",
		Component: log.ComponentCLI,
		Output:    c.App.ErrWriter,
	})
	return cfg, logger, nil
}

func rangeFromFlags(c *cli.Context) (core.DateRange, error) {
	var rng core.DateRange
	var err error
	if v := c.String("from"); v != "" {
		if rng.From, err = core.ParseDate(v); err != nil {
			return rng, fmt.Errorf("--from: %w", err)
		}
	}
	if v := c.String("to"); v != "" {
		if rng.To, err = core.ParseDate(v); err != nil {
			return rng, fmt.Errorf("--to: %w", err)
		}
	}
	return rng, nil
}
