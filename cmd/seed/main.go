package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"career-advisor/internal/config"
	"career-advisor/internal/db"
	"career-advisor/internal/repository"
)

const app = "seed"

var rootCmd = &cobra.Command{
	Use:          app + " --file catalog.yaml",
	Short:        "seed loads the career catalog (traits, questions, careers, courses, roadmaps) into Postgres",
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return run(cmd.Context())
	},
}

func init() {
	rootCmd.Flags().StringP("file", "f", "catalog.yaml", "YAML catalog to load")
	rootCmd.Flags().String("database-url", "", "postgres connection string (default $DATABASE_URL)")
	rootCmd.Flags().Bool("migrate", true, "apply the schema before seeding")
	rootCmd.Flags().Bool("dry-run", false, "validate the catalog without writing")
	rootCmd.Flags().BoolP("debug", "d", false, "verbose/debug output")

	for _, name := range []string{"file", "database-url", "migrate", "dry-run", "debug"} {
		if err := viper.BindPFlag(name, rootCmd.Flags().Lookup(name)); err != nil {
			log.Fatalf("binding flag %s: %v", name, err)
		}
	}
	if err := viper.BindEnv("database-url", "DATABASE_URL"); err != nil {
		log.Fatalf("binding DATABASE_URL environment variable: %v", err)
	}
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	logger, err := newLogger(viper.GetBool("debug"))
	if err != nil {
		return fmt.Errorf("creating a logger: %w", err)
	}
	defer logger.Sync()

	f, err := os.Open(viper.GetString("file"))
	if err != nil {
		return err
	}
	defer f.Close()

	catalog, err := loadCatalog(f)
	if err != nil {
		return err
	}
	if viper.GetBool("dry-run") {
		logger.Info("catalog is valid",
			zap.Int("traits", len(catalog.Traits)),
			zap.Int("careers", len(catalog.Careers)),
			zap.Int("questions", len(catalog.Questions)),
		)
		return nil
	}

	dsn := viper.GetString("database-url")
	if dsn == "" {
		return fmt.Errorf("database url is required (--database-url or DATABASE_URL)")
	}
	pool, err := db.NewPool(ctx, &config.Config{DatabaseURL: dsn})
	if err != nil {
		return fmt.Errorf("db connect: %w", err)
	}
	defer pool.Close()

	if viper.GetBool("migrate") {
		if err := db.Migrate(ctx, pool); err != nil {
			return err
		}
	}
	return seed(ctx, pool, catalog, logger)
}

func seed(ctx context.Context, pool *pgxpool.Pool, catalog *seedCatalog, logger *zap.Logger) error {
	_, err := applyCatalog(ctx, repository.NewPgCatalogRepository(pool), catalog, logger)
	return err
}

func newLogger(debug bool) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	if debug {
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}
	return cfg.Build()
}
