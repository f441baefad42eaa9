package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/scythe504/sketchguess-backend/internal/catalog"
)

var errNoDatabaseURL = errors.New("DATABASE_URL is not set")

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Manage the sketch catalog in Postgres",
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply catalog database migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, err := loadConfig()
		if err != nil {
			return err
		}
		if cfg.DatabaseURL == "" {
			return errNoDatabaseURL
		}

		if err := catalog.Migrate(cmd.Context(), cfg.DatabaseURL); err != nil {
			return err
		}
		log.Info("Catalog migrations applied")
		return nil
	},
}

var importCmd = &cobra.Command{
	Use:   "import [file]",
	Short: "Upsert sketches from a JSON or CSV file into Postgres",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, err := loadConfig()
		if err != nil {
			return err
		}
		if cfg.DatabaseURL == "" {
			return errNoDatabaseURL
		}

		path := cfg.CatalogPath
		if len(args) == 1 {
			path = args[0]
		}
		sketches, err := catalog.Load(path, log)
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		if err := catalog.Migrate(ctx, cfg.DatabaseURL); err != nil {
			return err
		}
		store, err := catalog.NewStore(ctx, cfg.DatabaseURL, log)
		if err != nil {
			return err
		}
		defer store.Close()

		n, err := store.Upsert(ctx, sketches)
		if err != nil {
			return fmt.Errorf("import %s: %w", path, err)
		}
		log.Info("Catalog imported", "path", path, "sketches", n)
		return nil
	},
}

func init() {
	catalogCmd.AddCommand(migrateCmd, importCmd)
	rootCmd.AddCommand(catalogCmd)
}
