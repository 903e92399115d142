// Command migrate applies the task queue schema to the configured database.
package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"time"

	_ "github.com/lib/pq"
	"github.com/spf13/cobra"

	"github.com/kosarica/network-optimizer/config"
	"github.com/kosarica/network-optimizer/internal/database"
)

var (
	databaseURL string
	checkOnly   bool
)

var rootCmd = &cobra.Command{
	Use:           "migrate",
	Short:         "Apply the task queue schema",
	Long:          "Apply the task queue schema. The statements are idempotent and safe to rerun.",
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          run,
}

func init() {
	rootCmd.Flags().StringVar(&databaseURL, "database-url", "", "Postgres URL (default from config or DATABASE_URL)")
	rootCmd.Flags().BoolVar(&checkOnly, "check", false, "only test the connection")
}

func run(cmd *cobra.Command, args []string) error {
	url := databaseURL
	if url == "" {
		cfg, err := config.Load("")
		if err != nil {
			return err
		}
		url = cfg.Database.URL
	}
	if url == "" {
		return fmt.Errorf("no database URL: set DATABASE_URL or --database-url")
	}

	db, err := sql.Open("postgres", url)
	if err != nil {
		return fmt.Errorf("open connection: %w", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(cmd.Context(), time.Minute)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	if checkOnly {
		fmt.Println("Connection successful")
		return nil
	}

	if _, err := db.ExecContext(ctx, database.Schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	fmt.Println("Schema applied")
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
