package main

import (
	"database/sql"
	"delivery-route-optimizer/internal/adapters/repositories"
	"delivery-route-optimizer/internal/config"
	"delivery-route-optimizer/internal/platform/db"
	"fmt"

	"github.com/spf13/cobra"
)

var cfgPath string

var rootCmd = &cobra.Command{
	Use:          "dbtool",
	Short:        "Database maintenance for the route optimizer",
	SilenceUsage: true,
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create tables and indexes",
	RunE:  runInit,
}

var seedCmd = &cobra.Command{
	Use:   "seed [orders.json]",
	Short: "Initialize the schema and load orders from a JSON file",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runSeed,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "configuration file (yaml or json)")
	rootCmd.AddCommand(initCmd, seedCmd)
}

func openConfigured(cmd *cobra.Command) (*config.Config, *sql.DB, error) {
	if err := config.LoadDotEnv(); err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "load .env: %v\n", err)
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, nil, err
	}
	conn, err := db.Open(cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		return nil, nil, err
	}
	return cfg, conn, nil
}

func runInit(cmd *cobra.Command, _ []string) error {
	_, conn, err := openConfigured(cmd)
	if err != nil {
		return err
	}
	defer conn.Close()

	if err := repositories.InitSchema(cmd.Context(), conn); err != nil {
		return fmt.Errorf("schema initialization failed: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Schema ready.")
	return nil
}

func runSeed(cmd *cobra.Command, args []string) error {
	cfg, conn, err := openConfigured(cmd)
	if err != nil {
		return err
	}
	defer conn.Close()

	seedPath := cfg.Database.SeedPath
	if len(args) == 1 {
		seedPath = args[0]
	}

	ctx := cmd.Context()
	if err := repositories.InitSchema(ctx, conn); err != nil {
		return fmt.Errorf("schema initialization failed: %w", err)
	}

	repo := repositories.NewSQLOrderRepository(conn, cfg.Database.Driver)
	n, err := repositories.SeedFromJSON(ctx, repo, seedPath)
	if err != nil {
		return fmt.Errorf("seeding failed: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Seeded %d orders from %s.\n", n, seedPath)
	return nil
}
