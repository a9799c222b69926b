package cmd

import (
	"fmt"

	"github.com/matthieukhl/storefront/internal/config"
	"github.com/matthieukhl/storefront/internal/database"
	"github.com/spf13/cobra"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Check configuration and database connectivity",
	RunE:  checkSetup,
}

func init() {
	rootCmd.AddCommand(checkCmd)
}

func checkSetup(cmd *cobra.Command, args []string) error {
	fmt.Println("🔍 Checking storefront setup...")

	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	fmt.Println("✅ Configuration loaded")

	db, err := database.NewConnection(&cfg.DB)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	if err := db.HealthCheck(); err != nil {
		return fmt.Errorf("database health check failed: %w", err)
	}
	fmt.Println("✅ Database reachable")

	var products int
	if err := db.QueryRow(`SELECT COUNT(*) FROM products`).Scan(&products); err != nil {
		fmt.Println("⚠️  Schema not set up yet, run 'storefront setup'")
		return nil
	}
	fmt.Printf("✅ Schema present (%d products in catalog)\n", products)

	return nil
}
