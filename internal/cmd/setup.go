package cmd

import (
	"fmt"

	"github.com/matthieukhl/storefront/internal/config"
	"github.com/matthieukhl/storefront/internal/database"
	"github.com/spf13/cobra"
)

var (
	dropFirst  bool
	schemaOnly bool
)

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Set up the storefront database schema and sample data",
	Long: `Creates the storefront tables (users, customers, sessions, products,
cart_items, orders, order_lines, searches, product_views) and populates them
with sample accounts and products.`,
	RunE: setupDatabase,
}

func init() {
	rootCmd.AddCommand(setupCmd)

	setupCmd.Flags().BoolVar(&dropFirst, "drop-first", false, "Drop existing tables before creating")
	setupCmd.Flags().BoolVar(&schemaOnly, "schema-only", false, "Create schema only, skip sample data")
}

func setupDatabase(cmd *cobra.Command, args []string) error {
	fmt.Println("🔧 Setting up storefront database...")

	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	db, err := database.NewConnection(&cfg.DB)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	// Drop tables if requested
	if dropFirst {
		fmt.Println("🗑️  Dropping existing tables...")
		if err := db.DropSchema(); err != nil {
			return fmt.Errorf("failed to drop schema: %w", err)
		}
	}

	// Create schema
	fmt.Println("📋 Creating schema...")
	if err := db.SetupSchema(); err != nil {
		return fmt.Errorf("failed to setup schema: %w", err)
	}

	if !schemaOnly {
		fmt.Println("📊 Populating with sample data...")
		if err := populateSampleData(db); err != nil {
			return fmt.Errorf("failed to populate sample data: %w", err)
		}
	}

	fmt.Println("✅ Storefront database setup complete!")
	return nil
}
