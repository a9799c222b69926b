package cmd

import (
	"fmt"

	"github.com/matthieukhl/storefront/internal/config"
	"github.com/matthieukhl/storefront/internal/database"
	"github.com/matthieukhl/storefront/internal/models"
	"github.com/spf13/cobra"
)

var cleanFirst bool

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Populate the storefront database with sample data",
	Long: `Populates the storefront tables with sample accounts and products.
Creates one salesperson (id 1, password "sales"), a handful of customers
(password "secret") and a small product catalog.`,
	RunE: seedDatabase,
}

func init() {
	rootCmd.AddCommand(seedCmd)

	seedCmd.Flags().BoolVar(&cleanFirst, "clean-first", false, "Delete existing data before seeding")
}

func seedDatabase(cmd *cobra.Command, args []string) error {
	fmt.Println("📊 Seeding storefront database...")

	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	db, err := database.NewConnection(&cfg.DB)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	if cleanFirst {
		fmt.Println("🗑️  Deleting existing data...")
		if err := db.CleanupData(); err != nil {
			return fmt.Errorf("failed to clean up data: %w", err)
		}
	}

	if err := populateSampleData(db); err != nil {
		return fmt.Errorf("failed to populate sample data: %w", err)
	}

	fmt.Println("✅ Sample data loaded!")
	return nil
}

func populateSampleData(db *database.DB) error {
	fmt.Println("   👥 Creating accounts...")
	if err := createAccounts(db); err != nil {
		return err
	}

	fmt.Println("   📦 Creating products...")
	if err := createProducts(db); err != nil {
		return err
	}

	return nil
}

func createAccounts(db *database.DB) error {
	// id 1 is the salesperson; customers start at 2
	if _, err := db.Exec(
		`INSERT INTO users (id, password, role) VALUES (?, ?, ?)`,
		1, "sales", models.RoleSales,
	); err != nil {
		return err
	}

	customers := []struct {
		id    int64
		name  string
		email string
	}{
		{2, "John Doe", "john.doe@email.com"},
		{3, "Jane Smith", "jane.smith@gmail.com"},
		{4, "Bob Wilson", "bob.wilson@yahoo.com"},
		{5, "Alice Brown", "alice.brown@hotmail.com"},
		{6, "Charlie Davis", "charlie.davis@outlook.com"},
	}

	for _, c := range customers {
		if _, err := db.Exec(
			`INSERT INTO users (id, password, role) VALUES (?, ?, ?)`,
			c.id, "secret", models.RoleCustomer,
		); err != nil {
			return err
		}
		if _, err := db.Exec(
			`INSERT INTO customers (id, name, email) VALUES (?, ?, ?)`,
			c.id, c.name, c.email,
		); err != nil {
			return err
		}
	}

	return nil
}

func createProducts(db *database.DB) error {
	products := []struct {
		name, description, category string
		price                       float64
		stockQty                    int
	}{
		{"Laptop Pro 15\"", "High-performance laptop for professionals", models.CategoryElectronics, 1299.99, 50},
		{"Wireless Mouse", "Ergonomic wireless mouse with USB receiver", models.CategoryElectronics, 29.99, 200},
		{"Programming Book", "Complete guide to modern software development", models.CategoryBooks, 49.99, 100},
		{"Cotton T-Shirt", "Premium cotton t-shirt, multiple sizes", models.CategoryClothing, 19.99, 500},
		{"Running Shoes", "Professional running shoes for athletes", models.CategorySports, 89.99, 150},
		{"Coffee Mug", "Ceramic coffee mug with company logo", models.CategoryHome, 9.99, 300},
		{"Smartphone Case", "Protective case for latest smartphone models", models.CategoryElectronics, 24.99, 400},
		{"Cookbook Collection", "Collection of international recipes", models.CategoryBooks, 34.99, 75},
		{"Winter Jacket", "Warm winter jacket, waterproof material", models.CategoryClothing, 129.99, 80},
		{"Yoga Mat", "Non-slip yoga mat for home workouts", models.CategorySports, 39.99, 120},
		{"LED Desk Lamp", "Adjustable LED lamp for office use", models.CategoryHome, 59.99, 60},
		{"Tablet Stand", "Adjustable stand for tablets and phones", models.CategoryElectronics, 19.99, 180},
		{"Mystery Novel", "Bestselling mystery novel by famous author", models.CategoryBooks, 12.99, 250},
		{"Business Shirt", "Professional dress shirt for business", models.CategoryClothing, 39.99, 200},
		{"Wooden Puzzle", "500-piece wooden jigsaw puzzle", models.CategoryToys, 24.99, 90},
	}

	for _, p := range products {
		if _, err := db.Exec(
			`INSERT INTO products (name, description, category, price, stock_qty) VALUES (?, ?, ?, ?, ?)`,
			p.name, p.description, p.category, p.price, p.stockQty,
		); err != nil {
			return err
		}
	}

	return nil
}
