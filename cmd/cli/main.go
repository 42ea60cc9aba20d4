package main

import (
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/idnofunny/backend/internal/database"
	"github.com/idnofunny/backend/internal/logger"
	"github.com/idnofunny/backend/internal/seed"
)

var rootCmd = &cobra.Command{
	Use:   "idnofunny",
	Short: "IDNOFunny admin CLI",
	Long:  "Administrative tasks for the IDNOFunny backend: migrations and seeding.",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if err := godotenv.Load(); err != nil {
			log.Println("Warning: .env file not found, using system environment variables")
		}
		logLevel := os.Getenv("LOG_LEVEL")
		if logLevel == "" {
			logLevel = "info"
		}
		if err := logger.Initialize(logLevel, os.Getenv("LOG_FILE")); err != nil {
			log.Fatalf("Failed to initialize logger: %v", err)
		}
		if err := database.Initialize(); err != nil {
			log.Fatalf("Failed to initialize database: %v", err)
		}
	},
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run database migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := database.Migrate(); err != nil {
			return fmt.Errorf("migrations failed: %w", err)
		}
		fmt.Println("Migrations complete")
		return nil
	},
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed default categories",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := seed.NewSeeder(database.DB).SeedCategories(); err != nil {
			return fmt.Errorf("seeding failed: %w", err)
		}
		fmt.Println("Categories seeded")
		return nil
	},
}

var seedDevCmd = &cobra.Command{
	Use:   "dev",
	Short: "Seed fake users, memes and social activity for development",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := database.Migrate(); err != nil {
			return fmt.Errorf("migrations failed: %w", err)
		}
		if err := seed.NewSeeder(database.DB).SeedDev(); err != nil {
			return fmt.Errorf("dev seeding failed: %w", err)
		}
		fmt.Println("Dev data seeded")
		return nil
	},
}

func main() {
	seedCmd.AddCommand(seedDevCmd)
	rootCmd.AddCommand(migrateCmd, seedCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
