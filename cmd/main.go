package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/KAsare1/Yatube-server/cmd/api"
	"github.com/KAsare1/Yatube-server/cmd/config"
	"github.com/KAsare1/Yatube-server/cmd/models"
	"github.com/KAsare1/Yatube-server/cmd/utils"
	"github.com/KAsare1/Yatube-server/db"
	"gorm.io/gorm"
)

func main() {
	cfg := config.Load()

	// Check for command-line arguments
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "serve":
		case "migrate":
			runMigrations(cfg)
			return
		case "clear-db":
			runDatabaseClear(cfg)
			return
		case "seed-groups":
			runSeedGroups(cfg, os.Args[2:])
			return
		default:
			log.Fatalf("Unknown command: %s", os.Args[1])
		}
	}

	startServer(cfg)
}

func openDatabase(cfg *config.Config) *gorm.DB {
	DB, err := db.NewStorage(cfg)
	if err != nil {
		log.Fatalf("Database initialization error: %v", err)
	}
	log.Printf("Connected to the %s database", cfg.DBDriver)
	return DB
}

func closeDatabase(DB *gorm.DB) {
	if sqlDB, err := DB.DB(); err == nil {
		sqlDB.Close()
		log.Println("Database connection closed")
	}
}

func runMigrations(cfg *config.Config) {
	DB := openDatabase(cfg)
	defer closeDatabase(DB)

	log.Println("Starting database migrations...")
	if err := db.Migrate(DB); err != nil {
		log.Fatalf("Migration error: %v", err)
	}

	dir := cfg.MediaRoot + "/" + utils.ImageDir
	if err := createDirectoryIfNotExist(dir); err != nil {
		log.Fatalf("Error creating directory %s: %v", dir, err)
	}
	log.Printf("Directory %s created/verified", dir)
	log.Println("Migrations completed successfully")
}

func createDirectoryIfNotExist(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := os.MkdirAll(path, 0755); err != nil {
			return fmt.Errorf("could not create directory %s: %w", path, err)
		}
	}
	return nil
}

func startServer(cfg *config.Config) {
	if cfg.SecretKey == "" {
		log.Fatal("SECRET_KEY must be set")
	}

	DB := openDatabase(cfg)
	defer closeDatabase(DB)

	var mailer utils.Mailer = utils.LogMailer{}
	if cfg.SMTPHost != "" {
		mailer = &utils.SMTPMailer{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			User:     cfg.SMTPUser,
			Password: cfg.SMTPPass,
		}
	} else {
		log.Println("SMTP_HOST not set, password reset mail will be logged")
	}

	// Graceful shutdown setup
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	server := api.NewApiServer(cfg, DB, mailer)
	if err := server.Run(ctx); err != nil {
		log.Fatalf("Server error: %v", err)
	}
	log.Println("Server stopped")
}

func runDatabaseClear(cfg *config.Config) {
	DB := openDatabase(cfg)
	defer closeDatabase(DB)

	log.Println("Preparing to clear database...")

	var confirmation string
	fmt.Print("Are you sure you want to clear the database? (yes/no): ")
	fmt.Scanln(&confirmation)

	if confirmation != "yes" {
		log.Println("Database clearing cancelled.")
		return
	}

	var tableNames string
	fmt.Print("Enter table names to clear (comma separated) or leave blank to clear all: ")
	fmt.Scanln(&tableNames)

	var tables []interface{}
	if tableNames != "" {
		for _, name := range strings.Split(tableNames, ",") {
			model, ok := db.ModelByName(strings.TrimSpace(name))
			if !ok {
				log.Printf("Unknown table: %s", name)
				continue
			}
			tables = append(tables, model)
		}
		if len(tables) == 0 {
			log.Println("No known tables given, nothing to clear.")
			return
		}
	}

	if err := db.Drop(DB, tables...); err != nil {
		log.Fatalf("Error clearing database: %v", err)
	}
	log.Println("Database cleared successfully")
}

// runSeedGroups creates or renames groups given as slug:title arguments.
func runSeedGroups(cfg *config.Config, args []string) {
	if len(args) == 0 {
		log.Fatal("Usage: seed-groups slug:Title [slug:Title ...]")
	}

	DB := openDatabase(cfg)
	defer closeDatabase(DB)

	for _, arg := range args {
		slug, title, ok := strings.Cut(arg, ":")
		slug = strings.TrimSpace(slug)
		if !ok || slug == "" || strings.TrimSpace(title) == "" {
			log.Printf("Skipping %q: expected slug:title", arg)
			continue
		}

		group := models.Group{Slug: slug}
		if err := DB.Where(models.Group{Slug: slug}).
			Assign(models.Group{Title: strings.TrimSpace(title)}).
			FirstOrCreate(&group).Error; err != nil {
			log.Fatalf("Error seeding group %s: %v", slug, err)
		}
		log.Printf("Group %s (%s) ready", group.Slug, group.Title)
	}
}
