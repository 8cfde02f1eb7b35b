package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/vncsmyrnk/livepoll/internal/adapters/repository/postgres"
)

// Usage: migrations [flags] up
//
//	migrations [flags] down <migration name>
func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	var cfg postgres.Config
	flag.StringVar(&cfg.Host, "db-host", os.Getenv("POSTGRES_HOST"), "Database host")
	flag.StringVar(&cfg.Port, "db-port", os.Getenv("POSTGRES_PORT"), "Database port")
	flag.StringVar(&cfg.User, "db-user", os.Getenv("POSTGRES_USER"), "Database user")
	flag.StringVar(&cfg.Password, "db-pass", os.Getenv("POSTGRES_PASSWORD"), "Database password")
	flag.StringVar(&cfg.Name, "db-name", os.Getenv("POSTGRES_DB"), "Database name")
	flag.Parse()

	if flag.NArg() < 1 {
		log.Fatal("a direction is required: up, or down <migration name>")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	db, err := postgres.Open(ctx, cfg.DSN(), 30*time.Second)
	if err != nil {
		log.Fatal(err)
	}
	defer db.Close()

	switch flag.Arg(0) {
	case "up":
		err = postgres.Migrate(ctx, db)
	case "down":
		if flag.NArg() < 2 {
			log.Fatal("a migration name is required.")
		}
		err = postgres.Rollback(ctx, db, flag.Arg(1))
	default:
		log.Fatalf("unknown direction %q", flag.Arg(0))
	}
	if err != nil {
		log.Fatalf("Failed to execute migration: %v", err)
	}

	fmt.Println("Migration executed successfully.")
}
