package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/samirrijal/nearbite/internal/adapters/postgres"
	"github.com/samirrijal/nearbite/internal/pkg/config"
	"github.com/samirrijal/nearbite/internal/pkg/logging"
)

func main() {
	if len(os.Args) < 2 {
		log.Fatal("usage: migrate <up|down|list>")
	}
	_ = godotenv.Load()

	cfg, err := config.Load("nearbite-migrate")
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logging.Setup("nearbite-migrate", cfg.Log.Level, "text")

	cmd := os.Args[1]
	if cmd == "list" {
		for _, dir := range []string{"up", "down"} {
			files, err := postgres.MigrationFiles(dir)
			if err != nil {
				log.Fatalf("list %s: %v", dir, err)
			}
			fmt.Printf("%-4s %s\n", dir, strings.Join(files, " "))
		}
		return
	}
	if cmd != "up" && cmd != "down" {
		log.Fatalf("unknown command: %s", cmd)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	db, err := postgres.New(ctx, cfg.Database.DSN())
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer db.Close()

	if err := postgres.Migrate(ctx, db, cmd); err != nil {
		log.Fatalf("migrate %s: %v", cmd, err)
	}
	log.Printf("all %s migrations applied", cmd)
}
