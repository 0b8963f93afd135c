package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"schnicken/internal/db"
	"schnicken/internal/logger"
	"schnicken/internal/repository"

	"github.com/joho/godotenv"
)

func main() {
	apply := flag.Bool("apply", false, "apply migrations")
	flag.Parse()

	if !*apply {
		names, err := repository.MigrationNames()
		if err != nil {
			logger.Fatal("read migrations", "error", err)
		}
		for _, name := range names {
			fmt.Println(name)
		}
		return
	}

	// only DATABASE_URL is needed here
	_ = godotenv.Load()
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		logger.Fatal("DATABASE_URL not set")
	}

	ctx := context.Background()
	pool, err := db.Connect(ctx, dsn)
	if err != nil {
		logger.Fatal("connect", "error", err)
	}
	defer pool.Close()

	applied, err := repository.Migrate(ctx, pool)
	if err != nil {
		logger.Fatal("migrate", "error", err)
	}
	for _, name := range applied {
		fmt.Printf("applied %s\n", name)
	}
	if len(applied) == 0 {
		fmt.Println("nothing to apply")
	}
}
