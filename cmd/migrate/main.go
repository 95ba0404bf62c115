// Applies the database schema.
// How to run:
// go run cmd/migrate/main.go            # uses env vars / .env for the DSN
// go run cmd/migrate/main.go -dsn "..." # explicit DSN
package main

import (
	"flag"
	"log"

	"github.com/joho/godotenv"
	gormlogger "gorm.io/gorm/logger"

	"github.com/veltra/genflow/internal/config"
	"github.com/veltra/genflow/internal/db"
)

func main() {
	_ = godotenv.Load()

	dsnFlag := flag.String("dsn", "", "Database DSN (optional, defaults to env vars)")
	flag.Parse()

	dsn := *dsnFlag
	if dsn == "" {
		cfg, err := config.Load()
		if err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}
		dsn = cfg.DSN()
	}

	if _, err := db.New(db.Options{DSN: dsn, LogLevel: gormlogger.Info}); err != nil {
		log.Fatalf("Migration failed: %v", err)
	}

	log.Println("Migration complete")
}
