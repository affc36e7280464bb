// Command migrator applies the sizing-history schema (db/migrations) to
// the Postgres instance named by the DB_* environment variables.
package main

import (
	"database/sql"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/lib/pq"
)

func main() {
	upCmd := flag.Bool("up", false, "Apply all pending migrations")
	downCmd := flag.Bool("down", false, "Roll the schema all the way back")
	stepsCmd := flag.Int("steps", 0, "Apply +/- N migration steps")
	sourceDir := flag.String("path", "db/migrations", "Migration source directory")
	flag.Parse()

	host := envOr("DB_HOST", "localhost")
	port := envOr("DB_PORT", "5432")
	sslmode := envOr("DB_SSLMODE", "disable")
	user := os.Getenv("DB_USER")
	password := os.Getenv("DB_PASSWORD")
	dbname := os.Getenv("DB_NAME")

	connStr := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s", user, password, host, port, dbname, sslmode)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		log.Fatalf("DB open error: %v", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		log.Fatalf("DB ping error: %v", err)
	}

	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		log.Fatalf("Migrate driver error: %v", err)
	}
	m, err := migrate.NewWithDatabaseInstance("file://"+*sourceDir, "postgres", driver)
	if err != nil {
		log.Fatalf("Migrate init error: %v", err)
	}

	start := time.Now()
	switch {
	case *upCmd:
		log.Println("Applying project-history migrations...")
		if err := m.Up(); err != nil && err != migrate.ErrNoChange {
			log.Fatalf("Migration up failed: %v", err)
		}
		log.Println("Schema is up to date.")
	case *downCmd:
		log.Println("Rolling back project-history migrations...")
		if err := m.Down(); err != nil && err != migrate.ErrNoChange {
			log.Fatalf("Migration down failed: %v", err)
		}
		log.Println("Schema rolled back.")
	case *stepsCmd != 0:
		log.Printf("Applying %d migration step(s)...", *stepsCmd)
		if err := m.Steps(*stepsCmd); err != nil && err != migrate.ErrNoChange {
			log.Fatalf("Migration steps failed: %v", err)
		}
		log.Println("Steps applied.")
	default:
		log.Println("No command specified. Use -up, -down, or -steps.")
		version, dirty, err := m.Version()
		if err != nil {
			log.Println("No schema version recorded (empty database?).")
		} else {
			log.Printf("Current version: %d, dirty: %v", version, dirty)
		}
	}
	log.Printf("Duration: %v", time.Since(start))
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
