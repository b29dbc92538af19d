package main

import (
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"

	"github.com/BigZorin/coachdesk/internal/assistant"
	"github.com/BigZorin/coachdesk/internal/database"
	"github.com/BigZorin/coachdesk/internal/handlers"
	"github.com/BigZorin/coachdesk/internal/knowledge"
	"github.com/BigZorin/coachdesk/internal/models"
	"github.com/BigZorin/coachdesk/internal/notify"
	"github.com/BigZorin/coachdesk/internal/scheduler"
)

func main() {
	// Optional .env file for local development; missing is fine.
	if err := godotenv.Load(); err == nil {
		log.Println("Loaded .env")
	}

	// Determine database path — default to ./coachdesk.db, override with COACHDESK_DB_PATH.
	dbPath := os.Getenv("COACHDESK_DB_PATH")
	if dbPath == "" {
		dbPath = "coachdesk.db"
	}

	// Determine listen address — default to :8080, override with COACHDESK_ADDR.
	addr := os.Getenv("COACHDESK_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	// Open database and run migrations.
	db, err := database.Open(dbPath)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	if err := database.RunMigrations(db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	log.Printf("Database ready: %s", filepath.Clean(dbPath))

	// Make sure the secret key used for sensitive settings exists.
	if _, source, err := models.GetOrCreateSecretKey(db); err != nil {
		log.Fatalf("Failed to initialize secret key: %v", err)
	} else {
		log.Printf("Secret key source: %s", source)
	}

	// Bootstrap the first coach if none exist.
	if err := bootstrapCoach(db); err != nil {
		log.Fatalf("Failed to bootstrap coach: %v", err)
	}

	// Shared adapters. The knowledge service is optional and both adapters
	// degrade to no-ops when it is not configured.
	retriever := knowledge.NewRetriever(db)
	ingestor := knowledge.NewIngestor(db)
	notifier := &notify.Service{DB: db}

	h := &handlers.Handler{
		DB:        db,
		Knowledge: retriever,
		Ingest:    ingestor,
		Notify:    notifier,
	}

	// Background weekly-report generation.
	sched := scheduler.New(db, retriever, ingestor, notifier)
	sched.Start()
	defer sched.Stop()

	if !models.IsAssistantConfigured(db) {
		log.Println("Assistant not configured; chat, insight, and report endpoints will return 503")
	} else if provider, err := assistant.NewProviderFromSettings(db); err == nil {
		log.Printf("Assistant provider: %s", provider.Name())
	}

	log.Printf("%s listening on %s", models.GetAppName(db), addr)
	if err := http.ListenAndServe(addr, h.Router()); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}

// bootstrapCoach creates the initial coach from environment variables if no
// coaches exist in the database.
func bootstrapCoach(db *sql.DB) error {
	coaches, err := models.ListCoaches(db)
	if err != nil {
		return fmt.Errorf("list coaches: %w", err)
	}
	if len(coaches) > 0 {
		return nil
	}

	name := os.Getenv("COACHDESK_COACH_NAME")
	email := os.Getenv("COACHDESK_COACH_EMAIL")
	if name == "" {
		return fmt.Errorf("no coaches exist and COACHDESK_COACH_NAME env var is not set")
	}

	coach, err := models.CreateCoach(db, name, email)
	if err != nil {
		return fmt.Errorf("create coach: %w", err)
	}

	log.Printf("Bootstrapped coach: %s (id=%d)", coach.Name, coach.ID)
	return nil
}
