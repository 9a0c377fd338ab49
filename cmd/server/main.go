package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/rs/cors"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/ledgerlift/backend/internal/artifact"
	"github.com/ledgerlift/backend/internal/extraction"
	"github.com/ledgerlift/backend/internal/prompt"
	"github.com/ledgerlift/backend/internal/service"
	"github.com/ledgerlift/backend/internal/store"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	if err := godotenv.Load(); err == nil {
		log.Println("Loaded configuration from .env")
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "8111"
	}

	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		log.Println("⚠️  GEMINI_API_KEY is not set - statement extraction will fail")
	}

	ctx := context.Background()

	var (
		st  store.Store
		err error
	)
	if os.Getenv("USE_MEMORY_STORE") == "true" {
		log.Println("Using in-memory store; runs will not survive a restart")
		st = store.NewMemoryStore()
	} else {
		dbPath := os.Getenv("DATABASE_PATH")
		if dbPath == "" {
			dbPath = "ledgerlift.db"
		}
		st, err = store.NewSQLiteStore(dbPath)
		if err != nil {
			log.Fatalf("Failed to open store at %s: %v", dbPath, err)
		}
		log.Printf("Using SQLite store at %s", dbPath)
	}
	defer st.Close()

	if err := seedDefaultPrompt(ctx, st); err != nil {
		log.Fatalf("Failed to seed default extraction prompt: %v", err)
	}

	artifactDir := os.Getenv("ARTIFACT_DIR")
	if artifactDir == "" {
		artifactDir = "artifacts"
	}
	artifacts, err := artifact.NewStore(artifactDir)
	if err != nil {
		log.Fatalf("Failed to create artifact store: %v", err)
	}

	completer := extraction.NewGeminiClient(apiKey, envSeconds("LLM_TIMEOUT_SECONDS", 60*time.Second))
	pipeline := extraction.NewPipeline(completer, st, extraction.PipelineConfig{
		MaxConcurrentPages: envInt("MAX_CONCURRENT_PAGES", 4),
		PipelineTimeout:    envSeconds("PIPELINE_TIMEOUT_SECONDS", 5*time.Minute),
	})

	svc := service.NewLedgerService(pipeline, st, artifacts)
	mux := svc.Routes()

	c := cors.New(cors.Options{
		AllowedOrigins: []string{
			"http://localhost:1234",
			"http://127.0.0.1:1234",
		},
		AllowedMethods: []string{
			http.MethodGet,
			http.MethodPost,
			http.MethodOptions,
		},
		AllowedHeaders: []string{"*"},
	})

	addr := ":" + port
	log.Printf("ledgerlift server listening on %s", addr)
	server := &http.Server{
		Addr:    addr,
		Handler: h2c.NewHandler(c.Handler(mux), &http2.Server{}),
	}
	if err := server.ListenAndServe(); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}

// seedDefaultPrompt guarantees the default prompt slot is populated: the
// pipeline fails closed without it, so an empty slot on boot is fatal.
func seedDefaultPrompt(ctx context.Context, st store.Store) error {
	existing, err := st.ActivePrompt(ctx, "")
	if err != nil {
		return err
	}
	if existing != nil {
		return nil
	}
	log.Println("Seeding default extraction prompt")
	return st.SavePrompt(ctx, prompt.DefaultPrompt(uuid.NewString()))
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
		log.Printf("Ignoring invalid %s=%q", key, v)
	}
	return fallback
}

func envSeconds(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return time.Duration(n) * time.Second
		}
		log.Printf("Ignoring invalid %s=%q", key, v)
	}
	return fallback
}
