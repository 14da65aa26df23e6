package main

import (
	"database/sql"
	"encoding/json"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	_ "github.com/mattn/go-sqlite3"

	"github.com/questionoftheday/qotd/internal/api"
	"github.com/questionoftheday/qotd/internal/db"
	"github.com/questionoftheday/qotd/internal/middleware"
	"github.com/questionoftheday/qotd/internal/services"
	"github.com/questionoftheday/qotd/internal/sheets"
	"github.com/questionoftheday/qotd/internal/utils"
)

func main() {
	// Local development convenience; missing .env is fine.
	_ = godotenv.Load()

	addr := utils.SafeEnv("QOTD_ADDR", ":8080")
	sqlitePath := utils.SafeEnv("QOTD_SQLITE_PATH", "data/qotd.db")
	offsetHours := envInt("QOTD_UTC_OFFSET", 1)

	if dir := filepath.Dir(sqlitePath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			log.Fatalf("create sqlite dir: %v", err)
		}
	}
	dsn := "file:" + filepath.ToSlash(sqlitePath) + "?cache=shared&_busy_timeout=5000&_foreign_keys=on"
	sqlDB, err := sql.Open("sqlite3", dsn)
	if err != nil {
		log.Fatalf("open sqlite: %v", err)
	}
	if err := db.RunMigrations(sqlDB, os.Getenv("QOTD_MIGRATIONS_DIR")); err != nil {
		log.Fatalf("migrate: %v", err)
	}
	store, err := db.NewSQLiteStore(sqlDB)
	if err != nil {
		log.Fatalf("init store: %v", err)
	}

	sheet := sheets.NewClient(sheets.Config{
		SpreadsheetID: os.Getenv("QOTD_SHEET_ID"),
		Token:         os.Getenv("QOTD_SHEETS_TOKEN"),
		QuestionRange: os.Getenv("QOTD_QUESTION_RANGE"),
		AnswerRange:   os.Getenv("QOTD_ANSWER_RANGE"),
		AnswerSheetID: int64(envInt("QOTD_ANSWER_SHEET_ID", 0)),
	})

	mirror := services.NewMirror(sheet, services.ParsePlacement(os.Getenv("QOTD_MIRROR_PLACEMENT")), offsetHours)
	syncSvc := services.NewSyncService(sheet, store)
	questionSvc := services.NewQuestionService(store, offsetHours)
	answerSvc := services.NewAnswerService(store, mirror, offsetHours)
	adminSvc := services.NewAdminService(os.Getenv("QOTD_ADMIN_PASSWORD_HASH"), middleware.SignToken)

	// Sync once at startup so the store serves fresh content immediately.
	// A failure here is logged, not fatal: the previous question set (if
	// any) stays callable.
	if n, err := syncSvc.Sync(); err != nil {
		log.Printf("startup sync failed: %v", err)
	} else {
		log.Printf("startup sync loaded %d questions", n)
	}

	// Optional periodic resync; scheduling lives out here, not in the
	// engine.
	if raw := os.Getenv("QOTD_SYNC_INTERVAL"); raw != "" {
		interval, err := time.ParseDuration(raw)
		if err != nil || interval <= 0 {
			log.Printf("invalid QOTD_SYNC_INTERVAL=%q: %v", raw, err)
		} else {
			go func() {
				for range time.Tick(interval) {
					if n, err := syncSvc.Sync(); err != nil {
						log.Printf("scheduled sync failed: %v", err)
					} else {
						log.Printf("scheduled sync loaded %d questions", n)
					}
				}
			}()
		}
	}

	mux := http.NewServeMux()
	api.NewRouter(questionSvc, answerSvc, syncSvc, adminSvc, store,
		api.ParseDedupPolicy(os.Getenv("QOTD_DEDUP_POLICY")), offsetHours).Register(mux)
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"ok": true, "name": "QOTD API"})
	})

	// Static frontend, if bundled.
	if staticDir := os.Getenv("QOTD_STATIC_DIR"); staticDir != "" {
		mux.Handle("/", http.FileServer(http.Dir(staticDir)))
	}

	handler := middleware.NoStore(middleware.CORS(mux))

	log.Printf("QOTD server listening on %s", addr)
	if err := http.ListenAndServe(addr, handler); err != nil {
		log.Fatalf("server error: %v", err)
	}
}

func envInt(key string, fallback int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		log.Printf("invalid %s=%q, using %d", key, raw, fallback)
		return fallback
	}
	return n
}
