package db

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/adamspd/FlashMind/utils"
	"github.com/mattn/go-sqlite3"
)

var (
	ErrNotFound   = errors.New("not found")
	ErrEmailTaken = errors.New("email already registered")

	ErrInvalidCredentials = errors.New("invalid credentials")
)

type DB struct {
	*sql.DB
}

func InitDB(dbPath string) (*DB, error) {
	utils.LogStartup("Initializing database at: %s", dbPath)

	db, err := sql.Open("sqlite3", withForeignKeys(dbPath))
	if err != nil {
		utils.LogError("Failed to open database: %v", err)
		return nil, err
	}

	if err := db.Ping(); err != nil {
		utils.LogError("Failed to ping database: %v", err)
		db.Close()
		return nil, err
	}

	utils.LogStartup("Database connection established")

	if err := createTables(db); err != nil {
		utils.LogError("Failed to create tables: %v", err)
		db.Close()
		return nil, err
	}

	utils.LogStartup("Database tables initialized successfully")
	return &DB{db}, nil
}

func withForeignKeys(dsn string) string {
	if strings.Contains(dsn, "_foreign_keys") || strings.Contains(dsn, "_fk=") {
		return dsn
	}
	if strings.Contains(dsn, "?") {
		return dsn + "&_foreign_keys=on"
	}
	return dsn + "?_foreign_keys=on"
}

func createTables(db *sql.DB) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			email TEXT UNIQUE NOT NULL COLLATE NOCASE,
			password_hash TEXT NOT NULL,
			created_at DATETIME NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS decks (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id INTEGER NOT NULL,
			title TEXT NOT NULL,
			difficulty TEXT NOT NULL DEFAULT 'easy' CHECK (difficulty IN ('easy', 'medium', 'hard')),
			correct_answers INTEGER NOT NULL DEFAULT 0,
			wrong_answers INTEGER NOT NULL DEFAULT 0,
			created_at DATETIME NOT NULL,
			FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
		)`,

		`CREATE TABLE IF NOT EXISTS cards (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			deck_id INTEGER NOT NULL,
			question TEXT NOT NULL,
			answer TEXT NOT NULL DEFAULT '',
			options TEXT, -- JSON array or NULL for plain flashcards
			correct TEXT NOT NULL DEFAULT '',
			next_review DATETIME NOT NULL,
			interval INTEGER NOT NULL DEFAULT 1,
			reps INTEGER NOT NULL DEFAULT 0,
			ease_factor INTEGER NOT NULL DEFAULT 2,
			FOREIGN KEY (deck_id) REFERENCES decks(id) ON DELETE CASCADE
		)`,

		`CREATE TABLE IF NOT EXISTS attempts (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			deck_id INTEGER NOT NULL,
			correct INTEGER NOT NULL CHECK (correct >= 0),
			wrong INTEGER NOT NULL CHECK (wrong >= 0),
			created_at DATETIME NOT NULL,
			FOREIGN KEY (deck_id) REFERENCES decks(id) ON DELETE CASCADE
		)`,
	}

	for i, query := range queries {
		utils.LogDB("Creating table %d/%d", i+1, len(queries))
		if _, err := db.Exec(query); err != nil {
			return fmt.Errorf("failed to create table: %w", err)
		}
	}

	indexes := []string{
		"CREATE INDEX IF NOT EXISTS idx_decks_user_id ON decks(user_id)",
		"CREATE INDEX IF NOT EXISTS idx_cards_deck_id ON cards(deck_id)",
		"CREATE INDEX IF NOT EXISTS idx_cards_next_review ON cards(next_review)",
		"CREATE INDEX IF NOT EXISTS idx_attempts_deck_id ON attempts(deck_id)",
	}

	for _, index := range indexes {
		if _, err := db.Exec(index); err != nil {
			utils.LogDB("Failed to create index (non-fatal): %v", err)
		}
	}

	return nil
}

func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique
	}
	return false
}
