package db

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/adamspd/FlashMind/models"
	"github.com/adamspd/FlashMind/utils"
)

const deckColumns = `
	d.id, d.user_id, d.title, d.difficulty, d.correct_answers, d.wrong_answers, d.created_at,
	(SELECT COUNT(*) FROM cards c WHERE c.deck_id = d.id) AS card_count`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanDeck(row rowScanner) (*models.Deck, error) {
	var d models.Deck
	err := row.Scan(&d.ID, &d.UserID, &d.Title, &d.Difficulty, &d.CorrectAnswers, &d.WrongAnswers,
		&d.CreatedAt, &d.CardCount)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// CreateDeckWithCards stores a deck and all of its cards in one transaction.
// Either everything is written or nothing is.
func (db *DB) CreateDeckWithCards(userID int, title, difficulty string, cards []models.GeneratedCard) (*models.GenerateResponse, error) {
	utils.LogDB("Creating deck '%s' (%s) with %d cards for user %d", title, difficulty, len(cards), userID)
	start := time.Now()

	if len(cards) == 0 {
		return nil, fmt.Errorf("deck must contain at least one card")
	}

	tx, err := db.Begin()
	if err != nil {
		utils.LogError("Failed to start transaction: %v", err)
		return nil, err
	}
	defer tx.Rollback()

	deckID, err := insertDeck(tx, userID, title, difficulty)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	stored := make([]models.Card, 0, len(cards))
	for i, gc := range cards {
		card, err := insertCard(tx, deckID, gc, now)
		if err != nil {
			utils.LogError("Failed to insert card %d/%d: %v", i+1, len(cards), err)
			return nil, err
		}
		stored = append(stored, *card)
	}

	if err := tx.Commit(); err != nil {
		utils.LogError("Failed to commit deck transaction: %v", err)
		return nil, err
	}

	utils.LogDB("Deck %d created with %d cards in %v", deckID, len(stored), time.Since(start))
	return &models.GenerateResponse{DeckID: deckID, Cards: stored}, nil
}

// ImportDeck validates and stores parsed cards. Invalid and duplicate cards
// are skipped and reported rather than failing the whole import.
func (db *DB) ImportDeck(userID int, title, difficulty string, cards []models.GeneratedCard) (*models.ImportResult, error) {
	utils.LogImport("Starting import of %d cards for user %d", len(cards), userID)
	start := time.Now()

	result := &models.ImportResult{
		TotalCards: len(cards),
		Errors:     make([]string, 0),
		Cards:      make([]models.Card, 0, len(cards)),
	}

	tx, err := db.Begin()
	if err != nil {
		utils.LogError("Failed to start transaction: %v", err)
		return nil, err
	}
	defer tx.Rollback()

	deckID, err := insertDeck(tx, userID, title, difficulty)
	if err != nil {
		return nil, err
	}
	result.DeckID = deckID

	seen := make(map[string]bool)
	now := time.Now().UTC()

	for i, c := range cards {
		if strings.TrimSpace(c.Question) == "" {
			errMsg := fmt.Sprintf("Card %d: empty question text", i+1)
			utils.LogImport("SKIP: %s", errMsg)
			result.Errors = append(result.Errors, errMsg)
			result.SkippedCards++
			continue
		}

		if strings.TrimSpace(c.Answer) == "" && strings.TrimSpace(c.Correct) == "" {
			errMsg := fmt.Sprintf("Card %d: empty answer", i+1)
			utils.LogImport("SKIP: %s", errMsg)
			result.Errors = append(result.Errors, errMsg)
			result.SkippedCards++
			continue
		}

		key := utils.NormalizeAnswer(c.Question)
		if seen[key] {
			errMsg := fmt.Sprintf("Card %d: duplicate question", i+1)
			utils.LogImport("SKIP: %s", errMsg)
			result.Errors = append(result.Errors, errMsg)
			result.SkippedCards++
			continue
		}

		card, err := insertCard(tx, deckID, c, now)
		if err != nil {
			errMsg := fmt.Sprintf("Card %d: database insert failed: %v", i+1, err)
			utils.LogError("%s", errMsg)
			result.Errors = append(result.Errors, errMsg)
			result.SkippedCards++
			continue
		}

		seen[key] = true
		result.ImportedCards++
		result.Cards = append(result.Cards, *card)
	}

	if result.ImportedCards == 0 {
		return nil, fmt.Errorf("no valid cards to import")
	}

	if err := tx.Commit(); err != nil {
		utils.LogError("Failed to commit transaction: %v", err)
		return nil, err
	}

	duration := time.Since(start)
	result.TimeTaken = duration.String()

	utils.LogImport("Import completed: %d imported, %d skipped, %d errors in %v",
		result.ImportedCards, result.SkippedCards, len(result.Errors), duration)

	return result, nil
}

func insertDeck(tx *sql.Tx, userID int, title, difficulty string) (int, error) {
	res, err := tx.Exec(`
		INSERT INTO decks (user_id, title, difficulty, created_at)
		VALUES (?, ?, ?, ?)
	`, userID, title, difficulty, time.Now().UTC())
	if err != nil {
		utils.LogError("Failed to insert deck: %v", err)
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return int(id), nil
}

func insertCard(tx *sql.Tx, deckID int, gc models.GeneratedCard, now time.Time) (*models.Card, error) {
	var optionsJSON sql.NullString
	if len(gc.Options) > 0 {
		b, err := json.Marshal(gc.Options)
		if err != nil {
			return nil, fmt.Errorf("marshal options: %w", err)
		}
		optionsJSON = sql.NullString{String: string(b), Valid: true}
	}

	res, err := tx.Exec(`
		INSERT INTO cards (deck_id, question, answer, options, correct, next_review, interval, reps, ease_factor)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, deckID, strings.TrimSpace(gc.Question), strings.TrimSpace(gc.Answer), optionsJSON,
		strings.TrimSpace(gc.Correct), now, models.DefaultInterval, 0, models.DefaultEaseFactor)
	if err != nil {
		return nil, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}

	return &models.Card{
		ID:         int(id),
		DeckID:     deckID,
		Question:   strings.TrimSpace(gc.Question),
		Answer:     strings.TrimSpace(gc.Answer),
		Options:    gc.Options,
		Correct:    strings.TrimSpace(gc.Correct),
		NextReview: now,
		Interval:   models.DefaultInterval,
		EaseFactor: models.DefaultEaseFactor,
	}, nil
}

func (db *DB) GetDecksForUser(userID int) ([]models.Deck, error) {
	utils.LogDB("Getting decks for user %d", userID)
	start := time.Now()

	rows, err := db.Query(`SELECT `+deckColumns+`
		FROM decks d
		WHERE d.user_id = ?
		ORDER BY d.created_at DESC, d.id DESC
	`, userID)
	if err != nil {
		utils.LogError("GetDecksForUser query failed: %v", err)
		return nil, err
	}
	defer rows.Close()

	decks := make([]models.Deck, 0)
	for rows.Next() {
		d, err := scanDeck(rows)
		if err != nil {
			utils.LogError("Failed to scan deck row: %v", err)
			return nil, err
		}
		decks = append(decks, *d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	utils.LogDB("GetDecksForUser completed: %d decks in %v", len(decks), time.Since(start))
	return decks, nil
}

// GetDeckForUser returns ErrNotFound both for missing decks and for decks
// owned by someone else.
func (db *DB) GetDeckForUser(deckID, userID int) (*models.Deck, error) {
	utils.LogDB("Executing query: GetDeckForUser(%d, %d)", deckID, userID)

	d, err := scanDeck(db.QueryRow(`SELECT `+deckColumns+`
		FROM decks d
		WHERE d.id = ? AND d.user_id = ?
	`, deckID, userID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			utils.LogDB("Deck ID %d not found for user %d", deckID, userID)
			return nil, ErrNotFound
		}
		utils.LogError("GetDeckForUser(%d) failed: %v", deckID, err)
		return nil, err
	}
	return d, nil
}

func (db *DB) DeleteDeck(deckID, userID int) error {
	utils.LogDB("Deleting deck ID %d", deckID)
	start := time.Now()

	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var owner int
	err = tx.QueryRow("SELECT user_id FROM decks WHERE id = ?", deckID).Scan(&owner)
	if err != nil || owner != userID {
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return err
		}
		return ErrNotFound
	}

	if _, err = tx.Exec("DELETE FROM attempts WHERE deck_id = ?", deckID); err != nil {
		utils.LogError("Failed to delete attempts for deck %d: %v", deckID, err)
		return err
	}

	if _, err = tx.Exec("DELETE FROM cards WHERE deck_id = ?", deckID); err != nil {
		utils.LogError("Failed to delete cards for deck %d: %v", deckID, err)
		return err
	}

	if _, err = tx.Exec("DELETE FROM decks WHERE id = ?", deckID); err != nil {
		utils.LogError("Failed to delete deck %d: %v", deckID, err)
		return err
	}

	if err = tx.Commit(); err != nil {
		utils.LogError("Failed to commit deck deletion transaction: %v", err)
		return err
	}

	utils.LogDB("Deck %d deleted in %v", deckID, time.Since(start))
	return nil
}

func (db *DB) GetUserStats(userID int, now time.Time) (*models.Stats, error) {
	utils.LogDB("Calculating stats for user %d", userID)
	start := time.Now()

	stats := &models.Stats{}

	err := db.QueryRow(`
		SELECT COUNT(*),
		       COALESCE(SUM(correct_answers), 0),
		       COALESCE(SUM(wrong_answers), 0)
		FROM decks WHERE user_id = ?
	`, userID).Scan(&stats.TotalDecks, &stats.Correct, &stats.Wrong)
	if err != nil {
		utils.LogError("Failed to get deck totals: %v", err)
		return nil, err
	}

	err = db.QueryRow(`
		SELECT COUNT(*),
		       COALESCE(SUM(CASE WHEN c.next_review <= ? THEN 1 ELSE 0 END), 0)
		FROM cards c
		JOIN decks d ON c.deck_id = d.id
		WHERE d.user_id = ?
	`, now.UTC(), userID).Scan(&stats.TotalCards, &stats.DueCards)
	if err != nil {
		utils.LogError("Failed to get card totals: %v", err)
		return nil, err
	}

	err = db.QueryRow(`
		SELECT COUNT(*) FROM attempts a
		JOIN decks d ON a.deck_id = d.id
		WHERE d.user_id = ?
	`, userID).Scan(&stats.Attempts)
	if err != nil {
		utils.LogError("Failed to count attempts: %v", err)
		return nil, err
	}

	utils.LogDB("Stats calculated for user %d: %d decks, %d/%d correct/wrong (%v)",
		userID, stats.TotalDecks, stats.Correct, stats.Wrong, time.Since(start))
	return stats, nil
}
