package db

import (
	"fmt"
	"time"

	"github.com/adamspd/FlashMind/models"
	"github.com/adamspd/FlashMind/utils"
)

// RecordAttempt stores a study result and adds it to the deck's running
// tallies in the same transaction.
func (db *DB) RecordAttempt(deckID, userID int, req models.AttemptRequest) (*models.Attempt, error) {
	utils.LogDB("Recording attempt for deck %d: correct=%d wrong=%d", deckID, req.Correct, req.Wrong)

	if req.Correct < 0 || req.Wrong < 0 {
		return nil, fmt.Errorf("correct and wrong must not be negative")
	}
	if req.Correct > models.MaxAttemptCount || req.Wrong > models.MaxAttemptCount {
		return nil, fmt.Errorf("correct and wrong must be at most %d", models.MaxAttemptCount)
	}

	tx, err := db.Begin()
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	res, err := tx.Exec(`
		UPDATE decks
		SET correct_answers = correct_answers + ?, wrong_answers = wrong_answers + ?
		WHERE id = ? AND user_id = ?
	`, req.Correct, req.Wrong, deckID, userID)
	if err != nil {
		utils.LogError("Failed to update deck tallies: %v", err)
		return nil, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, ErrNotFound
	}

	now := time.Now().UTC()
	res, err = tx.Exec(`
		INSERT INTO attempts (deck_id, correct, wrong, created_at)
		VALUES (?, ?, ?, ?)
	`, deckID, req.Correct, req.Wrong, now)
	if err != nil {
		utils.LogError("Failed to insert attempt: %v", err)
		return nil, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		utils.LogError("Failed to commit attempt transaction: %v", err)
		return nil, err
	}

	return &models.Attempt{
		ID:        int(id),
		DeckID:    deckID,
		Correct:   req.Correct,
		Wrong:     req.Wrong,
		Timestamp: now,
	}, nil
}

func (db *DB) GetAttempts(deckID int) ([]models.Attempt, error) {
	utils.LogDB("Getting attempts for deck %d", deckID)

	rows, err := db.Query(`
		SELECT id, deck_id, correct, wrong, created_at
		FROM attempts
		WHERE deck_id = ?
		ORDER BY created_at DESC, id DESC
	`, deckID)
	if err != nil {
		utils.LogError("GetAttempts query failed: %v", err)
		return nil, err
	}
	defer rows.Close()

	attempts := make([]models.Attempt, 0)
	for rows.Next() {
		var a models.Attempt
		if err := rows.Scan(&a.ID, &a.DeckID, &a.Correct, &a.Wrong, &a.Timestamp); err != nil {
			utils.LogError("Failed to scan attempt row: %v", err)
			return nil, err
		}
		attempts = append(attempts, a)
	}
	return attempts, rows.Err()
}
