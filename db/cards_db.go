package db

import (
	"database/sql"
	"encoding/json"
	"errors"
	"math/rand"
	"time"

	"github.com/adamspd/FlashMind/models"
	"github.com/adamspd/FlashMind/utils"
)

// shuffleOptions returns the options in random order. The stored order is
// left untouched.
func shuffleOptions(options []string) []string {
	if len(options) <= 1 {
		return options
	}

	shuffled := make([]string, len(options))
	copy(shuffled, options)

	for i := len(shuffled) - 1; i > 0; i-- {
		j := rand.Intn(i + 1)
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	}

	return shuffled
}

func scanCard(row rowScanner) (*models.Card, error) {
	var c models.Card
	var optionsJSON sql.NullString

	err := row.Scan(&c.ID, &c.DeckID, &c.Question, &c.Answer, &optionsJSON, &c.Correct,
		&c.NextReview, &c.Interval, &c.Reps, &c.EaseFactor)
	if err != nil {
		return nil, err
	}

	if optionsJSON.Valid && optionsJSON.String != "" {
		if err := json.Unmarshal([]byte(optionsJSON.String), &c.Options); err != nil {
			utils.LogError("Failed to unmarshal options for card %d: %v", c.ID, err)
			c.Options = nil
		}
	}
	return &c, nil
}

// GetCardsForDeck lists a deck's cards in insertion order with quiz options
// shuffled.
func (db *DB) GetCardsForDeck(deckID int) ([]models.Card, error) {
	utils.LogDB("Getting cards for deck %d", deckID)
	start := time.Now()

	rows, err := db.Query(`
		SELECT id, deck_id, question, answer, options, correct, next_review, interval, reps, ease_factor
		FROM cards
		WHERE deck_id = ?
		ORDER BY id
	`, deckID)
	if err != nil {
		utils.LogError("GetCardsForDeck query failed: %v", err)
		return nil, err
	}
	defer rows.Close()

	cards := make([]models.Card, 0)
	for rows.Next() {
		c, err := scanCard(rows)
		if err != nil {
			utils.LogError("Failed to scan card row: %v", err)
			return nil, err
		}
		c.Options = shuffleOptions(c.Options)
		cards = append(cards, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	utils.LogDB("GetCardsForDeck completed: %d cards in %v", len(cards), time.Since(start))
	return cards, nil
}

// GetCardForUser loads a card only if its deck belongs to userID.
func (db *DB) GetCardForUser(cardID, userID int) (*models.Card, error) {
	utils.LogDB("Executing query: GetCardForUser(%d, %d)", cardID, userID)

	c, err := scanCard(db.QueryRow(`
		SELECT c.id, c.deck_id, c.question, c.answer, c.options, c.correct,
		       c.next_review, c.interval, c.reps, c.ease_factor
		FROM cards c
		JOIN decks d ON c.deck_id = d.id
		WHERE c.id = ? AND d.user_id = ?
	`, cardID, userID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			utils.LogDB("Card ID %d not found for user %d", cardID, userID)
			return nil, ErrNotFound
		}
		utils.LogError("GetCardForUser(%d) failed: %v", cardID, err)
		return nil, err
	}
	return c, nil
}

func (db *DB) UpdateCardReview(card *models.Card) error {
	utils.LogDB("Updating review state for card %d: interval=%d reps=%d", card.ID, card.Interval, card.Reps)

	res, err := db.Exec(`
		UPDATE cards SET next_review = ?, interval = ?, reps = ?
		WHERE id = ?
	`, card.NextReview.UTC(), card.Interval, card.Reps, card.ID)
	if err != nil {
		utils.LogError("UpdateCardReview(%d) failed: %v", card.ID, err)
		return err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// ReviewCard applies a known/forgotten grade to the user's card and persists
// the new schedule.
func (db *DB) ReviewCard(cardID, userID int, known bool, now time.Time) (*models.Card, error) {
	card, err := db.GetCardForUser(cardID, userID)
	if err != nil {
		return nil, err
	}

	card.ApplyReview(known, now)

	if err := db.UpdateCardReview(card); err != nil {
		return nil, err
	}
	return card, nil
}
