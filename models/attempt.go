package models

import "time"

// Attempt is one finished study session's tally
type Attempt struct {
	ID        int       `json:"id"`
	DeckID    int       `json:"deck_id"`
	Correct   int       `json:"correct"`
	Wrong     int       `json:"wrong"`
	Timestamp time.Time `json:"timestamp"`
}

// MaxAttemptCount caps each tally of a single attempt
const MaxAttemptCount = 100000

// AttemptRequest for POST /decks/{id}/attempts
type AttemptRequest struct {
	Correct int `json:"correct" validate:"min=0,max=100000"`
	Wrong   int `json:"wrong" validate:"min=0,max=100000"`
}

// Stats aggregates a user's decks for the profile screen
type Stats struct {
	TotalDecks int `json:"total_decks"`
	TotalCards int `json:"total_cards"`
	Correct    int `json:"correct"`
	Wrong      int `json:"wrong"`
	Attempts   int `json:"attempts"`
	DueCards   int `json:"due_cards"`
}
