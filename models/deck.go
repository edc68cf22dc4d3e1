package models

import "time"

// Deck is a named set of cards owned by one user
type Deck struct {
	ID             int       `json:"id"`
	UserID         int       `json:"user_id"`
	Title          string    `json:"title"`
	Difficulty     string    `json:"difficulty"`
	CorrectAnswers int       `json:"correct_answers"`
	WrongAnswers   int       `json:"wrong_answers"`
	CardCount      int       `json:"card_count"`
	CreatedAt      time.Time `json:"created_at"`
}

// GenerateRequest for POST /generate
type GenerateRequest struct {
	Text       string `json:"text" validate:"required"`
	Title      string `json:"title" validate:"max=200"`
	Difficulty string `json:"difficulty" validate:"oneof=easy medium hard"`
	Async      bool   `json:"async"`
}

// GenerateResponse is returned once a deck has been created
type GenerateResponse struct {
	DeckID int    `json:"deck_id"`
	Cards  []Card `json:"cards"`
}

// ImportRequest for POST /import
type ImportRequest struct {
	Title      string `json:"title" validate:"max=200"`
	Difficulty string `json:"difficulty" validate:"oneof=easy medium hard"`
	Text       string `json:"text" validate:"required"`
}

// ImportResult summarizes a markdown import
type ImportResult struct {
	DeckID        int      `json:"deck_id"`
	TotalCards    int      `json:"total_cards"`
	ImportedCards int      `json:"imported_cards"`
	SkippedCards  int      `json:"skipped_cards"`
	Errors        []string `json:"errors"`
	Cards         []Card   `json:"cards"`
	TimeTaken     string   `json:"time_taken"`
}

// JobStatus reports the state of an asynchronous generation
type JobStatus struct {
	JobID  string `json:"job_id"`
	State  string `json:"state"`
	DeckID int    `json:"deck_id,omitempty"`
	Error  string `json:"error,omitempty"`
}
