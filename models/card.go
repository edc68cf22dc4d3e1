package models

import "time"

const (
	DefaultInterval   = 1
	DefaultEaseFactor = 2
)

// Card is a single question. Cards with Options are quiz cards and Correct
// names the right option; cards without Options are plain flashcards.
type Card struct {
	ID         int       `json:"id"`
	DeckID     int       `json:"deck_id"`
	Question   string    `json:"question"`
	Answer     string    `json:"answer"`
	Options    []string  `json:"options"`
	Correct    string    `json:"correct"`
	NextReview time.Time `json:"next_review"`
	Interval   int       `json:"interval"`
	Reps       int       `json:"reps"`
	EaseFactor int       `json:"ease_factor"`
}

// GeneratedCard is a card as produced by the AI provider or an import,
// before it is stored.
type GeneratedCard struct {
	Question string   `json:"q"`
	Answer   string   `json:"a"`
	Options  []string `json:"options,omitempty"`
	Correct  string   `json:"correct,omitempty"`
}

// ReviewResponse is returned by POST /cards/{id}/review
type ReviewResponse struct {
	Status     string    `json:"status"`
	NextReview time.Time `json:"next_review"`
}

func (c *Card) IsQuiz() bool {
	return len(c.Options) > 0
}

// ApplyReview reschedules the card. A known card doubles its interval, a
// forgotten one starts over at one day.
func (c *Card) ApplyReview(known bool, now time.Time) {
	if c.Interval < 1 {
		c.Interval = DefaultInterval
	}
	if known {
		c.Interval *= 2
		c.Reps++
	} else {
		c.Interval = DefaultInterval
		c.Reps = 0
	}
	c.NextReview = now.UTC().AddDate(0, 0, c.Interval)
}
