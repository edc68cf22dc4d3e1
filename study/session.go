// Package study holds the state of one pass through a deck: which card is
// shown, whether it has been answered, and the running tally.
package study

import (
	"github.com/adamspd/FlashMind/models"
)

// OptionState is how an option is presented once the card is answered.
type OptionState string

const (
	OptionNeutral       OptionState = "neutral"
	OptionCorrect       OptionState = "correct"
	OptionWrongSelected OptionState = "wrong-selected"
	OptionDimmed        OptionState = "dimmed"
)

type Session struct {
	Deck     models.Deck
	Cards    []models.Card
	Attempts []models.Attempt

	Index    int
	Answered bool
	Selected string
	Revealed bool
	Correct  int
	Wrong    int
}

func NewSession(deck models.Deck, cards []models.Card, attempts []models.Attempt) *Session {
	return &Session{
		Deck:     deck,
		Cards:    cards,
		Attempts: attempts,
	}
}

// Current returns the card on screen, or nil for an empty deck.
func (s *Session) Current() *models.Card {
	if s.Index < 0 || s.Index >= len(s.Cards) {
		return nil
	}
	return &s.Cards[s.Index]
}

// Select answers a quiz card. It returns false and changes nothing when the
// card is already answered or has no options.
func (s *Session) Select(option string) bool {
	card := s.Current()
	if card == nil || s.Answered || !card.IsQuiz() {
		return false
	}

	s.Selected = option
	s.Answered = true
	if option == card.Correct {
		s.Correct++
	} else {
		s.Wrong++
	}
	return true
}

// Reveal shows the answer of a flashcard. Grade must follow.
func (s *Session) Reveal() bool {
	card := s.Current()
	if card == nil || s.Answered || card.IsQuiz() {
		return false
	}
	s.Revealed = true
	return true
}

// Grade answers a flashcard with the user's own judgement.
func (s *Session) Grade(known bool) bool {
	if s.Current() == nil || s.Answered || !s.Revealed {
		return false
	}
	s.Answered = true
	if known {
		s.Correct++
	} else {
		s.Wrong++
	}
	return true
}

// Next moves to the following card once the current one is answered.
func (s *Session) Next() bool {
	if !s.Answered || s.Index >= len(s.Cards)-1 {
		return false
	}
	s.Index++
	s.Answered = false
	s.Revealed = false
	s.Selected = ""
	return true
}

// Finished is true on the results screen: the last card has been answered.
// An empty deck is finished immediately.
func (s *Session) Finished() bool {
	if len(s.Cards) == 0 {
		return true
	}
	return s.Answered && s.Index == len(s.Cards)-1
}

// Result is the tally to save as an attempt.
func (s *Session) Result() (correct, wrong int) {
	return s.Correct, s.Wrong
}

func (s *Session) Progress() (current, total int) {
	if len(s.Cards) == 0 {
		return 0, 0
	}
	return s.Index + 1, len(s.Cards)
}

func (s *Session) OptionState(option string) OptionState {
	card := s.Current()
	if card == nil || !s.Answered {
		return OptionNeutral
	}
	switch {
	case option == card.Correct:
		return OptionCorrect
	case option == s.Selected:
		return OptionWrongSelected
	default:
		return OptionDimmed
	}
}

// Summary is the profile screen's totals.
type Summary struct {
	Decks   int
	Correct int
	Wrong   int
}

func Profile(decks []models.Deck) Summary {
	summary := Summary{Decks: len(decks)}
	for _, d := range decks {
		summary.Correct += d.CorrectAnswers
		summary.Wrong += d.WrongAnswers
	}
	return summary
}
