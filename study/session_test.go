package study

import (
	"testing"

	"github.com/adamspd/FlashMind/models"
)

func quizDeck() []models.Card {
	return []models.Card{
		{ID: 1, Question: "2+2?", Options: []string{"3", "4", "5"}, Correct: "4"},
		{ID: 2, Question: "Red planet?", Options: []string{"Mars", "Venus"}, Correct: "Mars"},
		{ID: 3, Question: "Capital of France?", Answer: "Paris"},
	}
}

func TestSelectCountsOnce(t *testing.T) {
	s := NewSession(models.Deck{ID: 1}, quizDeck(), nil)

	if !s.Select("3") {
		t.Fatal("first selection should be accepted")
	}
	if s.Select("4") {
		t.Error("second selection on an answered card should be ignored")
	}
	if s.Selected != "3" || s.Correct != 0 || s.Wrong != 1 {
		t.Errorf("unexpected state after wrong answer: %+v", s)
	}
}

func TestWalkThroughDeck(t *testing.T) {
	s := NewSession(models.Deck{ID: 1}, quizDeck(), nil)

	if s.Next() {
		t.Error("Next should not advance an unanswered card")
	}

	s.Select("4")
	if s.Finished() {
		t.Error("session should not be finished after the first card")
	}
	if !s.Next() {
		t.Fatal("Next should advance an answered card")
	}
	if s.Answered || s.Selected != "" {
		t.Error("Next should reset the answer state")
	}

	s.Select("Venus")
	s.Next()

	if s.Select("Paris") {
		t.Error("Select should be ignored on a flashcard")
	}
	if s.Grade(true) {
		t.Error("Grade before Reveal should be ignored")
	}
	s.Reveal()
	if !s.Grade(true) {
		t.Fatal("Grade after Reveal should be accepted")
	}

	if !s.Finished() {
		t.Error("session should be finished after the last card is answered")
	}
	if s.Next() {
		t.Error("Next should not move past the last card")
	}

	correct, wrong := s.Result()
	if correct != 2 || wrong != 1 {
		t.Errorf("expected 2 correct and 1 wrong, got %d/%d", correct, wrong)
	}
}

func TestOptionState(t *testing.T) {
	testCases := []struct {
		name     string
		selected string
		answered bool
		want     map[string]OptionState
	}{
		{
			name: "before answering",
			want: map[string]OptionState{"3": OptionNeutral, "4": OptionNeutral, "5": OptionNeutral},
		},
		{
			name:     "wrong answer",
			selected: "5",
			answered: true,
			want:     map[string]OptionState{"3": OptionDimmed, "4": OptionCorrect, "5": OptionWrongSelected},
		},
		{
			name:     "right answer",
			selected: "4",
			answered: true,
			want:     map[string]OptionState{"3": OptionDimmed, "4": OptionCorrect, "5": OptionDimmed},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			s := NewSession(models.Deck{}, quizDeck(), nil)
			if tc.answered {
				s.Select(tc.selected)
			}
			for option, want := range tc.want {
				if got := s.OptionState(option); got != want {
					t.Errorf("OptionState(%q) = %s, want %s", option, got, want)
				}
			}
		})
	}
}

func TestEmptyDeck(t *testing.T) {
	s := NewSession(models.Deck{}, nil, nil)

	if s.Current() != nil {
		t.Error("empty deck should have no current card")
	}
	if s.Select("x") || s.Reveal() || s.Next() {
		t.Error("actions on an empty deck should be ignored")
	}
	if !s.Finished() {
		t.Error("empty deck should be finished")
	}
	if cur, total := s.Progress(); cur != 0 || total != 0 {
		t.Errorf("unexpected progress %d/%d", cur, total)
	}
}

func TestProfile(t *testing.T) {
	decks := []models.Deck{
		{CorrectAnswers: 3, WrongAnswers: 1},
		{CorrectAnswers: 2, WrongAnswers: 4},
	}

	got := Profile(decks)
	want := Summary{Decks: 2, Correct: 5, Wrong: 5}
	if got != want {
		t.Errorf("Profile() = %+v, want %+v", got, want)
	}

	if empty := Profile(nil); empty != (Summary{}) {
		t.Errorf("Profile(nil) = %+v, want zero", empty)
	}
}
