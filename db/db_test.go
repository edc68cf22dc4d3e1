package db

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/adamspd/FlashMind/models"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	database, err := InitDB(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("InitDB: %v", err)
	}
	t.Cleanup(func() { database.Close() })
	return database
}

func newTestUser(t *testing.T, database *DB, email string) *models.User {
	t.Helper()
	user, err := database.CreateUser(models.RegisterRequest{Email: email, Password: "secret123"})
	if err != nil {
		t.Fatalf("CreateUser(%s): %v", email, err)
	}
	return user
}

var sampleCards = []models.GeneratedCard{
	{Question: "2+2?", Options: []string{"3", "4", "5"}, Correct: "4"},
	{Question: "Capital of France?", Answer: "Paris"},
}

func TestCreateUser(t *testing.T) {
	database := newTestDB(t)

	user := newTestUser(t, database, "ann@example.com")
	if user.ID == 0 || user.Email != "ann@example.com" {
		t.Fatalf("unexpected user: %+v", user)
	}

	_, err := database.CreateUser(models.RegisterRequest{Email: "ANN@example.com", Password: "other123"})
	if !errors.Is(err, ErrEmailTaken) {
		t.Errorf("expected ErrEmailTaken for duplicate email, got %v", err)
	}
}

func TestAuthenticateUser(t *testing.T) {
	database := newTestDB(t)
	newTestUser(t, database, "bob@example.com")

	testCases := []struct {
		name     string
		email    string
		password string
		wantErr  bool
	}{
		{"valid credentials", "bob@example.com", "secret123", false},
		{"wrong password", "bob@example.com", "nope", true},
		{"unknown user", "carol@example.com", "secret123", true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			user, err := database.AuthenticateUser(tc.email, tc.password)
			if tc.wantErr {
				if !errors.Is(err, ErrInvalidCredentials) {
					t.Errorf("expected ErrInvalidCredentials, got user %+v, err %v", user, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if user.Email != tc.email {
				t.Errorf("expected email %s, got %s", tc.email, user.Email)
			}
		})
	}
}

func TestGetUserByIDNotFound(t *testing.T) {
	database := newTestDB(t)
	if _, err := database.GetUserByID(42); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestCreateDeckWithCards(t *testing.T) {
	database := newTestDB(t)
	user := newTestUser(t, database, "ann@example.com")

	resp, err := database.CreateDeckWithCards(user.ID, "Maths", models.DifficultyEasy, sampleCards)
	if err != nil {
		t.Fatalf("CreateDeckWithCards: %v", err)
	}
	if len(resp.Cards) != 2 {
		t.Fatalf("expected 2 cards, got %d", len(resp.Cards))
	}

	deck, err := database.GetDeckForUser(resp.DeckID, user.ID)
	if err != nil {
		t.Fatalf("GetDeckForUser: %v", err)
	}
	if deck.Title != "Maths" || deck.CardCount != 2 {
		t.Errorf("unexpected deck: %+v", deck)
	}

	cards, err := database.GetCardsForDeck(resp.DeckID)
	if err != nil {
		t.Fatalf("GetCardsForDeck: %v", err)
	}
	if len(cards) != 2 {
		t.Fatalf("expected 2 cards, got %d", len(cards))
	}
	if !cards[0].IsQuiz() || len(cards[0].Options) != 3 || cards[0].Correct != "4" {
		t.Errorf("quiz card not stored correctly: %+v", cards[0])
	}
	if cards[1].IsQuiz() || cards[1].Answer != "Paris" {
		t.Errorf("flashcard not stored correctly: %+v", cards[1])
	}
	if cards[0].Interval != models.DefaultInterval || cards[0].EaseFactor != models.DefaultEaseFactor {
		t.Errorf("unexpected scheduling defaults: %+v", cards[0])
	}

	if _, err := database.CreateDeckWithCards(user.ID, "Empty", models.DifficultyEasy, nil); err == nil {
		t.Error("expected error for deck without cards")
	}
}

func TestDeckOwnership(t *testing.T) {
	database := newTestDB(t)
	owner := newTestUser(t, database, "owner@example.com")
	other := newTestUser(t, database, "other@example.com")

	resp, err := database.CreateDeckWithCards(owner.ID, "Private", models.DifficultyHard, sampleCards)
	if err != nil {
		t.Fatalf("CreateDeckWithCards: %v", err)
	}

	if _, err := database.GetDeckForUser(resp.DeckID, other.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetDeckForUser by other user: expected ErrNotFound, got %v", err)
	}
	if err := database.DeleteDeck(resp.DeckID, other.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("DeleteDeck by other user: expected ErrNotFound, got %v", err)
	}
	if _, err := database.GetCardForUser(resp.Cards[0].ID, other.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetCardForUser by other user: expected ErrNotFound, got %v", err)
	}
	if _, err := database.RecordAttempt(resp.DeckID, other.ID, models.AttemptRequest{Correct: 1}); !errors.Is(err, ErrNotFound) {
		t.Errorf("RecordAttempt by other user: expected ErrNotFound, got %v", err)
	}

	decks, err := database.GetDecksForUser(other.ID)
	if err != nil {
		t.Fatalf("GetDecksForUser: %v", err)
	}
	if len(decks) != 0 {
		t.Errorf("other user should see no decks, got %d", len(decks))
	}
}

func TestGetDecksForUserNewestFirst(t *testing.T) {
	database := newTestDB(t)
	user := newTestUser(t, database, "ann@example.com")

	for _, title := range []string{"first", "second", "third"} {
		if _, err := database.CreateDeckWithCards(user.ID, title, models.DifficultyMedium, sampleCards); err != nil {
			t.Fatalf("CreateDeckWithCards(%s): %v", title, err)
		}
	}

	decks, err := database.GetDecksForUser(user.ID)
	if err != nil {
		t.Fatalf("GetDecksForUser: %v", err)
	}
	if len(decks) != 3 {
		t.Fatalf("expected 3 decks, got %d", len(decks))
	}
	if decks[0].Title != "third" || decks[2].Title != "first" {
		t.Errorf("expected newest first, got %s, %s, %s", decks[0].Title, decks[1].Title, decks[2].Title)
	}
}

func TestRecordAttempt(t *testing.T) {
	database := newTestDB(t)
	user := newTestUser(t, database, "ann@example.com")
	resp, err := database.CreateDeckWithCards(user.ID, "Maths", models.DifficultyEasy, sampleCards)
	if err != nil {
		t.Fatalf("CreateDeckWithCards: %v", err)
	}

	if _, err := database.RecordAttempt(resp.DeckID, user.ID, models.AttemptRequest{Correct: 3, Wrong: 1}); err != nil {
		t.Fatalf("RecordAttempt: %v", err)
	}
	if _, err := database.RecordAttempt(resp.DeckID, user.ID, models.AttemptRequest{Correct: 2, Wrong: 2}); err != nil {
		t.Fatalf("RecordAttempt: %v", err)
	}
	if _, err := database.RecordAttempt(resp.DeckID, user.ID, models.AttemptRequest{Correct: -1}); err == nil {
		t.Error("expected error for negative tally")
	}
	if _, err := database.RecordAttempt(resp.DeckID, user.ID, models.AttemptRequest{Correct: models.MaxAttemptCount + 1}); err == nil {
		t.Error("expected error for tally above the cap")
	}

	deck, err := database.GetDeckForUser(resp.DeckID, user.ID)
	if err != nil {
		t.Fatalf("GetDeckForUser: %v", err)
	}
	if deck.CorrectAnswers != 5 || deck.WrongAnswers != 3 {
		t.Errorf("expected tallies 5/3, got %d/%d", deck.CorrectAnswers, deck.WrongAnswers)
	}

	attempts, err := database.GetAttempts(resp.DeckID)
	if err != nil {
		t.Fatalf("GetAttempts: %v", err)
	}
	if len(attempts) != 2 {
		t.Fatalf("expected 2 attempts, got %d", len(attempts))
	}
	if attempts[0].Correct != 2 || attempts[1].Correct != 3 {
		t.Errorf("expected newest attempt first, got %+v", attempts)
	}
}

func TestDeleteDeckCascades(t *testing.T) {
	database := newTestDB(t)
	user := newTestUser(t, database, "ann@example.com")
	resp, err := database.CreateDeckWithCards(user.ID, "Maths", models.DifficultyEasy, sampleCards)
	if err != nil {
		t.Fatalf("CreateDeckWithCards: %v", err)
	}
	if _, err := database.RecordAttempt(resp.DeckID, user.ID, models.AttemptRequest{Correct: 1}); err != nil {
		t.Fatalf("RecordAttempt: %v", err)
	}

	if err := database.DeleteDeck(resp.DeckID, user.ID); err != nil {
		t.Fatalf("DeleteDeck: %v", err)
	}

	if _, err := database.GetDeckForUser(resp.DeckID, user.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected deck to be gone, got %v", err)
	}

	var cards, attempts int
	database.QueryRow("SELECT COUNT(*) FROM cards WHERE deck_id = ?", resp.DeckID).Scan(&cards)
	database.QueryRow("SELECT COUNT(*) FROM attempts WHERE deck_id = ?", resp.DeckID).Scan(&attempts)
	if cards != 0 || attempts != 0 {
		t.Errorf("expected cards and attempts to be deleted, got %d cards, %d attempts", cards, attempts)
	}
}

func TestReviewCard(t *testing.T) {
	database := newTestDB(t)
	user := newTestUser(t, database, "ann@example.com")
	resp, err := database.CreateDeckWithCards(user.ID, "Maths", models.DifficultyEasy, sampleCards)
	if err != nil {
		t.Fatalf("CreateDeckWithCards: %v", err)
	}
	cardID := resp.Cards[0].ID
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	card, err := database.ReviewCard(cardID, user.ID, true, now)
	if err != nil {
		t.Fatalf("ReviewCard known: %v", err)
	}
	if card.Interval != 2 || card.Reps != 1 {
		t.Errorf("after known: expected interval 2 reps 1, got %d/%d", card.Interval, card.Reps)
	}

	card, err = database.ReviewCard(cardID, user.ID, true, now)
	if err != nil {
		t.Fatalf("ReviewCard known: %v", err)
	}
	if card.Interval != 4 || card.Reps != 2 {
		t.Errorf("after second known: expected interval 4 reps 2, got %d/%d", card.Interval, card.Reps)
	}
	if !card.NextReview.Equal(now.AddDate(0, 0, 4)) {
		t.Errorf("expected next review %v, got %v", now.AddDate(0, 0, 4), card.NextReview)
	}

	card, err = database.ReviewCard(cardID, user.ID, false, now)
	if err != nil {
		t.Fatalf("ReviewCard forgotten: %v", err)
	}
	if card.Interval != 1 || card.Reps != 0 {
		t.Errorf("after forgotten: expected interval 1 reps 0, got %d/%d", card.Interval, card.Reps)
	}

	stored, err := database.GetCardForUser(cardID, user.ID)
	if err != nil {
		t.Fatalf("GetCardForUser: %v", err)
	}
	if stored.Interval != 1 || stored.Reps != 0 || !stored.NextReview.Equal(now.AddDate(0, 0, 1)) {
		t.Errorf("review not persisted: %+v", stored)
	}

	if _, err := database.ReviewCard(9999, user.ID, true, now); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for unknown card, got %v", err)
	}
}

func TestImportDeck(t *testing.T) {
	database := newTestDB(t)
	user := newTestUser(t, database, "ann@example.com")

	cards := []models.GeneratedCard{
		{Question: "What is Go?", Answer: "A language"},
		{Question: "what is go?  ", Answer: "Duplicate"},
		{Question: "", Answer: "No question"},
		{Question: "No answer"},
		{Question: "What is SQL?", Answer: "A query language"},
	}

	result, err := database.ImportDeck(user.ID, "Imported", models.DifficultyEasy, cards)
	if err != nil {
		t.Fatalf("ImportDeck: %v", err)
	}
	if result.TotalCards != 5 || result.ImportedCards != 2 || result.SkippedCards != 3 {
		t.Errorf("unexpected counts: %+v", result)
	}
	if len(result.Errors) != 3 {
		t.Errorf("expected 3 errors, got %v", result.Errors)
	}

	if _, err := database.ImportDeck(user.ID, "Nothing", models.DifficultyEasy, cards[2:4]); err == nil {
		t.Error("expected error when nothing is importable")
	}

	decks, err := database.GetDecksForUser(user.ID)
	if err != nil {
		t.Fatalf("GetDecksForUser: %v", err)
	}
	if len(decks) != 1 {
		t.Errorf("failed import must not leave a deck behind, got %d decks", len(decks))
	}
}

func TestGetUserStats(t *testing.T) {
	database := newTestDB(t)
	user := newTestUser(t, database, "ann@example.com")
	resp, err := database.CreateDeckWithCards(user.ID, "Maths", models.DifficultyEasy, sampleCards)
	if err != nil {
		t.Fatalf("CreateDeckWithCards: %v", err)
	}
	if _, err := database.RecordAttempt(resp.DeckID, user.ID, models.AttemptRequest{Correct: 4, Wrong: 1}); err != nil {
		t.Fatalf("RecordAttempt: %v", err)
	}

	stats, err := database.GetUserStats(user.ID, time.Now().Add(time.Hour))
	if err != nil {
		t.Fatalf("GetUserStats: %v", err)
	}
	want := models.Stats{TotalDecks: 1, TotalCards: 2, Correct: 4, Wrong: 1, Attempts: 1, DueCards: 2}
	if *stats != want {
		t.Errorf("expected %+v, got %+v", want, *stats)
	}
}

func TestShuffleOptionsKeepsElements(t *testing.T) {
	options := []string{"a", "b", "c", "d"}
	shuffled := shuffleOptions(options)

	if len(shuffled) != len(options) {
		t.Fatalf("expected %d options, got %d", len(options), len(shuffled))
	}
	seen := make(map[string]bool)
	for _, o := range shuffled {
		seen[o] = true
	}
	for _, o := range options {
		if !seen[o] {
			t.Errorf("option %q lost in shuffle", o)
		}
	}
	if options[0] != "a" || options[3] != "d" {
		t.Error("shuffle must not modify the input slice")
	}
}

func TestWithForeignKeys(t *testing.T) {
	testCases := []struct {
		in, want string
	}{
		{"app.db", "app.db?_foreign_keys=on"},
		{"app.db?cache=shared", "app.db?cache=shared&_foreign_keys=on"},
		{"app.db?_foreign_keys=off", "app.db?_foreign_keys=off"},
	}
	for _, tc := range testCases {
		if got := withForeignKeys(tc.in); got != tc.want {
			t.Errorf("withForeignKeys(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
