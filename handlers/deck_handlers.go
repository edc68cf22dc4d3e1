package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/adamspd/FlashMind/ai"
	"github.com/adamspd/FlashMind/db"
	"github.com/adamspd/FlashMind/jobs"
	"github.com/adamspd/FlashMind/models"
	"github.com/adamspd/FlashMind/parser"
	"github.com/adamspd/FlashMind/utils"
)

const (
	defaultDeckTitle   = "New deck"
	defaultImportTitle = "Imported deck"
	maxImportCards     = 1000
)

type DeckHandlers struct {
	db        *db.DB
	generator ai.Generator
	jobQueue  JobQueue
}

func NewDeckHandlers(database *db.DB, generator ai.Generator, jobQueue JobQueue) *DeckHandlers {
	return &DeckHandlers{
		db:        database,
		generator: generator,
		jobQueue:  jobQueue,
	}
}

func (dh *DeckHandlers) ListDecks(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r)
		return
	}

	session := getSessionFromContext(r.Context())
	decks, err := dh.db.GetDecksForUser(session.UserID)
	if err != nil {
		utils.LogError("Failed to fetch decks for user %d: %v", session.UserID, err)
		utils.WriteError(w, http.StatusInternalServerError, "Failed to fetch decks")
		return
	}

	utils.LogHTTP("Returning %d decks for user %d", len(decks), session.UserID)
	utils.WriteJSON(w, http.StatusOK, decks)
}

// formDeckFields reads title and difficulty, applying the form defaults
func formDeckFields(r *http.Request, defaultTitle string) (string, string) {
	title := strings.TrimSpace(r.FormValue("title"))
	if title == "" {
		title = defaultTitle
	}
	difficulty := strings.ToLower(strings.TrimSpace(r.FormValue("difficulty")))
	if difficulty == "" {
		difficulty = models.DifficultyEasy
	}
	return title, difficulty
}

func (dh *DeckHandlers) Generate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r)
		return
	}

	session := getSessionFromContext(r.Context())
	title, difficulty := formDeckFields(r, defaultDeckTitle)

	async, err := utils.ParseBool(r.FormValue("async"), false)
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	req := models.GenerateRequest{
		Text:       strings.TrimSpace(r.FormValue("text")),
		Title:      title,
		Difficulty: difficulty,
		Async:      async,
	}
	if err := utils.ValidateStruct(req); err != nil {
		utils.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	if dh.generator == nil {
		utils.WriteError(w, http.StatusServiceUnavailable, "AI generation is not configured")
		return
	}

	if req.Async {
		dh.queueGeneration(w, session, req)
		return
	}

	utils.LogHTTP("Generating deck %q (%s) for user %d", req.Title, req.Difficulty, session.UserID)

	cards, err := dh.generator.Generate(r.Context(), req.Text, req.Difficulty)
	if err != nil {
		utils.LogError("Generation failed for user %d: %v", session.UserID, err)
		utils.WriteError(w, http.StatusInternalServerError, ai.ErrNoCards.Error())
		return
	}

	resp, err := dh.db.CreateDeckWithCards(session.UserID, req.Title, req.Difficulty, cards)
	if err != nil {
		utils.LogError("Failed to store generated deck: %v", err)
		utils.WriteError(w, http.StatusInternalServerError, "Failed to save deck")
		return
	}

	utils.WriteJSON(w, http.StatusCreated, resp)
}

func (dh *DeckHandlers) queueGeneration(w http.ResponseWriter, session *models.Session, req models.GenerateRequest) {
	if dh.jobQueue == nil {
		utils.WriteError(w, http.StatusServiceUnavailable, "Background generation is not available")
		return
	}

	jobID, err := dh.jobQueue.QueueGeneration(session.UserID, req)
	if err != nil {
		utils.LogError("Failed to queue generation for user %d: %v", session.UserID, err)
		utils.WriteError(w, http.StatusInternalServerError, "Failed to queue generation")
		return
	}

	utils.WriteJSON(w, http.StatusAccepted, map[string]string{"job_id": jobID})
}

func (dh *DeckHandlers) JobStatus(w http.ResponseWriter, r *http.Request, jobID string) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r)
		return
	}
	if dh.jobQueue == nil {
		utils.WriteError(w, http.StatusNotFound, "Job not found")
		return
	}

	session := getSessionFromContext(r.Context())
	status, err := dh.jobQueue.JobStatus(jobID, session.UserID)
	if err != nil {
		if errors.Is(err, jobs.ErrJobNotFound) {
			utils.WriteError(w, http.StatusNotFound, "Job not found")
			return
		}
		utils.LogError("Failed to inspect job %s: %v", jobID, err)
		utils.WriteError(w, http.StatusInternalServerError, "Failed to fetch job status")
		return
	}

	utils.WriteJSON(w, http.StatusOK, status)
}

// Import creates a deck from Q:/A: formatted text.
func (dh *DeckHandlers) Import(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r)
		return
	}

	session := getSessionFromContext(r.Context())
	title, difficulty := formDeckFields(r, defaultImportTitle)

	req := models.ImportRequest{
		Title:      title,
		Difficulty: difficulty,
		Text:       strings.TrimSpace(r.FormValue("text")),
	}
	if err := utils.ValidateStruct(req); err != nil {
		utils.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	utils.LogImport("Starting deck import for user %d", session.UserID)

	cards, err := parser.ParseString(req.Text)
	if err != nil {
		utils.LogError("Failed to parse import text: %v", err)
		utils.WriteError(w, http.StatusBadRequest, "Could not read import text")
		return
	}
	if len(cards) == 0 {
		utils.WriteError(w, http.StatusBadRequest, "No cards found in text")
		return
	}
	if len(cards) > maxImportCards {
		utils.LogImport("Too many cards in import request: %d (max %d)", len(cards), maxImportCards)
		utils.WriteError(w, http.StatusBadRequest, "Too many cards (max 1000 per import)")
		return
	}

	result, err := dh.db.ImportDeck(session.UserID, req.Title, req.Difficulty, cards)
	if err != nil {
		utils.LogError("Import failed: %v", err)
		utils.WriteError(w, http.StatusBadRequest, "No valid cards to import")
		return
	}

	utils.WriteJSON(w, http.StatusCreated, result)
}

func (dh *DeckHandlers) HandleDeckByID(w http.ResponseWriter, r *http.Request, id int) {
	switch r.Method {
	case http.MethodGet:
		dh.getDeckCards(w, r, id)
	case http.MethodDelete:
		dh.deleteDeck(w, r, id)
	default:
		methodNotAllowed(w, r)
	}
}

// ownedDeck writes a 404 and returns nil when the deck is missing or not the
// caller's
func (dh *DeckHandlers) ownedDeck(w http.ResponseWriter, session *models.Session, id int) *models.Deck {
	deck, err := dh.db.GetDeckForUser(id, session.UserID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			utils.WriteError(w, http.StatusNotFound, "Deck not found")
			return nil
		}
		utils.LogError("Failed to load deck %d: %v", id, err)
		utils.WriteError(w, http.StatusInternalServerError, "Failed to load deck")
		return nil
	}
	return deck
}

func (dh *DeckHandlers) getDeckCards(w http.ResponseWriter, r *http.Request, id int) {
	session := getSessionFromContext(r.Context())
	if dh.ownedDeck(w, session, id) == nil {
		return
	}

	cards, err := dh.db.GetCardsForDeck(id)
	if err != nil {
		utils.LogError("Failed to fetch cards for deck %d: %v", id, err)
		utils.WriteError(w, http.StatusInternalServerError, "Failed to fetch cards")
		return
	}

	utils.WriteJSON(w, http.StatusOK, cards)
}

func (dh *DeckHandlers) deleteDeck(w http.ResponseWriter, r *http.Request, id int) {
	session := getSessionFromContext(r.Context())

	if err := dh.db.DeleteDeck(id, session.UserID); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			utils.WriteError(w, http.StatusNotFound, "Deck not found")
			return
		}
		utils.LogError("Failed to delete deck %d: %v", id, err)
		utils.WriteError(w, http.StatusInternalServerError, "Failed to delete deck")
		return
	}

	utils.LogHTTP("Deck %d deleted by user %d", id, session.UserID)
	w.WriteHeader(http.StatusNoContent)
}

func (dh *DeckHandlers) HandleAttempts(w http.ResponseWriter, r *http.Request, id int) {
	switch r.Method {
	case http.MethodGet:
		dh.listAttempts(w, r, id)
	case http.MethodPost:
		dh.recordAttempt(w, r, id)
	default:
		methodNotAllowed(w, r)
	}
}

func (dh *DeckHandlers) listAttempts(w http.ResponseWriter, r *http.Request, id int) {
	session := getSessionFromContext(r.Context())
	if dh.ownedDeck(w, session, id) == nil {
		return
	}

	attempts, err := dh.db.GetAttempts(id)
	if err != nil {
		utils.LogError("Failed to fetch attempts for deck %d: %v", id, err)
		utils.WriteError(w, http.StatusInternalServerError, "Failed to fetch attempts")
		return
	}

	utils.WriteJSON(w, http.StatusOK, attempts)
}

func (dh *DeckHandlers) recordAttempt(w http.ResponseWriter, r *http.Request, id int) {
	session := getSessionFromContext(r.Context())

	correct, err := utils.ParseInt(r.FormValue("correct"), 0)
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, "correct: "+err.Error())
		return
	}
	wrong, err := utils.ParseInt(r.FormValue("wrong"), 0)
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, "wrong: "+err.Error())
		return
	}

	req := models.AttemptRequest{Correct: correct, Wrong: wrong}
	if err := utils.ValidateStruct(req); err != nil {
		utils.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	attempt, err := dh.db.RecordAttempt(id, session.UserID, req)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			utils.WriteError(w, http.StatusNotFound, "Deck not found")
			return
		}
		utils.LogError("Failed to record attempt for deck %d: %v", id, err)
		utils.WriteError(w, http.StatusInternalServerError, "Failed to save attempt")
		return
	}

	utils.LogHTTP("Attempt recorded for deck %d: %d correct, %d wrong", id, correct, wrong)
	utils.WriteJSON(w, http.StatusCreated, attempt)
}

func (dh *DeckHandlers) Stats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r)
		return
	}

	session := getSessionFromContext(r.Context())
	stats, err := dh.db.GetUserStats(session.UserID, time.Now())
	if err != nil {
		utils.LogError("Failed to fetch stats for user %d: %v", session.UserID, err)
		utils.WriteError(w, http.StatusInternalServerError, "Failed to fetch stats")
		return
	}

	utils.LogHTTP("Returning stats for user %d: %d/%d correct/wrong", session.UserID, stats.Correct, stats.Wrong)
	utils.WriteJSON(w, http.StatusOK, stats)
}
