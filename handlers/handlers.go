package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/adamspd/FlashMind/ai"
	"github.com/adamspd/FlashMind/auth"
	"github.com/adamspd/FlashMind/db"
	"github.com/adamspd/FlashMind/models"
	"github.com/adamspd/FlashMind/utils"
)

// JobQueue is the background queue. It is nil when Redis is not configured.
type JobQueue interface {
	QueueGeneration(userID int, req models.GenerateRequest) (string, error)
	JobStatus(jobID string, userID int) (*models.JobStatus, error)
	QueueWelcomeEmail(to, subject, body string, userID int) error
}

type API struct {
	authHandlers *AuthHandlers
	deckHandlers *DeckHandlers
	cardHandlers *CardHandlers
}

// NewAPI wires the handler groups. generator and jobQueue may be nil.
func NewAPI(database *db.DB, tokens *auth.TokenManager, generator ai.Generator, jobQueue JobQueue, emailService *auth.EmailService) *API {
	return &API{
		authHandlers: NewAuthHandlers(database, tokens, emailService, jobQueue),
		deckHandlers: NewDeckHandlers(database, generator, jobQueue),
		cardHandlers: NewCardHandlers(database),
	}
}

func NewRouter(database *db.DB, tokens *auth.TokenManager, generator ai.Generator, jobQueue JobQueue, emailService *auth.EmailService) http.Handler {
	api := NewAPI(database, tokens, generator, jobQueue, emailService)
	requireAuth := authMiddleware(tokens)

	mux := http.NewServeMux()

	mux.HandleFunc("/health", healthCheck)

	// Public auth endpoints
	mux.HandleFunc("/register", api.authHandlers.Register)
	mux.HandleFunc("/token", api.authHandlers.Token)

	mux.HandleFunc("/logout", requireAuth(api.authHandlers.Logout))
	mux.HandleFunc("/me", requireAuth(api.authHandlers.Me))

	mux.HandleFunc("/decks", requireAuth(api.deckHandlers.ListDecks))
	mux.HandleFunc("/decks/", requireAuth(func(w http.ResponseWriter, r *http.Request) {
		path := strings.Trim(strings.TrimPrefix(r.URL.Path, "/decks/"), "/")
		parts := strings.Split(path, "/")

		id, err := strconv.Atoi(parts[0])
		if err != nil || id <= 0 {
			utils.LogHTTP("Invalid deck ID: %s", parts[0])
			utils.WriteError(w, http.StatusBadRequest, "Invalid deck ID")
			return
		}

		switch {
		case len(parts) == 1:
			api.deckHandlers.HandleDeckByID(w, r, id)
		case len(parts) == 2 && parts[1] == "attempts":
			api.deckHandlers.HandleAttempts(w, r, id)
		default:
			utils.WriteError(w, http.StatusNotFound, "Not found")
		}
	}))

	mux.HandleFunc("/generate", requireAuth(api.deckHandlers.Generate))
	mux.HandleFunc("/import", requireAuth(api.deckHandlers.Import))
	mux.HandleFunc("/stats", requireAuth(api.deckHandlers.Stats))

	mux.HandleFunc("/jobs/", requireAuth(func(w http.ResponseWriter, r *http.Request) {
		jobID := strings.Trim(strings.TrimPrefix(r.URL.Path, "/jobs/"), "/")
		if jobID == "" || strings.Contains(jobID, "/") {
			utils.WriteError(w, http.StatusNotFound, "Job not found")
			return
		}
		api.deckHandlers.JobStatus(w, r, jobID)
	}))

	mux.HandleFunc("/cards/", requireAuth(func(w http.ResponseWriter, r *http.Request) {
		path := strings.Trim(strings.TrimPrefix(r.URL.Path, "/cards/"), "/")
		parts := strings.Split(path, "/")
		if len(parts) != 2 || parts[1] != "review" {
			utils.WriteError(w, http.StatusNotFound, "Not found")
			return
		}

		id, err := strconv.Atoi(parts[0])
		if err != nil || id <= 0 {
			utils.LogHTTP("Invalid card ID: %s", parts[0])
			utils.WriteError(w, http.StatusBadRequest, "Invalid card ID")
			return
		}
		api.cardHandlers.Review(w, r, id)
	}))

	return loggingMiddleware(corsMiddleware(mux))
}

func healthCheck(w http.ResponseWriter, r *http.Request) {
	utils.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func methodNotAllowed(w http.ResponseWriter, r *http.Request) {
	utils.LogHTTP("Method %s not allowed for %s", r.Method, r.URL.Path)
	utils.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
}
