package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/adamspd/FlashMind/auth"
	"github.com/adamspd/FlashMind/db"
	"github.com/adamspd/FlashMind/models"
	"github.com/adamspd/FlashMind/utils"
)

type AuthHandlers struct {
	db           *db.DB
	tokens       *auth.TokenManager
	emailService *auth.EmailService
	jobQueue     JobQueue
}

func NewAuthHandlers(database *db.DB, tokens *auth.TokenManager, emailService *auth.EmailService, jobQueue JobQueue) *AuthHandlers {
	return &AuthHandlers{
		db:           database,
		tokens:       tokens,
		emailService: emailService,
		jobQueue:     jobQueue,
	}
}

func (ah *AuthHandlers) Register(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r)
		return
	}
	utils.LogHTTP("POST /register")

	req := models.RegisterRequest{
		Email:    strings.TrimSpace(r.FormValue("email")),
		Password: r.FormValue("password"),
	}
	if err := utils.ValidateStruct(req); err != nil {
		utils.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	user, err := ah.db.CreateUser(req)
	if err != nil {
		if errors.Is(err, db.ErrEmailTaken) {
			utils.WriteError(w, http.StatusConflict, "Email already registered")
			return
		}
		utils.LogError("Failed to create user: %v", err)
		utils.WriteError(w, http.StatusInternalServerError, "Failed to create user")
		return
	}

	ah.sendWelcome(user)

	utils.LogHTTP("User registered successfully: %s (ID: %d)", user.Email, user.ID)
	utils.WriteJSON(w, http.StatusCreated, user)
}

// sendWelcome queues the welcome email, or sends it in the background when
// there is no queue. Failures never affect the registration.
func (ah *AuthHandlers) sendWelcome(user *models.User) {
	if ah.emailService == nil {
		return
	}
	subject, body := ah.emailService.BuildWelcomeEmail(user)

	if ah.jobQueue != nil {
		if err := ah.jobQueue.QueueWelcomeEmail(user.Email, subject, body, user.ID); err != nil {
			utils.LogError("Failed to queue welcome email: %v", err)
		}
		return
	}

	go func() {
		if err := ah.emailService.SendEmail(user.Email, subject, body); err != nil {
			utils.LogError("Failed to send welcome email to %s: %v", user.Email, err)
		}
	}()
}

// Token exchanges the username/password form for a bearer token.
func (ah *AuthHandlers) Token(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r)
		return
	}
	utils.LogHTTP("POST /token")

	req := models.LoginRequest{
		Username: strings.TrimSpace(r.FormValue("username")),
		Password: r.FormValue("password"),
	}
	if err := utils.ValidateStruct(req); err != nil {
		utils.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	user, err := ah.db.AuthenticateUser(req.Username, req.Password)
	if err != nil {
		if errors.Is(err, db.ErrInvalidCredentials) {
			unauthorized(w, "Incorrect email or password")
			return
		}
		utils.LogError("Login failed for %s: %v", req.Username, err)
		utils.WriteError(w, http.StatusInternalServerError, "Failed to log in")
		return
	}

	token, err := ah.tokens.Issue(user)
	if err != nil {
		utils.LogError("Failed to issue token for user %d: %v", user.ID, err)
		utils.WriteError(w, http.StatusInternalServerError, "Failed to issue token")
		return
	}

	utils.LogHTTP("User %s logged in", user.Email)
	utils.WriteJSON(w, http.StatusOK, token)
}

func (ah *AuthHandlers) Logout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r)
		return
	}

	session := getSessionFromContext(r.Context())
	ah.tokens.Revoke(session)

	utils.LogHTTP("User %d logged out", session.UserID)
	utils.WriteJSON(w, http.StatusOK, map[string]string{"detail": "Logged out"})
}

func (ah *AuthHandlers) Me(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r)
		return
	}

	session := getSessionFromContext(r.Context())
	user, err := ah.db.GetUserByID(session.UserID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			unauthorized(w, "Could not validate credentials")
			return
		}
		utils.LogError("Failed to load user %d: %v", session.UserID, err)
		utils.WriteError(w, http.StatusInternalServerError, "Failed to load user")
		return
	}

	utils.WriteJSON(w, http.StatusOK, user)
}
