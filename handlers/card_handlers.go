package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/adamspd/FlashMind/db"
	"github.com/adamspd/FlashMind/models"
	"github.com/adamspd/FlashMind/utils"
)

type CardHandlers struct {
	db  *db.DB
	now func() time.Time
}

func NewCardHandlers(database *db.DB) *CardHandlers {
	return &CardHandlers{db: database, now: time.Now}
}

// Review records whether the user knew the card and reschedules it.
func (ch *CardHandlers) Review(w http.ResponseWriter, r *http.Request, id int) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r)
		return
	}

	session := getSessionFromContext(r.Context())

	value := r.FormValue("known")
	if value == "" {
		utils.WriteError(w, http.StatusBadRequest, "known is required")
		return
	}
	known, err := utils.ParseBool(value, false)
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, "known: "+err.Error())
		return
	}

	card, err := ch.db.ReviewCard(id, session.UserID, known, ch.now())
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			utils.WriteError(w, http.StatusNotFound, "Card not found")
			return
		}
		utils.LogError("Failed to review card %d: %v", id, err)
		utils.WriteError(w, http.StatusInternalServerError, "Failed to update card")
		return
	}

	utils.LogHTTP("Card %d reviewed by user %d: known=%t next=%s", id, session.UserID, known, card.NextReview.Format(time.RFC3339))
	utils.WriteJSON(w, http.StatusOK, models.ReviewResponse{Status: "success", NextReview: card.NextReview})
}
