package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/technosupport/ts-sizer/internal/notify"
)

type EmailHandler struct {
	Mailer *notify.Mailer
}

func NewEmailHandler(m *notify.Mailer) *EmailHandler {
	return &EmailHandler{Mailer: m}
}

// POST /api/v1/email/test (admin)
func (h *EmailHandler) SendTest(w http.ResponseWriter, r *http.Request) {
	var req struct {
		To string `json:"to"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if !strings.Contains(req.To, "@") {
		respondError(w, http.StatusBadRequest, "invalid recipient address")
		return
	}

	if err := h.Mailer.SendTest(r.Context(), req.To); err != nil {
		if errors.Is(err, notify.ErrNotConfigured) {
			respondError(w, http.StatusConflict, err.Error())
			return
		}
		respondError(w, http.StatusBadGateway, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"status": "sent"})
}
