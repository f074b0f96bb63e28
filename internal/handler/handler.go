package handler

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/hushcampus-dev/hushcampus/internal/config"
	"github.com/hushcampus-dev/hushcampus/internal/service"
)

type Handler struct {
	store   *service.Store
	ledger  *service.Ledger
	modlog  *service.ModerationLog
	cfg     *config.Config
	content ContentValidator
}

type ContentValidator interface {
	Text(text string) error
}

func New(store *service.Store, ledger *service.Ledger, modlog *service.ModerationLog, cfg *config.Config, content ContentValidator) *Handler {
	return &Handler{store: store, ledger: ledger, modlog: modlog, cfg: cfg, content: content}
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	err := json.NewEncoder(w).Encode(v)
	if err != nil {
		log.Print(err.Error())
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
}
