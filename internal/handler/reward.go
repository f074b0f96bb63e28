package handler

import (
	"net/http"

	"github.com/hushcampus-dev/hushcampus/internal/utils"
)

func (h *Handler) Balance(w http.ResponseWriter, r *http.Request) {
	type response struct {
		Balance    interface{} `json:"balance"`
		ByCategory interface{} `json:"byCategory"`
		Streak     interface{} `json:"streak"`
	}
	writeJSON(w, response{
		Balance:    h.ledger.Snapshot(),
		ByCategory: h.ledger.CategoryBreakdown(),
		Streak:     h.ledger.Streak(),
	})
}

func (h *Handler) Transactions(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.ledger.Transactions())
}

func (h *Handler) Achievements(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.ledger.Achievements())
}

func (h *Handler) UpdateSubscription(w http.ResponseWriter, r *http.Request) {
	type bodyJson struct {
		Name   string `validate:"required" json:"name"`
		Active bool   `json:"active"`
	}
	var body bodyJson
	if err := utils.DecodeValidate(r.Body, &body); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	h.ledger.SetSubscription(body.Name, body.Active)
	writeJSON(w, h.ledger.Subscriptions())
}

func (h *Handler) Claim(w http.ResponseWriter, r *http.Request) {
	amount, err := h.ledger.Claim(r.Context())
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	writeJSON(w, map[string]int64{"claimed": int64(amount)})
}
