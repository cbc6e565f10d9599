package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/xavierca1/visa-crm/internal/infra/http/middleware"
	"github.com/xavierca1/visa-crm/internal/usecase"
)

type LeadHandler struct {
	CreateLeadUC *usecase.CreateLeadUseCase
	GetLeadUC    *usecase.GetLeadUseCase
	RateLimiter  *RateLimiter
}

func NewLeadHandler(create *usecase.CreateLeadUseCase, get *usecase.GetLeadUseCase, limiter *RateLimiter) *LeadHandler {
	return &LeadHandler{
		CreateLeadUC: create,
		GetLeadUC:    get,
		RateLimiter:  limiter,
	}
}

// CaptureLead handles the public lead form (POST /leads).
func (h *LeadHandler) CaptureLead(w http.ResponseWriter, r *http.Request) {
	if h.RateLimiter != nil && !h.RateLimiter.Allow(getClientIP(r)) {
		writeErrorResponse(w, http.StatusTooManyRequests, "RATE_LIMITED", "Too many requests. Please try again later.")
		return
	}

	var input usecase.CreateLeadInput
	if err := decodeJSON(w, r, &input); err != nil {
		writeErrorResponse(w, http.StatusBadRequest, "INVALID_JSON", "Invalid JSON")
		return
	}

	lead, err := h.CreateLeadUC.Execute(r.Context(), input)
	if err != nil {
		writeUseCaseError(w, r, err, http.StatusBadRequest)
		return
	}

	middleware.RecordLeadCaptured()
	writeJSON(w, http.StatusCreated, lead)
}

// Show returns one lead to staff (GET /leads/{id}).
func (h *LeadHandler) Show(w http.ResponseWriter, r *http.Request) {
	lead, err := h.GetLeadUC.Execute(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeUseCaseError(w, r, err, http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, lead)
}
