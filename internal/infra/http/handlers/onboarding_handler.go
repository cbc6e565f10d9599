package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/xavierca1/visa-crm/internal/entity"
	"github.com/xavierca1/visa-crm/internal/infra/http/middleware"
	"github.com/xavierca1/visa-crm/internal/usecase"
)

type OnboardingHandler struct {
	ShowUC     *usecase.ShowOnboardingUseCase
	CompleteUC *usecase.CompleteOnboardingUseCase
}

func NewOnboardingHandler(show *usecase.ShowOnboardingUseCase, complete *usecase.CompleteOnboardingUseCase) *OnboardingHandler {
	return &OnboardingHandler{ShowUC: show, CompleteUC: complete}
}

type OnboardingShowResponse struct {
	Lead  *entity.Lead `json:"lead"`
	Token string       `json:"token"`
}

// Show handles GET /onboard/{token}.
func (h *OnboardingHandler) Show(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")

	lead, err := h.ShowUC.Execute(r.Context(), token)
	if err != nil {
		writeUseCaseError(w, r, err, http.StatusForbidden)
		return
	}
	writeJSON(w, http.StatusOK, OnboardingShowResponse{Lead: lead, Token: token})
}

// Complete handles POST /onboard/{token}.
func (h *OnboardingHandler) Complete(w http.ResponseWriter, r *http.Request) {
	var input usecase.CompleteOnboardingInput
	if err := decodeJSON(w, r, &input); err != nil {
		writeErrorResponse(w, http.StatusBadRequest, "INVALID_JSON", "Invalid JSON")
		return
	}

	out, err := h.CompleteUC.Execute(r.Context(), chi.URLParam(r, "token"), input)
	if err != nil {
		middleware.RecordOnboardingFailure(failureReason(err))
		writeUseCaseError(w, r, err, http.StatusForbidden)
		return
	}

	middleware.RecordOnboardingCompleted()
	writeJSON(w, http.StatusCreated, out)
}

func failureReason(err error) string {
	if code := usecase.ErrorCode(err); code != "" {
		return code
	}
	return "unknown"
}
