package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/xavierca1/visa-crm/internal/entity"
	"github.com/xavierca1/visa-crm/internal/infra/http/middleware"
	"github.com/xavierca1/visa-crm/internal/usecase"
)

type AdminLeadHandler struct {
	ListLeadsUC   *usecase.ListLeadsUseCase
	StartReviewUC *usecase.StartReviewUseCase
	ApproveLeadUC *usecase.ApproveLeadUseCase
	RejectLeadUC  *usecase.RejectLeadUseCase
}

func NewAdminLeadHandler(
	list *usecase.ListLeadsUseCase,
	review *usecase.StartReviewUseCase,
	approve *usecase.ApproveLeadUseCase,
	reject *usecase.RejectLeadUseCase,
) *AdminLeadHandler {
	return &AdminLeadHandler{
		ListLeadsUC:   list,
		StartReviewUC: review,
		ApproveLeadUC: approve,
		RejectLeadUC:  reject,
	}
}

type LeadActionResponse struct {
	Message         string       `json:"message"`
	Lead            *entity.Lead `json:"lead"`
	OnboardingToken string       `json:"onboarding_token,omitempty"`
}

// List handles GET /admin/leads?status=&search=&page=&per_page=.
func (h *AdminLeadHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := entity.LeadFilter{
		Status:  entity.LeadStatus(q.Get("status")),
		Search:  q.Get("search"),
		Page:    atoiOrZero(q.Get("page")),
		PerPage: atoiOrZero(q.Get("per_page")),
	}

	page, err := h.ListLeadsUC.Execute(r.Context(), filter)
	if err != nil {
		writeUseCaseError(w, r, err, http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (h *AdminLeadHandler) Review(w http.ResponseWriter, r *http.Request) {
	lead, err := h.StartReviewUC.Execute(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeUseCaseError(w, r, err, http.StatusBadRequest)
		return
	}
	middleware.RecordLeadReview("review")
	writeJSON(w, http.StatusOK, LeadActionResponse{Message: "Lead moved to review", Lead: lead})
}

func (h *AdminLeadHandler) Approve(w http.ResponseWriter, r *http.Request) {
	input := usecase.ApproveLeadInput{LeadID: chi.URLParam(r, "id")}
	if claims, ok := middleware.ClaimsFromContext(r.Context()); ok {
		input.ApproverID = claims.UserID
	}

	out, err := h.ApproveLeadUC.Execute(r.Context(), input)
	if err != nil {
		writeUseCaseError(w, r, err, http.StatusBadRequest)
		return
	}

	middleware.RecordLeadReview("approved")
	writeJSON(w, http.StatusOK, LeadActionResponse{
		Message:         "Lead approved successfully",
		Lead:            out.Lead,
		OnboardingToken: out.OnboardingToken,
	})
}

func (h *AdminLeadHandler) Reject(w http.ResponseWriter, r *http.Request) {
	var input usecase.RejectLeadInput
	if err := decodeJSON(w, r, &input); err != nil {
		writeErrorResponse(w, http.StatusBadRequest, "INVALID_JSON", "Invalid JSON")
		return
	}
	input.LeadID = chi.URLParam(r, "id")

	lead, err := h.RejectLeadUC.Execute(r.Context(), input)
	if err != nil {
		writeUseCaseError(w, r, err, http.StatusBadRequest)
		return
	}

	middleware.RecordLeadReview("rejected")
	writeJSON(w, http.StatusOK, LeadActionResponse{Message: "Lead rejected successfully", Lead: lead})
}

func atoiOrZero(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}
