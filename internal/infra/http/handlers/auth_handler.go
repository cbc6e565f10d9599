package handlers

import (
	"net/http"

	"github.com/xavierca1/visa-crm/internal/usecase"
)

type AuthHandler struct {
	LoginUC *usecase.LoginUseCase
}

func NewAuthHandler(login *usecase.LoginUseCase) *AuthHandler {
	return &AuthHandler{LoginUC: login}
}

// Login handles POST /auth/login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var input usecase.LoginInput
	if err := decodeJSON(w, r, &input); err != nil {
		writeErrorResponse(w, http.StatusBadRequest, "INVALID_JSON", "Invalid JSON")
		return
	}

	out, err := h.LoginUC.Execute(r.Context(), input)
	if err != nil {
		writeUseCaseError(w, r, err, http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, out)
}
