package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/xavierca1/visa-crm/internal/usecase"
)

type ErrorResponse struct {
	Code    string              `json:"code,omitempty"`
	Message string              `json:"message"`
	Errors  map[string][]string `json:"errors,omitempty"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeErrorResponse(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, ErrorResponse{Code: code, Message: message})
}

// writeUseCaseError maps a use case error to a response. invalidState is the
// status used for INVALID_STATE, which differs between staff and onboarding
// routes.
func writeUseCaseError(w http.ResponseWriter, r *http.Request, err error, invalidState int) {
	var de *usecase.DomainError
	if errors.As(err, &de) {
		writeJSON(w, domainStatus(de.Code, invalidState), ErrorResponse{
			Code:    de.Code,
			Message: de.Message,
			Errors:  de.Fields,
		})
		return
	}

	log.Error().Err(err).
		Str("code", usecase.ErrorCode(err)).
		Str("method", r.Method).
		Msg("request failed")
	writeErrorResponse(w, http.StatusInternalServerError, usecase.ErrorCode(err), "Internal server error")
}

func domainStatus(code string, invalidState int) int {
	switch code {
	case usecase.CodeNotFound:
		return http.StatusNotFound
	case usecase.CodeInvalidState:
		return invalidState
	case usecase.CodeTokenExpired:
		return http.StatusGone
	case usecase.CodeValidation:
		return http.StatusUnprocessableEntity
	case usecase.CodeConflict:
		return http.StatusConflict
	case usecase.CodeInvalidCredentials:
		return http.StatusUnauthorized
	default:
		return http.StatusBadRequest
	}
}

// decodeJSON reads a JSON body into dst. An empty body leaves dst untouched.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	if r.Body == nil || r.ContentLength == 0 {
		return nil
	}
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	if err := dec.Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}
