package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xavierca1/visa-crm/internal/entity"
	"github.com/xavierca1/visa-crm/internal/infra/auth"
	"github.com/xavierca1/visa-crm/internal/infra/database"
	"github.com/xavierca1/visa-crm/internal/infra/http/middleware"
	"github.com/xavierca1/visa-crm/internal/testkit"
	"github.com/xavierca1/visa-crm/internal/usecase"
)

type testServer struct {
	store    *testkit.Store
	notifier *testkit.Notifier
	clock    time.Time
	router   http.Handler
}

func newTestServer(t *testing.T, limiter *RateLimiter) *testServer {
	t.Helper()
	s := &testServer{
		store:    testkit.NewStore(),
		notifier: &testkit.Notifier{},
		clock:    time.Now().UTC(),
	}
	now := func() time.Time { return s.clock }

	leads := s.store.LeadRepo()
	tokens := usecase.NewOnboardingTokenService(leads, testkit.Hasher{}, 24*time.Hour)

	create := usecase.NewCreateLeadUseCase(leads)
	create.Now = now
	approve := usecase.NewApproveLeadUseCase(leads, tokens, s.notifier)
	approve.Now = now
	reject := usecase.NewRejectLeadUseCase(leads, s.notifier)
	reject.Now = now
	review := usecase.NewStartReviewUseCase(leads)
	review.Now = now
	show := usecase.NewShowOnboardingUseCase(tokens)
	show.Now = now
	complete := usecase.NewCompleteOnboardingUseCase(tokens, s.store.OnboardingRepo(), testkit.Hasher{}, testkit.Sessions{})
	complete.Now = now

	leadHandler := NewLeadHandler(create, usecase.NewGetLeadUseCase(leads), limiter)
	adminHandler := NewAdminLeadHandler(usecase.NewListLeadsUseCase(leads), review, approve, reject)
	onboardingHandler := NewOnboardingHandler(show, complete)

	r := chi.NewRouter()
	r.Post("/leads", leadHandler.CaptureLead)
	r.Get("/onboard/{token}", onboardingHandler.Show)
	r.Post("/onboard/{token}", onboardingHandler.Complete)
	r.Group(func(r chi.Router) {
		r.Use(func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
				claims := &auth.Claims{UserID: "staff-1", Roles: []entity.RoleSlug{entity.RoleAdmin}}
				next.ServeHTTP(w, req.WithContext(middleware.WithClaims(req.Context(), claims)))
			})
		})
		r.Get("/leads/{id}", leadHandler.Show)
		r.Get("/admin/leads", adminHandler.List)
		r.Post("/admin/leads/{id}/review", adminHandler.Review)
		r.Post("/admin/leads/{id}/approve", adminHandler.Approve)
		r.Post("/admin/leads/{id}/reject", adminHandler.Reject)
	})
	s.router = r
	return s
}

func (s *testServer) do(t *testing.T, method, path, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	var payload map[string]any
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload), rec.Body.String())
	}
	return rec, payload
}

func (s *testServer) createLead(t *testing.T) string {
	t.Helper()
	rec, body := s.do(t, http.MethodPost, "/leads", `{"full_name":"Jane Doe","email":"jane@example.com"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "NEW", body["status"])
	return body["id"].(string)
}

func (s *testServer) approveLead(t *testing.T, id string) string {
	t.Helper()
	rec, body := s.do(t, http.MethodPost, "/admin/leads/"+id+"/approve", "")
	require.Equal(t, http.StatusOK, rec.Code)
	return body["onboarding_token"].(string)
}

func TestOnboardingFlowOverHTTP(t *testing.T) {
	s := newTestServer(t, nil)
	id := s.createLead(t)

	rec, body := s.do(t, http.MethodPost, "/admin/leads/"+id+"/approve", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Lead approved successfully", body["message"])
	lead := body["lead"].(map[string]any)
	assert.Equal(t, "APPROVED", lead["status"])
	assert.Equal(t, "staff-1", lead["approved_by"])
	assert.NotContains(t, lead, "onboarding_token_hash")
	assert.NotContains(t, lead, "OnboardingSelector")
	token := body["onboarding_token"].(string)

	rec, body = s.do(t, http.MethodGet, "/onboard/"+token, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, token, body["token"])

	rec, body = s.do(t, http.MethodPost, "/onboard/"+token, `{"password":"secret123","password_confirmation":"secret123"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "Onboarding completed successfully", body["message"])
	assert.NotEmpty(t, body["token"])
	user := body["user"].(map[string]any)
	assert.Equal(t, "jane@example.com", user["email"])
	assert.NotContains(t, user, "password_hash")
	assert.NotNil(t, user["contact"])
	roles := user["roles"].([]any)
	require.Len(t, roles, 1)
	assert.Equal(t, "customer", roles[0].(map[string]any)["slug"])

	rec, _ = s.do(t, http.MethodGet, "/leads/"+id, "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec, body = s.do(t, http.MethodPost, "/onboard/"+token, `{"password":"secret123","password_confirmation":"secret123"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Invalid token", body["message"])
}

func TestCaptureLeadValidation(t *testing.T) {
	s := newTestServer(t, nil)

	rec, body := s.do(t, http.MethodPost, "/leads", `{"email":"nope"}`)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "VALIDATION_ERROR", body["code"])
	errs := body["errors"].(map[string]any)
	assert.Contains(t, errs, "full_name")
	assert.Contains(t, errs, "email")
}

func TestCaptureLeadInvalidJSON(t *testing.T) {
	s := newTestServer(t, nil)
	rec, _ := s.do(t, http.MethodPost, "/leads", `{"full_name":`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCaptureLeadRateLimited(t *testing.T) {
	s := newTestServer(t, NewRateLimiter(1, time.Hour))
	s.createLead(t)

	rec, body := s.do(t, http.MethodPost, "/leads", `{"full_name":"Jane Doe","email":"jane@example.com"}`)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "Too many requests. Please try again later.", body["message"])
}

func TestApproveWrongStateIs400(t *testing.T) {
	s := newTestServer(t, nil)
	id := s.createLead(t)
	s.approveLead(t, id)

	rec, body := s.do(t, http.MethodPost, "/admin/leads/"+id+"/approve", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Lead cannot be approved", body["message"])

	rec, _ = s.do(t, http.MethodPost, "/admin/leads/missing/approve", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRejectThenApproveOverHTTP(t *testing.T) {
	s := newTestServer(t, nil)
	id := s.createLead(t)

	rec, body := s.do(t, http.MethodPost, "/admin/leads/"+id+"/reject", `{"rejection_reason":"Not a fit"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	lead := body["lead"].(map[string]any)
	assert.Equal(t, "REJECTED", lead["status"])
	assert.Equal(t, "Not a fit", lead["rejection_reason"])

	rec, _ = s.do(t, http.MethodPost, "/admin/leads/"+id+"/approve", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestReviewAndList(t *testing.T) {
	s := newTestServer(t, nil)
	id := s.createLead(t)

	rec, body := s.do(t, http.MethodPost, "/admin/leads/"+id+"/review", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "UNDER_REVIEW", body["lead"].(map[string]any)["status"])

	rec, body = s.do(t, http.MethodGet, "/admin/leads?status=UNDER_REVIEW&search=jane", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(1), body["total"])
	assert.Equal(t, float64(20), body["per_page"])

	rec, _ = s.do(t, http.MethodGet, "/admin/leads?status=BOGUS", "")
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestOnboardingErrorStatuses(t *testing.T) {
	s := newTestServer(t, nil)
	id := s.createLead(t)
	token := s.approveLead(t, id)

	rec, body := s.do(t, http.MethodPost, "/onboard/"+token, `{"password":"secret123","password_confirmation":"nope12345"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, body["errors"], "password")

	rec, _ = s.do(t, http.MethodGet, "/onboard/not-a-token", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	stored, ok := s.store.Lead(id)
	require.True(t, ok)
	stored.Status = entity.LeadStatusUnderReview
	s.store.PutLead(&stored)
	rec, body = s.do(t, http.MethodGet, "/onboard/"+token, "")
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "Lead not approved", body["message"])

	s.clock = s.clock.Add(48 * time.Hour)
	rec, body = s.do(t, http.MethodGet, "/onboard/"+token, "")
	assert.Equal(t, http.StatusGone, rec.Code)
	assert.Equal(t, "Token has expired", body["message"])
}

func TestOnboardingOverlongPasswordIs422(t *testing.T) {
	s := newTestServer(t, nil)
	id := s.createLead(t)
	token := s.approveLead(t, id)

	long := strings.Repeat("p", 80)
	rec, body := s.do(t, http.MethodPost, "/onboard/"+token,
		`{"password":"`+long+`","password_confirmation":"`+long+`"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	errs, ok := body["errors"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, []any{"must not exceed 72 bytes"}, errs["password"])
}

func TestMalformedLeadIDIs404(t *testing.T) {
	// No expectations: any statement reaching the database fails the request with 500.
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	leads := database.NewLeadRepository(db)
	tokens := usecase.NewOnboardingTokenService(leads, testkit.Hasher{}, 24*time.Hour)
	notifier := &testkit.Notifier{}
	leadHandler := NewLeadHandler(usecase.NewCreateLeadUseCase(leads), usecase.NewGetLeadUseCase(leads), nil)
	adminHandler := NewAdminLeadHandler(
		usecase.NewListLeadsUseCase(leads),
		usecase.NewStartReviewUseCase(leads),
		usecase.NewApproveLeadUseCase(leads, tokens, notifier),
		usecase.NewRejectLeadUseCase(leads, notifier),
	)

	r := chi.NewRouter()
	r.Get("/leads/{id}", leadHandler.Show)
	r.Post("/admin/leads/{id}/review", adminHandler.Review)
	r.Post("/admin/leads/{id}/approve", adminHandler.Approve)
	r.Post("/admin/leads/{id}/reject", adminHandler.Reject)

	tests := []struct {
		method string
		path   string
		body   string
	}{
		{http.MethodGet, "/leads/abc", ""},
		{http.MethodPost, "/admin/leads/abc/review", ""},
		{http.MethodPost, "/admin/leads/abc/approve", ""},
		{http.MethodPost, "/admin/leads/abc/reject", `{"rejection_reason":"no"}`},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			var req *http.Request
			if tt.body == "" {
				req = httptest.NewRequest(tt.method, tt.path, nil)
			} else {
				req = httptest.NewRequest(tt.method, tt.path, strings.NewReader(tt.body))
				req.Header.Set("Content-Type", "application/json")
			}
			req = req.WithContext(middleware.WithClaims(req.Context(), &auth.Claims{UserID: "staff-1", Roles: []entity.RoleSlug{entity.RoleAdmin}}))
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, req)
			assert.Equal(t, http.StatusNotFound, rec.Code, rec.Body.String())
		})
	}
	assert.NoError(t, mock.ExpectationsWereMet())
	assert.Empty(t, notifier.Approved)
}

func TestWriteUseCaseErrorHidesTechnicalDetails(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	err := &usecase.TechnicalError{Code: usecase.CodeDatabase, Message: "failed", Err: errors.New("pq: password authentication failed")}

	writeUseCaseError(rec, req, err, http.StatusBadRequest)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "pq:")
	assert.Contains(t, rec.Body.String(), "DATABASE_ERROR")
}

func TestRateLimiterWindow(t *testing.T) {
	rl := NewRateLimiter(2, time.Minute)
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	assert.True(t, rl.Allow("1.2.3.4"))
	assert.True(t, rl.Allow("1.2.3.4"))
	assert.False(t, rl.Allow("1.2.3.4"))
	assert.True(t, rl.Allow("5.6.7.8"))

	now = now.Add(2 * time.Minute)
	assert.True(t, rl.Allow("1.2.3.4"))

	now = now.Add(10 * time.Minute)
	rl.prune()
	assert.Empty(t, rl.visitors)
}

func TestRateLimiterZeroLimitRefusesEveryWindow(t *testing.T) {
	rl := NewRateLimiter(0, time.Minute)
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	assert.False(t, rl.Allow("1.2.3.4"))
	now = now.Add(2 * time.Minute)
	assert.False(t, rl.Allow("1.2.3.4"))
	assert.False(t, rl.Allow("1.2.3.4"))
}

func TestGetClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.1:5555"
	assert.Equal(t, "10.0.0.1", getClientIP(req))

	req.Header.Set("X-Real-IP", "9.9.9.9")
	assert.Equal(t, "9.9.9.9", getClientIP(req))

	req.Header.Set("X-Forwarded-For", "1.1.1.1, 2.2.2.2")
	assert.Equal(t, "1.1.1.1", getClientIP(req))
}

type fakePinger struct{ err error }

func (p fakePinger) PingContext(context.Context) error { return p.err }

type fakeBroker bool

func (b fakeBroker) IsConnected() bool { return bool(b) }

func TestHealthHandler(t *testing.T) {
	tests := []struct {
		name   string
		db     Pinger
		broker BrokerStatus
		want   int
	}{
		{"all healthy", fakePinger{}, fakeBroker(true), http.StatusOK},
		{"no broker configured", fakePinger{}, nil, http.StatusOK},
		{"database down", fakePinger{err: errors.New("refused")}, nil, http.StatusServiceUnavailable},
		{"broker closed", fakePinger{}, fakeBroker(false), http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHealthHandler(tt.db, tt.broker, "test")
			rec := httptest.NewRecorder()
			h.Handle(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}
