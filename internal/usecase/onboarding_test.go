package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xavierca1/visa-crm/internal/entity"
	"github.com/xavierca1/visa-crm/internal/testkit"
)

type harness struct {
	store    *testkit.Store
	notifier *testkit.Notifier
	clock    time.Time

	create   *CreateLeadUseCase
	approve  *ApproveLeadUseCase
	reject   *RejectLeadUseCase
	review   *StartReviewUseCase
	show     *ShowOnboardingUseCase
	complete *CompleteOnboardingUseCase
	tokens   *OnboardingTokenService
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	h := &harness{
		store:    testkit.NewStore(),
		notifier: &testkit.Notifier{},
		clock:    time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC),
	}
	now := func() time.Time { return h.clock }

	leads := h.store.LeadRepo()
	h.tokens = NewOnboardingTokenService(leads, testkit.Hasher{}, 24*time.Hour)

	h.create = NewCreateLeadUseCase(leads)
	h.create.Now = now
	h.approve = NewApproveLeadUseCase(leads, h.tokens, h.notifier)
	h.approve.Now = now
	h.reject = NewRejectLeadUseCase(leads, h.notifier)
	h.reject.Now = now
	h.review = NewStartReviewUseCase(leads)
	h.review.Now = now
	h.show = NewShowOnboardingUseCase(h.tokens)
	h.show.Now = now
	h.complete = NewCompleteOnboardingUseCase(h.tokens, h.store.OnboardingRepo(), testkit.Hasher{}, testkit.Sessions{})
	h.complete.Now = now
	return h
}

func (h *harness) newLead(t *testing.T) *entity.Lead {
	t.Helper()
	lead, err := h.create.Execute(context.Background(), CreateLeadInput{FullName: "Jane Doe", Email: "jane@example.com"})
	require.NoError(t, err)
	return lead
}

func (h *harness) approved(t *testing.T) (*entity.Lead, string) {
	t.Helper()
	lead := h.newLead(t)
	out, err := h.approve.Execute(context.Background(), ApproveLeadInput{LeadID: lead.ID, ApproverID: "staff-1"})
	require.NoError(t, err)
	return out.Lead, out.OnboardingToken
}

func validCompletion() CompleteOnboardingInput {
	return CompleteOnboardingInput{Password: "secret123", PasswordConfirmation: "secret123"}
}

func assertCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	assert.Equal(t, code, ErrorCode(err))
}

func TestLeadLifecycleEndToEnd(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	lead := h.newLead(t)
	assert.Equal(t, entity.LeadStatusNew, lead.Status)

	out, err := h.approve.Execute(ctx, ApproveLeadInput{LeadID: lead.ID, ApproverID: "staff-1"})
	require.NoError(t, err)
	assert.Equal(t, entity.LeadStatusApproved, out.Lead.Status)
	require.NotNil(t, out.Lead.OnboardingExpiresAt)
	assert.WithinDuration(t, h.clock.Add(24*time.Hour), *out.Lead.OnboardingExpiresAt, time.Second)
	require.Len(t, h.notifier.Approved, 1)
	assert.Equal(t, out.OnboardingToken, h.notifier.Approved[0].Token)
	assert.Equal(t, "jane@example.com", h.notifier.Approved[0].Email)

	shown, err := h.show.Execute(ctx, out.OnboardingToken)
	require.NoError(t, err)
	assert.Equal(t, lead.ID, shown.ID)

	result, err := h.complete.Execute(ctx, out.OnboardingToken, validCompletion())
	require.NoError(t, err)
	assert.Equal(t, "Onboarding completed successfully", result.Message)
	assert.Equal(t, "session-"+result.User.ID, result.Token)
	assert.True(t, result.User.HasRole(entity.RoleCustomer))
	require.NotNil(t, result.User.Contact)
	assert.Equal(t, lead.ID, *result.User.Contact.LeadID)
	assert.Equal(t, "Jane Doe", result.User.Name)
	assert.True(t, testkit.Hasher{}.Compare(result.User.PasswordHash, "secret123"))

	stored, _ := h.store.Lead(lead.ID)
	assert.Equal(t, entity.LeadStatusConverted, stored.Status)
	assert.Empty(t, stored.OnboardingTokenHash)
	assert.Empty(t, stored.OnboardingSelector)
	assert.Nil(t, stored.OnboardingExpiresAt)
	assert.Equal(t, 1, h.store.UserCount())
	assert.Equal(t, 1, h.store.ContactCount())
}

func TestApproveTokenShapeAndStorage(t *testing.T) {
	h := newHarness(t)
	lead, token := h.approved(t)

	assert.GreaterOrEqual(t, len(token), 64)
	for _, r := range token {
		ok := r == '-' || r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
		require.True(t, ok, "token must be url safe, got %q", r)
	}

	stored, _ := h.store.Lead(lead.ID)
	assert.NotContains(t, stored.OnboardingTokenHash, token)
	assert.NotEqual(t, token, stored.OnboardingSelector)
	assert.False(t, strings.Contains(stored.OnboardingTokenHash, token[selectorLen:]))
	assert.True(t, testkit.Hasher{}.Compare(stored.OnboardingTokenHash, token[selectorLen:]))
	assert.Equal(t, "staff-1", *stored.ApprovedBy)
}

func TestApproveTwiceFails(t *testing.T) {
	h := newHarness(t)
	lead, _ := h.approved(t)

	_, err := h.approve.Execute(context.Background(), ApproveLeadInput{LeadID: lead.ID})
	assertCode(t, err, CodeInvalidState)
	assert.Len(t, h.notifier.Approved, 1)
}

func TestApproveUnknownLead(t *testing.T) {
	h := newHarness(t)
	_, err := h.approve.Execute(context.Background(), ApproveLeadInput{LeadID: "missing"})
	assertCode(t, err, CodeNotFound)
}

func TestApproveSurvivesNotificationFailure(t *testing.T) {
	h := newHarness(t)
	h.notifier.Err = testkit.ErrBoom
	lead := h.newLead(t)

	out, err := h.approve.Execute(context.Background(), ApproveLeadInput{LeadID: lead.ID})
	require.NoError(t, err)
	assert.Equal(t, entity.LeadStatusApproved, out.Lead.Status)
}

func TestRejectThenApproveFails(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	lead := h.newLead(t)

	rejected, err := h.reject.Execute(ctx, RejectLeadInput{LeadID: lead.ID, Reason: "Not a fit"})
	require.NoError(t, err)
	assert.Equal(t, entity.LeadStatusRejected, rejected.Status)
	require.NotNil(t, rejected.RejectionReason)
	assert.Equal(t, "Not a fit", *rejected.RejectionReason)
	assert.Equal(t, []string{lead.ID}, h.notifier.Rejected)

	_, err = h.approve.Execute(ctx, ApproveLeadInput{LeadID: lead.ID})
	assertCode(t, err, CodeInvalidState)

	_, err = h.reject.Execute(ctx, RejectLeadInput{LeadID: lead.ID})
	assertCode(t, err, CodeInvalidState)
}

func TestReviewThenApprove(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	lead := h.newLead(t)

	reviewed, err := h.review.Execute(ctx, lead.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.LeadStatusUnderReview, reviewed.Status)

	_, err = h.review.Execute(ctx, lead.ID)
	assertCode(t, err, CodeInvalidState)

	out, err := h.approve.Execute(ctx, ApproveLeadInput{LeadID: lead.ID})
	require.NoError(t, err)
	assert.Equal(t, entity.LeadStatusApproved, out.Lead.Status)
}

func TestRedeemTwice(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	_, token := h.approved(t)

	_, err := h.complete.Execute(ctx, token, validCompletion())
	require.NoError(t, err)

	_, err = h.complete.Execute(ctx, token, validCompletion())
	assertCode(t, err, CodeNotFound)
	assert.Equal(t, 1, h.store.UserCount())
	assert.Equal(t, 1, h.store.ContactCount())

	_, err = h.show.Execute(ctx, token)
	assertCode(t, err, CodeNotFound)
}

func TestRedeemExpiredToken(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	lead, token := h.approved(t)

	h.clock = h.clock.Add(25 * time.Hour)

	_, err := h.show.Execute(ctx, token)
	assertCode(t, err, CodeTokenExpired)

	_, err = h.complete.Execute(ctx, token, validCompletion())
	assertCode(t, err, CodeTokenExpired)

	stored, _ := h.store.Lead(lead.ID)
	assert.Equal(t, entity.LeadStatusApproved, stored.Status)
	assert.Equal(t, 0, h.store.UserCount())
}

func TestRedeemWrongConfirmationKeepsTokenValid(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	lead, token := h.approved(t)

	_, err := h.complete.Execute(ctx, token, CompleteOnboardingInput{Password: "secret123", PasswordConfirmation: "secret999"})
	assertCode(t, err, CodeValidation)
	var de *DomainError
	require.True(t, errors.As(err, &de))
	assert.Contains(t, de.Fields, "password")

	stored, _ := h.store.Lead(lead.ID)
	assert.Equal(t, entity.LeadStatusApproved, stored.Status)

	_, err = h.complete.Execute(ctx, token, validCompletion())
	require.NoError(t, err)
}

func TestRedeemOverlongPasswordIsValidationError(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	lead, token := h.approved(t)

	long := strings.Repeat("p", 80)
	_, err := h.complete.Execute(ctx, token, CompleteOnboardingInput{Password: long, PasswordConfirmation: long})
	assertCode(t, err, CodeValidation)
	var de *DomainError
	require.True(t, errors.As(err, &de))
	assert.Equal(t, []string{"must not exceed 72 bytes"}, de.Fields["password"])

	stored, _ := h.store.Lead(lead.ID)
	assert.Equal(t, entity.LeadStatusApproved, stored.Status)
	assert.Zero(t, h.store.UserCount())
}

type failingPasswordHasher struct{ testkit.Hasher }

func (failingPasswordHasher) Hash(string) (string, error) { return "", testkit.ErrBoom }

func TestRedeemPasswordHashFailure(t *testing.T) {
	h := newHarness(t)
	h.complete.Passwords = failingPasswordHasher{}
	lead, token := h.approved(t)

	_, err := h.complete.Execute(context.Background(), token, validCompletion())
	assertCode(t, err, CodePassword)

	stored, _ := h.store.Lead(lead.ID)
	assert.Equal(t, entity.LeadStatusApproved, stored.Status)
}

func TestRedeemGarbageToken(t *testing.T) {
	h := newHarness(t)
	_, token := h.approved(t)

	for _, candidate := range []string{"", "short", strings.Repeat("a", len(token)), token[:selectorLen] + strings.Repeat("A", verifierLen)} {
		_, err := h.show.Execute(context.Background(), candidate)
		assertCode(t, err, CodeNotFound)
	}
}

func TestRedeemRollsBackWhenContactFails(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	lead, token := h.approved(t)

	h.store.FailContactInsert = testkit.ErrBoom
	_, err := h.complete.Execute(ctx, token, validCompletion())
	assertCode(t, err, CodeDatabase)
	assert.Equal(t, 0, h.store.UserCount())
	assert.Equal(t, 0, h.store.ContactCount())

	stored, _ := h.store.Lead(lead.ID)
	assert.Equal(t, entity.LeadStatusApproved, stored.Status)
	assert.NotEmpty(t, stored.OnboardingTokenHash)
}

func TestRedeemEmailConflict(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	lead, token := h.approved(t)

	existing := entity.NewStaffUser("Jane", "jane@example.com", "x", h.clock)
	require.NoError(t, h.store.UserRepo().CreateWithRoles(ctx, existing, nil))

	_, err := h.complete.Execute(ctx, token, validCompletion())
	assertCode(t, err, CodeConflict)

	stored, _ := h.store.Lead(lead.ID)
	assert.Equal(t, entity.LeadStatusApproved, stored.Status)
}

func TestRedeemOverridesContactDetails(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	lead, err := h.create.Execute(ctx, CreateLeadInput{FullName: "Jane Doe", Email: "jane@example.com", Phone: "5551234567", Company: "Old Co"})
	require.NoError(t, err)
	out, err := h.approve.Execute(ctx, ApproveLeadInput{LeadID: lead.ID})
	require.NoError(t, err)

	input := validCompletion()
	input.Company = "New Co"
	input.Address = "1 Main St"
	result, err := h.complete.Execute(ctx, out.OnboardingToken, input)
	require.NoError(t, err)

	assert.Equal(t, "New Co", result.User.Contact.Company)
	assert.Equal(t, "5551234567", result.User.Contact.Phone)
	assert.Equal(t, "1 Main St", result.User.Contact.Address)
}

func TestSessionFailureAfterConversion(t *testing.T) {
	h := newHarness(t)
	h.complete.Sessions = testkit.Sessions{Err: testkit.ErrBoom}
	lead, token := h.approved(t)

	_, err := h.complete.Execute(context.Background(), token, validCompletion())
	assertCode(t, err, CodeSession)

	stored, _ := h.store.Lead(lead.ID)
	assert.Equal(t, entity.LeadStatusConverted, stored.Status)
}

func TestConcurrentRedeemHasOneWinner(t *testing.T) {
	h := newHarness(t)
	_, token := h.approved(t)

	const racers = 5
	errs := make(chan error, racers)
	for i := 0; i < racers; i++ {
		go func() {
			_, err := h.complete.Execute(context.Background(), token, validCompletion())
			errs <- err
		}()
	}

	successes := 0
	for i := 0; i < racers; i++ {
		err := <-errs
		if err == nil {
			successes++
			continue
		}
		code := ErrorCode(err)
		assert.Contains(t, []string{CodeNotFound, CodeInvalidState}, code)
	}
	assert.Equal(t, 1, successes)
	assert.Equal(t, 1, h.store.UserCount())
}
