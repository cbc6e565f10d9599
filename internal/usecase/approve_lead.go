package usecase

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/xavierca1/visa-crm/internal/entity"
)

type ApproveLeadUseCase struct {
	Repo     entity.LeadRepositoryInterface
	Tokens   *OnboardingTokenService
	Notifier Notifier
	Now      func() time.Time
}

func NewApproveLeadUseCase(repo entity.LeadRepositoryInterface, tokens *OnboardingTokenService, notifier Notifier) *ApproveLeadUseCase {
	return &ApproveLeadUseCase{
		Repo:     repo,
		Tokens:   tokens,
		Notifier: notifier,
		Now:      time.Now,
	}
}

// Execute approves a NEW or UNDER_REVIEW lead and attaches a fresh
// onboarding credential. The plaintext token is returned once and handed to
// the notifier; it is never persisted.
func (uc *ApproveLeadUseCase) Execute(ctx context.Context, input ApproveLeadInput) (*ApproveLeadOutput, error) {
	now := uc.Now().UTC()

	// Hashing is slow, keep it outside the row lock.
	issued, err := uc.Tokens.Issue(now)
	if err != nil {
		return nil, &TechnicalError{Code: CodeToken, Message: "failed to issue onboarding token", Err: err}
	}

	lead, err := uc.Repo.Update(ctx, input.LeadID, func(l *entity.Lead) error {
		return l.Approve(issued.Credential, input.ApproverID, now)
	})
	if err != nil {
		return nil, translateLeadError(err, "Lead cannot be approved")
	}

	log.Info().
		Str("lead_id", lead.ID).
		Str("approved_by", input.ApproverID).
		Time("onboarding_expires_at", issued.Credential.ExpiresAt).
		Msg("lead approved")

	if uc.Notifier != nil {
		if err := uc.Notifier.NotifyLeadApproved(ctx, lead, issued.Plaintext); err != nil {
			log.Warn().Err(err).Str("lead_id", lead.ID).Msg("lead approved but notification failed")
		}
	}

	return &ApproveLeadOutput{Lead: lead, OnboardingToken: issued.Plaintext}, nil
}
