package usecase

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/xavierca1/visa-crm/internal/entity"
)

type RejectLeadUseCase struct {
	Repo     entity.LeadRepositoryInterface
	Notifier Notifier
	Now      func() time.Time
}

func NewRejectLeadUseCase(repo entity.LeadRepositoryInterface, notifier Notifier) *RejectLeadUseCase {
	return &RejectLeadUseCase{Repo: repo, Notifier: notifier, Now: time.Now}
}

func (uc *RejectLeadUseCase) Execute(ctx context.Context, input RejectLeadInput) (*entity.Lead, error) {
	now := uc.Now().UTC()
	lead, err := uc.Repo.Update(ctx, input.LeadID, func(l *entity.Lead) error {
		return l.Reject(input.Reason, now)
	})
	if err != nil {
		return nil, translateLeadError(err, "Lead cannot be rejected")
	}

	log.Info().Str("lead_id", lead.ID).Msg("lead rejected")

	if uc.Notifier != nil {
		if err := uc.Notifier.NotifyLeadRejected(ctx, lead); err != nil {
			log.Warn().Err(err).Str("lead_id", lead.ID).Msg("lead rejected but notification failed")
		}
	}
	return lead, nil
}
