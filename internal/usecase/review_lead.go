package usecase

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/xavierca1/visa-crm/internal/entity"
)

// StartReviewUseCase moves a NEW lead to UNDER_REVIEW.
type StartReviewUseCase struct {
	Repo entity.LeadRepositoryInterface
	Now  func() time.Time
}

func NewStartReviewUseCase(repo entity.LeadRepositoryInterface) *StartReviewUseCase {
	return &StartReviewUseCase{Repo: repo, Now: time.Now}
}

func (uc *StartReviewUseCase) Execute(ctx context.Context, leadID string) (*entity.Lead, error) {
	now := uc.Now().UTC()
	lead, err := uc.Repo.Update(ctx, leadID, func(l *entity.Lead) error {
		return l.StartReview(now)
	})
	if err != nil {
		return nil, translateLeadError(err, "Lead cannot be moved to review")
	}

	log.Info().Str("lead_id", lead.ID).Msg("lead under review")
	return lead, nil
}
