package usecase

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/xavierca1/visa-crm/internal/entity"
)

type CreateLeadUseCase struct {
	Repo entity.LeadRepositoryInterface
	Now  func() time.Time
}

func NewCreateLeadUseCase(repo entity.LeadRepositoryInterface) *CreateLeadUseCase {
	return &CreateLeadUseCase{Repo: repo, Now: time.Now}
}

func (uc *CreateLeadUseCase) Execute(ctx context.Context, input CreateLeadInput) (*entity.Lead, error) {
	if errs := ValidateCreateLeadInput(input); len(errs) > 0 {
		return nil, newValidationError(errs)
	}

	lead := entity.NewLead(input.FullName, input.Email, input.Phone, input.Company, input.Message, input.Source, uc.Now().UTC())

	if err := uc.Repo.Create(ctx, lead); err != nil {
		return nil, &TechnicalError{Code: CodeDatabase, Message: "failed to create lead", Err: err}
	}

	log.Info().Str("lead_id", lead.ID).Str("source", lead.Source).Msg("lead captured")
	return lead, nil
}
