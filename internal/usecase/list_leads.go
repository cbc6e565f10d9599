package usecase

import (
	"context"
	"math"

	"github.com/xavierca1/visa-crm/internal/entity"
)

const (
	defaultPerPage = 20
	maxPerPage     = 100
	// Keeps (page-1)*per_page well inside a Postgres bigint OFFSET.
	maxPage = math.MaxInt32 / maxPerPage
)

type ListLeadsUseCase struct {
	Repo entity.LeadRepositoryInterface
}

func NewListLeadsUseCase(repo entity.LeadRepositoryInterface) *ListLeadsUseCase {
	return &ListLeadsUseCase{Repo: repo}
}

func (uc *ListLeadsUseCase) Execute(ctx context.Context, filter entity.LeadFilter) (*entity.LeadPage, error) {
	if errs := ValidateLeadFilter(filter); len(errs) > 0 {
		return nil, newValidationError(errs)
	}

	switch {
	case filter.Page < 1:
		filter.Page = 1
	case filter.Page > maxPage:
		filter.Page = maxPage
	}
	switch {
	case filter.PerPage < 1:
		filter.PerPage = defaultPerPage
	case filter.PerPage > maxPerPage:
		filter.PerPage = maxPerPage
	}

	page, err := uc.Repo.List(ctx, filter)
	if err != nil {
		return nil, &TechnicalError{Code: CodeDatabase, Message: "failed to list leads", Err: err}
	}
	return page, nil
}

type GetLeadUseCase struct {
	Repo entity.LeadRepositoryInterface
}

func NewGetLeadUseCase(repo entity.LeadRepositoryInterface) *GetLeadUseCase {
	return &GetLeadUseCase{Repo: repo}
}

func (uc *GetLeadUseCase) Execute(ctx context.Context, id string) (*entity.Lead, error) {
	lead, err := uc.Repo.FindByID(ctx, id)
	if err != nil {
		return nil, translateLeadError(err, "")
	}
	return lead, nil
}
