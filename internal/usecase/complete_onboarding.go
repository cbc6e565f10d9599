package usecase

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/xavierca1/visa-crm/internal/entity"
)

const onboardingCompletedMessage = "Onboarding completed successfully"

// ShowOnboardingUseCase checks that a token can still be redeemed.
type ShowOnboardingUseCase struct {
	Tokens *OnboardingTokenService
	Now    func() time.Time
}

func NewShowOnboardingUseCase(tokens *OnboardingTokenService) *ShowOnboardingUseCase {
	return &ShowOnboardingUseCase{Tokens: tokens, Now: time.Now}
}

func (uc *ShowOnboardingUseCase) Execute(ctx context.Context, token string) (*entity.Lead, error) {
	lead, err := uc.Tokens.Verify(ctx, token)
	if err != nil {
		return nil, translateLeadError(err, "Lead not approved")
	}
	if err := uc.Tokens.CheckValidity(lead, uc.Now().UTC()); err != nil {
		return nil, translateLeadError(err, "Lead not approved")
	}
	return lead, nil
}

// CompleteOnboardingUseCase redeems a token and turns the approved lead into
// a customer user with a linked contact.
type CompleteOnboardingUseCase struct {
	Tokens     *OnboardingTokenService
	Onboarding entity.OnboardingRepositoryInterface
	Passwords  SecretHasher
	Sessions   SessionIssuer
	Now        func() time.Time
}

func NewCompleteOnboardingUseCase(
	tokens *OnboardingTokenService,
	onboarding entity.OnboardingRepositoryInterface,
	passwords SecretHasher,
	sessions SessionIssuer,
) *CompleteOnboardingUseCase {
	return &CompleteOnboardingUseCase{
		Tokens:     tokens,
		Onboarding: onboarding,
		Passwords:  passwords,
		Sessions:   sessions,
		Now:        time.Now,
	}
}

func (uc *CompleteOnboardingUseCase) Execute(ctx context.Context, token string, input CompleteOnboardingInput) (*CompleteOnboardingOutput, error) {
	now := uc.Now().UTC()

	lead, err := uc.Tokens.Verify(ctx, token)
	if err != nil {
		return nil, translateLeadError(err, "Lead not approved")
	}
	if err := uc.Tokens.CheckValidity(lead, now); err != nil {
		return nil, translateLeadError(err, "Lead not approved")
	}

	if errs := ValidateCompleteOnboardingInput(input); len(errs) > 0 {
		return nil, newValidationError(errs)
	}

	passwordHash, err := uc.Passwords.Hash(input.Password)
	if err != nil {
		return nil, &TechnicalError{Code: CodePassword, Message: "failed to hash password", Err: err}
	}

	user := entity.NewCustomerUser(lead, passwordHash, now)
	contact, err := entity.NewContactFromLead(lead, user.ID, entity.ContactDetails{
		Phone:   input.Phone,
		Company: input.Company,
		Address: input.Address,
	}, now)
	if err != nil {
		return nil, &TechnicalError{Code: CodeDatabase, Message: "failed to build contact", Err: err}
	}

	conversion := &entity.Conversion{
		LeadID:   lead.ID,
		Selector: lead.OnboardingSelector,
		User:     user,
		Contact:  contact,
		Role:     entity.RoleCustomer,
		At:       now,
	}
	if err := uc.Onboarding.Convert(ctx, conversion); err != nil {
		log.Warn().Err(err).Str("lead_id", lead.ID).Msg("onboarding conversion failed")
		return nil, translateLeadError(err, "Lead not approved")
	}

	user.Contact = contact
	log.Info().Str("lead_id", lead.ID).Str("user_id", user.ID).Msg("lead converted")

	// The conversion is committed at this point; a session failure leaves it
	// in place and the user signs in through the login endpoint.
	session, err := uc.Sessions.Issue(user)
	if err != nil {
		log.Error().Err(err).Str("user_id", user.ID).Msg("failed to issue session after conversion")
		return nil, &TechnicalError{Code: CodeSession, Message: "failed to issue session", Err: err}
	}

	return &CompleteOnboardingOutput{
		Message: onboardingCompletedMessage,
		User:    user,
		Token:   session,
	}, nil
}
