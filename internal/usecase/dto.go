package usecase

import "github.com/xavierca1/visa-crm/internal/entity"

type CreateLeadInput struct {
	FullName string `json:"full_name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Company  string `json:"company"`
	Message  string `json:"message"`
	Source   string `json:"source"`
}

type ApproveLeadInput struct {
	LeadID     string
	ApproverID string
}

type ApproveLeadOutput struct {
	Lead            *entity.Lead
	OnboardingToken string
}

type RejectLeadInput struct {
	LeadID string
	Reason string `json:"rejection_reason"`
}

type CompleteOnboardingInput struct {
	Password             string `json:"password"`
	PasswordConfirmation string `json:"password_confirmation"`
	Phone                string `json:"phone"`
	Company              string `json:"company"`
	Address              string `json:"address"`
}

type CompleteOnboardingOutput struct {
	Message string       `json:"message"`
	User    *entity.User `json:"user"`
	Token   string       `json:"token"`
}

type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginOutput struct {
	Token string       `json:"token"`
	User  *entity.User `json:"user"`
}
