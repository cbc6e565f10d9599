package usecase

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/xavierca1/visa-crm/internal/entity"
)

var errInvalidCredentials = &DomainError{Code: CodeInvalidCredentials, Message: "Invalid credentials"}

type LoginUseCase struct {
	Users     entity.UserRepositoryInterface
	Passwords SecretHasher
	Sessions  SessionIssuer
}

func NewLoginUseCase(users entity.UserRepositoryInterface, passwords SecretHasher, sessions SessionIssuer) *LoginUseCase {
	return &LoginUseCase{Users: users, Passwords: passwords, Sessions: sessions}
}

func (uc *LoginUseCase) Execute(ctx context.Context, input LoginInput) (*LoginOutput, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if email == "" || input.Password == "" {
		return nil, errInvalidCredentials
	}

	user, err := uc.Users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, entity.ErrUserNotFound) {
			return nil, errInvalidCredentials
		}
		return nil, &TechnicalError{Code: CodeDatabase, Message: "failed to load user", Err: err}
	}

	if !user.IsActive || !uc.Passwords.Compare(user.PasswordHash, input.Password) {
		log.Info().Str("user_id", user.ID).Msg("login rejected")
		return nil, errInvalidCredentials
	}

	token, err := uc.Sessions.Issue(user)
	if err != nil {
		return nil, &TechnicalError{Code: CodeSession, Message: "failed to issue session", Err: err}
	}
	return &LoginOutput{Token: token, User: user}, nil
}
