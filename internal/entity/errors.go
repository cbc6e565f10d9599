package entity

import "errors"

var (
	ErrLeadNotFound            = errors.New("lead not found")
	ErrUserNotFound            = errors.New("user not found")
	ErrInvalidTransition       = errors.New("lead status does not allow this action")
	ErrOnboardingExpired       = errors.New("onboarding token has expired")
	ErrOnboardingTokenNotFound = errors.New("onboarding token not found")
	ErrEmailAlreadyExists      = errors.New("email already registered")
)
