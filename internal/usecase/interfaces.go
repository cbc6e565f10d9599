package usecase

import (
	"context"

	"github.com/xavierca1/visa-crm/internal/entity"
)

// SecretHasher is a slow, salted one-way hash used for passwords and
// onboarding verifiers.
type SecretHasher interface {
	Hash(secret string) (string, error)
	Compare(hash, secret string) bool
}

type SessionIssuer interface {
	Issue(u *entity.User) (string, error)
}

// Notifier receives lead review events. Delivery is best effort: callers log
// failures and carry on.
type Notifier interface {
	NotifyLeadApproved(ctx context.Context, lead *entity.Lead, onboardingToken string) error
	NotifyLeadRejected(ctx context.Context, lead *entity.Lead) error
}
