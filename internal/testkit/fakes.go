package testkit

import (
	"context"
	"errors"
	"sync"

	"golang.org/x/crypto/bcrypt"

	"github.com/xavierca1/visa-crm/internal/entity"
)

// Hasher is a bcrypt hasher at the minimum cost.
type Hasher struct{}

func (Hasher) Hash(secret string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.MinCost)
	return string(b), err
}

func (Hasher) Compare(hash, secret string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(secret)) == nil
}

// Sessions returns "session-<user id>" or Err when set.
type Sessions struct {
	Err error
}

func (s Sessions) Issue(u *entity.User) (string, error) {
	if s.Err != nil {
		return "", s.Err
	}
	return "session-" + u.ID, nil
}

type ApprovedEvent struct {
	LeadID string
	Email  string
	Token  string
}

// Notifier records the events it receives.
type Notifier struct {
	mu       sync.Mutex
	Approved []ApprovedEvent
	Rejected []string
	Err      error
}

func (n *Notifier) NotifyLeadApproved(_ context.Context, lead *entity.Lead, token string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.Approved = append(n.Approved, ApprovedEvent{LeadID: lead.ID, Email: lead.Email, Token: token})
	return n.Err
}

func (n *Notifier) NotifyLeadRejected(_ context.Context, lead *entity.Lead) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.Rejected = append(n.Rejected, lead.ID)
	return n.Err
}

var ErrBoom = errors.New("boom")
