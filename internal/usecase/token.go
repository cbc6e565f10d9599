package usecase

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/xavierca1/visa-crm/internal/entity"
)

const (
	selectorBytes = 16
	verifierBytes = 32

	DefaultOnboardingTTL = 24 * time.Hour
)

var (
	selectorLen = base64.RawURLEncoding.EncodedLen(selectorBytes)
	verifierLen = base64.RawURLEncoding.EncodedLen(verifierBytes)
)

// IssuedToken pairs the plaintext handed to the lead with the credential
// that gets persisted.
type IssuedToken struct {
	Plaintext  string
	Credential entity.OnboardingCredential
}

// OnboardingTokenService issues and verifies single-use onboarding tokens.
// A token is a public selector followed by a secret verifier. Only the
// selector and a slow hash of the verifier are stored.
type OnboardingTokenService struct {
	Leads  entity.LeadRepositoryInterface
	Hasher SecretHasher
	TTL    time.Duration
	Random io.Reader
}

func NewOnboardingTokenService(leads entity.LeadRepositoryInterface, hasher SecretHasher, ttl time.Duration) *OnboardingTokenService {
	if ttl <= 0 {
		ttl = DefaultOnboardingTTL
	}
	return &OnboardingTokenService{
		Leads:  leads,
		Hasher: hasher,
		TTL:    ttl,
		Random: rand.Reader,
	}
}

func (s *OnboardingTokenService) Issue(now time.Time) (*IssuedToken, error) {
	selector, err := s.randomString(selectorBytes)
	if err != nil {
		return nil, fmt.Errorf("generate selector: %w", err)
	}
	verifier, err := s.randomString(verifierBytes)
	if err != nil {
		return nil, fmt.Errorf("generate verifier: %w", err)
	}

	hash, err := s.Hasher.Hash(verifier)
	if err != nil {
		return nil, fmt.Errorf("hash verifier: %w", err)
	}

	return &IssuedToken{
		Plaintext: selector + verifier,
		Credential: entity.OnboardingCredential{
			Selector:  selector,
			Hash:      hash,
			ExpiresAt: now.Add(s.TTL),
		},
	}, nil
}

// Verify resolves a plaintext token to its lead. Any mismatch, malformed
// input or missing row yields entity.ErrOnboardingTokenNotFound. Expiry and
// status are not checked here.
func (s *OnboardingTokenService) Verify(ctx context.Context, plaintext string) (*entity.Lead, error) {
	selector, verifier, ok := splitToken(plaintext)
	if !ok {
		return nil, entity.ErrOnboardingTokenNotFound
	}

	lead, err := s.Leads.FindByOnboardingSelector(ctx, selector)
	if err != nil {
		if errors.Is(err, entity.ErrLeadNotFound) {
			return nil, entity.ErrOnboardingTokenNotFound
		}
		return nil, err
	}

	if lead.OnboardingTokenHash == "" || !s.Hasher.Compare(lead.OnboardingTokenHash, verifier) {
		return nil, entity.ErrOnboardingTokenNotFound
	}
	return lead, nil
}

// CheckValidity applies the expiry then status guards to a verified lead.
func (s *OnboardingTokenService) CheckValidity(lead *entity.Lead, now time.Time) error {
	return lead.CheckRedeemable(now)
}

func (s *OnboardingTokenService) randomString(n int) (string, error) {
	r := s.Random
	if r == nil {
		r = rand.Reader
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// SelectorOf returns the selector half of a well-formed token.
func SelectorOf(plaintext string) (string, bool) {
	selector, _, ok := splitToken(plaintext)
	return selector, ok
}

func splitToken(plaintext string) (selector, verifier string, ok bool) {
	if len(plaintext) != selectorLen+verifierLen {
		return "", "", false
	}
	selector, verifier = plaintext[:selectorLen], plaintext[selectorLen:]
	if _, err := base64.RawURLEncoding.DecodeString(selector); err != nil {
		return "", "", false
	}
	if _, err := base64.RawURLEncoding.DecodeString(verifier); err != nil {
		return "", "", false
	}
	return selector, verifier, true
}
