// Package testkit holds in-memory fakes shared by use case and handler tests.
package testkit

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/xavierca1/visa-crm/internal/entity"
)

// Store is an in-memory stand-in for the lead, user and onboarding
// repositories. All three views share one lock so a conversion is atomic.
type Store struct {
	mu sync.Mutex

	Leads    map[string]entity.Lead
	Users    map[string]entity.User
	Contacts map[string]entity.Contact
	Roles    map[entity.RoleSlug]entity.Role

	// FailContactInsert makes the next conversions fail after the user row
	// was staged, to exercise rollback.
	FailContactInsert error
}

func NewStore() *Store {
	roles := make(map[entity.RoleSlug]entity.Role)
	for i, slug := range []entity.RoleSlug{entity.RoleAdmin, entity.RoleStaff, entity.RoleSalesRep, entity.RoleViewer, entity.RoleCustomer} {
		roles[slug] = entity.Role{ID: i + 1, Slug: slug, Name: string(slug)}
	}
	return &Store{
		Leads:    make(map[string]entity.Lead),
		Users:    make(map[string]entity.User),
		Contacts: make(map[string]entity.Contact),
		Roles:    roles,
	}
}

// PutLead stores a copy of l, overwriting any lead with the same id.
func (s *Store) PutLead(l *entity.Lead) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Leads[l.ID] = *l
}

func (s *Store) Lead(id string) (entity.Lead, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.Leads[id]
	return l, ok
}

func (s *Store) UserCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.Users)
}

func (s *Store) ContactCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.Contacts)
}

func (s *Store) LeadRepo() *LeadRepo             { return &LeadRepo{s} }
func (s *Store) UserRepo() *UserRepo             { return &UserRepo{s} }
func (s *Store) OnboardingRepo() *OnboardingRepo { return &OnboardingRepo{s} }

type LeadRepo struct{ s *Store }

func (r *LeadRepo) Create(_ context.Context, lead *entity.Lead) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.Leads[lead.ID]; ok {
		return errors.New("duplicate lead id")
	}
	r.s.Leads[lead.ID] = *lead
	return nil
}

func (r *LeadRepo) FindByID(_ context.Context, id string) (*entity.Lead, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	l, ok := r.s.Leads[id]
	if !ok {
		return nil, entity.ErrLeadNotFound
	}
	return &l, nil
}

func (r *LeadRepo) FindByOnboardingSelector(_ context.Context, selector string) (*entity.Lead, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, l := range r.s.Leads {
		if selector != "" && l.OnboardingSelector == selector {
			return &l, nil
		}
	}
	return nil, entity.ErrLeadNotFound
}

func (r *LeadRepo) List(_ context.Context, filter entity.LeadFilter) (*entity.LeadPage, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	search := strings.ToLower(filter.Search)
	matched := []entity.Lead{}
	for _, l := range r.s.Leads {
		if filter.Status != "" && l.Status != filter.Status {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(l.FullName), search) &&
			!strings.Contains(strings.ToLower(l.Email), search) &&
			!strings.Contains(strings.ToLower(l.Company), search) {
			continue
		}
		matched = append(matched, l)
	}
	sort.Slice(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	page := &entity.LeadPage{Total: len(matched), Page: filter.Page, PerPage: filter.PerPage, Data: []entity.Lead{}}
	page.LastPage = (page.Total + filter.PerPage - 1) / filter.PerPage
	if page.LastPage < 1 {
		page.LastPage = 1
	}
	start := (filter.Page - 1) * filter.PerPage
	if start < len(matched) {
		end := start + filter.PerPage
		if end > len(matched) {
			end = len(matched)
		}
		page.Data = matched[start:end]
	}
	return page, nil
}

func (r *LeadRepo) Update(_ context.Context, id string, mutate func(*entity.Lead) error) (*entity.Lead, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	l, ok := r.s.Leads[id]
	if !ok {
		return nil, entity.ErrLeadNotFound
	}
	if err := mutate(&l); err != nil {
		return nil, err
	}
	r.s.Leads[id] = l
	return &l, nil
}

// ClearStaleOnboarding mirrors the Postgres sweep: approved leads whose
// credential expired before cutoff lose it.
func (r *LeadRepo) ClearStaleOnboarding(_ context.Context, cutoff time.Time) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var n int64
	for id, l := range r.s.Leads {
		if l.Status != entity.LeadStatusApproved || l.OnboardingExpiresAt == nil || !l.OnboardingExpiresAt.Before(cutoff) {
			continue
		}
		l.ClearOnboarding()
		r.s.Leads[id] = l
		n++
	}
	return n, nil
}

type UserRepo struct{ s *Store }

func (r *UserRepo) FindByEmail(_ context.Context, email string) (*entity.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.Users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, entity.ErrUserNotFound
}

func (r *UserRepo) FindByID(_ context.Context, id string) (*entity.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.Users[id]
	if !ok {
		return nil, entity.ErrUserNotFound
	}
	return &u, nil
}

func (r *UserRepo) CreateWithRoles(_ context.Context, u *entity.User, roles []entity.RoleSlug) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.emailTaken(u.Email) {
		return entity.ErrEmailAlreadyExists
	}
	for _, slug := range roles {
		if role, ok := r.s.Roles[slug]; ok {
			u.Roles = append(u.Roles, role)
		}
	}
	r.s.Users[u.ID] = *u
	return nil
}

type OnboardingRepo struct{ s *Store }

func (r *OnboardingRepo) Convert(_ context.Context, c *entity.Conversion) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	l, ok := r.s.Leads[c.LeadID]
	if !ok || l.OnboardingSelector == "" || l.OnboardingSelector != c.Selector {
		return entity.ErrOnboardingTokenNotFound
	}
	if err := l.Convert(c.At); err != nil {
		return err
	}
	if r.s.emailTaken(c.User.Email) {
		return entity.ErrEmailAlreadyExists
	}
	if r.s.FailContactInsert != nil {
		return r.s.FailContactInsert
	}

	if role, ok := r.s.Roles[c.Role]; ok {
		c.User.Roles = append(c.User.Roles, role)
	}
	r.s.Users[c.User.ID] = *c.User
	r.s.Contacts[c.Contact.ID] = *c.Contact
	r.s.Leads[l.ID] = l
	c.Lead = &l
	return nil
}

func (s *Store) emailTaken(email string) bool {
	for _, u := range s.Users {
		if u.Email == email {
			return true
		}
	}
	return false
}
