package service

import (
	"context"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/99minutos/platform-skeleton/internal/core/domain"
	"github.com/99minutos/platform-skeleton/internal/core/ports"
)

// ---------------------------------------------------------------------------
// In-memory stub repository
// ---------------------------------------------------------------------------

type stubAccountRepo struct {
	mu        sync.Mutex
	accounts  map[string]*domain.Account
	nextID    int
	existsErr error
	createErr error
	creates   int
}

func newStubAccountRepo() *stubAccountRepo {
	return &stubAccountRepo{accounts: make(map[string]*domain.Account)}
}

func cloneAccount(a *domain.Account) *domain.Account {
	if a == nil {
		return nil
	}
	clone := *a
	return &clone
}

func (r *stubAccountRepo) SuperuserExists(_ context.Context) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.existsErr != nil {
		return false, r.existsErr
	}
	for _, a := range r.accounts {
		if a.IsSuperuser {
			return true, nil
		}
	}
	return false, nil
}

func (r *stubAccountRepo) Create(_ context.Context, account *domain.Account) (*domain.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return nil, r.createErr
	}
	if _, exists := r.accounts[account.Username]; exists {
		return nil, domain.ErrAccountExists
	}
	r.nextID++
	r.creates++
	stored := cloneAccount(account)
	stored.ID = strconv.Itoa(r.nextID)
	r.accounts[stored.Username] = stored
	return cloneAccount(stored), nil
}

func (r *stubAccountRepo) FindByUsername(_ context.Context, username string) (*domain.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.accounts[username]
	if !ok {
		return nil, domain.ErrAccountNotFound
	}
	return cloneAccount(a), nil
}

func (r *stubAccountRepo) List(_ context.Context, f ports.ListAccountsFilter) ([]*domain.Account, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	all := make([]*domain.Account, 0, len(r.accounts))
	for _, a := range r.accounts {
		all = append(all, cloneAccount(a))
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Username < all[j].Username })

	total := int64(len(all))
	skip := (f.Page - 1) * f.Limit
	if skip >= len(all) {
		return []*domain.Account{}, total, nil
	}
	end := skip + f.Limit
	if end > len(all) {
		end = len(all)
	}
	return all[skip:end], total, nil
}

func (r *stubAccountRepo) UpdateLastLogin(_ context.Context, id string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.accounts {
		if a.ID == id {
			t := at
			a.LastLogin = &t
			return nil
		}
	}
	return domain.ErrAccountNotFound
}

// put stores an account directly, bypassing hashing.
func (r *stubAccountRepo) put(a *domain.Account) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	stored := cloneAccount(a)
	if stored.ID == "" {
		stored.ID = strconv.Itoa(r.nextID)
	}
	r.accounts[stored.Username] = stored
}

type stubRevoker struct {
	revoked map[string]time.Time
	err     error
}

func newStubRevoker() *stubRevoker {
	return &stubRevoker{revoked: make(map[string]time.Time)}
}

func (s *stubRevoker) Revoke(_ context.Context, id string, until time.Time) error {
	if s.err != nil {
		return s.err
	}
	s.revoked[id] = until
	return nil
}

func (s *stubRevoker) IsRevoked(_ context.Context, id string) (bool, error) {
	if s.err != nil {
		return false, s.err
	}
	_, ok := s.revoked[id]
	return ok, nil
}
