package ports

import (
	"context"
	"time"

	"github.com/99minutos/platform-skeleton/internal/core/domain"
)

// ListAccountsFilter holds pagination for account listings. Page is 1-based.
type ListAccountsFilter struct {
	Page  int
	Limit int
}

// AccountRepository defines the interface for account persistence.
type AccountRepository interface {
	// SuperuserExists reports whether at least one account has the
	// superuser flag set.
	SuperuserExists(ctx context.Context) (bool, error)
	// Create persists a new account and returns it with its ID assigned.
	// A username collision yields domain.ErrAccountExists.
	Create(ctx context.Context, account *domain.Account) (*domain.Account, error)
	FindByUsername(ctx context.Context, username string) (*domain.Account, error)
	List(ctx context.Context, filter ListAccountsFilter) ([]*domain.Account, int64, error)
	UpdateLastLogin(ctx context.Context, id string, at time.Time) error
}
