package ports

import (
	"context"
	"time"

	"github.com/99minutos/platform-skeleton/internal/core/domain"
)

// Session is an issued admin session token.
type Session struct {
	Token     string
	ID        string
	ExpiresAt time.Time
}

// SessionClaims are the verified contents of a session token.
type SessionClaims struct {
	SessionID string
	AccountID string
	Username  string
	Role      string
	ExpiresAt time.Time
}

// AccountService is the identity subsystem: account creation, password
// hashing and admin sessions.
type AccountService interface {
	CreateSuperuser(ctx context.Context, username, email, password string) (*domain.Account, error)
	Login(ctx context.Context, username, password string) (*Session, *domain.Account, error)
	Logout(ctx context.Context, claims SessionClaims) error
	VerifySession(ctx context.Context, token string) (*SessionClaims, error)
	Current(ctx context.Context, username string) (*domain.Account, error)
	List(ctx context.Context, page int) (*AccountPage, error)
}

// AccountPage is one page of an account listing.
type AccountPage struct {
	Count    int64
	Page     int
	PageSize int
	Results  []*domain.Account
}

// HasNext reports whether another page follows.
func (p *AccountPage) HasNext() bool {
	return int64(p.Page*p.PageSize) < p.Count
}

// HasPrevious reports whether a page precedes this one.
func (p *AccountPage) HasPrevious() bool {
	return p.Page > 1
}
