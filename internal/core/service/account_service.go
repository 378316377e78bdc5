package service

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/99minutos/platform-skeleton/internal/core/domain"
	"github.com/99minutos/platform-skeleton/internal/core/ports"
)

const (
	defaultSessionTTL = 14 * 24 * time.Hour
	defaultPageSize   = 20
)

// AccountService implements account creation and admin sessions.
type AccountService struct {
	repo       ports.AccountRepository
	sessions   ports.SessionRevoker
	secretKey  string
	sessionTTL time.Duration
	pageSize   int
	now        func() time.Time
}

// NewAccountService wires the identity subsystem. sessions may be nil, in
// which case logout is a no-op and tokens stay valid until they expire.
func NewAccountService(repo ports.AccountRepository, sessions ports.SessionRevoker, secretKey string, sessionTTL time.Duration, pageSize int) *AccountService {
	if sessionTTL <= 0 {
		sessionTTL = defaultSessionTTL
	}
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	return &AccountService{
		repo:       repo,
		sessions:   sessions,
		secretKey:  secretKey,
		sessionTTL: sessionTTL,
		pageSize:   pageSize,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// CreateSuperuser persists an active staff account with the superuser flag.
// The password is stored only as a bcrypt hash of its SHA-256 digest.
func (s *AccountService) CreateSuperuser(ctx context.Context, username, email, password string) (*domain.Account, error) {
	if username == "" {
		return nil, fmt.Errorf("%w: username must be set", domain.ErrInvalidAccount)
	}
	if password == "" {
		return nil, fmt.Errorf("%w: password must be set", domain.ErrInvalidAccount)
	}

	hash, err := hashPassword(password)
	if err != nil {
		return nil, err
	}

	account := &domain.Account{
		Username:     username,
		Email:        NormalizeEmail(email),
		PasswordHash: hash,
		IsStaff:      true,
		IsSuperuser:  true,
		IsActive:     true,
		DateJoined:   s.now(),
	}

	return s.repo.Create(ctx, account)
}

// bcrypt reads at most 72 bytes, so passwords are digested first. The
// base64 digest is 44 bytes and never contains a NUL.
func passwordDigest(password string) []byte {
	sum := sha256.Sum256([]byte(password))
	out := make([]byte, base64.StdEncoding.EncodedLen(len(sum)))
	base64.StdEncoding.Encode(out, sum[:])
	return out
}

func hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword(passwordDigest(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

func passwordMatches(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), passwordDigest(password)) == nil
}

// NormalizeEmail lowercases the domain part of an address.
func NormalizeEmail(email string) string {
	email = strings.TrimSpace(email)
	at := strings.LastIndex(email, "@")
	if at < 0 {
		return email
	}
	return email[:at] + "@" + strings.ToLower(email[at+1:])
}

type sessionClaims struct {
	Username string `json:"username"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

// Login checks the credentials of an admin-capable account and issues a
// signed session token.
func (s *AccountService) Login(ctx context.Context, username, password string) (*ports.Session, *domain.Account, error) {
	if username == "" || password == "" {
		return nil, nil, domain.ErrInvalidCredentials
	}

	account, err := s.repo.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, domain.ErrAccountNotFound) {
			return nil, nil, domain.ErrInvalidCredentials
		}
		return nil, nil, err
	}

	if !passwordMatches(account.PasswordHash, password) {
		return nil, nil, domain.ErrInvalidCredentials
	}
	if !account.CanUseAdmin() {
		return nil, nil, domain.ErrInvalidCredentials
	}

	now := s.now()
	session, err := s.issue(account, now)
	if err != nil {
		return nil, nil, err
	}

	if err := s.repo.UpdateLastLogin(ctx, account.ID, now); err != nil {
		return nil, nil, fmt.Errorf("login: update last login: %w", err)
	}
	account.LastLogin = &now

	return session, account, nil
}

func (s *AccountService) issue(account *domain.Account, now time.Time) (*ports.Session, error) {
	id := uuid.NewString()
	expires := now.Add(s.sessionTTL)

	claims := sessionClaims{
		Username: account.Username,
		Role:     account.Role(),
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        id,
			Subject:   account.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString([]byte(s.secretKey))
	if err != nil {
		return nil, fmt.Errorf("sign session: %w", err)
	}
	return &ports.Session{Token: signed, ID: id, ExpiresAt: expires}, nil
}

// VerifySession validates a session token and checks it has not been
// revoked.
func (s *AccountService) VerifySession(ctx context.Context, token string) (*ports.SessionClaims, error) {
	claims := &sessionClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return []byte(s.secretKey), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil || !parsed.Valid {
		return nil, domain.ErrInvalidCredentials
	}

	if s.sessions != nil {
		revoked, err := s.sessions.IsRevoked(ctx, claims.ID)
		if err != nil {
			return nil, fmt.Errorf("verify session: %w", err)
		}
		if revoked {
			return nil, domain.ErrSessionRevoked
		}
	}

	return &ports.SessionClaims{
		SessionID: claims.ID,
		AccountID: claims.Subject,
		Username:  claims.Username,
		Role:      claims.Role,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

// Logout revokes the session until its token would have expired anyway.
func (s *AccountService) Logout(ctx context.Context, claims ports.SessionClaims) error {
	if s.sessions == nil {
		return nil
	}
	if err := s.sessions.Revoke(ctx, claims.SessionID, claims.ExpiresAt); err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	return nil
}

// Current loads the account behind a verified session.
func (s *AccountService) Current(ctx context.Context, username string) (*domain.Account, error) {
	return s.repo.FindByUsername(ctx, username)
}

// List returns one page of accounts. Pages below 1 are treated as 1.
func (s *AccountService) List(ctx context.Context, page int) (*ports.AccountPage, error) {
	if page < 1 {
		page = 1
	}
	accounts, total, err := s.repo.List(ctx, ports.ListAccountsFilter{Page: page, Limit: s.pageSize})
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	return &ports.AccountPage{
		Count:    total,
		Page:     page,
		PageSize: s.pageSize,
		Results:  accounts,
	}, nil
}
