package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/99minutos/platform-skeleton/internal/core/domain"
	"github.com/99minutos/platform-skeleton/internal/core/ports"
)

const uniqueViolation = "23505"

type AccountRepository struct {
	db DBTX
}

func NewAccountRepository(db DBTX) *AccountRepository {
	return &AccountRepository{db: db}
}

func (r *AccountRepository) SuperuserExists(ctx context.Context) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM accounts WHERE is_superuser)`

	var exists bool
	if err := r.db.QueryRowContext(ctx, query).Scan(&exists); err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return exists, nil
}

func (r *AccountRepository) Create(ctx context.Context, a *domain.Account) (*domain.Account, error) {
	query :=
		`INSERT INTO accounts (username, email, password_hash, is_staff, is_superuser, is_active, date_joined)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING id`

	var id int64
	err := r.db.QueryRowContext(ctx, query,
		a.Username, a.Email, a.PasswordHash, a.IsStaff, a.IsSuperuser, a.IsActive, a.DateJoined).Scan(&id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, domain.ErrAccountExists
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	created := *a
	created.ID = strconv.FormatInt(id, 10)
	return &created, nil
}

const accountColumns = `id, username, email, password_hash, is_staff, is_superuser, is_active, date_joined, last_login`

func (r *AccountRepository) FindByUsername(ctx context.Context, username string) (*domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE username = $1`

	a, err := scanAccount(r.db.QueryRowContext(ctx, query, username))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrAccountNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return a, nil
}

func (r *AccountRepository) List(ctx context.Context, f ports.ListAccountsFilter) ([]*domain.Account, int64, error) {
	var total int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM accounts`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("db error: %w", err)
	}

	page := f.Page
	if page < 1 {
		page = 1
	}
	offset := (page - 1) * f.Limit

	query := `SELECT ` + accountColumns + ` FROM accounts ORDER BY id LIMIT $1 OFFSET $2`
	rows, err := r.db.QueryContext(ctx, query, f.Limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	accounts := make([]*domain.Account, 0, f.Limit)
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("db error: %w", err)
		}
		accounts = append(accounts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("db error: %w", err)
	}
	return accounts, total, nil
}

func (r *AccountRepository) UpdateLastLogin(ctx context.Context, id string, at time.Time) error {
	pk, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		return domain.ErrAccountNotFound
	}

	query := `UPDATE accounts SET last_login = $1 WHERE id = $2`

	res, err := r.db.ExecContext(ctx, query, at, pk)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return domain.ErrAccountNotFound
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanAccount(s scanner) (*domain.Account, error) {
	var (
		a         domain.Account
		id        int64
		lastLogin sql.NullTime
	)
	if err := s.Scan(&id, &a.Username, &a.Email, &a.PasswordHash, &a.IsStaff, &a.IsSuperuser, &a.IsActive, &a.DateJoined, &lastLogin); err != nil {
		return nil, err
	}
	a.ID = strconv.FormatInt(id, 10)
	if lastLogin.Valid {
		t := lastLogin.Time
		a.LastLogin = &t
	}
	return &a, nil
}
