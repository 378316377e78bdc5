package service

import (
	"context"
	"fmt"
	"io"

	"github.com/rs/zerolog"

	"github.com/99minutos/platform-skeleton/internal/core/domain"
)

// BootstrapOutcome is the terminal state of one bootstrap run.
type BootstrapOutcome string

const (
	OutcomeExists  BootstrapOutcome = "exists"
	OutcomeSkipped BootstrapOutcome = "skipped"
	OutcomeCreated BootstrapOutcome = "created"
)

// BootstrapInput carries the environment-derived account details.
type BootstrapInput struct {
	Username string
	Email    string
	Password string
}

// SuperuserChecker abstracts the superuser existence query.
type SuperuserChecker interface {
	SuperuserExists(ctx context.Context) (bool, error)
}

// SuperuserCreator abstracts the identity subsystem's creation routine.
type SuperuserCreator interface {
	CreateSuperuser(ctx context.Context, username, email, password string) (*domain.Account, error)
}

// BootstrapService creates the first superuser of a deployment. It never
// touches an existing account and never creates one with an empty password,
// so it is safe to run on every container start.
type BootstrapService struct {
	checker SuperuserChecker
	creator SuperuserCreator
	out     io.Writer
	errOut  io.Writer
	log     zerolog.Logger
}

// NewBootstrapService returns a BootstrapService that reports to out and
// errOut the way a management command does.
func NewBootstrapService(checker SuperuserChecker, creator SuperuserCreator, out, errOut io.Writer, log zerolog.Logger) *BootstrapService {
	if out == nil {
		out = io.Discard
	}
	if errOut == nil {
		errOut = io.Discard
	}
	return &BootstrapService{checker: checker, creator: creator, out: out, errOut: errOut, log: log}
}

// Run performs the check and at most one account creation. Skips are not
// errors; creation failures propagate unchanged, with no retry.
func (s *BootstrapService) Run(ctx context.Context, in BootstrapInput) (BootstrapOutcome, error) {
	exists, err := s.checker.SuperuserExists(ctx)
	if err != nil {
		return "", fmt.Errorf("bootstrap superuser: %w", err)
	}
	if exists {
		fmt.Fprintln(s.out, "Superuser already exists, skipping.")
		s.log.Info().Str("outcome", string(OutcomeExists)).Msg("superuser already exists")
		return OutcomeExists, nil
	}

	if in.Password == "" {
		fmt.Fprintln(s.errOut, "DJANGO_SUPERUSER_PASSWORD is not set — skipping superuser creation.")
		s.log.Error().Str("outcome", string(OutcomeSkipped)).Msg("superuser password not set")
		return OutcomeSkipped, nil
	}

	account, err := s.creator.CreateSuperuser(ctx, in.Username, in.Email, in.Password)
	if err != nil {
		return "", err
	}

	fmt.Fprintf(s.out, "Superuser '%s' created successfully.\n", account.Username)
	s.log.Info().
		Str("outcome", string(OutcomeCreated)).
		Str("username", account.Username).
		Str("account_id", account.ID).
		Msg("superuser created")
	return OutcomeCreated, nil
}
