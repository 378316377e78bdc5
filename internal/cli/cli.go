// Package cli implements the manage command: one-shot administrative tasks
// run by the container entrypoint or an operator.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/sethvargo/go-envconfig"
	"github.com/spf13/cobra"

	"github.com/99minutos/platform-skeleton/internal/core/ports"
	"github.com/99minutos/platform-skeleton/internal/core/service"
	"github.com/99minutos/platform-skeleton/internal/infrastructure/db"
	"github.com/99minutos/platform-skeleton/internal/pkg/config"
	"github.com/99minutos/platform-skeleton/pkg/logger"
)

// Store is the part of an identity store the commands use.
type Store interface {
	Accounts() ports.AccountRepository
	Migrate(ctx context.Context) error
	Close(ctx context.Context) error
}

// Opener connects to the store named by the database settings.
type Opener func(ctx context.Context, cfg config.DatabaseSettings) (Store, error)

// Options configures the command tree. Zero fields take process defaults.
type Options struct {
	Lookuper envconfig.Lookuper
	Out      io.Writer
	Err      io.Writer
	Open     Opener
}

func (o *Options) defaults() {
	if o.Lookuper == nil {
		o.Lookuper = envconfig.OsLookuper()
	}
	if o.Out == nil {
		o.Out = os.Stdout
	}
	if o.Err == nil {
		o.Err = os.Stderr
	}
	if o.Open == nil {
		o.Open = func(ctx context.Context, cfg config.DatabaseSettings) (Store, error) {
			store, err := db.Open(ctx, cfg)
			if err != nil {
				return nil, err
			}
			return store, nil
		}
	}
}

type runtime struct {
	opts     Options
	settings *config.Settings
	log      zerolog.Logger
}

// NewRootCommand builds the manage command tree.
func NewRootCommand(opts Options) *cobra.Command {
	opts.defaults()
	rt := &runtime{opts: opts}

	root := &cobra.Command{
		Use:           "manage",
		Short:         "Administrative tasks for the platform skeleton",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			s, err := config.Assemble(cmd.Context(), opts.Lookuper)
			if err != nil {
				return err
			}
			rt.settings = s
			rt.log = logger.New(logger.Options{
				Level:    s.Logging.Level,
				Pretty:   s.Logging.Pretty,
				Output:   opts.Err,
				Location: s.Location,
			}).With().Str("logger", "manage").Logger()
			return nil
		},
	}
	root.SetOut(opts.Out)
	root.SetErr(opts.Err)

	root.AddCommand(
		rt.createSuperuserCommand(),
		rt.migrateCommand(),
		rt.checkCommand(),
	)
	return root
}

// Execute runs the command tree with args and returns the process exit code.
func Execute(ctx context.Context, opts Options, args []string) int {
	root := NewRootCommand(opts)
	root.SetArgs(args)
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(root.ErrOrStderr(), "Error: %v\n", err)
		return 1
	}
	return 0
}

func (rt *runtime) openStore(ctx context.Context) (Store, error) {
	store, err := rt.opts.Open(ctx, rt.settings.Database)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	return store, nil
}

func (rt *runtime) createSuperuserCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "create-superuser-if-none",
		Aliases: []string{"create_superuser_if_none"},
		Short:   "Create the first superuser from DJANGO_SUPERUSER_* unless one exists",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			in, err := config.LoadSuperuser(ctx, rt.opts.Lookuper)
			if err != nil {
				return err
			}

			store, err := rt.openStore(ctx)
			if err != nil {
				return err
			}
			defer store.Close(ctx)

			repo := store.Accounts()
			accounts := service.NewAccountService(repo, nil, rt.settings.SecretKey, rt.settings.Session.CookieAge, rt.settings.API.PageSize)
			bootstrap := service.NewBootstrapService(repo, accounts, cmd.OutOrStdout(), cmd.ErrOrStderr(), rt.log)

			_, err = bootstrap.Run(ctx, service.BootstrapInput{
				Username: in.Username,
				Email:    in.Email,
				Password: in.Password,
			})
			return err
		},
	}
}

func (rt *runtime) migrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending schema migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			store, err := rt.openStore(ctx)
			if err != nil {
				return err
			}
			defer store.Close(ctx)

			if err := store.Migrate(ctx); err != nil {
				return err
			}
			rt.log.Info().Msg("migrations applied")
			fmt.Fprintln(cmd.OutOrStdout(), "Migrations applied.")
			return nil
		},
	}
}

func (rt *runtime) checkCommand() *cobra.Command {
	var deploy bool

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Validate settings; --deploy adds production readiness warnings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var warnings []string
			if deploy {
				warnings = config.DeployWarnings(rt.settings)
			}

			out := cmd.OutOrStdout()
			if len(warnings) == 0 {
				fmt.Fprintln(out, "System check identified no issues (0 silenced).")
				return nil
			}
			fmt.Fprintln(out, "System check identified some issues:")
			fmt.Fprintln(out)
			fmt.Fprintln(out, "WARNINGS:")
			for _, w := range warnings {
				fmt.Fprintf(out, "?: %s\n", w)
			}
			fmt.Fprintf(out, "\nSystem check identified %d issues (0 silenced).\n", len(warnings))
			return nil
		},
	}
	cmd.Flags().BoolVar(&deploy, "deploy", false, "check production deployment settings")
	return cmd
}
