// Package cli implements ndepctl, the operator command line for the custody
// engine.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/heartmarshall/ndep-backend/internal/adapter/postgres"
	"github.com/heartmarshall/ndep-backend/internal/app"
	"github.com/heartmarshall/ndep-backend/internal/config"
	"github.com/heartmarshall/ndep-backend/internal/ctxutil"
	"github.com/heartmarshall/ndep-backend/internal/domain"
)

// errCheckFailed makes the process exit with status 1 after the command has
// already printed why.
var errCheckFailed = errors.New("integrity check failed")

// Deps lets tests replace configuration loading, storage and migrations.
type Deps struct {
	LoadConfig func() (*config.Config, error)
	Open       func(ctx context.Context, cfg *config.Config) (*app.App, error)
	Migrate    func(ctx context.Context, dsn string) ([]int64, error)
}

// DefaultDeps loads configuration from the environment and connects to
// PostgreSQL.
func DefaultDeps() Deps {
	return Deps{
		LoadConfig: config.Load,
		Open: func(ctx context.Context, cfg *config.Config) (*app.App, error) {
			return app.Open(ctx, cfg, app.NewLogger(cfg.Log))
		},
		Migrate: postgres.Migrate,
	}
}

type globalFlags struct {
	output string
	actor  string
	role   string
}

type rootState struct {
	deps  Deps
	flags globalFlags
}

// NewRootCmd builds the ndepctl command tree.
func NewRootCmd(deps Deps) *cobra.Command {
	st := &rootState{deps: deps}

	root := &cobra.Command{
		Use:   "ndepctl",
		Short: "Operate the evidence custody ledger",
		Long: `ndepctl registers evidence, records custody transfers and verifies
content hashes against the registry and the append-only custody chain.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if _, err := newPrinter(cmd.OutOrStdout(), st.flags.output); err != nil {
				return err
			}
			if st.flags.role != "" {
				if _, err := domain.ParseRole(st.flags.role); err != nil {
					return err
				}
			}
			return nil
		},
	}

	pf := root.PersistentFlags()
	pf.StringVarP(&st.flags.output, "output", "o", "text", "output format: text, json or yaml")
	pf.StringVar(&st.flags.actor, "actor", "", "identity recorded on mutations")
	pf.StringVar(&st.flags.role, "role", "", "role of the actor: POLICE, FORENSIC, PROSECUTION, JUDICIAL or ADMIN")

	root.AddCommand(
		st.migrateCmd(),
		st.caseCmd(),
		st.evidenceCmd(),
		st.chainCmd(),
		st.verifyCmd(),
		st.relayCmd(),
		st.versionCmd(),
	)
	return root
}

// Execute runs ndepctl and exits non-zero on failure.
func Execute() {
	if err := NewRootCmd(DefaultDeps()).Execute(); err != nil {
		if !errors.Is(err, errCheckFailed) {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		os.Exit(1)
	}
}

// actorContext returns the command context carrying the actor from the flags.
func (st *rootState) actorContext(cmd *cobra.Command) context.Context {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	if st.flags.actor == "" {
		return ctx
	}
	role, _ := domain.ParseRole(st.flags.role)
	return ctxutil.WithActor(ctx, domain.Actor{ID: strings.TrimSpace(st.flags.actor), Role: role})
}

// withApp opens the engine, runs fn and closes it again.
func (st *rootState) withApp(cmd *cobra.Command, fn func(ctx context.Context, a *app.App, p *printer) error) error {
	cfg, err := st.deps.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	ctx := st.actorContext(cmd)
	a, err := st.deps.Open(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	p, err := newPrinter(cmd.OutOrStdout(), st.flags.output)
	if err != nil {
		return err
	}
	return fn(ctx, a, p)
}

func (st *rootState) versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the build version and event hash scheme",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := newPrinter(cmd.OutOrStdout(), st.flags.output)
			if err != nil {
				return err
			}
			info := app.Info()
			return p.print(info, func(w io.Writer) {
				fmt.Fprintln(w, app.BuildVersion())
				fmt.Fprintf(w, "Go: %s\n", info.GoVersion)
			})
		},
	}
}
