// Package app implements the hookscontent command line: the client commands
// that talk to the HooksContent API and the commands that run the
// development backend.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/time/rate"

	"github.com/hookscontent/hooks/internal/apiclient"
	"github.com/hookscontent/hooks/internal/config"
	"github.com/hookscontent/hooks/internal/logging"
	"github.com/hookscontent/hooks/internal/models"
	"github.com/hookscontent/hooks/internal/services"
	"github.com/hookscontent/hooks/internal/session"
	"github.com/hookscontent/hooks/internal/validation"
)

// errNotSignedIn is returned by commands that need a stored session.
var errNotSignedIn = errors.New("not signed in: run 'hookscontent signin' first")

// Run executes the command line with args. Failures are reported on stderr
// and returned.
func Run(ctx context.Context, args []string) error {
	root := NewRootCommand(os.Stdout, os.Stderr)
	root.SetArgs(args)
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", services.Message(err, err.Error()))
		return err
	}
	return nil
}

// env is what every command shares once configuration is loaded.
type env struct {
	cfg    config.Config
	logger *slog.Logger
	out    io.Writer

	sessions  *session.Store
	client    *apiclient.Client
	validator *validation.Validator
	auth      *services.AuthService
	account   *services.Account
	videos    *services.VideoService
}

// NewRootCommand builds the command tree writing results to out and logs to
// errOut.
func NewRootCommand(out, errOut io.Writer) *cobra.Command {
	e := &env{out: out}

	var (
		apiURL    string
		logLevel  string
		ephemeral bool
	)

	root := &cobra.Command{
		Use:   "hookscontent",
		Short: "Analyse viral videos and write hooks with HooksContent",
		Long: `hookscontent talks to the HooksContent API: sign in, analyse videos,
generate hooks, and browse what you saved. It can also run a development
backend implementing the same API.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if apiURL != "" {
				cfg.APIBaseURL = apiURL
			}
			if logLevel != "" {
				cfg.LogLevel = logLevel
			}

			e.setup(cfg, logging.New(errOut, cfg.LogLevel), ephemeral)
			cmd.SetContext(logging.WithLogger(cmd.Context(), e.logger))
			return nil
		},
	}
	root.SetOut(out)
	root.SetErr(errOut)

	root.PersistentFlags().StringVar(&apiURL, "api-url", "", "HooksContent API base URL (default $HOOKS_API_URL)")
	root.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn or error")
	root.PersistentFlags().BoolVar(&ephemeral, "ephemeral", false, "Keep the session in memory for this run only")

	root.AddCommand(
		newSignUpCommand(e),
		newSignInCommand(e),
		newSignOutCommand(e),
		newWhoAmICommand(e),
		newAnalyzeCommand(e),
		newAnalysesCommand(e),
		newGenerateCommand(e),
		newHooksCommand(e),
		newOverviewCommand(e),
		newSyncCommand(e),
		newExportCommand(e),
		newServeCommand(e),
		newMigrateCommand(e),
	)

	return root
}

// setup builds the client stack: session store, API client, and services.
// An ephemeral run never reads or writes the session file.
func (e *env) setup(cfg config.Config, logger *slog.Logger, ephemeral bool) {
	e.cfg = cfg
	e.logger = logger

	var storage session.Storage = session.NewFileStorage(cfg.SessionDir)
	if ephemeral {
		storage = session.NewMemoryStorage()
	}
	e.sessions = session.NewStore(storage, logger)

	opts := []apiclient.Option{
		apiclient.WithDefaults(apiclient.Options{Timeout: cfg.RequestTimeout, Retries: cfg.RequestRetries}),
	}
	if cfg.ClientRPS > 0 {
		opts = append(opts, apiclient.WithRateLimiter(rate.NewLimiter(rate.Limit(cfg.ClientRPS), 1)))
	}
	e.client = apiclient.New(cfg.APIBaseURL, e.sessions, opts...)

	e.validator = validation.NewValidator()
	e.auth = services.NewAuthService(e.client, services.Endpoints{}, e.validator)
	e.account = services.NewAccount(e.auth, e.sessions, logger)
	e.videos = services.NewVideoService(e.client, services.Endpoints{}, e.validator)
}

// currentUser returns the signed-in user or errNotSignedIn.
func (e *env) currentUser(ctx context.Context) (models.User, error) {
	user, ok := e.account.Current(ctx)
	if !ok || user.ID == "" {
		return models.User{}, errNotSignedIn
	}
	return user, nil
}

func (e *env) printf(format string, args ...any) {
	fmt.Fprintf(e.out, format, args...)
}
