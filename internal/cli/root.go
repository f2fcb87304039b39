package cli

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"taskboard-cli/internal/api"
	"taskboard-cli/internal/config"
	"taskboard-cli/internal/effects"
	"taskboard-cli/internal/format"
	"taskboard-cli/internal/logging"
	"taskboard-cli/internal/model"
	"taskboard-cli/internal/state"
	"taskboard-cli/internal/store"
	"taskboard-cli/internal/tui"

	"github.com/spf13/cobra"
)

type App struct {
	ConfigPath string
	APIURL     string
	DataDir    string
	PrettyJSON bool
	Format     string
	Verbose    bool

	cfg config.Config
	log *slog.Logger
}

func NewRootCmd() *cobra.Command {
	app := &App{}

	cmd := &cobra.Command{
		Use:          "taskboard",
		Short:        "Terminal client for the task board API (TUI + scriptable commands)",
		SilenceUsage: true,
		Example: strings.TrimSpace(`
  # Start the interactive TUI
  taskboard

  # Sign in once; the token is kept in the data dir
  taskboard login --username alice

  # Scriptable commands
  taskboard tasks list --sort estimate
  taskboard tasks create --task "Write docs" --description "..." --criteria "..."

  # Direct task lookup (shortcut for: taskboard tasks show <id>)
  taskboard 12
`),
		RunE: func(cmd *cobra.Command, args []string) error {
			// No subcommand => interactive TUI.
			if len(args) == 0 {
				return runTUI(cmd.Context(), app)
			}
			return cmd.Help()
		},
	}

	cmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(app.ConfigPath)
		if err != nil {
			return writeErr(cmd, err)
		}
		if strings.TrimSpace(app.APIURL) != "" {
			cfg.APIURL = strings.TrimRight(strings.TrimSpace(app.APIURL), "/")
		}
		if strings.TrimSpace(app.DataDir) != "" {
			cfg.DataDir = strings.TrimSpace(app.DataDir)
		}
		app.cfg = cfg

		// Scripts read stdout; keep stderr quiet unless asked.
		level := slog.LevelWarn
		if app.Verbose {
			level = logging.ParseLevel(cfg.LogLevel)
		}
		app.log = logging.New(cmd.ErrOrStderr(), level)
		return nil
	}

	cmd.PersistentFlags().StringVar(&app.ConfigPath, "config", "", "Path to a YAML config file (env vars still win)")
	cmd.PersistentFlags().StringVar(&app.APIURL, "api-url", "", "API base URL (overrides TASKBOARD_API_URL)")
	cmd.PersistentFlags().StringVar(&app.DataDir, "data-dir", "", "Client data dir for the token store (overrides TASKBOARD_DATA_DIR)")
	cmd.PersistentFlags().BoolVar(&app.PrettyJSON, "pretty", false, "Pretty-print JSON output")
	cmd.PersistentFlags().StringVar(&app.Format, "format", "json", "Output format (json|text)")
	cmd.PersistentFlags().BoolVarP(&app.Verbose, "verbose", "v", false, "Log requests to stderr at the configured level")

	cmd.AddCommand(newLoginCmd(app))
	cmd.AddCommand(newRegisterCmd(app))
	cmd.AddCommand(newLogoutCmd(app))
	cmd.AddCommand(newWhoamiCmd(app))
	cmd.AddCommand(newTasksCmd(app))
	cmd.AddCommand(newCategoriesCmd(app))
	cmd.AddCommand(newUsersCmd(app))
	cmd.AddCommand(newProfilesCmd(app))
	cmd.AddCommand(newDocsCmd(app))

	return cmd
}

func runTUI(ctx context.Context, app *App) error {
	level := logging.ParseLevel(app.cfg.LogLevel)
	log, closeLog, err := logging.OpenFile(app.cfg.LogPath(), level)
	if err != nil {
		return err
	}
	defer func() { _ = closeLog() }()

	st := app.store()
	runner := effects.NewRunner(app.clientWith(st, log), st, log)

	username, err := st.LastUsername(ctx)
	if err != nil {
		log.Warn("read last username", "error", err)
	}
	signedIn := hasLiveToken(ctx, st, time.Now(), log)
	log.Info("starting tui", "api_url", app.cfg.APIURL, "signed_in", signedIn)

	return tui.Run(ctx, tui.Options{
		Runner:   runner,
		Logger:   log,
		Username: username,
		SignedIn: signedIn,
	})
}

// hasLiveToken reports whether a stored token exists and its claims are not
// expired. Tokens that can't be decoded are left for the server to judge.
func hasLiveToken(ctx context.Context, st store.Store, now time.Time, log *slog.Logger) bool {
	tok, err := st.AccessToken(ctx)
	if err != nil || tok == "" {
		return false
	}
	claims, err := api.ParseClaims(tok)
	if err != nil {
		log.Debug("token claims unreadable", "error", err)
		return true
	}
	return !claims.Expired(now)
}

func (app *App) store() store.Store {
	return store.Store{Dir: app.cfg.DataDir}
}

func (app *App) clientWith(st store.Store, log *slog.Logger) *api.Client {
	return api.NewClient(app.cfg.APIURL, st, log, api.WithTimeout(app.cfg.HTTP.Timeout))
}

func (app *App) runner() *effects.Runner {
	st := app.store()
	return effects.NewRunner(app.clientWith(st, app.log), st, app.log)
}

// currentUser resolves the signed-in user from the API.
func (app *App) currentUser(ctx context.Context, r *effects.Runner) (model.User, error) {
	act := r.FetchCurrentUser(ctx)
	if err := actionErr(act); err != nil {
		return model.User{}, err
	}
	return act.(state.CurrentUserFetched).User, nil
}

func writeOut(cmd *cobra.Command, app *App, v any) error {
	return format.Write(cmd.OutOrStdout(), v, app.Format, app.PrettyJSON)
}

func writeErr(cmd *cobra.Command, err error) error {
	fmt.Fprintln(cmd.ErrOrStderr(), err.Error())
	return err
}
