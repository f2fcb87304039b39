package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"taskboard-cli/internal/api"
	"taskboard-cli/internal/model"
	"taskboard-cli/internal/state"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

type credentialFlags struct {
	username     string
	passwordFile string
}

func (f *credentialFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.username, "username", "", "Username (default: last used)")
	cmd.Flags().StringVar(&f.passwordFile, "password-file", "", "Read the password from a file ('-' for stdin); prompts when omitted")
}

func (f credentialFlags) resolve(ctx context.Context, cmd *cobra.Command, app *App) (model.Credentials, error) {
	username := strings.TrimSpace(f.username)
	if username == "" {
		last, err := app.store().LastUsername(ctx)
		if err != nil {
			return model.Credentials{}, err
		}
		username = last
	}
	if username == "" {
		return model.Credentials{}, errors.New("missing --username")
	}
	password, err := readPassword(cmd, f.passwordFile)
	if err != nil {
		return model.Credentials{}, err
	}
	if password == "" {
		return model.Credentials{}, errors.New("empty password")
	}
	return model.Credentials{Username: username, Password: password}, nil
}

// readPassword reads from path, or prompts on a terminal without echo, or
// reads one line from stdin when it is not a terminal.
func readPassword(cmd *cobra.Command, path string) (string, error) {
	path = strings.TrimSpace(path)
	switch {
	case path == "-":
		return readLine(cmd.InOrStdin())
	case path != "":
		b, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("read password file: %w", err)
		}
		return strings.TrimRight(string(b), "\r\n"), nil
	}

	if f, ok := cmd.InOrStdin().(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fmt.Fprint(cmd.ErrOrStderr(), "Password: ")
		b, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(cmd.ErrOrStderr())
		if err != nil {
			return "", fmt.Errorf("read password: %w", err)
		}
		return string(b), nil
	}
	return readLine(cmd.InOrStdin())
}

func readLine(r io.Reader) (string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read password: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func newLoginCmd(app *App) *cobra.Command {
	var creds credentialFlags
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and store the access token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			c, err := creds.resolve(ctx, cmd, app)
			if err != nil {
				return writeErr(cmd, err)
			}
			r := app.runner()
			if err := actionErr(r.Login(ctx, c)); err != nil {
				return writeErr(cmd, err)
			}
			u, err := app.currentUser(ctx, r)
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, u)
		},
	}
	creds.register(cmd)
	return cmd
}

func newRegisterCmd(app *App) *cobra.Command {
	var creds credentialFlags
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account, sign in and create an empty profile",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if strings.TrimSpace(creds.username) == "" {
				return writeErr(cmd, errors.New("missing --username"))
			}
			c, err := creds.resolve(ctx, cmd, app)
			if err != nil {
				return writeErr(cmd, err)
			}
			var profile model.Profile
			for _, act := range app.runner().Register(ctx, c) {
				if err := actionErr(act); err != nil {
					return writeErr(cmd, err)
				}
				if pc, ok := act.(state.ProfileCreated); ok {
					profile = pc.Profile
				}
			}
			return writeOut(cmd, app, map[string]any{"username": c.Username, "profile": profile})
		},
	}
	creds.register(cmd)
	return cmd
}

func newLogoutCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored access token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := actionErr(app.runner().Logout(cmd.Context())); err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"loggedOut": true})
		},
	}
}

type whoami struct {
	User      model.User `json:"user"`
	UserID    int        `json:"tokenUserId"`
	ExpiresAt *time.Time `json:"tokenExpiresAt,omitempty"`
	Expired   bool       `json:"tokenExpired"`
}

func newWhoamiCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user and token expiry",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			tok, err := app.store().AccessToken(ctx)
			if err != nil {
				return writeErr(cmd, err)
			}
			if tok == "" {
				return writeErr(cmd, errors.New("not logged in (run `taskboard login`)"))
			}
			out := whoami{}
			if claims, err := api.ParseClaims(tok); err == nil {
				out.UserID = claims.UserID
				out.Expired = claims.Expired(time.Now())
				if !claims.ExpiresAt.IsZero() {
					exp := claims.ExpiresAt.UTC()
					out.ExpiresAt = &exp
				}
			}
			u, err := app.currentUser(ctx, app.runner())
			if err != nil {
				return writeErr(cmd, err)
			}
			out.User = u
			return writeOut(cmd, app, out)
		},
	}
}
