package cli

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"taskboard-cli/internal/model"
	"taskboard-cli/internal/state"

	"github.com/spf13/cobra"
)

func newCategoriesCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "categories",
		Aliases: []string{"category"},
		Short:   "List and create task categories",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List categories",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			act := app.runner().FetchCategories(cmd.Context())
			if err := actionErr(act); err != nil {
				return writeErr(cmd, err)
			}
			cats := act.(state.CategoriesFetched).Categories
			if cats == nil {
				cats = []model.Category{}
			}
			return writeOut(cmd, app, cats)
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "create <label>",
		Short: "Create a category",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(args[0]) == "" {
				return writeErr(cmd, errors.New("category label is empty"))
			}
			act := app.runner().CreateCategory(cmd.Context(), args[0])
			if err := actionErr(act); err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, act.(state.CategoryCreated).Category)
		},
	})
	return cmd
}

func newUsersCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "users",
		Short: "List users (for --responsible)",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List users",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			act := app.runner().FetchUsers(cmd.Context())
			if err := actionErr(act); err != nil {
				return writeErr(cmd, err)
			}
			users := act.(state.UsersFetched).Users
			if users == nil {
				users = []model.User{}
			}
			return writeOut(cmd, app, users)
		},
	})
	return cmd
}

func newProfilesCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "profiles",
		Aliases: []string{"profile"},
		Short:   "List profiles and set your avatar",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List profiles",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			act := app.runner().FetchProfiles(cmd.Context())
			if err := actionErr(act); err != nil {
				return writeErr(cmd, err)
			}
			ps := act.(state.ProfilesFetched).Profiles
			if ps == nil {
				ps = []model.Profile{}
			}
			return writeOut(cmd, app, ps)
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "set-avatar <image>",
		Short: "Upload an avatar image for your profile",
		Long: strings.TrimSpace(`
Uploads the image as the avatar of the signed-in user's profile.
A profile is created first when the account has none yet.
`),
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			path := strings.TrimSpace(args[0])
			if fi, err := os.Stat(path); err != nil {
				return writeErr(cmd, fmt.Errorf("avatar: %w", err))
			} else if fi.IsDir() {
				return writeErr(cmd, fmt.Errorf("avatar: %s is a directory", path))
			}

			r := app.runner()
			me, err := app.currentUser(ctx, r)
			if err != nil {
				return writeErr(cmd, err)
			}
			act := r.FetchProfiles(ctx)
			if err := actionErr(act); err != nil {
				return writeErr(cmd, err)
			}
			auth := state.AuthState{Profiles: act.(state.ProfilesFetched).Profiles}
			p, ok := auth.ProfileFor(me.ID)
			if !ok {
				act := r.CreateProfile(ctx)
				if err := actionErr(act); err != nil {
					return writeErr(cmd, err)
				}
				p = act.(state.ProfileCreated).Profile
			}

			act = r.UpdateProfile(ctx, p.ID, path)
			if err := actionErr(act); err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, act.(state.ProfileUpdated).Profile)
		},
	})
	return cmd
}
