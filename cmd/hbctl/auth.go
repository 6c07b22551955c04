package main

import (
	"fmt"
	"strings"
	"time"

	"heartbridge/internal/format"
	"heartbridge/internal/models"
	"heartbridge/internal/validation"

	"github.com/spf13/cobra"
)

func newRegisterCmd(a *app) *cobra.Command {
	var role string
	cmd := &cobra.Command{
		Use:   "register <email> <password>",
		Short: "Create an account and sign in",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := validation.ValidateRegistration(args[0], args[1]); err != nil {
				return err
			}
			if err := a.start(ctx, true); err != nil {
				return err
			}
			id, err := a.client.Register(ctx, args[0], args[1])
			if err != nil {
				return err
			}
			if err := a.saveIdentity(ctx); err != nil {
				return err
			}
			if role != "" {
				if err := a.session.SelectRole(ctx, models.Role(role)); err != nil {
					return err
				}
			}
			fmt.Fprintf(a.out, "Registered %s (%s).\n", id.Email, id.UID)
			fmt.Fprintln(a.out, "Finish with: hbctl profile complete --name ... --age-range ... --birth YYYY-MM-DD")
			return nil
		},
	}
	cmd.Flags().StringVar(&role, "role", "", "role to register as (parent or teen)")
	return cmd
}

func newLoginCmd(a *app) *cobra.Command {
	var provider, idToken string
	cmd := &cobra.Command{
		Use:   "login [<email> <password>]",
		Short: "Sign in with a password or a provider ID token",
		Args: func(cmd *cobra.Command, args []string) error {
			if provider != "" {
				return cobra.NoArgs(cmd, args)
			}
			return cobra.ExactArgs(2)(cmd, args)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if provider == "" {
				if err := validation.ValidateCredentials(args[0], args[1]); err != nil {
					return err
				}
			}
			if err := a.start(ctx, true); err != nil {
				return err
			}

			var err error
			if provider != "" {
				_, err = a.client.SignInWithIDToken(ctx, provider, idToken)
			} else {
				_, err = a.client.SignInWithPassword(ctx, args[0], args[1])
			}
			if err != nil {
				return err
			}
			if err := a.saveIdentity(ctx); err != nil {
				return err
			}
			printWhoami(a)
			return nil
		},
	}
	cmd.Flags().StringVar(&provider, "provider", "", "identity provider name, e.g. google")
	cmd.Flags().StringVar(&idToken, "id-token", "", "ID token issued by the provider")
	cmd.MarkFlagsRequiredTogether("provider", "id-token")
	return cmd
}

func newLogoutCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the signed-in member",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			if err := a.start(ctx, true); err != nil {
				return err
			}
			if err := a.session.SignOut(ctx); err != nil {
				return err
			}
			if err := a.saveIdentity(ctx); err != nil {
				return err
			}
			fmt.Fprintln(a.out, "Signed out.")
			return nil
		},
	}
}

func newWhoamiCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in member",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.start(cmd.Context(), false); err != nil {
				return err
			}
			printWhoami(a)
			return nil
		},
	}
}

func printWhoami(a *app) {
	id := a.session.Identity()
	if id == nil {
		fmt.Fprintln(a.out, "Not signed in.")
		return
	}
	fmt.Fprintf(a.out, "Signed in as %s (%s via %s)\n", id.Email, id.UID, id.Provider)
	profile := a.session.Profile()
	if profile == nil {
		fmt.Fprintln(a.out, "Profile not completed yet.")
	} else {
		fmt.Fprintf(a.out, "%s · %s · %s · %d 歲\n",
			profile.DisplayName,
			format.RoleName(profile.Role),
			format.AgeRange(profile.AgeRange),
			format.CalculateAge(profile.BirthDate.Year, profile.BirthDate.Month, profile.BirthDate.Day, time.Now()),
		)
	}
	fmt.Fprintf(a.out, "Theme: %s\n", a.themes.Current())
}

func newProfileCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Choose a role and complete the member profile",
	}

	cmd.AddCommand(&cobra.Command{
		Use:       "role <parent|teen>",
		Short:     "Pick the role used when the profile is completed",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{string(models.RoleParent), string(models.RoleTeen)},
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := a.start(ctx, false); err != nil {
				return err
			}
			if err := a.session.SelectRole(ctx, models.Role(args[0])); err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Registering as %s.\n", format.RoleName(models.Role(args[0])))
			return nil
		},
	})

	var in models.ProfileInput
	var birth, interests string
	complete := &cobra.Command{
		Use:   "complete",
		Short: "Save the profile of the signed-in member",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			if birth != "" {
				t, err := time.Parse(format.DateLayout, birth)
				if err != nil {
					return models.NewValidationError(validation.MsgBirthDate)
				}
				in.BirthYear, in.BirthMonth, in.BirthDay = t.Year(), int(t.Month()), t.Day()
			}
			if interests != "" {
				in.Interests = strings.Split(interests, ",")
			}
			if err := a.start(ctx, true); err != nil {
				return err
			}
			if _, err := a.requireSignIn(); err != nil {
				return err
			}
			if _, err := a.session.CompleteProfile(ctx, in); err != nil {
				return err
			}
			printWhoami(a)
			return nil
		},
	}
	complete.Flags().StringVar(&in.DisplayName, "name", "", "display name")
	complete.Flags().StringVar(&in.AgeRange, "age-range", "", "one of "+strings.Join(models.AgeRanges, ", "))
	complete.Flags().StringVar(&birth, "birth", "", "birth date as YYYY-MM-DD")
	complete.Flags().StringVar(&in.Phone, "phone", "", "optional phone number")
	complete.Flags().StringVar(&interests, "interests", "", "comma separated interests")
	cmd.AddCommand(complete)
	return cmd
}
