package main

import (
	"fmt"

	"heartbridge/internal/models"

	"github.com/spf13/cobra"
)

func newThemeCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "theme",
		Short: "Show or change the theme. Signing in resets it to the member's role.",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "get",
		Short: "Print the current theme",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.start(cmd.Context(), false); err != nil {
				return err
			}
			fmt.Fprintln(a.out, a.themes.Current())
			return nil
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:       "set <neutral|parent|teen>",
		Short:     "Switch the theme",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{string(models.ThemeNeutral), string(models.ThemeParent), string(models.ThemeTeen)},
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := a.start(ctx, false); err != nil {
				return err
			}
			if err := a.themes.Set(ctx, models.Theme(args[0])); err != nil {
				return err
			}
			fmt.Fprintln(a.out, a.themes.Current())
			return nil
		},
	})
	return cmd
}
