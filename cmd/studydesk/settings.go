package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/at-ishikawa/studydesk/internal/settings"
)

func newSettingsCommand() *cobra.Command {
	settingsCommand := &cobra.Command{
		Use:   "settings",
		Short: "Show or change display settings",
	}
	settingsCommand.AddCommand(
		&cobra.Command{
			Use:   "show",
			Short: "Print the current settings",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return withDesk(cmd.Context(), func(d *desk) error {
					current := d.settings.Get()
					fmt.Fprintf(cmd.OutOrStdout(), "font-scale: %s (%s)\n", current.FontScale, current.FontScale.CSSSize())
					return nil
				})
			},
		},
		&cobra.Command{
			Use:       "font-scale <sm|md|lg>",
			Short:     "Set the font scale used for rendered notes",
			Args:      cobra.ExactArgs(1),
			ValidArgs: []string{"sm", "md", "lg"},
			RunE: func(cmd *cobra.Command, args []string) error {
				var scale settings.FontScale
				if err := scale.Set(args[0]); err != nil {
					return err
				}
				return withDesk(cmd.Context(), func(d *desk) error {
					return d.settings.SetFontScale(cmd.Context(), scale)
				})
			},
		},
	)
	return settingsCommand
}
