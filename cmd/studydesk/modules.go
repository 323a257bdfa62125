package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/at-ishikawa/studydesk/internal/module"
)

func newModulesCommand() *cobra.Command {
	modulesCommand := &cobra.Command{
		Use:   "modules",
		Short: "Show the course modules",
	}
	modulesCommand.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List the modules in display order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			registry, err := module.Load(cfg.Catalog.ModulesFile)
			if err != nil {
				return fmt.Errorf("module.Load() > %w", err)
			}
			d := &desk{modules: registry}
			for _, m := range registry.All() {
				fmt.Fprintf(cmd.OutOrStdout(), "%s  %s  %s\n", m.Slug, m.Color, d.moduleLabel(m.Slug))
			}
			return nil
		},
	})
	return modulesCommand
}
