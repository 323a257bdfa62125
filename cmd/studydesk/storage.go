package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/at-ishikawa/studydesk/internal/datasync"
	"github.com/at-ishikawa/studydesk/internal/storage"
)

func newStorageCommand() *cobra.Command {
	storageCommand := &cobra.Command{
		Use:   "storage",
		Short: "Manage the storage backends",
	}
	storageCommand.AddCommand(newStorageSyncCommand())
	return storageCommand
}

func newStorageSyncCommand() *cobra.Command {
	var toDriver string
	var toDirectory string
	var dryRun bool
	var updateExisting bool

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Copy notes, events and settings from the configured storage to another one",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			targetCfg := *cfg
			targetCfg.Storage.Driver = toDriver
			if toDirectory != "" {
				targetCfg.Storage.Directory = toDirectory
			}
			if targetCfg.Storage == cfg.Storage {
				return fmt.Errorf("the target storage is the configured storage")
			}

			source, closeSource, err := storage.Open(ctx, *cfg)
			if err != nil {
				return fmt.Errorf("storage.Open(source) > %w", err)
			}
			defer func() { _ = closeSource() }()
			target, closeTarget, err := storage.Open(ctx, targetCfg)
			if err != nil {
				return fmt.Errorf("storage.Open(target) > %w", err)
			}
			defer func() { _ = closeTarget() }()

			out := cmd.OutOrStdout()
			importer := datasync.NewImporter(source, target, out)
			opts := datasync.ImportOptions{
				DryRun:         dryRun,
				UpdateExisting: updateExisting,
			}
			result, err := importer.Import(ctx, datasync.Keys, opts)
			if err != nil {
				return fmt.Errorf("import: %w", err)
			}

			fmt.Fprintln(out, "\nSync Summary:")
			if opts.DryRun {
				fmt.Fprintln(out, "  (dry-run mode, no changes made)")
			}
			fmt.Fprintf(out, "  %d new, %d skipped, %d updated, %d missing\n", result.New, result.Skipped, result.Updated, result.Missing)
			return nil
		},
	}

	cmd.Flags().StringVar(&toDriver, "to-driver", "mysql", "target storage driver (file or mysql)")
	cmd.Flags().StringVar(&toDirectory, "to-directory", "", "target directory for the file driver")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "show what would be copied without writing")
	cmd.Flags().BoolVar(&updateExisting, "update-existing", false, "replace collections the target already holds")
	return cmd
}
