package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/at-ishikawa/studydesk/internal/exchange"
	"github.com/at-ishikawa/studydesk/internal/module"
	"github.com/at-ishikawa/studydesk/internal/note"
	"github.com/at-ishikawa/studydesk/internal/pdf"
	"github.com/at-ishikawa/studydesk/internal/query"
	"github.com/at-ishikawa/studydesk/internal/render"
)

func newNotesCommand() *cobra.Command {
	notesCommand := &cobra.Command{
		Use:   "notes",
		Short: "Manage Markdown notes",
	}

	notesCommand.AddCommand(
		newNotesListCommand(),
		newNotesShowCommand(),
		newNotesCreateCommand(),
		newNotesEditCommand(),
		newNotesDeleteCommand(),
		newNotesDuplicateCommand(),
		newNotesImportCommand(),
		newNotesExportCommand(),
		newNotesRenderCommand(),
		newNotesPDFCommand(),
		newNotesTagsCommand(),
	)
	return notesCommand
}

func newNotesListCommand() *cobra.Command {
	var filter query.NoteFilter
	var moduleSlug string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List notes, most recently updated first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDesk(cmd.Context(), func(d *desk) error {
				filter.Module = module.Slug(moduleSlug)
				out := cmd.OutOrStdout()
				for _, n := range filter.Apply(d.notes.Notes()) {
					printNoteLine(out, d, n)
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&moduleSlug, "module", "", "only notes of this module")
	cmd.Flags().StringSliceVar(&filter.Tags, "tag", nil, "only notes carrying any of these tags")
	cmd.Flags().StringVar(&filter.Text, "query", "", "case-insensitive text search over title, content and tags")
	return cmd
}

func printNoteLine(out io.Writer, d *desk, n note.Note) {
	tags := ""
	if len(n.Tags) > 0 {
		tags = "  #" + strings.Join(n.Tags, " #")
	}
	fmt.Fprintf(out, "%s  %s  %s  %s%s\n",
		n.ID,
		n.UpdatedAt.Local().Format("2006-01-02 15:04"),
		d.moduleLabel(n.Module),
		n.Title,
		tags,
	)
}

func newNotesShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show <note id>",
		Short: "Print a note with its metadata",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDesk(cmd.Context(), func(d *desk) error {
				n, ok := d.notes.Get(args[0])
				if !ok {
					return notFound("note", args[0])
				}
				out := cmd.OutOrStdout()
				fmt.Fprintln(out, color.New(color.Bold).Sprint(n.Title))
				fmt.Fprintf(out, "module:  %s\n", d.moduleLabel(n.Module))
				fmt.Fprintf(out, "tags:    %s\n", strings.Join(n.Tags, ", "))
				fmt.Fprintf(out, "updated: %s\n\n", n.UpdatedAt.Local().Format("2006-01-02 15:04"))
				fmt.Fprintln(out, n.Content)
				return nil
			})
		},
	}
}

func newNotesCreateCommand() *cobra.Command {
	var draft note.Draft
	var moduleSlug, file string
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a note and print its id",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDesk(cmd.Context(), func(d *desk) error {
				if moduleSlug != "" {
					if err := d.requireModule(module.Slug(moduleSlug)); err != nil {
						return err
					}
					draft.Module = module.Slug(moduleSlug)
				}
				content, err := readContent(draft.Content, file)
				if err != nil {
					return err
				}
				draft.Content = content

				n := d.notes.Create(cmd.Context(), draft)
				fmt.Fprintln(cmd.OutOrStdout(), n.ID)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&draft.Title, "title", "", "note title (default \""+note.DefaultTitle+"\")")
	cmd.Flags().StringVar(&moduleSlug, "module", "", "module slug (default: the first module)")
	cmd.Flags().StringSliceVar(&draft.Tags, "tag", nil, "tags of the note")
	cmd.Flags().StringVar(&draft.Content, "content", "", "Markdown content")
	cmd.Flags().StringVar(&file, "file", "", "read the Markdown content from this file")
	cmd.MarkFlagsMutuallyExclusive("content", "file")
	return cmd
}

func newNotesEditCommand() *cobra.Command {
	var title, moduleSlug, content, file string
	var tags []string
	cmd := &cobra.Command{
		Use:   "edit <note id>",
		Short: "Change fields of a note",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			flags := cmd.Flags()
			return withDesk(cmd.Context(), func(d *desk) error {
				if flags.Changed("module") {
					if err := d.requireModule(module.Slug(moduleSlug)); err != nil {
						return err
					}
				}
				body, err := readContent(content, file)
				if err != nil {
					return err
				}

				n, ok := d.notes.Edit(cmd.Context(), args[0], func(n *note.Note) {
					if flags.Changed("title") {
						n.Title = title
					}
					if flags.Changed("module") {
						n.Module = module.Slug(moduleSlug)
					}
					if flags.Changed("tag") {
						n.Tags = tags
					}
					if flags.Changed("content") || flags.Changed("file") {
						n.Content = body
					}
				})
				if !ok {
					return notFound("note", args[0])
				}
				fmt.Fprintln(cmd.OutOrStdout(), n.ID)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "new title")
	cmd.Flags().StringVar(&moduleSlug, "module", "", "new module slug")
	cmd.Flags().StringSliceVar(&tags, "tag", nil, "replace the tags")
	cmd.Flags().StringVar(&content, "content", "", "new Markdown content")
	cmd.Flags().StringVar(&file, "file", "", "read the new Markdown content from this file")
	cmd.MarkFlagsMutuallyExclusive("content", "file")
	return cmd
}

func newNotesDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <note id>",
		Short: "Delete a note",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDesk(cmd.Context(), func(d *desk) error {
				if !d.notes.Delete(cmd.Context(), args[0]) {
					return notFound("note", args[0])
				}
				return nil
			})
		},
	}
}

func newNotesDuplicateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "duplicate <note id>",
		Short: "Copy a note and print the id of the copy",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDesk(cmd.Context(), func(d *desk) error {
				n, ok := d.notes.Duplicate(cmd.Context(), args[0])
				if !ok {
					return notFound("note", args[0])
				}
				fmt.Fprintln(cmd.OutOrStdout(), n.ID)
				return nil
			})
		},
	}
}

func newNotesImportCommand() *cobra.Command {
	var strict bool
	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Replace all notes with the JSON array in file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDesk(cmd.Context(), func(d *desk) error {
				reader, err := newExchangeReader(d, strict)
				if err != nil {
					return err
				}
				in, err := openInput(args[0])
				if err != nil {
					return err
				}
				defer in.Close()

				notes, err := reader.ReadNotes(in)
				if err != nil {
					return fmt.Errorf("ReadNotes(%s) > %w", args[0], err)
				}
				d.notes.Import(cmd.Context(), notes)
				fmt.Fprintf(cmd.OutOrStdout(), "imported %d notes\n", len(notes))
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&strict, "strict", false, "reject files with invalid or duplicate records")
	return cmd
}

func newExchangeReader(d *desk, strict bool) (*exchange.Reader, error) {
	if !strict {
		return exchange.NewReader(), nil
	}
	reader, err := exchange.NewStrictReader(d.modules)
	if err != nil {
		return nil, fmt.Errorf("exchange.NewStrictReader() > %w", err)
	}
	return reader, nil
}

func newNotesExportCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "export <file>",
		Short: "Write all notes as a JSON array to file (- for stdout)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDesk(cmd.Context(), func(d *desk) error {
				return writeOutput(cmd.OutOrStdout(), args[0], func(w io.Writer) error {
					return exchange.WriteJSON(w, d.notes.Notes())
				})
			})
		},
	}
}

func newNotesRenderCommand() *cobra.Command {
	var standalone bool
	cmd := &cobra.Command{
		Use:   "render <note id>",
		Short: "Print the sanitized HTML of a note",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDesk(cmd.Context(), func(d *desk) error {
				n, ok := d.notes.Get(args[0])
				if !ok {
					return notFound("note", args[0])
				}
				renderer, err := render.NewRenderer(d.cfg.PDF.TemplateFile)
				if err != nil {
					return fmt.Errorf("render.NewRenderer() > %w", err)
				}

				var html string
				if standalone {
					html, err = renderer.Document(render.Meta{
						Title:     n.Title,
						Module:    d.modules.Name(n.Module),
						Color:     d.modules.Color(n.Module),
						Tags:      n.Tags,
						FontScale: d.settings.Get().FontScale,
					}, n.Content)
				} else {
					html, err = renderer.Render(n.Content)
				}
				if err != nil {
					return fmt.Errorf("render note(%s) > %w", n.ID, err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), html)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&standalone, "standalone", false, "wrap the HTML in a page that typesets math in a browser")
	return cmd
}

func newNotesPDFCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "pdf <note id>",
		Short: "Export a note as an A4 PDF and print its path",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDesk(cmd.Context(), func(d *desk) error {
				n, ok := d.notes.Get(args[0])
				if !ok {
					return notFound("note", args[0])
				}
				renderer, err := render.NewRenderer(d.cfg.PDF.TemplateFile)
				if err != nil {
					return fmt.Errorf("render.NewRenderer() > %w", err)
				}
				exporter, err := pdf.NewExporter(d.cfg.PDF, renderer)
				if err != nil {
					return fmt.Errorf("pdf.NewExporter() > %w", err)
				}

				path, err := exporter.Export(cmd.Context(), pdf.Document{
					Note:       n,
					ModuleName: d.modules.Name(n.Module),
					Color:      d.modules.Color(n.Module),
					FontScale:  d.settings.Get().FontScale,
				})
				if err != nil {
					return fmt.Errorf("exporter.Export() > %w", err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), path)
				return nil
			})
		},
	}
}

func newNotesTagsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "tags",
		Short: "List every tag in use",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDesk(cmd.Context(), func(d *desk) error {
				for _, tag := range query.CollectTags(d.notes.Notes()) {
					fmt.Fprintln(cmd.OutOrStdout(), tag)
				}
				return nil
			})
		},
	}
}
