package main

import (
	"fmt"
	"io"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/at-ishikawa/studydesk/internal/calendar"
	"github.com/at-ishikawa/studydesk/internal/exchange"
	"github.com/at-ishikawa/studydesk/internal/ics"
	"github.com/at-ishikawa/studydesk/internal/module"
	"github.com/at-ishikawa/studydesk/internal/query"
)

const calendarName = "Studydesk"

func newEventsCommand() *cobra.Command {
	eventsCommand := &cobra.Command{
		Use:   "events",
		Short: "Manage exams and special dates",
	}

	eventsCommand.AddCommand(
		newEventsListCommand(),
		newEventsUpcomingCommand(),
		newEventsCreateCommand(),
		newEventsUpdateCommand(),
		newEventsDeleteCommand(),
		newEventsImportCommand(),
		newEventsExportCommand(),
		newEventsICSCommand(),
	)
	return eventsCommand
}

func printEventLine(out io.Writer, d *desk, e calendar.Event) {
	when := e.Start.Local().Format("2006-01-02 15:04")
	if e.IsAllDay() {
		when = e.Start.UTC().Format("2006-01-02") + " (all day)"
	} else if e.End != nil {
		when += "-" + e.End.Local().Format("15:04")
	}

	kind := string(e.Kind)
	if e.Kind == calendar.KindExam {
		kind = color.New(color.FgRed, color.Bold).Sprint(kind)
	}

	moduleName := ""
	if e.Module != "" {
		moduleName = "  " + d.moduleLabel(e.Module)
	}
	fmt.Fprintf(out, "%s  %s  %s  %s%s\n", e.ID, when, kind, e.Title, moduleName)
}

func newEventsListCommand() *cobra.Command {
	var from, to InstantFlag
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stored events, or every event of a range with --from/--to",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDesk(cmd.Context(), func(d *desk) error {
				events := calendar.Merge(nil, d.events.Events())
				if from.set || to.set {
					start, end := rangeOrWeek(from, to, time.Now())
					events = calendar.Merge(d.expander.ExpandRange(start, end), inRange(d.events.Events(), start, end))
				}
				for _, e := range events {
					printEventLine(cmd.OutOrStdout(), d, e)
				}
				return nil
			})
		},
	}
	cmd.Flags().Var(&from, "from", "include timetable classes from this date-time")
	cmd.Flags().Var(&to, "to", "include timetable classes up to this date-time")
	return cmd
}

// inRange keeps events overlapping [start, end].
func inRange(events []calendar.Event, start, end time.Time) []calendar.Event {
	var result []calendar.Event
	for _, e := range events {
		last := e.Start
		if e.End != nil {
			last = *e.End
		}
		if !last.Before(start) && !e.Start.After(end) {
			result = append(result, e)
		}
	}
	return result
}

func newEventsUpcomingCommand() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "upcoming",
		Short: "Show the next exams and special dates",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDesk(cmd.Context(), func(d *desk) error {
				if !cmd.Flags().Changed("limit") {
					limit = d.cfg.Calendar.UpcomingLimit
				}
				var events []calendar.Event
				if d.cfg.Calendar.UpcomingFutureOnly {
					events = query.UpcomingAfter(d.events.Events(), time.Now(), limit)
				} else {
					events = query.Upcoming(d.events.Events(), limit)
				}
				for _, e := range events {
					printEventLine(cmd.OutOrStdout(), d, e)
				}
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&limit, "limit", query.DefaultUpcomingLimit, "number of events to show")
	return cmd
}

// eventFlags are the user editable fields of an event.
type eventFlags struct {
	title       string
	start       string
	end         string
	allDay      bool
	module      string
	kind        KindFlag
	description string
}

func (f *eventFlags) register(flags *pflag.FlagSet) {
	flags.StringVar(&f.title, "title", "", "event title")
	flags.StringVar(&f.start, "start", "", "start date-time, e.g. 2025-02-10T09:00:00+01:00 or 2025-02-10")
	flags.StringVar(&f.end, "end", "", "end date-time")
	flags.BoolVar(&f.allDay, "all-day", false, "the event lasts whole days")
	flags.StringVar(&f.module, "module", "", "module slug")
	flags.Var(&f.kind, "kind", "exam or special")
	flags.StringVar(&f.description, "description", "", "free text")
}

// candidate overlays the changed flags on base.
func (f *eventFlags) candidate(flags *pflag.FlagSet, base calendar.Candidate) calendar.Candidate {
	if flags.Changed("title") {
		base.Title = f.title
	}
	if flags.Changed("start") {
		base.Start = f.start
	}
	if flags.Changed("end") {
		base.End = f.end
	}
	if flags.Changed("all-day") {
		base.AllDay = calendar.AllDay(f.allDay)
	}
	if flags.Changed("module") {
		base.Module = module.Slug(f.module)
	}
	if flags.Changed("kind") {
		base.Kind = calendar.Kind(f.kind)
	}
	if flags.Changed("description") {
		base.Description = f.description
	}
	return base
}

func toCandidate(e calendar.Event) calendar.Candidate {
	c := calendar.Candidate{
		Title:       e.Title,
		Start:       e.Start.Format(time.RFC3339Nano),
		AllDay:      e.AllDay,
		Module:      e.Module,
		Kind:        e.Kind,
		Description: e.Description,
	}
	if e.End != nil {
		c.End = e.End.Format(time.RFC3339Nano)
	}
	return c
}

func newEventsCreateCommand() *cobra.Command {
	var f eventFlags
	f.kind = KindFlag(calendar.KindExam)
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create an event and print its id",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDesk(cmd.Context(), func(d *desk) error {
				validator, err := calendar.NewValidator(d.modules)
				if err != nil {
					return fmt.Errorf("calendar.NewValidator() > %w", err)
				}
				event, err := validator.Validate(f.candidate(cmd.Flags(), calendar.Candidate{Kind: calendar.Kind(f.kind)}))
				if err != nil {
					return fmt.Errorf("invalid event: %w", err)
				}

				created := d.events.Create(cmd.Context(), calendar.Draft{
					Title:       event.Title,
					Start:       event.Start,
					End:         event.End,
					AllDay:      event.IsAllDay(),
					Module:      event.Module,
					Kind:        event.Kind,
					Description: event.Description,
				})
				fmt.Fprintln(cmd.OutOrStdout(), created.ID)
				return nil
			})
		},
	}
	f.register(cmd.Flags())
	_ = cmd.MarkFlagRequired("title")
	_ = cmd.MarkFlagRequired("start")
	return cmd
}

func newEventsUpdateCommand() *cobra.Command {
	var f eventFlags
	cmd := &cobra.Command{
		Use:   "update <event id>",
		Short: "Change fields of an event",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDesk(cmd.Context(), func(d *desk) error {
				existing, ok := d.events.Get(args[0])
				if !ok {
					return notFound("event", args[0])
				}
				validator, err := calendar.NewValidator(d.modules)
				if err != nil {
					return fmt.Errorf("calendar.NewValidator() > %w", err)
				}
				event, err := validator.Validate(f.candidate(cmd.Flags(), toCandidate(existing)))
				if err != nil {
					return fmt.Errorf("invalid event: %w", err)
				}

				event.ID = existing.ID
				if !d.events.Update(cmd.Context(), event) {
					return notFound("event", args[0])
				}
				fmt.Fprintln(cmd.OutOrStdout(), event.ID)
				return nil
			})
		},
	}
	f.register(cmd.Flags())
	return cmd
}

func newEventsDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <event id>",
		Short: "Delete an event",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDesk(cmd.Context(), func(d *desk) error {
				if !d.events.Delete(cmd.Context(), args[0]) {
					return notFound("event", args[0])
				}
				return nil
			})
		},
	}
}

func newEventsImportCommand() *cobra.Command {
	var strict bool
	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Replace all events with the JSON array in file",
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

				events, err := reader.ReadEvents(in)
				if err != nil {
					return fmt.Errorf("ReadEvents(%s) > %w", args[0], err)
				}
				d.events.Import(cmd.Context(), events)
				fmt.Fprintf(cmd.OutOrStdout(), "imported %d events\n", len(events))
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&strict, "strict", false, "reject files with invalid or duplicate records")
	return cmd
}

func newEventsExportCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "export <file>",
		Short: "Write all events as a JSON array to file (- for stdout)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDesk(cmd.Context(), func(d *desk) error {
				return writeOutput(cmd.OutOrStdout(), args[0], func(w io.Writer) error {
					return exchange.WriteJSON(w, d.events.Events())
				})
			})
		},
	}
}

func newEventsICSCommand() *cobra.Command {
	var from, to InstantFlag
	cmd := &cobra.Command{
		Use:   "ics <file>",
		Short: "Write stored events and the classes of a range (default: this week) as iCalendar",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDesk(cmd.Context(), func(d *desk) error {
				start, end := rangeOrWeek(from, to, time.Now())
				events := calendar.Merge(d.expander.ExpandRange(start, end), d.events.Events())
				encoder := ics.NewEncoder(d.modules)
				return writeOutput(cmd.OutOrStdout(), args[0], func(w io.Writer) error {
					return encoder.Encode(w, calendarName, events)
				})
			})
		},
	}
	cmd.Flags().Var(&from, "from", "first date-time of timetable classes (default: this Monday)")
	cmd.Flags().Var(&to, "to", "last date-time of timetable classes (default: this Sunday)")
	return cmd
}
