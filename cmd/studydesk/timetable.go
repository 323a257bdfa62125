package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/at-ishikawa/studydesk/internal/timetable"
)

var weekdayNames = map[int]string{
	1: "Mon", 2: "Tue", 3: "Wed", 4: "Thu", 5: "Fri", 6: "Sat", 7: "Sun",
}

func newTimetableCommand() *cobra.Command {
	timetableCommand := &cobra.Command{
		Use:   "timetable",
		Short: "Show the weekly class schedule",
	}

	var from, to InstantFlag
	expandCmd := &cobra.Command{
		Use:   "expand",
		Short: "List the class sessions between --from and --to",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDesk(cmd.Context(), func(d *desk) error {
				start, end := rangeOrWeek(from, to, time.Now())
				for _, e := range d.expander.ExpandRange(start, end) {
					printEventLine(cmd.OutOrStdout(), d, e)
				}
				return nil
			})
		},
	}
	expandCmd.Flags().Var(&from, "from", "first date-time")
	expandCmd.Flags().Var(&to, "to", "last date-time")
	_ = expandCmd.MarkFlagRequired("from")
	_ = expandCmd.MarkFlagRequired("to")

	timetableCommand.AddCommand(
		&cobra.Command{
			Use:   "show",
			Short: "Print the recurring sessions",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return withDesk(cmd.Context(), func(d *desk) error {
					for _, entry := range d.expander.Entries() {
						printTimetableEntry(cmd, d, entry)
					}
					return nil
				})
			},
		},
		expandCmd,
		&cobra.Command{
			Use:   "week",
			Short: "List the class sessions of the current week",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return withDesk(cmd.Context(), func(d *desk) error {
					start, end := timetable.WeekRange(time.Now())
					for _, e := range d.expander.ExpandRange(start, end) {
						printEventLine(cmd.OutOrStdout(), d, e)
					}
					return nil
				})
			},
		},
	)
	return timetableCommand
}

func printTimetableEntry(cmd *cobra.Command, d *desk, entry timetable.Entry) {
	location := ""
	if entry.Location != "" {
		location = "  @ " + entry.Location
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s %s-%s  %s  %s%s\n",
		weekdayNames[entry.DayOfWeek],
		entry.Start,
		entry.End,
		entry.Title,
		d.moduleLabel(entry.Module),
		location,
	)
}
