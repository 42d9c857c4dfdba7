/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/friendsincode/lessonboard/internal/schedule"
)

var validateFormat string

var validateCmd = &cobra.Command{
	Use:   "validate <schedule-file>",
	Short: "Check a schedule document",
	Long:  "Parse a JSON or YAML schedule document and print its lesson windows. Exits non-zero if the document is malformed.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		raw, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("read %s: %w", args[0], err)
		}

		format := schedule.FormatFromName(args[0])
		if validateFormat != "" {
			format = schedule.Format(validateFormat)
		}

		sched, err := schedule.Parse(raw, format)
		if err != nil {
			return err
		}
		return printSchedule(cmd.OutOrStdout(), sched)
	},
}

func init() {
	validateCmd.Flags().StringVar(&validateFormat, "format", "", "document format (json or yaml); guessed from the extension by default")
}

func printSchedule(out io.Writer, sched *schedule.Schedule) error {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "rotation interval:\t%s\n\n", sched.RotationInterval)
	fmt.Fprintln(tw, "START\tEND\tTITLE\tSLIDES\tBACKGROUND")
	for _, l := range sched.Lessons {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%t\t%t\n", l.Start, l.End, l.Title, l.ShowSlides, l.ShowBackground)
	}
	return tw.Flush()
}
