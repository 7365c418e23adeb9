package main

import (
	"context"
	"fmt"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/matthewbaird/signify/internal/engine"
	"github.com/matthewbaird/signify/internal/people"
	"github.com/matthewbaird/signify/internal/signallog"
	"github.com/matthewbaird/signify/internal/signals"
)

func timelineCmd() *cobra.Command {
	var desc bool
	cmd := &cobra.Command{
		Use:   "timeline <person-id>",
		Short: "Print a demo person's recomputed signal log",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTimeline(cmd, args[0], desc)
		},
	}
	cmd.Flags().BoolVar(&desc, "desc", false, "Newest event first")
	return cmd
}

func runTimeline(cmd *cobra.Command, rawID string, desc bool) error {
	ctx := context.Background()

	personID, err := strconv.Atoi(rawID)
	if err != nil {
		return fmt.Errorf("invalid person id %q", rawID)
	}

	ps := people.NewMemoryStore()
	logs := signallog.NewMemoryStore()
	if err := seedDemo(ctx, ps, logs); err != nil {
		return err
	}
	e := engine.New(logs, ps)

	person, err := e.GetPerson(ctx, personID)
	if err != nil {
		return err
	}
	tl, err := e.Timeline(ctx, personID)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s (#%d)  signals: %s  signal log: %s\n",
		person.Name, person.ID, person.RiskLabel, tl.Current.Label())
	if len(tl.Entries) == 0 {
		fmt.Fprintln(out, "No signal log events.")
		return nil
	}

	entries := tl.Entries
	if desc {
		entries = signals.Reverse(entries)
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "DATE\tEVENT\tIMPACT\tCUMULATIVE\tRISK\tACTION")
	for _, entry := range entries {
		action := "-"
		if resolved, ok := signals.ResolveAction(entry.EventType, entry.ActionTaken); ok {
			action = resolved.Label
		}
		fmt.Fprintf(w, "%s\t%s\t%+d\t%d\t%s\t%s\n",
			entry.Date,
			signals.EventTypeLabel(entry.EventType).Label,
			entry.RiskScoreImpact,
			entry.CumulativeImpact(),
			entry.RiskScoreAfter(),
			action)
	}
	return w.Flush()
}
