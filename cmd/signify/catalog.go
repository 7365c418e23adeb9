package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/matthewbaird/signify/internal/signals"
	"github.com/matthewbaird/signify/internal/types"
)

func catalogCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "catalog [event-type]",
		Short: "List event types, or the remediation actions for one event type",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return listEventTypes(cmd)
			}
			return listActions(cmd, types.EventType(args[0]))
		},
	}
}

func listEventTypes(cmd *cobra.Command) error {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "TYPE\tLABEL\tACTIONS")
	for _, info := range signals.EventTypeRegistry {
		fmt.Fprintf(w, "%s\t%s\t%d\n", info.Type, info.Label, len(signals.ActionsFor(info.Type)))
	}
	return w.Flush()
}

func listActions(cmd *cobra.Command, eventType types.EventType) error {
	actions := signals.ActionsFor(eventType)
	if len(actions) == 0 {
		fmt.Fprintf(cmd.OutOrStdout(), "No actions for %q.\n", eventType)
		return nil
	}
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tLABEL\tCATEGORY")
	for _, a := range actions {
		fmt.Fprintf(w, "%s\t%s\t%s\n", a.ID, a.Label, signals.StyleFor(a.Category).Label)
	}
	return w.Flush()
}
