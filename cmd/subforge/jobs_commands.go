package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"subforge/internal/jobs"
	"subforge/internal/jobstore"
)

func newJobsCommand(ctx *commandContext) *cobra.Command {
	jobsCmd := &cobra.Command{
		Use:   "jobs",
		Short: "Inspect the job history ledger",
	}
	jobsCmd.AddCommand(newJobsListCommand(ctx))
	jobsCmd.AddCommand(newJobsShowCommand(ctx))
	jobsCmd.AddCommand(newJobsPruneCommand(ctx))
	jobsCmd.AddCommand(newJobsClearCommand(ctx))
	return jobsCmd
}

func withStore(ctx *commandContext, fn func(*jobstore.Store) error) error {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return err
	}
	store, err := jobstore.Open(cfg)
	if err != nil {
		return err
	}
	defer store.Close()
	return fn(store)
}

type jobRow struct {
	ID         string     `json:"id"`
	Kind       jobs.Kind  `json:"kind"`
	State      jobs.State `json:"state"`
	Subject    string     `json:"subject"`
	Reason     string     `json:"reason,omitempty"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt time.Time  `json:"finished_at,omitzero"`
}

func jobRowOf(rec jobs.Record) jobRow {
	return jobRow(rec)
}

func newJobsListCommand(ctx *commandContext) *cobra.Command {
	var (
		limit int
		kind  string
		state string
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recent jobs, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			filter := jobstore.Filter{Limit: limit, State: jobs.State(state)}
			if kind != "" {
				parsed, err := jobs.ParseKind(kind)
				if err != nil {
					return err
				}
				filter.Kind = parsed
			}
			return withStore(ctx, func(store *jobstore.Store) error {
				records, err := store.List(cmd.Context(), filter)
				if err != nil {
					return err
				}
				if ctx.jsonOutput() {
					out := make([]jobRow, len(records))
					for i, rec := range records {
						out[i] = jobRowOf(rec)
					}
					return writeJSON(cmd, out)
				}
				if len(records) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No jobs recorded")
					return nil
				}
				rows := make([][]string, 0, len(records))
				for _, rec := range records {
					rows = append(rows, []string{
						rec.ID[:min(8, len(rec.ID))],
						string(rec.Kind),
						string(rec.State),
						clip(rec.Subject, 40),
						rec.StartedAt.Local().Format("2006-01-02 15:04:05"),
						formatElapsed(rec),
					})
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderTable(
					[]string{"ID", "Kind", "State", "Subject", "Started", "Took"},
					rows,
					[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignLeft, alignRight},
				))
				return nil
			})
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum rows to show (0 for all)")
	cmd.Flags().StringVar(&kind, "kind", "", "Only jobs of this kind")
	cmd.Flags().StringVar(&state, "state", "", "Only jobs in this state")
	return cmd
}

func newJobsShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show one job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(ctx, func(store *jobstore.Store) error {
				rec, err := store.Get(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if rec == nil {
					return fmt.Errorf("job %s not found", args[0])
				}
				if ctx.jsonOutput() {
					return writeJSON(cmd, jobRowOf(*rec))
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "ID:       %s\n", rec.ID)
				fmt.Fprintf(out, "Kind:     %s\n", rec.Kind)
				fmt.Fprintf(out, "State:    %s\n", rec.State)
				fmt.Fprintf(out, "Subject:  %s\n", rec.Subject)
				fmt.Fprintf(out, "Started:  %s\n", rec.StartedAt.Local().Format(time.RFC3339))
				if !rec.FinishedAt.IsZero() {
					fmt.Fprintf(out, "Finished: %s (%s)\n", rec.FinishedAt.Local().Format(time.RFC3339), formatElapsed(*rec))
				}
				if rec.Reason != "" {
					fmt.Fprintf(out, "Reason:   %s\n", rec.Reason)
				}
				return nil
			})
		},
	}
}

func newJobsPruneCommand(ctx *commandContext) *cobra.Command {
	var olderThan time.Duration
	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Delete finished jobs older than a cutoff",
		RunE: func(cmd *cobra.Command, args []string) error {
			if olderThan <= 0 {
				return fmt.Errorf("--older-than must be positive")
			}
			return withStore(ctx, func(store *jobstore.Store) error {
				n, err := store.Prune(cmd.Context(), time.Now().Add(-olderThan))
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed %s\n", plural(n, "job"))
				return nil
			})
		},
	}
	cmd.Flags().DurationVar(&olderThan, "older-than", 30*24*time.Hour, "Age cutoff")
	return cmd
}

func newJobsClearCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Delete the whole job history",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(ctx, func(store *jobstore.Store) error {
				n, err := store.Clear(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed %s\n", plural(n, "job"))
				return nil
			})
		},
	}
}

func formatElapsed(rec jobs.Record) string {
	if rec.FinishedAt.IsZero() {
		return "-"
	}
	return rec.FinishedAt.Sub(rec.StartedAt).Round(100 * time.Millisecond).String()
}

func plural(n int64, noun string) string {
	if n == 1 {
		return "1 " + noun
	}
	return strconv.FormatInt(n, 10) + " " + noun + "s"
}
