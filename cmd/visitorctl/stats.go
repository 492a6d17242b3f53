package main

import (
	"fmt"
	"text/tabwriter"

	"visitor_access_go/services"

	"github.com/spf13/cobra"
)

func newStatsCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "stats <document>",
		Short: "Show one visitor's history",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := opts.commandContext(cmd)
			defer cancel()

			result := services.NewVisitorStatsService(opts.client()).Search(ctx, args[0])
			if result.Error != "" {
				return fmt.Errorf("%s", result.Error)
			}

			out := cmd.OutOrStdout()
			if opts.isJSON() {
				return printJSON(out, result.Stats)
			}

			v := result.Stats.Visitor
			fmt.Fprintf(out, "%s (%s-%d)\n", v.DisplayName(), v.DNIType.Abbreviation, v.DNINumber)
			if v.Company != nil && v.Company.Name != "" {
				fmt.Fprintf(out, "  Company: %s\n", v.Company.Name)
			}
			if len(v.RecentVisits) == 0 {
				fmt.Fprintln(out, "No recent visits.")
				return nil
			}

			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "DATE\tTYPE\tENTITY\tVISITED")
			for _, rv := range v.RecentVisits {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", services.FormatDisplay(rv.Date), rv.Type, rv.Location.Entity, rv.VisitedPerson)
			}
			return w.Flush()
		},
	}
}

func newDashboardCmd(opts *options) *cobra.Command {
	var timeRange, metric string

	cmd := &cobra.Command{
		Use:   "dashboard",
		Short: "Print visit totals and the main chart",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := opts.commandContext(cmd)
			defer cancel()

			view := services.NewDashboardService(opts.client()).Load(ctx, timeRange, metric)
			if view.Error != "" {
				return fmt.Errorf("%s", view.Error)
			}

			out := cmd.OutOrStdout()
			if opts.isJSON() {
				return printJSON(out, view.Stats)
			}

			totals := view.Stats.Stats
			fmt.Fprintf(out, "%s / %s\n", services.TimeRangeLabels[view.TimeRange], view.MetricLabel())
			fmt.Fprintf(out, "  Total visits:    %d\n", totals.TotalVisits)
			fmt.Fprintf(out, "  Active visits:   %d\n", totals.ActiveVisits)
			fmt.Fprintf(out, "  Unique visitors: %d\n", totals.UniqueVisitors)

			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			for _, p := range view.Stats.Charts.MainChart {
				fmt.Fprintf(w, "  %s\t%g\n", p.Name, p.Value)
			}
			return w.Flush()
		},
	}
	cmd.Flags().StringVar(&timeRange, "range", "week", "day|week|month|all")
	cmd.Flags().StringVar(&metric, "metric", "visits", "visits|entities|directions|departments|areas")
	return cmd
}
