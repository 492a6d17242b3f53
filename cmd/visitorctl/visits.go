package main

import (
	"fmt"
	"strconv"
	"strings"
	"text/tabwriter"

	"visitor_access_go/services"

	"github.com/spf13/cobra"
)

// listColumns are the table columns printed by "visits"
var listColumns = []string{
	services.ColFullName,
	services.ColDNI,
	services.ColCompany,
	services.ColEntity,
	services.ColEntryDateTime,
	services.ColExitDate,
	services.ColVisitType,
}

func newVisitsCmd(opts *options) *cobra.Command {
	var (
		filter string
		sortBy string
		desc   bool
		active bool
	)

	cmd := &cobra.Command{
		Use:   "visits",
		Short: "List visits",
		Long:  "Lists the registered visits, optionally filtered and sorted like the web table.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := opts.commandContext(cmd)
			defer cancel()

			rows, err := opts.client().ListVisits(ctx)
			if err != nil {
				return err
			}
			rows = services.FilterVisits(rows, filter)
			if active {
				inside := rows[:0]
				for _, v := range rows {
					if !v.HasExited() {
						inside = append(inside, v)
					}
				}
				rows = inside
			}
			services.SortVisits(rows, sortBy, desc)

			out := cmd.OutOrStdout()
			if opts.isJSON() {
				return printJSON(out, rows)
			}
			if len(rows) == 0 {
				fmt.Fprintln(out, "No visits found.")
				return nil
			}

			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			header := []string{"ID"}
			for _, key := range listColumns {
				header = append(header, strings.ToUpper(key))
			}
			fmt.Fprintln(w, strings.Join(header, "\t"))
			for _, v := range rows {
				cells := []string{strconv.FormatInt(v.ID, 10)}
				for _, key := range listColumns {
					cells = append(cells, services.CellText(v, key))
				}
				fmt.Fprintln(w, strings.Join(cells, "\t"))
			}
			return w.Flush()
		},
	}

	cmd.Flags().StringVarP(&filter, "filter", "f", "", "case-insensitive text filter")
	cmd.Flags().StringVar(&sortBy, "sort", services.ColEntryDateTime, "column to sort by")
	cmd.Flags().BoolVar(&desc, "desc", false, "sort descending")
	cmd.Flags().BoolVar(&active, "active", false, "only visitors still inside")
	return cmd
}

func newExitCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "exit <id>",
		Short: "Record a visitor's exit",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseVisitID(args[0])
			if err != nil {
				return err
			}
			ctx, cancel := opts.commandContext(cmd)
			defer cancel()

			if err := opts.client().MarkExit(ctx, id); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), services.MsgExitSuccess)
			return nil
		},
	}
}

func newDeleteCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>...",
		Short: "Delete one or more visits",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids := make([]int64, 0, len(args))
			for _, arg := range args {
				id, err := parseVisitID(arg)
				if err != nil {
					return err
				}
				ids = append(ids, id)
			}

			ctx, cancel := opts.commandContext(cmd)
			defer cancel()

			client := opts.client()
			var err error
			if len(ids) == 1 {
				err = client.DeleteVisit(ctx, ids[0])
			} else {
				err = client.DeleteVisits(ctx, ids)
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s (%d)\n", services.MsgDeleteSuccess, len(ids))
			return nil
		},
	}
}

func parseVisitID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid visit ID: %s", s)
	}
	return id, nil
}
