package main

import (
	"fmt"

	"visitor_access_go/services"

	"github.com/spf13/cobra"
)

func newLookupCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "lookup <document>",
		Short: "Look a visitor up by document",
		Long:  "Searches the backend for a visitor by document, for example V-12345678.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLookup(cmd, opts, args[0])
		},
	}
}

func runLookup(cmd *cobra.Command, opts *options, document string) error {
	dniType, number, err := services.ParseDocument(document)
	if err != nil {
		return fmt.Errorf("%s", services.DocumentErrorMessage(err))
	}

	ctx, cancel := opts.commandContext(cmd)
	defer cancel()

	result := services.NewVisitorLookup(opts.client()).Lookup(ctx, dniType, number)
	if result.Source == services.LookupFallback {
		return fmt.Errorf("backend unavailable: %w", result.Err)
	}

	out := cmd.OutOrStdout()
	if opts.isJSON() {
		return printJSON(out, result)
	}

	_, message := result.Message()
	fmt.Fprintln(out, message)
	if v := result.Visitor; v != nil {
		fmt.Fprintf(out, "  Name:     %s\n", v.DisplayName())
		fmt.Fprintf(out, "  Document: %s-%d\n", result.DNIType, result.DNINumber)
		if phone := v.Phone(); phone != "" {
			fmt.Fprintf(out, "  Phone:    %s\n", phone)
		}
		if v.Company != nil && v.Company.Name != "" {
			fmt.Fprintf(out, "  Company:  %s\n", v.Company.Name)
		}
	}
	return nil
}
