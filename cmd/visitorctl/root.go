package main

import (
	"context"
	"encoding/json"
	"io"
	"os"
	"strings"
	"time"

	"visitor_access_go/config"
	"visitor_access_go/services/backend"

	"github.com/spf13/cobra"
)

// options are the persistent flags shared by every subcommand
type options struct {
	apiURL  string
	token   string
	format  string
	timeout time.Duration
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:           "visitorctl",
		Short:         "Query and manage facility visits",
		Long:          "Looks visitors up, lists and closes visits and prints statistics from the access-control backend.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	apiURL := os.Getenv("API_URL")
	if apiURL == "" {
		apiURL = config.DefaultAPIURL
	}
	root.PersistentFlags().StringVar(&opts.apiURL, "api-url", apiURL, "backend base URL (env API_URL)")
	root.PersistentFlags().StringVar(&opts.token, "token", os.Getenv("VISITOR_API_TOKEN"), "bearer token (env VISITOR_API_TOKEN)")
	root.PersistentFlags().StringVar(&opts.format, "format", "text", "output format (text|json)")
	root.PersistentFlags().DurationVar(&opts.timeout, "timeout", 30*time.Second, "backend request timeout")

	root.AddCommand(
		newLoginCmd(opts),
		newLookupCmd(opts),
		newVisitsCmd(opts),
		newExitCmd(opts),
		newDeleteCmd(opts),
		newStatsCmd(opts),
		newDashboardCmd(opts),
	)
	return root
}

func (o *options) client() *backend.Client {
	return backend.New(strings.TrimSuffix(o.apiURL, "/"), o.token, o.timeout)
}

func (o *options) isJSON() bool {
	return o.format == "json"
}

// commandContext bounds a command by the request timeout
func (o *options) commandContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithTimeout(ctx, o.timeout)
}

// printJSON writes v as indented JSON
func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
