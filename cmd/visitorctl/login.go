package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

func newLoginCmd(opts *options) *cobra.Command {
	var username string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and print a bearer token",
		Long:  "Exchanges credentials for a backend token. Export it as VISITOR_API_TOKEN for the other commands.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLogin(cmd, opts, username)
		},
	}
	cmd.Flags().StringVar(&username, "username", "", "user name (prompted when empty)")
	return cmd
}

func runLogin(cmd *cobra.Command, opts *options, username string) error {
	out := cmd.OutOrStdout()
	reader := bufio.NewReader(cmd.InOrStdin())

	if username == "" {
		fmt.Fprint(out, "Username: ")
		line, err := reader.ReadString('\n')
		if err != nil && line == "" {
			return fmt.Errorf("reading username: %w", err)
		}
		username = strings.TrimSpace(line)
	}

	fmt.Fprint(out, "Password: ")
	password, err := readPassword(cmd.InOrStdin(), reader)
	fmt.Fprintln(out)
	if err != nil {
		return fmt.Errorf("reading password: %w", err)
	}
	if username == "" || password == "" {
		return fmt.Errorf("username and password are required")
	}

	ctx, cancel := opts.commandContext(cmd)
	defer cancel()

	resp, err := opts.client().Login(ctx, username, password)
	if err != nil {
		return err
	}

	if opts.isJSON() {
		return printJSON(out, resp)
	}
	if resp.User != nil {
		fmt.Fprintf(out, "Signed in as %s (%s)\n", resp.User.DisplayName(), resp.User.Role)
	}
	fmt.Fprintf(out, "export VISITOR_API_TOKEN=%s\n", resp.Token)
	return nil
}

// readPassword reads without echo on a terminal and a plain line otherwise
func readPassword(in io.Reader, reader *bufio.Reader) (string, error) {
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		b, err := term.ReadPassword(int(f.Fd()))
		return string(b), err
	}
	line, err := reader.ReadString('\n')
	if err != nil && line == "" {
		return "", err
	}
	return strings.TrimSpace(line), nil
}
