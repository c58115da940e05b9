package cli

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"github.com/matzehuels/graphbuilder/internal/server"
	"github.com/matzehuels/graphbuilder/pkg/session"
	"github.com/matzehuels/graphbuilder/pkg/store"
)

// serveCommand creates the "serve" command.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr   string
		create bool
	)

	cmd := &cobra.Command{
		Use:   "serve NAME",
		Short: "Serve a graph over an HTTP API",
		Long: `Serve opens the named graph in an editing session and exposes it over HTTP.
Every mutating request answers with the deltas it produced. POST /save
writes the graph back to the store.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			name := args[0]
			if addr == "" {
				addr = c.config.Server.Addr
			}

			st, err := c.openStore(ctx)
			if err != nil {
				return err
			}
			defer st.Close()

			var sess *session.Session
			sess, _, err = c.openSession(ctx, st, name)
			if errors.Is(err, store.ErrNotFound) && create {
				sess, err = c.newSession(), nil
			}
			if err != nil {
				return err
			}

			srv := server.New(sess,
				server.WithStore(st, name),
				server.WithStrict(c.config.Editor.Strict),
				server.WithLogger(c.Logger),
			)

			printInfo("Serving %s on %s", StyleHighlight.Render(name), StyleValue.Render("http://"+addr))
			printDetail("Press Ctrl+C to stop")
			if err := srv.Run(ctx, addr); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			printSuccess("Server stopped")
			return nil
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config, 127.0.0.1:8080)")
	cmd.Flags().BoolVar(&create, "create", false, "start an empty graph if NAME does not exist")
	return cmd
}
