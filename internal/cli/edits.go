package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/graphbuilder/pkg/session"
)

// addCommand creates the "add" command.
func (c *CLI) addCommand() *cobra.Command {
	var (
		id    string
		after string
	)

	cmd := &cobra.Command{
		Use:   "add NAME X Y",
		Short: "Add a node to a graph",
		Long: `Add creates a node at (X, Y). With --after the new node is connected to an
existing node, the way a tap in the editor extends the selected node.

Negative coordinates must follow "--", for example:
  graphbuilder add demo -- -10 20`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := parsePoint(args[1], args[2])
			if err != nil {
				return err
			}

			var added string
			g, err := c.editGraph(cmd.Context(), args[0], func(s *session.Session) error {
				if after != "" {
					if err := s.Select(after); err != nil {
						return err
					}
				}
				var addErr error
				added, addErr = s.AddNode(p, id)
				return addErr
			})
			if err != nil {
				return err
			}

			printSuccess("Added node %s", StyleHighlight.Render(added))
			if after != "" {
				printDetail("connected to %s", after)
			}
			printStats(g.Len(), g.EdgeCount(), nil)
			return nil
		},
	}

	cmd.Flags().StringVar(&id, "id", "", "node id (generated when empty)")
	cmd.Flags().StringVar(&after, "after", "", "connect the new node to this node")
	return cmd
}

// moveCommand creates the "move" command.
func (c *CLI) moveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "move NAME ID X Y",
		Short: "Move a node, keeping its edges",
		Args:  cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := parsePoint(args[2], args[3])
			if err != nil {
				return err
			}
			if _, err := c.editGraph(cmd.Context(), args[0], func(s *session.Session) error {
				return s.MovePoint(args[1], p)
			}); err != nil {
				return err
			}
			printSuccess("Moved %s to (%s, %s)", StyleHighlight.Render(args[1]), formatCoord(p.X), formatCoord(p.Y))
			return nil
		},
	}
}

// connectCommand creates the "connect" command.
func (c *CLI) connectCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "connect NAME A B",
		Short: "Connect two nodes",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, b := args[1], args[2]
			g, err := c.editGraph(cmd.Context(), args[0], func(s *session.Session) error {
				return s.Connect(a, b)
			})
			if err != nil {
				return err
			}
			printSuccess("Connected %s and %s", StyleHighlight.Render(a), StyleHighlight.Render(b))
			printStats(g.Len(), g.EdgeCount(), nil)
			return nil
		},
	}
}

// disconnectCommand creates the "disconnect" command.
func (c *CLI) disconnectCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "disconnect NAME A B",
		Short: "Remove the edge between two nodes",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, b := args[1], args[2]
			g, err := c.editGraph(cmd.Context(), args[0], func(s *session.Session) error {
				return s.Disconnect(a, b)
			})
			if err != nil {
				return err
			}
			printSuccess("Disconnected %s and %s", StyleHighlight.Render(a), StyleHighlight.Render(b))
			printStats(g.Len(), g.EdgeCount(), nil)
			return nil
		},
	}
}

// deleteCommand creates the "delete" command.
func (c *CLI) deleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete NAME ID",
		Short: "Delete a node and its edges",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			g, err := c.editGraph(cmd.Context(), args[0], func(s *session.Session) error {
				return s.DeleteNode(args[1])
			})
			if err != nil {
				return err
			}
			printSuccess("Deleted %s", StyleHighlight.Render(args[1]))
			printStats(g.Len(), g.EdgeCount(), nil)
			return nil
		},
	}
}
