package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	apperr "github.com/matzehuels/graphbuilder/pkg/errors"
	"github.com/matzehuels/graphbuilder/pkg/graph"
	gbio "github.com/matzehuels/graphbuilder/pkg/io"
	"github.com/matzehuels/graphbuilder/pkg/store"
)

// newCommand creates the "new" command.
func (c *CLI) newCommand() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "new NAME",
		Short: "Create an empty graph",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			name := args[0]

			st, err := c.openStore(ctx)
			if err != nil {
				return err
			}
			defer st.Close()

			if err := ensureAbsent(cmd, st, name, force); err != nil {
				return err
			}
			doc, err := gbio.Encode(graph.New())
			if err != nil {
				return err
			}
			if err := st.Put(ctx, name, doc); err != nil {
				return err
			}

			printSuccess("Created graph %s", StyleHighlight.Render(name))
			printNextStep("Start drawing", "graphbuilder edit "+name)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "overwrite an existing graph")
	return cmd
}

// importCommand creates the "import" command.
func (c *CLI) importCommand() *cobra.Command {
	var (
		force  bool
		strict bool
	)

	cmd := &cobra.Command{
		Use:   "import NAME FILE",
		Short: "Import a JSON document into the store",
		Long: `Import reads a JSON document (or stdin when FILE is "-") and stores it
under NAME. The document is normalized on the way in: invalid elements,
duplicate ids and dangling references are dropped unless --strict is set.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			name, path := args[0], args[1]

			data, err := readInput(cmd, path)
			if err != nil {
				return err
			}
			g, report, err := gbio.DecodeDetailed(data, c.decodeOptions(strict))
			if err != nil {
				return fmt.Errorf("import %s: %w", path, err)
			}

			st, err := c.openStore(ctx)
			if err != nil {
				return err
			}
			defer st.Close()

			if err := ensureAbsent(cmd, st, name, force); err != nil {
				return err
			}
			doc, err := gbio.Encode(g)
			if err != nil {
				return err
			}
			if err := st.Put(ctx, name, doc); err != nil {
				return err
			}

			printReport(report)
			printSuccess("Imported %s", StyleHighlight.Render(name))
			printStats(g.Len(), g.EdgeCount(), nil)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "overwrite an existing graph")
	cmd.Flags().BoolVar(&strict, "strict", false, "reject documents with invalid elements")
	return cmd
}

// exportCommand creates the "export" command.
func (c *CLI) exportCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "export NAME [FILE]",
		Short: "Write a stored graph as a JSON document",
		Long:  `Export writes the named graph to FILE, or to stdout when FILE is omitted or "-".`,
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			name := args[0]

			st, err := c.openStore(ctx)
			if err != nil {
				return err
			}
			defer st.Close()

			data, err := st.Get(ctx, name)
			if err != nil {
				return err
			}
			g, err := gbio.DecodeWithOptions(data, c.decodeOptions(false))
			if err != nil {
				return fmt.Errorf("load %s: %w", name, err)
			}

			if len(args) < 2 || args[1] == "-" {
				return gbio.WriteJSON(g, cmd.OutOrStdout())
			}
			if err := gbio.WriteFile(g, args[1]); err != nil {
				return err
			}
			printSuccess("Exported %s", StyleHighlight.Render(name))
			printFile(args[1])
			return nil
		},
	}
}

// listCommand creates the "list" command.
func (c *CLI) listCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List stored graphs",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			st, err := c.openStore(ctx)
			if err != nil {
				return err
			}
			defer st.Close()

			infos, err := st.List(ctx)
			if err != nil {
				return err
			}
			if len(infos) == 0 {
				printInfo("No graphs yet")
				printNextStep("Create one", "graphbuilder new NAME")
				return nil
			}

			rows := make([][]string, 0, len(infos))
			for _, info := range infos {
				nodes, edges := "?", "?"
				if data, err := st.Get(ctx, info.Name); err == nil {
					if g, err := gbio.Decode(data); err == nil {
						nodes, edges = strconv.Itoa(g.Len()), strconv.Itoa(g.EdgeCount())
					}
				}
				rows = append(rows, []string{info.Name, nodes, edges, formatRelativeTime(info.UpdatedAt)})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Graph", "Nodes", "Edges", "Updated"}, rows))
			return nil
		},
	}
}

// rmCommand creates the "rm" command.
func (c *CLI) rmCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "rm NAME...",
		Short: "Remove graphs from the store",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			st, err := c.openStore(ctx)
			if err != nil {
				return err
			}
			defer st.Close()

			for _, name := range args {
				if err := st.Delete(ctx, name); err != nil {
					return err
				}
				printSuccess("Removed %s", StyleHighlight.Render(name))
			}
			return nil
		},
	}
}

// showCommand creates the "show" command.
func (c *CLI) showCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show NAME",
		Short: "Print the nodes of a graph",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			name := args[0]

			st, err := c.openStore(ctx)
			if err != nil {
				return err
			}
			defer st.Close()

			sess, _, err := c.openSession(ctx, st, name)
			if err != nil {
				return err
			}
			g := sess.Graph()

			fmt.Println(StyleTitle.Render(name))
			printStats(g.Len(), g.EdgeCount(), nil)
			if g.Len() == 0 {
				return nil
			}
			lo, hi := g.Bounds()
			printKeyValue("Bounds", fmt.Sprintf("(%s, %s) - (%s, %s)",
				formatCoord(lo.X), formatCoord(lo.Y), formatCoord(hi.X), formatCoord(hi.Y)))

			fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"ID", "X", "Y", "Neighbors"}, nodeRows(g)))
			return nil
		},
	}
}

// validateCommand creates the "validate" command.
func (c *CLI) validateCommand() *cobra.Command {
	var strict bool

	cmd := &cobra.Command{
		Use:   "validate FILE",
		Short: "Check a JSON document without storing it",
		Long: `Validate decodes FILE (or stdin when FILE is "-") and reports what lenient
decoding would discard. With --strict any discarded element is an error.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := readInput(cmd, args[0])
			if err != nil {
				return err
			}
			g, report, err := gbio.DecodeDetailed(data, c.decodeOptions(strict))
			if err != nil {
				printError("Invalid document")
				return err
			}
			if err := g.Validate(); err != nil {
				return err
			}

			if report.Clean() {
				printSuccess("Document is valid")
			} else {
				printReport(report)
				printWarning("Document was repaired; import it to store the normalized form")
			}
			printStats(g.Len(), g.EdgeCount(), nil)
			return nil
		},
	}

	cmd.Flags().BoolVar(&strict, "strict", false, "fail on any invalid element")
	return cmd
}

// =============================================================================
// Helpers
// =============================================================================

// ensureAbsent fails when name already exists and force is not set.
func ensureAbsent(cmd *cobra.Command, st store.Store, name string, force bool) error {
	if force {
		return nil
	}
	_, err := st.Get(cmd.Context(), name)
	switch {
	case err == nil:
		return apperr.New(apperr.ErrCodeInvalidInput, "graph %q already exists (use --force to overwrite)", name)
	case errors.Is(err, store.ErrNotFound):
		return nil
	default:
		return err
	}
}

// readInput reads path, or the command's stdin for "-".
func readInput(cmd *cobra.Command, path string) ([]byte, error) {
	if path == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return nil, fmt.Errorf("read stdin: %w", err)
		}
		return data, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return data, nil
}

// printReport prints what lenient decoding discarded.
func printReport(r *gbio.Report) {
	for _, s := range r.Skipped {
		printWarning("Skipped element %d: %s", s.Index, s.Reason)
	}
	if len(r.Duplicates) > 0 {
		printWarning("Duplicate ids (last definition kept): %s", strings.Join(r.Duplicates, ", "))
	}
	if r.DroppedRefs > 0 {
		printWarning("Dropped %d invalid references", r.DroppedRefs)
	}
}

// nodeRows returns one table row per node, ordered by ID.
func nodeRows(g *graph.Graph) [][]string {
	rows := make([][]string, 0, g.Len())
	for _, n := range g.Nodes() {
		neighbors := strings.Join(n.Related(), ", ")
		if neighbors == "" {
			neighbors = "-"
		}
		rows = append(rows, []string{n.ID, formatCoord(n.X), formatCoord(n.Y), neighbors})
	}
	return rows
}

func formatCoord(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
