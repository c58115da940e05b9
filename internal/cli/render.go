package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/graphbuilder/pkg/cache"
	gbio "github.com/matzehuels/graphbuilder/pkg/io"
	"github.com/matzehuels/graphbuilder/pkg/observability"
	"github.com/matzehuels/graphbuilder/pkg/render"
	"github.com/matzehuels/graphbuilder/pkg/render/nodelink"
)

// artifactTTL is how long rendered images stay in the cache.
const artifactTTL = 7 * 24 * time.Hour

// renderOpts holds the command-line flags for the render command.
type renderOpts struct {
	output    string  // output file path; NAME plus the format extension when empty
	format    string  // svg, png or dot; inferred from output when empty
	scale     float64 // raster scale for png
	labels    bool    // draw node ids next to the nodes
	highlight string  // node to draw in the accent color
	noCache   bool    // bypass the artifact cache
}

// renderCommand creates the render command.
func (c *CLI) renderCommand() *cobra.Command {
	var opts renderOpts

	cmd := &cobra.Command{
		Use:   "render NAME",
		Short: "Render a graph to SVG, PNG or DOT",
		Long: `Render draws the named graph with Graphviz, pinning every node to its stored
position. The format comes from --format, then the extension of --output,
then the render.format config setting.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := c.config.Render
			flags := cmd.Flags()
			if !flags.Changed("scale") {
				opts.scale = cfg.Scale
			}
			if !flags.Changed("labels") {
				opts.labels = cfg.Labels
			}
			if opts.format == "" {
				if f, ok := render.FormatFromPath(opts.output); ok {
					opts.format = string(f)
				} else {
					opts.format = cfg.Format
				}
			}
			return c.runRender(cmd.Context(), args[0], &opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (default NAME.<format>)")
	cmd.Flags().StringVarP(&opts.format, "format", "f", "", "output format: svg, png or dot")
	cmd.Flags().Float64Var(&opts.scale, "scale", 1, "scale factor for png output")
	cmd.Flags().BoolVar(&opts.labels, "labels", true, "label nodes with their ids")
	cmd.Flags().StringVar(&opts.highlight, "highlight", "", "node id to highlight")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable the render cache")

	return cmd
}

func (c *CLI) runRender(ctx context.Context, name string, opts *renderOpts) error {
	format, err := render.ParseFormat(opts.format)
	if err != nil {
		return err
	}
	if opts.output == "" {
		opts.output = name + format.Ext()
	}

	st, err := c.openStore(ctx)
	if err != nil {
		return err
	}
	defer st.Close()

	doc, err := st.Get(ctx, name)
	if err != nil {
		return err
	}
	g, err := gbio.DecodeWithOptions(doc, c.decodeOptions(false))
	if err != nil {
		return fmt.Errorf("load %s: %w", name, err)
	}

	dot := nodelink.ToDOT(g, nodelink.Options{Labels: opts.labels, Highlight: opts.highlight, Scale: opts.scale})
	if format == render.FormatDOT {
		if err := os.WriteFile(opts.output, []byte(dot), 0o644); err != nil {
			return fmt.Errorf("write %s: %w", opts.output, err)
		}
		printSuccess("Wrote DOT source")
		printFile(opts.output)
		printStats(g.Len(), g.EdgeCount(), nil)
		return nil
	}

	ch, err := c.newCache(opts.noCache)
	if err != nil {
		return err
	}
	defer ch.Close()

	key := cache.ArtifactKey(cache.Hash([]byte(dot)), cache.ArtifactKeyOpts{
		Format: string(format),
		Scale:  opts.scale,
		Labels: opts.labels,
	})
	hooks := observability.Cache()

	data, cached, err := ch.Get(ctx, key)
	if err != nil {
		c.Logger.Warn("cache read failed", "err", err)
		cached = false
	}
	if cached {
		hooks.OnCacheHit(ctx, "artifact")
	} else {
		hooks.OnCacheMiss(ctx, "artifact")

		spinner := newSpinner(ctx, os.Stderr, fmt.Sprintf("Rendering %s...", name))
		spinner.Start()
		prog := newProgress(c.Logger)
		data, err = renderArtifact(ctx, format, dot, g.Len())
		if err != nil {
			if spinner.Cancelled() {
				spinner.Stop()
				return ctx.Err()
			}
			spinner.StopWithError("Render failed")
			return err
		}
		spinner.Stop()
		prog.done(fmt.Sprintf("Rendered %d nodes as %s", g.Len(), format))

		if err := ch.Set(ctx, key, data, artifactTTL); err != nil {
			c.Logger.Warn("cache write failed", "err", err)
		} else {
			hooks.OnCacheSet(ctx, "artifact", len(data))
		}
	}

	if err := os.WriteFile(opts.output, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", opts.output, err)
	}
	printSuccess("Rendered %s", StyleHighlight.Render(name))
	printFile(opts.output)
	printStats(g.Len(), g.EdgeCount(), &cached)
	return nil
}

// renderArtifact runs Graphviz and reports the run to the render hooks.
func renderArtifact(ctx context.Context, format render.Format, dot string, nodeCount int) ([]byte, error) {
	hooks := observability.Render()
	hooks.OnRenderStart(ctx, string(format), nodeCount)
	start := time.Now()

	var (
		data []byte
		err  error
	)
	switch format {
	case render.FormatPNG:
		data, err = nodelink.RenderPNG(ctx, dot)
	default:
		data, err = nodelink.RenderSVG(ctx, dot)
	}

	hooks.OnRenderComplete(ctx, string(format), time.Since(start), err)
	return data, err
}
