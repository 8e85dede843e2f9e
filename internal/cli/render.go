package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/spf13/cobra"

	"github.com/flowboardhq/flowboard/pkg/config"
	"github.com/flowboardhq/flowboard/pkg/engine"
	flowio "github.com/flowboardhq/flowboard/pkg/io"
	"github.com/flowboardhq/flowboard/pkg/render"
	"github.com/flowboardhq/flowboard/pkg/topology"
)

// renderOpts holds the command-line flags for the render command.
type renderOpts struct {
	output     string  // output file path
	format     string  // output format: "svg", "png", "dot"
	matrix     bool    // render the priority matrix layout instead of the canvas
	satellites bool    // draw next-action slot markers
	scale      float64 // PNG raster scale
	configPath string  // optional TOML config file
	copyOut    bool    // copy SVG output to the clipboard instead of logging the path
}

// validFormats is the set of supported output formats.
var validFormats = map[string]bool{"svg": true, "png": true, "dot": true}

// newRenderCmd creates the render command for turning a diagram file into
// an image. The input is a diagram document as produced by the export API.
func newRenderCmd() *cobra.Command {
	opts := renderOpts{format: "svg", scale: 2.0, satellites: true}

	cmd := &cobra.Command{
		Use:   "render [file]",
		Short: "Render a diagram file to SVG, PNG, or DOT",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !validFormats[opts.format] {
				return fmt.Errorf("invalid format: %s (must be 'svg', 'png', or 'dot')", opts.format)
			}
			if opts.copyOut && opts.format != "svg" {
				return fmt.Errorf("--copy only supports svg output")
			}
			return runRender(cmd.Context(), args[0], &opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (default: input with format extension)")
	cmd.Flags().StringVarP(&opts.format, "format", "f", opts.format, "output format: svg (default), png, dot")
	cmd.Flags().BoolVar(&opts.matrix, "matrix", false, "render the priority matrix layout")
	cmd.Flags().BoolVar(&opts.satellites, "satellites", opts.satellites, "draw next-action slot markers")
	cmd.Flags().Float64Var(&opts.scale, "scale", opts.scale, "PNG raster scale factor")
	cmd.Flags().StringVar(&opts.configPath, "config", "", "layout config file (TOML)")
	cmd.Flags().BoolVar(&opts.copyOut, "copy", false, "copy SVG output to the clipboard")

	return cmd
}

// runRender loads the diagram, replays the layout, and writes the
// requested artifact.
func runRender(ctx context.Context, input string, opts *renderOpts) error {
	logger := loggerFromContext(ctx)
	p := newProgress(logger)

	cfg, err := loadConfig(opts.configPath)
	if err != nil {
		return err
	}

	doc, err := loadDiagram(input)
	if err != nil {
		return err
	}
	logger.Debugf("Loaded diagram: %d nodes, %d tasks, %d flowlines",
		len(doc.Nodes), len(doc.Tasks), len(doc.Flowlines))

	scene, err := buildScene(ctx, cfg, doc, opts.matrix)
	if err != nil {
		return err
	}

	var data []byte
	switch opts.format {
	case "svg":
		svgOpts := []render.SVGOption{render.WithGrid()}
		if opts.satellites {
			svgOpts = append(svgOpts, render.WithSatellites())
		}
		data = render.RenderSVG(scene, svgOpts...)
	case "png":
		data, err = render.RenderPNG(scene, render.WithScale(opts.scale))
	case "dot":
		data = []byte(render.ToDOT(scene, render.DOTOptions{Detailed: true}))
	}
	if err != nil {
		return fmt.Errorf("render %s: %w", opts.format, err)
	}

	if opts.copyOut {
		if err := clipboard.WriteAll(string(data)); err != nil {
			return fmt.Errorf("copy to clipboard: %w", err)
		}
		p.done("Copied SVG to clipboard")
		return nil
	}

	outputPath := opts.output
	if outputPath == "" {
		outputPath = strings.TrimSuffix(input, filepath.Ext(input)) + "." + opts.format
	}
	if err := os.WriteFile(outputPath, data, 0o644); err != nil {
		return err
	}
	p.done(fmt.Sprintf("Generated %s", outputPath))
	return nil
}

// loadConfig reads the TOML config file, or the defaults when none given.
func loadConfig(path string) (config.Config, error) {
	if path == "" {
		return config.Default(), nil
	}
	return config.Load(path)
}

// loadDiagram reads and validates a diagram document from a JSON file.
func loadDiagram(path string) (topology.Diagram, error) {
	return flowio.ImportDiagram(path)
}

// buildScene replays the diagram through a layout session and freezes it.
func buildScene(ctx context.Context, cfg config.Config, doc topology.Diagram, matrix bool) (render.Scene, error) {
	store := topology.NewMemStore()
	if err := store.Load(doc); err != nil {
		return render.Scene{}, err
	}

	eng := engine.New(cfg, store, engine.WithLogger(loggerFromContext(ctx)))
	if err := eng.Reflow(ctx); err != nil {
		return render.Scene{}, err
	}
	if matrix {
		if err := eng.EnterMatrix(ctx); err != nil {
			return render.Scene{}, err
		}
	}
	return render.BuildScene(eng, store, cfg), nil
}
