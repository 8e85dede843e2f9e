package render

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"
)

// DOTOptions configures structural DOT export.
type DOTOptions struct {
	// Detailed includes task counts in node labels.
	Detailed bool
}

// ToDOT converts the scene's node and flowline structure to Graphviz DOT
// for a structural view. Task stacks collapse into per-node counts; the
// DOT string can be rendered with [RenderDOTSVG].
func ToDOT(s Scene, opts DOTOptions) string {
	taskCount := make(map[string]int)
	for _, t := range s.Tasks {
		taskCount[t.Anchor]++
	}

	var buf bytes.Buffer
	buf.WriteString("digraph flowboard {\n")
	buf.WriteString("  rankdir=LR;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=14, margin=\"0.2,0.1\"];\n")
	buf.WriteString("\n")

	for _, n := range s.Nodes {
		label := n.Label
		if opts.Detailed && taskCount[n.ID] > 0 {
			label = fmt.Sprintf("%s\n%d tasks", n.Label, taskCount[n.ID])
		}
		attrs := []string{fmt.Sprintf("label=%q", label)}
		switch n.Kind {
		case "decision":
			attrs = append(attrs, "shape=diamond")
		case "terminal":
			attrs = append(attrs, "style=\"rounded,filled,bold\"")
		}
		fmt.Fprintf(&buf, "  %q [%s];\n", n.ID, strings.Join(attrs, ", "))
	}

	buf.WriteString("\n")
	for _, f := range s.Flowlines {
		fmt.Fprintf(&buf, "  %q -> %q;\n", f.Source, f.Target)
	}

	buf.WriteString("}\n")
	return buf.String()
}

// RenderDOTSVG renders a DOT graph to SVG using Graphviz.
func RenderDOTSVG(ctx context.Context, dot string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox rewrites Graphviz's svg tag so the viewBox starts at
// the origin and the explicit size matches it.
func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	newSvg := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)

	return svgTagRe.ReplaceAll(svg, []byte(newSvg))
}
