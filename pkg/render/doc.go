// Package render turns a layout session into image output.
//
// # Overview
//
// Rendering is split into two steps. [BuildScene] freezes an engine
// session into a [Scene]: a plain value holding every node, task card,
// and flowline with its committed geometry, sorted for deterministic
// output. The sinks then turn a scene into bytes:
//
//   - [RenderSVG]: vector output with the canvas or matrix layout
//   - [RenderPNG]: rasterized output via fogleman/gg
//   - [ToDOT] and [RenderDOTSVG]: structural Graphviz views
//
// # SVG
//
// The SVG sink draws exactly what the engine committed, so a scene built
// from the same document always produces byte-identical output:
//
//	scene := render.BuildScene(eng, store, cfg)
//	svg := render.RenderSVG(scene, render.WithSatellites(), render.WithGrid())
//
// # Structural views
//
// The DOT export collapses task stacks into per-node counts and lets
// Graphviz choose positions. It answers "how is this diagram wired"
// rather than "where is everything on the canvas":
//
//	dot := render.ToDOT(scene, render.DOTOptions{Detailed: true})
//	svg, err := render.RenderDOTSVG(ctx, dot)
package render
