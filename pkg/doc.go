// Package pkg provides the core libraries of the flowboard layout engine.
//
// # Overview
//
// Flowboard positions interactive flow diagrams: nodes connected by
// flowlines, each node carrying a vertical stack of anchored task cards.
// The pkg directory is organized around that data flow:
//
//  1. [topology] - The diagram model (nodes, tasks, flowlines) and its
//     stores (in-memory, file, MongoDB)
//  2. [layout] - Pure layout math (slot allocation, stack positions,
//     matrix placement, snapshots)
//  3. [flowline] - Flowline path routing between node edges
//  4. [engine] - The stateful session tying stores, layout, and routing
//     together, with animation drivers
//  5. [render] - Frozen scenes and their SVG, PNG, and DOT sinks
//  6. [cache] - Artifact caching backends (memory, file, Redis)
//
// # Architecture
//
// The typical data flow through flowboard:
//
//	Diagram document (JSON / MongoDB)
//	         |
//	    [topology] store (live editing state)
//	         |
//	    [engine] session (slot allocation, stacking, routing, matrix)
//	         |
//	    [render] scene
//	         |
//	    SVG / PNG / DOT output
//
// # Quick Start
//
// Replay a stored diagram through a session and render it:
//
//	store := topology.NewMemStore()
//	_ = store.Load(doc)
//
//	eng := engine.New(config.Default(), store)
//	_ = eng.Reflow(ctx)
//
//	scene := render.BuildScene(eng, store, config.Default())
//	svg := render.RenderSVG(scene, render.WithSatellites())
//
// Supporting packages: [config] for TOML-loadable layout constants,
// [geometry] for points, rects, and path strings, [errors] for coded
// errors shared across layers, [observability] for hook registration,
// [fonts] for the embedded raster typeface, [io] for document import
// and export, and [buildinfo] for version stamping.
//
// [topology]: https://pkg.go.dev/github.com/flowboardhq/flowboard/pkg/topology
// [layout]: https://pkg.go.dev/github.com/flowboardhq/flowboard/pkg/layout
// [flowline]: https://pkg.go.dev/github.com/flowboardhq/flowboard/pkg/flowline
// [engine]: https://pkg.go.dev/github.com/flowboardhq/flowboard/pkg/engine
// [render]: https://pkg.go.dev/github.com/flowboardhq/flowboard/pkg/render
// [cache]: https://pkg.go.dev/github.com/flowboardhq/flowboard/pkg/cache
// [config]: https://pkg.go.dev/github.com/flowboardhq/flowboard/pkg/config
// [geometry]: https://pkg.go.dev/github.com/flowboardhq/flowboard/pkg/geometry
// [errors]: https://pkg.go.dev/github.com/flowboardhq/flowboard/pkg/errors
// [observability]: https://pkg.go.dev/github.com/flowboardhq/flowboard/pkg/observability
// [fonts]: https://pkg.go.dev/github.com/flowboardhq/flowboard/pkg/fonts
// [io]: https://pkg.go.dev/github.com/flowboardhq/flowboard/pkg/io
// [buildinfo]: https://pkg.go.dev/github.com/flowboardhq/flowboard/pkg/buildinfo
package pkg
