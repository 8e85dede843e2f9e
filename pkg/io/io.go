// Package io provides JSON import and export for diagram documents.
//
// The format is a single JSON object with "nodes", "tasks", and
// "flowlines" arrays, matching what the HTTP API serves. Imported
// documents are validated the same way a store load validates them, so a
// file that imports cleanly can always be replayed through the engine.
package io

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/flowboardhq/flowboard/pkg/topology"
)

// ReadDiagram decodes a diagram document from r and validates its
// references. The reader is not closed.
func ReadDiagram(r io.Reader) (topology.Diagram, error) {
	var d topology.Diagram
	if err := json.NewDecoder(r).Decode(&d); err != nil {
		return topology.Diagram{}, fmt.Errorf("decode: %w", err)
	}
	if err := topology.NewMemStore().Load(d); err != nil {
		return topology.Diagram{}, err
	}
	return d, nil
}

// ImportDiagram reads and validates the diagram file at path.
func ImportDiagram(path string) (topology.Diagram, error) {
	f, err := os.Open(path)
	if err != nil {
		return topology.Diagram{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	d, err := ReadDiagram(f)
	if err != nil {
		return topology.Diagram{}, fmt.Errorf("import %s: %w", path, err)
	}
	return d, nil
}

// WriteDiagram encodes d as indented JSON and writes it to w.
// The output can be re-imported with [ReadDiagram].
func WriteDiagram(d topology.Diagram, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(d); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// ExportDiagram writes d to a JSON file at path.
func ExportDiagram(d topology.Diagram, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	return WriteDiagram(d, f)
}
