package io

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/flowboardhq/flowboard/pkg/topology"
)

func testDiagram() topology.Diagram {
	return topology.Diagram{
		Name: "release",
		Nodes: []topology.Node{
			{ID: "start", Kind: topology.KindTerminal, Start: true},
			{ID: "ship", Kind: topology.KindProcess, Label: "Ship"},
		},
		Tasks: []topology.Task{
			{ID: "t1", Anchor: "ship", Slot: 0},
		},
		Flowlines: []topology.Flowline{
			{Source: "start", Target: "ship", PathType: topology.PathStraight},
		},
	}
}

func TestRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteDiagram(testDiagram(), &buf); err != nil {
		t.Fatalf("WriteDiagram() error = %v", err)
	}

	got, err := ReadDiagram(&buf)
	if err != nil {
		t.Fatalf("ReadDiagram() error = %v", err)
	}
	if got.Name != "release" {
		t.Errorf("Name = %q, want %q", got.Name, "release")
	}
	if len(got.Nodes) != 2 || len(got.Tasks) != 1 || len(got.Flowlines) != 1 {
		t.Errorf("got %d nodes, %d tasks, %d flowlines, want 2, 1, 1",
			len(got.Nodes), len(got.Tasks), len(got.Flowlines))
	}
}

func TestReadDiagramRejectsDanglingReferences(t *testing.T) {
	tests := []struct {
		name string
		json string
	}{
		{
			name: "task without anchor node",
			json: `{"nodes": [], "tasks": [{"id": "t1", "anchor": "ghost"}], "flowlines": []}`,
		},
		{
			name: "flowline with missing target",
			json: `{"nodes": [{"id": "a", "kind": "process"}], "tasks": [], "flowlines": [{"source": "a", "target": "ghost"}]}`,
		},
		{
			name: "unknown node kind",
			json: `{"nodes": [{"id": "a", "kind": "cloud"}], "tasks": [], "flowlines": []}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ReadDiagram(strings.NewReader(tt.json)); err == nil {
				t.Error("ReadDiagram() should reject the document")
			}
		})
	}
}

func TestReadDiagramMalformed(t *testing.T) {
	if _, err := ReadDiagram(strings.NewReader("{not json")); err == nil {
		t.Error("ReadDiagram() should fail on malformed JSON")
	}
}

func TestFileRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "release.json")

	if err := ExportDiagram(testDiagram(), path); err != nil {
		t.Fatalf("ExportDiagram() error = %v", err)
	}

	got, err := ImportDiagram(path)
	if err != nil {
		t.Fatalf("ImportDiagram() error = %v", err)
	}
	if len(got.Nodes) != 2 {
		t.Errorf("got %d nodes, want 2", len(got.Nodes))
	}
}

func TestImportDiagramMissingFile(t *testing.T) {
	if _, err := ImportDiagram(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Error("ImportDiagram() should fail for a missing file")
	}
}
