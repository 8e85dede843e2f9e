package cli

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/flowboardhq/flowboard/pkg/topology"
)

// newInspectCmd creates the "inspect" command, an interactive browser
// over a diagram file's nodes and task stacks.
func newInspectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <diagram.json>",
		Short: "Browse a diagram's nodes and task stacks in the terminal",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInspect(args[0])
		},
	}
}

func runInspect(path string) error {
	doc, err := loadDiagram(path)
	if err != nil {
		return err
	}

	store := topology.NewMemStore()
	if err := store.Load(doc); err != nil {
		return err
	}

	title := doc.Name
	if title == "" {
		title = path
	}

	p := tea.NewProgram(NewNodeListModel(title, buildNodeRows(store)))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("inspect: %w", err)
	}
	return nil
}
