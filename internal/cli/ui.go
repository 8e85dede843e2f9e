package cli

import (
	"github.com/charmbracelet/lipgloss"
)

// =============================================================================
// Color Palette
// =============================================================================

var (
	colorCyan   = lipgloss.Color("36")  // Teal - primary actions
	colorGreen  = lipgloss.Color("35")  // Green - completed work
	colorYellow = lipgloss.Color("220") // Amber - urgent items
	colorWhite  = lipgloss.Color("255") // Bright white - values
	colorGray   = lipgloss.Color("245") // Gray - secondary text
	colorDim    = lipgloss.Color("240") // Dim gray - muted text
)

// =============================================================================
// Styles
// =============================================================================

var (
	// styleTitle for main headings.
	styleTitle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)

	// styleDim for secondary/muted text.
	styleDim = lipgloss.NewStyle().Foreground(colorDim)

	// styleValue for data values.
	styleValue = lipgloss.NewStyle().Foreground(colorWhite)

	// styleDone for completed tasks.
	styleDone = lipgloss.NewStyle().Foreground(colorGreen)

	// styleUrgent for urgency-tagged tasks.
	styleUrgent = lipgloss.NewStyle().Foreground(colorYellow)

	// styleHeader for table headers.
	styleHeader = lipgloss.NewStyle().Foreground(colorGray).Bold(true)
)
