package commands

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"

	"github.com/soundsieve/soundsieve/pkg/feature"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#00ff9f"))
	nameStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#00ff9f"))
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#6e7681"))
)

// printFeatureTable renders the feature catalog as a two-column
// listing: feature name, then modification time and path dimmed.
func printFeatureTable(w io.Writer, entries []feature.Entry) {
	width := len("NAME")
	for _, e := range entries {
		if len(e.Name) > width {
			width = len(e.Name)
		}
	}

	fmt.Fprintf(w, "%s  %s\n",
		headerStyle.Width(width).Render("NAME"),
		headerStyle.Render("MODIFIED"))
	for _, e := range entries {
		fmt.Fprintf(w, "%s  %s  %s\n",
			nameStyle.Width(width).Render(e.Name),
			e.ModTime.Format("2006-01-02 15:04:05"),
			dimStyle.Render(e.Path))
	}
}
