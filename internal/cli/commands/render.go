package commands

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/charmbracelet/lipgloss"

	"devmanager/internal/monitor"
	"devmanager/internal/types"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true)
	dimStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))

	overallStyles = map[types.OverallStatus]lipgloss.Style{
		types.OverallHealthy:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("42")),
		types.OverallDegraded: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("214")),
		types.OverallFailed:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196")),
		types.OverallUnknown:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("245")),
	}
)

// renderSnapshot prints one line per service followed by the overall verdict
func renderSnapshot(w io.Writer, title string, snap monitor.Snapshot) {
	fmt.Fprintf(w, "\n%s\n\n", titleStyle.Render(title))

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, item := range snap.Items {
		fmt.Fprintln(tw, statusLine(item))
	}
	tw.Flush()

	fmt.Fprintf(w, "\n  Overall: %s\n", overallStyles[snap.Overall].Render(snap.Overall.Label()))
	if !snap.LastUpdate.IsZero() {
		fmt.Fprintf(w, "  %s\n", dimStyle.Render("Last update: "+snap.LastUpdate.Format(time.TimeOnly)))
	}
	fmt.Fprintln(w)
}

// statusLine renders "  <icon> <name>\t- <description>\t<details>"
func statusLine(item monitor.Item) string {
	icon := types.IconUnknown.Emoji()
	desc := "Not checked"
	details := ""
	if item.Status != nil {
		icon = item.Status.Icon.Emoji()
		desc = item.Status.Description
		details = item.Status.Details()
	}

	name := item.Service.Label()
	if item.Service.Critical {
		name += " *"
	}
	return fmt.Sprintf("  %s %s\t- %s\t%s", icon, name, desc, details)
}

// statusJSON is the --json form of a snapshot
type statusJSON struct {
	Overall    types.OverallStatus `json:"overall"`
	LastUpdate *time.Time          `json:"last_update,omitempty"`
	Services   []serviceJSON       `json:"services"`
}

type serviceJSON struct {
	ID          string               `json:"id"`
	Name        string               `json:"name"`
	DisplayName string               `json:"display_name"`
	Critical    bool                 `json:"critical"`
	Status      *types.ServiceStatus `json:"status,omitempty"`
}

func newStatusJSON(snap monitor.Snapshot) statusJSON {
	out := statusJSON{Overall: snap.Overall, Services: make([]serviceJSON, 0, len(snap.Items))}
	if !snap.LastUpdate.IsZero() {
		t := snap.LastUpdate
		out.LastUpdate = &t
	}
	for _, item := range snap.Items {
		out.Services = append(out.Services, serviceJSON{
			ID:          item.Service.ID,
			Name:        item.Service.Name,
			DisplayName: item.Service.Label(),
			Critical:    item.Service.Critical,
			Status:      item.Status,
		})
	}
	return out
}
