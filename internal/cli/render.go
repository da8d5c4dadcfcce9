package cli

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"plant-backend/internal/client"
	"plant-backend/internal/models"

	"github.com/charmbracelet/lipgloss"
)

var (
	headerStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	errorStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9"))
	dimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	countStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("14"))
)

const dateLayout = "2006-01-02 15:04"

// render prints the messages of s followed by its plant table.
func render(opts *options, s client.State) error {
	if opts.jsonOut {
		enc := json.NewEncoder(opts.out)
		enc.SetIndent("", "  ")
		return enc.Encode(struct {
			Plants         []models.Plant `json:"plants"`
			Error          string         `json:"error,omitempty"`
			SuccessMessage string         `json:"successMessage,omitempty"`
		}{s.Plants, s.Error, s.SuccessMessage})
	}

	if s.Error != "" {
		_, _ = fmt.Fprintln(opts.out, errorStyle.Render(s.Error))
	}
	if s.SuccessMessage != "" {
		_, _ = fmt.Fprintln(opts.out, successStyle.Render(s.SuccessMessage))
	}
	printPlantsTable(opts, s.Plants)
	return nil
}

func printPlantsTable(opts *options, plants []models.Plant) {
	if len(plants) == 0 {
		_, _ = fmt.Fprintln(opts.out, dimStyle.Render("No plants yet."))
		return
	}

	maxID, maxName := 2, 4
	for _, p := range plants {
		maxID = max(maxID, len(p.ID))
		maxName = min(max(maxName, len(p.Name)), 30)
	}

	_, _ = fmt.Fprintf(opts.out, "%s  %s  %s  %s  %s\n",
		headerStyle.Render(padRight("ID", maxID)),
		headerStyle.Render(padRight("NAME", maxName)),
		headerStyle.Render(padRight("IMAGES", 6)),
		headerStyle.Render(padRight("CREATED", len(dateLayout))),
		headerStyle.Render("LATEST IMAGE"),
	)
	_, _ = fmt.Fprintln(opts.out, strings.Repeat("-", maxID+maxName+len(dateLayout)+30))

	for _, p := range plants {
		name := p.Name
		if len(name) > maxName {
			name = name[:maxName-3] + "..."
		}
		latest := "-"
		if img, ok := p.LatestImage(); ok {
			latest = img.ImageURL
		}
		_, _ = fmt.Fprintf(opts.out, "%s  %s  %s  %s  %s\n",
			padRight(p.ID, maxID),
			padRight(name, maxName),
			countStyle.Render(padRight(fmt.Sprintf("%d", len(p.Images)), 6)),
			dimStyle.Render(p.CreatedAt.Local().Format(dateLayout)),
			latest,
		)
	}
	_, _ = fmt.Fprintf(opts.out, "\nTotal: %d plants\n", len(plants))
}

// renderEvent prints one live feed line.
func renderEvent(opts *options, evt models.PlantEvent) error {
	if opts.jsonOut {
		return json.NewEncoder(opts.out).Encode(evt)
	}

	stamp := dimStyle.Render(time.Now().Format("15:04:05"))
	switch {
	case evt.Event == models.EventConnected:
		_, _ = fmt.Fprintf(opts.out, "%s %s\n", stamp, dimStyle.Render(evt.Message))
	case evt.Plant != nil:
		latest := ""
		if img, ok := evt.Plant.LatestImage(); ok {
			latest = img.ImageURL
		}
		_, _ = fmt.Fprintf(opts.out, "%s %s %s (%s) %s images, latest %s\n",
			stamp,
			successStyle.Render(evt.Event),
			headerStyle.Render(evt.Plant.Name),
			evt.Plant.ID,
			countStyle.Render(fmt.Sprintf("%d", len(evt.Plant.Images))),
			latest,
		)
	default:
		_, _ = fmt.Fprintf(opts.out, "%s %s\n", stamp, evt.Event)
	}
	return nil
}

func padRight(s string, n int) string {
	if len(s) >= n {
		return s
	}
	return s + strings.Repeat(" ", n-len(s))
}
