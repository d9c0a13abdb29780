package settings

import (
	"strings"

	"wallet-connect-tui/config"
	"wallet-connect-tui/helpers"
	"wallet-connect-tui/styles"

	"github.com/charmbracelet/lipgloss"
)

// Nav returns the navigation bar for settings view
func Nav(width int, settingsMode string) string {
	var left string
	if settingsMode == "add" || settingsMode == "edit" {
		left = strings.Join([]string{
			styles.Key("l") + " logger",
			styles.Key("Esc") + " cancel",
		}, "   ")
	} else {
		left = strings.Join([]string{
			styles.Key("↑/↓") + " select",
			styles.Key("Enter") + " activate",
			styles.Key("a") + " add",
			styles.Key("e") + " edit",
			styles.Key("x") + " delete",
			styles.Key("l") + " logger",
			styles.Key("Esc") + " back",
		}, "   ")
	}

	return styles.NavStyle.Width(width).Render(left)
}

// Render renders the wallet connector settings view
func Render(endpoints []config.ConnectorEndpoint, selectedIdx int, activeName string) string {
	h := styles.TitleStyle.Render("Wallet Connectors")

	lines := []string{h, ""}

	if len(endpoints) == 0 {
		lines = append(lines, styles.MutedStyle.Render("No wallet connectors configured."))
		lines = append(lines, "")
		lines = append(lines, styles.MutedStyle.Render("Press ")+styles.Key("a")+styles.MutedStyle.Render(" to add your first connector."))
		return strings.Join(lines, "\n")
	}

	lines = append(lines, styles.MutedStyle.Render("Configured wallet daemons:"))
	lines = append(lines, "")

	for i, ep := range endpoints {
		var marker string
		if ep.Name == activeName {
			marker = lipgloss.NewStyle().Foreground(styles.CAccent).Render("● ")
		} else {
			marker = styles.MutedStyle.Render("○ ")
		}

		nameStyle := lipgloss.NewStyle().Foreground(styles.CText)
		urlStyle := lipgloss.NewStyle().Foreground(styles.CMuted)

		if i == selectedIdx {
			nameStyle = nameStyle.Background(styles.CPanel).Foreground(styles.CAccent2).Bold(true)
			urlStyle = urlStyle.Background(styles.CPanel)
			marker = lipgloss.NewStyle().Foreground(styles.CAccent2).Render("▶ ")
		}

		lines = append(lines, marker+nameStyle.Render(ep.Name))
		lines = append(lines, "  "+urlStyle.Render(helpers.ShortenURI(ep.URL)))
		lines = append(lines, "")
	}

	return strings.Join(lines, "\n")
}
