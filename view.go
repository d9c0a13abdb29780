package main

import (
	"strings"

	"wallet-connect-tui/config"
	"wallet-connect-tui/helpers"
	"wallet-connect-tui/rpc"
	"wallet-connect-tui/session"
	"wallet-connect-tui/styles"

	"github.com/charmbracelet/lipgloss"

	detailsview "wallet-connect-tui/views/details"
	logview "wallet-connect-tui/views/log"
	settingsview "wallet-connect-tui/views/settings"
	statusview "wallet-connect-tui/views/status"
)

// globalHeader renders wallet identity, centered title and connection state
func (m *model) globalHeader() string {
	availableWidth := max(0, m.w-8) // Account for panel padding

	// Connected wallet address, or the wallet we would connect to
	var addrDisplay string
	if m.snap.IsConnected() {
		addrDisplay = lipgloss.NewStyle().
			Foreground(cAccent2).
			Bold(true).
			Render("Wallet: " + helpers.FadeString(helpers.ShortenAddr(m.snap.Address), "#F25D94", "#EDFF82"))
	} else {
		addrDisplay = lipgloss.NewStyle().
			Foreground(cMuted).
			Render("Wallet: " + m.cfg.Wallet)
	}

	// Session status with a colored dot
	var statusIcon string
	var statusColor lipgloss.Color
	var statusText string

	switch m.snap.Phase {
	case session.PhaseConnected:
		statusIcon = "●"
		statusColor = cAccent
		statusText = "Connected"
	case session.PhaseCheckingInitial:
		statusIcon = "○"
		statusColor = cAccent2
		statusText = "Checking…"
	case session.PhaseConnecting:
		statusIcon = "○"
		statusColor = cAccent2
		statusText = "Connecting…"
	case session.PhaseAwaitingApproval:
		statusIcon = "○"
		statusColor = cWarn
		statusText = "Awaiting Approval"
	case session.PhaseError:
		statusIcon = "○"
		statusColor = lipgloss.Color("#c01c28")
		statusText = "Connection Failed"
	default:
		statusIcon = "○"
		statusColor = cMuted
		statusText = "Disconnected"
	}

	statusDisplay := lipgloss.NewStyle().
		Foreground(statusColor).
		Bold(true).
		Render(statusIcon + " " + statusText)

	// Center title
	titleStyle := lipgloss.NewStyle().
		Foreground(cAccent).
		Bold(true)
	titleText := titleStyle.Render(helpers.FadeString("wallet connect", "#7EE787", "#82CFFD"))

	// Calculate widths
	addrWidth := lipgloss.Width(addrDisplay)
	statusWidth := lipgloss.Width(statusDisplay)
	titleWidth := lipgloss.Width(titleText)

	totalOtherWidth := addrWidth + statusWidth + titleWidth

	var headerLine string
	if totalOtherWidth+4 > availableWidth {
		// Not enough space, stack vertically
		headerLine = addrDisplay + "\n" + titleText + "\n" + statusDisplay
	} else {
		// Three-column layout: Wallet | Title (centered) | Status
		remainingSpace := availableWidth - totalOtherWidth
		leftPadding := remainingSpace / 2
		rightPadding := remainingSpace - leftPadding

		leftSpacer := strings.Repeat(" ", max(1, leftPadding))
		rightSpacer := strings.Repeat(" ", max(1, rightPadding))

		headerLine = addrDisplay + leftSpacer + titleText + rightSpacer + statusDisplay
	}

	// Add separator line
	separator := lipgloss.NewStyle().
		Foreground(cBorder).
		Render(strings.Repeat("─", availableWidth))

	return headerLine + "\n" + separator
}

func (m *model) View() string {
	// Render global header outside of page content
	headerPanel := panelStyle.Width(max(0, m.w-2)).Render(m.globalHeader())

	var pageContent string
	var nav string

	switch m.activePage {
	case config.PageStatus:
		var qr string
		if m.showQR && m.snap.IsConnected() {
			qr = rpc.GenerateQRCode(m.snap.Address)
		}
		statusContent := statusview.Render(m.snap, m.nodeState, m.spin.View(), qr)
		pageContent = panelStyle.Width(max(0, m.w-2)).Render(statusContent)
		nav = statusview.Nav(m.w-2, m.snap)

	case config.PageDetails:
		var label string
		if m.snap.State != nil {
			label = m.snap.State.Label
		}
		detailsContent := detailsview.Render(m.details, label, m.snap.IsConnected(), m.loading, m.copiedMsg, m.spin.View())
		pageContent = panelStyle.Width(max(0, m.w-2)).Render(detailsContent)
		nav = detailsview.Nav(m.w - 2)

	case config.PageSettings:
		settingsContent := settingsview.Render(m.cfg.Connectors, m.selectedConnIdx, m.cfg.Wallet)

		// Show form if in add/edit mode
		if (m.settingsMode == "add" || m.settingsMode == "edit") && m.form != nil {
			settingsContent = styles.TitleStyle.Render("Wallet Connectors") + "\n\n" + m.form.View()
		}

		pageContent = panelStyle.Width(max(0, m.w-2)).Render(settingsContent)
		nav = settingsview.Nav(m.w-2, m.settingsMode)
	}

	// Render log panel only if enabled
	if m.logEnabled {
		// Ensure viewport height stays in sync with the rendered panel
		reservedHeight := 10
		availableHeight := max(5, m.h-reservedHeight)
		maxLogHeight := min(m.h/3, 15)
		m.logViewport.Height = min(availableHeight, maxLogHeight)

		logPanel := logview.Render(m.w, m.h, m.logReady, m.logSpinner.View(), m.logViewport)
		content := lipgloss.JoinVertical(lipgloss.Left, headerPanel, pageContent, nav, logPanel)
		return appStyle.Render(content)
	}

	// Use lipgloss to join sections vertically (without log panel)
	content := lipgloss.JoinVertical(lipgloss.Left, headerPanel, pageContent, nav)
	return appStyle.Render(content)
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
