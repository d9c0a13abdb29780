package status

import (
	"strings"

	"wallet-connect-tui/helpers"
	"wallet-connect-tui/session"
	"wallet-connect-tui/styles"

	"github.com/charmbracelet/lipgloss"
)

// Nav returns the navigation bar for the status view
func Nav(width int, snap session.Snapshot) string {
	keys := []string{}
	if snap.IsConnected() {
		keys = append(keys,
			styles.Key("d")+" disconnect",
			styles.Key("v")+" address QR",
			styles.Key("b")+" balances",
		)
	} else if snap.IsConnecting() {
		keys = append(keys, styles.Key("d")+" cancel")
	} else if !snap.IsCheckingStatus() {
		keys = append(keys, styles.Key("c")+" connect")
	}
	keys = append(keys,
		styles.Key("s")+" settings",
		styles.Key("tab")+" next page",
		styles.Key("l")+" logger",
		styles.Key("q")+" quit",
	)

	return styles.NavStyle.Width(width).Render(strings.Join(keys, "   "))
}

// phaseBadge renders the phase name in its status color
func phaseBadge(p session.Phase) string {
	var c lipgloss.Color
	switch p {
	case session.PhaseConnected:
		c = styles.CAccent
	case session.PhaseConnecting, session.PhaseAwaitingApproval, session.PhaseCheckingInitial:
		c = styles.CAccent2
	case session.PhaseError:
		c = styles.CErr
	default:
		c = styles.CMuted
	}
	return lipgloss.NewStyle().Foreground(c).Bold(true).Render(strings.ToUpper(p.String()))
}

// Render renders the connection status view
func Render(snap session.Snapshot, nodeState string, spinnerView string, qr string) string {
	h := styles.TitleStyle.Render("Wallet Connection")

	walletLine := styles.MutedStyle.Render("Wallet: ") +
		lipgloss.NewStyle().Foreground(styles.CText).Bold(true).Render(snap.WalletName) +
		"   " + phaseBadge(snap.Phase)

	lines := []string{h, "", walletLine, ""}

	switch snap.Phase {
	case session.PhaseCheckingInitial:
		lines = append(lines, spinnerView+" checking wallet status…")

	case session.PhaseConnecting:
		lines = append(lines, spinnerView+" requesting wallet access…")

	case session.PhaseAwaitingApproval:
		lines = append(lines, spinnerView+" "+styles.InfoStyle.Render(snap.Info))
		lines = append(lines, "")
		lines = append(lines, styles.MutedStyle.Render("Open the wallet and approve this application."))

	case session.PhaseConnected:
		addr := helpers.FadeString(snap.Address, "#F25D94", "#EDFF82")
		lines = append(lines, styles.MutedStyle.Render("Address: ")+addr)
		if snap.State != nil && snap.State.Label != "" {
			lines = append(lines, styles.MutedStyle.Render("Account: ")+
				lipgloss.NewStyle().Foreground(styles.CText).Render(snap.State.Label))
		}
		lines = append(lines, "")
		if snap.ServiceURIs != nil {
			lines = append(lines, styles.MutedStyle.Render("Service endpoints"))
			lines = append(lines, uriLine("node", snap.ServiceURIs.NodeRPC))
			lines = append(lines, uriLine("indexer", snap.ServiceURIs.Indexer))
			lines = append(lines, uriLine("explorer", snap.ServiceURIs.Explorer))
			lines = append(lines, "")
		}
		lines = append(lines, nodeLine(nodeState))

	case session.PhaseError:
		lines = append(lines, styles.ErrStyle.Render("⚠ "+snap.Err))
		lines = append(lines, "")
		lines = append(lines, styles.MutedStyle.Render("Press ")+styles.Key("c")+styles.MutedStyle.Render(" to try again."))

	default: // idle
		lines = append(lines, styles.MutedStyle.Render("Not connected."))
		if snap.Info != "" {
			lines = append(lines, "")
			lines = append(lines, styles.InfoStyle.Render(snap.Info))
		}
		lines = append(lines, "")
		lines = append(lines, styles.MutedStyle.Render("Press ")+styles.Key("c")+styles.MutedStyle.Render(" to connect."))
	}

	if qr != "" {
		lines = append(lines, "", styles.MutedStyle.Render("Scan to copy the address:"), "", qr)
	}

	return strings.Join(lines, "\n")
}

func uriLine(name, uri string) string {
	label := lipgloss.NewStyle().Foreground(styles.CAccent2).Render(name)
	if uri == "" {
		return "  " + label + "  " + styles.MutedStyle.Render("(not provided)")
	}
	return "  " + label + "  " + lipgloss.NewStyle().Foreground(styles.CText).Render(helpers.ShortenURI(uri))
}

func nodeLine(nodeState string) string {
	switch nodeState {
	case "connected":
		return lipgloss.NewStyle().Foreground(styles.CAccent).Render("● node RPC connected")
	case "connecting":
		return lipgloss.NewStyle().Foreground(styles.CAccent2).Render("○ dialing node RPC…")
	case "failed":
		return styles.WarnStyle.Render("○ node RPC unreachable")
	default:
		return styles.MutedStyle.Render("○ node RPC idle")
	}
}
