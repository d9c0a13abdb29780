package details

import (
	"fmt"
	"strings"

	"wallet-connect-tui/helpers"
	"wallet-connect-tui/rpc"
	"wallet-connect-tui/styles"

	"github.com/charmbracelet/lipgloss"
)

// Nav returns the navigation bar for details view
func Nav(width int) string {
	left := strings.Join([]string{
		styles.Key("c") + " copy address",
		styles.Key("r") + " refresh",
		styles.Key("tab") + " next page",
		styles.Key("l") + " logger",
		styles.Key("Esc") + " back",
	}, "   ")

	return styles.NavStyle.Width(width).Render(left)
}

// Render renders the connected account's balances
func Render(d rpc.WalletDetails, label string, connected bool, loading bool, copiedMsg string, spinnerView string) string {
	h := styles.TitleStyle.Render("Account Balances")

	if !connected {
		msg := styles.MutedStyle.Render("No wallet connected.")
		hint := styles.MutedStyle.Render("Connect a wallet first, then come back here.")
		return h + "\n\n" + msg + "\n" + hint
	}

	// Address with a hyperlink to Etherscan (OSC 8)
	etherscanURL := fmt.Sprintf("https://etherscan.io/address/%s", d.Address)
	addrStyle := lipgloss.NewStyle().Foreground(styles.CMuted).Underline(true)
	sub := fmt.Sprintf("\x1b]8;;%s\x1b\\%s\x1b]8;;\x1b\\", etherscanURL, addrStyle.Render(d.Address))

	if label != "" {
		labelStyle := lipgloss.NewStyle().Foreground(styles.CAccent2).Italic(true)
		sub = labelStyle.Render("\""+label+"\"") + "  " + sub
	}

	if copiedMsg != "" {
		sub += "  " + lipgloss.NewStyle().Foreground(styles.CAccent).Render(copiedMsg)
	}

	if loading {
		return h + "\n" + sub + "\n\n" + spinnerView + " fetching balances…"
	}

	if d.ErrMessage != "" {
		msg := styles.WarnStyle.Render("⚠ " + d.ErrMessage)
		hint := styles.MutedStyle.Render("The node endpoint comes from the wallet; press ") +
			styles.Key("r") + styles.MutedStyle.Render(" to retry.")
		return h + "\n" + sub + "\n\n" + msg + "\n\n" + hint
	}

	ethLine := fmt.Sprintf("%s  %s",
		lipgloss.NewStyle().Foreground(styles.CAccent2).Bold(true).Render("ETH"),
		lipgloss.NewStyle().Foreground(styles.CText).Render(helpers.FormatETH(d.EthWei)),
	)

	lines := []string{h, sub, "", ethLine, ""}

	if len(d.Tokens) == 0 {
		lines = append(lines, styles.MutedStyle.Render("No watched token balances found (non-zero)."))
		lines = append(lines, styles.MutedStyle.Render("Add tokens to the watchlist in the config file."))
	} else {
		lines = append(lines, styles.MutedStyle.Render("Tokens (watchlist)"))

		// table-ish rendering
		for _, t := range d.Tokens {
			row := fmt.Sprintf("%-6s  %s",
				lipgloss.NewStyle().Foreground(styles.CAccent).Render(t.Symbol),
				lipgloss.NewStyle().Foreground(styles.CText).Render(helpers.FormatToken(t.Balance, t.Decimals, t.Symbol)),
			)
			lines = append(lines, row)
		}
	}

	if !d.LoadedAt.IsZero() {
		lines = append(lines, "", styles.MutedStyle.Render(helpers.LoadedAt(d.LoadedAt, loading)))
	}

	return strings.Join(lines, "\n")
}
