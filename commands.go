package main

import (
	"context"
	"strings"
	"time"

	"wallet-connect-tui/connector"
	"wallet-connect-tui/helpers"
	"wallet-connect-tui/rpc"
	"wallet-connect-tui/session"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/ethereum/go-ethereum/common"
)

// -------------------- COMMAND FUNCTIONS --------------------
// Functions that return tea.Cmd for async operations

// startSession runs the silent startup probe against the configured wallet
func startSession(sess *session.Manager) tea.Cmd {
	return func() tea.Msg {
		sess.Start(context.Background())
		return nil
	}
}

// listenForSession waits for the next session event
func listenForSession(sub session.Subscriber) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-sub
		if !ok {
			return sessionClosedMsg{}
		}
		return sessionEventMsg{ev: ev}
	}
}

// connectWallet starts a manual connection attempt
func connectWallet(sess *session.Manager) tea.Cmd {
	return func() tea.Msg {
		sess.Connect(context.Background())
		return nil
	}
}

// disconnectWallet tears the session down
func disconnectWallet(sess *session.Manager) tea.Cmd {
	return func() tea.Msg {
		sess.Disconnect()
		return nil
	}
}

// connectNode dials the node RPC endpoint advertised by the wallet
func connectNode(uris connector.ServiceURIConfig) tea.Cmd {
	return func() tea.Msg {
		result := rpc.ConnectFromURIs(uris)
		return nodeConnectedMsg{client: result.Client, err: result.Error}
	}
}

// initLogViewport initializes the log viewport
func initLogViewport() tea.Cmd {
	return func() tea.Msg {
		return logInitMsg{}
	}
}

// loadDetails fetches wallet balance details from the blockchain
func loadDetails(client *rpc.Client, addr common.Address, watch []rpc.WatchedToken) tea.Cmd {
	return func() tea.Msg {
		d := rpc.LoadWalletDetails(client, addr, watch)
		return detailsLoadedMsg{d: d, err: nil}
	}
}

// copyToClipboard copies text to clipboard
func copyToClipboard(text string) tea.Cmd {
	return func() tea.Msg {
		err := clipboard.WriteAll(text)
		if err == nil {
			return clipboardCopiedMsg{}
		}
		return nil
	}
}

// clearClipboardMsg waits 2 seconds then sends a message to clear clipboard feedback
func clearClipboardMsg() tea.Cmd {
	return tea.Tick(2*time.Second, func(t time.Time) tea.Msg {
		return struct{ clearClipboard bool }{true}
	})
}

// -------------------- MODEL HELPER METHODS --------------------
// These methods help with state management and command generation

// addLog adds a log entry with timestamp and type
func (m *model) addLog(logType, message string) {
	if !m.logEnabled || !m.logReady || m.logger == nil {
		return
	}

	// Use the logger to write messages
	switch logType {
	case "info":
		m.logger.Info(message)
	case "success":
		m.logger.Info("✓", "msg", message)
	case "error":
		m.logger.Error(message)
	case "warning":
		m.logger.Warn(message)
	case "debug":
		m.logger.Debug(message)
	default:
		m.logger.Print(message)
	}

	// Update viewport content
	m.updateLogViewport()
}

// loadConnectedDetails loads balances for the connected wallet address,
// preferring the cache
func (m *model) loadConnectedDetails(force bool) tea.Cmd {
	addr := m.snap.Address
	if addr == "" {
		m.loading = false
		m.details = rpc.WalletDetails{}
		return nil
	}

	if !helpers.IsValidEthAddress(addr) {
		m.loading = false
		m.details = rpc.WalletDetails{Address: addr, ErrMessage: "Wallet address cannot be queried over node RPC."}
		return nil
	}

	if !force {
		if cached, ok := m.detailsCache[strings.ToLower(addr)]; ok {
			m.details = cached
			m.loading = false
			return nil
		}
	}

	m.loading = true
	m.details = rpc.WalletDetails{Address: addr}
	return loadDetails(m.ethClient, common.HexToAddress(addr), m.tokenWatch)
}

// updateLogViewport refreshes the viewport content with log output
func (m *model) updateLogViewport() {
	if !m.logReady || m.logBuffer == nil {
		return
	}

	// Get content from log buffer
	content := m.logBuffer.String()
	m.logViewport.SetContent(content)
	// Scroll to bottom to show latest entries
	m.logViewport.GotoBottom()
}

// textInputActive returns true if any text input is currently active
func (m model) textInputActive() bool {
	return (m.settingsMode == "add" || m.settingsMode == "edit") && m.form != nil
}
