package main

import (
	"fmt"
	"strings"
	"time"

	"wallet-connect-tui/config"
	"wallet-connect-tui/connector"
	"wallet-connect-tui/helpers"
	"wallet-connect-tui/rpc"
	"wallet-connect-tui/session"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
)

// -------------------- TEMP FORM STORAGE --------------------
// Temporary form field storage (package-level to avoid pointer-to-copy issues)
var (
	tempConnFormName string
	tempConnFormURL  string
)

func (m *model) createAddConnectorForm() {
	tempConnFormName = ""
	tempConnFormURL = ""

	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Connector Name").
				Description("The wallet name this daemon serves").
				Value(&tempConnFormName).
				Placeholder("lace"),

			huh.NewInput().
				Title("Connector URL").
				Description("The daemon's websocket endpoint (ws://...)").
				Value(&tempConnFormURL).
				Placeholder("ws://127.0.0.1:9955/connector/lace").
				Validate(func(s string) error {
					if !strings.HasPrefix(s, "ws://") && !strings.HasPrefix(s, "wss://") {
						return fmt.Errorf("must be a ws:// or wss:// URL")
					}
					return nil
				}),
		),
	).WithTheme(huh.ThemeCatppuccin())

	// Initialize the form
	m.form.Init()
}

func (m *model) createEditConnectorForm(idx int) {
	if idx < 0 || idx >= len(m.cfg.Connectors) {
		return
	}

	ep := m.cfg.Connectors[idx]
	tempConnFormName = ep.Name
	tempConnFormURL = ep.URL

	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Connector Name").
				Value(&tempConnFormName).
				Placeholder("lace"),

			huh.NewInput().
				Title("Connector URL").
				Value(&tempConnFormURL).
				Placeholder("ws://..."),
		),
	).WithTheme(huh.ThemeCatppuccin())

	// Initialize the form
	m.form.Init()
}

// rebuildRegistry re-registers every configured endpoint. Registered
// connectors keep their name, so a changed URL needs a fresh Remote.
func (m *model) rebuildRegistry() {
	reg := connector.NewRegistry()
	for _, ep := range m.cfg.Connectors {
		reg.Register(connector.NewRemote(ep.Name, ep.URL))
	}
	m.registry = reg
}

// restartSession tears the current session down and starts a fresh one
// against the wallet named in config
func (m *model) restartSession() tea.Cmd {
	m.sess.Close()

	m.sess = newSessionManager(m.cfg, m.registry)
	m.sub = m.sess.Subscribe()
	m.snap = m.sess.Snapshot()
	m.details = rpc.WalletDetails{}
	m.detailsCache = make(map[string]rpc.WalletDetails)
	m.ethClient = nil
	m.nodeState = ""
	m.showQR = false

	return tea.Batch(listenForSession(m.sub), startSession(m.sess))
}

func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	// Handle settings form updates first (before message switching)
	if m.activePage == config.PageSettings && (m.settingsMode == "add" || m.settingsMode == "edit") && m.form != nil {
		// Intercept ESC key to cancel form
		if keyMsg, ok := msg.(tea.KeyMsg); ok && keyMsg.String() == "esc" {
			m.settingsMode = "list"
			m.form = nil
			return m, nil
		}

		form, cmd := m.form.Update(msg)
		if f, ok := form.(*huh.Form); ok {
			m.form = f

			// Check if form is completed
			if m.form.State == huh.StateCompleted {
				if m.settingsMode == "add" {
					if tempConnFormName != "" && tempConnFormURL != "" {
						m.cfg.Connectors = append(m.cfg.Connectors, config.ConnectorEndpoint{Name: tempConnFormName, URL: tempConnFormURL})
						m.rebuildRegistry()
						config.Save(m.configPath, m.cfg)
						m.addLog("success", fmt.Sprintf("Added connector: `%s` (%s)", tempConnFormName, tempConnFormURL))
					}
				} else if m.settingsMode == "edit" {
					if m.selectedConnIdx >= 0 && m.selectedConnIdx < len(m.cfg.Connectors) {
						edited := &m.cfg.Connectors[m.selectedConnIdx]
						renamedActive := edited.Name == m.cfg.Wallet && tempConnFormName != m.cfg.Wallet
						edited.Name = tempConnFormName
						edited.URL = tempConnFormURL
						if renamedActive {
							m.cfg.Wallet = tempConnFormName
						}
						m.rebuildRegistry()
						config.Save(m.configPath, m.cfg)
						m.addLog("success", fmt.Sprintf("Updated connector: `%s`", tempConnFormName))
						// The live session holds the old Remote, restart it
						m.settingsMode = "list"
						m.form = nil
						return m, m.restartSession()
					}
				}
				m.settingsMode = "list"
				m.form = nil
				return m, nil
			}

			// Check if form was aborted (ESC pressed)
			if m.form.State == huh.StateAborted {
				m.settingsMode = "list"
				m.form = nil
				return m, nil
			}
		}
		return m, cmd
	}

	switch msg := msg.(type) {

	case logInitMsg:
		if !m.logEnabled {
			return m, nil
		}
		// Create logger that writes to our buffer
		m.logger = log.NewWithOptions(m.logBuffer, log.Options{
			ReportTimestamp: true,
			TimeFormat:      "15:04:05",
			Prefix:          "",
		})
		// Set log level and styling
		m.logger.SetLevel(log.DebugLevel)
		m.logger.SetStyles(&log.Styles{
			Timestamp: lipgloss.NewStyle().Foreground(cMuted),
			Caller:    lipgloss.NewStyle().Faint(true),
			Prefix:    lipgloss.NewStyle().Bold(true).Foreground(cAccent2),
			Message:   lipgloss.NewStyle().Foreground(cText),
			Key:       lipgloss.NewStyle().Foreground(cAccent),
			Value:     lipgloss.NewStyle().Foreground(cText),
			Separator: lipgloss.NewStyle().Faint(true),
			Levels: map[log.Level]lipgloss.Style{
				log.DebugLevel: lipgloss.NewStyle().Foreground(cMuted).SetString("DEBUG"),
				log.InfoLevel:  lipgloss.NewStyle().Foreground(cAccent2).SetString("INFO"),
				log.WarnLevel:  lipgloss.NewStyle().Foreground(cWarn).SetString("WARN"),
				log.ErrorLevel: lipgloss.NewStyle().Foreground(lipgloss.Color("#FF0000")).SetString("ERROR"),
			},
		})
		m.logReady = true
		m.addLog("info", "Logger enabled")
		return m, nil

	case sessionEventMsg:
		prev := m.snap
		m.snap = msg.ev.Snapshot

		// keep listening for the next event
		cmds = append(cmds, listenForSession(m.sub))

		switch msg.ev.Type {
		case session.EventPhaseChanged:
			if prev.Phase != m.snap.Phase {
				m.addLog("debug", fmt.Sprintf("Session phase: %s → %s", prev.Phase, m.snap.Phase))
			}
			switch m.snap.Phase {
			case session.PhaseConnected:
				m.addLog("success", fmt.Sprintf("Wallet `%s` connected: %s", m.snap.WalletName, helpers.ShortenAddr(m.snap.Address)))
				// Dial the node the wallet advertises, then load balances
				if m.snap.ServiceURIs != nil && m.snap.ServiceURIs.NodeRPC != "" && m.nodeState != "connected" {
					m.nodeState = "connecting"
					cmds = append(cmds, connectNode(*m.snap.ServiceURIs))
				}
			case session.PhaseAwaitingApproval:
				m.addLog("info", "Waiting for wallet approval")
			case session.PhaseError:
				m.addLog("error", m.snap.Err)
			}

		case session.EventStateUpdated:
			m.addLog("info", fmt.Sprintf("Wallet account changed: %s", helpers.ShortenAddr(m.snap.Address)))
			// Balances belong to the old account now
			delete(m.detailsCache, strings.ToLower(prev.Address))
			if m.ethClient != nil {
				cmds = append(cmds, m.loadConnectedDetails(true))
			}

		case session.EventDisconnected:
			if m.snap.Info != "" {
				m.addLog("warning", m.snap.Info)
			} else {
				m.addLog("info", "Wallet disconnected")
			}
			m.details = rpc.WalletDetails{}
			m.ethClient = nil
			m.nodeState = ""
			m.showQR = false
		}
		return m, tea.Batch(cmds...)

	case sessionClosedMsg:
		// Session was closed (wallet switch); the replacement subscription is
		// already armed
		return m, nil

	case nodeConnectedMsg:
		if msg.err != nil {
			m.ethClient = nil
			m.nodeState = "failed"
			m.addLog("error", fmt.Sprintf("Node RPC connection failed: `%s`", msg.err.Error()))
			return m, nil
		}
		m.ethClient = msg.client
		m.nodeState = "connected"
		m.addLog("success", fmt.Sprintf("Node RPC connected to `%s`", msg.client.URL))
		if m.snap.IsConnected() {
			return m, m.loadConnectedDetails(false)
		}
		return m, nil

	case tea.WindowSizeMsg:
		m.w, m.h = msg.Width, msg.Height

		// Only initialize viewport if log is enabled
		if m.logEnabled {
			// Width accounts for border and padding
			m.logViewport.Width = max(0, msg.Width-6)
			// Height will be calculated dynamically in the log panel
			if m.logReady {
				m.updateLogViewport()
			}
		}

		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		cmds = append(cmds, cmd)
		// Update log spinner too if log is enabled but not ready
		if m.logEnabled && !m.logReady {
			m.logSpinner, cmd = m.logSpinner.Update(msg)
			cmds = append(cmds, cmd)
		}
		return m, tea.Batch(cmds...)

	case detailsLoadedMsg:
		m.loading = false
		m.details = msg.d
		// Cache the loaded details
		if m.details.Address != "" && m.details.ErrMessage == "" {
			m.detailsCache[strings.ToLower(m.details.Address)] = m.details
		}
		if m.details.ErrMessage != "" {
			m.addLog("error", fmt.Sprintf("Wallet `%s`: %s", helpers.ShortenAddr(m.details.Address), m.details.ErrMessage))
		} else {
			m.addLog("success", fmt.Sprintf("Loaded balances for `%s` - ETH: %s", helpers.ShortenAddr(m.details.Address), helpers.FormatETH(m.details.EthWei)))
		}
		return m, nil

	case clipboardCopiedMsg:
		m.copiedMsg = "✓ Copied address to clipboard"
		m.copiedMsgTime = time.Now()
		return m, clearClipboardMsg()

	case tea.KeyMsg:
		allowMenuHotkeys := !m.textInputActive()
		// global keys
		if allowMenuHotkeys {
			switch msg.String() {
			case "ctrl+c", "q":
				m.sess.Close()
				return m, tea.Quit

			case "tab":
				// cycle pages
				switch m.activePage {
				case config.PageStatus:
					m.activePage = config.PageDetails
					return m, m.loadConnectedDetails(false)
				case config.PageDetails:
					m.activePage = config.PageSettings
					m.settingsMode = "list"
				default:
					m.activePage = config.PageStatus
				}
				return m, nil

			case "l", "L":
				// Toggle logger
				m.logEnabled = !m.logEnabled
				m.cfg.Logger = m.logEnabled
				if m.logEnabled {
					// Initialize viewport when enabling
					if m.w > 0 {
						m.logViewport.Width = m.w - 6
					}
					m.logReady = false
					config.Save(m.configPath, m.cfg)
					return m, tea.Batch(initLogViewport(), m.logSpinner.Tick)
				}
				// Clear logs and de-initialize when disabling
				if m.logBuffer != nil {
					m.logBuffer.Reset()
				}
				m.logger = nil
				m.logReady = false
				config.Save(m.configPath, m.cfg)
				return m, nil

			case "pageup", "pagedown":
				// Allow scrolling in log viewport when enabled
				if m.logEnabled && m.logReady {
					var cmd tea.Cmd
					m.logViewport, cmd = m.logViewport.Update(msg)
					return m, cmd
				}
			}
		}

		// page-specific behavior
		switch m.activePage {

		case config.PageStatus:
			switch msg.String() {
			case "c":
				// Manual connect; the session ignores redundant requests
				if m.snap.IsConnecting() {
					return m, nil
				}
				if m.snap.IsConnected() {
					m.addLog("info", "Already connected")
					return m, nil
				}
				m.addLog("info", fmt.Sprintf("Connecting to wallet `%s`", m.cfg.Wallet))
				return m, connectWallet(m.sess)
			case "d":
				if m.snap.IsConnected() || m.snap.IsConnecting() {
					return m, disconnectWallet(m.sess)
				}
				return m, nil
			case "r":
				m.snap = m.sess.Snapshot()
				return m, nil
			case "v":
				if m.snap.IsConnected() {
					m.showQR = !m.showQR
				}
				return m, nil
			case "s":
				m.activePage = config.PageSettings
				m.settingsMode = "list"
				return m, nil
			case "b":
				m.activePage = config.PageDetails
				return m, m.loadConnectedDetails(false)
			}

		case config.PageDetails:
			switch msg.String() {
			case "r":
				return m, m.loadConnectedDetails(true)
			case "c":
				if m.snap.Address != "" {
					return m, copyToClipboard(m.snap.Address)
				}
				return m, nil
			case "esc":
				m.activePage = config.PageStatus
				return m, nil
			}

		case config.PageSettings:
			switch msg.String() {
			case "up", "k":
				if m.selectedConnIdx > 0 {
					m.selectedConnIdx--
				}
				return m, nil
			case "down", "j":
				if m.selectedConnIdx < len(m.cfg.Connectors)-1 {
					m.selectedConnIdx++
				}
				return m, nil
			case "enter":
				// Activate the selected endpoint and restart the session
				if m.selectedConnIdx >= 0 && m.selectedConnIdx < len(m.cfg.Connectors) {
					name := m.cfg.Connectors[m.selectedConnIdx].Name
					if name == m.cfg.Wallet {
						return m, nil
					}
					m.cfg.Wallet = name
					config.Save(m.configPath, m.cfg)
					m.addLog("success", fmt.Sprintf("Switched wallet to `%s`", name))
					m.activePage = config.PageStatus
					return m, m.restartSession()
				}
				return m, nil
			case "a":
				m.settingsMode = "add"
				m.createAddConnectorForm()
				return m, nil
			case "e":
				if len(m.cfg.Connectors) > 0 {
					m.settingsMode = "edit"
					m.createEditConnectorForm(m.selectedConnIdx)
				}
				return m, nil
			case "x":
				// Delete selected endpoint, unless it is the active wallet
				if m.selectedConnIdx >= 0 && m.selectedConnIdx < len(m.cfg.Connectors) {
					name := m.cfg.Connectors[m.selectedConnIdx].Name
					if name == m.cfg.Wallet {
						m.addLog("warning", "Cannot delete the active wallet's connector")
						return m, nil
					}
					m.cfg.Connectors = append(m.cfg.Connectors[:m.selectedConnIdx], m.cfg.Connectors[m.selectedConnIdx+1:]...)
					if m.selectedConnIdx >= len(m.cfg.Connectors) && m.selectedConnIdx > 0 {
						m.selectedConnIdx--
					}
					m.rebuildRegistry()
					config.Save(m.configPath, m.cfg)
					m.addLog("warning", fmt.Sprintf("Deleted connector `%s`", name))
				}
				return m, nil
			case "esc":
				m.activePage = config.PageStatus
				return m, nil
			}
		}

	default:
		// Clear clipboard message after timeout
		if msg, ok := msg.(struct{ clearClipboard bool }); ok && msg.clearClipboard {
			if time.Since(m.copiedMsgTime) >= 2*time.Second {
				m.copiedMsg = ""
			}
		}
	}

	return m, tea.Batch(cmds...)
}
