package main

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"wallet-connect-tui/config"
	"wallet-connect-tui/connector"
	"wallet-connect-tui/helpers"
	"wallet-connect-tui/rpc"
	"wallet-connect-tui/session"
	"wallet-connect-tui/styles"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/ethereum/go-ethereum/common"
)

// -------------------- MODEL --------------------

// model represents the application state following The Elm Architecture
type model struct {
	w, h int

	activePage config.Page

	// wallet session
	cfg        config.Config
	configPath string
	registry   *connector.Registry
	sess       *session.Manager
	sub        session.Subscriber
	snap       session.Snapshot

	// address QR overlay on the status page
	showQR bool

	// details state
	spin         spinner.Model
	loading      bool
	details      rpc.WalletDetails
	detailsCache map[string]rpc.WalletDetails
	ethClient    *rpc.Client
	nodeState    string // "", "connecting", "connected", "failed"

	// token watchlist from config
	tokenWatch []rpc.WatchedToken

	// clipboard feedback
	copiedMsg     string
	copiedMsgTime time.Time

	// settings state
	settingsMode    string // "list", "add", "edit"
	selectedConnIdx int
	form            *huh.Form

	// logger panel
	logEnabled  bool
	logger      *log.Logger
	logBuffer   *strings.Builder
	logViewport viewport.Model
	logReady    bool
	logSpinner  spinner.Model
}

// -------------------- INIT --------------------

// newModel creates and initializes a new model with configuration from disk
func newModel() model {
	// config path
	homeDir, _ := os.UserHomeDir()
	configPath := filepath.Join(homeDir, ".wallet-connect-config.json")

	// load config, writing defaults on first run
	cfg := config.LoadOrCreate(configPath)

	// register a remote connector per configured endpoint
	registry := connector.NewRegistry()
	for _, ep := range cfg.Connectors {
		registry.Register(connector.NewRemote(ep.Name, ep.URL))
	}

	// spinner
	sp := spinner.New()
	sp.Spinner = spinner.Line
	sp.Style = lipgloss.NewStyle().Foreground(styles.CAccent2)

	// token watchlist from config
	var watch []rpc.WatchedToken
	for _, t := range cfg.Tokens {
		if !helpers.IsValidEthAddress(t.Address) {
			continue
		}
		watch = append(watch, rpc.WatchedToken{
			Symbol:   t.Symbol,
			Decimals: t.Decimals,
			Address:  common.HexToAddress(t.Address),
		})
	}

	// Initialize log viewport
	vp := viewport.New(0, 20) // Will be resized in Update on first WindowSizeMsg
	vp.Style = lipgloss.NewStyle().
		Foreground(styles.CText).
		Background(styles.CPanel)

	// Initialize log spinner
	logSpin := spinner.New()
	logSpin.Spinner = spinner.Dot
	logSpin.Style = lipgloss.NewStyle().Foreground(styles.CAccent2)

	sess := newSessionManager(cfg, registry)

	m := model{
		activePage:      config.PageStatus,
		cfg:             cfg,
		configPath:      configPath,
		registry:        registry,
		sess:            sess,
		sub:             sess.Subscribe(),
		snap:            sess.Snapshot(),
		spin:            sp,
		tokenWatch:      watch,
		settingsMode:    "list",
		selectedConnIdx: 0,
		logEnabled:      cfg.Logger,
		logViewport:     vp,
		logBuffer:       &strings.Builder{},
		logSpinner:      logSpin,
		detailsCache:    make(map[string]rpc.WalletDetails),
	}

	return m
}

// newSessionManager builds a session manager for the configured wallet,
// applying the poll tunables from config on top of the defaults.
func newSessionManager(cfg config.Config, registry *connector.Registry) *session.Manager {
	sc := session.DefaultConfig()
	sc.LivenessInterval = cfg.Session.LivenessInterval(sc.LivenessInterval)
	sc.StateInterval = cfg.Session.StateInterval(sc.StateInterval)
	sc.ApprovalInterval = cfg.Session.ApprovalInterval(sc.ApprovalInterval)
	if cfg.Session.ApprovalMaxAttempts > 0 {
		sc.ApprovalMaxAttempts = cfg.Session.ApprovalMaxAttempts
	}
	// Session activity reaches the log panel through events, so the
	// manager's own logger stays quiet.
	return session.New(sc, registry, cfg.Wallet, log.New(io.Discard))
}

// Init implements tea.Model interface and returns initial commands
func (m model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.spin.Tick, listenForSession(m.sub), startSession(m.sess)}
	if m.logEnabled {
		cmds = append(cmds, initLogViewport(), m.logSpinner.Tick)
	}
	return tea.Batch(cmds...)
}
