// Package session implements the wallet connection state machine: the silent
// startup check, manual connect with approval-wait polling, background drift
// detection while connected, and teardown. Consumers read snapshots or
// subscribe for events; all connector traffic happens on this package's
// goroutines.
package session

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"wallet-connect-tui/connector"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// Config holds the polling and timeout tunables.
type Config struct {
	LivenessInterval    time.Duration // isEnabled probe while connected
	StateInterval       time.Duration // account probe while connected
	ApprovalInterval    time.Duration // isEnabled probe while awaiting approval
	ApprovalMaxAttempts int           // approval budget = interval * attempts
	EnableTimeout       time.Duration // single enable() round trip
	PollTimeout         time.Duration // single background probe round trip
	DetailTimeout       time.Duration // state + serviceUriConfig fetch after enable
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		LivenessInterval:    5 * time.Second,
		StateInterval:       3 * time.Second,
		ApprovalInterval:    2 * time.Second,
		ApprovalMaxAttempts: 30,
		EnableTimeout:       20 * time.Second,
		PollTimeout:         5 * time.Second,
		DetailTimeout:       10 * time.Second,
	}
}

// Snapshot is a read-only view of the session for consumers.
type Snapshot struct {
	WalletName  string
	Phase       Phase
	Address     string
	State       *connector.WalletState
	ServiceURIs *connector.ServiceURIConfig
	Err         string // last surfaced error, empty unless PhaseError
	Info        string // informational line (approval prompt, disconnect notice)
}

// IsConnected reports whether a wallet handle is held.
func (s Snapshot) IsConnected() bool { return s.Phase == PhaseConnected }

// IsConnecting reports whether a manual attempt is in flight, including the
// approval wait.
func (s Snapshot) IsConnecting() bool {
	return s.Phase == PhaseConnecting || s.Phase == PhaseAwaitingApproval
}

// IsCheckingStatus reports whether the silent startup probe is running.
func (s Snapshot) IsCheckingStatus() bool { return s.Phase == PhaseCheckingInitial }

// establish modes. Silent attempts swallow every error; manual attempts
// surface them, except approval-pending which starts the approval wait; an
// attempt re-run after approval surfaces errors but never re-enters the wait.
type establishMode int

const (
	modeSilent establishMode = iota
	modeManual
	modeApproved
)

// Manager owns one wallet session. All exported methods are safe for
// concurrent use.
type Manager struct {
	cfg        Config
	registry   *connector.Registry
	walletName string
	logger     *log.Logger

	mu      sync.RWMutex
	phase   Phase
	api     connector.WalletAPI
	state   *connector.WalletState
	uris    *connector.ServiceURIConfig
	errMsg  string
	infoMsg string
	closed  bool

	// attempt tags the live connect attempt or connected session. Async
	// completions re-check it before mutating, so results from superseded
	// attempts are discarded instead of resurrecting a cleared session.
	attempt uuid.UUID

	// pollCancel stops whichever poll set is armed: the approval poll, or
	// the liveness+state pair. Arming one set always cancels the other.
	pollCancel context.CancelFunc

	subscribers []Subscriber
}

// New creates a manager for the named connector. A nil logger disables
// logging.
func New(cfg Config, registry *connector.Registry, walletName string, logger *log.Logger) *Manager {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Manager{
		cfg:        cfg,
		registry:   registry,
		walletName: walletName,
		logger:     logger,
		phase:      PhaseIdle,
	}
}

// WalletName returns the connector name this session targets.
func (m *Manager) WalletName() string { return m.walletName }

// Snapshot returns a copy of the current session state.
func (m *Manager) Snapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s := Snapshot{
		WalletName: m.walletName,
		Phase:      m.phase,
		Err:        m.errMsg,
		Info:       m.infoMsg,
	}
	if m.state != nil {
		st := *m.state
		s.State = &st
		s.Address = st.Address
	}
	if m.uris != nil {
		u := *m.uris
		s.ServiceURIs = &u
	}
	return s
}

// WalletAPI returns the held wallet handle, non-nil exactly while connected.
func (m *Manager) WalletAPI() connector.WalletAPI {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.api
}

// Subscribe registers an event channel.
func (m *Manager) Subscribe() Subscriber {
	m.mu.Lock()
	defer m.mu.Unlock()
	ch := make(Subscriber, 16)
	m.subscribers = append(m.subscribers, ch)
	return ch
}

// Unsubscribe removes and closes a previously subscribed channel.
func (m *Manager) Unsubscribe(ch Subscriber) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, sub := range m.subscribers {
		if sub == ch {
			m.subscribers = append(m.subscribers[:i], m.subscribers[i+1:]...)
			close(ch)
			return
		}
	}
}

// Start runs the silent startup check: if the wallet already granted access
// in an earlier run, reconnect without any user interaction. Errors are
// swallowed; the outcome is Idle or Connected.
func (m *Manager) Start(ctx context.Context) {
	m.mu.Lock()
	if m.closed || m.phase != PhaseIdle {
		m.mu.Unlock()
		return
	}
	m.phase = PhaseCheckingInitial
	token := m.newAttemptLocked()
	m.mu.Unlock()
	m.notify(EventPhaseChanged)

	go func() {
		conn, err := m.registry.Lookup(m.walletName)
		if err != nil {
			m.logger.Debug("startup check skipped", "wallet", m.walletName, "error", err)
			m.settle(token)
			return
		}
		cctx, cancel := context.WithTimeout(ctx, m.cfg.PollTimeout)
		enabled, err := conn.IsEnabled(cctx)
		cancel()
		if err != nil || !enabled {
			m.settle(token)
			return
		}
		m.establish(ctx, conn, token, modeSilent)
	}()
}

// Connect runs a manual connect attempt. It is a no-op while an attempt is
// already in flight or a session is held.
func (m *Manager) Connect(ctx context.Context) {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	switch m.phase {
	case PhaseConnecting, PhaseAwaitingApproval, PhaseConnected:
		m.mu.Unlock()
		return
	}
	m.disarmPollsLocked()
	m.errMsg = ""
	m.infoMsg = ""
	m.phase = PhaseConnecting
	token := m.newAttemptLocked()
	m.mu.Unlock()
	m.notify(EventPhaseChanged)

	go func() {
		conn, err := m.registry.Lookup(m.walletName)
		if err != nil {
			m.fail(token, fmt.Sprintf("wallet connector %q not found", m.walletName))
			return
		}
		m.establish(ctx, conn, token, modeManual)
	}()
}

// Disconnect tears the session down from any phase: every poll is cancelled
// and the handle, state and service URIs are cleared.
func (m *Manager) Disconnect() {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.resetLocked()
	m.mu.Unlock()
	m.logger.Info("wallet disconnected", "wallet", m.walletName)
	m.notify(EventDisconnected)
}

// Close disconnects and closes all subscriber channels. The manager cannot
// be reused afterwards.
func (m *Manager) Close() {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.resetLocked()
	m.closed = true
	subs := m.subscribers
	m.subscribers = nil
	m.mu.Unlock()
	for _, sub := range subs {
		close(sub)
	}
}

// establish runs the one shared connect routine: enable, then fetch account
// state and service URIs together, then arm the background polls.
func (m *Manager) establish(ctx context.Context, conn connector.Connector, token uuid.UUID, mode establishMode) {
	ectx, cancel := context.WithTimeout(ctx, m.cfg.EnableTimeout)
	api, err := conn.Enable(ectx)
	cancel()
	if err != nil {
		switch {
		case mode == modeManual && connector.IsApprovalPending(err):
			m.awaitApproval(ctx, conn, token)
		case mode == modeSilent:
			m.settle(token)
		default:
			m.fail(token, "wallet connection failed: "+err.Error())
		}
		return
	}

	dctx, cancel := context.WithTimeout(ctx, m.cfg.DetailTimeout)
	defer cancel()
	var (
		st   connector.WalletState
		uris connector.ServiceURIConfig
	)
	g, gctx := errgroup.WithContext(dctx)
	g.Go(func() error {
		var err error
		st, err = api.State(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		uris, err = conn.ServiceURIConfig(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		// Connected to the wallet but could not learn who we are; the
		// handle is useless, so drop it.
		if mode == modeSilent {
			m.settle(token)
		} else {
			m.fail(token, "connected but wallet details could not be loaded")
		}
		return
	}

	m.mu.Lock()
	if m.closed || m.attempt != token {
		m.mu.Unlock()
		return
	}
	m.api = api
	m.state = &st
	m.uris = &uris
	m.errMsg = ""
	m.infoMsg = ""
	m.phase = PhaseConnected
	m.armConnectedPollsLocked(ctx, conn, token)
	m.mu.Unlock()
	m.logger.Info("wallet connected", "wallet", m.walletName, "address", st.Address)
	m.notify(EventPhaseChanged)
}

// awaitApproval enters the approval-wait sub-flow and arms the approval
// poll in place of any other poll set.
func (m *Manager) awaitApproval(ctx context.Context, conn connector.Connector, token uuid.UUID) {
	m.mu.Lock()
	if m.closed || m.attempt != token {
		m.mu.Unlock()
		return
	}
	m.disarmPollsLocked()
	pctx, cancel := context.WithCancel(ctx)
	m.pollCancel = cancel
	m.infoMsg = "Approve the connection request in your wallet."
	m.phase = PhaseAwaitingApproval
	m.mu.Unlock()
	m.logger.Info("awaiting wallet approval", "wallet", m.walletName)
	m.notify(EventPhaseChanged)

	go m.approvalLoop(pctx, ctx, conn, token)
}

// approvalLoop polls isEnabled until the user answers the prompt, the
// attempt budget runs out, or a poll fails. pollCtx is the armed approval
// poll; parent outlives it and carries the follow-up establish, whose own
// poll arming cancels pollCtx.
func (m *Manager) approvalLoop(pollCtx, parent context.Context, conn connector.Connector, token uuid.UUID) {
	ticker := time.NewTicker(m.cfg.ApprovalInterval)
	defer ticker.Stop()

	for i := 0; i < m.cfg.ApprovalMaxAttempts; i++ {
		select {
		case <-pollCtx.Done():
			return
		case <-ticker.C:
		}

		cctx, cancel := context.WithTimeout(pollCtx, m.cfg.PollTimeout)
		enabled, err := conn.IsEnabled(cctx)
		cancel()
		if pollCtx.Err() != nil {
			return
		}
		if err != nil {
			m.fail(token, "wallet approval check failed: "+err.Error())
			return
		}
		if enabled {
			m.establish(parent, conn, token, modeApproved)
			return
		}
	}

	m.fail(token, "wallet approval timed out")
}

// armConnectedPollsLocked starts the liveness and account polls for a fresh
// connected session. Caller holds mu.
func (m *Manager) armConnectedPollsLocked(ctx context.Context, conn connector.Connector, token uuid.UUID) {
	m.disarmPollsLocked()
	pctx, cancel := context.WithCancel(ctx)
	m.pollCancel = cancel
	go m.livenessLoop(pctx, conn, token)
	go m.stateLoop(pctx, m.api, token)
}

// livenessLoop detects out-of-band disablement. Any false or failed probe
// ends the session.
func (m *Manager) livenessLoop(ctx context.Context, conn connector.Connector, token uuid.UUID) {
	ticker := time.NewTicker(m.cfg.LivenessInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		cctx, cancel := context.WithTimeout(ctx, m.cfg.PollTimeout)
		enabled, err := conn.IsEnabled(cctx)
		cancel()
		if ctx.Err() != nil {
			return
		}
		if err != nil || !enabled {
			m.forceDisconnect(token, "wallet no longer enabled")
			return
		}
	}
}

// stateLoop detects account switches. A changed address updates the cached
// state in place; a failed probe ends the session.
func (m *Manager) stateLoop(ctx context.Context, api connector.WalletAPI, token uuid.UUID) {
	ticker := time.NewTicker(m.cfg.StateInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		cctx, cancel := context.WithTimeout(ctx, m.cfg.PollTimeout)
		st, err := api.State(cctx)
		cancel()
		if ctx.Err() != nil {
			return
		}
		if err != nil {
			m.forceDisconnect(token, "wallet state unavailable")
			return
		}

		m.mu.Lock()
		if m.closed || m.attempt != token || m.phase != PhaseConnected {
			m.mu.Unlock()
			return
		}
		changed := m.state == nil || m.state.Address != st.Address
		if changed {
			old := ""
			if m.state != nil {
				old = m.state.Address
			}
			m.state = &st
			m.mu.Unlock()
			m.logger.Info("wallet account changed", "wallet", m.walletName, "from", old, "to", st.Address)
			m.notify(EventStateUpdated)
			continue
		}
		m.mu.Unlock()
	}
}

// settle ends a silent attempt without surfacing anything: back to Idle
// unless the attempt was superseded.
func (m *Manager) settle(token uuid.UUID) {
	m.mu.Lock()
	if m.closed || m.attempt != token {
		m.mu.Unlock()
		return
	}
	m.resetLocked()
	m.mu.Unlock()
	m.notify(EventPhaseChanged)
}

// fail ends a manual attempt in PhaseError with a short human-readable
// message.
func (m *Manager) fail(token uuid.UUID, msg string) {
	m.mu.Lock()
	if m.closed || m.attempt != token {
		m.mu.Unlock()
		return
	}
	m.resetLocked()
	m.errMsg = msg
	m.phase = PhaseError
	m.mu.Unlock()
	m.logger.Error(msg, "wallet", m.walletName)
	m.notify(EventPhaseChanged)
}

// forceDisconnect ends a connected session after a background poll failure.
// Per the error model this is a disconnect, not a surfaced error.
func (m *Manager) forceDisconnect(token uuid.UUID, reason string) {
	m.mu.Lock()
	if m.closed || m.attempt != token {
		m.mu.Unlock()
		return
	}
	m.resetLocked()
	m.infoMsg = "Wallet disconnected."
	m.mu.Unlock()
	m.logger.Warn("wallet session lost", "wallet", m.walletName, "reason", reason)
	m.notify(EventDisconnected)
}

// resetLocked cancels polls and clears all session state. Caller holds mu.
func (m *Manager) resetLocked() {
	m.disarmPollsLocked()
	m.attempt = uuid.Nil
	m.api = nil
	m.state = nil
	m.uris = nil
	m.errMsg = ""
	m.infoMsg = ""
	m.phase = PhaseIdle
}

// disarmPollsLocked stops whichever poll set is armed. Caller holds mu.
func (m *Manager) disarmPollsLocked() {
	if m.pollCancel != nil {
		m.pollCancel()
		m.pollCancel = nil
	}
}

// newAttemptLocked mints the token for a new attempt. Caller holds mu.
func (m *Manager) newAttemptLocked() uuid.UUID {
	m.attempt = uuid.New()
	return m.attempt
}

// notify fans an event out to subscribers without blocking on slow ones.
func (m *Manager) notify(t EventType) {
	snap := m.Snapshot()
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, sub := range m.subscribers {
		select {
		case sub <- Event{Type: t, Snapshot: snap}:
		default:
		}
	}
}
