package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"wallet-connect-tui/connector"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeWallet is a scriptable WalletAPI.
type fakeWallet struct {
	mu       sync.Mutex
	state    connector.WalletState
	stateErr error
}

func (w *fakeWallet) State(ctx context.Context) (connector.WalletState, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.stateErr != nil {
		return connector.WalletState{}, w.stateErr
	}
	return w.state, nil
}

func (w *fakeWallet) setAddress(addr string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.state.Address = addr
}

func (w *fakeWallet) setErr(err error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.stateErr = err
}

// fakeConnector is a scriptable Connector.
type fakeConnector struct {
	name string

	mu             sync.Mutex
	enabled        bool
	enableErr      error
	enableGate     chan struct{} // when set, Enable blocks until it is closed
	isEnabledErr   error
	uris           connector.ServiceURIConfig
	urisErr        error
	wallet         *fakeWallet
	enableCalls    int
	isEnabledCalls int
}

func newFakeConnector(name, addr string) *fakeConnector {
	return &fakeConnector{
		name:   name,
		wallet: &fakeWallet{state: connector.WalletState{Address: addr}},
		uris:   connector.ServiceURIConfig{NodeRPC: "http://127.0.0.1:8545"},
	}
}

func (c *fakeConnector) Name() string { return c.name }

func (c *fakeConnector) Enable(ctx context.Context) (connector.WalletAPI, error) {
	c.mu.Lock()
	c.enableCalls++
	gate := c.enableGate
	err := c.enableErr
	c.mu.Unlock()

	// Block without holding the mutex so the test can keep scripting.
	if gate != nil {
		<-gate
	}
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.enabled = true
	c.mu.Unlock()
	return c.wallet, nil
}

func (c *fakeConnector) IsEnabled(ctx context.Context) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.isEnabledCalls++
	if c.isEnabledErr != nil {
		return false, c.isEnabledErr
	}
	return c.enabled, nil
}

func (c *fakeConnector) ServiceURIConfig(ctx context.Context) (connector.ServiceURIConfig, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.urisErr != nil {
		return connector.ServiceURIConfig{}, c.urisErr
	}
	return c.uris, nil
}

func (c *fakeConnector) set(fn func(*fakeConnector)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fn(c)
}

func (c *fakeConnector) counts() (enable, isEnabled int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.enableCalls, c.isEnabledCalls
}

func testConfig() Config {
	return Config{
		LivenessInterval:    10 * time.Millisecond,
		StateInterval:       10 * time.Millisecond,
		ApprovalInterval:    10 * time.Millisecond,
		ApprovalMaxAttempts: 5,
		EnableTimeout:       time.Second,
		PollTimeout:         time.Second,
		DetailTimeout:       time.Second,
	}
}

func newTestManager(t *testing.T, conns ...connector.Connector) *Manager {
	t.Helper()
	reg := connector.NewRegistry()
	name := "lace"
	for _, c := range conns {
		reg.Register(c)
		name = c.Name()
	}
	m := New(testConfig(), reg, name, nil)
	t.Cleanup(m.Close)
	return m
}

func waitForPhase(t *testing.T, m *Manager, p Phase) {
	t.Helper()
	require.Eventually(t, func() bool {
		return m.Snapshot().Phase == p
	}, 2*time.Second, 2*time.Millisecond, "never reached phase %s (now %s)", p, m.Snapshot().Phase)
}

func TestConnectHappyPath(t *testing.T) {
	fc := newFakeConnector("lace", "addr_one")
	m := newTestManager(t, fc)

	m.Connect(context.Background())
	waitForPhase(t, m, PhaseConnected)

	snap := m.Snapshot()
	assert.True(t, snap.IsConnected())
	assert.False(t, snap.IsConnecting())
	assert.Equal(t, "addr_one", snap.Address)
	assert.NotNil(t, snap.State)
	require.NotNil(t, snap.ServiceURIs)
	assert.Equal(t, "http://127.0.0.1:8545", snap.ServiceURIs.NodeRPC)
	assert.NotNil(t, m.WalletAPI())
	assert.Empty(t, snap.Err)
}

func TestConnectConnectorMissing(t *testing.T) {
	reg := connector.NewRegistry()
	m := New(testConfig(), reg, "lace", nil)
	t.Cleanup(m.Close)

	m.Connect(context.Background())
	waitForPhase(t, m, PhaseError)

	snap := m.Snapshot()
	assert.Contains(t, snap.Err, "not found")
	assert.False(t, snap.IsConnecting())
	assert.Nil(t, m.WalletAPI())
}

func TestConnectNoOpWhileConnected(t *testing.T) {
	fc := newFakeConnector("lace", "addr_one")
	m := newTestManager(t, fc)

	m.Connect(context.Background())
	waitForPhase(t, m, PhaseConnected)
	enables, _ := fc.counts()

	m.Connect(context.Background())
	time.Sleep(50 * time.Millisecond)

	assert.Equal(t, PhaseConnected, m.Snapshot().Phase)
	enablesAfter, _ := fc.counts()
	assert.Equal(t, enables, enablesAfter, "second Connect must not re-enable")
}

func TestConnectNoOpWhileAwaitingApproval(t *testing.T) {
	fc := newFakeConnector("lace", "addr_one")
	fc.set(func(c *fakeConnector) {
		c.enableErr = &connector.Error{Code: connector.CodeApprovalPending, Message: "user prompt open"}
	})
	m := newTestManager(t, fc)

	m.Connect(context.Background())
	waitForPhase(t, m, PhaseAwaitingApproval)
	enables, _ := fc.counts()

	m.Connect(context.Background())
	time.Sleep(30 * time.Millisecond)

	assert.Equal(t, PhaseAwaitingApproval, m.Snapshot().Phase)
	enablesAfter, _ := fc.counts()
	assert.Equal(t, enables, enablesAfter)
}

func TestSilentStartConnects(t *testing.T) {
	fc := newFakeConnector("lace", "addr_one")
	fc.set(func(c *fakeConnector) { c.enabled = true })
	m := newTestManager(t, fc)

	m.Start(context.Background())
	waitForPhase(t, m, PhaseConnected)
	assert.Equal(t, "addr_one", m.Snapshot().Address)
}

func TestSilentStartSwallowsErrors(t *testing.T) {
	fc := newFakeConnector("lace", "addr_one")
	fc.set(func(c *fakeConnector) {
		c.enabled = true
		c.enableErr = errors.New("wallet exploded")
	})
	m := newTestManager(t, fc)

	m.Start(context.Background())
	waitForPhase(t, m, PhaseIdle)

	snap := m.Snapshot()
	assert.Empty(t, snap.Err, "silent check must not surface errors")
	assert.Nil(t, m.WalletAPI())
}

func TestSilentStartNotEnabled(t *testing.T) {
	fc := newFakeConnector("lace", "addr_one")
	m := newTestManager(t, fc)

	m.Start(context.Background())
	waitForPhase(t, m, PhaseIdle)
	enables, _ := fc.counts()
	assert.Zero(t, enables, "must not call enable when not previously enabled")
}

func TestApprovalPendingFlow(t *testing.T) {
	fc := newFakeConnector("lace", "addr_one")
	fc.set(func(c *fakeConnector) {
		c.enableErr = &connector.Error{Code: connector.CodeApprovalPending, Message: "user prompt open"}
	})
	m := newTestManager(t, fc)

	m.Connect(context.Background())
	waitForPhase(t, m, PhaseAwaitingApproval)

	snap := m.Snapshot()
	assert.Empty(t, snap.Err, "approval pending is informational, not an error")
	assert.NotEmpty(t, snap.Info)
	assert.True(t, snap.IsConnecting())

	// The user clicks approve: enable starts succeeding and isEnabled
	// flips true on the next poll.
	fc.set(func(c *fakeConnector) {
		c.enableErr = nil
		c.enabled = true
	})
	waitForPhase(t, m, PhaseConnected)
	assert.Equal(t, "addr_one", m.Snapshot().Address)
}

func TestApprovalPendingByMessage(t *testing.T) {
	fc := newFakeConnector("lace", "addr_one")
	fc.set(func(c *fakeConnector) {
		c.enableErr = errors.New("an unauthorized API was called, call enable() first")
	})
	m := newTestManager(t, fc)

	m.Connect(context.Background())
	waitForPhase(t, m, PhaseAwaitingApproval)
}

func TestApprovalTimeout(t *testing.T) {
	fc := newFakeConnector("lace", "addr_one")
	fc.set(func(c *fakeConnector) {
		c.enableErr = &connector.Error{Code: connector.CodeApprovalPending, Message: "user prompt open"}
	})
	m := newTestManager(t, fc)

	m.Connect(context.Background())
	waitForPhase(t, m, PhaseError)
	assert.Contains(t, m.Snapshot().Err, "timed out")

	// Budget exhausted: the approval poll must be disarmed.
	_, polls := fc.counts()
	time.Sleep(60 * time.Millisecond)
	_, pollsAfter := fc.counts()
	assert.Equal(t, polls, pollsAfter, "approval poll still running after timeout")
}

func TestApprovalPollFailure(t *testing.T) {
	fc := newFakeConnector("lace", "addr_one")
	fc.set(func(c *fakeConnector) {
		c.enableErr = &connector.Error{Code: connector.CodeApprovalPending, Message: "user prompt open"}
	})
	m := newTestManager(t, fc)

	m.Connect(context.Background())
	waitForPhase(t, m, PhaseAwaitingApproval)

	fc.set(func(c *fakeConnector) { c.isEnabledErr = errors.New("daemon gone") })
	waitForPhase(t, m, PhaseError)
	assert.Contains(t, m.Snapshot().Err, "approval check failed")
}

func TestGenericEnableFailure(t *testing.T) {
	fc := newFakeConnector("lace", "addr_one")
	fc.set(func(c *fakeConnector) { c.enableErr = errors.New("user rejected") })
	m := newTestManager(t, fc)

	m.Connect(context.Background())
	waitForPhase(t, m, PhaseError)
	assert.Contains(t, m.Snapshot().Err, "user rejected")
}

func TestDetailFetchFailureDiscardsHandle(t *testing.T) {
	fc := newFakeConnector("lace", "addr_one")
	fc.set(func(c *fakeConnector) { c.urisErr = errors.New("indexer down") })
	m := newTestManager(t, fc)

	m.Connect(context.Background())
	waitForPhase(t, m, PhaseError)

	snap := m.Snapshot()
	assert.Contains(t, snap.Err, "details could not be loaded")
	assert.Nil(t, m.WalletAPI())
	assert.Nil(t, snap.State)
	assert.Nil(t, snap.ServiceURIs)
}

func TestLivenessPollDisconnects(t *testing.T) {
	fc := newFakeConnector("lace", "addr_one")
	m := newTestManager(t, fc)

	m.Connect(context.Background())
	waitForPhase(t, m, PhaseConnected)

	// Out-of-band disablement.
	fc.set(func(c *fakeConnector) { c.enabled = false })
	waitForPhase(t, m, PhaseIdle)

	snap := m.Snapshot()
	assert.Nil(t, m.WalletAPI())
	assert.Nil(t, snap.State)
	assert.Nil(t, snap.ServiceURIs)
	assert.Empty(t, snap.Err, "background loss is a disconnect, not an error")
}

func TestLivenessPollErrorDisconnects(t *testing.T) {
	fc := newFakeConnector("lace", "addr_one")
	m := newTestManager(t, fc)

	m.Connect(context.Background())
	waitForPhase(t, m, PhaseConnected)

	fc.set(func(c *fakeConnector) { c.isEnabledErr = errors.New("daemon gone") })
	waitForPhase(t, m, PhaseIdle)
	assert.Nil(t, m.WalletAPI())
}

func TestStatePollAddressChange(t *testing.T) {
	fc := newFakeConnector("lace", "addr_one")
	m := newTestManager(t, fc)

	m.Connect(context.Background())
	waitForPhase(t, m, PhaseConnected)

	fc.wallet.setAddress("addr_two")
	require.Eventually(t, func() bool {
		return m.Snapshot().Address == "addr_two"
	}, 2*time.Second, 2*time.Millisecond)

	// Still the same session.
	assert.Equal(t, PhaseConnected, m.Snapshot().Phase)
	assert.NotNil(t, m.WalletAPI())
}

func TestStatePollErrorDisconnects(t *testing.T) {
	fc := newFakeConnector("lace", "addr_one")
	m := newTestManager(t, fc)

	m.Connect(context.Background())
	waitForPhase(t, m, PhaseConnected)

	fc.wallet.setErr(errors.New("account locked"))
	waitForPhase(t, m, PhaseIdle)
	assert.Nil(t, m.WalletAPI())
}

func TestDisconnectClearsEverything(t *testing.T) {
	fc := newFakeConnector("lace", "addr_one")
	m := newTestManager(t, fc)

	m.Connect(context.Background())
	waitForPhase(t, m, PhaseConnected)

	m.Disconnect()

	snap := m.Snapshot()
	assert.Equal(t, PhaseIdle, snap.Phase)
	assert.Nil(t, m.WalletAPI())
	assert.Nil(t, snap.State)
	assert.Nil(t, snap.ServiceURIs)

	// Connected polls must be gone.
	_, polls := fc.counts()
	time.Sleep(60 * time.Millisecond)
	_, pollsAfter := fc.counts()
	assert.Equal(t, polls, pollsAfter, "background poll still running after disconnect")
}

func TestDisconnectDuringConnectDiscardsResult(t *testing.T) {
	fc := newFakeConnector("lace", "addr_one")
	gate := make(chan struct{})
	fc.set(func(c *fakeConnector) { c.enableGate = gate })
	m := newTestManager(t, fc)

	m.Connect(context.Background())
	waitForPhase(t, m, PhaseConnecting)

	// Tear down while enable is still in flight.
	m.Disconnect()
	assert.Equal(t, PhaseIdle, m.Snapshot().Phase)

	// The stalled enable now resolves successfully; its result belongs to a
	// superseded attempt and must not resurrect the session.
	close(gate)
	time.Sleep(50 * time.Millisecond)

	snap := m.Snapshot()
	assert.Equal(t, PhaseIdle, snap.Phase)
	assert.Nil(t, m.WalletAPI())
	assert.Nil(t, snap.State)
	assert.Nil(t, snap.ServiceURIs)
}

func TestHandleInvariant(t *testing.T) {
	fc := newFakeConnector("lace", "addr_one")
	m := newTestManager(t, fc)

	check := func() {
		snap := m.Snapshot()
		if snap.Phase == PhaseConnected {
			assert.NotNil(t, m.WalletAPI())
		}
		if m.WalletAPI() != nil {
			assert.Equal(t, PhaseConnected, m.Snapshot().Phase)
		}
	}

	check()
	m.Connect(context.Background())
	waitForPhase(t, m, PhaseConnected)
	check()
	m.Disconnect()
	check()
	m.Connect(context.Background())
	waitForPhase(t, m, PhaseConnected)
	check()
}

func TestSubscribeReceivesEvents(t *testing.T) {
	fc := newFakeConnector("lace", "addr_one")
	m := newTestManager(t, fc)
	sub := m.Subscribe()

	m.Connect(context.Background())

	deadline := time.After(2 * time.Second)
	for {
		select {
		case ev := <-sub:
			if ev.Type == EventPhaseChanged && ev.Snapshot.Phase == PhaseConnected {
				assert.Equal(t, "addr_one", ev.Snapshot.Address)
				return
			}
		case <-deadline:
			t.Fatal("never saw a connected phase event")
		}
	}
}

func TestUnsubscribeClosesChannel(t *testing.T) {
	fc := newFakeConnector("lace", "addr_one")
	m := newTestManager(t, fc)
	sub := m.Subscribe()
	m.Unsubscribe(sub)

	_, open := <-sub
	assert.False(t, open)
}

func TestSnapshotIsACopy(t *testing.T) {
	fc := newFakeConnector("lace", "addr_one")
	m := newTestManager(t, fc)

	m.Connect(context.Background())
	waitForPhase(t, m, PhaseConnected)

	snap := m.Snapshot()
	snap.State.Address = "mutated"
	assert.Equal(t, "addr_one", m.Snapshot().Address)
}

func TestPhaseString(t *testing.T) {
	assert.Equal(t, "idle", PhaseIdle.String())
	assert.Equal(t, "awaiting approval", PhaseAwaitingApproval.String())
	assert.Equal(t, "connected", PhaseConnected.String())
	assert.Equal(t, "unknown", Phase(42).String())
}
