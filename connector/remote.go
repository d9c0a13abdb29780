package connector

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// DefaultCallTimeout bounds a single connector round trip when the caller's
// context carries no deadline of its own.
const DefaultCallTimeout = 10 * time.Second

// Remote is a Connector backed by a local wallet daemon speaking a JSON
// request/response protocol over a WebSocket. Calls are serialized on one
// connection; a transport failure drops the connection so the next call
// redials.
type Remote struct {
	name   string
	url    string
	dialer *websocket.Dialer

	mu   sync.Mutex
	conn *websocket.Conn
}

// NewRemote creates a connector for the daemon endpoint at url. No network
// activity happens until the first call.
func NewRemote(name, url string) *Remote {
	return &Remote{
		name:   name,
		url:    url,
		dialer: websocket.DefaultDialer,
	}
}

// Name returns the connector name used for registry lookup.
func (r *Remote) Name() string { return r.name }

// Enable asks the daemon for wallet access. While the user has the approval
// prompt open the daemon answers with code -3, which callers detect via
// IsApprovalPending.
func (r *Remote) Enable(ctx context.Context) (WalletAPI, error) {
	if _, err := r.call(ctx, "enable"); err != nil {
		return nil, err
	}
	return &remoteWallet{conn: r}, nil
}

// IsEnabled reports whether this process already has wallet access.
func (r *Remote) IsEnabled(ctx context.Context) (bool, error) {
	raw, err := r.call(ctx, "isEnabled")
	if err != nil {
		return false, err
	}
	var enabled bool
	if err := json.Unmarshal(raw, &enabled); err != nil {
		return false, fmt.Errorf("connector %q: bad isEnabled payload: %w", r.name, err)
	}
	return enabled, nil
}

// ServiceURIConfig returns the service endpoints the wallet is configured
// against.
func (r *Remote) ServiceURIConfig(ctx context.Context) (ServiceURIConfig, error) {
	raw, err := r.call(ctx, "serviceUriConfig")
	if err != nil {
		return ServiceURIConfig{}, err
	}
	var uris ServiceURIConfig
	if err := json.Unmarshal(raw, &uris); err != nil {
		return ServiceURIConfig{}, fmt.Errorf("connector %q: bad serviceUriConfig payload: %w", r.name, err)
	}
	return uris, nil
}

// Close drops the daemon connection, if any.
func (r *Remote) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.conn == nil {
		return nil
	}
	err := r.conn.Close()
	r.conn = nil
	return err
}

// remoteWallet is the WalletAPI handle for an enabled Remote.
type remoteWallet struct {
	conn *Remote
}

func (w *remoteWallet) State(ctx context.Context) (WalletState, error) {
	raw, err := w.conn.call(ctx, "state")
	if err != nil {
		return WalletState{}, err
	}
	var st WalletState
	if err := json.Unmarshal(raw, &st); err != nil {
		return WalletState{}, fmt.Errorf("connector %q: bad state payload: %w", w.conn.name, err)
	}
	return st, nil
}

type wireRequest struct {
	ID     string `json:"id"`
	Method string `json:"method"`
}

type wireError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type wireResponse struct {
	ID     string          `json:"id"`
	Result json.RawMessage `json:"result,omitempty"`
	Error  *wireError      `json:"error,omitempty"`
}

// call performs one request/response round trip. Responses are matched to
// requests by id so a daemon that interleaves stray frames cannot confuse a
// caller.
func (r *Remote) call(ctx context.Context, method string) (json.RawMessage, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	deadline, ok := ctx.Deadline()
	if !ok {
		deadline = time.Now().Add(DefaultCallTimeout)
	}

	if r.conn == nil {
		conn, _, err := r.dialer.DialContext(ctx, r.url, nil)
		if err != nil {
			return nil, fmt.Errorf("connector %q: dial %s: %w", r.name, r.url, err)
		}
		r.conn = conn
	}

	req := wireRequest{ID: uuid.NewString(), Method: method}

	if err := r.conn.SetWriteDeadline(deadline); err != nil {
		r.dropLocked()
		return nil, fmt.Errorf("connector %q: %s: %w", r.name, method, err)
	}
	if err := r.conn.WriteJSON(req); err != nil {
		r.dropLocked()
		return nil, fmt.Errorf("connector %q: %s: %w", r.name, method, err)
	}

	if err := r.conn.SetReadDeadline(deadline); err != nil {
		r.dropLocked()
		return nil, fmt.Errorf("connector %q: %s: %w", r.name, method, err)
	}
	for {
		var resp wireResponse
		if err := r.conn.ReadJSON(&resp); err != nil {
			r.dropLocked()
			return nil, fmt.Errorf("connector %q: %s: %w", r.name, method, err)
		}
		if resp.ID != req.ID {
			continue
		}
		if resp.Error != nil {
			return nil, &Error{Code: resp.Error.Code, Message: resp.Error.Message}
		}
		return resp.Result, nil
	}
}

// dropLocked closes the connection after a transport error. Caller holds mu.
func (r *Remote) dropLocked() {
	if r.conn != nil {
		r.conn.Close()
		r.conn = nil
	}
}
