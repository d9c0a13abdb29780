package main

import (
	"wallet-connect-tui/rpc"
	"wallet-connect-tui/session"
)

// -------------------- TEA MESSAGES --------------------
// All custom message types for The Elm Architecture

// sessionEventMsg carries a state change from the wallet session
type sessionEventMsg struct {
	ev session.Event
}

// sessionClosedMsg indicates the session event channel was closed
type sessionClosedMsg struct{}

// clipboardCopiedMsg indicates clipboard copy completed
type clipboardCopiedMsg struct{}

// logInitMsg signals that log viewport should be initialized
type logInitMsg struct{}

// nodeConnectedMsg contains result of a node RPC connection attempt
type nodeConnectedMsg struct {
	client *rpc.Client
	err    error
}

// detailsLoadedMsg contains wallet balance details after loading
type detailsLoadedMsg struct {
	d   rpc.WalletDetails
	err error
}
