package connector

import (
	"context"
)

// WalletState is the account snapshot a wallet reports while enabled.
type WalletState struct {
	Address string `json:"address"`
	Label   string `json:"label,omitempty"`
}

// ServiceURIConfig lists the backing services a wallet is configured against.
// NodeRPC is the chain RPC endpoint; Indexer and Explorer are optional.
type ServiceURIConfig struct {
	NodeRPC  string `json:"nodeRpc"`
	Indexer  string `json:"indexer,omitempty"`
	Explorer string `json:"explorer,omitempty"`
}

// WalletAPI is the handle returned by a successful Enable. It stays valid
// until the wallet revokes access or the session is torn down.
type WalletAPI interface {
	// State returns the current account snapshot.
	State(ctx context.Context) (WalletState, error)
}

// Connector is the injected-wallet contract: a named wallet advertising
// itself to this process. Enable prompts the user for access on first call
// and may fail with the approval-pending signal while the prompt is open.
type Connector interface {
	Name() string
	Enable(ctx context.Context) (WalletAPI, error)
	IsEnabled(ctx context.Context) (bool, error)
	ServiceURIConfig(ctx context.Context) (ServiceURIConfig, error)
}
