package rpc

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"wallet-connect-tui/connector"

	"github.com/ethereum/go-ethereum/common"
)

func TestConnect(t *testing.T) {
	// Get RPC URL from environment
	rpcURL := os.Getenv("ETH_RPC_URL")
	if rpcURL == "" {
		t.Skip("ETH_RPC_URL not set, skipping connection test")
	}

	t.Run("successful connection", func(t *testing.T) {
		result := Connect(rpcURL)

		if result.Error != nil {
			t.Fatalf("Failed to connect to RPC: %v", result.Error)
		}

		if result.Client == nil {
			t.Fatal("Client is nil despite no error")
		}

		if result.Client.URL != rpcURL {
			t.Errorf("Expected URL %s, got %s", rpcURL, result.Client.URL)
		}

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		chainID, err := result.Client.ChainID(ctx)
		if err != nil {
			t.Errorf("Failed to get chain ID: %v", err)
		} else {
			t.Logf("Connected to chain ID: %s", chainID.String())
		}
	})

	t.Run("connection with timeout", func(t *testing.T) {
		result := ConnectWithTimeout(rpcURL, 10*time.Second)

		if result.Error != nil {
			t.Fatalf("Failed to connect with custom timeout: %v", result.Error)
		}

		if result.Client == nil {
			t.Fatal("Client is nil despite no error")
		}
	})
}

func TestConnectFromURIs(t *testing.T) {
	t.Run("missing node endpoint", func(t *testing.T) {
		result := ConnectFromURIs(connector.ServiceURIConfig{})
		if result.Error == nil {
			t.Fatal("Expected error for empty node RPC endpoint")
		}
		if !strings.Contains(result.Error.Error(), "node RPC") {
			t.Errorf("Unexpected error: %v", result.Error)
		}
	})

	t.Run("uses node endpoint", func(t *testing.T) {
		rpcURL := os.Getenv("ETH_RPC_URL")
		if rpcURL == "" {
			t.Skip("ETH_RPC_URL not set, skipping connection test")
		}
		result := ConnectFromURIs(connector.ServiceURIConfig{NodeRPC: rpcURL})
		if result.Error != nil {
			t.Fatalf("Failed to connect from URIs: %v", result.Error)
		}
		if result.Client.URL != rpcURL {
			t.Errorf("Expected URL %s, got %s", rpcURL, result.Client.URL)
		}
	})
}

func TestLoadWalletDetails(t *testing.T) {
	t.Run("nil client", func(t *testing.T) {
		addr := common.HexToAddress("0x0000000000000000000000000000000000000001")
		d := LoadWalletDetails(nil, addr, nil)

		if d.ErrMessage == "" {
			t.Error("Expected an error message with a nil client")
		}
		if d.EthWei == nil || d.EthWei.Sign() != 0 {
			t.Error("Expected zero native balance with a nil client")
		}
		if d.Address != addr.Hex() {
			t.Errorf("Expected address %s, got %s", addr.Hex(), d.Address)
		}
	})

	t.Run("live balances", func(t *testing.T) {
		rpcURL := os.Getenv("ETH_RPC_URL")
		if rpcURL == "" {
			t.Skip("ETH_RPC_URL not set, skipping balance test")
		}

		result := Connect(rpcURL)
		if result.Error != nil {
			t.Fatalf("Failed to connect: %v", result.Error)
		}

		// Vitalik's address, always holds something
		addr := common.HexToAddress("0xd8dA6BF26964aF9D7eEd9e03E53415D37aA96045")
		watch := []WatchedToken{
			{Symbol: "USDC", Decimals: 6, Address: common.HexToAddress("0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48")},
		}

		d := LoadWalletDetails(result.Client, addr, watch)
		if d.ErrMessage != "" {
			t.Fatalf("Unexpected error: %s", d.ErrMessage)
		}
		if d.EthWei == nil {
			t.Fatal("Native balance is nil")
		}
		t.Logf("ETH wei: %s, tokens: %d", d.EthWei.String(), len(d.Tokens))
	})
}

func TestGenerateQRCode(t *testing.T) {
	t.Run("empty data", func(t *testing.T) {
		if out := GenerateQRCode(""); out != "" {
			t.Errorf("Expected empty output for empty data, got %d bytes", len(out))
		}
	})

	t.Run("renders address", func(t *testing.T) {
		out := GenerateQRCode("0xd8dA6BF26964aF9D7eEd9e03E53415D37aA96045")
		if out == "" {
			t.Fatal("Expected non-empty QR output")
		}
		if !strings.Contains(out, "\n") {
			t.Error("Expected multi-line QR output")
		}
	})
}
