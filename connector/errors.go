package connector

import (
	"errors"
	"fmt"
	"strings"
)

// CodeApprovalPending is the error code wallets return from enable() while
// the user-approval prompt is still open.
const CodeApprovalPending = -3

// ErrNotFound is returned by Registry.Lookup for unknown connector names.
var ErrNotFound = errors.New("wallet connector not found")

// Error is a structured failure reported by a wallet connector.
type Error struct {
	Code    int
	Message string
}

func (e *Error) Error() string {
	if e.Code != 0 {
		return fmt.Sprintf("connector error %d: %s", e.Code, e.Message)
	}
	return e.Message
}

// IsApprovalPending reports whether err is the distinguished signal meaning
// the wallet is showing an approval prompt that has not been answered yet.
// The numeric code is authoritative; the message check covers wallets that
// surface plain errors instead of coded ones.
func IsApprovalPending(err error) bool {
	if err == nil {
		return false
	}
	var ce *Error
	if errors.As(err, &ce) && ce.Code == CodeApprovalPending {
		return true
	}
	return strings.Contains(err.Error(), "enable() first")
}
