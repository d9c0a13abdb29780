package session

// Phase is the connection lifecycle state.
type Phase int

const (
	// PhaseIdle means no wallet session exists and nothing is in flight.
	PhaseIdle Phase = iota

	// PhaseCheckingInitial is the silent startup probe. Its failures are
	// never surfaced.
	PhaseCheckingInitial

	// PhaseConnecting means a manual enable attempt is in flight.
	PhaseConnecting

	// PhaseAwaitingApproval means the wallet is showing its approval prompt
	// and the session is polling for the user's answer.
	PhaseAwaitingApproval

	// PhaseConnected means a wallet handle is held and background polls run.
	PhaseConnected

	// PhaseError is a terminal state for the last attempt; a new manual
	// connect leaves it.
	PhaseError
)

// String returns the lowercase phase name.
func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseCheckingInitial:
		return "checking"
	case PhaseConnecting:
		return "connecting"
	case PhaseAwaitingApproval:
		return "awaiting approval"
	case PhaseConnected:
		return "connected"
	case PhaseError:
		return "error"
	default:
		return "unknown"
	}
}
