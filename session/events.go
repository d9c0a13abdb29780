package session

// EventType identifies what changed on the session.
type EventType string

const (
	EventPhaseChanged EventType = "phase_changed"
	EventStateUpdated EventType = "state_updated"
	EventDisconnected EventType = "disconnected"
)

// Event carries a state-change notification plus the snapshot taken right
// after the change was applied.
type Event struct {
	Type     EventType
	Snapshot Snapshot
}

// Subscriber is a channel that receives session events.
type Subscriber chan Event
