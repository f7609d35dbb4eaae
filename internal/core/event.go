package core

// EventKind is a notification the core emits about session activity.
type EventKind int

const (
	// EventConnected fires once a session is registered.
	EventConnected EventKind = iota
	// EventDisconnected fires once a session has left the registry.
	EventDisconnected
	// EventCommand fires for every parsed command line.
	EventCommand
	// EventRenamed fires after a successful username change.
	EventRenamed
	// EventBanned fires when a user reaches the report limit.
	EventBanned
	// EventUnbanned fires when a ban expires for a user still online.
	EventUnbanned
	// EventError reports a recoverable failure tied to a session.
	EventError
)

var eventNames = [...]string{
	EventConnected:    "connected",
	EventDisconnected: "disconnected",
	EventCommand:      "command",
	EventRenamed:      "renamed",
	EventBanned:       "banned",
	EventUnbanned:     "unbanned",
	EventError:        "error",
}

func (k EventKind) String() string {
	if int(k) < len(eventNames) {
		return eventNames[k]
	}
	return "unknown"
}

// Event describes what happened in the system.
type Event struct {
	Kind      EventKind
	SessionID string
	User      string
	Remote    string
	Command   string
	Err       error
}

// Observer receives hub events. It is called synchronously, never with the hub
// lock held, so it may query the Hub; it must not block.
type Observer func(Event)
