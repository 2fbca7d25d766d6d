package domain

type MessageStatus string

const (
	MessageStatusQueued    MessageStatus = "QUEUED"
	MessageStatusInFlight  MessageStatus = "IN_FLIGHT"
	MessageStatusConsumed  MessageStatus = "CONSUMED"
	MessageStatusCompleted MessageStatus = "COMPLETED"
)

// CanTransitionTo follows QUEUED -> IN_FLIGHT (repeatable) -> CONSUMED ->
// COMPLETED.
func (s MessageStatus) CanTransitionTo(next MessageStatus) bool {
	switch s {
	case MessageStatusQueued:
		return next == MessageStatusInFlight
	case MessageStatusInFlight:
		return next == MessageStatusInFlight || next == MessageStatusConsumed
	case MessageStatusConsumed:
		return next == MessageStatusCompleted
	}
	return false
}

// String representation (for logging)
func (s MessageStatus) String() string {
	return string(s)
}
