package service

// Broadcaster sends real-time events to clients subscribed to a session.
// Implemented by the WebSocket hub.
type Broadcaster interface {
	BroadcastSessionEvent(sessionID string, eventType string, data any)
}

// NoopBroadcaster is a no-op implementation for testing or when WS is disabled.
type NoopBroadcaster struct{}

func (NoopBroadcaster) BroadcastSessionEvent(string, string, any) {}

// Event types sent to session subscribers.
const (
	EventTurnResolved = "turn_resolved"
	EventChatMessage  = "chat_message"
	EventCityFounded  = "city_founded"
	EventQueueChanged = "queue_changed"
)
