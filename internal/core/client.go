package core

// Client is one live connection as seen by the core layer. A client belongs
// to exactly one user once the join handshake completes; until then UserID
// is zero and the client receives nothing.
type Client struct {
	ID     string
	UserID int64
	Events chan Event
}

// NewClient constructs a client with a buffered outbound event channel.
func NewClient(id string, buffer int) *Client {
	if buffer <= 0 {
		buffer = 32
	}
	return &Client{
		ID:     id,
		Events: make(chan Event, buffer),
	}
}

// Send queues an event for delivery without blocking. Returns false when the
// client's buffer is full and the event was dropped; a stalled connection
// must never backpressure a publish.
func (c *Client) Send(ev Event) bool {
	select {
	case c.Events <- ev:
		return true
	default:
		return false
	}
}
