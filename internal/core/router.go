package core

import "sync"

// Router maintains which connections are subscribed to which channels and
// fans events out to them. Delivery is best-effort: a full client buffer
// drops the event for that client only.
type Router struct {
	mu       sync.RWMutex
	channels map[string]map[*Client]struct{}
	clients  map[*Client]map[string]struct{}
}

// NewRouter constructs an empty router.
func NewRouter() *Router {
	return &Router{
		channels: make(map[string]map[*Client]struct{}),
		clients:  make(map[*Client]map[string]struct{}),
	}
}

// Subscribe adds the connection to a channel. Re-subscribing is a no-op.
func (r *Router) Subscribe(c *Client, channel string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	set, ok := r.channels[channel]
	if !ok {
		set = make(map[*Client]struct{})
		r.channels[channel] = set
	}
	set[c] = struct{}{}

	subs, ok := r.clients[c]
	if !ok {
		subs = make(map[string]struct{})
		r.clients[c] = subs
	}
	subs[channel] = struct{}{}
}

// Unsubscribe removes the connection from a channel. Empty channels are
// removed, not left behind.
func (r *Router) Unsubscribe(c *Client, channel string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.unsubscribeLocked(c, channel)
}

func (r *Router) unsubscribeLocked(c *Client, channel string) {
	if set, ok := r.channels[channel]; ok {
		delete(set, c)
		if len(set) == 0 {
			delete(r.channels, channel)
		}
	}
	if subs, ok := r.clients[c]; ok {
		delete(subs, channel)
		if len(subs) == 0 {
			delete(r.clients, c)
		}
	}
}

// Drop removes the connection from every channel it is subscribed to.
func (r *Router) Drop(c *Client) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for channel := range r.clients[c] {
		if set, ok := r.channels[channel]; ok {
			delete(set, c)
			if len(set) == 0 {
				delete(r.channels, channel)
			}
		}
	}
	delete(r.clients, c)
}

// Publish delivers an event to every connection subscribed to the channel.
func (r *Router) Publish(channel string, ev Event) {
	r.PublishExcept(channel, ev, nil)
}

// PublishExcept delivers an event to every subscriber of the channel except
// one connection, typically the sender that already holds the data.
func (r *Router) PublishExcept(channel string, ev Event, except *Client) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for c := range r.channels[channel] {
		if c == except {
			continue
		}
		c.Send(ev)
	}
}

// Broadcast delivers an event to every known connection.
func (r *Router) Broadcast(ev Event) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for c := range r.clients {
		c.Send(ev)
	}
}

// Subscriptions returns a snapshot of the connection's channel set.
func (r *Router) Subscriptions(c *Client) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	subs := make([]string, 0, len(r.clients[c]))
	for channel := range r.clients[c] {
		subs = append(subs, channel)
	}
	return subs
}
