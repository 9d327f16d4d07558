package core

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/mingle-im/mingle-server/internal/store"
)

// Hub owns the realtime kernel: the presence registry, the room router and
// the components that feed it. One Hub per process; all of its state is in
// memory and dies with the process.
type Hub struct {
	presence   *Presence
	router     *Router
	dispatcher *Dispatcher
	tracker    *Tracker
	calls      *CallRelay
	directory  store.GroupStore
	log        *zerolog.Logger
}

// NewHub wires the kernel against the given store.
func NewHub(st store.Store, logger *zerolog.Logger) *Hub {
	presence := NewPresence()
	router := NewRouter()
	return &Hub{
		presence:   presence,
		router:     router,
		dispatcher: NewDispatcher(st, st, router, logger),
		tracker:    NewTracker(st, router, logger),
		calls:      NewCallRelay(presence, router, logger),
		directory:  st,
		log:        logger,
	}
}

// Dispatcher returns the message dispatcher.
func (h *Hub) Dispatcher() *Dispatcher { return h.dispatcher }

// Tracker returns the typing/read-receipt tracker.
func (h *Hub) Tracker() *Tracker { return h.tracker }

// Calls returns the call signaling relay.
func (h *Hub) Calls() *CallRelay { return h.calls }

// Presence returns the presence registry.
func (h *Hub) Presence() *Presence { return h.presence }

// Router returns the room router.
func (h *Hub) Router() *Router { return h.router }

// Join completes the handshake for a connection: registers presence,
// subscribes the private mailbox channel and every group channel the user is
// a member of at this moment. Group membership is resolved once here;
// later changes flow through MembershipChanged.
func (h *Hub) Join(ctx context.Context, c *Client, userID int64) error {
	c.UserID = userID

	cameOnline, online := h.presence.Register(c, userID)
	h.router.Subscribe(c, UserChannel(userID))

	groups, err := h.directory.GroupsOf(ctx, userID)
	if err != nil {
		// The connection is still usable for direct messages.
		h.log.Warn().Err(err).Int64("user_id", userID).Msg("failed to resolve group memberships")
	}
	for _, groupID := range groups {
		h.router.Subscribe(c, GroupChannel(groupID))
	}

	if cameOnline {
		h.router.Broadcast(Event{Name: EventOnlineUsers, Data: online})
	} else {
		// No transition to announce; only the joining connection needs
		// the current roster.
		c.Send(Event{Name: EventOnlineUsers, Data: online})
	}

	h.log.Debug().Str("conn_id", c.ID).Int64("user_id", userID).Int("groups", len(groups)).Msg("client joined")
	return nil
}

// Disconnect removes a connection from the router and the presence registry.
// Safe to call for connections that never joined or already disconnected.
func (h *Hub) Disconnect(c *Client) {
	h.router.Drop(c)

	userID, wentOffline, online := h.presence.Unregister(c)
	if wentOffline {
		h.router.Broadcast(Event{Name: EventOnlineUsers, Data: online})
	}
	if userID != 0 {
		h.log.Debug().Str("conn_id", c.ID).Int64("user_id", userID).Bool("went_offline", wentOffline).Msg("client disconnected")
	}
}

// MembershipChanged resubscribes a user's live connections when they are
// added to or removed from a group, so membership changes take effect
// without a reconnect.
func (h *Hub) MembershipChanged(groupID, userID int64, added bool) {
	channel := GroupChannel(groupID)
	for _, c := range h.presence.ClientsOf(userID) {
		if added {
			h.router.Subscribe(c, channel)
		} else {
			h.router.Unsubscribe(c, channel)
		}
	}
}
