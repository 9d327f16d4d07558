package core

import (
	"encoding/json"

	"github.com/rs/zerolog"
)

// CallRelay forwards opaque WebRTC signaling payloads between two peers. It
// never inspects SDP or candidate contents and holds no call state; the
// endpoints run the call state machines. Addressing is the only thing
// enforced here: events go to the target's private channel and nowhere else.
// An offline target means a silent drop; the caller's timeout is the only
// recovery path.
type CallRelay struct {
	presence *Presence
	router   *Router
	log      *zerolog.Logger
}

// NewCallRelay constructs a relay.
func NewCallRelay(presence *Presence, router *Router, logger *zerolog.Logger) *CallRelay {
	return &CallRelay{
		presence: presence,
		router:   router,
		log:      logger,
	}
}

// Offer delivers incoming_call to the callee.
func (r *CallRelay) Offer(targetID int64, signal json.RawMessage, fromID int64, fromName string) {
	r.forward(targetID, Event{Name: EventIncomingCall, Data: IncomingCallPayload{
		Signal: signal,
		From:   fromID,
		Name:   fromName,
	}})
}

// Answer delivers call_accepted with the answer signal to the caller.
func (r *CallRelay) Answer(targetID int64, signal json.RawMessage) {
	r.forward(targetID, Event{Name: EventCallAccepted, Data: signal})
}

// Reject delivers call_rejected to the caller.
func (r *CallRelay) Reject(targetID int64) {
	r.forward(targetID, Event{Name: EventCallRejected})
}

// End delivers call_ended to the peer.
func (r *CallRelay) End(targetID int64) {
	r.forward(targetID, Event{Name: EventCallEnded})
}

// Candidate delivers one ICE candidate to the peer. Candidates are unordered
// by ICE semantics, so best-effort per-candidate delivery is enough.
func (r *CallRelay) Candidate(targetID int64, candidate json.RawMessage) {
	r.forward(targetID, Event{Name: EventICECandidate, Data: candidate})
}

func (r *CallRelay) forward(targetID int64, ev Event) {
	if !r.presence.IsOnline(targetID) {
		r.log.Debug().Int64("target_id", targetID).Str("event", ev.Name).Msg("signaling target offline, dropping")
		return
	}
	r.router.Publish(UserChannel(targetID), ev)
}
