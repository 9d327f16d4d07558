package core

import (
	"sort"
	"sync"
)

// Presence tracks which users currently hold live connections. A user is
// online iff their connection set is non-empty; the entry is removed, not
// left empty, when the last connection goes away.
type Presence struct {
	mu     sync.Mutex
	users  map[int64]map[*Client]struct{}
	owners map[*Client]int64
}

// NewPresence constructs an empty registry.
func NewPresence() *Presence {
	return &Presence{
		users:  make(map[int64]map[*Client]struct{}),
		owners: make(map[*Client]int64),
	}
}

// Register adds a connection to the user's connection set. Idempotent for a
// connection already registered to the same user. Returns whether the user
// transitioned offline→online, plus the online snapshot taken inside the
// same critical section so the broadcast cannot observe a stale roster.
func (p *Presence) Register(c *Client, userID int64) (cameOnline bool, online []int64) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if owner, ok := p.owners[c]; ok && owner == userID {
		return false, p.onlineLocked()
	}

	set, ok := p.users[userID]
	if !ok {
		set = make(map[*Client]struct{})
		p.users[userID] = set
		cameOnline = true
	}
	set[c] = struct{}{}
	p.owners[c] = userID

	return cameOnline, p.onlineLocked()
}

// Unregister removes the connection from whichever user entry holds it.
// Unknown connections are a no-op, which absorbs late or duplicate
// disconnect events. Returns whether the owning user went offline and the
// snapshot taken atomically with the removal.
func (p *Presence) Unregister(c *Client) (userID int64, wentOffline bool, online []int64) {
	p.mu.Lock()
	defer p.mu.Unlock()

	userID, ok := p.owners[c]
	if !ok {
		return 0, false, p.onlineLocked()
	}
	delete(p.owners, c)

	set := p.users[userID]
	delete(set, c)
	if len(set) == 0 {
		delete(p.users, userID)
		wentOffline = true
	}

	return userID, wentOffline, p.onlineLocked()
}

// IsOnline reports whether the user has at least one live connection.
func (p *Presence) IsOnline(userID int64) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, ok := p.users[userID]
	return ok
}

// OnlineUserIDs returns a sorted snapshot of all online user IDs.
func (p *Presence) OnlineUserIDs() []int64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.onlineLocked()
}

// ClientsOf returns the live connections of a user.
func (p *Presence) ClientsOf(userID int64) []*Client {
	p.mu.Lock()
	defer p.mu.Unlock()

	set := p.users[userID]
	clients := make([]*Client, 0, len(set))
	for c := range set {
		clients = append(clients, c)
	}
	return clients
}

func (p *Presence) onlineLocked() []int64 {
	ids := make([]int64, 0, len(p.users))
	for id := range p.users {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
