package core

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/mingle-im/mingle-server/internal/store"
)

// memStore is an in-memory store.Store used by the core tests. It mirrors
// the sqlite store's conditional-mutation semantics so authorization paths
// behave the same way.
type memStore struct {
	mu        sync.Mutex
	users     map[int64]*store.User
	messages  map[int64]*store.Message
	reactions map[int64]map[int64]*store.Reaction
	groups    map[int64]*store.Group
	members   map[int64]map[int64]store.GroupRole
	friends   map[int64]*store.Friend
	nextID    int64
}

func newMemStore() *memStore {
	return &memStore{
		users:     make(map[int64]*store.User),
		messages:  make(map[int64]*store.Message),
		reactions: make(map[int64]map[int64]*store.Reaction),
		groups:    make(map[int64]*store.Group),
		members:   make(map[int64]map[int64]store.GroupRole),
		friends:   make(map[int64]*store.Friend),
	}
}

func (m *memStore) id() int64 {
	m.nextID++
	return m.nextID
}

func (m *memStore) addUser(username string) *store.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	u := &store.User{ID: m.id(), Username: username, FullName: username}
	m.users[u.ID] = u
	return u
}

func (m *memStore) addGroup(name string, memberIDs ...int64) *store.Group {
	m.mu.Lock()
	defer m.mu.Unlock()
	g := &store.Group{ID: m.id(), Name: name}
	m.groups[g.ID] = g
	m.members[g.ID] = make(map[int64]store.GroupRole)
	for _, uid := range memberIDs {
		m.members[g.ID][uid] = store.GroupRoleMember
	}
	return g
}

func (m *memStore) CreateUser(ctx context.Context, username, passwordHash, fullName, country string) (*store.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Username == username {
			return nil, fmt.Errorf("user exists")
		}
	}
	u := &store.User{ID: m.id(), Username: username, PasswordHash: passwordHash, FullName: fullName, Country: country}
	m.users[u.ID] = u
	return u, nil
}

func (m *memStore) GetUserByID(ctx context.Context, id int64) (*store.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return u, nil
}

func (m *memStore) GetUserByUsername(ctx context.Context, username string) (*store.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Username == username {
			return u, nil
		}
	}
	return nil, store.ErrNotFound
}

func (m *memStore) UpdateProfile(ctx context.Context, id int64, fullName, country, bio string) (*store.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	u.FullName, u.Country, u.Bio = fullName, country, bio
	return u, nil
}

func (m *memStore) SearchUsers(ctx context.Context, query string, limit int) ([]*store.User, error) {
	return nil, nil
}

func (m *memStore) InsertMessage(ctx context.Context, msg *store.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	msg.ID = m.id()
	cp := *msg
	m.messages[msg.ID] = &cp
	return nil
}

func (m *memStore) GetMessage(ctx context.Context, id int64) (*store.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	msg, ok := m.messages[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *msg
	return &cp, nil
}

func (m *memStore) UpdateMessageContent(ctx context.Context, id, senderID int64, content string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	msg, ok := m.messages[id]
	if !ok || msg.SenderID != senderID {
		return false, nil
	}
	msg.Content = content
	msg.IsEdited = true
	return true, nil
}

func (m *memStore) DeleteMessage(ctx context.Context, id, senderID int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	msg, ok := m.messages[id]
	if !ok || msg.SenderID != senderID {
		return false, nil
	}
	delete(m.messages, id)
	delete(m.reactions, id)
	return true, nil
}

func (m *memStore) MarkRead(ctx context.Context, senderID, receiverID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, msg := range m.messages {
		if msg.SenderID == senderID && msg.ReceiverID != nil && *msg.ReceiverID == receiverID {
			msg.IsRead = true
		}
	}
	return nil
}

func (m *memStore) ClearHistory(ctx context.Context, userID, friendID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, msg := range m.messages {
		if msg.ReceiverID == nil {
			continue
		}
		if (msg.SenderID == userID && *msg.ReceiverID == friendID) ||
			(msg.SenderID == friendID && *msg.ReceiverID == userID) {
			delete(m.messages, id)
		}
	}
	return nil
}

func (m *memStore) ListConversation(ctx context.Context, userID, friendID int64) ([]*store.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*store.Message
	for _, msg := range m.messages {
		if msg.ReceiverID == nil {
			continue
		}
		if (msg.SenderID == userID && *msg.ReceiverID == friendID) ||
			(msg.SenderID == friendID && *msg.ReceiverID == userID) {
			cp := *msg
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memStore) ListGroupMessages(ctx context.Context, groupID int64) ([]*store.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*store.Message
	for _, msg := range m.messages {
		if msg.GroupID != nil && *msg.GroupID == groupID {
			cp := *msg
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memStore) RecentConversations(ctx context.Context, userID int64) ([]*store.RecentConversation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	last := make(map[int64]*store.Message)
	unread := make(map[int64]int64)
	for _, msg := range m.messages {
		if msg.ReceiverID == nil {
			continue
		}
		var partner int64
		switch {
		case msg.SenderID == userID:
			partner = *msg.ReceiverID
		case *msg.ReceiverID == userID:
			partner = msg.SenderID
			if !msg.IsRead {
				unread[partner]++
			}
		default:
			continue
		}
		if prev, ok := last[partner]; !ok || msg.ID > prev.ID {
			last[partner] = msg
		}
	}

	var out []*store.RecentConversation
	for partner, msg := range last {
		rc := &store.RecentConversation{
			UserID:      partner,
			LastMessage: msg.Content,
			LastType:    msg.Type,
			UnreadCount: unread[partner],
		}
		if u, ok := m.users[partner]; ok {
			rc.Username, rc.FullName, rc.AvatarURL = u.Username, u.FullName, u.AvatarURL
		}
		out = append(out, rc)
	}
	sort.Slice(out, func(i, j int) bool { return last[out[i].UserID].ID > last[out[j].UserID].ID })
	return out, nil
}

func (m *memStore) ReactionsFor(ctx context.Context, messageID int64) ([]*store.Reaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.reactionsLocked(messageID), nil
}

func (m *memStore) UpsertReaction(ctx context.Context, messageID, userID int64, emoji string) ([]*store.Reaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.messages[messageID]; !ok {
		return nil, store.ErrNotFound
	}
	set, ok := m.reactions[messageID]
	if !ok {
		set = make(map[int64]*store.Reaction)
		m.reactions[messageID] = set
	}
	username := ""
	if u, ok := m.users[userID]; ok {
		username = u.Username
	}
	set[userID] = &store.Reaction{ID: m.id(), MessageID: messageID, UserID: userID, Emoji: emoji, Username: username}
	return m.reactionsLocked(messageID), nil
}

func (m *memStore) reactionsLocked(messageID int64) []*store.Reaction {
	out := make([]*store.Reaction, 0, len(m.reactions[messageID]))
	for _, r := range m.reactions[messageID] {
		cp := *r
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })
	return out
}

func (m *memStore) CreateGroup(ctx context.Context, name string, createdBy int64) (*store.Group, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	g := &store.Group{ID: m.id(), Name: name, CreatedBy: createdBy}
	m.groups[g.ID] = g
	m.members[g.ID] = map[int64]store.GroupRole{createdBy: store.GroupRoleAdmin}
	return g, nil
}

func (m *memStore) GetGroupByID(ctx context.Context, id int64) (*store.Group, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	g, ok := m.groups[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return g, nil
}

func (m *memStore) GroupsOf(ctx context.Context, userID int64) ([]int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []int64
	for gid, members := range m.members {
		if _, ok := members[userID]; ok {
			out = append(out, gid)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out, nil
}

func (m *memStore) IsMember(ctx context.Context, groupID, userID int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.members[groupID][userID]
	return ok, nil
}

func (m *memStore) AddMember(ctx context.Context, groupID, userID int64, role store.GroupRole) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	set, ok := m.members[groupID]
	if !ok {
		return store.ErrNotFound
	}
	if _, exists := set[userID]; !exists {
		set[userID] = role
	}
	return nil
}

func (m *memStore) RemoveMember(ctx context.Context, groupID, userID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.members[groupID], userID)
	return nil
}

func (m *memStore) ListMembers(ctx context.Context, groupID int64) ([]*store.GroupMember, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*store.GroupMember
	for uid, role := range m.members[groupID] {
		out = append(out, &store.GroupMember{GroupID: groupID, UserID: uid, Role: role})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })
	return out, nil
}

func (m *memStore) ListGroups(ctx context.Context, userID int64) ([]*store.Group, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*store.Group
	for gid, members := range m.members {
		if _, ok := members[userID]; ok {
			out = append(out, m.groups[gid])
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memStore) CreateFriendRequest(ctx context.Context, userID, friendID int64) (*store.Friend, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	f := &store.Friend{ID: m.id(), UserID: userID, FriendID: friendID, Status: store.FriendStatusPending}
	m.friends[f.ID] = f
	return f, nil
}

func (m *memStore) GetFriendship(ctx context.Context, userID, friendID int64) (*store.Friend, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, f := range m.friends {
		if (f.UserID == userID && f.FriendID == friendID) || (f.UserID == friendID && f.FriendID == userID) {
			return f, nil
		}
	}
	return nil, store.ErrNotFound
}

func (m *memStore) AcceptFriendRequest(ctx context.Context, requestID, userID int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	f, ok := m.friends[requestID]
	if !ok || f.FriendID != userID || f.Status != store.FriendStatusPending {
		return false, nil
	}
	f.Status = store.FriendStatusAccepted
	return true, nil
}

func (m *memStore) DeleteFriendship(ctx context.Context, requestID, userID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	f, ok := m.friends[requestID]
	if ok && (f.UserID == userID || f.FriendID == userID) {
		delete(m.friends, requestID)
	}
	return nil
}

func (m *memStore) ListFriends(ctx context.Context, userID int64) ([]*store.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*store.User
	for _, f := range m.friends {
		if f.Status != store.FriendStatusAccepted {
			continue
		}
		other := f.FriendID
		if f.FriendID == userID {
			other = f.UserID
		} else if f.UserID != userID {
			continue
		}
		if u, ok := m.users[other]; ok {
			out = append(out, u)
		}
	}
	return out, nil
}

func (m *memStore) ListPendingRequests(ctx context.Context, userID int64) ([]*store.Friend, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*store.Friend
	for _, f := range m.friends {
		if f.Status == store.FriendStatusPending && f.FriendID == userID {
			out = append(out, f)
		}
	}
	return out, nil
}

func (m *memStore) IsFriend(ctx context.Context, userID, friendID int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, f := range m.friends {
		if f.Status != store.FriendStatusAccepted {
			continue
		}
		if (f.UserID == userID && f.FriendID == friendID) || (f.UserID == friendID && f.FriendID == userID) {
			return true, nil
		}
	}
	return false, nil
}

func (m *memStore) Close() error { return nil }
