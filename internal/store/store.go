package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// User represents a user in the system.
type User struct {
	ID           int64
	Username     string
	PasswordHash string
	FullName     string
	Country      string
	Bio          string
	AvatarURL    string
	CreatedAt    time.Time
}

// MessageType classifies message content.
type MessageType string

const (
	MessageTypeText  MessageType = "text"
	MessageTypeImage MessageType = "image"
	MessageTypeVoice MessageType = "voice"
	MessageTypeFile  MessageType = "file"
)

// Message represents a persisted chat message. Exactly one of ReceiverID
// and GroupID is set.
type Message struct {
	ID         int64
	SenderID   int64
	ReceiverID *int64
	GroupID    *int64
	Content    string
	Type       MessageType
	FileURL    *string
	FileName   *string
	ReplyToID  *int64
	IsRead     bool
	IsEdited   bool
	CreatedAt  time.Time

	// ReplyContent is populated by list queries that join the reply target.
	// Nil when the message is not a reply or the original was deleted.
	ReplyContent *string
}

// RecentConversation is one direct-conversation partner as shown in a chat
// list: who, what they said last, and how much of it is unread.
type RecentConversation struct {
	UserID      int64
	Username    string
	FullName    string
	AvatarURL   string
	LastMessage string
	LastType    MessageType
	UnreadCount int64
}

// Reaction is one user's emoji reaction on a message. A user holds at most
// one reaction per message; a new one replaces the old.
type Reaction struct {
	ID        int64
	MessageID int64
	UserID    int64
	Emoji     string
	Username  string
}

// Group represents a chat group.
type Group struct {
	ID        int64
	Name      string
	CreatedBy int64
	CreatedAt time.Time
}

// GroupRole defines a member's role inside a group.
type GroupRole string

const (
	GroupRoleAdmin  GroupRole = "admin"
	GroupRoleMember GroupRole = "member"
)

// GroupMember represents group membership.
type GroupMember struct {
	GroupID  int64
	UserID   int64
	Role     GroupRole
	JoinedAt time.Time
}

// FriendStatus defines friend relationship status.
type FriendStatus string

const (
	FriendStatusPending  FriendStatus = "pending"
	FriendStatusAccepted FriendStatus = "accepted"
)

// Friend represents a friend relationship.
type Friend struct {
	ID        int64
	UserID    int64
	FriendID  int64
	Status    FriendStatus
	CreatedAt time.Time
}

// UserStore handles user persistence and acts as the user directory.
type UserStore interface {
	// CreateUser creates a new user with hashed password.
	CreateUser(ctx context.Context, username, passwordHash, fullName, country string) (*User, error)

	// GetUserByID retrieves a user by ID.
	GetUserByID(ctx context.Context, id int64) (*User, error)

	// GetUserByUsername retrieves a user by username.
	GetUserByUsername(ctx context.Context, username string) (*User, error)

	// UpdateProfile updates mutable profile fields.
	UpdateProfile(ctx context.Context, id int64, fullName, country, bio string) (*User, error)

	// SearchUsers searches users by username or full name.
	SearchUsers(ctx context.Context, query string, limit int) ([]*User, error)
}

// MessageStore handles message persistence. It is the single source of truth
// for message state; all mutations are atomic conditional statements so the
// realtime and REST paths can race safely.
type MessageStore interface {
	// InsertMessage persists a message and fills in its ID and CreatedAt.
	InsertMessage(ctx context.Context, msg *Message) error

	// GetMessage retrieves a message by ID. Returns ErrNotFound if absent.
	GetMessage(ctx context.Context, id int64) (*Message, error)

	// UpdateMessageContent sets new content and the edited flag, only if the
	// message exists and senderID is its sender. Returns false otherwise.
	UpdateMessageContent(ctx context.Context, id, senderID int64, content string) (bool, error)

	// DeleteMessage removes a message, only if senderID is its sender.
	// Returns false otherwise.
	DeleteMessage(ctx context.Context, id, senderID int64) (bool, error)

	// MarkRead marks all unread messages from senderID to receiverID as read.
	// Safe to call redundantly.
	MarkRead(ctx context.Context, senderID, receiverID int64) error

	// ClearHistory deletes all direct messages between two users.
	ClearHistory(ctx context.Context, userID, friendID int64) error

	// ListConversation returns the direct messages between two users in
	// chronological order, with reply content joined in.
	ListConversation(ctx context.Context, userID, friendID int64) ([]*Message, error)

	// ListGroupMessages returns a group's messages in chronological order,
	// with reply content joined in.
	ListGroupMessages(ctx context.Context, groupID int64) ([]*Message, error)

	// RecentConversations returns the user's direct-conversation partners
	// with last message and unread count, most recent conversation first.
	RecentConversations(ctx context.Context, userID int64) ([]*RecentConversation, error)

	// ReactionsFor returns all reactions on a message.
	ReactionsFor(ctx context.Context, messageID int64) ([]*Reaction, error)

	// UpsertReaction inserts or replaces the user's reaction on a message
	// (last write wins) and returns the message's full reaction list.
	UpsertReaction(ctx context.Context, messageID, userID int64, emoji string) ([]*Reaction, error)
}

// GroupStore handles group persistence and acts as the membership directory.
type GroupStore interface {
	// CreateGroup creates a group and adds the creator as admin.
	CreateGroup(ctx context.Context, name string, createdBy int64) (*Group, error)

	// GetGroupByID retrieves a group by ID.
	GetGroupByID(ctx context.Context, id int64) (*Group, error)

	// GroupsOf returns the IDs of all groups the user belongs to.
	GroupsOf(ctx context.Context, userID int64) ([]int64, error)

	// IsMember reports whether the user belongs to the group.
	IsMember(ctx context.Context, groupID, userID int64) (bool, error)

	// AddMember adds a user to a group. Adding an existing member is a no-op.
	AddMember(ctx context.Context, groupID, userID int64, role GroupRole) error

	// RemoveMember removes a user from a group.
	RemoveMember(ctx context.Context, groupID, userID int64) error

	// ListMembers lists all members of a group.
	ListMembers(ctx context.Context, groupID int64) ([]*GroupMember, error)

	// ListGroups lists all groups the user belongs to.
	ListGroups(ctx context.Context, userID int64) ([]*Group, error)
}

// FriendStore handles friend persistence.
type FriendStore interface {
	// CreateFriendRequest creates a new friend request (pending status).
	CreateFriendRequest(ctx context.Context, userID, friendID int64) (*Friend, error)

	// GetFriendship retrieves a friendship between two users (either direction).
	GetFriendship(ctx context.Context, userID, friendID int64) (*Friend, error)

	// AcceptFriendRequest flips a pending request addressed to userID to accepted.
	AcceptFriendRequest(ctx context.Context, requestID, userID int64) (bool, error)

	// DeleteFriendship removes a friendship or pending request involving userID.
	DeleteFriendship(ctx context.Context, requestID, userID int64) error

	// ListFriends lists accepted friends of a user.
	ListFriends(ctx context.Context, userID int64) ([]*User, error)

	// ListPendingRequests lists incoming pending requests with requester info.
	ListPendingRequests(ctx context.Context, userID int64) ([]*Friend, error)

	// IsFriend reports whether two users are friends (accepted, either direction).
	IsFriend(ctx context.Context, userID, friendID int64) (bool, error)
}

// Store aggregates all storage interfaces.
type Store interface {
	UserStore
	MessageStore
	GroupStore
	FriendStore

	// Close closes the underlying database connection.
	Close() error
}
