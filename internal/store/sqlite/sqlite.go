package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
	"github.com/mingle-im/mingle-server/internal/store"
)

// SQLiteStore implements store.Store for SQLite.
type SQLiteStore struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS users (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	username      TEXT NOT NULL UNIQUE,
	password_hash TEXT NOT NULL,
	full_name     TEXT NOT NULL DEFAULT '',
	country       TEXT NOT NULL DEFAULT '',
	bio           TEXT NOT NULL DEFAULT '',
	avatar_url    TEXT NOT NULL DEFAULT '',
	created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS friends (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	user_id    INTEGER NOT NULL REFERENCES users(id),
	friend_id  INTEGER NOT NULL REFERENCES users(id),
	status     TEXT NOT NULL DEFAULT 'pending',
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS groups (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	name       TEXT NOT NULL,
	created_by INTEGER NOT NULL REFERENCES users(id),
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS group_members (
	group_id  INTEGER NOT NULL REFERENCES groups(id) ON DELETE CASCADE,
	user_id   INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	role      TEXT NOT NULL DEFAULT 'member',
	joined_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	UNIQUE(group_id, user_id)
);

CREATE TABLE IF NOT EXISTS messages (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	sender_id   INTEGER NOT NULL REFERENCES users(id),
	receiver_id INTEGER REFERENCES users(id),
	group_id    INTEGER REFERENCES groups(id),
	content     TEXT NOT NULL,
	type        TEXT NOT NULL DEFAULT 'text',
	file_url    TEXT,
	file_name   TEXT,
	reply_to_id INTEGER,
	is_read     INTEGER NOT NULL DEFAULT 0,
	is_edited   INTEGER NOT NULL DEFAULT 0,
	created_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS reactions (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	message_id INTEGER NOT NULL REFERENCES messages(id) ON DELETE CASCADE,
	user_id    INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	emoji      TEXT NOT NULL,
	UNIQUE(message_id, user_id)
);

CREATE INDEX IF NOT EXISTS idx_messages_direct ON messages(sender_id, receiver_id);
CREATE INDEX IF NOT EXISTS idx_messages_group ON messages(group_id);
CREATE INDEX IF NOT EXISTS idx_group_members_user ON group_members(user_id);
`

// New opens (or creates) a SQLite database at dbPath and applies the schema.
func New(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// SQLite works best with a single connection.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// ==== UserStore implementation ====

// CreateUser creates a new user with hashed password.
func (s *SQLiteStore) CreateUser(ctx context.Context, username, passwordHash, fullName, country string) (*store.User, error) {
	query := `
		INSERT INTO users (username, password_hash, full_name, country)
		VALUES (?, ?, ?, ?)
	`
	result, err := s.db.ExecContext(ctx, query, username, passwordHash, fullName, country)
	if err != nil {
		return nil, fmt.Errorf("insert user: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("get last insert id: %w", err)
	}

	return s.GetUserByID(ctx, id)
}

// GetUserByID retrieves a user by ID.
func (s *SQLiteStore) GetUserByID(ctx context.Context, id int64) (*store.User, error) {
	query := `
		SELECT id, username, password_hash, full_name, country, bio, avatar_url, created_at
		FROM users
		WHERE id = ?
	`
	return s.scanUser(s.db.QueryRowContext(ctx, query, id))
}

// GetUserByUsername retrieves a user by username.
func (s *SQLiteStore) GetUserByUsername(ctx context.Context, username string) (*store.User, error) {
	query := `
		SELECT id, username, password_hash, full_name, country, bio, avatar_url, created_at
		FROM users
		WHERE username = ?
	`
	return s.scanUser(s.db.QueryRowContext(ctx, query, username))
}

// UpdateProfile updates mutable profile fields.
func (s *SQLiteStore) UpdateProfile(ctx context.Context, id int64, fullName, country, bio string) (*store.User, error) {
	query := `UPDATE users SET full_name = ?, country = ?, bio = ? WHERE id = ?`
	if _, err := s.db.ExecContext(ctx, query, fullName, country, bio, id); err != nil {
		return nil, fmt.Errorf("update profile: %w", err)
	}
	return s.GetUserByID(ctx, id)
}

// SearchUsers searches users by username or full name.
func (s *SQLiteStore) SearchUsers(ctx context.Context, query string, limit int) ([]*store.User, error) {
	if limit <= 0 {
		limit = 10
	}
	q := `
		SELECT id, username, password_hash, full_name, country, bio, avatar_url, created_at
		FROM users
		WHERE username LIKE ? OR full_name LIKE ?
		ORDER BY username
		LIMIT ?
	`
	pattern := "%" + query + "%"
	rows, err := s.db.QueryContext(ctx, q, pattern, pattern, limit)
	if err != nil {
		return nil, fmt.Errorf("search users: %w", err)
	}
	defer rows.Close()

	var users []*store.User
	for rows.Next() {
		u, err := s.scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (s *SQLiteStore) scanUser(row rowScanner) (*store.User, error) {
	var u store.User
	err := row.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.FullName, &u.Country, &u.Bio, &u.AvatarURL, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan user: %w", err)
	}
	return &u, nil
}

// ==== MessageStore implementation ====

// InsertMessage persists a message and fills in its ID and CreatedAt.
func (s *SQLiteStore) InsertMessage(ctx context.Context, msg *store.Message) error {
	if msg.Type == "" {
		msg.Type = store.MessageTypeText
	}
	query := `
		INSERT INTO messages (sender_id, receiver_id, group_id, content, type, file_url, file_name, reply_to_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`
	result, err := s.db.ExecContext(ctx, query,
		msg.SenderID, msg.ReceiverID, msg.GroupID, msg.Content, string(msg.Type),
		msg.FileURL, msg.FileName, msg.ReplyToID)
	if err != nil {
		return fmt.Errorf("insert message: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("get last insert id: %w", err)
	}
	msg.ID = id

	// Echo back the store-assigned timestamp so clients can reorder on read.
	row := s.db.QueryRowContext(ctx, `SELECT created_at FROM messages WHERE id = ?`, id)
	if err := row.Scan(&msg.CreatedAt); err != nil {
		return fmt.Errorf("read created_at: %w", err)
	}
	return nil
}

// GetMessage retrieves a message by ID.
func (s *SQLiteStore) GetMessage(ctx context.Context, id int64) (*store.Message, error) {
	query := `
		SELECT id, sender_id, receiver_id, group_id, content, type, file_url, file_name,
		       reply_to_id, is_read, is_edited, created_at
		FROM messages
		WHERE id = ?
	`
	return s.scanMessage(s.db.QueryRowContext(ctx, query, id), false)
}

// UpdateMessageContent sets new content and the edited flag, conditional on
// senderID being the message's sender.
func (s *SQLiteStore) UpdateMessageContent(ctx context.Context, id, senderID int64, content string) (bool, error) {
	query := `UPDATE messages SET content = ?, is_edited = 1 WHERE id = ? AND sender_id = ?`
	result, err := s.db.ExecContext(ctx, query, content, id, senderID)
	if err != nil {
		return false, fmt.Errorf("update message content: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n > 0, nil
}

// DeleteMessage removes a message, conditional on senderID being its sender.
func (s *SQLiteStore) DeleteMessage(ctx context.Context, id, senderID int64) (bool, error) {
	result, err := s.db.ExecContext(ctx, `DELETE FROM messages WHERE id = ? AND sender_id = ?`, id, senderID)
	if err != nil {
		return false, fmt.Errorf("delete message: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n > 0, nil
}

// MarkRead marks all unread messages from senderID to receiverID as read.
func (s *SQLiteStore) MarkRead(ctx context.Context, senderID, receiverID int64) error {
	query := `UPDATE messages SET is_read = 1 WHERE sender_id = ? AND receiver_id = ? AND is_read = 0`
	if _, err := s.db.ExecContext(ctx, query, senderID, receiverID); err != nil {
		return fmt.Errorf("mark read: %w", err)
	}
	return nil
}

// ClearHistory deletes all direct messages between two users.
func (s *SQLiteStore) ClearHistory(ctx context.Context, userID, friendID int64) error {
	query := `
		DELETE FROM messages
		WHERE (sender_id = ? AND receiver_id = ?) OR (sender_id = ? AND receiver_id = ?)
	`
	if _, err := s.db.ExecContext(ctx, query, userID, friendID, friendID, userID); err != nil {
		return fmt.Errorf("clear history: %w", err)
	}
	return nil
}

// ListConversation returns the direct messages between two users in order.
func (s *SQLiteStore) ListConversation(ctx context.Context, userID, friendID int64) ([]*store.Message, error) {
	query := `
		SELECT m.id, m.sender_id, m.receiver_id, m.group_id, m.content, m.type, m.file_url,
		       m.file_name, m.reply_to_id, m.is_read, m.is_edited, m.created_at, rm.content
		FROM messages m
		LEFT JOIN messages rm ON m.reply_to_id = rm.id
		WHERE (m.sender_id = ? AND m.receiver_id = ?) OR (m.sender_id = ? AND m.receiver_id = ?)
		ORDER BY m.created_at ASC, m.id ASC
	`
	return s.listMessages(ctx, query, userID, friendID, friendID, userID)
}

// ListGroupMessages returns a group's messages in order.
func (s *SQLiteStore) ListGroupMessages(ctx context.Context, groupID int64) ([]*store.Message, error) {
	query := `
		SELECT m.id, m.sender_id, m.receiver_id, m.group_id, m.content, m.type, m.file_url,
		       m.file_name, m.reply_to_id, m.is_read, m.is_edited, m.created_at, rm.content
		FROM messages m
		LEFT JOIN messages rm ON m.reply_to_id = rm.id
		WHERE m.group_id = ?
		ORDER BY m.created_at ASC, m.id ASC
	`
	return s.listMessages(ctx, query, groupID)
}

// RecentConversations returns every user the caller has exchanged direct
// messages with, joined against the latest message per pair, newest first.
func (s *SQLiteStore) RecentConversations(ctx context.Context, userID int64) ([]*store.RecentConversation, error) {
	query := `
		SELECT u.id, u.username, u.full_name, u.avatar_url, lm.content, lm.type,
		       (SELECT COUNT(*) FROM messages
		        WHERE sender_id = u.id AND receiver_id = ? AND is_read = 0)
		FROM users u
		JOIN messages lm ON lm.id = (
			SELECT id FROM messages
			WHERE (sender_id = u.id AND receiver_id = ?) OR (sender_id = ? AND receiver_id = u.id)
			ORDER BY created_at DESC, id DESC
			LIMIT 1
		)
		WHERE u.id != ?
		ORDER BY lm.created_at DESC, lm.id DESC
	`
	rows, err := s.db.QueryContext(ctx, query, userID, userID, userID, userID)
	if err != nil {
		return nil, fmt.Errorf("list recent conversations: %w", err)
	}
	defer rows.Close()

	var convos []*store.RecentConversation
	for rows.Next() {
		var rc store.RecentConversation
		var typ string
		if err := rows.Scan(&rc.UserID, &rc.Username, &rc.FullName, &rc.AvatarURL,
			&rc.LastMessage, &typ, &rc.UnreadCount); err != nil {
			return nil, fmt.Errorf("scan recent conversation: %w", err)
		}
		rc.LastType = store.MessageType(typ)
		convos = append(convos, &rc)
	}
	return convos, rows.Err()
}

func (s *SQLiteStore) listMessages(ctx context.Context, query string, args ...any) ([]*store.Message, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	defer rows.Close()

	var msgs []*store.Message
	for rows.Next() {
		m, err := s.scanMessage(rows, true)
		if err != nil {
			return nil, err
		}
		msgs = append(msgs, m)
	}
	return msgs, rows.Err()
}

func (s *SQLiteStore) scanMessage(row rowScanner, withReply bool) (*store.Message, error) {
	var (
		m        store.Message
		receiver sql.NullInt64
		group    sql.NullInt64
		fileURL  sql.NullString
		fileName sql.NullString
		replyTo  sql.NullInt64
		reply    sql.NullString
		typ      string
	)

	dest := []any{&m.ID, &m.SenderID, &receiver, &group, &m.Content, &typ, &fileURL,
		&fileName, &replyTo, &m.IsRead, &m.IsEdited, &m.CreatedAt}
	if withReply {
		dest = append(dest, &reply)
	}

	err := row.Scan(dest...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan message: %w", err)
	}

	m.Type = store.MessageType(typ)
	if receiver.Valid {
		m.ReceiverID = &receiver.Int64
	}
	if group.Valid {
		m.GroupID = &group.Int64
	}
	if fileURL.Valid {
		m.FileURL = &fileURL.String
	}
	if fileName.Valid {
		m.FileName = &fileName.String
	}
	if replyTo.Valid {
		m.ReplyToID = &replyTo.Int64
	}
	if reply.Valid {
		m.ReplyContent = &reply.String
	}
	return &m, nil
}

// ReactionsFor returns all reactions on a message.
func (s *SQLiteStore) ReactionsFor(ctx context.Context, messageID int64) ([]*store.Reaction, error) {
	query := `
		SELECT r.id, r.message_id, r.user_id, r.emoji, u.username
		FROM reactions r
		JOIN users u ON r.user_id = u.id
		WHERE r.message_id = ?
		ORDER BY r.id ASC
	`
	rows, err := s.db.QueryContext(ctx, query, messageID)
	if err != nil {
		return nil, fmt.Errorf("list reactions: %w", err)
	}
	defer rows.Close()

	var reactions []*store.Reaction
	for rows.Next() {
		var r store.Reaction
		if err := rows.Scan(&r.ID, &r.MessageID, &r.UserID, &r.Emoji, &r.Username); err != nil {
			return nil, fmt.Errorf("scan reaction: %w", err)
		}
		reactions = append(reactions, &r)
	}
	return reactions, rows.Err()
}

// UpsertReaction replaces the user's reaction on a message in a single
// statement, so concurrent reactors cannot produce duplicates.
func (s *SQLiteStore) UpsertReaction(ctx context.Context, messageID, userID int64, emoji string) ([]*store.Reaction, error) {
	query := `
		INSERT INTO reactions (message_id, user_id, emoji)
		VALUES (?, ?, ?)
		ON CONFLICT(message_id, user_id) DO UPDATE SET emoji = excluded.emoji
	`
	if _, err := s.db.ExecContext(ctx, query, messageID, userID, emoji); err != nil {
		return nil, fmt.Errorf("upsert reaction: %w", err)
	}
	return s.ReactionsFor(ctx, messageID)
}

// ==== GroupStore implementation ====

// CreateGroup creates a group and adds the creator as admin.
func (s *SQLiteStore) CreateGroup(ctx context.Context, name string, createdBy int64) (*store.Group, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, `INSERT INTO groups (name, created_by) VALUES (?, ?)`, name, createdBy)
	if err != nil {
		return nil, fmt.Errorf("insert group: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("get last insert id: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO group_members (group_id, user_id, role) VALUES (?, ?, ?)`,
		id, createdBy, string(store.GroupRoleAdmin))
	if err != nil {
		return nil, fmt.Errorf("insert group admin: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return s.GetGroupByID(ctx, id)
}

// GetGroupByID retrieves a group by ID.
func (s *SQLiteStore) GetGroupByID(ctx context.Context, id int64) (*store.Group, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, created_by, created_at FROM groups WHERE id = ?`, id)

	var g store.Group
	err := row.Scan(&g.ID, &g.Name, &g.CreatedBy, &g.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan group: %w", err)
	}
	return &g, nil
}

// GroupsOf returns the IDs of all groups the user belongs to.
func (s *SQLiteStore) GroupsOf(ctx context.Context, userID int64) ([]int64, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT group_id FROM group_members WHERE user_id = ?`, userID)
	if err != nil {
		return nil, fmt.Errorf("list user groups: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan group id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// IsMember reports whether the user belongs to the group.
func (s *SQLiteStore) IsMember(ctx context.Context, groupID, userID int64) (bool, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT 1 FROM group_members WHERE group_id = ? AND user_id = ?`, groupID, userID)

	var one int
	err := row.Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check membership: %w", err)
	}
	return true, nil
}

// AddMember adds a user to a group.
func (s *SQLiteStore) AddMember(ctx context.Context, groupID, userID int64, role store.GroupRole) error {
	if role == "" {
		role = store.GroupRoleMember
	}
	query := `
		INSERT INTO group_members (group_id, user_id, role)
		VALUES (?, ?, ?)
		ON CONFLICT(group_id, user_id) DO NOTHING
	`
	if _, err := s.db.ExecContext(ctx, query, groupID, userID, string(role)); err != nil {
		return fmt.Errorf("add member: %w", err)
	}
	return nil
}

// RemoveMember removes a user from a group.
func (s *SQLiteStore) RemoveMember(ctx context.Context, groupID, userID int64) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM group_members WHERE group_id = ? AND user_id = ?`, groupID, userID)
	if err != nil {
		return fmt.Errorf("remove member: %w", err)
	}
	return nil
}

// ListMembers lists all members of a group.
func (s *SQLiteStore) ListMembers(ctx context.Context, groupID int64) ([]*store.GroupMember, error) {
	query := `
		SELECT group_id, user_id, role, joined_at
		FROM group_members
		WHERE group_id = ?
		ORDER BY joined_at ASC
	`
	rows, err := s.db.QueryContext(ctx, query, groupID)
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	defer rows.Close()

	var members []*store.GroupMember
	for rows.Next() {
		var m store.GroupMember
		var role string
		if err := rows.Scan(&m.GroupID, &m.UserID, &role, &m.JoinedAt); err != nil {
			return nil, fmt.Errorf("scan member: %w", err)
		}
		m.Role = store.GroupRole(role)
		members = append(members, &m)
	}
	return members, rows.Err()
}

// ListGroups lists all groups the user belongs to.
func (s *SQLiteStore) ListGroups(ctx context.Context, userID int64) ([]*store.Group, error) {
	query := `
		SELECT g.id, g.name, g.created_by, g.created_at
		FROM groups g
		JOIN group_members gm ON g.id = gm.group_id
		WHERE gm.user_id = ?
		ORDER BY g.id ASC
	`
	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list groups: %w", err)
	}
	defer rows.Close()

	var groups []*store.Group
	for rows.Next() {
		var g store.Group
		if err := rows.Scan(&g.ID, &g.Name, &g.CreatedBy, &g.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan group: %w", err)
		}
		groups = append(groups, &g)
	}
	return groups, rows.Err()
}

// ==== FriendStore implementation ====

// CreateFriendRequest creates a new friend request (pending status).
func (s *SQLiteStore) CreateFriendRequest(ctx context.Context, userID, friendID int64) (*store.Friend, error) {
	result, err := s.db.ExecContext(ctx,
		`INSERT INTO friends (user_id, friend_id, status) VALUES (?, ?, 'pending')`, userID, friendID)
	if err != nil {
		return nil, fmt.Errorf("insert friend request: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("get last insert id: %w", err)
	}

	row := s.db.QueryRowContext(ctx,
		`SELECT id, user_id, friend_id, status, created_at FROM friends WHERE id = ?`, id)
	return scanFriend(row)
}

// GetFriendship retrieves a friendship between two users (either direction).
func (s *SQLiteStore) GetFriendship(ctx context.Context, userID, friendID int64) (*store.Friend, error) {
	query := `
		SELECT id, user_id, friend_id, status, created_at
		FROM friends
		WHERE (user_id = ? AND friend_id = ?) OR (user_id = ? AND friend_id = ?)
	`
	row := s.db.QueryRowContext(ctx, query, userID, friendID, friendID, userID)
	return scanFriend(row)
}

func scanFriend(row rowScanner) (*store.Friend, error) {
	var f store.Friend
	var status string
	err := row.Scan(&f.ID, &f.UserID, &f.FriendID, &status, &f.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan friend: %w", err)
	}
	f.Status = store.FriendStatus(status)
	return &f, nil
}

// AcceptFriendRequest flips a pending request addressed to userID to accepted.
func (s *SQLiteStore) AcceptFriendRequest(ctx context.Context, requestID, userID int64) (bool, error) {
	query := `UPDATE friends SET status = 'accepted' WHERE id = ? AND friend_id = ? AND status = 'pending'`
	result, err := s.db.ExecContext(ctx, query, requestID, userID)
	if err != nil {
		return false, fmt.Errorf("accept friend request: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n > 0, nil
}

// DeleteFriendship removes a friendship or pending request involving userID.
func (s *SQLiteStore) DeleteFriendship(ctx context.Context, requestID, userID int64) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM friends WHERE id = ? AND (friend_id = ? OR user_id = ?)`, requestID, userID, userID)
	if err != nil {
		return fmt.Errorf("delete friendship: %w", err)
	}
	return nil
}

// ListFriends lists accepted friends of a user.
func (s *SQLiteStore) ListFriends(ctx context.Context, userID int64) ([]*store.User, error) {
	query := `
		SELECT u.id, u.username, u.password_hash, u.full_name, u.country, u.bio, u.avatar_url, u.created_at
		FROM friends f
		JOIN users u ON (f.user_id = u.id OR f.friend_id = u.id)
		WHERE (f.user_id = ? OR f.friend_id = ?) AND f.status = 'accepted' AND u.id != ?
	`
	rows, err := s.db.QueryContext(ctx, query, userID, userID, userID)
	if err != nil {
		return nil, fmt.Errorf("list friends: %w", err)
	}
	defer rows.Close()

	var users []*store.User
	for rows.Next() {
		u, err := s.scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// ListPendingRequests lists incoming pending requests.
func (s *SQLiteStore) ListPendingRequests(ctx context.Context, userID int64) ([]*store.Friend, error) {
	query := `
		SELECT id, user_id, friend_id, status, created_at
		FROM friends
		WHERE friend_id = ? AND status = 'pending'
		ORDER BY created_at ASC
	`
	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list pending requests: %w", err)
	}
	defer rows.Close()

	var requests []*store.Friend
	for rows.Next() {
		f, err := scanFriend(rows)
		if err != nil {
			return nil, err
		}
		requests = append(requests, f)
	}
	return requests, rows.Err()
}

// IsFriend reports whether two users are friends.
func (s *SQLiteStore) IsFriend(ctx context.Context, userID, friendID int64) (bool, error) {
	f, err := s.GetFriendship(ctx, userID, friendID)
	if errors.Is(err, store.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return f.Status == store.FriendStatusAccepted, nil
}
