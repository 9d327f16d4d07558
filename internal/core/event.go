package core

import "encoding/json"

// Event names as they appear on the wire.
const (
	EventReceiveMessage        = "receive_message"
	EventMessageSent           = "message_sent"
	EventTypingStatus          = "typing_status"
	EventMessagesRead          = "messages_read"
	EventMessageEdited         = "message_edited"
	EventMessageEditedConfirm  = "message_edited_confirm"
	EventMessageDeleted        = "message_deleted"
	EventMessageDeletedConfirm = "message_deleted_confirm"
	EventMessageReaction       = "message_reaction"
	EventHistoryCleared        = "history_cleared"
	EventOnlineUsers           = "online_users"
	EventIncomingCall          = "incoming_call"
	EventCallAccepted          = "call_accepted"
	EventCallRejected          = "call_rejected"
	EventCallEnded             = "call_ended"
	EventICECandidate          = "ice_candidate"
	EventNewFriendRequest      = "new_friend_request"
)

// Event is one notification fanned out to subscribed clients. Data is the
// wire payload; the transport serializes it as-is.
type Event struct {
	Name string
	Data any
}

// TypingPayload mirrors a transient typing indicator to the target channel.
type TypingPayload struct {
	SenderID int64  `json:"sender_id"`
	GroupID  *int64 `json:"group_id,omitempty"`
	IsTyping bool   `json:"is_typing"`
}

// ReadReceiptPayload tells a sender their messages were read.
type ReadReceiptPayload struct {
	ReaderID int64 `json:"reader_id"`
}

// EditPayload carries an applied message edit.
type EditPayload struct {
	MessageID  int64  `json:"message_id"`
	NewContent string `json:"new_content"`
}

// DeletePayload carries an applied message deletion.
type DeletePayload struct {
	MessageID int64 `json:"message_id"`
}

// ReactionUpdatePayload carries the full recomputed reaction list of a message.
type ReactionUpdatePayload struct {
	MessageID int64             `json:"message_id"`
	Reactions []ReactionPayload `json:"reactions"`
}

// ReactionPayload is one reaction as delivered to clients.
type ReactionPayload struct {
	UserID   int64  `json:"user_id"`
	Emoji    string `json:"emoji"`
	Username string `json:"username"`
}

// HistoryClearedPayload tells a counterpart their conversation was cleared.
type HistoryClearedPayload struct {
	ClearedBy int64 `json:"cleared_by"`
}

// IncomingCallPayload delivers an opaque call offer to the callee.
type IncomingCallPayload struct {
	Signal json.RawMessage `json:"signal"`
	From   int64           `json:"from"`
	Name   string          `json:"name"`
}
