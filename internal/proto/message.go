package proto

import "encoding/json"

// Inbound is the envelope for messages coming from the client.
type Inbound struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

const (
	InboundTypeJoin          = "join"
	InboundTypeSendMessage   = "send_message"
	InboundTypeTyping        = "typing"
	InboundTypeMarkRead      = "mark_read"
	InboundTypeEditMessage   = "edit_message"
	InboundTypeDeleteMessage = "delete_message"
	InboundTypeClearHistory  = "clear_history"
	InboundTypeCallUser      = "call_user"
	InboundTypeAnswerCall    = "answer_call"
	InboundTypeRejectCall    = "reject_call"
	InboundTypeICECandidate  = "ice_candidate"
	InboundTypeEndCall       = "end_call"

	OutboundTypeEvent = "event"
	OutboundTypeError = "error"
)

// JoinData completes the connection handshake. The token authenticates the
// claimed user id.
type JoinData struct {
	UserID int64  `json:"user_id"`
	Token  string `json:"token,omitempty"`
}

// SendMessageData is a chat message from the client. Exactly one of
// receiver_id and group_id must be set.
type SendMessageData struct {
	SenderID   int64   `json:"sender_id"`
	ReceiverID *int64  `json:"receiver_id,omitempty"`
	GroupID    *int64  `json:"group_id,omitempty"`
	Content    string  `json:"content"`
	Type       string  `json:"type,omitempty"`
	FileURL    *string `json:"file_url,omitempty"`
	FileName   *string `json:"file_name,omitempty"`
	ReplyToID  *int64  `json:"reply_to_id,omitempty"`
}

// TypingData is a transient typing indicator.
type TypingData struct {
	SenderID   int64  `json:"sender_id"`
	ReceiverID *int64 `json:"receiver_id,omitempty"`
	GroupID    *int64 `json:"group_id,omitempty"`
	IsTyping   bool   `json:"is_typing"`
}

// MarkReadData asks to mark messages from sender_id to receiver_id as read;
// receiver_id is the reader.
type MarkReadData struct {
	SenderID   int64 `json:"sender_id"`
	ReceiverID int64 `json:"receiver_id"`
}

// EditMessageData requests a content edit of an own message.
type EditMessageData struct {
	MessageID  int64  `json:"message_id"`
	SenderID   int64  `json:"sender_id"`
	NewContent string `json:"new_content"`
}

// DeleteMessageData requests deletion of an own message.
type DeleteMessageData struct {
	MessageID int64 `json:"message_id"`
	SenderID  int64 `json:"sender_id"`
}

// ClearHistoryData notifies the counterpart that the conversation was cleared.
type ClearHistoryData struct {
	SenderID   int64 `json:"sender_id"`
	ReceiverID int64 `json:"receiver_id"`
}

// CallUserData initiates a call; the signal payload is opaque to the server.
type CallUserData struct {
	UserToCall int64           `json:"userToCall"`
	SignalData json.RawMessage `json:"signalData"`
	From       int64           `json:"from"`
	Name       string          `json:"name"`
}

// AnswerCallData answers a call with an opaque answer signal.
type AnswerCallData struct {
	To     int64           `json:"to"`
	Signal json.RawMessage `json:"signal"`
}

// CallTargetData addresses a terminal call event (reject/end).
type CallTargetData struct {
	To int64 `json:"to"`
}

// ICECandidateData forwards one opaque ICE candidate.
type ICECandidateData struct {
	To        int64           `json:"to"`
	Candidate json.RawMessage `json:"candidate"`
}

// Outbound is the envelope for messages sent to the client.
type Outbound struct {
	Type  string `json:"type"`
	Event string `json:"event,omitempty"`
	Data  any    `json:"data,omitempty"`
	Error *Error `json:"error,omitempty"`
}

// Error describes a protocol-level error response.
type Error struct {
	Code string `json:"code"`
	Msg  string `json:"msg"`
}
