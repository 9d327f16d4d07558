package core

import (
	"time"

	"github.com/mingle-im/mingle-server/internal/store"
)

// Envelope is an inbound message before persistence. Exactly one of
// ReceiverID and GroupID must be set.
type Envelope struct {
	SenderID   int64
	ReceiverID *int64
	GroupID    *int64
	Content    string
	Type       store.MessageType
	FileURL    *string
	FileName   *string
	ReplyToID  *int64
}

// Validate checks the one-of target invariant before any side effect.
func (e Envelope) Validate() error {
	if (e.ReceiverID == nil) == (e.GroupID == nil) {
		return ErrBadEnvelope
	}
	return nil
}

// MessagePayload is the fully hydrated message delivered to clients. Field
// names match the wire format of receive_message/message_sent.
type MessagePayload struct {
	ID           int64             `json:"id"`
	SenderID     int64             `json:"sender_id"`
	ReceiverID   *int64            `json:"receiver_id,omitempty"`
	GroupID      *int64            `json:"group_id,omitempty"`
	Content      string            `json:"content"`
	Type         string            `json:"type"`
	FileURL      *string           `json:"file_url,omitempty"`
	FileName     *string           `json:"file_name,omitempty"`
	ReplyToID    *int64            `json:"reply_to_id,omitempty"`
	ReplyContent *string           `json:"reply_content"`
	SenderName   string            `json:"sender_name"`
	SenderAvatar string            `json:"sender_pic"`
	IsEdited     bool              `json:"is_edited"`
	CreatedAt    time.Time         `json:"created_at"`
	Reactions    []ReactionPayload `json:"reactions"`
}

func reactionPayloads(reactions []*store.Reaction) []ReactionPayload {
	out := make([]ReactionPayload, 0, len(reactions))
	for _, r := range reactions {
		out = append(out, ReactionPayload{
			UserID:   r.UserID,
			Emoji:    r.Emoji,
			Username: r.Username,
		})
	}
	return out
}
