package core

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/mingle-im/mingle-server/internal/store"
)

// Tracker relays transient typing indicators and read receipts. Nothing here
// is persisted or replayed to late joiners, with one exception: MarkRead
// flips the durable read flags before notifying the counterpart.
type Tracker struct {
	messages store.MessageStore
	router   *Router
	log      *zerolog.Logger
}

// NewTracker constructs a tracker.
func NewTracker(messages store.MessageStore, router *Router, logger *zerolog.Logger) *Tracker {
	return &Tracker{
		messages: messages,
		router:   router,
		log:      logger,
	}
}

// Typing relays a typing indicator to the target channel. No deduplication
// and no server-side debounce; clients clear stale indicators themselves.
func (t *Tracker) Typing(sender *Client, senderID int64, receiverID, groupID *int64, isTyping bool) error {
	if (receiverID == nil) == (groupID == nil) {
		return ErrBadEnvelope
	}

	payload := TypingPayload{SenderID: senderID, GroupID: groupID, IsTyping: isTyping}
	ev := Event{Name: EventTypingStatus, Data: payload}

	if groupID != nil {
		// The sender's own connections already know they are typing.
		t.router.PublishExcept(GroupChannel(*groupID), ev, sender)
		return nil
	}
	t.router.Publish(UserChannel(*receiverID), ev)
	return nil
}

// MarkRead marks messages from counterpartID to readerID as read and tells
// the counterpart so their delivery ticks can flip. The store update is
// idempotent; redundant calls are harmless.
func (t *Tracker) MarkRead(ctx context.Context, readerID, counterpartID int64) error {
	if err := t.messages.MarkRead(ctx, counterpartID, readerID); err != nil {
		return fmt.Errorf("mark read: %w", err)
	}
	t.router.Publish(UserChannel(counterpartID), Event{
		Name: EventMessagesRead,
		Data: ReadReceiptPayload{ReaderID: readerID},
	})
	return nil
}

// HistoryCleared notifies a counterpart that the conversation history was
// cleared on the other side. Purely a notification; deletion happens through
// the message store's REST path.
func (t *Tracker) HistoryCleared(clearedBy, counterpartID int64) {
	t.router.Publish(UserChannel(counterpartID), Event{
		Name: EventHistoryCleared,
		Data: HistoryClearedPayload{ClearedBy: clearedBy},
	})
}
