package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/mingle-im/mingle-server/internal/store"
)

// Dispatcher validates and persists message mutations, then fans the
// resulting events out through the router. Authorization rides on the
// store's conditional mutations; there is no read-then-write anywhere, so
// the realtime and REST paths can hit the same row concurrently.
//
// Failed authorization is silent: no event, no error back to the actor.
type Dispatcher struct {
	messages store.MessageStore
	users    store.UserStore
	router   *Router
	log      *zerolog.Logger
}

// NewDispatcher constructs a dispatcher.
func NewDispatcher(messages store.MessageStore, users store.UserStore, router *Router, logger *zerolog.Logger) *Dispatcher {
	return &Dispatcher{
		messages: messages,
		users:    users,
		router:   router,
		log:      logger,
	}
}

// Send persists an envelope and delivers the hydrated message to the target
// channel, acknowledging the sender's own connection separately so an
// optimistic UI can reconcile the server-assigned ID and timestamp.
func (d *Dispatcher) Send(ctx context.Context, sender *Client, env Envelope) (*MessagePayload, error) {
	if err := env.Validate(); err != nil {
		return nil, err
	}

	msg := &store.Message{
		SenderID:   env.SenderID,
		ReceiverID: env.ReceiverID,
		GroupID:    env.GroupID,
		Content:    env.Content,
		Type:       env.Type,
		FileURL:    env.FileURL,
		FileName:   env.FileName,
		ReplyToID:  env.ReplyToID,
	}
	if err := d.messages.InsertMessage(ctx, msg); err != nil {
		return nil, fmt.Errorf("persist message: %w", err)
	}

	payload := d.hydrate(ctx, msg)

	if env.GroupID != nil {
		d.router.Publish(GroupChannel(*env.GroupID), Event{Name: EventReceiveMessage, Data: payload})
	} else {
		d.router.Publish(UserChannel(*env.ReceiverID), Event{Name: EventReceiveMessage, Data: payload})
	}
	if sender != nil {
		sender.Send(Event{Name: EventMessageSent, Data: payload})
	}
	return payload, nil
}

// Edit applies a content edit if editorID is the original sender, otherwise
// drops the request silently.
func (d *Dispatcher) Edit(ctx context.Context, editor *Client, messageID, editorID int64, newContent string) error {
	msg, err := d.messages.GetMessage(ctx, messageID)
	if errors.Is(err, store.ErrNotFound) {
		d.log.Debug().Int64("message_id", messageID).Msg("edit of unknown message dropped")
		return nil
	}
	if err != nil {
		return fmt.Errorf("load message: %w", err)
	}

	ok, err := d.messages.UpdateMessageContent(ctx, messageID, editorID, newContent)
	if err != nil {
		return fmt.Errorf("update message: %w", err)
	}
	if !ok {
		d.log.Debug().Int64("message_id", messageID).Int64("editor_id", editorID).Msg("unauthorized edit dropped")
		return nil
	}

	ev := Event{Name: EventMessageEdited, Data: EditPayload{MessageID: messageID, NewContent: newContent}}
	d.publishToTarget(msg, ev)
	if editor != nil {
		editor.Send(Event{Name: EventMessageEditedConfirm, Data: EditPayload{MessageID: messageID, NewContent: newContent}})
	}
	return nil
}

// Delete removes a message if requesterID is the original sender, otherwise
// drops the request silently.
func (d *Dispatcher) Delete(ctx context.Context, requester *Client, messageID, requesterID int64) error {
	msg, err := d.messages.GetMessage(ctx, messageID)
	if errors.Is(err, store.ErrNotFound) {
		d.log.Debug().Int64("message_id", messageID).Msg("delete of unknown message dropped")
		return nil
	}
	if err != nil {
		return fmt.Errorf("load message: %w", err)
	}

	ok, err := d.messages.DeleteMessage(ctx, messageID, requesterID)
	if err != nil {
		return fmt.Errorf("delete message: %w", err)
	}
	if !ok {
		d.log.Debug().Int64("message_id", messageID).Int64("requester_id", requesterID).Msg("unauthorized delete dropped")
		return nil
	}

	d.publishToTarget(msg, Event{Name: EventMessageDeleted, Data: DeletePayload{MessageID: messageID}})
	if requester != nil {
		requester.Send(Event{Name: EventMessageDeletedConfirm, Data: DeletePayload{MessageID: messageID}})
	}
	return nil
}

// React replaces the user's reaction on a message (last write wins),
// recomputes the full reaction list and notifies whichever side of the
// conversation is not the reactor; group messages notify the group channel.
func (d *Dispatcher) React(ctx context.Context, messageID, reactorID int64, emoji string) ([]*store.Reaction, error) {
	msg, err := d.messages.GetMessage(ctx, messageID)
	if err != nil {
		return nil, err
	}

	reactions, err := d.messages.UpsertReaction(ctx, messageID, reactorID, emoji)
	if err != nil {
		return nil, fmt.Errorf("upsert reaction: %w", err)
	}

	ev := Event{Name: EventMessageReaction, Data: ReactionUpdatePayload{
		MessageID: messageID,
		Reactions: reactionPayloads(reactions),
	}}

	switch {
	case msg.GroupID != nil:
		d.router.Publish(GroupChannel(*msg.GroupID), ev)
	case msg.SenderID == reactorID && msg.ReceiverID != nil:
		d.router.Publish(UserChannel(*msg.ReceiverID), ev)
	default:
		d.router.Publish(UserChannel(msg.SenderID), ev)
	}
	return reactions, nil
}

func (d *Dispatcher) publishToTarget(msg *store.Message, ev Event) {
	if msg.GroupID != nil {
		d.router.Publish(GroupChannel(*msg.GroupID), ev)
	} else if msg.ReceiverID != nil {
		d.router.Publish(UserChannel(*msg.ReceiverID), ev)
	}
}

// hydrate resolves sender display info and reply content. Both degrade
// gracefully: a missing sender leaves names empty, a deleted reply target
// leaves reply_content null.
func (d *Dispatcher) hydrate(ctx context.Context, msg *store.Message) *MessagePayload {
	payload := &MessagePayload{
		ID:         msg.ID,
		SenderID:   msg.SenderID,
		ReceiverID: msg.ReceiverID,
		GroupID:    msg.GroupID,
		Content:    msg.Content,
		Type:       string(msg.Type),
		FileURL:    msg.FileURL,
		FileName:   msg.FileName,
		ReplyToID:  msg.ReplyToID,
		IsEdited:   msg.IsEdited,
		CreatedAt:  msg.CreatedAt,
		Reactions:  []ReactionPayload{},
	}

	if sender, err := d.users.GetUserByID(ctx, msg.SenderID); err == nil {
		payload.SenderName = sender.Username
		payload.SenderAvatar = sender.AvatarURL
	} else {
		d.log.Warn().Err(err).Int64("sender_id", msg.SenderID).Msg("failed to resolve sender info")
	}

	if msg.ReplyToID != nil {
		original, err := d.messages.GetMessage(ctx, *msg.ReplyToID)
		switch {
		case err == nil:
			payload.ReplyContent = &original.Content
		case errors.Is(err, store.ErrNotFound):
			// Reply target was deleted; deliver with a null placeholder.
		default:
			d.log.Warn().Err(err).Int64("reply_to_id", *msg.ReplyToID).Msg("failed to resolve reply target")
		}
	}
	return payload
}
