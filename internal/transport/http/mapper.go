package http

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/mingle-im/mingle-server/internal/core"
	"github.com/mingle-im/mingle-server/internal/proto"
	"github.com/mingle-im/mingle-server/internal/store"
)

// handleInbound maps one inbound frame onto a core operation. A non-nil
// return is a protocol error echoed to this connection only. Authorization
// failures return nil: they are dropped without telling the actor anything.
func (h *WSHandler) handleInbound(ctx context.Context, client *core.Client, inbound proto.Inbound) *proto.Error {
	if inbound.Type == proto.InboundTypeJoin {
		return h.handleJoin(ctx, client, inbound.Data)
	}

	// Everything else requires a completed handshake.
	if client.UserID == 0 {
		return &proto.Error{Code: core.ErrCodeNotJoined, Msg: "join first"}
	}

	switch inbound.Type {
	case proto.InboundTypeSendMessage:
		var data proto.SendMessageData
		if err := json.Unmarshal(inbound.Data, &data); err != nil {
			return &proto.Error{Code: core.ErrCodeBadRequest, Msg: "malformed send_message"}
		}
		if data.SenderID != client.UserID {
			h.log.Debug().Str("conn_id", client.ID).Int64("claimed", data.SenderID).Msg("sender spoof dropped")
			return nil
		}
		env := core.Envelope{
			SenderID:   data.SenderID,
			ReceiverID: data.ReceiverID,
			GroupID:    data.GroupID,
			Content:    data.Content,
			Type:       store.MessageType(data.Type),
			FileURL:    data.FileURL,
			FileName:   data.FileName,
			ReplyToID:  data.ReplyToID,
		}
		if _, err := h.hub.Dispatcher().Send(ctx, client, env); err != nil {
			if errors.Is(err, core.ErrBadEnvelope) {
				h.log.Debug().Str("conn_id", client.ID).Msg("malformed envelope dropped")
				return &proto.Error{Code: core.ErrCodeBadRequest, Msg: err.Error()}
			}
			h.log.Error().Err(err).Str("conn_id", client.ID).Msg("send message failed")
		}

	case proto.InboundTypeTyping:
		var data proto.TypingData
		if err := json.Unmarshal(inbound.Data, &data); err != nil {
			return &proto.Error{Code: core.ErrCodeBadRequest, Msg: "malformed typing"}
		}
		if data.SenderID != client.UserID {
			return nil
		}
		if err := h.hub.Tracker().Typing(client, data.SenderID, data.ReceiverID, data.GroupID, data.IsTyping); err != nil {
			return &proto.Error{Code: core.ErrCodeBadRequest, Msg: err.Error()}
		}

	case proto.InboundTypeMarkRead:
		var data proto.MarkReadData
		if err := json.Unmarshal(inbound.Data, &data); err != nil {
			return &proto.Error{Code: core.ErrCodeBadRequest, Msg: "malformed mark_read"}
		}
		// The reader is the receiver of the messages being acknowledged.
		if data.ReceiverID != client.UserID {
			return nil
		}
		if err := h.hub.Tracker().MarkRead(ctx, data.ReceiverID, data.SenderID); err != nil {
			h.log.Error().Err(err).Str("conn_id", client.ID).Msg("mark read failed")
		}

	case proto.InboundTypeEditMessage:
		var data proto.EditMessageData
		if err := json.Unmarshal(inbound.Data, &data); err != nil {
			return &proto.Error{Code: core.ErrCodeBadRequest, Msg: "malformed edit_message"}
		}
		if data.SenderID != client.UserID {
			return nil
		}
		if err := h.hub.Dispatcher().Edit(ctx, client, data.MessageID, data.SenderID, data.NewContent); err != nil {
			h.log.Error().Err(err).Str("conn_id", client.ID).Msg("edit message failed")
		}

	case proto.InboundTypeDeleteMessage:
		var data proto.DeleteMessageData
		if err := json.Unmarshal(inbound.Data, &data); err != nil {
			return &proto.Error{Code: core.ErrCodeBadRequest, Msg: "malformed delete_message"}
		}
		if data.SenderID != client.UserID {
			return nil
		}
		if err := h.hub.Dispatcher().Delete(ctx, client, data.MessageID, data.SenderID); err != nil {
			h.log.Error().Err(err).Str("conn_id", client.ID).Msg("delete message failed")
		}

	case proto.InboundTypeClearHistory:
		var data proto.ClearHistoryData
		if err := json.Unmarshal(inbound.Data, &data); err != nil {
			return &proto.Error{Code: core.ErrCodeBadRequest, Msg: "malformed clear_history"}
		}
		if data.SenderID != client.UserID {
			return nil
		}
		h.hub.Tracker().HistoryCleared(data.SenderID, data.ReceiverID)

	case proto.InboundTypeCallUser:
		var data proto.CallUserData
		if err := json.Unmarshal(inbound.Data, &data); err != nil {
			return &proto.Error{Code: core.ErrCodeBadRequest, Msg: "malformed call_user"}
		}
		if data.From != client.UserID {
			return nil
		}
		h.hub.Calls().Offer(data.UserToCall, data.SignalData, data.From, data.Name)

	case proto.InboundTypeAnswerCall:
		var data proto.AnswerCallData
		if err := json.Unmarshal(inbound.Data, &data); err != nil {
			return &proto.Error{Code: core.ErrCodeBadRequest, Msg: "malformed answer_call"}
		}
		h.hub.Calls().Answer(data.To, data.Signal)

	case proto.InboundTypeRejectCall:
		var data proto.CallTargetData
		if err := json.Unmarshal(inbound.Data, &data); err != nil {
			return &proto.Error{Code: core.ErrCodeBadRequest, Msg: "malformed reject_call"}
		}
		h.hub.Calls().Reject(data.To)

	case proto.InboundTypeICECandidate:
		var data proto.ICECandidateData
		if err := json.Unmarshal(inbound.Data, &data); err != nil {
			return &proto.Error{Code: core.ErrCodeBadRequest, Msg: "malformed ice_candidate"}
		}
		h.hub.Calls().Candidate(data.To, data.Candidate)

	case proto.InboundTypeEndCall:
		var data proto.CallTargetData
		if err := json.Unmarshal(inbound.Data, &data); err != nil {
			return &proto.Error{Code: core.ErrCodeBadRequest, Msg: "malformed end_call"}
		}
		h.hub.Calls().End(data.To)

	default:
		return &proto.Error{Code: core.ErrCodeInvalidMessage, Msg: "unknown message type"}
	}
	return nil
}

func (h *WSHandler) handleJoin(ctx context.Context, client *core.Client, raw json.RawMessage) *proto.Error {
	// A connection joins exactly once. Re-joining under a different user would
	// leave the presence and channel registrations of the first user behind.
	if client.UserID != 0 {
		return &proto.Error{Code: core.ErrCodeBadRequest, Msg: "already joined"}
	}

	var data proto.JoinData
	if err := json.Unmarshal(raw, &data); err != nil {
		return &proto.Error{Code: core.ErrCodeBadRequest, Msg: "malformed join"}
	}

	userID := data.UserID
	if h.auth != nil {
		claims, err := h.auth.ValidateToken(data.Token)
		if err != nil {
			h.log.Debug().Err(err).Str("conn_id", client.ID).Msg("join with invalid token")
			return &proto.Error{Code: core.ErrCodeUnauthorized, Msg: "invalid token"}
		}
		if data.UserID != 0 && data.UserID != claims.UserID {
			return &proto.Error{Code: core.ErrCodeUnauthorized, Msg: "user id does not match token"}
		}
		userID = claims.UserID
	}
	if userID == 0 {
		return &proto.Error{Code: core.ErrCodeBadRequest, Msg: "user_id is required"}
	}

	if err := h.hub.Join(ctx, client, userID); err != nil {
		h.log.Error().Err(err).Str("conn_id", client.ID).Msg("join failed")
		return &proto.Error{Code: core.ErrCodeBadRequest, Msg: "join failed"}
	}
	return nil
}
