package http

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/mingle-im/mingle-server/internal/core"
	"github.com/mingle-im/mingle-server/internal/store"
)

// MessageHandlers provides HTTP handlers for message history and reactions.
// Mutations go through the same dispatcher as the realtime path, so live
// subscribers see REST-triggered changes too.
type MessageHandlers struct {
	store store.Store
	hub   *core.Hub
	log   *zerolog.Logger
}

// NewMessageHandlers creates a new message handlers instance.
func NewMessageHandlers(st store.Store, hub *core.Hub, logger *zerolog.Logger) *MessageHandlers {
	return &MessageHandlers{store: st, hub: hub, log: logger}
}

// MessageResponse is one message in API responses.
type MessageResponse struct {
	ID           int64                  `json:"id"`
	SenderID     int64                  `json:"sender_id"`
	ReceiverID   *int64                 `json:"receiver_id,omitempty"`
	GroupID      *int64                 `json:"group_id,omitempty"`
	Content      string                 `json:"content"`
	Type         string                 `json:"type"`
	FileURL      *string                `json:"file_url,omitempty"`
	FileName     *string                `json:"file_name,omitempty"`
	ReplyToID    *int64                 `json:"reply_to_id,omitempty"`
	ReplyContent *string                `json:"reply_content"`
	IsRead       bool                   `json:"is_read"`
	IsEdited     bool                   `json:"is_edited"`
	CreatedAt    time.Time              `json:"created_at"`
	Reactions    []core.ReactionPayload `json:"reactions"`
}

func (h *MessageHandlers) messageResponse(c *gin.Context, msg *store.Message) MessageResponse {
	resp := MessageResponse{
		ID:           msg.ID,
		SenderID:     msg.SenderID,
		ReceiverID:   msg.ReceiverID,
		GroupID:      msg.GroupID,
		Content:      msg.Content,
		Type:         string(msg.Type),
		FileURL:      msg.FileURL,
		FileName:     msg.FileName,
		ReplyToID:    msg.ReplyToID,
		ReplyContent: msg.ReplyContent,
		IsRead:       msg.IsRead,
		IsEdited:     msg.IsEdited,
		CreatedAt:    msg.CreatedAt,
		Reactions:    []core.ReactionPayload{},
	}

	reactions, err := h.store.ReactionsFor(c.Request.Context(), msg.ID)
	if err != nil {
		h.log.Warn().Err(err).Int64("message_id", msg.ID).Msg("failed to load reactions")
		return resp
	}
	for _, r := range reactions {
		resp.Reactions = append(resp.Reactions, core.ReactionPayload{
			UserID:   r.UserID,
			Emoji:    r.Emoji,
			Username: r.Username,
		})
	}
	return resp
}

// History returns the direct conversation with a friend and marks their
// messages as read, which is why fetching history flips delivery ticks.
// GET /api/conversations/:friendID
func (h *MessageHandlers) History(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
		return
	}

	friendID, err := strconv.ParseInt(c.Param("friendID"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid friend id"})
		return
	}

	msgs, err := h.store.ListConversation(c.Request.Context(), userID, friendID)
	if err != nil {
		h.log.Error().Err(err).Int64("user_id", userID).Msg("list conversation failed")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	if err := h.hub.Tracker().MarkRead(c.Request.Context(), userID, friendID); err != nil {
		h.log.Warn().Err(err).Int64("user_id", userID).Msg("auto mark read failed")
	}

	out := make([]MessageResponse, 0, len(msgs))
	for _, msg := range msgs {
		out = append(out, h.messageResponse(c, msg))
	}
	c.JSON(http.StatusOK, out)
}

// ClearHistory deletes the direct conversation with a friend and notifies
// their live connections.
// DELETE /api/conversations/:friendID
func (h *MessageHandlers) ClearHistory(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
		return
	}

	friendID, err := strconv.ParseInt(c.Param("friendID"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid friend id"})
		return
	}

	if err := h.store.ClearHistory(c.Request.Context(), userID, friendID); err != nil {
		h.log.Error().Err(err).Int64("user_id", userID).Msg("clear history failed")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}
	h.hub.Tracker().HistoryCleared(userID, friendID)

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// ReadAllRequest represents the read-all request body.
type ReadAllRequest struct {
	FriendID int64 `json:"friend_id" binding:"required"`
}

// ReadAll marks all messages from a friend as read.
// POST /api/messages/read-all
func (h *MessageHandlers) ReadAll(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
		return
	}

	var req ReadAllRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	if err := h.hub.Tracker().MarkRead(c.Request.Context(), userID, req.FriendID); err != nil {
		h.log.Error().Err(err).Int64("user_id", userID).Msg("read all failed")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// ReactRequest represents the reaction request body.
type ReactRequest struct {
	MessageID int64  `json:"message_id" binding:"required"`
	Emoji     string `json:"emoji" binding:"required"`
}

// React replaces the caller's reaction on a message. The resulting
// message_reaction event fans out through the realtime core.
// POST /api/messages/react
func (h *MessageHandlers) React(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
		return
	}

	var req ReactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	reactions, err := h.hub.Dispatcher().React(c.Request.Context(), req.MessageID, userID, req.Emoji)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "message not found"})
			return
		}
		h.log.Error().Err(err).Int64("message_id", req.MessageID).Msg("react failed")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	out := make([]core.ReactionPayload, 0, len(reactions))
	for _, r := range reactions {
		out = append(out, core.ReactionPayload{UserID: r.UserID, Emoji: r.Emoji, Username: r.Username})
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "reactions": out})
}

// Reactions lists reactions on a message.
// GET /api/reactions/:messageID
func (h *MessageHandlers) Reactions(c *gin.Context) {
	messageID, err := strconv.ParseInt(c.Param("messageID"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid message id"})
		return
	}

	reactions, err := h.store.ReactionsFor(c.Request.Context(), messageID)
	if err != nil {
		h.log.Error().Err(err).Int64("message_id", messageID).Msg("list reactions failed")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	out := make([]core.ReactionPayload, 0, len(reactions))
	for _, r := range reactions {
		out = append(out, core.ReactionPayload{UserID: r.UserID, Emoji: r.Emoji, Username: r.Username})
	}
	c.JSON(http.StatusOK, out)
}
