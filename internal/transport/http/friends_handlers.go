package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/mingle-im/mingle-server/internal/core"
	"github.com/mingle-im/mingle-server/internal/store"
)

// FriendHandlers provides HTTP handlers for friend bookkeeping.
type FriendHandlers struct {
	store store.Store
	hub   *core.Hub
	log   *zerolog.Logger
}

// NewFriendHandlers creates a new friend handlers instance.
func NewFriendHandlers(st store.Store, hub *core.Hub, logger *zerolog.Logger) *FriendHandlers {
	return &FriendHandlers{store: st, hub: hub, log: logger}
}

// FriendRequestBody represents the send-request body.
type FriendRequestBody struct {
	FriendID int64 `json:"friend_id" binding:"required"`
}

// RequestIDBody addresses an existing friend request.
type RequestIDBody struct {
	RequestID int64 `json:"request_id" binding:"required"`
}

// NewFriendRequestPayload notifies a user about an incoming request.
type NewFriendRequestPayload struct {
	From UserResponse `json:"from"`
}

// SendRequest creates a pending friend request and notifies the recipient's
// live connections.
// POST /api/friends/request
func (h *FriendHandlers) SendRequest(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
		return
	}

	var req FriendRequestBody
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}
	if req.FriendID == userID {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "cannot add yourself"})
		return
	}

	if _, err := h.store.GetUserByID(c.Request.Context(), req.FriendID); err != nil {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "user not found"})
		return
	}

	if _, err := h.store.GetFriendship(c.Request.Context(), userID, req.FriendID); err == nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "relationship already exists or pending"})
		return
	} else if !errors.Is(err, store.ErrNotFound) {
		h.log.Error().Err(err).Msg("friendship lookup failed")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	if _, err := h.store.CreateFriendRequest(c.Request.Context(), userID, req.FriendID); err != nil {
		h.log.Error().Err(err).Msg("create friend request failed")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	if requester, err := h.store.GetUserByID(c.Request.Context(), userID); err == nil {
		h.hub.Router().Publish(core.UserChannel(req.FriendID), core.Event{
			Name: core.EventNewFriendRequest,
			Data: NewFriendRequestPayload{From: userResponse(requester)},
		})
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// PendingResponse is one incoming pending request with requester info.
type PendingResponse struct {
	RequestID int64 `json:"request_id"`
	UserResponse
}

// Pending lists incoming pending friend requests.
// GET /api/friends/pending
func (h *FriendHandlers) Pending(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
		return
	}

	requests, err := h.store.ListPendingRequests(c.Request.Context(), userID)
	if err != nil {
		h.log.Error().Err(err).Msg("list pending requests failed")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	out := make([]PendingResponse, 0, len(requests))
	for _, f := range requests {
		requester, err := h.store.GetUserByID(c.Request.Context(), f.UserID)
		if err != nil {
			continue
		}
		out = append(out, PendingResponse{RequestID: f.ID, UserResponse: userResponse(requester)})
	}
	c.JSON(http.StatusOK, out)
}

// Accept accepts a pending friend request addressed to the caller.
// POST /api/friends/accept
func (h *FriendHandlers) Accept(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
		return
	}

	var req RequestIDBody
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	accepted, err := h.store.AcceptFriendRequest(c.Request.Context(), req.RequestID, userID)
	if err != nil {
		h.log.Error().Err(err).Msg("accept friend request failed")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}
	if !accepted {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "request not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// Reject removes a pending request or cancels one the caller sent.
// POST /api/friends/reject
func (h *FriendHandlers) Reject(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
		return
	}

	var req RequestIDBody
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	if err := h.store.DeleteFriendship(c.Request.Context(), req.RequestID, userID); err != nil {
		h.log.Error().Err(err).Msg("delete friendship failed")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// List returns the caller's accepted friends.
// GET /api/friends/list
func (h *FriendHandlers) List(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
		return
	}

	friends, err := h.store.ListFriends(c.Request.Context(), userID)
	if err != nil {
		h.log.Error().Err(err).Msg("list friends failed")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	out := make([]UserResponse, 0, len(friends))
	for _, u := range friends {
		out = append(out, userResponse(u))
	}
	c.JSON(http.StatusOK, out)
}
