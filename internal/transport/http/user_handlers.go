package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/mingle-im/mingle-server/internal/store"
)

// UserHandlers provides HTTP handlers for user directory endpoints.
type UserHandlers struct {
	store store.Store
	log   *zerolog.Logger
}

// NewUserHandlers creates a new user handlers instance.
func NewUserHandlers(st store.Store, logger *zerolog.Logger) *UserHandlers {
	return &UserHandlers{store: st, log: logger}
}

// SearchResult is a user search hit annotated with friendship state.
type SearchResult struct {
	UserResponse
	FriendStatus string `json:"friend_status"`
	IsRequester  bool   `json:"is_requester"`
	RequestID    *int64 `json:"request_id,omitempty"`
}

// Search handles user search by username or full name.
// GET /api/users/search?q=
func (h *UserHandlers) Search(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
		return
	}

	query := c.Query("q")
	if query == "" {
		c.JSON(http.StatusOK, []SearchResult{})
		return
	}

	users, err := h.store.SearchUsers(c.Request.Context(), query, 10)
	if err != nil {
		h.log.Error().Err(err).Str("query", query).Msg("user search failed")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	results := make([]SearchResult, 0, len(users))
	for _, u := range users {
		if u.ID == userID {
			continue
		}
		result := SearchResult{UserResponse: userResponse(u), FriendStatus: "none"}
		if friendship, err := h.store.GetFriendship(c.Request.Context(), userID, u.ID); err == nil {
			result.FriendStatus = string(friendship.Status)
			result.IsRequester = friendship.UserID == userID
			result.RequestID = &friendship.ID
		}
		results = append(results, result)
	}

	c.JSON(http.StatusOK, results)
}

// RecentConversationResponse is one chat-list entry: a conversation partner
// with the last message preview and unread count.
type RecentConversationResponse struct {
	ID          int64  `json:"id"`
	Username    string `json:"username"`
	FullName    string `json:"full_name"`
	Avatar      string `json:"profile_pic,omitempty"`
	LastMessage string `json:"last_message"`
	LastType    string `json:"last_type"`
	UnreadCount int64  `json:"unread_count"`
}

// messagePreview renders a chat-list preview for a message: text shows the
// content, media types show a placeholder.
func messagePreview(content string, typ store.MessageType) string {
	switch typ {
	case store.MessageTypeImage:
		return "📷 Sent a photo"
	case store.MessageTypeVoice:
		return "🎙️ Voice message"
	case store.MessageTypeFile:
		return "📄 Sent a file"
	default:
		return content
	}
}

// Recent returns the caller's direct-conversation partners with last message
// preview and unread count, most recent first.
// GET /api/users/recent
func (h *UserHandlers) Recent(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
		return
	}

	convos, err := h.store.RecentConversations(c.Request.Context(), userID)
	if err != nil {
		h.log.Error().Err(err).Int64("user_id", userID).Msg("list recent conversations failed")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	out := make([]RecentConversationResponse, 0, len(convos))
	for _, rc := range convos {
		out = append(out, RecentConversationResponse{
			ID:          rc.UserID,
			Username:    rc.Username,
			FullName:    rc.FullName,
			Avatar:      rc.AvatarURL,
			LastMessage: messagePreview(rc.LastMessage, rc.LastType),
			LastType:    string(rc.LastType),
			UnreadCount: rc.UnreadCount,
		})
	}
	c.JSON(http.StatusOK, out)
}

// UpdateProfileRequest represents the profile update request body.
type UpdateProfileRequest struct {
	FullName string `json:"full_name"`
	Country  string `json:"country"`
	Bio      string `json:"bio"`
}

// UpdateProfile handles profile updates.
// PUT /api/user/update
func (h *UserHandlers) UpdateProfile(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
		return
	}

	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	user, err := h.store.UpdateProfile(c.Request.Context(), userID, req.FullName, req.Country, req.Bio)
	if err != nil {
		h.log.Error().Err(err).Int64("user_id", userID).Msg("profile update failed")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	c.JSON(http.StatusOK, userResponse(user))
}
