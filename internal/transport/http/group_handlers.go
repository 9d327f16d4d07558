package http

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/mingle-im/mingle-server/internal/core"
	"github.com/mingle-im/mingle-server/internal/store"
)

// GroupHandlers provides HTTP handlers for group management. Membership
// mutations are forwarded to the hub so live connections are resubscribed
// without reconnecting.
type GroupHandlers struct {
	store store.Store
	hub   *core.Hub
	log   *zerolog.Logger
}

// NewGroupHandlers creates a new group handlers instance.
func NewGroupHandlers(st store.Store, hub *core.Hub, logger *zerolog.Logger) *GroupHandlers {
	return &GroupHandlers{store: st, hub: hub, log: logger}
}

// CreateGroupRequest represents the create group request body.
type CreateGroupRequest struct {
	Name    string  `json:"name" binding:"required,min=1,max=64"`
	UserIDs []int64 `json:"user_ids"`
}

// GroupResponse represents a group in API responses.
type GroupResponse struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	CreatedBy int64     `json:"created_by"`
	CreatedAt time.Time `json:"created_at"`
}

func groupResponse(g *store.Group) GroupResponse {
	return GroupResponse{ID: g.ID, Name: g.Name, CreatedBy: g.CreatedBy, CreatedAt: g.CreatedAt}
}

// Create creates a group with the caller as admin plus the given members.
// POST /api/groups
func (h *GroupHandlers) Create(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
		return
	}

	var req CreateGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	group, err := h.store.CreateGroup(c.Request.Context(), req.Name, userID)
	if err != nil {
		h.log.Error().Err(err).Msg("create group failed")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}
	h.hub.MembershipChanged(group.ID, userID, true)

	for _, uid := range req.UserIDs {
		if uid == userID {
			continue
		}
		if err := h.store.AddMember(c.Request.Context(), group.ID, uid, store.GroupRoleMember); err != nil {
			h.log.Warn().Err(err).Int64("group_id", group.ID).Int64("user_id", uid).Msg("add member failed")
			continue
		}
		h.hub.MembershipChanged(group.ID, uid, true)
	}

	c.JSON(http.StatusCreated, groupResponse(group))
}

// List returns the caller's groups.
// GET /api/groups
func (h *GroupHandlers) List(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
		return
	}

	groups, err := h.store.ListGroups(c.Request.Context(), userID)
	if err != nil {
		h.log.Error().Err(err).Msg("list groups failed")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	out := make([]GroupResponse, 0, len(groups))
	for _, g := range groups {
		out = append(out, groupResponse(g))
	}
	c.JSON(http.StatusOK, out)
}

// MemberResponse is one group member with profile info.
type MemberResponse struct {
	UserResponse
	Role string `json:"role"`
}

// Members lists the members of a group the caller belongs to.
// GET /api/groups/:groupID/members
func (h *GroupHandlers) Members(c *gin.Context) {
	_, groupID, ok := h.memberAccess(c)
	if !ok {
		return
	}

	members, err := h.store.ListMembers(c.Request.Context(), groupID)
	if err != nil {
		h.log.Error().Err(err).Int64("group_id", groupID).Msg("list members failed")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	out := make([]MemberResponse, 0, len(members))
	for _, m := range members {
		user, err := h.store.GetUserByID(c.Request.Context(), m.UserID)
		if err != nil {
			continue
		}
		out = append(out, MemberResponse{UserResponse: userResponse(user), Role: string(m.Role)})
	}
	c.JSON(http.StatusOK, out)
}

// Messages returns a group's message history.
// GET /api/groups/:groupID/messages
func (h *GroupHandlers) Messages(c *gin.Context) {
	_, groupID, ok := h.memberAccess(c)
	if !ok {
		return
	}

	msgs, err := h.store.ListGroupMessages(c.Request.Context(), groupID)
	if err != nil {
		h.log.Error().Err(err).Int64("group_id", groupID).Msg("list group messages failed")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	messageHandlers := MessageHandlers{store: h.store, hub: h.hub, log: h.log}
	out := make([]MessageResponse, 0, len(msgs))
	for _, msg := range msgs {
		out = append(out, messageHandlers.messageResponse(c, msg))
	}
	c.JSON(http.StatusOK, out)
}

// AddMemberRequest represents the add member request body.
type AddMemberRequest struct {
	UserID int64 `json:"user_id" binding:"required"`
}

// AddMember adds a user to a group the caller belongs to and subscribes the
// new member's live connections to the group channel.
// POST /api/groups/:groupID/members
func (h *GroupHandlers) AddMember(c *gin.Context) {
	_, groupID, ok := h.memberAccess(c)
	if !ok {
		return
	}

	var req AddMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	if err := h.store.AddMember(c.Request.Context(), groupID, req.UserID, store.GroupRoleMember); err != nil {
		h.log.Error().Err(err).Int64("group_id", groupID).Msg("add member failed")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}
	h.hub.MembershipChanged(groupID, req.UserID, true)

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// Leave removes the caller from a group and unsubscribes their live
// connections from the group channel.
// POST /api/groups/:groupID/leave
func (h *GroupHandlers) Leave(c *gin.Context) {
	userID, groupID, ok := h.memberAccess(c)
	if !ok {
		return
	}

	if err := h.store.RemoveMember(c.Request.Context(), groupID, userID); err != nil {
		h.log.Error().Err(err).Int64("group_id", groupID).Msg("remove member failed")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}
	h.hub.MembershipChanged(groupID, userID, false)

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// memberAccess parses :groupID and verifies the caller's membership.
func (h *GroupHandlers) memberAccess(c *gin.Context) (userID, groupID int64, ok bool) {
	userID, idOK := currentUserID(c)
	if !idOK {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
		return 0, 0, false
	}

	groupID, err := strconv.ParseInt(c.Param("groupID"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid group id"})
		return 0, 0, false
	}

	member, err := h.store.IsMember(c.Request.Context(), groupID, userID)
	if err != nil {
		h.log.Error().Err(err).Int64("group_id", groupID).Msg("membership check failed")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return 0, 0, false
	}
	if !member {
		c.JSON(http.StatusForbidden, ErrorResponse{Error: "not a member"})
		return 0, 0, false
	}
	return userID, groupID, true
}
