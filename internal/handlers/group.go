package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/inote-dev/inote/internal/groups"
	"github.com/inote-dev/inote/internal/realtime"
	"github.com/inote-dev/inote/internal/types"
)

type CreateGroupRequest struct {
	Name      string `json:"name" binding:"required,max=255"`
	EntryCode string `json:"entry_code" binding:"required,max=255"`
}

type JoinGroupRequest struct {
	GroupID   *types.FlexibleID `json:"group_id"`
	Name      *string           `json:"name"`
	EntryCode string            `json:"entry_code" binding:"required"`
}

type UpdateGroupRequest struct {
	Name         *string           `json:"name" binding:"omitempty,max=255"`
	EntryCode    *string           `json:"entry_code" binding:"omitempty,max=255"`
	KickMemberID *types.FlexibleID `json:"kick_member_id"`
}

func flexibleToUint(id *types.FlexibleID) *uint {
	if id == nil {
		return nil
	}
	v := uint(*id)
	return &v
}

func (h *Handler) CreateGroup(ctx *gin.Context) {
	currentUser, ok := h.currentUser(ctx)

	if !ok {
		return
	}

	var body CreateGroupRequest

	if !h.bindJSON(ctx, &body) {
		return
	}

	group, err := h.Groups.Create(ctx.Request.Context(), currentUser, groups.CreateInput{
		Name:      body.Name,
		EntryCode: body.EntryCode,
	})

	if err != nil {
		h.respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"message": "Group created",
		"group":   groups.ToResponse(*group),
	})
}

func (h *Handler) JoinGroup(ctx *gin.Context) {
	currentUser, ok := h.currentUser(ctx)

	if !ok {
		return
	}

	var body JoinGroupRequest

	if !h.bindJSON(ctx, &body) {
		return
	}

	group, err := h.Groups.Join(ctx.Request.Context(), currentUser, groups.JoinInput{
		GroupID:   flexibleToUint(body.GroupID),
		Name:      body.Name,
		EntryCode: body.EntryCode,
	})

	if err != nil {
		h.respondError(ctx, err)
		return
	}

	h.broadcast(group.ID, realtime.ReasonMembersChanged)

	ctx.JSON(http.StatusOK, gin.H{
		"message": "Joined group",
		"group":   groups.ToResponse(*group),
	})
}

func (h *Handler) UpdateGroup(ctx *gin.Context) {
	currentUser, ok := h.currentUser(ctx)

	if !ok {
		return
	}

	groupID, ok := h.idParam(ctx, "Group not found")

	if !ok {
		return
	}

	// Non-leaders are refused before the body is looked at.
	if err := h.Groups.RequireLeader(ctx.Request.Context(), currentUser, groupID); err != nil {
		h.respondError(ctx, err)
		return
	}

	var body UpdateGroupRequest

	if !h.bindJSON(ctx, &body) {
		return
	}

	group, err := h.Groups.Edit(ctx.Request.Context(), currentUser, groupID, groups.EditInput{
		Name:         body.Name,
		EntryCode:    body.EntryCode,
		KickMemberID: flexibleToUint(body.KickMemberID),
	})

	if err != nil {
		h.respondError(ctx, err)
		return
	}

	reason := realtime.ReasonGroupUpdated
	if body.KickMemberID != nil {
		h.drop(group.ID, uint(*body.KickMemberID))
		reason = realtime.ReasonMembersChanged
	}
	h.broadcast(group.ID, reason)

	ctx.JSON(http.StatusOK, gin.H{
		"message": "Group updated",
		"group":   groups.ToResponse(*group),
	})
}

func (h *Handler) DeleteGroup(ctx *gin.Context) {
	currentUser, ok := h.currentUser(ctx)

	if !ok {
		return
	}

	groupID, ok := h.idParam(ctx, "Group not found")

	if !ok {
		return
	}

	remaining, err := h.Groups.Delete(ctx.Request.Context(), currentUser, groupID)

	if err != nil {
		h.respondError(ctx, err)
		return
	}

	h.broadcast(groupID, realtime.ReasonGroupDeleted)

	ctx.JSON(http.StatusOK, gin.H{
		"message": "Group and related notes/tasks deleted",
		"groups":  groups.ToResponses(remaining),
	})
}

func (h *Handler) LeaveGroup(ctx *gin.Context) {
	currentUser, ok := h.currentUser(ctx)

	if !ok {
		return
	}

	groupID, ok := h.idParam(ctx, "Group not found")

	if !ok {
		return
	}

	remaining, err := h.Groups.Leave(ctx.Request.Context(), currentUser, groupID)

	if err != nil {
		h.respondError(ctx, err)
		return
	}

	h.drop(groupID, currentUser.ID)
	h.broadcast(groupID, realtime.ReasonMembersChanged)

	ctx.JSON(http.StatusOK, gin.H{
		"message": "Left the group",
		"groups":  groups.ToResponses(remaining),
	})
}

// ListGroups returns the caller's groups as a bare array.
func (h *Handler) ListGroups(ctx *gin.Context) {
	currentUser, ok := h.currentUser(ctx)

	if !ok {
		return
	}

	list, err := h.Groups.ListForUser(ctx.Request.Context(), currentUser.ID)

	if err != nil {
		h.respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, groups.ToResponses(list))
}

// MyGroups is ListGroups wrapped in a {groups} object.
func (h *Handler) MyGroups(ctx *gin.Context) {
	currentUser, ok := h.currentUser(ctx)

	if !ok {
		return
	}

	list, err := h.Groups.ListForUser(ctx.Request.Context(), currentUser.ID)

	if err != nil {
		h.respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"groups": groups.ToResponses(list)})
}

func (h *Handler) GetGroup(ctx *gin.Context) {
	groupID, ok := h.idParam(ctx, "Group not found")

	if !ok {
		return
	}

	group, err := h.Groups.Get(ctx.Request.Context(), groupID)

	if err != nil {
		h.respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, groups.ToResponse(*group))
}
