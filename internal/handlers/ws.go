package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// GroupWebSocket subscribes a participant of the group to refresh events.
func (h *Handler) GroupWebSocket(ctx *gin.Context) {
	currentUser, ok := h.currentUser(ctx)

	if !ok {
		return
	}

	groupID, ok := h.idParam(ctx, "Group not found")

	if !ok {
		return
	}

	participant, err := h.Groups.IsParticipant(ctx.Request.Context(), groupID, currentUser.ID)

	if err != nil {
		h.respondError(ctx, err)
		return
	}

	if !participant {
		ctx.JSON(http.StatusForbidden, gin.H{"message": "Unauthorized"})
		return
	}

	h.Hub.Serve(ctx.Writer, ctx.Request, groupID, currentUser.ID)
}
