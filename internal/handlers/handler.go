// Package handlers is the HTTP surface of inote. Authorization decisions are
// made by the services; handlers only decode, call and encode.
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/inote-dev/inote/internal/apperr"
	"github.com/inote-dev/inote/internal/content"
	"github.com/inote-dev/inote/internal/groups"
	"github.com/inote-dev/inote/internal/identity"
	"github.com/inote-dev/inote/internal/realtime"
	"github.com/inote-dev/inote/internal/types"
	"github.com/inote-dev/inote/internal/utils"
	"go.uber.org/zap"
)

type Handler struct {
	Identity *identity.Service
	Groups   *groups.Service
	Notes    content.NoteStore
	Tasks    content.TaskStore
	Hub      *realtime.Hub
	Log      *zap.Logger
}

// respondError writes err using its apperr kind. Anything that is not an
// *apperr.Error is treated as internal.
func (h *Handler) respondError(ctx *gin.Context, err error) {
	var appErr *apperr.Error
	if !errors.As(err, &appErr) {
		appErr = apperr.Internal(err)
	}

	if appErr.Kind == apperr.KindInternal {
		h.Log.Error("request failed",
			zap.String("method", ctx.Request.Method),
			zap.String("path", ctx.FullPath()),
			zap.Error(appErr.Unwrap()),
		)
		ctx.Error(appErr)
	}

	body := gin.H{"message": appErr.Message}
	if len(appErr.Fields) > 0 {
		body["errors"] = appErr.Fields
	}

	ctx.JSON(apperr.HTTPStatus(appErr.Kind), body)
}

// bindJSON decodes the request body into req. It writes the error response
// itself and reports false when the body is unusable.
func (h *Handler) bindJSON(ctx *gin.Context, req interface{}) bool {
	err := ctx.ShouldBindJSON(req)
	if err == nil {
		return true
	}

	if utils.IsMalformedBody(err) {
		ctx.JSON(http.StatusBadRequest, gin.H{"message": "Invalid request"})
		return false
	}

	h.respondError(ctx, apperr.Validation("The given data was invalid.", utils.ValidationFields(err)))
	return false
}

func (h *Handler) currentUser(ctx *gin.Context) (types.AuthenticatedUser, bool) {
	user, err := utils.GetCurrentUser(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"message": "Unauthenticated."})
		return types.AuthenticatedUser{}, false
	}

	return user, true
}

// drop disconnects userID from the group's refresh channel.
func (h *Handler) drop(groupID, userID uint) {
	if h.Hub != nil {
		h.Hub.Drop(groupID, userID)
	}
}

func (h *Handler) broadcast(groupID uint, reason string) {
	if h.Hub != nil {
		h.Hub.BroadcastRefresh(groupID, reason)
	}
}

// idParam reads the :id path parameter. Ids that cannot name a row are
// reported as missing.
func (h *Handler) idParam(ctx *gin.Context, notFound string) (uint, bool) {
	id, err := utils.GetIDParam(ctx, "id")

	if err != nil {
		ctx.JSON(http.StatusNotFound, gin.H{"message": notFound})
		return 0, false
	}

	return id, true
}
