package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/inote-dev/inote/internal/identity"
	"github.com/inote-dev/inote/internal/models"
	"github.com/inote-dev/inote/internal/types"
)

type CreateUserRequest struct {
	Name                 string `json:"name" binding:"required,max=255"`
	Email                string `json:"email" binding:"required,email,max=255"`
	Password             string `json:"password" binding:"required,min=8"`
	PasswordConfirmation string `json:"password_confirmation" binding:"required"`
}

type LoginUserRequest struct {
	Name     string `json:"name" binding:"required"`
	Password string `json:"password" binding:"required,min=8"`
}

type UpdateUserRequest struct {
	Name                 *string `json:"name" binding:"omitempty,max=255"`
	Password             *string `json:"password" binding:"omitempty,min=8"`
	PasswordConfirmation *string `json:"password_confirmation"`
}

func toUserResponse(user *models.User) types.UserResponse {
	return types.UserResponse{
		ID:        user.ID,
		Name:      user.Name,
		Email:     user.Email,
		CreatedAt: user.CreatedAt,
		UpdatedAt: user.UpdatedAt,
	}
}

func (h *Handler) Register(ctx *gin.Context) {
	var body CreateUserRequest

	if !h.bindJSON(ctx, &body) {
		return
	}

	user, token, err := h.Identity.Register(ctx.Request.Context(), identity.RegisterInput{
		Name:                 body.Name,
		Email:                body.Email,
		Password:             body.Password,
		PasswordConfirmation: body.PasswordConfirmation,
	})

	if err != nil {
		h.respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, gin.H{
		"user":  toUserResponse(user),
		"token": token,
	})
}

func (h *Handler) Login(ctx *gin.Context) {
	var body LoginUserRequest

	if !h.bindJSON(ctx, &body) {
		return
	}

	user, token, err := h.Identity.Login(ctx.Request.Context(), body.Name, body.Password)

	if err != nil {
		h.respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, gin.H{
		"user":  toUserResponse(user),
		"token": token,
	})
}

func (h *Handler) Logout(ctx *gin.Context) {
	currentUser, ok := h.currentUser(ctx)

	if !ok {
		return
	}

	if err := h.Identity.Logout(ctx.Request.Context(), currentUser); err != nil {
		h.respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"message": "logged out"})
}

func (h *Handler) Me(ctx *gin.Context) {
	currentUser, ok := h.currentUser(ctx)

	if !ok {
		return
	}

	user, err := h.Identity.Get(ctx.Request.Context(), currentUser)

	if err != nil {
		h.respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, toUserResponse(user))
}

func (h *Handler) UpdateUser(ctx *gin.Context) {
	currentUser, ok := h.currentUser(ctx)

	if !ok {
		return
	}

	var body UpdateUserRequest

	if !h.bindJSON(ctx, &body) {
		return
	}

	user, err := h.Identity.Edit(ctx.Request.Context(), currentUser, identity.EditInput{
		Name:                 body.Name,
		Password:             body.Password,
		PasswordConfirmation: body.PasswordConfirmation,
	})

	if err != nil {
		h.respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"message": "User updated successfully.",
		"user":    toUserResponse(user),
	})
}

func (h *Handler) DeleteUser(ctx *gin.Context) {
	currentUser, ok := h.currentUser(ctx)

	if !ok {
		return
	}

	if err := h.Identity.Delete(ctx.Request.Context(), currentUser); err != nil {
		h.respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"message": "User account and related data deleted successfully."})
}
