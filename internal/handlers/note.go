package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/inote-dev/inote/internal/content"
	"github.com/inote-dev/inote/internal/models"
	"github.com/inote-dev/inote/internal/types"
)

type CreateNoteRequest struct {
	Title    string `json:"title" binding:"required,max=255"`
	Note     string `json:"note" binding:"required"`
	Category string `json:"category" binding:"required,max=255"`
}

type UpdateNoteRequest struct {
	Title    *string `json:"title" binding:"omitempty,max=255"`
	Note     *string `json:"note"`
	Category *string `json:"category" binding:"omitempty,max=255"`
}

func toNoteResponse(note *models.Note) types.NoteResponse {
	return types.NoteResponse{
		ID:        note.ID,
		By:        note.By,
		Title:     note.Title,
		Category:  note.Category,
		Note:      note.Note,
		CreatedAt: note.CreatedAt,
		UpdatedAt: note.UpdatedAt,
	}
}

// envelope is the {success, data, message} body used by note and task routes.
func envelope(ctx *gin.Context, status int, data interface{}, message string) {
	body := gin.H{"success": true, "data": data}
	if message != "" {
		body["message"] = message
	}
	ctx.JSON(status, body)
}

func (h *Handler) ListNotes(ctx *gin.Context) {
	notes, err := h.Notes.List(ctx.Request.Context())

	if err != nil {
		h.respondError(ctx, err)
		return
	}

	response := make([]types.NoteResponse, 0, len(notes))
	for i := range notes {
		response = append(response, toNoteResponse(&notes[i]))
	}

	envelope(ctx, http.StatusOK, response, "")
}

func (h *Handler) GetNote(ctx *gin.Context) {
	id, ok := h.idParam(ctx, "Note not found")

	if !ok {
		return
	}

	note, err := h.Notes.GetByID(ctx.Request.Context(), id)

	if err != nil {
		h.respondError(ctx, err)
		return
	}

	envelope(ctx, http.StatusOK, toNoteResponse(note), "")
}

func (h *Handler) CreateNote(ctx *gin.Context) {
	currentUser, ok := h.currentUser(ctx)

	if !ok {
		return
	}

	var body CreateNoteRequest

	if !h.bindJSON(ctx, &body) {
		return
	}

	note := models.Note{
		By:       currentUser.Name,
		Title:    body.Title,
		Category: body.Category,
		Note:     body.Note,
	}

	if err := h.Notes.Create(ctx.Request.Context(), &note); err != nil {
		h.respondError(ctx, err)
		return
	}

	envelope(ctx, http.StatusCreated, toNoteResponse(&note), "Note Create Successful")
}

func (h *Handler) UpdateNote(ctx *gin.Context) {
	currentUser, ok := h.currentUser(ctx)

	if !ok {
		return
	}

	id, ok := h.idParam(ctx, "Note not found")

	if !ok {
		return
	}

	var body UpdateNoteRequest

	if !h.bindJSON(ctx, &body) {
		return
	}

	note, err := h.Notes.Update(ctx.Request.Context(), id, content.NotePatch{
		By:       &currentUser.Name,
		Title:    body.Title,
		Category: body.Category,
		Note:     body.Note,
	})

	if err != nil {
		h.respondError(ctx, err)
		return
	}

	envelope(ctx, http.StatusCreated, toNoteResponse(note), "Note Update Successful")
}

func (h *Handler) DeleteNote(ctx *gin.Context) {
	if _, ok := h.currentUser(ctx); !ok {
		return
	}

	id, ok := h.idParam(ctx, "Note not found")

	if !ok {
		return
	}

	if err := h.Notes.Delete(ctx.Request.Context(), id); err != nil {
		h.respondError(ctx, err)
		return
	}

	envelope(ctx, http.StatusAccepted, nil, "Note Delete Successful")
}
