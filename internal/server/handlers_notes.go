package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/corkboardlabs/corkboard/board"
	"github.com/corkboardlabs/corkboard/internal/notes"
	"github.com/corkboardlabs/corkboard/internal/realtime"
)

type addNotePayload struct {
	Text string `json:"text"`
	// Position is optional: a client that has not measured its canvas omits
	// it and the server picks a random column placement.
	XPos    *float64 `json:"xPos"`
	YPos    *float64 `json:"yPos"`
	Columns int      `json:"columns"`
}

type editNotePayload struct {
	Text string `json:"text"`
}

type movePayload struct {
	XPos float64 `json:"xPos"`
	YPos float64 `json:"yPos"`
}

func (h *httpHandler) handleListNotes(c *gin.Context) {
	noteList, err := h.notesService.List(c.Request.Context(), c.Param("roomID"))
	if err != nil {
		h.respondNoteError(c, err, "note_list_failed")
		return
	}
	c.JSON(http.StatusOK, gin.H{"notes": toNotePayloads(noteList)})
}

func (h *httpHandler) handleAddNote(c *gin.Context) {
	var request addNotePayload
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}

	var position board.Point
	if request.XPos != nil && request.YPos != nil {
		position = board.Point{X: *request.XPos, Y: *request.YPos}
	} else {
		position = h.notesService.Canvas().RandomPlacement(request.Columns, nil)
	}

	note, err := h.notesService.Add(
		c.Request.Context(),
		c.Param("roomID"),
		c.GetString(userIDContextKey),
		c.GetString(userEmailContextKey),
		request.Text,
		position,
	)
	if err != nil {
		h.respondNoteError(c, err, "note_add_failed")
		return
	}

	h.publishNoteEvent(realtime.EventNoteCreated, note.RoomID, note.NoteID, note.AuthorID)
	c.JSON(http.StatusCreated, toNotePayload(note))
}

func (h *httpHandler) handleEditNote(c *gin.Context) {
	var request editNotePayload
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}

	note, err := h.notesService.Edit(
		c.Request.Context(),
		c.Param("roomID"),
		c.Param("noteID"),
		c.GetString(userIDContextKey),
		request.Text,
	)
	if err != nil {
		h.respondNoteError(c, err, "note_edit_failed")
		return
	}

	h.publishNoteEvent(realtime.EventNoteUpdated, note.RoomID, note.NoteID, c.GetString(userIDContextKey))
	c.JSON(http.StatusOK, toNotePayload(note))
}

func (h *httpHandler) handleDeleteNote(c *gin.Context) {
	roomID := c.Param("roomID")
	noteID := c.Param("noteID")
	if err := h.notesService.Delete(c.Request.Context(), roomID, noteID, c.GetString(userIDContextKey)); err != nil {
		h.respondNoteError(c, err, "note_delete_failed")
		return
	}

	h.publishNoteEvent(realtime.EventNoteDeleted, roomID, noteID, c.GetString(userIDContextKey))
	c.Status(http.StatusNoContent)
}

func (h *httpHandler) handleMoveNote(c *gin.Context) {
	var request movePayload
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}

	note, err := h.notesService.Move(
		c.Request.Context(),
		c.Param("roomID"),
		c.Param("noteID"),
		board.Point{X: request.XPos, Y: request.YPos},
	)
	if err != nil {
		h.respondNoteError(c, err, "note_move_failed")
		return
	}

	h.publishNoteEvent(realtime.EventNoteMoved, note.RoomID, note.NoteID, c.GetString(userIDContextKey))
	c.JSON(http.StatusOK, toNotePayload(note))
}

// respondNoteError maps note service failures onto HTTP statuses.
func (h *httpHandler) respondNoteError(c *gin.Context, err error, fallbackCode string) {
	switch {
	case errors.Is(err, notes.ErrBlankNoteText):
		c.JSON(http.StatusBadRequest, gin.H{"error": "blank_note_text"})
	case errors.Is(err, notes.ErrRoomNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "room_not_found"})
	case errors.Is(err, notes.ErrNoteNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "note_not_found"})
	case errors.Is(err, notes.ErrNotAuthor):
		c.JSON(http.StatusForbidden, gin.H{"error": "not_note_author"})
	default:
		h.logger.Error("note operation failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": fallbackCode})
	}
}

func (h *httpHandler) publishNoteEvent(kind realtime.EventKind, roomID, noteID, actorID string) {
	h.dispatcher.Publish(realtime.RoomTopic(roomID), realtime.Event{
		Kind:      kind,
		RoomID:    roomID,
		NoteID:    noteID,
		ActorID:   actorID,
		Timestamp: timeNow(),
	})
}
