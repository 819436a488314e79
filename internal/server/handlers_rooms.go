package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/corkboardlabs/corkboard/internal/realtime"
	"github.com/corkboardlabs/corkboard/internal/rooms"
)

type createRoomPayload struct {
	Name string `json:"name"`
}

type renameRoomPayload struct {
	Name string `json:"name"`
}

type updateColumnsPayload struct {
	Columns []string `json:"columns"`
}

func (h *httpHandler) handleListRooms(c *gin.Context) {
	roomList, err := h.roomsService.List(c.Request.Context())
	if err != nil {
		h.logger.Error("room listing failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "room_list_failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"rooms": toRoomPayloads(roomList)})
}

func (h *httpHandler) handleCreateRoom(c *gin.Context) {
	var request createRoomPayload
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}

	room, err := h.roomsService.Create(c.Request.Context(), request.Name, c.GetString(userIDContextKey), c.GetString(userEmailContextKey))
	if err != nil {
		if errors.Is(err, rooms.ErrBlankRoomName) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "blank_room_name"})
			return
		}
		h.logger.Error("room creation failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "room_create_failed"})
		return
	}

	h.publishRoomEvent(realtime.EventRoomCreated, room.RoomID, c.GetString(userIDContextKey))
	c.JSON(http.StatusCreated, toRoomPayload(room))
}

func (h *httpHandler) handleGetRoom(c *gin.Context) {
	room, err := h.roomsService.Get(c.Request.Context(), c.Param("roomID"))
	if err != nil {
		if errors.Is(err, rooms.ErrRoomNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "room_not_found"})
			return
		}
		h.logger.Error("room fetch failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "room_get_failed"})
		return
	}
	c.JSON(http.StatusOK, toRoomPayload(room))
}

func (h *httpHandler) handleRenameRoom(c *gin.Context) {
	var request renameRoomPayload
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}

	room, err := h.roomsService.Rename(c.Request.Context(), c.Param("roomID"), c.GetString(userIDContextKey), request.Name)
	if err != nil {
		h.respondRoomError(c, err, "room_rename_failed")
		return
	}

	h.publishRoomEvent(realtime.EventRoomUpdated, room.RoomID, c.GetString(userIDContextKey))
	c.JSON(http.StatusOK, toRoomPayload(room))
}

func (h *httpHandler) handleUpdateColumns(c *gin.Context) {
	var request updateColumnsPayload
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}

	room, err := h.roomsService.UpdateColumns(c.Request.Context(), c.Param("roomID"), request.Columns)
	if err != nil {
		h.respondRoomError(c, err, "room_columns_failed")
		return
	}

	h.publishRoomEvent(realtime.EventRoomUpdated, room.RoomID, c.GetString(userIDContextKey))
	c.JSON(http.StatusOK, toRoomPayload(room))
}

func (h *httpHandler) handleDeleteRoom(c *gin.Context) {
	roomID := c.Param("roomID")
	if err := h.roomsService.Delete(c.Request.Context(), roomID, c.GetString(userIDContextKey)); err != nil {
		h.respondRoomError(c, err, "room_delete_failed")
		return
	}

	h.publishRoomEvent(realtime.EventRoomDeleted, roomID, c.GetString(userIDContextKey))
	c.Status(http.StatusNoContent)
}

// respondRoomError maps room service failures onto HTTP statuses.
func (h *httpHandler) respondRoomError(c *gin.Context, err error, fallbackCode string) {
	switch {
	case errors.Is(err, rooms.ErrBlankRoomName):
		c.JSON(http.StatusBadRequest, gin.H{"error": "blank_room_name"})
	case errors.Is(err, rooms.ErrRoomNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "room_not_found"})
	case errors.Is(err, rooms.ErrNotCreator):
		c.JSON(http.StatusForbidden, gin.H{"error": "not_room_creator"})
	default:
		h.logger.Error("room operation failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": fallbackCode})
	}
}

// publishRoomEvent notifies both the room directory and the room topic.
func (h *httpHandler) publishRoomEvent(kind realtime.EventKind, roomID, actorID string) {
	event := realtime.Event{
		Kind:      kind,
		RoomID:    roomID,
		ActorID:   actorID,
		Timestamp: timeNow(),
	}
	h.dispatcher.Publish(realtime.TopicRoomDirectory, event)
	h.dispatcher.Publish(realtime.RoomTopic(roomID), event)
}
