package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/corkboardlabs/corkboard/internal/notes"
	"github.com/corkboardlabs/corkboard/internal/realtime"
	"github.com/corkboardlabs/corkboard/internal/rooms"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
)

// Message types delivered over the live subscription sockets.
const (
	MessageTypeRoomsSnapshot = "rooms-snapshot"
	MessageTypeRoom          = "room"
	MessageTypeNotesSnapshot = "notes-snapshot"
	MessageTypeNoteAdded     = "note-added"
	MessageTypeRoomDeleted   = "room-deleted"
)

// wsMessage is the single envelope for every server-to-client push.
type wsMessage struct {
	Type  string        `json:"type"`
	Rooms []roomPayload `json:"rooms,omitempty"`
	Room  *roomPayload  `json:"room,omitempty"`
	Notes []notePayload `json:"notes,omitempty"`
	Note  *notePayload  `json:"note,omitempty"`
}

var socketUpgrader = websocket.Upgrader{
	// The REST API is already open to every origin via CORS; the sockets
	// carry the same data behind the same token check.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// handleRoomDirectorySocket streams the full room directory: one snapshot at
// subscribe time and a replacement snapshot on every directory change.
func (h *httpHandler) handleRoomDirectorySocket(c *gin.Context) {
	conn, err := socketUpgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()
	go h.readUntilClosed(conn, cancel)

	events, cleanup := h.dispatcher.Subscribe(ctx, realtime.TopicRoomDirectory)
	defer cleanup()

	if !h.sendRoomsSnapshot(ctx, conn) {
		return
	}

	pingTicker := time.NewTicker(pingPeriod)
	defer pingTicker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-pingTicker.C:
			if !h.writeControl(conn, websocket.PingMessage) {
				return
			}
		case _, ok := <-events:
			if !ok {
				return
			}
			if !h.sendRoomsSnapshot(ctx, conn) {
				return
			}
		}
	}
}

// handleRoomSocket streams one room: metadata messages, full note-collection
// snapshots sorted ascending by timestamp, and note-added notifications. The
// notify message is suppressed when the subscriber authored the note.
func (h *httpHandler) handleRoomSocket(c *gin.Context) {
	roomID := c.Param("roomID")
	viewerID := c.GetString(userIDContextKey)

	if _, err := h.roomsService.Get(c.Request.Context(), roomID); err != nil {
		if errors.Is(err, rooms.ErrRoomNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "room_not_found"})
			return
		}
		h.logger.Error("room fetch failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "room_get_failed"})
		return
	}

	conn, err := socketUpgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()
	go h.readUntilClosed(conn, cancel)

	events, cleanup := h.dispatcher.Subscribe(ctx, realtime.RoomTopic(roomID))
	defer cleanup()

	if !h.sendRoomMetadata(ctx, conn, roomID) {
		return
	}
	if !h.sendNotesSnapshot(ctx, conn, roomID) {
		return
	}

	pingTicker := time.NewTicker(pingPeriod)
	defer pingTicker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-pingTicker.C:
			if !h.writeControl(conn, websocket.PingMessage) {
				return
			}
		case event, ok := <-events:
			if !ok {
				return
			}
			switch event.Kind {
			case realtime.EventRoomUpdated:
				if !h.sendRoomMetadata(ctx, conn, roomID) {
					return
				}
			case realtime.EventRoomDeleted:
				h.writeMessage(conn, wsMessage{Type: MessageTypeRoomDeleted})
				return
			case realtime.EventNoteCreated:
				if !h.sendNotesSnapshot(ctx, conn, roomID) {
					return
				}
				if event.ActorID != viewerID && !h.sendNoteAdded(ctx, conn, roomID, event.NoteID) {
					return
				}
			default:
				if !h.sendNotesSnapshot(ctx, conn, roomID) {
					return
				}
			}
		}
	}
}

// readUntilClosed consumes inbound frames so pongs are processed and cancels
// the subscription when the peer goes away. Clients never send data frames.
func (h *httpHandler) readUntilClosed(conn *websocket.Conn, cancel context.CancelFunc) {
	defer cancel()
	defer conn.Close()
	conn.SetReadLimit(maxMessageSize)
	if err := conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		return
	}
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Debug("websocket read ended", zap.Error(err))
			}
			return
		}
	}
}

func (h *httpHandler) sendRoomsSnapshot(ctx context.Context, conn *websocket.Conn) bool {
	roomList, err := h.roomsService.List(ctx)
	if err != nil {
		h.logger.Error("room snapshot failed", zap.Error(err))
		return false
	}
	return h.writeMessage(conn, wsMessage{Type: MessageTypeRoomsSnapshot, Rooms: toRoomPayloads(roomList)})
}

func (h *httpHandler) sendRoomMetadata(ctx context.Context, conn *websocket.Conn, roomID string) bool {
	room, err := h.roomsService.Get(ctx, roomID)
	if err != nil {
		if errors.Is(err, rooms.ErrRoomNotFound) {
			h.writeMessage(conn, wsMessage{Type: MessageTypeRoomDeleted})
			return false
		}
		h.logger.Error("room metadata push failed", zap.Error(err))
		return false
	}
	payload := toRoomPayload(room)
	return h.writeMessage(conn, wsMessage{Type: MessageTypeRoom, Room: &payload})
}

func (h *httpHandler) sendNotesSnapshot(ctx context.Context, conn *websocket.Conn, roomID string) bool {
	noteList, err := h.notesService.List(ctx, roomID)
	if err != nil {
		h.logger.Error("note snapshot failed", zap.Error(err))
		return false
	}
	return h.writeMessage(conn, wsMessage{Type: MessageTypeNotesSnapshot, Notes: toNotePayloads(noteList)})
}

func (h *httpHandler) sendNoteAdded(ctx context.Context, conn *websocket.Conn, roomID, noteID string) bool {
	note, err := h.notesService.Get(ctx, roomID, noteID)
	if err != nil {
		// The note may already be gone again; the snapshot covered it.
		if errors.Is(err, notes.ErrNoteNotFound) {
			return true
		}
		h.logger.Error("note notify push failed", zap.Error(err))
		return false
	}
	payload := toNotePayload(note)
	return h.writeMessage(conn, wsMessage{Type: MessageTypeNoteAdded, Note: &payload})
}

func (h *httpHandler) writeMessage(conn *websocket.Conn, message wsMessage) bool {
	if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return false
	}
	if err := conn.WriteJSON(message); err != nil {
		h.logger.Debug("websocket write failed", zap.Error(err))
		return false
	}
	return true
}

func (h *httpHandler) writeControl(conn *websocket.Conn, messageType int) bool {
	if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return false
	}
	return conn.WriteMessage(messageType, nil) == nil
}
