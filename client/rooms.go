package client

import (
	"context"
	"net/http"
	"strings"
)

// Room is one board in the directory.
type Room struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	CreatedAt    int64    `json:"createdAt"`
	CreatorID    string   `json:"creatorId"`
	CreatorEmail string   `json:"creatorEmail"`
	Columns      []string `json:"columns"`
}

type createRoomRequest struct {
	Name string `json:"name"`
}

type renameRoomRequest struct {
	Name string `json:"name"`
}

type updateColumnsRequest struct {
	Columns []string `json:"columns"`
}

type roomListResponse struct {
	Rooms []Room `json:"rooms"`
}

// ListRooms fetches the full room directory, oldest room first.
func (c *Client) ListRooms(ctx context.Context) ([]Room, error) {
	var response roomListResponse
	if err := c.do(ctx, http.MethodGet, "/rooms", nil, &response); err != nil {
		return nil, err
	}
	return response.Rooms, nil
}

func (c *Client) CreateRoom(ctx context.Context, name string) (Room, error) {
	var room Room
	err := c.do(ctx, http.MethodPost, "/rooms", createRoomRequest{Name: name}, &room)
	return room, err
}

func (c *Client) GetRoom(ctx context.Context, roomID string) (Room, error) {
	var room Room
	err := c.do(ctx, http.MethodGet, "/rooms/"+roomID, nil, &room)
	return room, err
}

// EditRoom renames a room. The server rejects the call unless the signed-in
// user created the room.
func (c *Client) EditRoom(ctx context.Context, roomID, name string) (Room, error) {
	var room Room
	err := c.do(ctx, http.MethodPatch, "/rooms/"+roomID, renameRoomRequest{Name: name}, &room)
	return room, err
}

// UpdateRoomColumns replaces the room's column titles wholesale.
func (c *Client) UpdateRoomColumns(ctx context.Context, roomID string, columns []string) (Room, error) {
	var room Room
	err := c.do(ctx, http.MethodPut, "/rooms/"+roomID+"/columns", updateColumnsRequest{Columns: columns}, &room)
	return room, err
}

// DeleteRoom removes the room and every note in it. Creator only.
func (c *Client) DeleteRoom(ctx context.Context, roomID string) error {
	return c.do(ctx, http.MethodDelete, "/rooms/"+roomID, nil, nil)
}

// SplitColumns turns free text like "To Do, Doing, Done" into column titles:
// comma-separated, trimmed, blanks dropped.
func SplitColumns(freeText string) []string {
	pieces := strings.Split(freeText, ",")
	columns := make([]string, 0, len(pieces))
	for _, piece := range pieces {
		title := strings.TrimSpace(piece)
		if title == "" {
			continue
		}
		columns = append(columns, title)
	}
	return columns
}

// SubscribeToRooms streams the room directory: onSnapshot fires with the full
// list immediately and again after every directory change. The returned stop
// function tears the subscription down.
func (c *Client) SubscribeToRooms(ctx context.Context, onSnapshot func([]Room)) (func(), error) {
	conn, err := c.dialSocket(ctx, "/ws/rooms")
	if err != nil {
		return nil, err
	}
	stop := c.runSocket(ctx, conn, func(envelope socketEnvelope) {
		if envelope.Type == messageTypeRoomsSnapshot {
			onSnapshot(envelope.Rooms)
		}
	})
	return stop, nil
}

// SubscribeToRoomByID streams one room's metadata. onRoom fires immediately
// and on every rename or column change; onDeleted fires once if the room is
// removed, after which the subscription ends. onDeleted may be nil.
func (c *Client) SubscribeToRoomByID(ctx context.Context, roomID string, onRoom func(Room), onDeleted func()) (func(), error) {
	conn, err := c.dialSocket(ctx, "/ws/rooms/"+roomID)
	if err != nil {
		return nil, err
	}
	streamCtx, cancel := context.WithCancel(ctx)
	c.runSocket(streamCtx, conn, func(envelope socketEnvelope) {
		switch envelope.Type {
		case messageTypeRoom:
			if envelope.Room != nil {
				onRoom(*envelope.Room)
			}
		case messageTypeRoomDeleted:
			if onDeleted != nil {
				onDeleted()
			}
			cancel()
		}
	})
	return cancel, nil
}
