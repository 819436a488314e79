package client

import (
	"context"
	"fmt"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Message types pushed by the server over subscription sockets.
const (
	messageTypeRoomsSnapshot = "rooms-snapshot"
	messageTypeRoom          = "room"
	messageTypeNotesSnapshot = "notes-snapshot"
	messageTypeNoteAdded     = "note-added"
	messageTypeRoomDeleted   = "room-deleted"
)

type socketEnvelope struct {
	Type  string `json:"type"`
	Rooms []Room `json:"rooms"`
	Room  *Room  `json:"room"`
	Notes []Note `json:"notes"`
	Note  *Note  `json:"note"`
}

func (c *Client) dialSocket(ctx context.Context, path string) (*websocket.Conn, error) {
	token := c.accessToken()
	if token == "" {
		return nil, ErrNotAuthenticated
	}

	socketURL := *c.baseURL.JoinPath(path)
	switch socketURL.Scheme {
	case "https":
		socketURL.Scheme = "wss"
	default:
		socketURL.Scheme = "ws"
	}
	query := socketURL.Query()
	query.Set("access_token", token)
	socketURL.RawQuery = query.Encode()

	conn, _, err := c.dialer.DialContext(ctx, socketURL.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", path, err)
	}
	return conn, nil
}

// runSocket pumps envelopes from conn into route until the connection drops,
// the parent context is cancelled, or the returned stop function is called.
// route runs on a single goroutine, so handlers never race each other.
func (c *Client) runSocket(ctx context.Context, conn *websocket.Conn, route func(socketEnvelope)) func() {
	streamCtx, cancel := context.WithCancel(ctx)
	go func() {
		<-streamCtx.Done()
		conn.Close()
	}()
	go func() {
		defer cancel()
		for {
			var envelope socketEnvelope
			if err := conn.ReadJSON(&envelope); err != nil {
				if streamCtx.Err() == nil {
					c.logger.Debug("subscription socket closed", zap.Error(err))
				}
				return
			}
			route(envelope)
		}
	}()
	return cancel
}
