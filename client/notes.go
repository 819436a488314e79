package client

import (
	"context"
	"net/http"
	"sort"

	"github.com/corkboardlabs/corkboard/board"
)

// Note is one card on a room's board.
type Note struct {
	ID          string  `json:"id"`
	AuthorID    string  `json:"authorId"`
	AuthorEmail string  `json:"authorEmail"`
	Text        string  `json:"text"`
	Timestamp   int64   `json:"timestamp"`
	XPos        float64 `json:"xPos"`
	YPos        float64 `json:"yPos"`
}

// NoteOptions tunes note creation. A nil Position asks the server to place
// the note at random within the column bounds implied by Columns; Columns
// zero means the whole board.
type NoteOptions struct {
	Position *board.Point
	Columns  int
}

type addNoteRequest struct {
	Text    string   `json:"text"`
	XPos    *float64 `json:"xPos,omitempty"`
	YPos    *float64 `json:"yPos,omitempty"`
	Columns int      `json:"columns,omitempty"`
}

type editNoteRequest struct {
	Text string `json:"text"`
}

type moveNoteRequest struct {
	XPos float64 `json:"xPos"`
	YPos float64 `json:"yPos"`
}

type noteListResponse struct {
	Notes []Note `json:"notes"`
}

// ListRoomNotes fetches the room's notes, oldest first.
func (c *Client) ListRoomNotes(ctx context.Context, roomID string) ([]Note, error) {
	var response noteListResponse
	if err := c.do(ctx, http.MethodGet, "/rooms/"+roomID+"/notes", nil, &response); err != nil {
		return nil, err
	}
	return response.Notes, nil
}

// AddNoteToRoom creates a note authored by the signed-in user.
func (c *Client) AddNoteToRoom(ctx context.Context, roomID, text string, options NoteOptions) (Note, error) {
	request := addNoteRequest{Text: text, Columns: options.Columns}
	if options.Position != nil {
		request.XPos = &options.Position.X
		request.YPos = &options.Position.Y
	}
	var note Note
	err := c.do(ctx, http.MethodPost, "/rooms/"+roomID+"/notes", request, &note)
	return note, err
}

// EditRoomNote replaces the note's text. Author only.
func (c *Client) EditRoomNote(ctx context.Context, roomID, noteID, text string) (Note, error) {
	var note Note
	err := c.do(ctx, http.MethodPatch, "/rooms/"+roomID+"/notes/"+noteID, editNoteRequest{Text: text}, &note)
	return note, err
}

// DeleteRoomNote removes the note. Author only.
func (c *Client) DeleteRoomNote(ctx context.Context, roomID, noteID string) error {
	return c.do(ctx, http.MethodDelete, "/rooms/"+roomID+"/notes/"+noteID, nil, nil)
}

// UpdateRoomNotePosition persists a drop position. Any signed-in user may
// move any note; the server clamps the position to the board.
func (c *Client) UpdateRoomNotePosition(ctx context.Context, roomID, noteID string, position board.Point) (Note, error) {
	var note Note
	err := c.do(ctx, http.MethodPut, "/rooms/"+roomID+"/notes/"+noteID+"/position", moveNoteRequest{XPos: position.X, YPos: position.Y}, &note)
	return note, err
}

// SubscribeToRoomNotesWithNotify streams the room's note collection over a
// single socket with a single teardown. onNotes fires with the reconciled
// collection, sorted by creation time, on every change. When another user
// adds a note, onForeignNote (may be nil) fires and a Notification is
// published through the process-wide notifier; notes the subscriber authored
// never trigger either.
func (c *Client) SubscribeToRoomNotesWithNotify(ctx context.Context, roomID string, onNotes func([]Note), onForeignNote func(Note)) (func(), error) {
	conn, err := c.dialSocket(ctx, "/ws/rooms/"+roomID)
	if err != nil {
		return nil, err
	}
	reconciler := newNoteReconciler()
	streamCtx, cancel := context.WithCancel(ctx)
	c.runSocket(streamCtx, conn, func(envelope socketEnvelope) {
		switch envelope.Type {
		case messageTypeNotesSnapshot:
			onNotes(reconciler.applySnapshot(envelope.Notes))
		case messageTypeNoteAdded:
			if envelope.Note == nil {
				return
			}
			if onForeignNote != nil {
				onForeignNote(*envelope.Note)
			}
			SharedNotifier().Publish(Notification{RoomID: roomID, Note: *envelope.Note})
		case messageTypeRoomDeleted:
			cancel()
		}
	})
	return cancel, nil
}

// noteReconciler merges incoming snapshots into a collection keyed by note
// ID, so an unchanged note keeps its previous value across snapshots instead
// of being rebuilt each time.
type noteReconciler struct {
	byID map[string]Note
}

func newNoteReconciler() *noteReconciler {
	return &noteReconciler{byID: map[string]Note{}}
}

func (r *noteReconciler) applySnapshot(incoming []Note) []Note {
	next := make(map[string]Note, len(incoming))
	ordered := make([]Note, 0, len(incoming))
	for _, note := range incoming {
		if existing, ok := r.byID[note.ID]; ok && existing == note {
			note = existing
		}
		next[note.ID] = note
		ordered = append(ordered, note)
	}
	r.byID = next
	sort.Slice(ordered, func(i, j int) bool {
		if ordered[i].Timestamp != ordered[j].Timestamp {
			return ordered[i].Timestamp < ordered[j].Timestamp
		}
		return ordered[i].ID < ordered[j].ID
	})
	return ordered
}
