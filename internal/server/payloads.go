package server

import (
	"github.com/corkboardlabs/corkboard/internal/notes"
	"github.com/corkboardlabs/corkboard/internal/rooms"
)

// roomPayload mirrors the hierarchical shape rooms/{roomId}.
type roomPayload struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	CreatedAt    int64    `json:"createdAt"`
	CreatorID    string   `json:"creatorId"`
	CreatorEmail string   `json:"creatorEmail"`
	Columns      []string `json:"columns,omitempty"`
}

// notePayload mirrors the hierarchical shape rooms/{roomId}/notes/{noteId}.
type notePayload struct {
	ID          string  `json:"id"`
	AuthorID    string  `json:"authorId"`
	AuthorEmail string  `json:"authorEmail"`
	Text        string  `json:"text"`
	Timestamp   int64   `json:"timestamp"`
	XPos        float64 `json:"xPos"`
	YPos        float64 `json:"yPos"`
}

func toRoomPayload(room rooms.Room) roomPayload {
	return roomPayload{
		ID:           room.RoomID,
		Name:         room.Name,
		CreatedAt:    room.CreatedAtMillis,
		CreatorID:    room.CreatorID,
		CreatorEmail: room.CreatorEmail,
		Columns:      room.Columns(),
	}
}

func toRoomPayloads(roomList []rooms.Room) []roomPayload {
	payloads := make([]roomPayload, 0, len(roomList))
	for _, room := range roomList {
		payloads = append(payloads, toRoomPayload(room))
	}
	return payloads
}

func toNotePayload(note notes.Note) notePayload {
	return notePayload{
		ID:          note.NoteID,
		AuthorID:    note.AuthorID,
		AuthorEmail: note.AuthorEmail,
		Text:        note.Text,
		Timestamp:   note.TimestampMillis,
		XPos:        note.XPos,
		YPos:        note.YPos,
	}
}

func toNotePayloads(noteList []notes.Note) []notePayload {
	payloads := make([]notePayload, 0, len(noteList))
	for _, note := range noteList {
		payloads = append(payloads, toNotePayload(note))
	}
	return payloads
}
