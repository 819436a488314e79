package server

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func dialSocket(t *testing.T, server *httptest.Server, path, token string) *websocket.Conn {
	t.Helper()
	socketURL := "ws" + strings.TrimPrefix(server.URL, "http") + path + "?access_token=" + token
	conn, response, err := websocket.DefaultDialer.Dial(socketURL, nil)
	if err != nil {
		t.Fatalf("dial %s failed: %v (response %+v)", path, err, response)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readSocketMessage(t *testing.T, conn *websocket.Conn) wsMessage {
	t.Helper()
	if err := conn.SetReadDeadline(time.Now().Add(2 * time.Second)); err != nil {
		t.Fatalf("set read deadline: %v", err)
	}
	var message wsMessage
	if err := conn.ReadJSON(&message); err != nil {
		t.Fatalf("read socket message: %v", err)
	}
	return message
}

func TestRoomDirectorySocketStreamsSnapshots(t *testing.T) {
	harness := newTestHarness(t)
	server := httptest.NewServer(harness.handler)
	t.Cleanup(server.Close)

	token, _ := harness.signUp(t, "a@x.com", "secret1")
	conn := dialSocket(t, server, "/ws/rooms", token)

	initial := readSocketMessage(t, conn)
	if initial.Type != MessageTypeRoomsSnapshot || len(initial.Rooms) != 0 {
		t.Fatalf("unexpected initial message: %+v", initial)
	}

	room := createTestRoom(t, harness, token, "Sprint 1")

	update := readSocketMessage(t, conn)
	if update.Type != MessageTypeRoomsSnapshot || len(update.Rooms) != 1 || update.Rooms[0].ID != room.ID {
		t.Fatalf("unexpected snapshot after create: %+v", update)
	}
}

func TestRoomSocketRejectsMissingRoom(t *testing.T) {
	harness := newTestHarness(t)
	server := httptest.NewServer(harness.handler)
	t.Cleanup(server.Close)

	token, _ := harness.signUp(t, "a@x.com", "secret1")
	socketURL := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws/rooms/no-such-room?access_token=" + token
	_, response, err := websocket.DefaultDialer.Dial(socketURL, nil)
	if err == nil {
		t.Fatal("expected handshake to fail for a missing room")
	}
	if response == nil || response.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 handshake response, got %+v", response)
	}
}

func TestRoomSocketStreamsNotesAndSuppressesOwnNotify(t *testing.T) {
	harness := newTestHarness(t)
	server := httptest.NewServer(harness.handler)
	t.Cleanup(server.Close)

	viewerToken, _ := harness.signUp(t, "a@x.com", "secret1")
	otherToken, otherID := harness.signUp(t, "b@x.com", "secret1")
	room := createTestRoom(t, harness, viewerToken, "Sprint 1")

	conn := dialSocket(t, server, "/ws/rooms/"+room.ID, viewerToken)

	metadata := readSocketMessage(t, conn)
	if metadata.Type != MessageTypeRoom || metadata.Room == nil || metadata.Room.ID != room.ID {
		t.Fatalf("unexpected metadata message: %+v", metadata)
	}
	snapshot := readSocketMessage(t, conn)
	if snapshot.Type != MessageTypeNotesSnapshot || len(snapshot.Notes) != 0 {
		t.Fatalf("unexpected initial snapshot: %+v", snapshot)
	}

	// The viewer's own note refreshes the snapshot but must not notify.
	addTestNote(t, harness, viewerToken, room.ID, map[string]any{"text": "mine"})
	ownSnapshot := readSocketMessage(t, conn)
	if ownSnapshot.Type != MessageTypeNotesSnapshot || len(ownSnapshot.Notes) != 1 {
		t.Fatalf("unexpected snapshot after own note: %+v", ownSnapshot)
	}

	theirNote := addTestNote(t, harness, otherToken, room.ID, map[string]any{"text": "theirs"})
	theirSnapshot := readSocketMessage(t, conn)
	if theirSnapshot.Type != MessageTypeNotesSnapshot || len(theirSnapshot.Notes) != 2 {
		t.Fatalf("expected a two-note snapshot, got %+v", theirSnapshot)
	}
	notify := readSocketMessage(t, conn)
	if notify.Type != MessageTypeNoteAdded || notify.Note == nil {
		t.Fatalf("expected note-added after another user's note, got %+v", notify)
	}
	if notify.Note.ID != theirNote.ID || notify.Note.AuthorID != otherID {
		t.Fatalf("unexpected notify payload: %+v", notify.Note)
	}
}

func TestRoomSocketStreamsMetadataUpdates(t *testing.T) {
	harness := newTestHarness(t)
	server := httptest.NewServer(harness.handler)
	t.Cleanup(server.Close)

	token, _ := harness.signUp(t, "a@x.com", "secret1")
	room := createTestRoom(t, harness, token, "Sprint 1")
	conn := dialSocket(t, server, "/ws/rooms/"+room.ID, token)

	readSocketMessage(t, conn) // room metadata
	readSocketMessage(t, conn) // empty notes snapshot

	recorder := harness.request(t, http.MethodPatch, "/rooms/"+room.ID, token, map[string]string{"name": "Sprint 2"})
	if recorder.Code != http.StatusOK {
		t.Fatalf("rename returned %d", recorder.Code)
	}
	update := readSocketMessage(t, conn)
	if update.Type != MessageTypeRoom || update.Room == nil || update.Room.Name != "Sprint 2" {
		t.Fatalf("unexpected metadata update: %+v", update)
	}
}

func TestRoomSocketReportsDeletion(t *testing.T) {
	harness := newTestHarness(t)
	server := httptest.NewServer(harness.handler)
	t.Cleanup(server.Close)

	token, _ := harness.signUp(t, "a@x.com", "secret1")
	room := createTestRoom(t, harness, token, "Sprint 1")
	conn := dialSocket(t, server, "/ws/rooms/"+room.ID, token)

	readSocketMessage(t, conn) // room metadata
	readSocketMessage(t, conn) // empty notes snapshot

	recorder := harness.request(t, http.MethodDelete, "/rooms/"+room.ID, token, nil)
	if recorder.Code != http.StatusNoContent {
		t.Fatalf("delete returned %d", recorder.Code)
	}
	closing := readSocketMessage(t, conn)
	if closing.Type != MessageTypeRoomDeleted {
		t.Fatalf("expected room-deleted, got %+v", closing)
	}
}
