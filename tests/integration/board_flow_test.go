package integration

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/corkboardlabs/corkboard/board"
	"github.com/corkboardlabs/corkboard/client"
	"github.com/corkboardlabs/corkboard/internal/auth"
	"github.com/corkboardlabs/corkboard/internal/ids"
	"github.com/corkboardlabs/corkboard/internal/notes"
	"github.com/corkboardlabs/corkboard/internal/realtime"
	"github.com/corkboardlabs/corkboard/internal/rooms"
	"github.com/corkboardlabs/corkboard/internal/server"
	"github.com/corkboardlabs/corkboard/internal/users"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// startServer stands up the whole stack on an in-memory database and returns
// its base URL.
func startServer(t *testing.T) string {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&users.Account{}, &rooms.Room{}, &notes.Note{}); err != nil {
		t.Fatalf("failed to migrate schema: %v", err)
	}

	idProvider := ids.NewUUIDProvider()
	usersService, err := users.NewService(users.ServiceConfig{Database: db, IDProvider: idProvider})
	if err != nil {
		t.Fatalf("failed to create users service: %v", err)
	}
	roomsService, err := rooms.NewService(rooms.ServiceConfig{Database: db, IDProvider: idProvider})
	if err != nil {
		t.Fatalf("failed to create rooms service: %v", err)
	}
	canvas, err := board.NewCanvas(board.Size{Width: 1200, Height: 800}, board.Size{Width: 180, Height: 140})
	if err != nil {
		t.Fatalf("failed to build canvas: %v", err)
	}
	notesService, err := notes.NewService(notes.ServiceConfig{Database: db, IDProvider: idProvider, Canvas: canvas})
	if err != nil {
		t.Fatalf("failed to create notes service: %v", err)
	}

	handler, err := server.NewHTTPHandler(server.Dependencies{
		TokenManager: auth.NewTokenIssuer(auth.TokenIssuerConfig{
			SigningSecret: []byte("integration-signing-secret"),
			Issuer:        "corkboard-auth",
			Audience:      "corkboard-api",
		}),
		UsersService: usersService,
		RoomsService: roomsService,
		NotesService: notesService,
		Realtime:     realtime.NewDispatcher(),
	})
	if err != nil {
		t.Fatalf("failed to build handler: %v", err)
	}

	httpServer := httptest.NewServer(handler)
	t.Cleanup(httpServer.Close)
	return httpServer.URL
}

func newSignedInClient(t *testing.T, baseURL, email string) (*client.Client, client.User) {
	t.Helper()
	apiClient, err := client.NewClient(client.Config{BaseURL: baseURL})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	if _, err := apiClient.Register(context.Background(), email, "secret1"); err != nil {
		t.Fatalf("Register(%s): %v", email, err)
	}
	user, err := apiClient.Login(context.Background(), email, "secret1")
	if err != nil {
		t.Fatalf("Login(%s): %v", email, err)
	}
	return apiClient, user
}

func waitForSnapshot(t *testing.T, snapshots <-chan []client.Note, accept func([]client.Note) bool, description string) []client.Note {
	t.Helper()
	deadline := time.After(3 * time.Second)
	for {
		select {
		case snapshot := <-snapshots:
			if accept(snapshot) {
				return snapshot
			}
		case <-deadline:
			t.Fatalf("timed out waiting for %s", description)
		}
	}
}

func TestBoardLifecycle(t *testing.T) {
	baseURL := startServer(t)
	ctx := context.Background()

	alice, aliceUser := newSignedInClient(t, baseURL, "a@x.com")
	bob, bobUser := newSignedInClient(t, baseURL, "b@x.com")

	room, err := alice.CreateRoom(ctx, "Sprint 1")
	if err != nil {
		t.Fatalf("CreateRoom: %v", err)
	}
	if room.CreatorID != aliceUser.ID || room.CreatorEmail != "a@x.com" {
		t.Fatalf("unexpected creator fields: %+v", room)
	}

	roomList, err := bob.ListRooms(ctx)
	if err != nil {
		t.Fatalf("ListRooms: %v", err)
	}
	if len(roomList) != 1 || roomList[0].ID != room.ID {
		t.Fatalf("expected the new room in the directory, got %+v", roomList)
	}

	// Alice watches the board; Bob posts a note.
	snapshots := make(chan []client.Note, 8)
	stop, err := alice.SubscribeToRoomNotesWithNotify(ctx, room.ID, func(noteList []client.Note) {
		snapshots <- noteList
	}, nil)
	if err != nil {
		t.Fatalf("SubscribeToRoomNotesWithNotify: %v", err)
	}
	defer stop()

	notifications := make(chan client.Notification, 2)
	unsubscribe := client.SubscribeToNotifications(func(notification client.Notification) {
		notifications <- notification
	})
	defer unsubscribe()

	waitForSnapshot(t, snapshots, func(noteList []client.Note) bool {
		return len(noteList) == 0
	}, "initial empty snapshot")

	note, err := bob.AddNoteToRoom(ctx, room.ID, "Hello", client.NoteOptions{Columns: 3})
	if err != nil {
		t.Fatalf("AddNoteToRoom: %v", err)
	}
	if note.AuthorID != bobUser.ID || note.AuthorEmail != "b@x.com" {
		t.Fatalf("unexpected author fields: %+v", note)
	}
	if note.XPos < 0 || note.XPos > 1020 || note.YPos < 0 || note.YPos > 660 {
		t.Fatalf("note placed off the board: (%v, %v)", note.XPos, note.YPos)
	}

	withNote := waitForSnapshot(t, snapshots, func(noteList []client.Note) bool {
		return len(noteList) == 1
	}, "snapshot containing the note")
	if withNote[0].ID != note.ID || withNote[0].Text != "Hello" {
		t.Fatalf("unexpected note in snapshot: %+v", withNote[0])
	}

	select {
	case notification := <-notifications:
		if notification.RoomID != room.ID || notification.Note.ID != note.ID {
			t.Fatalf("unexpected notification: %+v", notification)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for the note notification")
	}

	// Alice moves Bob's note; any authenticated user may.
	moved, err := alice.UpdateRoomNotePosition(ctx, room.ID, note.ID, board.Point{X: 5000, Y: 100})
	if err != nil {
		t.Fatalf("UpdateRoomNotePosition: %v", err)
	}
	if moved.XPos != 1020 || moved.YPos != 100 {
		t.Fatalf("expected clamped position (1020, 100), got (%v, %v)", moved.XPos, moved.YPos)
	}

	// Only Bob may edit or delete his note.
	if _, err := alice.EditRoomNote(ctx, room.ID, note.ID, "Hijacked"); err == nil {
		t.Fatal("expected edit by a non-author to fail")
	}
	if _, err := bob.EditRoomNote(ctx, room.ID, note.ID, "Hello again"); err != nil {
		t.Fatalf("EditRoomNote: %v", err)
	}
	if err := bob.DeleteRoomNote(ctx, room.ID, note.ID); err != nil {
		t.Fatalf("DeleteRoomNote: %v", err)
	}

	waitForSnapshot(t, snapshots, func(noteList []client.Note) bool {
		return len(noteList) == 0
	}, "snapshot without the deleted note")
}

func TestRoomDeletionPropagatesToSubscribers(t *testing.T) {
	baseURL := startServer(t)
	ctx := context.Background()

	alice, _ := newSignedInClient(t, baseURL, "a@x.com")
	bob, _ := newSignedInClient(t, baseURL, "b@x.com")

	room, err := alice.CreateRoom(ctx, "Sprint 1")
	if err != nil {
		t.Fatalf("CreateRoom: %v", err)
	}
	if _, err := bob.AddNoteToRoom(ctx, room.ID, "Hello", client.NoteOptions{}); err != nil {
		t.Fatalf("AddNoteToRoom: %v", err)
	}

	deleted := make(chan struct{}, 1)
	stop, err := bob.SubscribeToRoomByID(ctx, room.ID, func(client.Room) {}, func() {
		deleted <- struct{}{}
	})
	if err != nil {
		t.Fatalf("SubscribeToRoomByID: %v", err)
	}
	defer stop()

	if err := bob.DeleteRoom(ctx, room.ID); err == nil {
		t.Fatal("expected delete by a non-creator to fail")
	}
	if err := alice.DeleteRoom(ctx, room.ID); err != nil {
		t.Fatalf("DeleteRoom: %v", err)
	}

	select {
	case <-deleted:
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for the deletion callback")
	}

	if _, err := bob.ListRoomNotes(ctx, room.ID); err == nil {
		t.Fatal("expected the room's notes to be gone")
	}
}

func TestColumnWorkflow(t *testing.T) {
	baseURL := startServer(t)
	ctx := context.Background()

	alice, _ := newSignedInClient(t, baseURL, "a@x.com")
	room, err := alice.CreateRoom(ctx, "Sprint 1")
	if err != nil {
		t.Fatalf("CreateRoom: %v", err)
	}

	columns := client.SplitColumns(" To Do, Doing ,Done ")
	updated, err := alice.UpdateRoomColumns(ctx, room.ID, columns)
	if err != nil {
		t.Fatalf("UpdateRoomColumns: %v", err)
	}
	if len(updated.Columns) != 3 || updated.Columns[2] != "Done" {
		t.Fatalf("unexpected columns: %+v", updated.Columns)
	}
}
