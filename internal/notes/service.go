package notes

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/corkboardlabs/corkboard/board"
	"github.com/corkboardlabs/corkboard/internal/ids"
)

var (
	// ErrBlankNoteText indicates the text is empty or whitespace only.
	ErrBlankNoteText = errors.New("notes: note text must not be blank")
	// ErrNoteNotFound indicates no note exists for the identifier pair.
	ErrNoteNotFound = errors.New("notes: note not found")
	// ErrRoomNotFound indicates the note's parent room does not exist.
	ErrRoomNotFound = errors.New("notes: room not found")
	// ErrNotAuthor indicates the caller did not create the note.
	ErrNotAuthor = errors.New("notes: operation restricted to the note author")

	errMissingDatabase   = errors.New("database handle is required")
	errMissingIDProvider = errors.New("id provider is required")
	noOpLogger           = zap.NewNop()
)

// ServiceError carries a stable operation.reason code alongside the cause.
type ServiceError struct {
	code string
	err  error
}

func (e *ServiceError) Error() string {
	if e.err == nil {
		return e.code
	}
	return fmt.Sprintf("%s: %v", e.code, e.err)
}

func (e *ServiceError) Unwrap() error {
	return e.err
}

// Code returns the stable error code.
func (e *ServiceError) Code() string {
	return e.code
}

const (
	opServiceNew = "notes.service.new"
	opAddNote    = "notes.add"
	opListNotes  = "notes.list"
	opEditNote   = "notes.edit"
	opDeleteNote = "notes.delete"
	opMoveNote   = "notes.move"
)

func newServiceError(operation, reason string, cause error) error {
	code := fmt.Sprintf("%s.%s", operation, reason)
	return &ServiceError{code: code, err: cause}
}

// ServiceConfig describes the dependencies required by the note service.
type ServiceConfig struct {
	Database   *gorm.DB
	Clock      func() time.Time
	IDProvider ids.Provider
	Canvas     board.Canvas
	Logger     *zap.Logger
}

// Service manages the note collection of each room: create, list, edit,
// delete and reposition. Every committed position is clamped to the board
// canvas so a card can never sit outside the scrollable surface.
type Service struct {
	db         *gorm.DB
	clock      func() time.Time
	idProvider ids.Provider
	canvas     board.Canvas
	logger     *zap.Logger
}

// NewService constructs the note service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Database == nil {
		return nil, newServiceError(opServiceNew, "missing_database", errMissingDatabase)
	}
	if cfg.IDProvider == nil {
		return nil, newServiceError(opServiceNew, "missing_id_provider", errMissingIDProvider)
	}
	canvas := cfg.Canvas
	if canvas.Scroll.Width <= 0 || canvas.Scroll.Height <= 0 {
		defaultCanvas, err := board.NewCanvas(
			board.Size{Width: defaultCanvasWidth, Height: defaultCanvasHeight},
			board.Size{Width: defaultCardWidth, Height: defaultCardHeight},
		)
		if err != nil {
			return nil, newServiceError(opServiceNew, "invalid_canvas", err)
		}
		canvas = defaultCanvas
	}
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	logger := cfg.Logger
	if logger == nil {
		logger = noOpLogger
	}
	return &Service{
		db:         cfg.Database,
		clock:      clock,
		idProvider: cfg.IDProvider,
		canvas:     canvas,
		logger:     logger,
	}, nil
}

const (
	defaultCanvasWidth  = 1920
	defaultCanvasHeight = 1080
	defaultCardWidth    = 180
	defaultCardHeight   = 140
)

// Canvas exposes the board geometry notes are clamped against.
func (s *Service) Canvas() board.Canvas {
	return s.canvas
}

// Add persists a new note authored by the caller at the clamped position.
// Blank text is rejected before any write.
func (s *Service) Add(ctx context.Context, roomID, authorID, authorEmail, text string, position board.Point) (Note, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return Note{}, ErrBlankNoteText
	}
	if authorID == "" {
		return Note{}, newServiceError(opAddNote, "missing_author", nil)
	}
	if err := s.roomExists(ctx, roomID); err != nil {
		return Note{}, err
	}

	noteID, err := s.idProvider.NewID()
	if err != nil {
		s.logError(opAddNote, "id_generation_failed", err, zap.String("room_id", roomID))
		return Note{}, newServiceError(opAddNote, "id_generation_failed", err)
	}

	clamped := s.canvas.Clamp(position)
	note := Note{
		RoomID:          roomID,
		NoteID:          noteID,
		AuthorID:        authorID,
		AuthorEmail:     authorEmail,
		Text:            trimmed,
		TimestampMillis: s.clock().UTC().UnixMilli(),
		XPos:            clamped.X,
		YPos:            clamped.Y,
	}
	if err := s.db.WithContext(ctx).Create(&note).Error; err != nil {
		s.logError(opAddNote, "insert_failed", err, zap.String("room_id", roomID))
		return Note{}, newServiceError(opAddNote, "insert_failed", err)
	}
	return note, nil
}

// List returns every note in the room sorted ascending by timestamp so the
// rendered order is stable regardless of snapshot arrival order.
func (s *Service) List(ctx context.Context, roomID string) ([]Note, error) {
	if err := s.roomExists(ctx, roomID); err != nil {
		return nil, err
	}
	var noteList []Note
	if err := s.db.WithContext(ctx).
		Where("room_id = ?", roomID).
		Order("timestamp_ms ASC, note_id ASC").
		Find(&noteList).Error; err != nil {
		s.logError(opListNotes, "query_failed", err, zap.String("room_id", roomID))
		return nil, newServiceError(opListNotes, "query_failed", err)
	}
	return noteList, nil
}

// Edit replaces a note's text. Only the author may edit; blank text is
// rejected before any write.
func (s *Service) Edit(ctx context.Context, roomID, noteID, actorID, text string) (Note, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return Note{}, ErrBlankNoteText
	}
	note, err := s.get(ctx, roomID, noteID)
	if err != nil {
		return Note{}, err
	}
	if note.AuthorID != actorID {
		return Note{}, ErrNotAuthor
	}
	if err := s.db.WithContext(ctx).Model(&Note{}).
		Where("room_id = ? AND note_id = ?", roomID, noteID).
		Update("text", trimmed).Error; err != nil {
		s.logError(opEditNote, "update_failed", err, zap.String("room_id", roomID), zap.String("note_id", noteID))
		return Note{}, newServiceError(opEditNote, "update_failed", err)
	}
	note.Text = trimmed
	return note, nil
}

// Delete removes a note. Only the author may delete.
func (s *Service) Delete(ctx context.Context, roomID, noteID, actorID string) error {
	note, err := s.get(ctx, roomID, noteID)
	if err != nil {
		return err
	}
	if note.AuthorID != actorID {
		return ErrNotAuthor
	}
	if err := s.db.WithContext(ctx).
		Where("room_id = ? AND note_id = ?", roomID, noteID).
		Delete(&Note{}).Error; err != nil {
		s.logError(opDeleteNote, "delete_failed", err, zap.String("room_id", roomID), zap.String("note_id", noteID))
		return newServiceError(opDeleteNote, "delete_failed", err)
	}
	return nil
}

// Move commits a note's final drag position, clamped to the canvas. Any
// authenticated viewer may reposition a note regardless of authorship.
func (s *Service) Move(ctx context.Context, roomID, noteID string, position board.Point) (Note, error) {
	note, err := s.get(ctx, roomID, noteID)
	if err != nil {
		return Note{}, err
	}
	clamped := s.canvas.Clamp(position)
	if err := s.db.WithContext(ctx).Model(&Note{}).
		Where("room_id = ? AND note_id = ?", roomID, noteID).
		Updates(map[string]interface{}{"x_pos": clamped.X, "y_pos": clamped.Y}).Error; err != nil {
		s.logError(opMoveNote, "update_failed", err, zap.String("room_id", roomID), zap.String("note_id", noteID))
		return Note{}, newServiceError(opMoveNote, "update_failed", err)
	}
	note.XPos = clamped.X
	note.YPos = clamped.Y
	return note, nil
}

// Get returns a single note by its room and note identifiers.
func (s *Service) Get(ctx context.Context, roomID, noteID string) (Note, error) {
	return s.get(ctx, roomID, noteID)
}

func (s *Service) get(ctx context.Context, roomID, noteID string) (Note, error) {
	var note Note
	err := s.db.WithContext(ctx).
		Where("room_id = ? AND note_id = ?", roomID, noteID).
		First(&note).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Note{}, ErrNoteNotFound
	}
	if err != nil {
		return Note{}, err
	}
	return note, nil
}

func (s *Service) roomExists(ctx context.Context, roomID string) error {
	var count int64
	if err := s.db.WithContext(ctx).Table("rooms").
		Where("room_id = ?", roomID).
		Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return ErrRoomNotFound
	}
	return nil
}

func (s *Service) logError(operation, reason string, err error, fields ...zap.Field) {
	attrs := []zap.Field{
		zap.String("operation", operation),
		zap.String("reason", reason),
	}
	if err != nil {
		attrs = append(attrs, zap.Error(err))
	}
	attrs = append(attrs, fields...)
	s.logger.Error("notes service error", attrs...)
}
