package rooms

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/corkboardlabs/corkboard/internal/ids"
)

var (
	// ErrBlankRoomName indicates the name is empty or whitespace only.
	ErrBlankRoomName = errors.New("rooms: room name must not be blank")
	// ErrRoomNotFound indicates no room exists for the identifier.
	ErrRoomNotFound = errors.New("rooms: room not found")
	// ErrNotCreator indicates the caller does not own the room.
	ErrNotCreator = errors.New("rooms: operation restricted to the room creator")

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
	opServiceNew    = "rooms.service.new"
	opCreateRoom    = "rooms.create"
	opListRooms     = "rooms.list"
	opGetRoom       = "rooms.get"
	opRenameRoom    = "rooms.rename"
	opUpdateColumns = "rooms.update_columns"
	opDeleteRoom    = "rooms.delete"
)

func newServiceError(operation, reason string, cause error) error {
	code := fmt.Sprintf("%s.%s", operation, reason)
	return &ServiceError{code: code, err: cause}
}

// ServiceConfig describes the dependencies required by the room service.
type ServiceConfig struct {
	Database   *gorm.DB
	Clock      func() time.Time
	IDProvider ids.Provider
	Logger     *zap.Logger
}

// Service manages room lifecycle: create, list, rename, column layout and
// creator-only deletion with cascade over the room's notes.
type Service struct {
	db         *gorm.DB
	clock      func() time.Time
	idProvider ids.Provider
	logger     *zap.Logger
}

// NewService constructs the room service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Database == nil {
		return nil, newServiceError(opServiceNew, "missing_database", errMissingDatabase)
	}
	if cfg.IDProvider == nil {
		return nil, newServiceError(opServiceNew, "missing_id_provider", errMissingIDProvider)
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
		logger:     logger,
	}, nil
}

// Create persists a new room owned by the creator. Blank names are rejected
// before any write.
func (s *Service) Create(ctx context.Context, name, creatorID, creatorEmail string) (Room, error) {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return Room{}, ErrBlankRoomName
	}
	if creatorID == "" {
		return Room{}, newServiceError(opCreateRoom, "missing_creator", nil)
	}

	roomID, err := s.idProvider.NewID()
	if err != nil {
		s.logError(opCreateRoom, "id_generation_failed", err)
		return Room{}, newServiceError(opCreateRoom, "id_generation_failed", err)
	}

	room := Room{
		RoomID:          roomID,
		Name:            trimmed,
		CreatedAtMillis: s.clock().UTC().UnixMilli(),
		CreatorID:       creatorID,
		CreatorEmail:    creatorEmail,
	}
	if err := s.db.WithContext(ctx).Create(&room).Error; err != nil {
		s.logError(opCreateRoom, "insert_failed", err, zap.String("room_name", trimmed))
		return Room{}, newServiceError(opCreateRoom, "insert_failed", err)
	}
	return room, nil
}

// List returns every room ordered by creation time.
func (s *Service) List(ctx context.Context) ([]Room, error) {
	var roomList []Room
	if err := s.db.WithContext(ctx).
		Order("created_at_ms ASC, room_id ASC").
		Find(&roomList).Error; err != nil {
		s.logError(opListRooms, "query_failed", err)
		return nil, newServiceError(opListRooms, "query_failed", err)
	}
	return roomList, nil
}

// Get returns a single room by identifier.
func (s *Service) Get(ctx context.Context, roomID string) (Room, error) {
	var room Room
	err := s.db.WithContext(ctx).Where("room_id = ?", roomID).First(&room).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Room{}, ErrRoomNotFound
	}
	if err != nil {
		s.logError(opGetRoom, "query_failed", err, zap.String("room_id", roomID))
		return Room{}, newServiceError(opGetRoom, "query_failed", err)
	}
	return room, nil
}

// Rename updates a room's name. Only the creator may rename; blank names are
// rejected before any write.
func (s *Service) Rename(ctx context.Context, roomID, actorID, name string) (Room, error) {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return Room{}, ErrBlankRoomName
	}
	room, err := s.Get(ctx, roomID)
	if err != nil {
		return Room{}, err
	}
	if room.CreatorID != actorID {
		return Room{}, ErrNotCreator
	}
	if err := s.db.WithContext(ctx).Model(&Room{}).
		Where("room_id = ?", roomID).
		Update("name", trimmed).Error; err != nil {
		s.logError(opRenameRoom, "update_failed", err, zap.String("room_id", roomID))
		return Room{}, newServiceError(opRenameRoom, "update_failed", err)
	}
	room.Name = trimmed
	return room, nil
}

// UpdateColumns replaces the room's ordered column list wholesale. Any
// authenticated viewer may edit the layout.
func (s *Service) UpdateColumns(ctx context.Context, roomID string, columns []string) (Room, error) {
	room, err := s.Get(ctx, roomID)
	if err != nil {
		return Room{}, err
	}
	encoded, err := encodeColumns(columns)
	if err != nil {
		s.logError(opUpdateColumns, "encode_failed", err, zap.String("room_id", roomID))
		return Room{}, newServiceError(opUpdateColumns, "encode_failed", err)
	}
	if err := s.db.WithContext(ctx).Model(&Room{}).
		Where("room_id = ?", roomID).
		Update("columns_json", encoded).Error; err != nil {
		s.logError(opUpdateColumns, "update_failed", err, zap.String("room_id", roomID))
		return Room{}, newServiceError(opUpdateColumns, "update_failed", err)
	}
	room.ColumnsJSON = encoded
	return room, nil
}

// Delete removes a room and every note scoped under it in one transaction.
// Only the creator may delete.
func (s *Service) Delete(ctx context.Context, roomID, actorID string) error {
	room, err := s.Get(ctx, roomID)
	if err != nil {
		return err
	}
	if room.CreatorID != actorID {
		return ErrNotCreator
	}
	txErr := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("DELETE FROM notes WHERE room_id = ?", roomID).Error; err != nil {
			return err
		}
		return tx.Where("room_id = ?", roomID).Delete(&Room{}).Error
	})
	if txErr != nil {
		s.logError(opDeleteRoom, "delete_failed", txErr, zap.String("room_id", roomID))
		return newServiceError(opDeleteRoom, "delete_failed", txErr)
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
	s.logger.Error("rooms service error", attrs...)
}
