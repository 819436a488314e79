package server

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/corkboardlabs/corkboard/internal/auth"
	"github.com/corkboardlabs/corkboard/internal/notes"
	"github.com/corkboardlabs/corkboard/internal/realtime"
	"github.com/corkboardlabs/corkboard/internal/rooms"
	"github.com/corkboardlabs/corkboard/internal/users"
)

const (
	userIDContextKey    = "corkboard_user_id"
	userEmailContextKey = "corkboard_user_email"
	accessTokenQueryKey = "access_token"
)

// timeNow is swappable in tests.
var timeNow = time.Now

var (
	errMissingTokenManager = errors.New("token manager dependency required")
	errMissingUsersService = errors.New("users service dependency required")
	errMissingRoomsService = errors.New("rooms service dependency required")
	errMissingNotesService = errors.New("notes service dependency required")
	errMissingDispatcher   = errors.New("realtime dispatcher dependency required")
)

// TokenManager issues, validates and revokes session tokens.
type TokenManager interface {
	IssueSessionToken(ctx context.Context, userID, email string) (string, int64, error)
	ValidateToken(token string) (auth.SessionClaims, error)
	RevokeToken(token string) error
}

// Dependencies bundles everything the HTTP layer needs.
type Dependencies struct {
	TokenManager TokenManager
	UsersService *users.Service
	RoomsService *rooms.Service
	NotesService *notes.Service
	Realtime     *realtime.Dispatcher
	Logger       *zap.Logger
}

// NewHTTPHandler wires the gin router with every route of the API.
func NewHTTPHandler(deps Dependencies) (http.Handler, error) {
	if deps.TokenManager == nil {
		return nil, errMissingTokenManager
	}
	if deps.UsersService == nil {
		return nil, errMissingUsersService
	}
	if deps.RoomsService == nil {
		return nil, errMissingRoomsService
	}
	if deps.NotesService == nil {
		return nil, errMissingNotesService
	}
	if deps.Realtime == nil {
		return nil, errMissingDispatcher
	}

	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(cors.New(cors.Config{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders: []string{"Authorization", "Content-Type"},
		MaxAge:       12 * time.Hour,
	}))

	handler := &httpHandler{
		tokens:       deps.TokenManager,
		usersService: deps.UsersService,
		roomsService: deps.RoomsService,
		notesService: deps.NotesService,
		dispatcher:   deps.Realtime,
		logger:       logger,
	}

	router.POST("/auth/register", handler.handleRegister)
	router.POST("/auth/login", handler.handleLogin)

	protected := router.Group("/")
	protected.Use(handler.authorizeRequest)
	protected.POST("/auth/logout", handler.handleLogout)
	protected.GET("/rooms", handler.handleListRooms)
	protected.POST("/rooms", handler.handleCreateRoom)
	protected.GET("/rooms/:roomID", handler.handleGetRoom)
	protected.PATCH("/rooms/:roomID", handler.handleRenameRoom)
	protected.DELETE("/rooms/:roomID", handler.handleDeleteRoom)
	protected.PUT("/rooms/:roomID/columns", handler.handleUpdateColumns)
	protected.GET("/rooms/:roomID/notes", handler.handleListNotes)
	protected.POST("/rooms/:roomID/notes", handler.handleAddNote)
	protected.PATCH("/rooms/:roomID/notes/:noteID", handler.handleEditNote)
	protected.DELETE("/rooms/:roomID/notes/:noteID", handler.handleDeleteNote)
	protected.PUT("/rooms/:roomID/notes/:noteID/position", handler.handleMoveNote)
	protected.GET("/ws/rooms", handler.handleRoomDirectorySocket)
	protected.GET("/ws/rooms/:roomID", handler.handleRoomSocket)

	return router, nil
}

type httpHandler struct {
	tokens       TokenManager
	usersService *users.Service
	roomsService *rooms.Service
	notesService *notes.Service
	dispatcher   *realtime.Dispatcher
	logger       *zap.Logger
}

// authorizeRequest accepts a Bearer header or, for websocket upgrades where
// browsers cannot set headers, an access_token query parameter.
func (h *httpHandler) authorizeRequest(c *gin.Context) {
	token := ""
	header := c.GetHeader("Authorization")
	switch {
	case strings.HasPrefix(header, "Bearer "):
		token = strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	default:
		token = strings.TrimSpace(c.Query(accessTokenQueryKey))
	}
	if token == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing_credentials"})
		return
	}
	claims, err := h.tokens.ValidateToken(token)
	if err != nil {
		h.logger.Warn("token validation failed", zap.Error(err))
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	c.Set(userIDContextKey, claims.UserID)
	c.Set(userEmailContextKey, claims.Email)
	c.Next()
}
