package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"tabletop/backend/internal/apperr"
	"tabletop/backend/internal/auth"
	"tabletop/backend/internal/friendship"
	"tabletop/backend/internal/hub"
	"tabletop/backend/internal/presence"
	"tabletop/backend/internal/progression"
	"tabletop/backend/internal/service"
	"tabletop/backend/internal/storage"
)

// Deps are the collaborators the HTTP layer needs.
type Deps struct {
	Users        *service.UserService
	Friends      *service.FriendService
	Points       *service.PointsService
	Games        *service.GameService
	Messages     *service.MessageService
	Achievements *service.AchievementService
	Uploads      storage.Uploader
	Hub          *hub.Hub
	Presence     presence.Tracker
	Log          *slog.Logger
}

// Handler serves the REST API.
type Handler struct {
	users        *service.UserService
	friends      *service.FriendService
	points       *service.PointsService
	games        *service.GameService
	messages     *service.MessageService
	achievements *service.AchievementService
	uploads      storage.Uploader
	hub          *hub.Hub
	presence     presence.Tracker
	log          *slog.Logger
}

func New(d Deps) *Handler {
	return &Handler{
		users:        d.Users,
		friends:      d.Friends,
		points:       d.Points,
		games:        d.Games,
		messages:     d.Messages,
		achievements: d.Achievements,
		uploads:      d.Uploads,
		hub:          d.Hub,
		presence:     d.Presence,
		log:          d.Log,
	}
}

// ErrorResponse represents a generic error response.
type ErrorResponse struct {
	Error string `json:"error" example:"An error message"`
}

// respondError maps service errors onto HTTP statuses. Anything unknown is
// logged and reported as a generic 500.
func (h *Handler) respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case apperr.IsValidation(err),
		errors.Is(err, friendship.ErrSelfRelation),
		errors.Is(err, progression.ErrInvalidOption):
		status = http.StatusBadRequest
	case errors.Is(err, service.ErrInvalidCredentials):
		status = http.StatusUnauthorized
	case errors.Is(err, progression.ErrNotUnlocked),
		errors.Is(err, apperr.ErrForbidden):
		status = http.StatusForbidden
	case errors.Is(err, apperr.ErrNotFound),
		errors.Is(err, friendship.ErrNoPendingRequest),
		errors.Is(err, friendship.ErrNotFriends),
		errors.Is(err, apperr.ErrNoReservation),
		errors.Is(err, progression.ErrUnknownReward):
		status = http.StatusNotFound
	case errors.Is(err, friendship.ErrAlreadyFriends),
		errors.Is(err, friendship.ErrRequestAlreadyPending),
		errors.Is(err, apperr.ErrConflict),
		errors.Is(err, apperr.ErrGameFull),
		errors.Is(err, apperr.ErrAlreadyReserved):
		status = http.StatusConflict
	case errors.Is(err, apperr.ErrUnavailable):
		status = http.StatusServiceUnavailable
	}

	if status == http.StatusInternalServerError {
		userID, _ := auth.UserID(c)
		h.log.Error("request failed", "method", c.Request.Method, "path", c.FullPath(), "user_id", userID, "err", err)
		c.JSON(status, gin.H{"error": "Internal server error"})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

// currentUser returns the authenticated user ID. Routes using it sit
// behind AuthMiddleware.
func currentUser(c *gin.Context) uint {
	id, _ := auth.UserID(c)
	return id
}

// pathID parses a numeric path parameter, writing a 400 on failure.
func pathID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid " + name})
		return 0, false
	}
	return uint(id), true
}

func pageFromQuery(c *gin.Context) service.Page {
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		page = 1
	}
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "10"))
	if err != nil || limit < 1 {
		limit = service.DefaultPageSize
	}
	return service.Page{Number: page, Size: limit}.Normalize()
}
