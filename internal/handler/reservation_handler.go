package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"tabletop/backend/internal/models"
)

type ReservationResponse struct {
	ID        uint                     `json:"id"`
	GameID    uint                     `json:"game_id"`
	Status    models.ReservationStatus `json:"status"`
	CreatedAt time.Time                `json:"created_at"`
	User      UserSummary              `json:"user"`
}

func newReservationResponse(r models.Reservation) ReservationResponse {
	return ReservationResponse{
		ID:        r.ID,
		GameID:    r.GameID,
		Status:    r.Status,
		CreatedAt: r.CreatedAt,
		User:      newUserSummary(r.User),
	}
}

// ReserveSpot godoc
// @Summary      Reserve a spot
// @Description  Takes one open seat in an upcoming game.
// @Tags         reservations
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "Game ID"
// @Success      201  {object}  ReservationResponse
// @Failure      400  {object}  ErrorResponse "Game already started or user is the host"
// @Failure      404  {object}  ErrorResponse "Game not found"
// @Failure      409  {object}  ErrorResponse "Game is full or already reserved"
// @Router       /games/{id}/reserve [post]
func (h *Handler) ReserveSpot(c *gin.Context) {
	gameID, ok := pathID(c, "id")
	if !ok {
		return
	}
	reservation, err := h.games.Reserve(c.Request.Context(), currentUser(c), gameID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, newReservationResponse(*reservation))
}

// CancelReservation godoc
// @Summary      Cancel a reservation
// @Description  Gives the current user's seat back to the game.
// @Tags         reservations
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "Game ID"
// @Success      200  {object}  map[string]string "{"message": "Reservation cancelled"}"
// @Failure      404  {object}  ErrorResponse "No reservation for this game"
// @Router       /games/{id}/cancel [post]
func (h *Handler) CancelReservation(c *gin.Context) {
	gameID, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.games.CancelReservation(c.Request.Context(), currentUser(c), gameID); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Reservation cancelled"})
}

// GetAttendees godoc
// @Summary      List attendees
// @Tags         reservations
// @Produce      json
// @Security     BearerAuth
// @Param        id   path     int  true  "Game ID"
// @Success      200  {array}  ReservationResponse
// @Failure      404  {object} ErrorResponse
// @Router       /games/{id}/attendees [get]
func (h *Handler) GetAttendees(c *gin.Context) {
	gameID, ok := pathID(c, "id")
	if !ok {
		return
	}
	reservations, err := h.games.Attendees(c.Request.Context(), gameID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	out := make([]ReservationResponse, 0, len(reservations))
	for _, r := range reservations {
		out = append(out, newReservationResponse(r))
	}
	c.JSON(http.StatusOK, out)
}

// KickAttendee godoc
// @Summary      Remove an attendee (Host only)
// @Description  Cancels another user's reservation. The attendee is notified.
// @Tags         reservations
// @Produce      json
// @Security     BearerAuth
// @Param        id      path  int  true  "Game ID"
// @Param        userID  path  int  true  "Attendee user ID"
// @Success      200  {object}  map[string]string "{"message": "Attendee removed"}"
// @Failure      400  {object}  ErrorResponse "Host cannot kick themselves"
// @Failure      403  {object}  ErrorResponse "Only the host can kick attendees"
// @Failure      404  {object}  ErrorResponse
// @Router       /games/{id}/attendees/{userID} [delete]
func (h *Handler) KickAttendee(c *gin.Context) {
	gameID, ok := pathID(c, "id")
	if !ok {
		return
	}
	attendeeID, ok := pathID(c, "userID")
	if !ok {
		return
	}
	if err := h.games.Kick(c.Request.Context(), currentUser(c), gameID, attendeeID); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Attendee removed"})
}
