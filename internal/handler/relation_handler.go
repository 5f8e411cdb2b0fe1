package handler

import (
	"net/http"
	"slices"

	"github.com/gin-gonic/gin"

	"tabletop/backend/internal/friendship"
	"tabletop/backend/internal/models"
	"tabletop/backend/internal/service"
)

// FriendshipResponse is the relationship between the viewer and a user.
type FriendshipResponse struct {
	UserID uint            `json:"user_id" example:"2"`
	Status friendship.View `json:"status" example:"pending_sent"`
}

// FriendResponse is a friend with their current online state.
type FriendResponse struct {
	UserSummary
	Online bool `json:"online"`
}

func usersToSummaries(users []models.User) []UserSummary {
	out := make([]UserSummary, 0, len(users))
	for _, u := range users {
		out = append(out, newUserSummary(u))
	}
	return out
}

// GetFriends godoc
// @Summary      List friends
// @Description  Lists the users the current user is friends with and whether each is online.
// @Tags         friendship
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}   FriendResponse
// @Failure      401  {object}  ErrorResponse
// @Router       /users/me/friends [get]
func (h *Handler) GetFriends(c *gin.Context) {
	ctx := c.Request.Context()
	friends, err := h.friends.Friends(ctx, currentUser(c))
	if err != nil {
		h.respondError(c, err)
		return
	}

	ids := make([]uint, 0, len(friends))
	for _, f := range friends {
		ids = append(ids, f.ID)
	}
	online, err := h.presence.OnlineAmong(ctx, ids)
	if err != nil {
		// Shown as offline rather than failing the list.
		h.log.Warn("presence: online among friends", "user_id", currentUser(c), "err", err)
	}

	out := make([]FriendResponse, 0, len(friends))
	for _, f := range friends {
		out = append(out, FriendResponse{UserSummary: newUserSummary(f), Online: slices.Contains(online, f.ID)})
	}
	c.JSON(http.StatusOK, out)
}

// GetFriendRequests godoc
// @Summary      List pending friend requests
// @Description  Lists pending requests sent to (incoming) or by (outgoing) the current user.
// @Tags         friendship
// @Produce      json
// @Security     BearerAuth
// @Param        direction query     string  false  "incoming or outgoing" default(incoming)
// @Success      200       {array}   UserSummary
// @Failure      400       {object}  ErrorResponse
// @Failure      401       {object}  ErrorResponse
// @Router       /users/me/friends/requests [get]
func (h *Handler) GetFriendRequests(c *gin.Context) {
	dir := service.Direction(c.DefaultQuery("direction", string(service.DirectionIncoming)))
	if dir != service.DirectionIncoming && dir != service.DirectionOutgoing {
		c.JSON(http.StatusBadRequest, gin.H{"error": "A 'direction' query parameter must be incoming or outgoing"})
		return
	}

	users, err := h.friends.Requests(c.Request.Context(), currentUser(c), dir)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, usersToSummaries(users))
}

// GetFriendship godoc
// @Summary      Get friendship state
// @Description  Reports none, pending_sent, pending_received or friends for the given user.
// @Tags         friendship
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "Other User ID"
// @Success      200  {object}  FriendshipResponse
// @Failure      400  {object}  ErrorResponse
// @Failure      401  {object}  ErrorResponse
// @Router       /users/{id}/friendship [get]
func (h *Handler) GetFriendship(c *gin.Context) {
	otherID, ok := pathID(c, "id")
	if !ok {
		return
	}
	view, err := h.friends.Status(c.Request.Context(), currentUser(c), otherID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, FriendshipResponse{UserID: otherID, Status: view})
}

// SendRequest godoc
// @Summary      Send friend request
// @Description  Sends a friend request to another user.
// @Tags         friendship
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "Target User ID"
// @Success      201  {object}  map[string]string "{"message": "Request sent successfully"}"
// @Failure      400  {object}  ErrorResponse "Cannot befriend yourself"
// @Failure      401  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse "Target user not found"
// @Failure      409  {object}  ErrorResponse "Already friends or request pending"
// @Failure      500  {object}  ErrorResponse
// @Router       /users/{id}/request [post]
func (h *Handler) SendRequest(c *gin.Context) {
	targetID, ok := pathID(c, "id")
	if !ok {
		return
	}
	if _, err := h.friends.Request(c.Request.Context(), currentUser(c), targetID); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Request sent successfully"})
}

// AcceptRequest godoc
// @Summary      Accept friend request
// @Description  Accepts a pending friend request from another user.
// @Tags         friendship
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "Requesting User ID"
// @Success      200  {object}  map[string]string "{"message": "Request accepted"}"
// @Failure      400  {object}  ErrorResponse
// @Failure      401  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse "Request not found"
// @Failure      500  {object}  ErrorResponse
// @Router       /users/{id}/accept [post]
func (h *Handler) AcceptRequest(c *gin.Context) {
	h.friendAction(c, func(c *gin.Context, current, other uint) error {
		_, err := h.friends.Accept(c.Request.Context(), current, other)
		return err
	}, "Request accepted")
}

// DeclineRequest godoc
// @Summary      Decline friend request
// @Description  Declines a pending friend request from another user.
// @Tags         friendship
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "Requesting User ID"
// @Success      200  {object}  map[string]string "{"message": "Request declined"}"
// @Failure      400  {object}  ErrorResponse
// @Failure      401  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse "Request not found"
// @Failure      500  {object}  ErrorResponse
// @Router       /users/{id}/decline [post]
func (h *Handler) DeclineRequest(c *gin.Context) {
	h.friendAction(c, func(c *gin.Context, current, other uint) error {
		return h.friends.Decline(c.Request.Context(), current, other)
	}, "Request declined")
}

// CancelRequest godoc
// @Summary      Cancel friend request
// @Description  Withdraws a friend request the current user sent.
// @Tags         friendship
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "Target User ID"
// @Success      200  {object}  map[string]string "{"message": "Request cancelled"}"
// @Failure      400  {object}  ErrorResponse
// @Failure      401  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse "Request not found"
// @Failure      500  {object}  ErrorResponse
// @Router       /users/{id}/cancel [post]
func (h *Handler) CancelRequest(c *gin.Context) {
	h.friendAction(c, func(c *gin.Context, current, other uint) error {
		return h.friends.Cancel(c.Request.Context(), current, other)
	}, "Request cancelled")
}

// RemoveFriend godoc
// @Summary      Remove friend
// @Description  Ends a friendship, whoever sent the original request.
// @Tags         friendship
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "Friend User ID"
// @Success      200  {object}  map[string]string "{"message": "Friend removed"}"
// @Failure      400  {object}  ErrorResponse
// @Failure      401  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse "Not friends"
// @Failure      500  {object}  ErrorResponse
// @Router       /users/{id}/remove [post]
func (h *Handler) RemoveFriend(c *gin.Context) {
	h.friendAction(c, func(c *gin.Context, current, other uint) error {
		return h.friends.Remove(c.Request.Context(), current, other)
	}, "Friend removed")
}

func (h *Handler) friendAction(c *gin.Context, act func(c *gin.Context, current, other uint) error, message string) {
	otherID, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := act(c, currentUser(c), otherID); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": message})
}
