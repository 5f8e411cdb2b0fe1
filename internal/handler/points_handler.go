package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"tabletop/backend/internal/auth"
	"tabletop/backend/internal/progression"
	"tabletop/backend/internal/service"
)

// PointsResponse is a user's progression and unlocked customizations.
type PointsResponse struct {
	progression.Summary
	Unlocks progression.UnlockState `json:"unlocks"`
}

func newPointsResponse(s service.PointsState) PointsResponse {
	unlocks := s.Unlocks
	if unlocks == nil {
		unlocks = progression.UnlockState{}
	}
	return PointsResponse{Summary: s.Summary, Unlocks: unlocks}
}

// SelectOptionInput picks one option of an unlocked feature.
type SelectOptionInput struct {
	Option string `json:"option" binding:"required" example:"banner2"`
}

// GetMyPoints godoc
// @Summary      Get current user's points
// @Description  Returns total points, level, progress to the next level and the unlocked customizations.
// @Tags         points
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  PointsResponse
// @Failure      401  {object}  ErrorResponse
// @Failure      500  {object}  ErrorResponse
// @Router       /users/me/points [get]
func (h *Handler) GetMyPoints(c *gin.Context) {
	h.writePoints(c, currentUser(c))
}

// GetUserPoints godoc
// @Summary      Get a user's points
// @Description  Returns another user's level and unlocked customizations.
// @Tags         points
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "User ID"
// @Success      200  {object}  PointsResponse
// @Failure      400  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /users/{id}/points [get]
func (h *Handler) GetUserPoints(c *gin.Context) {
	userID, ok := pathID(c, "id")
	if !ok {
		return
	}
	h.writePoints(c, userID)
}

func (h *Handler) writePoints(c *gin.Context, userID uint) {
	state, err := h.points.Summary(c.Request.Context(), userID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, newPointsResponse(state))
}

// SelectUnlockOption godoc
// @Summary      Select a customization option
// @Description  Chooses one option of an unlocked feature, e.g. a profile banner.
// @Tags         points
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        feature path  string            true  "Feature key" example(profileBanner)
// @Param        input   body  SelectOptionInput true  "Option"
// @Success      200  {object}  PointsResponse
// @Failure      400  {object}  ErrorResponse "Option not offered by the feature"
// @Failure      403  {object}  ErrorResponse "Feature not unlocked"
// @Failure      500  {object}  ErrorResponse
// @Router       /users/me/unlocks/{feature} [put]
func (h *Handler) SelectUnlockOption(c *gin.Context) {
	var input SelectOptionInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	state, err := h.points.SelectOption(c.Request.Context(), currentUser(c), c.Param("feature"), input.Option)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, newPointsResponse(state))
}

// GetLevels godoc
// @Summary      List levels
// @Description  Returns the level thresholds and titles.
// @Tags         points
// @Produce      json
// @Success      200  {array}  progression.LevelThreshold
// @Router       /progression/levels [get]
func (h *Handler) GetLevels(c *gin.Context) {
	c.JSON(http.StatusOK, h.points.Engine().Levels())
}

// RewardResponse is a reward definition. Unlocked and Selected are only
// set when the request carries a valid token.
type RewardResponse struct {
	progression.RewardDefinition
	Unlocked *bool  `json:"unlocked,omitempty"`
	Selected string `json:"selected,omitempty"`
}

// GetRewards godoc
// @Summary      List rewards
// @Description  Returns every customization feature with the level that unlocks it and its options. With a token, each entry also carries the caller's unlock state.
// @Tags         points
// @Produce      json
// @Success      200  {array}  RewardResponse
// @Router       /progression/rewards [get]
func (h *Handler) GetRewards(c *gin.Context) {
	rewards := h.points.Engine().Rewards()
	out := make([]RewardResponse, 0, len(rewards))
	for _, r := range rewards {
		out = append(out, RewardResponse{RewardDefinition: r})
	}

	if userID, ok := auth.UserID(c); ok {
		state, err := h.points.Summary(c.Request.Context(), userID)
		if err != nil {
			h.respondError(c, err)
			return
		}
		for i := range out {
			u := state.Unlocks[out[i].FeatureKey]
			out[i].Unlocked = &u.Unlocked
			out[i].Selected = u.Selected
		}
	}
	c.JSON(http.StatusOK, out)
}
