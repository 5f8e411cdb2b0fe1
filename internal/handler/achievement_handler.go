package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"tabletop/backend/internal/models"
	"tabletop/backend/internal/service"
)

type AchievementInput struct {
	Code        string                     `json:"code" binding:"required" example:"first_game"`
	Title       string                     `json:"title" binding:"required" example:"First Game"`
	Description string                     `json:"description"`
	Icon        string                     `json:"icon" example:"dice"`
	Category    models.AchievementCategory `json:"category" binding:"required" example:"games"`
	Points      int                        `json:"points" example:"50"`
	Target      int                        `json:"target" example:"1"`
}

func (in AchievementInput) model() models.Achievement {
	return models.Achievement{
		Code:        in.Code,
		Title:       in.Title,
		Description: in.Description,
		Icon:        in.Icon,
		Category:    in.Category,
		Points:      in.Points,
		Target:      in.Target,
	}
}

type AchievementResponse struct {
	ID          uint                       `json:"id"`
	Code        string                     `json:"code"`
	Title       string                     `json:"title"`
	Description string                     `json:"description"`
	Icon        string                     `json:"icon"`
	Category    models.AchievementCategory `json:"category"`
	Points      int                        `json:"points"`
	Target      int                        `json:"target"`
}

func newAchievementResponse(a models.Achievement) AchievementResponse {
	return AchievementResponse{
		ID:          a.ID,
		Code:        a.Code,
		Title:       a.Title,
		Description: a.Description,
		Icon:        a.Icon,
		Category:    a.Category,
		Points:      a.Points,
		Target:      a.Target,
	}
}

// UserAchievementResponse is a catalog entry with the user's progress.
type UserAchievementResponse struct {
	AchievementResponse
	Progress   int        `json:"progress"`
	Unlocked   bool       `json:"unlocked"`
	UnlockedAt *time.Time `json:"unlocked_at"`
}

// ProgressInput sets progress on an achievement. Without progress the
// achievement is granted outright.
type ProgressInput struct {
	Progress *int `json:"progress" example:"3"`
}

// GetMyAchievements godoc
// @Summary      List current user's achievements
// @Description  Returns the whole catalog with the user's progress on each entry.
// @Tags         achievements
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}   UserAchievementResponse
// @Failure      401  {object}  ErrorResponse
// @Router       /users/me/achievements [get]
func (h *Handler) GetMyAchievements(c *gin.Context) {
	statuses, err := h.achievements.ForUser(c.Request.Context(), currentUser(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	out := make([]UserAchievementResponse, 0, len(statuses))
	for _, s := range statuses {
		out = append(out, UserAchievementResponse{
			AchievementResponse: newAchievementResponse(s.Achievement),
			Progress:            s.Progress,
			Unlocked:            s.Unlocked,
			UnlockedAt:          s.UnlockedAt,
		})
	}
	c.JSON(http.StatusOK, out)
}

// CreateAchievement godoc
// @Summary      Create an achievement
// @Tags         admin-achievements
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        input body AchievementInput true "Achievement Info"
// @Success      201  {object}  AchievementResponse
// @Failure      400  {object}  ErrorResponse
// @Failure      403  {object}  ErrorResponse "Admin access required"
// @Failure      409  {object}  ErrorResponse "Code already exists"
// @Router       /admin/achievements [post]
func (h *Handler) CreateAchievement(c *gin.Context) {
	var input AchievementInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	achievement, err := h.achievements.Create(c.Request.Context(), input.model())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, newAchievementResponse(*achievement))
}

// GetAchievements godoc
// @Summary      List achievements
// @Tags         admin-achievements
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}   AchievementResponse
// @Failure      403  {object}  ErrorResponse "Admin access required"
// @Router       /admin/achievements [get]
func (h *Handler) GetAchievements(c *gin.Context) {
	achievements, err := h.achievements.List(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	out := make([]AchievementResponse, 0, len(achievements))
	for _, a := range achievements {
		out = append(out, newAchievementResponse(a))
	}
	c.JSON(http.StatusOK, out)
}

// UpdateAchievement godoc
// @Summary      Update an achievement
// @Tags         admin-achievements
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path  int               true  "Achievement ID"
// @Param        input body  AchievementInput  true  "New Achievement Info"
// @Success      200  {object}  AchievementResponse
// @Failure      400  {object}  ErrorResponse
// @Failure      403  {object}  ErrorResponse "Admin access required"
// @Failure      404  {object}  ErrorResponse "Achievement not found"
// @Router       /admin/achievements/{id} [put]
func (h *Handler) UpdateAchievement(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var input AchievementInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	achievement, err := h.achievements.Update(c.Request.Context(), id, input.model())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, newAchievementResponse(*achievement))
}

// DeleteAchievement godoc
// @Summary      Delete an achievement
// @Description  Removes the achievement and every user's progress on it.
// @Tags         admin-achievements
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "Achievement ID"
// @Success      204  "No Content"
// @Failure      403  {object}  ErrorResponse "Admin access required"
// @Failure      404  {object}  ErrorResponse "Achievement not found"
// @Router       /admin/achievements/{id} [delete]
func (h *Handler) DeleteAchievement(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.achievements.Delete(c.Request.Context(), id); err != nil {
		h.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// RecordAchievementProgress godoc
// @Summary      Record achievement progress for a user
// @Description  Sets progress, or grants the achievement when progress is omitted. Level ups are announced to the user.
// @Tags         admin-achievements
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id             path  int            true   "User ID"
// @Param        achievementID  path  int            true   "Achievement ID"
// @Param        input          body  ProgressInput  false  "Progress"
// @Success      200  {object}  PointsResponse
// @Failure      400  {object}  ErrorResponse
// @Failure      403  {object}  ErrorResponse "Admin access required"
// @Failure      404  {object}  ErrorResponse "User or achievement not found"
// @Router       /admin/users/{id}/achievements/{achievementID} [post]
func (h *Handler) RecordAchievementProgress(c *gin.Context) {
	userID, ok := pathID(c, "id")
	if !ok {
		return
	}
	achievementID, ok := pathID(c, "achievementID")
	if !ok {
		return
	}
	var input ProgressInput
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}
	if input.Progress != nil && *input.Progress < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "progress must not be negative"})
		return
	}

	ctx := c.Request.Context()
	var (
		state service.PointsState
		err   error
	)
	if input.Progress == nil {
		state, err = h.points.GrantAchievement(ctx, userID, achievementID)
	} else {
		state, err = h.points.RecordProgress(ctx, userID, achievementID, *input.Progress)
	}
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, newPointsResponse(state))
}
