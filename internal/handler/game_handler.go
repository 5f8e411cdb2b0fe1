package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"tabletop/backend/internal/models"
	"tabletop/backend/internal/service"
)

// region --- DTOs ---

type GameInput struct {
	Title           string    `json:"title" binding:"required" example:"Catan Night"`
	Description     string    `json:"description"`
	Category        string    `json:"category" binding:"required" example:"Strategy"`
	Difficulty      string    `json:"difficulty" example:"Beginner"`
	StartsAt        time.Time `json:"starts_at" binding:"required" example:"2030-06-01T19:00:00Z"`
	DurationMinutes int       `json:"duration_minutes" binding:"required" example:"120"`
	Location        string    `json:"location" binding:"required" example:"The Dice Tower Cafe"`
	SpotsTotal      int       `json:"spots_total" binding:"required" example:"4"`
}

func (in GameInput) params() service.GameParams {
	return service.GameParams{
		Title:           in.Title,
		Description:     in.Description,
		Category:        in.Category,
		Difficulty:      in.Difficulty,
		StartsAt:        in.StartsAt,
		DurationMinutes: in.DurationMinutes,
		Location:        in.Location,
		SpotsTotal:      in.SpotsTotal,
	}
}

type GameResponse struct {
	ID              uint        `json:"id"`
	Title           string      `json:"title"`
	Slug            string      `json:"slug"`
	Description     string      `json:"description"`
	Category        string      `json:"category"`
	Difficulty      string      `json:"difficulty"`
	StartsAt        time.Time   `json:"starts_at"`
	DurationMinutes int         `json:"duration_minutes"`
	Location        string      `json:"location"`
	ImageURL        string      `json:"image_url"`
	SpotsTotal      int         `json:"spots_total"`
	SpotsAvailable  int         `json:"spots_available"`
	Host            UserSummary `json:"host"`
}

func newGameResponse(game models.Game) GameResponse {
	return GameResponse{
		ID:              game.ID,
		Title:           game.Title,
		Slug:            game.Slug,
		Description:     game.Description,
		Category:        game.Category,
		Difficulty:      game.Difficulty,
		StartsAt:        game.StartsAt,
		DurationMinutes: game.DurationMinutes,
		Location:        game.Location,
		ImageURL:        game.ImageURL,
		SpotsTotal:      game.SpotsTotal,
		SpotsAvailable:  game.SpotsAvailable,
		Host:            newUserSummary(game.Host),
	}
}

func newGameResponses(games []models.Game) []GameResponse {
	out := make([]GameResponse, 0, len(games))
	for _, g := range games {
		out = append(out, newGameResponse(g))
	}
	return out
}

// endregion

// CreateGame godoc
// @Summary      Host a new game
// @Description  Creates a game hosted by the current user with every spot open.
// @Tags         games
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        input body GameInput true "Game Info"
// @Success      201  {object}  GameResponse
// @Failure      400  {object}  ErrorResponse
// @Failure      401  {object}  ErrorResponse
// @Router       /games [post]
func (h *Handler) CreateGame(c *gin.Context) {
	var input GameInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	game, err := h.games.Host(c.Request.Context(), currentUser(c), input.params())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, newGameResponse(*game))
}

// UpdateGame godoc
// @Summary      Update a game (Host only)
// @Description  Replaces the game details. Spots cannot drop below the seats already reserved.
// @Tags         games
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      int       true  "Game ID"
// @Param        input body      GameInput true  "New Game Info"
// @Success      200   {object}  GameResponse
// @Failure      400   {object}  ErrorResponse
// @Failure      403   {object}  ErrorResponse "Only the host can update the game"
// @Failure      404   {object}  ErrorResponse "Game not found"
// @Router       /games/{id} [put]
func (h *Handler) UpdateGame(c *gin.Context) {
	gameID, ok := pathID(c, "id")
	if !ok {
		return
	}
	var input GameInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	game, err := h.games.Update(c.Request.Context(), currentUser(c), gameID, input.params())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, newGameResponse(*game))
}

// DeleteGame godoc
// @Summary      Delete a game (Host only)
// @Description  Deletes a game and its reservations.
// @Tags         games
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "Game ID"
// @Success      200  {object}  map[string]string "{"message": "Game deleted successfully"}"
// @Failure      403  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /games/{id} [delete]
func (h *Handler) DeleteGame(c *gin.Context) {
	gameID, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.games.Delete(c.Request.Context(), currentUser(c), gameID); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Game deleted successfully"})
}

// UploadGameImage godoc
// @Summary      Upload a game image (Host only)
// @Tags         games
// @Accept       multipart/form-data
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int   true  "Game ID"
// @Param        file formData  file  true  "Image"
// @Success      200  {object}  GameResponse
// @Failure      400  {object}  ErrorResponse
// @Failure      403  {object}  ErrorResponse
// @Failure      503  {object}  ErrorResponse "Uploads are not configured"
// @Router       /games/{id}/image [post]
func (h *Handler) UploadGameImage(c *gin.Context) {
	gameID, ok := pathID(c, "id")
	if !ok {
		return
	}
	ctx := c.Request.Context()
	// Check ownership before storing anything.
	if _, err := h.games.CheckHost(ctx, currentUser(c), gameID); err != nil {
		h.respondError(c, err)
		return
	}

	url, ok := h.upload(c, "games")
	if !ok {
		return
	}
	game, err := h.games.SetImage(ctx, currentUser(c), gameID, url)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, newGameResponse(*game))
}

// GetGameByID godoc
// @Summary      Get a game by ID
// @Tags         games
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "Game ID"
// @Success      200  {object}  GameResponse
// @Failure      404  {object}  ErrorResponse "Game not found"
// @Router       /games/{id} [get]
func (h *Handler) GetGameByID(c *gin.Context) {
	gameID, ok := pathID(c, "id")
	if !ok {
		return
	}
	game, err := h.games.Get(c.Request.Context(), gameID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, newGameResponse(*game))
}

// GetGames godoc
// @Summary      List upcoming games
// @Description  Gets a paginated list of games that have not started, soonest first.
// @Tags         games
// @Produce      json
// @Security     BearerAuth
// @Param        category query     string  false  "Filter by category"
// @Param        q        query     string  false  "Search title and description"
// @Param        page     query     int     false  "Page number" default(1)
// @Param        limit    query     int     false  "Items per page" default(10)
// @Success      200 {object} PaginatedResponse[GameResponse]
// @Router       /games [get]
func (h *Handler) GetGames(c *gin.Context) {
	page := pageFromQuery(c)
	games, total, err := h.games.List(c.Request.Context(), c.Query("category"), c.Query("q"), page)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, NewPaginatedResponse(newGameResponses(games), total, page.Number, page.Size))
}

// GetHostedGames godoc
// @Summary      List a user's hosted games
// @Description  Returns the next few upcoming games the user is hosting.
// @Tags         games
// @Produce      json
// @Security     BearerAuth
// @Param        id   path     int  true  "User ID"
// @Success      200  {array}  GameResponse
// @Router       /users/{id}/games [get]
func (h *Handler) GetHostedGames(c *gin.Context) {
	userID, ok := pathID(c, "id")
	if !ok {
		return
	}
	games, err := h.games.HostedBy(c.Request.Context(), userID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, newGameResponses(games))
}
