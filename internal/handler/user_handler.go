package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"tabletop/backend/internal/friendship"
	"tabletop/backend/internal/models"
	"tabletop/backend/internal/service"
)

// region --- DTOs ---

// RegisterInput defines the structure for user registration.
type RegisterInput struct {
	Username     string             `json:"username" binding:"required" example:"meeple"`
	Email        string             `json:"email" binding:"required,email" example:"meeple@example.com"`
	Password     string             `json:"password" binding:"required,min=8" example:"password123"`
	FullName     string             `json:"full_name" example:"Casey Jones"`
	AccountType  models.AccountType `json:"account_type" example:"personal"`
	BusinessInfo *BusinessInput     `json:"business"`
}

// BusinessInput holds the venue fields of a business account.
type BusinessInput struct {
	Name    string `json:"name" example:"The Dice Tower Cafe"`
	Type    string `json:"type" example:"cafe"`
	Address string `json:"address"`
	City    string `json:"city"`
	State   string `json:"state"`
	Zip     string `json:"zip"`
}

func (b *BusinessInput) details() service.BusinessDetails {
	if b == nil {
		return service.BusinessDetails{}
	}
	return service.BusinessDetails{Name: b.Name, Type: b.Type, Address: b.Address, City: b.City, State: b.State, Zip: b.Zip}
}

// LoginInput defines the structure for user login.
type LoginInput struct {
	Login    string `json:"login" binding:"required" example:"meeple"`
	Password string `json:"password" binding:"required" example:"password123"`
}

// TokenResponse carries a session token.
type TokenResponse struct {
	Token string `json:"token"`
}

// UpdateProfileInput changes only the fields that are present.
type UpdateProfileInput struct {
	FullName *string        `json:"full_name"`
	Bio      *string        `json:"bio"`
	Business *BusinessInput `json:"business"`
}

// UserSummary is the short form of a user embedded in other responses.
type UserSummary struct {
	ID        uint   `json:"id" example:"1"`
	Username  string `json:"username" example:"meeple"`
	AvatarURL string `json:"avatar_url,omitempty"`
}

func newUserSummary(u models.User) UserSummary {
	return UserSummary{ID: u.ID, Username: u.Username, AvatarURL: u.AvatarURL}
}

// PublicUserResponse defines the structure for a user's public profile.
type PublicUserResponse struct {
	ID           uint               `json:"id" example:"1"`
	Username     string             `json:"username" example:"meeple"`
	FullName     string             `json:"full_name,omitempty"`
	AvatarURL    string             `json:"avatar_url,omitempty"`
	Bio          string             `json:"bio,omitempty"`
	AccountType  models.AccountType `json:"account_type" example:"personal"`
	BusinessName string             `json:"business_name,omitempty"`
	BusinessCity string             `json:"business_city,omitempty"`
	FriendsCount int64              `json:"friends_count"`
	Friendship   friendship.View    `json:"friendship" example:"none"`
	Online       bool               `json:"online"`
}

func newPublicUserResponse(p service.Profile) PublicUserResponse {
	return PublicUserResponse{
		ID:           p.User.ID,
		Username:     p.User.Username,
		FullName:     p.User.FullName,
		AvatarURL:    p.User.AvatarURL,
		Bio:          p.User.Bio,
		AccountType:  p.User.AccountType,
		BusinessName: p.User.BusinessName,
		BusinessCity: p.User.BusinessCity,
		FriendsCount: p.FriendsCount,
		Friendship:   p.Relation,
		Online:       p.Online,
	}
}

// PrivateUserResponse defines the structure for the authenticated user's own profile.
type PrivateUserResponse struct {
	ID           uint               `json:"id" example:"1"`
	Username     string             `json:"username" example:"meeple"`
	Email        string             `json:"email" example:"meeple@example.com"`
	Role         string             `json:"role" example:"user"`
	FullName     string             `json:"full_name"`
	AvatarURL    string             `json:"avatar_url"`
	Bio          string             `json:"bio"`
	AccountType  models.AccountType `json:"account_type" example:"personal"`
	Business     *BusinessInput     `json:"business,omitempty"`
	FriendsCount int64              `json:"friends_count"`
}

func newPrivateUserResponse(p service.Profile) PrivateUserResponse {
	u := p.User
	resp := PrivateUserResponse{
		ID:           u.ID,
		Username:     u.Username,
		Email:        u.Email,
		Role:         u.Role,
		FullName:     u.FullName,
		AvatarURL:    u.AvatarURL,
		Bio:          u.Bio,
		AccountType:  u.AccountType,
		FriendsCount: p.FriendsCount,
	}
	if u.AccountType == models.AccountBusiness {
		resp.Business = &BusinessInput{
			Name:    u.BusinessName,
			Type:    u.BusinessType,
			Address: u.BusinessAddress,
			City:    u.BusinessCity,
			State:   u.BusinessState,
			Zip:     u.BusinessZip,
		}
	}
	return resp
}

// endregion

// region --- Auth Handlers ---

// RegisterUser godoc
// @Summary      Register a new user
// @Description  Creates a new user and returns an authentication token.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        input body RegisterInput true "Registration Info"
// @Success      201  {object}  TokenResponse
// @Failure      400  {object}  ErrorResponse
// @Failure      409  {object}  ErrorResponse "Username or email already exists"
// @Failure      500  {object}  ErrorResponse
// @Router       /auth/register [post]
func (h *Handler) RegisterUser(c *gin.Context) {
	var input RegisterInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	_, token, err := h.users.Register(c.Request.Context(), service.RegisterParams{
		Username:    input.Username,
		Email:       input.Email,
		Password:    input.Password,
		FullName:    input.FullName,
		AccountType: input.AccountType,
		Business:    input.BusinessInfo.details(),
	})
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, TokenResponse{Token: token})
}

// LoginUser godoc
// @Summary      Log in a user
// @Description  Authenticates a user with username/email and password, and returns a new token.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        input body LoginInput true "Login Info"
// @Success      200  {object}  TokenResponse
// @Failure      400  {object}  ErrorResponse "Invalid input"
// @Failure      401  {object}  ErrorResponse "Invalid credentials"
// @Failure      500  {object}  ErrorResponse "Internal server error"
// @Router       /auth/login [post]
func (h *Handler) LoginUser(c *gin.Context) {
	var input LoginInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	token, err := h.users.Login(c.Request.Context(), input.Login, input.Password)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, TokenResponse{Token: token})
}

// endregion

// region --- User Handlers ---

// SearchUsers godoc
// @Summary      Search for users
// @Description  Searches for users by username with pagination. The viewer is never listed.
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Param        q     query     string  false  "Search query for username"
// @Param        page  query     int     false  "Page number" default(1)
// @Param        limit query     int     false  "Items per page" default(10)
// @Success      200   {object}  PaginatedResponse[PublicUserResponse]
// @Failure      401   {object}  ErrorResponse
// @Router       /users [get]
func (h *Handler) SearchUsers(c *gin.Context) {
	page := pageFromQuery(c)
	profiles, total, err := h.users.Search(c.Request.Context(), currentUser(c), c.Query("q"), page)
	if err != nil {
		h.respondError(c, err)
		return
	}

	data := make([]PublicUserResponse, 0, len(profiles))
	for _, p := range profiles {
		data = append(data, newPublicUserResponse(p))
	}
	c.JSON(http.StatusOK, NewPaginatedResponse(data, total, page.Number, page.Size))
}

// GetUserByID godoc
// @Summary      Get user by ID
// @Description  Retrieves the public profile for a specific user, including the friendship state with the viewer.
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "User ID"
// @Success      200  {object}  PublicUserResponse
// @Failure      400  {object}  ErrorResponse
// @Failure      401  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /users/{id} [get]
func (h *Handler) GetUserByID(c *gin.Context) {
	targetID, ok := pathID(c, "id")
	if !ok {
		return
	}

	// If target is the same as viewer, answer like /me
	if targetID == currentUser(c) {
		h.GetMe(c)
		return
	}

	profile, err := h.users.Profile(c.Request.Context(), currentUser(c), targetID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, newPublicUserResponse(profile))
}

// GetMe godoc
// @Summary      Get current user's info
// @Description  Retrieves the private profile for the currently authenticated user.
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  PrivateUserResponse
// @Failure      401  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /users/me [get]
func (h *Handler) GetMe(c *gin.Context) {
	userID := currentUser(c)
	profile, err := h.users.Profile(c.Request.Context(), userID, userID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, newPrivateUserResponse(profile))
}

// UpdateMe godoc
// @Summary      Update current user's profile
// @Description  Updates the fields present in the body. Business details are only accepted for business accounts.
// @Tags         users
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        input body UpdateProfileInput true "Profile fields"
// @Success      200  {object}  PrivateUserResponse
// @Failure      400  {object}  ErrorResponse
// @Failure      401  {object}  ErrorResponse
// @Router       /users/me [patch]
func (h *Handler) UpdateMe(c *gin.Context) {
	var input UpdateProfileInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	update := service.ProfileUpdate{FullName: input.FullName, Bio: input.Bio}
	if input.Business != nil {
		details := input.Business.details()
		update.Business = &details
	}

	ctx := c.Request.Context()
	userID := currentUser(c)
	if _, err := h.users.UpdateProfile(ctx, userID, update); err != nil {
		h.respondError(c, err)
		return
	}
	h.GetMe(c)
}

// UploadAvatar godoc
// @Summary      Upload an avatar
// @Description  Stores an image (jpeg, png, gif or webp, up to 5 MiB) and sets it as the user's avatar.
// @Tags         users
// @Accept       multipart/form-data
// @Produce      json
// @Security     BearerAuth
// @Param        file formData file true "Avatar image"
// @Success      200  {object}  PrivateUserResponse
// @Failure      400  {object}  ErrorResponse
// @Failure      503  {object}  ErrorResponse "Uploads are not configured"
// @Router       /users/me/avatar [post]
func (h *Handler) UploadAvatar(c *gin.Context) {
	url, ok := h.upload(c, "avatars")
	if !ok {
		return
	}
	if _, err := h.users.SetAvatar(c.Request.Context(), currentUser(c), url); err != nil {
		h.respondError(c, err)
		return
	}
	h.GetMe(c)
}

// upload stores the multipart "file" field under prefix.
func (h *Handler) upload(c *gin.Context, prefix string) (string, bool) {
	file, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "A 'file' form field is required"})
		return "", false
	}
	src, err := file.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read file"})
		return "", false
	}
	defer src.Close()

	url, err := h.uploads.Upload(c.Request.Context(), prefix, src, file.Size)
	if err != nil {
		h.respondError(c, err)
		return "", false
	}
	return url, true
}

// endregion
