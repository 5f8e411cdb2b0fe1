package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"tabletop/backend/internal/auth"
)

// NewRouter wires every route onto a fresh gin engine.
func NewRouter(h *Handler, tokens auth.TokenParser, admins auth.UserLookup) *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health check endpoint
	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	requireAuth := auth.AuthMiddleware(tokens)

	apiV1 := router.Group("/api/v1")
	{
		authRoutes := apiV1.Group("/auth")
		{
			authRoutes.POST("/register", h.RegisterUser)
			authRoutes.POST("/login", h.LoginUser)
		}

		progression := apiV1.Group("/progression")
		progression.Use(auth.OptionalAuthMiddleware(tokens))
		{
			progression.GET("/levels", h.GetLevels)
			progression.GET("/rewards", h.GetRewards)
		}

		userRoutes := apiV1.Group("/users")
		userRoutes.Use(requireAuth)
		{
			// Static /me routes must be registered before /:id
			userRoutes.GET("", h.SearchUsers)
			userRoutes.GET("/me", h.GetMe)
			userRoutes.PATCH("/me", h.UpdateMe)
			userRoutes.POST("/me/avatar", h.UploadAvatar)
			userRoutes.GET("/me/friends", h.GetFriends)
			userRoutes.GET("/me/friends/requests", h.GetFriendRequests)
			userRoutes.GET("/me/points", h.GetMyPoints)
			userRoutes.PUT("/me/unlocks/:feature", h.SelectUnlockOption)
			userRoutes.GET("/me/achievements", h.GetMyAchievements)

			userRoutes.GET("/:id", h.GetUserByID)
			userRoutes.GET("/:id/points", h.GetUserPoints)
			userRoutes.GET("/:id/games", h.GetHostedGames)
			userRoutes.GET("/:id/friendship", h.GetFriendship)

			// Friendship routes
			userRoutes.POST("/:id/request", h.SendRequest)
			userRoutes.POST("/:id/accept", h.AcceptRequest)
			userRoutes.POST("/:id/decline", h.DeclineRequest)
			userRoutes.POST("/:id/cancel", h.CancelRequest)
			userRoutes.POST("/:id/remove", h.RemoveFriend)
		}

		gameRoutes := apiV1.Group("/games")
		gameRoutes.Use(requireAuth)
		{
			gameRoutes.POST("", h.CreateGame)
			gameRoutes.GET("", h.GetGames)
			gameRoutes.GET("/:id", h.GetGameByID)
			gameRoutes.PUT("/:id", h.UpdateGame)
			gameRoutes.DELETE("/:id", h.DeleteGame)
			gameRoutes.POST("/:id/image", h.UploadGameImage)

			gameRoutes.POST("/:id/reserve", h.ReserveSpot)
			gameRoutes.POST("/:id/cancel", h.CancelReservation)
			gameRoutes.GET("/:id/attendees", h.GetAttendees)
			gameRoutes.DELETE("/:id/attendees/:userID", h.KickAttendee)
		}

		messageRoutes := apiV1.Group("/messages")
		messageRoutes.Use(requireAuth)
		{
			messageRoutes.GET("", h.GetConversations)
			messageRoutes.GET("/unread", h.GetUnreadCount)
			messageRoutes.GET("/:userID", h.GetConversation)
			messageRoutes.POST("/:userID", h.SendMessage)
			messageRoutes.POST("/:userID/read", h.MarkConversationRead)
		}

		apiV1.GET("/events", requireAuth, h.StreamEvents)

		adminRoutes := apiV1.Group("/admin")
		adminRoutes.Use(requireAuth, auth.AdminMiddleware(admins))
		{
			achievements := adminRoutes.Group("/achievements")
			{
				achievements.POST("", h.CreateAchievement)
				achievements.GET("", h.GetAchievements)
				achievements.PUT("/:id", h.UpdateAchievement)
				achievements.DELETE("/:id", h.DeleteAchievement)
			}

			adminRoutes.POST("/users/:id/achievements/:achievementID", h.RecordAchievementProgress)
		}
	}

	return router
}
