package handlers

import (
	"github.com/gin-gonic/gin"
)

// RegisterRoutes mounts the auth, user and entry routes. requireAuth guards
// everything that acts on behalf of a caller.
func RegisterRoutes(r gin.IRouter, authHandler *AuthHandler, entryHandler *EntryHandler, requireAuth gin.HandlerFunc) {
	authGroup := r.Group("/auth")
	{
		authGroup.POST("/register", authHandler.CreateAccount)
		authGroup.POST("/login", authHandler.Login)
		authGroup.POST("/logout", authHandler.Logout)
		authGroup.GET("/me", requireAuth, authHandler.GetAccountDetails)
		authGroup.PUT("/me", requireAuth, authHandler.UpdateAccount)
	}

	user := r.Group("/user", requireAuth)
	{
		user.GET("/me", authHandler.GetAccountDetails)
		user.POST("/avatar", authHandler.AddProfilePic)
	}

	entries := r.Group("/entries", requireAuth)
	{
		entries.POST("", entryHandler.CreateEntry)
		entries.GET("/user", entryHandler.ListActiveEntries)
		entries.GET("/user/:id", entryHandler.ListUserEntries)
		entries.GET("/archive", entryHandler.ListArchivedEntries)
		entries.PUT("/archive/:id/restore", entryHandler.RestoreEntry)
		entries.DELETE("/archive/:id", entryHandler.DeleteEntry)
		entries.GET("/:id", entryHandler.GetEntry)
		entries.PUT("/:id", entryHandler.UpdateEntry)
		entries.DELETE("/:id", entryHandler.ArchiveEntry)
		entries.PUT("/:id/location", entryHandler.UpdateLocation)
		entries.DELETE("/:id/location", entryHandler.RemoveLocation)
		entries.POST("/:id/media", entryHandler.AddMedia)
		entries.DELETE("/:id/media", entryHandler.RemoveMedia)
		entries.DELETE("/:id/media/:mediaId", entryHandler.RemoveMediaByID)
	}
}
