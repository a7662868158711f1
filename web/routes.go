package web

import "github.com/labstack/echo/v4"

func (app *app) routes(e *echo.Echo) {
	api := e.Group("/api")

	auth := api.Group("/auth")
	auth.POST("/register", app.register)
	auth.POST("/login", app.login)
	auth.POST("/logout", app.requireAuth(app.logout))

	dweets := api.Group("/dweets")
	dweets.GET("", app.listDweets)
	dweets.POST("", app.requireAuth(app.createDweet))
	dweets.GET("/feed", app.requireAuth(app.feedDweets))
	dweets.GET("/:id", app.getDweet)
	dweets.PATCH("/:id", app.requireAuth(app.editDweet))
	dweets.DELETE("/:id", app.requireAuth(app.removeDweet))
	dweets.POST("/like/:id", app.requireAuth(app.likeDweet))
	dweets.DELETE("/like/:id", app.requireAuth(app.unlikeDweet))
	dweets.POST("/redweet/:id", app.requireAuth(app.redweetDweet))
	dweets.DELETE("/redweet/:id", app.requireAuth(app.unRedweetDweet))

	profiles := api.Group("/profiles")
	profiles.GET("/:userId", app.getProfile)
	profiles.PATCH("", app.requireAuth(app.updateProfile))
	profiles.POST("/follow/:userId", app.requireAuth(app.follow))
	profiles.DELETE("/follow/:userId", app.requireAuth(app.unfollow))
}
