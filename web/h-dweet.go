package web

import (
	"net/http"

	"dwitter/internal/database"
	"dwitter/internal/models"

	"github.com/labstack/echo/v4"
)

type createDweetRequest struct {
	Text    string  `json:"text"`
	ReplyTo *string `json:"replyTo"`
}

type editDweetRequest struct {
	Text string `json:"text"`
}

type dweetResponse struct {
	Dweet *models.DweetView `json:"dweet"`
}

// listDweets returns one page of dweets matching the query filters.
// Replies are excluded unless the replyTo filter is given.
func (app *app) listDweets(c echo.Context) error {
	opts, err := pageOptions(c)
	if err != nil {
		return app.errorJSON(c, err)
	}

	filter := database.Filter{
		Author:   c.QueryParam("author"),
		Likes:    c.QueryParam("likes"),
		Redweets: c.QueryParam("redweets"),
		ReplyTo:  c.QueryParam("replyTo"),
	}

	page, err := app.FeedService.List(filter, opts)
	if err != nil {
		return app.errorJSON(c, err)
	}

	return c.JSON(http.StatusOK, page)
}

// feedDweets returns the authenticated user's following feed.
func (app *app) feedDweets(c echo.Context) error {
	opts, err := pageOptions(c)
	if err != nil {
		return app.errorJSON(c, err)
	}

	page, err := app.FeedService.Feed(authUser(c).ID, opts)
	if err != nil {
		return app.errorJSON(c, err)
	}

	return c.JSON(http.StatusOK, page)
}

func (app *app) getDweet(c echo.Context) error {
	view, err := app.FeedService.GetDweetView(c.Param("id"))
	if err != nil {
		return app.errorJSON(c, err)
	}

	return c.JSON(http.StatusOK, dweetResponse{Dweet: view})
}

func (app *app) createDweet(c echo.Context) error {
	var req createDweetRequest
	if err := c.Bind(&req); err != nil {
		return app.badRequestJSON(c, "malformed request body")
	}

	user := authUser(c)
	dweet, err := app.DweetService.CreateDweet(user.ID, req.Text, req.ReplyTo)
	if err != nil {
		return app.errorJSON(c, err)
	}

	view, err := app.FeedService.GetDweetView(dweet.ID)
	if err != nil {
		return app.errorJSON(c, err)
	}

	app.infoLog.Printf("Dweet created: ID=%s, Author=%s", dweet.ID, user.Username)

	return c.JSON(http.StatusCreated, dweetResponse{Dweet: view})
}

func (app *app) editDweet(c echo.Context) error {
	var req editDweetRequest
	if err := c.Bind(&req); err != nil {
		return app.badRequestJSON(c, "malformed request body")
	}

	if _, err := app.DweetService.EditDweet(authUser(c), c.Param("id"), req.Text); err != nil {
		return app.errorJSON(c, err)
	}

	view, err := app.FeedService.GetDweetView(c.Param("id"))
	if err != nil {
		return app.errorJSON(c, err)
	}

	return c.JSON(http.StatusOK, dweetResponse{Dweet: view})
}

func (app *app) removeDweet(c echo.Context) error {
	// Resolve the view before deletion so the response can echo the
	// removed dweet, as the mutation contract expects.
	view, err := app.FeedService.GetDweetView(c.Param("id"))
	if err != nil {
		return app.errorJSON(c, err)
	}

	if _, err := app.DweetService.RemoveDweet(authUser(c), c.Param("id")); err != nil {
		return app.errorJSON(c, err)
	}

	return c.JSON(http.StatusOK, dweetResponse{Dweet: view})
}

// engagement toggles; each returns the updated dweet view

func (app *app) likeDweet(c echo.Context) error {
	return app.toggleEngagement(c, app.EngagementService.Like)
}

func (app *app) unlikeDweet(c echo.Context) error {
	return app.toggleEngagement(c, app.EngagementService.Unlike)
}

func (app *app) redweetDweet(c echo.Context) error {
	return app.toggleEngagement(c, app.EngagementService.Redweet)
}

func (app *app) unRedweetDweet(c echo.Context) error {
	return app.toggleEngagement(c, app.EngagementService.UnRedweet)
}

func (app *app) toggleEngagement(c echo.Context, toggle func(actorID, dweetID string) error) error {
	if err := toggle(authUser(c).ID, c.Param("id")); err != nil {
		return app.errorJSON(c, err)
	}

	view, err := app.FeedService.GetDweetView(c.Param("id"))
	if err != nil {
		return app.errorJSON(c, err)
	}

	return c.JSON(http.StatusOK, dweetResponse{Dweet: view})
}
