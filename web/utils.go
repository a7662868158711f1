package web

import (
	"strconv"
	"strings"

	"dwitter/internal/database"
	"dwitter/internal/models"

	"github.com/labstack/echo/v4"
)

// getSessionToken extracts the bearer token from the Authorization header.
func (app *app) getSessionToken(c echo.Context) string {
	header := c.Request().Header.Get("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return parts[1]
}

// getCurrentUser resolves the request's session token to its user.
func (app *app) getCurrentUser(c echo.Context) *models.User {
	token := app.getSessionToken(c)
	if token == "" {
		return nil
	}

	user, err := app.SessionService.GetUserBySession(token)
	if err != nil {
		return nil
	}

	return user
}

// authUser returns the user stored on the context by requireAuth.
func authUser(c echo.Context) *models.User {
	user, _ := c.Get(userContextKey).(*models.User)
	return user
}

// pageOptions reads page/limit/sortBy query params.
func pageOptions(c echo.Context) (database.PageOptions, error) {
	var opts database.PageOptions

	if raw := c.QueryParam("page"); raw != "" {
		page, err := strconv.Atoi(raw)
		if err != nil {
			return opts, database.ErrBadPage
		}
		opts.Page = page
	}
	if raw := c.QueryParam("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil {
			return opts, database.ErrBadPage
		}
		opts.Limit = limit
	}
	opts.SortBy = c.QueryParam("sortBy")

	return opts, nil
}
