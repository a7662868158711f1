package web

import (
	"github.com/labstack/echo/v4"
)

const userContextKey = "authUser"

// requireAuth rejects the request unless a valid session token is
// presented; the resolved user is stored on the request context.
func (app *app) requireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		user := app.getCurrentUser(c)
		if user == nil {
			return app.unauthorizedJSON(c)
		}
		c.Set(userContextKey, user)
		return next(c)
	}
}
