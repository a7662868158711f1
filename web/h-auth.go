package web

import (
	"net/http"

	"dwitter/internal/models"

	"github.com/labstack/echo/v4"
)

type registerRequest struct {
	Name     string `json:"name"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type authResponse struct {
	User  *models.User `json:"user"`
	Token string       `json:"token"`
}

// register creates a user account plus its profile and opens a session.
func (app *app) register(c echo.Context) error {
	var req registerRequest
	if err := c.Bind(&req); err != nil {
		return app.badRequestJSON(c, "malformed request body")
	}

	user, err := app.UserService.CreateUser(req.Name, req.Username, req.Email, req.Password)
	if err != nil {
		return app.errorJSON(c, err)
	}

	session, err := app.SessionService.CreateSession(user.ID)
	if err != nil {
		return app.errorJSON(c, err)
	}

	app.infoLog.Printf("User registered: %s (%s)", user.Username, user.ID)

	return c.JSON(http.StatusCreated, authResponse{User: user, Token: session.Token})
}

// login verifies credentials and opens a session.
func (app *app) login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return app.badRequestJSON(c, "malformed request body")
	}

	user, err := app.UserService.VerifyUser(req.Email, req.Password)
	if err != nil {
		return app.errorJSON(c, err)
	}

	session, err := app.SessionService.CreateSession(user.ID)
	if err != nil {
		return app.errorJSON(c, err)
	}

	return c.JSON(http.StatusOK, authResponse{User: user, Token: session.Token})
}

// logout deletes the presented session.
func (app *app) logout(c echo.Context) error {
	token := app.getSessionToken(c)
	if err := app.SessionService.DeleteSession(token); err != nil {
		return app.errorJSON(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
