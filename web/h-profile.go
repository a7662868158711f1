package web

import (
	"net/http"

	"dwitter/internal/database"
	"dwitter/internal/models"

	"github.com/labstack/echo/v4"
)

type updateProfileRequest struct {
	Bio             string `json:"bio"`
	Location        string `json:"location"`
	Website         string `json:"website"`
	BackgroundImage string `json:"backgroundImage"`
}

type profileResponse struct {
	Profile *models.Profile `json:"profile"`
}

func (app *app) getProfile(c echo.Context) error {
	profile, err := app.ProfileService.GetProfile(c.Param("userId"))
	if err != nil {
		return app.errorJSON(c, err)
	}

	return c.JSON(http.StatusOK, profileResponse{Profile: profile})
}

// updateProfile changes the presentation metadata of the caller's profile.
func (app *app) updateProfile(c echo.Context) error {
	var req updateProfileRequest
	if err := c.Bind(&req); err != nil {
		return app.badRequestJSON(c, "malformed request body")
	}

	userID := authUser(c).ID
	err := app.ProfileService.UpdateProfile(userID, req.Bio, req.Location, req.Website, req.BackgroundImage)
	if err != nil {
		return app.errorJSON(c, err)
	}

	profile, err := app.ProfileService.GetProfile(userID)
	if err != nil {
		return app.errorJSON(c, err)
	}

	return c.JSON(http.StatusOK, profileResponse{Profile: profile})
}

func (app *app) follow(c echo.Context) error {
	followeeID := c.Param("userId")

	exists, err := app.UserService.UserExists(followeeID)
	if err != nil {
		return app.errorJSON(c, err)
	}
	if !exists {
		return app.errorJSON(c, database.ErrUserNotFound)
	}

	if err := app.ProfileService.Follow(authUser(c).ID, followeeID); err != nil {
		return app.errorJSON(c, err)
	}

	profile, err := app.ProfileService.GetProfile(authUser(c).ID)
	if err != nil {
		return app.errorJSON(c, err)
	}

	return c.JSON(http.StatusOK, profileResponse{Profile: profile})
}

func (app *app) unfollow(c echo.Context) error {
	if err := app.ProfileService.Unfollow(authUser(c).ID, c.Param("userId")); err != nil {
		return app.errorJSON(c, err)
	}

	profile, err := app.ProfileService.GetProfile(authUser(c).ID)
	if err != nil {
		return app.errorJSON(c, err)
	}

	return c.JSON(http.StatusOK, profileResponse{Profile: profile})
}
