package web

import (
	"errors"
	"net/http"

	"dwitter/internal/database"

	"github.com/labstack/echo/v4"
)

// apiError is the JSON error envelope: a stable machine-readable kind plus
// a human-readable message.
type apiError struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

const (
	kindNotFound     = "not_found"
	kindConflict     = "conflict"
	kindForbidden    = "forbidden"
	kindValidation   = "validation"
	kindUnauthorized = "unauthorized"
	kindInternal     = "internal"
)

var notFoundErrors = []error{
	database.ErrDweetNotFound,
	database.ErrUserNotFound,
	database.ErrProfileNotFound,
}

var conflictErrors = []error{
	database.ErrAlreadyLiked,
	database.ErrNotLiked,
	database.ErrAlreadyRedweeted,
	database.ErrNotRedweeted,
	database.ErrAlreadyFollowing,
	database.ErrNotFollowing,
	database.ErrUsernameExists,
	database.ErrEmailExists,
}

var validationErrors = []error{
	database.ErrEmptyText,
	database.ErrLongText,
	database.ErrEmptyName,
	database.ErrEmptyEmail,
	database.ErrLongEmail,
	database.ErrInvalidUsername,
	database.ErrShortUsername,
	database.ErrLongUsername,
	database.ErrShortPassword,
	database.ErrLongPassword,
	database.ErrSelfFollow,
	database.ErrBadSortBy,
	database.ErrBadPage,
}

var unauthorizedErrors = []error{
	database.ErrEmailNotFound,
	database.ErrIncorrectPassword,
	database.ErrSessionNotFound,
	database.ErrSessionExpired,
}

// errorJSON maps a service error onto its HTTP status and wire kind. Errors
// outside the taxonomy are logged and surfaced as internal.
func (app *app) errorJSON(c echo.Context, err error) error {
	for _, target := range notFoundErrors {
		if errors.Is(err, target) {
			return c.JSON(http.StatusNotFound, apiError{Kind: kindNotFound, Message: target.Error()})
		}
	}
	for _, target := range conflictErrors {
		if errors.Is(err, target) {
			return c.JSON(http.StatusBadRequest, apiError{Kind: kindConflict, Message: target.Error()})
		}
	}
	for _, target := range validationErrors {
		if errors.Is(err, target) {
			return c.JSON(http.StatusBadRequest, apiError{Kind: kindValidation, Message: target.Error()})
		}
	}
	for _, target := range unauthorizedErrors {
		if errors.Is(err, target) {
			return c.JSON(http.StatusUnauthorized, apiError{Kind: kindUnauthorized, Message: target.Error()})
		}
	}
	if errors.Is(err, database.ErrNotDweetAuthor) {
		return c.JSON(http.StatusForbidden, apiError{Kind: kindForbidden, Message: err.Error()})
	}

	app.errorLog.Printf("internal error: %v", err)
	return c.JSON(http.StatusInternalServerError, apiError{Kind: kindInternal, Message: "internal server error"})
}

func (app *app) badRequestJSON(c echo.Context, message string) error {
	return c.JSON(http.StatusBadRequest, apiError{Kind: kindValidation, Message: message})
}

func (app *app) unauthorizedJSON(c echo.Context) error {
	return c.JSON(http.StatusUnauthorized, apiError{Kind: kindUnauthorized, Message: "authentication required"})
}
