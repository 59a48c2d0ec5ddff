package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/schlyythetech/taskmaster/internal/apperrors"
	"github.com/schlyythetech/taskmaster/internal/middleware"
	"github.com/schlyythetech/taskmaster/internal/session"
)

// getSession returns the request-scoped session set by the auth middleware.
func getSession(c echo.Context) session.Context {
	if sess, ok := c.Get(middleware.SessionKey).(session.Context); ok {
		return sess
	}
	return session.Context{}
}

// failJSON writes the structured failure envelope for a taxonomy error.
// Persistence errors are logged and surfaced as a generic failure.
func failJSON(c echo.Context, err error) error {
	var (
		validation  *apperrors.ValidationError
		notFound    *apperrors.NotFoundError
		permission  *apperrors.PermissionError
		conflict    *apperrors.ConflictError
		persistence *apperrors.PersistenceError
	)
	switch {
	case errors.As(err, &validation):
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "message": validation.Message})
	case errors.As(err, &notFound):
		return c.JSON(http.StatusNotFound, echo.Map{"success": false, "message": notFound.Error()})
	case errors.As(err, &permission):
		return c.JSON(http.StatusForbidden, echo.Map{"success": false, "message": permission.Message})
	case errors.As(err, &conflict):
		return c.JSON(http.StatusConflict, echo.Map{"success": false, "message": conflict.Message})
	case errors.As(err, &persistence):
		log.Printf("persistence error: %v", persistence)
		return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "message": "Something went wrong"})
	default:
		log.Printf("unexpected error: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "message": "Something went wrong"})
	}
}
