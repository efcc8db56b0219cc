package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/anonto42/nearby/backend/internal/feed"
	"github.com/anonto42/nearby/backend/internal/location"
	"github.com/anonto42/nearby/backend/internal/middleware"
	"github.com/anonto42/nearby/backend/internal/models"
	"github.com/anonto42/nearby/backend/internal/posts"
	"github.com/anonto42/nearby/backend/internal/reactions"
	"github.com/anonto42/nearby/backend/internal/repositories"
	"github.com/anonto42/nearby/backend/validators"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

const msgInternal = "Something went wrong"

var errUnauthenticated = echo.NewHTTPError(http.StatusUnauthorized, "Authentication required")

func respond(c echo.Context, status int, message string, data interface{}) error {
	return c.JSON(status, models.APIResponse{Success: status < 400, Message: message, Data: data})
}

// statusOf classifies err into an HTTP status and a client-facing message.
func statusOf(err error) (int, string) {
	var he *echo.HTTPError
	var verrs validator.ValidationErrors
	switch {
	case errors.As(err, &he):
		msg, ok := he.Message.(string)
		if !ok {
			msg = http.StatusText(he.Code)
		}
		return he.Code, msg
	case errors.As(err, &verrs):
		return http.StatusBadRequest, validators.Message(err)
	case errors.Is(err, models.ErrInvalidLocation):
		return http.StatusBadRequest, `Invalid location, expected "lat,lng"`
	case errors.Is(err, posts.ErrValidation),
		errors.Is(err, reactions.ErrInvalidKind),
		errors.Is(err, reactions.ErrInvalidKey):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, reactions.ErrPostNotFound), errors.Is(err, repositories.ErrNotFound):
		return http.StatusNotFound, "Not found"
	case errors.Is(err, location.ErrUserNotFound):
		return http.StatusNotFound, "User not found"
	case errors.Is(err, feed.ErrStorageUnavailable),
		errors.Is(err, feed.ErrIndexUnavailable),
		errors.Is(err, reactions.ErrConflict):
		return http.StatusServiceUnavailable, "Service temporarily unavailable, please retry"
	default:
		return http.StatusInternalServerError, msgInternal
	}
}

// HTTPErrorHandler writes every error, including echo's own, as the response envelope.
func HTTPErrorHandler(logger logrus.FieldLogger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}
		status, msg := statusOf(err)
		entry := logger.WithFields(logrus.Fields{
			"method": c.Request().Method,
			"path":   c.Path(),
			"status": status,
		}).WithError(err)
		switch {
		case errors.Is(err, context.Canceled):
			entry.Debug("request cancelled by client")
		case status >= 500:
			entry.Error("request failed")
		default:
			entry.Debug("request rejected")
		}

		if c.Request().Method == http.MethodHead {
			err = c.NoContent(status)
		} else {
			err = respond(c, status, msg, nil)
		}
		if err != nil {
			logger.WithError(err).Error("failed to write error response")
		}
	}
}

func currentUser(c echo.Context) (uint, error) {
	id, ok := middleware.UserID(c)
	if !ok {
		return 0, errUnauthenticated
	}
	return id, nil
}

func bindAndValidate(c echo.Context, req interface{}) error {
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	return c.Validate(req)
}
