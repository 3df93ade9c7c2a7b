package api

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/IshaanNene/HoaxWatch/internal/engine"
	"github.com/IshaanNene/HoaxWatch/internal/types"
)

// ValidationError reports bad request input.
type ValidationError struct {
	Message string
	Err     error
}

func (e *ValidationError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *ValidationError) Unwrap() error { return e.Err }

func newValidation(format string, args ...any) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// errorHandler translates handler errors into JSON responses.
func errorHandler(logger *slog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		var ve *ValidationError
		var he *echo.HTTPError
		var status int
		body := map[string]string{"error": err.Error()}

		switch {
		case errors.As(err, &ve):
			status = http.StatusBadRequest
			body = map[string]string{"error": ve.Message, "title": "validation error"}
		case errors.Is(err, types.ErrUnknownSource):
			status = http.StatusNotFound
		case errors.Is(err, types.ErrDependencyUnavailable), errors.Is(err, engine.ErrShutdown):
			status = http.StatusServiceUnavailable
		case errors.As(err, &he):
			status = he.Code
			body = map[string]string{"error": fmt.Sprintf("%v", he.Message)}
		default:
			logger.Error("unhandled error", "path", c.Path(), "error", err)
			status = http.StatusInternalServerError
			body = map[string]string{"error": "internal server error"}
		}

		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(status)
			return
		}
		_ = c.JSON(status, body)
	}
}
