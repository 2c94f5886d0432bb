package handlers

import (
	"errors"
	"net/http"

	"github.com/dimitrije/taskhub-api/internal/services"
	"github.com/dimitrije/taskhub-api/pkg/logger"
	"github.com/m1z23r/drift/pkg/drift"
)

// respondError maps service errors onto HTTP statuses. Unknown errors are
// logged and reported as 500 with the generic fallback message.
func respondError(c *drift.Context, err error, fallback string) {
	switch {
	case errors.Is(err, services.ErrNotFound):
		c.NotFound(err.Error())
	case errors.Is(err, services.ErrForbidden):
		c.Forbidden(err.Error())
	case errors.Is(err, services.ErrInvalidInput), errors.Is(err, services.ErrInvalidToken):
		c.BadRequest(err.Error())
	case errors.Is(err, services.ErrAlreadyExists):
		_ = c.JSON(http.StatusConflict, map[string]string{"error": err.Error()})
	default:
		logger.Error().Err(err).
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Msg(fallback)
		c.InternalServerError(fallback)
	}
}
