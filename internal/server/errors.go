package server

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/aman-zulfiqar/solana-fee-router/internal/routererr"
)

// NotFoundJSON returns a custom HTTP error handler that returns JSON responses
// This ensures all errors (including 404s) have consistent JSON format
func NotFoundJSON() echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		// Don't send response if already committed
		if c.Response().Committed {
			return
		}

		// Handle Echo HTTP errors (like 404, 400, etc.)
		if he, ok := err.(*echo.HTTPError); ok {
			_ = c.JSON(he.Code, ErrorResponse{
				Error: http.StatusText(he.Code),
				Code:  he.Code,
			})
			return
		}

		// Handle all other errors as internal server error
		_ = c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error: "internal server error",
			Code:  http.StatusInternalServerError,
		})
	}
}

// routerError answers with 400 and the router error name when err carries a
// router code, and with fallback otherwise.
func (h *Handlers) routerError(c echo.Context, err error, msg string, fallback int) error {
	if h.Logger != nil {
		h.Logger.WithError(err).Debug(msg)
	}
	if code, ok := routererr.CodeOf(err); ok {
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   msg,
			Code:    http.StatusBadRequest,
			Reason:  code.String(),
			Details: h.details(err),
		})
	}
	return h.err(c, fallback, msg, map[string]any{"err": err.Error()})
}

func (h *Handlers) details(err error) any {
	if !h.DevMode || err == nil {
		return nil
	}
	return map[string]any{"err": err.Error()}
}
