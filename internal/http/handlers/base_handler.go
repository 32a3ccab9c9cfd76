// Base handler utilities (JSON helpers, error mapping).
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"campool/internal/modules/ride"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeError(c *gin.Context, status int, msg string) {
	c.JSON(status, errorResponse{Error: msg})
}

// writeRideError maps the service's error kinds onto HTTP statuses: validation
// to 400, missing to 404, authorization to 403, state and store conflicts to
// 409. Retryable store conflicts carry a hint header so clients can retry.
func writeRideError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ride.ErrBadRequest):
		writeError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, ride.ErrRideNotFound):
		writeError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, ride.ErrNotRideOwner), errors.Is(err, ride.ErrOwnRide):
		writeError(c, http.StatusForbidden, err.Error())
	case errors.Is(err, ride.ErrTxConflict):
		c.Header("Retry-After", "0")
		writeError(c, http.StatusConflict, err.Error())
	case errors.Is(err, ride.ErrRideNotOpen),
		errors.Is(err, ride.ErrActiveRide),
		errors.Is(err, ride.ErrRideFull),
		errors.Is(err, ride.ErrAlreadyBooked),
		errors.Is(err, ride.ErrInvalidState),
		errors.Is(err, ride.ErrTooEarly):
		writeError(c, http.StatusConflict, err.Error())
	default:
		writeError(c, http.StatusInternalServerError, "internal error")
	}
}
