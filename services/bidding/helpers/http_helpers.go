package helpers

import (
	"errors"
	"net/http"

	"live-auction/internal/biddingerrors"
	"live-auction/utils"

	"github.com/gin-gonic/gin"
)

// InvalidPayloadMessage is returned when a request body cannot be decoded.
const InvalidPayloadMessage = "invalid request payload"

// HandleBindError sends a standardized JSON error for binding failures
func HandleBindError(c *gin.Context, handlerName string, err error) {
	utils.JSONError(c, http.StatusBadRequest, InvalidPayloadMessage)
	utils.Warn(handlerName+": binding error", map[string]any{"error": err.Error()})
}

// MapBidErrorToHTTP maps a bid outcome error to a status and message.
// Every rejection is the caller's to fix, so all of them are 400.
func MapBidErrorToHTTP(err error) (int, string) {
	if _, ok := biddingerrors.AsRejection(err); ok {
		return http.StatusBadRequest, biddingerrors.UserMessage(err)
	}
	return http.StatusInternalServerError, "internal server error"
}

// MapErrorToHTTP maps lookup errors to HTTP status code and message
func MapErrorToHTTP(err error) (int, string) {
	switch {
	case errors.Is(err, biddingerrors.ErrItemNotFound):
		return http.StatusNotFound, biddingerrors.UserMessage(err)
	case errors.Is(err, biddingerrors.ErrInvalidRequest):
		return http.StatusBadRequest, biddingerrors.UserMessage(err)
	default:
		return http.StatusInternalServerError, "internal server error"
	}
}

// LogSuccess is a small helper to standardize logging of successful operations
func LogSuccess(handlerName, message string, ctx map[string]any) {
	utils.Info(handlerName+": "+message, ctx)
}
