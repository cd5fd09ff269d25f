package utils

import (
	"errors"
	"net/http"
	"strings"

	"logistics-backoffice/internal/models"

	"github.com/labstack/echo/v4"
)

// RespondWithJSON writes payload with the given status code.
func RespondWithJSON(c echo.Context, code int, payload interface{}) error {
	return c.JSON(code, payload)
}

// RespondWithError writes the standard error envelope.
func RespondWithError(c echo.Context, code int, message string) error {
	return c.JSON(code, models.ErrorResponse{Status: false, Message: message})
}

// Success builds the standard success envelope with one payload entry.
func Success(message, key string, payload interface{}) echo.Map {
	body := echo.Map{"status": true, "message": message}
	if key != "" {
		body[key] = payload
	}
	return body
}

// ErrorStatus maps a service error onto a status code and client message.
// Unknown errors are 500 with a generic message.
func ErrorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, models.ErrInvalidInput):
		return http.StatusBadRequest, clientMessage(err)
	case errors.Is(err, models.ErrNotFound):
		return http.StatusNotFound, clientMessage(err)
	case errors.Is(err, models.ErrConflict):
		return http.StatusConflict, clientMessage(err)
	case errors.Is(err, models.ErrInvalidCredentials):
		return http.StatusUnauthorized, "Invalid email or password"
	case errors.Is(err, models.ErrForbidden):
		return http.StatusForbidden, clientMessage(err)
	}
	return http.StatusInternalServerError, "Internal server error"
}

// ErrorBody builds the error envelope for err as a map, so callers can add keys.
func ErrorBody(err error) (int, echo.Map) {
	code, message := ErrorStatus(err)
	body := echo.Map{"status": false, "message": message}
	if code == http.StatusInternalServerError {
		body["error"] = err.Error()
	}
	return code, body
}

// HandleServiceError maps a service error onto an HTTP response.
func HandleServiceError(c echo.Context, err error) error {
	code, message := ErrorStatus(err)
	if code != http.StatusInternalServerError {
		return RespondWithError(c, code, message)
	}

	c.Logger().Error("unhandled service error: ", err)
	return c.JSON(http.StatusInternalServerError, models.ErrorResponse{
		Status:  false,
		Message: message,
		Error:   err.Error(),
	})
}

// clientMessage drops the "service.X: repository.Y: " call-site prefixes
// so only the domain part of the message reaches the client.
func clientMessage(err error) string {
	msg := err.Error()
	for {
		i := strings.Index(msg, ": ")
		if i < 0 || !isCallSite(msg[:i]) {
			break
		}
		msg = msg[i+2:]
	}
	if msg == "" {
		return msg
	}
	return strings.ToUpper(msg[:1]) + msg[1:]
}

func isCallSite(s string) bool {
	return strings.Contains(s, ".") && !strings.ContainsAny(s, " \t")
}
