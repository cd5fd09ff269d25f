package api

import (
	"errors"
	"fmt"
	"net/http"

	"logistics-backoffice/internal/models"
	"logistics-backoffice/pkg/utils"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
)

// NewEcho returns an echo instance with the shared middleware, validator and
// error envelope installed. Routes are added by SetupRoutes.
func NewEcho(clientOrigin, bodyLimit string) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Validator = utils.GetValidator()
	e.HTTPErrorHandler = errorHandler

	e.Use(echomw.RequestID())
	e.Use(echomw.Logger())
	e.Use(echomw.Recover())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: []string{"http://localhost:5173", clientOrigin},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodPatch, http.MethodOptions},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
	}))
	e.Use(echomw.BodyLimit(bodyLimit))
	return e
}

// errorHandler renders errors that escape handlers (routing misses, body limit,
// ExtractUserInfo) in the same envelope as service errors.
func errorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	code := http.StatusInternalServerError
	message := http.StatusText(code)
	var he *echo.HTTPError
	if errors.As(err, &he) {
		code = he.Code
		message = fmt.Sprint(he.Message)
	} else {
		c.Logger().Error(err)
	}

	var respErr error
	if c.Request().Method == http.MethodHead {
		respErr = c.NoContent(code)
	} else {
		respErr = c.JSON(code, models.ErrorResponse{Status: false, Message: message})
	}
	if respErr != nil {
		c.Logger().Error(respErr)
	}
}
