package middleware

import (
	"errors"
	"net/http"

	"logistics-backoffice/internal/models"

	"github.com/golang-jwt/jwt/v5"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
)

// JWTAuth configures and returns Echo's JWT middleware.
func JWTAuth(jwtSecretKey string) echo.MiddlewareFunc {
	config := echojwt.Config{
		// NewClaimsFunc tells the middleware which claims type to parse into.
		NewClaimsFunc: func(c echo.Context) jwt.Claims {
			return new(models.JwtCustomClaims)
		},
		SigningKey:    []byte(jwtSecretKey),
		SigningMethod: jwt.SigningMethodHS256.Alg(),

		// SuccessHandler copies the claims into the context for handlers.
		SuccessHandler: func(c echo.Context) {
			// "user" is the default context key used by echo-jwt
			userToken := c.Get("user").(*jwt.Token)
			claims := userToken.Claims.(*models.JwtCustomClaims)

			c.Set("userID", claims.UserID)
			c.Set("userEmail", claims.Email)
			c.Set("userType", claims.UserType)
			c.Logger().Debugf("JWT Auth successful for user: %s", claims.UserID)
		},

		ErrorHandler: func(c echo.Context, err error) error {
			c.Logger().Warnf("JWT Error: %v", err)

			if errors.Is(err, echojwt.ErrJWTMissing) {
				return c.JSON(http.StatusUnauthorized, models.ErrorResponse{Message: "Missing or malformed JWT"})
			}
			if errors.Is(err, jwt.ErrTokenMalformed) {
				return c.JSON(http.StatusUnauthorized, models.ErrorResponse{Message: "Token is malformed"})
			} else if errors.Is(err, jwt.ErrTokenExpired) {
				return c.JSON(http.StatusUnauthorized, models.ErrorResponse{Message: "Token has expired"})
			} else if errors.Is(err, jwt.ErrTokenSignatureInvalid) {
				return c.JSON(http.StatusUnauthorized, models.ErrorResponse{Message: "Invalid token signature"})
			}

			return c.JSON(http.StatusUnauthorized, models.ErrorResponse{Message: "Invalid or expired JWT"})
		},
	}
	return echojwt.WithConfig(config)
}

// AdminRequired rejects requests whose token does not carry the admin user type.
// It must run after JWTAuth.
func AdminRequired() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			userType, _ := c.Get("userType").(models.UserType)
			if userType != models.UserTypeAdmin {
				return c.JSON(http.StatusForbidden, models.ErrorResponse{Message: "Admin access required"})
			}
			return next(c)
		}
	}
}
