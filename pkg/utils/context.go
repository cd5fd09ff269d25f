package utils

import (
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"

	"logistics-backoffice/internal/models"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

const (
	DefaultPageLimit = 10
	MaxPageLimit     = 100
)

// ExtractUserInfo returns the user id and user type set by the JWT middleware.
func ExtractUserInfo(c echo.Context) (string, models.UserType, error) {
	userID, ok := c.Get("userID").(string)
	if !ok || userID == "" {
		return "", "", echo.NewHTTPError(http.StatusUnauthorized, "Authentication required")
	}
	userType, _ := c.Get("userType").(models.UserType)
	return userID, userType, nil
}

// ParseIDParam reads a path parameter that must be a UUID.
func ParseIDParam(c echo.Context, name string) (string, error) {
	raw := c.Param(name)
	id, err := uuid.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("%w: %s is not a valid id", models.ErrInvalidInput, name)
	}
	return id.String(), nil
}

// GetPageLimit reads the page and limit query parameters.
// Missing values fall back to page 1 and DefaultPageLimit.
func GetPageLimit(c echo.Context) (int, int, error) {
	page, err := positiveQueryInt(c, "page", 1)
	if err != nil {
		return 0, 0, err
	}
	limit, err := positiveQueryInt(c, "limit", DefaultPageLimit)
	if err != nil {
		return 0, 0, err
	}
	if limit > MaxPageLimit {
		return 0, 0, fmt.Errorf("%w: limit must not exceed %d", models.ErrInvalidInput, MaxPageLimit)
	}
	// Keep (page-1)*limit a valid non-negative OFFSET.
	if page-1 > math.MaxInt32/limit {
		return 0, 0, fmt.Errorf("%w: page is out of range", models.ErrInvalidInput)
	}
	return page, limit, nil
}

// GetListParams reads page, limit, search, sortBy and sortOrder.
// sortBy is returned as given; callers check it against their own allow-list.
func GetListParams(c echo.Context) (models.ListParams, error) {
	page, limit, err := GetPageLimit(c)
	if err != nil {
		return models.ListParams{}, err
	}

	sortOrder := strings.ToLower(c.QueryParam("sortOrder"))
	switch sortOrder {
	case "":
		sortOrder = "desc"
	case "asc", "desc":
	default:
		return models.ListParams{}, fmt.Errorf("%w: sortOrder must be asc or desc", models.ErrInvalidInput)
	}

	return models.ListParams{
		Page:      page,
		Limit:     limit,
		Search:    strings.TrimSpace(c.QueryParam("search")),
		SortBy:    c.QueryParam("sortBy"),
		SortOrder: sortOrder,
	}, nil
}

func positiveQueryInt(c echo.Context, name string, def int) (int, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, fmt.Errorf("%w: %s must be a positive integer", models.ErrInvalidInput, name)
	}
	return n, nil
}
