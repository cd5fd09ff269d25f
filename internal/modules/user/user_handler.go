package user

import (
	"errors"
	"net/http"

	"logistics-backoffice/internal/models"
	"logistics-backoffice/pkg/utils"

	"github.com/labstack/echo/v4"
)

type Handler struct {
	service ServiceInterface
}

// NewHandler creates a new user handler.
func NewHandler(service ServiceInterface) *Handler {
	return &Handler{service: service}
}

func (h *Handler) Signup(c echo.Context) error {
	var req models.SignupRequest
	if err := c.Bind(&req); err != nil {
		return utils.RespondWithError(c, http.StatusBadRequest, "Invalid request body")
	}
	if err := utils.GetValidator().Validate(&req); err != nil {
		return utils.RespondWithError(c, http.StatusBadRequest, err.Error())
	}

	authResponse, err := h.service.Signup(c.Request().Context(), req)
	if err != nil {
		if errors.Is(err, models.ErrConflict) {
			return utils.RespondWithError(c, http.StatusBadRequest, "User already exists")
		}
		c.Logger().Error("Handler.Signup: ", err)
		return utils.HandleServiceError(c, err)
	}

	return utils.RespondWithJSON(c, http.StatusCreated, echo.Map{
		"status":  true,
		"message": "User registered successfully",
		"token":   authResponse.Token,
		"user":    authResponse.User,
	})
}

func (h *Handler) Login(c echo.Context) error {
	var req models.LoginRequest
	if err := c.Bind(&req); err != nil {
		return utils.RespondWithError(c, http.StatusBadRequest, "Invalid request body")
	}
	if err := utils.GetValidator().Validate(&req); err != nil {
		return utils.RespondWithError(c, http.StatusBadRequest, err.Error())
	}

	authResponse, err := h.service.Login(c.Request().Context(), req)
	if err != nil {
		if errors.Is(err, models.ErrInvalidCredentials) {
			return utils.RespondWithError(c, http.StatusUnauthorized, "Invalid email or password")
		}
		c.Logger().Error("Handler.Login: ", err)
		return utils.HandleServiceError(c, err)
	}

	return utils.RespondWithJSON(c, http.StatusOK, echo.Map{
		"status":  true,
		"message": "Login successful",
		"token":   authResponse.Token,
		"user":    authResponse.User,
	})
}

func (h *Handler) GetMyProfile(c echo.Context) error {
	userID, _, err := utils.ExtractUserInfo(c)
	if err != nil {
		return err
	}

	user, err := h.service.GetUserProfile(c.Request().Context(), userID)
	if err != nil {
		return utils.HandleServiceError(c, err)
	}
	return utils.RespondWithJSON(c, http.StatusOK, utils.Success("Profile fetched successfully", "user", user))
}

// ListUsers is admin only.
func (h *Handler) ListUsers(c echo.Context) error {
	page, limit, err := utils.GetPageLimit(c)
	if err != nil {
		return utils.HandleServiceError(c, err)
	}

	users, total, err := h.service.ListUsers(c.Request().Context(), page, limit)
	if err != nil {
		return utils.HandleServiceError(c, err)
	}

	body := utils.Success("Users fetched successfully", "users", users)
	body["pagination"] = models.NewPagination(page, limit, total)
	return utils.RespondWithJSON(c, http.StatusOK, body)
}
