package customer

import (
	"net/http"

	"logistics-backoffice/internal/models"
	"logistics-backoffice/pkg/utils"

	"github.com/labstack/echo/v4"
)

// Handler handles HTTP requests for customers and their addresses.
type Handler struct {
	svc ServiceInterface
}

// NewHandler creates a new customer handler.
func NewHandler(svc ServiceInterface) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) CreateCustomer(c echo.Context) error {
	userID, _, err := utils.ExtractUserInfo(c)
	if err != nil {
		return err
	}

	var req models.CreateCustomerRequest
	if err := c.Bind(&req); err != nil {
		return utils.RespondWithError(c, http.StatusBadRequest, "Invalid request body")
	}
	if err := utils.GetValidator().Validate(&req); err != nil {
		return utils.RespondWithError(c, http.StatusBadRequest, err.Error())
	}

	customer, err := h.svc.CreateCustomer(c.Request().Context(), userID, req)
	if err != nil {
		return utils.HandleServiceError(c, err)
	}
	return utils.RespondWithJSON(c, http.StatusCreated, utils.Success("Customer created successfully", "customer", customer))
}

func (h *Handler) ListCustomers(c echo.Context) error {
	userID, _, err := utils.ExtractUserInfo(c)
	if err != nil {
		return err
	}

	params, err := utils.GetListParams(c)
	if err != nil {
		return utils.HandleServiceError(c, err)
	}

	customers, total, err := h.svc.ListCustomers(c.Request().Context(), userID, params)
	if err != nil {
		return utils.HandleServiceError(c, err)
	}

	body := utils.Success("Customers fetched successfully", "customers", customers)
	body["pagination"] = models.NewPagination(params.Page, params.Limit, total)
	return utils.RespondWithJSON(c, http.StatusOK, body)
}

func (h *Handler) GetCustomer(c echo.Context) error {
	userID, _, err := utils.ExtractUserInfo(c)
	if err != nil {
		return err
	}
	customerID, err := utils.ParseIDParam(c, "customerId")
	if err != nil {
		return utils.HandleServiceError(c, err)
	}

	customer, err := h.svc.GetCustomer(c.Request().Context(), userID, customerID)
	if err != nil {
		return utils.HandleServiceError(c, err)
	}
	return utils.RespondWithJSON(c, http.StatusOK, utils.Success("Customer fetched successfully", "customer", customer))
}

func (h *Handler) UpdateCustomer(c echo.Context) error {
	userID, _, err := utils.ExtractUserInfo(c)
	if err != nil {
		return err
	}
	customerID, err := utils.ParseIDParam(c, "customerId")
	if err != nil {
		return utils.HandleServiceError(c, err)
	}

	var req models.UpdateCustomerRequest
	if err := c.Bind(&req); err != nil {
		return utils.RespondWithError(c, http.StatusBadRequest, "Invalid request body")
	}
	if err := utils.GetValidator().Validate(&req); err != nil {
		return utils.RespondWithError(c, http.StatusBadRequest, err.Error())
	}

	customer, err := h.svc.UpdateCustomer(c.Request().Context(), userID, customerID, req)
	if err != nil {
		return utils.HandleServiceError(c, err)
	}
	return utils.RespondWithJSON(c, http.StatusOK, utils.Success("Customer updated successfully", "customer", customer))
}

func (h *Handler) DeleteCustomer(c echo.Context) error {
	userID, _, err := utils.ExtractUserInfo(c)
	if err != nil {
		return err
	}
	customerID, err := utils.ParseIDParam(c, "customerId")
	if err != nil {
		return utils.HandleServiceError(c, err)
	}

	if err := h.svc.DeleteCustomer(c.Request().Context(), userID, customerID); err != nil {
		return utils.HandleServiceError(c, err)
	}
	return utils.RespondWithJSON(c, http.StatusOK, utils.Success("Customer deleted successfully", "", nil))
}

func (h *Handler) ListAddresses(c echo.Context) error {
	userID, _, err := utils.ExtractUserInfo(c)
	if err != nil {
		return err
	}
	customerID, err := utils.ParseIDParam(c, "customerId")
	if err != nil {
		return utils.HandleServiceError(c, err)
	}

	addresses, err := h.svc.ListAddresses(c.Request().Context(), userID, customerID)
	if err != nil {
		return utils.HandleServiceError(c, err)
	}
	body := utils.Success("Addresses fetched successfully", "addresses", addresses)
	body["count"] = len(addresses)
	return utils.RespondWithJSON(c, http.StatusOK, body)
}

func (h *Handler) GetAddress(c echo.Context) error {
	userID, _, err := utils.ExtractUserInfo(c)
	if err != nil {
		return err
	}
	customerID, addressID, err := addressParams(c)
	if err != nil {
		return utils.HandleServiceError(c, err)
	}

	address, err := h.svc.GetAddress(c.Request().Context(), userID, customerID, addressID)
	if err != nil {
		return utils.HandleServiceError(c, err)
	}
	return utils.RespondWithJSON(c, http.StatusOK, utils.Success("Address fetched successfully", "address", address))
}

func (h *Handler) AddAddress(c echo.Context) error {
	userID, _, err := utils.ExtractUserInfo(c)
	if err != nil {
		return err
	}
	customerID, err := utils.ParseIDParam(c, "customerId")
	if err != nil {
		return utils.HandleServiceError(c, err)
	}

	var req models.AddAddressRequest
	if err := c.Bind(&req); err != nil {
		return utils.RespondWithError(c, http.StatusBadRequest, "Invalid request body")
	}
	if err := utils.GetValidator().Validate(&req); err != nil {
		return utils.RespondWithError(c, http.StatusBadRequest, err.Error())
	}

	address, err := h.svc.AddAddress(c.Request().Context(), userID, customerID, req)
	if err != nil {
		return utils.HandleServiceError(c, err)
	}
	return utils.RespondWithJSON(c, http.StatusCreated, utils.Success("Address added successfully", "address", address))
}

func (h *Handler) UpdateAddress(c echo.Context) error {
	userID, _, err := utils.ExtractUserInfo(c)
	if err != nil {
		return err
	}
	customerID, addressID, err := addressParams(c)
	if err != nil {
		return utils.HandleServiceError(c, err)
	}

	var req models.UpdateAddressRequest
	if err := c.Bind(&req); err != nil {
		return utils.RespondWithError(c, http.StatusBadRequest, "Invalid request body")
	}
	if err := utils.GetValidator().Validate(&req); err != nil {
		return utils.RespondWithError(c, http.StatusBadRequest, err.Error())
	}

	address, err := h.svc.UpdateAddress(c.Request().Context(), userID, customerID, addressID, req)
	if err != nil {
		return utils.HandleServiceError(c, err)
	}
	return utils.RespondWithJSON(c, http.StatusOK, utils.Success("Address updated successfully", "address", address))
}

func (h *Handler) DeleteAddress(c echo.Context) error {
	userID, _, err := utils.ExtractUserInfo(c)
	if err != nil {
		return err
	}
	customerID, addressID, err := addressParams(c)
	if err != nil {
		return utils.HandleServiceError(c, err)
	}

	if err := h.svc.DeleteAddress(c.Request().Context(), userID, customerID, addressID); err != nil {
		return utils.HandleServiceError(c, err)
	}
	return utils.RespondWithJSON(c, http.StatusOK, utils.Success("Address deleted successfully", "", nil))
}

func addressParams(c echo.Context) (string, string, error) {
	customerID, err := utils.ParseIDParam(c, "customerId")
	if err != nil {
		return "", "", err
	}
	addressID, err := utils.ParseIDParam(c, "addressId")
	if err != nil {
		return "", "", err
	}
	return customerID, addressID, nil
}

// RegisterRoutes mounts the customer routes on an authenticated group.
func RegisterRoutes(g *echo.Group, h *Handler) {
	g.POST("", h.CreateCustomer)
	g.GET("", h.ListCustomers)
	g.GET("/:customerId", h.GetCustomer)
	g.PUT("/:customerId", h.UpdateCustomer)
	g.DELETE("/:customerId", h.DeleteCustomer)

	g.GET("/:customerId/addresses", h.ListAddresses)
	g.POST("/:customerId/addresses", h.AddAddress)
	g.GET("/:customerId/addresses/:addressId", h.GetAddress)
	g.PUT("/:customerId/addresses/:addressId", h.UpdateAddress)
	g.DELETE("/:customerId/addresses/:addressId", h.DeleteAddress)
}
