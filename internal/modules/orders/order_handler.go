package order

import (
	"fmt"
	"net/http"

	"logistics-backoffice/internal/models"
	"logistics-backoffice/pkg/utils"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// Handler handles HTTP requests for orders.
type Handler struct {
	svc ServiceInterface
}

// NewHandler creates a new order handler.
func NewHandler(svc ServiceInterface) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) CreateOrder(c echo.Context) error {
	userID, _, err := utils.ExtractUserInfo(c)
	if err != nil {
		return err
	}

	var req models.CreateOrderRequest
	if err := c.Bind(&req); err != nil {
		return utils.RespondWithError(c, http.StatusBadRequest, "Invalid request body")
	}
	if err := utils.GetValidator().Validate(&req); err != nil {
		return utils.RespondWithError(c, http.StatusBadRequest, err.Error())
	}

	order, err := h.svc.CreateOrder(c.Request().Context(), userID, req)
	if err != nil {
		return utils.HandleServiceError(c, err)
	}
	return utils.RespondWithJSON(c, http.StatusCreated, utils.Success("Order created successfully", "order", order))
}

// ListOrders supports page, limit, search, sortBy, sortOrder, customerId and status.
func (h *Handler) ListOrders(c echo.Context) error {
	userID, _, err := utils.ExtractUserInfo(c)
	if err != nil {
		return err
	}

	params, err := utils.GetListParams(c)
	if err != nil {
		return utils.HandleServiceError(c, err)
	}
	filter := models.OrderFilter{ListParams: params}

	if raw := c.QueryParam("customerId"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return utils.HandleServiceError(c, fmt.Errorf("%w: customerId is not a valid id", models.ErrInvalidInput))
		}
		filter.CustomerID = id.String()
	}
	if raw := c.QueryParam("status"); raw != "" {
		status, err := models.ParseOrderStatus(raw)
		if err != nil {
			return utils.HandleServiceError(c, err)
		}
		filter.Status = status
	}

	orders, total, err := h.svc.ListOrders(c.Request().Context(), userID, filter)
	if err != nil {
		return utils.HandleServiceError(c, err)
	}

	body := utils.Success("Orders fetched successfully", "orders", orders)
	body["pagination"] = models.NewPagination(params.Page, params.Limit, total)
	return utils.RespondWithJSON(c, http.StatusOK, body)
}

func (h *Handler) ListCustomerOrders(c echo.Context) error {
	userID, _, err := utils.ExtractUserInfo(c)
	if err != nil {
		return err
	}
	customerID, err := utils.ParseIDParam(c, "customerId")
	if err != nil {
		return utils.HandleServiceError(c, err)
	}
	params, err := utils.GetListParams(c)
	if err != nil {
		return utils.HandleServiceError(c, err)
	}

	orders, total, err := h.svc.ListCustomerOrders(c.Request().Context(), userID, customerID, params)
	if err != nil {
		return utils.HandleServiceError(c, err)
	}

	body := utils.Success("Customer orders fetched successfully", "orders", orders)
	body["pagination"] = models.NewPagination(params.Page, params.Limit, total)
	return utils.RespondWithJSON(c, http.StatusOK, body)
}

func (h *Handler) GetOrderDetails(c echo.Context) error {
	userID, _, err := utils.ExtractUserInfo(c)
	if err != nil {
		return err
	}
	orderID, err := utils.ParseIDParam(c, "orderId")
	if err != nil {
		return utils.HandleServiceError(c, err)
	}

	order, err := h.svc.GetOrderDetails(c.Request().Context(), userID, orderID)
	if err != nil {
		return utils.HandleServiceError(c, err)
	}
	return utils.RespondWithJSON(c, http.StatusOK, utils.Success("Order fetched successfully", "order", order))
}

func (h *Handler) UpdateOrderStatus(c echo.Context) error {
	userID, _, err := utils.ExtractUserInfo(c)
	if err != nil {
		return err
	}
	orderID, err := utils.ParseIDParam(c, "orderId")
	if err != nil {
		return utils.HandleServiceError(c, err)
	}

	var req models.UpdateOrderStatusRequest
	if err := c.Bind(&req); err != nil {
		return utils.RespondWithError(c, http.StatusBadRequest, "Invalid request body")
	}
	if err := utils.GetValidator().Validate(&req); err != nil {
		return utils.RespondWithError(c, http.StatusBadRequest, err.Error())
	}

	order, err := h.svc.UpdateOrderStatus(c.Request().Context(), userID, orderID, req.OrderStatus)
	if err != nil {
		return utils.HandleServiceError(c, err)
	}
	return utils.RespondWithJSON(c, http.StatusOK, utils.Success("Order status updated successfully", "order", order))
}

func (h *Handler) UpdateOrder(c echo.Context) error {
	userID, _, err := utils.ExtractUserInfo(c)
	if err != nil {
		return err
	}
	orderID, err := utils.ParseIDParam(c, "orderId")
	if err != nil {
		return utils.HandleServiceError(c, err)
	}

	var req models.UpdateOrderRequest
	if err := c.Bind(&req); err != nil {
		return utils.RespondWithError(c, http.StatusBadRequest, "Invalid request body")
	}
	if err := utils.GetValidator().Validate(&req); err != nil {
		return utils.RespondWithError(c, http.StatusBadRequest, err.Error())
	}

	order, err := h.svc.UpdateOrder(c.Request().Context(), userID, orderID, req)
	if err != nil {
		return utils.HandleServiceError(c, err)
	}
	return utils.RespondWithJSON(c, http.StatusOK, utils.Success("Order updated successfully", "order", order))
}

func (h *Handler) DeleteOrder(c echo.Context) error {
	userID, _, err := utils.ExtractUserInfo(c)
	if err != nil {
		return err
	}
	orderID, err := utils.ParseIDParam(c, "orderId")
	if err != nil {
		return utils.HandleServiceError(c, err)
	}

	if err := h.svc.DeleteOrder(c.Request().Context(), userID, orderID); err != nil {
		return utils.HandleServiceError(c, err)
	}
	return utils.RespondWithJSON(c, http.StatusOK, utils.Success("Order deleted successfully", "", nil))
}

// RegisterRoutes mounts the order routes on an authenticated group.
func RegisterRoutes(g *echo.Group, h *Handler) {
	g.POST("", h.CreateOrder)
	g.GET("", h.ListOrders)
	g.GET("/customer/:customerId", h.ListCustomerOrders)
	g.GET("/:orderId", h.GetOrderDetails)
	g.PATCH("/:orderId/status", h.UpdateOrderStatus)
	g.PUT("/:orderId", h.UpdateOrder)
	g.DELETE("/:orderId", h.DeleteOrder)
}
