package shipment

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"logistics-backoffice/internal/models"
	"logistics-backoffice/internal/modules/upload"
	"logistics-backoffice/pkg/utils"

	"github.com/labstack/echo/v4"
)

// Handler handles HTTP requests for shipments.
type Handler struct {
	svc ServiceInterface
}

func NewHandler(svc ServiceInterface) *Handler {
	return &Handler{svc: svc}
}

// requestMedia returns the files of a multipart request; JSON requests carry none.
func requestMedia(c echo.Context) (Media, error) {
	images, videos, err := upload.MediaFiles(c)
	if err != nil {
		return Media{}, err
	}
	return Media{Images: images, Videos: videos}, nil
}

// CreateShipment accepts JSON or multipart/form-data with "images" and "videos" file fields.
func (h *Handler) CreateShipment(c echo.Context) error {
	userID, _, err := utils.ExtractUserInfo(c)
	if err != nil {
		return err
	}

	var req models.CreateShipmentRequest
	if err := c.Bind(&req); err != nil {
		return utils.RespondWithError(c, http.StatusBadRequest, "Invalid request body")
	}
	if err := utils.GetValidator().Validate(&req); err != nil {
		return utils.RespondWithError(c, http.StatusBadRequest, err.Error())
	}
	media, err := requestMedia(c)
	if err != nil {
		return utils.HandleServiceError(c, err)
	}

	shipment, err := h.svc.CreateShipment(c.Request().Context(), userID, req, media)
	if err != nil {
		return utils.HandleServiceError(c, err)
	}
	return utils.RespondWithJSON(c, http.StatusCreated, utils.Success("Shipment created successfully", "shipment", shipment))
}

// CreateBulk creates several shipments for one order. ?atomic=true makes the
// batch all-or-nothing.
func (h *Handler) CreateBulk(c echo.Context) error {
	userID, _, err := utils.ExtractUserInfo(c)
	if err != nil {
		return err
	}

	atomic := false
	if raw := c.QueryParam("atomic"); raw != "" {
		atomic, err = strconv.ParseBool(raw)
		if err != nil {
			return utils.HandleServiceError(c, fmt.Errorf("%w: atomic must be true or false", models.ErrInvalidInput))
		}
	}

	var req models.BulkShipmentRequest
	if err := c.Bind(&req); err != nil {
		return utils.RespondWithError(c, http.StatusBadRequest, "Invalid request body")
	}
	if err := utils.GetValidator().Validate(&req); err != nil {
		return utils.RespondWithError(c, http.StatusBadRequest, err.Error())
	}

	shipments, err := h.svc.CreateBulk(c.Request().Context(), userID, req, atomic)
	if err != nil {
		var bulkErr *BulkError
		if errors.As(err, &bulkErr) {
			code, body := utils.ErrorBody(bulkErr.Err)
			body["message"] = fmt.Sprintf("Shipment %d: %s", bulkErr.Index+1, body["message"])
			body["failedIndex"] = bulkErr.Index
			body["persisted"] = bulkErr.Persisted
			if code == http.StatusInternalServerError {
				c.Logger().Error("Handler.CreateBulk: ", err)
			}
			return utils.RespondWithJSON(c, code, body)
		}
		return utils.HandleServiceError(c, err)
	}

	body := utils.Success(fmt.Sprintf("%d shipments created successfully", len(shipments)), "shipments", shipments)
	body["count"] = len(shipments)
	return utils.RespondWithJSON(c, http.StatusCreated, body)
}

// ListShipments supports page, limit, search, sortBy, sortOrder, status and courierService.
func (h *Handler) ListShipments(c echo.Context) error {
	userID, _, err := utils.ExtractUserInfo(c)
	if err != nil {
		return err
	}
	params, err := utils.GetListParams(c)
	if err != nil {
		return utils.HandleServiceError(c, err)
	}

	filter := models.ShipmentFilter{ListParams: params}
	if raw := c.QueryParam("status"); raw != "" {
		if filter.Status, err = models.ParseShipmentStatus(raw); err != nil {
			return utils.HandleServiceError(c, err)
		}
	}
	if raw := c.QueryParam("courierService"); raw != "" {
		if filter.CourierService, err = models.ParseCourierService(raw); err != nil {
			return utils.HandleServiceError(c, err)
		}
	}

	shipments, total, err := h.svc.ListShipments(c.Request().Context(), userID, filter)
	if err != nil {
		return utils.HandleServiceError(c, err)
	}
	body := utils.Success("Shipments fetched successfully", "shipments", shipments)
	body["pagination"] = models.NewPagination(params.Page, params.Limit, total)
	return utils.RespondWithJSON(c, http.StatusOK, body)
}

func (h *Handler) GetCourierServices(c echo.Context) error {
	services := h.svc.CourierServices()
	body := utils.Success("Courier services fetched successfully", "courierServices", services)
	body["count"] = len(services)
	return utils.RespondWithJSON(c, http.StatusOK, body)
}

func (h *Handler) ListOrderShipments(c echo.Context) error {
	userID, _, err := utils.ExtractUserInfo(c)
	if err != nil {
		return err
	}
	orderID, err := utils.ParseIDParam(c, "orderId")
	if err != nil {
		return utils.HandleServiceError(c, err)
	}

	shipments, err := h.svc.ListOrderShipments(c.Request().Context(), userID, orderID)
	if err != nil {
		return utils.HandleServiceError(c, err)
	}
	body := utils.Success("Order shipments fetched successfully", "shipments", shipments)
	body["count"] = len(shipments)
	return utils.RespondWithJSON(c, http.StatusOK, body)
}

func (h *Handler) GetShipment(c echo.Context) error {
	userID, _, err := utils.ExtractUserInfo(c)
	if err != nil {
		return err
	}
	shipmentID, err := utils.ParseIDParam(c, "shipmentId")
	if err != nil {
		return utils.HandleServiceError(c, err)
	}

	shipment, err := h.svc.GetShipment(c.Request().Context(), userID, shipmentID)
	if err != nil {
		return utils.HandleServiceError(c, err)
	}
	return utils.RespondWithJSON(c, http.StatusOK, utils.Success("Shipment fetched successfully", "shipment", shipment))
}

func (h *Handler) ListEvents(c echo.Context) error {
	userID, _, err := utils.ExtractUserInfo(c)
	if err != nil {
		return err
	}
	shipmentID, err := utils.ParseIDParam(c, "shipmentId")
	if err != nil {
		return utils.HandleServiceError(c, err)
	}

	events, err := h.svc.ListEvents(c.Request().Context(), userID, shipmentID)
	if err != nil {
		return utils.HandleServiceError(c, err)
	}
	body := utils.Success("Shipment events fetched successfully", "events", events)
	body["count"] = len(events)
	return utils.RespondWithJSON(c, http.StatusOK, body)
}

// UpdateShipment handles PUT /:shipmentId.
func (h *Handler) UpdateShipment(c echo.Context) error {
	return h.update(c, "")
}

// UpdateOrderShipment handles PUT /:orderId/:shipmentId.
func (h *Handler) UpdateOrderShipment(c echo.Context) error {
	orderID, err := utils.ParseIDParam(c, "orderId")
	if err != nil {
		return utils.HandleServiceError(c, err)
	}
	return h.update(c, orderID)
}

func (h *Handler) update(c echo.Context, orderID string) error {
	userID, _, err := utils.ExtractUserInfo(c)
	if err != nil {
		return err
	}
	shipmentID, err := utils.ParseIDParam(c, "shipmentId")
	if err != nil {
		return utils.HandleServiceError(c, err)
	}

	var req models.UpdateShipmentRequest
	if err := c.Bind(&req); err != nil {
		return utils.RespondWithError(c, http.StatusBadRequest, "Invalid request body")
	}
	if err := utils.GetValidator().Validate(&req); err != nil {
		return utils.RespondWithError(c, http.StatusBadRequest, err.Error())
	}
	media, err := requestMedia(c)
	if err != nil {
		return utils.HandleServiceError(c, err)
	}

	shipment, err := h.svc.UpdateShipment(c.Request().Context(), userID, orderID, shipmentID, req, media)
	if err != nil {
		return utils.HandleServiceError(c, err)
	}
	return utils.RespondWithJSON(c, http.StatusOK, utils.Success("Shipment updated successfully", "shipment", shipment))
}

func (h *Handler) DeleteShipment(c echo.Context) error {
	userID, _, err := utils.ExtractUserInfo(c)
	if err != nil {
		return err
	}
	shipmentID, err := utils.ParseIDParam(c, "shipmentId")
	if err != nil {
		return utils.HandleServiceError(c, err)
	}

	if err := h.svc.DeleteShipment(c.Request().Context(), userID, shipmentID); err != nil {
		return utils.HandleServiceError(c, err)
	}
	return utils.RespondWithJSON(c, http.StatusOK, utils.Success("Shipment deleted successfully", "", nil))
}

// RegisterRoutes mounts the shipment routes on an authenticated group.
func RegisterRoutes(g *echo.Group, h *Handler) {
	g.POST("", h.CreateShipment)
	g.POST("/bulk", h.CreateBulk)
	g.GET("", h.ListShipments)
	g.GET("/courier-services", h.GetCourierServices)
	g.GET("/order/:orderId", h.ListOrderShipments)
	g.GET("/:shipmentId", h.GetShipment)
	g.GET("/:shipmentId/events", h.ListEvents)
	g.PUT("/:shipmentId", h.UpdateShipment)
	g.PUT("/:orderId/:shipmentId", h.UpdateOrderShipment)
	g.DELETE("/:shipmentId", h.DeleteShipment)
}
