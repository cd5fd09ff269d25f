package shipment

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"logistics-backoffice/internal/models"
	"logistics-backoffice/internal/modules/upload"
	"logistics-backoffice/pkg/storage"

	"github.com/labstack/echo/v4"
)

var pngBytes = append([]byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR"), make([]byte, 64)...)

func newContext(req *http.Request, userID string) (echo.Context, *httptest.ResponseRecorder) {
	rec := httptest.NewRecorder()
	c := echo.New().NewContext(req, rec)
	c.Set("userID", userID)
	c.Set("userType", models.UserTypeUser)
	return c, rec
}

func jsonRequest(t *testing.T, method, target string, body interface{}) *http.Request {
	t.Helper()
	raw, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	req := httptest.NewRequest(method, target, bytes.NewReader(raw))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	return req
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
}

func TestCreateBulkHandler_ReportsFailedEntry(t *testing.T) {
	f := newFixture()
	h := NewHandler(f.svc)

	c, rec := newContext(jsonRequest(t, http.MethodPost, "/api/shipments/bulk", bulkReq(addressA1, addressForA)), userA)
	if err := h.CreateBulk(c); err != nil {
		t.Fatalf("CreateBulk: %v", err)
	}
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d: %s", rec.Code, rec.Body.String())
	}
	var body struct {
		Status      bool              `json:"status"`
		Message     string            `json:"message"`
		FailedIndex int               `json:"failedIndex"`
		Persisted   []models.Shipment `json:"persisted"`
	}
	decode(t, rec, &body)
	if body.Status || body.FailedIndex != 1 || len(body.Persisted) != 1 {
		t.Fatalf("unexpected body %+v", body)
	}
	if !strings.HasPrefix(body.Message, "Shipment 2: ") {
		t.Fatalf("message %q should name the failing entry", body.Message)
	}
}

func TestCreateBulkHandler_Success(t *testing.T) {
	f := newFixture()
	h := NewHandler(f.svc)

	c, rec := newContext(jsonRequest(t, http.MethodPost, "/api/shipments/bulk?atomic=true", bulkReq(addressA1, addressA2)), userA)
	if err := h.CreateBulk(c); err != nil {
		t.Fatalf("CreateBulk: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var body struct {
		Count     int               `json:"count"`
		Shipments []models.Shipment `json:"shipments"`
	}
	decode(t, rec, &body)
	if body.Count != 2 || len(body.Shipments) != 2 {
		t.Fatalf("unexpected body %+v", body)
	}
}

func TestCreateBulkHandler_BadAtomicFlag(t *testing.T) {
	f := newFixture()
	h := NewHandler(f.svc)

	c, rec := newContext(jsonRequest(t, http.MethodPost, "/api/shipments/bulk?atomic=maybe", bulkReq(addressA1)), userA)
	if err := h.CreateBulk(c); err != nil {
		t.Fatalf("CreateBulk: %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestCreateShipmentHandler_Validation(t *testing.T) {
	f := newFixture()
	h := NewHandler(f.svc)

	req := createReq(addressA1)
	req.NumberOfBoxes = 21
	c, rec := newContext(jsonRequest(t, http.MethodPost, "/api/shipments", req), userA)
	if err := h.CreateShipment(c); err != nil {
		t.Fatalf("CreateShipment: %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for 21 boxes, got %d", rec.Code)
	}

	req = createReq(addressA1)
	req.CourierService = "Pigeon"
	c, rec = newContext(jsonRequest(t, http.MethodPost, "/api/shipments", req), userA)
	if err := h.CreateShipment(c); err != nil {
		t.Fatalf("CreateShipment: %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for an unknown courier, got %d", rec.Code)
	}
}

func TestCreateShipmentHandler_MultipartWithImage(t *testing.T) {
	f := newFixture()
	store, err := storage.NewLocal(t.TempDir())
	if err != nil {
		t.Fatalf("NewLocal: %v", err)
	}
	f.svc.media = upload.NewService(store)
	h := NewHandler(f.svc)

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range map[string]string{
		"orderId":            orderA,
		"customerId":         customerA,
		"shippingAddress":    addressA1,
		"courierService":     string(models.CourierDHL),
		"shippingCost":       "99.5",
		"numberOfBoxes":      "1",
		"dispatchPersonName": "Kiran",
		"receiverName":       "Asha",
	} {
		if err := w.WriteField(k, v); err != nil {
			t.Fatalf("WriteField: %v", err)
		}
	}
	fw, err := w.CreateFormFile("images", "box.png")
	if err != nil {
		t.Fatalf("CreateFormFile: %v", err)
	}
	fw.Write(pngBytes)
	w.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/shipments", &buf)
	req.Header.Set(echo.HeaderContentType, w.FormDataContentType())
	c, rec := newContext(req, userA)
	if err := h.CreateShipment(c); err != nil {
		t.Fatalf("CreateShipment: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var body struct {
		Shipment models.Shipment `json:"shipment"`
	}
	decode(t, rec, &body)
	if len(body.Shipment.Images) != 1 || !strings.HasPrefix(body.Shipment.Images[0], "uploads/shipment-images/shipment-image-") {
		t.Fatalf("unexpected images %v", body.Shipment.Images)
	}
	if body.Shipment.ShippingCost != 99.5 || body.Shipment.CourierService != models.CourierDHL {
		t.Fatalf("form fields not bound: %+v", body.Shipment)
	}
}

func TestGetShipmentHandler(t *testing.T) {
	f := newFixture()
	h := NewHandler(f.svc)
	sh, err := f.svc.CreateShipment(context.Background(), userA, createReq(addressA1), Media{})
	if err != nil {
		t.Fatalf("CreateShipment: %v", err)
	}

	c, rec := newContext(httptest.NewRequest(http.MethodGet, "/", nil), userB)
	c.SetParamNames("shipmentId")
	c.SetParamValues(sh.ID)
	if err := h.GetShipment(c); err != nil {
		t.Fatalf("GetShipment: %v", err)
	}
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for another user's shipment, got %d", rec.Code)
	}

	c, rec = newContext(httptest.NewRequest(http.MethodGet, "/", nil), userA)
	c.SetParamNames("shipmentId")
	c.SetParamValues("not-a-uuid")
	if err := h.GetShipment(c); err != nil {
		t.Fatalf("GetShipment: %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for a malformed id, got %d", rec.Code)
	}
}

func TestGetCourierServicesHandler(t *testing.T) {
	h := NewHandler(newFixture().svc)
	c, rec := newContext(httptest.NewRequest(http.MethodGet, "/", nil), userA)
	if err := h.GetCourierServices(c); err != nil {
		t.Fatalf("GetCourierServices: %v", err)
	}
	var body struct {
		Count int `json:"count"`
	}
	decode(t, rec, &body)
	if body.Count != len(models.CourierServices) {
		t.Fatalf("count = %d, want %d", body.Count, len(models.CourierServices))
	}
}
