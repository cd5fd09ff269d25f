package upload

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"regexp"
	"testing"

	"logistics-backoffice/internal/models"
	"logistics-backoffice/pkg/storage"

	"github.com/labstack/echo/v4"
)

var pngBytes = append([]byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR"), make([]byte, 64)...)

type part struct {
	field, name string
	data        []byte
}

func multipartBody(t *testing.T, parts ...part) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for _, p := range parts {
		fw, err := w.CreateFormFile(p.field, p.name)
		if err != nil {
			t.Fatalf("CreateFormFile: %v", err)
		}
		if _, err := fw.Write(p.data); err != nil {
			t.Fatalf("write part: %v", err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	return &buf, w.FormDataContentType()
}

// fileHeaders parses parts back into the headers a handler would see.
func fileHeaders(t *testing.T, parts ...part) map[string][]*multipart.FileHeader {
	t.Helper()
	body, ct := multipartBody(t, parts...)
	req := httptest.NewRequest(http.MethodPost, "/", body)
	req.Header.Set(echo.HeaderContentType, ct)
	if err := req.ParseMultipartForm(32 << 20); err != nil {
		t.Fatalf("ParseMultipartForm: %v", err)
	}
	return req.MultipartForm.File
}

func newTestService(t *testing.T) (*Service, storage.Backend) {
	t.Helper()
	store, err := storage.NewLocal(t.TempDir())
	if err != nil {
		t.Fatalf("NewLocal: %v", err)
	}
	return NewService(store), store
}

func TestStore_Image(t *testing.T) {
	svc, store := newTestService(t)
	files := fileHeaders(t, part{"images", "Parcel.PNG", pngBytes})

	stored, err := svc.Store(context.Background(), models.MediaShipmentImage, files["images"][0])
	if err != nil {
		t.Fatalf("Store: %v", err)
	}
	if !regexp.MustCompile(`^shipment-image-\d+-\d{9}\.png$`).MatchString(stored.Filename) {
		t.Errorf("unexpected filename %q", stored.Filename)
	}
	if stored.URL != "/uploads/shipment-images/"+stored.Filename {
		t.Errorf("unexpected url %q", stored.URL)
	}
	if stored.MimeType != "image/png" || stored.OriginalName != "Parcel.PNG" {
		t.Errorf("unexpected metadata %+v", stored)
	}

	rc, _, err := store.Get(context.Background(), "shipment-images/"+stored.Filename)
	if err != nil {
		t.Fatalf("stored file missing: %v", err)
	}
	defer rc.Close()
	got, _ := io.ReadAll(rc)
	if !bytes.Equal(got, pngBytes) {
		t.Errorf("stored content differs")
	}
}

func TestStore_Rejections(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	cases := []struct {
		name string
		kind models.MediaKind
		p    part
	}{
		{"bad image extension", models.MediaImage, part{"images", "doc.pdf", pngBytes}},
		{"text disguised as png", models.MediaImage, part{"images", "fake.png", []byte("just some text, not an image")}},
		{"image as video", models.MediaVideo, part{"videos", "clip.mp4", pngBytes}},
		{"bad video extension", models.MediaVideo, part{"videos", "clip.mkv", pngBytes}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			files := fileHeaders(t, tc.p)
			_, err := svc.Store(ctx, tc.kind, files[tc.p.field][0])
			if !errors.Is(err, models.ErrInvalidInput) {
				t.Fatalf("expected ErrInvalidInput, got %v", err)
			}
		})
	}
}

func TestStore_ImageTooLarge(t *testing.T) {
	svc, _ := newTestService(t)
	files := fileHeaders(t, part{"images", "big.png", pngBytes})
	fh := files["images"][0]
	fh.Size = MaxImageSize + 1

	if _, err := svc.Store(context.Background(), models.MediaImage, fh); !errors.Is(err, models.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestUpload_RollsBackOnRejection(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	files := fileHeaders(t,
		part{"images", "a.png", pngBytes},
		part{"images", "b.png", []byte("not an image")},
	)

	if _, err := svc.Upload(ctx, files["images"], nil); !errors.Is(err, models.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	list, err := svc.List(ctx, models.MediaImage)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 0 {
		t.Fatalf("expected rejected batch to leave nothing behind, found %d files", len(list))
	}
}

func TestDeleteAndCleanup(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	files := fileHeaders(t, part{"images", "a.png", pngBytes}, part{"images", "b.png", pngBytes})

	result, err := svc.Upload(ctx, files["images"], nil)
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if len(result.Images) != 2 {
		t.Fatalf("expected 2 images, got %d", len(result.Images))
	}

	if err := svc.Delete(ctx, models.MediaImage, "../secret"); !errors.Is(err, models.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for traversal, got %v", err)
	}
	if err := svc.Delete(ctx, models.MediaImage, "missing.png"); !errors.Is(err, models.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := svc.Delete(ctx, models.MediaImage, result.Images[0].Filename); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	n, err := svc.Cleanup(ctx)
	if err != nil {
		t.Fatalf("Cleanup: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 file cleaned up, got %d", n)
	}
}

func TestParseKind(t *testing.T) {
	for in, want := range map[string]models.MediaKind{
		"image":  models.MediaImage,
		"images": models.MediaImage,
		"video":  models.MediaVideo,
		"videos": models.MediaVideo,
	} {
		got, err := ParseKind(in)
		if err != nil || got != want {
			t.Errorf("ParseKind(%q) = %q, %v", in, got, err)
		}
	}
	for _, in := range []string{"audio", "shipment-image", "shipment-images", "shipment-video", "shipment-videos"} {
		if _, err := ParseKind(in); !errors.Is(err, models.ErrInvalidInput) {
			t.Errorf("ParseKind(%q): expected ErrInvalidInput, got %v", in, err)
		}
	}
}

func TestDeleteFileHandler_ShipmentMediaIsNotDeletable(t *testing.T) {
	svc, store := newTestService(t)
	h := NewHandler(svc)
	e := echo.New()
	ctx := context.Background()

	files := fileHeaders(t, part{"images", "label.png", pngBytes})
	stored, err := svc.Store(ctx, models.MediaShipmentImage, files["images"][0])
	if err != nil {
		t.Fatalf("Store: %v", err)
	}

	for _, typ := range []string{"shipment-images", "shipment-image"} {
		req := httptest.NewRequest(http.MethodDelete, "/api/upload/"+typ+"/"+stored.Filename, nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		c.SetParamNames("type", "filename")
		c.SetParamValues(typ, stored.Filename)
		if err := h.DeleteFile(c); err != nil {
			t.Fatalf("DeleteFile: %v", err)
		}
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("%s: expected 400, got %d: %s", typ, rec.Code, rec.Body.String())
		}
	}

	rc, _, err := store.Get(ctx, "shipment-images/"+stored.Filename)
	if err != nil {
		t.Fatalf("shipment image was removed: %v", err)
	}
	rc.Close()
}

func TestUploadHandler(t *testing.T) {
	svc, _ := newTestService(t)
	h := NewHandler(svc)
	e := echo.New()

	body, ct := multipartBody(t, part{"images", "a.png", pngBytes})
	req := httptest.NewRequest(http.MethodPost, "/api/upload", body)
	req.Header.Set(echo.HeaderContentType, ct)
	rec := httptest.NewRecorder()
	if err := h.UploadMedia(e.NewContext(req, rec)); err != nil {
		t.Fatalf("UploadMedia: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Status bool                `json:"status"`
		Count  int                 `json:"count"`
		Files  models.UploadResult `json:"files"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !resp.Status || resp.Count != 1 || len(resp.Files.Images) != 1 {
		t.Fatalf("unexpected response %+v", resp)
	}

	// The stored file is served back under its URL.
	req = httptest.NewRequest(http.MethodGet, resp.Files.Images[0].URL, nil)
	rec = httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("*")
	c.SetParamValues("images/" + resp.Files.Images[0].Filename)
	if err := h.ServeFile(c); err != nil {
		t.Fatalf("ServeFile: %v", err)
	}
	if rec.Code != http.StatusOK || !bytes.Equal(rec.Body.Bytes(), pngBytes) {
		t.Fatalf("unexpected serve result %d", rec.Code)
	}

	body, ct = multipartBody(t, part{"attachments", "a.png", pngBytes})
	req = httptest.NewRequest(http.MethodPost, "/api/upload", body)
	req.Header.Set(echo.HeaderContentType, ct)
	rec = httptest.NewRecorder()
	if err := h.UploadMedia(e.NewContext(req, rec)); err != nil {
		t.Fatalf("UploadMedia: %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unexpected field, got %d", rec.Code)
	}
}
