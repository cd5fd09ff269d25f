package upload

import (
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"strconv"

	"logistics-backoffice/internal/models"
	"logistics-backoffice/pkg/utils"

	"github.com/labstack/echo/v4"
)

// Handler handles media upload requests.
type Handler struct {
	svc ServiceInterface
}

func NewHandler(svc ServiceInterface) *Handler {
	return &Handler{svc: svc}
}

// MediaFiles returns the "images" and "videos" parts of a multipart request.
// Any other file field is rejected.
func MediaFiles(c echo.Context) ([]*multipart.FileHeader, []*multipart.FileHeader, error) {
	form, err := c.MultipartForm()
	if err != nil {
		if errors.Is(err, http.ErrNotMultipart) {
			return nil, nil, nil
		}
		return nil, nil, fmt.Errorf("%w: malformed multipart body", models.ErrInvalidInput)
	}
	for field := range form.File {
		if field != "images" && field != "videos" {
			return nil, nil, fmt.Errorf("%w: unexpected field %q, use \"images\" for images and \"videos\" for videos", models.ErrInvalidInput, field)
		}
	}
	images, videos := form.File["images"], form.File["videos"]
	if err := CheckCounts(len(images), len(videos)); err != nil {
		return nil, nil, err
	}
	return images, videos, nil
}

func (h *Handler) UploadMedia(c echo.Context) error {
	images, videos, err := MediaFiles(c)
	if err != nil {
		return utils.HandleServiceError(c, err)
	}

	result, err := h.svc.Upload(c.Request().Context(), images, videos)
	if err != nil {
		return utils.HandleServiceError(c, err)
	}

	body := utils.Success("Files uploaded successfully", "files", result)
	body["count"] = len(result.Images) + len(result.Videos)
	return utils.RespondWithJSON(c, http.StatusOK, body)
}

func (h *Handler) ListImages(c echo.Context) error {
	return h.list(c, models.MediaImage, "images")
}

func (h *Handler) ListVideos(c echo.Context) error {
	return h.list(c, models.MediaVideo, "videos")
}

func (h *Handler) list(c echo.Context, kind models.MediaKind, key string) error {
	files, err := h.svc.List(c.Request().Context(), kind)
	if err != nil {
		return utils.HandleServiceError(c, err)
	}
	message := "Files fetched successfully"
	if len(files) == 0 {
		message = "No " + key + " uploaded yet"
	}
	body := utils.Success(message, key, files)
	body["count"] = len(files)
	return utils.RespondWithJSON(c, http.StatusOK, body)
}

func (h *Handler) DeleteFile(c echo.Context) error {
	kind, err := ParseKind(c.Param("type"))
	if err != nil {
		return utils.HandleServiceError(c, err)
	}
	if err := h.svc.Delete(c.Request().Context(), kind, c.Param("filename")); err != nil {
		return utils.HandleServiceError(c, err)
	}
	return utils.RespondWithJSON(c, http.StatusOK, utils.Success("File deleted successfully", "", nil))
}

// Cleanup is admin only.
func (h *Handler) Cleanup(c echo.Context) error {
	deleted, err := h.svc.Cleanup(c.Request().Context())
	if err != nil {
		return utils.HandleServiceError(c, err)
	}
	return utils.RespondWithJSON(c, http.StatusOK, utils.Success("Files cleaned up successfully", "deletedCount", deleted))
}

// ServeFile streams a stored object: GET /uploads/*.
func (h *Handler) ServeFile(c echo.Context) error {
	rc, obj, err := h.svc.Open(c.Request().Context(), c.Param("*"))
	if err != nil {
		return utils.HandleServiceError(c, err)
	}
	defer rc.Close()

	contentType := obj.ContentType
	if contentType == "" {
		contentType = echo.MIMEOctetStream
	}
	if obj.Size > 0 {
		c.Response().Header().Set(echo.HeaderContentLength, strconv.FormatInt(obj.Size, 10))
	}
	if !obj.ModTime.IsZero() {
		c.Response().Header().Set(echo.HeaderLastModified, obj.ModTime.UTC().Format(http.TimeFormat))
	}
	return c.Stream(http.StatusOK, contentType, rc)
}

// RegisterRoutes mounts the upload API on an authenticated group.
// adminOnly guards the destructive cleanup route.
func RegisterRoutes(g *echo.Group, h *Handler, adminOnly echo.MiddlewareFunc) {
	g.POST("", h.UploadMedia)
	g.GET("/images", h.ListImages)
	g.GET("/videos", h.ListVideos)
	g.DELETE("/cleanup", h.Cleanup, adminOnly)
	g.DELETE("/:type/:filename", h.DeleteFile)
}
