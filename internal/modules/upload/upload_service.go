package upload

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"path"
	"strings"
	"time"

	"logistics-backoffice/internal/models"
	"logistics-backoffice/pkg/storage"
	"logistics-backoffice/pkg/utils"

	"github.com/gabriel-vasile/mimetype"
)

const (
	MaxImageSize     = 10 << 20
	MaxVideoSize     = 100 << 20
	MaxImagesPerCall = 10
	MaxVideosPerCall = 1

	// URLPrefix is where stored files are served from.
	URLPrefix = "/uploads"
)

var (
	imageExtensions = map[string]bool{".jpeg": true, ".jpg": true, ".png": true, ".gif": true, ".webp": true}
	videoExtensions = map[string]bool{".mp4": true, ".mov": true, ".avi": true, ".wmv": true, ".webm": true}
)

// ServiceInterface defines media upload operations.
type ServiceInterface interface {
	Store(ctx context.Context, kind models.MediaKind, fh *multipart.FileHeader) (*models.StoredFile, error)
	Upload(ctx context.Context, images, videos []*multipart.FileHeader) (*models.UploadResult, error)
	List(ctx context.Context, kind models.MediaKind) ([]models.StoredFile, error)
	Delete(ctx context.Context, kind models.MediaKind, filename string) error
	Cleanup(ctx context.Context) (int, error)
	Open(ctx context.Context, key string) (io.ReadCloser, *storage.Object, error)
}

type Service struct {
	store storage.Backend
	now   func() time.Time
}

func NewService(store storage.Backend) *Service {
	return &Service{store: store, now: time.Now}
}

// CheckCounts enforces the per-request file limits.
func CheckCounts(images, videos int) error {
	if images > MaxImagesPerCall || videos > MaxVideosPerCall {
		return fmt.Errorf("%w: too many files, maximum %d images and %d video allowed per upload",
			models.ErrInvalidInput, MaxImagesPerCall, MaxVideosPerCall)
	}
	return nil
}

// Store validates one uploaded file and writes it under the directory of kind.
func (s *Service) Store(ctx context.Context, kind models.MediaKind, fh *multipart.FileHeader) (*models.StoredFile, error) {
	if !kind.Valid() {
		return nil, fmt.Errorf("service.Store: %w: unknown media kind %q", models.ErrInvalidInput, kind)
	}

	ext := strings.ToLower(path.Ext(fh.Filename))
	limit := int64(MaxImageSize)
	if kind.IsVideo() {
		limit = MaxVideoSize
		if !videoExtensions[ext] {
			return nil, fmt.Errorf("%w: invalid video type, only videos (mp4, mov, avi, wmv, webm) are allowed", models.ErrInvalidInput)
		}
	} else if !imageExtensions[ext] {
		return nil, fmt.Errorf("%w: invalid image type, only images (jpeg, jpg, png, gif, webp) are allowed", models.ErrInvalidInput)
	}
	if fh.Size > limit {
		return nil, fmt.Errorf("%w: file too large, maximum size is %d MB", models.ErrInvalidInput, limit>>20)
	}

	f, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("service.Store: %w", err)
	}
	defer f.Close()

	// The declared extension must agree with the actual content.
	mtype, err := mimetype.DetectReader(f)
	if err != nil {
		return nil, fmt.Errorf("service.Store: %w", err)
	}
	family := "image/"
	if kind.IsVideo() {
		family = "video/"
	}
	if !strings.HasPrefix(mtype.String(), family) {
		return nil, fmt.Errorf("%w: %s content is %s, not %s*", models.ErrInvalidInput, fh.Filename, mtype.String(), family)
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("service.Store: %w", err)
	}

	now := s.now()
	name, err := utils.GenerateFileName(kind.Prefix(), ext, now)
	if err != nil {
		return nil, fmt.Errorf("service.Store: %w", err)
	}
	key := string(kind) + "/" + name
	if err := s.store.Put(ctx, key, f, fh.Size, mtype.String()); err != nil {
		return nil, fmt.Errorf("service.Store: %w", err)
	}

	stored := storedFile(key, fh.Size, now)
	stored.OriginalName = fh.Filename
	stored.MimeType = mtype.String()
	return &stored, nil
}

// Upload stores a batch of images and videos. If any file is rejected, files
// already written by this call are removed again.
func (s *Service) Upload(ctx context.Context, images, videos []*multipart.FileHeader) (*models.UploadResult, error) {
	if len(images) == 0 && len(videos) == 0 {
		return nil, fmt.Errorf("%w: no files were uploaded, please upload images or videos", models.ErrInvalidInput)
	}
	if err := CheckCounts(len(images), len(videos)); err != nil {
		return nil, err
	}

	result := &models.UploadResult{Images: []models.StoredFile{}, Videos: []models.StoredFile{}}
	rollback := func() {
		for _, f := range append(result.Images, result.Videos...) {
			_ = s.store.Delete(context.WithoutCancel(ctx), strings.TrimPrefix(f.Path, "uploads/"))
		}
	}

	for _, fh := range images {
		stored, err := s.Store(ctx, models.MediaImage, fh)
		if err != nil {
			rollback()
			return nil, fmt.Errorf("service.Upload: %w", err)
		}
		result.Images = append(result.Images, *stored)
	}
	for _, fh := range videos {
		stored, err := s.Store(ctx, models.MediaVideo, fh)
		if err != nil {
			rollback()
			return nil, fmt.Errorf("service.Upload: %w", err)
		}
		result.Videos = append(result.Videos, *stored)
	}
	return result, nil
}

// List returns the stored files of kind with an allowed extension, newest first.
func (s *Service) List(ctx context.Context, kind models.MediaKind) ([]models.StoredFile, error) {
	if !kind.Valid() {
		return nil, fmt.Errorf("service.List: %w: unknown media kind %q", models.ErrInvalidInput, kind)
	}
	allowed := imageExtensions
	if kind.IsVideo() {
		allowed = videoExtensions
	}

	objects, err := s.store.List(ctx, string(kind))
	if err != nil {
		return nil, fmt.Errorf("service.List: %w", err)
	}
	files := make([]models.StoredFile, 0, len(objects))
	for _, obj := range objects {
		if !allowed[strings.ToLower(path.Ext(obj.Key))] {
			continue
		}
		f := storedFile(obj.Key, obj.Size, obj.ModTime)
		f.MimeType = obj.ContentType
		files = append(files, f)
	}
	return files, nil
}

// Delete removes one stored file. filename must be a bare name.
func (s *Service) Delete(ctx context.Context, kind models.MediaKind, filename string) error {
	if !kind.Valid() {
		return fmt.Errorf("%w: invalid file type, use \"image\" or \"video\"", models.ErrInvalidInput)
	}
	if filename == "" || strings.ContainsAny(filename, `/\`) || filename == "." || filename == ".." {
		return fmt.Errorf("%w: invalid file name", models.ErrInvalidInput)
	}

	if err := s.store.Delete(ctx, string(kind)+"/"+filename); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("file %w", models.ErrNotFound)
		}
		if errors.Is(err, storage.ErrInvalidKey) {
			return fmt.Errorf("%w: invalid file name", models.ErrInvalidInput)
		}
		return fmt.Errorf("service.Delete: %w", err)
	}
	return nil
}

// Cleanup removes every file under images/ and videos/ and returns the count.
// Shipment media directories are left alone.
func (s *Service) Cleanup(ctx context.Context) (int, error) {
	deleted := 0
	for _, kind := range []models.MediaKind{models.MediaImage, models.MediaVideo} {
		objects, err := s.store.List(ctx, string(kind))
		if err != nil {
			return deleted, fmt.Errorf("service.Cleanup: %w", err)
		}
		for _, obj := range objects {
			if err := s.store.Delete(ctx, obj.Key); err != nil && !errors.Is(err, storage.ErrNotFound) {
				return deleted, fmt.Errorf("service.Cleanup: %w", err)
			}
			deleted++
		}
	}
	return deleted, nil
}

// Open streams a stored file for the /uploads route.
func (s *Service) Open(ctx context.Context, key string) (io.ReadCloser, *storage.Object, error) {
	rc, obj, err := s.store.Get(ctx, key)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) || errors.Is(err, storage.ErrInvalidKey) {
			return nil, nil, fmt.Errorf("file %w", models.ErrNotFound)
		}
		return nil, nil, fmt.Errorf("service.Open: %w", err)
	}
	return rc, obj, nil
}

// ParseKind accepts both the directory name ("images") and the singular
// form ("image") used by the delete route. Shipment media is owned by a
// shipment and only removed through the shipment service, so those kinds
// are rejected here.
func ParseKind(s string) (models.MediaKind, error) {
	switch s {
	case "image", "images":
		return models.MediaImage, nil
	case "video", "videos":
		return models.MediaVideo, nil
	}
	return "", fmt.Errorf("%w: invalid file type, use \"image\" or \"video\"", models.ErrInvalidInput)
}

func storedFile(key string, size int64, created time.Time) models.StoredFile {
	return models.StoredFile{
		Filename:  path.Base(key),
		Path:      "uploads/" + key,
		URL:       URLPrefix + "/" + key,
		Size:      size,
		CreatedAt: created,
	}
}
