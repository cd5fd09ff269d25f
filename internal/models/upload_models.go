package models

import "time"

type MediaKind string

const (
	MediaImage         MediaKind = "images"
	MediaVideo         MediaKind = "videos"
	MediaShipmentImage MediaKind = "shipment-images"
	MediaShipmentVideo MediaKind = "shipment-videos"
)

// Prefix is the file name prefix used for stored files of this kind.
func (k MediaKind) Prefix() string {
	switch k {
	case MediaImage:
		return "image"
	case MediaVideo:
		return "video"
	case MediaShipmentImage:
		return "shipment-image"
	case MediaShipmentVideo:
		return "shipment-video"
	}
	return "file"
}

func (k MediaKind) IsVideo() bool {
	return k == MediaVideo || k == MediaShipmentVideo
}

func (k MediaKind) Valid() bool {
	switch k {
	case MediaImage, MediaVideo, MediaShipmentImage, MediaShipmentVideo:
		return true
	}
	return false
}

// StoredFile describes a file held by the storage backend.
type StoredFile struct {
	Filename     string    `json:"filename"`
	OriginalName string    `json:"originalName,omitempty"`
	Path         string    `json:"path"`
	URL          string    `json:"url"`
	Size         int64     `json:"size"`
	MimeType     string    `json:"mimetype,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
}

// UploadResult lists what one upload request stored.
type UploadResult struct {
	Images []StoredFile `json:"images"`
	Videos []StoredFile `json:"videos"`
}
