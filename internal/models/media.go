package models

// MediaKind is the kind of an uploaded media file
type MediaKind string

// MediaKind constants
const (
	MediaImage MediaKind = "image"
	MediaAudio MediaKind = "audio"
	MediaVideo MediaKind = "video"
)

// UploadResult is returned after a media upload
type UploadResult struct {
	Kind         MediaKind `json:"kind"`
	Path         string    `json:"path"`
	URL          string    `json:"url"`
	OriginalName string    `json:"original_name"`
	Format       string    `json:"format"`
	Size         int64     `json:"size"`
}
