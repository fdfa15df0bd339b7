package dto

// UploadType selects the destination prefix and ownership side effects.
type UploadType string

const (
	UploadTypeProfile  UploadType = "profile"
	UploadTypeEvidence UploadType = "evidence"
)

// UploadResponse is returned after a successful file upload.
type UploadResponse struct {
	URL         string `json:"url"`
	Path        string `json:"path"`
	Size        int64  `json:"size"`
	ContentType string `json:"content_type"`
}
