package media

import (
	"path/filepath"
	"strings"

	"github.com/nguyentantai21042004/video-transcriber/internal/domain"
	"github.com/nguyentantai21042004/video-transcriber/internal/language"
)

// uploadExtensions are the accepted video containers for uploads.
var uploadExtensions = []string{".mp4", ".avi", ".mov", ".mkv", ".webm"}

// UploadExtensions returns the accepted upload containers.
func UploadExtensions() []string {
	out := make([]string, len(uploadExtensions))
	copy(out, uploadExtensions)
	return out
}

// Validate checks a request before any file or network I/O happens.
func Validate(req domain.Request) error {
	if _, ok := language.Normalize(req.Language); !ok {
		return domain.Validationf("unsupported language %q", req.Language)
	}

	switch req.Kind {
	case domain.SourceUpload:
		return validateUpload(req.FileName, req.Data)
	case domain.SourceYouTube:
		return validateURL(req.URL, "YouTube", "youtube.com", "youtu.be")
	case domain.SourceInstagram:
		return validateURL(req.URL, "Instagram", "instagram.com")
	default:
		return domain.Validationf("unknown source kind %q", req.Kind)
	}
}

func validateUpload(name string, data []byte) error {
	if strings.TrimSpace(name) == "" {
		return domain.Validationf("no file was uploaded")
	}
	if len(data) == 0 {
		return domain.Validationf("uploaded file %q is empty", name)
	}
	if !IsVideoFile(name) {
		return domain.Validationf("unsupported file type %q, accepted: %s",
			filepath.Ext(name), strings.Join(uploadExtensions, ", "))
	}
	return nil
}

func validateURL(raw, platform string, domains ...string) error {
	url := strings.TrimSpace(raw)
	if url == "" {
		return domain.Validationf("please provide a %s URL", platform)
	}
	for _, d := range domains {
		if strings.Contains(url, d) {
			return nil
		}
	}
	return domain.Validationf("invalid URL: %q is not a %s link", url, platform)
}

// IsVideoFile checks if the file has a supported video extension
func IsVideoFile(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, format := range uploadExtensions {
		if ext == format {
			return true
		}
	}
	return false
}

// KindForURL infers the pipeline for a URL, used by the CLI.
func KindForURL(raw string) (domain.SourceKind, bool) {
	switch {
	case strings.Contains(raw, "youtube.com"), strings.Contains(raw, "youtu.be"):
		return domain.SourceYouTube, true
	case strings.Contains(raw, "instagram.com"):
		return domain.SourceInstagram, true
	default:
		return "", false
	}
}
