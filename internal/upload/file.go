package upload

import (
	"errors"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"backend-videosync/internal/processor"
)

const (
	MaxTrackSize int64 = 50 << 20
	MaxVideoSize int64 = 2 << 30
)

var (
	ErrTrackType = errors.New("unsupported track file type")
	ErrTrackSize = errors.New("track file too large")
	ErrVideoType = errors.New("unsupported video format")
	ErrVideoSize = errors.New("video file too large")
)

// TrackExtensions are the accepted track formats.
var TrackExtensions = []string{".gpx", ".tcx", ".fit"}

var videoContentTypes = map[string]bool{
	"video/mp4":  true,
	"video/avi":  true,
	"video/mov":  true,
	"video/mkv":  true,
	"video/wmv":  true,
	"video/flv":  true,
	"video/webm": true,
	"video/m4v":  true,
}

var videoExtension = regexp.MustCompile(`(?i)\.(mp4|avi|mov|mkv|wmv|flv|webm|m4v)$`)

// File is an upload stored on local disk.
type File struct {
	Name        string `json:"name"`
	Size        int64  `json:"size"`
	ContentType string `json:"content_type,omitempty"`
	Path        string `json:"-"`
}

func (f *File) Ref() processor.FileRef {
	return processor.FileRef{Name: f.Name, Path: f.Path}
}

// Remove deletes the stored bytes. Missing files are not an error.
func (f *File) Remove() error {
	if f == nil || f.Path == "" {
		return nil
	}
	if err := os.Remove(f.Path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// TrackType is the upper-case format label, e.g. "GPX".
func (f *File) TrackType() string {
	return strings.ToUpper(strings.TrimPrefix(filepath.Ext(f.Name), "."))
}

func ValidateTrack(f File) error {
	ext := strings.ToLower(filepath.Ext(f.Name))
	allowed := false
	for _, e := range TrackExtensions {
		if ext == e {
			allowed = true
			break
		}
	}
	if !allowed {
		return ErrTrackType
	}
	if f.Size > MaxTrackSize {
		return ErrTrackSize
	}
	return nil
}

func ValidateVideo(f File) error {
	mediaType := strings.ToLower(strings.TrimSpace(strings.SplitN(f.ContentType, ";", 2)[0]))
	if !videoContentTypes[mediaType] && !videoExtension.MatchString(f.Name) {
		return ErrVideoType
	}
	if f.Size > MaxVideoSize {
		return ErrVideoSize
	}
	return nil
}
