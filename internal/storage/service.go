package storage

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"backend-videosync/internal/upload"
)

var ErrEmptyUpload = errors.New("empty upload")

// Service keeps uploaded files on local disk, one directory per session.
type Service struct {
	dir string
}

func NewService(dir string) (*Service, error) {
	if dir == "" {
		dir = filepath.Join(os.TempDir(), "videosync")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &Service{dir: dir}, nil
}

func (s *Service) Dir() string {
	return s.dir
}

// Save copies r into the session directory under a unique name.
func (s *Service) Save(sessionID, name, contentType string, r io.Reader) (upload.File, error) {
	if sessionID == "" || strings.ContainsAny(sessionID, `/\`) || sessionID == ".." {
		return upload.File{}, fmt.Errorf("invalid session id %q", sessionID)
	}
	base := filepath.Base(strings.ReplaceAll(name, `\`, "/"))
	if base == "." || base == "/" || base == "" {
		base = "upload"
	}

	sessionDir := filepath.Join(s.dir, sessionID)
	if err := os.MkdirAll(sessionDir, 0o755); err != nil {
		return upload.File{}, err
	}
	path := filepath.Join(sessionDir, uuid.NewString()+"-"+base)
	out, err := os.Create(path)
	if err != nil {
		return upload.File{}, err
	}
	n, err := io.Copy(out, r)
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(path)
		return upload.File{}, err
	}
	if n == 0 {
		_ = os.Remove(path)
		return upload.File{}, ErrEmptyUpload
	}
	return upload.File{Name: base, Size: n, ContentType: contentType, Path: path}, nil
}

// SaveMultipart stores one multipart file.
func (s *Service) SaveMultipart(sessionID string, fh *multipart.FileHeader) (upload.File, error) {
	src, err := fh.Open()
	if err != nil {
		return upload.File{}, err
	}
	defer src.Close()
	return s.Save(sessionID, fh.Filename, fh.Header.Get("Content-Type"), src)
}

// Purge deletes every file kept for a session.
func (s *Service) Purge(sessionID string) error {
	if sessionID == "" || strings.ContainsAny(sessionID, `/\`) || sessionID == ".." {
		return nil
	}
	return os.RemoveAll(filepath.Join(s.dir, sessionID))
}
