// Package filestore manages the on-disk lifecycle of uploaded document
// photos and their public-path mapping.
package filestore

import (
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/lightit/patientreg/config"
)

var allowedMimes = map[string]bool{
	"image/jpeg": true,
	"image/jpg":  true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
}

type Store struct {
	dir          string
	publicPrefix string
	maxSize      int64
	log          *slog.Logger
}

func New(cfg config.UploadsConfig, log *slog.Logger) (*Store, error) {
	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("create uploads dir: %w", err)
	}

	maxSize := int64(cfg.MaxSizeMB) * 1024 * 1024
	if maxSize <= 0 {
		maxSize = 5 * 1024 * 1024
	}

	return &Store{
		dir:          cfg.Dir,
		publicPrefix: strings.TrimSuffix(cfg.PublicPrefix, "/"),
		maxSize:      maxSize,
		log:          log,
	}, nil
}

// Dir returns the on-disk directory uploads are written to.
func (s *Store) Dir() string { return s.dir }

// Validate rejects uploads the service must never accept: non-image content
// types and payloads over the size limit.
func (s *Store) Validate(fh *multipart.FileHeader) error {
	if fh.Size > s.maxSize {
		return ErrTooLarge{Max: s.maxSize}
	}
	mime := fh.Header.Get("Content-Type")
	if !allowedMimes[mime] {
		return ErrInvalidType{Mime: mime}
	}
	return nil
}

// Save writes an uploaded file under the documents directory with a generated
// unique name and returns that filename.
func (s *Store) Save(fh *multipart.FileHeader) (string, error) {
	if err := s.Validate(fh); err != nil {
		return "", err
	}

	src, err := fh.Open()
	if err != nil {
		return "", fmt.Errorf("open upload: %w", err)
	}
	defer src.Close()

	ext := strings.ToLower(filepath.Ext(fh.Filename))
	filename := uuid.NewString() + ext

	dst, err := os.Create(filepath.Join(s.dir, filename))
	if err != nil {
		return "", fmt.Errorf("create upload target: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return "", fmt.Errorf("write upload: %w", err)
	}

	return filename, nil
}

// PublicPath maps an uploaded filename to its site-relative URL path.
func (s *Store) PublicPath(filename string) string {
	return s.publicPrefix + "/" + filename
}

// Managed reports whether a public path lies under the managed documents
// prefix.
func (s *Store) Managed(publicPath string) bool {
	return strings.HasPrefix(publicPath, s.publicPrefix+"/")
}

// DeleteIfExists removes the file a public path refers to, if present.
// Cleanup is always best-effort: every failure is logged and swallowed so a
// record mutation can never fail because of it.
func (s *Store) DeleteIfExists(publicPath string) {
	filename := path.Base(publicPath)
	if filename == "" || filename == "." || filename == "/" {
		return
	}

	target := filepath.Join(s.dir, filename)

	if _, err := os.Stat(target); err != nil {
		if !os.IsNotExist(err) {
			s.log.Warn("stat upload for delete failed", "path", target, "err", err)
		}
		return
	}

	if err := os.Remove(target); err != nil {
		s.log.Warn("delete upload failed", "path", target, "err", err)
	}
}
