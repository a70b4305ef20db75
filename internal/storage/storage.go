// Package storage keeps attachment (lampiran) files on the local disk.
// Images are normalized to JPEG within a maximum dimension; PDFs are kept
// byte for byte.
package storage

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"image"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"
	"github.com/zeebo/blake3"

	apperrors "kaskecil/internal/errors"
	"kaskecil/internal/logger"
	"kaskecil/internal/models"
	"kaskecil/internal/uuid"
)

const (
	contentTypeJPEG = "image/jpeg"
	contentTypePNG  = "image/png"
	contentTypeWebP = "image/webp"
	contentTypePDF  = "application/pdf"

	jpegQuality = 85
)

// LocalStore saves attachments below a root directory.
type LocalStore struct {
	root     string
	maxDim   int
	maxBytes int64
	now      func() time.Time
}

// NewLocalStore creates a store rooted at root. Images larger than maxDim
// on either side are shrunk; uploads above maxBytes are rejected.
func NewLocalStore(root string, maxDim int, maxBytes int64) *LocalStore {
	return &LocalStore{
		root:     root,
		maxDim:   maxDim,
		maxBytes: maxBytes,
		now:      time.Now,
	}
}

// SaveFiles stores every uploaded file. On failure the files already
// written are removed again.
func (s *LocalStore) SaveFiles(files []*multipart.FileHeader) ([]models.Attachment, error) {
	if len(files) > models.MaxAttachments {
		return nil, apperrors.ErrTooManyAttachments
	}
	out := make([]models.Attachment, 0, len(files))
	for _, fh := range files {
		a, err := s.saveHeader(fh)
		if err != nil {
			s.Remove(out)
			return nil, err
		}
		out = append(out, *a)
	}
	return out, nil
}

func (s *LocalStore) saveHeader(fh *multipart.FileHeader) (*models.Attachment, error) {
	if fh.Size > s.maxBytes {
		return nil, apperrors.ErrAttachmentTooLarge
	}
	f, err := fh.Open()
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInvalidAttachment, err)
	}
	defer f.Close()
	return s.Save(fh.Filename, f)
}

// Save normalizes and writes one file. The returned attachment is not
// persisted; its Path is relative to the store root.
func (s *LocalStore) Save(name string, r io.Reader) (*models.Attachment, error) {
	data, err := io.ReadAll(io.LimitReader(r, s.maxBytes+1))
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInvalidAttachment, err)
	}
	if int64(len(data)) > s.maxBytes {
		return nil, apperrors.ErrAttachmentTooLarge
	}
	if len(data) == 0 {
		return nil, apperrors.ErrInvalidAttachment
	}

	contentType := http.DetectContentType(data)
	ext := ".pdf"
	switch contentType {
	case contentTypeJPEG, contentTypePNG, contentTypeWebP:
		data, err = s.normalizeImage(data, contentType)
		if err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInvalidAttachment, err)
		}
		contentType, ext = contentTypeJPEG, ".jpg"
	case contentTypePDF:
	default:
		return nil, apperrors.ErrInvalidAttachment
	}

	rel := filepath.ToSlash(filepath.Join(s.now().UTC().Format("2006/01"), uuid.New()+ext))
	full := filepath.Join(s.root, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(full), 0o750); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if err := os.WriteFile(full, data, 0o640); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	sum := blake3.Sum256(data)
	return &models.Attachment{
		FileName:    displayName(name, ext),
		ContentType: contentType,
		Size:        int64(len(data)),
		Path:        rel,
		Checksum:    hex.EncodeToString(sum[:]),
	}, nil
}

func (s *LocalStore) normalizeImage(data []byte, contentType string) ([]byte, error) {
	var (
		img image.Image
		err error
	)
	if contentType == contentTypeWebP {
		img, err = webp.Decode(bytes.NewReader(data))
	} else {
		img, err = imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	}
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", contentType, err)
	}

	b := img.Bounds()
	if s.maxDim > 0 && (b.Dx() > s.maxDim || b.Dy() > s.maxDim) {
		img = imaging.Fit(img, s.maxDim, s.maxDim, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(jpegQuality)); err != nil {
		return nil, fmt.Errorf("encoding jpeg: %w", err)
	}
	return buf.Bytes(), nil
}

// Open returns the stored file at a path previously returned by Save.
func (s *LocalStore) Open(rel string) (*os.File, error) {
	full, err := s.resolve(rel)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(full)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, apperrors.ErrAttachmentNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return f, nil
}

// Remove deletes the files of attachments that were stored but never
// persisted. Errors are logged only.
func (s *LocalStore) Remove(attachments []models.Attachment) {
	for _, a := range attachments {
		full, err := s.resolve(a.Path)
		if err != nil {
			continue
		}
		if err := os.Remove(full); err != nil && !os.IsNotExist(err) {
			logger.Get().Warnw("failed to remove attachment file", "path", a.Path, "error", err)
		}
	}
}

// resolve maps a relative path into the root, refusing anything that
// escapes it.
func (s *LocalStore) resolve(rel string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(rel))
	if clean == "." || filepath.IsAbs(clean) || strings.HasPrefix(clean, ".."+string(filepath.Separator)) || clean == ".." {
		return "", apperrors.ErrAttachmentNotFound
	}
	return filepath.Join(s.root, clean), nil
}

const maxNameRunes = 100

// displayName keeps the uploaded base name with the stored extension.
func displayName(name, ext string) string {
	base := filepath.Base(strings.ReplaceAll(name, `\`, "/"))
	base = strings.TrimSuffix(base, filepath.Ext(base))
	if base == "" || base == "." || base == "/" {
		base = "lampiran"
	}
	if r := []rune(base); len(r) > maxNameRunes {
		base = string(r[:maxNameRunes])
	}
	return base + ext
}
