package file

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"path"
	"strings"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"github.com/healthplus/backend/config"
	"github.com/healthplus/backend/pkg/reqctx"
)

const keyRoot = "uploads/"

var extensions = map[string]string{
	"image/jpeg":      ".jpg",
	"image/png":       ".png",
	"application/pdf": ".pdf",
}

// ---------------------------------------------------------------------------
// DTOs
// ---------------------------------------------------------------------------

type UploadResult struct {
	Key      string
	URL      string
	FileName string
	Size     int64
	MimeType string
}

// Storage is the object store the service writes to. *s3.Client satisfies it.
type Storage interface {
	Upload(ctx context.Context, key, contentType string, body io.Reader, size int64) error
	ObjectURL(key string) string
	PresignDownload(ctx context.Context, key string) (string, error)
	Delete(ctx context.Context, key string) error
}

// ---------------------------------------------------------------------------
// Service interface
// ---------------------------------------------------------------------------

type Service interface {
	// Upload validates and stores fh under folder and returns its public URL.
	Upload(ctx context.Context, folder string, fh *multipart.FileHeader) (*UploadResult, error)
	// GetDownloadURL presigns read access to a URL returned by Upload.
	GetDownloadURL(ctx context.Context, fileURL string) (string, error)
	// Delete removes the objects behind URLs returned by Upload. Empty
	// URLs are skipped.
	Delete(ctx context.Context, fileURLs ...string) error
}

// ---------------------------------------------------------------------------
// Implementation
// ---------------------------------------------------------------------------

type fileService struct {
	store   Storage
	maxSize int64
	allowed []string
}

func New(store Storage, cfg config.UploadConfig) Service {
	maxMB := cfg.MaxSizeMB
	if maxMB <= 0 {
		maxMB = 10
	}
	allowed := cfg.AllowedTypes
	if len(allowed) == 0 {
		allowed = lo.Keys(extensions)
	}
	return &fileService{store: store, maxSize: int64(maxMB) << 20, allowed: allowed}
}

func (s *fileService) Upload(ctx context.Context, folder string, fh *multipart.FileHeader) (*UploadResult, error) {
	if fh.Size == 0 {
		return nil, ErrEmptyFile
	}
	if fh.Size > s.maxSize {
		return nil, ErrFileTooLarge
	}

	src, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("open upload: %w", err)
	}
	defer src.Close()

	mime, err := sniff(src)
	if err != nil {
		return nil, err
	}
	if !lo.Contains(s.allowed, mime) {
		return nil, ErrUnsupportedType
	}

	ext, ok := extensions[mime]
	if !ok {
		return nil, ErrUnsupportedType
	}
	key := path.Join(keyRoot, strings.Trim(folder, "/"), uuid.NewString()+ext)

	if err := s.store.Upload(ctx, key, mime, src, fh.Size); err != nil {
		return nil, fmt.Errorf("s3 upload: %w", err)
	}

	return &UploadResult{
		Key:      key,
		URL:      s.store.ObjectURL(key),
		FileName: fh.Filename,
		Size:     fh.Size,
		MimeType: mime,
	}, nil
}

// sniff detects the content type from the leading bytes and rewinds src.
// The client-supplied Content-Type header is not trusted.
func sniff(src multipart.File) (string, error) {
	head := make([]byte, 512)
	n, err := io.ReadFull(src, head)
	if err != nil && err != io.ErrUnexpectedEOF {
		return "", fmt.Errorf("read upload: %w", err)
	}
	if _, err := src.Seek(0, io.SeekStart); err != nil {
		return "", fmt.Errorf("rewind upload: %w", err)
	}
	mime, _, _ := strings.Cut(http.DetectContentType(head[:n]), ";")
	return mime, nil
}

func (s *fileService) GetDownloadURL(ctx context.Context, fileURL string) (string, error) {
	key, err := keyFromURL(fileURL)
	if err != nil {
		return "", err
	}
	signed, err := s.store.PresignDownload(ctx, key)
	if err != nil {
		return "", fmt.Errorf("presign: %w", err)
	}
	return signed, nil
}

func (s *fileService) Delete(ctx context.Context, fileURLs ...string) error {
	var errs []error
	for _, u := range lo.Compact(fileURLs) {
		key, err := keyFromURL(u)
		if err == nil {
			err = s.store.Delete(ctx, key)
		}
		if err != nil {
			errs = append(errs, fmt.Errorf("delete %q: %w", u, err))
		}
	}
	return errors.Join(errs...)
}

// Discard deletes uploads that are no longer referenced. Failures are
// logged and leave the caller's result untouched.
func Discard(ctx context.Context, svc Service, fileURLs ...string) {
	if err := svc.Delete(ctx, fileURLs...); err != nil {
		reqctx.Logger(ctx).Warn("discard uploads failed", "err", err)
	}
}

// keyFromURL recovers the object key from a stored URL. Keys always start
// at the uploads root, whatever base the storage put in front of them.
func keyFromURL(fileURL string) (string, error) {
	u, err := url.Parse(fileURL)
	if err != nil {
		return "", ErrUnknownFile
	}
	i := strings.Index(u.Path, keyRoot)
	if i < 0 {
		return "", ErrUnknownFile
	}
	return u.Path[i:], nil
}
