package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	// MaxPhotoBytes caps a single uploaded photo.
	MaxPhotoBytes = 10 << 20
	// DefaultURLTTL is how long signed photo URLs stay valid.
	DefaultURLTTL = 24 * time.Hour
)

var allowedExtensions = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".webp": "image/webp",
	".heic": "image/heic",
	".heif": "image/heif",
}

var (
	// ErrUnsupportedType indicates the file extension or content type is not an accepted image.
	ErrUnsupportedType = errors.New("unsupported image type; allowed formats: jpg, jpeg, png, webp, heic, heif")
	// ErrTooLarge indicates the upload exceeds MaxPhotoBytes.
	ErrTooLarge = fmt.Errorf("photo exceeds %d MiB", MaxPhotoBytes>>20)
	// ErrForbidden indicates the object belongs to another user.
	ErrForbidden = errors.New("photo belongs to another user")
	// ErrInvalidPath indicates a malformed object path.
	ErrInvalidPath = errors.New("invalid photo path")
)

// ObjectStore is the blob backend photos are written to.
type ObjectStore interface {
	Put(ctx context.Context, objectPath, contentType string, data io.Reader) (int64, error)
	SignedURL(ctx context.Context, objectPath string, expires time.Time) (string, error)
	Delete(ctx context.Context, objectPath string) error
}

// Clock delivers the current time.
type Clock interface {
	Now() time.Time
}

// Upload describes one incoming photo.
type Upload struct {
	UserID      string
	Filename    string
	ContentType string
	Size        int64
	Data        io.Reader
}

// Photo is returned after a successful upload or signing request.
type Photo struct {
	Path      string    `json:"path"`
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expiresAt"`
	Size      int64     `json:"size,omitempty"`
}

// Service handles photo storage for diary entries.
type Service struct {
	store  ObjectStore
	clock  Clock
	urlTTL time.Duration
	newID  func() (uuid.UUID, error)
}

// NewService creates a new storage service.
func NewService(store ObjectStore, clock Clock, urlTTL time.Duration) (*Service, error) {
	if store == nil {
		return nil, errors.New("object store is required")
	}
	if clock == nil {
		return nil, errors.New("clock is required")
	}
	if urlTTL <= 0 {
		urlTTL = DefaultURLTTL
	}
	return &Service{store: store, clock: clock, urlTTL: urlTTL, newID: uuid.NewV7}, nil
}

// PhotoPrefix is the object prefix owned by userID.
func PhotoPrefix(userID string) string {
	return "photos/" + userID + "/"
}

// UploadPhoto stores the image at photos/{uid}/{uuidv7}{ext} and returns a signed URL for it.
func (s *Service) UploadPhoto(ctx context.Context, in Upload) (Photo, error) {
	if in.UserID == "" {
		return Photo{}, ErrForbidden
	}
	if in.Size > MaxPhotoBytes {
		return Photo{}, ErrTooLarge
	}
	ext := strings.ToLower(path.Ext(in.Filename))
	contentType, ok := allowedExtensions[ext]
	if !ok {
		return Photo{}, ErrUnsupportedType
	}
	if ct := strings.ToLower(strings.TrimSpace(in.ContentType)); ct != "" && ct != "application/octet-stream" {
		if !allowedContentType(ct) {
			return Photo{}, ErrUnsupportedType
		}
		contentType = ct
	}

	id, err := s.newID()
	if err != nil {
		return Photo{}, fmt.Errorf("generate photo id: %w", err)
	}
	objectPath := PhotoPrefix(in.UserID) + id.String() + ext

	written, err := s.store.Put(ctx, objectPath, contentType, io.LimitReader(in.Data, MaxPhotoBytes+1))
	if err != nil {
		return Photo{}, fmt.Errorf("failed to upload photo: %w", err)
	}
	if written > MaxPhotoBytes {
		_ = s.store.Delete(ctx, objectPath)
		return Photo{}, ErrTooLarge
	}

	photo, err := s.sign(ctx, objectPath)
	if err != nil {
		return Photo{}, err
	}
	photo.Size = written
	return photo, nil
}

// SignURL issues a fresh signed URL for one of the caller's own photos.
func (s *Service) SignURL(ctx context.Context, userID, objectPath string) (Photo, error) {
	objectPath = strings.TrimSpace(objectPath)
	if objectPath == "" || strings.Contains(objectPath, "..") || path.Clean(objectPath) != objectPath {
		return Photo{}, ErrInvalidPath
	}
	if userID == "" || !strings.HasPrefix(objectPath, PhotoPrefix(userID)) {
		return Photo{}, ErrForbidden
	}
	return s.sign(ctx, objectPath)
}

func (s *Service) sign(ctx context.Context, objectPath string) (Photo, error) {
	expires := s.clock.Now().Add(s.urlTTL)
	url, err := s.store.SignedURL(ctx, objectPath, expires)
	if err != nil {
		return Photo{}, fmt.Errorf("failed to generate signed URL: %w", err)
	}
	return Photo{Path: objectPath, URL: url, ExpiresAt: expires.UTC()}, nil
}

func allowedContentType(ct string) bool {
	for _, v := range allowedExtensions {
		if v == ct {
			return true
		}
	}
	return false
}

type systemClock struct{}

// NewSystemClock returns a Clock backed by time.Now.
func NewSystemClock() Clock { return systemClock{} }

func (systemClock) Now() time.Time { return time.Now() }
