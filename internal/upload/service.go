// Package upload stores media posted by chat clients and hands back a URL
// that can be sent as a file message. It knows nothing about connections or
// users.
package upload

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"

	"socket-chat/internal/logging"
)

// Auditor records successful uploads. Failures are logged, never returned.
type Auditor interface {
	Record(ctx context.Context, rec Record) error
}

type Service struct {
	store    Store
	audit    Auditor
	maxBytes int64
	log      logging.Logger
	now      func() time.Time
	newID    func() string
}

// NewService builds the upload service. audit may be nil.
func NewService(store Store, audit Auditor, maxBytes int64, log logging.Logger) *Service {
	return &Service{
		store:    store,
		audit:    audit,
		maxBytes: maxBytes,
		log:      log,
		now:      time.Now,
		newID:    uuid.NewString,
	}
}

func (s *Service) MaxBytes() int64 { return s.maxBytes }

// Upload detects the content type of data, stores it and returns its URL.
func (s *Service) Upload(ctx context.Context, data []byte) (string, error) {
	if len(data) == 0 {
		return "", ErrNoFile
	}
	if int64(len(data)) > s.maxBytes {
		return "", ErrTooLarge
	}

	mt := mimetype.Detect(data)
	key := s.objectKey(mt)

	url, err := s.store.Put(ctx, key, mt.String(), data)
	if err != nil {
		s.log.Error(ctx, "object store put failed", "key", key, "error", err)
		return "", fmt.Errorf("%w: %v", ErrBackend, err)
	}

	if s.audit != nil {
		rec := Record{Key: key, URL: url, ContentType: mt.String(), Size: int64(len(data))}
		if err := s.audit.Record(ctx, rec); err != nil {
			s.log.Warn(ctx, "upload audit failed", "key", key, "error", err)
		}
	}
	return url, nil
}

// objectKey groups objects by resource kind and day: image/2026/10/18/<uuid>.png
func (s *Service) objectKey(mt *mimetype.MIME) string {
	d := s.now().UTC()
	return fmt.Sprintf("%s/%d/%02d/%02d/%s%s", ResourceKind(mt), d.Year(), d.Month(), d.Day(), s.newID(), mt.Extension())
}

// ResourceKind buckets a detected type the way media hosts usually do:
// image, video (audio included) or raw.
func ResourceKind(mt *mimetype.MIME) string {
	top, _, _ := strings.Cut(mt.String(), "/")
	switch top {
	case "image":
		return "image"
	case "video", "audio":
		return "video"
	default:
		return "raw"
	}
}
