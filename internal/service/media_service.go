package service

import (
	"context"
	"fmt"
	"log/slog"
	"path"
	"slices"
	"strings"
	"time"

	"encore/internal/config"
	"encore/internal/events"
	"encore/internal/middleware"
	"encore/internal/models"
	"encore/internal/observability"
	"encore/internal/repository"
	"encore/internal/storage"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
)

const (
	DefaultUploadTTL          = 15 * time.Minute
	DefaultAvatarMaxBytes     = 5 << 20
	DefaultAttachmentMaxBytes = 200 << 20
	MaxFilenameBytes          = 100
	maxExtensionBytes         = 16
)

var imageMimeTypes = []string{"image/jpeg", "image/png", "image/webp", "image/gif"}

var attachmentMimeTypes = append(append([]string{}, imageMimeTypes...),
	"video/mp4", "video/quicktime", "video/webm",
	"audio/mpeg", "audio/mp4", "audio/aac", "audio/wav", "audio/x-wav", "audio/ogg", "audio/flac",
)

// BeginUploadInput describes an upload the client is about to make.
type BeginUploadInput struct {
	UserID    uint
	ProfileID *uint
	Scope     models.MediaScope
	MimeType  string
	SizeBytes int64
	Filename  string
}

// UploadTicket is handed back to the client to perform the direct upload.
type UploadTicket struct {
	AssetID   uuid.UUID          `json:"asset_id"`
	Key       string             `json:"key"`
	UploadURL string             `json:"upload_url"`
	ExpiresAt time.Time          `json:"expires_at"`
	Status    models.MediaStatus `json:"status"`
}

// MediaService runs the PENDING -> READY upload lifecycle against the object store.
type MediaService struct {
	repo          repository.MediaRepository
	store         storage.ObjectStore
	publisher     events.Publisher
	bucket        string
	uploadTTL     time.Duration
	avatarMax     int64
	attachmentMax int64
	now           func() time.Time
}

// NewMediaService returns a new MediaService. A nil cfg uses the defaults.
func NewMediaService(repo repository.MediaRepository, store storage.ObjectStore, publisher events.Publisher, cfg *config.Config) *MediaService {
	s := &MediaService{
		repo:          repo,
		store:         store,
		publisher:     publisher,
		bucket:        "encore-media",
		uploadTTL:     DefaultUploadTTL,
		avatarMax:     DefaultAvatarMaxBytes,
		attachmentMax: DefaultAttachmentMaxBytes,
		now:           time.Now,
	}
	if cfg != nil {
		if cfg.MediaBucket != "" {
			s.bucket = cfg.MediaBucket
		}
		if ttl := cfg.UploadURLTTL(); ttl > 0 {
			s.uploadTTL = ttl
		}
		if cfg.MediaAvatarMaxBytes > 0 {
			s.avatarMax = cfg.MediaAvatarMaxBytes
		}
		if cfg.MediaAttachmentMaxBytes > 0 {
			s.attachmentMax = cfg.MediaAttachmentMaxBytes
		}
	}
	return s
}

func (s *MediaService) rules(scope models.MediaScope) ([]string, int64, bool) {
	switch scope {
	case models.MediaScopeProfileAvatar:
		return imageMimeTypes, s.avatarMax, true
	case models.MediaScopePostAttachment, models.MediaScopeGeneric:
		return attachmentMimeTypes, s.attachmentMax, true
	default:
		return nil, 0, false
	}
}

func (s *MediaService) validateUpload(in BeginUploadInput) error {
	var problems []string
	allowed, ceiling, ok := s.rules(in.Scope)
	if !ok {
		problems = append(problems, fmt.Sprintf("scope %q is not supported", in.Scope))
	} else if !slices.Contains(allowed, normalizeMime(in.MimeType)) {
		problems = append(problems, fmt.Sprintf("mime_type %q is not allowed for %s", in.MimeType, in.Scope))
	}
	switch {
	case in.SizeBytes <= 0:
		problems = append(problems, "size_bytes must be positive")
	case ok && in.SizeBytes > ceiling:
		problems = append(problems, fmt.Sprintf("size_bytes exceeds the %d byte limit", ceiling))
	}
	if len(problems) > 0 {
		return models.NewValidationError(strings.Join(problems, "; "))
	}
	return nil
}

// BeginUpload records a PENDING asset and returns a presigned PUT URL for it.
func (s *MediaService) BeginUpload(ctx context.Context, in BeginUploadInput) (*UploadTicket, error) {
	if in.UserID == 0 {
		return nil, models.NewUnauthenticatedError("authentication required")
	}
	if err := s.validateUpload(in); err != nil {
		return nil, err
	}

	id := uuid.New()
	filename := SanitizeFilename(in.Filename)
	now := s.now()
	asset := &models.MediaAsset{
		ID:               id,
		UserID:           in.UserID,
		ProfileID:        in.ProfileID,
		StorageKey:       fmt.Sprintf("media/%d/%s/%s", in.UserID, id, filename),
		Bucket:           s.bucket,
		MimeType:         normalizeMime(in.MimeType),
		Scope:            in.Scope,
		DeclaredSize:     in.SizeBytes,
		OriginalFilename: truncate(in.Filename, 255),
		Status:           models.MediaStatusPending,
		UploadExpiresAt:  now.Add(s.uploadTTL),
	}
	// Presign first so an unreachable store leaves no PENDING row behind.
	uploadURL, err := s.store.PresignPut(ctx, asset.StorageKey, s.uploadTTL)
	if err != nil {
		return nil, models.NewUnavailableError("object store unavailable", err)
	}
	if err := s.repo.Create(ctx, asset); err != nil {
		return nil, appError(err)
	}

	observability.MediaUploads.WithLabelValues(string(in.Scope), "begun").Inc()
	middleware.Logger.InfoContext(ctx, "upload begun",
		slog.String("asset_id", id.String()),
		slog.String("scope", string(in.Scope)),
		slog.Int64("declared_size", in.SizeBytes),
	)

	return &UploadTicket{
		AssetID:   id,
		Key:       asset.StorageKey,
		UploadURL: uploadURL,
		ExpiresAt: asset.UploadExpiresAt,
		Status:    asset.Status,
	}, nil
}

// ConfirmUpload checks the object store for the asset's object and marks it READY.
// Confirming a READY asset is a no-op.
func (s *MediaService) ConfirmUpload(ctx context.Context, userID uint, assetID uuid.UUID) (*models.MediaAssetView, error) {
	span, ctx := observability.NewSpan(ctx, "media.confirm_upload",
		attribute.String("asset.id", assetID.String()),
	)
	defer span.End()

	asset, err := s.ownedAsset(ctx, userID, assetID)
	if err != nil {
		return nil, err
	}
	if asset.IsReady() {
		return s.view(asset), nil
	}

	size, found, err := s.store.Head(ctx, asset.StorageKey)
	if err != nil {
		span.SetError(err)
		return nil, models.NewUnavailableError("object store unavailable", err)
	}
	if !found {
		observability.MediaUploads.WithLabelValues(string(asset.Scope), "not_uploaded").Inc()
		return nil, models.NewConflictError("upload has not completed yet")
	}

	updated, err := s.repo.MarkReady(ctx, asset.ID, size, s.now())
	if err != nil {
		span.SetError(err)
		return nil, appError(err)
	}

	asset, err = s.repo.GetByID(ctx, asset.ID)
	if err != nil {
		return nil, notFoundOr(err, "media asset", assetID)
	}
	if updated {
		observability.MediaUploads.WithLabelValues(string(asset.Scope), "confirmed").Inc()
		events.Emit(ctx, s.publisher, events.SubjectMediaReady, events.MediaReady{
			AssetID:   asset.ID,
			UserID:    asset.UserID,
			Scope:     string(asset.Scope),
			SizeBytes: size,
			Timestamp: s.now(),
		})
	}
	return s.view(asset), nil
}

// GetAsset returns the caller's own asset.
func (s *MediaService) GetAsset(ctx context.Context, userID uint, assetID uuid.UUID) (*models.MediaAssetView, error) {
	asset, err := s.ownedAsset(ctx, userID, assetID)
	if err != nil {
		return nil, err
	}
	return s.view(asset), nil
}

// ValidateForPost resolves assetIDs for attachment by activeProfileID. Every
// offending id is reported, not just the first.
func (s *MediaService) ValidateForPost(ctx context.Context, assetIDs []uuid.UUID, activeProfileID uint) ([]*models.MediaAsset, error) {
	if len(assetIDs) == 0 {
		return nil, models.NewValidationError("at least one media id is required")
	}
	found, err := s.repo.GetByIDs(ctx, assetIDs)
	if err != nil {
		return nil, appError(err)
	}

	var invalid []models.InvalidID
	assets := make([]*models.MediaAsset, 0, len(assetIDs))
	for _, id := range assetIDs {
		asset, ok := found[id]
		switch {
		case !ok:
			invalid = append(invalid, models.InvalidID{ID: id.String(), Reason: "not_found"})
		case asset.ProfileID == nil || *asset.ProfileID != activeProfileID:
			invalid = append(invalid, models.InvalidID{ID: id.String(), Reason: "not_owned"})
		case !asset.IsReady():
			invalid = append(invalid, models.InvalidID{ID: id.String(), Reason: "not_ready"})
		default:
			assets = append(assets, asset)
		}
	}
	if len(invalid) > 0 {
		return nil, models.NewInvalidIDsError("some media cannot be attached", invalid)
	}
	return assets, nil
}

func (s *MediaService) ownedAsset(ctx context.Context, userID uint, assetID uuid.UUID) (*models.MediaAsset, error) {
	asset, err := s.repo.GetByID(ctx, assetID)
	if err != nil {
		return nil, notFoundOr(err, "media asset", assetID)
	}
	if asset.UserID != userID {
		return nil, models.NewForbiddenError("media asset belongs to another user")
	}
	return asset, nil
}

func (s *MediaService) view(a *models.MediaAsset) *models.MediaAssetView {
	v := &models.MediaAssetView{
		ID:          a.ID,
		Key:         a.StorageKey,
		Scope:       a.Scope,
		MimeType:    a.MimeType,
		Status:      a.Status,
		SizeBytes:   a.SizeBytes,
		CreatedAt:   a.CreatedAt,
		ConfirmedAt: a.ConfirmedAt,
	}
	if a.IsReady() {
		v.URL = s.store.PublicURL(a.StorageKey)
	}
	return v
}

// SanitizeFilename reduces a client-supplied name to a safe object key segment.
func SanitizeFilename(name string) string {
	if i := strings.LastIndexAny(name, `/\`); i >= 0 {
		name = name[i+1:]
	}
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '_', r == '-':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	name = strings.TrimLeft(b.String(), ".")
	if name == "" {
		return "file"
	}
	if len(name) > MaxFilenameBytes {
		ext := path.Ext(name)
		if len(ext) > maxExtensionBytes || len(ext) == len(name) {
			ext = ""
		}
		name = name[:MaxFilenameBytes-len(ext)] + ext
	}
	return name
}

func normalizeMime(m string) string {
	if i := strings.IndexByte(m, ';'); i >= 0 {
		m = m[:i]
	}
	return strings.ToLower(strings.TrimSpace(m))
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
