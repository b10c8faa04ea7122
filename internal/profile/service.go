package profile

import (
	"context"
	"strings"

	"github.com/revlinehq/revline-api/internal/models"
	"github.com/revlinehq/revline-api/pkg/logger"
)

// DefaultDisplayName is used when no metadata field and no email are usable.
const DefaultDisplayName = "Member"

// MetadataSource re-fetches the identity's free-form metadata, used when no
// profile row exists yet.
type MetadataSource interface {
	IdentityMetadata(ctx context.Context, token string) (map[string]interface{}, error)
}

// Service ensures a display profile exists for an identity and returns it.
// Load never fails outward: the fallback path is best-effort and the session
// proceeds with whatever profile state was achieved.
type Service struct {
	repo Repository
	meta MetadataSource
}

func NewService(repo Repository, meta MetadataSource) *Service {
	return &Service{repo: repo, meta: meta}
}

// Load looks the profile up by identity id and returns it when present. On a
// miss (or a non-fatal lookup error) it derives a display name from identity
// metadata, writes the row, and returns the created profile. May return nil.
func (s *Service) Load(ctx context.Context, identity *models.Identity, token string) *models.Profile {
	if identity == nil || identity.ID == "" {
		return nil
	}
	existing, err := s.repo.GetByUserID(ctx, identity.ID)
	if err != nil {
		logger.Warnf("profile: lookup for %s failed, attempting create: %v", identity.ID, err)
	}
	if existing != nil {
		return existing
	}

	meta := identity.Metadata
	if s.meta != nil && token != "" {
		claims, err := s.meta.IdentityMetadata(ctx, token)
		if err != nil {
			logger.Warnf("profile: metadata re-fetch for %s failed: %v", identity.ID, err)
		} else if claims != nil {
			meta = claims
		}
	}

	created, err := s.repo.Upsert(ctx, &models.Profile{
		UserID:      identity.ID,
		DisplayName: DeriveDisplayName(meta, identity.Email),
	})
	if err != nil {
		logger.Errorf("profile: create for %s failed: %v", identity.ID, err)
		return nil
	}
	return created
}

// DeriveDisplayName picks a display name from metadata fields in priority
// order, then the local part of the email, then a fixed placeholder.
func DeriveDisplayName(meta map[string]interface{}, email string) string {
	for _, field := range []string{"display_name", "full_name", "name"} {
		if v, ok := meta[field].(string); ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	if v, ok := meta["email"].(string); ok && v != "" {
		email = v
	}
	if email != "" {
		if at := strings.Index(email, "@"); at > 0 {
			return email[:at]
		}
		return email
	}
	return DefaultDisplayName
}
