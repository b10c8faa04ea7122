package roles

import (
	"context"

	"github.com/revlinehq/revline-api/pkg/logger"
)

// Service fetches the full role set for an identity. Errors never escape this
// boundary: a failed fetch degrades to an empty role set (zero privileges).
type Service struct {
	repo Repository
}

func NewService(r Repository) *Service { return &Service{repo: r} }

// Load returns the role labels assigned to userID. On error it logs and
// returns an empty set.
func (s *Service) Load(ctx context.Context, userID string) []string {
	rows, err := s.repo.ListByUserID(ctx, userID)
	if err != nil {
		logger.Errorf("roles: fetch for %s failed: %v", userID, err)
		return []string{}
	}
	out := make([]string, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.Role)
	}
	return out
}
