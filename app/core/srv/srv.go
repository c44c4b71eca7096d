package srv

import (
	"context"

	"github.com/KB-iGOT/kb-support-agent-service-sub000/pkg/ai"
	"github.com/KB-iGOT/kb-support-agent-service-sub000/pkg/igot"
	"github.com/KB-iGOT/kb-support-agent-service-sub000/pkg/types"
)

// PlatformClient is the slice of the iGOT API surface the logic layer
// uses. *igot.Client is the production implementation.
type PlatformClient interface {
	FetchUserDetails(ctx context.Context, userID string) (*types.CacheEntry, error)
	UpdateProfile(ctx context.Context, userID string, fields map[string]any) error
	GenerateOTP(ctx context.Context, mode, destination string) error
	VerifyOTP(ctx context.Context, mode, destination, code string) (bool, error)
	IssueCertificate(ctx context.Context, userID, courseID, batchID string) error
	CreateTicket(ctx context.Context, userID, subject, description string) (string, error)
}

var _ PlatformClient = (*igot.Client)(nil)

// Srv bundles the external collaborators the logic layer calls out to.
type Srv struct {
	ai   ai.Driver
	igot PlatformClient
}

func Setup(aiDriver ai.Driver, igotClient PlatformClient) *Srv {
	return &Srv{
		ai:   aiDriver,
		igot: igotClient,
	}
}

func (s *Srv) AI() ai.Driver {
	return s.ai
}

func (s *Srv) Igot() PlatformClient {
	return s.igot
}
