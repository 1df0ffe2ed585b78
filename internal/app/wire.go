//go:build wireinject
// +build wireinject

package app

import (
	"context"

	"github.com/google/wire"

	"github.com/govsync-org/govsync/internal/config"
	"github.com/govsync-org/govsync/internal/logging"
	"github.com/govsync-org/govsync/internal/usecase"
)

// InitApp creates a fully wired App instance.
func InitApp(ctx context.Context, cfg *config.RuntimeConfig) (*App, error) {
	wire.Build(
		logging.NewLogger,

		// Adapters
		provideChainReader,
		provideStore,
		provideMetadataSource,
		provideDecoder,
		provideCacheInvalidator,
		provideAlerter,
		provideRegime,
		provideProposalRepo,
		provideVoteRepo,
		provideApprovalRepo,
		provideEventRepo,
		provideChainPorts,

		// Use cases
		usecase.NewCollectProposals,
		usecase.NewNormalizeMetadata,
		usecase.NewReconcile,
		usecase.NewUpsertProposals,
		usecase.NewApprovalLedger,
		usecase.NewListProposals,
		provideIngester,
		usecase.NewBackfill,

		NewApp,
	)
	return nil, nil
}
