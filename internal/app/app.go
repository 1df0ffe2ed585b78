package app

import (
	"context"
	"log/slog"

	"github.com/ethereum/go-ethereum/common"

	"github.com/govsync-org/govsync/internal/adapters/abi"
	"github.com/govsync-org/govsync/internal/adapters/alert"
	"github.com/govsync-org/govsync/internal/adapters/cache"
	"github.com/govsync-org/govsync/internal/adapters/chain"
	"github.com/govsync-org/govsync/internal/adapters/metadata"
	"github.com/govsync-org/govsync/internal/adapters/repository/postgres"
	"github.com/govsync-org/govsync/internal/config"
	"github.com/govsync-org/govsync/internal/domain"
	"github.com/govsync-org/govsync/internal/usecase"
)

// App is the main application container holding all wired use cases.
type App struct {
	Config *config.RuntimeConfig
	Log    *slog.Logger

	Chain *chain.Reader
	Store *postgres.Store

	Collector *usecase.CollectProposals
	Metadata  *usecase.NormalizeMetadata
	Reconcile *usecase.Reconcile
	Upserter  *usecase.UpsertProposals
	Ledger    *usecase.ApprovalLedger
	Listing   *usecase.ListProposals
	Ingester  *usecase.IngestEvents
	Backfill  *usecase.Backfill
	Alerter   usecase.Alerter
}

func NewApp(
	cfg *config.RuntimeConfig,
	log *slog.Logger,
	reader *chain.Reader,
	store *postgres.Store,
	collector *usecase.CollectProposals,
	normalizer *usecase.NormalizeMetadata,
	reconciler *usecase.Reconcile,
	upserter *usecase.UpsertProposals,
	ledger *usecase.ApprovalLedger,
	listing *usecase.ListProposals,
	ingester *usecase.IngestEvents,
	backfill *usecase.Backfill,
	alerter usecase.Alerter,
) *App {
	return &App{
		Config:    cfg,
		Log:       log,
		Chain:     reader,
		Store:     store,
		Collector: collector,
		Metadata:  normalizer,
		Reconcile: reconciler,
		Upserter:  upserter,
		Ledger:    ledger,
		Listing:   listing,
		Ingester:  ingester,
		Backfill:  backfill,
		Alerter:   alerter,
	}
}

// Close releases held connections.
func (a *App) Close() error {
	if a.Store != nil && a.Store.DB != nil {
		if sqlDB, err := a.Store.DB.DB(); err == nil {
			return sqlDB.Close()
		}
	}
	return nil
}

// provideChainReader dials the RPC endpoint and resolves contract addresses.
func provideChainReader(ctx context.Context, cfg *config.RuntimeConfig, log *slog.Logger) (*chain.Reader, error) {
	var multisig common.Address
	if cfg.MultisigAddress != "" {
		multisig = common.HexToAddress(cfg.MultisigAddress)
	}
	return chain.Dial(ctx, cfg.RPCURL, cfg.ChainID,
		common.HexToAddress(cfg.GovernanceAddress),
		multisig,
		common.HexToAddress(cfg.LockedStake),
		log)
}

func provideStore(cfg *config.RuntimeConfig) (*postgres.Store, error) {
	return postgres.Open(cfg.PostgresDSN)
}

func provideMetadataSource(cfg *config.RuntimeConfig, log *slog.Logger) usecase.MetadataSource {
	return metadata.NewGitHubSource(cfg.GitHubOwner, cfg.GitHubRepo, cfg.GitHubBranch, cfg.GitHubDir, cfg.GitHubToken, log)
}

func provideDecoder(log *slog.Logger) usecase.CalldataDecoder {
	return abi.NewDecoder(chain.GovernanceABI, abi.NewOpenchainLookup(), log)
}

func provideCacheInvalidator(cfg *config.RuntimeConfig, log *slog.Logger) usecase.CacheInvalidator {
	if cfg.RedisAddr == "" {
		return cache.NopInvalidator{}
	}
	return cache.NewInvalidator(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, log)
}

func provideAlerter(cfg *config.RuntimeConfig, log *slog.Logger) usecase.Alerter {
	return alert.NewWebhookAlerter(cfg.AlertWebhookURL, log)
}

func provideChainPorts(reader *chain.Reader) usecase.ChainReader {
	return reader
}

func provideProposalRepo(store *postgres.Store) usecase.ProposalRepository { return store.Proposals() }
func provideVoteRepo(store *postgres.Store) usecase.VoteRepository         { return store.Votes() }
func provideApprovalRepo(store *postgres.Store) usecase.ApprovalRepository { return store.Approvals() }
func provideEventRepo(store *postgres.Store) usecase.EventRepository       { return store.Events() }

func provideIngester(
	reader *chain.Reader,
	normalizer *usecase.NormalizeMetadata,
	upserter *usecase.UpsertProposals,
	ledger *usecase.ApprovalLedger,
	invalidator usecase.CacheInvalidator,
	log *slog.Logger,
) *usecase.IngestEvents {
	return usecase.NewIngestEvents(
		reader.GovernanceAddress(),
		reader.MultisigAddress(),
		reader.ChainID(),
		normalizer, upserter, ledger, invalidator, log)
}

func provideRegime(cfg *config.RuntimeConfig) domain.BlockTimeRegime {
	return domain.BlockTimeRegime{
		SwitchBlock:  cfg.BlockTimeSwitch,
		PreInterval:  cfg.BlockTimePre,
		PostInterval: cfg.BlockTimePost,
	}
}
