package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// RuntimeConfig is the complete resolved runtime configuration. It is built
// once per invocation and injected into use cases.
type RuntimeConfig struct {
	// Chain settings
	RPCURL            string
	ChainID           uint64
	GovernanceAddress string
	MultisigAddress   string
	LockedStake       string

	// Block-time regime for backfill window sizing
	BlockTimeSwitch uint64
	BlockTimePre    time.Duration
	BlockTimePost   time.Duration

	// Storage
	PostgresDSN   string
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// Metadata repository
	GitHubOwner  string
	GitHubRepo   string
	GitHubBranch string
	GitHubDir    string
	GitHubToken  string

	// Webhook ingestion
	ListenAddr    string
	WebhookSecret string

	// Operational
	AlertWebhookURL string
	CallTimeout     time.Duration

	Debug bool
	JSON  bool
}

// Defaults mirror Celo mainnet governance.
const (
	defaultChainID     = 42220
	defaultListenAddr  = ":8080"
	defaultCallTimeout = 15 * time.Second

	defaultGovernance  = "0xD533Ca259b330c7A88f74E000a3FaEa2d63B7972"
	defaultLockedStake = "0x6cC083Aed9e3ebe302A6336dBC7c921C9f03349E"

	defaultGitHubOwner  = "celo-org"
	defaultGitHubRepo   = "governance"
	defaultGitHubBranch = "main"
	defaultGitHubDir    = "CGPs"

	// The L2 hardfork block, where block production sped up.
	defaultBlockTimeSwitch = 31056500
	defaultBlockTimePre    = 5 * time.Second
	defaultBlockTimePost   = time.Second
)

// Load resolves configuration from environment variables and an optional
// .env file, with GOVSYNC_ as the prefix (GOVSYNC_RPC_URL and so on).
func Load() (*RuntimeConfig, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("GOVSYNC")
	v.AutomaticEnv()

	v.SetDefault("chain_id", defaultChainID)
	v.SetDefault("listen_addr", defaultListenAddr)
	v.SetDefault("call_timeout", defaultCallTimeout)
	v.SetDefault("governance_address", defaultGovernance)
	v.SetDefault("locked_stake_address", defaultLockedStake)
	v.SetDefault("github_owner", defaultGitHubOwner)
	v.SetDefault("github_repo", defaultGitHubRepo)
	v.SetDefault("github_branch", defaultGitHubBranch)
	v.SetDefault("github_dir", defaultGitHubDir)
	v.SetDefault("blocktime_switch", defaultBlockTimeSwitch)
	v.SetDefault("blocktime_pre", defaultBlockTimePre)
	v.SetDefault("blocktime_post", defaultBlockTimePost)
	v.SetDefault("redis_db", 0)

	cfg := &RuntimeConfig{
		RPCURL:            v.GetString("rpc_url"),
		ChainID:           v.GetUint64("chain_id"),
		GovernanceAddress: v.GetString("governance_address"),
		MultisigAddress:   v.GetString("multisig_address"),
		LockedStake:       v.GetString("locked_stake_address"),

		BlockTimeSwitch: v.GetUint64("blocktime_switch"),
		BlockTimePre:    v.GetDuration("blocktime_pre"),
		BlockTimePost:   v.GetDuration("blocktime_post"),

		PostgresDSN:   v.GetString("postgres_dsn"),
		RedisAddr:     v.GetString("redis_addr"),
		RedisPassword: v.GetString("redis_password"),
		RedisDB:       v.GetInt("redis_db"),

		GitHubOwner:  v.GetString("github_owner"),
		GitHubRepo:   v.GetString("github_repo"),
		GitHubBranch: v.GetString("github_branch"),
		GitHubDir:    v.GetString("github_dir"),
		GitHubToken:  v.GetString("github_token"),

		ListenAddr:    v.GetString("listen_addr"),
		WebhookSecret: v.GetString("webhook_secret"),

		AlertWebhookURL: v.GetString("alert_webhook_url"),
		CallTimeout:     v.GetDuration("call_timeout"),

		Debug: v.GetBool("debug"),
		JSON:  v.GetBool("json"),
	}
	return cfg, cfg.Validate()
}

// Validate checks the settings every command needs. Command-specific needs
// (webhook secret for serve, for instance) are checked at command start.
func (c *RuntimeConfig) Validate() error {
	if c.RPCURL == "" {
		return fmt.Errorf("GOVSYNC_RPC_URL is required")
	}
	if c.PostgresDSN == "" {
		return fmt.Errorf("GOVSYNC_POSTGRES_DSN is required")
	}
	if c.GovernanceAddress == "" {
		return fmt.Errorf("GOVSYNC_GOVERNANCE_ADDRESS is required")
	}
	return nil
}
