package domain

import (
	"math/big"
	"regexp"
	"strconv"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// VoteType is one of the three referendum vote buckets.
type VoteType string

const (
	VoteYes     VoteType = "yes"
	VoteNo      VoteType = "no"
	VoteAbstain VoteType = "abstain"
)

// VoteTypes lists the buckets in canonical order.
var VoteTypes = []VoteType{VoteYes, VoteNo, VoteAbstain}

// VoteTotals carries running referendum totals. The contract exposes running
// sums (not deltas) as uint256, so totals are big.Ints end to end and only
// narrowed at a display boundary that is not this system's concern.
type VoteTotals struct {
	Yes     *big.Int
	No      *big.Int
	Abstain *big.Int
}

// EmptyVoteTotals returns an all-zero totals value.
func EmptyVoteTotals() VoteTotals {
	return VoteTotals{Yes: new(big.Int), No: new(big.Int), Abstain: new(big.Int)}
}

// Get returns the bucket for a vote type, nil-safe.
func (v VoteTotals) Get(t VoteType) *big.Int {
	var b *big.Int
	switch t {
	case VoteYes:
		b = v.Yes
	case VoteNo:
		b = v.No
	case VoteAbstain:
		b = v.Abstain
	}
	if b == nil {
		return new(big.Int)
	}
	return b
}

// Proposal is the on-chain view of a governance proposal, reconstructed fresh
// on every collection call. It is never persisted on its own; persistence
// always goes through the merged record.
type Proposal struct {
	ID            uint64
	ChainID       uint64
	Stage         Stage
	Timestamp     time.Time
	ExpiryTime    *time.Time
	Proposer      common.Address
	Deposit       *big.Int
	NumTxs        uint64
	URL           string
	NetworkWeight *big.Int
	Upvotes       *big.Int
	Votes         VoteTotals
}

// repoNumberPattern matches a repository number embedded in a discussion URL,
// e.g. ".../blob/main/CGPs/cgp-0042.md" or ".../cgp-42".
var repoNumberPattern = regexp.MustCompile(`(?i)cgp-0*(\d+)`)

// RepoNumberFromURL extracts the repository-local proposal number embedded in
// a discussion URL. Returns 0, false when the URL carries none.
func RepoNumberFromURL(url string) (uint64, bool) {
	m := repoNumberPattern.FindStringSubmatch(url)
	if m == nil {
		return 0, false
	}
	n, err := strconv.ParseUint(m[1], 10, 64)
	if err != nil || n == 0 {
		return 0, false
	}
	return n, true
}
