package chain

import (
	"strings"

	ethabi "github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

// Multicall3 is deployed at the same address on every supported chain.
var Multicall3Address = common.HexToAddress("0xcA11bde05977b3631167028862bE2a173976CA11")

const multicall3ABIJSON = `[
  {"type":"function","name":"aggregate3","stateMutability":"payable",
   "inputs":[{"name":"calls","type":"tuple[]","components":[
     {"name":"target","type":"address"},
     {"name":"allowFailure","type":"bool"},
     {"name":"callData","type":"bytes"}]}],
   "outputs":[{"name":"returnData","type":"tuple[]","components":[
     {"name":"success","type":"bool"},
     {"name":"returnData","type":"bytes"}]}]}
]`

// governanceABIJSON covers only the read surface this system needs.
const governanceABIJSON = `[
  {"type":"function","name":"getQueue","stateMutability":"view","inputs":[],
   "outputs":[{"name":"ids","type":"uint256[]"},{"name":"upvotes","type":"uint256[]"}]},
  {"type":"function","name":"getDequeue","stateMutability":"view","inputs":[],
   "outputs":[{"name":"ids","type":"uint256[]"}]},
  {"type":"function","name":"getProposal","stateMutability":"view",
   "inputs":[{"name":"proposalId","type":"uint256"}],
   "outputs":[
     {"name":"proposer","type":"address"},
     {"name":"deposit","type":"uint256"},
     {"name":"timestamp","type":"uint256"},
     {"name":"numTransactions","type":"uint256"},
     {"name":"url","type":"string"},
     {"name":"networkWeight","type":"uint256"}]},
  {"type":"function","name":"getProposalStage","stateMutability":"view",
   "inputs":[{"name":"proposalId","type":"uint256"}],
   "outputs":[{"name":"stage","type":"uint8"}]},
  {"type":"function","name":"getVoteTotals","stateMutability":"view",
   "inputs":[{"name":"proposalId","type":"uint256"}],
   "outputs":[
     {"name":"yes","type":"uint256"},
     {"name":"no","type":"uint256"},
     {"name":"abstain","type":"uint256"}]},
  {"type":"function","name":"approver","stateMutability":"view","inputs":[],
   "outputs":[{"name":"","type":"address"}]},
  {"type":"function","name":"approve","stateMutability":"nonpayable",
   "inputs":[{"name":"proposalId","type":"uint256"},{"name":"index","type":"uint256"}],
   "outputs":[{"name":"","type":"bool"}]}
]`

const multisigABIJSON = `[
  {"type":"function","name":"transactions","stateMutability":"view",
   "inputs":[{"name":"transactionId","type":"uint256"}],
   "outputs":[
     {"name":"destination","type":"address"},
     {"name":"value","type":"uint256"},
     {"name":"data","type":"bytes"},
     {"name":"executed","type":"bool"}]},
  {"type":"function","name":"transactionCount","stateMutability":"view","inputs":[],
   "outputs":[{"name":"","type":"uint256"}]}
]`

const lockedStakeABIJSON = `[
  {"type":"function","name":"getTotalLocked","stateMutability":"view","inputs":[],
   "outputs":[{"name":"","type":"uint256"}]}
]`

var (
	multicall3ABI  = mustParseABI(multicall3ABIJSON)
	GovernanceABI  = mustParseABI(governanceABIJSON)
	MultisigABI    = mustParseABI(multisigABIJSON)
	lockedStakeABI = mustParseABI(lockedStakeABIJSON)
)

func mustParseABI(raw string) *ethabi.ABI {
	parsed, err := ethabi.JSON(strings.NewReader(raw))
	if err != nil {
		panic(err)
	}
	return &parsed
}
