package chain

import (
	"context"
	"fmt"
	"log/slog"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/govsync-org/govsync/internal/domain"
	"github.com/govsync-org/govsync/internal/usecase"
)

const callTimeout = 15 * time.Second

// multicallChunk bounds one aggregate3 payload; RPC providers start
// truncating responses well above this.
const multicallChunk = 200

// Reader implements usecase.ChainReader over ethclient, batching per-id reads
// through Multicall3.
type Reader struct {
	client      *ethclient.Client
	chainID     uint64
	governance  common.Address
	multisig    common.Address
	lockedStake common.Address
	log         *slog.Logger
}

// Dial connects and verifies the chain id matches the configured one.
func Dial(ctx context.Context, rpcURL string, chainID uint64, governance, multisig, lockedStake common.Address, log *slog.Logger) (*Reader, error) {
	client, err := ethclient.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, fmt.Errorf("connect to RPC: %w", err)
	}
	networkID, err := client.ChainID(ctx)
	if err != nil {
		return nil, fmt.Errorf("read chain id: %w", err)
	}
	if chainID != 0 && networkID.Uint64() != chainID {
		return nil, fmt.Errorf("chain id mismatch: expected %d, got %d", chainID, networkID.Uint64())
	}
	r := &Reader{
		client:      client,
		chainID:     networkID.Uint64(),
		governance:  governance,
		multisig:    multisig,
		lockedStake: lockedStake,
		log:         log.With("component", "ChainReader"),
	}
	if multisig == (common.Address{}) {
		resolved, err := r.ApproverAddress(ctx)
		if err != nil {
			return nil, fmt.Errorf("resolve approver multisig: %w", err)
		}
		r.multisig = resolved
		r.log.Debug("resolved approver multisig", "address", resolved.Hex())
	}
	return r, nil
}

func (r *Reader) ChainID() uint64 { return r.chainID }

// GovernanceAddress and MultisigAddress expose the resolved contract
// addresses for components that dispatch by emitting contract.
func (r *Reader) GovernanceAddress() common.Address { return r.governance }
func (r *Reader) MultisigAddress() common.Address   { return r.multisig }

func (r *Reader) LatestBlock(ctx context.Context) (uint64, error) {
	ctx, cancel := context.WithTimeout(ctx, callTimeout)
	defer cancel()
	return r.client.BlockNumber(ctx)
}

func (r *Reader) BlockTime(ctx context.Context, block uint64) (time.Time, error) {
	ctx, cancel := context.WithTimeout(ctx, callTimeout)
	defer cancel()
	header, err := r.client.HeaderByNumber(ctx, new(big.Int).SetUint64(block))
	if err != nil {
		return time.Time{}, fmt.Errorf("read header %d: %w", block, err)
	}
	return time.Unix(int64(header.Time), 0).UTC(), nil
}

// call3 mirrors the Multicall3.Call3 tuple.
type call3 struct {
	Target       common.Address `abi:"target"`
	AllowFailure bool           `abi:"allowFailure"`
	CallData     []byte         `abi:"callData"`
}

// call3Result mirrors the Multicall3.Result tuple.
type call3Result struct {
	Success    bool   `abi:"success"`
	ReturnData []byte `abi:"returnData"`
}

// aggregate runs calls through Multicall3 in chunks, preserving order.
// Individual call failures come back as Success=false, not errors.
func (r *Reader) aggregate(ctx context.Context, calls []call3, block *uint64) ([]call3Result, error) {
	results := make([]call3Result, 0, len(calls))
	for start := 0; start < len(calls); start += multicallChunk {
		end := min(start+multicallChunk, len(calls))
		chunk := calls[start:end]

		payload, err := multicall3ABI.Pack("aggregate3", chunk)
		if err != nil {
			return nil, fmt.Errorf("pack aggregate3: %w", err)
		}
		ret, err := r.ethCall(ctx, Multicall3Address, payload, block)
		if err != nil {
			return nil, fmt.Errorf("aggregate3: %w", err)
		}
		var chunkResults []call3Result
		if err := multicall3ABI.UnpackIntoInterface(&chunkResults, "aggregate3", ret); err != nil {
			return nil, fmt.Errorf("unpack aggregate3: %w", err)
		}
		results = append(results, chunkResults...)
	}
	return results, nil
}

func (r *Reader) ethCall(ctx context.Context, to common.Address, data []byte, block *uint64) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, callTimeout)
	defer cancel()
	var blockNum *big.Int
	if block != nil {
		blockNum = new(big.Int).SetUint64(*block)
	}
	return r.client.CallContract(ctx, ethereum.CallMsg{To: &to, Data: data}, blockNum)
}

func (r *Reader) governanceCall(name string, args ...any) call3 {
	data, err := GovernanceABI.Pack(name, args...)
	if err != nil {
		// Pack only fails on programmer error (bad arg types).
		panic(fmt.Sprintf("pack %s: %v", name, err))
	}
	return call3{Target: r.governance, AllowFailure: true, CallData: data}
}

// QueueContents fetches the queued (id, upvotes) pairs and the dequeued id
// list in a single multicall.
func (r *Reader) QueueContents(ctx context.Context, block *uint64) ([]usecase.QueuedEntry, []uint64, error) {
	results, err := r.aggregate(ctx, []call3{
		r.governanceCall("getQueue"),
		r.governanceCall("getDequeue"),
	}, block)
	if err != nil {
		return nil, nil, err
	}
	if !results[0].Success || !results[1].Success {
		return nil, nil, fmt.Errorf("%w: queue reads reverted", domain.ErrIncompleteRead)
	}

	queueOut, err := GovernanceABI.Unpack("getQueue", results[0].ReturnData)
	if err != nil {
		return nil, nil, fmt.Errorf("unpack getQueue: %w", err)
	}
	ids := queueOut[0].([]*big.Int)
	upvotes := queueOut[1].([]*big.Int)
	queued := make([]usecase.QueuedEntry, 0, len(ids))
	for i, id := range ids {
		entry := usecase.QueuedEntry{ID: id.Uint64()}
		if i < len(upvotes) {
			entry.Upvotes = upvotes[i]
		}
		queued = append(queued, entry)
	}

	dequeueOut, err := GovernanceABI.Unpack("getDequeue", results[1].ReturnData)
	if err != nil {
		return nil, nil, fmt.Errorf("unpack getDequeue: %w", err)
	}
	var dequeued []uint64
	for _, id := range dequeueOut[0].([]*big.Int) {
		dequeued = append(dequeued, id.Uint64())
	}
	return queued, dequeued, nil
}

// ProposalBatch performs the three per-id reads for every id in one
// multicall. Ids whose calls revert are simply absent from the result maps.
func (r *Reader) ProposalBatch(ctx context.Context, ids []uint64, block *uint64) (*usecase.ProposalBatch, error) {
	calls := make([]call3, 0, len(ids)*3)
	for _, id := range ids {
		bigID := new(big.Int).SetUint64(id)
		calls = append(calls,
			r.governanceCall("getProposal", bigID),
			r.governanceCall("getProposalStage", bigID),
			r.governanceCall("getVoteTotals", bigID),
		)
	}
	results, err := r.aggregate(ctx, calls, block)
	if err != nil {
		return nil, err
	}

	batch := &usecase.ProposalBatch{
		Properties: make(map[uint64]*domain.Proposal, len(ids)),
		Stages:     make(map[uint64]domain.Stage, len(ids)),
		Votes:      make(map[uint64]domain.VoteTotals, len(ids)),
	}
	for i, id := range ids {
		props, stage, votes := results[i*3], results[i*3+1], results[i*3+2]
		if props.Success {
			proposal, err := unpackProposal(props.ReturnData)
			if err != nil {
				r.log.Warn("unpack getProposal failed", "id", id, "err", err)
			} else {
				batch.Properties[id] = proposal
			}
		}
		if stage.Success {
			out, err := GovernanceABI.Unpack("getProposalStage", stage.ReturnData)
			if err != nil {
				r.log.Warn("unpack getProposalStage failed", "id", id, "err", err)
			} else {
				batch.Stages[id] = domain.Stage(out[0].(uint8))
			}
		}
		if votes.Success {
			totals, err := unpackVoteTotals(votes.ReturnData)
			if err != nil {
				r.log.Warn("unpack getVoteTotals failed", "id", id, "err", err)
			} else {
				batch.Votes[id] = totals
			}
		}
	}
	return batch, nil
}

func (r *Reader) ProposalAt(ctx context.Context, id uint64, block *uint64) (*domain.Proposal, error) {
	data, err := GovernanceABI.Pack("getProposal", new(big.Int).SetUint64(id))
	if err != nil {
		return nil, err
	}
	ret, err := r.ethCall(ctx, r.governance, data, block)
	if err != nil {
		return nil, fmt.Errorf("getProposal(%d): %w", id, err)
	}
	proposal, err := unpackProposal(ret)
	if err != nil {
		return nil, err
	}
	proposal.ID = id
	proposal.ChainID = r.chainID
	return proposal, nil
}

func (r *Reader) StageOf(ctx context.Context, id uint64) (domain.Stage, error) {
	data, err := GovernanceABI.Pack("getProposalStage", new(big.Int).SetUint64(id))
	if err != nil {
		return domain.StageNone, err
	}
	ret, err := r.ethCall(ctx, r.governance, data, nil)
	if err != nil {
		return domain.StageNone, fmt.Errorf("getProposalStage(%d): %w", id, err)
	}
	out, err := GovernanceABI.Unpack("getProposalStage", ret)
	if err != nil {
		return domain.StageNone, err
	}
	return domain.Stage(out[0].(uint8)), nil
}

func (r *Reader) TotalLockedStake(ctx context.Context, block *uint64) (*big.Int, error) {
	data, err := lockedStakeABI.Pack("getTotalLocked")
	if err != nil {
		return nil, err
	}
	ret, err := r.ethCall(ctx, r.lockedStake, data, block)
	if err != nil {
		return nil, fmt.Errorf("getTotalLocked: %w", err)
	}
	out, err := lockedStakeABI.Unpack("getTotalLocked", ret)
	if err != nil {
		return nil, err
	}
	return out[0].(*big.Int), nil
}

func (r *Reader) ApproverAddress(ctx context.Context) (common.Address, error) {
	data, err := GovernanceABI.Pack("approver")
	if err != nil {
		return common.Address{}, err
	}
	ret, err := r.ethCall(ctx, r.governance, data, nil)
	if err != nil {
		return common.Address{}, fmt.Errorf("approver: %w", err)
	}
	out, err := GovernanceABI.Unpack("approver", ret)
	if err != nil {
		return common.Address{}, err
	}
	return out[0].(common.Address), nil
}

func (r *Reader) MultisigTransaction(ctx context.Context, txID uint64) (*usecase.MultisigTx, error) {
	data, err := MultisigABI.Pack("transactions", new(big.Int).SetUint64(txID))
	if err != nil {
		return nil, err
	}
	ret, err := r.ethCall(ctx, r.multisig, data, nil)
	if err != nil {
		return nil, fmt.Errorf("transactions(%d): %w", txID, err)
	}
	out, err := MultisigABI.Unpack("transactions", ret)
	if err != nil {
		return nil, err
	}
	return &usecase.MultisigTx{
		Destination: out[0].(common.Address),
		Value:       out[1].(*big.Int),
		Data:        out[2].([]byte),
		Executed:    out[3].(bool),
	}, nil
}

func unpackProposal(data []byte) (*domain.Proposal, error) {
	out, err := GovernanceABI.Unpack("getProposal", data)
	if err != nil {
		return nil, fmt.Errorf("unpack getProposal: %w", err)
	}
	proposal := &domain.Proposal{
		Proposer:      out[0].(common.Address),
		Deposit:       out[1].(*big.Int),
		NumTxs:        out[3].(*big.Int).Uint64(),
		URL:           out[4].(string),
		NetworkWeight: out[5].(*big.Int),
	}
	if ts := out[2].(*big.Int); ts.Sign() > 0 {
		proposal.Timestamp = time.Unix(ts.Int64(), 0).UTC()
	}
	return proposal, nil
}

func unpackVoteTotals(data []byte) (domain.VoteTotals, error) {
	out, err := GovernanceABI.Unpack("getVoteTotals", data)
	if err != nil {
		return domain.VoteTotals{}, fmt.Errorf("unpack getVoteTotals: %w", err)
	}
	return domain.VoteTotals{
		Yes:     out[0].(*big.Int),
		No:      out[1].(*big.Int),
		Abstain: out[2].(*big.Int),
	}, nil
}
