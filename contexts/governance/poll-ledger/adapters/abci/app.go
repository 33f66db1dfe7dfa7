// Package abciadapter runs the ledger as a CometBFT application. Block
// transactions carry a signer and a tagged instruction; the block time is the
// ledger's notion of now.
package abciadapter

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	application "pollchain/contexts/governance/poll-ledger/application"
	"pollchain/contexts/governance/poll-ledger/application/dispatch"
	"pollchain/contexts/governance/poll-ledger/application/queries"
	"pollchain/contexts/governance/poll-ledger/domain/entities"
	domainerrors "pollchain/contexts/governance/poll-ledger/domain/errors"
	httptransport "pollchain/contexts/governance/poll-ledger/transport/http"

	abcitypes "github.com/cometbft/cometbft/abci/types"
	"github.com/ethereum/go-ethereum/crypto"
)

const (
	appVersion = 1
	codespace  = "pollledger"
)

// Tx is the wire form of one block transaction. Signer is the principal the
// execution environment authenticated.
type Tx struct {
	Signer      string               `json:"signer"`
	Instruction dispatch.Instruction `json:"instruction"`
}

func EncodeTx(tx Tx) ([]byte, error) {
	if _, err := dispatch.Encode(tx.Instruction); err != nil {
		return nil, err
	}
	return json.Marshal(tx)
}

func DecodeTx(raw []byte) (Tx, error) {
	var tx Tx
	if err := json.Unmarshal(raw, &tx); err != nil {
		return Tx{}, fmt.Errorf("%w: %v", domainerrors.ErrInvalidInstruction, err)
	}
	if err := tx.Instruction.Validate(); err != nil {
		return Tx{}, err
	}
	if tx.Instruction.Op.Mutating() && strings.TrimSpace(tx.Signer) == "" {
		return Tx{}, domainerrors.ErrInvalidPrincipal
	}
	return tx, nil
}

// App is the CometBFT application. State lives in the dispatcher's record
// store; App tracks only the height and app hash chain.
type App struct {
	abcitypes.BaseApplication

	Dispatcher dispatch.Dispatcher
	Tally      queries.TallyUseCase
	Logger     *slog.Logger

	mu            sync.Mutex
	height        int64
	appHash       []byte
	blockTime     int64
	pendingHeight int64
	pendingHash   []byte
	pendingTime   int64
}

var _ abcitypes.Application = (*App)(nil)

func (a *App) Info(_ context.Context, _ *abcitypes.RequestInfo) (*abcitypes.ResponseInfo, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return &abcitypes.ResponseInfo{
		Data:             "pollchain",
		Version:          strconv.Itoa(appVersion),
		AppVersion:       appVersion,
		LastBlockHeight:  a.height,
		LastBlockAppHash: a.appHash,
	}, nil
}

// CheckTx admits transactions with a well-formed instruction. Business rules
// run only at FinalizeBlock, against block time.
func (a *App) CheckTx(_ context.Context, req *abcitypes.RequestCheckTx) (*abcitypes.ResponseCheckTx, error) {
	if _, err := DecodeTx(req.Tx); err != nil {
		return &abcitypes.ResponseCheckTx{
			Code:      domainerrors.ABCICode(err),
			Codespace: codespace,
			Log:       err.Error(),
		}, nil
	}
	return &abcitypes.ResponseCheckTx{Code: abcitypes.CodeTypeOK}, nil
}

func (a *App) FinalizeBlock(ctx context.Context, req *abcitypes.RequestFinalizeBlock) (*abcitypes.ResponseFinalizeBlock, error) {
	logger := application.ResolveLogger(a.Logger)
	a.mu.Lock()
	defer a.mu.Unlock()

	now := req.Time.UTC()
	hash := a.appHash
	results := make([]*abcitypes.ExecTxResult, 0, len(req.Txs))
	var accepted int
	for _, raw := range req.Txs {
		result := a.execute(ctx, raw, now)
		if result.Code == abcitypes.CodeTypeOK {
			accepted++
		}
		results = append(results, result)
		hash = chainHash(hash, raw, result.Code)
	}
	if len(req.Txs) == 0 {
		hash = chainHash(hash, nil, abcitypes.CodeTypeOK)
	}
	a.pendingHeight = req.Height
	a.pendingHash = hash
	a.pendingTime = now.Unix()

	logger.Info("block finalized",
		"event", "ledger_block_finalized",
		"module", application.ModuleName,
		"layer", "adapter",
		"height", req.Height,
		"txs", len(req.Txs),
		"accepted", accepted,
		"app_hash", fmt.Sprintf("%X", hash),
	)
	return &abcitypes.ResponseFinalizeBlock{
		TxResults: results,
		AppHash:   hash,
	}, nil
}

func (a *App) Commit(_ context.Context, _ *abcitypes.RequestCommit) (*abcitypes.ResponseCommit, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.height = a.pendingHeight
	a.appHash = a.pendingHash
	a.blockTime = a.pendingTime
	return &abcitypes.ResponseCommit{}, nil
}

// Query serves read paths:
//
//	/poll/{poll_id}
//	/candidate/{poll_id}/{name}
//	/tally/{poll_id}
//	/receipt/{poll_id}/{principal}
func (a *App) Query(ctx context.Context, req *abcitypes.RequestQuery) (*abcitypes.ResponseQuery, error) {
	a.mu.Lock()
	height := a.height
	blockTime := a.blockTime
	a.mu.Unlock()

	value, err := a.query(ctx, req.Path, blockTime)
	if err != nil {
		return &abcitypes.ResponseQuery{
			Code:      domainerrors.ABCICode(err),
			Codespace: codespace,
			Log:       err.Error(),
			Height:    height,
		}, nil
	}
	return &abcitypes.ResponseQuery{
		Code:   abcitypes.CodeTypeOK,
		Key:    []byte(req.Path),
		Value:  value,
		Height: height,
	}, nil
}

func (a *App) execute(ctx context.Context, raw []byte, now time.Time) *abcitypes.ExecTxResult {
	tx, err := DecodeTx(raw)
	if err != nil {
		return failedResult(err)
	}
	result, err := a.Dispatcher.Execute(ctx, dispatch.Invocation{
		Principal:   strings.TrimSpace(tx.Signer),
		Now:         now,
		Instruction: tx.Instruction,
	})
	if err != nil {
		return failedResult(err)
	}
	data, err := json.Marshal(httptransport.FromResult(result, now.Unix()))
	if err != nil {
		return failedResult(err)
	}
	return &abcitypes.ExecTxResult{
		Code: abcitypes.CodeTypeOK,
		Data: data,
		Events: []abcitypes.Event{{
			Type: "ledger",
			Attributes: []abcitypes.EventAttribute{
				{Key: "op", Value: string(tx.Instruction.Op), Index: true},
				{Key: "signer", Value: tx.Signer, Index: true},
			},
		}},
	}
}

func failedResult(err error) *abcitypes.ExecTxResult {
	return &abcitypes.ExecTxResult{
		Code:      domainerrors.ABCICode(err),
		Codespace: codespace,
		Log:       err.Error(),
	}
}

func (a *App) query(ctx context.Context, path string, blockTime int64) ([]byte, error) {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	if len(parts) < 2 {
		return nil, fmt.Errorf("%w: unknown query path %q", domainerrors.ErrInvalidInstruction, path)
	}
	pollID, err := strconv.ParseUint(parts[1], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: poll id %q", domainerrors.ErrInvalidInstruction, parts[1])
	}

	var value any
	switch {
	case parts[0] == "poll" && len(parts) == 2:
		var poll entities.Poll
		poll, err = a.Tally.GetPoll(ctx, pollID)
		value = httptransport.FromPoll(poll, blockTime)
	case parts[0] == "tally" && len(parts) == 2:
		var tally entities.Tally
		tally, err = a.Tally.CountPollVotes(ctx, pollID)
		value = httptransport.FromTally(tally)
	case parts[0] == "candidate" && len(parts) == 3:
		var candidate entities.Candidate
		candidate, err = a.Tally.GetCandidate(ctx, pollID, parts[2])
		value = httptransport.FromCandidate(candidate)
	case parts[0] == "receipt" && len(parts) == 3:
		var voted bool
		voted, err = a.Tally.HasVoted(ctx, pollID, parts[2])
		value = httptransport.VoterStatusResponse{PollID: pollID, Voter: parts[2], Voted: voted}
	default:
		return nil, fmt.Errorf("%w: unknown query path %q", domainerrors.ErrInvalidInstruction, path)
	}
	if err != nil {
		return nil, err
	}
	return json.Marshal(value)
}

// chainHash folds one transaction and its result code into the running app
// hash.
func chainHash(prev []byte, tx []byte, code uint32) []byte {
	var codeBytes [4]byte
	binary.BigEndian.PutUint32(codeBytes[:], code)
	return crypto.Keccak256(prev, crypto.Keccak256(tx), codeBytes[:])
}
