// Package chain contains the go-ethereum backed implementations of the
// content and licence registries.
package chain // import "github.com/w3licence/licence-gateway/pkg/chain"

import (
	"context"
	"math/big"
	"sync"

	log "github.com/golang/glog"
	"github.com/pkg/errors"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/w3licence/licence-gateway/pkg/model"
)

// Backend is the node API needed by the registries
type Backend interface {
	bind.ContractBackend
	bind.DeployBackend
	BlockNumber(ctx context.Context) (uint64, error)
	ChainID(ctx context.Context) (*big.Int, error)
}

type accountState struct {
	mu     sync.Mutex
	nonce  uint64
	synced bool
}

// NewTransactor returns a Transactor for the given backend and signers
func NewTransactor(backend Backend, signers SignerProvider, chainID *big.Int) *Transactor {
	return &Transactor{
		backend:  backend,
		signers:  signers,
		chainID:  chainID,
		accounts: map[common.Address]*accountState{},
	}
}

// Transactor sends registry writes. Writes from the same signing account are
// serialised and get consecutive nonces; different accounts proceed in parallel.
type Transactor struct {
	backend Backend
	signers SignerProvider
	chainID *big.Int

	mu       sync.Mutex
	accounts map[common.Address]*accountState
}

// SendFn builds and sends a transaction with the given opts
type SendFn func(opts *bind.TransactOpts) (*types.Transaction, error)

// Send signs and broadcasts a write on behalf of from
func (t *Transactor) Send(ctx context.Context, from common.Address, value *big.Int,
	method string, send SendFn) (model.PendingTx, error) {
	opts, err := t.signers.TransactOpts(from, t.chainID)
	if err != nil {
		return nil, err
	}
	state := t.account(opts.From)
	state.mu.Lock()
	defer state.mu.Unlock()

	if !state.synced {
		nonce, err := t.backend.PendingNonceAt(ctx, opts.From)
		if err != nil {
			return nil, errors.Wrapf(err, "error retrieving nonce for %v", opts.From.Hex())
		}
		state.nonce = nonce
		state.synced = true
	}

	opts.Context = ctx
	opts.Nonce = new(big.Int).SetUint64(state.nonce)
	if value != nil {
		opts.Value = new(big.Int).Set(value)
	}

	tx, err := send(opts)
	if err != nil {
		// Resync on the next write in case the node saw a nonce we did not
		state.synced = false
		return nil, wrapSendError(err, method)
	}
	state.nonce++
	log.Infof("Sent %v from %v: tx: %v, nonce: %v", method, opts.From.Hex(), tx.Hash().Hex(), tx.Nonce())
	return &pendingTx{tx: tx, method: method, transactor: t}, nil
}

func (t *Transactor) account(address common.Address) *accountState {
	t.mu.Lock()
	defer t.mu.Unlock()
	state, ok := t.accounts[address]
	if !ok {
		state = &accountState{}
		t.accounts[address] = state
	}
	return state
}

// replayReason re-executes a failed transaction at its block to recover the
// revert reason
func (t *Transactor) replayReason(ctx context.Context, tx *types.Transaction, blockNumber *big.Int) string {
	from, err := types.Sender(types.LatestSignerForChainID(tx.ChainId()), tx)
	if err != nil {
		return ""
	}
	msg := ethereum.CallMsg{
		From:  from,
		To:    tx.To(),
		Gas:   tx.Gas(),
		Value: tx.Value(),
		Data:  tx.Data(),
	}
	_, err = t.backend.CallContract(ctx, msg, blockNumber)
	reason, _ := RevertReasonFromError(err)
	return reason
}

type pendingTx struct {
	tx         *types.Transaction
	method     string
	transactor *Transactor
}

func (p *pendingTx) Hash() common.Hash {
	return p.tx.Hash()
}

func (p *pendingTx) Wait(ctx context.Context) error {
	receipt, err := bind.WaitMined(ctx, p.transactor.backend, p.tx)
	if err != nil {
		log.Errorf("Error waiting for %v tx %v: err: %v", p.method, p.tx.Hash().Hex(), err)
		return &model.ChainTransactionError{TxHash: p.tx.Hash().Hex()}
	}
	if receipt.Status == types.ReceiptStatusSuccessful {
		return nil
	}
	reason := p.transactor.replayReason(ctx, p.tx, receipt.BlockNumber)
	log.Errorf("%v tx %v reverted: reason: %v", p.method, p.tx.Hash().Hex(), reason)
	return &model.ChainTransactionError{Reason: reason, TxHash: p.tx.Hash().Hex()}
}
