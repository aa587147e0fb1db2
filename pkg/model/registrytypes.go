package model

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// PendingTx is a registry transaction that has been broadcast
type PendingTx interface {
	// Hash returns the transaction hash
	Hash() common.Hash
	// Wait blocks until the transaction is mined. A reverted transaction
	// returns a *ChainTransactionError.
	Wait(ctx context.Context) error
}

// ContentRegistry is the on-chain registry of content. Every write is sent
// from the given address and ownership rules are enforced by the registry.
type ContentRegistry interface {
	// PlatformFee returns the fee charged for registering content
	PlatformFee(ctx context.Context) (*big.Int, error)
	// Owner returns the registry owner
	Owner(ctx context.Context) (common.Address, error)
	// Content returns the record for a CID or ErrContentNotFound
	Content(ctx context.Context, cid string) (*Content, error)
	// AllContents returns every registered record
	AllContents(ctx context.Context) ([]*Content, error)

	AddContent(ctx context.Context, from common.Address, price *big.Int, cid string,
		title string, fee *big.Int) (PendingTx, error)
	SetUnavailable(ctx context.Context, from common.Address, cid string) (PendingTx, error)
	SetTitle(ctx context.Context, from common.Address, cid string, title string) (PendingTx, error)
	SetPrice(ctx context.Context, from common.Address, cid string, price *big.Int) (PendingTx, error)
	SetPlatformFee(ctx context.Context, from common.Address, fee *big.Int) (PendingTx, error)
}

// LicenceRegistry is the on-chain registry of licences
type LicenceRegistry interface {
	// Pay sends the licence price for a CID from the holder
	Pay(ctx context.Context, from common.Address, cid string, amount *big.Int) (PendingTx, error)
	// IssueLicence issues a licence against a prior payment. It is sent by the
	// platform issuer account.
	IssueLicence(ctx context.Context, holder common.Address, cid string, durationSecs int64) (PendingTx, error)
	// RevokeLicence revokes the sender's licence for a CID
	RevokeLicence(ctx context.Context, from common.Address, cid string) (PendingTx, error)
	// Licence returns the licence for (holder, cid); an empty licence if none exists
	Licence(ctx context.Context, holder common.Address, cid string) (*Licence, error)
	// LicencesForUser returns every licence ever issued to the holder
	LicencesForUser(ctx context.Context, holder common.Address) ([]*Licence, error)
}

// EventSource reads registry events by block range
type EventSource interface {
	// LatestBlock returns the current head block number
	LatestBlock(ctx context.Context) (uint64, error)
	// EventsInRange returns registry events in [from, to], ordered by block and log index
	EventsInRange(ctx context.Context, from uint64, to uint64) ([]*RegistryEvent, error)
}
