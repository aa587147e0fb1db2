package model // import "github.com/w3licence/licence-gateway/pkg/model"

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
)

// ContentCriteria filters indexed content
type ContentCriteria struct {
	Creator       *common.Address
	AvailableOnly bool
}

// Matches returns true if the content satisfies the criteria
func (c *ContentCriteria) Matches(content *Content) bool {
	if c == nil {
		return true
	}
	if c.AvailableOnly && !content.Available() {
		return false
	}
	if c.Creator != nil && content.Creator() != *c.Creator {
		return false
	}
	return true
}

// ContentIndexPersister is the secondary index of registry content. The
// registry stays the source of truth; the index only saves full scans.
type ContentIndexPersister interface {
	// UpsertIndexedContent creates or replaces the indexed record for a CID
	UpsertIndexedContent(content *Content) error
	// IndexedContentByCID returns the indexed record for a CID
	IndexedContentByCID(cid string) (*Content, error)
	// IndexedContents returns the indexed records matching the criteria
	IndexedContents(criteria *ContentCriteria) ([]*Content, error)
	// DeleteIndexedContents empties the index before a rebuild
	DeleteIndexedContents() error
}

// CronPersister persists information about the last indexer run
type CronPersister interface {
	// LastBlockForCron returns the last block number the indexer processed
	LastBlockForCron() (uint64, error)
	// UpdateLastBlockForCron updates the last block number the indexer processed
	UpdateLastBlockForCron(block uint64) error
}

// TxJobPersister persists asynchronous transaction jobs
type TxJobPersister interface {
	// CreateTxJob saves a new job
	CreateTxJob(job *TxJob) error
	// UpdateTxJob saves the status of an existing job
	UpdateTxJob(job *TxJob) error
	// TxJobByID returns a job by its ID
	TxJobByID(id string) (*TxJob, error)
}

// PaymentPersister persists licence payments awaiting issuance
type PaymentPersister interface {
	// SavePayment creates or replaces the payment for its holder and CID
	SavePayment(payment *PendingPayment) error
	// PaymentByKey returns the payment for a holder and CID
	PaymentByKey(holder common.Address, cid string) (*PendingPayment, error)
	// PaymentsByStatus returns all payments in the given status
	PaymentsByStatus(status PaymentStatus) ([]*PendingPayment, error)
}

// SessionStore holds the server side half of bearer tokens
type SessionStore interface {
	// SaveSession stores a session until it expires
	SaveSession(ctx context.Context, session *Session) error
	// Session returns a stored session, ErrPersisterNoResults if unknown or expired
	Session(ctx context.Context, id string) (*Session, error)
	// DeleteSession removes a session
	DeleteSession(ctx context.Context, id string) error
}

// ChallengeStore holds outstanding login challenges
type ChallengeStore interface {
	// SaveChallenge stores a challenge until it expires
	SaveChallenge(ctx context.Context, challenge *LoginChallenge) error
	// ConsumeChallenge removes and returns a challenge. A nonce can be consumed once.
	ConsumeChallenge(ctx context.Context, nonce string) (*LoginChallenge, error)
}

// ContentStorage is content-addressed storage for uploaded bytes
type ContentStorage interface {
	// Put stores the bytes and returns their CID
	Put(ctx context.Context, data []byte, mimeType string) (string, error)
	// URL returns the retrieval URL for a CID
	URL(cid string) string
}

// EventPublisher publishes gateway notifications
type EventPublisher interface {
	Publish(ctx context.Context, event *GatewayEvent) error
}
