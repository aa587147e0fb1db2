package model

import (
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/ethereum/go-ethereum/common"
)

// TxJobStatus is the status of an asynchronous registry write
type TxJobStatus string

const (
	// TxJobStatusSubmitted is a job that has not finished yet
	TxJobStatusSubmitted TxJobStatus = "submitted"
	// TxJobStatusConfirmed is a job whose transactions were all mined successfully
	TxJobStatusConfirmed TxJobStatus = "confirmed"
	// TxJobStatusFailed is a job that failed before or after broadcast
	TxJobStatusFailed TxJobStatus = "failed"
)

// TxJobKind names the gateway operation a job performs
type TxJobKind string

const (
	// TxJobKindRegisterContent registers uploaded content
	TxJobKindRegisterContent TxJobKind = "register_content"
	// TxJobKindDisableContent marks content unavailable
	TxJobKindDisableContent TxJobKind = "disable_content"
	// TxJobKindSetTitle changes a content title
	TxJobKindSetTitle TxJobKind = "set_title"
	// TxJobKindSetPrice changes a content price
	TxJobKindSetPrice TxJobKind = "set_price"
	// TxJobKindSetPlatformFee changes the platform fee
	TxJobKindSetPlatformFee TxJobKind = "set_platform_fee"
	// TxJobKindBuyLicence pays for and issues a licence
	TxJobKindBuyLicence TxJobKind = "buy_licence"
	// TxJobKindRevokeLicence revokes a licence
	TxJobKindRevokeLicence TxJobKind = "revoke_licence"
)

// TxJob tracks one gateway write from submission to confirmation. It is owned
// by the gateway, not by the HTTP request that created it.
type TxJob struct {
	ID        string         `json:"id"`
	Kind      TxJobKind      `json:"kind"`
	Address   common.Address `json:"address"`
	CID       string         `json:"cid,omitempty"`
	Status    TxJobStatus    `json:"status"`
	TxHashes  []common.Hash  `json:"txHashes"`
	Error     string         `json:"error,omitempty"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
}

// Done returns true once the job reached a terminal status
func (j *TxJob) Done() bool {
	return j.Status == TxJobStatusConfirmed || j.Status == TxJobStatusFailed
}

// Err rebuilds the failure of a failed job from its saved error. Registry
// reverts come back as ChainTransactionError.
func (j *TxJob) Err() error {
	if j.Status != TxJobStatusFailed {
		return nil
	}
	prefix := ErrChainTransactionFailed.Error()
	if j.Error == prefix {
		return NewChainTransactionError("")
	}
	if strings.HasPrefix(j.Error, prefix+": ") {
		return NewChainTransactionError(strings.TrimPrefix(j.Error, prefix+": "))
	}
	if j.Error == "" {
		return errors.New("job failed")
	}
	return errors.New(j.Error)
}

// Copy returns a deep copy of the job
func (j *TxJob) Copy() *TxJob {
	cp := *j
	cp.TxHashes = append([]common.Hash(nil), j.TxHashes...)
	return &cp
}
