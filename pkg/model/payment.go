package model

import (
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// PaymentStatus is the reconciliation status of a licence payment
type PaymentStatus string

const (
	// PaymentStatusPaid is a confirmed payment with no licence issued yet
	PaymentStatusPaid PaymentStatus = "paid"
	// PaymentStatusIssued is a payment whose licence was issued
	PaymentStatusIssued PaymentStatus = "issued"
	// PaymentStatusRefundDue is a payment whose issuance gave up and needs a refund
	PaymentStatusRefundDue PaymentStatus = "refund_due"
)

// PendingPaymentParams are the params to initialize a new PendingPayment
type PendingPaymentParams struct {
	Holder       common.Address
	CID          string
	Amount       *big.Int
	DurationSecs int64
	PayTxHash    common.Hash
	JobID        string
	CreatedAt    time.Time
}

// NewPendingPayment returns a payment record in the paid status
func NewPendingPayment(params *PendingPaymentParams) *PendingPayment {
	amount := big.NewInt(0)
	if params.Amount != nil {
		amount.Set(params.Amount)
	}
	return &PendingPayment{
		Holder:       params.Holder,
		CID:          params.CID,
		Amount:       amount,
		DurationSecs: params.DurationSecs,
		PayTxHash:    params.PayTxHash,
		JobID:        params.JobID,
		Status:       PaymentStatusPaid,
		CreatedAt:    params.CreatedAt,
		UpdatedAt:    params.CreatedAt,
	}
}

// PendingPayment records the paid half of a licence purchase so issuance can be
// retried if the second transaction fails
type PendingPayment struct {
	Holder       common.Address
	CID          string
	Amount       *big.Int
	DurationSecs int64
	PayTxHash    common.Hash
	IssueTxHash  common.Hash
	JobID        string
	Status       PaymentStatus
	Attempts     int
	LastError    string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Key returns the identifier of the payment, one per holder and CID
func (p *PendingPayment) Key() string {
	return PaymentKey(p.Holder, p.CID)
}

// PaymentKey builds the payment identifier for a holder and CID
func PaymentKey(holder common.Address, cid string) string {
	return holder.Hex() + "/" + cid
}

// Copy returns a deep copy of the payment
func (p *PendingPayment) Copy() *PendingPayment {
	cp := *p
	cp.Amount = new(big.Int).Set(p.Amount)
	return &cp
}
