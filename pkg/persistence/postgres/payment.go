package postgres // import "github.com/w3licence/licence-gateway/pkg/persistence/postgres"

import (
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/w3licence/licence-gateway/pkg/model"
)

const (
	// PendingPaymentTableName is the name of the pending payment table
	PendingPaymentTableName = "pending_payment"
)

// CreatePendingPaymentTableQuery returns the query to create the pending payment table
func CreatePendingPaymentTableQuery() string {
	return CreatePendingPaymentTableQueryString(PendingPaymentTableName)
}

// CreatePendingPaymentTableQueryString returns the query to create this table
func CreatePendingPaymentTableQueryString(tableName string) string {
	queryString := fmt.Sprintf(`
        CREATE TABLE IF NOT EXISTS %s(
            holder TEXT NOT NULL,
            cid TEXT NOT NULL,
            amount NUMERIC(78,0) NOT NULL,
            duration_secs BIGINT NOT NULL,
            pay_tx_hash TEXT,
            issue_tx_hash TEXT,
            job_id TEXT,
            status TEXT NOT NULL,
            attempts INT,
            last_error TEXT,
            creation_timestamp BIGINT,
            last_updated_timestamp BIGINT,
            PRIMARY KEY (holder, cid)
        );
        CREATE INDEX IF NOT EXISTS %s_status_idx ON %s (status);
    `, tableName, tableName, tableName)
	return queryString
}

// PendingPayment is the model definition for the pending payment table
type PendingPayment struct {
	Holder string `db:"holder"`

	CID string `db:"cid"`

	Amount string `db:"amount"`

	DurationSecs int64 `db:"duration_secs"`

	PayTxHash string `db:"pay_tx_hash"`

	IssueTxHash string `db:"issue_tx_hash"`

	JobID string `db:"job_id"`

	Status string `db:"status"`

	Attempts int `db:"attempts"`

	LastError string `db:"last_error"`

	CreatedTs int64 `db:"creation_timestamp"`

	LastUpdatedTs int64 `db:"last_updated_timestamp"`
}

// NewPendingPayment constructs a payment row for DB from a model.PendingPayment
func NewPendingPayment(payment *model.PendingPayment) *PendingPayment {
	return &PendingPayment{
		Holder:        payment.Holder.Hex(),
		CID:           payment.CID,
		Amount:        BigIntToString(payment.Amount),
		DurationSecs:  payment.DurationSecs,
		PayTxHash:     payment.PayTxHash.Hex(),
		IssueTxHash:   payment.IssueTxHash.Hex(),
		JobID:         payment.JobID,
		Status:        string(payment.Status),
		Attempts:      payment.Attempts,
		LastError:     payment.LastError,
		CreatedTs:     payment.CreatedAt.UnixNano(),
		LastUpdatedTs: payment.UpdatedAt.UnixNano(),
	}
}

// DbToPendingPaymentData creates a model.PendingPayment from a postgres row
func (p *PendingPayment) DbToPendingPaymentData() (*model.PendingPayment, error) {
	amount, err := StringToBigInt(p.Amount)
	if err != nil {
		return nil, err
	}
	return &model.PendingPayment{
		Holder:       common.HexToAddress(p.Holder),
		CID:          p.CID,
		Amount:       amount,
		DurationSecs: p.DurationSecs,
		PayTxHash:    common.HexToHash(p.PayTxHash),
		IssueTxHash:  common.HexToHash(p.IssueTxHash),
		JobID:        p.JobID,
		Status:       model.PaymentStatus(p.Status),
		Attempts:     p.Attempts,
		LastError:    p.LastError,
		CreatedAt:    time.Unix(0, p.CreatedTs),
		UpdatedAt:    time.Unix(0, p.LastUpdatedTs),
	}, nil
}
