package postgres // import "github.com/w3licence/licence-gateway/pkg/persistence/postgres"

import (
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/w3licence/licence-gateway/pkg/model"
)

const (
	// TxJobTableName is the name of the transaction job table
	TxJobTableName = "tx_job"
)

// CreateTxJobTableQuery returns the query to create the tx job table
func CreateTxJobTableQuery() string {
	return CreateTxJobTableQueryString(TxJobTableName)
}

// CreateTxJobTableQueryString returns the query to create this table
func CreateTxJobTableQueryString(tableName string) string {
	queryString := fmt.Sprintf(`
        CREATE TABLE IF NOT EXISTS %s(
            id TEXT PRIMARY KEY,
            kind TEXT NOT NULL,
            address TEXT NOT NULL,
            cid TEXT,
            status TEXT NOT NULL,
            tx_hashes TEXT,
            error TEXT,
            creation_timestamp BIGINT,
            last_updated_timestamp BIGINT
        );
    `, tableName)
	return queryString
}

// TxJob is the model definition for the tx job table
type TxJob struct {
	ID string `db:"id"`

	Kind string `db:"kind"`

	Address string `db:"address"`

	CID string `db:"cid"`

	Status string `db:"status"`

	TxHashes string `db:"tx_hashes"`

	Error string `db:"error"`

	CreatedTs int64 `db:"creation_timestamp"`

	LastUpdatedTs int64 `db:"last_updated_timestamp"`
}

// NewTxJob constructs a tx job row for DB from a model.TxJob
func NewTxJob(job *model.TxJob) *TxJob {
	return &TxJob{
		ID:            job.ID,
		Kind:          string(job.Kind),
		Address:       job.Address.Hex(),
		CID:           job.CID,
		Status:        string(job.Status),
		TxHashes:      ListCommonHashesToString(job.TxHashes),
		Error:         job.Error,
		CreatedTs:     job.CreatedAt.UnixNano(),
		LastUpdatedTs: job.UpdatedAt.UnixNano(),
	}
}

// DbToTxJobData creates a model.TxJob from a postgres TxJob row
func (j *TxJob) DbToTxJobData() *model.TxJob {
	return &model.TxJob{
		ID:        j.ID,
		Kind:      model.TxJobKind(j.Kind),
		Address:   common.HexToAddress(j.Address),
		CID:       j.CID,
		Status:    model.TxJobStatus(j.Status),
		TxHashes:  StringToCommonHashesList(j.TxHashes),
		Error:     j.Error,
		CreatedAt: time.Unix(0, j.CreatedTs),
		UpdatedAt: time.Unix(0, j.LastUpdatedTs),
	}
}
