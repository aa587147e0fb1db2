package postgres // import "github.com/w3licence/licence-gateway/pkg/persistence/postgres"

import (
	"fmt"
)

const (
	// CronTableName is the name of the indexer cursor table
	CronTableName = "cron"
)

// CreateCronTableQuery returns the query to create the cron table
func CreateCronTableQuery() string {
	return CreateCronTableQueryString(CronTableName)
}

// CreateCronTableQueryString returns the query to create this table
// NOTE: This table only is allowed to ever have 1 row
func CreateCronTableQueryString(tableName string) string {
	queryString := fmt.Sprintf(`
        CREATE TABLE IF NOT EXISTS %s(last_block BIGINT NOT NULL);
        CREATE UNIQUE INDEX IF NOT EXISTS %s ON %s((last_block IS NOT NULL));
    `, tableName, tableName+"_one_row", tableName)
	return queryString
}

// CronData contains the indexer cursor persisted in the cron table
type CronData struct {
	LastBlock int64 `db:"last_block"`
}

// NewCron creates a CronData model for DB from a block number to save
func NewCron(lastBlock uint64) *CronData {
	return &CronData{LastBlock: int64(lastBlock)} // nolint: gosec
}
