// Package persistence contains components to interact with the DB
package persistence // import "github.com/w3licence/licence-gateway/pkg/persistence"

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	// driver for postgresql
	_ "github.com/lib/pq"

	"github.com/w3licence/licence-gateway/pkg/model"
	"github.com/w3licence/licence-gateway/pkg/persistence/postgres"
)

// NewPostgresPersister creates a new postgres persister
func NewPostgresPersister(host string, port int, user string, password string, dbname string) (*PostgresPersister, error) {
	pgPersister := &PostgresPersister{}
	psqlInfo := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable", host, port, user, password, dbname)
	db, err := sqlx.Connect("postgres", psqlInfo)
	if err != nil {
		return pgPersister, fmt.Errorf("Error connecting to sqlx: %v", err)
	}
	pgPersister.db = db
	return pgPersister, nil
}

// PostgresPersister holds the DB connection and persistence
type PostgresPersister struct {
	db *sqlx.DB
}

// Close closes the DB connection
func (p *PostgresPersister) Close() error {
	return p.db.Close()
}

// CreateTables creates the tables for the gateway if they don't exist
func (p *PostgresPersister) CreateTables() error {
	schemas := map[string]string{
		postgres.ContentIndexTableName:   postgres.CreateContentIndexTableQuery(),
		postgres.TxJobTableName:          postgres.CreateTxJobTableQuery(),
		postgres.PendingPaymentTableName: postgres.CreatePendingPaymentTableQuery(),
		postgres.CronTableName:           postgres.CreateCronTableQuery(),
	}
	for tableName, schema := range schemas {
		_, err := p.db.Exec(schema)
		if err != nil {
			return fmt.Errorf("Error creating %v table in postgres: %v", tableName, err)
		}
	}
	return nil
}

// UpsertIndexedContent implements model.ContentIndexPersister
func (p *PostgresPersister) UpsertIndexedContent(content *model.Content) error {
	return p.upsertContentInTable(content, postgres.ContentIndexTableName)
}

// IndexedContentByCID implements model.ContentIndexPersister
func (p *PostgresPersister) IndexedContentByCID(cid string) (*model.Content, error) {
	return p.contentByCIDFromTable(cid, postgres.ContentIndexTableName)
}

// IndexedContents implements model.ContentIndexPersister
func (p *PostgresPersister) IndexedContents(criteria *model.ContentCriteria) ([]*model.Content, error) {
	return p.contentsFromTable(criteria, postgres.ContentIndexTableName)
}

// DeleteIndexedContents implements model.ContentIndexPersister
func (p *PostgresPersister) DeleteIndexedContents() error {
	_, err := p.db.Exec(postgres.DeleteAllQuery(postgres.ContentIndexTableName))
	if err != nil {
		return fmt.Errorf("Error emptying content index: %v", err)
	}
	return nil
}

// LastBlockForCron implements model.CronPersister
func (p *PostgresPersister) LastBlockForCron() (uint64, error) {
	return p.lastBlockFromTable(postgres.CronTableName)
}

// UpdateLastBlockForCron implements model.CronPersister
func (p *PostgresPersister) UpdateLastBlockForCron(block uint64) error {
	return p.updateLastBlockForTable(block, postgres.CronTableName)
}

// CreateTxJob implements model.TxJobPersister
func (p *PostgresPersister) CreateTxJob(job *model.TxJob) error {
	return p.createTxJobInTable(job, postgres.TxJobTableName)
}

// UpdateTxJob implements model.TxJobPersister
func (p *PostgresPersister) UpdateTxJob(job *model.TxJob) error {
	return p.updateTxJobInTable(job, postgres.TxJobTableName)
}

// TxJobByID implements model.TxJobPersister
func (p *PostgresPersister) TxJobByID(id string) (*model.TxJob, error) {
	return p.txJobByIDFromTable(id, postgres.TxJobTableName)
}

// SavePayment implements model.PaymentPersister
func (p *PostgresPersister) SavePayment(payment *model.PendingPayment) error {
	return p.savePaymentToTable(payment, postgres.PendingPaymentTableName)
}

// PaymentByKey implements model.PaymentPersister
func (p *PostgresPersister) PaymentByKey(holder common.Address, cid string) (*model.PendingPayment, error) {
	return p.paymentByKeyFromTable(holder, cid, postgres.PendingPaymentTableName)
}

// PaymentsByStatus implements model.PaymentPersister
func (p *PostgresPersister) PaymentsByStatus(status model.PaymentStatus) ([]*model.PendingPayment, error) {
	return p.paymentsByStatusFromTable(status, postgres.PendingPaymentTableName)
}

func (p *PostgresPersister) upsertContentInTable(content *model.Content, tableName string) error {
	queryString := postgres.UpsertQueryString(tableName, postgres.Content{}, "cid")
	dbContent := postgres.NewContent(content, time.Now().Unix())
	_, err := p.db.NamedExec(queryString, dbContent)
	if err != nil {
		return fmt.Errorf("Error saving content to table: %v", err)
	}
	return nil
}

func (p *PostgresPersister) contentByCIDFromTable(cid string, tableName string) (*model.Content, error) {
	fields, _ := postgres.GetAllStructFieldsForQuery(postgres.Content{}, false)
	queryString := fmt.Sprintf("SELECT %s FROM %s WHERE cid=$1;", fields, tableName) // nolint: gosec
	dbContent := postgres.Content{}
	err := p.db.Get(&dbContent, queryString, cid)
	if err == sql.ErrNoRows {
		return nil, model.ErrPersisterNoResults
	}
	if err != nil {
		return nil, fmt.Errorf("Wasn't able to get content from postgres table: %v", err)
	}
	return dbContent.DbToContentData()
}

func (p *PostgresPersister) contentsFromTable(criteria *model.ContentCriteria, tableName string) ([]*model.Content, error) {
	fields, _ := postgres.GetAllStructFieldsForQuery(postgres.Content{}, false)
	queryString := fmt.Sprintf("SELECT %s FROM %s", fields, tableName) // nolint: gosec
	args := []interface{}{}
	if criteria != nil {
		if criteria.Creator != nil {
			args = append(args, criteria.Creator.Hex())
			queryString += fmt.Sprintf(" WHERE creator=$%d", len(args))
		}
		if criteria.AvailableOnly {
			if len(args) > 0 {
				queryString += " AND available=true"
			} else {
				queryString += " WHERE available=true"
			}
		}
	}
	queryString += " ORDER BY cid;"

	dbContents := []postgres.Content{}
	err := p.db.Select(&dbContents, queryString, args...)
	if err != nil {
		return nil, fmt.Errorf("Wasn't able to get contents from postgres table: %v", err)
	}
	contents := make([]*model.Content, 0, len(dbContents))
	for _, dbContent := range dbContents {
		content, err := dbContent.DbToContentData()
		if err != nil {
			return nil, err
		}
		contents = append(contents, content)
	}
	return contents, nil
}

func (p *PostgresPersister) lastBlockFromTable(tableName string) (uint64, error) {
	dbCron := postgres.CronData{}
	queryString := fmt.Sprintf(`SELECT last_block FROM %s;`, tableName) // nolint: gosec
	err := p.db.Get(&dbCron, queryString)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("Wasn't able to get last block from postgres table: %v", err)
	}
	return uint64(dbCron.LastBlock), nil // nolint: gosec
}

func (p *PostgresPersister) updateLastBlockForTable(block uint64, tableName string) error {
	var numRows int
	err := p.db.Get(&numRows, postgres.CheckTableCount(tableName))
	if err != nil {
		return fmt.Errorf("Error counting cron rows: %v", err)
	}
	var queryString string
	if numRows == 0 {
		queryString = fmt.Sprintf(`INSERT INTO %s (last_block) VALUES (:last_block);`, tableName) // nolint: gosec
	} else {
		queryString = fmt.Sprintf(`UPDATE %s SET last_block=:last_block;`, tableName) // nolint: gosec
	}
	_, err = p.db.NamedExec(queryString, postgres.NewCron(block))
	if err != nil {
		return fmt.Errorf("Error saving last block to table: %v", err)
	}
	return nil
}

func (p *PostgresPersister) createTxJobInTable(job *model.TxJob, tableName string) error {
	fields, params := postgres.GetAllStructFieldsForQuery(postgres.TxJob{}, true)
	queryString := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s);", tableName, fields, params) // nolint: gosec
	_, err := p.db.NamedExec(queryString, postgres.NewTxJob(job))
	if err != nil {
		return fmt.Errorf("Error saving tx job to table: %v", err)
	}
	return nil
}

func (p *PostgresPersister) updateTxJobInTable(job *model.TxJob, tableName string) error {
	queryString := fmt.Sprintf(`UPDATE %s SET status=:status, tx_hashes=:tx_hashes, error=:error, `+ // nolint: gosec
		`last_updated_timestamp=:last_updated_timestamp WHERE id=:id;`, tableName)
	result, err := p.db.NamedExec(queryString, postgres.NewTxJob(job))
	if err != nil {
		return fmt.Errorf("Error updating tx job in table: %v", err)
	}
	affected, err := result.RowsAffected()
	if err == nil && affected == 0 {
		return model.ErrPersisterNoResults
	}
	return nil
}

func (p *PostgresPersister) txJobByIDFromTable(id string, tableName string) (*model.TxJob, error) {
	fields, _ := postgres.GetAllStructFieldsForQuery(postgres.TxJob{}, false)
	queryString := fmt.Sprintf("SELECT %s FROM %s WHERE id=$1;", fields, tableName) // nolint: gosec
	dbJob := postgres.TxJob{}
	err := p.db.Get(&dbJob, queryString, id)
	if err == sql.ErrNoRows {
		return nil, model.ErrPersisterNoResults
	}
	if err != nil {
		return nil, fmt.Errorf("Wasn't able to get tx job from postgres table: %v", err)
	}
	return dbJob.DbToTxJobData(), nil
}

func (p *PostgresPersister) savePaymentToTable(payment *model.PendingPayment, tableName string) error {
	queryString := postgres.UpsertQueryString(tableName, postgres.PendingPayment{}, "holder", "cid")
	_, err := p.db.NamedExec(queryString, postgres.NewPendingPayment(payment))
	if err != nil {
		return fmt.Errorf("Error saving payment to table: %v", err)
	}
	return nil
}

func (p *PostgresPersister) paymentByKeyFromTable(holder common.Address, cid string,
	tableName string) (*model.PendingPayment, error) {
	fields, _ := postgres.GetAllStructFieldsForQuery(postgres.PendingPayment{}, false)
	queryString := fmt.Sprintf("SELECT %s FROM %s WHERE holder=$1 AND cid=$2;", fields, tableName) // nolint: gosec
	dbPayment := postgres.PendingPayment{}
	err := p.db.Get(&dbPayment, queryString, holder.Hex(), cid)
	if err == sql.ErrNoRows {
		return nil, model.ErrPersisterNoResults
	}
	if err != nil {
		return nil, fmt.Errorf("Wasn't able to get payment from postgres table: %v", err)
	}
	return dbPayment.DbToPendingPaymentData()
}

func (p *PostgresPersister) paymentsByStatusFromTable(status model.PaymentStatus,
	tableName string) ([]*model.PendingPayment, error) {
	fields, _ := postgres.GetAllStructFieldsForQuery(postgres.PendingPayment{}, false)
	queryString := fmt.Sprintf("SELECT %s FROM %s WHERE status=$1 ORDER BY creation_timestamp;", // nolint: gosec
		fields, tableName)
	dbPayments := []postgres.PendingPayment{}
	err := p.db.Select(&dbPayments, queryString, string(status))
	if err != nil {
		return nil, errors.Wrap(err, "Wasn't able to get payments from postgres table")
	}
	payments := make([]*model.PendingPayment, 0, len(dbPayments))
	for _, dbPayment := range dbPayments {
		payment, err := dbPayment.DbToPendingPaymentData()
		if err != nil {
			return nil, err
		}
		payments = append(payments, payment)
	}
	return payments, nil
}
