package postgres // import "github.com/w3licence/licence-gateway/pkg/persistence/postgres"

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"github.com/w3licence/licence-gateway/pkg/model"
)

const (
	// ContentIndexTableName is the name of the content index table
	ContentIndexTableName = "content_index"
)

// CreateContentIndexTableQuery returns the query to create the content index table
func CreateContentIndexTableQuery() string {
	return CreateContentIndexTableQueryString(ContentIndexTableName)
}

// CreateContentIndexTableQueryString returns the query to create this table
func CreateContentIndexTableQueryString(tableName string) string {
	queryString := fmt.Sprintf(`
        CREATE TABLE IF NOT EXISTS %s(
            cid TEXT PRIMARY KEY,
            creator TEXT NOT NULL,
            price NUMERIC(78,0) NOT NULL,
            usage_count NUMERIC(78,0) NOT NULL,
            title TEXT,
            available BOOL,
            indexed_timestamp BIGINT
        );
        CREATE INDEX IF NOT EXISTS %s_creator_idx ON %s (creator);
    `, tableName, tableName, tableName)
	return queryString
}

// Content is the model definition for the content index table
// NOTE: prices and usage counts are uint256 on chain, so they are kept as
// NUMERIC and scanned as strings
type Content struct {
	CID string `db:"cid"`

	Creator string `db:"creator"`

	Price string `db:"price"`

	UsageCount string `db:"usage_count"`

	Title string `db:"title"`

	Available bool `db:"available"`

	IndexedTs int64 `db:"indexed_timestamp"`
}

// NewContent constructs a content row for DB from a model.Content
func NewContent(content *model.Content, indexedTs int64) *Content {
	return &Content{
		CID:        content.CID(),
		Creator:    content.Creator().Hex(),
		Price:      BigIntToString(content.Price()),
		UsageCount: BigIntToString(content.UsageCount()),
		Title:      content.Title(),
		Available:  content.Available(),
		IndexedTs:  indexedTs,
	}
}

// DbToContentData creates a model.Content from a postgres Content row
func (c *Content) DbToContentData() (*model.Content, error) {
	price, err := StringToBigInt(c.Price)
	if err != nil {
		return nil, err
	}
	usageCount, err := StringToBigInt(c.UsageCount)
	if err != nil {
		return nil, err
	}
	return model.NewContent(&model.ContentParams{
		Creator:    common.HexToAddress(c.Creator),
		Price:      price,
		UsageCount: usageCount,
		CID:        c.CID,
		Title:      c.Title,
		Available:  c.Available,
	}), nil
}
