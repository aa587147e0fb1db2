package postgres_test

import (
	"math/big"
	"reflect"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/common"

	"github.com/w3licence/licence-gateway/pkg/model"
	"github.com/w3licence/licence-gateway/pkg/persistence/postgres"
)

var (
	hashesCommon = []common.Hash{
		common.HexToHash("0x01"),
		common.HexToHash("0x02"),
	}
	hashesOneString = "0x0000000000000000000000000000000000000000000000000000000000000001," +
		"0x0000000000000000000000000000000000000000000000000000000000000002"
)

func TestListCommonHashesToString(t *testing.T) {
	stringConverted := postgres.ListCommonHashesToString(hashesCommon)
	if stringConverted != hashesOneString {
		t.Errorf("string is not what it should be, %v", stringConverted)
	}
}

func TestStringToCommonHashesList(t *testing.T) {
	converted := postgres.StringToCommonHashesList(hashesOneString)
	if !reflect.DeepEqual(converted, hashesCommon) {
		t.Errorf("common.Hash slice is not what it should be, %v", converted)
	}
	if len(postgres.StringToCommonHashesList("")) != 0 {
		t.Errorf("Empty string should be an empty list")
	}
}

func TestDbFieldNameFromModelName(t *testing.T) {
	contentNameMapping := map[string]string{
		"CID":        "cid",
		"Creator":    "creator",
		"Price":      "price",
		"UsageCount": "usage_count",
		"Title":      "title",
		"Available":  "available",
		"IndexedTs":  "indexed_timestamp",
	}
	for modelName, dbName := range contentNameMapping {
		dbNameCheck, err := postgres.DbFieldNameFromModelName(postgres.Content{}, modelName)
		if err != nil {
			t.Errorf("Error getting db struct name: %v", err)
		}
		if dbName != dbNameCheck {
			t.Errorf("Struct tag names do not match for: %v, %v", dbName, dbNameCheck)
		}
	}
	_, err := postgres.DbFieldNameFromModelName(postgres.Content{}, "Missing")
	if err == nil {
		t.Errorf("Should have failed on a missing field")
	}
}

func TestGetAllStructFieldsForQuery(t *testing.T) {
	fields, params := postgres.GetAllStructFieldsForQuery(postgres.Content{}, false)
	if fields != "cid, creator, price, usage_count, title, available, indexed_timestamp" {
		t.Errorf("Generated structFieldString is not what it should be: %v", fields)
	}
	if params != "" {
		t.Errorf("Structfield must be empty but it isn't")
	}
	_, params = postgres.GetAllStructFieldsForQuery(postgres.Content{}, true)
	if params != ":cid, :creator, :price, :usage_count, :title, :available, :indexed_timestamp" {
		t.Errorf("Generated structFieldString with colon is not what it should be: %v", params)
	}
}

func TestUpsertQueryString(t *testing.T) {
	query := postgres.UpsertQueryString("content_index", postgres.Content{}, "cid")
	if !strings.Contains(query, "ON CONFLICT (cid) DO UPDATE SET creator = EXCLUDED.creator") {
		t.Errorf("Unexpected upsert: %v", query)
	}
	if strings.Contains(query, "cid = EXCLUDED.cid") {
		t.Errorf("Should not update the conflict key: %v", query)
	}
}

func TestContentRowConversion(t *testing.T) {
	content := model.NewContent(&model.ContentParams{
		Creator:    common.HexToAddress("0x77e5aaBddb760FBa989A1C4B2CDd4aA8Fa3d311d"),
		Price:      new(big.Int).Exp(big.NewInt(10), big.NewInt(30), nil),
		UsageCount: big.NewInt(4),
		CID:        "bafytest",
		Title:      "Doc",
		Available:  true,
	})
	row := postgres.NewContent(content, 10)
	back, err := row.DbToContentData()
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if back.Price().Cmp(content.Price()) != 0 || back.UsageCount().Int64() != 4 ||
		back.Creator() != content.Creator() || !back.Available() {
		t.Errorf("Row did not convert back: %+v", back)
	}
	row.Price = "not a number"
	_, err = row.DbToContentData()
	if err == nil {
		t.Errorf("Should have failed on a bad price")
	}
}
