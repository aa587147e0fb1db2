package postgres // import "github.com/w3licence/licence-gateway/pkg/persistence/postgres"

import (
	"fmt"
	"math/big"
	"reflect"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// ListCommonHashToListString converts a list of common.Hash to list of string
func ListCommonHashToListString(hashes []common.Hash) []string {
	hashesString := make([]string, len(hashes))
	for i, hash := range hashes {
		hashesString[i] = hash.Hex()
	}
	return hashesString
}

// ListCommonHashesToString converts a list of common.Hash to a comma separated string
func ListCommonHashesToString(hashes []common.Hash) string {
	return strings.Join(ListCommonHashToListString(hashes), ",")
}

// StringToCommonHashesList converts a comma separated string to a list of common.Hash
func StringToCommonHashesList(hashes string) []common.Hash {
	if hashes == "" {
		return []common.Hash{}
	}
	hashesString := strings.Split(hashes, ",")
	hashesCommon := make([]common.Hash, len(hashesString))
	for i, hash := range hashesString {
		hashesCommon[i] = common.HexToHash(hash)
	}
	return hashesCommon
}

// BigIntToString converts a big.Int to its decimal string, nil as "0"
func BigIntToString(value *big.Int) string {
	if value == nil {
		return "0"
	}
	return value.String()
}

// StringToBigInt converts a NUMERIC column value back to a big.Int
func StringToBigInt(value string) (*big.Int, error) {
	parsed, ok := new(big.Int).SetString(value, 10)
	if !ok {
		return nil, fmt.Errorf("invalid numeric value %v", value)
	}
	return parsed, nil
}

// DbFieldNameFromModelName returns the db tag of the named field of the struct
func DbFieldNameFromModelName(exampleStruct interface{}, fieldName string) (string, error) {
	sType := reflect.TypeOf(exampleStruct)
	field, ok := sType.FieldByName(fieldName)
	if !ok {
		return "", fmt.Errorf("%v does not exist", fieldName)
	}
	return field.Tag.Get("db"), nil
}

// GetAllStructFieldsForQuery returns the db tags of the struct joined for a
// column list, and if colon is true, joined as named parameters
func GetAllStructFieldsForQuery(exampleStruct interface{}, colon bool) (string, string) {
	sType := reflect.TypeOf(exampleStruct)
	fields := make([]string, 0, sType.NumField())
	for i := 0; i < sType.NumField(); i++ {
		tag := sType.Field(i).Tag.Get("db")
		if tag == "" || tag == "-" {
			continue
		}
		fields = append(fields, tag)
	}
	fieldsString := strings.Join(fields, ", ")
	if !colon {
		return fieldsString, ""
	}
	return fieldsString, ":" + strings.Join(fields, ", :")
}

// UpsertQueryString returns an INSERT that replaces every column except the
// conflict keys when a row with the same keys exists
func UpsertQueryString(tableName string, exampleStruct interface{}, conflictKeys ...string) string {
	fields, params := GetAllStructFieldsForQuery(exampleStruct, true)
	keys := map[string]bool{}
	for _, key := range conflictKeys {
		keys[key] = true
	}
	updates := []string{}
	for _, field := range strings.Split(fields, ", ") {
		if keys[field] {
			continue
		}
		updates = append(updates, fmt.Sprintf("%v = EXCLUDED.%v", field, field))
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) ON CONFLICT (%s) DO UPDATE SET %s;", // nolint: gosec
		tableName, fields, params, strings.Join(conflictKeys, ", "), strings.Join(updates, ", "))
}
