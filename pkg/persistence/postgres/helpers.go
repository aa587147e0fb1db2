package postgres

import (
	"fmt"
)

// CheckTableCount returns the query to check the count of the table
func CheckTableCount(tableName string) string {
	queryString := fmt.Sprintf(`SELECT COUNT(*) FROM %v`, tableName) // nolint: gosec
	return queryString
}

// DeleteAllQuery returns the query to empty the table
func DeleteAllQuery(tableName string) string {
	return fmt.Sprintf(`DELETE FROM %v`, tableName) // nolint: gosec
}
