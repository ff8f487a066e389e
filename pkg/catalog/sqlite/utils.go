package sqlite

// buildWhereClause builds a WHERE clause for catalog queries.
func buildWhereClause(category string) (string, []interface{}) {
	if category == "" {
		return "", nil
	}
	return "WHERE category = ?", []interface{}{category}
}
