package sqlite

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
)

// Query executes a parametrized read query and returns the rows as generic
// maps, one per row. Parameters are always bound, never interpolated. Only
// SELECT statements are accepted; writes go through the repositories.
func Query(ctx context.Context, db *sqlx.DB, query string, args ...any) ([]map[string]any, error) {
	statement := strings.ToUpper(strings.TrimSpace(query))
	if !strings.HasPrefix(statement, "SELECT") && !strings.HasPrefix(statement, "WITH") {
		return nil, fmt.Errorf("only read queries are allowed")
	}

	rows, err := db.QueryxContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("execute read query: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	out := make([]map[string]any, 0, 16)
	for rows.Next() {
		row := make(map[string]any)
		if err := rows.MapScan(row); err != nil {
			return nil, fmt.Errorf("scan read query row: %w", err)
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate read query rows: %w", err)
	}

	return out, nil
}
