package postgres

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/taskhub/backend/pkg/storequery"
)

// identPattern guards field names interpolated into ORDER BY expressions.
var identPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// buildFindSQL renders a translated query against a single-doc JSONB
// collection table. Filters use containment so they hit the GIN index.
func buildFindSQL(table string, q storequery.Query) (string, []interface{}) {
	var sb strings.Builder
	var args []interface{}

	fmt.Fprintf(&sb, "SELECT doc FROM %s", table)

	if len(q.Where) > 0 {
		if filter, err := json.Marshal(q.Where); err == nil {
			args = append(args, filter)
			fmt.Fprintf(&sb, " WHERE doc @> $%d", len(args))
		}
	}

	var order []string
	for _, sf := range q.Sort {
		if !identPattern.MatchString(sf.Field) {
			continue
		}
		dir := "ASC"
		if sf.Desc {
			dir = "DESC"
		}
		order = append(order, fmt.Sprintf("doc->>'%s' %s", sf.Field, dir))
	}
	if len(order) > 0 {
		sb.WriteString(" ORDER BY " + strings.Join(order, ", "))
	}

	if q.Skip > 0 {
		args = append(args, q.Skip)
		fmt.Fprintf(&sb, " OFFSET $%d", len(args))
	}
	if q.Limit > 0 {
		args = append(args, q.Limit)
		fmt.Fprintf(&sb, " LIMIT $%d", len(args))
	}

	return sb.String(), args
}

func buildCountSQL(table string, where map[string]interface{}) (string, []interface{}) {
	if len(where) > 0 {
		if filter, err := json.Marshal(where); err == nil {
			return fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE doc @> $1", table), []interface{}{filter}
		}
	}
	return fmt.Sprintf("SELECT COUNT(*) FROM %s", table), nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
