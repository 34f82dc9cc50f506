package postgres

import (
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskhub/backend/pkg/storequery"
)

func TestBuildFindSQL(t *testing.T) {
	sql, args := buildFindSQL("tasks", storequery.Query{})
	assert.Equal(t, "SELECT doc FROM tasks", sql)
	assert.Empty(t, args)

	sql, args = buildFindSQL("tasks", storequery.Query{
		Where: map[string]interface{}{"completed": true},
		Sort:  []storequery.SortField{{Field: "deadline", Desc: true}, {Field: "name"}},
		Skip:  10,
		Limit: 5,
	})
	assert.Equal(t, "SELECT doc FROM tasks WHERE doc @> $1 ORDER BY doc->>'deadline' DESC, doc->>'name' ASC OFFSET $2 LIMIT $3", sql)
	require.Len(t, args, 3)
	assert.JSONEq(t, `{"completed":true}`, string(args[0].([]byte)))
	assert.Equal(t, 10, args[1])
	assert.Equal(t, 5, args[2])
}

func TestBuildFindSQLSkipsUnsafeSortFields(t *testing.T) {
	sql, _ := buildFindSQL("users", storequery.Query{
		Sort: []storequery.SortField{{Field: "name'; DROP TABLE users; --"}},
	})
	assert.Equal(t, "SELECT doc FROM users", sql)
}

func TestBuildCountSQL(t *testing.T) {
	sql, args := buildCountSQL("users", nil)
	assert.Equal(t, "SELECT COUNT(*) FROM users", sql)
	assert.Empty(t, args)

	sql, args = buildCountSQL("users", map[string]interface{}{"email": "a@x.com"})
	assert.Equal(t, "SELECT COUNT(*) FROM users WHERE doc @> $1", sql)
	require.Len(t, args, 1)
	assert.JSONEq(t, `{"email":"a@x.com"}`, string(args[0].([]byte)))
}

func TestIsUniqueViolation(t *testing.T) {
	assert.True(t, isUniqueViolation(&pgconn.PgError{Code: "23505"}))
	assert.False(t, isUniqueViolation(&pgconn.PgError{Code: "23503"}))
	assert.False(t, isUniqueViolation(assert.AnError))
}
