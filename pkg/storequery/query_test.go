package storequery

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseWhere(t *testing.T) {
	assert.Nil(t, ParseWhere(""))
	assert.Nil(t, ParseWhere("   "))
	assert.Nil(t, ParseWhere("{not json"))
	assert.Nil(t, ParseWhere(`[1,2,3]`))
	assert.Nil(t, ParseWhere(`{}`))

	filter := ParseWhere(`{"completed":true,"name":"Fix bug"}`)
	require.NotNil(t, filter)
	assert.Equal(t, true, filter["completed"])
	assert.Equal(t, "Fix bug", filter["name"])
}

func TestParseSortJSONObjectKeepsKeyOrder(t *testing.T) {
	fields := ParseSort(`{"name":1,"deadline":-1}`)
	require.Len(t, fields, 2)
	assert.Equal(t, SortField{Field: "name"}, fields[0])
	assert.Equal(t, SortField{Field: "deadline", Desc: true}, fields[1])
}

func TestParseSortCommaList(t *testing.T) {
	fields := ParseSort("name,-deadline")
	require.Len(t, fields, 2)
	assert.Equal(t, SortField{Field: "name"}, fields[0])
	assert.Equal(t, SortField{Field: "deadline", Desc: true}, fields[1])
}

func TestParseSortMalformed(t *testing.T) {
	assert.Nil(t, ParseSort(""))
	assert.Nil(t, ParseSort(`{"name":"up"}`))
	assert.Nil(t, ParseSort(`{broken`))
	assert.Nil(t, ParseSort(",,-"))
}

func TestParseSelect(t *testing.T) {
	assert.Nil(t, ParseSelect(""))
	assert.Nil(t, ParseSelect("nope"))
	assert.Nil(t, ParseSelect(`{}`))

	include := ParseSelect(`{"name":1,"email":1}`)
	require.NotNil(t, include)
	assert.True(t, include["name"])
	assert.True(t, include["email"])

	exclude := ParseSelect(`{"pendingTasks":0}`)
	require.NotNil(t, exclude)
	assert.False(t, exclude["pendingTasks"])
}

func TestProjectionApplyIncludeMode(t *testing.T) {
	doc := map[string]interface{}{
		"id":    "u1",
		"name":  "Ann",
		"email": "a@x.com",
	}

	out := ParseSelect(`{"name":1}`).Apply(doc)
	assert.Equal(t, map[string]interface{}{"id": "u1", "name": "Ann"}, out)

	out = ParseSelect(`{"name":1,"id":0}`).Apply(doc)
	assert.Equal(t, map[string]interface{}{"name": "Ann"}, out)
}

func TestProjectionApplyExcludeMode(t *testing.T) {
	doc := map[string]interface{}{
		"id":    "u1",
		"name":  "Ann",
		"email": "a@x.com",
	}

	out := ParseSelect(`{"email":0}`).Apply(doc)
	assert.Equal(t, map[string]interface{}{"id": "u1", "name": "Ann"}, out)
}

func TestProjectionApplyNilPassthrough(t *testing.T) {
	doc := map[string]interface{}{"id": "u1"}
	assert.Equal(t, doc, Projection(nil).Apply(doc))
}

func TestProject(t *testing.T) {
	entity := struct {
		ID    string `json:"id"`
		Name  string `json:"name"`
		Email string `json:"email"`
	}{ID: "u1", Name: "Ann", Email: "a@x.com"}

	out, err := Project(entity, ParseSelect(`{"email":1}`))
	require.NoError(t, err)
	assert.Equal(t, map[string]interface{}{"id": "u1", "email": "a@x.com"}, out)
}
