package sqlxrepos

import (
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		_ = mockDB.Close()
	})
	return sqlx.NewDb(mockDB, "postgres"), mock
}

func Test_whereClause(t *testing.T) {
	var w whereClause
	assert.Equal(t, "", w.String())

	w.add("a = ?", 1)
	w.add("(b = ? OR c = ?)", 2, 3)
	assert.Equal(t, " WHERE a = ? AND (b = ? OR c = ?)", w.String())
	assert.Equal(t, []interface{}{1, 2, 3}, w.args)
}

func Test_nullJSON(t *testing.T) {
	var nilPtr *struct{ A int }
	j, err := nullJSON(nilPtr)
	require.NoError(t, err)
	assert.False(t, j.Valid)

	j, err = nullJSON(struct {
		A int `json:"a"`
	}{A: 1})
	require.NoError(t, err)
	assert.True(t, j.Valid)
	assert.JSONEq(t, `{"a":1}`, string(j.JSONText))

	assert.False(t, rawJSON(nil).Valid)
	assert.False(t, rawJSON([]byte("null")).Valid)
	assert.Nil(t, rawMessage(rawJSON(nil)))
}

func Test_validIDs(t *testing.T) {
	id := newID()
	assert.True(t, validID(id))
	assert.False(t, validID("prof-1"))
	assert.Equal(t, []string{id}, validIDs([]string{"", id, "nope"}))
}
