package sqlxrepos

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AmelJaballah/SmartLearn-mern-project/core"
	"github.com/AmelJaballah/SmartLearn-mern-project/core/activitylog"
)

var activityLogCols = []string{"id", "user_id", "action", "timestamp", "metadata", "created_at", "updated_at"}

func TestActivityLogRepository_CreateLog(t *testing.T) {
	db, mock := newMock(t)
	now := core.Now()
	userID := newID()

	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO activity_log`)).
		WithArgs(sqlmock.AnyArg(), userID, activitylog.ActionLogin, now, []byte(`{}`), now, now).
		WillReturnResult(sqlmock.NewResult(0, 1))

	l, err := NewActivityLogRepository(db).CreateLog(context.Background(), activitylog.Log{
		UserID: userID, Action: activitylog.ActionLogin, Timestamp: now, CreatedAt: now, UpdatedAt: now,
	})
	require.NoError(t, err)
	assert.True(t, validID(l.ID))
	assert.JSONEq(t, `{}`, string(l.Metadata))
}

func TestActivityLogRepository_QueryLogs(t *testing.T) {
	db, mock := newMock(t)
	userID := newID()
	at := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta(`FROM activity_log WHERE user_id = $1 AND action = $2 ORDER BY timestamp DESC, created_at DESC`)).
		WithArgs(userID, activitylog.ActionViewedCourse).
		WillReturnRows(sqlmock.NewRows(activityLogCols).
			AddRow(newID(), userID, activitylog.ActionViewedCourse, at, `{"courseId":"c-1"}`, at, at))

	repo := NewActivityLogRepository(db)
	list, err := repo.QueryLogs(context.Background(), activitylog.QueryFilter{UserID: userID, Action: activitylog.ActionViewedCourse})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.JSONEq(t, `{"courseId":"c-1"}`, string(list[0].Metadata))
	assert.Equal(t, at, list[0].Timestamp)

	// an id that is not a uuid matches nothing, without querying
	list, err = repo.QueryLogs(context.Background(), activitylog.QueryFilter{UserID: "nope"})
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestActivityLogRepository_GetDelete(t *testing.T) {
	db, mock := newMock(t)
	id := newID()

	mock.ExpectQuery(regexp.QuoteMeta(`FROM activity_log WHERE id = $1`)).
		WithArgs(id).
		WillReturnRows(sqlmock.NewRows(activityLogCols))
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM activity_log WHERE id = $1`)).
		WithArgs(id).
		WillReturnResult(sqlmock.NewResult(0, 0))

	repo := NewActivityLogRepository(db)
	_, err := repo.GetLog(context.Background(), id)
	assert.True(t, errors.Is(err, core.ErrNotFound))
	assert.True(t, errors.Is(repo.DeleteLog(context.Background(), id), core.ErrNotFound))

	_, err = repo.GetLog(context.Background(), "bad-id")
	assert.True(t, errors.Is(err, core.ErrNotFound))
}
