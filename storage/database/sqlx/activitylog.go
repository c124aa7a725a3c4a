package sqlxrepos

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"
	"github.com/pkg/errors"

	"github.com/AmelJaballah/SmartLearn-mern-project/core"
	"github.com/AmelJaballah/SmartLearn-mern-project/core/activitylog"
)

const activityLogColumns = `id, user_id, action, timestamp, metadata, created_at, updated_at`

type dbActivityLog struct {
	ID        string         `db:"id"`
	UserID    string         `db:"user_id"`
	Action    string         `db:"action"`
	Timestamp time.Time      `db:"timestamp"`
	Metadata  types.JSONText `db:"metadata"`
	CreatedAt time.Time      `db:"created_at"`
	UpdatedAt time.Time      `db:"updated_at"`
}

func toDBActivityLog(l activitylog.Log) dbActivityLog {
	meta := types.JSONText(l.Metadata)
	if len(meta) == 0 {
		meta = types.JSONText("{}")
	}
	return dbActivityLog{
		ID:        l.ID,
		UserID:    l.UserID,
		Action:    l.Action,
		Timestamp: l.Timestamp.UTC(),
		Metadata:  meta,
		CreatedAt: l.CreatedAt.UTC(),
		UpdatedAt: l.UpdatedAt.UTC(),
	}
}

func (l dbActivityLog) toLog() activitylog.Log {
	return activitylog.Log{
		ID:        l.ID,
		UserID:    l.UserID,
		Action:    l.Action,
		Timestamp: l.Timestamp.UTC(),
		Metadata:  json.RawMessage(l.Metadata),
		CreatedAt: l.CreatedAt.UTC(),
		UpdatedAt: l.UpdatedAt.UTC(),
	}
}

type activityLogRepository struct {
	db *sqlx.DB
}

var _ activitylog.Repository = (*activityLogRepository)(nil) // interface compliance check

func NewActivityLogRepository(db *sqlx.DB) *activityLogRepository {
	return &activityLogRepository{db: db}
}

func (repo *activityLogRepository) CreateLog(ctx context.Context, l activitylog.Log) (activitylog.Log, error) {
	l.ID = newID()
	row := toDBActivityLog(l)
	_, err := repo.db.NamedExecContext(ctx, `
		INSERT INTO activity_log (`+activityLogColumns+`)
		VALUES (:id, :user_id, :action, :timestamp, :metadata, :created_at, :updated_at)`,
		row)
	if err != nil {
		if isForeignKeyViolation(err) {
			return activitylog.Log{}, core.NewValidationError(nil, core.FieldError{Field: "user_id", Error: "user not found"})
		}
		return activitylog.Log{}, errors.Wrap(err, "inserting activity log")
	}
	return row.toLog(), nil
}

func (repo *activityLogRepository) QueryLogs(ctx context.Context, filter activitylog.QueryFilter) ([]activitylog.Log, error) {
	var where whereClause
	if filter.UserID != "" {
		if !validID(filter.UserID) {
			return []activitylog.Log{}, nil
		}
		where.add("user_id = ?", filter.UserID)
	}
	if filter.Action != "" {
		where.add("action = ?", filter.Action)
	}

	q := `SELECT ` + activityLogColumns + ` FROM activity_log` + where.String() + ` ORDER BY timestamp DESC, created_at DESC`
	var rows []dbActivityLog
	if err := repo.db.SelectContext(ctx, &rows, repo.db.Rebind(q), where.args...); err != nil {
		return nil, errors.Wrap(err, "querying activity logs")
	}
	list := make([]activitylog.Log, 0, len(rows))
	for _, row := range rows {
		list = append(list, row.toLog())
	}
	return list, nil
}

func (repo *activityLogRepository) GetLog(ctx context.Context, id string) (activitylog.Log, error) {
	if !validID(id) {
		return activitylog.Log{}, activitylog.ErrNotFound
	}
	var row dbActivityLog
	if err := repo.db.GetContext(ctx, &row, `SELECT `+activityLogColumns+` FROM activity_log WHERE id = $1`, id); err != nil {
		return activitylog.Log{}, trapNoRowsErr(err, activitylog.ErrNotFound, "finding activity log")
	}
	return row.toLog(), nil
}

func (repo *activityLogRepository) UpdateLog(ctx context.Context, l activitylog.Log) (activitylog.Log, error) {
	if !validID(l.ID) {
		return activitylog.Log{}, activitylog.ErrNotFound
	}
	row := toDBActivityLog(l)
	res, err := repo.db.NamedExecContext(ctx, `
		UPDATE activity_log SET action = :action, timestamp = :timestamp, metadata = :metadata, updated_at = :updated_at
		WHERE id = :id`, row)
	if err != nil {
		return activitylog.Log{}, errors.Wrap(err, "updating activity log")
	}
	if err = checkAffected(res, activitylog.ErrNotFound, "updating activity log"); err != nil {
		return activitylog.Log{}, err
	}
	return row.toLog(), nil
}

func (repo *activityLogRepository) DeleteLog(ctx context.Context, id string) error {
	if !validID(id) {
		return activitylog.ErrNotFound
	}
	res, err := repo.db.ExecContext(ctx, `DELETE FROM activity_log WHERE id = $1`, id)
	if err != nil {
		return errors.Wrap(err, "deleting activity log")
	}
	return checkAffected(res, activitylog.ErrNotFound, "deleting activity log")
}
