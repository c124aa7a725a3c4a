package inmemdb

import (
	"context"
	"encoding/json"

	"github.com/AmelJaballah/SmartLearn-mern-project/core/activitylog"
)

type activityLogRepository struct {
	db *table[activitylog.Log]
}

var _ activitylog.Repository = (*activityLogRepository)(nil) // interface compliance check

func NewActivityLogRepository(db *DB) *activityLogRepository {
	return &activityLogRepository{db: db.activityLog}
}

func copyLog(l activitylog.Log) activitylog.Log {
	l.Metadata = append(json.RawMessage(nil), l.Metadata...)
	return l
}

func (repo *activityLogRepository) CreateLog(_ context.Context, l activitylog.Log) (activitylog.Log, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	l.ID = newID()
	repo.db.rows[l.ID] = copyLog(l)
	return l, nil
}

func (repo *activityLogRepository) QueryLogs(_ context.Context, filter activitylog.QueryFilter) ([]activitylog.Log, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	newestFirst := func(a, b activitylog.Log) bool {
		if !a.Timestamp.Equal(b.Timestamp) {
			return a.Timestamp.After(b.Timestamp)
		}
		return a.CreatedAt.After(b.CreatedAt)
	}
	logs := repo.db.all(filter.Match, newestFirst)
	for i := range logs {
		logs[i] = copyLog(logs[i])
	}
	return logs, nil
}

func (repo *activityLogRepository) GetLog(_ context.Context, id string) (activitylog.Log, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if l, ok := repo.db.rows[id]; ok {
		return copyLog(l), nil
	}
	return activitylog.Log{}, activitylog.ErrNotFound
}

func (repo *activityLogRepository) UpdateLog(_ context.Context, l activitylog.Log) (activitylog.Log, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.rows[l.ID]; !ok {
		return activitylog.Log{}, activitylog.ErrNotFound
	}
	repo.db.rows[l.ID] = copyLog(l)
	return l, nil
}

func (repo *activityLogRepository) DeleteLog(_ context.Context, id string) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.rows[id]; !ok {
		return activitylog.ErrNotFound
	}
	delete(repo.db.rows, id)
	return nil
}
