package inmemdb

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/AmelJaballah/SmartLearn-mern-project/core"
	"github.com/AmelJaballah/SmartLearn-mern-project/core/activitylog"
	"github.com/AmelJaballah/SmartLearn-mern-project/core/chat"
	"github.com/AmelJaballah/SmartLearn-mern-project/core/course"
	"github.com/AmelJaballah/SmartLearn-mern-project/core/enrollment"
	"github.com/AmelJaballah/SmartLearn-mern-project/core/exercise"
	"github.com/AmelJaballah/SmartLearn-mern-project/core/profile"
	"github.com/AmelJaballah/SmartLearn-mern-project/core/submission"
	"github.com/AmelJaballah/SmartLearn-mern-project/core/user"
)

type (
	// DB is a process local store, used in debug mode when no database is configured and in tests.
	DB struct {
		user        *table[user.User]
		course      *table[course.Course]
		exercise    *table[exercise.Exercise]
		submission  *table[submission.Submission]
		enrollment  *table[enrollment.Enrollment]
		chatSession *table[chat.Session]
		profile     *table[profile.Profile]
		activityLog *table[activitylog.Log]
	}

	table[T any] struct {
		sync.RWMutex
		rows map[string]T
	}
)

func newTable[T any]() *table[T] {
	return &table[T]{rows: make(map[string]T)}
}

func Open() (*DB, error) {
	db := &DB{
		user:        newTable[user.User](),
		course:      newTable[course.Course](),
		exercise:    newTable[exercise.Exercise](),
		submission:  newTable[submission.Submission](),
		enrollment:  newTable[enrollment.Enrollment](),
		chatSession: newTable[chat.Session](),
		profile:     newTable[profile.Profile](),
		activityLog: newTable[activitylog.Log](),
	}
	return db, nil
}

// Reset empties every table.
func (db *DB) Reset() {
	resetTable(db.user)
	resetTable(db.course)
	resetTable(db.exercise)
	resetTable(db.submission)
	resetTable(db.enrollment)
	resetTable(db.chatSession)
	resetTable(db.profile)
	resetTable(db.activityLog)
}

func resetTable[T any](t *table[T]) {
	t.Lock()
	t.rows = make(map[string]T)
	t.Unlock()
}

func newID() string {
	return uuid.New().String()
}

// all returns the rows kept by `keep`, sorted with `less`. Callers hold the read lock.
func (t *table[T]) all(keep func(T) bool, less func(a, b T) bool) []T {
	out := make([]T, 0, len(t.rows))
	for _, row := range t.rows {
		if keep == nil || keep(row) {
			out = append(out, row)
		}
	}
	if less != nil {
		sort.SliceStable(out, func(i, j int) bool { return less(out[i], out[j]) })
	}
	return out
}

func copyStrings(s []string) []string {
	if s == nil {
		return nil
	}
	return append(make([]string, 0, len(s)), s...)
}

// comparator returns <0, 0 or >0 like strings.Compare.
type comparator[T any] func(a, b T) int

// orderedLess builds a less func from the orderings whose field is in `fields`.
// fallback is used when no ordering applies or when all of them tie.
func orderedLess[T any](orderings []core.DBOrdering, fields map[string]comparator[T], fallback func(a, b T) bool) func(a, b T) bool {
	cmps := make([]comparator[T], 0, len(orderings))
	for _, ord := range orderings {
		cmp, ok := fields[ord.Field]
		if !ok {
			continue
		}
		if !ord.Ascending {
			asc := cmp
			cmp = func(a, b T) int { return -asc(a, b) }
		}
		cmps = append(cmps, cmp)
	}
	return func(a, b T) bool {
		for _, cmp := range cmps {
			if c := cmp(a, b); c != 0 {
				return c < 0
			}
		}
		return fallback(a, b)
	}
}

func compareTimes(a, b time.Time) int {
	switch {
	case a.Before(b):
		return -1
	case a.After(b):
		return 1
	}
	return 0
}
