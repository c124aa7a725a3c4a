package core

import "strings"

// DBOrdering is one ORDER BY term requested by a client, e.g. `?ordering=-created_at`.
type DBOrdering struct {
	Field     string
	Ascending bool
}

func (ord DBOrdering) String() string {
	if ord.Ascending {
		return ord.Field + " ASC"
	}
	return ord.Field + " DESC"
}

// OrderingClause renders `orderings` as an ORDER BY list, keeping only the fields in `allowed`.
// `fallback` is used when nothing is left.
func OrderingClause(orderings []DBOrdering, allowed []string, fallback string) string {
	parts := make([]string, 0, len(orderings))
	for _, ord := range orderings {
		if StringInSlice(ord.Field, allowed) {
			parts = append(parts, ord.String())
		}
	}
	if len(parts) == 0 {
		return fallback
	}
	return strings.Join(parts, ", ")
}
