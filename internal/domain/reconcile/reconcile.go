// Package reconcile synchronizes a client-submitted collection of rows
// against previously persisted rows, producing the insert/update/delete
// sets needed to make storage match the submission.
package reconcile

// Row is a persistable collection element keyed by id. A row with an empty
// id has not been persisted yet. Equal reports whether two rows hold the
// same values; rows with pointer or decimal fields compare those by value,
// not identity.
type Row[T any] interface {
	RowID() string
	Valid() bool
	Equal(T) bool
}

// Result holds the three disjoint change sets produced by Diff.
type Result[T Row[T]] struct {
	ToInsert []T
	ToUpdate []T
	ToDelete []T
}

// Empty reports whether applying the result would change nothing.
func (r Result[T]) Empty() bool {
	return len(r.ToInsert) == 0 && len(r.ToUpdate) == 0 && len(r.ToDelete) == 0
}

// Diff computes the changes needed to replace existing with desired.
//
// Desired rows carrying an id are full-row updates, except rows equal to
// their stored counterpart, which produce no change. Persisted rows whose
// id is absent from desired are deleted; omitting an id means removal, not
// a sparse patch. Desired rows without an id are inserts, except rows
// failing their validity predicate, which are dropped silently. Running
// Diff against a state that already matches desired yields an empty result.
func Diff[T Row[T]](existing, desired []T) Result[T] {
	var res Result[T]

	stored := make(map[string]T, len(existing))
	for _, row := range existing {
		stored[row.RowID()] = row
	}

	keep := make(map[string]bool, len(desired))
	for _, row := range desired {
		if id := row.RowID(); id != "" {
			keep[id] = true
			if prev, ok := stored[id]; ok && row.Equal(prev) {
				continue
			}
			res.ToUpdate = append(res.ToUpdate, row)
		} else if row.Valid() {
			res.ToInsert = append(res.ToInsert, row)
		}
	}

	for _, row := range existing {
		if !keep[row.RowID()] {
			res.ToDelete = append(res.ToDelete, row)
		}
	}

	return res
}
