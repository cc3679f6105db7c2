package domain

import "fmt"

var matchNothing = Clause{SQL: "1 = 0"}

// SortDirection orders query results.
type SortDirection int

const (
	OrderAscending  SortDirection = 1
	OrderDescending SortDirection = 2
)

func (d SortDirection) String() string {
	if d == OrderAscending {
		return "ASC"
	}
	return "DESC"
}

// ParseSortDirection accepts "asc"/"ascending"/"1" and "desc"/"descending"/"2".
func ParseSortDirection(s string) (SortDirection, error) {
	switch s {
	case "asc", "ascending", "ASC", "1":
		return OrderAscending, nil
	case "desc", "descending", "DESC", "2":
		return OrderDescending, nil
	}
	return 0, invalidArgument("order", "invalid direction: %q", s)
}

// Query filters and orders downloads. The zero value is not usable; create
// one with NewQuery.
type Query struct {
	ids         []int64
	filterIDs   bool
	statusMask  *PublicStatus
	visibleOnly bool
	orderColumn string
	direction   SortDirection
}

// NewQuery returns a query over every download, newest modification first.
func NewQuery() *Query {
	return &Query{
		orderColumn: ColLastModified,
		direction:   OrderDescending,
	}
}

// FilterByID restricts the query to the given ids.
func (q *Query) FilterByID(ids ...int64) *Query {
	q.ids = ids
	q.filterIDs = true
	return q
}

// FilterByStatus restricts the query to downloads whose public status is set in mask.
func (q *Query) FilterByStatus(mask PublicStatus) *Query {
	q.statusMask = &mask
	return q
}

// OnlyIncludeVisibleInDownloadsUI excludes downloads hidden from the downloads UI.
func (q *Query) OnlyIncludeVisibleInDownloadsUI(value bool) *Query {
	q.visibleOnly = value
	return q
}

// OrderBy sets the sort column and direction. Only the public columns
// last_modified_timestamp and total_size can be sorted on; the query is left
// unchanged when either argument is rejected.
func (q *Query) OrderBy(column string, direction SortDirection) error {
	if direction != OrderAscending && direction != OrderDescending {
		return invalidArgument("direction", "invalid direction: %d", int(direction))
	}

	switch Column(column) {
	case ColumnLastModifiedTimestamp:
		q.orderColumn = ColLastModified
	case ColumnTotalSizeBytes:
		q.orderColumn = ColTotalBytes
	default:
		return invalidArgument("order_by", "cannot order by %s", column)
	}
	q.direction = direction
	return nil
}

// Compile builds the selection and ORDER BY directive for the store.
func (q *Query) Compile(t *Translator) (Selection, string) {
	var sel Selection

	if q.filterIDs {
		sel = sel.And(IDClause(q.ids))
	}

	if q.statusMask != nil {
		spans := t.SpansForMask(*q.statusMask)
		if len(spans) == 0 {
			sel = sel.And(matchNothing)
		} else {
			sel = sel.And(StatusClause(spans))
		}
	}

	if q.visibleOnly {
		sel = sel.And(Clause{SQL: ColVisibleInDownloads + " = ?", Args: []interface{}{true}})
	}

	sel = sel.And(NotDeletedClause())

	// id breaks ties between rows modified in the same millisecond.
	return sel, fmt.Sprintf("%s %s, %s %s", q.orderColumn, q.direction, ColID, q.direction)
}
