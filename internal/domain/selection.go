package domain

import "strings"

// Clause is one parameterized predicate. Placeholders are '?' and Args
// holds their bound values in order.
type Clause struct {
	SQL  string
	Args []interface{}
}

// Selection is a conjunction of clauses understood by the store.
type Selection struct {
	Clauses []Clause
}

// And returns a new selection with the given clauses appended.
func (s Selection) And(clauses ...Clause) Selection {
	merged := make([]Clause, 0, len(s.Clauses)+len(clauses))
	merged = append(merged, s.Clauses...)
	merged = append(merged, clauses...)
	return Selection{Clauses: merged}
}

// Where renders the selection as a single predicate and its bound values.
// An empty selection renders as an empty string.
func (s Selection) Where() (string, []interface{}) {
	parts := make([]string, 0, len(s.Clauses))
	var args []interface{}
	for _, c := range s.Clauses {
		parts = append(parts, c.SQL)
		args = append(args, c.Args...)
	}
	return strings.Join(parts, " AND "), args
}

// IDClause matches any of the given ids: id IN (?, ?, ...). No ids match
// nothing.
func IDClause(ids []int64) Clause {
	if len(ids) == 0 {
		return matchNothing
	}
	args := make([]interface{}, 0, len(ids))
	for _, id := range ids {
		args = append(args, id)
	}
	placeholders := strings.Repeat(", ?", len(ids))[2:]
	return Clause{SQL: ColID + " IN (" + placeholders + ")", Args: args}
}

// StatusClause matches internal statuses inside any of the spans.
func StatusClause(spans []StatusSpan) Clause {
	parts := make([]string, 0, len(spans))
	var args []interface{}
	for _, span := range spans {
		if span.Single() {
			parts = append(parts, ColStatus+" = ?")
			args = append(args, int(span.Lo))
			continue
		}
		parts = append(parts, "("+ColStatus+" >= ? AND "+ColStatus+" < ?)")
		args = append(args, int(span.Lo), int(span.Hi))
	}
	return Clause{SQL: "(" + strings.Join(parts, " OR ") + ")", Args: args}
}

// NotClause negates a clause.
func NotClause(c Clause) Clause {
	return Clause{SQL: "NOT " + c.SQL, Args: c.Args}
}

// NotDeletedClause excludes soft-deleted rows.
func NotDeletedClause() Clause {
	return Clause{SQL: ColDeleted + " = ?", Args: []interface{}{false}}
}

// OwnerClause limits rows to those created by owner.
func OwnerClause(owner string) Clause {
	return Clause{SQL: ColNotificationPackage + " = ?", Args: []interface{}{owner}}
}
