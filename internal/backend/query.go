package backend

import "fmt"

// FieldCreatedAt names the backend-assigned creation time in queries
const FieldCreatedAt = "$createdAt"

// QueryMethod is the kind of a list query
type QueryMethod string

const (
	QueryEqual     QueryMethod = "equal"
	QueryOrderDesc QueryMethod = "orderDesc"
	QueryLimit     QueryMethod = "limit"
)

// Query narrows a ListDocuments call
type Query struct {
	Method QueryMethod
	Field  string
	Value  any
	Limit  int
}

// Equal filters documents whose field equals value
func Equal(field string, value any) Query {
	return Query{Method: QueryEqual, Field: field, Value: value}
}

// OrderDesc sorts documents by field, newest/highest first
func OrderDesc(field string) Query {
	return Query{Method: QueryOrderDesc, Field: field}
}

// Limit caps the number of returned documents
func Limit(n int) Query {
	return Query{Method: QueryLimit, Limit: n}
}

func (q Query) String() string {
	switch q.Method {
	case QueryEqual:
		return fmt.Sprintf("equal(%q, %v)", q.Field, q.Value)
	case QueryOrderDesc:
		return fmt.Sprintf("orderDesc(%q)", q.Field)
	case QueryLimit:
		return fmt.Sprintf("limit(%d)", q.Limit)
	}
	return string(q.Method)
}
