package entities

import "time"

// QueryKind represents the engine operation a query runs
type QueryKind string

const (
	QueryLocate    QueryKind = "locate"
	QueryLocateAll QueryKind = "locate_all"
	QueryIsAbsent  QueryKind = "is_absent"
)

// Query is one request against a registered component
type Query struct {
	Kind      QueryKind     `json:"kind"`
	Component string        `json:"component"`
	Condition string        `json:"condition,omitempty"`
	Options   SearchOptions `json:"-"`
}

// QueryResult represents the outcome of a query
type QueryResult struct {
	Query    Query         `json:"query"`
	Success  bool          `json:"success"`
	Elements []PageElement `json:"elements,omitempty"`
	Absent   bool          `json:"absent,omitempty"`
	Error    string        `json:"error,omitempty"`
	Elapsed  time.Duration `json:"elapsed"`
}
