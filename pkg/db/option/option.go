// Package option carries composable query modifiers for the generic store.
package option

import (
	"fmt"
	"strings"

	"gorm.io/gorm"
)

type Operator string

const (
	EQ  Operator = "="
	GT  Operator = ">"
	GTE Operator = ">="
	LT  Operator = "<"
	LTE Operator = "<="
)

type QueryOption interface {
	Apply(db *gorm.DB) *gorm.DB
}

type Condition struct {
	Field    string
	Operator Operator
	Value    any
}

func (c Condition) Apply(db *gorm.DB) *gorm.DB {
	return db.Where(fmt.Sprintf("%s %s ?", c.Field, c.Operator), c.Value)
}

// ApplyOperator wraps a Condition as a QueryOption.
func ApplyOperator(c Condition) QueryOption { return c }

type QuerySortBy struct {
	Field string
	Desc  bool
	Allow map[string]bool
}

func (s QuerySortBy) Apply(db *gorm.DB) *gorm.DB {
	field := strings.TrimSpace(s.Field)
	if field == "" || (s.Allow != nil && !s.Allow[field]) {
		field = "created_at"
	}
	direction := "ASC"
	if s.Desc {
		direction = "DESC"
	}
	return db.Order(field + " " + direction)
}

// WithSortBy wraps a QuerySortBy as a QueryOption.
func WithSortBy(s QuerySortBy) QueryOption { return s }

type whereOption struct {
	query string
	args  []any
}

func (w whereOption) Apply(db *gorm.DB) *gorm.DB {
	return db.Where(w.query, w.args...)
}

// Where adds a raw condition for predicates struct filters cannot express,
// e.g. NULL checks and cursor comparisons.
func Where(query string, args ...any) QueryOption {
	return whereOption{query: query, args: args}
}

type limitOption struct{ limit int }

func (l limitOption) Apply(db *gorm.DB) *gorm.DB {
	if l.limit <= 0 {
		return db
	}
	return db.Limit(l.limit)
}

func WithLimit(limit int) QueryOption { return limitOption{limit: limit} }
