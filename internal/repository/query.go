package repository

import (
	"fmt"
	"strings"

	"github.com/spec-kit/shopfloor-issues/internal/domain"
)

// whereBuilder accumulates fixed clause fragments with positional parameters.
// Values are only ever bound through args, never formatted into the SQL text.
type whereBuilder struct {
	clauses []string
	args    []any
}

func newWhereBuilder() *whereBuilder {
	return &whereBuilder{clauses: []string{"1=1"}}
}

// add appends a clause whose single placeholder is written as %s.
func (b *whereBuilder) add(clause string, arg any) {
	b.args = append(b.args, arg)
	b.clauses = append(b.clauses, fmt.Sprintf(clause, fmt.Sprintf("$%d", len(b.args))))
}

func (b *whereBuilder) addDateRange(column string, rng domain.DateRange) {
	if rng.From != nil {
		b.add(column+" >= %s", *rng.From)
	}
	if rng.To != nil {
		b.add(column+" <= %s", *rng.To)
	}
}

func (b *whereBuilder) sql() string {
	return strings.Join(b.clauses, " AND ")
}
