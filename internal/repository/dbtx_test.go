package repository

import (
	"context"
	"fmt"
	"reflect"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// recordedCall is one statement sent through recordingDB.
type recordedCall struct {
	sql  string
	args []any
}

// recordingDB is a DBTX that records every statement and answers from canned
// results in call order.
type recordingDB struct {
	calls   []recordedCall
	rows    [][][]any
	tags    []string
	err     error
	rowsErr error
}

func (db *recordingDB) record(sql string, args []any) {
	db.calls = append(db.calls, recordedCall{sql: normalizeSQL(sql), args: args})
}

func (db *recordingDB) next() [][]any {
	if len(db.rows) == 0 {
		return nil
	}
	out := db.rows[0]
	db.rows = db.rows[1:]
	return out
}

func (db *recordingDB) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	db.record(sql, args)
	if db.err != nil {
		return pgconn.CommandTag{}, db.err
	}
	tag := "DELETE 0"
	if len(db.tags) > 0 {
		tag, db.tags = db.tags[0], db.tags[1:]
	}
	return pgconn.NewCommandTag(tag), nil
}

func (db *recordingDB) Query(_ context.Context, sql string, args ...any) (pgx.Rows, error) {
	db.record(sql, args)
	if db.err != nil {
		return nil, db.err
	}
	return &cannedRows{rows: db.next(), idx: -1, err: db.rowsErr}, nil
}

func (db *recordingDB) QueryRow(_ context.Context, sql string, args ...any) pgx.Row {
	db.record(sql, args)
	if db.err != nil {
		return cannedRow{err: db.err}
	}
	rows := db.next()
	if len(rows) == 0 {
		return cannedRow{err: pgx.ErrNoRows}
	}
	return cannedRow{values: rows[0]}
}

func (db *recordingDB) lastCall() recordedCall {
	if len(db.calls) == 0 {
		return recordedCall{}
	}
	return db.calls[len(db.calls)-1]
}

type cannedRow struct {
	values []any
	err    error
}

func (r cannedRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	return assignValues(r.values, dest)
}

type cannedRows struct {
	rows [][]any
	idx  int
	err  error
}

func (r *cannedRows) Close()                                       {}
func (r *cannedRows) Err() error                                   { return r.err }
func (r *cannedRows) CommandTag() pgconn.CommandTag                { return pgconn.NewCommandTag("SELECT") }
func (r *cannedRows) FieldDescriptions() []pgconn.FieldDescription { return nil }
func (r *cannedRows) RawValues() [][]byte                          { return nil }
func (r *cannedRows) Conn() *pgx.Conn                              { return nil }

func (r *cannedRows) Next() bool {
	r.idx++
	return r.idx < len(r.rows)
}

func (r *cannedRows) Scan(dest ...any) error {
	return assignValues(r.rows[r.idx], dest)
}

func (r *cannedRows) Values() ([]any, error) {
	return r.rows[r.idx], nil
}

func assignValues(values []any, dest []any) error {
	if len(values) != len(dest) {
		return fmt.Errorf("scan: %d values into %d destinations", len(values), len(dest))
	}
	for i, v := range values {
		target := reflect.ValueOf(dest[i]).Elem()
		if v == nil {
			target.Set(reflect.Zero(target.Type()))
			continue
		}
		value := reflect.ValueOf(v)
		switch {
		case value.Type().AssignableTo(target.Type()):
			target.Set(value)
		case value.Type().ConvertibleTo(target.Type()):
			target.Set(value.Convert(target.Type()))
		default:
			return fmt.Errorf("scan: column %d: cannot assign %T to %s", i, v, target.Type())
		}
	}
	return nil
}

// normalizeSQL collapses whitespace so assertions do not depend on indentation.
func normalizeSQL(sql string) string {
	return strings.Join(strings.Fields(sql), " ")
}
