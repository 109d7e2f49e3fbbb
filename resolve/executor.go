package resolve

import (
	"context"
	"database/sql"
	"encoding/json"

	_ "github.com/lib/pq"

	"github.com/exograph/exograph/exoerr"
	"github.com/exograph/exograph/ir"
)

// queryer is the subset of *sql.DB / *sql.Tx this package needs, mirroring
// the teacher's dialect/sql.Conn split between whichever ExecQuerier happens
// to be live for a given statement (driver.go's Conn wraps exactly this
// pair over a pooled connection vs. a transaction).
type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// DB owns the pooled connection every request checks a client out of for the
// duration of its query fields (spec.md §5 "each request checks out exactly
// one client for the duration of the request" -- here relaxed per-field for
// read-only queries, since they never share state, and tightened back to one
// client for a mutation document's shared transaction).
type DB struct {
	Conn *sql.DB
}

// Open registers the lib/pq driver and opens a pooled connection to the
// target database (spec.md §6 "PostgreSQL, standard wire protocol").
func Open(dataSourceName string) (*DB, error) {
	conn, err := sql.Open("postgres", dataSourceName)
	if err != nil {
		return nil, exoerr.FromPostgres(err)
	}
	return &DB{Conn: conn}, nil
}

func (d *DB) Close() error { return d.Conn.Close() }

// QueryJSON runs a compiled, already-parameterized statement directly
// against the pool -- the path every top-level query field resolves
// through, independent of any mutation transaction in flight on a sibling
// goroutine.
func (d *DB) QueryJSON(ctx context.Context, query string, args []any) (any, error) {
	return queryJSON(ctx, d.Conn, query, args)
}

// Begin opens the transaction one mutation document's writes (and any
// module call they trigger) share for their duration (spec.md §4.5, §5 "All
// writes from one top-level mutation execute in one DB transaction").
func (d *DB) Begin(ctx context.Context) (*Tx, error) {
	tx, err := d.Conn.BeginTx(ctx, nil)
	if err != nil {
		return nil, exoerr.FromPostgres(err)
	}
	return &Tx{tx: tx}, nil
}

// Tx wraps the shared transaction backing one mutation document.
type Tx struct {
	tx *sql.Tx
}

func (t *Tx) QueryJSON(ctx context.Context, query string, args []any) (any, error) {
	return queryJSON(ctx, t.tx, query, args)
}

func (t *Tx) Commit() error {
	if err := t.tx.Commit(); err != nil {
		return exoerr.FromPostgres(err)
	}
	return nil
}

func (t *Tx) Rollback() error {
	if err := t.tx.Rollback(); err != nil {
		return exoerr.FromPostgres(err)
	}
	return nil
}

// queryJSON runs query against q and decodes its sole `::text` JSON result
// column -- every statement sqlgen.Compile/CompileInsert/CompileUpdate/
// CompileDelete emits projects exactly one such column, already aggregated
// with json_agg/coalesce so a zero-row match decodes to an empty JSON array
// rather than no row at all (spec.md §8 "Zero-row update/delete returns the
// empty list / null without error"). unwrapByCardinality is what turns that
// array back into the single object or null a ZeroOrOne/One field expects.
func queryJSON(ctx context.Context, q queryer, query string, args []any) (any, error) {
	var text sql.NullString
	row := q.QueryRowContext(ctx, query, args...)
	if err := row.Scan(&text); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, exoerr.FromPostgres(err)
	}
	if !text.Valid {
		return nil, nil
	}
	var v any
	if err := json.Unmarshal([]byte(text.String), &v); err != nil {
		return nil, exoerr.Internal(err)
	}
	return v, nil
}

// unwrapByCardinality collapses the JSON array every compiled statement
// produces down to what the field's own cardinality promises: a bare object
// (or null) for One/ZeroOrOne, the array as-is for Many.
func unwrapByCardinality(v any, card ir.Cardinality) any {
	arr, ok := v.([]any)
	if !ok {
		return v
	}
	if card == ir.Many {
		return arr
	}
	if len(arr) == 0 {
		return nil
	}
	return arr[0]
}
