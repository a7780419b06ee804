// Package trace implements a durable execution-trace sink for vm.Event,
// generalizing the teacher's dist.MarshalChunk CBOR encoding
// (vm/dist/wire.go) and its content-addressed ContentStore idea
// (vm/content_store.go) into a queryable event log: each Event is
// CBOR-encoded and appended to an embedded DuckDB table rather than kept
// as an in-memory Go map keyed by digest, so a hosting application can
// run SQL over a completed run's call trace and static-field writes.
package trace

import (
	"database/sql"
	"fmt"

	"github.com/fxamacker/cbor/v2"
	"github.com/google/uuid"
	_ "github.com/marcboeker/go-duckdb"

	"github.com/objectir-lang/objectir/vm"
)

var cborEncMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("trace: failed to create CBOR enc mode: %v", err))
	}
	cborEncMode = em
}

// Sink is a vm.TraceSink backed by a DuckDB file, one row per Event.
type Sink struct {
	db    *sql.DB
	runID uuid.UUID
	seq   int64
}

// Open creates (or appends to) a DuckDB database at path and tags every
// event this Sink emits with a fresh run ID.
func Open(path string) (*Sink, error) {
	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, fmt.Errorf("trace: open %s: %w", path, err)
	}
	const schema = `
CREATE TABLE IF NOT EXISTS events (
	run_id   VARCHAR,
	seq      BIGINT,
	kind     VARCHAR,
	method   VARCHAR,
	class    VARCHAR,
	field    VARCHAR,
	depth    INTEGER,
	payload  BLOB
)`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("trace: create schema: %w", err)
	}
	return &Sink{db: db, runID: uuid.New()}, nil
}

// RunID returns the UUID tagging every event this Sink has emitted.
func (s *Sink) RunID() uuid.UUID { return s.runID }

// eventPayload is the CBOR-encoded form of an Event. vm.Value is an
// opaque tagged union with no exported fields for cbor to walk, so the
// payload carries its rendered string form instead of the Value itself.
type eventPayload struct {
	Value string `cbor:"value"`
}

// Emit implements vm.TraceSink. Encoding and insert failures are dropped
// (a trace sink must never abort the run it is observing).
func (s *Sink) Emit(e vm.Event) {
	s.seq++
	payload, err := cborEncMode.Marshal(eventPayload{Value: e.Value.ToStringValue()})
	if err != nil {
		return
	}
	_, _ = s.db.Exec(
		`INSERT INTO events (run_id, seq, kind, method, class, field, depth, payload) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		s.runID.String(), s.seq, string(e.Kind), e.Method, e.Class, e.Field, e.Depth, payload,
	)
}

// Close flushes and closes the underlying database handle.
func (s *Sink) Close() error {
	return s.db.Close()
}
