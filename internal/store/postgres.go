package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"earshot/pkg/record"
)

// Postgres persists records in PostgreSQL, storing the wire JSON as JSONB
// beside the columns needed for lookups. Seq comes from a database sequence
// so it stays monotonic across processes.
type Postgres struct {
	db  *sql.DB
	now func() time.Time
}

// PostgresOption configures a Postgres store.
type PostgresOption func(*Postgres)

// WithPostgresClock sets the clock used for timestamp stamping.
func WithPostgresClock(now func() time.Time) PostgresOption {
	return func(s *Postgres) {
		if now != nil {
			s.now = now
		}
	}
}

func NewPostgres(db *sql.DB, opts ...PostgresOption) *Postgres {
	s := &Postgres{db: db, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// EnsureSchema creates the records table and sequence when they are missing.
func (s *Postgres) EnsureSchema(ctx context.Context) error {
	const schema = `
		CREATE SEQUENCE IF NOT EXISTS records_seq;
		CREATE TABLE IF NOT EXISTS records (
			guid TEXT PRIMARY KEY,
			typ  TEXT NOT NULL,
			seq  BIGINT NOT NULL,
			body JSONB NOT NULL
		);
		CREATE INDEX IF NOT EXISTS records_typ_idx ON records (typ, seq);
	`
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("ensure records schema: %w", err)
	}
	return nil
}

func (s *Postgres) Get(ctx context.Context, guid string) (record.UntypedRecord, error) {
	var body []byte
	err := s.db.QueryRowContext(ctx, `SELECT body FROM records WHERE guid = $1`, guid).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return record.UntypedRecord{}, ErrNotFound
	}
	if err != nil {
		return record.UntypedRecord{}, fmt.Errorf("get record %s: %w", guid, err)
	}
	return decodeBody(body)
}

func (s *Postgres) Put(ctx context.Context, rec record.UntypedRecord) (record.UntypedRecord, error) {
	var seq int64
	if err := s.db.QueryRowContext(ctx, `SELECT nextval('records_seq')`).Scan(&seq); err != nil {
		return record.UntypedRecord{}, fmt.Errorf("next seq: %w", err)
	}
	meta := rec.Meta()
	meta.Seq = uint32(seq)
	meta.Timestamp = uint32(s.now().Unix())
	rec.SetMeta(meta)

	body, err := json.Marshal(rec)
	if err != nil {
		return record.UntypedRecord{}, fmt.Errorf("encode record %s: %w", rec.GUID(), err)
	}
	const query = `
		INSERT INTO records (guid, typ, seq, body)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (guid) DO UPDATE SET
			typ = EXCLUDED.typ,
			seq = EXCLUDED.seq,
			body = EXCLUDED.body
	`
	if _, err := s.db.ExecContext(ctx, query, rec.GUID(), rec.Type(), seq, body); err != nil {
		return record.UntypedRecord{}, fmt.Errorf("put record %s: %w", rec.GUID(), err)
	}
	return rec, nil
}

func (s *Postgres) ByType(ctx context.Context, typ string) ([]record.UntypedRecord, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT body FROM records WHERE typ = $1 ORDER BY seq`, typ)
	if err != nil {
		return nil, fmt.Errorf("list records of type %s: %w", typ, err)
	}
	defer rows.Close()

	var out []record.UntypedRecord
	for rows.Next() {
		var body []byte
		if err := rows.Scan(&body); err != nil {
			return nil, fmt.Errorf("scan record body: %w", err)
		}
		rec, err := decodeBody(body)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate records: %w", err)
	}
	return out, nil
}

func (s *Postgres) Delete(ctx context.Context, guid string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM records WHERE guid = $1`, guid)
	if err != nil {
		return fmt.Errorf("delete record %s: %w", guid, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete record %s: %w", guid, err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func decodeBody(body []byte) (record.UntypedRecord, error) {
	var rec record.UntypedRecord
	if err := json.Unmarshal(body, &rec); err != nil {
		return record.UntypedRecord{}, fmt.Errorf("decode stored record: %w", err)
	}
	return rec, nil
}
