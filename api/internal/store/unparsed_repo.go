package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"pantry-scan/api/internal/normalize"
	"pantry-scan/api/internal/vision/types"
)

// UnparsedRepo keeps model answers the normalizer could not use. Scan
// results themselves are never stored.
type UnparsedRepo struct{ DB *sql.DB }

func NewUnparsedRepo(db *sql.DB) *UnparsedRepo { return &UnparsedRepo{DB: db} }

const schema = `
create table if not exists unparsed_responses (
  id         bigserial primary key,
  created_at timestamptz not null default now(),
  request_id text,
  kind       text not null,
  provider   text,
  model      text,
  reason     text,
  raw_text   text
)`

func (r *UnparsedRepo) EnsureSchema(ctx context.Context) error {
	_, err := r.DB.ExecContext(ctx, schema)
	return err
}

// Record implements normalize.Sink.
func (r *UnparsedRepo) Record(ctx context.Context, rec normalize.Record) error {
	const q = `
insert into unparsed_responses (created_at, request_id, kind, provider, model, reason, raw_text)
values ($1,$2,$3,$4,$5,$6,$7)`
	at := rec.At
	if at.IsZero() {
		at = time.Now().UTC()
	}
	_, err := r.DB.ExecContext(ctx, q,
		at, rec.RequestID, rec.Kind.String(), rec.Provider, rec.Model, rec.Reason, rec.RawText,
	)
	return err
}

// Recent возвращает последние записи, самые свежие первыми.
func (r *UnparsedRepo) Recent(ctx context.Context, limit int) ([]normalize.Record, error) {
	if limit <= 0 {
		limit = 20
	}
	const q = `
select created_at, coalesce(request_id,''), kind, coalesce(provider,''), coalesce(model,''),
       coalesce(reason,''), coalesce(raw_text,'')
from unparsed_responses
order by created_at desc
limit $1`
	rows, err := r.DB.QueryContext(ctx, q, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []normalize.Record
	for rows.Next() {
		var (
			rec  normalize.Record
			kind string
		)
		if err := rows.Scan(&rec.At, &rec.RequestID, &kind, &rec.Provider, &rec.Model, &rec.Reason, &rec.RawText); err != nil {
			return nil, err
		}
		rec.Kind = types.Kind(kind)
		out = append(out, rec)
	}
	return out, rows.Err()
}

// PurgeOlderThan удаляет старые записи, чтобы не раздувать БД.
func (r *UnparsedRepo) PurgeOlderThan(ctx context.Context, olderThan time.Duration) (int64, error) {
	if olderThan <= 0 {
		return 0, errors.New("olderThan must be > 0")
	}
	cutoff := time.Now().Add(-olderThan)
	const q = `delete from unparsed_responses where created_at < $1`
	res, err := r.DB.ExecContext(ctx, q, cutoff)
	if err != nil {
		return 0, err
	}
	aff, _ := res.RowsAffected()
	return aff, nil
}
