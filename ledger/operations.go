package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// now is replaced in tests.
var now = time.Now

// RecordMedia inserts m. Recording the same payload and file path again
// returns the existing id; the same payload for another file fails with
// ErrDuplicatePayload.
func (d *DB) RecordMedia(ctx context.Context, m Media) (int64, error) {
	var (
		id   int64
		path string
	)
	err := d.db.QueryRowContext(ctx, "SELECT id, file_path FROM media WHERE payload = ?", m.Payload).Scan(&id, &path)
	if err == nil {
		if path != m.FilePath {
			return 0, fmt.Errorf("%w: %q is recorded for %s", ErrDuplicatePayload, m.Payload, path)
		}
		return id, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("failed to query media: %w", err)
	}

	if m.CreatedAt.IsZero() {
		m.CreatedAt = now()
	}
	result, err := d.db.ExecContext(ctx,
		"INSERT INTO media (payload, media_type, mode, file_path, created_at) VALUES (?, ?, ?, ?, ?)",
		m.Payload, m.MediaType, m.Mode, m.FilePath, m.CreatedAt.UnixNano(),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert media: %w", err)
	}
	return result.LastInsertId()
}

// RecordDistribution stores that the medium issued as creator was shared
// with recipient as filePath. The creator must already be on record.
func (d *DB) RecordDistribution(ctx context.Context, creator, recipient, filePath string) (int64, error) {
	m, err := d.Lookup(ctx, creator)
	if err != nil {
		return 0, err
	}

	var id int64
	err = d.db.QueryRowContext(ctx,
		"SELECT id FROM distributions WHERE media_id = ? AND recipient = ?",
		m.ID, recipient,
	).Scan(&id)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("failed to query distribution: %w", err)
	}

	result, err := d.db.ExecContext(ctx,
		"INSERT INTO distributions (media_id, recipient, file_path, shared_at) VALUES (?, ?, ?, ?)",
		m.ID, recipient, filePath, now().UnixNano(),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert distribution: %w", err)
	}
	return result.LastInsertId()
}

// Lookup returns the medium issued with payload.
func (d *DB) Lookup(ctx context.Context, payload string) (*Media, error) {
	var (
		m       Media
		created int64
	)
	err := d.db.QueryRowContext(ctx,
		"SELECT id, payload, media_type, mode, file_path, created_at FROM media WHERE payload = ?",
		payload,
	).Scan(&m.ID, &m.Payload, &m.MediaType, &m.Mode, &m.FilePath, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: media %q", ErrNotFound, payload)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query media: %w", err)
	}
	m.CreatedAt = time.Unix(0, created)
	return &m, nil
}

// Distributions lists every recipient copy of the medium issued as creator,
// oldest first.
func (d *DB) Distributions(ctx context.Context, creator string) ([]*Distribution, error) {
	rows, err := d.db.QueryContext(ctx, `
SELECT d.id, d.media_id, d.recipient, d.file_path, d.shared_at
FROM distributions d JOIN media m ON m.id = d.media_id
WHERE m.payload = ?
ORDER BY d.shared_at, d.id`, creator)
	if err != nil {
		return nil, fmt.Errorf("failed to query distributions: %w", err)
	}
	defer rows.Close()

	var out []*Distribution
	for rows.Next() {
		dist, err := scanDistribution(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, dist)
	}
	return out, rows.Err()
}

// Trace resolves creator and recipient extracted from a dual-layer copy.
func (d *DB) Trace(ctx context.Context, creator, recipient string) (*Trace, error) {
	m, err := d.Lookup(ctx, creator)
	if err != nil {
		return nil, err
	}
	t := &Trace{Media: m}
	row := d.db.QueryRowContext(ctx,
		"SELECT id, media_id, recipient, file_path, shared_at FROM distributions WHERE media_id = ? AND recipient = ?",
		m.ID, recipient,
	)
	dist, err := scanDistribution(row)
	if errors.Is(err, sql.ErrNoRows) {
		return t, nil
	}
	if err != nil {
		return nil, err
	}
	t.Distribution = dist
	return t, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanDistribution(s scanner) (*Distribution, error) {
	var (
		dist   Distribution
		shared int64
	)
	if err := s.Scan(&dist.ID, &dist.MediaID, &dist.Recipient, &dist.FilePath, &shared); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan distribution: %w", err)
	}
	dist.SharedAt = time.Unix(0, shared)
	return &dist, nil
}
