package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jonathan/trustcheck/internal/types"
)

// InsertVerification stores a finished verification result.
func (db *DB) InsertVerification(ctx context.Context, result types.VerificationResult) error {
	row, err := NewVerificationRow(result)
	if err != nil {
		return err
	}

	_, err = db.pool.Exec(ctx,
		`INSERT INTO verifications
		   (id, trust_score, trust_level, content_type, content_preview, processing_ms, integrity_hash, result, verified_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 ON CONFLICT (id) DO NOTHING`,
		row.ID, row.TrustScore, row.TrustLevel, row.ContentType, row.ContentPreview,
		row.ProcessingMS, row.IntegrityHash, row.Result, row.VerifiedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert verification %s: %w", result.ID, err)
	}
	return nil
}

// ListVerifications returns up to limit results, most recent first.
func (db *DB) ListVerifications(ctx context.Context, limit int) ([]types.VerificationResult, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT result FROM verifications ORDER BY verified_at DESC, created_at DESC LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list verifications: %w", err)
	}
	defer rows.Close()

	results := make([]types.VerificationResult, 0, limit)
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("failed to scan verification: %w", err)
		}
		var result types.VerificationResult
		if err := json.Unmarshal(raw, &result); err != nil {
			return nil, fmt.Errorf("failed to decode verification: %w", err)
		}
		results = append(results, result)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate verifications: %w", err)
	}
	return results, nil
}

// GetVerification returns a single result, or nil when it does not exist.
func (db *DB) GetVerification(ctx context.Context, id uuid.UUID) (*types.VerificationResult, error) {
	var raw []byte
	err := db.pool.QueryRow(ctx, `SELECT result FROM verifications WHERE id = $1`, id).Scan(&raw)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get verification: %w", err)
	}
	var result types.VerificationResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, fmt.Errorf("failed to decode verification: %w", err)
	}
	return &result, nil
}

// TrimVerifications deletes everything but the keep most recent rows.
func (db *DB) TrimVerifications(ctx context.Context, keep int) (int64, error) {
	tag, err := db.pool.Exec(ctx,
		`DELETE FROM verifications WHERE id NOT IN (
		   SELECT id FROM verifications ORDER BY verified_at DESC, created_at DESC LIMIT $1
		 )`,
		keep,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to trim verifications: %w", err)
	}
	return tag.RowsAffected(), nil
}

// DeleteVerifications removes every stored result.
func (db *DB) DeleteVerifications(ctx context.Context) (int64, error) {
	tag, err := db.pool.Exec(ctx, `DELETE FROM verifications`)
	if err != nil {
		return 0, fmt.Errorf("failed to delete verifications: %w", err)
	}
	return tag.RowsAffected(), nil
}
