package history

import (
	"context"
	"fmt"

	"github.com/jonathan/trustcheck/internal/db"
	"github.com/jonathan/trustcheck/internal/types"
)

// PostgresStore persists history in the verifications table.
type PostgresStore struct {
	db *db.DB
}

// OpenPostgresStore connects, applies the schema and returns the store.
func OpenPostgresStore(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	database, err := db.Connect(ctx, databaseURL)
	if err != nil {
		return nil, err
	}
	if err := database.Migrate(ctx); err != nil {
		database.Close()
		return nil, err
	}
	return &PostgresStore{db: database}, nil
}

// Append inserts result and trims the table to Limit rows.
func (s *PostgresStore) Append(ctx context.Context, result types.VerificationResult) error {
	if err := s.db.InsertVerification(ctx, result); err != nil {
		return err
	}
	if _, err := s.db.TrimVerifications(ctx, Limit); err != nil {
		return fmt.Errorf("history trim: %w", err)
	}
	return nil
}

// List returns the stored results, most recent first.
func (s *PostgresStore) List(ctx context.Context) ([]types.VerificationResult, error) {
	return s.db.ListVerifications(ctx, Limit)
}

// Clear deletes every stored result.
func (s *PostgresStore) Clear(ctx context.Context) error {
	_, err := s.db.DeleteVerifications(ctx)
	return err
}

// Close closes the pool.
func (s *PostgresStore) Close() error {
	s.db.Close()
	return nil
}
