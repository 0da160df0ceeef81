package db

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jonathan/trustcheck/internal/types"
)

// VerificationRow is the stored form of a verification result. The full
// result is kept as JSONB; the other columns serve listing and ordering.
type VerificationRow struct {
	ID             uuid.UUID
	TrustScore     int
	TrustLevel     string
	ContentType    string
	ContentPreview string
	ProcessingMS   int64
	IntegrityHash  string
	Result         []byte
	VerifiedAt     time.Time
}

// NewVerificationRow flattens a result into its row form.
func NewVerificationRow(result types.VerificationResult) (VerificationRow, error) {
	id, err := uuid.Parse(result.ID)
	if err != nil {
		return VerificationRow{}, fmt.Errorf("invalid verification id %q: %w", result.ID, err)
	}
	verifiedAt, err := time.Parse(time.RFC3339Nano, result.Timestamp)
	if err != nil {
		return VerificationRow{}, fmt.Errorf("invalid verification timestamp %q: %w", result.Timestamp, err)
	}
	raw, err := json.Marshal(result)
	if err != nil {
		return VerificationRow{}, fmt.Errorf("failed to marshal verification: %w", err)
	}
	return VerificationRow{
		ID:             id,
		TrustScore:     result.TrustScore,
		TrustLevel:     result.TrustLevel,
		ContentType:    string(result.ContentType),
		ContentPreview: result.ContentPreview,
		ProcessingMS:   result.ProcessingTime,
		IntegrityHash:  result.Integrity.Hash,
		Result:         raw,
		VerifiedAt:     verifiedAt,
	}, nil
}
