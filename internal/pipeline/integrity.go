package pipeline

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"strconv"

	"github.com/jonathan/trustcheck/internal/types"
)

// IntegrityAlgorithm names the digest in IntegrityRecord.Algorithm.
const IntegrityAlgorithm = "sha256"

// Digest hashes content, score and timestamp into a hex SHA-256 digest.
func Digest(content string, score int, timestamp string) string {
	h := sha256.New()
	h.Write([]byte(content))
	h.Write([]byte(strconv.Itoa(score)))
	h.Write([]byte(timestamp))
	return hex.EncodeToString(h.Sum(nil))
}

// NewIntegrityRecord seals a finished result.
func NewIntegrityRecord(content string, score int, timestamp string) types.IntegrityRecord {
	return types.IntegrityRecord{
		Hash:      Digest(content, score, timestamp),
		Algorithm: IntegrityAlgorithm,
		Timestamp: timestamp,
	}
}

// CheckIntegrity reports whether result was produced for content and has not
// been altered since.
func CheckIntegrity(result types.VerificationResult, content string) bool {
	if result.Integrity.Algorithm != IntegrityAlgorithm {
		return false
	}
	want := Digest(content, result.TrustScore, result.Integrity.Timestamp)
	return subtle.ConstantTimeCompare([]byte(want), []byte(result.Integrity.Hash)) == 1
}
