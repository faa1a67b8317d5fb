package model

import (
	"time"

	"github.com/m-mizutani/goerr/v2"
)

// LifecyclePolicy drives the periodic maintenance pass and similarity
// ranking. Windows are measured from CreatedAt.
type LifecyclePolicy struct {
	// CompressAfter: Active records older than this with fewer than
	// CompressMaxAccess accesses are compressed
	CompressAfter     time.Duration
	CompressMaxAccess int64

	// ArchiveAfter: records older than this with fewer than
	// ArchiveMaxAccess accesses are archived
	ArchiveAfter     time.Duration
	ArchiveMaxAccess int64

	// RetainFor is the hard retention ceiling; records older than this are
	// deleted by the cleanup pass whatever their state
	RetainFor time.Duration

	// CompressedContentLimit is the rune length content is shortened to
	// when a record is compressed
	CompressedContentLimit int

	// SimilarityThreshold is the minimum cosine similarity for a record to
	// qualify in the semantic retrieval path
	SimilarityThreshold float64

	// ScanLimit bounds the candidate set of the per-user similarity scan
	ScanLimit int
}

// DefaultLifecyclePolicy mirrors the retention behavior of the original
// deployment: compress after 30 days under 5 accesses, archive after 90
// days, hard-delete after a year.
func DefaultLifecyclePolicy() *LifecyclePolicy {
	return &LifecyclePolicy{
		CompressAfter:          30 * 24 * time.Hour,
		CompressMaxAccess:      5,
		ArchiveAfter:           90 * 24 * time.Hour,
		ArchiveMaxAccess:       2,
		RetainFor:              365 * 24 * time.Hour,
		CompressedContentLimit: 500,
		SimilarityThreshold:    0.7,
		ScanLimit:              100,
	}
}

// Validate checks window ordering and value ranges
func (p *LifecyclePolicy) Validate() error {
	if p.CompressAfter <= 0 {
		return goerr.New("compress window must be positive", goerr.V("compress_after", p.CompressAfter))
	}
	if p.ArchiveAfter <= p.CompressAfter {
		return goerr.New("archive window must exceed compress window",
			goerr.V("compress_after", p.CompressAfter),
			goerr.V("archive_after", p.ArchiveAfter))
	}
	if p.RetainFor <= p.ArchiveAfter {
		return goerr.New("retention ceiling must exceed archive window",
			goerr.V("archive_after", p.ArchiveAfter),
			goerr.V("retain_for", p.RetainFor))
	}
	if p.CompressMaxAccess < 0 {
		return goerr.New("compress access threshold cannot be negative", goerr.V("max_access", p.CompressMaxAccess))
	}
	if p.ArchiveMaxAccess < 0 {
		return goerr.New("archive access threshold cannot be negative", goerr.V("max_access", p.ArchiveMaxAccess))
	}
	if p.CompressedContentLimit <= 0 {
		return goerr.New("compressed content limit must be positive", goerr.V("limit", p.CompressedContentLimit))
	}
	if p.SimilarityThreshold < 0 || p.SimilarityThreshold > 1 {
		return goerr.New("similarity threshold must be within [0, 1]", goerr.V("threshold", p.SimilarityThreshold))
	}
	if p.ScanLimit <= 0 {
		return goerr.New("scan limit must be positive", goerr.V("scan_limit", p.ScanLimit))
	}
	return nil
}

// CompressionMarker is appended to shortened content so compressed records
// remain recognizable to callers
const CompressionMarker = "...[compressed]"

// CompressContent shortens content to the policy limit and appends the
// marker. Content already within the limit is returned unchanged.
func (p *LifecyclePolicy) CompressContent(content string) string {
	runes := []rune(content)
	if len(runes) <= p.CompressedContentLimit {
		return content
	}
	return string(runes[:p.CompressedContentLimit]) + CompressionMarker
}
